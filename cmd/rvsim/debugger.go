package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/bradleyjkemp/memviz"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/pipeline"
	"github.com/sarchlab/rv32sim/trace"
)

var errQuit = errors.New("quit")

const debuggerHelp = `Commands:
  step [n]           advance n cycles (default 1)
  stepi              advance until one instruction retires
  run, continue      run until halt, breakpoint or keypress
  reset              restart the program
  break <addr>       arm the breakpoint
  clear              disarm the breakpoint
  regs               print the register file
  pipeline           print the pipeline latches
  stats              print the performance report
  trace [n]          print the last n traced instructions (default 10)
  mem <addr> [len]   dump data memory (default 64 bytes)
  memviz <file>      write the machine state as a Graphviz graph
  help               print this help
  quit               leave the debugger`

// debugger is the interactive front-end over a Core.
type debugger struct {
	core *core.Core
	out  io.Writer

	// watchKeys, when set, runs while the core is running and calls pause
	// on a keypress. It returns once stop is closed.
	watchKeys func(stop <-chan struct{}, pause func())
}

func newDebugger(c *core.Core, out io.Writer) *debugger {
	return &debugger{core: c, out: out}
}

// Loop reads commands from in until EOF or quit.
func (d *debugger) Loop(in io.Reader) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(d.out, "rv32sim debugger. Type 'help' for commands.")
	d.prompt()

	for scanner.Scan() {
		err := d.Exec(scanner.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(d.out, "error: %v\n", err)
		}
		d.prompt()
	}

	return scanner.Err()
}

func (d *debugger) prompt() {
	fmt.Fprintf(d.out, "(%d) 0x%08x> ", d.core.Stats().Cycles, d.core.PC())
}

// Exec runs a single command line.
func (d *debugger) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "step", "s":
		n := uint64(1)
		if len(args) > 0 {
			v, err := strconv.ParseUint(args[0], 0, 64)
			if err != nil {
				return fmt.Errorf("bad cycle count %q", args[0])
			}
			n = v
		}
		reason, err := d.core.RunCycles(n)
		if err != nil {
			return err
		}
		d.reportStop(reason)
	case "stepi", "si":
		reason, err := d.core.StepInstruction()
		if err != nil {
			return err
		}
		d.reportStop(reason)
		d.printLastRetired()
	case "run", "continue", "c":
		return d.run()
	case "reset":
		d.core.Reset()
		fmt.Fprintf(d.out, "reset to 0x%08x\n", d.core.PC())
	case "break", "b":
		if len(args) != 1 {
			return errors.New("usage: break <addr>")
		}
		addr, err := parseAddr(args[0])
		if err != nil {
			return fmt.Errorf("bad address %q", args[0])
		}
		d.core.SetBreakpoint(addr)
		fmt.Fprintf(d.out, "breakpoint at 0x%08x\n", addr)
	case "clear":
		d.core.ClearBreakpoint()
	case "regs", "r":
		d.printRegs()
	case "pipeline", "p":
		d.printPipeline()
	case "stats":
		printReport(d.out, "", d.core.Report())
	case "trace", "t":
		n := 10
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v < 0 {
				return fmt.Errorf("bad entry count %q", args[0])
			}
			n = v
		}
		return d.printTrace(n)
	case "mem", "m":
		return d.dumpMem(args)
	case "memviz":
		if len(args) != 1 {
			return errors.New("usage: memviz <file>")
		}
		return d.writeMemviz(args[0])
	case "help", "h", "?":
		fmt.Fprintln(d.out, debuggerHelp)
	case "quit", "q", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	return nil
}

// run runs the core until it stops, pausing it on a keypress when a key
// watcher is installed.
func (d *debugger) run() error {
	if d.core.Halted() {
		fmt.Fprintf(d.out, "halted: %s\n", d.core.HaltReason())
		return nil
	}

	if d.watchKeys != nil {
		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			d.watchKeys(stop, d.core.Pause)
		}()
		defer func() {
			close(stop)
			<-done
		}()
		fmt.Fprintln(d.out, "running, press any key to pause")
	}

	reason, err := d.core.Run()
	if err != nil {
		return err
	}
	d.reportStop(reason)

	return nil
}

func (d *debugger) reportStop(reason core.StopReason) {
	switch reason {
	case core.StopHalted:
		fmt.Fprintf(d.out, "halted: %s (exit code %d) after %d cycles\n",
			d.core.HaltReason(), d.core.ExitCode(), d.core.Stats().Cycles)
	case core.StopBreakpoint:
		fmt.Fprintf(d.out, "breakpoint hit at cycle %d\n", d.core.Stats().Cycles)
	case core.StopPaused:
		fmt.Fprintf(d.out, "paused at cycle %d\n", d.core.Stats().Cycles)
	}
}

func (d *debugger) printLastRetired() {
	tr := d.core.Tracer()
	if tr == nil {
		return
	}
	for _, e := range tr.Last(1) {
		fmt.Fprintln(d.out, trace.Format(&e))
	}
}

func (d *debugger) printRegs() {
	regs := d.core.Snapshot().Registers
	for i := 0; i < len(regs); i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Fprintf(d.out, "%-4s %-4s 0x%08x  ", fmt.Sprintf("x%d", j), insts.RegName(uint8(j)), regs[j])
		}
		fmt.Fprintln(d.out)
	}
	fmt.Fprintf(d.out, "pc        0x%08x\n", d.core.PC())
}

func (d *debugger) printPipeline() {
	s := d.core.Snapshot()

	fmt.Fprintf(d.out, "cycle %d, fetch pc 0x%08x\n", s.Cycle, s.PC)

	if s.IFID.Valid {
		var inst insts.Instruction
		insts.NewDecoder().DecodeInto(s.IFID.InstructionWord, &inst)
		d.printLatch("IF/ID", s.IFID.PC, &inst, s.IFID.Stalled)
	} else {
		d.printBubble("IF/ID")
	}
	if s.IDEX.Valid {
		d.printLatch("ID/EX", s.IDEX.PC, &s.IDEX.Inst, false)
	} else {
		d.printBubble("ID/EX")
	}
	if s.EXMEM.Valid {
		d.printLatch("EX/MEM", s.EXMEM.PC, &s.EXMEM.Inst, false)
	} else {
		d.printBubble("EX/MEM")
	}
	if s.MEMWB.Valid {
		d.printLatch("MEM/WB", s.MEMWB.PC, &s.MEMWB.Inst, false)
	} else {
		d.printBubble("MEM/WB")
	}

	if s.Halted {
		fmt.Fprintf(d.out, "halted: %s\n", s.HaltReason)
	}
}

func (d *debugger) printLatch(name string, pc uint32, inst *insts.Instruction, stalled bool) {
	suffix := ""
	if stalled {
		suffix = " (stalled)"
	}
	fmt.Fprintf(d.out, "  %-6s 0x%08x  %s%s\n", name, pc, inst, suffix)
}

func (d *debugger) printBubble(name string) {
	fmt.Fprintf(d.out, "  %-6s bubble\n", name)
}

func (d *debugger) printTrace(n int) error {
	tr := d.core.Tracer()
	if tr == nil {
		return errors.New("tracing is disabled")
	}
	for _, e := range tr.Last(n) {
		fmt.Fprintln(d.out, trace.Format(&e))
	}
	return nil
}

func (d *debugger) dumpMem(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: mem <addr> [len]")
	}

	addr, err := parseAddr(args[0])
	if err != nil {
		return fmt.Errorf("bad address %q", args[0])
	}
	length := uint32(64)
	if len(args) == 2 {
		length, err = parseAddr(args[1])
		if err != nil {
			return fmt.Errorf("bad length %q", args[1])
		}
	}

	data, err := d.core.DMem().Dump(addr, length)
	if err != nil {
		return err
	}

	fmt.Fprintf(d.out, "0x%08x:\n", addr)
	dumper := hex.Dumper(d.out)
	defer dumper.Close()
	_, err = dumper.Write(data)

	return err
}

// writeMemviz writes the current snapshot as a Graphviz dot graph.
func (d *debugger) writeMemviz(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	graph := newStateGraph(d.core.Snapshot())
	memviz.Map(f, graph)
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(d.out, "wrote %s\n", path)

	return nil
}

// stateGraph is the part of a snapshot worth drawing. Latches point at the
// instructions they hold; bubbles are nil.
type stateGraph struct {
	Cycle     uint64
	PC        uint32
	Registers map[string]uint32
	IFID      *latchView
	IDEX      *latchView
	EXMEM     *latchView
	MEMWB     *latchView
	Stats     pipeline.Statistics
}

type latchView struct {
	PC          uint32
	Disasm      string
	Stalls      uint64
	BranchTaken bool
}

func newStateGraph(s core.Snapshot) *stateGraph {
	g := &stateGraph{
		Cycle:     s.Cycle,
		PC:        s.PC,
		Registers: make(map[string]uint32),
		Stats:     s.Stats,
	}

	for i, v := range s.Registers {
		if v != 0 {
			g.Registers[insts.RegName(uint8(i))] = v
		}
	}

	if s.IFID.Valid {
		inst := insts.NewDecoder().Decode(s.IFID.InstructionWord)
		g.IFID = &latchView{PC: s.IFID.PC, Disasm: inst.String(), Stalls: s.IFID.Stalls}
	}
	if s.IDEX.Valid {
		g.IDEX = &latchView{PC: s.IDEX.PC, Disasm: s.IDEX.Inst.String(), Stalls: s.IDEX.Stalls}
	}
	if s.EXMEM.Valid {
		g.EXMEM = &latchView{
			PC:          s.EXMEM.PC,
			Disasm:      s.EXMEM.Inst.String(),
			Stalls:      s.EXMEM.Stalls,
			BranchTaken: s.EXMEM.BranchTaken,
		}
	}
	if s.MEMWB.Valid {
		g.MEMWB = &latchView{
			PC:          s.MEMWB.PC,
			Disasm:      s.MEMWB.Inst.String(),
			Stalls:      s.MEMWB.Stalls,
			BranchTaken: s.MEMWB.BranchTaken,
		}
	}

	return g
}
