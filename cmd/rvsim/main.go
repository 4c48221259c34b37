// Package main provides the entry point for rv32sim, a cycle-level 5-stage
// RV32I pipeline simulator.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/trace"
)

var (
	configPath  = flag.String("config", "", "Path to simulator configuration JSON file")
	functional  = flag.Bool("emu", false, "Run the functional emulator instead of the pipeline")
	base        = flag.String("base", "0", "Load address for raw binary images")
	maxCycles   = flag.Uint64("max-cycles", 0, "Stop after this many cycles (0: config value)")
	useDCache   = flag.Bool("dcache", false, "Enable the default L1 data-cache timing model")
	traceOut    = flag.Bool("trace", false, "Print every retired instruction")
	traceJSON   = flag.String("trace-json", "", "Write the retire trace as JSON lines to this file")
	breakAt     = flag.String("break", "", "Arm a breakpoint at this address")
	jsonReport  = flag.Bool("json", false, "Print the final report as JSON")
	interactive = flag.Bool("i", false, "Start the interactive debugger")
	stats       = flag.Bool("statsview", false, "Serve runtime statistics over HTTP (statsview builds only)")
	verbose     = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: rvsim [options] <program.elf|program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	loadBase, err := parseAddr(*base)
	if err != nil {
		fatalf("Invalid -base: %v", err)
	}

	prog, err := loader.Load(programPath, loadBase)
	if err != nil {
		fatalf("Error loading program: %v", err)
	}

	if *verbose {
		fmt.Printf("Loaded: %s\n", programPath)
		fmt.Printf("Entry point: 0x%08X\n", prog.Entry)
		fmt.Printf("Segments: %d\n", len(prog.Segments))
	}

	if *stats {
		if !statsviewAvailable() {
			fatalf("statsview support not built in (rebuild with -tags statsview)")
		}
		launchStatsview(os.Stderr)
	}

	config, err := buildConfig()
	if err != nil {
		fatalf("Error loading config: %v", err)
	}

	if *functional {
		os.Exit(int(runEmulation(config, prog, programPath)))
	}

	os.Exit(int(runTiming(config, prog, programPath)))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// parseAddr accepts decimal or 0x-prefixed hexadecimal addresses.
func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// buildConfig loads the configuration file, if any, and applies the
// command-line overrides.
func buildConfig() (*core.Config, error) {
	config := core.DefaultConfig()
	if *configPath != "" {
		var err error
		config, err = core.LoadConfig(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *maxCycles > 0 {
		config.MaxCycles = *maxCycles
	}
	if *useDCache && config.DCache == nil {
		dcache := cache.DefaultL1DConfig()
		config.DCache = &dcache
	}
	if *traceOut || *traceJSON != "" || *interactive {
		config.TraceEnabled = true
	}

	return config, config.Validate()
}

// runEmulation runs the program on the functional emulator.
func runEmulation(config *core.Config, prog *loader.Program, programPath string) int64 {
	imem := emu.NewBank(config.IMemBase, config.IMemSize)
	dmem := emu.NewBank(config.DMemBase, config.DMemSize)

	for _, seg := range prog.Segments {
		bank := dmem
		if seg.Executable() {
			bank = imem
		}
		if err := bank.LoadBytes(seg.Addr, seg.Data); err != nil {
			fatalf("Error loading segment at 0x%08X: %v", seg.Addr, err)
		}
	}

	emulator := emu.NewEmulator(
		emu.WithBanks(imem, dmem),
		emu.WithEntry(prog.Entry),
		emu.WithMaxInstructions(config.MaxInstructions),
	)

	exitCode := emulator.Run()

	if *verbose {
		fmt.Printf("\nProgram: %s\n", programPath)
		fmt.Printf("Exit code: %d\n", exitCode)
		fmt.Printf("Instructions executed: %d\n", emulator.InstructionCount())
		fmt.Printf("Memory faults: %d\n", emulator.Faults())
	}

	return exitCode
}

// runTiming runs the program on the pipeline model and prints its report.
func runTiming(config *core.Config, prog *loader.Program, programPath string) int64 {
	var opts []core.Option
	if *traceOut {
		opts = append(opts, core.WithTraceSink(trace.NewConsoleSink(os.Stdout)))
	}
	if *traceJSON != "" {
		f, err := os.Create(*traceJSON)
		if err != nil {
			fatalf("Error creating trace file: %v", err)
		}
		defer f.Close()
		opts = append(opts, core.WithTraceSink(trace.NewJSONSink(f)))
	}

	c, err := core.NewCore(config, opts...)
	if err != nil {
		fatalf("Error creating core: %v", err)
	}
	if err := c.LoadProgram(prog); err != nil {
		fatalf("Error loading program: %v", err)
	}

	if *breakAt != "" {
		addr, err := parseAddr(*breakAt)
		if err != nil {
			fatalf("Invalid -break: %v", err)
		}
		c.SetBreakpoint(addr)
	}

	if *interactive {
		d := newDebugger(c, os.Stdout)
		d.watchKeys = watchKeypress
		if err := d.Loop(os.Stdin); err != nil {
			fatalf("Debugger: %v", err)
		}
		return c.ExitCode()
	}

	for {
		reason, err := c.Run()
		if err != nil {
			fatalf("Simulation error: %v", err)
		}
		if reason != core.StopBreakpoint {
			break
		}
		fmt.Printf("Breakpoint at 0x%08X (cycle %d)\n", c.PC(), c.Stats().Cycles)
	}

	if tr := c.Tracer(); tr != nil && tr.Err() != nil {
		fmt.Fprintf(os.Stderr, "Trace output error: %v\n", tr.Err())
	}

	report := c.Report()
	if *jsonReport {
		if err := writeJSON(os.Stdout, report); err != nil {
			fatalf("Error writing report: %v", err)
		}
	} else {
		printReport(os.Stdout, programPath, report)
	}

	return report.ExitCode
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printReport prints the timing report with a cycle breakdown.
func printReport(w io.Writer, programPath string, r core.Report) {
	totalCycles := r.Cycles
	if totalCycles == 0 {
		totalCycles = 1
	}
	pct := func(n uint64) float64 {
		return 100.0 * float64(n) / float64(totalCycles)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Program: %s\n", programPath)
	fmt.Fprintf(w, "Halt reason: %s\n", r.HaltReason)
	fmt.Fprintf(w, "Exit code: %d\n", r.ExitCode)
	fmt.Fprintf(w, "Total Instructions: %d\n", r.Instructions)
	fmt.Fprintf(w, "Total Cycles: %d\n", r.Cycles)
	fmt.Fprintf(w, "CPI: %.2f\n", r.CPI)
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Breakdown:\n")
	fmt.Fprintf(w, "  Load-use stalls:     %4d cycles (%5.1f%%)\n", r.Stalls, pct(r.Stalls))
	fmt.Fprintf(w, "  Flushed slots:       %4d        (%5.1f%%)\n",
		r.FlushedInstructions, pct(r.FlushedInstructions))
	fmt.Fprintf(w, "  Memory stalls:       %4d cycles (%5.1f%%)\n", r.MemStalls, pct(r.MemStalls))
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Pipeline Events:\n")
	fmt.Fprintf(w, "  Flushes:        %d\n", r.Flushes)
	fmt.Fprintf(w, "  Branches:       %d (%d mispredicted)\n",
		r.BranchInstructions, r.BranchMispredictions)
	fmt.Fprintf(w, "  Data hazards:   %d\n", r.DataHazards)
	fmt.Fprintf(w, "  Memory faults:  %d\n", r.MemoryFaults)
	fmt.Fprintf(w, "  Invalid words:  %d\n", r.InvalidInstructions)

	if r.DCache != nil {
		fmt.Fprintf(w, "\n")
		fmt.Fprintf(w, "D-Cache:\n")
		fmt.Fprintf(w, "  Reads:     %d\n", r.DCache.Reads)
		fmt.Fprintf(w, "  Writes:    %d\n", r.DCache.Writes)
		fmt.Fprintf(w, "  Hit rate:  %.1f%% (%d misses)\n", 100*r.DCache.HitRate(), r.DCache.Misses)
		fmt.Fprintf(w, "  Evictions: %d\n", r.DCache.Evictions)
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Wall time: %v (%.0f instructions/s)\n", r.WallTime, r.InstructionsPerSecond)
}
