package pipeline

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
)

// Hook positions at which the pipeline invokes its hooks.
var (
	// HookPosRetire is invoked once per retired instruction. The item is a
	// trace.Entry.
	HookPosRetire = &sim.HookPos{Name: "Retire"}

	// HookPosFault is invoked for every rejected memory access. The item is
	// a Fault.
	HookPosFault = &sim.HookPos{Name: "Fault"}
)

// maxFaultLog bounds the number of faults kept for inspection.
const maxFaultLog = 256

// Fault describes a rejected memory access.
type Fault struct {
	Cycle uint64
	PC    uint32
	Addr  uint32
	// Fetch is true for instruction fetches, false for data accesses.
	Fetch bool
	Err   error
}

func (f Fault) Error() string {
	kind := "data"
	if f.Fetch {
		kind = "fetch"
	}
	return fmt.Sprintf("cycle %d: %s fault at PC=0x%08x: %v", f.Cycle, kind, f.PC, f.Err)
}

// Unwrap returns the underlying memory error.
func (f Fault) Unwrap() error {
	return f.Err
}

// HaltReason tells why the pipeline stopped.
type HaltReason int

// Halt reasons.
const (
	HaltNone HaltReason = iota
	HaltECALL
	HaltEBREAK
	HaltInvalidInstruction
	HaltFetchFault
	HaltMemoryFault
	HaltCycleLimit
	HaltInstructionLimit
)

func (r HaltReason) String() string {
	switch r {
	case HaltECALL:
		return "ecall"
	case HaltEBREAK:
		return "ebreak"
	case HaltInvalidInstruction:
		return "invalid instruction"
	case HaltFetchFault:
		return "fetch fault"
	case HaltMemoryFault:
		return "memory fault"
	case HaltCycleLimit:
		return "cycle limit"
	case HaltInstructionLimit:
		return "instruction limit"
	default:
		return "running"
	}
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64 `json:"cycles"`
	// Instructions is the number of instructions completed (retired).
	Instructions uint64 `json:"instructions"`
	// Stalls is the number of load-use stall cycles.
	Stalls uint64 `json:"stalls"`
	// Flushes is the number of pipeline flushes.
	Flushes uint64 `json:"flushes"`
	// FlushedInstructions is the number of younger instructions discarded
	// by flushes.
	FlushedInstructions uint64 `json:"flushed_instructions"`
	// BranchInstructions is the number of branches and jumps executed.
	BranchInstructions uint64 `json:"branch_instructions"`
	// BranchMispredictions counts taken branches and jumps, which
	// predict-not-taken always gets wrong.
	BranchMispredictions uint64 `json:"branch_mispredictions"`
	// DataHazards is the number of instructions that needed forwarding.
	DataHazards uint64 `json:"data_hazards"`
	// MemStalls is the number of stall cycles due to data-cache latency.
	MemStalls uint64 `json:"mem_stalls"`
	// MemoryFaults is the number of rejected memory accesses.
	MemoryFaults uint64 `json:"memory_faults"`
	// InvalidInstructions is the number of fetched words that did not decode.
	InvalidInstructions uint64 `json:"invalid_instructions"`
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithMaxCycles halts the pipeline after n cycles. 0 means no limit.
func WithMaxCycles(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxCycles = n
	}
}

// WithMaxInstructions halts the pipeline after n retired instructions.
// 0 means no limit.
func WithMaxInstructions(n uint64) PipelineOption {
	return func(p *Pipeline) {
		p.maxInstructions = n
	}
}

// WithHaltOnECALL sets whether fetching ECALL ends the program. When false,
// ECALL executes as a no-op.
func WithHaltOnECALL(halt bool) PipelineOption {
	return func(p *Pipeline) {
		p.haltOnECALL = halt
	}
}

// WithHaltOnEBREAK sets whether fetching EBREAK ends the program. When
// false, EBREAK executes as a no-op.
func WithHaltOnEBREAK(halt bool) PipelineOption {
	return func(p *Pipeline) {
		p.haltOnEBREAK = halt
	}
}

// WithHaltOnInvalid sets whether fetching an invalid word ends the program.
// When false, the word is dropped as a bubble and fetch continues.
func WithHaltOnInvalid(halt bool) PipelineOption {
	return func(p *Pipeline) {
		p.haltOnInvalid = halt
	}
}

// WithHaltOnFault sets whether a data-memory fault halts the pipeline
// immediately. By default faults are recorded and execution continues.
func WithHaltOnFault(halt bool) PipelineOption {
	return func(p *Pipeline) {
		p.haltOnFault = halt
	}
}

// WithDCache enables the L1 data-cache timing model. Accesses that take more
// than one cycle stall the pipeline in the memory stage.
func WithDCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.dcache = cache.New(config)
	}
}

// Pipeline implements a 5-stage in-order RV32I pipeline.
// Stages: Fetch (IF) -> Decode (ID) -> Execute (EX) -> Memory (MEM) -> Writeback (WB)
type Pipeline struct {
	*sim.HookableBase

	// Pipeline registers
	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	// Pipeline stages
	fetchStage     *FetchStage
	decodeStage    *DecodeStage
	executeStage   *ExecuteStage
	memoryStage    *MemoryStage
	writebackStage *WritebackStage

	hazardUnit *HazardUnit
	dcache     *cache.Cache

	regFile *emu.RegFile
	imem    *emu.Bank
	dmem    *emu.Bank

	pc    uint32
	stats Statistics

	faults []Fault

	// memWait is the number of remaining cache stall cycles of the access
	// in EX/MEM.
	memWait uint64

	// fetchStopped is set once fetch reached the end of the program. Older
	// instructions drain, then the pipeline halts with stopReason.
	fetchStopped bool
	stopReason   HaltReason

	// fetchFault is the fault that stopped fetch. It is reported only if the
	// pipeline drains without a redirect discarding that fetch.
	fetchFault *Fault

	halted     bool
	haltReason HaltReason

	breakpoint        uint32
	breakpointEnabled bool
	breakpointHit     bool

	maxCycles       uint64
	maxInstructions uint64
	haltOnECALL     bool
	haltOnEBREAK    bool
	haltOnInvalid   bool
	haltOnFault     bool
}

// NewPipeline creates a new 5-stage pipeline over the given register file
// and instruction and data banks. Fetch starts at the instruction bank base.
func NewPipeline(
	regFile *emu.RegFile,
	imem, dmem *emu.Bank,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		HookableBase:  sim.NewHookableBase(),
		hazardUnit:    NewHazardUnit(),
		executeStage:  NewExecuteStage(),
		regFile:       regFile,
		imem:          imem,
		dmem:          dmem,
		haltOnECALL:   true,
		haltOnEBREAK:  true,
		haltOnInvalid: true,
	}

	if imem != nil {
		p.fetchStage = NewFetchStage(imem)
		p.pc = imem.Base()
	}
	if dmem != nil {
		p.memoryStage = NewMemoryStage(dmem)
	}
	if regFile != nil {
		p.decodeStage = NewDecodeStage(regFile)
		p.writebackStage = NewWritebackStage(regFile)
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// PC returns the address of the next fetch.
func (p *Pipeline) PC() uint32 {
	return p.pc
}

// SetPC redirects fetch to pc.
func (p *Pipeline) SetPC(pc uint32) {
	p.pc = pc
}

// GetIFID returns a copy of the IF/ID pipeline register.
func (p *Pipeline) GetIFID() IFIDRegister {
	return p.ifid
}

// GetIDEX returns a copy of the ID/EX pipeline register.
func (p *Pipeline) GetIDEX() IDEXRegister {
	return p.idex
}

// GetEXMEM returns a copy of the EX/MEM pipeline register.
func (p *Pipeline) GetEXMEM() EXMEMRegister {
	return p.exmem
}

// GetMEMWB returns a copy of the MEM/WB pipeline register.
func (p *Pipeline) GetMEMWB() MEMWBRegister {
	return p.memwb
}

// Registers returns a copy of the architectural register file.
func (p *Pipeline) Registers() [emu.NumRegisters]uint32 {
	return p.regFile.Snapshot()
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Faults returns the most recent recorded faults, oldest first.
func (p *Pipeline) Faults() []Fault {
	out := make([]Fault, len(p.faults))
	copy(out, p.faults)
	return out
}

// Halted returns true if the pipeline has halted.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// HaltReason returns why the pipeline halted.
func (p *Pipeline) HaltReason() HaltReason {
	return p.haltReason
}

// ExitCode returns a0 (x10) as a signed value. It is meaningful once the
// pipeline halted on ECALL.
func (p *Pipeline) ExitCode() int64 {
	return int64(int32(p.regFile.ReadReg(10)))
}

// SetBreakpoint arms a breakpoint at addr.
func (p *Pipeline) SetBreakpoint(addr uint32) {
	p.breakpoint = addr
	p.breakpointEnabled = true
}

// ClearBreakpoint disarms the breakpoint.
func (p *Pipeline) ClearBreakpoint() {
	p.breakpointEnabled = false
	p.breakpointHit = false
}

// Breakpoint returns the breakpoint address and whether it is armed.
func (p *Pipeline) Breakpoint() (uint32, bool) {
	return p.breakpoint, p.breakpointEnabled
}

// BreakpointHit reports whether the last cycle fetched from the breakpoint
// address.
func (p *Pipeline) BreakpointHit() bool {
	return p.breakpointHit
}

// UseDCache returns true if the D-cache model is enabled.
func (p *Pipeline) UseDCache() bool {
	return p.dcache != nil
}

// DCacheStats returns D-cache statistics, or empty if the D-cache is not
// enabled.
func (p *Pipeline) DCacheStats() cache.Statistics {
	if p.dcache == nil {
		return cache.Statistics{}
	}
	return p.dcache.Stats()
}

// Empty reports whether every pipeline register holds a bubble.
func (p *Pipeline) Empty() bool {
	return !p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid
}

// Run ticks the pipeline until it halts and returns the halt reason.
func (p *Pipeline) Run() (HaltReason, error) {
	for !p.halted {
		if err := p.Tick(); err != nil {
			return HaltNone, err
		}
	}
	return p.haltReason, nil
}

// RunCycles executes the pipeline for at most the given number of cycles.
// Returns true if still running, false if halted.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !p.halted; i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.halted, nil
}

// Reset clears all pipeline state and restarts fetch at the instruction bank
// base. Register file and memory contents are left to the owner.
func (p *Pipeline) Reset() {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.pc = 0
	if p.imem != nil {
		p.pc = p.imem.Base()
	}
	p.stats = Statistics{}
	p.faults = nil
	p.memWait = 0
	p.fetchStopped = false
	p.stopReason = HaltNone
	p.fetchFault = nil
	p.halted = false
	p.haltReason = HaltNone
	p.breakpointHit = false
	if p.dcache != nil {
		p.dcache.Reset()
	}
}

func (p *Pipeline) checkInitialized() error {
	if p.regFile == nil || p.imem == nil || p.dmem == nil {
		return fmt.Errorf("%w: pipeline needs a register file and both memory banks",
			emu.ErrUninitializedState)
	}
	return nil
}

func (p *Pipeline) halt(reason HaltReason) {
	p.halted = true
	p.haltReason = reason
}

// stopFetch ends fetching; the pipeline halts with reason once it drains.
func (p *Pipeline) stopFetch(reason HaltReason) {
	p.fetchStopped = true
	p.stopReason = reason
}

func (p *Pipeline) newFault(pc, addr uint32, fetch bool, err error) Fault {
	return Fault{
		Cycle: p.stats.Cycles,
		PC:    pc,
		Addr:  addr,
		Fetch: fetch,
		Err:   err,
	}
}

func (p *Pipeline) recordFault(f Fault) {
	p.stats.MemoryFaults++
	if len(p.faults) == maxFaultLog {
		p.faults = append(p.faults[:0], p.faults[1:]...)
	}
	p.faults = append(p.faults, f)

	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosFault,
		Item:   f,
	})
}

// checkLimits halts the pipeline once a configured bound is reached.
func (p *Pipeline) checkLimits() {
	if p.halted {
		return
	}
	if p.maxCycles > 0 && p.stats.Cycles >= p.maxCycles {
		p.halt(HaltCycleLimit)
		return
	}
	if p.maxInstructions > 0 && p.stats.Instructions >= p.maxInstructions {
		p.halt(HaltInstructionLimit)
	}
}
