// Package core provides the simulator controller used by front-ends.
// It owns the architectural state, drives the pipeline and exposes
// read-only inspection of everything it simulates.
package core

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/pipeline"
	"github.com/sarchlab/rv32sim/trace"
)

// StopReason tells why Run or RunCycles returned.
type StopReason int

// Stop reasons.
const (
	StopNone StopReason = iota
	// StopHalted means the pipeline halted; see HaltReason.
	StopHalted
	// StopBreakpoint means the breakpoint address was fetched.
	StopBreakpoint
	// StopPaused means Pause was called.
	StopPaused
	// StopCycleBudget means RunCycles used up its cycles.
	StopCycleBudget
)

func (r StopReason) String() string {
	switch r {
	case StopHalted:
		return "halted"
	case StopBreakpoint:
		return "breakpoint"
	case StopPaused:
		return "paused"
	case StopCycleBudget:
		return "cycle budget"
	default:
		return "none"
	}
}

// Option configures a Core.
type Option func(*Core)

// WithHook attaches a hook to the pipeline's retire and fault positions.
func WithHook(h sim.Hook) Option {
	return func(c *Core) {
		c.hooks = append(c.hooks, h)
	}
}

// WithTraceSink streams every traced entry to s. It has no effect unless
// tracing is enabled in the Config.
func WithTraceSink(s trace.Sink) Option {
	return func(c *Core) {
		c.traceOpts = append(c.traceOpts, trace.WithSink(s))
	}
}

// WithTraceFilter limits the tracer to the entries f matches.
func WithTraceFilter(f trace.Filter) Option {
	return func(c *Core) {
		c.traceOpts = append(c.traceOpts, trace.WithFilter(f))
	}
}

// Core is the simulated machine: a register file, an instruction bank, a
// data bank and the 5-stage pipeline over them.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	config  *Config
	regFile *emu.RegFile
	imem    *emu.Bank
	dmem    *emu.Bank
	tracer  *trace.Tracer

	hooks     []sim.Hook
	traceOpts []trace.TracerOption

	program *loader.Program

	// pauseRequested may be set from another goroutine; everything else is
	// owned by the goroutine driving the simulation.
	pauseRequested atomic.Bool

	wallTime time.Duration
}

// NewCore creates a Core from config. A nil config means DefaultConfig.
func NewCore(config *Config, opts ...Option) (*Core, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Core{
		config:  config.Clone(),
		regFile: &emu.RegFile{},
		imem:    emu.NewBank(config.IMemBase, config.IMemSize),
		dmem:    emu.NewBank(config.DMemBase, config.DMemSize),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Pipeline = pipeline.NewPipeline(c.regFile, c.imem, c.dmem, c.pipelineOptions()...)

	if c.config.TraceEnabled {
		c.tracer = trace.NewTracer(c.config.TraceCapacity, c.traceOpts...)
		c.Pipeline.AcceptHook(c.tracer)
	}
	for _, h := range c.hooks {
		c.Pipeline.AcceptHook(h)
	}

	return c, nil
}

func (c *Core) pipelineOptions() []pipeline.PipelineOption {
	opts := []pipeline.PipelineOption{
		pipeline.WithMaxCycles(c.config.MaxCycles),
		pipeline.WithMaxInstructions(c.config.MaxInstructions),
		pipeline.WithHaltOnECALL(c.config.HaltOnECALL),
		pipeline.WithHaltOnEBREAK(c.config.HaltOnEBREAK),
		pipeline.WithHaltOnInvalid(c.config.HaltOnInvalid),
		pipeline.WithHaltOnFault(c.config.HaltOnFault),
	}
	if c.config.DCache != nil {
		opts = append(opts, pipeline.WithDCache(*c.config.DCache))
	}
	return opts
}

// Config returns a copy of the configuration the core was built with.
func (c *Core) Config() *Config {
	return c.config.Clone()
}

// RegFile returns the architectural register file.
func (c *Core) RegFile() *emu.RegFile {
	return c.regFile
}

// IMem returns the instruction bank.
func (c *Core) IMem() *emu.Bank {
	return c.imem
}

// DMem returns the data bank.
func (c *Core) DMem() *emu.Bank {
	return c.dmem
}

// Tracer returns the execution tracer, or nil when tracing is disabled.
func (c *Core) Tracer() *trace.Tracer {
	return c.tracer
}

// LoadWords loads a program of instruction words at the instruction bank
// base and resets the machine.
func (c *Core) LoadWords(words []uint32) error {
	return c.LoadProgram(loader.FromWords(c.config.IMemBase, words))
}

// LoadProgram copies prog into the banks and resets the machine to its
// entry point. Executable segments go to the instruction bank, all others
// to the data bank.
func (c *Core) LoadProgram(prog *loader.Program) error {
	if prog == nil {
		return errors.New("no program")
	}

	for _, seg := range prog.Segments {
		bank, name := c.bankFor(seg)
		size := max(seg.MemSize, uint32(len(seg.Data)))
		if !bank.Contains(seg.Addr, size) {
			return fmt.Errorf("segment at 0x%08x (%d bytes) does not fit the %s bank: %w",
				seg.Addr, size, name, emu.ErrMemoryOutOfBounds)
		}
	}
	if !c.imem.Contains(prog.Entry, 4) {
		return fmt.Errorf("entry point 0x%08x outside the instruction bank: %w",
			prog.Entry, emu.ErrMemoryOutOfBounds)
	}

	c.imem.Clear()
	for _, seg := range prog.Segments {
		if !seg.Executable() {
			continue
		}
		if err := c.imem.LoadBytes(seg.Addr, seg.Data); err != nil {
			return fmt.Errorf("loading text segment: %w", err)
		}
	}

	c.program = prog
	c.Reset()

	return nil
}

func (c *Core) bankFor(seg loader.Segment) (*emu.Bank, string) {
	if seg.Executable() {
		return c.imem, "instruction"
	}
	return c.dmem, "data"
}

// Program returns the loaded program, or nil.
func (c *Core) Program() *loader.Program {
	return c.program
}

// Reset clears registers, restores the data bank to the loaded image and
// restarts the pipeline at the entry point. Breakpoints stay armed.
func (c *Core) Reset() {
	c.regFile.Reset()
	c.dmem.Clear()
	c.Pipeline.Reset()

	if c.program != nil {
		for _, seg := range c.program.Segments {
			if !seg.Executable() {
				// Fit was checked when the program was loaded.
				_ = c.dmem.LoadBytes(seg.Addr, seg.Data)
			}
		}
		c.Pipeline.SetPC(c.program.Entry)
	}

	if c.tracer != nil {
		c.tracer.Clear()
	}
	c.pauseRequested.Store(false)
	c.wallTime = 0
}

// Step advances the machine by one cycle.
func (c *Core) Step() error {
	return c.Pipeline.Tick()
}

// StepInstruction advances until one more instruction retires. It stops
// early on a halt or breakpoint.
func (c *Core) StepInstruction() (StopReason, error) {
	retired := c.Pipeline.Stats().Instructions

	for {
		if c.Pipeline.Halted() {
			return StopHalted, nil
		}
		if err := c.Pipeline.Tick(); err != nil {
			return StopNone, err
		}
		if c.Pipeline.Halted() {
			return StopHalted, nil
		}
		if c.Pipeline.Stats().Instructions > retired {
			return StopNone, nil
		}
		if c.Pipeline.BreakpointHit() {
			return StopBreakpoint, nil
		}
	}
}

// Run simulates until the pipeline halts, the breakpoint is fetched or
// Pause is called.
func (c *Core) Run() (StopReason, error) {
	return c.run(0)
}

// RunCycles simulates at most n cycles.
func (c *Core) RunCycles(n uint64) (StopReason, error) {
	if n == 0 {
		return StopCycleBudget, nil
	}
	return c.run(n)
}

func (c *Core) run(budget uint64) (StopReason, error) {
	start := time.Now()
	defer func() { c.wallTime += time.Since(start) }()

	for i := uint64(0); budget == 0 || i < budget; i++ {
		if c.Pipeline.Halted() {
			return StopHalted, nil
		}
		if c.pauseRequested.Swap(false) {
			return StopPaused, nil
		}
		if err := c.Pipeline.Tick(); err != nil {
			return StopNone, err
		}
		if c.Pipeline.Halted() {
			return StopHalted, nil
		}
		if c.Pipeline.BreakpointHit() {
			return StopBreakpoint, nil
		}
	}

	return StopCycleBudget, nil
}

// Pause asks a running Run to return at the next cycle boundary. It is safe
// to call from any goroutine.
func (c *Core) Pause() {
	c.pauseRequested.Store(true)
}

// SetBreakpoint arms the breakpoint at addr.
func (c *Core) SetBreakpoint(addr uint32) {
	c.Pipeline.SetBreakpoint(addr)
}

// ClearBreakpoint disarms the breakpoint.
func (c *Core) ClearBreakpoint() {
	c.Pipeline.ClearBreakpoint()
}

// PC returns the address of the next fetch.
func (c *Core) PC() uint32 {
	return c.Pipeline.PC()
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// HaltReason returns why the core halted.
func (c *Core) HaltReason() pipeline.HaltReason {
	return c.Pipeline.HaltReason()
}

// ExitCode returns a0 as the program's exit code.
func (c *Core) ExitCode() int64 {
	return c.Pipeline.ExitCode()
}

// Stats returns pipeline statistics.
func (c *Core) Stats() pipeline.Statistics {
	return c.Pipeline.Stats()
}

// WallTime returns the host time spent in Run and RunCycles since the last
// reset.
func (c *Core) WallTime() time.Duration {
	return c.wallTime
}

// Report summarizes a simulation.
type Report struct {
	pipeline.Statistics

	CPI                   float64           `json:"cpi"`
	HaltReason            string            `json:"halt_reason"`
	ExitCode              int64             `json:"exit_code"`
	WallTime              time.Duration     `json:"wall_time_ns"`
	InstructionsPerSecond float64           `json:"instructions_per_second"`
	DCache                *cache.Statistics `json:"dcache,omitempty"`
}

// Report returns the performance summary of the simulation so far.
func (c *Core) Report() Report {
	stats := c.Pipeline.Stats()

	r := Report{
		Statistics: stats,
		CPI:        stats.CPI(),
		HaltReason: c.Pipeline.HaltReason().String(),
		ExitCode:   c.Pipeline.ExitCode(),
		WallTime:   c.wallTime,
	}

	if c.wallTime > 0 {
		r.InstructionsPerSecond = float64(stats.Instructions) / c.wallTime.Seconds()
	}

	if c.Pipeline.UseDCache() {
		dstats := c.Pipeline.DCacheStats()
		r.DCache = &dstats
	}

	return r
}
