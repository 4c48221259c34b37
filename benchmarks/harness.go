// Package benchmarks provides RV32I microbenchmarks and a harness that runs
// them on the pipeline and checks the results against the functional
// emulator.
package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark
	Name string `json:"name"`

	// Description explains what the benchmark measures
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing simulator
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions
	InstructionsRetired uint64 `json:"instructions_retired"`

	// CPI is cycles per instruction
	CPI float64 `json:"cpi"`

	// StallCycles is the number of load-use stall cycles
	StallCycles uint64 `json:"stall_cycles"`

	// MemStalls is stalls due to data-cache latency
	MemStalls uint64 `json:"mem_stalls"`

	// DataHazards is the number of instructions that needed forwarding
	DataHazards uint64 `json:"data_hazards"`

	// PipelineFlushes is the number of pipeline flushes
	PipelineFlushes uint64 `json:"pipeline_flushes"`

	// FlushedInstructions is the number of wrong-path instructions discarded
	FlushedInstructions uint64 `json:"flushed_instructions"`

	// Branch statistics
	BranchInstructions   uint64 `json:"branch_instructions"`
	BranchMispredictions uint64 `json:"branch_mispredictions"`

	// DCacheHits/Misses (if cache enabled)
	DCacheHits   uint64 `json:"dcache_hits,omitempty"`
	DCacheMisses uint64 `json:"dcache_misses,omitempty"`

	// ExitCode is the program's exit code
	ExitCode int64 `json:"exit_code"`

	// ExpectedExit is the exit code the benchmark should produce
	ExpectedExit int64 `json:"expected_exit"`

	// ReferenceInstructions is the instruction count of the functional
	// emulator, when cross-checking is enabled
	ReferenceInstructions uint64 `json:"reference_instructions,omitempty"`

	// Mismatch describes the first disagreement with the expected exit code
	// or the functional emulator. Empty when the run is correct.
	Mismatch string `json:"mismatch,omitempty"`

	// WallTime is the actual time taken to run the simulation
	WallTime time.Duration `json:"wall_time_ns"`
}

// Passed reports whether the run matched its expectations.
func (r BenchmarkResult) Passed() bool {
	return r.Mismatch == ""
}

// Benchmark defines a single benchmark program.
type Benchmark struct {
	// Name identifies the benchmark
	Name string

	// Description explains what the benchmark measures
	Description string

	// Setup prepares the initial state (e.g., registers, data memory)
	Setup func(regFile *emu.RegFile, dmem *emu.Bank)

	// Program is the RV32I machine code, loaded at address 0
	Program []uint32

	// ExpectedExit is the expected exit code (a0 at ECALL)
	ExpectedExit int64
}

// HarnessConfig configures the benchmark harness.
type HarnessConfig struct {
	// EnableDCache enables data cache simulation
	EnableDCache bool

	// DCache is the data cache geometry used when EnableDCache is set
	DCache cache.Config

	// CrossCheck runs every benchmark on the functional emulator too and
	// compares exit codes, registers and instruction counts
	CrossCheck bool

	// MaxCycles bounds every run. 0 means no limit.
	MaxCycles uint64

	// Output is where to write results (default: os.Stdout)
	Output io.Writer

	// Verbose enables detailed output
	Verbose bool
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		EnableDCache: false,
		DCache:       cache.DefaultL1DConfig(),
		CrossCheck:   true,
		MaxCycles:    1_000_000,
		Output:       os.Stdout,
		Verbose:      false,
	}
}

// Harness runs timing benchmarks and reports results.
type Harness struct {
	config     HarnessConfig
	benchmarks []Benchmark
}

// NewHarness creates a new benchmark harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{
		config:     config,
		benchmarks: []Benchmark{},
	}
}

// AddBenchmark adds a benchmark to the harness.
func (h *Harness) AddBenchmark(b Benchmark) {
	h.benchmarks = append(h.benchmarks, b)
}

// AddBenchmarks adds multiple benchmarks to the harness.
func (h *Harness) AddBenchmarks(benchmarks []Benchmark) {
	h.benchmarks = append(h.benchmarks, benchmarks...)
}

// RunAll executes all benchmarks and returns results.
func (h *Harness) RunAll() ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(h.benchmarks))

	for _, bench := range h.benchmarks {
		result, err := h.runBenchmark(bench)
		if err != nil {
			return results, fmt.Errorf("benchmark %s: %w", bench.Name, err)
		}
		if h.config.Verbose {
			_, _ = fmt.Fprintf(h.config.Output, "%-24s cycles=%-6d insts=%-6d CPI=%.3f\n",
				result.Name, result.SimulatedCycles, result.InstructionsRetired, result.CPI)
		}
		results = append(results, result)
	}

	return results, nil
}

func (h *Harness) coreConfig() *core.Config {
	config := core.DefaultConfig()
	config.MaxCycles = h.config.MaxCycles
	if h.config.EnableDCache {
		dcache := h.config.DCache
		config.DCache = &dcache
	}
	return config
}

// runBenchmark executes a single benchmark.
func (h *Harness) runBenchmark(bench Benchmark) (BenchmarkResult, error) {
	c, err := core.NewCore(h.coreConfig())
	if err != nil {
		return BenchmarkResult{}, err
	}

	if err := c.LoadWords(bench.Program); err != nil {
		return BenchmarkResult{}, err
	}
	if bench.Setup != nil {
		bench.Setup(c.RegFile(), c.DMem())
	}

	if _, err := c.Run(); err != nil {
		return BenchmarkResult{}, err
	}

	report := c.Report()
	result := BenchmarkResult{
		Name:                 bench.Name,
		Description:          bench.Description,
		SimulatedCycles:      report.Cycles,
		InstructionsRetired:  report.Instructions,
		CPI:                  report.CPI,
		StallCycles:          report.Stalls,
		MemStalls:            report.MemStalls,
		DataHazards:          report.DataHazards,
		PipelineFlushes:      report.Flushes,
		FlushedInstructions:  report.FlushedInstructions,
		BranchInstructions:   report.BranchInstructions,
		BranchMispredictions: report.BranchMispredictions,
		ExitCode:             report.ExitCode,
		ExpectedExit:         bench.ExpectedExit,
		WallTime:             report.WallTime,
	}

	if report.DCache != nil {
		result.DCacheHits = report.DCache.Hits
		result.DCacheMisses = report.DCache.Misses
	}

	if result.ExitCode != bench.ExpectedExit {
		result.Mismatch = fmt.Sprintf("exit code %d, expected %d", result.ExitCode, bench.ExpectedExit)
	}

	if h.config.CrossCheck {
		h.crossCheck(bench, c, &result)
	}

	return result, nil
}

// crossCheck runs bench on the functional emulator and records the first
// architectural difference from the pipelined run.
func (h *Harness) crossCheck(bench Benchmark, c *core.Core, result *BenchmarkResult) {
	ref := emu.NewEmulator(emu.WithMaxInstructions(h.config.MaxCycles))
	if err := ref.LoadProgram(0, bench.Program); err != nil {
		result.Mismatch = fmt.Sprintf("reference load: %v", err)
		return
	}
	if bench.Setup != nil {
		bench.Setup(ref.RegFile(), ref.DMem())
	}

	exit := ref.Run()
	result.ReferenceInstructions = ref.InstructionCount()

	if result.Mismatch != "" {
		return
	}

	switch {
	case exit != result.ExitCode:
		result.Mismatch = fmt.Sprintf("exit code %d, reference %d", result.ExitCode, exit)
	case ref.InstructionCount() != result.InstructionsRetired:
		result.Mismatch = fmt.Sprintf("retired %d instructions, reference %d",
			result.InstructionsRetired, ref.InstructionCount())
	case ref.RegFile().Snapshot() != c.RegFile().Snapshot():
		result.Mismatch = "register file differs from reference"
	}
}

// PrintResults outputs benchmark results in a human-readable format.
func (h *Harness) PrintResults(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output, "=== RV32 Pipeline Benchmark Results ===")
	_, _ = fmt.Fprintln(h.config.Output, "")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "Benchmark: %s\n", r.Name)
		_, _ = fmt.Fprintf(h.config.Output, "  Description: %s\n", r.Description)
		_, _ = fmt.Fprintf(h.config.Output, "  Exit Code: %d\n", r.ExitCode)
		_, _ = fmt.Fprintln(h.config.Output, "  --- Timing ---")
		_, _ = fmt.Fprintf(h.config.Output, "  Simulated Cycles:     %d\n", r.SimulatedCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Instructions Retired: %d\n", r.InstructionsRetired)
		_, _ = fmt.Fprintf(h.config.Output, "  CPI:                  %.3f\n", r.CPI)
		_, _ = fmt.Fprintf(h.config.Output, "  Stall Cycles:         %d\n", r.StallCycles)
		_, _ = fmt.Fprintf(h.config.Output, "  Mem Stalls:           %d\n", r.MemStalls)
		_, _ = fmt.Fprintf(h.config.Output, "  Data Hazards:         %d\n", r.DataHazards)
		_, _ = fmt.Fprintf(h.config.Output, "  Pipeline Flushes:     %d\n", r.PipelineFlushes)
		_, _ = fmt.Fprintf(h.config.Output, "  Flushed Instructions: %d\n", r.FlushedInstructions)
		_, _ = fmt.Fprintf(h.config.Output, "  Branches:             %d (%d mispredicted)\n",
			r.BranchInstructions, r.BranchMispredictions)

		if r.DCacheHits > 0 || r.DCacheMisses > 0 {
			_, _ = fmt.Fprintln(h.config.Output, "  --- D-Cache ---")
			_, _ = fmt.Fprintf(h.config.Output, "  Hits:   %d\n", r.DCacheHits)
			_, _ = fmt.Fprintf(h.config.Output, "  Misses: %d\n", r.DCacheMisses)
		}

		if !r.Passed() {
			_, _ = fmt.Fprintf(h.config.Output, "  MISMATCH: %s\n", r.Mismatch)
		}

		_, _ = fmt.Fprintf(h.config.Output, "  Wall Time: %v\n", r.WallTime)
		_, _ = fmt.Fprintln(h.config.Output, "")
	}
}

// PrintCSV outputs benchmark results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []BenchmarkResult) {
	_, _ = fmt.Fprintln(h.config.Output,
		"name,cycles,instructions,cpi,stalls,mem_stalls,data_hazards,flushes,branches,mispredictions,dcache_hits,dcache_misses,exit_code")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%d,%d,%.3f,%d,%d,%d,%d,%d,%d,%d,%d,%d\n",
			r.Name,
			r.SimulatedCycles,
			r.InstructionsRetired,
			r.CPI,
			r.StallCycles,
			r.MemStalls,
			r.DataHazards,
			r.PipelineFlushes,
			r.BranchInstructions,
			r.BranchMispredictions,
			r.DCacheHits,
			r.DCacheMisses,
			r.ExitCode,
		)
	}
}

// BenchmarkReport is the complete output format for benchmark results.
type BenchmarkReport struct {
	// Metadata about the benchmark run
	Metadata ReportMetadata `json:"metadata"`

	// Results is the list of individual benchmark results
	Results []BenchmarkResult `json:"results"`

	// Summary contains aggregate statistics
	Summary ReportSummary `json:"summary"`
}

// ReportMetadata contains information about the benchmark run.
type ReportMetadata struct {
	// Timestamp when the benchmark was run
	Timestamp string `json:"timestamp"`

	// Config describes the benchmark configuration
	Config BenchmarkConfig `json:"config"`
}

// BenchmarkConfig describes the harness configuration used.
type BenchmarkConfig struct {
	DCacheEnabled bool          `json:"dcache_enabled"`
	DCache        *cache.Config `json:"dcache,omitempty"`
	CrossCheck    bool          `json:"cross_check"`
}

// ReportSummary contains aggregate statistics across all benchmarks.
type ReportSummary struct {
	// TotalBenchmarks is the number of benchmarks run
	TotalBenchmarks int `json:"total_benchmarks"`

	// Failed is the number of benchmarks with a mismatch
	Failed int `json:"failed"`

	// TotalCycles is the sum of all simulated cycles
	TotalCycles uint64 `json:"total_cycles"`

	// TotalInstructions is the sum of all instructions retired
	TotalInstructions uint64 `json:"total_instructions"`

	// AverageCPI is the aggregate cycles per instruction
	AverageCPI float64 `json:"average_cpi"`

	// TotalWallTime is the total wall clock time for all benchmarks
	TotalWallTime time.Duration `json:"total_wall_time_ns"`
}

// Summarize computes aggregate statistics over results.
func Summarize(results []BenchmarkResult) ReportSummary {
	summary := ReportSummary{TotalBenchmarks: len(results)}

	for _, r := range results {
		summary.TotalCycles += r.SimulatedCycles
		summary.TotalInstructions += r.InstructionsRetired
		summary.TotalWallTime += r.WallTime
		if !r.Passed() {
			summary.Failed++
		}
	}

	if summary.TotalInstructions > 0 {
		summary.AverageCPI = float64(summary.TotalCycles) / float64(summary.TotalInstructions)
	}

	return summary
}

// PrintJSON outputs benchmark results in JSON format for automated comparison.
func (h *Harness) PrintJSON(results []BenchmarkResult) error {
	report := BenchmarkReport{
		Metadata: ReportMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Config: BenchmarkConfig{
				DCacheEnabled: h.config.EnableDCache,
				CrossCheck:    h.config.CrossCheck,
			},
		},
		Results: results,
		Summary: Summarize(results),
	}

	if h.config.EnableDCache {
		dcache := h.config.DCache
		report.Metadata.Config.DCache = &dcache
	}

	encoder := json.NewEncoder(h.config.Output)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}
