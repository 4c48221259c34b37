// Package main provides a profiling wrapper for rv32sim to find hot spots in
// the simulator itself.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/timing/core"
)

var (
	timing      = flag.Bool("timing", false, "Profile the pipeline model instead of the functional emulator")
	dcache      = flag.Bool("dcache", false, "Enable the data-cache timing model (with -timing)")
	cpuProfile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile  = flag.String("memprofile", "", "write memory profile to file")
	duration    = flag.Duration("duration", 30*time.Second, "max duration to run (for profiling)")
	instruction = flag.Uint64("max-instr", 1000000, "max instructions to execute (0 = unlimited)")
	base        = flag.String("base", "0", "Load address for raw binary images")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: profile [options] <program.elf|program.bin>\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	loadBase, err := strconv.ParseUint(*base, 0, 32)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -base: %v\n", err)
		os.Exit(1)
	}

	programPath := flag.Arg(0)

	prog, err := loader.Load(programPath, uint32(loadBase))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Loaded: %s\n", programPath)
	fmt.Printf("Entry point: 0x%X\n", prog.Entry)

	start := time.Now()

	var exitCode int64
	var instrCount uint64

	if *timing {
		exitCode, instrCount, err = runTimingProfile(prog)
	} else {
		exitCode, instrCount, err = runEmulationProfile(prog)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	fmt.Printf("\nProfiling Results:\n")
	fmt.Printf("Exit code: %d\n", exitCode)
	fmt.Printf("Instructions executed: %d\n", instrCount)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}
}

// runEmulationProfile runs the program on the functional emulator.
func runEmulationProfile(prog *loader.Program) (int64, uint64, error) {
	imem := emu.NewBank(0, emu.DefaultBankSize)
	dmem := emu.NewBank(0, emu.DefaultBankSize)

	for _, seg := range prog.Segments {
		bank := dmem
		if seg.Executable() {
			bank = imem
		}
		if err := bank.LoadBytes(seg.Addr, seg.Data); err != nil {
			return 0, 0, fmt.Errorf("loading segment at 0x%X: %w", seg.Addr, err)
		}
	}

	emulator := emu.NewEmulator(
		emu.WithBanks(imem, dmem),
		emu.WithEntry(prog.Entry),
		emu.WithMaxInstructions(*instruction),
	)

	exitCode := emulator.Run()

	return exitCode, emulator.InstructionCount(), nil
}

// runTimingProfile runs the program on the pipeline model. The run is paused
// when the duration elapses.
func runTimingProfile(prog *loader.Program) (int64, uint64, error) {
	config := core.DefaultConfig()
	config.MaxInstructions = *instruction
	if *dcache {
		dc := cache.DefaultL1DConfig()
		config.DCache = &dc
	}

	c, err := core.NewCore(config)
	if err != nil {
		return 0, 0, err
	}
	if err := c.LoadProgram(prog); err != nil {
		return 0, 0, err
	}

	timer := time.AfterFunc(*duration, func() {
		fmt.Printf("\nTimeout reached after %v - stopping execution\n", *duration)
		c.Pause()
	})
	defer timer.Stop()

	for {
		reason, err := c.Run()
		if err != nil {
			return 0, 0, err
		}
		if reason != core.StopBreakpoint {
			break
		}
	}

	report := c.Report()
	fmt.Printf("Cycles: %d (CPI %.3f)\n", report.Cycles, report.CPI)

	return report.ExitCode, report.Instructions, nil
}
