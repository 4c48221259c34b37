// Command benchmark runs the rv32sim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	-csv            Output results in CSV format (default: human-readable)
//	-json           Output results as a JSON report
//	-dcache         Enable data cache simulation
//	-core           Run only the core benchmark subset
//	-no-crosscheck  Skip the functional emulator cross-check
//	-max-cycles     Cycle limit per benchmark
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark -csv > results.csv
//
// Every benchmark is checked against its expected exit code and, unless
// disabled, against the functional emulator. The command exits non-zero if
// any check fails.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/benchmarks"
)

func main() {
	csvOutput := flag.Bool("csv", false, "Output results in CSV format")
	jsonOutput := flag.Bool("json", false, "Output results as a JSON report")
	enableDCache := flag.Bool("dcache", false, "Enable data cache simulation")
	coreOnly := flag.Bool("core", false, "Run only the core benchmark subset")
	noCrossCheck := flag.Bool("no-crosscheck", false, "Skip the functional emulator cross-check")
	maxCycles := flag.Uint64("max-cycles", 1_000_000, "Cycle limit per benchmark (0: none)")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	config := benchmarks.DefaultConfig()
	config.EnableDCache = *enableDCache
	config.CrossCheck = !*noCrossCheck
	config.MaxCycles = *maxCycles
	config.Verbose = *verbose
	config.Output = os.Stdout

	harness := benchmarks.NewHarness(config)
	if *coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	humanReadable := !*csvOutput && !*jsonOutput
	if humanReadable {
		fmt.Println("rv32sim Timing Benchmark Harness")
		fmt.Println("================================")
		fmt.Printf("D-Cache:     %v\n", config.EnableDCache)
		fmt.Printf("Cross-check: %v\n", config.CrossCheck)
		fmt.Println("")
	}

	results, err := harness.RunAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running benchmarks: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *jsonOutput:
		if err := harness.PrintJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON report: %v\n", err)
			os.Exit(1)
		}
	case *csvOutput:
		harness.PrintCSV(results)
	default:
		harness.PrintResults(results)
	}

	summary := benchmarks.Summarize(results)
	if humanReadable {
		fmt.Println("=== Summary ===")
		fmt.Println("")
		fmt.Printf("Benchmarks: %d (%d failed)\n", summary.TotalBenchmarks, summary.Failed)
		fmt.Printf("Cycles:     %d\n", summary.TotalCycles)
		fmt.Printf("Retired:    %d\n", summary.TotalInstructions)
		fmt.Printf("CPI:        %.3f\n", summary.AverageCPI)
	}

	if summary.Failed > 0 {
		os.Exit(1)
	}
}
