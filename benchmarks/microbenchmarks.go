package benchmarks

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// arrayBase is where benchmarks keep their data in the data bank.
const arrayBase = 0x100

// GetMicrobenchmarks returns the standard set of microbenchmarks.
// Each benchmark targets one pipeline behavior.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchTaken(),
		mixedOperations(),
		arraySum(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a memory-bound loop and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		arraySum(),
		branchTaken(),
	}
}

// 1. Arithmetic Sequential - independent ALU operations, no hazards.
func arithmeticSequential() Benchmark {
	prog := make([]uint32, 0, 21)
	for i := 0; i < 20; i++ {
		rd := uint8(10 + i%5)
		prog = append(prog, insts.EncodeADDI(rd, rd, 1))
	}
	prog = append(prog, insts.EncodeECALL())

	return Benchmark{
		Name:         "arithmetic_sequential",
		Description:  "20 independent ADDIs over 5 registers - measures ALU throughput",
		Program:      prog,
		ExpectedExit: 4,
	}
}

// 2. Dependency Chain - back-to-back RAW hazards resolved by forwarding.
func dependencyChain() Benchmark {
	return Benchmark{
		Name:         "dependency_chain",
		Description:  "20 dependent ADDIs (a0 = a0 + 1) - measures forwarding",
		Program:      buildDependencyChain(20),
		ExpectedExit: 20,
	}
}

func buildDependencyChain(n int) []uint32 {
	prog := make([]uint32, 0, n+1)
	for i := 0; i < n; i++ {
		prog = append(prog, insts.EncodeADDI(10, 10, 1))
	}
	return append(prog, insts.EncodeECALL())
}

// 3. Memory Sequential - store/load pairs; each load feeds the next store.
func memorySequential() Benchmark {
	prog := []uint32{
		insts.EncodeADDI(5, 0, arrayBase),
		insts.EncodeADDI(10, 0, 42),
	}
	for i := int32(0); i < 10; i++ {
		prog = append(prog,
			insts.EncodeSW(10, 5, i*4),
			insts.EncodeLW(10, 5, i*4),
		)
	}
	prog = append(prog, insts.EncodeECALL())

	return Benchmark{
		Name:         "memory_sequential",
		Description:  "10 store/load pairs to sequential words - measures load-use stalls",
		Program:      prog,
		ExpectedExit: 42,
	}
}

// 4. Function Calls - JAL/JALR pairs, each a taken control transfer.
func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "5 calls to a leaf function (JAL + JALR pairs) - measures call overhead",
		Program: []uint32{
			insts.EncodeJAL(1, 24), // call add_one
			insts.EncodeJAL(1, 20),
			insts.EncodeJAL(1, 16),
			insts.EncodeJAL(1, 12),
			insts.EncodeJAL(1, 8),
			insts.EncodeECALL(),
			// add_one:
			insts.EncodeADDI(10, 10, 1),
			insts.EncodeJALR(0, 1, 0),
		},
		ExpectedExit: 5,
	}
}

// 5. Branch Taken - always-taken branches over dead code.
func branchTaken() Benchmark {
	prog := make([]uint32, 0, 16)
	for i := 0; i < 5; i++ {
		prog = append(prog,
			insts.EncodeADDI(10, 10, 1),
			insts.EncodeBEQ(0, 0, 8),
			insts.EncodeADDI(10, 10, 100), // skipped
		)
	}
	prog = append(prog, insts.EncodeECALL())

	return Benchmark{
		Name:         "branch_taken",
		Description:  "5 taken BEQs skipping dead code - measures flush penalty",
		Program:      prog,
		ExpectedExit: 5,
	}
}

// 6. Mixed Operations - a blend of R-type and I-type ALU operations.
func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "ADD/SUB/AND/OR/XOR/SLLI mix with partial dependencies",
		Program: []uint32{
			insts.EncodeADDI(5, 0, 12),
			insts.EncodeADDI(6, 0, 10),
			insts.EncodeADD(7, 5, 6),  // 22
			insts.EncodeSUB(8, 5, 6),  // 2
			insts.EncodeAND(9, 5, 6),  // 8
			insts.EncodeOR(28, 5, 6),  // 14
			insts.EncodeXOR(29, 5, 6), // 6
			insts.EncodeSLLI(30, 8, 3),
			insts.EncodeADD(10, 7, 9),
			insts.EncodeADD(10, 10, 28),
			insts.EncodeSUB(10, 10, 29),
			insts.EncodeADD(10, 10, 30),
			insts.EncodeECALL(),
		},
		ExpectedExit: 54,
	}
}

// 7. Array Sum - a load feeding an add every iteration.
func arraySum() Benchmark {
	return Benchmark{
		Name:        "array_sum",
		Description: "Sum of 8 words from memory in a loop - measures load-use and loop branches",
		Setup: func(regFile *emu.RegFile, dmem *emu.Bank) {
			for i := uint32(0); i < 8; i++ {
				_ = dmem.Write32(arrayBase+4*i, i+1)
			}
		},
		Program: []uint32{
			insts.EncodeADDI(5, 0, arrayBase),
			insts.EncodeADDI(6, 0, 8),
			// loop:
			insts.EncodeLW(7, 5, 0),
			insts.EncodeADD(10, 10, 7),
			insts.EncodeADDI(5, 5, 4),
			insts.EncodeADDI(6, 6, -1),
			insts.EncodeBNE(6, 0, -16),
			insts.EncodeECALL(),
		},
		ExpectedExit: 36,
	}
}

// 8. Loop Simulation - a counted loop.
func loopSimulation() Benchmark {
	return Benchmark{
		Name:        "loop_simulation",
		Description: "10-iteration counted loop - measures backward branch overhead",
		Program: []uint32{
			insts.EncodeADDI(5, 0, 10),
			// loop:
			insts.EncodeADDI(10, 10, 1),
			insts.EncodeADDI(5, 5, -1),
			insts.EncodeBNE(5, 0, -8),
			insts.EncodeECALL(),
		},
		ExpectedExit: 10,
	}
}
