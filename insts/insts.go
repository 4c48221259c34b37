// Package insts provides RV32I instruction definitions and decoding.
//
// This package implements decoding of RISC-V machine code into structured
// instruction representations. It covers the RV32I base integer set:
//   - R-type: ADD, SUB, SLL, SLT, SLTU, XOR, SRL, SRA, OR, AND
//   - I-type: immediate arithmetic, shifts, loads, JALR, FENCE, ECALL, EBREAK
//   - S-type: SB, SH, SW
//   - B-type: BEQ, BNE, BLT, BGE, BLTU, BGEU
//   - U-type: LUI, AUIPC
//   - J-type: JAL
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst := decoder.Decode(0x00A50533) // ADD x10, x10, x10
//	fmt.Printf("Op: %v, Rd: %d, Rs1: %d, Rs2: %d\n", inst.Op, inst.Rd, inst.Rs1, inst.Rs2)
package insts
