package insts

// Encoders build RV32I instruction words from their fields. They are used to
// construct programs for tests and benchmarks; out-of-range fields are
// truncated to their encoded width.

// EncodeR encodes an R-type instruction.
func EncodeR(opcode uint32, rd, funct3, rs1, rs2, funct7 uint8) uint32 {
	return uint32(funct7&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeI encodes an I-type instruction with a 12-bit immediate.
func EncodeI(opcode uint32, rd, funct3, rs1 uint8, imm int32) uint32 {
	return uint32(imm&0xFFF)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeS encodes an S-type instruction.
func EncodeS(opcode uint32, funct3, rs1, rs2 uint8, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | uint32(rs2&0x1F)<<20 | uint32(rs1&0x1F)<<15 |
		uint32(funct3&0x7)<<12 | (u&0x1F)<<7 | opcode&0x7F
}

// EncodeB encodes a B-type instruction. offset is a byte offset; bit 0 is dropped.
func EncodeB(opcode uint32, funct3, rs1, rs2 uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>12&0x1)<<31 | (u>>5&0x3F)<<25 | uint32(rs2&0x1F)<<20 |
		uint32(rs1&0x1F)<<15 | uint32(funct3&0x7)<<12 |
		(u>>1&0xF)<<8 | (u>>11&0x1)<<7 | opcode&0x7F
}

// EncodeU encodes a U-type instruction. imm20 is the upper 20-bit field.
func EncodeU(opcode uint32, rd uint8, imm20 uint32) uint32 {
	return (imm20&0xFFFFF)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeJ encodes a J-type instruction. offset is a byte offset; bit 0 is dropped.
func EncodeJ(opcode uint32, rd uint8, offset int32) uint32 {
	u := uint32(offset)
	return (u>>20&0x1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&0x1)<<20 |
		(u>>12&0xFF)<<12 | uint32(rd&0x1F)<<7 | opcode&0x7F
}

// EncodeADD encodes ADD rd, rs1, rs2.
func EncodeADD(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x0, rs1, rs2, Funct7Normal) }

// EncodeSUB encodes SUB rd, rs1, rs2.
func EncodeSUB(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x0, rs1, rs2, Funct7Alt) }

// EncodeSLL encodes SLL rd, rs1, rs2.
func EncodeSLL(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x1, rs1, rs2, Funct7Normal) }

// EncodeSLT encodes SLT rd, rs1, rs2.
func EncodeSLT(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x2, rs1, rs2, Funct7Normal) }

// EncodeSLTU encodes SLTU rd, rs1, rs2.
func EncodeSLTU(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x3, rs1, rs2, Funct7Normal) }

// EncodeXOR encodes XOR rd, rs1, rs2.
func EncodeXOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x4, rs1, rs2, Funct7Normal) }

// EncodeSRL encodes SRL rd, rs1, rs2.
func EncodeSRL(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x5, rs1, rs2, Funct7Normal) }

// EncodeSRA encodes SRA rd, rs1, rs2.
func EncodeSRA(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x5, rs1, rs2, Funct7Alt) }

// EncodeOR encodes OR rd, rs1, rs2.
func EncodeOR(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x6, rs1, rs2, Funct7Normal) }

// EncodeAND encodes AND rd, rs1, rs2.
func EncodeAND(rd, rs1, rs2 uint8) uint32 { return EncodeR(OpcodeOp, rd, 0x7, rs1, rs2, Funct7Normal) }

// EncodeADDI encodes ADDI rd, rs1, imm.
func EncodeADDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x0, rs1, imm) }

// EncodeSLTI encodes SLTI rd, rs1, imm.
func EncodeSLTI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x2, rs1, imm) }

// EncodeSLTIU encodes SLTIU rd, rs1, imm.
func EncodeSLTIU(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x3, rs1, imm) }

// EncodeXORI encodes XORI rd, rs1, imm.
func EncodeXORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x4, rs1, imm) }

// EncodeORI encodes ORI rd, rs1, imm.
func EncodeORI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x6, rs1, imm) }

// EncodeANDI encodes ANDI rd, rs1, imm.
func EncodeANDI(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeOpImm, rd, 0x7, rs1, imm) }

// EncodeSLLI encodes SLLI rd, rs1, shamt.
func EncodeSLLI(rd, rs1, shamt uint8) uint32 {
	return EncodeR(OpcodeOpImm, rd, 0x1, rs1, shamt, Funct7Normal)
}

// EncodeSRLI encodes SRLI rd, rs1, shamt.
func EncodeSRLI(rd, rs1, shamt uint8) uint32 {
	return EncodeR(OpcodeOpImm, rd, 0x5, rs1, shamt, Funct7Normal)
}

// EncodeSRAI encodes SRAI rd, rs1, shamt.
func EncodeSRAI(rd, rs1, shamt uint8) uint32 {
	return EncodeR(OpcodeOpImm, rd, 0x5, rs1, shamt, Funct7Alt)
}

// EncodeLB encodes LB rd, imm(rs1).
func EncodeLB(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0x0, rs1, imm) }

// EncodeLH encodes LH rd, imm(rs1).
func EncodeLH(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0x1, rs1, imm) }

// EncodeLW encodes LW rd, imm(rs1).
func EncodeLW(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0x2, rs1, imm) }

// EncodeLBU encodes LBU rd, imm(rs1).
func EncodeLBU(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0x4, rs1, imm) }

// EncodeLHU encodes LHU rd, imm(rs1).
func EncodeLHU(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeLoad, rd, 0x5, rs1, imm) }

// EncodeSB encodes SB rs2, imm(rs1).
func EncodeSB(rs2, rs1 uint8, imm int32) uint32 { return EncodeS(OpcodeStore, 0x0, rs1, rs2, imm) }

// EncodeSH encodes SH rs2, imm(rs1).
func EncodeSH(rs2, rs1 uint8, imm int32) uint32 { return EncodeS(OpcodeStore, 0x1, rs1, rs2, imm) }

// EncodeSW encodes SW rs2, imm(rs1).
func EncodeSW(rs2, rs1 uint8, imm int32) uint32 { return EncodeS(OpcodeStore, 0x2, rs1, rs2, imm) }

// EncodeBEQ encodes BEQ rs1, rs2, offset.
func EncodeBEQ(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x0, rs1, rs2, offset)
}

// EncodeBNE encodes BNE rs1, rs2, offset.
func EncodeBNE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x1, rs1, rs2, offset)
}

// EncodeBLT encodes BLT rs1, rs2, offset.
func EncodeBLT(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x4, rs1, rs2, offset)
}

// EncodeBGE encodes BGE rs1, rs2, offset.
func EncodeBGE(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x5, rs1, rs2, offset)
}

// EncodeBLTU encodes BLTU rs1, rs2, offset.
func EncodeBLTU(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x6, rs1, rs2, offset)
}

// EncodeBGEU encodes BGEU rs1, rs2, offset.
func EncodeBGEU(rs1, rs2 uint8, offset int32) uint32 {
	return EncodeB(OpcodeBranch, 0x7, rs1, rs2, offset)
}

// EncodeLUI encodes LUI rd, imm20.
func EncodeLUI(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeLUI, rd, imm20) }

// EncodeAUIPC encodes AUIPC rd, imm20.
func EncodeAUIPC(rd uint8, imm20 uint32) uint32 { return EncodeU(OpcodeAUIPC, rd, imm20) }

// EncodeJAL encodes JAL rd, offset.
func EncodeJAL(rd uint8, offset int32) uint32 { return EncodeJ(OpcodeJAL, rd, offset) }

// EncodeJALR encodes JALR rd, imm(rs1).
func EncodeJALR(rd, rs1 uint8, imm int32) uint32 { return EncodeI(OpcodeJALR, rd, 0x0, rs1, imm) }

// EncodeNOP encodes the canonical NOP, ADDI x0, x0, 0.
func EncodeNOP() uint32 { return EncodeADDI(0, 0, 0) }

// EncodeFENCE encodes FENCE with all predecessor and successor bits set.
func EncodeFENCE() uint32 { return EncodeI(OpcodeMiscMem, 0, 0x0, 0, 0x0FF) }

// EncodeECALL encodes ECALL.
func EncodeECALL() uint32 { return 0x00000073 }

// EncodeEBREAK encodes EBREAK.
func EncodeEBREAK() uint32 { return 0x00100073 }
