package insts

// Op represents an RV32I operation.
type Op uint8

// RV32I operations.
const (
	OpInvalid Op = iota

	// R-type arithmetic
	OpADD
	OpSUB
	OpSLL
	OpSLT
	OpSLTU
	OpXOR
	OpSRL
	OpSRA
	OpOR
	OpAND

	// I-type arithmetic
	OpADDI
	OpSLTI
	OpSLTIU
	OpXORI
	OpORI
	OpANDI
	OpSLLI
	OpSRLI
	OpSRAI

	// Loads
	OpLB
	OpLH
	OpLW
	OpLBU
	OpLHU

	// Stores
	OpSB
	OpSH
	OpSW

	// Branches
	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	// Upper immediate
	OpLUI
	OpAUIPC

	// Jumps
	OpJAL
	OpJALR

	// System and memory ordering
	OpFENCE
	OpECALL
	OpEBREAK
)

// Format represents an instruction encoding format.
type Format uint8

// Instruction formats.
const (
	FormatInvalid Format = iota
	FormatR              // Register-register
	FormatI              // Immediate, loads, JALR, system
	FormatS              // Stores
	FormatB              // Conditional branches
	FormatU              // Upper immediate
	FormatJ              // JAL
)

// Major opcodes, bits [6:0].
const (
	OpcodeLoad    = 0x03
	OpcodeMiscMem = 0x0F
	OpcodeOpImm   = 0x13
	OpcodeAUIPC   = 0x17
	OpcodeStore   = 0x23
	OpcodeOp      = 0x33
	OpcodeLUI     = 0x37
	OpcodeBranch  = 0x63
	OpcodeJALR    = 0x67
	OpcodeJAL     = 0x6F
	OpcodeSystem  = 0x73
)

// funct7 values that select the alternate ALU operation.
const (
	Funct7Normal = 0x00
	Funct7Alt    = 0x20
)

// Instruction represents a decoded RV32I instruction.
type Instruction struct {
	Op     Op     // Operation
	Format Format // Encoding format
	Word   uint32 // Raw instruction word

	Rd     uint8 // Destination register
	Rs1    uint8 // First source register
	Rs2    uint8 // Second source register
	Funct3 uint8
	Funct7 uint8

	// Imm is the sign-extended immediate. U-type holds imm20 << 12,
	// shift-immediate instructions hold the zero-extended 5-bit shamt.
	Imm int32
}

// Decoder decodes RV32I machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new RV32I instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit RV32I instruction word. It never fails: words that
// match no known encoding come back with Op == OpInvalid.
func (d *Decoder) Decode(word uint32) *Instruction {
	inst := &Instruction{}
	d.DecodeInto(word, inst)
	return inst
}

// DecodeInto decodes word into inst, overwriting all of its fields.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) {
	*inst = Instruction{Word: word}

	opcode := word & 0x7F
	inst.Rd = uint8((word >> 7) & 0x1F)
	inst.Funct3 = uint8((word >> 12) & 0x7)
	inst.Rs1 = uint8((word >> 15) & 0x1F)
	inst.Rs2 = uint8((word >> 20) & 0x1F)
	inst.Funct7 = uint8((word >> 25) & 0x7F)

	switch opcode {
	case OpcodeOp:
		d.decodeOp(inst)
	case OpcodeOpImm:
		d.decodeOpImm(word, inst)
	case OpcodeLoad:
		d.decodeLoad(word, inst)
	case OpcodeStore:
		d.decodeStore(word, inst)
	case OpcodeBranch:
		d.decodeBranch(word, inst)
	case OpcodeLUI:
		inst.Format = FormatU
		inst.Op = OpLUI
		inst.Imm = immU(word)
	case OpcodeAUIPC:
		inst.Format = FormatU
		inst.Op = OpAUIPC
		inst.Imm = immU(word)
	case OpcodeJAL:
		inst.Format = FormatJ
		inst.Op = OpJAL
		inst.Imm = immJ(word)
	case OpcodeJALR:
		if inst.Funct3 == 0 {
			inst.Format = FormatI
			inst.Op = OpJALR
			inst.Imm = immI(word)
		}
	case OpcodeMiscMem:
		if inst.Funct3 == 0 {
			inst.Format = FormatI
			inst.Op = OpFENCE
			inst.Imm = immI(word)
		}
	case OpcodeSystem:
		d.decodeSystem(word, inst)
	}

	if inst.Op == OpInvalid {
		inst.Format = FormatInvalid
	}

	d.clearUnusedFields(inst)
}

// decodeOp decodes R-type register-register arithmetic.
// Format: funct7 | rs2 | rs1 | funct3 | rd | 0110011
func (d *Decoder) decodeOp(inst *Instruction) {
	alt := inst.Funct7 == Funct7Alt
	if inst.Funct7 != Funct7Normal && !alt {
		return
	}

	switch inst.Funct3 {
	case 0x0:
		inst.Op = OpADD
		if alt {
			inst.Op = OpSUB
		}
	case 0x5:
		inst.Op = OpSRL
		if alt {
			inst.Op = OpSRA
		}
	case 0x1:
		inst.Op = OpSLL
	case 0x2:
		inst.Op = OpSLT
	case 0x3:
		inst.Op = OpSLTU
	case 0x4:
		inst.Op = OpXOR
	case 0x6:
		inst.Op = OpOR
	case 0x7:
		inst.Op = OpAND
	}

	// Only ADD/SUB and SRL/SRA have an alternate encoding.
	if alt && inst.Op != OpSUB && inst.Op != OpSRA {
		inst.Op = OpInvalid
		return
	}

	inst.Format = FormatR
}

// decodeOpImm decodes I-type arithmetic and shift-immediate instructions.
// Shifts carry a 5-bit unsigned shamt in bits [24:20] and funct7 in [31:25].
func (d *Decoder) decodeOpImm(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = immI(word)

	switch inst.Funct3 {
	case 0x0:
		inst.Op = OpADDI
	case 0x2:
		inst.Op = OpSLTI
	case 0x3:
		inst.Op = OpSLTIU
	case 0x4:
		inst.Op = OpXORI
	case 0x6:
		inst.Op = OpORI
	case 0x7:
		inst.Op = OpANDI
	case 0x1:
		if inst.Funct7 == Funct7Normal {
			inst.Op = OpSLLI
			inst.Imm = int32(inst.Rs2)
		}
	case 0x5:
		switch inst.Funct7 {
		case Funct7Normal:
			inst.Op = OpSRLI
			inst.Imm = int32(inst.Rs2)
		case Funct7Alt:
			inst.Op = OpSRAI
			inst.Imm = int32(inst.Rs2)
		}
	}
}

func (d *Decoder) decodeLoad(word uint32, inst *Instruction) {
	inst.Format = FormatI
	inst.Imm = immI(word)

	switch inst.Funct3 {
	case 0x0:
		inst.Op = OpLB
	case 0x1:
		inst.Op = OpLH
	case 0x2:
		inst.Op = OpLW
	case 0x4:
		inst.Op = OpLBU
	case 0x5:
		inst.Op = OpLHU
	}
}

func (d *Decoder) decodeStore(word uint32, inst *Instruction) {
	inst.Format = FormatS
	inst.Imm = immS(word)

	switch inst.Funct3 {
	case 0x0:
		inst.Op = OpSB
	case 0x1:
		inst.Op = OpSH
	case 0x2:
		inst.Op = OpSW
	}
}

func (d *Decoder) decodeBranch(word uint32, inst *Instruction) {
	inst.Format = FormatB
	inst.Imm = immB(word)

	switch inst.Funct3 {
	case 0x0:
		inst.Op = OpBEQ
	case 0x1:
		inst.Op = OpBNE
	case 0x4:
		inst.Op = OpBLT
	case 0x5:
		inst.Op = OpBGE
	case 0x6:
		inst.Op = OpBLTU
	case 0x7:
		inst.Op = OpBGEU
	}
}

// decodeSystem accepts only the two privileged-free encodings; CSR
// instructions are outside RV32I and decode as invalid.
func (d *Decoder) decodeSystem(word uint32, inst *Instruction) {
	switch word {
	case 0x00000073:
		inst.Op = OpECALL
	case 0x00100073:
		inst.Op = OpEBREAK
	default:
		return
	}
	inst.Format = FormatI
	inst.Imm = immI(word)
}

// clearUnusedFields zeroes register fields the format does not encode so that
// hazard detection never sees phantom sources or destinations.
func (d *Decoder) clearUnusedFields(inst *Instruction) {
	switch inst.Format {
	case FormatR:
		return
	case FormatI:
		inst.Rs2 = 0
		if inst.Op != OpSLLI && inst.Op != OpSRLI && inst.Op != OpSRAI {
			inst.Funct7 = 0
		}
	case FormatS, FormatB:
		inst.Rd = 0
		inst.Funct7 = 0
	case FormatU, FormatJ:
		inst.Rs1 = 0
		inst.Rs2 = 0
		inst.Funct3 = 0
		inst.Funct7 = 0
	default:
		inst.Rd, inst.Rs1, inst.Rs2 = 0, 0, 0
		inst.Funct3, inst.Funct7 = 0, 0
	}
}

// immI extracts the sign-extended 12-bit I-type immediate, bits [31:20].
func immI(word uint32) int32 {
	return int32(word) >> 20
}

// immS extracts the sign-extended S-type immediate: imm[11:5] = bits [31:25],
// imm[4:0] = bits [11:7].
func immS(word uint32) int32 {
	hi := int32(word) >> 25 << 5
	lo := int32((word >> 7) & 0x1F)
	return hi | lo
}

// immB extracts the sign-extended 13-bit B-type offset:
// imm[12|10:5] = bits [31|30:25], imm[4:1|11] = bits [11:8|7]. Bit 0 is zero.
func immB(word uint32) int32 {
	imm := int32(word) >> 31 << 12
	imm |= int32((word>>7)&0x1) << 11
	imm |= int32((word>>25)&0x3F) << 5
	imm |= int32((word>>8)&0xF) << 1
	return imm
}

// immU extracts the U-type immediate: bits [31:12] with the low 12 bits zero.
func immU(word uint32) int32 {
	return int32(word & 0xFFFFF000)
}

// immJ extracts the sign-extended 21-bit J-type offset:
// imm[20|10:1|11|19:12] = bits [31|30:21|20|19:12]. Bit 0 is zero.
func immJ(word uint32) int32 {
	imm := int32(word) >> 31 << 20
	imm |= int32((word>>12)&0xFF) << 12
	imm |= int32((word>>20)&0x1) << 11
	imm |= int32((word>>21)&0x3FF) << 1
	return imm
}
