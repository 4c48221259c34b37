package insts

var opNames = [...]string{
	OpInvalid: "INVALID",
	OpADD:     "ADD", OpSUB: "SUB", OpSLL: "SLL", OpSLT: "SLT", OpSLTU: "SLTU",
	OpXOR: "XOR", OpSRL: "SRL", OpSRA: "SRA", OpOR: "OR", OpAND: "AND",
	OpADDI: "ADDI", OpSLTI: "SLTI", OpSLTIU: "SLTIU", OpXORI: "XORI",
	OpORI: "ORI", OpANDI: "ANDI", OpSLLI: "SLLI", OpSRLI: "SRLI", OpSRAI: "SRAI",
	OpLB: "LB", OpLH: "LH", OpLW: "LW", OpLBU: "LBU", OpLHU: "LHU",
	OpSB: "SB", OpSH: "SH", OpSW: "SW",
	OpBEQ: "BEQ", OpBNE: "BNE", OpBLT: "BLT", OpBGE: "BGE", OpBLTU: "BLTU", OpBGEU: "BGEU",
	OpLUI: "LUI", OpAUIPC: "AUIPC",
	OpJAL: "JAL", OpJALR: "JALR",
	OpFENCE: "FENCE", OpECALL: "ECALL", OpEBREAK: "EBREAK",
}

// String returns the assembler mnemonic of the operation.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "INVALID"
}

var formatNames = [...]string{
	FormatInvalid: "invalid",
	FormatR:       "R",
	FormatI:       "I",
	FormatS:       "S",
	FormatB:       "B",
	FormatU:       "U",
	FormatJ:       "J",
}

func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return "invalid"
}

// AccessSize is the width of a memory access in bytes.
type AccessSize uint8

// Access sizes.
const (
	SizeByte     AccessSize = 1
	SizeHalfword AccessSize = 2
	SizeWord     AccessSize = 4
)

// IsValid reports whether the word decoded to a known instruction.
func (i *Instruction) IsValid() bool { return i.Op != OpInvalid }

// IsLoad reports whether the instruction reads data memory.
func (i *Instruction) IsLoad() bool { return i.Op >= OpLB && i.Op <= OpLHU }

// IsStore reports whether the instruction writes data memory.
func (i *Instruction) IsStore() bool { return i.Op >= OpSB && i.Op <= OpSW }

// IsBranch reports whether the instruction is a conditional branch.
func (i *Instruction) IsBranch() bool { return i.Format == FormatB }

// IsJump reports whether the instruction is JAL or JALR.
func (i *Instruction) IsJump() bool { return i.Op == OpJAL || i.Op == OpJALR }

// IsControlFlow reports whether the instruction may redirect the PC.
func (i *Instruction) IsControlFlow() bool { return i.IsBranch() || i.IsJump() }

// IsSystem reports whether the instruction is ECALL or EBREAK.
func (i *Instruction) IsSystem() bool { return i.Op == OpECALL || i.Op == OpEBREAK }

// WritesRd reports whether the instruction produces a register result.
// Writes to x0 still count here; the register file discards them.
func (i *Instruction) WritesRd() bool {
	switch i.Format {
	case FormatR, FormatU, FormatJ:
		return true
	case FormatI:
		return i.Op != OpFENCE && !i.IsSystem()
	default:
		return false
	}
}

// UsesRs1 reports whether the instruction reads rs1.
func (i *Instruction) UsesRs1() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	case FormatI:
		return i.Op != OpFENCE && !i.IsSystem()
	default:
		return false
	}
}

// UsesRs2 reports whether the instruction reads rs2.
func (i *Instruction) UsesRs2() bool {
	switch i.Format {
	case FormatR, FormatS, FormatB:
		return true
	default:
		return false
	}
}

// MemSize returns the access width of a load or store, or 0.
func (i *Instruction) MemSize() AccessSize {
	switch i.Op {
	case OpLB, OpLBU, OpSB:
		return SizeByte
	case OpLH, OpLHU, OpSH:
		return SizeHalfword
	case OpLW, OpSW:
		return SizeWord
	default:
		return 0
	}
}

// LoadSigned reports whether a load sign-extends its result.
func (i *Instruction) LoadSigned() bool {
	return i.Op == OpLB || i.Op == OpLH || i.Op == OpLW
}
