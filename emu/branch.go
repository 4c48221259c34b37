package emu

import "github.com/sarchlab/rv32sim/insts"

// Branch condition encodings in funct3.
const (
	BranchEQ  = 0x0
	BranchNE  = 0x1
	BranchLT  = 0x4
	BranchGE  = 0x5
	BranchLTU = 0x6
	BranchGEU = 0x7
)

// EvaluateBranch reports whether a conditional branch with the given funct3
// is taken for operands a (rs1) and b (rs2). Unknown conditions are not taken.
func EvaluateBranch(funct3 uint8, a, b uint32) bool {
	switch funct3 {
	case BranchEQ:
		return a == b
	case BranchNE:
		return a != b
	case BranchLT:
		return int32(a) < int32(b)
	case BranchGE:
		return int32(a) >= int32(b)
	case BranchLTU:
		return a < b
	case BranchGEU:
		return a >= b
	default:
		return false
	}
}

// BranchTarget computes PC + imm with 32-bit wraparound. It serves both
// conditional branches and JAL.
func BranchTarget(pc uint32, imm int32) uint32 {
	return pc + uint32(imm)
}

// JumpRegisterTarget computes the JALR target, (rs1 + imm) with bit 0 cleared.
func JumpRegisterTarget(rs1 uint32, imm int32) uint32 {
	return (rs1 + uint32(imm)) &^ 1
}

// ResolveControlFlow returns whether a control-flow instruction redirects the
// PC and where to. rs1 and rs2 are the resolved operand values. Instructions
// that are not branches or jumps never redirect.
func ResolveControlFlow(inst *insts.Instruction, pc, rs1, rs2 uint32) (bool, uint32) {
	switch {
	case inst.IsBranch():
		if EvaluateBranch(inst.Funct3, rs1, rs2) {
			return true, BranchTarget(pc, inst.Imm)
		}
		return false, pc + 4
	case inst.Op == insts.OpJAL:
		return true, BranchTarget(pc, inst.Imm)
	case inst.Op == insts.OpJALR:
		return true, JumpRegisterTarget(rs1, inst.Imm)
	default:
		return false, pc + 4
	}
}
