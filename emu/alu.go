package emu

import "github.com/sarchlab/rv32sim/insts"

// ALUOp selects the ALU operation.
type ALUOp uint8

// ALU operations.
const (
	ALUAdd ALUOp = iota
	ALUSub
	ALUAnd
	ALUOr
	ALUXor
	ALUSll
	ALUSrl
	ALUSra
	ALUSlt
	ALUSltu
	ALUCopyA
	ALUCopyB
)

// ALUResult is the output of one ALU operation.
type ALUResult struct {
	Result   uint32
	Zero     bool
	Negative bool

	// Carry and Overflow are only produced by ALUAdd and ALUSub.
	Carry    bool
	Overflow bool
}

// Execute performs op on a and b. It is a pure function.
func Execute(op ALUOp, a, b uint32) ALUResult {
	var r ALUResult
	shamt := b & 0x1F

	switch op {
	case ALUAdd:
		r.Result = a + b
		r.Carry = r.Result < a
		r.Overflow = (a^r.Result)&(b^r.Result)&0x80000000 != 0
	case ALUSub:
		r.Result = a - b
		r.Carry = a < b // borrow
		r.Overflow = (a^b)&(a^r.Result)&0x80000000 != 0
	case ALUAnd:
		r.Result = a & b
	case ALUOr:
		r.Result = a | b
	case ALUXor:
		r.Result = a ^ b
	case ALUSll:
		r.Result = a << shamt
	case ALUSrl:
		r.Result = a >> shamt
	case ALUSra:
		r.Result = uint32(int32(a) >> shamt)
	case ALUSlt:
		if int32(a) < int32(b) {
			r.Result = 1
		}
	case ALUSltu:
		if a < b {
			r.Result = 1
		}
	case ALUCopyA:
		r.Result = a
	case ALUCopyB:
		r.Result = b
	}

	r.Zero = r.Result == 0
	r.Negative = r.Result&0x80000000 != 0

	return r
}

// ALUControl maps an instruction to its ALU operation. The boolean reports
// whether operand B is the immediate rather than rs2. For loads, stores and
// JALR the ALU computes rs1 + imm; for branches it is unused.
func ALUControl(inst *insts.Instruction) (ALUOp, bool) {
	switch inst.Op {
	case insts.OpADD:
		return ALUAdd, false
	case insts.OpSUB:
		return ALUSub, false
	case insts.OpSLL:
		return ALUSll, false
	case insts.OpSLT:
		return ALUSlt, false
	case insts.OpSLTU:
		return ALUSltu, false
	case insts.OpXOR:
		return ALUXor, false
	case insts.OpSRL:
		return ALUSrl, false
	case insts.OpSRA:
		return ALUSra, false
	case insts.OpOR:
		return ALUOr, false
	case insts.OpAND:
		return ALUAnd, false
	case insts.OpSLTI:
		return ALUSlt, true
	case insts.OpSLTIU:
		return ALUSltu, true
	case insts.OpXORI:
		return ALUXor, true
	case insts.OpORI:
		return ALUOr, true
	case insts.OpANDI:
		return ALUAnd, true
	case insts.OpSLLI:
		return ALUSll, true
	case insts.OpSRLI:
		return ALUSrl, true
	case insts.OpSRAI:
		return ALUSra, true
	case insts.OpLUI:
		return ALUCopyB, true
	default:
		// ADDI, loads, stores, JALR, AUIPC (with PC as operand A).
		return ALUAdd, true
	}
}
