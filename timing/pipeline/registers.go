// Package pipeline provides the 5-stage RV32I pipeline implementation for
// timing simulation.
package pipeline

import "github.com/sarchlab/rv32sim/insts"

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Stalled is set while the register is held by a load-use stall.
	Stalled bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// InstructionWord is the raw 32-bit instruction word.
	InstructionWord uint32

	// Stalls counts the stall cycles this instruction has spent so far.
	Stalls uint64
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	*r = IFIDRegister{}
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// Stalled is set when the register holds a bubble inserted by a stall.
	Stalled bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// Register values read from the register file at decode.
	Rs1Value uint32
	Rs2Value uint32

	// Control signals.
	MemRead  bool // Load
	MemWrite bool // Store
	RegWrite bool // Writes Rd
	MemToReg bool // Result comes from memory

	Stalls uint64
}

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// ALUResult is the address for loads and stores, the link address for
	// jumps and the result for everything else.
	ALUResult uint32

	// ALU flags of the operation that produced ALUResult.
	Zero     bool
	Negative bool
	Carry    bool
	Overflow bool

	// StoreValue is the forwarded rs2 value for stores.
	StoreValue uint32

	// Branch outcome resolved in execute.
	BranchTaken bool
	NextPC      uint32

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool

	Stalls uint64

	// memDone is set once the data access has been performed, so a register
	// held by a cache stall does not access memory twice.
	memDone bool
	memData uint32
	memErr  error
}

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst insts.Instruction

	// ALUResult from execute stage.
	ALUResult uint32

	// MemData is the loaded value, or the stored value for stores.
	MemData uint32

	// MemAddr is the data address for loads and stores.
	MemAddr uint32

	BranchTaken bool
	NextPC      uint32

	MemRead  bool
	MemWrite bool
	RegWrite bool
	MemToReg bool

	Stalls uint64

	// Fault is the rejected memory access, if any. A faulted load does not
	// write its destination.
	Fault error
}

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}

// WritebackValue returns the value committed to Rd.
func (r *MEMWBRegister) WritebackValue() uint32 {
	if r.MemToReg {
		return r.MemData
	}
	return r.ALUResult
}
