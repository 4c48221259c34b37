// Package trace records retired instructions for post-hoc inspection.
//
// The pipeline publishes one Entry per retired instruction through its retire
// hook. A Tracer keeps the most recent entries in a fixed-capacity ring and
// optionally forwards them to sinks that render or persist them.
package trace

import "github.com/sarchlab/rv32sim/insts"

// MemAccess describes the data-memory access of a retired instruction.
type MemAccess struct {
	Addr  uint32 `json:"addr"`
	Data  uint32 `json:"data"`
	Size  uint8  `json:"size"`
	Write bool   `json:"write"`
}

// Entry is an immutable snapshot of one retired instruction.
type Entry struct {
	Cycle uint64            `json:"cycle"`
	PC    uint32            `json:"pc"`
	Word  uint32            `json:"word"`
	Inst  insts.Instruction `json:"-"`

	// Registers holds the register file as it was before this instruction
	// wrote back.
	Registers [32]uint32 `json:"-"`

	// Mem is nil when the instruction did not access data memory.
	Mem *MemAccess `json:"mem,omitempty"`

	// RdWritten reports whether Rd received RdValue.
	RdWritten bool   `json:"rd_written"`
	Rd        uint8  `json:"rd"`
	RdValue   uint32 `json:"rd_value"`

	Stalls      uint64 `json:"stalls"`
	BranchTaken bool   `json:"branch_taken"`
	NextPC      uint32 `json:"next_pc"`

	// Fault is the rejected memory access message, if any.
	Fault string `json:"fault,omitempty"`
}

// Disasm returns the instruction in assembler syntax.
func (e *Entry) Disasm() string {
	return e.Inst.String()
}

// IsBranch reports whether the entry is a conditional branch or a jump.
func (e *Entry) IsBranch() bool {
	return e.Inst.IsControlFlow()
}

// IsMemory reports whether the entry accessed data memory.
func (e *Entry) IsMemory() bool {
	return e.Mem != nil
}
