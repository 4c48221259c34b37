package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Exited is true if the program stopped on ECALL or EBREAK.
	Exited bool

	// ExitCode is the value of a0 (x10) when the program exited.
	ExitCode int64

	// Fault is set when the instruction's memory access was rejected.
	// Execution continues after a fault.
	Fault error

	// Err is set if execution cannot continue.
	Err error
}

// Emulator executes RV32I instructions functionally, one instruction per
// step, with no pipeline timing. It is the architectural reference that the
// pipelined model is checked against.
type Emulator struct {
	regFile *RegFile
	imem    *Bank
	dmem    *Bank
	decoder *insts.Decoder

	pc uint32

	// entry is where Reset restarts execution.
	entry    uint32
	hasEntry bool

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
	faults           uint64
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithBanks sets the instruction and data banks.
func WithBanks(imem, dmem *Bank) EmulatorOption {
	return func(e *Emulator) {
		e.imem = imem
		e.dmem = dmem
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// WithEntry sets the initial program counter.
func WithEntry(pc uint32) EmulatorOption {
	return func(e *Emulator) {
		e.entry = pc
		e.hasEntry = true
	}
}

// NewEmulator creates a new RV32I emulator. Without WithBanks it gets two
// DefaultBankSize banks based at address 0.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.imem == nil {
		e.imem = NewBank(0, DefaultBankSize)
	}
	if e.dmem == nil {
		e.dmem = NewBank(0, DefaultBankSize)
	}
	if !e.hasEntry {
		e.entry = e.imem.Base()
	}
	e.pc = e.entry

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// IMem returns the instruction bank.
func (e *Emulator) IMem() *Bank {
	return e.imem
}

// DMem returns the data bank.
func (e *Emulator) DMem() *Bank {
	return e.dmem
}

// PC returns the current program counter.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// SetPC sets the program counter.
func (e *Emulator) SetPC(pc uint32) {
	e.pc = pc
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Faults returns the number of rejected memory accesses.
func (e *Emulator) Faults() uint64 {
	return e.faults
}

// LoadProgram writes words into the instruction bank at entry and sets the PC.
// Later resets restart at entry.
func (e *Emulator) LoadProgram(entry uint32, words []uint32) error {
	if err := e.imem.LoadWords(entry, words); err != nil {
		return err
	}
	e.entry = entry
	e.pc = entry
	return nil
}

// Reset clears registers, counters and the data bank, and moves the PC back to
// the entry point. The instruction bank keeps its program.
func (e *Emulator) Reset() {
	e.regFile.Reset()
	e.dmem.Clear()
	e.pc = e.entry
	e.instructionCount = 0
	e.faults = 0
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{
			Err: fmt.Errorf("max instructions reached"),
		}
	}

	word, err := e.imem.Read32(e.pc)
	if err != nil {
		return StepResult{Err: fmt.Errorf("fetch at PC=0x%08X: %w", e.pc, err)}
	}

	inst := e.decoder.Decode(word)
	if !inst.IsValid() {
		return StepResult{
			Err: fmt.Errorf("%w 0x%08X at PC=0x%08X", ErrInvalidInstruction, word, e.pc),
		}
	}

	if inst.IsSystem() {
		return StepResult{
			Exited:   true,
			ExitCode: int64(int32(e.regFile.ReadReg(10))),
		}
	}

	result := e.execute(inst)
	e.instructionCount++

	return result
}

// Run executes instructions until the program exits or an error occurs.
// Returns the exit code (-1 if error).
func (e *Emulator) Run() int64 {
	for {
		result := e.Step()
		if result.Exited {
			return result.ExitCode
		}
		if result.Err != nil {
			return -1
		}
	}
}

func (e *Emulator) execute(inst *insts.Instruction) StepResult {
	rs1 := e.regFile.ReadReg(inst.Rs1)
	rs2 := e.regFile.ReadReg(inst.Rs2)

	var result StepResult
	nextPC := e.pc + 4

	switch {
	case inst.IsBranch() || inst.IsJump():
		if taken, target := ResolveControlFlow(inst, e.pc, rs1, rs2); taken {
			nextPC = target
		}
		if inst.IsJump() {
			e.regFile.WriteReg(inst.Rd, e.pc+4)
		}

	case inst.IsLoad():
		addr := rs1 + uint32(inst.Imm)
		v, err := e.dmem.Load(addr, inst.MemSize(), inst.LoadSigned())
		if err != nil {
			e.faults++
			result.Fault = err
			break
		}
		e.regFile.WriteReg(inst.Rd, v)

	case inst.IsStore():
		addr := rs1 + uint32(inst.Imm)
		if err := e.dmem.Store(addr, rs2, inst.MemSize()); err != nil {
			e.faults++
			result.Fault = err
		}

	case inst.Op == insts.OpFENCE:

	default:
		op, useImm := ALUControl(inst)
		a, b := rs1, rs2
		if useImm {
			b = uint32(inst.Imm)
		}
		if inst.Op == insts.OpAUIPC {
			a = e.pc
		}
		e.regFile.WriteReg(inst.Rd, Execute(op, a, b).Result)
	}

	e.pc = nextPC

	return result
}
