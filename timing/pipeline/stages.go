package pipeline

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

// FetchStage handles instruction fetch from the instruction bank.
type FetchStage struct {
	imem *emu.Bank
}

// NewFetchStage creates a new fetch stage.
func NewFetchStage(imem *emu.Bank) *FetchStage {
	return &FetchStage{imem: imem}
}

// Fetch reads the instruction word at pc.
func (s *FetchStage) Fetch(pc uint32) (uint32, error) {
	return s.imem.Read32(pc)
}

// DecodeStage handles instruction decode and register read.
type DecodeStage struct {
	regFile *emu.RegFile
	decoder *insts.Decoder
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile) *DecodeStage {
	return &DecodeStage{
		regFile: regFile,
		decoder: insts.NewDecoder(),
	}
}

// DecodeWord decodes an instruction word without reading registers.
func (s *DecodeStage) DecodeWord(word uint32, inst *insts.Instruction) {
	s.decoder.DecodeInto(word, inst)
}

// Decode decodes the instruction in IF/ID and reads its source registers.
// The register file already holds this cycle's writeback.
func (s *DecodeStage) Decode(ifid *IFIDRegister) IDEXRegister {
	next := IDEXRegister{
		Valid:  true,
		PC:     ifid.PC,
		Stalls: ifid.Stalls,
	}
	s.decoder.DecodeInto(ifid.InstructionWord, &next.Inst)

	inst := &next.Inst
	if inst.UsesRs1() {
		next.Rs1Value = s.regFile.ReadReg(inst.Rs1)
	}
	if inst.UsesRs2() {
		next.Rs2Value = s.regFile.ReadReg(inst.Rs2)
	}

	next.MemRead = inst.IsLoad()
	next.MemWrite = inst.IsStore()
	next.MemToReg = inst.IsLoad()
	next.RegWrite = inst.WritesRd() && inst.Rd != 0

	return next
}

// ExecuteStage handles ALU operations, address calculation and branch
// resolution.
type ExecuteStage struct{}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage() *ExecuteStage {
	return &ExecuteStage{}
}

// Execute runs the instruction in ID/EX with its resolved operand values.
func (s *ExecuteStage) Execute(idex *IDEXRegister, rs1, rs2 uint32) EXMEMRegister {
	inst := &idex.Inst
	next := EXMEMRegister{
		Valid:    true,
		PC:       idex.PC,
		Inst:     idex.Inst,
		MemRead:  idex.MemRead,
		MemWrite: idex.MemWrite,
		RegWrite: idex.RegWrite,
		MemToReg: idex.MemToReg,
		Stalls:   idex.Stalls,
		NextPC:   idex.PC + 4,
	}

	if inst.IsControlFlow() {
		next.BranchTaken, next.NextPC = emu.ResolveControlFlow(inst, idex.PC, rs1, rs2)
		if inst.IsJump() {
			next.ALUResult = idex.PC + 4
		}
		return next
	}

	if !inst.IsValid() || inst.IsSystem() || inst.Op == insts.OpFENCE {
		return next
	}

	op, useImm := emu.ALUControl(inst)
	a, b := rs1, rs2
	if useImm {
		b = uint32(inst.Imm)
	}
	if inst.Op == insts.OpAUIPC {
		a = idex.PC
	}

	r := emu.Execute(op, a, b)
	next.ALUResult = r.Result
	next.Zero = r.Zero
	next.Negative = r.Negative
	next.Carry = r.Carry
	next.Overflow = r.Overflow
	next.StoreValue = rs2

	return next
}

// MemoryStage handles data-bank access.
type MemoryStage struct {
	dmem *emu.Bank
}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage(dmem *emu.Bank) *MemoryStage {
	return &MemoryStage{dmem: dmem}
}

// Access performs the load or store in EX/MEM. For loads it returns the
// extended value; for stores it returns the value written.
func (s *MemoryStage) Access(exmem *EXMEMRegister) (uint32, error) {
	size := exmem.Inst.MemSize()

	if exmem.MemRead {
		return s.dmem.Load(exmem.ALUResult, size, exmem.Inst.LoadSigned())
	}

	if exmem.MemWrite {
		return exmem.StoreValue, s.dmem.Store(exmem.ALUResult, exmem.StoreValue, size)
	}

	return 0, nil
}

// WritebackStage commits results to the register file.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// Writeback commits the result in MEM/WB and reports whether Rd was written.
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) bool {
	if !memwb.Valid || !memwb.RegWrite || memwb.Fault != nil {
		return false
	}

	s.regFile.WriteReg(memwb.Inst.Rd, memwb.WritebackValue())

	return true
}
