package pipeline

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/trace"
)

// Tick executes one pipeline cycle.
//
// Stages are evaluated in reverse order (WB→MEM→EX→ID→IF). Every stage reads
// the pipeline registers as they were at the start of the cycle and builds
// the next value of its output register; all registers are latched together
// at the end. Writeback commits to the register file before decode reads it,
// so an instruction three slots behind its producer needs no forwarding.
//
// Hazard handling:
//   - Forwarding from EX/MEM and MEM/WB resolves RAW hazards
//   - A load followed by a consumer of its result stalls one cycle
//   - A taken branch or jump flushes IF/ID and the fetch slot (predict-not-taken)
//   - D-cache misses stall the whole pipeline in the memory stage
func (p *Pipeline) Tick() error {
	if err := p.checkInitialized(); err != nil {
		return err
	}

	if p.halted {
		return nil
	}

	p.stats.Cycles++
	p.breakpointHit = false

	// Stage 5: Writeback
	savedMEMWB := p.memwb
	p.retire()

	// Stage 4: Memory
	nextMEMWB, memStall := p.tickMemory()
	if p.halted {
		// The instruction in MEM/WB retired this cycle.
		p.memwb.Clear()
		return nil
	}
	if memStall {
		// Everything behind the memory stage holds; writeback sees a bubble.
		p.refreshOperands(&savedMEMWB)
		p.memwb.Clear()
		p.checkLimits()
		return nil
	}

	// Stage 3: Execute
	var nextEXMEM EXMEMRegister
	if p.idex.Valid {
		forwarding := p.hazardUnit.DetectForwarding(&p.idex, &p.exmem, &savedMEMWB)
		if forwarding.Any() {
			p.stats.DataHazards++
		}

		rs1 := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRs1, p.idex.Rs1Value, &p.exmem, &savedMEMWB)
		rs2 := p.hazardUnit.GetForwardedValue(
			forwarding.ForwardRs2, p.idex.Rs2Value, &p.exmem, &savedMEMWB)

		nextEXMEM = p.executeStage.Execute(&p.idex, rs1, rs2)
		if p.idex.Inst.IsControlFlow() {
			p.stats.BranchInstructions++
		}
	}
	branchTaken := nextEXMEM.Valid && nextEXMEM.BranchTaken

	// Stage 2: Decode
	var nextIDEX IDEXRegister
	var decoded *insts.Instruction
	if p.ifid.Valid {
		nextIDEX = p.decodeStage.Decode(&p.ifid)
		decoded = &nextIDEX.Inst
	}

	loadUse := p.hazardUnit.DetectLoadUseHazard(&p.idex, decoded)
	stalls := p.hazardUnit.ComputeStalls(loadUse, branchTaken)

	// Stage 1: Fetch
	var nextIFID IFIDRegister
	switch {
	case stalls.FlushIF:
		p.flush(nextEXMEM.NextPC)
		nextIDEX.Clear()
	case stalls.StallIF:
		nextIFID = p.ifid
		nextIFID.Stalled = true
		nextIFID.Stalls++
		nextIDEX.Clear()
		nextIDEX.Stalled = true
		p.stats.Stalls++
	case !p.fetchStopped:
		nextIFID = p.fetch()
	}

	// Latch
	p.memwb = nextMEMWB
	p.exmem = nextEXMEM
	p.idex = nextIDEX
	p.ifid = nextIFID

	if p.fetchStopped && p.Empty() {
		if p.fetchFault != nil {
			p.recordFault(*p.fetchFault)
			p.fetchFault = nil
		}
		p.halt(p.stopReason)
	}
	p.checkLimits()

	return nil
}

// retire commits MEM/WB and publishes its trace entry.
func (p *Pipeline) retire() {
	if !p.memwb.Valid {
		return
	}

	publish := p.NumHooks() > 0

	var before [emu.NumRegisters]uint32
	if publish {
		before = p.regFile.Snapshot()
	}

	written := p.writebackStage.Writeback(&p.memwb)
	p.stats.Instructions++

	if publish {
		p.InvokeHook(sim.HookCtx{
			Domain: p,
			Pos:    HookPosRetire,
			Item:   p.traceEntry(&p.memwb, before, written),
		})
	}
}

func (p *Pipeline) traceEntry(
	memwb *MEMWBRegister,
	regs [emu.NumRegisters]uint32,
	written bool,
) trace.Entry {
	e := trace.Entry{
		Cycle:       p.stats.Cycles,
		PC:          memwb.PC,
		Word:        memwb.Inst.Word,
		Inst:        memwb.Inst,
		Registers:   regs,
		RdWritten:   written,
		Rd:          memwb.Inst.Rd,
		Stalls:      memwb.Stalls,
		BranchTaken: memwb.BranchTaken,
		NextPC:      memwb.NextPC,
	}

	if written {
		e.RdValue = memwb.WritebackValue()
	}

	if memwb.MemRead || memwb.MemWrite {
		e.Mem = &trace.MemAccess{
			Addr:  memwb.MemAddr,
			Data:  memwb.MemData,
			Size:  uint8(memwb.Inst.MemSize()),
			Write: memwb.MemWrite,
		}
	}

	if memwb.Fault != nil {
		e.Fault = memwb.Fault.Error()
	}

	return e
}

// refreshOperands updates the held ID/EX operands with the value memwb just
// wrote back. Once MEM/WB is cleared that value can no longer be forwarded.
func (p *Pipeline) refreshOperands(memwb *MEMWBRegister) {
	if !p.idex.Valid || !memwb.Valid || !memwb.RegWrite || memwb.Fault != nil {
		return
	}

	rd := memwb.Inst.Rd
	if p.idex.Inst.UsesRs1() && p.idex.Inst.Rs1 == rd {
		p.idex.Rs1Value = memwb.WritebackValue()
	}
	if p.idex.Inst.UsesRs2() && p.idex.Inst.Rs2 == rd {
		p.idex.Rs2Value = memwb.WritebackValue()
	}
}

// tickMemory runs the memory stage. It performs the data access the first
// cycle an instruction spends in EX/MEM and reports whether the pipeline
// must stall for the D-cache.
func (p *Pipeline) tickMemory() (MEMWBRegister, bool) {
	var next MEMWBRegister

	if !p.exmem.Valid {
		return next, false
	}

	isMem := p.exmem.MemRead || p.exmem.MemWrite
	if isMem && !p.exmem.memDone {
		p.exmem.memData, p.exmem.memErr = p.memoryStage.Access(&p.exmem)
		p.exmem.memDone = true

		if p.exmem.memErr != nil {
			p.recordFault(p.newFault(p.exmem.PC, p.exmem.ALUResult, false, p.exmem.memErr))
			if p.haltOnFault {
				p.halt(HaltMemoryFault)
				return next, false
			}
		} else if p.dcache != nil {
			result := p.dcache.Access(p.exmem.ALUResult, p.exmem.MemWrite)
			if result.Latency > 1 {
				p.memWait = result.Latency - 1
			}
		}
	}

	if p.memWait > 0 {
		p.memWait--
		p.exmem.Stalls++
		p.stats.MemStalls++
		return next, true
	}

	next = MEMWBRegister{
		Valid:       true,
		PC:          p.exmem.PC,
		Inst:        p.exmem.Inst,
		ALUResult:   p.exmem.ALUResult,
		BranchTaken: p.exmem.BranchTaken,
		NextPC:      p.exmem.NextPC,
		MemRead:     p.exmem.MemRead,
		MemWrite:    p.exmem.MemWrite,
		RegWrite:    p.exmem.RegWrite,
		MemToReg:    p.exmem.MemToReg,
		Stalls:      p.exmem.Stalls,
	}

	if isMem {
		next.MemAddr = p.exmem.ALUResult
		next.MemData = p.exmem.memData
		next.Fault = p.exmem.memErr
		if next.Fault != nil {
			next.RegWrite = false
		}
	}

	return next, false
}

// flush discards the instruction in IF/ID and the one that would have been
// fetched this cycle, and redirects fetch to target.
func (p *Pipeline) flush(target uint32) {
	var flushed uint64
	if p.ifid.Valid {
		flushed++
	}
	if !p.fetchStopped {
		flushed++
	}

	p.stats.Flushes++
	p.stats.BranchMispredictions++
	p.stats.FlushedInstructions += flushed

	p.pc = target
	p.fetchStopped = false
	p.stopReason = HaltNone
	p.fetchFault = nil
}

// fetch reads the instruction at the PC. Words that end the program stop
// fetch instead of entering the pipeline.
func (p *Pipeline) fetch() IFIDRegister {
	pc := p.pc

	if p.breakpointEnabled && pc == p.breakpoint {
		p.breakpointHit = true
	}

	word, err := p.fetchStage.Fetch(pc)
	if err != nil {
		f := p.newFault(pc, pc, true, err)
		p.fetchFault = &f
		p.stopFetch(HaltFetchFault)
		return IFIDRegister{}
	}

	var inst insts.Instruction
	p.decodeStage.DecodeWord(word, &inst)

	switch {
	case !inst.IsValid():
		p.stats.InvalidInstructions++
		if p.haltOnInvalid {
			p.stopFetch(HaltInvalidInstruction)
			return IFIDRegister{}
		}
		p.pc = pc + 4
		return IFIDRegister{}
	case inst.Op == insts.OpECALL && p.haltOnECALL:
		p.stopFetch(HaltECALL)
		return IFIDRegister{}
	case inst.Op == insts.OpEBREAK && p.haltOnEBREAK:
		p.stopFetch(HaltEBREAK)
		return IFIDRegister{}
	}

	p.pc = pc + 4

	return IFIDRegister{
		Valid:           true,
		PC:              pc,
		InstructionWord: word,
	}
}
