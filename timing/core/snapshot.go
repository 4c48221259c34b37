package core

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

// Snapshot is a copy of the machine state at a cycle boundary. Front-ends
// format it; the core never prints.
type Snapshot struct {
	Cycle     uint64                   `json:"cycle"`
	PC        uint32                   `json:"pc"`
	Registers [emu.NumRegisters]uint32 `json:"registers"`

	IFID  pipeline.IFIDRegister  `json:"if_id"`
	IDEX  pipeline.IDEXRegister  `json:"id_ex"`
	EXMEM pipeline.EXMEMRegister `json:"ex_mem"`
	MEMWB pipeline.MEMWBRegister `json:"mem_wb"`

	Stats      pipeline.Statistics `json:"stats"`
	Halted     bool                `json:"halted"`
	HaltReason string              `json:"halt_reason"`

	// Breakpoint is the armed breakpoint address, if any.
	Breakpoint *uint32 `json:"breakpoint,omitempty"`
}

// Snapshot captures the current machine state.
func (c *Core) Snapshot() Snapshot {
	p := c.Pipeline

	s := Snapshot{
		Cycle:      p.Stats().Cycles,
		PC:         p.PC(),
		Registers:  p.Registers(),
		IFID:       p.GetIFID(),
		IDEX:       p.GetIDEX(),
		EXMEM:      p.GetEXMEM(),
		MEMWB:      p.GetMEMWB(),
		Stats:      p.Stats(),
		Halted:     p.Halted(),
		HaltReason: p.HaltReason().String(),
	}

	if addr, ok := p.Breakpoint(); ok {
		s.Breakpoint = &addr
	}

	return s
}
