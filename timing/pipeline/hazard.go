package pipeline

import "github.com/sarchlab/rv32sim/insts"

// ForwardSource indicates where a forwarded value should come from.
type ForwardSource int

const (
	// ForwardNone means no forwarding needed - use register file value.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from EX/MEM pipeline register.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from MEM/WB pipeline register.
	ForwardFromMEMWB
)

func (s ForwardSource) String() string {
	switch s {
	case ForwardFromEXMEM:
		return "EX/MEM"
	case ForwardFromMEMWB:
		return "MEM/WB"
	default:
		return "none"
	}
}

// ForwardingResult contains forwarding decisions for both source operands.
type ForwardingResult struct {
	// ForwardRs1 specifies the forwarding source for the rs1 operand.
	ForwardRs1 ForwardSource
	// ForwardRs2 specifies the forwarding source for the rs2 operand,
	// including store data.
	ForwardRs2 ForwardSource
}

// Any reports whether at least one operand is forwarded.
func (f ForwardingResult) Any() bool {
	return f.ForwardRs1 != ForwardNone || f.ForwardRs2 != ForwardNone
}

// StallResult contains stall and flush control signals.
type StallResult struct {
	// StallIF indicates the IF stage should stall (hold the PC).
	StallIF bool
	// StallID indicates the ID stage should stall (hold IF/ID).
	StallID bool
	// InsertBubbleEX indicates a bubble should be inserted into ID/EX.
	InsertBubbleEX bool
	// FlushIF indicates the instruction fetched this cycle is discarded.
	FlushIF bool
	// FlushID indicates the instruction in IF/ID is discarded.
	FlushID bool
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
// It holds no state; every decision is a function of the latches passed in.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines the forwarding source of each operand of the
// instruction in ID/EX, looking at the pre-cycle EX/MEM and MEM/WB latches.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardingResult {
	result := ForwardingResult{}

	if !idex.Valid {
		return result
	}

	if idex.Inst.UsesRs1() {
		result.ForwardRs1 = h.detectForwardForReg(idex.Inst.Rs1, exmem, memwb)
	}
	if idex.Inst.UsesRs2() {
		result.ForwardRs2 = h.detectForwardForReg(idex.Inst.Rs2, exmem, memwb)
	}

	return result
}

// detectForwardForReg checks if a specific register needs forwarding.
// EX/MEM has precedence over MEM/WB since it holds the more recent value.
// A load in EX/MEM has no data yet; the load-use stall keeps its consumer
// out of execute until the load reaches MEM/WB.
func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}

	if exmem.Valid && exmem.RegWrite && !exmem.MemToReg && exmem.Inst.Rd == reg {
		return ForwardFromEXMEM
	}

	if memwb.Valid && memwb.RegWrite && memwb.Inst.Rd == reg {
		return ForwardFromMEMWB
	}

	return ForwardNone
}

// DetectLoadUseHazard reports whether the load in ID/EX produces a register
// that next, the instruction being decoded, reads. A nil next means decode
// is empty this cycle.
func (h *HazardUnit) DetectLoadUseHazard(idex *IDEXRegister, next *insts.Instruction) bool {
	if next == nil || !idex.Valid || !idex.MemRead || !idex.RegWrite {
		return false
	}

	return h.DetectLoadUseHazardDecoded(
		idex.Inst.Rd,
		next.Rs1, next.Rs2,
		next.UsesRs1(), next.UsesRs2(),
	)
}

// DetectLoadUseHazardDecoded detects a load-use hazard from register numbers.
// loadRd is the destination of the load in ID/EX; usesRs1 and usesRs2 tell
// whether the next instruction actually reads those operands.
func (h *HazardUnit) DetectLoadUseHazardDecoded(
	loadRd uint8,
	nextRs1, nextRs2 uint8,
	usesRs1, usesRs2 bool,
) bool {
	if loadRd == 0 {
		return false
	}

	if usesRs1 && loadRd == nextRs1 {
		return true
	}
	if usesRs2 && loadRd == nextRs2 {
		return true
	}

	return false
}

// ComputeStalls computes stall and flush signals based on hazard conditions.
// A taken branch wins over a load-use stall: the stalled instruction is on
// the wrong path and gets flushed anyway.
func (h *HazardUnit) ComputeStalls(loadUseHazard bool, branchTaken bool) StallResult {
	result := StallResult{}

	if branchTaken {
		result.FlushIF = true
		result.FlushID = true
		return result
	}

	if loadUseHazard {
		result.StallIF = true
		result.StallID = true
		result.InsertBubbleEX = true
	}

	return result
}

// GetForwardedValue returns the value to use based on forwarding decision.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue uint32,
	exmem *EXMEMRegister,
	memwb *MEMWBRegister,
) uint32 {
	switch forward {
	case ForwardFromEXMEM:
		return exmem.ALUResult
	case ForwardFromMEMWB:
		return memwb.WritebackValue()
	default:
		return originalValue
	}
}
