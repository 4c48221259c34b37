package insts

import (
	"fmt"
	"strings"
)

// String returns the instruction in assembler syntax, e.g. "addi x1, x0, 5".
// Branch and jump offsets are printed relative to the instruction.
func (i *Instruction) String() string {
	name := strings.ToLower(i.Op.String())

	switch {
	case !i.IsValid():
		return fmt.Sprintf("invalid 0x%08x", i.Word)
	case i.IsSystem() || i.Op == OpFENCE:
		return name
	case i.IsLoad() || i.Op == OpJALR:
		return fmt.Sprintf("%s x%d, %d(x%d)", name, i.Rd, i.Imm, i.Rs1)
	case i.IsStore():
		return fmt.Sprintf("%s x%d, %d(x%d)", name, i.Rs2, i.Imm, i.Rs1)
	}

	switch i.Format {
	case FormatR:
		return fmt.Sprintf("%s x%d, x%d, x%d", name, i.Rd, i.Rs1, i.Rs2)
	case FormatI:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rd, i.Rs1, i.Imm)
	case FormatB:
		return fmt.Sprintf("%s x%d, x%d, %d", name, i.Rs1, i.Rs2, i.Imm)
	case FormatU:
		return fmt.Sprintf("%s x%d, 0x%x", name, i.Rd, uint32(i.Imm)>>12)
	default:
		return fmt.Sprintf("%s x%d, %d", name, i.Rd, i.Imm)
	}
}

var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegName returns the ABI name of register r, or "" if r is not a register.
func RegName(r uint8) string {
	if int(r) >= len(abiNames) {
		return ""
	}
	return abiNames[r]
}
