// Package emu provides the RV32I architectural state (register file, ALU,
// memory banks) and a functional reference emulator.
package emu

import "fmt"

// NumRegisters is the number of integer registers.
const NumRegisters = 32

// RegFile represents the RV32I integer register file. x0 is hardwired to
// zero: writes to it are ignored and reads always return 0.
type RegFile struct {
	// X holds registers x0-x31.
	X [NumRegisters]uint32
}

// ReadReg reads a register value. x0 and out-of-range indices read as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= NumRegisters {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a register value. Writes to x0 and out-of-range indices
// are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= NumRegisters {
		return
	}
	r.X[reg] = value
}

// Read is the checked form of ReadReg.
func (r *RegFile) Read(reg int) (uint32, error) {
	if reg < 0 || reg >= NumRegisters {
		return 0, fmt.Errorf("%w: x%d", ErrInvalidRegisterIndex, reg)
	}
	return r.ReadReg(uint8(reg)), nil
}

// Write is the checked form of WriteReg.
func (r *RegFile) Write(reg int, value uint32) error {
	if reg < 0 || reg >= NumRegisters {
		return fmt.Errorf("%w: x%d", ErrInvalidRegisterIndex, reg)
	}
	r.WriteReg(uint8(reg), value)
	return nil
}

// Snapshot returns a copy of all registers with x0 reading as zero.
func (r *RegFile) Snapshot() [NumRegisters]uint32 {
	s := r.X
	s[0] = 0
	return s
}

// Reset clears every register.
func (r *RegFile) Reset() {
	r.X = [NumRegisters]uint32{}
}
