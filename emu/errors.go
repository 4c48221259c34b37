package emu

import "errors"

// Errors reported by the simulator core. They are wrapped with context, so
// compare with errors.Is.
var (
	// ErrUninitializedState is returned when a component is used before its
	// register file or memory banks are attached.
	ErrUninitializedState = errors.New("uninitialized simulator state")

	// ErrInvalidRegisterIndex is returned for register numbers outside 0-31.
	ErrInvalidRegisterIndex = errors.New("invalid register index")

	// ErrMemoryOutOfBounds is returned when an access falls outside a bank.
	ErrMemoryOutOfBounds = errors.New("memory access out of bounds")

	// ErrMemoryMisaligned is returned when an address is not a multiple of
	// the access width.
	ErrMemoryMisaligned = errors.New("misaligned memory access")

	// ErrInvalidInstruction is returned for words that do not decode to an
	// RV32I instruction.
	ErrInvalidInstruction = errors.New("invalid instruction")
)
