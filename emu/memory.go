package emu

import (
	"encoding/binary"
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// DefaultBankSize is the size of each memory bank unless configured, 64 KiB.
const DefaultBankSize = 64 * 1024

// Bank is a byte-addressable little-endian memory region covering
// [Base, Base+Size).
type Bank struct {
	base uint32
	data []byte
}

// NewBank creates a zero-filled bank of size bytes starting at base.
func NewBank(base, size uint32) *Bank {
	return &Bank{
		base: base,
		data: make([]byte, size),
	}
}

// Base returns the first address of the bank.
func (b *Bank) Base() uint32 { return b.base }

// Size returns the number of bytes in the bank.
func (b *Bank) Size() uint32 { return uint32(len(b.data)) }

// Contains reports whether an access of width bytes at addr lies fully
// inside the bank.
func (b *Bank) Contains(addr uint32, width uint32) bool {
	if addr < b.base {
		return false
	}
	end := uint64(addr-b.base) + uint64(width)
	return end <= uint64(len(b.data))
}

func (b *Bank) check(addr uint32, size insts.AccessSize) error {
	switch size {
	case insts.SizeByte, insts.SizeHalfword, insts.SizeWord:
	default:
		return fmt.Errorf("invalid access size %d", size)
	}

	if !b.Contains(addr, uint32(size)) {
		return fmt.Errorf("%w: 0x%08x (+%d) outside [0x%08x, 0x%08x)",
			ErrMemoryOutOfBounds, addr, size, b.base, uint64(b.base)+uint64(len(b.data)))
	}

	if addr%uint32(size) != 0 {
		return fmt.Errorf("%w: %d-byte access at 0x%08x", ErrMemoryMisaligned, size, addr)
	}

	return nil
}

// Load reads size bytes at addr and zero- or sign-extends them to 32 bits.
func (b *Bank) Load(addr uint32, size insts.AccessSize, signed bool) (uint32, error) {
	if err := b.check(addr, size); err != nil {
		return 0, err
	}

	off := addr - b.base
	switch size {
	case insts.SizeByte:
		v := b.data[off]
		if signed {
			return uint32(int32(int8(v))), nil
		}
		return uint32(v), nil
	case insts.SizeHalfword:
		v := binary.LittleEndian.Uint16(b.data[off:])
		if signed {
			return uint32(int32(int16(v))), nil
		}
		return uint32(v), nil
	default:
		return binary.LittleEndian.Uint32(b.data[off:]), nil
	}
}

// Store writes the low size bytes of data at addr.
func (b *Bank) Store(addr uint32, data uint32, size insts.AccessSize) error {
	if err := b.check(addr, size); err != nil {
		return err
	}

	off := addr - b.base
	switch size {
	case insts.SizeByte:
		b.data[off] = byte(data)
	case insts.SizeHalfword:
		binary.LittleEndian.PutUint16(b.data[off:], uint16(data))
	default:
		binary.LittleEndian.PutUint32(b.data[off:], data)
	}

	return nil
}

// Read32 reads an aligned word. It is the fetch path.
func (b *Bank) Read32(addr uint32) (uint32, error) {
	return b.Load(addr, insts.SizeWord, false)
}

// Write32 writes an aligned word.
func (b *Bank) Write32(addr uint32, v uint32) error {
	return b.Store(addr, v, insts.SizeWord)
}

// LoadWords writes a program image of instruction words starting at addr.
func (b *Bank) LoadWords(addr uint32, words []uint32) error {
	for i, w := range words {
		if err := b.Write32(addr+uint32(i)*4, w); err != nil {
			return fmt.Errorf("loading word %d: %w", i, err)
		}
	}
	return nil
}

// LoadBytes copies raw bytes into the bank starting at addr.
func (b *Bank) LoadBytes(addr uint32, data []byte) error {
	if !b.Contains(addr, uint32(len(data))) {
		return fmt.Errorf("%w: %d bytes at 0x%08x", ErrMemoryOutOfBounds, len(data), addr)
	}
	copy(b.data[addr-b.base:], data)
	return nil
}

// Dump returns a copy of length bytes starting at addr.
func (b *Bank) Dump(addr, length uint32) ([]byte, error) {
	if !b.Contains(addr, length) {
		return nil, fmt.Errorf("%w: %d bytes at 0x%08x", ErrMemoryOutOfBounds, length, addr)
	}
	off := addr - b.base
	out := make([]byte, length)
	copy(out, b.data[off:off+length])
	return out, nil
}

// Clear zeroes the whole bank.
func (b *Bank) Clear() {
	clear(b.data)
}
