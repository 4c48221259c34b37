// Package loader loads RV32 programs for the simulator: raw little-endian
// word images and 32-bit RISC-V ELF executables.
package loader

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrUnalignedImage is returned for raw images whose length is not a
// multiple of the instruction size.
var ErrUnalignedImage = errors.New("image length is not a multiple of 4")

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Segment is a contiguous block of program memory.
type Segment struct {
	// Addr is the address the segment is loaded at.
	Addr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory. It may be larger than len(Data); the
	// remainder is zero filled.
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Executable reports whether the segment holds code.
func (s Segment) Executable() bool {
	return s.Flags&SegmentFlagExecute != 0
}

// Program is a loaded program ready to be copied into the simulator banks.
type Program struct {
	// Entry is the address where execution begins.
	Entry uint32
	// Segments contains all loadable segments.
	Segments []Segment
}

// Text returns the instruction words of the first executable segment.
func (p *Program) Text() (uint32, []uint32) {
	for _, seg := range p.Segments {
		if !seg.Executable() {
			continue
		}

		words := make([]uint32, len(seg.Data)/4)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(seg.Data[i*4:])
		}
		return seg.Addr, words
	}
	return 0, nil
}

// FromWords builds a single-segment program from instruction words placed
// at base.
func FromWords(base uint32, words []uint32) *Program {
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}

	return &Program{
		Entry: base,
		Segments: []Segment{{
			Addr:    base,
			Data:    data,
			MemSize: uint32(len(data)),
			Flags:   SegmentFlagRead | SegmentFlagExecute,
		}},
	}
}

// ParseRaw interprets data as a flat little-endian image placed at base.
func ParseRaw(data []byte, base uint32) (*Program, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnalignedImage, len(data))
	}

	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}

	return FromWords(base, words), nil
}

// LoadRaw reads a flat little-endian image from path.
func LoadRaw(path string, base uint32) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read program image: %w", err)
	}

	prog, err := ParseRaw(data, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return prog, nil
}

// Load reads an ELF executable or, failing the ELF magic check, a raw image
// placed at base.
func Load(path string, base uint32) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open program: %w", err)
	}

	magic := make([]byte, 4)
	_, err = f.Read(magic)
	_ = f.Close()
	if err == nil && bytes.Equal(magic, []byte("\x7fELF")) {
		return LoadELF(path)
	}

	return LoadRaw(path, base)
}
