package trace

import (
	"encoding/json"
	"fmt"
	"io"
)

// ConsoleSink prints one line per entry.
type ConsoleSink struct {
	w io.Writer
}

// NewConsoleSink creates a ConsoleSink writing to w.
func NewConsoleSink(w io.Writer) *ConsoleSink {
	return &ConsoleSink{w: w}
}

// Write prints e.
func (s *ConsoleSink) Write(e *Entry) error {
	_, err := fmt.Fprintln(s.w, Format(e))
	return err
}

// Format renders e as a single line of text.
func Format(e *Entry) string {
	line := fmt.Sprintf("[%6d] %08x: %08x  %-24s", e.Cycle, e.PC, e.Word, e.Disasm())

	if e.RdWritten && e.Rd != 0 {
		line += fmt.Sprintf(" x%d=0x%08x", e.Rd, e.RdValue)
	}
	if e.Mem != nil {
		dir := "R"
		if e.Mem.Write {
			dir = "W"
		}
		line += fmt.Sprintf(" mem[%08x]%s%d=0x%08x", e.Mem.Addr, dir, e.Mem.Size, e.Mem.Data)
	}
	if e.IsBranch() {
		if e.BranchTaken {
			line += fmt.Sprintf(" -> %08x", e.NextPC)
		} else {
			line += " (not taken)"
		}
	}
	if e.Stalls > 0 {
		line += fmt.Sprintf(" stalls=%d", e.Stalls)
	}
	if e.Fault != "" {
		line += " fault: " + e.Fault
	}

	return line
}

// JSONSink writes one JSON object per line.
type JSONSink struct {
	enc *json.Encoder
}

type jsonEntry struct {
	*Entry
	Disasm string `json:"disasm"`
}

// NewJSONSink creates a JSONSink writing to w.
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{enc: json.NewEncoder(w)}
}

// Write encodes e.
func (s *JSONSink) Write(e *Entry) error {
	return s.enc.Encode(jsonEntry{Entry: e, Disasm: e.Disasm()})
}
