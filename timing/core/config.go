package core

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/cache"
	"github.com/sarchlab/rv32sim/trace"
)

// Config holds the simulator configuration.
type Config struct {
	// IMemBase is the first address of the instruction bank. Default: 0.
	IMemBase uint32 `json:"imem_base"`

	// IMemSize is the size of the instruction bank in bytes. Default: 64 KiB.
	IMemSize uint32 `json:"imem_size"`

	// DMemBase is the first address of the data bank. Default: 0.
	DMemBase uint32 `json:"dmem_base"`

	// DMemSize is the size of the data bank in bytes. Default: 64 KiB.
	DMemSize uint32 `json:"dmem_size"`

	// MaxCycles stops the simulation after this many cycles. 0 means no limit.
	MaxCycles uint64 `json:"max_cycles"`

	// MaxInstructions stops the simulation after this many retired
	// instructions. 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// HaltOnECALL ends the program when ECALL is fetched. Default: true.
	HaltOnECALL bool `json:"halt_on_ecall"`

	// HaltOnEBREAK ends the program when EBREAK is fetched. Default: true.
	HaltOnEBREAK bool `json:"halt_on_ebreak"`

	// HaltOnInvalid ends the program when a word fails to decode.
	// Default: true.
	HaltOnInvalid bool `json:"halt_on_invalid"`

	// HaltOnFault stops the simulation at the first data-memory fault.
	// Default: false.
	HaltOnFault bool `json:"halt_on_fault"`

	// TraceEnabled records retired instructions in the execution tracer.
	TraceEnabled bool `json:"trace_enabled"`

	// TraceCapacity is the number of trace entries kept. Default: 1024.
	TraceCapacity int `json:"trace_capacity"`

	// DCache enables the L1 data-cache timing model when set.
	DCache *cache.Config `json:"dcache,omitempty"`
}

// DefaultConfig returns the default configuration: two 64 KiB banks based at
// address 0, no limits, no data cache.
func DefaultConfig() *Config {
	return &Config{
		IMemSize:      emu.DefaultBankSize,
		DMemSize:      emu.DefaultBankSize,
		HaltOnECALL:   true,
		HaltOnEBREAK:  true,
		HaltOnInvalid: true,
		TraceCapacity: trace.DefaultCapacity,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a usable machine.
func (c *Config) Validate() error {
	if c.IMemSize == 0 || c.IMemSize%4 != 0 {
		return fmt.Errorf("imem_size must be a positive multiple of 4")
	}
	if c.DMemSize == 0 || c.DMemSize%4 != 0 {
		return fmt.Errorf("dmem_size must be a positive multiple of 4")
	}
	if c.IMemBase%4 != 0 {
		return fmt.Errorf("imem_base must be 4-byte aligned")
	}
	if c.DMemBase%4 != 0 {
		return fmt.Errorf("dmem_base must be 4-byte aligned")
	}
	if uint64(c.IMemBase)+uint64(c.IMemSize) > 1<<32 {
		return fmt.Errorf("instruction bank exceeds the 32-bit address space")
	}
	if uint64(c.DMemBase)+uint64(c.DMemSize) > 1<<32 {
		return fmt.Errorf("data bank exceeds the 32-bit address space")
	}
	if c.TraceEnabled && c.TraceCapacity <= 0 {
		return fmt.Errorf("trace_capacity must be > 0 when tracing is enabled")
	}
	if c.DCache != nil {
		if err := c.DCache.Validate(); err != nil {
			return fmt.Errorf("dcache: %w", err)
		}
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	if c.DCache != nil {
		dcache := *c.DCache
		clone.DCache = &dcache
	}
	return &clone
}
