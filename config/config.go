// Package config holds the machine configuration of the v7sim front ends.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/v7sim/timing/latency"
)

// MachineConfig describes the emulated machine and the session around it.
type MachineConfig struct {
	// RAMBase is the physical address of the first RAM byte.
	// Default: 0.
	RAMBase uint32 `json:"ram_base"`

	// RAMSize is the RAM size in bytes. RAMBase+RAMSize must not pass 4 GiB.
	// Default: 128 MiB.
	RAMSize uint64 `json:"ram_size"`

	// MaxInstructions stops the session after that many instructions.
	// 0 means no limit.
	MaxInstructions uint64 `json:"max_instructions"`

	// Semihosting services SVC #0x123456 on the host.
	Semihosting bool `json:"semihosting"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`

	// Trace prints every retired instruction.
	Trace bool `json:"trace"`

	// DecodeCacheSets and DecodeCacheWays give the decoded-instruction
	// cache geometry. 0 sets disables the cache.
	DecodeCacheSets int `json:"decode_cache_sets"`
	DecodeCacheWays int `json:"decode_cache_ways"`

	// HighVectors resets SCTLR.V to 1.
	HighVectors bool `json:"high_vectors"`

	// NMFI resets SCTLR.NMFI to 1.
	NMFI bool `json:"nmfi"`

	// Timing holds the per-class latencies of the cycle estimate.
	Timing latency.TimingConfig `json:"timing"`
}

// DefaultMachineConfig returns the configuration used when no file is given.
func DefaultMachineConfig() *MachineConfig {
	return &MachineConfig{
		RAMBase:         0,
		RAMSize:         128 * 1024 * 1024,
		LogLevel:        "info",
		DecodeCacheSets: 4096,
		DecodeCacheWays: 4,
		Timing:          *latency.DefaultTimingConfig(),
	}
}

// LoadConfig loads a MachineConfig from a JSON file. Fields missing from
// the file keep their defaults.
func LoadConfig(path string) (*MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read machine config file: %w", err)
	}

	config := DefaultMachineConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse machine config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a MachineConfig to a JSON file.
func (c *MachineConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize machine config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write machine config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a usable machine.
func (c *MachineConfig) Validate() error {
	if c.RAMSize == 0 {
		return fmt.Errorf("ram_size must be > 0")
	}
	if uint64(c.RAMBase)+c.RAMSize > 1<<32 {
		return fmt.Errorf("ram_base + ram_size must not exceed 4 GiB")
	}
	if c.DecodeCacheSets < 0 || c.DecodeCacheWays < 0 {
		return fmt.Errorf("decode cache geometry must not be negative")
	}
	if c.DecodeCacheSets > 0 && c.DecodeCacheWays == 0 {
		return fmt.Errorf("decode_cache_ways must be > 0 when the cache is enabled")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.Timing.Validate(); err != nil {
		return fmt.Errorf("timing: %w", err)
	}
	return nil
}

// Level parses LogLevel. An empty level means info.
func (c *MachineConfig) Level() (logrus.Level, error) {
	if c.LogLevel == "" {
		return logrus.InfoLevel, nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log_level: %w", err)
	}
	return level, nil
}

// Clone returns a copy of the MachineConfig.
func (c *MachineConfig) Clone() *MachineConfig {
	clone := *c
	return &clone
}
