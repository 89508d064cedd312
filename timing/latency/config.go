package latency

import (
	"fmt"
)

// TimingConfig holds latency values for different instruction classes.
// Values are rough in-order Cortex-A8 estimates.
type TimingConfig struct {
	// ALULatency is the execution latency for data processing, media and
	// hint instructions. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// BranchLatency is the latency of a taken branch or PC write.
	// Default: 2 cycles.
	BranchLatency uint64 `json:"branch_latency"`

	// LoadLatency is the latency of a single load assuming a cache hit.
	// Default: 3 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the latency of a single store. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// TransferLatency is the extra cost of every register after the first
	// of a block transfer. Default: 1 cycle.
	TransferLatency uint64 `json:"transfer_latency"`

	// MultiplyLatency is the latency of the multiply family. Default: 2 cycles.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// DivideLatency is the latency of SDIV and UDIV. Default: 12 cycles.
	DivideLatency uint64 `json:"divide_latency"`

	// SystemLatency is the latency of status register, coprocessor and
	// barrier instructions. Default: 8 cycles.
	SystemLatency uint64 `json:"system_latency"`

	// ExceptionLatency is the cost of an exception entry.
	// Default: 10 cycles.
	ExceptionLatency uint64 `json:"exception_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:       1,
		BranchLatency:    2,
		LoadLatency:      3,
		StoreLatency:     1,
		TransferLatency:  1,
		MultiplyLatency:  2,
		DivideLatency:    12,
		SystemLatency:    8,
		ExceptionLatency: 10,
	}
}

// Validate checks that all latency values are valid (> 0).
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.BranchLatency == 0 {
		return fmt.Errorf("branch_latency must be > 0")
	}
	if c.LoadLatency == 0 {
		return fmt.Errorf("load_latency must be > 0")
	}
	if c.StoreLatency == 0 {
		return fmt.Errorf("store_latency must be > 0")
	}
	if c.MultiplyLatency == 0 {
		return fmt.Errorf("multiply_latency must be > 0")
	}
	if c.DivideLatency < c.MultiplyLatency {
		return fmt.Errorf("divide_latency must be >= multiply_latency")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
