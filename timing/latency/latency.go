// Package latency provides an instruction timing estimate for the functional
// emulator.
//
// The latency values are per instruction class and can be configured via
// TimingConfig. An Estimator attached to the emulator as a hook sums them
// over a run.
package latency

import (
	"math/bits"

	"github.com/sarchlab/v7sim/insts"
)

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given instruction.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 1
	}

	switch {
	case t.IsBlockTransfer(inst):
		base := t.config.StoreLatency
		if t.IsLoadOp(inst) {
			base = t.config.LoadLatency
		}
		n := uint64(bits.OnesCount16(inst.RegList))
		if n > 1 {
			base += (n - 1) * t.config.TransferLatency
		}
		if t.IsBranchOp(inst) {
			base += t.config.BranchLatency
		}
		return base

	case t.IsLoadOp(inst):
		if t.IsBranchOp(inst) {
			return t.config.LoadLatency + t.config.BranchLatency
		}
		return t.config.LoadLatency

	case t.IsStoreOp(inst):
		return t.config.StoreLatency

	case t.IsBranchOp(inst):
		return t.config.BranchLatency

	case inst.Op == insts.OpSDIV || inst.Op == insts.OpUDIV:
		return t.config.DivideLatency

	case isMultiply(inst.Op):
		return t.config.MultiplyLatency

	case isSystem(inst.Op):
		return t.config.SystemLatency

	default:
		return t.config.ALULatency
	}
}

func isMultiply(op insts.Op) bool {
	switch {
	case op >= insts.OpMUL && op <= insts.OpSMULxy:
		return true
	case op >= insts.OpSMLAD && op <= insts.OpSMMLS:
		return true
	}
	return op == insts.OpUSAD8 || op == insts.OpUSADA8
}

func isSystem(op insts.Op) bool {
	switch op {
	case insts.OpMRS, insts.OpMSRReg, insts.OpMSRImm, insts.OpCPS,
		insts.OpSETEND, insts.OpMCR, insts.OpMRC, insts.OpSVC, insts.OpBKPT,
		insts.OpDSB, insts.OpDMB, insts.OpISB, insts.OpWFI, insts.OpWFE:
		return true
	}
	return false
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op.IsLoadStore()
}

// IsBlockTransfer returns true for the LDM and STM families.
func (t *Table) IsBlockTransfer(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op >= insts.OpSTMDA && inst.Op <= insts.OpLDMExcReturn
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpLDREX, insts.OpRFE,
		insts.OpLDMDA, insts.OpLDM, insts.OpLDMDB, insts.OpLDMIB,
		insts.OpLDMUser, insts.OpLDMExcReturn:
		return true
	case insts.OpSTRHImm, insts.OpSTRHReg, insts.OpSTRDImm, insts.OpSTRDReg,
		insts.OpSTRHT:
		return false
	}
	switch {
	case inst.Op >= insts.OpLDRImm && inst.Op <= insts.OpLDRT:
		return true
	case inst.Op >= insts.OpLDRBImm && inst.Op <= insts.OpLDRBT:
		return true
	case inst.Op >= insts.OpSTRHImm && inst.Op <= insts.OpLDRSHT:
		return true
	}
	return false
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op.IsLoadStore() && !t.IsLoadOp(inst)
}

// IsBranchOp returns true if the instruction can write the PC.
func (t *Table) IsBranchOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	switch inst.Op {
	case insts.OpB, insts.OpBL, insts.OpBX, insts.OpBLXReg, insts.OpRFE,
		insts.OpLDMExcReturn:
		return true
	}
	if t.IsBlockTransfer(inst) {
		return t.IsLoadOp(inst) && inst.RegList&(1<<15) != 0
	}
	if inst.Op.IsLoadStore() {
		return t.IsLoadOp(inst) && inst.Rd == 15
	}
	return inst.Rd == 15 && inst.Op < insts.OpMOVW
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
