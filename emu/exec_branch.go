// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/insts"
)

// execBranch executes B and BL. The target is relative to PC+8.
func (e *Emulator) execBranch(inst *insts.Instruction) error {
	if inst.Op == insts.OpBL {
		e.regFile.R[14] = e.regFile.PC + 4
	}
	e.branchWritePC(e.regFile.ReadReg(15) + inst.Imm)
	return nil
}

// execBX executes an interworking branch to a register.
func (e *Emulator) execBX(inst *insts.Instruction) error {
	return e.bxWritePC(e.regFile.ReadReg(inst.Rm))
}

// execBLXReg branches to a register and links. The target is read before
// LR is written.
func (e *Emulator) execBLXReg(inst *insts.Instruction) error {
	target := e.regFile.ReadReg(inst.Rm)
	if err := e.bxWritePC(target); err != nil {
		return err
	}
	e.regFile.R[14] = e.regFile.PC + 4
	return nil
}
