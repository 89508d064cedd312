// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/cp15"
	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/insts"
	"github.com/sarchlab/v7sim/mmu"
)

// SemihostingSVC is the SVC immediate of an ARM-state semihosting call.
const SemihostingSVC = 0x123456

// CPSR bits MRS returns: everything but the IT and J execution state.
const mrsMask = 0xF80F03DF

// execMRS reads CPSR or SPSR. In USR mode only the APSR bits are visible.
func (e *Emulator) execMRS(inst *insts.Instruction) error {
	rf := e.regFile
	if inst.UseSPSR {
		if !rf.HasSPSR() {
			return faults.New(faults.UnpredictableOperation, "MRS SPSR in USR/SYS mode")
		}
		rf.WriteReg(inst.Rd, uint32(rf.SPSR()))
		return nil
	}

	value := uint32(rf.CPSR) & mrsMask
	if !rf.Privileged() {
		value &= 0xF80F0000
	}
	rf.WriteReg(inst.Rd, value)
	return nil
}

// execMSR writes CPSR or SPSR fields from a register or an immediate.
func (e *Emulator) execMSR(inst *insts.Instruction) error {
	value := ExpandImm(inst.Imm)
	if inst.Op == insts.OpMSRReg {
		value = e.regFile.ReadReg(inst.Rm)
	}

	if inst.UseSPSR {
		return e.regFile.SPSRWriteByInstr(value, inst.Mask)
	}
	return e.regFile.CPSRWriteByInstr(value, inst.Mask, false, e.nmfiActive())
}

// execBKPT raises a prefetch abort reported as a debug event.
func (e *Emulator) execBKPT(inst *insts.Instruction) error {
	pc := e.regFile.PC
	e.cp15.SetMemoryAbort(pc, mmu.StatusDebug, false)
	return e.enterException(excPrefetchAbort, pc)
}

// execHint executes the hints, preloads and barriers, which have no
// architectural effect here.
func (e *Emulator) execHint(inst *insts.Instruction) error {
	return nil
}

// execWFI parks the core until an interrupt is latched.
func (e *Emulator) execWFI(inst *insts.Instruction) error {
	e.waiting = true
	return nil
}

// execSVC takes the supervisor call exception, or services a semihosting
// request when semihosting is enabled.
func (e *Emulator) execSVC(inst *insts.Instruction) error {
	if e.semihosting && inst.Imm == SemihostingSVC {
		result := e.semihost.Handle()
		if result.Exited {
			e.exit(result.ExitCode)
		}
		return nil
	}
	return e.enterException(excSVC, e.regFile.PC)
}

func cp15Key(inst *insts.Instruction) cp15.Key {
	return cp15.Key{CRn: inst.Rn, Opc1: inst.Opc1, CRm: inst.Rm, Opc2: inst.Opc2}
}

// execMCR writes a CP15 register.
func (e *Emulator) execMCR(inst *insts.Instruction) error {
	value := e.regFile.ReadReg(inst.Rd)
	return e.cp15.Write(cp15Key(inst), value, e.regFile.Privileged())
}

// execMRC reads a CP15 register. A PC destination transfers bits [31:28]
// to the condition flags.
func (e *Emulator) execMRC(inst *insts.Instruction) error {
	value, err := e.cp15.Read(cp15Key(inst), e.regFile.Privileged())
	if err != nil {
		return err
	}

	if inst.Rd == 15 {
		cpsr := &e.regFile.CPSR
		*cpsr = *cpsr&^(PSRN|PSRZ|PSRC|PSRV) | PSR(value)&(PSRN|PSRZ|PSRC|PSRV)
		return nil
	}
	e.regFile.WriteReg(inst.Rd, value)
	return nil
}

// execCPS changes the interrupt masks and optionally the mode. It is a NOP
// in USR mode.
func (e *Emulator) execCPS(inst *insts.Instruction) error {
	rf := e.regFile
	if !rf.Privileged() {
		return nil
	}

	cpsr := uint32(rf.CPSR)
	var mask uint8
	if inst.IMod&0b10 != 0 {
		flags := uint32(inst.Mask) << 6 // A, I and F are CPSR[8:6]
		if inst.IMod == 0b11 {
			cpsr |= flags
		} else {
			cpsr &^= flags
		}
		mask |= 0b0011
	}
	if inst.ModeChange {
		cpsr = cpsr&^0x1F | inst.Imm
		mask |= 0b0001
	}

	return rf.CPSRWriteByInstr(cpsr, mask, false, e.nmfiActive())
}

// execSETEND selects the data endianness.
func (e *Emulator) execSETEND(inst *insts.Instruction) error {
	e.regFile.CPSR.Set(PSRE, inst.Imm == 1)
	return nil
}

// execSRS stores LR and SPSR of the current mode on the stack of the
// given mode.
func (e *Emulator) execSRS(inst *insts.Instruction) error {
	rf := e.regFile
	if !rf.HasSPSR() {
		return faults.New(faults.UnpredictableOperation, "SRS in USR/SYS mode")
	}

	mode := inst.Imm
	base, err := rf.BankedSP(mode)
	if err != nil {
		return err
	}

	addr := base - 8
	if inst.Add {
		addr = base
	}
	if inst.Add == inst.Index {
		addr += 4
	}

	if err := e.store(addr, 4, rf.R[14], false, false); err != nil {
		return err
	}
	if err := e.store(addr+4, 4, uint32(rf.SPSR()), false, false); err != nil {
		return err
	}

	if inst.WriteBack {
		wb := base - 8
		if inst.Add {
			wb = base + 8
		}
		return rf.SetBankedSP(mode, wb)
	}
	return nil
}

// execRFE loads PC and CPSR from memory.
func (e *Emulator) execRFE(inst *insts.Instruction) error {
	rf := e.regFile
	if !rf.Privileged() {
		return faults.New(faults.UnpredictableOperation, "RFE in USR mode")
	}

	base := rf.ReadReg(inst.Rn)
	addr := base - 8
	if inst.Add {
		addr = base
	}
	if inst.Add == inst.Index {
		addr += 4
	}

	target, err := e.load(addr, 4, false, false)
	if err != nil {
		return err
	}
	psr, err := e.load(addr+4, 4, false, false)
	if err != nil {
		return err
	}

	if inst.WriteBack {
		wb := base - 8
		if inst.Add {
			wb = base + 8
		}
		rf.WriteReg(inst.Rn, wb)
	}

	if err := rf.CPSRWriteByInstr(psr, 0b1111, true, e.nmfiActive()); err != nil {
		return err
	}
	if rf.CPSR.Has(PSRT) {
		return faults.WithValue(faults.NotImplemented, "RFE to Thumb", target)
	}
	e.branchWritePC(target)
	return nil
}
