// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/insts"
)

// Data-processing opcodes, bits [24:21] of every data-processing form.
const (
	dpAND uint32 = iota
	dpEOR
	dpSUB
	dpRSB
	dpADD
	dpADC
	dpSBC
	dpRSC
	dpTST
	dpTEQ
	dpCMP
	dpCMN
	dpORR
	dpMOV
	dpBIC
	dpMVN
)

// execDPImm executes data processing with a modified immediate operand.
func (e *Emulator) execDPImm(inst *insts.Instruction) error {
	op2, carry := ExpandImmC(inst.Imm, e.regFile.CPSR.Has(PSRC))
	return e.dataProcessing(inst, e.regFile.ReadReg(inst.Rn), op2, carry)
}

// execDPReg executes data processing with an immediate-shifted register.
// The shift-only aliases (LSL, LSR, ASR, ROR, RRX) are MOV in this form.
func (e *Emulator) execDPReg(inst *insts.Instruction) error {
	op2, carry := ShiftC(e.regFile.ReadReg(inst.Rm), inst.ShiftType,
		uint32(inst.ShiftAmount), e.regFile.CPSR.Has(PSRC))
	return e.dataProcessing(inst, e.regFile.ReadReg(inst.Rn), op2, carry)
}

// execDPRsr executes data processing with a register-shifted register.
func (e *Emulator) execDPRsr(inst *insts.Instruction) error {
	amount := e.regFile.ReadReg(inst.Rs) & 0xFF
	op2, carry := ShiftC(e.regFile.ReadReg(inst.Rm), inst.ShiftType,
		amount, e.regFile.CPSR.Has(PSRC))
	return e.dataProcessing(inst, e.regFile.ReadReg(inst.Rn), op2, carry)
}

func (e *Emulator) dataProcessing(inst *insts.Instruction, n, op2 uint32, shiftCarry bool) error {
	opcode := (inst.Raw >> 21) & 0xF
	cpsr := &e.regFile.CPSR
	c := cpsr.Has(PSRC)

	var (
		result     uint32
		carry      = shiftCarry
		overflow   = cpsr.Has(PSRV)
		arithmetic bool
	)

	switch opcode {
	case dpAND, dpTST:
		result = n & op2
	case dpEOR, dpTEQ:
		result = n ^ op2
	case dpSUB, dpCMP:
		result, carry, overflow = AddWithCarry(n, ^op2, true)
		arithmetic = true
	case dpRSB:
		result, carry, overflow = AddWithCarry(^n, op2, true)
		arithmetic = true
	case dpADD, dpCMN:
		result, carry, overflow = AddWithCarry(n, op2, false)
		arithmetic = true
	case dpADC:
		result, carry, overflow = AddWithCarry(n, op2, c)
		arithmetic = true
	case dpSBC:
		result, carry, overflow = AddWithCarry(n, ^op2, c)
		arithmetic = true
	case dpRSC:
		result, carry, overflow = AddWithCarry(^n, op2, c)
		arithmetic = true
	case dpORR:
		result = n | op2
	case dpMOV:
		result = op2
	case dpBIC:
		result = n &^ op2
	case dpMVN:
		result = ^op2
	}

	// TST, TEQ, CMP and CMN only set flags.
	if opcode >= dpTST && opcode <= dpCMN {
		e.setFlags(result, carry, overflow, arithmetic)
		return nil
	}

	if inst.Rd == 15 {
		if inst.SetFlags {
			return e.exceptionReturn(result)
		}
		return e.bxWritePC(result)
	}

	e.regFile.WriteReg(inst.Rd, result)
	if inst.SetFlags {
		e.setFlags(result, carry, overflow, arithmetic)
	}
	return nil
}

// setFlags updates N, Z and C, and V for arithmetic operations.
func (e *Emulator) setFlags(result uint32, carry, overflow, arithmetic bool) {
	cpsr := &e.regFile.CPSR
	cpsr.SetNZ(result)
	cpsr.Set(PSRC, carry)
	if arithmetic {
		cpsr.Set(PSRV, overflow)
	}
}

// execADR computes a PC-relative address.
func (e *Emulator) execADR(inst *insts.Instruction) error {
	base := e.regFile.ReadReg(15) &^ 3
	imm := ExpandImm(inst.Imm)

	result := base - imm
	if inst.Add {
		result = base + imm
	}

	if inst.Rd == 15 {
		return e.bxWritePC(result)
	}
	e.regFile.WriteReg(inst.Rd, result)
	return nil
}

// execMOVW writes a zero-extended 16-bit immediate.
func (e *Emulator) execMOVW(inst *insts.Instruction) error {
	e.regFile.WriteReg(inst.Rd, inst.Imm&0xFFFF)
	return nil
}

// execMOVT writes the top halfword, keeping the bottom one.
func (e *Emulator) execMOVT(inst *insts.Instruction) error {
	low := e.regFile.ReadReg(inst.Rd) & 0xFFFF
	e.regFile.WriteReg(inst.Rd, inst.Imm<<16|low)
	return nil
}
