// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"math/bits"

	"github.com/sarchlab/v7sim/insts"
)

// execCLZ counts leading zeros.
func (e *Emulator) execCLZ(inst *insts.Instruction) error {
	e.regFile.WriteReg(inst.Rd, uint32(bits.LeadingZeros32(e.regFile.ReadReg(inst.Rm))))
	return nil
}

// execSaturatingAddSub executes QADD, QSUB, QDADD and QDSUB.
func (e *Emulator) execSaturatingAddSub(inst *insts.Instruction) error {
	rf := e.regFile
	m := int64(int32(rf.ReadReg(inst.Rm)))
	n := int64(int32(rf.ReadReg(inst.Rn)))

	var doubleSat bool
	if inst.Op == insts.OpQDADD || inst.Op == insts.OpQDSUB {
		var d uint32
		d, doubleSat = SignedSat(2*n, 32)
		n = int64(int32(d))
	}

	sum := m + n
	if inst.Op == insts.OpQSUB || inst.Op == insts.OpQDSUB {
		sum = m - n
	}

	result, sat := SignedSat(sum, 32)
	rf.WriteReg(inst.Rd, result)
	if sat || doubleSat {
		rf.CPSR |= PSRQ
	}
	return nil
}

// execPKH executes PKHBT and PKHTB. The LSL form is PKHBT.
func (e *Emulator) execPKH(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	operand := Shift(rf.ReadReg(inst.Rm), inst.ShiftType, uint32(inst.ShiftAmount), rf.CPSR.Has(PSRC))

	var result uint32
	if inst.ShiftType == insts.ShiftLSL {
		result = operand&0xFFFF0000 | n&0xFFFF
	} else {
		result = n&0xFFFF0000 | operand&0xFFFF
	}

	rf.WriteReg(inst.Rd, result)
	return nil
}

// execExtend executes the sign and zero extensions with their accumulate
// forms.
func (e *Emulator) execExtend(inst *insts.Instruction) error {
	rf := e.regFile
	rotated := bits.RotateLeft32(rf.ReadReg(inst.Rm), -int(inst.ShiftAmount))

	var acc uint32
	switch inst.Op {
	case insts.OpSXTAB, insts.OpSXTAH, insts.OpSXTAB16,
		insts.OpUXTAB, insts.OpUXTAH, insts.OpUXTAB16:
		acc = rf.ReadReg(inst.Rn)
	}

	var result uint32
	switch inst.Op {
	case insts.OpSXTB, insts.OpSXTAB:
		result = acc + signExtend(rotated&0xFF, 8)
	case insts.OpSXTH, insts.OpSXTAH:
		result = acc + signExtend(rotated&0xFFFF, 16)
	case insts.OpUXTB, insts.OpUXTAB:
		result = acc + rotated&0xFF
	case insts.OpUXTH, insts.OpUXTAH:
		result = acc + rotated&0xFFFF
	case insts.OpSXTB16, insts.OpSXTAB16:
		lo := acc + signExtend(rotated&0xFF, 8)
		hi := acc>>16 + signExtend((rotated>>16)&0xFF, 8)
		result = hi<<16 | lo&0xFFFF
	default:
		lo := acc + rotated&0xFF
		hi := acc>>16 + (rotated>>16)&0xFF
		result = hi<<16 | lo&0xFFFF
	}

	rf.WriteReg(inst.Rd, result)
	return nil
}

// execSaturate executes SSAT and USAT.
func (e *Emulator) execSaturate(inst *insts.Instruction) error {
	rf := e.regFile
	operand := int64(int32(Shift(rf.ReadReg(inst.Rm), inst.ShiftType,
		uint32(inst.ShiftAmount), rf.CPSR.Has(PSRC))))

	var (
		result uint32
		sat    bool
	)
	if inst.Op == insts.OpSSAT {
		result, sat = SignedSat(operand, uint(inst.Imm))
	} else {
		result, sat = UnsignedSat(operand, uint(inst.Imm))
	}

	rf.WriteReg(inst.Rd, result)
	if sat {
		rf.CPSR |= PSRQ
	}
	return nil
}

// execReverse executes REV, REV16, REVSH and RBIT.
func (e *Emulator) execReverse(inst *insts.Instruction) error {
	m := e.regFile.ReadReg(inst.Rm)

	var result uint32
	switch inst.Op {
	case insts.OpREV:
		result = bits.ReverseBytes32(m)
	case insts.OpREV16:
		result = (m&0x00FF00FF)<<8 | (m&0xFF00FF00)>>8
	case insts.OpREVSH:
		result = signExtend(uint32(bits.ReverseBytes16(uint16(m))), 16)
	default:
		result = bits.Reverse32(m)
	}

	e.regFile.WriteReg(inst.Rd, result)
	return nil
}

// execBitfield executes SBFX, UBFX, BFI and BFC.
func (e *Emulator) execBitfield(inst *insts.Instruction) error {
	rf := e.regFile
	lsb := uint(inst.Lsb)
	width := uint(inst.Width)
	fieldMask := uint32(uint64(1)<<width - 1)

	var result uint32
	switch inst.Op {
	case insts.OpSBFX:
		result = signExtend((rf.ReadReg(inst.Rn)>>lsb)&fieldMask, width)
	case insts.OpUBFX:
		result = (rf.ReadReg(inst.Rn) >> lsb) & fieldMask
	case insts.OpBFI:
		mask := fieldMask << lsb
		result = rf.ReadReg(inst.Rd)&^mask | (rf.ReadReg(inst.Rn)<<lsb)&mask
	default:
		result = rf.ReadReg(inst.Rd) &^ (fieldMask << lsb)
	}

	rf.WriteReg(inst.Rd, result)
	return nil
}
