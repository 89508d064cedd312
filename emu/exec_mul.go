// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/insts"
)

// execMultiply executes MUL, MLA and MLS.
func (e *Emulator) execMultiply(inst *insts.Instruction) error {
	rf := e.regFile
	product := rf.ReadReg(inst.Rn) * rf.ReadReg(inst.Rm)

	var result uint32
	switch inst.Op {
	case insts.OpMUL:
		result = product
	case insts.OpMLA:
		result = product + rf.ReadReg(inst.Ra)
	default:
		result = rf.ReadReg(inst.Ra) - product
	}

	rf.WriteReg(inst.Rd, result)
	if inst.SetFlags && inst.Op != insts.OpMLS {
		// C and V are unchanged
		rf.CPSR.SetNZ(result)
	}
	return nil
}

// execMultiplyLong executes the 64-bit multiplies. Rd holds RdHi and Ra
// holds RdLo.
func (e *Emulator) execMultiplyLong(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	m := rf.ReadReg(inst.Rm)
	acc := uint64(rf.ReadReg(inst.Rd))<<32 | uint64(rf.ReadReg(inst.Ra))

	var result uint64
	switch inst.Op {
	case insts.OpUMAAL:
		result = uint64(n)*uint64(m) + uint64(rf.ReadReg(inst.Rd)) + uint64(rf.ReadReg(inst.Ra))
	case insts.OpUMULL:
		result = uint64(n) * uint64(m)
	case insts.OpUMLAL:
		result = uint64(n)*uint64(m) + acc
	case insts.OpSMULL:
		result = uint64(int64(int32(n)) * int64(int32(m)))
	default:
		result = uint64(int64(int32(n))*int64(int32(m)) + int64(acc))
	}

	rf.WriteReg(inst.Rd, uint32(result>>32))
	rf.WriteReg(inst.Ra, uint32(result))
	if inst.SetFlags && inst.Op != insts.OpUMAAL {
		rf.CPSR.Set(PSRN, result>>63 != 0)
		rf.CPSR.Set(PSRZ, result == 0)
	}
	return nil
}

func half(value uint32, high bool) int32 {
	if high {
		return int32(int16(value >> 16))
	}
	return int32(int16(value))
}

// execHalfwordMultiply executes the signed 16-bit multiplies.
func (e *Emulator) execHalfwordMultiply(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	m := rf.ReadReg(inst.Rm)

	switch inst.Op {
	case insts.OpSMULxy:
		rf.WriteReg(inst.Rd, uint32(half(n, inst.NHigh)*half(m, inst.MHigh)))
	case insts.OpSMLAxy:
		result := int64(half(n, inst.NHigh)*half(m, inst.MHigh)) + int64(int32(rf.ReadReg(inst.Ra)))
		e.writeQ(inst.Rd, result)
	case insts.OpSMULWy:
		result := int64(int32(n)) * int64(half(m, inst.MHigh))
		rf.WriteReg(inst.Rd, uint32(result>>16))
	case insts.OpSMLAWy:
		result := int64(int32(n))*int64(half(m, inst.MHigh)) + int64(int32(rf.ReadReg(inst.Ra)))<<16
		e.writeQ(inst.Rd, result>>16)
	case insts.OpSMLALxy:
		acc := int64(uint64(rf.ReadReg(inst.Rd))<<32 | uint64(rf.ReadReg(inst.Ra)))
		result := int64(half(n, inst.NHigh)*half(m, inst.MHigh)) + acc
		rf.WriteReg(inst.Rd, uint32(uint64(result)>>32))
		rf.WriteReg(inst.Ra, uint32(result))
	}
	return nil
}

// writeQ writes the low word of result and sets Q when it does not fit in
// 32 signed bits.
func (e *Emulator) writeQ(rd uint8, result int64) {
	e.regFile.WriteReg(rd, uint32(result))
	if result != int64(int32(result)) {
		e.regFile.CPSR |= PSRQ
	}
}

// execDualMultiply executes the dual 16-bit multiplies. Modifier swaps the
// halves of Rm.
func (e *Emulator) execDualMultiply(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	m := rf.ReadReg(inst.Rm)
	if inst.Modifier {
		m = m>>16 | m<<16
	}

	p1 := int64(half(n, false) * half(m, false))
	p2 := int64(half(n, true) * half(m, true))

	switch inst.Op {
	case insts.OpSMUAD:
		e.writeQ(inst.Rd, p1+p2)
	case insts.OpSMLAD:
		e.writeQ(inst.Rd, p1+p2+int64(int32(rf.ReadReg(inst.Ra))))
	case insts.OpSMUSD:
		rf.WriteReg(inst.Rd, uint32(p1-p2))
	case insts.OpSMLSD:
		e.writeQ(inst.Rd, p1-p2+int64(int32(rf.ReadReg(inst.Ra))))
	default:
		acc := int64(uint64(rf.ReadReg(inst.Rd))<<32 | uint64(rf.ReadReg(inst.Ra)))
		result := acc + p1 + p2
		if inst.Op == insts.OpSMLSLD {
			result = acc + p1 - p2
		}
		rf.WriteReg(inst.Rd, uint32(uint64(result)>>32))
		rf.WriteReg(inst.Ra, uint32(result))
	}
	return nil
}

// execMostSignificantMultiply executes SMMUL, SMMLA and SMMLS. Modifier
// rounds the result.
func (e *Emulator) execMostSignificantMultiply(inst *insts.Instruction) error {
	rf := e.regFile
	product := int64(int32(rf.ReadReg(inst.Rn))) * int64(int32(rf.ReadReg(inst.Rm)))

	var result int64
	switch inst.Op {
	case insts.OpSMMUL:
		result = product
	case insts.OpSMMLA:
		result = int64(int32(rf.ReadReg(inst.Ra)))<<32 + product
	default:
		result = int64(int32(rf.ReadReg(inst.Ra)))<<32 - product
	}
	if inst.Modifier {
		result += 0x80000000
	}

	rf.WriteReg(inst.Rd, uint32(result>>32))
	return nil
}

// execDivide executes SDIV and UDIV. Division by zero yields zero.
func (e *Emulator) execDivide(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	m := rf.ReadReg(inst.Rm)

	var result uint32
	switch {
	case m == 0:
		result = 0
	case inst.Op == insts.OpUDIV:
		result = n / m
	default:
		// INT_MIN / -1 wraps to INT_MIN.
		result = uint32(int32(n) / int32(m))
	}

	rf.WriteReg(inst.Rd, result)
	return nil
}

// execUSAD8 sums the absolute differences of the four byte pairs.
func (e *Emulator) execUSAD8(inst *insts.Instruction) error {
	rf := e.regFile
	n := rf.ReadReg(inst.Rn)
	m := rf.ReadReg(inst.Rm)

	var sum uint32
	for i := uint(0); i < 32; i += 8 {
		a := (n >> i) & 0xFF
		b := (m >> i) & 0xFF
		if a > b {
			sum += a - b
		} else {
			sum += b - a
		}
	}
	if inst.Op == insts.OpUSADA8 {
		sum += rf.ReadReg(inst.Ra)
	}

	rf.WriteReg(inst.Rd, sum)
	return nil
}
