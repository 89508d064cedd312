// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"math/bits"

	"github.com/sarchlab/v7sim/insts"
)

// ShiftC applies a barrel-shifter operation and returns the result and the
// shifter carry out. A zero amount returns the value and carryIn for every
// type. Register-specified amounts up to 255 are accepted.
func ShiftC(value uint32, typ insts.ShiftType, amount uint32, carryIn bool) (uint32, bool) {
	if amount == 0 {
		return value, carryIn
	}

	switch typ {
	case insts.ShiftLSL:
		if amount > 32 {
			return 0, false
		}
		ext := uint64(value) << amount
		return uint32(ext), ext&(1<<32) != 0
	case insts.ShiftLSR:
		if amount > 32 {
			return 0, false
		}
		if amount == 32 {
			return 0, value&0x80000000 != 0
		}
		return value >> amount, (value>>(amount-1))&1 != 0
	case insts.ShiftASR:
		if amount >= 32 {
			if value&0x80000000 != 0 {
				return 0xFFFFFFFF, true
			}
			return 0, false
		}
		return uint32(int32(value) >> amount), (value>>(amount-1))&1 != 0
	case insts.ShiftROR:
		result := bits.RotateLeft32(value, -int(amount%32))
		return result, result&0x80000000 != 0
	case insts.ShiftRRX:
		result := value >> 1
		if carryIn {
			result |= 0x80000000
		}
		return result, value&1 != 0
	}

	return value, carryIn
}

// Shift is ShiftC without the carry out.
func Shift(value uint32, typ insts.ShiftType, amount uint32, carryIn bool) uint32 {
	result, _ := ShiftC(value, typ, amount, carryIn)
	return result
}

// AddWithCarry returns x + y + carryIn with the carry and overflow flags
// of the addition.
func AddWithCarry(x, y uint32, carryIn bool) (result uint32, carry, overflow bool) {
	var c uint64
	if carryIn {
		c = 1
	}

	unsignedSum := uint64(x) + uint64(y) + c
	signedSum := int64(int32(x)) + int64(int32(y)) + int64(c)

	result = uint32(unsignedSum)
	carry = uint64(result) != unsignedSum
	overflow = int64(int32(result)) != signedSum
	return result, carry, overflow
}

// ExpandImmC expands a data-processing modified immediate (imm12) and
// returns the carry out of its rotation.
func ExpandImmC(imm12 uint32, carryIn bool) (uint32, bool) {
	unrotated := imm12 & 0xFF
	rotation := 2 * ((imm12 >> 8) & 0xF)
	if rotation == 0 {
		return unrotated, carryIn
	}
	return ShiftC(unrotated, insts.ShiftROR, rotation, carryIn)
}

// ExpandImm expands a modified immediate.
func ExpandImm(imm12 uint32) uint32 {
	result, _ := ExpandImmC(imm12, false)
	return result
}

// SignedSat saturates i to an n-bit signed range (1 <= n <= 32).
func SignedSat(i int64, n uint) (uint32, bool) {
	max := int64(1)<<(n-1) - 1
	min := -(int64(1) << (n - 1))
	switch {
	case i > max:
		return uint32(max), true
	case i < min:
		return uint32(int32(min)), true
	}
	return uint32(int32(i)), false
}

// UnsignedSat saturates i to an n-bit unsigned range (0 <= n <= 31).
func UnsignedSat(i int64, n uint) (uint32, bool) {
	max := int64(1)<<n - 1
	switch {
	case i > max:
		return uint32(max), true
	case i < 0:
		return 0, true
	}
	return uint32(i), false
}

func signExtend(value uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(value<<shift) >> shift)
}
