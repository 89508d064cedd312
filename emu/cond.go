// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/insts"
)

// ConditionPassed evaluates an ARM condition code against the CPSR flags.
// CondNV marks the unconditional space and always passes.
func ConditionPassed(cond insts.Cond, cpsr PSR) bool {
	n := cpsr.Has(PSRN)
	z := cpsr.Has(PSRZ)
	c := cpsr.Has(PSRC)
	v := cpsr.Has(PSRV)

	switch cond {
	case insts.CondEQ:
		// Equal: Z == 1
		return z
	case insts.CondNE:
		// Not Equal: Z == 0
		return !z
	case insts.CondCS:
		// Carry Set / Unsigned higher or same: C == 1
		return c
	case insts.CondCC:
		// Carry Clear / Unsigned lower: C == 0
		return !c
	case insts.CondMI:
		// Minus / Negative: N == 1
		return n
	case insts.CondPL:
		// Plus / Positive or zero: N == 0
		return !n
	case insts.CondVS:
		// Overflow: V == 1
		return v
	case insts.CondVC:
		// No overflow: V == 0
		return !v
	case insts.CondHI:
		// Unsigned higher: C == 1 && Z == 0
		return c && !z
	case insts.CondLS:
		// Unsigned lower or same: C == 0 || Z == 1
		return !c || z
	case insts.CondGE:
		// Signed greater than or equal: N == V
		return n == v
	case insts.CondLT:
		// Signed less than: N != V
		return n != v
	case insts.CondGT:
		// Signed greater than: Z == 0 && N == V
		return !z && n == v
	case insts.CondLE:
		// Signed less than or equal: Z == 1 || N != V
		return z || n != v
	default:
		// AL and the unconditional space
		return true
	}
}
