// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"math/bits"

	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/insts"
)

// address computes the offset address, the address accessed and whether
// the base is written back.
func (e *Emulator) address(inst *insts.Instruction, offset uint32) (offsetAddr, addr uint32, wback bool) {
	base := e.regFile.ReadReg(inst.Rn)
	if inst.Rn == 15 {
		base &^= 3
	}

	offsetAddr = base - offset
	if inst.Add {
		offsetAddr = base + offset
	}

	addr = base
	if inst.Index {
		addr = offsetAddr
	}
	return offsetAddr, addr, !inst.Index || inst.WriteBack
}

// execLoadStore executes the word and unsigned byte transfers.
func (e *Emulator) execLoadStore(inst *insts.Instruction) error {
	offset := inst.Imm
	if inst.RegOffset {
		offset = Shift(e.regFile.ReadReg(inst.Rm), inst.ShiftType,
			uint32(inst.ShiftAmount), e.regFile.CPSR.Has(PSRC))
	}
	offsetAddr, addr, wback := e.address(inst, offset)

	var (
		size   uint32 = 4
		load   bool
		unpriv bool
	)
	switch inst.Op {
	case insts.OpLDRImm, insts.OpLDRReg:
		load = true
	case insts.OpLDRT:
		load, unpriv = true, true
	case insts.OpSTRT:
		unpriv = true
	case insts.OpLDRBImm, insts.OpLDRBReg:
		size, load = 1, true
	case insts.OpLDRBT:
		size, load, unpriv = 1, true, true
	case insts.OpSTRBImm, insts.OpSTRBReg:
		size = 1
	case insts.OpSTRBT:
		size, unpriv = 1, true
	}

	if !load {
		if err := e.store(addr, size, e.regFile.ReadReg(inst.Rd), unpriv, true); err != nil {
			return err
		}
		if wback {
			e.regFile.WriteReg(inst.Rn, offsetAddr)
		}
		return nil
	}

	value, err := e.load(addr, size, unpriv, true)
	if err != nil {
		return err
	}
	if wback {
		e.regFile.WriteReg(inst.Rn, offsetAddr)
	}
	if inst.Rd == 15 {
		return e.bxWritePC(value)
	}
	e.regFile.WriteReg(inst.Rd, value)
	return nil
}

// execLoadStoreExtra executes the halfword, signed byte and doubleword
// transfers.
func (e *Emulator) execLoadStoreExtra(inst *insts.Instruction) error {
	offset := inst.Imm
	if inst.RegOffset {
		offset = e.regFile.ReadReg(inst.Rm)
	}
	offsetAddr, addr, wback := e.address(inst, offset)

	var unpriv bool
	switch inst.Op {
	case insts.OpSTRHT, insts.OpLDRHT, insts.OpLDRSBT, insts.OpLDRSHT:
		unpriv = true
	}

	var (
		loaded [2]uint32
		count  int
		err    error
	)
	switch inst.Op {
	case insts.OpSTRHImm, insts.OpSTRHReg, insts.OpSTRHT:
		err = e.store(addr, 2, e.regFile.ReadReg(inst.Rd), unpriv, true)
	case insts.OpSTRDImm, insts.OpSTRDReg:
		err = e.store(addr, 4, e.regFile.ReadReg(inst.Rd), false, false)
		if err == nil {
			err = e.store(addr+4, 4, e.regFile.ReadReg(inst.Rd+1), false, false)
		}
	case insts.OpLDRDImm, insts.OpLDRDReg:
		count = 2
		loaded[0], err = e.load(addr, 4, false, false)
		if err == nil {
			loaded[1], err = e.load(addr+4, 4, false, false)
		}
	default:
		count = 1
		loaded[0], err = e.loadExtra(inst.Op, addr, unpriv)
	}
	if err != nil {
		return err
	}

	if wback {
		e.regFile.WriteReg(inst.Rn, offsetAddr)
	}
	for i := 0; i < count; i++ {
		e.regFile.WriteReg(inst.Rd+uint8(i), loaded[i])
	}
	return nil
}

func (e *Emulator) loadExtra(op insts.Op, addr uint32, unpriv bool) (uint32, error) {
	switch op {
	case insts.OpLDRSBImm, insts.OpLDRSBReg, insts.OpLDRSBT:
		v, err := e.load(addr, 1, unpriv, false)
		return signExtend(v, 8), err
	case insts.OpLDRSHImm, insts.OpLDRSHReg, insts.OpLDRSHT:
		v, err := e.load(addr, 2, unpriv, true)
		return signExtend(v, 16), err
	default:
		return e.load(addr, 2, unpriv, true)
	}
}

// execLDREX loads a word and marks the address for exclusive access.
func (e *Emulator) execLDREX(inst *insts.Instruction) error {
	addr := e.regFile.ReadReg(inst.Rn)
	value, err := e.load(addr, 4, false, false)
	if err != nil {
		return err
	}

	e.exclusiveValid = true
	e.exclusiveAddr = addr
	e.regFile.WriteReg(inst.Rd, value)
	return nil
}

// execSTREX stores only if the monitor still holds the address. Rd
// receives 0 on success and 1 on failure.
func (e *Emulator) execSTREX(inst *insts.Instruction) error {
	addr := e.regFile.ReadReg(inst.Rn)
	if !e.exclusiveValid || e.exclusiveAddr != addr {
		e.clearExclusive()
		e.regFile.WriteReg(inst.Rd, 1)
		return nil
	}

	if err := e.store(addr, 4, e.regFile.ReadReg(inst.Rm), false, false); err != nil {
		return err
	}
	e.clearExclusive()
	e.regFile.WriteReg(inst.Rd, 0)
	return nil
}

// execCLREX clears the local exclusive monitor.
func (e *Emulator) execCLREX(inst *insts.Instruction) error {
	e.clearExclusive()
	return nil
}

// blockAddress returns the lowest address of a block transfer and the
// written-back base.
func (e *Emulator) blockAddress(inst *insts.Instruction) (start, wbValue uint32) {
	base := e.regFile.ReadReg(inst.Rn)
	size := 4 * uint32(bits.OnesCount16(inst.RegList))

	if inst.Add {
		start = base
		if inst.Index {
			start += 4
		}
		return start, base + size
	}

	start = base - size
	if !inst.Index {
		start += 4
	}
	return start, base - size
}

// execLoadMultiple executes the LDM family. Every word is loaded before
// any register is written.
func (e *Emulator) execLoadMultiple(inst *insts.Instruction) error {
	rf := e.regFile
	if inst.Op == insts.OpLDMUser && rf.currentBank() == bankUSR {
		return faults.New(faults.UnpredictableOperation, "LDM (user registers) in USR/SYS mode")
	}

	start, wbValue := e.blockAddress(inst)

	var values [16]uint32
	addr := start
	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		v, err := e.load(addr, 4, false, false)
		if err != nil {
			return err
		}
		values[i] = v
		addr += 4
	}

	if inst.WriteBack {
		rf.WriteReg(inst.Rn, wbValue)
	}

	for i := uint8(0); i < 15; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		if inst.Op == insts.OpLDMUser {
			rf.SetUserReg(i, values[i])
		} else {
			rf.WriteReg(i, values[i])
		}
	}

	if inst.RegList&(1<<15) == 0 {
		return nil
	}
	if inst.Op == insts.OpLDMExcReturn {
		return e.exceptionReturn(values[15])
	}
	return e.bxWritePC(values[15])
}

// execStoreMultiple executes the STM family.
func (e *Emulator) execStoreMultiple(inst *insts.Instruction) error {
	rf := e.regFile
	if inst.Op == insts.OpSTMUser && rf.currentBank() == bankUSR {
		return faults.New(faults.UnpredictableOperation, "STM (user registers) in USR/SYS mode")
	}

	start, wbValue := e.blockAddress(inst)

	addr := start
	for i := uint8(0); i < 16; i++ {
		if inst.RegList&(1<<i) == 0 {
			continue
		}
		value := rf.ReadReg(i)
		if inst.Op == insts.OpSTMUser {
			value = rf.UserReg(i)
		}
		if err := e.store(addr, 4, value, false, false); err != nil {
			return err
		}
		addr += 4
	}

	if inst.WriteBack {
		rf.WriteReg(inst.Rn, wbValue)
	}
	return nil
}
