// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"math/bits"

	"github.com/sarchlab/v7sim/insts"
	"github.com/sarchlab/v7sim/mmu"
)

// fetch translates and decodes the instruction at pc. Decoded
// instructions are cached by physical address when the cache is enabled.
func (e *Emulator) fetch(pc uint32) (insts.Instruction, error) {
	if pc&3 != 0 {
		return insts.Instruction{}, e.mmu.AlignmentFault(pc, false)
	}

	paddr, err := e.mmu.Translate(pc, mmu.Access{Fetch: true, User: !e.regFile.Privileged()})
	if err != nil {
		return insts.Instruction{}, err
	}

	if e.icache != nil {
		if inst, ok := e.icache.Lookup(paddr); ok {
			return inst, nil
		}
	}

	word, err := e.bus.FetchWord(paddr)
	if err != nil {
		return insts.Instruction{}, e.mmu.ExternalAbort(pc, false)
	}

	inst, err := e.decoder.Decode(word, pc)
	if err != nil {
		return inst, err
	}

	if e.icache != nil {
		e.icache.Insert(paddr, inst)
	}
	return inst, nil
}

func (e *Emulator) translate(vaddr uint32, write, unpriv bool) (uint32, error) {
	return e.mmu.Translate(vaddr, mmu.Access{
		Write: write,
		User:  unpriv || !e.regFile.Privileged(),
	})
}

func (e *Emulator) bigEndian() bool {
	return e.regFile.CPSR.Has(PSRE)
}

func reverse(value, size uint32) uint32 {
	switch size {
	case 2:
		return uint32(bits.ReverseBytes16(uint16(value)))
	case 4:
		return bits.ReverseBytes32(value)
	}
	return value
}

// load reads size bytes at vaddr. unpriv forces a PL0 permission check.
// With SCTLR.A clear an unaligned access is split into bytes when split is
// set and passed through unchanged otherwise.
func (e *Emulator) load(vaddr, size uint32, unpriv, split bool) (uint32, error) {
	if vaddr&(size-1) != 0 {
		if e.mmu.AlignmentCheck() {
			return 0, e.mmu.AlignmentFault(vaddr, false)
		}
		if split {
			return e.loadBytes(vaddr, size, unpriv)
		}
	}

	paddr, err := e.translate(vaddr, false, unpriv)
	if err != nil {
		return 0, err
	}

	var value uint32
	switch size {
	case 1:
		var b uint8
		b, err = e.bus.LoadByte(paddr)
		value = uint32(b)
	case 2:
		var h uint16
		h, err = e.bus.LoadHalfword(paddr)
		value = uint32(h)
	default:
		value, err = e.bus.LoadWord(paddr)
	}
	if err != nil {
		return 0, e.mmu.ExternalAbort(vaddr, false)
	}

	if e.bigEndian() {
		value = reverse(value, size)
	}
	return value, nil
}

func (e *Emulator) loadBytes(vaddr, size uint32, unpriv bool) (uint32, error) {
	var value uint32
	for i := uint32(0); i < size; i++ {
		b, err := e.load(vaddr+i, 1, unpriv, false)
		if err != nil {
			return 0, err
		}
		if e.bigEndian() {
			value = value<<8 | b
		} else {
			value |= b << (8 * i)
		}
	}
	return value, nil
}

// store writes the low size bytes of value at vaddr. It follows the same
// alignment policy as load.
func (e *Emulator) store(vaddr, size, value uint32, unpriv, split bool) error {
	if vaddr&(size-1) != 0 {
		if e.mmu.AlignmentCheck() {
			return e.mmu.AlignmentFault(vaddr, true)
		}
		if split {
			return e.storeBytes(vaddr, size, value, unpriv)
		}
	}

	paddr, err := e.translate(vaddr, true, unpriv)
	if err != nil {
		return err
	}

	if e.bigEndian() {
		value = reverse(value, size)
	}

	switch size {
	case 1:
		err = e.bus.StoreByte(paddr, uint8(value))
	case 2:
		err = e.bus.StoreHalfword(paddr, uint16(value))
	default:
		err = e.bus.StoreWord(paddr, value)
	}
	if err != nil {
		return e.mmu.ExternalAbort(vaddr, true)
	}

	if e.icache != nil {
		e.icache.Invalidate(paddr, size)
	}
	return nil
}

func (e *Emulator) storeBytes(vaddr, size, value uint32, unpriv bool) error {
	for i := uint32(0); i < size; i++ {
		shift := 8 * i
		if e.bigEndian() {
			shift = 8 * (size - 1 - i)
		}
		if err := e.store(vaddr+i, 1, value>>shift, unpriv, false); err != nil {
			return err
		}
	}
	return nil
}

// ReadVirtual copies guest memory at vaddr into buf with the current
// privilege, translating every byte. A failed access leaves the CP15
// fault registers untouched.
func (e *Emulator) ReadVirtual(vaddr uint32, buf []byte) error {
	e.mmu.SetFaultRecorder(nil)
	defer e.mmu.SetFaultRecorder(e.cp15)

	for i := range buf {
		b, err := e.load(vaddr+uint32(i), 1, false, false)
		if err != nil {
			return err
		}
		buf[i] = uint8(b)
	}
	return nil
}

// WriteVirtual copies data into guest memory at vaddr. Like ReadVirtual it
// does not record faults.
func (e *Emulator) WriteVirtual(vaddr uint32, data []byte) error {
	e.mmu.SetFaultRecorder(nil)
	defer e.mmu.SetFaultRecorder(e.cp15)

	for i, b := range data {
		if err := e.store(vaddr+uint32(i), 1, uint32(b), false, false); err != nil {
			return err
		}
	}
	return nil
}
