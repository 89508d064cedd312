// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/v7sim/cp15"
	"github.com/sarchlab/v7sim/diag"
	"github.com/sarchlab/v7sim/faults"
)

type exceptionKind int

const (
	excUndefined exceptionKind = iota
	excSVC
	excPrefetchAbort
	excDataAbort
	excIRQ
	excFIQ
)

type exceptionInfo struct {
	name     string
	mode     uint32
	offset   uint32 // from the vector base
	lrOffset uint32 // added to the preferred return address
	maskA    bool
	maskF    bool
}

var exceptionTable = [...]exceptionInfo{
	excUndefined:     {name: "undefined", mode: ModeUND, offset: 0x04, lrOffset: 4},
	excSVC:           {name: "svc", mode: ModeSVC, offset: 0x08, lrOffset: 4},
	excPrefetchAbort: {name: "prefetch abort", mode: ModeABT, offset: 0x0C, lrOffset: 4, maskA: true},
	excDataAbort:     {name: "data abort", mode: ModeABT, offset: 0x10, lrOffset: 8, maskA: true},
	excIRQ:           {name: "irq", mode: ModeIRQ, offset: 0x18, lrOffset: 4, maskA: true},
	excFIQ:           {name: "fiq", mode: ModeFIQ, offset: 0x1C, lrOffset: 4, maskA: true, maskF: true},
}

// enterException takes an exception. addr is the faulting instruction, or
// the next instruction to execute for IRQ and FIQ. The jump to the vector
// goes through the deferred branch.
func (e *Emulator) enterException(kind exceptionKind, addr uint32) error {
	info := exceptionTable[kind]
	sctlr := e.cp15.SCTLR()
	if sctlr&cp15.SCTLRTE != 0 {
		return faults.New(faults.NotImplemented, "exception entry in Thumb state")
	}

	saved := e.regFile.CPSR
	if err := e.regFile.ChangeMode(info.mode); err != nil {
		return err
	}
	e.regFile.SetSPSR(saved)
	e.regFile.R[14] = addr + info.lrOffset

	cpsr := e.regFile.CPSR | PSRI
	if info.maskA {
		cpsr |= PSRA
	}
	if info.maskF {
		cpsr |= PSRF
	}
	cpsr &^= PSRT | PSRJ | psrIT
	cpsr.Set(PSRE, sctlr&cp15.SCTLREE != 0)
	e.regFile.CPSR = cpsr

	e.clearExclusive()

	vector := e.cp15.VectorBase() + info.offset
	e.branchTo(vector)

	e.sink.Logf("exception", "%s from 0x%08x in %s, vector 0x%08x",
		info.name, addr, ModeName(saved.Mode()), vector)

	if e.NumHooks() > 0 {
		e.InvokeHook(sim.HookCtx{
			Pos:  diag.HookPosException,
			Item: info.name,
			Detail: diag.Exception{
				From:   addr,
				Vector: vector,
				Return: e.regFile.R[14],
			},
		})
	}

	return nil
}

// exceptionReturn restores CPSR from SPSR and branches to target, as
// SUBS PC, LR and LDM with the PC and S bit do.
func (e *Emulator) exceptionReturn(target uint32) error {
	if !e.regFile.HasSPSR() {
		return faults.New(faults.UnpredictableOperation, "exception return in USR/SYS mode")
	}

	spsr := e.regFile.SPSR()
	if err := e.regFile.CPSRWriteByInstr(uint32(spsr), 0b1111, true, e.nmfiActive()); err != nil {
		return err
	}
	if e.regFile.CPSR.Has(PSRT) {
		return faults.WithValue(faults.NotImplemented, "exception return to Thumb", target)
	}

	e.branchWritePC(target)
	return nil
}

func (e *Emulator) nmfiActive() bool {
	return e.cp15.SCTLR()&cp15.SCTLRNMFI != 0
}
