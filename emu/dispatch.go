// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/insts"
)

type handler func(e *Emulator, inst *insts.Instruction) error

// handlers maps every operation tag to its execution function.
var handlers [insts.NumOps]handler

func init() {
	register := func(h handler, ops ...insts.Op) {
		for _, op := range ops {
			handlers[op] = h
		}
	}

	// Data processing
	for op := insts.OpANDImm; op <= insts.OpMVNImm; op++ {
		register((*Emulator).execDPImm, op)
	}
	for op := insts.OpANDReg; op <= insts.OpMVNReg; op++ {
		register((*Emulator).execDPReg, op)
	}
	for op := insts.OpANDRsr; op <= insts.OpMVNRsr; op++ {
		register((*Emulator).execDPRsr, op)
	}
	register((*Emulator).execADR, insts.OpADR)
	register((*Emulator).execMOVW, insts.OpMOVW)
	register((*Emulator).execMOVT, insts.OpMOVT)

	// Status registers and miscellaneous
	register((*Emulator).execMRS, insts.OpMRS)
	register((*Emulator).execMSR, insts.OpMSRReg, insts.OpMSRImm)
	register((*Emulator).execBX, insts.OpBX)
	register((*Emulator).execBLXReg, insts.OpBLXReg)
	register((*Emulator).execCLZ, insts.OpCLZ)
	register((*Emulator).execSaturatingAddSub,
		insts.OpQADD, insts.OpQSUB, insts.OpQDADD, insts.OpQDSUB)
	register((*Emulator).execBKPT, insts.OpBKPT)
	register((*Emulator).execHint,
		insts.OpNOP, insts.OpYIELD, insts.OpWFE, insts.OpSEV, insts.OpDBG,
		insts.OpPLD, insts.OpPLDW, insts.OpPLI, insts.OpDSB, insts.OpDMB, insts.OpISB)
	register((*Emulator).execWFI, insts.OpWFI)

	// Multiply
	register((*Emulator).execMultiply, insts.OpMUL, insts.OpMLA, insts.OpMLS)
	register((*Emulator).execMultiplyLong,
		insts.OpUMAAL, insts.OpUMULL, insts.OpUMLAL, insts.OpSMULL, insts.OpSMLAL)
	register((*Emulator).execHalfwordMultiply,
		insts.OpSMLAxy, insts.OpSMLAWy, insts.OpSMULWy, insts.OpSMLALxy, insts.OpSMULxy)
	register((*Emulator).execDualMultiply,
		insts.OpSMLAD, insts.OpSMUAD, insts.OpSMLSD, insts.OpSMUSD,
		insts.OpSMLALD, insts.OpSMLSLD)
	register((*Emulator).execMostSignificantMultiply,
		insts.OpSMMLA, insts.OpSMMUL, insts.OpSMMLS)
	register((*Emulator).execDivide, insts.OpSDIV, insts.OpUDIV)
	register((*Emulator).execUSAD8, insts.OpUSAD8, insts.OpUSADA8)

	// Loads and stores
	for op := insts.OpSTRImm; op <= insts.OpLDRBT; op++ {
		register((*Emulator).execLoadStore, op)
	}
	for op := insts.OpSTRHImm; op <= insts.OpLDRSHT; op++ {
		register((*Emulator).execLoadStoreExtra, op)
	}
	register((*Emulator).execLDREX, insts.OpLDREX)
	register((*Emulator).execSTREX, insts.OpSTREX)
	register((*Emulator).execCLREX, insts.OpCLREX)
	register((*Emulator).execLoadMultiple,
		insts.OpLDMDA, insts.OpLDM, insts.OpLDMDB, insts.OpLDMIB,
		insts.OpLDMUser, insts.OpLDMExcReturn)
	register((*Emulator).execStoreMultiple,
		insts.OpSTMDA, insts.OpSTM, insts.OpSTMDB, insts.OpSTMIB, insts.OpSTMUser)

	// Media
	register((*Emulator).execPKH, insts.OpPKH)
	for op := insts.OpSXTAB16; op <= insts.OpUXTH; op++ {
		register((*Emulator).execExtend, op)
	}
	register((*Emulator).execSaturate, insts.OpSSAT, insts.OpUSAT)
	register((*Emulator).execReverse, insts.OpREV, insts.OpREV16, insts.OpREVSH, insts.OpRBIT)
	register((*Emulator).execBitfield, insts.OpSBFX, insts.OpUBFX, insts.OpBFI, insts.OpBFC)

	// Branches
	register((*Emulator).execBranch, insts.OpB, insts.OpBL)

	// System
	register((*Emulator).execSVC, insts.OpSVC)
	register((*Emulator).execMCR, insts.OpMCR)
	register((*Emulator).execMRC, insts.OpMRC)
	register((*Emulator).execCPS, insts.OpCPS)
	register((*Emulator).execSETEND, insts.OpSETEND)
	register((*Emulator).execSRS, insts.OpSRS)
	register((*Emulator).execRFE, insts.OpRFE)
}

// execute runs the handler of a decoded instruction.
func (e *Emulator) execute(inst *insts.Instruction) error {
	if inst.Op >= insts.NumOps || handlers[inst.Op] == nil {
		return faults.WithValue(faults.NotImplemented,
			fmt.Sprintf("no handler for %s", inst.Op), inst.Raw)
	}
	return handlers[inst.Op](e, inst)
}
