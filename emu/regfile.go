// Package emu provides functional ARMv7-A emulation.
package emu

import (
	"github.com/sarchlab/v7sim/faults"
)

type bank int

const (
	bankUSR bank = iota // shared by USR and SYS
	bankFIQ
	bankIRQ
	bankSVC
	bankMON
	bankABT
	bankUND
	numBanks
)

func bankOf(mode uint32) (bank, bool) {
	switch mode {
	case ModeUSR, ModeSYS:
		return bankUSR, true
	case ModeFIQ:
		return bankFIQ, true
	case ModeIRQ:
		return bankIRQ, true
	case ModeSVC:
		return bankSVC, true
	case ModeMON:
		return bankMON, true
	case ModeABT:
		return bankABT, true
	case ModeUND:
		return bankUND, true
	}
	return 0, false
}

// RegFile represents the ARMv7-A register file.
// R holds the live r0-r14 of the current mode. The banked copies of the
// other modes are kept aside and swapped in by ChangeMode.
type RegFile struct {
	// R holds the live general-purpose registers r0-r14.
	R [15]uint32

	// PC is the address of the instruction being executed.
	PC uint32

	// CPSR is the current program status register.
	CPSR PSR

	spsr     [numBanks]PSR
	bankedSP [numBanks]uint32
	bankedLR [numBanks]uint32

	// r8-r12 of the modes other than FIQ, and of FIQ, while not live.
	usrHigh [5]uint32
	fiqHigh [5]uint32
}

// NewRegFile returns a register file in SVC mode with IRQ and FIQ masked,
// the architectural reset state.
func NewRegFile() *RegFile {
	return &RegFile{CPSR: PSR(ModeSVC) | PSRA | PSRI | PSRF}
}

// ReadReg reads a register value. Register 15 reads as PC+8.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 15 {
		return r.PC + 8
	}
	return r.R[reg]
}

// WriteReg writes a register value. Writing register 15 sets the PC
// directly; instructions go through the executor's deferred branch instead.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 15 {
		r.PC = value
		return
	}
	r.R[reg] = value
}

// Mode returns the current processor mode.
func (r *RegFile) Mode() uint32 {
	return r.CPSR.Mode()
}

// Privileged reports whether the current mode is not USR.
func (r *RegFile) Privileged() bool {
	return r.CPSR.Mode() != ModeUSR
}

func (r *RegFile) currentBank() bank {
	b, _ := bankOf(r.CPSR.Mode())
	return b
}

// ChangeMode switches to the target mode, saving the outgoing banked
// registers and loading the incoming ones. An unrecognized target leaves
// the register file untouched.
func (r *RegFile) ChangeMode(target uint32) error {
	to, ok := bankOf(target)
	if !ok {
		return faults.WithValue(faults.UnpredictableOperation, "invalid mode", target)
	}

	from := r.currentBank()
	if from != to {
		r.bankedSP[from] = r.R[13]
		r.bankedLR[from] = r.R[14]

		if (from == bankFIQ) != (to == bankFIQ) {
			if from == bankFIQ {
				copy(r.fiqHigh[:], r.R[8:13])
				copy(r.R[8:13], r.usrHigh[:])
			} else {
				copy(r.usrHigh[:], r.R[8:13])
				copy(r.R[8:13], r.fiqHigh[:])
			}
		}

		r.R[13] = r.bankedSP[to]
		r.R[14] = r.bankedLR[to]
	}

	r.CPSR = r.CPSR&^psrMode | PSR(target)
	return nil
}

// HasSPSR reports whether the current mode has an SPSR.
func (r *RegFile) HasSPSR() bool {
	return r.currentBank() != bankUSR
}

// SPSR returns the SPSR of the current mode. USR and SYS read as zero.
func (r *RegFile) SPSR() PSR {
	return r.spsr[r.currentBank()]
}

// SetSPSR sets the SPSR of the current mode. It is ignored in USR and SYS.
func (r *RegFile) SetSPSR(v PSR) {
	if b := r.currentBank(); b != bankUSR {
		r.spsr[b] = v
	}
}

// UserReg reads a register of the USR bank regardless of the current mode.
func (r *RegFile) UserReg(reg uint8) uint32 {
	b := r.currentBank()
	switch {
	case reg >= 8 && reg <= 12 && b == bankFIQ:
		return r.usrHigh[reg-8]
	case reg == 13 && b != bankUSR:
		return r.bankedSP[bankUSR]
	case reg == 14 && b != bankUSR:
		return r.bankedLR[bankUSR]
	}
	return r.ReadReg(reg)
}

// SetUserReg writes a register of the USR bank regardless of the current
// mode. Register 15 is not accepted.
func (r *RegFile) SetUserReg(reg uint8, value uint32) {
	b := r.currentBank()
	switch {
	case reg >= 8 && reg <= 12 && b == bankFIQ:
		r.usrHigh[reg-8] = value
	case reg == 13 && b != bankUSR:
		r.bankedSP[bankUSR] = value
	case reg == 14 && b != bankUSR:
		r.bankedLR[bankUSR] = value
	case reg < 15:
		r.R[reg] = value
	}
}

// BankedSP returns the stack pointer of the given mode.
func (r *RegFile) BankedSP(mode uint32) (uint32, error) {
	b, ok := bankOf(mode)
	if !ok {
		return 0, faults.WithValue(faults.UnpredictableOperation, "invalid mode", mode)
	}
	if b == r.currentBank() {
		return r.R[13], nil
	}
	return r.bankedSP[b], nil
}

// SetBankedSP sets the stack pointer of the given mode.
func (r *RegFile) SetBankedSP(mode uint32, value uint32) error {
	b, ok := bankOf(mode)
	if !ok {
		return faults.WithValue(faults.UnpredictableOperation, "invalid mode", mode)
	}
	if b == r.currentBank() {
		r.R[13] = value
	} else {
		r.bankedSP[b] = value
	}
	return nil
}

// CPSRWriteByInstr writes the CPSR byte groups selected by mask as an MSR,
// CPS or exception return would. nmfi forbids software from clearing F.
func (r *RegFile) CPSRWriteByInstr(value uint32, mask uint8, excReturn, nmfi bool) error {
	v := PSR(value)
	privileged := r.Privileged()

	// Reject a bad mode before touching anything.
	if mask&0b0001 != 0 && privileged && !ValidMode(v.Mode()) {
		return faults.WithValue(faults.UnpredictableOperation, "invalid mode", v.Mode())
	}

	cpsr := r.CPSR
	update := func(bitsMask PSR) {
		cpsr = cpsr&^bitsMask | v&bitsMask
	}

	if mask&0b1000 != 0 {
		update(PSRN | PSRZ | PSRC | PSRV | PSRQ)
		if excReturn {
			update(0x3<<25 | PSRJ)
		}
	}
	if mask&0b0100 != 0 {
		update(psrGE)
	}
	if mask&0b0010 != 0 {
		if excReturn {
			update(0x3F << 10)
		}
		update(PSRE)
		if privileged {
			update(PSRA)
		}
	}
	if mask&0b0001 != 0 {
		if privileged {
			update(PSRI)
		}
		if privileged && (!nmfi || v.Has(PSRF)) {
			update(PSRF)
		}
		if excReturn {
			update(PSRT)
		}
	}

	newMode := r.CPSR.Mode()
	if mask&0b0001 != 0 && privileged {
		newMode = v.Mode()
	}

	r.CPSR = cpsr&^psrMode | PSR(r.CPSR.Mode())
	if newMode != r.CPSR.Mode() {
		return r.ChangeMode(newMode)
	}
	return nil
}

// SPSRWriteByInstr writes the byte groups selected by mask into the SPSR
// of the current mode.
func (r *RegFile) SPSRWriteByInstr(value uint32, mask uint8) error {
	if !r.HasSPSR() {
		return faults.New(faults.UnpredictableOperation, "SPSR access in USR/SYS mode")
	}
	if mask&0b0001 != 0 && !ValidMode(value&0x1F) {
		return faults.WithValue(faults.UnpredictableOperation, "invalid mode", value&0x1F)
	}

	spsr := uint32(r.SPSR())
	for i := uint(0); i < 4; i++ {
		if mask&(1<<i) != 0 {
			byteMask := uint32(0xFF) << (8 * i)
			spsr = spsr&^byteMask | value&byteMask
		}
	}
	r.SetSPSR(PSR(spsr))
	return nil
}
