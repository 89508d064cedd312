// Package emu provides functional ARMv7-A emulation.
package emu

// PSR is a program status register value (CPSR or SPSR).
type PSR uint32

// Processor modes, the M[4:0] field.
const (
	ModeUSR uint32 = 0x10
	ModeFIQ uint32 = 0x11
	ModeIRQ uint32 = 0x12
	ModeSVC uint32 = 0x13
	ModeMON uint32 = 0x16
	ModeABT uint32 = 0x17
	ModeUND uint32 = 0x1B
	ModeSYS uint32 = 0x1F
)

// PSR bit positions.
const (
	PSRN PSR = 1 << 31 // Negative
	PSRZ PSR = 1 << 30 // Zero
	PSRC PSR = 1 << 29 // Carry
	PSRV PSR = 1 << 28 // Overflow
	PSRQ PSR = 1 << 27 // Cumulative saturation
	PSRJ PSR = 1 << 24 // Jazelle
	PSRE PSR = 1 << 9  // Big-endian data
	PSRA PSR = 1 << 8  // Asynchronous abort mask
	PSRI PSR = 1 << 7  // IRQ mask
	PSRF PSR = 1 << 6  // FIQ mask
	PSRT PSR = 1 << 5  // Thumb

	psrGE   PSR = 0xF << 16
	psrIT   PSR = 0x3<<25 | 0x3F<<10
	psrMode PSR = 0x1F
)

// Mode returns the M[4:0] field.
func (p PSR) Mode() uint32 {
	return uint32(p & psrMode)
}

// Has reports whether every bit of flag is set.
func (p PSR) Has(flag PSR) bool {
	return p&flag == flag
}

// Set sets or clears flag.
func (p *PSR) Set(flag PSR, on bool) {
	if on {
		*p |= flag
	} else {
		*p &^= flag
	}
}

// SetNZ updates N and Z from a result.
func (p *PSR) SetNZ(result uint32) {
	p.Set(PSRN, result&0x80000000 != 0)
	p.Set(PSRZ, result == 0)
}

// SetNZCV updates all four condition flags.
func (p *PSR) SetNZCV(n, z, c, v bool) {
	p.Set(PSRN, n)
	p.Set(PSRZ, z)
	p.Set(PSRC, c)
	p.Set(PSRV, v)
}

// ValidMode reports whether m is a recognized processor mode.
func ValidMode(m uint32) bool {
	_, ok := bankOf(m)
	return ok
}

// ModeName returns the assembler name of a mode.
func ModeName(m uint32) string {
	switch m {
	case ModeUSR:
		return "usr"
	case ModeFIQ:
		return "fiq"
	case ModeIRQ:
		return "irq"
	case ModeSVC:
		return "svc"
	case ModeMON:
		return "mon"
	case ModeABT:
		return "abt"
	case ModeUND:
		return "und"
	case ModeSYS:
		return "sys"
	}
	return "invalid"
}
