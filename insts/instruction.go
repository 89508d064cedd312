package insts

// Cond represents an ARM condition code.
type Cond uint8

// ARM condition codes.
const (
	CondEQ Cond = 0b0000 // Equal (Z == 1)
	CondNE Cond = 0b0001 // Not Equal (Z == 0)
	CondCS Cond = 0b0010 // Carry Set / Unsigned higher or same (C == 1)
	CondCC Cond = 0b0011 // Carry Clear / Unsigned lower (C == 0)
	CondMI Cond = 0b0100 // Minus / Negative (N == 1)
	CondPL Cond = 0b0101 // Plus / Positive or zero (N == 0)
	CondVS Cond = 0b0110 // Overflow (V == 1)
	CondVC Cond = 0b0111 // No overflow (V == 0)
	CondHI Cond = 0b1000 // Unsigned higher (C == 1 && Z == 0)
	CondLS Cond = 0b1001 // Unsigned lower or same (C == 0 || Z == 1)
	CondGE Cond = 0b1010 // Signed greater than or equal (N == V)
	CondLT Cond = 0b1011 // Signed less than (N != V)
	CondGT Cond = 0b1100 // Signed greater than (Z == 0 && N == V)
	CondLE Cond = 0b1101 // Signed less than or equal (Z == 1 || N != V)
	CondAL Cond = 0b1110 // Always (unconditional)
	CondNV Cond = 0b1111 // Unconditional instruction space
)

// ShiftType represents a barrel shifter operation.
type ShiftType uint8

// Shift types. The first four match the 2-bit encoding field.
const (
	ShiftLSL ShiftType = 0b00 // Logical shift left
	ShiftLSR ShiftType = 0b01 // Logical shift right
	ShiftASR ShiftType = 0b10 // Arithmetic shift right
	ShiftROR ShiftType = 0b11 // Rotate right
	ShiftRRX ShiftType = 0b100
)

func (s ShiftType) String() string {
	switch s {
	case ShiftLSL:
		return "LSL"
	case ShiftLSR:
		return "LSR"
	case ShiftASR:
		return "ASR"
	case ShiftROR:
		return "ROR"
	case ShiftRRX:
		return "RRX"
	}
	return "?"
}

// Instruction represents a decoded ARM instruction.
type Instruction struct {
	Op   Op   // Operation tag
	Cond Cond // Condition field
	Raw  uint32

	// Registers. Rd doubles as Rt for loads/stores and CP15 transfers and
	// as RdHi for long multiplies; Ra doubles as RdLo. For STREX Rd is the
	// status register and Rm the value register. For MCR/MRC Rn and Rm
	// hold CRn and CRm.
	Rd uint8
	Rn uint8
	Rm uint8
	Rs uint8
	Ra uint8

	SetFlags bool // S bit

	// Imm is the immediate payload: the raw imm12 of data-processing
	// immediates, the byte offset of loads/stores, the sign-extended byte
	// offset of branches, or the literal field of SVC/BKPT/MOVW/MOVT.
	Imm uint32

	// Shift applied to Rm (or to the Rm/Rn operand of PKH/SSAT/USAT and the
	// rotation of the extend family).
	ShiftType   ShiftType
	ShiftAmount uint8

	// Addressing mode bits.
	Index     bool // P
	Add       bool // U
	WriteBack bool // W
	RegOffset bool // register offset for the T forms

	RegList uint16

	// Bitfield operands.
	Lsb   uint8
	Width uint8

	// Mask is the MSR field mask, or the A/I/F selection of CPS.
	Mask    uint8
	UseSPSR bool

	// NHigh and MHigh select the top halves in the halfword multiplies.
	// Modifier is bit 5 of the media multiplies (exchange or round).
	NHigh    bool
	MHigh    bool
	Modifier bool

	// CP15 opcodes.
	Opc1 uint8
	Opc2 uint8

	// CPS fields.
	IMod       uint8
	ModeChange bool
}

// DecodeImmShift converts the 2-bit type and 5-bit immediate of an
// immediate shift into the effective shift.
func DecodeImmShift(typ, imm5 uint32) (ShiftType, uint8) {
	switch typ & 0b11 {
	case 0b00:
		return ShiftLSL, uint8(imm5)
	case 0b01:
		if imm5 == 0 {
			return ShiftLSR, 32
		}
		return ShiftLSR, uint8(imm5)
	case 0b10:
		if imm5 == 0 {
			return ShiftASR, 32
		}
		return ShiftASR, uint8(imm5)
	default:
		if imm5 == 0 {
			return ShiftRRX, 1
		}
		return ShiftROR, uint8(imm5)
	}
}

// bits extracts word[hi:lo].
func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & (1<<(hi-lo+1) - 1)
}

// bit extracts word[n].
func bit(word uint32, n uint) uint32 {
	return (word >> n) & 1
}

func signExtend(value uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(value<<shift) >> shift)
}
