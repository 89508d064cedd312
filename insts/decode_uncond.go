package insts

// decodeUnconditional decodes the cond == 0b1111 space.
// Format: 1111 | op1(8) | Rn | ... | op | ...
func (d *Decoder) decodeUnconditional(word uint32, inst *Instruction) error {
	op1 := bits(word, 27, 20)

	switch {
	case op1&0x80 == 0:
		return d.decodeHintsSIMDMisc(word, inst)
	case op1&0xE5 == 0x84:
		return d.decodeSRS(word, inst)
	case op1&0xE5 == 0x81:
		return d.decodeRFE(word, inst)
	case op1&0xE0 == 0xA0:
		return notImplemented("BLX (immediate) to Thumb state")
	case op1&0xE0 == 0xC0, op1&0xF0 == 0xE0:
		return undefined("unconditional coprocessor instruction")
	}

	return undefined("unconditional")
}

// decodeHintsSIMDMisc decodes memory hints, Advanced SIMD and the
// miscellaneous unconditional instructions.
// Format: 1111 | 0 | op1(7) | Rn | ... | op2(4) | ...
func (d *Decoder) decodeHintsSIMDMisc(word uint32, inst *Instruction) error {
	op1 := bits(word, 26, 20)
	op2 := bits(word, 7, 4)
	rn := bits(word, 19, 16)

	switch {
	case op1 == 0b0010000:
		switch {
		case op2&0b0010 == 0 && rn&1 == 0:
			return d.decodeCPS(word, inst)
		case op2 == 0 && rn&1 == 1:
			inst.Op = OpSETEND
			inst.Imm = bit(word, 9)
			return nil
		}
		return undefined("change processor state")
	case op1&0b1100000 == 0b0100000:
		return simdOrVFP("Advanced SIMD data-processing")
	case op1&0b1110001 == 0b1000000:
		return simdOrVFP("Advanced SIMD element or structure load/store")
	case op1&0b1110111 == 0b1000001:
		inst.Op = OpNOP
		return nil
	case op1&0b1110111 == 0b1000101:
		return d.decodePreload(word, inst, OpPLI, false)
	case op1&0b1110111 == 0b1010001:
		if rn == 15 {
			return unpredictable("PLDW literal")
		}
		return d.decodePreload(word, inst, OpPLDW, false)
	case op1&0b1110111 == 0b1010101:
		return d.decodePreload(word, inst, OpPLD, false)
	case op1 == 0b1010011:
		return unpredictable("unconditional miscellaneous")
	case op1 == 0b1010111:
		return d.decodeBarrier(word, inst)
	case op1&0b1111011 == 0b1011011:
		return unpredictable("unconditional miscellaneous")
	case op2&1 == 0 && op1&0b1110111 == 0b1100001:
		inst.Op = OpNOP
		return nil
	case op2&1 == 0 && op1&0b1110111 == 0b1100101:
		return d.decodePreload(word, inst, OpPLI, true)
	case op2&1 == 0 && op1&0b1110111 == 0b1110001:
		return d.decodePreload(word, inst, OpPLDW, true)
	case op2&1 == 0 && op1&0b1110111 == 0b1110101:
		return d.decodePreload(word, inst, OpPLD, true)
	case op2&1 == 0 && op1&0b1100011 == 0b1100011:
		return unpredictable("unconditional miscellaneous")
	}

	return undefined("unconditional miscellaneous")
}

// decodeCPS decodes change processor state.
// Format: 1111 | 00010000 | imod | M | 0 | 0000000 | A | I | F | 0 | mode
func (d *Decoder) decodeCPS(word uint32, inst *Instruction) error {
	inst.Op = OpCPS
	inst.IMod = uint8(bits(word, 19, 18))
	inst.ModeChange = bit(word, 17) == 1
	inst.Mask = uint8(bits(word, 8, 6))
	inst.Imm = bits(word, 4, 0)

	if inst.IMod == 0b01 {
		return unpredictable("CPS imod 01")
	}
	if inst.IMod == 0 && !inst.ModeChange {
		return unpredictable("CPS without effect")
	}
	if inst.Imm != 0 && !inst.ModeChange {
		return unpredictable("CPS mode without M")
	}
	if inst.IMod&0b10 != 0 && inst.Mask == 0 {
		return unpredictable("CPS without A/I/F")
	}
	if inst.IMod&0b10 == 0 && inst.Mask != 0 {
		return unpredictable("CPS A/I/F without imod")
	}
	return nil
}

// decodePreload decodes PLD, PLDW and PLI.
// Format: 1111 | 01 | R | 1 U | R 01 | Rn | 1111 | imm12 or (imm5 type 0 Rm)
func (d *Decoder) decodePreload(word uint32, inst *Instruction, op Op, regForm bool) error {
	inst.Op = op
	inst.Add = bit(word, 23) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Index = true

	if regForm {
		inst.Rm = uint8(bits(word, 3, 0))
		inst.RegOffset = true
		inst.ShiftType, inst.ShiftAmount = DecodeImmShift(bits(word, 6, 5), bits(word, 11, 7))
		if inst.Rm == 15 || (op == OpPLDW && inst.Rn == 15) {
			return unpredictable("preload with PC")
		}
		return nil
	}

	inst.Imm = bits(word, 11, 0)
	return nil
}

// decodeBarrier decodes CLREX, DSB, DMB and ISB.
// Format: 1111 | 01010111 | 1111 | 1111 | 0000 | op2 | option
func (d *Decoder) decodeBarrier(word uint32, inst *Instruction) error {
	inst.Imm = bits(word, 3, 0)
	switch bits(word, 7, 4) {
	case 0b0001:
		inst.Op = OpCLREX
	case 0b0100:
		inst.Op = OpDSB
	case 0b0101:
		inst.Op = OpDMB
	case 0b0110:
		inst.Op = OpISB
	default:
		return unpredictable("barrier")
	}
	return nil
}

// decodeSRS decodes store return state.
// Format: 1111 | 100 | P | U | 1 | W | 0 | 1101 | 0000 | 0101 | 000 | mode
func (d *Decoder) decodeSRS(word uint32, inst *Instruction) error {
	inst.Op = OpSRS
	inst.Index = bit(word, 24) == 1
	inst.Add = bit(word, 23) == 1
	inst.WriteBack = bit(word, 21) == 1
	inst.Imm = bits(word, 4, 0)
	return nil
}

// decodeRFE decodes return from exception.
// Format: 1111 | 100 | P | U | 0 | W | 1 | Rn | 0000 | 1010 | 00000000
func (d *Decoder) decodeRFE(word uint32, inst *Instruction) error {
	inst.Op = OpRFE
	inst.Index = bit(word, 24) == 1
	inst.Add = bit(word, 23) == 1
	inst.WriteBack = bit(word, 21) == 1
	inst.Rn = uint8(bits(word, 19, 16))

	if inst.Rn == 15 {
		return unpredictable("RFE from PC")
	}
	return nil
}
