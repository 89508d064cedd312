package insts

// decodeMedia decodes the media instruction space.
// Format: cond | 011 | op1(5) | ... | op2(3) | 1 | Rn
func (d *Decoder) decodeMedia(word uint32, inst *Instruction) error {
	op1 := bits(word, 24, 20)
	op2 := bits(word, 7, 5)

	switch {
	case op1&0b11100 == 0b00000:
		return notImplemented("signed parallel add/subtract")
	case op1&0b11100 == 0b00100:
		return notImplemented("unsigned parallel add/subtract")
	case op1&0b11000 == 0b01000:
		return d.decodePackUnpack(word, inst)
	case op1&0b11000 == 0b10000:
		return d.decodeSignedMultiply(word, inst)
	case op1 == 0b11000 && op2 == 0b000:
		return d.decodeUSAD8(word, inst)
	case op1&0b11110 == 0b11010 && op2&0b011 == 0b010:
		return d.decodeBitfieldExtract(word, inst, OpSBFX)
	case op1&0b11110 == 0b11100 && op2&0b011 == 0b000:
		return d.decodeBitfieldInsert(word, inst)
	case op1&0b11110 == 0b11110 && op2&0b011 == 0b010:
		return d.decodeBitfieldExtract(word, inst, OpUBFX)
	case op1 == 0b11111 && op2 == 0b111:
		return undefined("UDF")
	}

	return undefined("media")
}

// decodePackUnpack decodes packing, unpacking, saturation and reversal.
// Format: cond | 01101 | op1(3) | Rn | Rd | ... | op2(3) | 1 | Rm
func (d *Decoder) decodePackUnpack(word uint32, inst *Instruction) error {
	op1 := bits(word, 22, 20)
	op2 := bits(word, 7, 5)
	rn := uint8(bits(word, 19, 16))

	inst.Rd = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 3, 0))

	extend := func(accumulate, plain Op) error {
		// Rotation is bits [11:10] in units of 8.
		inst.ShiftType = ShiftROR
		inst.ShiftAmount = uint8(bits(word, 11, 10) * 8)
		if rn == 15 {
			inst.Op = plain
		} else {
			inst.Op = accumulate
			inst.Rn = rn
		}
		return d.checkNoPC(inst, "extend with PC")
	}

	switch {
	case op1 == 0b000 && op2&1 == 0:
		inst.Op = OpPKH
		inst.Rn = rn
		tb := bit(word, 6)
		inst.ShiftType, inst.ShiftAmount = DecodeImmShift(tb<<1, bits(word, 11, 7))
		if inst.Rn == 15 {
			return unpredictable("PKH with PC")
		}
		return d.checkNoPC(inst, "PKH with PC")
	case op1 == 0b000 && op2 == 0b011:
		return extend(OpSXTAB16, OpSXTB16)
	case op1 == 0b000 && op2 == 0b101:
		return notImplemented("SEL")
	case op1&0b110 == 0b010 && op2&1 == 0:
		return d.decodeSaturate(word, inst, OpSSAT)
	case op1 == 0b010 && op2 == 0b001:
		return notImplemented("SSAT16")
	case op1 == 0b010 && op2 == 0b011:
		return extend(OpSXTAB, OpSXTB)
	case op1 == 0b011 && op2 == 0b001:
		inst.Op = OpREV
		return d.checkNoPC(inst, "REV with PC")
	case op1 == 0b011 && op2 == 0b011:
		return extend(OpSXTAH, OpSXTH)
	case op1 == 0b011 && op2 == 0b101:
		inst.Op = OpREV16
		return d.checkNoPC(inst, "REV16 with PC")
	case op1 == 0b100 && op2 == 0b011:
		return extend(OpUXTAB16, OpUXTB16)
	case op1&0b110 == 0b110 && op2&1 == 0:
		return d.decodeSaturate(word, inst, OpUSAT)
	case op1 == 0b110 && op2 == 0b001:
		return notImplemented("USAT16")
	case op1 == 0b110 && op2 == 0b011:
		return extend(OpUXTAB, OpUXTB)
	case op1 == 0b111 && op2 == 0b001:
		inst.Op = OpRBIT
		return d.checkNoPC(inst, "RBIT with PC")
	case op1 == 0b111 && op2 == 0b011:
		return extend(OpUXTAH, OpUXTH)
	case op1 == 0b111 && op2 == 0b101:
		inst.Op = OpREVSH
		return d.checkNoPC(inst, "REVSH with PC")
	}

	return undefined("packing/unpacking")
}

// decodeSaturate decodes SSAT and USAT.
// Format: cond | 0110 1 U 1 | sat_imm(5) | Rd | imm5 | sh | 01 | Rn
func (d *Decoder) decodeSaturate(word uint32, inst *Instruction, op Op) error {
	inst.Op = op
	inst.Imm = bits(word, 20, 16)
	if op == OpSSAT {
		inst.Imm++
	}
	// The source register sits in [3:0].
	inst.ShiftType, inst.ShiftAmount = DecodeImmShift(bit(word, 6)<<1, bits(word, 11, 7))
	return d.checkNoPC(inst, "saturate with PC")
}

// decodeSignedMultiply decodes the media signed multiplies and divides.
// Format: cond | 01110 | op1(3) | Rd | Ra | Rm | op2(3) | 1 | Rn
func (d *Decoder) decodeSignedMultiply(word uint32, inst *Instruction) error {
	op1 := bits(word, 22, 20)
	op2 := bits(word, 7, 5)

	inst.Rd = uint8(bits(word, 19, 16))
	inst.Ra = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 11, 8))
	inst.Rn = uint8(bits(word, 3, 0))
	inst.Modifier = bit(word, 5) == 1

	pickAcc := func(acc, plain Op) {
		if inst.Ra == 15 {
			inst.Op = plain
		} else {
			inst.Op = acc
		}
	}

	switch {
	case op1 == 0b000 && op2&0b110 == 0b000:
		pickAcc(OpSMLAD, OpSMUAD)
	case op1 == 0b000 && op2&0b110 == 0b010:
		pickAcc(OpSMLSD, OpSMUSD)
	case op1 == 0b001 && op2 == 0b000:
		inst.Op = OpSDIV
	case op1 == 0b011 && op2 == 0b000:
		inst.Op = OpUDIV
	case op1 == 0b100 && op2&0b110 == 0b000:
		inst.Op = OpSMLALD
	case op1 == 0b100 && op2&0b110 == 0b010:
		inst.Op = OpSMLSLD
	case op1 == 0b101 && op2&0b110 == 0b000:
		pickAcc(OpSMMLA, OpSMMUL)
	case op1 == 0b101 && op2&0b110 == 0b110:
		inst.Op = OpSMMLS
	default:
		return undefined("signed multiply")
	}

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 {
		return unpredictable("signed multiply with PC")
	}
	switch inst.Op {
	case OpSMLALD, OpSMLSLD:
		if inst.Ra == 15 || inst.Ra == inst.Rd {
			return unpredictable("long multiply registers")
		}
	case OpSMMLS:
		if inst.Ra == 15 {
			return unpredictable("SMMLS with PC")
		}
	}
	return nil
}

// decodeUSAD8 decodes USAD8 and USADA8.
// Format: cond | 01111000 | Rd | Ra | Rm | 0001 | Rn
func (d *Decoder) decodeUSAD8(word uint32, inst *Instruction) error {
	inst.Rd = uint8(bits(word, 19, 16))
	inst.Ra = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 11, 8))
	inst.Rn = uint8(bits(word, 3, 0))

	if inst.Ra == 15 {
		inst.Op = OpUSAD8
	} else {
		inst.Op = OpUSADA8
	}

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 {
		return unpredictable("USAD8 with PC")
	}
	return nil
}

// decodeBitfieldExtract decodes SBFX and UBFX.
// Format: cond | 0111 1 U 1 | widthm1 | Rd | lsb | 101 | Rn
func (d *Decoder) decodeBitfieldExtract(word uint32, inst *Instruction, op Op) error {
	inst.Op = op
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Rn = uint8(bits(word, 3, 0))
	inst.Lsb = uint8(bits(word, 11, 7))
	inst.Width = uint8(bits(word, 20, 16) + 1)

	if inst.Rd == 15 || inst.Rn == 15 {
		return unpredictable("bitfield extract with PC")
	}
	if uint32(inst.Lsb)+uint32(inst.Width) > 32 {
		return unpredictable("bitfield extract out of range")
	}
	return nil
}

// decodeBitfieldInsert decodes BFI and BFC.
// Format: cond | 0111110 | msb | Rd | lsb | 001 | Rn
func (d *Decoder) decodeBitfieldInsert(word uint32, inst *Instruction) error {
	inst.Rd = uint8(bits(word, 15, 12))
	rn := uint8(bits(word, 3, 0))
	msb := bits(word, 20, 16)
	lsb := bits(word, 11, 7)

	if rn == 15 {
		inst.Op = OpBFC
	} else {
		inst.Op = OpBFI
		inst.Rn = rn
	}

	if inst.Rd == 15 {
		return unpredictable("bitfield insert with PC")
	}
	if msb < lsb {
		return unpredictable("bitfield insert msb < lsb")
	}
	inst.Lsb = uint8(lsb)
	inst.Width = uint8(msb - lsb + 1)
	return nil
}

func (d *Decoder) checkNoPC(inst *Instruction, what string) error {
	if inst.Rd == 15 || inst.Rm == 15 {
		return unpredictable(what)
	}
	return nil
}
