package insts

// decodeLoadStoreWordByte decodes load/store word and unsigned byte.
// Format: cond | 01 | A | P | U | B | W | L | Rn | Rt | imm12 or (imm5 type 0 Rm)
func (d *Decoder) decodeLoadStoreWordByte(word uint32, inst *Instruction) error {
	regForm := bit(word, 25) == 1
	inst.Index = bit(word, 24) == 1
	inst.Add = bit(word, 23) == 1
	byteAccess := bit(word, 22) == 1
	inst.WriteBack = bit(word, 21) == 1
	load := bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))

	if regForm {
		inst.Rm = uint8(bits(word, 3, 0))
		inst.ShiftType, inst.ShiftAmount = DecodeImmShift(bits(word, 6, 5), bits(word, 11, 7))
		inst.RegOffset = true
	} else {
		inst.Imm = bits(word, 11, 0)
	}

	unpriv := !inst.Index && inst.WriteBack

	switch {
	case unpriv:
		inst.Op = [2][2]Op{{OpSTRT, OpLDRT}, {OpSTRBT, OpLDRBT}}[b2i(byteAccess)][b2i(load)]
	case regForm:
		inst.Op = [2][2]Op{{OpSTRReg, OpLDRReg}, {OpSTRBReg, OpLDRBReg}}[b2i(byteAccess)][b2i(load)]
	default:
		inst.Op = [2][2]Op{{OpSTRImm, OpLDRImm}, {OpSTRBImm, OpLDRBImm}}[b2i(byteAccess)][b2i(load)]
	}

	if regForm && inst.Rm == 15 {
		return unpredictable("load/store register offset is PC")
	}
	if byteAccess && inst.Rd == 15 {
		return unpredictable("byte load/store with PC")
	}
	if unpriv {
		if inst.Rn == 15 || inst.Rn == inst.Rd {
			return unpredictable("unprivileged load/store base")
		}
		return nil
	}
	wback := !inst.Index || inst.WriteBack
	if wback && (inst.Rn == 15 || inst.Rn == inst.Rd) {
		return unpredictable("load/store write-back base")
	}

	return nil
}

// decodeExtraLoadStore decodes halfword, signed byte and doubleword
// transfers.
// Format: cond | 000 | P | U | I | W | L | Rn | Rt | imm4H/0000 | 1 op2 1 | imm4L/Rm
func (d *Decoder) decodeExtraLoadStore(word uint32, inst *Instruction) error {
	op2 := bits(word, 6, 5)
	inst.Index = bit(word, 24) == 1
	inst.Add = bit(word, 23) == 1
	immForm := bit(word, 22) == 1
	inst.WriteBack = bit(word, 21) == 1
	load := bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))

	if immForm {
		inst.Imm = bits(word, 11, 8)<<4 | bits(word, 3, 0)
	} else {
		inst.Rm = uint8(bits(word, 3, 0))
		inst.RegOffset = true
	}

	pick := func(imm, reg Op) Op {
		if immForm {
			return imm
		}
		return reg
	}

	dual := false
	switch op2 {
	case 0b01:
		if load {
			inst.Op = pick(OpLDRHImm, OpLDRHReg)
		} else {
			inst.Op = pick(OpSTRHImm, OpSTRHReg)
		}
	case 0b10:
		if load {
			inst.Op = pick(OpLDRSBImm, OpLDRSBReg)
		} else {
			inst.Op = pick(OpLDRDImm, OpLDRDReg)
			dual = true
		}
	default:
		if load {
			inst.Op = pick(OpLDRSHImm, OpLDRSHReg)
		} else {
			inst.Op = pick(OpSTRDImm, OpSTRDReg)
			dual = true
		}
	}

	wback := !inst.Index || inst.WriteBack
	if !immForm && inst.Rm == 15 {
		return unpredictable("load/store register offset is PC")
	}

	if dual {
		t2 := inst.Rd + 1
		if inst.Rd&1 == 1 || t2 == 15 {
			return unpredictable("doubleword transfer register pair")
		}
		if wback && (inst.Rn == 15 || inst.Rn == inst.Rd || inst.Rn == t2) {
			return unpredictable("doubleword transfer write-back base")
		}
		if inst.Op == OpLDRDReg && (inst.Rm == inst.Rd || inst.Rm == t2) {
			return unpredictable("LDRD offset overlaps destination")
		}
		return nil
	}

	if inst.Rd == 15 {
		return unpredictable("halfword/signed load/store with PC")
	}
	if wback && (inst.Rn == 15 || inst.Rn == inst.Rd) {
		return unpredictable("load/store write-back base")
	}

	return nil
}

// decodeExtraLoadStoreUnpriv decodes STRHT, LDRHT, LDRSBT and LDRSHT.
// Format: cond | 0000 | U | I | 1 | L | Rn | Rt | imm4H/0000 | 1 op2 1 | imm4L/Rm
func (d *Decoder) decodeExtraLoadStoreUnpriv(word uint32, inst *Instruction) error {
	op2 := bits(word, 6, 5)
	load := bit(word, 20) == 1
	immForm := bit(word, 22) == 1

	inst.Add = bit(word, 23) == 1
	inst.WriteBack = true
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	if immForm {
		inst.Imm = bits(word, 11, 8)<<4 | bits(word, 3, 0)
	} else {
		inst.Rm = uint8(bits(word, 3, 0))
		inst.RegOffset = true
	}

	switch {
	case op2 == 0b01 && load:
		inst.Op = OpLDRHT
	case op2 == 0b01:
		inst.Op = OpSTRHT
	case op2 == 0b10 && load:
		inst.Op = OpLDRSBT
	case op2 == 0b11 && load:
		inst.Op = OpLDRSHT
	default:
		return unpredictable("doubleword transfer with post-index write-back")
	}

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rn == inst.Rd {
		return unpredictable("unprivileged load/store registers")
	}
	if inst.RegOffset && inst.Rm == 15 {
		return unpredictable("load/store register offset is PC")
	}

	return nil
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
