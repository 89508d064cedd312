package insts

// dpForms maps the 4-bit data-processing opcode to its three encodings.
var dpForms = [16]struct{ imm, reg, rsr Op }{
	0b0000: {OpANDImm, OpANDReg, OpANDRsr},
	0b0001: {OpEORImm, OpEORReg, OpEORRsr},
	0b0010: {OpSUBImm, OpSUBReg, OpSUBRsr},
	0b0011: {OpRSBImm, OpRSBReg, OpRSBRsr},
	0b0100: {OpADDImm, OpADDReg, OpADDRsr},
	0b0101: {OpADCImm, OpADCReg, OpADCRsr},
	0b0110: {OpSBCImm, OpSBCReg, OpSBCRsr},
	0b0111: {OpRSCImm, OpRSCReg, OpRSCRsr},
	0b1000: {OpTSTImm, OpTSTReg, OpTSTRsr},
	0b1001: {OpTEQImm, OpTEQReg, OpTEQRsr},
	0b1010: {OpCMPImm, OpCMPReg, OpCMPRsr},
	0b1011: {OpCMNImm, OpCMNReg, OpCMNRsr},
	0b1100: {OpORRImm, OpORRReg, OpORRRsr},
	0b1101: {OpMOVImm, OpMOVReg, OpUnknown}, // shifts handled separately
	0b1110: {OpBICImm, OpBICReg, OpBICRsr},
	0b1111: {OpMVNImm, OpMVNReg, OpMVNRsr},
}

// decodeDataProcessingMisc decodes the data-processing and miscellaneous
// instruction space.
// Format: cond | 00 | op | op1(5) | ... | op2(4) | ...
func (d *Decoder) decodeDataProcessingMisc(word uint32, inst *Instruction) error {
	op := bit(word, 25)
	op1 := bits(word, 24, 20)
	op2 := bits(word, 7, 4)

	if op == 1 {
		switch {
		case op1 == 0b10000:
			return d.decodeMoveWide(word, inst, OpMOVW)
		case op1 == 0b10100:
			return d.decodeMoveWide(word, inst, OpMOVT)
		case op1&0b11011 == 0b10010:
			return d.decodeMSRImmAndHints(word, inst)
		default:
			return d.decodeDPImm(word, inst)
		}
	}

	switch {
	case op2 == 0b1001 && op1&0b10000 == 0:
		return d.decodeMultiply(word, inst)
	case op2 == 0b1001:
		return d.decodeSync(word, inst)
	case op2&0b1001 == 0b1001:
		// 1011, 1101, 1111
		if op1&0b10010 == 0b00010 {
			return d.decodeExtraLoadStoreUnpriv(word, inst)
		}
		return d.decodeExtraLoadStore(word, inst)
	case op1&0b11001 == 0b10000:
		if op2&0b1000 == 0 {
			return d.decodeMisc(word, inst)
		}
		return d.decodeHalfwordMultiply(word, inst)
	case op2&0b0001 == 0:
		return d.decodeDPReg(word, inst)
	default:
		return d.decodeDPRegShiftedReg(word, inst)
	}
}

// decodeDPImm decodes data-processing (immediate).
// Format: cond | 001 | opcode(4) | S | Rn | Rd | imm12
func (d *Decoder) decodeDPImm(word uint32, inst *Instruction) error {
	opcode := bits(word, 24, 21)
	inst.SetFlags = bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Imm = bits(word, 11, 0)
	inst.Op = dpForms[opcode].imm

	if inst.Rn == 15 && !inst.SetFlags && (opcode == 0b0100 || opcode == 0b0010) {
		inst.Op = OpADR
		inst.Add = opcode == 0b0100
	}

	return nil
}

// decodeDPReg decodes data-processing (register).
// Format: cond | 000 | opcode(4) | S | Rn | Rd | imm5 | type | 0 | Rm
func (d *Decoder) decodeDPReg(word uint32, inst *Instruction) error {
	opcode := bits(word, 24, 21)
	inst.SetFlags = bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 3, 0))

	typ := bits(word, 6, 5)
	imm5 := bits(word, 11, 7)
	inst.ShiftType, inst.ShiftAmount = DecodeImmShift(typ, imm5)

	if opcode != 0b1101 {
		inst.Op = dpForms[opcode].reg
		return nil
	}

	switch {
	case typ == 0b00 && imm5 == 0:
		inst.Op = OpMOVReg
	case typ == 0b00:
		inst.Op = OpLSLImm
	case typ == 0b01:
		inst.Op = OpLSRImm
	case typ == 0b10:
		inst.Op = OpASRImm
	case imm5 == 0:
		inst.Op = OpRRX
	default:
		inst.Op = OpRORImm
	}

	return nil
}

// decodeDPRegShiftedReg decodes data-processing (register-shifted register).
// Format: cond | 000 | opcode(4) | S | Rn | Rd | Rs | 0 | type | 1 | Rm
func (d *Decoder) decodeDPRegShiftedReg(word uint32, inst *Instruction) error {
	opcode := bits(word, 24, 21)
	inst.SetFlags = bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Rs = uint8(bits(word, 11, 8))
	inst.Rm = uint8(bits(word, 3, 0))
	inst.ShiftType = ShiftType(bits(word, 6, 5))

	if opcode == 0b1101 {
		// The shifted value sits in [3:0] and the amount register in [11:8].
		inst.Op = [4]Op{OpLSLReg, OpLSRReg, OpASRReg, OpRORReg}[inst.ShiftType]
		if inst.Rd == 15 || inst.Rm == 15 || inst.Rs == 15 {
			return unpredictable("register-shifted register with PC")
		}
		return nil
	}

	inst.Op = dpForms[opcode].rsr
	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 || inst.Rs == 15 {
		return unpredictable("register-shifted register with PC")
	}

	return nil
}

// decodeMoveWide decodes MOVW and MOVT.
// Format: cond | 0011 0 op 00 | imm4 | Rd | imm12
func (d *Decoder) decodeMoveWide(word uint32, inst *Instruction, op Op) error {
	inst.Op = op
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Imm = bits(word, 19, 16)<<12 | bits(word, 11, 0)

	if inst.Rd == 15 {
		return unpredictable("MOVW/MOVT to PC")
	}
	return nil
}

// decodeMSRImmAndHints decodes MSR (immediate) and the hint space.
// Format: cond | 00110 | R | 10 | mask(4) | 1111 | imm12
func (d *Decoder) decodeMSRImmAndHints(word uint32, inst *Instruction) error {
	r := bit(word, 22)
	mask := bits(word, 19, 16)
	op2 := bits(word, 7, 0)

	if r == 0 && mask == 0 {
		switch {
		case op2 == 0b00000000:
			inst.Op = OpNOP
		case op2 == 0b00000001:
			inst.Op = OpYIELD
		case op2 == 0b00000010:
			inst.Op = OpWFE
		case op2 == 0b00000011:
			inst.Op = OpWFI
		case op2 == 0b00000100:
			inst.Op = OpSEV
		case op2&0xF0 == 0xF0:
			inst.Op = OpDBG
			inst.Imm = op2 & 0xF
		default:
			// Unallocated hints execute as NOP.
			inst.Op = OpNOP
		}
		return nil
	}

	inst.Op = OpMSRImm
	inst.UseSPSR = r == 1
	inst.Mask = uint8(mask)
	inst.Imm = bits(word, 11, 0)

	if mask == 0 {
		return unpredictable("MSR with empty mask")
	}
	return nil
}

// decodeMisc decodes the miscellaneous instructions.
// Format: cond | 00010 | op(2) | 0 | op1(4) | ... | B | .. | 0 | op2(3) | ...
func (d *Decoder) decodeMisc(word uint32, inst *Instruction) error {
	op := bits(word, 22, 21)
	op2 := bits(word, 6, 4)
	b := bit(word, 9)

	switch op2 {
	case 0b000:
		if b == 1 {
			return notImplemented("banked register MRS/MSR")
		}
		if op&1 == 0 {
			inst.Op = OpMRS
			inst.UseSPSR = bit(word, 22) == 1
			inst.Rd = uint8(bits(word, 15, 12))
			if inst.Rd == 15 {
				return unpredictable("MRS to PC")
			}
			return nil
		}
		inst.Op = OpMSRReg
		inst.UseSPSR = bit(word, 22) == 1
		inst.Mask = uint8(bits(word, 19, 16))
		inst.Rm = uint8(bits(word, 3, 0))
		if inst.Mask == 0 || inst.Rm == 15 {
			return unpredictable("MSR register form")
		}
		return nil
	case 0b001:
		switch op {
		case 0b01:
			inst.Op = OpBX
			inst.Rm = uint8(bits(word, 3, 0))
			return nil
		case 0b11:
			inst.Op = OpCLZ
			inst.Rd = uint8(bits(word, 15, 12))
			inst.Rm = uint8(bits(word, 3, 0))
			if inst.Rd == 15 || inst.Rm == 15 {
				return unpredictable("CLZ with PC")
			}
			return nil
		}
	case 0b010:
		if op == 0b01 {
			return notImplemented("BXJ (Jazelle)")
		}
	case 0b011:
		if op == 0b01 {
			inst.Op = OpBLXReg
			inst.Rm = uint8(bits(word, 3, 0))
			if inst.Rm == 15 {
				return unpredictable("BLX to PC")
			}
			return nil
		}
	case 0b101:
		return d.decodeSaturatingAddSub(word, inst)
	case 0b110:
		if op == 0b11 {
			return notImplemented("ERET (virtualization)")
		}
	case 0b111:
		switch op {
		case 0b01:
			inst.Op = OpBKPT
			inst.Imm = bits(word, 19, 8)<<4 | bits(word, 3, 0)
			if inst.Cond != CondAL {
				return unpredictable("conditional BKPT")
			}
			return nil
		case 0b10:
			return notImplemented("HVC (virtualization)")
		case 0b11:
			return notImplemented("SMC (security extensions)")
		}
	}

	return undefined("miscellaneous")
}

// decodeSaturatingAddSub decodes QADD, QSUB, QDADD and QDSUB.
// Format: cond | 00010 | op(2) | 0 | Rn | Rd | 0000 | 0101 | Rm
func (d *Decoder) decodeSaturatingAddSub(word uint32, inst *Instruction) error {
	inst.Op = [4]Op{OpQADD, OpQSUB, OpQDADD, OpQDSUB}[bits(word, 22, 21)]
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 3, 0))

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 {
		return unpredictable("saturating arithmetic with PC")
	}
	return nil
}

// decodeMultiply decodes multiply and multiply-accumulate.
// Format: cond | 0000 | op(4) | Rd/RdHi | Ra/RdLo | Rm | 1001 | Rn
func (d *Decoder) decodeMultiply(word uint32, inst *Instruction) error {
	op := bits(word, 23, 20)
	inst.SetFlags = bit(word, 20) == 1
	inst.Rd = uint8(bits(word, 19, 16))
	inst.Ra = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 11, 8))
	inst.Rn = uint8(bits(word, 3, 0))

	long := false
	switch op >> 1 {
	case 0b000:
		inst.Op = OpMUL
	case 0b001:
		inst.Op = OpMLA
	case 0b010:
		if op&1 == 1 {
			return undefined("multiply")
		}
		inst.Op = OpUMAAL
		long = true
	case 0b011:
		if op&1 == 1 {
			return undefined("multiply")
		}
		inst.Op = OpMLS
	case 0b100:
		inst.Op = OpUMULL
		long = true
	case 0b101:
		inst.Op = OpUMLAL
		long = true
	case 0b110:
		inst.Op = OpSMULL
		long = true
	default:
		inst.Op = OpSMLAL
		long = true
	}

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 {
		return unpredictable("multiply with PC")
	}
	if inst.Op != OpMUL && inst.Ra == 15 {
		return unpredictable("multiply with PC")
	}
	if long && inst.Rd == inst.Ra {
		return unpredictable("long multiply with RdHi == RdLo")
	}
	return nil
}

// decodeHalfwordMultiply decodes the signed halfword multiplies.
// Format: cond | 00010 | op1(2) | 0 | Rd | Ra | Rm | 1 M N 0 | Rn
func (d *Decoder) decodeHalfwordMultiply(word uint32, inst *Instruction) error {
	op1 := bits(word, 22, 21)
	inst.Rd = uint8(bits(word, 19, 16))
	inst.Ra = uint8(bits(word, 15, 12))
	inst.Rm = uint8(bits(word, 11, 8))
	inst.Rn = uint8(bits(word, 3, 0))
	inst.NHigh = bit(word, 5) == 1
	inst.MHigh = bit(word, 6) == 1

	switch op1 {
	case 0b00:
		inst.Op = OpSMLAxy
	case 0b01:
		if bit(word, 5) == 0 {
			inst.Op = OpSMLAWy
		} else {
			inst.Op = OpSMULWy
		}
	case 0b10:
		inst.Op = OpSMLALxy
	default:
		inst.Op = OpSMULxy
	}

	if inst.Rd == 15 || inst.Rn == 15 || inst.Rm == 15 {
		return unpredictable("halfword multiply with PC")
	}
	accumulates := inst.Op == OpSMLAxy || inst.Op == OpSMLAWy || inst.Op == OpSMLALxy
	if accumulates && inst.Ra == 15 {
		return unpredictable("halfword multiply with PC")
	}
	if inst.Op == OpSMLALxy && inst.Rd == inst.Ra {
		return unpredictable("long multiply with RdHi == RdLo")
	}
	return nil
}

// decodeSync decodes the synchronization primitives.
// Format: cond | 0001 | op(4) | Rn | Rt/Rd | 1111 | 1001 | Rt
func (d *Decoder) decodeSync(word uint32, inst *Instruction) error {
	op := bits(word, 23, 20)
	inst.Rn = uint8(bits(word, 19, 16))

	switch op {
	case 0b0000, 0b0100:
		return notImplemented("SWP/SWPB")
	case 0b1000:
		inst.Op = OpSTREX
		inst.Rd = uint8(bits(word, 15, 12))
		inst.Rm = uint8(bits(word, 3, 0))
		if inst.Rd == 15 || inst.Rm == 15 || inst.Rn == 15 {
			return unpredictable("STREX with PC")
		}
		if inst.Rd == inst.Rn || inst.Rd == inst.Rm {
			return unpredictable("STREX status register overlaps")
		}
		return nil
	case 0b1001:
		inst.Op = OpLDREX
		inst.Rd = uint8(bits(word, 15, 12))
		if inst.Rd == 15 || inst.Rn == 15 {
			return unpredictable("LDREX with PC")
		}
		return nil
	case 0b1010:
		return notImplemented("STREXD")
	case 0b1011:
		return notImplemented("LDREXD")
	case 0b1100:
		return notImplemented("STREXB")
	case 0b1101:
		return notImplemented("LDREXB")
	case 0b1110:
		return notImplemented("STREXH")
	case 0b1111:
		return notImplemented("LDREXH")
	}

	return undefined("synchronization primitive")
}
