package insts

var blockOps = [2][2][2]Op{
	// [P][U][L]
	{{OpSTMDA, OpLDMDA}, {OpSTM, OpLDM}},
	{{OpSTMDB, OpLDMDB}, {OpSTMIB, OpLDMIB}},
}

// decodeBranchBlock decodes branch, branch with link and block data
// transfer.
// Branch format: cond | 101 | L | imm24
// Block format:  cond | 100 | P | U | S | W | L | Rn | register_list
func (d *Decoder) decodeBranchBlock(word uint32, inst *Instruction) error {
	if bit(word, 25) == 1 {
		// Sign-extend imm24:'00' to 32 bits
		inst.Imm = signExtend(bits(word, 23, 0)<<2, 26)
		if bit(word, 24) == 1 {
			inst.Op = OpBL
		} else {
			inst.Op = OpB
		}
		return nil
	}

	inst.Index = bit(word, 24) == 1
	inst.Add = bit(word, 23) == 1
	userBank := bit(word, 22) == 1
	inst.WriteBack = bit(word, 21) == 1
	load := bit(word, 20) == 1
	inst.Rn = uint8(bits(word, 19, 16))
	inst.RegList = uint16(bits(word, 15, 0))

	if inst.Rn == 15 || inst.RegList == 0 {
		return unpredictable("block transfer base/list")
	}

	if !userBank {
		inst.Op = blockOps[b2i(inst.Index)][b2i(inst.Add)][b2i(load)]
		if load && inst.WriteBack && inst.RegList&(1<<inst.Rn) != 0 {
			return unpredictable("LDM write-back with base in list")
		}
		return nil
	}

	switch {
	case !load:
		inst.Op = OpSTMUser
	case inst.RegList&(1<<15) == 0:
		inst.Op = OpLDMUser
	default:
		inst.Op = OpLDMExcReturn
		if inst.WriteBack && inst.RegList&(1<<inst.Rn) != 0 {
			return unpredictable("LDM write-back with base in list")
		}
		return nil
	}

	if inst.WriteBack {
		return unpredictable("user-register block transfer with write-back")
	}
	return nil
}

// decodeCoprocessor decodes coprocessor instructions and SVC.
// Format: cond | 11 | op1(6) | Rn/CRn | Rt/CRd | coproc | opc2 | op | CRm
func (d *Decoder) decodeCoprocessor(word uint32, inst *Instruction) error {
	op1 := bits(word, 25, 20)
	op := bit(word, 4)
	coproc := bits(word, 11, 8)

	switch {
	case op1&0b111110 == 0b000000:
		return undefined("coprocessor")
	case op1&0b110000 == 0b110000:
		inst.Op = OpSVC
		inst.Imm = bits(word, 23, 0)
		return nil
	case coproc&0b1110 == 0b1010:
		return simdOrVFP("VFP/Advanced SIMD coprocessor access")
	case op1&0b100000 == 0:
		if coproc == 15 && (op1 == 0b000100 || op1 == 0b000101) {
			return notImplemented("MCRR/MRRC on CP15")
		}
		return undefined("coprocessor load/store or 64-bit transfer")
	case op == 0:
		return undefined("CDP")
	}

	if coproc != 15 {
		return undefined("coprocessor register transfer")
	}

	inst.Opc1 = uint8(bits(word, 23, 21))
	inst.Rn = uint8(bits(word, 19, 16))
	inst.Rd = uint8(bits(word, 15, 12))
	inst.Opc2 = uint8(bits(word, 7, 5))
	inst.Rm = uint8(bits(word, 3, 0))

	if bit(word, 20) == 1 {
		inst.Op = OpMRC
		return nil
	}

	inst.Op = OpMCR
	if inst.Rd == 15 {
		return unpredictable("MCR from PC")
	}
	return nil
}
