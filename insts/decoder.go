package insts

import (
	"fmt"

	"github.com/sarchlab/v7sim/faults"
)

// Decoder decodes ARM machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new ARM instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit ARM instruction word fetched from addr.
//
// The returned error, when not nil, is a *faults.Fault. Its category is
// UndefinedInstruction for architecturally undefined encodings and one of
// NotImplemented, SIMDorVFPInstruction, UnpredictableOperation or
// UnknownInstruction otherwise.
func (d *Decoder) Decode(word, addr uint32) (Instruction, error) {
	inst := Instruction{Op: OpUnknown, Raw: word, Cond: Cond(word >> 28)}

	var err error

	// Top level: cond, op1 = bits [27:25], op = bit 4
	op1 := bits(word, 27, 25)
	switch {
	case inst.Cond == CondNV:
		err = d.decodeUnconditional(word, &inst)
	case op1 <= 0b001:
		err = d.decodeDataProcessingMisc(word, &inst)
	case op1 == 0b010:
		err = d.decodeLoadStoreWordByte(word, &inst)
	case op1 == 0b011 && bit(word, 4) == 0:
		err = d.decodeLoadStoreWordByte(word, &inst)
	case op1 == 0b011:
		err = d.decodeMedia(word, &inst)
	case op1 <= 0b101:
		err = d.decodeBranchBlock(word, &inst)
	default:
		err = d.decodeCoprocessor(word, &inst)
	}

	if err != nil {
		return Instruction{Op: OpUnknown, Raw: word, Cond: inst.Cond}, annotate(err, word, addr)
	}
	if inst.Op == OpUnknown {
		return inst, faults.WithValue(faults.UnknownInstruction,
			fmt.Sprintf("at 0x%08X", addr), word)
	}

	return inst, nil
}

func annotate(err error, word, addr uint32) error {
	f, ok := faults.As(err)
	if !ok {
		return err
	}
	out := *f
	out.Detail = fmt.Sprintf("%s at 0x%08X", f.Detail, addr)
	out.Value = word
	out.HasValue = true
	return &out
}

func undefined(what string) error {
	return faults.New(faults.UndefinedInstruction, what)
}

func unpredictable(what string) error {
	return faults.New(faults.UnpredictableOperation, what)
}

func notImplemented(what string) error {
	return faults.New(faults.NotImplemented, what)
}

func simdOrVFP(what string) error {
	return faults.New(faults.SIMDorVFPInstruction, what)
}
