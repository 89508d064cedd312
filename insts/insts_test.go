package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name operations by mnemonic", func() {
		Expect(insts.OpADDImm.String()).To(Equal("ADD"))
		Expect(insts.OpLDMExcReturn.String()).To(Equal("LDM^pc"))
		Expect(insts.Op(60000).String()).To(Equal("UNKNOWN"))
	})

	It("should classify memory operations", func() {
		Expect(insts.OpLDRImm.IsLoadStore()).To(BeTrue())
		Expect(insts.OpSTMDB.IsLoadStore()).To(BeTrue())
		Expect(insts.OpRFE.IsLoadStore()).To(BeTrue())
		Expect(insts.OpADDImm.IsLoadStore()).To(BeFalse())
		Expect(insts.OpMCR.IsLoadStore()).To(BeFalse())
	})

	DescribeTable("DecodeImmShift",
		func(typ, imm5 uint32, wantType insts.ShiftType, wantAmount uint8) {
			st, amount := insts.DecodeImmShift(typ, imm5)
			Expect(st).To(Equal(wantType))
			Expect(amount).To(Equal(wantAmount))
		},
		Entry("LSL #0", uint32(0), uint32(0), insts.ShiftLSL, uint8(0)),
		Entry("LSL #7", uint32(0), uint32(7), insts.ShiftLSL, uint8(7)),
		Entry("LSR #0 means 32", uint32(1), uint32(0), insts.ShiftLSR, uint8(32)),
		Entry("ASR #0 means 32", uint32(2), uint32(0), insts.ShiftASR, uint8(32)),
		Entry("ROR #0 means RRX", uint32(3), uint32(0), insts.ShiftRRX, uint8(1)),
		Entry("ROR #8", uint32(3), uint32(8), insts.ShiftROR, uint8(8)),
	)
})
