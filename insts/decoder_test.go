package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/faults"
	"github.com/sarchlab/v7sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	decode := func(word uint32) insts.Instruction {
		inst, err := decoder.Decode(word, 0x8000)
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Data Processing", func() {
		// MOV r0, #1 -> 0xE3A00001
		It("should decode MOV (immediate)", func() {
			inst := decode(0xE3A00001)

			Expect(inst.Op).To(Equal(insts.OpMOVImm))
			Expect(inst.Cond).To(Equal(insts.CondAL))
			Expect(inst.SetFlags).To(BeFalse())
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(uint32(1)))
			Expect(inst.Raw).To(Equal(uint32(0xE3A00001)))
		})

		// MOVEQ r0, #1 -> 0x03A00001
		It("should keep the condition field", func() {
			inst := decode(0x03A00001)

			Expect(inst.Op).To(Equal(insts.OpMOVImm))
			Expect(inst.Cond).To(Equal(insts.CondEQ))
		})

		// ADDS r0, r1, r2 -> 0xE0910002
		It("should decode ADDS (register)", func() {
			inst := decode(0xE0910002)

			Expect(inst.Op).To(Equal(insts.OpADDReg))
			Expect(inst.SetFlags).To(BeTrue())
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.ShiftType).To(Equal(insts.ShiftLSL))
			Expect(inst.ShiftAmount).To(Equal(uint8(0)))
		})

		// ADD r0, r1, r2, LSL r3 -> 0xE0810312
		It("should decode ADD (register-shifted register)", func() {
			inst := decode(0xE0810312)

			Expect(inst.Op).To(Equal(insts.OpADDRsr))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.Rs).To(Equal(uint8(3)))
			Expect(inst.ShiftType).To(Equal(insts.ShiftLSL))
		})

		// ADD r0, pc, #8 -> 0xE28F0008
		It("should decode ADR", func() {
			inst := decode(0xE28F0008)

			Expect(inst.Op).To(Equal(insts.OpADR))
			Expect(inst.Add).To(BeTrue())
			Expect(inst.Imm).To(Equal(uint32(8)))
		})

		// MOVW r0, #0x1234 -> 0xE3010234
		It("should decode MOVW", func() {
			inst := decode(0xE3010234)

			Expect(inst.Op).To(Equal(insts.OpMOVW))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
		})

		// MOVT r0, #0xABCD -> 0xE34A0BCD
		It("should decode MOVT", func() {
			inst := decode(0xE34A0BCD)

			Expect(inst.Op).To(Equal(insts.OpMOVT))
			Expect(inst.Imm).To(Equal(uint32(0xABCD)))
		})

		// LSL r0, r1, r2 -> 0xE1A00211
		It("should decode LSL (register) with the value in Rm", func() {
			inst := decode(0xE1A00211)

			Expect(inst.Op).To(Equal(insts.OpLSLReg))
			Expect(inst.Rm).To(Equal(uint8(1)))
			Expect(inst.Rs).To(Equal(uint8(2)))
		})
	})

	DescribeTable("MOV shift aliases",
		func(word uint32, op insts.Op, amount uint8) {
			inst := decode(word)
			Expect(inst.Op).To(Equal(op))
			Expect(inst.ShiftAmount).To(Equal(amount))
			Expect(inst.Rm).To(Equal(uint8(1)))
		},
		Entry("MOV r0, r1", uint32(0xE1A00001), insts.OpMOVReg, uint8(0)),
		Entry("LSL r0, r1, #4", uint32(0xE1A00201), insts.OpLSLImm, uint8(4)),
		Entry("LSR r0, r1, #32", uint32(0xE1A00021), insts.OpLSRImm, uint8(32)),
		Entry("RRX r0, r1", uint32(0xE1A00061), insts.OpRRX, uint8(1)),
	)

	Describe("Miscellaneous", func() {
		// BX lr -> 0xE12FFF1E
		It("should decode BX", func() {
			inst := decode(0xE12FFF1E)

			Expect(inst.Op).To(Equal(insts.OpBX))
			Expect(inst.Rm).To(Equal(uint8(14)))
		})

		// BLX r3 -> 0xE12FFF33
		It("should decode BLX (register)", func() {
			inst := decode(0xE12FFF33)

			Expect(inst.Op).To(Equal(insts.OpBLXReg))
			Expect(inst.Rm).To(Equal(uint8(3)))
		})

		// CLZ r0, r1 -> 0xE16F0F11
		It("should decode CLZ", func() {
			inst := decode(0xE16F0F11)

			Expect(inst.Op).To(Equal(insts.OpCLZ))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rm).To(Equal(uint8(1)))
		})

		// BKPT #0x1234 -> 0xE1212374
		It("should decode BKPT", func() {
			inst := decode(0xE1212374)

			Expect(inst.Op).To(Equal(insts.OpBKPT))
			Expect(inst.Imm).To(Equal(uint32(0x1234)))
		})

		// MRS r0, CPSR -> 0xE10F0000
		It("should decode MRS", func() {
			inst := decode(0xE10F0000)

			Expect(inst.Op).To(Equal(insts.OpMRS))
			Expect(inst.UseSPSR).To(BeFalse())
		})

		// MSR CPSR_c, r0 -> 0xE121F000
		It("should decode MSR (register)", func() {
			inst := decode(0xE121F000)

			Expect(inst.Op).To(Equal(insts.OpMSRReg))
			Expect(inst.Mask).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(0)))
		})

		// MSR CPSR_f, #0xF0000000 -> 0xE328F20F
		It("should decode MSR (immediate)", func() {
			inst := decode(0xE328F20F)

			Expect(inst.Op).To(Equal(insts.OpMSRImm))
			Expect(inst.Mask).To(Equal(uint8(8)))
			Expect(inst.Imm).To(Equal(uint32(0x20F)))
		})

		// WFI -> 0xE320F003
		It("should decode WFI", func() {
			Expect(decode(0xE320F003).Op).To(Equal(insts.OpWFI))
			Expect(decode(0xE320F000).Op).To(Equal(insts.OpNOP))
		})
	})

	Describe("Multiply", func() {
		// MUL r0, r1, r2 -> 0xE0000291
		It("should decode MUL", func() {
			inst := decode(0xE0000291)

			Expect(inst.Op).To(Equal(insts.OpMUL))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
		})

		// UMULL r0, r1, r2, r3 -> 0xE0810392
		It("should decode UMULL with RdHi in Rd and RdLo in Ra", func() {
			inst := decode(0xE0810392)

			Expect(inst.Op).To(Equal(insts.OpUMULL))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Ra).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(2)))
			Expect(inst.Rm).To(Equal(uint8(3)))
		})

		// SMULBB r0, r1, r2 -> 0xE1600281
		It("should decode SMULBB", func() {
			inst := decode(0xE1600281)

			Expect(inst.Op).To(Equal(insts.OpSMULxy))
			Expect(inst.NHigh).To(BeFalse())
			Expect(inst.MHigh).To(BeFalse())
		})

		// SDIV r0, r1, r2 -> 0xE710F211
		It("should decode SDIV", func() {
			inst := decode(0xE710F211)

			Expect(inst.Op).To(Equal(insts.OpSDIV))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rm).To(Equal(uint8(2)))
		})
	})

	Describe("Load/Store", func() {
		// LDR r0, [r1, #4] -> 0xE5910004
		It("should decode LDR (immediate, offset)", func() {
			inst := decode(0xE5910004)

			Expect(inst.Op).To(Equal(insts.OpLDRImm))
			Expect(inst.Index).To(BeTrue())
			Expect(inst.Add).To(BeTrue())
			Expect(inst.WriteBack).To(BeFalse())
			Expect(inst.Imm).To(Equal(uint32(4)))
		})

		// STR r0, [r1], #-4 -> 0xE4010004
		It("should decode STR (immediate, post-indexed)", func() {
			inst := decode(0xE4010004)

			Expect(inst.Op).To(Equal(insts.OpSTRImm))
			Expect(inst.Index).To(BeFalse())
			Expect(inst.Add).To(BeFalse())
		})

		// LDRT r0, [r1], #4 -> 0xE4B10004
		It("should decode LDRT", func() {
			Expect(decode(0xE4B10004).Op).To(Equal(insts.OpLDRT))
		})

		// LDR r0, [r1, r2, LSL #2] -> 0xE7910102
		It("should decode LDR (register)", func() {
			inst := decode(0xE7910102)

			Expect(inst.Op).To(Equal(insts.OpLDRReg))
			Expect(inst.RegOffset).To(BeTrue())
			Expect(inst.Rm).To(Equal(uint8(2)))
			Expect(inst.ShiftAmount).To(Equal(uint8(2)))
		})

		// LDRH r0, [r1, #2] -> 0xE1D100B2
		It("should decode LDRH (immediate)", func() {
			inst := decode(0xE1D100B2)

			Expect(inst.Op).To(Equal(insts.OpLDRHImm))
			Expect(inst.Imm).To(Equal(uint32(2)))
		})

		// LDRD r2, r3, [r1] -> 0xE1C120D0
		It("should decode LDRD", func() {
			inst := decode(0xE1C120D0)

			Expect(inst.Op).To(Equal(insts.OpLDRDImm))
			Expect(inst.Rd).To(Equal(uint8(2)))
		})

		// STRD r2, r3, [r1] -> 0xE1C120F0
		It("should decode STRD", func() {
			Expect(decode(0xE1C120F0).Op).To(Equal(insts.OpSTRDImm))
		})

		// LDREX r0, [r1] -> 0xE1910F9F
		It("should decode LDREX", func() {
			inst := decode(0xE1910F9F)

			Expect(inst.Op).To(Equal(insts.OpLDREX))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
		})

		// STREX r2, r0, [r1] -> 0xE1812F90
		It("should decode STREX with the status register in Rd", func() {
			inst := decode(0xE1812F90)

			Expect(inst.Op).To(Equal(insts.OpSTREX))
			Expect(inst.Rd).To(Equal(uint8(2)))
			Expect(inst.Rm).To(Equal(uint8(0)))
			Expect(inst.Rn).To(Equal(uint8(1)))
		})
	})

	Describe("Media", func() {
		// UXTB r0, r1 -> 0xE6EF0071
		It("should decode UXTB", func() {
			inst := decode(0xE6EF0071)

			Expect(inst.Op).To(Equal(insts.OpUXTB))
			Expect(inst.Rm).To(Equal(uint8(1)))
			Expect(inst.ShiftAmount).To(Equal(uint8(0)))
		})

		// UXTB r0, r1, ROR #8 -> 0xE6EF0471
		It("should decode UXTB with rotation", func() {
			inst := decode(0xE6EF0471)

			Expect(inst.ShiftType).To(Equal(insts.ShiftROR))
			Expect(inst.ShiftAmount).To(Equal(uint8(8)))
		})

		// REV r0, r1 -> 0xE6BF0F31
		It("should decode REV", func() {
			Expect(decode(0xE6BF0F31).Op).To(Equal(insts.OpREV))
		})

		// UBFX r0, r1, #4, #8 -> 0xE7E70251
		It("should decode UBFX", func() {
			inst := decode(0xE7E70251)

			Expect(inst.Op).To(Equal(insts.OpUBFX))
			Expect(inst.Lsb).To(Equal(uint8(4)))
			Expect(inst.Width).To(Equal(uint8(8)))
		})

		// BFC r0, #8, #4 -> 0xE7CB041F
		It("should decode BFC", func() {
			inst := decode(0xE7CB041F)

			Expect(inst.Op).To(Equal(insts.OpBFC))
			Expect(inst.Lsb).To(Equal(uint8(8)))
			Expect(inst.Width).To(Equal(uint8(4)))
		})
	})

	Describe("Branch and Block Transfer", func() {
		// B . -> 0xEAFFFFFE
		It("should sign-extend the branch offset", func() {
			inst := decode(0xEAFFFFFE)

			Expect(inst.Op).To(Equal(insts.OpB))
			Expect(inst.Imm).To(Equal(uint32(0xFFFFFFF8)))
		})

		// BL +4 -> 0xEB000001
		It("should decode BL", func() {
			inst := decode(0xEB000001)

			Expect(inst.Op).To(Equal(insts.OpBL))
			Expect(inst.Imm).To(Equal(uint32(4)))
		})

		// LDM r0!, {r1, r2} -> 0xE8B00006
		It("should decode LDM with write-back", func() {
			inst := decode(0xE8B00006)

			Expect(inst.Op).To(Equal(insts.OpLDM))
			Expect(inst.WriteBack).To(BeTrue())
			Expect(inst.RegList).To(Equal(uint16(0x0006)))
		})

		// PUSH {r4, lr} -> 0xE92D4010
		It("should decode PUSH as STMDB", func() {
			inst := decode(0xE92D4010)

			Expect(inst.Op).To(Equal(insts.OpSTMDB))
			Expect(inst.Rn).To(Equal(uint8(13)))
			Expect(inst.RegList).To(Equal(uint16(0x4010)))
		})

		// LDM sp!, {pc}^ -> 0xE8FD8000
		It("should decode exception-return LDM", func() {
			Expect(decode(0xE8FD8000).Op).To(Equal(insts.OpLDMExcReturn))
		})

		// STM r0, {r1}^ -> 0xE8C00002
		It("should decode user-register STM", func() {
			Expect(decode(0xE8C00002).Op).To(Equal(insts.OpSTMUser))
		})
	})

	Describe("Coprocessor", func() {
		// SVC #0x123456 -> 0xEF123456
		It("should decode SVC", func() {
			inst := decode(0xEF123456)

			Expect(inst.Op).To(Equal(insts.OpSVC))
			Expect(inst.Imm).To(Equal(uint32(0x123456)))
		})

		// MRC p15, 0, r0, c1, c0, 0 -> 0xEE110F10
		It("should decode MRC", func() {
			inst := decode(0xEE110F10)

			Expect(inst.Op).To(Equal(insts.OpMRC))
			Expect(inst.Rn).To(Equal(uint8(1)))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Rm).To(Equal(uint8(0)))
			Expect(inst.Opc1).To(Equal(uint8(0)))
			Expect(inst.Opc2).To(Equal(uint8(0)))
		})

		// MCR p15, 0, r0, c2, c0, 0 -> 0xEE020F10
		It("should decode MCR", func() {
			inst := decode(0xEE020F10)

			Expect(inst.Op).To(Equal(insts.OpMCR))
			Expect(inst.Rn).To(Equal(uint8(2)))
		})
	})

	Describe("Unconditional", func() {
		// CPSID i -> 0xF10C0080
		It("should decode CPSID", func() {
			inst := decode(0xF10C0080)

			Expect(inst.Op).To(Equal(insts.OpCPS))
			Expect(inst.IMod).To(Equal(uint8(3)))
			Expect(inst.Mask).To(Equal(uint8(2)))
			Expect(inst.ModeChange).To(BeFalse())
		})

		// CPS #0x13 -> 0xF1020013
		It("should decode CPS with a mode change", func() {
			inst := decode(0xF1020013)

			Expect(inst.Op).To(Equal(insts.OpCPS))
			Expect(inst.ModeChange).To(BeTrue())
			Expect(inst.Imm).To(Equal(uint32(0x13)))
		})

		// SETEND BE -> 0xF1010200
		It("should decode SETEND", func() {
			inst := decode(0xF1010200)

			Expect(inst.Op).To(Equal(insts.OpSETEND))
			Expect(inst.Imm).To(Equal(uint32(1)))
		})

		// DMB ISH -> 0xF57FF05B
		It("should decode barriers", func() {
			inst := decode(0xF57FF05B)
			Expect(inst.Op).To(Equal(insts.OpDMB))
			Expect(inst.Imm).To(Equal(uint32(0xB)))

			Expect(decode(0xF57FF04F).Op).To(Equal(insts.OpDSB))
			Expect(decode(0xF57FF06F).Op).To(Equal(insts.OpISB))
			Expect(decode(0xF57FF01F).Op).To(Equal(insts.OpCLREX))
		})

		// PLD [r0, #4] -> 0xF5D0F004
		It("should decode PLD", func() {
			inst := decode(0xF5D0F004)

			Expect(inst.Op).To(Equal(insts.OpPLD))
			Expect(inst.Imm).To(Equal(uint32(4)))
		})

		// SRSDB sp!, #0x13 -> 0xF96D0513
		It("should decode SRS", func() {
			inst := decode(0xF96D0513)

			Expect(inst.Op).To(Equal(insts.OpSRS))
			Expect(inst.Index).To(BeTrue())
			Expect(inst.Add).To(BeFalse())
			Expect(inst.WriteBack).To(BeTrue())
			Expect(inst.Imm).To(Equal(uint32(0x13)))
		})

		// RFEIA r0 -> 0xF8900A00
		It("should decode RFE", func() {
			inst := decode(0xF8900A00)

			Expect(inst.Op).To(Equal(insts.OpRFE))
			Expect(inst.Rn).To(Equal(uint8(0)))
			Expect(inst.Add).To(BeTrue())
		})
	})

	DescribeTable("rejected encodings",
		func(word uint32, category faults.Category) {
			inst, err := decoder.Decode(word, 0x8000)

			Expect(err).To(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpUnknown))
			Expect(faults.Is(err, category)).To(BeTrue(), err.Error())
		},
		Entry("UDF", uint32(0xE7F000F0), faults.UndefinedInstruction),
		Entry("MCR to p14", uint32(0xEE020E10), faults.UndefinedInstruction),
		Entry("VADD.F32", uint32(0xEE300A00), faults.SIMDorVFPInstruction),
		Entry("VHADD", uint32(0xF2000000), faults.SIMDorVFPInstruction),
		Entry("MCRR p15", uint32(0xEC410F00), faults.NotImplemented),
		Entry("BLX (immediate)", uint32(0xFA000000), faults.NotImplemented),
		Entry("SWP", uint32(0xE1010092), faults.NotImplemented),
		Entry("MCR from pc", uint32(0xEE02FF10), faults.UnpredictableOperation),
		Entry("LDM empty list", uint32(0xE8900000), faults.UnpredictableOperation),
		Entry("STM^ with write-back", uint32(0xE8E00002), faults.UnpredictableOperation),
		Entry("LDRD odd pair", uint32(0xE1C110D0), faults.UnpredictableOperation),
		Entry("UMULL RdHi == RdLo", uint32(0xE0800392), faults.UnpredictableOperation),
		Entry("conditional BKPT", uint32(0x01212374), faults.UnpredictableOperation),
		Entry("CPSID with mode but no M", uint32(0xF10C0093), faults.UnpredictableOperation),
	)

	It("should annotate faults with the word and address", func() {
		_, err := decoder.Decode(0xE7F000F0, 0x8000)

		f, ok := faults.As(err)
		Expect(ok).To(BeTrue())
		Expect(f.Value).To(Equal(uint32(0xE7F000F0)))
		Expect(f.Error()).To(ContainSubstring("at 0x00008000"))
	})
})
