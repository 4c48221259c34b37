package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("ALU", func() {
	Describe("Execute", func() {
		It("should treat zero as the additive identity", func() {
			for _, a := range []uint32{0, 1, 0x7FFFFFFF, 0x80000000, 0xFFFFFFFF} {
				r := emu.Execute(emu.ALUAdd, a, 0)
				Expect(r.Result).To(Equal(a))
				Expect(r.Carry).To(BeFalse())
				Expect(r.Overflow).To(BeFalse())
			}
		})

		It("should produce zero when subtracting a value from itself", func() {
			for _, a := range []uint32{0, 12345, 0x80000000, 0xFFFFFFFF} {
				r := emu.Execute(emu.ALUSub, a, a)
				Expect(r.Result).To(BeZero())
				Expect(r.Zero).To(BeTrue())
				Expect(r.Negative).To(BeFalse())
			}
		})

		It("should detect signed overflow on ADD", func() {
			r := emu.Execute(emu.ALUAdd, 0x7FFFFFFF, 1)
			Expect(r.Result).To(Equal(uint32(0x80000000)))
			Expect(r.Overflow).To(BeTrue())
			Expect(r.Negative).To(BeTrue())
			Expect(r.Carry).To(BeFalse())
		})

		It("should detect unsigned carry on ADD", func() {
			r := emu.Execute(emu.ALUAdd, 0xFFFFFFFF, 1)
			Expect(r.Result).To(BeZero())
			Expect(r.Carry).To(BeTrue())
			Expect(r.Zero).To(BeTrue())
			Expect(r.Overflow).To(BeFalse())
		})

		It("should report borrow and overflow on SUB", func() {
			r := emu.Execute(emu.ALUSub, 1, 2)
			Expect(r.Result).To(Equal(uint32(0xFFFFFFFF)))
			Expect(r.Carry).To(BeTrue())
			Expect(r.Overflow).To(BeFalse())

			r = emu.Execute(emu.ALUSub, 0x80000000, 1)
			Expect(r.Result).To(Equal(uint32(0x7FFFFFFF)))
			Expect(r.Overflow).To(BeTrue())
		})

		It("should compare signed and unsigned", func() {
			Expect(emu.Execute(emu.ALUSlt, 0xFFFFFFFF, 1).Result).To(Equal(uint32(1)))
			Expect(emu.Execute(emu.ALUSltu, 0xFFFFFFFF, 1).Result).To(Equal(uint32(0)))
			Expect(emu.Execute(emu.ALUSlt, 1, 0xFFFFFFFF).Result).To(Equal(uint32(0)))
			Expect(emu.Execute(emu.ALUSltu, 1, 0xFFFFFFFF).Result).To(Equal(uint32(1)))
		})

		It("should only use the low five bits of the shift amount", func() {
			Expect(emu.Execute(emu.ALUSll, 1, 33).Result).To(Equal(uint32(2)))
			Expect(emu.Execute(emu.ALUSrl, 0x80000000, 31).Result).To(Equal(uint32(1)))
			Expect(emu.Execute(emu.ALUSra, 0x80000000, 31).Result).To(Equal(uint32(0xFFFFFFFF)))
			Expect(emu.Execute(emu.ALUSra, 0x40000000, 32).Result).To(Equal(uint32(0x40000000)))
		})

		DescribeTable("bitwise and copy operations",
			func(op emu.ALUOp, a, b, want uint32) {
				Expect(emu.Execute(op, a, b).Result).To(Equal(want))
			},
			Entry("AND", emu.ALUAnd, uint32(0xF0F0), uint32(0xFF00), uint32(0xF000)),
			Entry("OR", emu.ALUOr, uint32(0xF0F0), uint32(0x0F0F), uint32(0xFFFF)),
			Entry("XOR", emu.ALUXor, uint32(0xFFFF), uint32(0x0F0F), uint32(0xF0F0)),
			Entry("COPY_A", emu.ALUCopyA, uint32(7), uint32(9), uint32(7)),
			Entry("COPY_B", emu.ALUCopyB, uint32(7), uint32(9), uint32(9)),
		)
	})

	Describe("ALUControl", func() {
		var decoder *insts.Decoder

		BeforeEach(func() {
			decoder = insts.NewDecoder()
		})

		It("should select rs2 for register-register operations", func() {
			op, useImm := emu.ALUControl(decoder.Decode(insts.EncodeSUB(1, 2, 3)))
			Expect(op).To(Equal(emu.ALUSub))
			Expect(useImm).To(BeFalse())
		})

		It("should select the immediate for shifts and loads", func() {
			op, useImm := emu.ALUControl(decoder.Decode(insts.EncodeSRAI(1, 2, 3)))
			Expect(op).To(Equal(emu.ALUSra))
			Expect(useImm).To(BeTrue())

			op, useImm = emu.ALUControl(decoder.Decode(insts.EncodeLW(1, 2, 8)))
			Expect(op).To(Equal(emu.ALUAdd))
			Expect(useImm).To(BeTrue())
		})

		It("should copy the immediate for LUI", func() {
			op, _ := emu.ALUControl(decoder.Decode(insts.EncodeLUI(1, 0x12345)))
			Expect(op).To(Equal(emu.ALUCopyB))
		})
	})
})
