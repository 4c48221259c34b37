package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
		Expect(i.Op).To(Equal(insts.OpInvalid))
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	It("should name operations and formats", func() {
		Expect(insts.OpADDI.String()).To(Equal("ADDI"))
		Expect(insts.OpEBREAK.String()).To(Equal("EBREAK"))
		Expect(insts.Op(200).String()).To(Equal("INVALID"))
		Expect(insts.FormatB.String()).To(Equal("B"))
	})
})

var _ = Describe("Disassembly", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	DescribeTable("String",
		func(word uint32, want string) {
			Expect(decoder.Decode(word).String()).To(Equal(want))
		},
		Entry("R-type", insts.EncodeADD(3, 1, 2), "add x3, x1, x2"),
		Entry("I-type", insts.EncodeADDI(1, 0, -5), "addi x1, x0, -5"),
		Entry("shift", insts.EncodeSRAI(4, 5, 3), "srai x4, x5, 3"),
		Entry("load", insts.EncodeLW(6, 2, 8), "lw x6, 8(x2)"),
		Entry("store", insts.EncodeSH(7, 2, -4), "sh x7, -4(x2)"),
		Entry("branch", insts.EncodeBNE(1, 0, -8), "bne x1, x0, -8"),
		Entry("upper", insts.EncodeLUI(1, 0x12345), "lui x1, 0x12345"),
		Entry("jal", insts.EncodeJAL(1, 16), "jal x1, 16"),
		Entry("jalr", insts.EncodeJALR(0, 1, 0), "jalr x0, 0(x1)"),
		Entry("ecall", insts.EncodeECALL(), "ecall"),
		Entry("invalid", uint32(0xFFFFFFFF), "invalid 0xffffffff"),
	)

	It("should name registers by ABI name", func() {
		Expect(insts.RegName(0)).To(Equal("zero"))
		Expect(insts.RegName(10)).To(Equal("a0"))
		Expect(insts.RegName(31)).To(Equal("t6"))
		Expect(insts.RegName(32)).To(BeEmpty())
	})
})
