package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("R-type", func() {
		// ADD x10, x10, x10 -> 0x00A50533
		// Encoding: funct7=0, rs2=10, rs1=10, funct3=0, rd=10, opcode=0110011
		It("should decode ADD x10, x10, x10", func() {
			inst := decoder.Decode(0x00A50533)

			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Format).To(Equal(insts.FormatR))
			Expect(inst.Rd).To(Equal(uint8(10)))
			Expect(inst.Rs1).To(Equal(uint8(10)))
			Expect(inst.Rs2).To(Equal(uint8(10)))
			Expect(inst.Funct3).To(Equal(uint8(0)))
			Expect(inst.Funct7).To(Equal(uint8(0)))
			Expect(inst.Word).To(Equal(uint32(0x00A50533)))
		})

		It("should decode the same word identically every time", func() {
			first := decoder.Decode(0x00A50533)
			second := decoder.Decode(0x00A50533)
			Expect(*second).To(Equal(*first))
		})

		// SUB x3, x1, x2 -> 0x402081B3
		It("should decode SUB x3, x1, x2", func() {
			inst := decoder.Decode(0x402081B3)

			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Rd).To(Equal(uint8(3)))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Funct7).To(Equal(uint8(0x20)))
		})

		DescribeTable("should map funct3/funct7 to operations",
			func(word uint32, op insts.Op) {
				Expect(decoder.Decode(word).Op).To(Equal(op))
			},
			Entry("SLL", insts.EncodeSLL(1, 2, 3), insts.OpSLL),
			Entry("SLT", insts.EncodeSLT(1, 2, 3), insts.OpSLT),
			Entry("SLTU", insts.EncodeSLTU(1, 2, 3), insts.OpSLTU),
			Entry("XOR", insts.EncodeXOR(1, 2, 3), insts.OpXOR),
			Entry("SRL", insts.EncodeSRL(1, 2, 3), insts.OpSRL),
			Entry("SRA", insts.EncodeSRA(1, 2, 3), insts.OpSRA),
			Entry("OR", insts.EncodeOR(1, 2, 3), insts.OpOR),
			Entry("AND", insts.EncodeAND(1, 2, 3), insts.OpAND),
		)

		It("should reject alternate funct7 on operations without one", func() {
			word := insts.EncodeR(insts.OpcodeOp, 1, 0x7, 2, 3, insts.Funct7Alt)
			inst := decoder.Decode(word)
			Expect(inst.Op).To(Equal(insts.OpInvalid))
			Expect(inst.Format).To(Equal(insts.FormatInvalid))
		})

		It("should reject unknown funct7 values (M extension)", func() {
			// MUL x1, x2, x3 has funct7 = 0x01
			word := insts.EncodeR(insts.OpcodeOp, 1, 0x0, 2, 3, 0x01)
			Expect(decoder.Decode(word).IsValid()).To(BeFalse())
		})
	})

	Describe("I-type", func() {
		// ADDI x1, x0, 5 -> 0x00500093
		It("should decode ADDI x1, x0, 5", func() {
			inst := decoder.Decode(0x00500093)

			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Format).To(Equal(insts.FormatI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(0)))
			Expect(inst.Rs2).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(5)))
		})

		It("should sign-extend negative immediates", func() {
			// ADDI x2, x2, -1 -> 0xFFF10113
			inst := decoder.Decode(0xFFF10113)
			Expect(inst.Op).To(Equal(insts.OpADDI))
			Expect(inst.Imm).To(Equal(int32(-1)))
		})

		It("should decode the most negative immediate", func() {
			inst := decoder.Decode(insts.EncodeADDI(1, 1, -2048))
			Expect(inst.Imm).To(Equal(int32(-2048)))
		})

		// SRAI x1, x2, 3 -> 0x40315093
		It("should zero-extend the shift amount of SRAI", func() {
			inst := decoder.Decode(0x40315093)

			Expect(inst.Op).To(Equal(insts.OpSRAI))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(3)))
		})

		It("should decode SLLI with shamt 31 as a positive amount", func() {
			inst := decoder.Decode(insts.EncodeSLLI(4, 5, 31))
			Expect(inst.Op).To(Equal(insts.OpSLLI))
			Expect(inst.Imm).To(Equal(int32(31)))
		})

		It("should reject SLLI with a non-zero funct7", func() {
			word := insts.EncodeR(insts.OpcodeOpImm, 1, 0x1, 2, 3, insts.Funct7Alt)
			Expect(decoder.Decode(word).Op).To(Equal(insts.OpInvalid))
		})

		// LW x5, 8(x2) -> 0x00812283
		It("should decode LW x5, 8(x2)", func() {
			inst := decoder.Decode(0x00812283)

			Expect(inst.Op).To(Equal(insts.OpLW))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(8)))
			Expect(inst.IsLoad()).To(BeTrue())
			Expect(inst.MemSize()).To(Equal(insts.SizeWord))
			Expect(inst.LoadSigned()).To(BeTrue())
		})

		It("should decode LBU as an unsigned byte load", func() {
			inst := decoder.Decode(insts.EncodeLBU(1, 2, -4))
			Expect(inst.Op).To(Equal(insts.OpLBU))
			Expect(inst.Imm).To(Equal(int32(-4)))
			Expect(inst.MemSize()).To(Equal(insts.SizeByte))
			Expect(inst.LoadSigned()).To(BeFalse())
		})

		It("should reject reserved load widths", func() {
			word := insts.EncodeI(insts.OpcodeLoad, 1, 0x3, 2, 0) // LD is RV64 only
			Expect(decoder.Decode(word).Op).To(Equal(insts.OpInvalid))
		})

		It("should decode JALR", func() {
			inst := decoder.Decode(insts.EncodeJALR(1, 5, -12))
			Expect(inst.Op).To(Equal(insts.OpJALR))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Rs1).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(-12)))
			Expect(inst.IsJump()).To(BeTrue())
		})

		It("should decode ECALL and EBREAK", func() {
			Expect(decoder.Decode(0x00000073).Op).To(Equal(insts.OpECALL))
			Expect(decoder.Decode(0x00100073).Op).To(Equal(insts.OpEBREAK))
		})

		It("should reject CSR instructions", func() {
			// CSRRW x1, mstatus, x2
			Expect(decoder.Decode(0x300110F3).Op).To(Equal(insts.OpInvalid))
		})

		It("should decode FENCE without operands", func() {
			inst := decoder.Decode(insts.EncodeFENCE())
			Expect(inst.Op).To(Equal(insts.OpFENCE))
			Expect(inst.WritesRd()).To(BeFalse())
			Expect(inst.UsesRs1()).To(BeFalse())
		})
	})

	Describe("S-type", func() {
		// SW x5, 12(x2) -> 0x00512623
		It("should decode SW x5, 12(x2)", func() {
			inst := decoder.Decode(0x00512623)

			Expect(inst.Op).To(Equal(insts.OpSW))
			Expect(inst.Format).To(Equal(insts.FormatS))
			Expect(inst.Rs1).To(Equal(uint8(2)))
			Expect(inst.Rs2).To(Equal(uint8(5)))
			Expect(inst.Rd).To(Equal(uint8(0)))
			Expect(inst.Imm).To(Equal(int32(12)))
		})

		It("should reassemble a negative split immediate", func() {
			inst := decoder.Decode(insts.EncodeSH(7, 8, -34))
			Expect(inst.Op).To(Equal(insts.OpSH))
			Expect(inst.Imm).To(Equal(int32(-34)))
		})
	})

	Describe("B-type", func() {
		// BEQ x1, x2, -8 -> 0xFE208CE3
		It("should decode BEQ x1, x2, -8", func() {
			inst := decoder.Decode(0xFE208CE3)

			Expect(inst.Op).To(Equal(insts.OpBEQ))
			Expect(inst.Format).To(Equal(insts.FormatB))
			Expect(inst.Rs1).To(Equal(uint8(1)))
			Expect(inst.Rs2).To(Equal(uint8(2)))
			Expect(inst.Imm).To(Equal(int32(-8)))
		})

		It("should always produce even offsets", func() {
			for _, off := range []int32{2, 4094, -4096, 100, -2} {
				inst := decoder.Decode(insts.EncodeBNE(1, 2, off))
				Expect(inst.Imm).To(Equal(off))
				Expect(inst.Imm & 1).To(BeZero())
			}
		})

		It("should reject reserved branch conditions", func() {
			word := insts.EncodeB(insts.OpcodeBranch, 0x2, 1, 2, 8)
			Expect(decoder.Decode(word).Op).To(Equal(insts.OpInvalid))
		})
	})

	Describe("U-type", func() {
		// LUI x5, 0x12345 -> 0x123452B7
		It("should decode LUI with zero-filled low bits", func() {
			inst := decoder.Decode(0x123452B7)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Format).To(Equal(insts.FormatU))
			Expect(inst.Rd).To(Equal(uint8(5)))
			Expect(inst.Imm).To(Equal(int32(0x12345000)))
		})

		It("should keep the top bit of AUIPC immediates", func() {
			inst := decoder.Decode(insts.EncodeAUIPC(3, 0xFFFFF))
			Expect(inst.Op).To(Equal(insts.OpAUIPC))
			Expect(uint32(inst.Imm)).To(Equal(uint32(0xFFFFF000)))
		})
	})

	Describe("J-type", func() {
		// JAL x1, 16 -> 0x010000EF
		It("should decode JAL x1, 16", func() {
			inst := decoder.Decode(0x010000EF)

			Expect(inst.Op).To(Equal(insts.OpJAL))
			Expect(inst.Format).To(Equal(insts.FormatJ))
			Expect(inst.Rd).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(int32(16)))
		})

		It("should sign-extend backward jumps", func() {
			inst := decoder.Decode(insts.EncodeJAL(0, -1048576))
			Expect(inst.Imm).To(Equal(int32(-1048576)))
			inst = decoder.Decode(insts.EncodeJAL(0, 1048574))
			Expect(inst.Imm).To(Equal(int32(1048574)))
		})
	})

	Describe("Invalid words", func() {
		It("should decode all-zero as invalid", func() {
			inst := decoder.Decode(0x00000000)
			Expect(inst.Op).To(Equal(insts.OpInvalid))
			Expect(inst.Format).To(Equal(insts.FormatInvalid))
			Expect(inst.Rd).To(BeZero())
			Expect(inst.Rs1).To(BeZero())
			Expect(inst.Rs2).To(BeZero())
		})

		It("should decode all-ones as invalid", func() {
			Expect(decoder.Decode(0xFFFFFFFF).IsValid()).To(BeFalse())
		})
	})

	Describe("DecodeInto", func() {
		It("should overwrite every field of a reused instruction", func() {
			var inst insts.Instruction
			decoder.DecodeInto(0x402081B3, &inst)
			decoder.DecodeInto(insts.EncodeLUI(7, 1), &inst)

			Expect(inst.Op).To(Equal(insts.OpLUI))
			Expect(inst.Rs1).To(BeZero())
			Expect(inst.Rs2).To(BeZero())
			Expect(inst.Funct7).To(BeZero())
		})
	})
})
