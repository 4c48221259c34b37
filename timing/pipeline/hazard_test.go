package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var (
		hu      *pipeline.HazardUnit
		decoder *insts.Decoder
		idex    pipeline.IDEXRegister
		exmem   pipeline.EXMEMRegister
		memwb   pipeline.MEMWBRegister
	)

	decode := func(word uint32) insts.Instruction {
		return *decoder.Decode(word)
	}

	BeforeEach(func() {
		hu = pipeline.NewHazardUnit()
		decoder = insts.NewDecoder()
		idex = pipeline.IDEXRegister{Valid: true, Inst: decode(insts.EncodeADD(3, 1, 2))}
		exmem = pipeline.EXMEMRegister{}
		memwb = pipeline.MEMWBRegister{}
	})

	Describe("DetectForwarding", func() {
		It("should not forward when later stages are empty", func() {
			result := hu.DetectForwarding(&idex, &exmem, &memwb)
			Expect(result.ForwardRs1).To(Equal(pipeline.ForwardNone))
			Expect(result.ForwardRs2).To(Equal(pipeline.ForwardNone))
			Expect(result.Any()).To(BeFalse())
		})

		It("should not forward for a bubble in ID/EX", func() {
			idex.Valid = false
			exmem = pipeline.EXMEMRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(1, 0, 1))}
			Expect(hu.DetectForwarding(&idex, &exmem, &memwb).Any()).To(BeFalse())
		})

		It("should forward from EX/MEM", func() {
			exmem = pipeline.EXMEMRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(1, 0, 1))}
			result := hu.DetectForwarding(&idex, &exmem, &memwb)
			Expect(result.ForwardRs1).To(Equal(pipeline.ForwardFromEXMEM))
			Expect(result.ForwardRs2).To(Equal(pipeline.ForwardNone))
		})

		It("should forward from MEM/WB", func() {
			memwb = pipeline.MEMWBRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(2, 0, 1))}
			result := hu.DetectForwarding(&idex, &exmem, &memwb)
			Expect(result.ForwardRs2).To(Equal(pipeline.ForwardFromMEMWB))
		})

		It("should prefer EX/MEM over MEM/WB", func() {
			exmem = pipeline.EXMEMRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(1, 0, 2))}
			memwb = pipeline.MEMWBRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(1, 0, 1))}
			result := hu.DetectForwarding(&idex, &exmem, &memwb)
			Expect(result.ForwardRs1).To(Equal(pipeline.ForwardFromEXMEM))
		})

		It("should skip a load in EX/MEM and use MEM/WB", func() {
			exmem = pipeline.EXMEMRegister{
				Valid: true, RegWrite: true, MemRead: true, MemToReg: true,
				Inst: decode(insts.EncodeLW(1, 0, 0)),
			}
			memwb = pipeline.MEMWBRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(1, 0, 1))}
			result := hu.DetectForwarding(&idex, &exmem, &memwb)
			Expect(result.ForwardRs1).To(Equal(pipeline.ForwardFromMEMWB))
		})

		It("should never forward x0", func() {
			idex.Inst = decode(insts.EncodeADD(3, 0, 0))
			exmem = pipeline.EXMEMRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(0, 0, 1))}
			Expect(hu.DetectForwarding(&idex, &exmem, &memwb).Any()).To(BeFalse())
		})

		It("should ignore producers that do not write a register", func() {
			exmem = pipeline.EXMEMRegister{Valid: true, MemWrite: true, Inst: decode(insts.EncodeSW(1, 1, 0))}
			Expect(hu.DetectForwarding(&idex, &exmem, &memwb).Any()).To(BeFalse())
		})

		It("should ignore register fields the consumer does not read", func() {
			idex.Inst = decode(insts.EncodeLUI(1, 0x1))
			exmem = pipeline.EXMEMRegister{Valid: true, RegWrite: true, Inst: decode(insts.EncodeADDI(0, 0, 0))}
			Expect(hu.DetectForwarding(&idex, &exmem, &memwb).Any()).To(BeFalse())
		})
	})

	Describe("GetForwardedValue", func() {
		It("should pick the producer's writeback value", func() {
			exmem = pipeline.EXMEMRegister{ALUResult: 11}
			memwb = pipeline.MEMWBRegister{ALUResult: 22, MemData: 33, MemToReg: true}

			Expect(hu.GetForwardedValue(pipeline.ForwardNone, 7, &exmem, &memwb)).To(Equal(uint32(7)))
			Expect(hu.GetForwardedValue(pipeline.ForwardFromEXMEM, 7, &exmem, &memwb)).To(Equal(uint32(11)))
			Expect(hu.GetForwardedValue(pipeline.ForwardFromMEMWB, 7, &exmem, &memwb)).To(Equal(uint32(33)))

			memwb.MemToReg = false
			Expect(hu.GetForwardedValue(pipeline.ForwardFromMEMWB, 7, &exmem, &memwb)).To(Equal(uint32(22)))
		})
	})

	Describe("DetectLoadUseHazard", func() {
		BeforeEach(func() {
			idex = pipeline.IDEXRegister{
				Valid: true, MemRead: true, MemToReg: true, RegWrite: true,
				Inst: decode(insts.EncodeLW(1, 0, 0)),
			}
		})

		It("should detect a consumer of the loaded register", func() {
			next := decode(insts.EncodeADD(3, 2, 1))
			Expect(hu.DetectLoadUseHazard(&idex, &next)).To(BeTrue())
		})

		It("should ignore independent instructions", func() {
			next := decode(insts.EncodeADD(3, 2, 4))
			Expect(hu.DetectLoadUseHazard(&idex, &next)).To(BeFalse())
			Expect(hu.DetectLoadUseHazard(&idex, nil)).To(BeFalse())
		})

		It("should ignore non-loads", func() {
			idex.MemRead = false
			next := decode(insts.EncodeADD(3, 1, 1))
			Expect(hu.DetectLoadUseHazard(&idex, &next)).To(BeFalse())
		})

		It("should ignore fields the consumer does not read", func() {
			next := decode(insts.EncodeJAL(1, 8))
			Expect(hu.DetectLoadUseHazard(&idex, &next)).To(BeFalse())
		})

		It("should never stall on x0", func() {
			Expect(hu.DetectLoadUseHazardDecoded(0, 0, 0, true, true)).To(BeFalse())
			Expect(hu.DetectLoadUseHazardDecoded(5, 0, 5, false, true)).To(BeTrue())
			Expect(hu.DetectLoadUseHazardDecoded(5, 5, 0, false, false)).To(BeFalse())
		})
	})

	Describe("ComputeStalls", func() {
		It("should stall and insert a bubble on load-use", func() {
			result := hu.ComputeStalls(true, false)
			Expect(result.StallIF).To(BeTrue())
			Expect(result.StallID).To(BeTrue())
			Expect(result.InsertBubbleEX).To(BeTrue())
			Expect(result.FlushIF).To(BeFalse())
		})

		It("should flush on a taken branch", func() {
			result := hu.ComputeStalls(false, true)
			Expect(result.FlushIF).To(BeTrue())
			Expect(result.FlushID).To(BeTrue())
			Expect(result.StallIF).To(BeFalse())
		})

		It("should do nothing without hazards", func() {
			Expect(hu.ComputeStalls(false, false)).To(Equal(pipeline.StallResult{}))
		})
	})
})
