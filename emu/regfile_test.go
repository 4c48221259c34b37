package emu_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = &emu.RegFile{}
	})

	It("should read back written values", func() {
		rf.WriteReg(5, 0xDEADBEEF)
		Expect(rf.ReadReg(5)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should keep x0 at zero", func() {
		for _, v := range []uint32{1, 0x80000000, 0xFFFFFFFF} {
			rf.WriteReg(0, v)
			Expect(rf.ReadReg(0)).To(Equal(uint32(0)))
		}
		rf.X[0] = 42
		Expect(rf.ReadReg(0)).To(Equal(uint32(0)))
		Expect(rf.Snapshot()[0]).To(Equal(uint32(0)))
	})

	It("should ignore out-of-range indices", func() {
		rf.WriteReg(32, 7)
		Expect(rf.ReadReg(32)).To(Equal(uint32(0)))
	})

	It("should report out-of-range indices on checked access", func() {
		v, err := rf.Read(40)
		Expect(v).To(BeZero())
		Expect(errors.Is(err, emu.ErrInvalidRegisterIndex)).To(BeTrue())

		err = rf.Write(-1, 3)
		Expect(errors.Is(err, emu.ErrInvalidRegisterIndex)).To(BeTrue())

		Expect(rf.Write(31, 3)).To(Succeed())
		v, err = rf.Read(31)
		Expect(err).NotTo(HaveOccurred())
		Expect(v).To(Equal(uint32(3)))
	})

	It("should clear every register on reset", func() {
		rf.WriteReg(1, 1)
		rf.WriteReg(31, 31)
		rf.Reset()
		Expect(rf.Snapshot()).To(Equal([emu.NumRegisters]uint32{}))
	})
})
