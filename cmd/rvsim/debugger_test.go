package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/timing/core"
)

var _ = Describe("Debugger", func() {
	var (
		c   *core.Core
		out *bytes.Buffer
		d   *debugger
	)

	// a0 = 5; a1 = a0 + 1; mem[0x40] = a1; ecall
	program := []uint32{
		insts.EncodeADDI(10, 0, 5),
		insts.EncodeADDI(11, 10, 1),
		insts.EncodeSW(11, 0, 0x40),
		insts.EncodeECALL(),
	}

	BeforeEach(func() {
		config := core.DefaultConfig()
		config.TraceEnabled = true

		var err error
		c, err = core.NewCore(config)
		Expect(err).NotTo(HaveOccurred())
		Expect(c.LoadWords(program)).To(Succeed())

		out = &bytes.Buffer{}
		d = newDebugger(c, out)
	})

	It("should step cycles", func() {
		Expect(d.Exec("step 2")).To(Succeed())
		Expect(c.Stats().Cycles).To(Equal(uint64(2)))

		Expect(d.Exec("step")).To(Succeed())
		Expect(c.Stats().Cycles).To(Equal(uint64(3)))
	})

	It("should step to the next retired instruction", func() {
		Expect(d.Exec("stepi")).To(Succeed())
		Expect(c.Stats().Instructions).To(Equal(uint64(1)))
		Expect(out.String()).To(ContainSubstring("addi x10, x0, 5"))
	})

	It("should run to completion", func() {
		Expect(d.Exec("run")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("halted: ecall (exit code 5)"))

		out.Reset()
		Expect(d.Exec("continue")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("halted: ecall"))
	})

	It("should stop at a breakpoint", func() {
		Expect(d.Exec("break 0x8")).To(Succeed())
		Expect(d.Exec("run")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("breakpoint hit at cycle 3"))

		Expect(d.Exec("clear")).To(Succeed())
		Expect(d.Exec("run")).To(Succeed())
		Expect(c.Halted()).To(BeTrue())
	})

	It("should print registers by ABI name", func() {
		Expect(d.Exec("run")).To(Succeed())
		out.Reset()

		Expect(d.Exec("regs")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("x10  a0   0x00000005"))
		Expect(out.String()).To(ContainSubstring("x11  a1   0x00000006"))
	})

	It("should print the pipeline latches", func() {
		Expect(d.Exec("step 2")).To(Succeed())
		out.Reset()

		Expect(d.Exec("pipeline")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("IF/ID  0x00000004  addi x11, x10, 1"))
		Expect(out.String()).To(ContainSubstring("ID/EX  0x00000000  addi x10, x0, 5"))
		Expect(out.String()).To(ContainSubstring("EX/MEM bubble"))
	})

	It("should dump data memory", func() {
		Expect(d.Exec("run")).To(Succeed())
		out.Reset()

		Expect(d.Exec("mem 0x40 4")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("0x00000040:"))
		Expect(out.String()).To(ContainSubstring("06 00 00 00"))
	})

	It("should reject out-of-bounds dumps", func() {
		Expect(d.Exec("mem 0xFFFFFF00 4")).To(HaveOccurred())
		Expect(d.Exec("mem")).To(HaveOccurred())
	})

	It("should print the trace", func() {
		Expect(d.Exec("run")).To(Succeed())
		out.Reset()

		Expect(d.Exec("trace 2")).To(Succeed())
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		Expect(lines).To(HaveLen(2))
		Expect(lines[0]).To(ContainSubstring("addi x11, x10, 1"))
		Expect(lines[1]).To(ContainSubstring("sw x11, 64(x0)"))
	})

	It("should reset the program", func() {
		Expect(d.Exec("run")).To(Succeed())
		Expect(d.Exec("reset")).To(Succeed())

		Expect(c.Halted()).To(BeFalse())
		Expect(c.Stats().Cycles).To(BeZero())
		Expect(out.String()).To(ContainSubstring("reset to 0x00000000"))
	})

	It("should write the machine state as a graph", func() {
		path := filepath.Join(GinkgoT().TempDir(), "state.dot")

		Expect(d.Exec("step 3")).To(Succeed())
		Expect(d.Exec("memviz " + path)).To(Succeed())

		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring("digraph"))
		Expect(out.String()).To(ContainSubstring("wrote " + path))
	})

	It("should report a graph file that cannot be written", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "state.dot")

		Expect(d.Exec("memviz " + path)).To(HaveOccurred())
		Expect(out.String()).NotTo(ContainSubstring("wrote"))
	})

	It("should report bad commands", func() {
		Expect(d.Exec("frobnicate")).To(MatchError(ContainSubstring("unknown command")))
		Expect(d.Exec("step x")).To(HaveOccurred())
		Expect(d.Exec("break")).To(HaveOccurred())
		Expect(d.Exec("")).To(Succeed())
	})

	It("should pause a running program on a keypress", func() {
		Expect(c.LoadWords([]uint32{insts.EncodeJAL(0, 0)})).To(Succeed())

		d.watchKeys = func(stop <-chan struct{}, pause func()) {
			pause()
			<-stop
		}

		Expect(d.Exec("run")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("paused at cycle"))
		Expect(c.Halted()).To(BeFalse())
	})

	It("should read commands until quit", func() {
		in := strings.NewReader("step 4\nbogus\nquit\nstep\n")

		Expect(d.Loop(in)).To(Succeed())
		Expect(c.Stats().Cycles).To(Equal(uint64(4)))
		Expect(out.String()).To(ContainSubstring(`error: unknown command "bogus"`))
	})
})

var _ = Describe("Address parsing", func() {
	DescribeTable("parseAddr",
		func(s string, want uint32) {
			Expect(parseAddr(s)).To(Equal(want))
		},
		Entry("decimal", "64", uint32(64)),
		Entry("hex", "0x1000", uint32(0x1000)),
		Entry("max", "0xFFFFFFFF", uint32(0xFFFFFFFF)),
	)

	It("should reject addresses beyond 32 bits", func() {
		_, err := parseAddr("0x100000000")
		Expect(err).To(HaveOccurred())
	})
})
