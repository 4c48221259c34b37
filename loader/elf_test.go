package loader_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/rv32sim/insts"
	"github.com/sarchlab/rv32sim/loader"
)

type testSegment struct {
	addr    uint32
	data    []byte
	memSize uint32
	flags   uint32
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
	})

	code := wordsToBytes(
		insts.EncodeADDI(10, 0, 42),
		insts.EncodeECALL(),
	)

	Describe("LoadELF", func() {
		Context("with a valid RV32 ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeRV32ELF(elfPath, 0x80, []testSegment{
					{addr: 0x80, data: code, memSize: uint32(len(code)), flags: 0x5},
				})
			})

			It("should extract the entry point", func() {
				prog, err := loader.LoadELF(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Entry).To(Equal(uint32(0x80)))
			})

			It("should load the code segment", func() {
				prog, err := loader.LoadELF(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.Addr).To(Equal(uint32(0x80)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Executable()).To(BeTrue())
				Expect(seg.Flags & loader.SegmentFlagRead).NotTo(BeZero())
			})

			It("should expose the text as instruction words", func() {
				prog, err := loader.LoadELF(elfPath)
				Expect(err).NotTo(HaveOccurred())

				base, words := prog.Text()
				Expect(base).To(Equal(uint32(0x80)))
				Expect(words).To(Equal([]uint32{
					insts.EncodeADDI(10, 0, 42),
					insts.EncodeECALL(),
				}))
			})

			It("should be detected by Load", func() {
				prog, err := loader.Load(elfPath, 0x1000)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Entry).To(Equal(uint32(0x80)))
			})
		})

		It("should load code and data segments", func() {
			elfPath := filepath.Join(tempDir, "multi.elf")
			data := []byte{1, 2, 3, 4}
			writeRV32ELF(elfPath, 0, []testSegment{
				{addr: 0, data: code, memSize: uint32(len(code)), flags: 0x5},
				{addr: 0x10000, data: data, memSize: 64, flags: 0x6},
			})

			prog, err := loader.LoadELF(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			dataSeg := prog.Segments[1]
			Expect(dataSeg.Addr).To(Equal(uint32(0x10000)))
			Expect(dataSeg.Data).To(Equal(data))
			Expect(dataSeg.MemSize).To(Equal(uint32(64)))
			Expect(dataSeg.Executable()).To(BeFalse())
			Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})

		It("should parse from a reader", func() {
			elfPath := filepath.Join(tempDir, "reader.elf")
			writeRV32ELF(elfPath, 0, []testSegment{
				{addr: 0, data: code, memSize: uint32(len(code)), flags: 0x5},
			})
			raw, err := os.ReadFile(elfPath)
			Expect(err).NotTo(HaveOccurred())

			prog, err := loader.ParseELF(bytes.NewReader(raw))
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		Context("with an invalid file", func() {
			It("should fail for a missing file", func() {
				_, err := loader.LoadELF("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should reject other machines", func() {
				elfPath := filepath.Join(tempDir, "x86.elf")
				writeELF32(elfPath, 3, 0, nil)

				_, err := loader.LoadELF(elfPath)
				Expect(err).To(MatchError(ContainSubstring("not a RISC-V")))
			})

			It("should reject 64-bit files", func() {
				elfPath := filepath.Join(tempDir, "elf64.elf")
				writeMinimalELF64(elfPath)

				_, err := loader.LoadELF(elfPath)
				Expect(err).To(MatchError(ContainSubstring("not a 32-bit")))
			})

			It("should reject files without loadable segments", func() {
				elfPath := filepath.Join(tempDir, "empty.elf")
				writeRV32ELF(elfPath, 0, nil)

				_, err := loader.LoadELF(elfPath)
				Expect(err).To(MatchError(ContainSubstring("no loadable segments")))
			})
		})
	})
})

func wordsToBytes(words ...uint32) []byte {
	out := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func writeRV32ELF(path string, entry uint32, segs []testSegment) {
	writeELF32(path, 243, entry, segs)
}

// writeELF32 writes a little-endian ELF32 executable with one PT_LOAD
// program header per segment and no section headers.
func writeELF32(path string, machine uint16, entry uint32, segs []testSegment) {
	const ehsize, phentsize = 52, 32

	header := make([]byte, ehsize)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 1 // ELFCLASS32
	header[5] = 1 // little endian
	header[6] = 1 // version

	binary.LittleEndian.PutUint16(header[16:18], 2) // executable
	binary.LittleEndian.PutUint16(header[18:20], machine)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint32(header[24:28], entry)
	binary.LittleEndian.PutUint32(header[28:32], ehsize)
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))
	binary.LittleEndian.PutUint16(header[46:48], 40)

	var buf bytes.Buffer
	buf.Write(header)

	offset := uint32(ehsize + phentsize*len(segs))
	for _, s := range segs {
		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], 1) // PT_LOAD
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], s.addr)
		binary.LittleEndian.PutUint32(ph[12:16], s.addr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data)))
		binary.LittleEndian.PutUint32(ph[20:24], s.memSize)
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)
		buf.Write(ph)
		offset += uint32(len(s.data))
	}

	for _, s := range segs {
		buf.Write(s.data)
	}

	Expect(os.WriteFile(path, buf.Bytes(), 0644)).To(Succeed())
}

func writeMinimalELF64(path string) {
	header := make([]byte, 64)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2                                     // 64-bit
	header[5] = 1                                     // little endian
	header[6] = 1                                     // version
	binary.LittleEndian.PutUint16(header[16:18], 2)   // executable
	binary.LittleEndian.PutUint16(header[18:20], 243) // RISC-V
	binary.LittleEndian.PutUint32(header[20:24], 1)   // version
	binary.LittleEndian.PutUint64(header[32:40], 64)  // phoff
	binary.LittleEndian.PutUint16(header[52:54], 64)  // ehsize
	binary.LittleEndian.PutUint16(header[54:56], 56)  // phentsize

	Expect(os.WriteFile(path, header, 0644)).To(Succeed())
}
