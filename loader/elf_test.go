package loader_test

import (
	"encoding/binary"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/loader"
	"github.com/sarchlab/v7sim/memory"
)

// testSegment describes one PT_LOAD entry written by writeELF32.
type testSegment struct {
	vaddr   uint32
	data    []byte
	memSize uint32
	flags   uint32 // PF_X=1, PF_W=2, PF_R=4
	typ     uint32 // 1 = PT_LOAD
}

var _ = Describe("ELF Loader", func() {
	var tempDir string

	// mov r0, #42 ; bx lr
	code := []byte{
		0x2a, 0x00, 0xa0, 0xe3,
		0x1e, 0xff, 0x2f, 0xe1,
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "elf-loader-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid ARM ELF binary", func() {
			var elfPath string

			BeforeEach(func() {
				elfPath = filepath.Join(tempDir, "test.elf")
				writeELF32(elfPath, 40, 0x8004, []testSegment{
					{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 5, typ: 1},
				})
			})

			It("should extract the correct entry point", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.EntryPoint).To(Equal(uint32(0x8004)))
			})

			It("should load segment contents and permissions", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.Segments).To(HaveLen(1))

				seg := prog.Segments[0]
				Expect(seg.VirtAddr).To(Equal(uint32(0x8000)))
				Expect(seg.Data).To(Equal(code))
				Expect(seg.Flags & loader.SegmentFlagExecute).NotTo(BeZero())
				Expect(seg.Flags & loader.SegmentFlagWrite).To(BeZero())
			})

			It("should set up the default stack pointer", func() {
				prog, err := loader.Load(elfPath)
				Expect(err).NotTo(HaveOccurred())
				Expect(prog.InitialSP).To(Equal(uint32(loader.DefaultStackTop)))
			})
		})

		Context("with an invalid file", func() {
			It("should return error for non-existent file", func() {
				_, err := loader.Load("/nonexistent/path/to/file.elf")
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("failed to open"))
			})

			It("should return error for non-ELF file", func() {
				notElfPath := filepath.Join(tempDir, "not-elf.bin")
				Expect(os.WriteFile(notElfPath, []byte("not an elf file"), 0644)).To(Succeed())

				_, err := loader.Load(notElfPath)
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("ELF"))
			})

			It("should return error for empty file", func() {
				emptyPath := filepath.Join(tempDir, "empty.elf")
				Expect(os.WriteFile(emptyPath, []byte{}, 0644)).To(Succeed())

				_, err := loader.Load(emptyPath)
				Expect(err).To(HaveOccurred())
			})
		})

		It("should reject a 32-bit x86 ELF", func() {
			elfPath := filepath.Join(tempDir, "x86.elf")
			writeELF32(elfPath, 3, 0x8000, nil)

			_, err := loader.Load(elfPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not an ARM"))
		})

		It("should reject a 64-bit ELF", func() {
			elfPath := filepath.Join(tempDir, "elf64.elf")
			writeELF64Header(elfPath)

			_, err := loader.Load(elfPath)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("not a 32-bit"))
		})
	})

	Describe("Multi-segment ELFs", func() {
		It("should load code, data and BSS segments", func() {
			elfPath := filepath.Join(tempDir, "multi.elf")
			data := []byte{0x01, 0x02, 0x03, 0x04}
			writeELF32(elfPath, 40, 0x8000, []testSegment{
				{vaddr: 0x8000, data: code, memSize: uint32(len(code)), flags: 5, typ: 1},
				{vaddr: 0x10000, data: data, memSize: 1024, flags: 6, typ: 1},
				{vaddr: 0x20000, memSize: 0, flags: 4, typ: 4},
			})

			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.Segments).To(HaveLen(2))

			dataSeg := prog.Segments[1]
			Expect(dataSeg.VirtAddr).To(Equal(uint32(0x10000)))
			Expect(dataSeg.Data).To(Equal(data))
			Expect(dataSeg.MemSize).To(Equal(uint32(1024)))
			Expect(dataSeg.Flags & loader.SegmentFlagWrite).NotTo(BeZero())
		})
	})

	Describe("LoadInto", func() {
		It("should copy segments and clear the BSS tail", func() {
			elfPath := filepath.Join(tempDir, "bss.elf")
			writeELF32(elfPath, 40, 0x8000, []testSegment{
				{vaddr: 0x8000, data: code, memSize: 16, flags: 7, typ: 1},
			})
			prog, err := loader.Load(elfPath)
			Expect(err).NotTo(HaveOccurred())

			ram := memory.NewRAM(0, 0x10000)
			Expect(ram.StoreWord(0x8008, 0xDEADBEEF)).To(Succeed())
			Expect(prog.LoadInto(ram)).To(Succeed())

			w, err := ram.LoadWord(0x8000)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(uint32(0xE3A0002A)))

			w, err = ram.LoadWord(0x8008)
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(BeZero())
		})

		It("should fail when a segment lies outside memory", func() {
			prog := &loader.Program{Segments: []loader.Segment{
				{VirtAddr: 0x20000, Data: code, MemSize: uint32(len(code))},
			}}
			err := prog.LoadInto(memory.NewRAM(0, 0x10000))
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("0x20000"))
		})
	})

	Describe("LoadRaw", func() {
		It("should load a flat image at the given base", func() {
			path := filepath.Join(tempDir, "image.bin")
			Expect(os.WriteFile(path, code, 0644)).To(Succeed())

			prog, err := loader.LoadRaw(path, 0x10000)
			Expect(err).NotTo(HaveOccurred())
			Expect(prog.EntryPoint).To(Equal(uint32(0x10000)))
			Expect(prog.Segments).To(HaveLen(1))
			Expect(prog.Segments[0].Data).To(Equal(code))
		})

		It("should reject an image that wraps the address space", func() {
			path := filepath.Join(tempDir, "image.bin")
			Expect(os.WriteFile(path, code, 0644)).To(Succeed())

			_, err := loader.LoadRaw(path, 0xFFFFFFFC)
			Expect(err).To(HaveOccurred())
		})

		It("should report a missing file", func() {
			_, err := loader.LoadRaw(filepath.Join(tempDir, "missing.bin"), 0)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("failed to read"))
		})
	})
})

// writeELF32 writes a little-endian ELF32 executable with one program
// header per segment and the segment bytes laid out after the headers.
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
	binary.LittleEndian.PutUint32(header[28:32], ehsize) // phoff
	binary.LittleEndian.PutUint16(header[40:42], ehsize)
	binary.LittleEndian.PutUint16(header[42:44], phentsize)
	binary.LittleEndian.PutUint16(header[44:46], uint16(len(segs)))

	offset := uint32(ehsize + phentsize*len(segs))
	phdrs := make([]byte, 0, phentsize*len(segs))
	var body []byte
	for _, s := range segs {
		ph := make([]byte, phentsize)
		binary.LittleEndian.PutUint32(ph[0:4], s.typ)
		binary.LittleEndian.PutUint32(ph[4:8], offset)
		binary.LittleEndian.PutUint32(ph[8:12], s.vaddr)
		binary.LittleEndian.PutUint32(ph[12:16], s.vaddr)
		binary.LittleEndian.PutUint32(ph[16:20], uint32(len(s.data)))
		binary.LittleEndian.PutUint32(ph[20:24], s.memSize)
		binary.LittleEndian.PutUint32(ph[24:28], s.flags)
		binary.LittleEndian.PutUint32(ph[28:32], 4)
		phdrs = append(phdrs, ph...)
		body = append(body, s.data...)
		offset += uint32(len(s.data))
	}

	out := append(append(header, phdrs...), body...)
	Expect(os.WriteFile(path, out, 0644)).To(Succeed())
}

// writeELF64Header writes an AArch64 ELF64 header with no segments.
func writeELF64Header(path string) {
	header := make([]byte, 64)
	copy(header[0:4], []byte{0x7f, 'E', 'L', 'F'})
	header[4] = 2 // ELFCLASS64
	header[5] = 1
	header[6] = 1
	binary.LittleEndian.PutUint16(header[16:18], 2)
	binary.LittleEndian.PutUint16(header[18:20], 183)
	binary.LittleEndian.PutUint32(header[20:24], 1)
	binary.LittleEndian.PutUint16(header[52:54], 64)
	binary.LittleEndian.PutUint16(header[54:56], 56)
	Expect(os.WriteFile(path, header, 0644)).To(Succeed())
}
