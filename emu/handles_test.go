package emu_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/v7sim/emu"
)

var _ = Describe("HandleTable", func() {
	var table *emu.HandleTable

	BeforeEach(func() {
		table = emu.NewHandleTable()
	})

	It("should start with the standard streams open", func() {
		for _, h := range []uint32{emu.HandleStdin, emu.HandleStdout, emu.HandleStderr} {
			Expect(table.IsStream(h)).To(BeTrue())
		}
		Expect(table.IsStream(3)).To(BeFalse())
	})

	It("should allocate handles after the standard streams", func() {
		dir := GinkgoT().TempDir()

		h1, err := table.Open(filepath.Join(dir, "a"), os.O_RDWR|os.O_CREATE, 0644)
		Expect(err).NotTo(HaveOccurred())
		h2, err := table.Open(filepath.Join(dir, "b"), os.O_RDWR|os.O_CREATE, 0644)
		Expect(err).NotTo(HaveOccurred())

		Expect(h1).To(Equal(uint32(3)))
		Expect(h2).To(Equal(uint32(4)))
	})

	It("should read, write and seek a host file", func() {
		h, err := table.Open(filepath.Join(GinkgoT().TempDir(), "f"), os.O_RDWR|os.O_CREATE, 0644)
		Expect(err).NotTo(HaveOccurred())

		n, err := table.Write(h, []byte("abcdef"))
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(6))

		length, err := table.Len(h)
		Expect(err).NotTo(HaveOccurred())
		Expect(length).To(Equal(int64(6)))

		Expect(table.Seek(h, 2)).To(Succeed())
		buf := make([]byte, 2)
		n, err = table.Read(h, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("cd"))
	})

	It("should refuse a handle once closed", func() {
		h, err := table.Open(filepath.Join(GinkgoT().TempDir(), "f"), os.O_RDWR|os.O_CREATE, 0644)
		Expect(err).NotTo(HaveOccurred())

		Expect(table.Close(h)).To(Succeed())
		Expect(table.Close(h)).To(MatchError(os.ErrInvalid))
		_, open := table.Get(h)
		Expect(open).To(BeFalse())
	})

	It("should reopen a closed standard stream", func() {
		Expect(table.Close(emu.HandleStdout)).To(Succeed())
		Expect(table.IsStream(emu.HandleStdout)).To(BeFalse())

		Expect(table.Reopen(emu.HandleStdout)).To(Equal(emu.HandleStdout))
		Expect(table.IsStream(emu.HandleStdout)).To(BeTrue())
	})
})
