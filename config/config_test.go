package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/v7sim/config"
)

var _ = Describe("MachineConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should provide valid defaults", func() {
		c := config.DefaultMachineConfig()

		Expect(c.Validate()).To(Succeed())
		Expect(c.RAMSize).To(Equal(uint64(128 * 1024 * 1024)))
		Expect(c.DecodeCacheSets).To(Equal(4096))
	})

	It("should round-trip through a file", func() {
		c := config.DefaultMachineConfig()
		c.RAMBase = 0x80000000
		c.Semihosting = true
		c.NMFI = true
		path := filepath.Join(dir, "machine.json")

		Expect(c.SaveConfig(path)).To(Succeed())
		loaded, err := config.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(c))
	})

	It("should keep defaults for missing fields", func() {
		path := filepath.Join(dir, "partial.json")
		Expect(os.WriteFile(path, []byte(`{"semihosting": true}`), 0644)).To(Succeed())

		c, err := config.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(c.Semihosting).To(BeTrue())
		Expect(c.RAMSize).To(Equal(config.DefaultMachineConfig().RAMSize))
		Expect(c.Timing.DivideLatency).To(Equal(uint64(12)))
	})

	It("should report unreadable and malformed files", func() {
		_, err := config.LoadConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read machine config file")))

		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())
		_, err = config.LoadConfig(path)
		Expect(err).To(MatchError(ContainSubstring("failed to parse machine config")))
	})

	DescribeTable("Validate",
		func(mutate func(*config.MachineConfig), message string) {
			c := config.DefaultMachineConfig()
			mutate(c)
			Expect(c.Validate()).To(MatchError(ContainSubstring(message)))
		},
		Entry("zero RAM", func(c *config.MachineConfig) { c.RAMSize = 0 }, "ram_size"),
		Entry("RAM past 4 GiB", func(c *config.MachineConfig) {
			c.RAMBase = 0xF0000000
			c.RAMSize = 0x20000000
		}, "4 GiB"),
		Entry("cache without ways", func(c *config.MachineConfig) { c.DecodeCacheWays = 0 }, "decode_cache_ways"),
		Entry("unknown log level", func(c *config.MachineConfig) { c.LogLevel = "loud" }, "log_level"),
		Entry("zero load latency", func(c *config.MachineConfig) { c.Timing.LoadLatency = 0 }, "timing: load_latency"),
	)

	It("should parse the log level", func() {
		c := config.DefaultMachineConfig()
		c.LogLevel = "debug"

		level, err := c.Level()

		Expect(err).NotTo(HaveOccurred())
		Expect(level).To(Equal(logrus.DebugLevel))
	})

	It("should clone independently", func() {
		c := config.DefaultMachineConfig()
		clone := c.Clone()
		clone.RAMSize = 1

		Expect(c.RAMSize).NotTo(Equal(uint64(1)))
	})
})
