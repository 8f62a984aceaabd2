package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/timing/latency"
)

var _ = Describe("TimingConfig", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("should default to a 10-cycle miss delay", func() {
		config := latency.DefaultTimingConfig()

		Expect(config.CacheMissDelay).To(Equal(uint64(10)))
		Expect(config.MissPenalty()).To(Equal(uint64(9)))
		Expect(config.HazardStallCycles).To(Equal(uint64(1)))
	})

	It("should round-trip through JSON", func() {
		path := filepath.Join(dir, "timing.json")
		config := &latency.TimingConfig{CacheMissDelay: 20, HazardStallCycles: 2}

		Expect(config.SaveConfig(path)).To(Succeed())
		loaded, err := latency.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should round-trip through YAML", func() {
		path := filepath.Join(dir, "timing.yaml")
		config := &latency.TimingConfig{CacheMissDelay: 4, HazardStallCycles: 0}

		Expect(config.SaveConfig(path)).To(Succeed())
		loaded, err := latency.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should keep defaults for fields missing from the file", func() {
		path := filepath.Join(dir, "partial.json")
		Expect(os.WriteFile(path, []byte(`{"cache_miss_delay": 30}`), 0644)).To(Succeed())

		loaded, err := latency.LoadConfig(path)

		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.CacheMissDelay).To(Equal(uint64(30)))
		Expect(loaded.HazardStallCycles).To(Equal(uint64(1)))
	})

	It("should reject a zero miss delay", func() {
		path := filepath.Join(dir, "zero.yml")
		Expect(os.WriteFile(path, []byte("cacheMissDelay: 0\n"), 0644)).To(Succeed())

		_, err := latency.LoadConfig(path)

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("cache_miss_delay must be > 0"))
	})

	It("should report a missing file", func() {
		_, err := latency.LoadConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(MatchError(ContainSubstring("failed to read timing config file")))
	})

	It("should clone independently", func() {
		config := latency.DefaultTimingConfig()
		clone := config.Clone()
		clone.CacheMissDelay = 99

		Expect(config.CacheMissDelay).To(Equal(uint64(10)))
	})
})
