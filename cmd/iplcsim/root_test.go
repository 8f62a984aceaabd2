package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/iplcsim/config"
)

const twoAdds = "400000 add $1, $2, $3\n400004 add $4, $5, $6\n"

var _ = Describe("Root Command", func() {
	var (
		tempDir string
		trace   string
		out     *bytes.Buffer
	)

	run := func(in string, args ...string) error {
		cmd := newRootCmd()
		cmd.SetIn(strings.NewReader(in))
		cmd.SetOut(out)
		cmd.SetArgs(append(args, "--env-file", filepath.Join(tempDir, "missing.env")))
		return cmd.Execute()
	}

	BeforeEach(func() {
		tempDir = GinkgoT().TempDir()
		trace = filepath.Join(tempDir, "trace.txt")
		Expect(os.WriteFile(trace, []byte(twoAdds), 0o644)).To(Succeed())
		out = &bytes.Buffer{}
	})

	It("should simulate a trace and print the report", func() {
		Expect(run("", trace)).To(Succeed())

		text := out.String()
		Expect(text).To(ContainSubstring("Cache Configuration"))
		Expect(text).To(ContainSubstring("Index: 10 bits or 1024 lines"))
		Expect(text).To(ContainSubstring("Number of Cache Accesses is 2"))
		Expect(text).To(ContainSubstring("Total Cycles is 25"))
		Expect(text).To(ContainSubstring("Total Instructions is 2"))
	})

	It("should take the cache geometry from flags", func() {
		Expect(run("", "--trace", trace, "--index", "7", "--block", "4", "--assoc", "2")).
			To(Succeed())

		Expect(out.String()).To(ContainSubstring("Index: 7 bits or 128 lines"))
		Expect(out.String()).To(ContainSubstring("Associativity: 2"))
	})

	It("should print JSON without the banner", func() {
		Expect(run("", trace, "--json")).To(Succeed())

		var doc map[string]any
		Expect(json.Unmarshal(out.Bytes(), &doc)).To(Succeed())
		Expect(doc).To(HaveKeyWithValue("cpi", 12.5))
		Expect(out.String()).NotTo(ContainSubstring("Cache Configuration"))
	})

	It("should prompt for the run in interactive mode", func() {
		Expect(run(trace+"\n10 1 1\n1\n", "--interactive")).To(Succeed())

		text := out.String()
		Expect(text).To(ContainSubstring("Please enter the tracefile: "))
		Expect(text).To(ContainSubstring("Enter Cache Size (index), Blocksize and Level of Assoc"))
		Expect(text).To(ContainSubstring("Total Cycles is 25"))
	})

	It("should fail without a trace", func() {
		Expect(run("")).To(MatchError(ContainSubstring("no trace file")))
	})

	It("should reject an oversized cache", func() {
		err := run("", trace, "--index", "14", "--block", "4", "--assoc", "8")
		Expect(err).To(MatchError(ContainSubstring("cache too big")))
	})

	It("should stop at a malformed line", func() {
		bad := filepath.Join(tempDir, "bad.txt")
		Expect(os.WriteFile(bad, []byte("400000 nop\n400004 mult $2, $3\n"), 0o644)).
			To(Succeed())

		Expect(run("", bad)).To(MatchError(ContainSubstring("bad.txt")))
	})

	It("should record events to CSV", func() {
		base := filepath.Join(tempDir, "events")
		Expect(run("", trace, "--trace-output", "csv", "--trace-output-path", base)).
			To(Succeed())

		data, err := os.ReadFile(base + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.Count(string(data), "INST")).To(Equal(2))
		Expect(out.String()).To(ContainSubstring("Trace written to " + base + ".csv"))
	})

	Describe("buildConfig", func() {
		It("should let flags override the config file", func() {
			path := filepath.Join(tempDir, "run.yaml")
			Expect(os.WriteFile(path,
				[]byte("cache:\n  indexBits: 6\n  blockWords: 2\n  associativity: 4\npredictTaken: true\n"),
				0o644)).To(Succeed())

			cmd := newRootCmd()
			Expect(cmd.ParseFlags([]string{
				"--config", path,
				"--env-file", filepath.Join(tempDir, "missing.env"),
				"--assoc", "2",
			})).To(Succeed())

			cfg, err := buildConfig(cmd, []string{trace})
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Trace).To(Equal(trace))
			Expect(cfg.Cache.IndexBits).To(Equal(6))
			Expect(cfg.Cache.BlockWords).To(Equal(2))
			Expect(cfg.Cache.Associativity).To(Equal(2))
			Expect(cfg.PredictTaken).To(BeTrue())
		})

		It("should apply the env file under the flags", func() {
			envFile := filepath.Join(tempDir, "sim.env")
			Expect(os.WriteFile(envFile,
				[]byte("IPLCSIM_INDEX_BITS=8\nIPLCSIM_CACHE_MISS_DELAY=20\n"), 0o644)).
				To(Succeed())

			cmd := newRootCmd()
			Expect(cmd.ParseFlags([]string{"--env-file", envFile, "--miss-delay", "5"})).
				To(Succeed())

			cfg, err := buildConfig(cmd, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Cache.IndexBits).To(Equal(8))
			Expect(cfg.Timing.CacheMissDelay).To(Equal(uint64(5)))
		})
	})

	Describe("prompt", func() {
		It("should fill the run configuration", func() {
			cfg := config.DefaultConfig()
			var buf bytes.Buffer

			Expect(prompt(strings.NewReader("t.txt 7 4 2 0"), &buf, cfg)).To(Succeed())
			Expect(cfg.Trace).To(Equal("t.txt"))
			Expect(cfg.Cache.IndexBits).To(Equal(7))
			Expect(cfg.Cache.BlockWords).To(Equal(4))
			Expect(cfg.Cache.Associativity).To(Equal(2))
			Expect(cfg.PredictTaken).To(BeFalse())
		})

		It("should fail on a short answer", func() {
			cfg := config.DefaultConfig()
			Expect(prompt(strings.NewReader("t.txt 7"), &bytes.Buffer{}, cfg)).
				To(MatchError(ContainSubstring("cache parameters")))
		})
	})
})
