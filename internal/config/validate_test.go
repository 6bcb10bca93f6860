package config_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gravlab/internal/config"
	"github.com/san-kum/gravlab/internal/precision"
)

var _ = Describe("Validate", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
	})

	It("accepts the defaults", func() {
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects an unknown problem", func() {
		cfg.Problem = "three_body_figure_nine"
		err := cfg.Validate()
		var ce *config.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("problem"))
	})

	It("rejects an unknown scheme", func() {
		cfg.Scheme = "rk4"
		err := cfg.Validate()
		var ce *config.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("scheme"))
	})

	It("rejects a non-positive particle count", func() {
		cfg.N = 0
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	It("allows n to be omitted for the two-body problem", func() {
		cfg.Problem = "kepler"
		cfg.N = 0
		Expect(cfg.Validate()).To(Succeed())
	})

	It("rejects zero softening", func() {
		cfg.Eps = 0
		err := cfg.Validate()
		var ce *config.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("eps"))
	})

	It("requires a positive leapfrog step", func() {
		cfg.Dt = -1e-3
		Expect(cfg.Validate()).To(HaveOccurred())
	})

	Context("with the hermite scheme", func() {
		BeforeEach(func() {
			cfg.Scheme = "hermite"
		})

		It("accepts the defaults", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("requires a positive accuracy parameter", func() {
			cfg.Eta = 0
			Expect(cfg.Validate()).To(HaveOccurred())
		})

		It("rejects inverted block step bounds", func() {
			cfg.DtMin = cfg.DtMax * 2
			err := cfg.Validate()
			var ce *config.ConfigError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Field).To(Equal("dt_min"))
		})

		It("tolerates a zero leapfrog step", func() {
			cfg.Dt = 0
			Expect(cfg.Validate()).To(Succeed())
		})
	})

	It("rejects an unknown precision tier", func() {
		cfg.Precision.Force = "quad"
		err := cfg.Validate()
		var ce *config.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("precision"))
	})

	It("rejects approximate rsqrt outside the low force tier", func() {
		cfg.ApproxRsqrt = true
		err := cfg.Validate()
		var ce *config.ConfigError
		Expect(errors.As(err, &ce)).To(BeTrue())
		Expect(ce.Field).To(Equal("approx_rsqrt"))
	})

	It("accepts approximate rsqrt with the low force tier", func() {
		cfg.ApproxRsqrt = true
		cfg.Precision.Force = "low"
		Expect(cfg.Validate()).To(Succeed())
	})
})

var _ = Describe("Policy", func() {
	It("maps tier names onto the tier enum", func() {
		cfg := config.DefaultConfig()
		cfg.Precision = config.PrecisionConfig{Force: "low", Integrate: "mid", Diagnostics: "high"}
		p, err := cfg.Policy()
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Force).To(Equal(precision.Low))
		Expect(p.Integrate).To(Equal(precision.Mid))
		Expect(p.Diagnostics).To(Equal(precision.High))
	})
})

var _ = Describe("Load and Save", func() {
	It("round-trips a configuration through YAML", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "run.yaml")

		cfg := config.DefaultConfig()
		cfg.Problem = "plummer"
		cfg.Scheme = "hermite"
		cfg.N = 256
		cfg.Eta = 0.01
		cfg.Seed = 42
		Expect(config.Save(path, cfg)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(cfg))
	})

	It("fills unspecified fields from the defaults", func() {
		dir := GinkgoT().TempDir()
		path := filepath.Join(dir, "partial.yaml")
		Expect(os.WriteFile(path, []byte("problem: ring\nn: 12\n"), 0644)).To(Succeed())

		loaded, err := config.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Problem).To(Equal("ring"))
		Expect(loaded.N).To(Equal(12))
		Expect(loaded.Scheme).To(Equal("leapfrog"))
		Expect(loaded.Eps).To(Equal(config.DefaultEps))
	})

	It("reports a missing file", func() {
		_, err := config.Load("/nonexistent/run.yaml")
		Expect(err).To(HaveOccurred())
	})
})
