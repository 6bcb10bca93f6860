package config

// Presets are named, validated starting points per problem. Each preset
// fills only the fields it cares about; Resolve layers it over the
// defaults.
var Presets = map[string]map[string]*Config{
	"cold_collapse": {
		"quick": {
			Problem: "cold_collapse", Scheme: "leapfrog", N: 32, Eps: 0.1,
			Dt: 5e-4, Duration: 4.0, SampleInterval: 0.05,
		},
		"virial": {
			Problem: "cold_collapse", Scheme: "leapfrog", N: 128, Eps: 0.05,
			Dt: 2.5e-4, Duration: 8.0, SampleInterval: 0.05,
		},
		"hermite": {
			Problem: "cold_collapse", Scheme: "hermite", N: 64, Eps: 0.05,
			Eta: 0.02, DtMax: DefaultDtMax, DtMin: DefaultDtMin,
			Duration: 6.0, SampleInterval: 0.05,
		},
	},
	"kepler": {
		"orbit": {
			Problem: "kepler", Scheme: "leapfrog", Eps: 1e-5,
			Dt: 1e-3, Duration: 12.566, SampleInterval: 0.1,
		},
		"precision": {
			Problem: "kepler", Scheme: "hermite", Eps: 1e-5,
			Eta: 0.01, DtMax: DefaultDtMax, DtMin: DefaultDtMin,
			Duration: 62.832, SampleInterval: 0.25,
		},
	},
	"plummer": {
		"small": {
			Problem: "plummer", Scheme: "hermite", N: 64, Eps: 0.05,
			Eta: 0.02, DtMax: DefaultDtMax, DtMin: DefaultDtMin,
			Duration: 10.0, SampleInterval: 0.1,
		},
		"large": {
			Problem: "plummer", Scheme: "hermite", N: 512, Eps: 0.02,
			Eta: 0.02, DtMax: DefaultDtMax, DtMin: DefaultDtMin,
			Duration: 10.0, SampleInterval: 0.1,
		},
		"fast": {
			Problem: "plummer", Scheme: "leapfrog", N: 256, Eps: 0.05,
			Dt: 1e-3, Duration: 5.0, SampleInterval: 0.1,
		},
	},
	"ring": {
		"stable": {
			Problem: "ring", Scheme: "leapfrog", N: 24, Eps: 0.02,
			Dt: 5e-4, Duration: 20.0, SampleInterval: 0.1,
		},
	},
}

// GetPreset resolves a named preset over the defaults. Returns nil when
// the problem or preset name is unknown.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return resolve(cfg)
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	return names
}

// resolve copies the preset and backfills zero-valued knobs the preset
// left unspecified.
func resolve(p *Config) *Config {
	cfg := *p
	def := DefaultConfig()
	if cfg.Eps == 0 {
		cfg.Eps = def.Eps
	}
	if cfg.Scheme == "hermite" {
		if cfg.Eta == 0 {
			cfg.Eta = def.Eta
		}
		if cfg.DtMax == 0 {
			cfg.DtMax = def.DtMax
		}
		if cfg.DtMin == 0 {
			cfg.DtMin = def.DtMin
		}
	} else if cfg.Dt == 0 {
		cfg.Dt = def.Dt
	}
	if cfg.Duration == 0 {
		cfg.Duration = def.Duration
	}
	if cfg.MaxStalls == 0 {
		cfg.MaxStalls = def.MaxStalls
	}
	if cfg.Precision == (PrecisionConfig{}) {
		cfg.Precision = def.Precision
	}
	cfg.Potential = true
	return &cfg
}
