package config

import (
	"sort"
	"testing"
)

// Every shipped preset must survive validation once resolved.
func TestPresetsAllValid(t *testing.T) {
	for problem, byName := range Presets {
		for name := range byName {
			cfg := GetPreset(problem, name)
			if cfg == nil {
				t.Fatalf("GetPreset(%q, %q) returned nil for a listed preset", problem, name)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("preset %s/%s does not validate: %v", problem, name, err)
			}
			if cfg.Problem != problem {
				t.Errorf("preset %s/%s names problem %q", problem, name, cfg.Problem)
			}
		}
	}
}

func TestGetPresetUnknown(t *testing.T) {
	if GetPreset("cold_collapse", "nope") != nil {
		t.Error("unknown preset name should return nil")
	}
	if GetPreset("nope", "quick") != nil {
		t.Error("unknown problem should return nil")
	}
}

func TestGetPresetReturnsCopy(t *testing.T) {
	a := GetPreset("kepler", "orbit")
	a.N = 999
	b := GetPreset("kepler", "orbit")
	if b.N == 999 {
		t.Error("GetPreset must not expose shared state")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets("plummer")
	sort.Strings(names)
	want := []string{"fast", "large", "small"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("got %v, want %v", names, want)
		}
	}
	if ListPresets("unknown") != nil {
		t.Error("unknown problem should list nil")
	}
}
