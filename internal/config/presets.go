package config

import "sort"

var Presets = map[string]map[string]*Config{
	"wendyhunt": {
		"default": {
			Problem: "wendyhunt", Iterations: 2000, Tolerance: 1e-4,
			Sparse: false, Verify: true, VerifyTolerance: DefaultVerifyTolerance,
			Grid: GridConfig{NX: DefaultGridX, NY: DefaultGridY},
		},
		"precise": {
			Problem: "wendyhunt", Iterations: 10000, Tolerance: 1e-10,
			Sparse: false, Verify: true, VerifyTolerance: DefaultVerifyTolerance,
			Grid: GridConfig{NX: DefaultGridX, NY: DefaultGridY},
		},
	},
	"gridboi": {
		"small": {
			Problem: "gridboi", Iterations: 2000, Tolerance: 1e-4,
			Sparse: true, Verify: true, VerifyTolerance: DefaultVerifyTolerance,
			Grid: GridConfig{NX: 3, NY: 3},
		},
		"default": {
			Problem: "gridboi", Iterations: 2000, Tolerance: 1e-4,
			Sparse: true, Verify: true, VerifyTolerance: DefaultVerifyTolerance,
			Grid: GridConfig{NX: 5, NY: 5},
		},
		"tight": {
			Problem: "gridboi", Iterations: 5000, Tolerance: 1e-8,
			Sparse: true, Verify: false, VerifyTolerance: DefaultVerifyTolerance,
			Grid: GridConfig{NX: 5, NY: 5},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
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
	sort.Strings(names)
	return names
}
