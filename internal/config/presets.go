package config

import (
	"bytes"
	"embed"
	"fmt"
	"sort"

	"github.com/san-kum/windsim/internal/params"
)

//go:embed presets/*.csv
var presetFS embed.FS

// Presets maps preset names to their embedded parameter files.
var Presets = map[string]string{
	"ball":    "presets/ball.csv",
	"turbine": "presets/turbine.csv",
	"gust":    "presets/gust.csv",
}

func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPreset returns the raw parameter file of a preset, or nil when the
// name is unknown.
func GetPreset(name string) []byte {
	path, ok := Presets[name]
	if !ok {
		return nil
	}
	data, err := presetFS.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}

// LoadPreset parses a preset into a parameter store without a backing
// file, so write-backs stay in memory.
func LoadPreset(name string) (*params.Store, error) {
	data := GetPreset(name)
	if data == nil {
		return nil, fmt.Errorf("unknown preset %q", name)
	}
	return params.Load(bytes.NewReader(data))
}

// OpenParams loads the parameter store the configuration points at.
func (c *Config) OpenParams() (*params.Store, error) {
	if c.Preset != "" {
		return LoadPreset(c.Preset)
	}
	return params.LoadFile(c.Params)
}
