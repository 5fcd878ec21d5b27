package config

import (
	"sort"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
)

var Presets = map[string]simulate.Options{
	"eeg": {
		DataType: "ChanTime", NTrial: 1, NChan: 19, SFreq: 256,
		Time: &data.Limits{Start: 0, End: 30}, Signal: "random", Color: 1,
	},
	"spectrum": {
		DataType: "ChanFreq", NTrial: 10, SFreq: 256,
		Freq: &data.Limits{Start: 0, End: 50}, FreqStep: 0.5, Signal: "random", Color: 1,
	},
	"tfr": {
		DataType: "ChanTimeFreq", NTrial: 5, SFreq: 128,
		Time: &data.Limits{Start: 0, End: 2}, Freq: &data.Limits{Start: 1, End: 40}, Signal: "random",
	},
	"sine10": {
		DataType: "ChanTime", NTrial: 1, SFreq: 256,
		Time: &data.Limits{Start: 0, End: 4}, Signal: "sine", SineFreq: 10,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *simulate.Options {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	if p.Time != nil {
		t := *p.Time
		p.Time = &t
	}
	if p.Freq != nil {
		f := *p.Freq
		p.Freq = &f
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
