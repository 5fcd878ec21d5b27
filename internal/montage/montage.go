// Package montage groups channels for display: which channels to plot,
// which to use as reference, and the filter, scale and color of each group.
package montage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/spectral"
)

var (
	ErrInvalidGroup = errors.New("montage: invalid group")
	ErrNotChanTime  = errors.New("montage: data is not ChanTime")
	ErrInvalidColor = errors.New("montage: invalid color")
)

// Group is one entry of a montage file. A nil HP or LP disables that side
// of the filter; Color is a 32-bit ARGB value.
type Group struct {
	Name       string   `json:"name"`
	ChanToPlot []string `json:"chan_to_plot"`
	RefChan    []string `json:"ref_chan"`
	HP         *float64 `json:"hp"`
	LP         *float64 `json:"lp"`
	Scale      float64  `json:"scale"`
	Color      uint32   `json:"color"`
}

// Defaults are applied to groups created with NewGroup.
type Defaults struct {
	HP    float64
	LP    float64
	Scale float64
	Color string
}

// NewGroup returns an empty group carrying the default filter, scale and
// color. A zero cutoff in the defaults leaves that side unfiltered.
func NewGroup(name string, def Defaults) (Group, error) {
	color, err := ParseColor(def.Color)
	if err != nil {
		return Group{}, err
	}
	g := Group{
		Name:       name,
		ChanToPlot: []string{},
		RefChan:    []string{},
		Scale:      def.Scale,
		Color:      color,
	}
	if def.HP > 0 {
		hp := def.HP
		g.HP = &hp
	}
	if def.LP > 0 {
		lp := def.LP
		g.LP = &lp
	}
	if g.Scale == 0 {
		g.Scale = 1
	}
	return g, nil
}

// ParseColor accepts "#rrggbb", "#aarrggbb" or a decimal ARGB value.
// Six-digit colors are fully opaque.
func ParseColor(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0xff000000, nil
	}
	if strings.HasPrefix(s, "#") {
		hex := s[1:]
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		switch len(hex) {
		case 6:
			return 0xff000000 | uint32(v), nil
		case 8:
			return uint32(v), nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return uint32(v), nil
}

// HexColor formats the RGB part of an ARGB value as "#rrggbb".
func HexColor(argb uint32) string {
	return fmt.Sprintf("#%06x", argb&0xffffff)
}

func (g Group) cutoffs() (hp, lp float64) {
	if g.HP != nil {
		hp = *g.HP
	}
	if g.LP != nil {
		lp = *g.LP
	}
	return hp, lp
}

// Validate checks the group against the channels of a dataset.
func (g Group) Validate(chanNames []string) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidGroup)
	}
	known := make(map[string]bool, len(chanNames))
	for _, c := range chanNames {
		known[c] = true
	}
	for _, c := range g.ChanToPlot {
		if !known[c] {
			return fmt.Errorf("%w: %s: unknown channel %q", ErrInvalidGroup, g.Name, c)
		}
	}
	for _, c := range g.RefChan {
		if !known[c] {
			return fmt.Errorf("%w: %s: unknown reference channel %q", ErrInvalidGroup, g.Name, c)
		}
	}
	hp, lp := g.cutoffs()
	if hp < 0 || lp < 0 {
		return fmt.Errorf("%w: %s: negative cutoff", ErrInvalidGroup, g.Name)
	}
	if hp > 0 && lp > 0 && lp <= hp {
		return fmt.Errorf("%w: %s: lp %g <= hp %g", ErrInvalidGroup, g.Name, lp, hp)
	}
	if g.Scale < 0 {
		return fmt.Errorf("%w: %s: negative scale", ErrInvalidGroup, g.Name)
	}
	return nil
}

// Ordered returns the plotted channels in dataset order, whatever order they
// were selected in.
func (g Group) Ordered(chanNames []string) []string {
	want := make(map[string]bool, len(g.ChanToPlot))
	for _, c := range g.ChanToPlot {
		want[c] = true
	}
	out := make([]string, 0, len(g.ChanToPlot))
	for _, c := range chanNames {
		if want[c] {
			out = append(out, c)
		}
	}
	return out
}

// Rereference uses the average of the plotted channels as reference.
func (g *Group) Rereference() {
	g.RefChan = append([]string(nil), g.ChanToPlot...)
}

func Load(path string) ([]Group, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var groups []Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return groups, nil
}

func Save(path string, groups []Group) error {
	raw, err := json.MarshalIndent(groups, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0644)
}

// Trace is the result of applying one group to one trial.
type Trace struct {
	Group  string
	Color  uint32
	Chan   []string
	Time   []float64
	Values data.Array
}

// Apply re-references, filters and scales every group for every trial.
// The result is indexed by group, then trial.
func Apply(d *data.Data, groups []Group) ([][]Trace, error) {
	if d.Type != data.ChanTime {
		return nil, fmt.Errorf("%w: %s", ErrNotChanTime, d.Type)
	}
	out := make([][]Trace, len(groups))
	for gi, g := range groups {
		out[gi] = make([]Trace, d.NumTrial())
		for trial := 0; trial < d.NumTrial(); trial++ {
			tr, err := applyTrial(d, g, trial)
			if err != nil {
				return nil, err
			}
			out[gi][trial] = tr
		}
	}
	return out, nil
}

func applyTrial(d *data.Data, g Group, trial int) (Trace, error) {
	names, err := d.ChanNames(trial)
	if err != nil {
		return Trace{}, err
	}
	times, err := d.AxisValues(data.AxisTime, trial)
	if err != nil {
		return Trace{}, err
	}
	if err := g.Validate(names); err != nil {
		return Trace{}, err
	}

	index := make(map[string]int, len(names))
	for i, n := range names {
		index[n] = i
	}
	arr := d.Trials[trial]

	ref := make([]float64, len(times))
	if len(g.RefChan) > 0 {
		for _, c := range g.RefChan {
			row := arr.Row(index[c])
			for i, v := range row {
				ref[i] += v
			}
		}
		for i := range ref {
			ref[i] /= float64(len(g.RefChan))
		}
	}

	chans := g.Ordered(names)
	hp, lp := g.cutoffs()
	vals := data.NewArray(len(chans), len(times))
	sig := make([]float64, len(times))
	for ci, c := range chans {
		row := arr.Row(index[c])
		for i, v := range row {
			sig[i] = v - ref[i]
		}
		filtered, err := spectral.BandPass(sig, d.SFreq, hp, lp)
		if err != nil {
			return Trace{}, fmt.Errorf("%s: %w", g.Name, err)
		}
		for i, v := range filtered {
			vals.Set(v*g.Scale, ci, i)
		}
	}
	return Trace{
		Group:  g.Name,
		Color:  g.Color,
		Chan:   chans,
		Time:   append([]float64(nil), times...),
		Values: vals,
	}, nil
}
