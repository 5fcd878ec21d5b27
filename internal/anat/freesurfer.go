package anat

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Parcellations maps a parcellation name to its atlas file under <dir>/mri.
var Parcellations = map[string]string{
	"aparc":        "aparc+aseg.labels",
	"aparc.a2009s": "aparc.a2009s+aseg.labels",
	"aseg":         "aseg.labels",
}

const DefaultParcellation = "aparc"

// Freesurfer is one subject directory together with its lookup table.
// Atlases load on first use. A Freesurfer is safe for concurrent use.
type Freesurfer struct {
	Dir string
	LUT *LUT

	logger  *log.Logger
	mu      sync.Mutex
	atlases map[string]*Atlas
}

// NewFreesurfer opens a subject directory and loads the lookup table from
// lutPath, or from home when lutPath is empty.
func NewFreesurfer(dir, home, lutPath string) (*Freesurfer, error) {
	lut, err := ImportLUT(home, lutPath)
	if err != nil {
		return nil, err
	}
	return NewFreesurferWithLUT(dir, lut)
}

// NewFreesurferWithLUT opens a subject directory with an already loaded table.
func NewFreesurferWithLUT(dir string, lut *LUT) (*Freesurfer, error) {
	if dir == "" {
		return nil, fmt.Errorf("freesurfer directory: %w", fs.ErrNotExist)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: not a directory: %w", dir, fs.ErrNotExist)
	}
	if lut == nil {
		return nil, fmt.Errorf("%w: nil lookup table", ErrInvalidArgument)
	}
	return &Freesurfer{
		Dir:     dir,
		LUT:     lut,
		logger:  log.Default(),
		atlases: make(map[string]*Atlas),
	}, nil
}

func (f *Freesurfer) SetLogger(l *log.Logger) {
	if l != nil {
		f.logger = l
	}
}

// Atlas returns the labeled volume of a parcellation, loading it once.
func (f *Freesurfer) Atlas(parc string) (*Atlas, error) {
	name, ok := Parcellations[parc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParcellation, parc)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if a, ok := f.atlases[parc]; ok {
		return a, nil
	}

	path := filepath.Join(f.Dir, "mri", name)
	a, err := ReadAtlasFile(path)
	if err != nil {
		return nil, err
	}
	for idx := range a.Indices() {
		if _, ok := f.LUT.LabelOf(idx); !ok {
			return nil, fmt.Errorf("%s: %w: %d", path, ErrUnknownIndex, idx)
		}
	}
	f.logger.Debug("loaded atlas", "parc", parc, "voxels", a.Len())
	f.atlases[parc] = a
	return a, nil
}

type searchOptions struct {
	parc    string
	exclude []string
}

// Option configures FindBrainRegion.
type Option func(*searchOptions)

func WithParcellation(parc string) Option {
	return func(o *searchOptions) { o.parc = parc }
}

// WithExclude skips regions whose label contains any of the substrings.
func WithExclude(substrings ...string) Option {
	return func(o *searchOptions) { o.exclude = append(o.exclude, substrings...) }
}

// FindBrainRegion returns the label nearest to coord and the Chebyshev radius
// at which it was found. NotFound with approx == maxApprox is returned when no
// region lies within maxApprox.
func (f *Freesurfer) FindBrainRegion(coord [3]float64, maxApprox int, opts ...Option) (string, int, error) {
	if maxApprox < 0 || maxApprox > MaxApprox {
		return "", 0, fmt.Errorf("%w: max_approx %d outside [0, %d]", ErrInvalidArgument, maxApprox, MaxApprox)
	}
	o := searchOptions{parc: DefaultParcellation}
	for _, opt := range opts {
		opt(&o)
	}

	atlas, err := f.Atlas(o.parc)
	if err != nil {
		return "", 0, err
	}

	var accept func(int) bool
	if len(o.exclude) > 0 {
		accept = func(idx int) bool {
			label, _ := f.LUT.LabelOf(idx)
			for _, s := range o.exclude {
				if strings.Contains(label, s) {
					return false
				}
			}
			return true
		}
	}

	idx, approx, ok := atlas.Nearest(VoxelOf(coord), maxApprox, accept)
	if !ok {
		return NotFound, approx, nil
	}
	label, _ := f.LUT.LabelOf(idx)
	return label, approx, nil
}
