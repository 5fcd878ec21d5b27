// Package storage persists simulated datasets on disk, one directory per
// dataset holding metadata.json and trials.bin.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
)

const (
	metadataFile = "metadata.json"
	trialsFile   = "trials.bin"
)

var ErrNotFound = errors.New("storage: dataset not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Dir() string { return s.baseDir }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// AxisRecord is the on-disk form of one trial axis.
type AxisRecord struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values,omitempty"`
	Labels []string  `json:"labels,omitempty"`
}

type DatasetMetadata struct {
	ID        string                  `json:"id"`
	Name      string                  `json:"name"`
	Timestamp time.Time               `json:"timestamp"`
	DataType  string                  `json:"datatype"`
	SFreq     float64                 `json:"s_freq"`
	StartTime time.Time               `json:"start_time"`
	NTrial    int                     `json:"n_trial"`
	Shape     []int                   `json:"shape,omitempty"`
	Axes      map[string][]AxisRecord `json:"axes"`
	Options   *simulate.Options       `json:"options,omitempty"`
}

type SaveOption func(*DatasetMetadata)

// WithOptions records the generator options alongside the dataset.
func WithOptions(o simulate.Options) SaveOption {
	return func(m *DatasetMetadata) { m.Options = &o }
}

func newID(name string) string {
	name = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '-'
		}
		return r
	}, name)
	if name == "" {
		name = "dataset"
	}
	return fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
}

// Save writes d under a new id derived from name and returns the id.
func (s *Store) Save(d *data.Data, name string, opts ...SaveOption) (string, error) {
	if err := d.Validate(); err != nil {
		return "", err
	}
	id := newID(name)
	dir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := DatasetMetadata{
		ID:        id,
		Name:      name,
		Timestamp: time.Now(),
		DataType:  string(d.Type),
		SFreq:     d.SFreq,
		StartTime: d.StartTime,
		NTrial:    d.NumTrial(),
		Axes:      make(map[string][]AxisRecord, len(d.Axis)),
	}
	if d.NumTrial() > 0 {
		meta.Shape = d.Trials[0].Shape()
	}
	for axName, axes := range d.Axis {
		recs := make([]AxisRecord, len(axes))
		for i, ax := range axes {
			recs[i] = AxisRecord{Name: ax.Name, Values: ax.Values, Labels: ax.Labels}
		}
		meta.Axes[axName] = recs
	}
	for _, opt := range opts {
		opt(&meta)
	}

	// metadata goes last so List never sees a dataset without trials.
	err := writeFile(filepath.Join(dir, trialsFile), func(w io.Writer) error {
		return writeTrials(w, d.Trials)
	})
	if err == nil {
		err = writeFile(filepath.Join(dir, metadataFile), func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(meta)
		})
	}
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("%s: %w", id, err)
	}
	return id, nil
}

// createFile is swapped in tests to inject write failures.
var createFile = func(path string) (io.WriteCloser, error) { return os.Create(path) }

func writeFile(path string, write func(io.Writer) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// validID rejects ids that would escape the store directory.
func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// List returns the metadata of every stored dataset, newest first.
// Directories without readable metadata are skipped.
func (s *Store) List() ([]DatasetMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []DatasetMetadata{}, nil
		}
		return nil, err
	}

	sets := make([]DatasetMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		sets = append(sets, *meta)
	}
	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].Timestamp.After(sets[j].Timestamp)
	})
	return sets, nil
}

func (s *Store) Load(id string) (*DatasetMetadata, error) {
	if !validID(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	raw, err := os.ReadFile(filepath.Join(s.baseDir, id, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta DatasetMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &meta, nil
}

// LoadData reconstructs the full dataset.
func (s *Store) LoadData(id string) (*data.Data, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	dt, err := data.ParseDataType(meta.DataType)
	if err != nil {
		return nil, err
	}

	if meta.NTrial < 0 {
		return nil, fmt.Errorf("%s: %w: %d trials", id, ErrCorrupt, meta.NTrial)
	}
	trialAxes := make([][]data.Axis, meta.NTrial)
	shapes := make([][]int, meta.NTrial)
	for i := range trialAxes {
		for _, name := range dt.Axes() {
			recs := meta.Axes[name]
			if i >= len(recs) {
				return nil, fmt.Errorf("%s: %w: no %s axis for trial %d", id, data.ErrDimensionMismatch, name, i)
			}
			ax := data.Axis{Name: recs[i].Name, Values: recs[i].Values, Labels: recs[i].Labels}
			trialAxes[i] = append(trialAxes[i], ax)
			shapes[i] = append(shapes[i], ax.Len())
		}
	}

	f, err := os.Open(filepath.Join(s.baseDir, id, trialsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	trials, err := readTrials(f, shapes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	d := data.New(dt, meta.SFreq, meta.StartTime)
	for i, trial := range trials {
		if err := d.AddTrial(trial, trialAxes[i]...); err != nil {
			return nil, fmt.Errorf("%s: trial %d: %w", id, i, err)
		}
	}
	return d, nil
}

// Delete removes a dataset directory.
func (s *Store) Delete(id string) error {
	if !validID(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	dir := filepath.Join(s.baseDir, id)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return os.RemoveAll(dir)
}
