package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/san-kum/phypno/internal/anat"
	"github.com/san-kum/phypno/internal/config"
	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

const defaultMaxApprox = 3

var (
	errNoFreesurfer = errors.New("server: no freesurfer directory configured")
	errNoStore      = errors.New("server: no dataset store configured")
)

type RegionResponse struct {
	Label  string `json:"label"`
	Approx int    `json:"approx"`
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request) {
	if s.freesurfer == nil {
		writeError(w, http.StatusServiceUnavailable, errNoFreesurfer)
		return
	}
	q := r.URL.Query()

	var coord [3]float64
	for i, key := range []string{"x", "y", "z"} {
		v, err := strconv.ParseFloat(q.Get(key), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid %s: %q", key, q.Get(key)))
			return
		}
		coord[i] = v
	}
	maxApprox := defaultMaxApprox
	if raw := q.Get("max_approx"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid max_approx: %q", raw))
			return
		}
		maxApprox = v
	}

	var opts []anat.Option
	if parc := q.Get("parc"); parc != "" {
		opts = append(opts, anat.WithParcellation(parc))
	}
	if ex := q.Get("exclude"); ex != "" {
		opts = append(opts, anat.WithExclude(strings.Split(ex, ",")...))
	}

	label, approx, err := s.freesurfer.FindBrainRegion(coord, maxApprox, opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, anat.ErrInvalidArgument) || errors.Is(err, anat.ErrUnknownParcellation) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, RegionResponse{Label: label, Approx: approx})
}

type LUTEntry struct {
	Index int        `json:"index"`
	Label string     `json:"label"`
	RGBA  [4]float64 `json:"rgba"`
}

func (s *Server) handleLUT(w http.ResponseWriter, r *http.Request) {
	if s.freesurfer == nil {
		writeError(w, http.StatusServiceUnavailable, errNoFreesurfer)
		return
	}
	idx, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	lut := s.freesurfer.LUT
	label, ok := lut.LabelOf(idx)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("index %d not in lookup table", idx))
		return
	}
	rgba, _ := lut.ColorOf(idx)
	writeJSON(w, http.StatusOK, LUTEntry{Index: idx, Label: label, RGBA: rgba})
}

// DataSummary describes a generated dataset without its values.
type DataSummary struct {
	DataType  string            `json:"datatype"`
	NTrial    int               `json:"n_trial"`
	SFreq     float64           `json:"s_freq"`
	Shape     []int             `json:"shape"`
	AxisLen   map[string]int    `json:"axis_len"`
	Chan      []string          `json:"chan"`
	Stats     []data.ChanStats  `json:"stats,omitempty"`
	Options   *simulate.Options `json:"options,omitempty"`
	DatasetID string            `json:"dataset_id,omitempty"`
}

func summarize(d *data.Data) DataSummary {
	sum := DataSummary{
		DataType: string(d.Type),
		NTrial:   d.NumTrial(),
		SFreq:    d.SFreq,
		AxisLen:  make(map[string]int),
	}
	if d.NumTrial() == 0 {
		return sum
	}
	sum.Shape = d.Trials[0].Shape()
	for _, name := range d.Type.Axes() {
		if ax, err := d.AxisOf(name, 0); err == nil {
			sum.AxisLen[name] = ax.Len()
		}
	}
	sum.Chan, _ = d.ChanNames(0)
	if d.Type == data.ChanTime {
		sum.Stats, _ = d.Summary(0)
	}
	return sum
}

// SimulateRequest is the body of POST /api/simulate. Preset is applied
// first; SaveAs stores the result when a store is configured.
type SimulateRequest struct {
	simulate.Options
	Preset string `json:"preset,omitempty"`
	SaveAs string `json:"save_as,omitempty"`
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	opts := req.Options
	if req.Preset != "" {
		p := config.GetPreset(req.Preset)
		if p == nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown preset: %s", req.Preset))
			return
		}
		opts = mergeOptions(*p, req.Options)
	}

	d, err := s.registry.Create(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	sum := summarize(d)
	sum.Options = &opts
	if req.SaveAs != "" {
		if s.store == nil {
			writeError(w, http.StatusServiceUnavailable, errNoStore)
			return
		}
		id, err := s.store.Save(d, req.SaveAs, storage.WithOptions(opts))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		sum.DatasetID = id
		s.logger.Info("saved dataset", "id", id)
	}
	writeJSON(w, http.StatusOK, sum)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, data.ErrUnknownDataType),
		errors.Is(err, data.ErrInvalidLimits),
		errors.Is(err, simulate.ErrInvalidArgument),
		errors.Is(err, simulate.ErrUnknownSignal):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// mergeOptions overlays the non-zero fields of o on base.
func mergeOptions(base, o simulate.Options) simulate.Options {
	if o.DataType != "" {
		base.DataType = o.DataType
	}
	if o.NTrial != 0 {
		base.NTrial = o.NTrial
	}
	if o.Time != nil {
		base.Time = o.Time
	}
	if o.Freq != nil {
		base.Freq = o.Freq
	}
	if o.Chan != nil {
		base.Chan = o.Chan
	}
	if o.NChan != 0 {
		base.NChan = o.NChan
	}
	if o.SFreq != 0 {
		base.SFreq = o.SFreq
	}
	if o.FreqStep != 0 {
		base.FreqStep = o.FreqStep
	}
	if o.Signal != "" {
		base.Signal = o.Signal
	}
	if o.Amplitude != 0 {
		base.Amplitude = o.Amplitude
	}
	if o.SineFreq != 0 {
		base.SineFreq = o.SineFreq
	}
	if o.Color != 0 {
		base.Color = o.Color
	}
	if o.Seed != 0 {
		base.Seed = o.Seed
	}
	if !o.StartTime.IsZero() {
		base.StartTime = o.StartTime
	}
	return base
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]simulate.Options, len(config.Presets))
	for _, name := range config.ListPresets() {
		out[name] = *config.GetPreset(name)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	sets, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleDataset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	meta, err := s.store.Load(mux.Vars(r)["id"])
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, errNoStore)
		return
	}
	id := mux.Vars(r)["id"]
	if err := s.store.Delete(id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	s.logger.Info("deleted dataset", "id", id)
	w.WriteHeader(http.StatusNoContent)
}
