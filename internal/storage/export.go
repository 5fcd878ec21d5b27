package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/san-kum/phypno/internal/data"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// ExportCSV writes one trial with a row per time (or frequency) sample and a
// column per channel. ChanTimeFreq trials get one row per time and frequency
// pair.
func ExportCSV(w io.Writer, d *data.Data, trial int) error {
	if trial < 0 || trial >= d.NumTrial() {
		return fmt.Errorf("%w: %d of %d", data.ErrTrialRange, trial, d.NumTrial())
	}
	chans, err := d.ChanNames(trial)
	if err != nil {
		return err
	}
	arr := d.Trials[trial]

	cw := csv.NewWriter(w)
	switch d.Type {
	case data.ChanTime, data.ChanFreq:
		axis := data.AxisTime
		if d.Type == data.ChanFreq {
			axis = data.AxisFreq
		}
		xs, err := d.AxisValues(axis, trial)
		if err != nil {
			return err
		}
		if err := cw.Write(append([]string{axis}, chans...)); err != nil {
			return err
		}
		row := make([]string, len(chans)+1)
		for i, x := range xs {
			row[0] = formatFloat(x)
			for c := range chans {
				row[c+1] = formatFloat(arr.At(c, i))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	case data.ChanTimeFreq:
		times, err := d.AxisValues(data.AxisTime, trial)
		if err != nil {
			return err
		}
		freqs, err := d.AxisValues(data.AxisFreq, trial)
		if err != nil {
			return err
		}
		if err := cw.Write(append([]string{data.AxisTime, data.AxisFreq}, chans...)); err != nil {
			return err
		}
		row := make([]string, len(chans)+2)
		for ti, t := range times {
			for fi, f := range freqs {
				row[0] = formatFloat(t)
				row[1] = formatFloat(f)
				for c := range chans {
					row[c+2] = formatFloat(arr.At(c, ti, fi))
				}
				if err := cw.Write(row); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("%w: %q", data.ErrUnknownDataType, d.Type)
	}
	cw.Flush()
	return cw.Error()
}

type ExportTrial struct {
	Shape  []int                 `json:"shape"`
	Axes   map[string]AxisRecord `json:"axes"`
	Values []float64             `json:"values"`
}

type ExportData struct {
	DataType  string        `json:"datatype"`
	SFreq     float64       `json:"s_freq"`
	StartTime time.Time     `json:"start_time"`
	NTrial    int           `json:"n_trial"`
	Trials    []ExportTrial `json:"trials"`
}

func NewExportData(d *data.Data) ExportData {
	out := ExportData{
		DataType:  string(d.Type),
		SFreq:     d.SFreq,
		StartTime: d.StartTime,
		NTrial:    d.NumTrial(),
		Trials:    make([]ExportTrial, d.NumTrial()),
	}
	for i, trial := range d.Trials {
		axes := make(map[string]AxisRecord, len(d.Axis))
		for _, name := range d.Type.Axes() {
			if ax, err := d.AxisOf(name, i); err == nil {
				axes[name] = AxisRecord{Name: ax.Name, Values: ax.Values, Labels: ax.Labels}
			}
		}
		out.Trials[i] = ExportTrial{
			Shape:  trial.Shape(),
			Axes:   axes,
			Values: trial.Values(),
		}
	}
	return out
}

// ExportJSON writes the whole dataset as indented JSON; values are
// row-major.
func ExportJSON(w io.Writer, d *data.Data) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(d))
}
