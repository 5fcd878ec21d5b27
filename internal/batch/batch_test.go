package batch

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/san-kum/phypno/internal/simulate"
	"github.com/san-kum/phypno/internal/storage"
)

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "night.yaml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "night" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Freq == nil || sc.Steps[1].Freq.End != 20 {
		t.Errorf("freq limits not parsed: %+v", sc.Steps[1].Freq)
	}
}

func TestStepOptions(t *testing.T) {
	opts, err := Step{Preset: "eeg", NChan: 2, Seed: 3}.Options()
	if err != nil {
		t.Fatal(err)
	}
	if opts.DataType != "ChanTime" || opts.NChan != 2 || opts.Seed != 3 {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Time == nil || opts.Time.End != 30 {
		t.Errorf("preset time lost: %+v", opts.Time)
	}

	if _, err := (Step{Preset: "bogus"}).Options(); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(filepath.Join("testdata", "night.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, st)
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID == "" || results[1].ID != "" || results[2].ID == "" {
		t.Errorf("unexpected ids: %q %q %q", results[0].ID, results[1].ID, results[2].ID)
	}
	if got := results[1].Data.Trials[0].Shape(); got[0] != 4 || got[1] != 20 {
		t.Errorf("unexpected spectrum shape %v", got)
	}
	if got := results[2].Data.Trials[0].Shape(); got[0] != 2 || got[1] != 512 {
		t.Errorf("unexpected eeg shape %v", got)
	}

	sets, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(sets) != 2 {
		t.Errorf("expected 2 saved datasets, got %d", len(sets))
	}
}

func TestRunScenarioStopsOnError(t *testing.T) {
	sc := &Scenario{Steps: []Step{{}, {DataType: "xxx"}, {}}}
	results, err := RunScenario(context.Background(), sc, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if len(results) != 1 {
		t.Errorf("expected 1 completed step, got %d", len(results))
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := RunScenario(ctx, &Scenario{Steps: []Step{{}}}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRunSweep(t *testing.T) {
	r := &Runner{Registry: simulate.NewRegistry()}
	res, err := r.RunSweep(context.Background(), &Sweep{
		Base:     simulate.Options{Signal: "sine", NChan: 1},
		Param:    "amplitude",
		Min:      1,
		Max:      3,
		NumSteps: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 {
		t.Fatalf("expected 3 results, got %d", len(res))
	}
	if res[1].Value != 2 {
		t.Errorf("expected middle value 2, got %v", res[1].Value)
	}
	if !(res[0].Std < res[1].Std && res[1].Std < res[2].Std) {
		t.Errorf("std should grow with amplitude: %+v", res)
	}

	if _, err := r.RunSweep(context.Background(), &Sweep{Param: "nope", NumSteps: 1}); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("expected ErrUnknownParam, got %v", err)
	}
	if _, err := r.RunSweep(context.Background(), &Sweep{Param: "color", NumSteps: 0}); !errors.Is(err, ErrInvalidSweep) {
		t.Errorf("expected ErrInvalidSweep, got %v", err)
	}
}
