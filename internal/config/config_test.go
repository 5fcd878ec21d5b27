package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/phypno/internal/simulate"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Simulate.DataType != "ChanTime" {
		t.Errorf("expected datatype ChanTime, got %s", cfg.Simulate.DataType)
	}
	if cfg.Simulate.SFreq <= 0 {
		t.Error("s_freq should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phypno.yaml")
	content := `
freesurfer:
  home: /opt/freesurfer
simulate:
  n_trial: 4
overview:
  window_length: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Freesurfer.Home != "/opt/freesurfer" {
		t.Errorf("home = %q", cfg.Freesurfer.Home)
	}
	if cfg.Simulate.NTrial != 4 {
		t.Errorf("n_trial = %d", cfg.Simulate.NTrial)
	}
	if cfg.Simulate.SFreq != simulate.DefaultSFreq {
		t.Errorf("s_freq default lost: %v", cfg.Simulate.SFreq)
	}
	if cfg.Overview.WindowLength != 10 || cfg.Overview.WindowStep != DefaultWindowStep {
		t.Errorf("overview = %+v", cfg.Overview)
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("overview:\n  window_length: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", err)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want not-exist", err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	cfg := DefaultConfig()
	cfg.Server.Addr = ":9999"
	cfg.Channels.Color = "#ff0000"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":9999" || got.Channels.Color != "#ff0000" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset("eeg")
	if p == nil {
		t.Fatal("expected preset, got nil")
	}
	if p.NChan != 19 {
		t.Errorf("expected 19 channels, got %d", p.NChan)
	}
	p.Time.End = 1
	if Presets["eeg"].Time.End != 30 {
		t.Error("GetPreset must not alias the preset table")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestPresetsGenerate(t *testing.T) {
	for _, name := range ListPresets() {
		p := GetPreset(name)
		d, err := simulate.CreateData(*p)
		if err != nil {
			t.Errorf("preset %s: %v", name, err)
			continue
		}
		if d.NumTrial() != p.NTrial {
			t.Errorf("preset %s: %d trials, want %d", name, d.NumTrial(), p.NTrial)
		}
	}
}
