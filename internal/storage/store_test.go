package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/snappy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	st := New(t.TempDir())
	require.NoError(t, st.Init())
	return st
}

func TestStoreSaveLoad(t *testing.T) {
	st := newStore(t)
	opts := simulate.Options{NTrial: 3, Seed: 42}
	d, err := simulate.CreateData(opts)
	require.NoError(t, err)

	id, err := st.Save(d, "night one", WithOptions(opts))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "night-one_"))
	assert.Len(t, id, len("night-one_")+8)

	meta, err := st.Load(id)
	require.NoError(t, err)
	assert.Equal(t, "night one", meta.Name)
	assert.Equal(t, "ChanTime", meta.DataType)
	assert.Equal(t, 3, meta.NTrial)
	assert.Equal(t, []int{8, 256}, meta.Shape)
	require.NotNil(t, meta.Options)
	assert.Equal(t, int64(42), meta.Options.Seed)

	back, err := st.LoadData(id)
	require.NoError(t, err)
	require.NoError(t, back.Validate())
	assert.Equal(t, d.Type, back.Type)
	assert.Equal(t, d.SFreq, back.SFreq)
	assert.True(t, d.StartTime.Equal(back.StartTime))
	require.Equal(t, d.NumTrial(), back.NumTrial())
	for i := range d.Trials {
		assert.Equal(t, d.Trials[i].Shape(), back.Trials[i].Shape())
		assert.Equal(t, d.Trials[i].Values(), back.Trials[i].Values())
	}
	chans, err := back.ChanNames(2)
	require.NoError(t, err)
	assert.Equal(t, simulate.ChanNames(8), chans)
}

func TestStoreTimeFreqRoundTrip(t *testing.T) {
	st := newStore(t)
	d, err := simulate.CreateData(simulate.Options{
		DataType: "ChanTimeFreq",
		NTrial:   2,
		Time:     &data.Limits{Start: 0, End: 0.25},
		Freq:     &data.Limits{Start: 0, End: 4},
	})
	require.NoError(t, err)

	id, err := st.Save(d, "tfr")
	require.NoError(t, err)
	back, err := st.LoadData(id)
	require.NoError(t, err)
	assert.Equal(t, d.Trials[1].Values(), back.Trials[1].Values())
	freqs, err := back.AxisValues(data.AxisFreq, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, freqs)
}

func TestStoreEmptyDataset(t *testing.T) {
	st := newStore(t)
	d := data.New(data.ChanTime, 100, simulate.DefaultStartTime)

	id, err := st.Save(d, "empty")
	require.NoError(t, err)
	back, err := st.LoadData(id)
	require.NoError(t, err)
	assert.Equal(t, 0, back.NumTrial())
}

func TestStoreList(t *testing.T) {
	st := newStore(t)

	sets, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, sets)

	d, err := simulate.CreateData(simulate.Options{})
	require.NoError(t, err)
	_, err = st.Save(d, "a")
	require.NoError(t, err)
	_, err = st.Save(d, "b")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(st.Dir(), "junk"), 0755))

	sets, err = st.List()
	require.NoError(t, err)
	assert.Len(t, sets, 2)

	missing := New(filepath.Join(t.TempDir(), "nope"))
	sets, err = missing.List()
	require.NoError(t, err)
	assert.Empty(t, sets)
}

func TestStoreFileStructure(t *testing.T) {
	st := newStore(t)
	d, err := simulate.CreateData(simulate.Options{})
	require.NoError(t, err)

	id, err := st.Save(d, "test")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(st.Dir(), id, "metadata.json"))
	assert.FileExists(t, filepath.Join(st.Dir(), id, "trials.bin"))
}

func TestStoreNotFound(t *testing.T) {
	st := newStore(t)
	_, err := st.Load("missing_00000000")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.LoadData("missing_00000000")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete("missing_00000000"), ErrNotFound)
}

func TestStoreDelete(t *testing.T) {
	st := newStore(t)
	d, err := simulate.CreateData(simulate.Options{})
	require.NoError(t, err)
	id, err := st.Save(d, "gone")
	require.NoError(t, err)

	require.NoError(t, st.Delete(id))
	assert.NoDirExists(t, filepath.Join(st.Dir(), id))
}

func TestStoreCorruptTrials(t *testing.T) {
	st := newStore(t)
	d, err := simulate.CreateData(simulate.Options{})
	require.NoError(t, err)
	id, err := st.Save(d, "bad")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), id, "trials.bin"), []byte("garbage"), 0644))
	_, err = st.LoadData(id)
	assert.Error(t, err)
}

type failingCloser struct{ io.Writer }

func (failingCloser) Close() error { return errors.New("disk full") }

func TestStoreSaveCleansUpOnFailure(t *testing.T) {
	d, err := simulate.CreateData(simulate.Options{NTrial: 2})
	require.NoError(t, err)

	orig := createFile
	t.Cleanup(func() { createFile = orig })

	cases := map[string]func(path string) (io.WriteCloser, error){
		"create metadata": func(path string) (io.WriteCloser, error) {
			if filepath.Base(path) == metadataFile {
				return nil, errors.New("no space")
			}
			return os.Create(path)
		},
		"close trials": func(path string) (io.WriteCloser, error) {
			f, err := os.Create(path)
			if err != nil {
				return nil, err
			}
			f.Close()
			var buf bytes.Buffer
			return failingCloser{&buf}, nil
		},
	}
	for name, create := range cases {
		t.Run(name, func(t *testing.T) {
			st := newStore(t)
			createFile = create
			_, err := st.Save(d, "partial")
			createFile = orig
			require.Error(t, err)

			entries, err := os.ReadDir(st.Dir())
			require.NoError(t, err)
			assert.Empty(t, entries, "failed save should leave nothing behind")
		})
	}
}

func writeFrames(t *testing.T, path string, frames ...[]uint32) {
	t.Helper()
	var buf bytes.Buffer
	sw := snappy.NewBufferedWriter(&buf)
	for _, dims := range frames {
		require.NoError(t, binary.Write(sw, binary.LittleEndian, uint32(len(dims))))
		require.NoError(t, binary.Write(sw, binary.LittleEndian, dims))
	}
	require.NoError(t, sw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestStoreRejectsMismatchedFrames(t *testing.T) {
	st := newStore(t)
	d, err := simulate.CreateData(simulate.Options{NChan: 2, SFreq: 4})
	require.NoError(t, err)
	id, err := st.Save(d, "frames")
	require.NoError(t, err)
	path := filepath.Join(st.Dir(), id, "trials.bin")

	for name, dims := range map[string][]uint32{
		"huge":      {2, 4000000000},
		"too large": {1 << 16, 1 << 16},
		"reshaped":  {4, 2},
		"extra dim": {2, 4, 1},
	} {
		writeFrames(t, path, dims)
		_, err := st.LoadData(id)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}

	var buf bytes.Buffer
	require.NoError(t, writeTrials(&buf, append(d.Trials, d.Trials[0])))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	_, err = st.LoadData(id)
	assert.ErrorIs(t, err, ErrCorrupt, "trailing trial")
}

func TestStoreRejectsEscapingIDs(t *testing.T) {
	st := newStore(t)
	for _, id := range []string{"", ".", "..", "../x", `a\b`} {
		_, err := st.Load(id)
		assert.ErrorIs(t, err, ErrNotFound, id)
		assert.ErrorIs(t, st.Delete(id), ErrNotFound, id)
	}
}

func TestExportCSV(t *testing.T) {
	d, err := simulate.CreateData(simulate.Options{NChan: 2, Time: &data.Limits{Start: 0, End: 0.5}, SFreq: 8})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, d, 0))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)
	assert.Equal(t, []string{"time", "chan00", "chan01"}, records[0])
	assert.Equal(t, "0.125000", records[2][0])

	assert.ErrorIs(t, ExportCSV(&buf, d, 1), data.ErrTrialRange)
}

func TestExportCSVTimeFreq(t *testing.T) {
	d, err := simulate.CreateData(simulate.Options{
		DataType: "ChanTimeFreq",
		NChan:    1,
		SFreq:    4,
		Time:     &data.Limits{Start: 0, End: 1},
		Freq:     &data.Limits{Start: 0, End: 2},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, d, 0))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "freq", "chan00"}, records[0])
	assert.Len(t, records, 1+4*2)
}

func TestExportJSON(t *testing.T) {
	d, err := simulate.CreateData(simulate.Options{DataType: "ChanFreq", NTrial: 2})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, d))

	var out ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "ChanFreq", out.DataType)
	assert.Equal(t, 2, out.NTrial)
	require.Len(t, out.Trials, 2)
	assert.Equal(t, d.Trials[1].Shape(), out.Trials[1].Shape)
	assert.Len(t, out.Trials[1].Axes["chan"].Labels, 8)
	assert.Len(t, out.Trials[1].Values, d.Trials[1].Len())
}
