package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/golang/snappy"

	"github.com/san-kum/phypno/internal/data"
)

// trials.bin is a snappy stream of frames, one per trial:
// uint32 ndims, ndims x uint32 dims, then the values as float64, all
// little-endian.

const maxDims = 8

// maxFrameValues bounds a single decoded trial.
const maxFrameValues = 1 << 27

var ErrCorrupt = errors.New("storage: corrupt trials file")

func writeTrials(w io.Writer, trials []data.Array) error {
	sw := snappy.NewBufferedWriter(w)
	for _, trial := range trials {
		shape := trial.Shape()
		if err := binary.Write(sw, binary.LittleEndian, uint32(len(shape))); err != nil {
			return err
		}
		for _, n := range shape {
			if err := binary.Write(sw, binary.LittleEndian, uint32(n)); err != nil {
				return err
			}
		}
		buf := make([]byte, 8*trial.Len())
		for i, v := range trial.Values() {
			binary.LittleEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
		if _, err := sw.Write(buf); err != nil {
			return err
		}
	}
	return sw.Close()
}

// readTrials decodes one frame per entry of shapes. A frame whose dims differ
// from the expected shape, a missing frame or trailing data is ErrCorrupt.
func readTrials(r io.Reader, shapes [][]int) ([]data.Array, error) {
	sr := snappy.NewReader(r)
	trials := make([]data.Array, 0, len(shapes))
	for i, want := range shapes {
		var ndims uint32
		if err := binary.Read(sr, binary.LittleEndian, &ndims); err != nil {
			return nil, fmt.Errorf("%w: trial %d: %v", ErrCorrupt, i, err)
		}
		if ndims == 0 || ndims > maxDims || int(ndims) != len(want) {
			return nil, fmt.Errorf("%w: trial %d: %d dims, want %d", ErrCorrupt, i, ndims, len(want))
		}
		dims := make([]uint32, ndims)
		if err := binary.Read(sr, binary.LittleEndian, dims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		size := 1
		for k, n := range dims {
			if int(n) != want[k] {
				return nil, fmt.Errorf("%w: trial %d: shape %v, want %v", ErrCorrupt, i, dims, want)
			}
			size *= want[k]
			if size > maxFrameValues {
				return nil, fmt.Errorf("%w: trial %d: shape %v too large", ErrCorrupt, i, want)
			}
		}

		buf := make([]byte, 8*size)
		if _, err := io.ReadFull(sr, buf); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		values := make([]float64, size)
		for k := range values {
			values[k] = math.Float64frombits(binary.LittleEndian.Uint64(buf[8*k:]))
		}
		arr, err := data.FromValues(values, want...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		trials = append(trials, arr)
	}

	var extra [1]byte
	if n, _ := sr.Read(extra[:]); n > 0 {
		return nil, fmt.Errorf("%w: more trials than recorded", ErrCorrupt)
	}
	return trials, nil
}
