package anat

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// NotFound is the label returned when no region lies within the search radius.
const NotFound = "--not found--"

// Voxel is an integer position in 1-mm surface-RAS space.
type Voxel [3]int

// VoxelOf rounds a coordinate to the nearest voxel.
func VoxelOf(coord [3]float64) Voxel {
	return Voxel{int(math.Round(coord[0])), int(math.Round(coord[1])), int(math.Round(coord[2]))}
}

// MaxApprox bounds the search radius accepted by FindBrainRegion.
const MaxApprox = 256

// Atlas is a sparse labeled volume mapping voxels to LUT indices.
type Atlas struct {
	labels map[Voxel]int
	// lo and hi bound every voxel ever set; valid once bounded is true.
	lo, hi  Voxel
	bounded bool
}

func NewAtlas() *Atlas {
	return &Atlas{labels: make(map[Voxel]int)}
}

// Set labels a voxel. Index 0 clears it.
func (a *Atlas) Set(v Voxel, index int) {
	if index == 0 {
		delete(a.labels, v)
		return
	}
	a.labels[v] = index
	if !a.bounded {
		a.lo, a.hi, a.bounded = v, v, true
		return
	}
	for i := range v {
		a.lo[i] = min(a.lo[i], v[i])
		a.hi[i] = max(a.hi[i], v[i])
	}
}

// At returns the index at a voxel, 0 for background.
func (a *Atlas) At(v Voxel) int { return a.labels[v] }

func (a *Atlas) Len() int { return len(a.labels) }

// Indices returns the distinct region indices present.
func (a *Atlas) Indices() map[int]bool {
	out := make(map[int]bool)
	for _, idx := range a.labels {
		out[idx] = true
	}
	return out
}

// reach is the Chebyshev radius around v beyond which no labeled voxel lies,
// -1 for an empty atlas.
func (a *Atlas) reach(v Voxel) int {
	if !a.bounded || len(a.labels) == 0 {
		return -1
	}
	r := 0
	for i := range v {
		r = max(r, abs(v[i]-a.lo[i]), abs(v[i]-a.hi[i]))
	}
	return r
}

// Nearest returns the lowest accepted index at the smallest Chebyshev radius
// r <= maxApprox around v. ok is false when nothing qualifies, in which case
// approx is maxApprox.
func (a *Atlas) Nearest(v Voxel, maxApprox int, accept func(index int) bool) (index, approx int, ok bool) {
	limit := min(maxApprox, a.reach(v))
	for r := 0; r <= limit; r++ {
		best := 0
		found := false
		shell(r, func(dx, dy, dz int) {
			idx := a.labels[Voxel{v[0] + dx, v[1] + dy, v[2] + dz}]
			if idx == 0 || (accept != nil && !accept(idx)) {
				return
			}
			if !found || idx < best {
				best, found = idx, true
			}
		})
		if found {
			return best, r, true
		}
	}
	return 0, maxApprox, false
}

// shell calls fn once for every offset whose Chebyshev norm is exactly r.
func shell(r int, fn func(dx, dy, dz int)) {
	if r == 0 {
		fn(0, 0, 0)
		return
	}
	for _, s := range [2]int{-r, r} {
		// x faces, full extent.
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				fn(s, dy, dz)
			}
		}
		// y faces, x interior.
		for dx := -r + 1; dx <= r-1; dx++ {
			for dz := -r; dz <= r; dz++ {
				fn(dx, s, dz)
			}
		}
		// z faces, x and y interior.
		for dx := -r + 1; dx <= r-1; dx++ {
			for dy := -r + 1; dy <= r-1; dy++ {
				fn(dx, dy, s)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func ReadAtlasFile(path string) (*Atlas, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := ParseAtlas(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// ParseAtlas reads rows of "x y z index".
func ParseAtlas(r io.Reader) (*Atlas, error) {
	a := NewAtlas()
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 4 {
			return nil, fmt.Errorf("line %d: expected 4 fields, got %d", line, len(fields))
		}
		var vals [4]int
		for i, f := range fields {
			v, err := strconv.Atoi(f)
			if err != nil {
				return nil, fmt.Errorf("line %d: %v", line, err)
			}
			vals[i] = v
		}
		if vals[3] < 0 {
			return nil, fmt.Errorf("line %d: negative index %d", line, vals[3])
		}
		a.Set(Voxel{vals[0], vals[1], vals[2]}, vals[3])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return a, nil
}
