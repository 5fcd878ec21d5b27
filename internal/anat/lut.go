package anat

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultLUTName is the lookup table file inside a Freesurfer installation.
const DefaultLUTName = "FreeSurferColorLUT.txt"

// LUT is a color lookup table. Rows keep file order. A LUT is never modified
// after loading and is safe to share.
type LUT struct {
	Index []int
	Label []string
	RGBA  [][4]float64

	byIndex map[int]int
	byLabel map[string]int
}

func (l *LUT) Len() int { return len(l.Index) }

// LabelOf returns the label of a region index.
func (l *LUT) LabelOf(index int) (string, bool) {
	row, ok := l.byIndex[index]
	if !ok {
		return "", false
	}
	return l.Label[row], true
}

// IndexOf returns the region index of a label.
func (l *LUT) IndexOf(label string) (int, bool) {
	row, ok := l.byLabel[label]
	if !ok {
		return 0, false
	}
	return l.Index[row], true
}

// ColorOf returns the RGBA color of a region index.
func (l *LUT) ColorOf(index int) ([4]float64, bool) {
	row, ok := l.byIndex[index]
	if !ok {
		return [4]float64{}, false
	}
	return l.RGBA[row], true
}

// ImportLUT loads a lookup table. A non-empty path overrides the default
// <home>/FreeSurferColorLUT.txt.
func ImportLUT(home, path string) (*LUT, error) {
	if path != "" {
		l, err := ReadLUTFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrLUTNotFound, err)
		}
		return l, err
	}

	if home == "" {
		return nil, ErrHomeUnavailable
	}
	l, err := ReadLUTFile(filepath.Join(home, DefaultLUTName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrHomeUnavailable, err)
	}
	return l, err
}

func ReadLUTFile(path string) (*LUT, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := ParseLUT(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// ParseLUT reads rows of "index label R G B A". Blank lines and lines
// starting with '#' are skipped.
func ParseLUT(r io.Reader) (*LUT, error) {
	l := &LUT{
		byIndex: make(map[int]int),
		byLabel: make(map[string]int),
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Fields(text)
		if len(fields) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 fields, got %d", line, len(fields))
		}

		idx, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid index: %v", line, err)
		}
		if _, dup := l.byIndex[idx]; dup {
			return nil, fmt.Errorf("line %d: duplicate index %d", line, idx)
		}

		var rgba [4]float64
		for i := 0; i < 4; i++ {
			v, err := strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid color component: %v", line, err)
			}
			rgba[i] = v
		}

		row := len(l.Index)
		l.Index = append(l.Index, idx)
		l.Label = append(l.Label, fields[1])
		l.RGBA = append(l.RGBA, rgba)
		l.byIndex[idx] = row
		if _, seen := l.byLabel[fields[1]]; !seen {
			l.byLabel[fields[1]] = row
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return l, nil
}
