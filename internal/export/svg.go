// Package export renders traces as standalone SVG documents.
package export

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/phypno/internal/montage"
)

const (
	background = "#0a0a0a"
	labelColor = "#cccccc"
	labelWidth = 80
)

var ErrNoSamples = errors.New("export: not enough samples")

type bounds struct {
	minX, maxX, minY, maxY float64
}

func findBounds(xs, ys []float64) bounds {
	b := bounds{minX: xs[0], maxX: xs[0], minY: ys[0], maxY: ys[0]}
	for i := range xs {
		b.minX = math.Min(b.minX, xs[i])
		b.maxX = math.Max(b.maxX, xs[i])
		b.minY = math.Min(b.minY, ys[i])
		b.maxY = math.Max(b.maxY, ys[i])
	}
	return b
}

// pad widens the y range by 10% on each side and guards flat ranges.
func (b bounds) pad() bounds {
	if b.maxX == b.minX {
		b.maxX = b.minX + 1
	}
	rangeY := b.maxY - b.minY
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.1
	b.maxY += rangeY * 0.1
	return b
}

// writePath appends an SVG path for xs/ys inside the box at (x0, y0).
func writePath(sb *strings.Builder, xs, ys []float64, b bounds, x0, y0, w, h float64, stroke string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1" d="M`, stroke)
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	for i := range xs {
		x := x0 + (xs[i]-b.minX)/rangeX*w
		y := y0 + h - (ys[i]-b.minY)/rangeY*h
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString(`"/>` + "\n")
}

func header(sb *strings.Builder, width, height int) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// TraceToSVG draws one channel against time.
func TraceToSVG(times, values []float64, width, height int, color string) (string, error) {
	if len(times) < 2 || len(times) != len(values) {
		return "", fmt.Errorf("%w: %d times, %d values", ErrNoSamples, len(times), len(values))
	}
	b := findBounds(times, values).pad()

	var sb strings.Builder
	header(&sb, width, height)
	writePath(&sb, times, values, b, 0, 0, float64(width), float64(height), color)
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// MontageToSVG stacks every channel of every group, one row each, drawn in
// its group's color and labelled with the channel name. All rows share the
// y scale so amplitudes compare across channels.
func MontageToSVG(traces []montage.Trace, width, rowHeight int) (string, error) {
	var rows int
	var b bounds
	first := true
	for _, tr := range traces {
		shape := tr.Values.Shape()
		if len(tr.Time) < 2 || len(shape) != 2 || shape[1] != len(tr.Time) {
			return "", fmt.Errorf("%w: group %s", ErrNoSamples, tr.Group)
		}
		for c := range tr.Chan {
			cb := findBounds(tr.Time, tr.Values.Row(c))
			if first {
				b, first = cb, false
			} else {
				b.minX = math.Min(b.minX, cb.minX)
				b.maxX = math.Max(b.maxX, cb.maxX)
				b.minY = math.Min(b.minY, cb.minY)
				b.maxY = math.Max(b.maxY, cb.maxY)
			}
		}
		rows += len(tr.Chan)
	}
	if rows == 0 {
		return "", fmt.Errorf("%w: no channels", ErrNoSamples)
	}
	b = b.pad()

	var sb strings.Builder
	header(&sb, width, rows*rowHeight)
	plotW := float64(width - labelWidth)
	row := 0
	for _, tr := range traces {
		color := montage.HexColor(tr.Color)
		fmt.Fprintf(&sb, "<g id=%q>\n", tr.Group)
		for c, name := range tr.Chan {
			y0 := float64(row * rowHeight)
			fmt.Fprintf(&sb, `<text x="4" y="%.1f" fill="%s" font-family="monospace" font-size="12">%s</text>`+"\n",
				y0+float64(rowHeight)/2, labelColor, name)
			writePath(&sb, tr.Time, tr.Values.Row(c), b, labelWidth, y0, plotW, float64(rowHeight), color)
			row++
		}
		sb.WriteString("</g>\n")
	}
	sb.WriteString("</svg>\n")
	return sb.String(), nil
}
