// Package overview tracks the position of the display window within a
// recording and which parts of it have been viewed.
package overview

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var ErrInvalidTimeline = errors.New("overview: invalid timeline")

// Timeline is the display window over a recording. All positions are in
// seconds from Start.
type Timeline struct {
	Start        time.Time
	Duration     float64
	WindowStart  float64
	WindowLength float64
	WindowStep   float64
}

func NewTimeline(start time.Time, duration, length, step float64) (*Timeline, error) {
	if duration <= 0 || length <= 0 || step <= 0 {
		return nil, fmt.Errorf("%w: duration=%g length=%g step=%g", ErrInvalidTimeline, duration, length, step)
	}
	return &Timeline{
		Start:        start,
		Duration:     duration,
		WindowLength: length,
		WindowStep:   step,
	}, nil
}

func (t *Timeline) clamp(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x >= t.Duration {
		// last window start that still lies inside the recording
		x = math.Floor((t.Duration-1e-9)/t.WindowStep) * t.WindowStep
		if x < 0 {
			x = 0
		}
	}
	return x
}

// SnapWindow moves the window to the window-length boundary containing x,
// as when the overview is clicked.
func (t *Timeline) SnapWindow(x float64) float64 {
	t.WindowStart = t.clamp(math.Floor(x/t.WindowLength) * t.WindowLength)
	return t.WindowStart
}

// Goto moves the window to an arbitrary position.
func (t *Timeline) Goto(x float64) float64 {
	t.WindowStart = t.clamp(x)
	return t.WindowStart
}

func (t *Timeline) Next() float64 { return t.Goto(t.WindowStart + t.WindowStep) }
func (t *Timeline) Prev() float64 { return t.Goto(t.WindowStart - t.WindowStep) }

// Window returns the current window, cut at the end of the recording.
func (t *Timeline) Window() (start, end float64) {
	end = t.WindowStart + t.WindowLength
	if end > t.Duration {
		end = t.Duration
	}
	return t.WindowStart, end
}

// CurrentTime is the wall-clock time of the window start.
func (t *Timeline) CurrentTime() time.Time {
	return t.Start.Add(seconds(t.WindowStart))
}

func (t *Timeline) StatusMessage() string {
	return "Current time: " + t.CurrentTime().Format("15:04:05")
}

type Tick struct {
	Offset float64
	Label  string
}

// Ticks returns timestamps every steps seconds, starting at the first full
// hour after the recording start and stopping before the first full hour
// after its end.
func (t *Timeline) Ticks(steps int) []Tick {
	if steps <= 0 {
		return nil
	}
	first := t.Start.Truncate(time.Hour).Add(time.Hour)
	end := t.Start.Add(seconds(t.Duration))
	last := end.Truncate(time.Hour).Add(time.Hour)

	var ticks []Tick
	for ts := first; ts.Before(last); ts = ts.Add(time.Duration(steps) * time.Second) {
		ticks = append(ticks, Tick{
			Offset: ts.Sub(t.Start).Seconds(),
			Label:  ts.Format("15:04"),
		})
	}
	return ticks
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Interval is a half-open span [Start, End) in seconds.
type Interval struct {
	Start float64
	End   float64
}

// Available records which parts of a recording have been read.
type Available struct {
	spans []Interval
}

// Mark adds [start, end), merging it with overlapping or touching spans.
func (a *Available) Mark(start, end float64) {
	if end <= start {
		return
	}
	a.spans = append(a.spans, Interval{start, end})
	sort.Slice(a.spans, func(i, j int) bool { return a.spans[i].Start < a.spans[j].Start })

	merged := a.spans[:1]
	for _, s := range a.spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	a.spans = merged
}

func (a *Available) Spans() []Interval {
	return append([]Interval(nil), a.spans...)
}

// Covered is the total marked length in seconds.
func (a *Available) Covered() float64 {
	var total float64
	for _, s := range a.spans {
		total += s.End - s.Start
	}
	return total
}

// Contains reports whether [start, end) has been read entirely.
func (a *Available) Contains(start, end float64) bool {
	for _, s := range a.spans {
		if s.Start <= start && end <= s.End {
			return true
		}
	}
	return false
}
