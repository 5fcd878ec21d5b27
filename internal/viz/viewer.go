package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/montage"
	"github.com/san-kum/phypno/internal/overview"
)

const (
	defaultVisible = 4
	defaultWidth   = 100
	plotHeight     = 3
)

var ErrEmptyDataset = errors.New("viz: dataset has no trials")

type Options struct {
	Title        string
	WindowLength float64
	WindowStep   float64
	// Visible is the number of channels drawn at once.
	Visible int
	// Groups replaces the raw channels with montage traces.
	Groups []montage.Group
	Theme  string
	// TimestampSteps is the spacing in seconds of the overview time labels.
	TimestampSteps int
	// OverviewScale is the number of seconds per overview column.
	OverviewScale float64
}

type row struct {
	name  string
	color string
	xs    []float64
	ys    []float64
}

type Model struct {
	d        *data.Data
	title    string
	traces   [][]montage.Trace
	timeline *overview.Timeline
	seen     overview.Available
	tsSteps  int
	scale    float64

	trial    int
	rows     []row
	offset   int
	visible  int
	width    int
	theme    Theme
	st       styles
	showHelp bool
	err      error
}

func NewModel(d *data.Data, opts Options) (Model, error) {
	if d.NumTrial() == 0 {
		return Model{}, ErrEmptyDataset
	}
	m := Model{
		d:       d,
		title:   opts.Title,
		visible: opts.Visible,
		width:   defaultWidth,
		theme:   GetTheme(opts.Theme),
		tsSteps: opts.TimestampSteps,
		scale:   opts.OverviewScale,
	}
	if m.visible <= 0 {
		m.visible = defaultVisible
	}
	if m.title == "" {
		m.title = string(d.Type)
	}
	m.st = newStyles(m.theme)

	if len(opts.Groups) > 0 {
		traces, err := montage.Apply(d, opts.Groups)
		if err != nil {
			return Model{}, err
		}
		m.traces = traces
	}

	if d.Type.Has(data.AxisTime) {
		times, err := d.AxisValues(data.AxisTime, 0)
		if err != nil {
			return Model{}, err
		}
		duration := 1 / d.SFreq
		if len(times) > 0 {
			duration += times[len(times)-1]
		}
		length, step := opts.WindowLength, opts.WindowStep
		if length <= 0 || length > duration {
			length = duration
		}
		if step <= 0 {
			step = length
		}
		tl, err := overview.NewTimeline(d.StartTime, duration, length, step)
		if err != nil {
			return Model{}, err
		}
		m.timeline = tl
	}

	if err := m.load(0); err != nil {
		return Model{}, err
	}
	return m, nil
}

// load switches to trial. On error the current trial is kept.
func (m *Model) load(trial int) error {
	rows, err := m.trialRows(trial)
	if err != nil {
		return fmt.Errorf("trial %d: %w", trial, err)
	}
	m.trial, m.rows = trial, rows
	if m.offset > len(m.rows)-1 {
		m.offset = max(len(m.rows)-1, 0)
	}
	m.markSeen()
	return nil
}

func (m *Model) trialRows(trial int) ([]row, error) {
	var rows []row
	if m.traces != nil {
		for g := range m.traces {
			tr := m.traces[g][trial]
			color := montage.HexColor(tr.Color)
			for c, name := range tr.Chan {
				rows = append(rows, row{name: tr.Group + ":" + name, color: color, xs: tr.Time, ys: tr.Values.Row(c)})
			}
		}
		return rows, nil
	}

	names, err := m.d.ChanNames(trial)
	if err != nil {
		return nil, err
	}
	arr := m.d.Trials[trial]
	xAxis := data.AxisTime
	if m.d.Type == data.ChanFreq {
		xAxis = data.AxisFreq
	}
	xs, err := m.d.AxisValues(xAxis, trial)
	if err != nil {
		return nil, err
	}
	if n := arr.Shape()[0]; len(names) > n {
		return nil, fmt.Errorf("%w: %d channel labels for %d rows", data.ErrDimensionMismatch, len(names), n)
	}
	for c, name := range names {
		ys := arr.Row(c)
		if m.d.Type == data.ChanTimeFreq {
			ys = meanOverFreq(ys, len(xs))
		}
		rows = append(rows, row{name: name, color: string(m.theme.Trace), xs: xs, ys: ys})
	}
	return rows, nil
}

// meanOverFreq collapses a time x freq row to one value per time.
func meanOverFreq(values []float64, nTime int) []float64 {
	out := make([]float64, nTime)
	if nTime == 0 {
		return out
	}
	nFreq := len(values) / nTime
	if nFreq == 0 {
		return out
	}
	for t := range out {
		var sum float64
		for _, v := range values[t*nFreq : (t+1)*nFreq] {
			sum += v
		}
		out[t] = sum / float64(nFreq)
	}
	return out
}

func (m *Model) markSeen() {
	if m.timeline == nil {
		return
	}
	m.seen.Mark(m.timeline.Window())
}

// GotoWindow moves to the window containing x seconds.
func (m *Model) GotoWindow(x float64) {
	if m.timeline == nil {
		return
	}
	m.timeline.SnapWindow(x)
	m.markSeen()
}

func (m Model) Trial() int  { return m.trial }
func (m Model) Err() error  { return m.err }
func (m Model) Offset() int { return m.offset }

// WindowStart is the start of the current window in seconds, or 0 for
// spectra.
func (m Model) WindowStart() float64 {
	if m.timeline == nil {
		return 0
	}
	return m.timeline.WindowStart
}

// Viewed is the fraction of the recording already displayed.
func (m Model) Viewed() float64 {
	if m.timeline == nil {
		return 1
	}
	return m.seen.Covered() / m.timeline.Duration
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "right", "l":
			if m.timeline != nil {
				m.timeline.Next()
				m.markSeen()
			}
		case "left", "h":
			if m.timeline != nil {
				m.timeline.Prev()
				m.markSeen()
			}
		case "down", "j":
			if m.offset < len(m.rows)-1 {
				m.offset++
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "t":
			m.err = m.load((m.trial + 1) % m.d.NumTrial())
		case "T":
			m.err = m.load((m.trial + m.d.NumTrial() - 1) % m.d.NumTrial())
		case "c":
			m.theme = nextTheme(m.theme.Name)
			m.st = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	}
	return m, nil
}

// window returns the samples of r inside the current window.
func (m Model) window(r row) []float64 {
	if m.timeline == nil {
		return r.ys
	}
	start, end := m.timeline.Window()
	lo, hi := len(r.xs), len(r.xs)
	for i, x := range r.xs {
		if x >= start && lo == len(r.xs) {
			lo = i
		}
		if x >= end {
			hi = i
			break
		}
	}
	if lo > hi {
		lo = hi
	}
	return r.ys[lo:hi]
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.header.Render(strings.ToUpper(m.title)) + "\n")

	s.WriteString(m.st.label.Render("Trial") + m.st.value.Render(fmt.Sprintf("%d/%d", m.trial+1, m.d.NumTrial())) + "\n")
	if m.timeline != nil {
		start, end := m.timeline.Window()
		s.WriteString(m.st.label.Render("Window") + m.st.value.Render(fmt.Sprintf("[%.2f, %.2f) s", start, end)) + "\n")
		s.WriteString(m.st.label.Render("Viewed") + m.st.bar.Render(ProgressBar(m.Viewed(), 20)) + "\n")
	}
	s.WriteString("\n")

	plotWidth := max(m.width-20, 10)
	if m.timeline != nil {
		ticks, strip := m.overviewStrip(plotWidth)
		s.WriteString(m.st.help.Render(ticks) + "\n")
		s.WriteString(m.st.bar.Render(strip) + "\n")
		s.WriteString(m.st.value.Render(m.timeline.StatusMessage()) + "\n\n")
	}
	if m.err != nil {
		s.WriteString(m.st.err.Render(m.err.Error()) + "\n\n")
	}
	end := min(m.offset+m.visible, len(m.rows))
	var plots []string
	for _, r := range m.rows[m.offset:end] {
		ys := m.window(r)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(r.color))
		if len(ys) == 0 {
			plots = append(plots, m.st.help.Render(r.name+" (no samples)"))
			continue
		}
		chart := asciigraph.Plot(ys,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(r.name))
		plots = append(plots, style.Render(chart))
	}
	s.WriteString(lipgloss.JoinVertical(lipgloss.Left, plots...))
	s.WriteString("\n")
	s.WriteString(m.st.help.Render(fmt.Sprintf("channels %d-%d of %d  ←/→ window  ↑/↓ channels  t trial  c theme  ? help  q quit",
		m.offset+1, end, len(m.rows))))

	view := m.st.panel.Render(s.String())
	if m.showHelp {
		return m.helpView() + "\n" + view
	}
	return view
}

// overviewStrip draws the whole recording in at most width columns: a line
// of hour labels and a bar marking the current window and the parts already
// viewed.
func (m Model) overviewStrip(width int) (ticks, strip string) {
	tl := m.timeline
	cols := width
	if m.scale > 0 {
		cols = min(cols, int(math.Ceil(tl.Duration/m.scale)))
	}
	cols = max(cols, 1)
	perCol := tl.Duration / float64(cols)

	labels := []rune(strings.Repeat(" ", cols))
	next := 0
	for _, tk := range tl.Ticks(m.tsSteps) {
		pos := int(tk.Offset / perCol)
		if pos < next || pos+len(tk.Label) > cols {
			continue
		}
		copy(labels[pos:], []rune(tk.Label))
		next = pos + len(tk.Label) + 1
	}

	start, end := tl.Window()
	bar := make([]rune, cols)
	for c := range bar {
		lo, hi := float64(c)*perCol, float64(c+1)*perCol
		switch {
		case lo < end && hi > start:
			bar[c] = '▓'
		case m.seen.Contains(lo, hi):
			bar[c] = '█'
		default:
			bar[c] = '░'
		}
	}
	return string(labels), string(bar)
}

func (m Model) helpView() string {
	lines := []string{
		"←/→ h/l  previous/next window",
		"↑/↓ k/j  scroll channels",
		"t / T    next/previous trial",
		"c        cycle theme (" + strings.Join(ThemeNames(), ", ") + ")",
		"?        toggle this help",
		"q        quit",
	}
	return m.st.panel.Render(strings.Join(lines, "\n"))
}

// Run starts the viewer in the alternate screen.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
