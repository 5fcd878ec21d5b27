package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/san-kum/phypno/internal/data"
	"github.com/san-kum/phypno/internal/simulate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 512 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// TrialMessage carries one generated trial; values are row-major.
type TrialMessage struct {
	Trial  int                  `json:"trial"`
	NTrial int                  `json:"n_trial"`
	Shape  []int                `json:"shape"`
	Axes   map[string]axisValue `json:"axes"`
	Values []float64            `json:"values"`
}

type axisValue struct {
	Values []float64 `json:"values,omitempty"`
	Labels []string  `json:"labels,omitempty"`
}

// optionsFromQuery reads generator options from URL parameters.
func optionsFromQuery(q url.Values) (simulate.Options, error) {
	var o simulate.Options
	o.DataType = q.Get("datatype")
	o.Signal = q.Get("signal")

	ints := map[string]*int{"n_trial": &o.NTrial, "n_chan": &o.NChan}
	for key, dst := range ints {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return o, fmt.Errorf("invalid %s: %q", key, raw)
			}
			*dst = v
		}
	}
	floats := map[string]*float64{
		"s_freq":    &o.SFreq,
		"freq_step": &o.FreqStep,
		"amplitude": &o.Amplitude,
		"sine_freq": &o.SineFreq,
		"color":     &o.Color,
	}
	for key, dst := range floats {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return o, fmt.Errorf("invalid %s: %q", key, raw)
			}
			*dst = v
		}
	}
	if raw := q.Get("seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return o, fmt.Errorf("invalid seed: %q", raw)
		}
		o.Seed = v
	}
	if raw := q.Get("chan"); raw != "" {
		o.Chan = strings.Split(raw, ",")
	}
	for _, key := range []string{"time", "freq"} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		lim, err := parseLimits(raw)
		if err != nil {
			return o, fmt.Errorf("invalid %s: %w", key, err)
		}
		if key == "time" {
			o.Time = lim
		} else {
			o.Freq = lim
		}
	}
	return o, nil
}

// parseLimits reads "start,end".
func parseLimits(raw string) (*data.Limits, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("want start,end, got %q", raw)
	}
	start, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, err
	}
	end, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, err
	}
	return &data.Limits{Start: start, End: end}, nil
}

// handleSimulateWS generates a dataset and sends one message per trial,
// followed by a normal close frame. Parameter errors are reported before the
// upgrade as plain HTTP errors.
func (s *Server) handleSimulateWS(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	d, err := s.registry.Create(r.Context(), opts)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("upgrade failed", "err", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	for i, trial := range d.Trials {
		msg := TrialMessage{
			Trial:  i,
			NTrial: d.NumTrial(),
			Shape:  trial.Shape(),
			Axes:   make(map[string]axisValue),
			Values: trial.Values(),
		}
		for _, name := range d.Type.Axes() {
			if ax, err := d.AxisOf(name, i); err == nil {
				msg.Axes[name] = axisValue{Values: ax.Values, Labels: ax.Labels}
			}
		}
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Warn("write failed", "trial", i, "err", err)
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		s.logger.Warn("close failed", "err", err)
	}
	s.logger.Debug("streamed dataset", "n_trial", d.NumTrial())
}
