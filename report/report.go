// Package report turns decoder and interferometer output into log lines and
// keeps the latest results for whoever drives the pipeline.
package report

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/rxcore/interferometer"
	"github.com/jrwynneiii/rxcore/navtex"
)

// LogSink writes every message and phase report it receives to a logger.
type LogSink struct {
	logger *log.Logger
	// NavArea is used to name the transmitting station.
	NavArea int
	// PhaseEvery logs only one phase report in PhaseEvery, 0 logs all of them.
	PhaseEvery int

	mu     sync.Mutex
	phases int
	corrs  int
}

// NewLogSink logs to w, or to the default logger when w is nil.
func NewLogSink(w io.Writer) *LogSink {
	if w == nil {
		return &LogSink{logger: log.Default()}
	}
	return &LogSink{logger: log.NewWithOptions(w, log.Options{Prefix: "report"})}
}

func (s *LogSink) PushNavtex(m navtex.DecodedMessage) {
	kv := []any{
		"errors", m.Errors,
		"chars", m.Chars,
		"rssi", m.RSSIdB,
	}
	if m.Frequency != 0 {
		kv = append(kv, "freq", m.Frequency)
	}
	if m.Message.Valid {
		kv = append(kv, "id", m.Message.StationID+m.Message.TypeID+m.Message.ID)
		if t := m.Message.Type(); t != "" {
			kv = append(kv, "type", t)
		}
		if st := navtex.Station(s.NavArea, m.Message.StationID, m.Frequency); st != "" {
			kv = append(kv, "station", st)
		}
	}
	s.logger.Info("navtex message", kv...)
	for _, line := range strings.Split(strings.TrimRight(m.Text, "\x02\n"), "\n") {
		s.logger.Info("  " + line)
	}
}

func (s *LogSink) PushPhase(r interferometer.PhaseReport) {
	s.mu.Lock()
	s.phases++
	skip := s.PhaseEvery > 1 && (s.phases-1)%s.PhaseEvery != 0
	s.mu.Unlock()
	if skip {
		return
	}
	s.logger.Info("phase",
		"deg", r.PhaseDeg,
		"doa", r.DOA,
		"az+", r.PosAzimuth,
		"az-", r.NegAzimuth,
		"snr", r.SNR,
	)
}

// PushCorrelation logs where the correlation peaks, at debug level.
func (s *LogSink) PushCorrelation(r interferometer.Result) {
	s.mu.Lock()
	s.corrs++
	skip := s.PhaseEvery > 1 && (s.corrs-1)%s.PhaseEvery != 0
	s.mu.Unlock()
	if skip || len(r.Samples) == 0 {
		return
	}
	pos, mag := r.Peak()
	s.logger.Debug("correlation", "type", r.Type, "blocks", r.Blocks, "peak", pos, "mag", mag)
}

// Collector keeps what it receives. It is safe for concurrent use.
type Collector struct {
	// Limit caps each history, dropping the oldest entries. 0 keeps everything.
	Limit int

	mu       sync.Mutex
	messages []navtex.DecodedMessage
	phases   []interferometer.PhaseReport
	corr     interferometer.Result
	hasCorr  bool
	notify   chan struct{}
}

func NewCollector() *Collector {
	return &Collector{notify: make(chan struct{}, 1)}
}

func (c *Collector) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Collector) PushNavtex(m navtex.DecodedMessage) {
	c.mu.Lock()
	c.messages = append(c.messages, m)
	if c.Limit > 0 && len(c.messages) > c.Limit {
		c.messages = append(c.messages[:0], c.messages[len(c.messages)-c.Limit:]...)
	}
	c.mu.Unlock()
	c.signal()
}

func (c *Collector) PushPhase(r interferometer.PhaseReport) {
	c.mu.Lock()
	c.phases = append(c.phases, r)
	if c.Limit > 0 && len(c.phases) > c.Limit {
		c.phases = append(c.phases[:0], c.phases[len(c.phases)-c.Limit:]...)
	}
	c.mu.Unlock()
	c.signal()
}

func (c *Collector) PushCorrelation(r interferometer.Result) {
	c.mu.Lock()
	c.corr, c.hasCorr = r, true
	c.mu.Unlock()
}

// LastCorrelation returns the most recent correlation output.
func (c *Collector) LastCorrelation() (interferometer.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.corr, c.hasCorr
}

// Updated fires after new results have been stored.
func (c *Collector) Updated() <-chan struct{} { return c.notify }

func (c *Collector) Messages() []navtex.DecodedMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]navtex.DecodedMessage(nil), c.messages...)
}

func (c *Collector) Phases() []interferometer.PhaseReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interferometer.PhaseReport(nil), c.phases...)
}

// LastPhase returns the most recent phase report.
func (c *Collector) LastPhase() (interferometer.PhaseReport, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.phases) == 0 {
		return interferometer.PhaseReport{}, false
	}
	return c.phases[len(c.phases)-1], true
}

// Tee forwards to several sinks in order.
type Tee []any

func (t Tee) PushNavtex(m navtex.DecodedMessage) {
	for _, s := range t {
		if ns, ok := s.(navtex.MessageSink); ok {
			ns.PushNavtex(m)
		}
	}
}

func (t Tee) PushPhase(r interferometer.PhaseReport) {
	for _, s := range t {
		if ps, ok := s.(interferometer.PhaseSink); ok {
			ps.PushPhase(r)
		}
	}
}

func (t Tee) PushCorrelation(r interferometer.Result) {
	for _, s := range t {
		if cs, ok := s.(interferometer.CorrelationSink); ok {
			cs.PushCorrelation(r)
		}
	}
}
