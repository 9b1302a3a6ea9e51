// Package monitor drives the sampling loop: probe, assemble, classify and
// record on a fixed interval until the run context is cancelled.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilal/wifiwatch/internal/config"
	"github.com/bilal/wifiwatch/internal/decision"
	"github.com/bilal/wifiwatch/internal/logger"
	"github.com/bilal/wifiwatch/internal/model"
	"github.com/bilal/wifiwatch/internal/probe"
	"github.com/bilal/wifiwatch/internal/report"
	"github.com/bilal/wifiwatch/internal/session"
)

// ErrClock is returned when the clock yields a zero time. It is the only
// condition that stops the loop besides cancellation.
var ErrClock = errors.New("clock returned zero time")

// Publisher receives every sample and the final summary.
type Publisher interface {
	PublishSample(ctx context.Context, s model.Sample) error
	PublishSummary(ctx context.Context, s model.SessionSummary) error
}

// Observer is notified of every recorded sample.
type Observer interface {
	RecordSample(s model.Sample)
}

type Option func(*Monitor)

func WithPublisher(p Publisher) Option {
	return func(m *Monitor) { m.publishers = append(m.publishers, p) }
}

func WithObserver(o Observer) Option {
	return func(m *Monitor) { m.observers = append(m.observers, o) }
}

func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(m *Monitor) { m.log = l }
}

type Monitor struct {
	interval   time.Duration
	noiseFloor int

	prober     probe.Prober
	classifier *decision.Classifier
	reporter   report.Generator
	publishers []Publisher
	observers  []Observer
	now        func() time.Time
	log        zerolog.Logger

	mu        sync.Mutex
	session   *session.Session
	begun     bool
	finalized bool

	once    sync.Once
	summary model.SessionSummary
	err     error
}

func New(cfg *config.Config, prober probe.Prober, reporter report.Generator, opts ...Option) *Monitor {
	m := &Monitor{
		interval:   cfg.Interval(),
		noiseFloor: cfg.Agent.NoiseFloorDbm,
		prober:     prober,
		classifier: decision.NewClassifier(decision.ThresholdConfig{
			PoorSignalDbm:    cfg.Thresholds.PoorSignalDbm,
			PoorSNRDb:        cfg.Thresholds.PoorSNRDb,
			MaxGatewayRTTMs:  cfg.Thresholds.MaxGatewayRTTMs,
			MaxInternetRTTMs: cfg.Thresholds.MaxInternetRTTMs,
		}),
		reporter: reporter,
		now:      time.Now,
		log:      logger.WithComponent("monitor"),
		session:  session.New(cfg.Interval()),
	}
	if m.interval <= 0 {
		m.interval = 5 * time.Second
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run samples immediately and then once per interval. Cancellation is
// observed between cycles; the session is finalized before Run returns.
func (m *Monitor) Run(ctx context.Context) (model.SessionSummary, error) {
	m.log.Info().Dur("interval", m.interval).Msg("monitor started")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for ctx.Err() == nil {
		if _, err := m.Cycle(ctx); err != nil {
			m.log.Error().Err(err).Msg("monitor aborted")
			sum, ferr := m.Shutdown(context.WithoutCancel(ctx))
			return sum, errors.Join(err, ferr)
		}

		select {
		case <-ctx.Done():
		case <-ticker.C:
		}
	}

	m.log.Info().Msg("monitor stopping")
	return m.Shutdown(context.WithoutCancel(ctx))
}

// Cycle performs one probe round and records its classified samples.
// Probes and publishing run detached from ctx cancellation so an in-flight
// round completes and reaches every sink.
func (m *Monitor) Cycle(ctx context.Context) ([]model.Sample, error) {
	started := time.Now()
	round := Gather(context.WithoutCancel(ctx), m.prober)
	cycleDuration.Observe(time.Since(started).Seconds())

	now := m.now()
	if now.IsZero() {
		return nil, ErrClock
	}
	m.begin(now)

	samples := Assemble(round, now, m.noiseFloor)
	for i := range samples {
		ev := m.classifier.Evaluate(samples[i])
		samples[i] = samples[i].WithVerdict(ev.Verdict)

		if !m.record(samples[i]) {
			return samples[:i], nil
		}
		observe(samples[i], ev)
		m.logSample(samples[i], ev)
		m.emit(context.WithoutCancel(ctx), samples[i])
	}
	return samples, nil
}

func (m *Monitor) begin(start time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.begun {
		return
	}
	m.begun = true
	if err := m.reporter.Begin(start); err != nil {
		m.log.Warn().Err(err).Msg("report begin failed")
	}
}

// record appends s unless the session has already been finalized.
func (m *Monitor) record(s model.Sample) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.finalized {
		return false
	}
	if err := m.session.Record(s); err != nil {
		m.log.Error().Err(err).Msg("sample rejected")
		return false
	}
	return true
}

func (m *Monitor) logSample(s model.Sample, ev decision.Evaluation) {
	e := m.log.Info().
		Str("verdict", s.Verdict.String()).
		Strs("rules", ev.Rules).
		Bool("dhcp_ok", s.DHCPOK).
		Bool("dns_ok", s.DNSOK).
		Str("auth", string(s.AuthMethod))
	if s.DeviceID != nil {
		e = e.Str("device", *s.DeviceID)
	}
	if s.SignalDbm != nil {
		e = e.Int("signal_dbm", *s.SignalDbm)
	}
	if s.SNRDb != nil {
		e = e.Int("snr_db", *s.SNRDb)
	}
	if s.GatewayPing.RTTMs != nil {
		e = e.Float64("gateway_rtt_ms", *s.GatewayPing.RTTMs)
	}
	if s.InternetPing.RTTMs != nil {
		e = e.Float64("internet_rtt_ms", *s.InternetPing.RTTMs)
	}
	e.Msg("sample classified")
}

func (m *Monitor) emit(ctx context.Context, s model.Sample) {
	if err := m.reporter.Sample(s); err != nil {
		m.log.Warn().Err(err).Msg("report sample failed")
	}
	for _, p := range m.publishers {
		if err := p.PublishSample(ctx, s); err != nil {
			m.log.Warn().Err(err).Msg("publish sample failed")
		}
	}
	for _, o := range m.observers {
		o.RecordSample(s)
	}
}

// Shutdown finalizes the session exactly once: the summary is computed,
// handed to the report generator and published. Later calls return the
// same result. It returns session.ErrEmptySeries when nothing was sampled.
func (m *Monitor) Shutdown(ctx context.Context) (model.SessionSummary, error) {
	m.once.Do(func() {
		m.summary, m.err = m.finalize(ctx)
	})
	return m.summary, m.err
}

func (m *Monitor) finalize(ctx context.Context) (model.SessionSummary, error) {
	m.mu.Lock()
	m.finalized = true
	sum, err := m.session.Summarize()
	samples := m.session.Samples()
	m.mu.Unlock()

	if err != nil {
		m.log.Warn().Err(err).Msg("no summary produced")
		return model.SessionSummary{}, err
	}

	var errs []error
	if err := m.reporter.Finish(ctx, sum, samples); err != nil {
		errs = append(errs, err)
	}
	for _, p := range m.publishers {
		if err := p.PublishSummary(ctx, sum); err != nil {
			errs = append(errs, err)
		}
	}

	m.log.Info().
		Int("samples", sum.SampleCount).
		Float64("duration_seconds", sum.DurationSeconds).
		Int("good", sum.GoodCount).
		Int("poor", sum.PoorCount).
		Int("failure", sum.FailureCount).
		Msg("session finalized")

	return sum, errors.Join(errs...)
}
