// Package session owns the time series of one monitoring run and derives
// its summary statistics.
package session

import (
	"errors"
	"time"

	"github.com/bilal/wifiwatch/internal/model"
)

var (
	ErrEmptySeries = errors.New("session has no samples")
	ErrNoTimestamp = errors.New("sample has no timestamp")
)

// Session is the append-only series of samples for one run. It has a single
// writer and is not safe for concurrent use.
type Session struct {
	interval time.Duration
	samples  []model.Sample
}

func New(interval time.Duration) *Session {
	return &Session{
		interval: interval,
		samples:  make([]model.Sample, 0, 128),
	}
}

// Record appends s. Samples are kept in insertion order and never
// reordered or deduplicated.
func (s *Session) Record(sample model.Sample) error {
	if sample.Timestamp.IsZero() {
		return ErrNoTimestamp
	}
	s.samples = append(s.samples, sample.Clone())
	return nil
}

func (s *Session) Len() int {
	return len(s.samples)
}

func (s *Session) Interval() time.Duration {
	return s.interval
}

// Samples returns a deep copy of the series; callers cannot reach the
// recorded samples through it.
func (s *Session) Samples() []model.Sample {
	out := make([]model.Sample, len(s.samples))
	for i, sample := range s.samples {
		out[i] = sample.Clone()
	}
	return out
}

// Summarize computes statistics over the stored series. It has no side
// effects and returns ErrEmptySeries before the first sample.
//
// Absent radio fields and failed pings count as zero, so every mean divides
// by the full sample count.
func (s *Session) Summarize() (model.SessionSummary, error) {
	if len(s.samples) == 0 {
		return model.SessionSummary{}, ErrEmptySeries
	}

	var (
		signal, snr, rate, throughput, gwPing, inetPing float64
		sum                                             model.SessionSummary
	)

	for _, sample := range s.samples {
		signal += float64(model.ValueOr(sample.SignalDbm, 0))
		snr += float64(model.ValueOr(sample.SNRDb, 0))
		rate += model.ValueOr(sample.DataRateMbps, 0)
		throughput += model.ValueOr(sample.ThroughputMbps, 0)
		gwPing += pingMs(sample.GatewayPing)
		inetPing += pingMs(sample.InternetPing)

		switch sample.Verdict {
		case model.VerdictGood:
			sum.GoodCount++
		case model.VerdictPoor:
			sum.PoorCount++
		case model.VerdictFailure:
			sum.FailureCount++
		}
	}

	n := float64(len(s.samples))
	first, last := s.samples[0], s.samples[len(s.samples)-1]

	sum.Start = first.Timestamp
	sum.End = last.Timestamp
	sum.Interval = s.interval
	sum.SampleCount = len(s.samples)
	sum.DurationSeconds = sum.Duration().Seconds()

	sum.AvgSignalDbm = signal / n
	sum.AvgSNRDb = snr / n
	sum.AvgDataRateMbps = rate / n
	sum.AvgThroughputMbps = throughput / n
	sum.AvgGatewayPingMs = gwPing / n
	sum.AvgInternetPingMs = inetPing / n

	sum.LastDHCPOK = last.DHCPOK
	sum.LastDNSOK = last.DNSOK
	sum.LastAuthMethod = last.AuthMethod

	return sum, nil
}

func pingMs(p model.PingResult) float64 {
	if p.Failed() {
		return 0
	}
	return *p.RTTMs
}
