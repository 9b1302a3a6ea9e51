package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilal/wifiwatch/internal/model"
)

var t0 = time.Date(2024, 10, 11, 9, 0, 0, 0, time.UTC)

func sampleAt(i int, signal int, verdict model.Verdict) model.Sample {
	return model.Sample{
		Timestamp:      t0.Add(time.Duration(i) * 5 * time.Second),
		SignalDbm:      model.Ptr(signal),
		SNRDb:          model.Ptr(signal + 90),
		DataRateMbps:   model.Ptr(100.0),
		ThroughputMbps: model.Ptr(8.0),
		GatewayPing:    model.PingOK(4),
		InternetPing:   model.PingOK(30),
		DHCPOK:         true,
		DNSOK:          true,
		AuthMethod:     model.AuthWPA2,
		Verdict:        verdict,
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	s := New(5 * time.Second)
	_, err := s.Summarize()
	require.ErrorIs(t, err, ErrEmptySeries)
}

func TestSummarizeSingleSample(t *testing.T) {
	t.Parallel()

	s := New(5 * time.Second)
	require.NoError(t, s.Record(sampleAt(0, -60, model.VerdictPoor)))

	sum, err := s.Summarize()
	require.NoError(t, err)

	assert.Equal(t, 1, sum.SampleCount)
	assert.Equal(t, 5*time.Second, sum.Duration())
	assert.InDelta(t, 5.0, sum.DurationSeconds, 0.0001)
	assert.InDelta(t, -60.0, sum.AvgSignalDbm, 0.0001)
	assert.InDelta(t, 30.0, sum.AvgSNRDb, 0.0001)
	assert.InDelta(t, 100.0, sum.AvgDataRateMbps, 0.0001)
	assert.InDelta(t, 8.0, sum.AvgThroughputMbps, 0.0001)
	assert.InDelta(t, 4.0, sum.AvgGatewayPingMs, 0.0001)
	assert.InDelta(t, 30.0, sum.AvgInternetPingMs, 0.0001)
	assert.Equal(t, 1, sum.PoorCount)
	assert.Equal(t, t0, sum.Start)
	assert.Equal(t, t0, sum.End)
}

func TestSummarizeManySamples(t *testing.T) {
	t.Parallel()

	s := New(5 * time.Second)
	require.NoError(t, s.Record(sampleAt(0, -60, model.VerdictPoor)))
	require.NoError(t, s.Record(sampleAt(1, -80, model.VerdictGood)))

	lost := model.Sample{
		Timestamp:    t0.Add(10 * time.Second),
		GatewayPing:  model.PingFailed(),
		InternetPing: model.PingFailed(),
		DHCPOK:       false,
		DNSOK:        true,
		AuthMethod:   model.AuthUnknown,
		Verdict:      model.VerdictFailure,
	}
	require.NoError(t, s.Record(lost))

	sum, err := s.Summarize()
	require.NoError(t, err)

	assert.Equal(t, 3, sum.SampleCount)
	assert.Equal(t, 15*time.Second, sum.Duration())

	// The lost sample contributes zero to every mean.
	assert.InDelta(t, (-60.0-80.0+0)/3, sum.AvgSignalDbm, 0.0001)
	assert.InDelta(t, (30.0+10.0+0)/3, sum.AvgSNRDb, 0.0001)
	assert.InDelta(t, 200.0/3, sum.AvgDataRateMbps, 0.0001)
	assert.InDelta(t, 16.0/3, sum.AvgThroughputMbps, 0.0001)
	assert.InDelta(t, 8.0/3, sum.AvgGatewayPingMs, 0.0001)
	assert.InDelta(t, 60.0/3, sum.AvgInternetPingMs, 0.0001)

	assert.False(t, sum.LastDHCPOK)
	assert.True(t, sum.LastDNSOK)
	assert.Equal(t, model.AuthUnknown, sum.LastAuthMethod)

	assert.Equal(t, 1, sum.GoodCount)
	assert.Equal(t, 1, sum.PoorCount)
	assert.Equal(t, 1, sum.FailureCount)
	assert.Equal(t, t0, sum.Start)
	assert.Equal(t, t0.Add(10*time.Second), sum.End)
}

func TestSummarizeIdempotent(t *testing.T) {
	t.Parallel()

	s := New(5 * time.Second)
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Record(sampleAt(i, -50-i, model.VerdictPoor)))
	}

	first, err := s.Summarize()
	require.NoError(t, err)
	second, err := s.Summarize()
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 4, s.Len())
}

func TestRecordKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	s := New(time.Second)
	later := sampleAt(3, -40, model.VerdictGood)
	earlier := sampleAt(1, -41, model.VerdictGood)
	require.NoError(t, s.Record(later))
	require.NoError(t, s.Record(earlier))
	require.NoError(t, s.Record(earlier))

	got := s.Samples()
	require.Len(t, got, 3)
	assert.Equal(t, later.Timestamp, got[0].Timestamp)
	assert.Equal(t, earlier.Timestamp, got[1].Timestamp)
	assert.Equal(t, earlier.Timestamp, got[2].Timestamp)
}

func TestRecordRejectsMissingTimestamp(t *testing.T) {
	t.Parallel()

	s := New(time.Second)
	require.ErrorIs(t, s.Record(model.Sample{}), ErrNoTimestamp)
	assert.Equal(t, 0, s.Len())
}

func TestSamplesIsACopy(t *testing.T) {
	t.Parallel()

	s := New(time.Second)
	require.NoError(t, s.Record(sampleAt(0, -40, model.VerdictGood)))

	got := s.Samples()
	got[0].Verdict = model.VerdictFailure

	assert.Equal(t, model.VerdictGood, s.Samples()[0].Verdict)
}

func TestSamplesDoNotShareFields(t *testing.T) {
	t.Parallel()

	s := New(time.Second)
	in := sampleAt(0, -40, model.VerdictGood)
	in.SSID = model.Ptr("office")
	require.NoError(t, s.Record(in))

	*in.SignalDbm = -99

	got := s.Samples()
	*got[0].SignalDbm = 0
	*got[0].SSID = "changed"
	*got[0].GatewayPing.RTTMs = 999

	again := s.Samples()[0]
	assert.Equal(t, -40, *again.SignalDbm)
	assert.Equal(t, "office", *again.SSID)
	assert.Equal(t, 4.0, *again.GatewayPing.RTTMs)

	sum, err := s.Summarize()
	require.NoError(t, err)
	assert.Equal(t, -40.0, sum.AvgSignalDbm)
}
