package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bilal/wifiwatch/internal/config"
	"github.com/bilal/wifiwatch/internal/model"
	"github.com/bilal/wifiwatch/internal/session"
)

type fakeProber struct {
	stations    []model.StationInfo
	association model.AssociationInfo
	gateway     model.PingResult
	internet    model.PingResult
	dhcp        bool
	dns         bool
	auth        model.AuthMethod

	// onRound runs at the start of every round with the probe context.
	onRound func(ctx context.Context)
}

func (f *fakeProber) CheckGateway(context.Context) model.PingResult  { return f.gateway }
func (f *fakeProber) CheckInternet(context.Context) model.PingResult { return f.internet }
func (f *fakeProber) CheckAddressAssignment(context.Context) bool    { return f.dhcp }
func (f *fakeProber) CheckNameResolution(context.Context) bool       { return f.dns }
func (f *fakeProber) CheckAuthMethod(context.Context) model.AuthMethod {
	return f.auth
}

func (f *fakeProber) ReadStationInfo(ctx context.Context) []model.StationInfo {
	if f.onRound != nil {
		f.onRound(ctx)
	}
	return f.stations
}

func (f *fakeProber) ReadAssociationInfo(context.Context) model.AssociationInfo {
	return f.association
}

func healthyProber() *fakeProber {
	return &fakeProber{
		stations: []model.StationInfo{{
			MAC:          "aa:bb:cc:dd:ee:ff",
			SignalDbm:    model.Ptr(-65),
			DataRateMbps: model.Ptr(866.7),
			RxBytes:      model.Ptr(uint64(2_500_000)),
		}},
		association: model.AssociationInfo{
			SSID:         model.Ptr("office"),
			AccessPoint:  model.Ptr("11:22:33:44:55:66"),
			FrequencyMHz: model.Ptr(5180),
		},
		gateway:  model.PingOK(4.2),
		internet: model.PingOK(18.9),
		dhcp:     true,
		dns:      true,
		auth:     model.AuthWPA2,
	}
}

type fakeReporter struct {
	mu        sync.Mutex
	begun     []time.Time
	samples   []model.Sample
	summaries []model.SessionSummary
}

func (r *fakeReporter) Begin(start time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.begun = append(r.begun, start)
	return nil
}

func (r *fakeReporter) Sample(s model.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.samples = append(r.samples, s)
	return nil
}

func (r *fakeReporter) Finish(_ context.Context, sum model.SessionSummary, _ []model.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, sum)
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	samples   int
	summaries int
	ctxErrs   []error
}

func (p *fakePublisher) PublishSample(ctx context.Context, _ model.Sample) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.samples++
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return ctx.Err()
}

func (p *fakePublisher) PublishSummary(context.Context, model.SessionSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries++
	return nil
}

type fakeObserver struct {
	last model.Sample
}

func (o *fakeObserver) RecordSample(s model.Sample) { o.last = s }

func testConfig() *config.Config {
	return &config.Config{
		Agent: config.AgentConfig{
			Name:            "test",
			Interface:       "wlan0",
			IntervalSeconds: 1,
			NoiseFloorDbm:   -90,
		},
		Thresholds: config.ThresholdsConfig{
			PoorSignalDbm:    -70,
			PoorSNRDb:        30,
			MaxGatewayRTTMs:  12,
			MaxInternetRTTMs: 50,
		},
	}
}

func fixedClock() func() time.Time {
	var mu sync.Mutex
	now := time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func newTestMonitor(p *fakeProber, r *fakeReporter, opts ...Option) *Monitor {
	opts = append([]Option{WithClock(fixedClock()), WithLogger(zerolog.Nop())}, opts...)
	return New(testConfig(), p, r, opts...)
}

func TestAssembleWithoutStations(t *testing.T) {
	t.Parallel()

	now := time.Now()
	samples := Assemble(Round{
		Association:  model.AssociationInfo{FrequencyMHz: model.Ptr(2412)},
		GatewayPing:  model.PingFailed(),
		InternetPing: model.PingOK(30),
		DHCPOK:       true,
		AuthMethod:   model.AuthUnknown,
	}, now, -90)

	require.Len(t, samples, 1)
	s := samples[0]
	assert.Equal(t, now, s.Timestamp)
	assert.False(t, s.Associated())
	assert.Nil(t, s.DeviceID)
	assert.Nil(t, s.SignalDbm)
	assert.Nil(t, s.SNRDb)
	assert.Nil(t, s.DataRateMbps)
	assert.Nil(t, s.ThroughputMbps)
	require.NotNil(t, s.Channel)
	assert.Equal(t, 1, *s.Channel)
	assert.True(t, s.GatewayPing.Failed())
	assert.Equal(t, model.AuthUnknown, s.AuthMethod)
}

func TestAssemblePerStation(t *testing.T) {
	t.Parallel()

	r := Round{
		Stations: []model.StationInfo{
			{MAC: "aa:aa:aa:aa:aa:aa", SignalDbm: model.Ptr(-48), RxBytes: model.Ptr(uint64(1_000_000))},
			{MAC: "bb:bb:bb:bb:bb:bb", DataRateMbps: model.Ptr(54.0)},
		},
		Association: model.AssociationInfo{FrequencyMHz: model.Ptr(7000)},
	}
	samples := Assemble(r, time.Now(), -90)

	require.Len(t, samples, 2)
	assert.Nil(t, samples[0].Channel)
	assert.Equal(t, "aa:aa:aa:aa:aa:aa", *samples[0].DeviceID)
	assert.Equal(t, -48, *samples[0].SignalDbm)
	assert.Equal(t, 42, *samples[0].SNRDb)
	assert.InDelta(t, 8.0, *samples[0].ThroughputMbps, 1e-9)
	assert.Nil(t, samples[0].DataRateMbps)

	assert.Nil(t, samples[1].SignalDbm)
	assert.Nil(t, samples[1].SNRDb)
	assert.Equal(t, 54.0, *samples[1].DataRateMbps)

	*samples[0].SignalDbm = 0
	assert.Equal(t, -48, *r.Stations[0].SignalDbm)
}

func TestCycleNoAssociationIsFailure(t *testing.T) {
	t.Parallel()

	p := healthyProber()
	p.stations = nil
	m := newTestMonitor(p, &fakeReporter{})

	samples, err := m.Cycle(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, model.VerdictFailure, samples[0].Verdict)
}

func TestCycleSignalRuleAloneIsPoor(t *testing.T) {
	t.Parallel()

	r := &fakeReporter{}
	pub := &fakePublisher{}
	obs := &fakeObserver{}
	m := newTestMonitor(healthyProber(), r, WithPublisher(pub), WithObserver(obs))

	samples, err := m.Cycle(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)

	s := samples[0]
	assert.Equal(t, model.VerdictPoor, s.Verdict)
	assert.Equal(t, 25, *s.SNRDb)
	assert.Equal(t, 36, *s.Channel)
	assert.InDelta(t, 20.0, *s.ThroughputMbps, 1e-9)

	require.Len(t, r.begun, 1)
	assert.Equal(t, s.Timestamp, r.begun[0])
	assert.Len(t, r.samples, 1)
	assert.Equal(t, 1, pub.samples)
	assert.Equal(t, model.VerdictPoor, obs.last.Verdict)
}

func TestCycleProbesIgnoreCancellation(t *testing.T) {
	t.Parallel()

	var probeErr error
	p := healthyProber()
	p.onRound = func(ctx context.Context) { probeErr = ctx.Err() }
	m := newTestMonitor(p, &fakeReporter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	samples, err := m.Cycle(ctx)
	require.NoError(t, err)
	assert.Len(t, samples, 1)
	assert.NoError(t, probeErr)
}

func TestCyclePublishesAfterCancellation(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	r := &fakeReporter{}
	m := newTestMonitor(healthyProber(), r, WithPublisher(pub))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Cycle(ctx)
	require.NoError(t, err)

	require.Len(t, pub.ctxErrs, 1)
	assert.NoError(t, pub.ctxErrs[0])
	assert.Len(t, r.samples, 1)
}

func TestCycleZeroClockIsFatal(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(healthyProber(), &fakeReporter{}, WithClock(func() time.Time { return time.Time{} }))

	_, err := m.Cycle(context.Background())
	require.ErrorIs(t, err, ErrClock)
}

func TestShutdownWithoutSamples(t *testing.T) {
	t.Parallel()

	r := &fakeReporter{}
	m := newTestMonitor(healthyProber(), r)

	_, err := m.Shutdown(context.Background())
	require.ErrorIs(t, err, session.ErrEmptySeries)
	assert.Empty(t, r.summaries)
}

func TestShutdownRunsOnce(t *testing.T) {
	t.Parallel()

	r := &fakeReporter{}
	pub := &fakePublisher{}
	m := newTestMonitor(healthyProber(), r, WithPublisher(pub))

	for i := 0; i < 3; i++ {
		_, err := m.Cycle(context.Background())
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	results := make([]model.SessionSummary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sum, err := m.Shutdown(context.Background())
			assert.NoError(t, err)
			results[i] = sum
		}(i)
	}
	wg.Wait()

	require.Len(t, r.summaries, 1)
	assert.Equal(t, 1, pub.summaries)
	for _, sum := range results {
		assert.Equal(t, r.summaries[0], sum)
	}
	assert.Equal(t, 3, r.summaries[0].SampleCount)
	assert.Equal(t, 3, r.summaries[0].PoorCount)
	assert.Equal(t, 3.0, r.summaries[0].DurationSeconds)

	samples, err := m.Cycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := healthyProber()
	p.onRound = func(context.Context) { cancel() }
	r := &fakeReporter{}
	m := newTestMonitor(p, r)

	done := make(chan struct{})
	var (
		sum model.SessionSummary
		err error
	)
	go func() {
		defer close(done)
		sum, err = m.Run(ctx)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}

	require.NoError(t, err)
	assert.Equal(t, 1, sum.SampleCount)
	assert.Len(t, r.summaries, 1)

	again, err := m.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sum, again)
	assert.Len(t, r.summaries, 1)
}

func TestRunAbortsOnClockFailure(t *testing.T) {
	t.Parallel()

	m := newTestMonitor(healthyProber(), &fakeReporter{}, WithClock(func() time.Time { return time.Time{} }))

	_, err := m.Run(context.Background())
	require.ErrorIs(t, err, ErrClock)
	assert.ErrorIs(t, err, session.ErrEmptySeries)
}
