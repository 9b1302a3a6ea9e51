package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bilal/wifiwatch/internal/model"
)

// healthySample passes every rule except the literal signal threshold, which
// flags anything at or above -70 dBm.
func healthySample() model.Sample {
	return model.Sample{
		Timestamp:    time.Date(2024, 10, 11, 9, 0, 0, 0, time.UTC),
		SignalDbm:    model.Ptr(-80),
		SNRDb:        model.Ptr(10),
		GatewayPing:  model.PingOK(2.5),
		InternetPing: model.PingOK(20),
		DHCPOK:       true,
		DNSOK:        true,
		AuthMethod:   model.AuthWPA2,
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())

	tests := []struct {
		name   string
		mutate func(*model.Sample)
		want   model.Verdict
		rules  []string
	}{
		{
			name:   "all within thresholds",
			mutate: func(*model.Sample) {},
			want:   model.VerdictGood,
		},
		{
			name:   "signal at threshold is poor",
			mutate: func(s *model.Sample) { s.SignalDbm = model.Ptr(-70) },
			want:   model.VerdictPoor,
			rules:  []string{RuleSignalPoor},
		},
		{
			name:   "signal just below threshold is good",
			mutate: func(s *model.Sample) { s.SignalDbm = model.Ptr(-71) },
			want:   model.VerdictGood,
		},
		{
			name:   "snr at threshold is poor",
			mutate: func(s *model.Sample) { s.SNRDb = model.Ptr(30) },
			want:   model.VerdictPoor,
			rules:  []string{RuleSNRPoor},
		},
		{
			name:   "snr missing with signal present fails",
			mutate: func(s *model.Sample) { s.SNRDb = nil },
			want:   model.VerdictFailure,
			rules:  []string{RuleSNRUnavailable},
		},
		{
			name:   "gateway rtt at limit is good",
			mutate: func(s *model.Sample) { s.GatewayPing = model.PingOK(12.0) },
			want:   model.VerdictGood,
		},
		{
			name:   "gateway rtt above limit is poor",
			mutate: func(s *model.Sample) { s.GatewayPing = model.PingOK(12.01) },
			want:   model.VerdictPoor,
			rules:  []string{RuleGatewaySlow},
		},
		{
			name:   "gateway unreachable fails",
			mutate: func(s *model.Sample) { s.GatewayPing = model.PingFailed() },
			want:   model.VerdictFailure,
			rules:  []string{RuleGatewayFailed},
		},
		{
			name:   "gateway reachable without rtt fails",
			mutate: func(s *model.Sample) { s.GatewayPing = model.PingResult{Reachable: true} },
			want:   model.VerdictFailure,
			rules:  []string{RuleGatewayFailed},
		},
		{
			name:   "internet rtt above limit is poor",
			mutate: func(s *model.Sample) { s.InternetPing = model.PingOK(50.5) },
			want:   model.VerdictPoor,
			rules:  []string{RuleInternetSlow},
		},
		{
			name:   "internet unreachable fails",
			mutate: func(s *model.Sample) { s.InternetPing = model.PingFailed() },
			want:   model.VerdictFailure,
			rules:  []string{RuleInternetFailed},
		},
		{
			name:   "dhcp failure fails",
			mutate: func(s *model.Sample) { s.DHCPOK = false },
			want:   model.VerdictFailure,
			rules:  []string{RuleDHCPFailed},
		},
		{
			name:   "dns failure fails",
			mutate: func(s *model.Sample) { s.DNSOK = false },
			want:   model.VerdictFailure,
			rules:  []string{RuleDNSFailed},
		},
		{
			name: "failure then poor rules stays failure",
			mutate: func(s *model.Sample) {
				s.SNRDb = nil
				s.GatewayPing = model.PingOK(40)
				s.InternetPing = model.PingOK(90)
			},
			want:  model.VerdictFailure,
			rules: []string{RuleSNRUnavailable, RuleGatewaySlow, RuleInternetSlow},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := healthySample()
			tt.mutate(&s)

			ev := c.Evaluate(s)
			assert.Equal(t, tt.want, ev.Verdict)
			assert.Equal(t, tt.rules, ev.Rules)
			assert.Equal(t, tt.want, c.Classify(s))
		})
	}
}

func TestClassifyStrongSignalAloneIsPoor(t *testing.T) {
	t.Parallel()

	s := healthySample()
	s.SignalDbm = model.Ptr(-45)
	s.SNRDb = model.Ptr(29)
	s.GatewayPing = model.PingOK(12)
	s.InternetPing = model.PingOK(50)

	ev := NewClassifier(DefaultThresholds()).Evaluate(s)
	assert.Equal(t, model.VerdictPoor, ev.Verdict)
	assert.Equal(t, []string{RuleSignalPoor}, ev.Rules)
}

func TestClassifyNoSignalAlwaysFails(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())

	variants := []model.Sample{
		{},
		{SNRDb: model.Ptr(10), GatewayPing: model.PingOK(1), InternetPing: model.PingOK(1), DHCPOK: true, DNSOK: true},
		{DataRateMbps: model.Ptr(300.0), ThroughputMbps: model.Ptr(1.0), DHCPOK: true, DNSOK: true},
	}

	for _, s := range variants {
		ev := c.Evaluate(s)
		assert.Equal(t, model.VerdictFailure, ev.Verdict)
		assert.Contains(t, ev.Rules, RuleConnectionLost)
		assert.NotContains(t, ev.Rules, RuleSNRUnavailable)
	}
}

func TestClassifyMonotonic(t *testing.T) {
	t.Parallel()

	c := NewClassifier(DefaultThresholds())

	// Every combination of failing and passing probes; the verdict must equal
	// the worst individual outcome.
	for mask := 0; mask < 1<<6; mask++ {
		s := healthySample()
		want := model.VerdictGood

		if mask&1 != 0 {
			s.SignalDbm = model.Ptr(-60)
			want = want.Worse(model.VerdictPoor)
		}
		if mask&2 != 0 {
			s.GatewayPing = model.PingFailed()
			want = want.Worse(model.VerdictFailure)
		}
		if mask&4 != 0 {
			s.InternetPing = model.PingOK(75)
			want = want.Worse(model.VerdictPoor)
		}
		if mask&8 != 0 {
			s.DNSOK = false
			want = want.Worse(model.VerdictFailure)
		}
		if mask&16 != 0 {
			s.SNRDb = model.Ptr(45)
			want = want.Worse(model.VerdictPoor)
		}
		if mask&32 != 0 && mask&2 == 0 {
			s.GatewayPing = model.PingOK(30)
			want = want.Worse(model.VerdictPoor)
		}

		assert.Equal(t, want, c.Classify(s), "mask %06b", mask)
	}
}

func TestCustomThresholds(t *testing.T) {
	t.Parallel()

	c := NewClassifier(ThresholdConfig{
		PoorSignalDbm:    -50,
		PoorSNRDb:        60,
		MaxGatewayRTTMs:  1,
		MaxInternetRTTMs: 100,
	})

	s := healthySample()
	s.SignalDbm = model.Ptr(-60)
	assert.Equal(t, model.VerdictPoor, c.Classify(s), "gateway 2.5ms exceeds 1ms")

	s.GatewayPing = model.PingOK(0.5)
	assert.Equal(t, model.VerdictGood, c.Classify(s))
}
