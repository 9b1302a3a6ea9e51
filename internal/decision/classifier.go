package decision

import (
	"github.com/bilal/wifiwatch/internal/model"
)

// Rule names reported by Evaluate.
const (
	RuleConnectionLost = "connection_lost"
	RuleSignalPoor     = "signal_poor"
	RuleSNRUnavailable = "snr_unavailable"
	RuleSNRPoor        = "snr_poor"
	RuleGatewayFailed  = "gateway_unreachable"
	RuleGatewaySlow    = "gateway_rtt_high"
	RuleInternetFailed = "internet_unreachable"
	RuleInternetSlow   = "internet_rtt_high"
	RuleDHCPFailed     = "dhcp_failed"
	RuleDNSFailed      = "dns_failed"
)

type ThresholdConfig struct {
	// Signal at or above this value marks the sample poor.
	PoorSignalDbm int
	// SNR at or above this value marks the sample poor.
	PoorSNRDb        int
	MaxGatewayRTTMs  float64
	MaxInternetRTTMs float64
}

func DefaultThresholds() ThresholdConfig {
	return ThresholdConfig{
		PoorSignalDbm:    -70,
		PoorSNRDb:        30,
		MaxGatewayRTTMs:  12.0,
		MaxInternetRTTMs: 50.0,
	}
}

// Evaluation is a verdict together with the rules that raised it.
type Evaluation struct {
	Verdict model.Verdict
	Rules   []string
}

func (e *Evaluation) raise(v model.Verdict, rule string) {
	e.Verdict = e.Verdict.Worse(v)
	e.Rules = append(e.Rules, rule)
}

// Classifier applies the severity cascade. It holds no state between calls.
type Classifier struct {
	t ThresholdConfig
}

func NewClassifier(t ThresholdConfig) *Classifier {
	return &Classifier{t: t}
}

func (c *Classifier) Classify(s model.Sample) model.Verdict {
	return c.Evaluate(s).Verdict
}

// Evaluate walks the rules in order. A rule can only raise the verdict.
func (c *Classifier) Evaluate(s model.Sample) Evaluation {
	ev := Evaluation{Verdict: model.VerdictGood}

	if s.SignalDbm == nil {
		// Without an association the radio fields carry no information.
		ev.raise(model.VerdictFailure, RuleConnectionLost)
	} else {
		if *s.SignalDbm >= c.t.PoorSignalDbm {
			ev.raise(model.VerdictPoor, RuleSignalPoor)
		}
		switch {
		case s.SNRDb == nil:
			ev.raise(model.VerdictFailure, RuleSNRUnavailable)
		case *s.SNRDb >= c.t.PoorSNRDb:
			ev.raise(model.VerdictPoor, RuleSNRPoor)
		}
	}

	if s.GatewayPing.Failed() {
		ev.raise(model.VerdictFailure, RuleGatewayFailed)
	} else if *s.GatewayPing.RTTMs > c.t.MaxGatewayRTTMs {
		ev.raise(model.VerdictPoor, RuleGatewaySlow)
	}

	if s.InternetPing.Failed() {
		ev.raise(model.VerdictFailure, RuleInternetFailed)
	} else if *s.InternetPing.RTTMs > c.t.MaxInternetRTTMs {
		ev.raise(model.VerdictPoor, RuleInternetSlow)
	}

	if !s.DHCPOK {
		ev.raise(model.VerdictFailure, RuleDHCPFailed)
	}
	if !s.DNSOK {
		ev.raise(model.VerdictFailure, RuleDNSFailed)
	}

	return ev
}
