package model

import "time"

// SessionSummary is derived from a session's samples once the session ends.
//
// Mean fields substitute zero for absent values and failed pings, so every
// sample contributes to the denominator.
type SessionSummary struct {
	Start           time.Time     `json:"start" yaml:"start"`
	End             time.Time     `json:"end" yaml:"end"`
	Interval        time.Duration `json:"-" yaml:"-"`
	SampleCount     int           `json:"sample_count" yaml:"sample_count"`
	DurationSeconds float64       `json:"duration_seconds" yaml:"duration_seconds"`

	AvgSignalDbm      float64 `json:"avg_signal_dbm" yaml:"avg_signal_dbm"`
	AvgSNRDb          float64 `json:"avg_snr_db" yaml:"avg_snr_db"`
	AvgDataRateMbps   float64 `json:"avg_data_rate_mbps" yaml:"avg_data_rate_mbps"`
	AvgThroughputMbps float64 `json:"avg_throughput_mbps" yaml:"avg_throughput_mbps"`
	AvgGatewayPingMs  float64 `json:"avg_gateway_ping_ms" yaml:"avg_gateway_ping_ms"`
	AvgInternetPingMs float64 `json:"avg_internet_ping_ms" yaml:"avg_internet_ping_ms"`

	LastDHCPOK     bool       `json:"last_dhcp_ok" yaml:"last_dhcp_ok"`
	LastDNSOK      bool       `json:"last_dns_ok" yaml:"last_dns_ok"`
	LastAuthMethod AuthMethod `json:"last_auth_method" yaml:"last_auth_method"`

	GoodCount    int `json:"good_count" yaml:"good_count"`
	PoorCount    int `json:"poor_count" yaml:"poor_count"`
	FailureCount int `json:"failure_count" yaml:"failure_count"`
}

// Duration is the nominal session length: sample count times interval.
func (s SessionSummary) Duration() time.Duration {
	return time.Duration(s.SampleCount) * s.Interval
}
