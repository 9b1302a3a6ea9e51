// Package model holds the data shared by the probe, classification and
// aggregation stages. Absent values are nil pointers; they are only turned
// into display sentinels by the report package.
package model

import "time"

// PingResult is the outcome of a single ICMP echo. RTTMs is nil when the
// target was not reachable.
type PingResult struct {
	Reachable bool     `json:"reachable" yaml:"reachable"`
	RTTMs     *float64 `json:"rtt_ms,omitempty" yaml:"rtt_ms,omitempty"`
}

func PingOK(rttMs float64) PingResult {
	return PingResult{Reachable: true, RTTMs: &rttMs}
}

func PingFailed() PingResult {
	return PingResult{}
}

// Failed reports whether the probe should be treated as a failure.
func (p PingResult) Failed() bool {
	return !p.Reachable || p.RTTMs == nil
}

// StationInfo is one record of the link-layer station table.
type StationInfo struct {
	MAC          string
	SignalDbm    *int
	DataRateMbps *float64
	RxBytes      *uint64
}

// AssociationInfo describes the current association. Each field is
// independently absent.
type AssociationInfo struct {
	SSID         *string
	AccessPoint  *string
	FrequencyMHz *int
}

// Sample is one timestamped round of probe results. Samples are values;
// use WithVerdict to derive a classified copy.
type Sample struct {
	Timestamp      time.Time  `json:"timestamp" yaml:"timestamp"`
	DeviceID       *string    `json:"device_id,omitempty" yaml:"device_id,omitempty"`
	SSID           *string    `json:"ssid,omitempty" yaml:"ssid,omitempty"`
	AccessPoint    *string    `json:"access_point,omitempty" yaml:"access_point,omitempty"`
	FrequencyMHz   *int       `json:"frequency_mhz,omitempty" yaml:"frequency_mhz,omitempty"`
	Channel        *int       `json:"channel,omitempty" yaml:"channel,omitempty"`
	SignalDbm      *int       `json:"signal_dbm,omitempty" yaml:"signal_dbm,omitempty"`
	SNRDb          *int       `json:"snr_db,omitempty" yaml:"snr_db,omitempty"`
	DataRateMbps   *float64   `json:"data_rate_mbps,omitempty" yaml:"data_rate_mbps,omitempty"`
	ThroughputMbps *float64   `json:"throughput_mbps,omitempty" yaml:"throughput_mbps,omitempty"`
	GatewayPing    PingResult `json:"gateway_ping" yaml:"gateway_ping"`
	InternetPing   PingResult `json:"internet_ping" yaml:"internet_ping"`
	DHCPOK         bool       `json:"dhcp_ok" yaml:"dhcp_ok"`
	DNSOK          bool       `json:"dns_ok" yaml:"dns_ok"`
	AuthMethod     AuthMethod `json:"auth_method" yaml:"auth_method"`
	Verdict        Verdict    `json:"verdict" yaml:"verdict"`
}

// Associated reports whether the sample was taken with an active association.
func (s Sample) Associated() bool {
	return s.SignalDbm != nil
}

func (s Sample) WithVerdict(v Verdict) Sample {
	s.Verdict = v
	return s
}

// Clone returns a copy of s that shares no pointers with it.
func (s Sample) Clone() Sample {
	s.DeviceID = clonePtr(s.DeviceID)
	s.SSID = clonePtr(s.SSID)
	s.AccessPoint = clonePtr(s.AccessPoint)
	s.FrequencyMHz = clonePtr(s.FrequencyMHz)
	s.Channel = clonePtr(s.Channel)
	s.SignalDbm = clonePtr(s.SignalDbm)
	s.SNRDb = clonePtr(s.SNRDb)
	s.DataRateMbps = clonePtr(s.DataRateMbps)
	s.ThroughputMbps = clonePtr(s.ThroughputMbps)
	s.GatewayPing.RTTMs = clonePtr(s.GatewayPing.RTTMs)
	s.InternetPing.RTTMs = clonePtr(s.InternetPing.RTTMs)
	return s
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Ptr returns a pointer to a copy of v.
func Ptr[T any](v T) *T {
	return &v
}

// ValueOr dereferences p, or returns fallback when p is nil.
func ValueOr[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}
