package monitor

import (
	"context"
	"time"

	"github.com/bilal/wifiwatch/internal/model"
	"github.com/bilal/wifiwatch/internal/probe"
	"github.com/bilal/wifiwatch/internal/radio"
)

// Round holds the raw results of one pass over every probe.
type Round struct {
	Stations     []model.StationInfo
	Association  model.AssociationInfo
	GatewayPing  model.PingResult
	InternetPing model.PingResult
	DHCPOK       bool
	DNSOK        bool
	AuthMethod   model.AuthMethod
}

// Gather runs every check once, in order. Checks never fail the round.
func Gather(ctx context.Context, p probe.Prober) Round {
	return Round{
		Stations:     p.ReadStationInfo(ctx),
		Association:  p.ReadAssociationInfo(ctx),
		GatewayPing:  p.CheckGateway(ctx),
		InternetPing: p.CheckInternet(ctx),
		DHCPOK:       p.CheckAddressAssignment(ctx),
		DNSOK:        p.CheckNameResolution(ctx),
		AuthMethod:   p.CheckAuthMethod(ctx),
	}
}

// Assemble turns a round into unclassified samples, one per station record.
// With no station records it returns a single sample with every radio field
// absent.
func Assemble(r Round, now time.Time, noiseFloorDbm int) []model.Sample {
	base := model.Sample{
		Timestamp:    now,
		SSID:         r.Association.SSID,
		AccessPoint:  r.Association.AccessPoint,
		FrequencyMHz: r.Association.FrequencyMHz,
		GatewayPing:  r.GatewayPing,
		InternetPing: r.InternetPing,
		DHCPOK:       r.DHCPOK,
		DNSOK:        r.DNSOK,
		AuthMethod:   r.AuthMethod,
	}
	if r.Association.FrequencyMHz != nil {
		if ch, ok := radio.ChannelOf(*r.Association.FrequencyMHz); ok {
			base.Channel = model.Ptr(ch)
		}
	}

	if len(r.Stations) == 0 {
		return []model.Sample{base}
	}

	out := make([]model.Sample, 0, len(r.Stations))
	for _, st := range r.Stations {
		s := base
		if st.MAC != "" {
			s.DeviceID = model.Ptr(st.MAC)
		}
		if st.SignalDbm != nil {
			s.SignalDbm = model.Ptr(*st.SignalDbm)
			s.SNRDb = model.Ptr(*st.SignalDbm - noiseFloorDbm)
		}
		if st.DataRateMbps != nil {
			s.DataRateMbps = model.Ptr(*st.DataRateMbps)
		}
		if st.RxBytes != nil {
			s.ThroughputMbps = model.Ptr(bytesToMegabits(*st.RxBytes))
		}
		out = append(out, s)
	}
	return out
}

// bytesToMegabits converts a cumulative byte counter; it is not a rate.
func bytesToMegabits(b uint64) float64 {
	return float64(b) * 8 / 1_000_000
}
