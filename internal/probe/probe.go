// Package probe runs the diagnostic checks that make up one sampling round.
//
// Every check is independently callable and independently failable. Failures
// are never returned to the caller: they surface as the absence marker of the
// corresponding field and are logged at debug level.
package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"

	"github.com/bilal/wifiwatch/internal/model"
)

var (
	ErrProbeUnavailable = errors.New("probe unavailable")
	ErrParse            = errors.New("unexpected probe output")
	ErrNoDefaultRoute   = errors.New("no default route found")
)

// Prober exposes one method per diagnostic check.
type Prober interface {
	CheckGateway(ctx context.Context) model.PingResult
	CheckInternet(ctx context.Context) model.PingResult
	CheckAddressAssignment(ctx context.Context) bool
	CheckNameResolution(ctx context.Context) bool
	CheckAuthMethod(ctx context.Context) model.AuthMethod
	ReadStationInfo(ctx context.Context) []model.StationInfo
	ReadAssociationInfo(ctx context.Context) model.AssociationInfo
}

type Options struct {
	Interface      string
	InternetHost   string
	DNSHost        string
	Timeout        time.Duration
	PrivilegedPing bool
}

// System is the production Prober. It shells out to iw and wpa_cli, uses
// netlink for routing and address state, and sends ICMP echoes directly.
type System struct {
	opts Options
	log  zerolog.Logger

	run        Runner
	ping       func(ctx context.Context, host, source string) (time.Duration, error)
	gateway    func() (net.IP, error)
	ifaceAddrs func(iface string) ([]net.IP, error)
	lookupHost func(ctx context.Context, host string) ([]string, error)
}

var _ Prober = (*System)(nil)

// NewSystem builds the production prober. log is expected to carry the
// component field already, see logger.WithComponent.
func NewSystem(opts Options, log zerolog.Logger) *System {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	s := &System{
		opts:       opts,
		log:        log.With().Str("interface", opts.Interface).Logger(),
		run:        ExecRunner,
		gateway:    DefaultGateway,
		ifaceAddrs: InterfaceAddrs,
		lookupHost: net.DefaultResolver.LookupHost,
	}
	s.ping = func(ctx context.Context, host, source string) (time.Duration, error) {
		return PingOnce(ctx, host, source, s.opts.Timeout, s.opts.PrivilegedPing)
	}
	return s
}

func (s *System) CheckGateway(ctx context.Context) model.PingResult {
	gw, err := s.gateway()
	if err != nil {
		s.log.Debug().Err(err).Msg("gateway lookup failed")
		return model.PingFailed()
	}
	return s.pingHost(ctx, gw.String())
}

func (s *System) CheckInternet(ctx context.Context) model.PingResult {
	return s.pingHost(ctx, s.opts.InternetHost)
}

func (s *System) pingHost(ctx context.Context, host string) model.PingResult {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	rtt, err := s.ping(ctx, host, s.sourceAddr())
	if err != nil {
		s.log.Debug().Err(err).Str("host", host).Msg("ping failed")
		return model.PingFailed()
	}
	return model.PingOK(float64(rtt) / float64(time.Millisecond))
}

// sourceAddr pins echoes to the monitored interface, or returns "" to let
// the kernel choose.
func (s *System) sourceAddr() string {
	if s.opts.Interface == "" {
		return ""
	}
	addrs, err := s.ifaceAddrs(s.opts.Interface)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	return addrs[0].String()
}

func (s *System) CheckAddressAssignment(_ context.Context) bool {
	addrs, err := s.ifaceAddrs(s.opts.Interface)
	if err != nil {
		s.log.Debug().Err(err).Msg("address lookup failed")
		return false
	}
	return len(addrs) > 0
}

func (s *System) CheckNameResolution(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	addrs, err := s.lookupHost(ctx, s.opts.DNSHost)
	if err != nil {
		s.log.Debug().Err(err).Str("host", s.opts.DNSHost).Msg("name resolution failed")
		return false
	}
	return len(addrs) > 0
}

func (s *System) CheckAuthMethod(ctx context.Context) model.AuthMethod {
	out, err := s.command(ctx, "wpa_cli", "-i", s.opts.Interface, "status")
	if err != nil {
		s.log.Debug().Err(err).Msg("wpa_cli status failed")
		return model.AuthUnknown
	}
	return ParseAuthMethod(out)
}

func (s *System) ReadStationInfo(ctx context.Context) []model.StationInfo {
	out, err := s.command(ctx, "iw", "dev", s.opts.Interface, "station", "dump")
	if err != nil {
		s.log.Debug().Err(err).Msg("station dump failed")
		return nil
	}
	stations := ParseStationDump(out)
	if len(stations) == 0 && len(bytes.TrimSpace(out)) > 0 {
		s.log.Debug().Err(ErrParse).Msg("no station records in station dump")
	}
	return stations
}

func (s *System) ReadAssociationInfo(ctx context.Context) model.AssociationInfo {
	out, err := s.command(ctx, "iw", "dev", s.opts.Interface, "link")
	if err != nil {
		s.log.Debug().Err(err).Msg("link query failed")
		return model.AssociationInfo{}
	}
	info := ParseLink(out)
	if info == (model.AssociationInfo{}) && !bytes.HasPrefix(bytes.TrimSpace(out), []byte("Not connected")) {
		s.log.Debug().Err(ErrParse).Msg("no association fields in link output")
	}
	return info
}

func (s *System) command(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	out, err := s.run(ctx, name, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrProbeUnavailable, name, err)
	}
	return out, nil
}
