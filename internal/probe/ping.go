package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-ping/ping"
)

// PingOnce sends a single echo request to host and returns its round-trip
// time. source, when non-empty, is used as the echo source address.
func PingOnce(ctx context.Context, host, source string, timeout time.Duration, privileged bool) (time.Duration, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, fmt.Errorf("%w: create pinger: %w", ErrProbeUnavailable, err)
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.Source = source
	pinger.SetPrivileged(privileged)

	var rtt time.Duration
	pinger.OnRecv = func(pkt *ping.Packet) {
		if rtt == 0 {
			rtt = pkt.Rtt
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()

	if err := pinger.Run(); err != nil {
		return 0, fmt.Errorf("%w: run ping: %w", ErrProbeUnavailable, err)
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return 0, fmt.Errorf("%w: no reply from %s", ErrProbeUnavailable, host)
	}
	if rtt == 0 {
		rtt = stats.AvgRtt
	}
	return rtt, nil
}
