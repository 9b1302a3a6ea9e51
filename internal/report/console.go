package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bilal/wifiwatch/internal/model"
)

const rowFormat = "%-20s %-18s %-12s %-18s %-10s %-8s %-8s %-18s %-14s %-6s %-10s %-10s %-8s %-8s %-8s %-8s\n"

var headers = []any{
	"Timestamp", "MAC Address", "SSID", "AP", "Frequency", "Channel",
	"Signal", "Data Rate", "Throughput", "SNR", "GTW Ping", "INT Ping",
	"DHCP", "DNS", "Auth", "Verdict",
}

// Console prints a live table and a closing summary block.
type Console struct {
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) Begin(time.Time) error {
	if _, err := fmt.Fprintln(c.w, "Real-Time Wi-Fi Analysis Started (Press CTRL+C to stop)"); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.w, rowFormat, headers...)
	return err
}

func (c *Console) Sample(s model.Sample) error {
	_, err := fmt.Fprintf(c.w, rowFormat,
		s.Timestamp.Format("2006-01-02 15:04:05"),
		formatString(s.DeviceID),
		formatString(s.SSID),
		formatString(s.AccessPoint),
		formatFrequency(s.FrequencyMHz),
		formatInt(s.Channel),
		formatInt(s.SignalDbm),
		formatDataRate(s.DataRateMbps),
		formatThroughput(s.ThroughputMbps),
		formatInt(s.SNRDb),
		formatPing(s.GatewayPing),
		formatPing(s.InternetPing),
		formatStatus(s.DHCPOK),
		formatStatus(s.DNSOK),
		string(s.AuthMethod),
		s.Verdict.String(),
	)
	return err
}

func (c *Console) Finish(_ context.Context, sum model.SessionSummary, _ []model.Sample) error {
	if _, err := fmt.Fprint(c.w, "\nAnalysis stopped.\n\nTest Summary:\n"); err != nil {
		return err
	}
	for _, line := range summaryLines(sum) {
		if _, err := fmt.Fprintln(c.w, line); err != nil {
			return err
		}
	}
	return nil
}
