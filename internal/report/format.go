package report

import (
	"fmt"
	"strconv"

	"github.com/bilal/wifiwatch/internal/model"
)

// NotAvailable is the display form of an absent value.
const NotAvailable = "N/A"

func orNA[T any](p *T, format func(T) string) string {
	if p == nil {
		return NotAvailable
	}
	return format(*p)
}

func formatString(p *string) string {
	return orNA(p, func(s string) string { return s })
}

func formatInt(p *int) string {
	return orNA(p, strconv.Itoa)
}

func formatFrequency(p *int) string {
	return orNA(p, func(v int) string { return strconv.Itoa(v) + " MHz" })
}

func formatDataRate(p *float64) string {
	return orNA(p, func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + " MBit/s" })
}

func formatThroughput(p *float64) string {
	return orNA(p, func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) + " Mbps" })
}

func formatPing(p model.PingResult) string {
	if p.Failed() {
		return "Failure"
	}
	return strconv.FormatFloat(*p.RTTMs, 'f', 2, 64) + " ms"
}

func formatStatus(ok bool) string {
	if ok {
		return "Success"
	}
	return "Failure"
}

// summaryLines is the closing summary shared by the console and PDF reports.
func summaryLines(sum model.SessionSummary) []string {
	return []string{
		fmt.Sprintf("Total Test Duration: %.0f seconds", sum.DurationSeconds),
		fmt.Sprintf("Average Signal Strength: %.2f dBm", sum.AvgSignalDbm),
		fmt.Sprintf("Average SNR: %.2f dB", sum.AvgSNRDb),
		fmt.Sprintf("Average Data Rate: %.2f MBit/s", sum.AvgDataRateMbps),
		fmt.Sprintf("Average Throughput: %.2f Mbps", sum.AvgThroughputMbps),
		fmt.Sprintf("Average Gateway Ping: %.2f ms", sum.AvgGatewayPingMs),
		fmt.Sprintf("Average Internet Ping: %.2f ms", sum.AvgInternetPingMs),
		"DHCP Status: " + formatStatus(sum.LastDHCPOK),
		"DNS Status: " + formatStatus(sum.LastDNSOK),
		"Authentication Method: " + string(sum.LastAuthMethod),
		fmt.Sprintf("Successful Tests: %d", sum.GoodCount),
		fmt.Sprintf("Poor Tests: %d", sum.PoorCount),
		fmt.Sprintf("Failed Tests: %d", sum.FailureCount),
	}
}
