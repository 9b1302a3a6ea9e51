package report

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bilal/wifiwatch/internal/model"
)

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

const plotFile = "timeseries.png"

var ErrUnknownFormat = errors.New("unknown report format")

// Files writes session artifacts into <dir>/report_<start>/ when the
// session ends.
type Files struct {
	dir     string
	formats []string
	sql     *SQLWriter
	start   time.Time
	path    string
}

func NewFiles(dir string, formats []string, sql *SQLWriter) (*Files, error) {
	for _, f := range formats {
		switch strings.ToLower(f) {
		case FormatJSON, FormatYAML, FormatCSV, FormatPNG, FormatPDF:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
		}
	}
	return &Files{dir: dir, formats: formats, sql: sql}, nil
}

func (f *Files) Begin(start time.Time) error {
	f.start = start
	f.path = filepath.Join(f.dir, SessionDirName(start))
	return nil
}

func (f *Files) Sample(model.Sample) error { return nil }

// Path is the session directory; empty before Begin.
func (f *Files) Path() string {
	return f.path
}

func (f *Files) Finish(ctx context.Context, sum model.SessionSummary, samples []model.Sample) error {
	if f.path == "" {
		if err := f.Begin(sum.Start); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(f.path, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	var errs []error
	for _, format := range f.formats {
		var err error
		switch strings.ToLower(format) {
		case FormatJSON:
			err = writeJSON(filepath.Join(f.path, "summary.json"), sum, samples)
		case FormatYAML:
			err = writeYAML(filepath.Join(f.path, "summary.yaml"), sum)
		case FormatCSV:
			err = writeCSV(filepath.Join(f.path, "samples.csv"), samples)
		case FormatPNG:
			err = f.writePlot(samples)
		case FormatPDF:
			err = f.writePDF(sum, samples)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("write %s report: %w", format, err))
		}
	}

	if f.sql != nil {
		if err := f.sql.Write(ctx, f.path, sum, samples); err != nil {
			errs = append(errs, fmt.Errorf("write sql report: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (f *Files) writePlot(samples []model.Sample) error {
	err := WritePlot(filepath.Join(f.path, plotFile), samples)
	if errors.Is(err, ErrNoSamples) {
		return nil
	}
	return err
}

// writePDF embeds the graph, rendering it first when png output was not
// requested or has not been written yet.
func (f *Files) writePDF(sum model.SessionSummary, samples []model.Sample) error {
	plotPath := filepath.Join(f.path, plotFile)
	if _, err := os.Stat(plotPath); err != nil {
		if err := WritePlot(plotPath, samples); err != nil {
			if !errors.Is(err, ErrNoSamples) {
				return err
			}
			plotPath = ""
		}
	}
	return WritePDF(filepath.Join(f.path, "report.pdf"), sum, plotPath)
}

func writeJSON(path string, sum model.SessionSummary, samples []model.Sample) error {
	doc := struct {
		Summary model.SessionSummary `json:"summary"`
		Samples []model.Sample       `json:"samples"`
	}{sum, samples}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeYAML(path string, sum model.SessionSummary) error {
	data, err := yaml.Marshal(sum)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

var csvHeader = []string{
	"timestamp", "device_id", "ssid", "access_point", "frequency_mhz", "channel",
	"signal_dbm", "snr_db", "data_rate_mbps", "throughput_mbps",
	"gateway_rtt_ms", "internet_rtt_ms", "dhcp_ok", "dns_ok", "auth_method", "verdict",
}

// writeCSV writes the time series; absent values are empty cells.
func writeCSV(path string, samples []model.Sample) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(file)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Write(csvRow(s)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func csvRow(s model.Sample) []string {
	str := func(p *string) string { return model.ValueOr(p, "") }
	num := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	flt := func(p *float64) string {
		if p == nil {
			return ""
		}
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}

	return []string{
		s.Timestamp.Format(time.RFC3339),
		str(s.DeviceID),
		str(s.SSID),
		str(s.AccessPoint),
		num(s.FrequencyMHz),
		num(s.Channel),
		num(s.SignalDbm),
		num(s.SNRDb),
		flt(s.DataRateMbps),
		flt(s.ThroughputMbps),
		flt(s.GatewayPing.RTTMs),
		flt(s.InternetPing.RTTMs),
		strconv.FormatBool(s.DHCPOK),
		strconv.FormatBool(s.DNSOK),
		string(s.AuthMethod),
		s.Verdict.String(),
	}
}
