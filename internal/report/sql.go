package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bilal/wifiwatch/internal/model"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnsupportedDriver = errors.New("unsupported sql driver")

// SQLWriter stores the finished session in a SQL database. With SQLite and
// no DSN the database is created inside the session directory.
type SQLWriter struct {
	driver string
	dsn    string
}

func NewSQLWriter(driver, dsn string) (*SQLWriter, error) {
	switch strings.ToLower(driver) {
	case DriverSQLite:
		return &SQLWriter{driver: DriverSQLite, dsn: dsn}, nil
	case DriverPostgres, "postgresql":
		if strings.TrimSpace(dsn) == "" {
			dsn = "postgres://localhost:5432/wifiwatch?sslmode=disable"
		}
		return &SQLWriter{driver: DriverPostgres, dsn: dsn}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func (w *SQLWriter) open(sessionDir string) (*sql.DB, error) {
	switch w.driver {
	case DriverSQLite:
		dsn := w.dsn
		if strings.TrimSpace(dsn) == "" {
			dsn = "file:" + filepath.Join(sessionDir, "session.db") + "?_pragma=busy_timeout(5000)"
		}
		return sql.Open("sqlite", dsn)
	default:
		return sql.Open("pgx", w.dsn)
	}
}

func (w *SQLWriter) Write(ctx context.Context, sessionDir string, sum model.SessionSummary, samples []model.Sample) error {
	db, err := w.open(sessionDir)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range w.schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	sessionID := uuid.New().String()
	if _, err := tx.ExecContext(ctx, w.rebind(
		`INSERT INTO sessions (id, started_at, ended_at, sample_count, duration_seconds,
			avg_signal_dbm, avg_snr_db, avg_data_rate_mbps, avg_throughput_mbps,
			avg_gateway_ping_ms, avg_internet_ping_ms, last_dhcp_ok, last_dns_ok, last_auth_method,
			good_count, poor_count, failure_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		sessionID,
		sum.Start.UTC(),
		sum.End.UTC(),
		sum.SampleCount,
		sum.DurationSeconds,
		sum.AvgSignalDbm,
		sum.AvgSNRDb,
		sum.AvgDataRateMbps,
		sum.AvgThroughputMbps,
		sum.AvgGatewayPingMs,
		sum.AvgInternetPingMs,
		sum.LastDHCPOK,
		sum.LastDNSOK,
		string(sum.LastAuthMethod),
		sum.GoodCount,
		sum.PoorCount,
		sum.FailureCount,
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	stmt, err := tx.PrepareContext(ctx, w.rebind(
		`INSERT INTO samples (session_id, seq, ts, device_id, ssid, access_point, frequency_mhz, channel,
			signal_dbm, snr_db, data_rate_mbps, throughput_mbps, gateway_rtt_ms, internet_rtt_ms,
			dhcp_ok, dns_ok, auth_method, verdict)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i, s := range samples {
		if _, err := stmt.ExecContext(ctx,
			sessionID,
			i,
			s.Timestamp.UTC(),
			s.DeviceID,
			s.SSID,
			s.AccessPoint,
			s.FrequencyMHz,
			s.Channel,
			s.SignalDbm,
			s.SNRDb,
			s.DataRateMbps,
			s.ThroughputMbps,
			s.GatewayPing.RTTMs,
			s.InternetPing.RTTMs,
			s.DHCPOK,
			s.DNSOK,
			string(s.AuthMethod),
			s.Verdict.String(),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (w *SQLWriter) schema() []string {
	float, ts := "REAL", "TEXT"
	if w.driver == DriverPostgres {
		float, ts = "DOUBLE PRECISION", "TIMESTAMPTZ"
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at ` + ts + ` NOT NULL,
			ended_at ` + ts + ` NOT NULL,
			sample_count INTEGER NOT NULL,
			duration_seconds ` + float + ` NOT NULL,
			avg_signal_dbm ` + float + ` NOT NULL,
			avg_snr_db ` + float + ` NOT NULL,
			avg_data_rate_mbps ` + float + ` NOT NULL,
			avg_throughput_mbps ` + float + ` NOT NULL,
			avg_gateway_ping_ms ` + float + ` NOT NULL,
			avg_internet_ping_ms ` + float + ` NOT NULL,
			last_dhcp_ok BOOLEAN NOT NULL,
			last_dns_ok BOOLEAN NOT NULL,
			last_auth_method TEXT NOT NULL,
			good_count INTEGER NOT NULL,
			poor_count INTEGER NOT NULL,
			failure_count INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS samples (
			session_id TEXT NOT NULL REFERENCES sessions(id),
			seq INTEGER NOT NULL,
			ts ` + ts + ` NOT NULL,
			device_id TEXT,
			ssid TEXT,
			access_point TEXT,
			frequency_mhz INTEGER,
			channel INTEGER,
			signal_dbm INTEGER,
			snr_db INTEGER,
			data_rate_mbps ` + float + `,
			throughput_mbps ` + float + `,
			gateway_rtt_ms ` + float + `,
			internet_rtt_ms ` + float + `,
			dhcp_ok BOOLEAN NOT NULL,
			dns_ok BOOLEAN NOT NULL,
			auth_method TEXT NOT NULL,
			verdict TEXT NOT NULL,
			PRIMARY KEY (session_id, seq)
		)`,
	}
}

// rebind rewrites ? placeholders to $n for postgres.
func (w *SQLWriter) rebind(query string) string {
	if w.driver != DriverPostgres {
		return query
	}
	var (
		b strings.Builder
		n int
	)
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
