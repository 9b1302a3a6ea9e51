package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/bilal/wifiwatch/internal/communicator"
	"github.com/bilal/wifiwatch/internal/config"
	"github.com/bilal/wifiwatch/internal/health"
	"github.com/bilal/wifiwatch/internal/logger"
	"github.com/bilal/wifiwatch/internal/monitor"
	"github.com/bilal/wifiwatch/internal/probe"
	"github.com/bilal/wifiwatch/internal/report"
	"github.com/bilal/wifiwatch/internal/session"
)

func main() {
	flags := pflag.NewFlagSet("wifiwatch", pflag.ExitOnError)
	config.Flags(flags)
	_ = flags.Parse(os.Args[1:])

	// Load config
	cfg, err := config.Load("config.yaml", flags)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Init logger
	logger.Init(cfg.Logging)
	log.Info().
		Str("agent", cfg.Agent.Name).
		Str("interface", cfg.Agent.Interface).
		Dur("interval", cfg.Interval()).
		Msg("starting wifiwatch")

	// SIGINT/SIGTERM end the session
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	//------------------------------------------
	// REPORTS
	//------------------------------------------
	reporter, err := newReporter(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid report config")
	}

	var opts []monitor.Option

	//------------------------------------------
	// HEALTH SERVER
	//------------------------------------------
	var healthSrv *health.Server
	if cfg.Health.Enabled {
		healthSrv = health.New(cfg.Health.Listen)
		healthSrv.SetRunning(true)
		go func() {
			if err := healthSrv.Serve(); err != nil {
				log.Error().Err(err).Msg("health server stopped")
			}
		}()
		opts = append(opts, monitor.WithObserver(healthSrv))
		log.Info().Str("listen", cfg.Health.Listen).Msg("health endpoint running")
	}

	//------------------------------------------
	// TELEMETRY
	//------------------------------------------
	var comm *communicator.Communicator
	if cfg.Telemetry.BackendURL != "" {
		comm = communicator.New(cfg)
		comm.Start()
		opts = append(opts, monitor.WithPublisher(comm))
	}

	var producer *communicator.KafkaProducer
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = communicator.NewKafkaProducer(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init kafka producer")
		}
		opts = append(opts, monitor.WithPublisher(producer))
	}

	//------------------------------------------
	// MONITOR
	//------------------------------------------
	prober := probe.NewSystem(probe.Options{
		Interface:      cfg.Agent.Interface,
		InternetHost:   cfg.Agent.InternetHost,
		DNSHost:        cfg.Agent.DNSHost,
		Timeout:        cfg.ProbeTimeout(),
		PrivilegedPing: cfg.Agent.PrivilegedPing,
	}, logger.WithComponent("probe"))

	mon := monitor.New(cfg, prober, reporter, opts...)
	sum, runErr := mon.Run(ctx)

	//------------------------------------------
	// SHUTDOWN SEQUENCE
	//------------------------------------------
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if comm != nil {
		log.Info().Msg("stopping communicator...")
		comm.Shutdown(shutdownCtx)
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn().Err(err).Msg("kafka close failed")
		}
	}
	if healthSrv != nil {
		healthSrv.SetRunning(false)
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("health server shutdown failed")
		}
	}

	switch {
	case errors.Is(runErr, monitor.ErrClock):
		log.Fatal().Err(runErr).Msg("monitor aborted")
	case errors.Is(runErr, session.ErrEmptySeries):
		log.Warn().Msg("session ended before the first sample")
	case runErr != nil:
		log.Error().Err(runErr).Msg("session finalized with errors")
	default:
		log.Info().Int("samples", sum.SampleCount).Msg("wifiwatch stopped cleanly")
	}
}

func newReporter(cfg *config.Config) (report.Generator, error) {
	var gens report.Multi
	if cfg.Report.Console {
		gens = append(gens, report.NewConsole(os.Stdout))
	}

	var sqlWriter *report.SQLWriter
	if cfg.Report.SQLDriver != "" {
		w, err := report.NewSQLWriter(cfg.Report.SQLDriver, cfg.Report.SQLDSN)
		if err != nil {
			return nil, err
		}
		sqlWriter = w
	}

	files, err := report.NewFiles(cfg.Report.Dir, cfg.Report.Formats, sqlWriter)
	if err != nil {
		return nil, err
	}
	return append(gens, files), nil
}
