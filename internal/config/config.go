package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

type AgentConfig struct {
	Name                string `mapstructure:"name"`
	Interface           string `mapstructure:"interface"`
	IntervalSeconds     int    `mapstructure:"interval_seconds"`
	ProbeTimeoutSeconds int    `mapstructure:"probe_timeout_seconds"`
	NoiseFloorDbm       int    `mapstructure:"noise_floor_dbm"`
	InternetHost        string `mapstructure:"internet_host"`
	DNSHost             string `mapstructure:"dns_host"`
	PrivilegedPing      bool   `mapstructure:"privileged_ping"`
}

type ThresholdsConfig struct {
	PoorSignalDbm    int     `mapstructure:"poor_signal_dbm"`
	PoorSNRDb        int     `mapstructure:"poor_snr_db"`
	MaxGatewayRTTMs  float64 `mapstructure:"max_gateway_rtt_ms"`
	MaxInternetRTTMs float64 `mapstructure:"max_internet_rtt_ms"`
}

type ReportConfig struct {
	Dir       string   `mapstructure:"dir"`
	Formats   []string `mapstructure:"formats"` // json, yaml, csv, png, pdf
	Console   bool     `mapstructure:"console"`
	SQLDriver string   `mapstructure:"sql_driver"` // sqlite or postgres; empty disables
	SQLDSN    string   `mapstructure:"sql_dsn"`
}

type TelemetryConfig struct {
	BackendURL          string `mapstructure:"backend_url"`
	BackendAuthTokenEnv string `mapstructure:"backend_auth_token_env"` // e.g. WIFIWATCH_BACKEND_TOKEN
	SendIntervalSeconds int    `mapstructure:"send_interval_seconds"`
	TimeoutSeconds      int    `mapstructure:"timeout_seconds"`
	InsecureSkipVerify  bool   `mapstructure:"insecure_skip_verify"`
	MaxQueueSize        int    `mapstructure:"max_queue_size"`
}

type KafkaConfig struct {
	Brokers      []string `mapstructure:"brokers"`
	SamplesTopic string   `mapstructure:"samples_topic"`
	SummaryTopic string   `mapstructure:"summary_topic"`
}

type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type Config struct {
	Agent      AgentConfig      `mapstructure:"agent"`
	Thresholds ThresholdsConfig `mapstructure:"thresholds"`
	Report     ReportConfig     `mapstructure:"report"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Health     HealthConfig     `mapstructure:"health"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.Agent.IntervalSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Agent.ProbeTimeoutSeconds) * time.Second
}

// Flags registers the command line overrides understood by Load.
func Flags(flags *pflag.FlagSet) {
	flags.String("config", "config.yaml", "path to the YAML config file")
	flags.String("interface", "", "wireless interface to monitor")
	flags.Int("interval", 0, "sampling interval in seconds")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("agent.name", "wifiwatch")
	v.SetDefault("agent.interface", "wlan0")
	v.SetDefault("agent.interval_seconds", 5)
	v.SetDefault("agent.probe_timeout_seconds", 5)
	v.SetDefault("agent.noise_floor_dbm", -90)
	v.SetDefault("agent.internet_host", "8.8.8.8")
	v.SetDefault("agent.dns_host", "google.com")
	v.SetDefault("agent.privileged_ping", true)

	v.SetDefault("thresholds.poor_signal_dbm", -70)
	v.SetDefault("thresholds.poor_snr_db", 30)
	v.SetDefault("thresholds.max_gateway_rtt_ms", 12.0)
	v.SetDefault("thresholds.max_internet_rtt_ms", 50.0)

	v.SetDefault("report.dir", "report")
	v.SetDefault("report.formats", []string{"json", "csv", "png", "pdf"})
	v.SetDefault("report.console", true)
	v.SetDefault("report.sql_driver", "")

	v.SetDefault("telemetry.send_interval_seconds", 30)
	v.SetDefault("telemetry.timeout_seconds", 5)
	v.SetDefault("telemetry.max_queue_size", 1000)
	v.SetDefault("telemetry.insecure_skip_verify", false)

	v.SetDefault("kafka.samples_topic", "wifiwatch.samples")
	v.SetDefault("kafka.summary_topic", "wifiwatch.summary")

	v.SetDefault("health.enabled", true)
	v.SetDefault("health.listen", "127.0.0.1:8085")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Load reads the config file named by the --config flag, or path when the
// flag is unset. A missing file is not an error: defaults, environment and
// flags still apply.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// env overrides: WIFIWATCH_AGENT_INTERFACE etc.
	v.SetEnvPrefix("wifiwatch")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			path = f.Value.String()
		}
		if err := bindFlag(v, flags, "agent.interface", "interface"); err != nil {
			return nil, err
		}
		if err := bindFlag(v, flags, "agent.interval_seconds", "interval"); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			// SetConfigFile reports a missing file as a plain fs error.
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// quick sanity checks
	if cfg.Agent.IntervalSeconds < 1 {
		cfg.Agent.IntervalSeconds = 5
	}
	if cfg.Agent.ProbeTimeoutSeconds < 1 {
		cfg.Agent.ProbeTimeoutSeconds = 5
	}
	if strings.TrimSpace(cfg.Agent.Interface) == "" {
		return nil, errors.New("agent.interface must be set")
	}

	return &cfg, nil
}

// bindFlag binds only flags the user actually set, so an unset flag's zero
// value does not shadow the config file.
func bindFlag(v *viper.Viper, flags *pflag.FlagSet, key, name string) error {
	f := flags.Lookup(name)
	if f == nil || !f.Changed {
		return nil
	}
	if err := v.BindPFlag(key, f); err != nil {
		return fmt.Errorf("bind flag %s: %w", name, err)
	}
	return nil
}
