package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bilal/wifiwatch/internal/config"
)

func Init(lcfg config.LoggingConfig) {
	InitWithWriter(lcfg, os.Stderr)
}

// InitWithWriter configures the global logger to write to w.
func InitWithWriter(lcfg config.LoggingConfig, w io.Writer) {
	// level
	level := strings.ToLower(lcfg.Level)
	levelVal := zerolog.InfoLevel
	switch level {
	case "debug":
		levelVal = zerolog.DebugLevel
	case "info":
		levelVal = zerolog.InfoLevel
	case "warn", "warning":
		levelVal = zerolog.WarnLevel
	case "error":
		levelVal = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(levelVal)

	// format
	if strings.ToLower(lcfg.Format) == "console" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		// default json
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	}
}

// WithComponent returns a child of the global logger tagged with component.
func WithComponent(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
