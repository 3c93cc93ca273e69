package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"github.com/rs/zerolog"
)

// Setup builds the process logger: colored console output, plain console
// format to the optional log file, and optionally a Graylog GELF writer.
type Setup struct {
	Level          string
	File           *os.File
	GraylogEnabled bool
	GraylogAddress string
}

// ParseLevel converts a string log level to a zerolog.Level, defaulting
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	case "TRACE":
		return zerolog.TraceLevel
	default:
		return zerolog.InfoLevel
	}
}

// New configures the global zerolog level and returns the process
// logger.
func New(s Setup) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(s.Level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{
		zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		},
	}

	if s.File != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        s.File,
			TimeFormat: time.RFC3339,
			NoColor:    true,
		})
	}

	if s.GraylogEnabled {
		if gw, err := gelf.NewWriter(s.GraylogAddress); err == nil {
			writers = append(writers, gw)
		}
		// a dead graylog endpoint degrades to console+file only
	}

	mlw := zerolog.MultiLevelWriter(writers...)
	return zerolog.New(mlw).With().Timestamp().Logger()
}

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, name string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", name, sessionStart.Format("20060102_150405")),
	)
}
