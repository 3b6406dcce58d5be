// Package log provides a thread-safe, structured logging infrastructure with filesystem-based persistence.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/ytrelay/ytrelay/filesystem"
	"github.com/ytrelay/ytrelay/key"
	"github.com/ytrelay/ytrelay/where"
)

// enabled indicates the logging state for the active application instance.
var enabled bool

// Fields is an alias of logrus.Fields so callers need not import logrus.
type Fields = logrus.Fields

// Setup initializes the logging subsystem, including destination, formatting and severity levels based on global configuration.
// Destination: a dated file under where.Logs() when logs.write is set, otherwise stderr when logs.stderr is set.
// Inoperative state: If both are disabled, all subsequent log emissions are silently discarded.
// Setup may be called again after flags have been bound to reconfigure the subsystem.
func Setup() error {
	toFile := viper.GetBool(key.LogsWrite)
	toStderr := viper.GetBool(key.LogsStderr)
	enabled = toFile || toStderr
	if !enabled {
		logrus.SetOutput(io.Discard)
		return nil
	}

	if toFile {
		out, err := openLogFile()
		if err != nil {
			return err
		}
		logrus.SetOutput(out)
	} else {
		logrus.SetOutput(os.Stderr)
	}

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl := viper.GetString(key.LogsLevel)
	parsed, err := logrus.ParseLevel(lvl)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

func openLogFile() (io.Writer, error) {
	dir := where.Logs()
	if dir == "" {
		return nil, errors.New("log directory path is empty")
	}

	filename := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
	path := filepath.Join(dir, filename)

	if exists := lo.Must(filesystem.API().Exists(path)); !exists {
		lo.Must(filesystem.API().Create(path))
	}

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Enabled reports whether log emissions currently reach a destination.
func Enabled() bool {
	return enabled
}

// WithFields returns an entry carrying structured context. It is a discarding entry when logging is disabled.
func WithFields(fields Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

// Severity-Specific Log Emissions - these functions proxy messages to the configured backend when logging is enabled.

func Error(args ...interface{}) {
	if enabled {
		logrus.Error(args...)
	}
}
func Errorf(format string, args ...interface{}) {
	if enabled {
		logrus.Errorf(format, args...)
	}
}
func Warn(args ...interface{}) {
	if enabled {
		logrus.Warn(args...)
	}
}
func Warnf(format string, args ...interface{}) {
	if enabled {
		logrus.Warnf(format, args...)
	}
}
func Info(args ...interface{}) {
	if enabled {
		logrus.Info(args...)
	}
}
func Infof(format string, args ...interface{}) {
	if enabled {
		logrus.Infof(format, args...)
	}
}
func Debug(args ...interface{}) {
	if enabled {
		logrus.Debug(args...)
	}
}
func Debugf(format string, args ...interface{}) {
	if enabled {
		logrus.Debugf(format, args...)
	}
}
