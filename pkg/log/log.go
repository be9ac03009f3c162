package log

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = newLogger(os.Stdout, zerolog.InfoLevel)

const (
	timeFormat = "2006-01-02 15:04:05.000"
)

// Config defines parameters for the logger
type Config struct {
	Level string `mapstructure:"level"`
}

// ParseLevel maps a config level to a zerolog level.
// Supported levels are: ["trace", "debug", "info", "warn", "error"]
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	}
	return zerolog.InfoLevel
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	output := zerolog.ConsoleWriter{Out: out, NoColor: false, TimeFormat: timeFormat}
	output.FormatTimestamp = func(i interface{}) string {
		return fmt.Sprintf("[%v]", i)
	}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("[%-3s]", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("=> %s", i)
	}
	return output
}

func newLogger(out io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(consoleWriter(out)).Level(level).With().Timestamp().Logger()
}

// Init initializes the package logger.
func Init(level string) {
	zerolog.TimeFieldFormat = timeFormat
	log = newLogger(os.Stdout, ParseLevel(level))
}

// Infof logs a formatted info level log to the console
func Infof(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

// Tracef logs a formatted trace level log to the console
func Tracef(format string, v ...interface{}) {
	log.Trace().Msgf(format, v...)
}

// Debugf logs a formatted debug level log to the console
func Debugf(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

// Warnf logs a formatted warn level log to the console
func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

// Errorf logs a formatted error level log to the console
func Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

// Panicf logs a formatted panic level log to the console.
// The panic() function is called, which stops the ordinary flow of a goroutine.
func Panicf(format string, v ...interface{}) {
	log.Panic().Msgf(format, v...)
}
