package log

import (
	"io"
	"os"

	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

// LoggerFactory hands zerolog backed loggers to pion style components,
// tagging every line with the component scope.
type LoggerFactory struct {
	out   io.Writer
	level zerolog.Level
}

// NewLoggerFactory creates a LoggerFactory writing to stdout
func NewLoggerFactory(level string) *LoggerFactory {
	return &LoggerFactory{out: os.Stdout, level: ParseLevel(level)}
}

// NewLoggerFactoryWithWriter creates a LoggerFactory writing to out
func NewLoggerFactoryWithWriter(out io.Writer, level string) *LoggerFactory {
	return &LoggerFactory{out: out, level: ParseLevel(level)}
}

// NewLogger implements logging.LoggerFactory
func (f *LoggerFactory) NewLogger(scope string) logging.LeveledLogger {
	return &scopedLogger{
		log: newLogger(f.out, f.level).With().Str("scope", scope).Logger(),
	}
}

type scopedLogger struct {
	log zerolog.Logger
}

func (l *scopedLogger) Trace(msg string) { l.log.Trace().Msg(msg) }
func (l *scopedLogger) Tracef(format string, args ...interface{}) {
	l.log.Trace().Msgf(format, args...)
}
func (l *scopedLogger) Debug(msg string) { l.log.Debug().Msg(msg) }
func (l *scopedLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug().Msgf(format, args...)
}
func (l *scopedLogger) Info(msg string) { l.log.Info().Msg(msg) }
func (l *scopedLogger) Infof(format string, args ...interface{}) {
	l.log.Info().Msgf(format, args...)
}
func (l *scopedLogger) Warn(msg string) { l.log.Warn().Msg(msg) }
func (l *scopedLogger) Warnf(format string, args ...interface{}) {
	l.log.Warn().Msgf(format, args...)
}
func (l *scopedLogger) Error(msg string) { l.log.Error().Msg(msg) }
func (l *scopedLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msgf(format, args...)
}
