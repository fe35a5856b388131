package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogEventAdapter adapts a zerolog event to LogEvent, filtering string and
// structured values through the logger's SensitiveDataFilter.
type LogEventAdapter struct {
	event  *zerolog.Event
	filter *SensitiveDataFilter
}

func (a *LogEventAdapter) wrap(e *zerolog.Event) LogEvent {
	return &LogEventAdapter{event: e, filter: a.filter}
}

// Msg sends the event.
func (a *LogEventAdapter) Msg(msg string) { a.event.Msg(msg) }

// Msgf sends the event with a formatted message.
func (a *LogEventAdapter) Msgf(format string, args ...any) { a.event.Msgf(format, args...) }

func (a *LogEventAdapter) Err(err error) LogEvent { return a.wrap(a.event.Err(err)) }

func (a *LogEventAdapter) Str(key, value string) LogEvent {
	if a.filter != nil {
		value = a.filter.FilterString(key, value)
	}
	return a.wrap(a.event.Str(key, value))
}

func (a *LogEventAdapter) Int(key string, value int) LogEvent {
	return a.wrap(a.event.Int(key, value))
}

func (a *LogEventAdapter) Int64(key string, value int64) LogEvent {
	return a.wrap(a.event.Int64(key, value))
}

func (a *LogEventAdapter) Uint64(key string, value uint64) LogEvent {
	return a.wrap(a.event.Uint64(key, value))
}

func (a *LogEventAdapter) Dur(key string, d time.Duration) LogEvent {
	return a.wrap(a.event.Dur(key, d))
}

func (a *LogEventAdapter) Interface(key string, i any) LogEvent {
	if a.filter != nil {
		i = a.filter.FilterValue(key, i)
	}
	return a.wrap(a.event.Interface(key, i))
}

func (a *LogEventAdapter) Bytes(key string, val []byte) LogEvent {
	return a.wrap(a.event.Bytes(key, val))
}

// Info creates an info-level event.
func (l *ZeroLogger) Info() LogEvent { return l.event(l.zlog.Info()) }

// Error creates an error-level event.
func (l *ZeroLogger) Error() LogEvent { return l.event(l.zlog.Error()) }

// Debug creates a debug-level event.
func (l *ZeroLogger) Debug() LogEvent { return l.event(l.zlog.Debug()) }

// Warn creates a warn-level event.
func (l *ZeroLogger) Warn() LogEvent { return l.event(l.zlog.Warn()) }

// Fatal creates a fatal-level event; sending it exits the process.
func (l *ZeroLogger) Fatal() LogEvent { return l.event(l.zlog.Fatal()) }

func (l *ZeroLogger) event(e *zerolog.Event) LogEvent {
	return &LogEventAdapter{event: e, filter: l.filter}
}
