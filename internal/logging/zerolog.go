package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger backs Logger with zerolog, the production default.
type ZerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger builds a ZerologLogger writing JSON lines to stdout, or a
// console-formatted writer when pretty is true (handy for local dev).
func NewZerologLogger(component string, pretty bool) *ZerologLogger {
	var base zerolog.Logger
	if pretty {
		base = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	return &ZerologLogger{log: base.With().Str("component", component).Logger()}
}

func (z *ZerologLogger) Debug(msg string, args ...interface{}) {
	z.event(z.log.Debug(), msg, args...)
}

func (z *ZerologLogger) Info(msg string, args ...interface{}) {
	z.event(z.log.Info(), msg, args...)
}

func (z *ZerologLogger) Warn(msg string, args ...interface{}) {
	z.event(z.log.Warn(), msg, args...)
}

func (z *ZerologLogger) Error(msg string, args ...interface{}) {
	z.event(z.log.Error(), msg, args...)
}

// event applies alternating key/value pairs from args before logging msg.
func (z *ZerologLogger) event(e *zerolog.Event, msg string, args ...interface{}) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	e.Msg(msg)
}
