package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts rs/zerolog to the Logger contract. Used by
// cmd/server for production-shaped structured logging.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerolog returns a Logger backed by zerolog, writing JSON lines to w.
func NewZerolog(w io.Writer) *ZerologLogger {
	if w == nil {
		w = os.Stderr
	}
	return &ZerologLogger{log: zerolog.New(w).With().Timestamp().Logger()}
}

func (z *ZerologLogger) With(args ...any) Logger {
	ctx := z.log.With()
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, args[i+1])
	}
	return &ZerologLogger{log: ctx.Logger()}
}

func (z *ZerologLogger) Debug(msg string, args ...any) { z.event(z.log.Debug(), args).Msg(msg) }
func (z *ZerologLogger) Info(msg string, args ...any)  { z.event(z.log.Info(), args).Msg(msg) }
func (z *ZerologLogger) Warn(msg string, args ...any)  { z.event(z.log.Warn(), args).Msg(msg) }
func (z *ZerologLogger) Error(msg string, args ...any) { z.event(z.log.Error(), args).Msg(msg) }

func (z *ZerologLogger) event(e *zerolog.Event, args []any) *zerolog.Event {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, args[i+1])
	}
	return e
}
