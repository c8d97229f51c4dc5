package auth

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ZerologLogger adapts a zerolog.Logger to Logger. Trailing args are read
// as key/value pairs.
type ZerologLogger struct {
	log zerolog.Logger
}

var _ Logger = (*ZerologLogger)(nil)

// NewZerologLogger wraps the given zerolog logger
func NewZerologLogger(log zerolog.Logger) *ZerologLogger {
	return &ZerologLogger{log: log.With().Str("component", "auth").Logger()}
}

func (z *ZerologLogger) Debug(format string, args ...any) {
	emit(z.log.Debug(), format, args)
}

func (z *ZerologLogger) Info(format string, args ...any) {
	emit(z.log.Info(), format, args)
}

func (z *ZerologLogger) Warn(format string, args ...any) {
	emit(z.log.Warn(), format, args)
}

func (z *ZerologLogger) Error(format string, args ...any) {
	emit(z.log.Error(), format, args)
}

func emit(evt *zerolog.Event, msg string, args []any) {
	if evt == nil {
		return
	}

	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprintf("arg%d", i)
		}

		if i+1 >= len(args) {
			evt = evt.Interface(key, nil)
			break
		}

		switch v := args[i+1].(type) {
		case error:
			evt = evt.AnErr(key, v)
		case string:
			evt = evt.Str(key, v)
		case fmt.Stringer:
			evt = evt.Stringer(key, v)
		default:
			evt = evt.Interface(key, v)
		}
	}

	evt.Msg(msg)
}
