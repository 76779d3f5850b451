package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init cấu hình global logger. level rỗng hoặc không hợp lệ -> info
func Init(env, level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// FromContext trả về logger gắn với request (correlation_id, request_id),
// fallback về global logger khi ctx chưa có.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &log.Logger
}
