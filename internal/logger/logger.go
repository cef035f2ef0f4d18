// Package logger builds the process slog logger.
package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Options configures New.
type Options struct {
	// Development selects text output at debug level instead of JSON at info.
	Development bool
	// SentryDSN, when set, also forwards error records to Sentry.
	SentryDSN   string
	Environment string
	Output      io.Writer
}

// New builds a logger from opts. Sentry initialization failures are reported
// on the returned logger and otherwise ignored.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var handlers []slog.Handler
	if opts.Development {
		handlers = append(handlers, slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	} else {
		handlers = append(handlers, slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	var sentryErr error
	if opts.SentryDSN != "" {
		sentryErr = sentry.Init(sentry.ClientOptions{
			Dsn:         opts.SentryDSN,
			Environment: opts.Environment,
		})
		if sentryErr == nil {
			handlers = append(handlers, slogsentry.Option{Level: slog.LevelError}.NewSentryHandler())
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = slogmulti.Fanout(handlers...)
	} else {
		handler = handlers[0]
	}

	log := slog.New(handler)
	if sentryErr != nil {
		log.Warn("sentry disabled", "error", sentryErr)
	}
	return log
}

// Init builds the logger and installs it as the slog default.
func Init(opts Options) *slog.Logger {
	log := New(opts)
	slog.SetDefault(log)
	return log
}
