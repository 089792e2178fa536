package sentryutil

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"quote-engine/internal/config"
	"quote-engine/internal/logger"
)

// Init configures error tracking. An empty DSN leaves the SDK disabled.
func Init(cfg config.Config) {
	dsn := cfg.SentryDSN
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      cfg.SentryEnvironment,
		Release:          cfg.SentryRelease,
		TracesSampleRate: 0.2,
		EnableTracing:    dsn != "",
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			event.User = sentry.User{}
			return event
		},
	})
	if err != nil {
		logger.Warn("sentry init failed", "error", err.Error())
	}
	if dsn == "" {
		logger.Info("SENTRY_DSN empty, error tracking disabled")
	} else {
		logger.Info("sentry initialized", "environment", cfg.SentryEnvironment)
	}
}

func Flush() { sentry.Flush(2 * time.Second) }

func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(recovered interface{}, tags map[string]string) {
	err, ok := recovered.(error)
	if !ok {
		err = fmt.Errorf("panic: %v", recovered)
	}
	CaptureError(err, tags)
}
