// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the request-scoped logger injected by the HTTP Logger
// middleware, so every line written while serving a request carries its
// request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("product added", "id", id)
//	// → time=... level=INFO msg="product added" request_id=a1b2c3d4 id=...
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shashiranjanraj/storefront/config"
)

var L *slog.Logger

func init() {
	L = slog.New(newHandler(os.Stdout, config.IsProduction()))
	slog.SetDefault(L)
}

// Options selects the optional sinks used in addition to stdout.
type Options struct {
	Production bool
	// File, when set, receives a rotated JSON copy of every record.
	File string
	// MongoURI, when set, receives records asynchronously in storefront.logs.
	MongoURI string
}

// OptionsFromConfig reads the sink configuration from the environment.
func OptionsFromConfig() Options {
	return Options{
		Production: config.IsProduction(),
		File:       config.LogFile(),
		MongoURI:   config.LogMongoURI(),
	}
}

// Setup replaces the base logger with one that fans out to every configured
// sink. The returned func flushes and closes the sinks; call it on shutdown.
func Setup(opts Options) (func(), error) {
	handlers := []slog.Handler{newHandler(os.Stdout, opts.Production)}
	var closers []func()

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		handlers = append(handlers, newHandler(rotator, true))
		closers = append(closers, func() { _ = rotator.Close() })
	}

	if opts.MongoURI != "" {
		mh, err := NewMongoHandler(opts.MongoURI, "storefront", "logs")
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, mh)
		closers = append(closers, mh.Close)
	}

	if len(handlers) == 1 {
		L = slog.New(handlers[0])
	} else {
		L = slog.New(NewMultiHandler(handlers...))
	}
	slog.SetDefault(L)

	return func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func newHandler(w io.Writer, production bool) slog.Handler {
	if production {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// ctxKey is the unexported key used to store a per-request *slog.Logger.
type ctxKey struct{}

// WithCtx returns the logger stored in ctx by InjectLogger, or the base
// logger when the context carries none (background jobs, subscriptions).
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
