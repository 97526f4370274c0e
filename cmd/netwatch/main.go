package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/netwatch-io/netwatch/internal/alert"
	"github.com/netwatch-io/netwatch/internal/api"
	"github.com/netwatch-io/netwatch/internal/bus"
	"github.com/netwatch-io/netwatch/internal/config"
	"github.com/netwatch-io/netwatch/internal/engine"
	"github.com/netwatch-io/netwatch/internal/metrics"
)

func main() {
	app := kingpin.New("netwatch", "Network-reachability monitoring service.")
	workDir := app.Flag("dir", "Change working directory before any file I/O.").Short('d').String()
	configPath := app.Flag("config", "Config file path.").Short('c').Default(config.DefaultPath).String()
	listen := app.Flag("listen", "HTTP bind address.").Default(api.DefaultAddress).String()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if *workDir != "" {
		if err := os.Chdir(*workDir); err != nil {
			fmt.Fprintf(os.Stderr, "failed to change directory to %s: %v\n", *workDir, err)
			os.Exit(1)
		}
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	store := config.NewStore(*configPath, logger)
	cfg, err := store.Load()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		os.Exit(1)
	}

	cfgBus := bus.NewConfig(cfg)
	stream := bus.NewStream(bus.DefaultStreamCapacity, metrics.StreamDroppedTotal.Inc)
	dispatcher := alert.NewDispatcher(logger)
	eng := engine.New(cfgBus, stream, dispatcher, engine.Options{Logger: logger})
	eng.LoadCache(engine.CacheFile)

	// Closed exactly once on shutdown; observed by the SSE streams.
	shutdownCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			close(shutdownCh)
			cancel()
		})
	}

	srv := api.NewServer(eng, cfgBus, stream, store, shutdownCh, api.ServerOptions{
		Addr:   *listen,
		Logger: logger,
	})

	var g run.Group
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))
	g.Add(func() error {
		return eng.Run(ctx)
	}, func(error) {
		stop()
	})
	g.Add(func() error {
		return eng.RunPersistence(ctx, store)
	}, func(error) {
		stop()
	})
	g.Add(func() error {
		return store.Watch(ctx, cfgBus.Publish)
	}, func(error) {
		stop()
	})
	g.Add(func() error {
		return srv.ListenAndServe()
	}, func(error) {
		stop()
		_ = srv.Stop(context.Background())
	})

	err = g.Run()
	stop()

	var sig run.SignalError
	switch {
	case err == nil:
	case errors.As(err, &sig):
		logger.Info("received signal, shutting down", zap.String("signal", sig.Signal.String()))
	default:
		logger.Error("component failed, shutting down", zap.Error(err))
	}

	if err := eng.SaveCache(engine.CacheFile); err != nil {
		logger.Error("failed to save cache", zap.Error(err))
	}
	logger.Info("goodbye")
}

// newLogger builds the process logger with the level taken from NETWATCH_LOG.
func newLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if v := os.Getenv("NETWATCH_LOG"); v != "" {
		if parsed, err := zapcore.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
