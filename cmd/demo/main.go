// Command demo runs a simulated boiler controller on a periodic state machine,
// exposing Prometheus metrics and optionally persisting its state.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/tickfsm"
)

func main() {
	opts := NewOptions()
	opts.AddFlags(pflag.CommandLine)
	pflag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func newLogger(verbosity int) (logr.Logger, func(), error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zapcore.Level(-verbosity))
	zapLog, err := zc.Build()
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(zapLog), func() { _ = zapLog.Sync() }, nil
}

func run(opts *Options) (err error) {
	if err := opts.Validate(); err != nil {
		return err
	}
	cfg, err := opts.MachineConfig()
	if err != nil {
		return err
	}
	logger, flush, err := newLogger(opts.LogVerbosity)
	if err != nil {
		return err
	}
	defer flush()
	logger = logger.WithValues("machine", cfg.ID)

	registry := prometheus.NewRegistry()
	metrics := tickfsm.NewMetrics()
	if err := multierr.Combine(
		metrics.Register(registry),
		registry.Register(collectors.NewGoCollector()),
	); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	records := make(chan tickfsm.TransitionRecord, 64)
	publisher := tickfsm.NewChannelPublisher(records)
	machineOpts := []tickfsm.Option{
		tickfsm.WithConfig(cfg),
		tickfsm.WithLogger(logger),
		tickfsm.WithObserver(metrics),
		tickfsm.WithPublisher(publisher),
	}
	if opts.SnapshotDir != "" {
		persister, err := tickfsm.NewYAMLPersister(opts.SnapshotDir)
		if err != nil {
			return err
		}
		machineOpts = append(machineOpts, tickfsm.WithPersister(persister))
	}

	boiler := NewBoiler(opts.Boiler, cfg.Period, logger, machineOpts...)
	if opts.SnapshotDir != "" {
		err := boiler.M.RestoreLatest(context.Background(), decodeBoilerState)
		switch {
		case err == nil:
			logger.Info("resumed from snapshot", "state", boiler.M.State())
		case errors.Is(err, tickfsm.ErrSnapshotNotFound):
		default:
			return fmt.Errorf("restore: %w", err)
		}
	}

	recordsDone := make(chan struct{})
	go func() {
		defer close(recordsDone)
		for rec := range records {
			logger.Info("transition", "event", rec.EventID, "from", rec.From, "to", rec.To,
				"celsius", fmt.Sprintf("%.1f", boiler.Temperature()))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	boiler.Start()
	demand := tickfsm.NewTimerEventSource(tickfsm.NewEvent(EvDemand), opts.DemandEvery,
		tickfsm.WithName(cfg.ID+"-demand"), tickfsm.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := tickfsm.Pump(ctx, demand, boiler.M, logger)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return err
	})
	if opts.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.MetricsAddr,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", opts.MetricsAddr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()

	demand.Stop()
	boiler.M.Stop()
	err = multierr.Append(err, publisher.Close())
	<-recordsDone
	logger.Info("stopped", "state", boiler.M.State(), "celsius", fmt.Sprintf("%.1f", boiler.Temperature()))
	return err
}
