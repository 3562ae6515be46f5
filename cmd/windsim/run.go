package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/windsim/internal/config"
	"github.com/san-kum/windsim/internal/dynamo"
	"github.com/san-kum/windsim/internal/engine"
	intlog "github.com/san-kum/windsim/internal/logging"
	"github.com/san-kum/windsim/internal/metrics"
	"github.com/san-kum/windsim/internal/storage"
	"github.com/san-kum/windsim/internal/supervise"
)

func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	v := config.NewViper()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, err
	}
	return config.Resolve(v)
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := intlog.New(intlog.Options{Level: cfg.LogLevel})
	if err != nil {
		return err
	}
	log := logrus.NewEntry(logger)

	store, err := cfg.OpenParams()
	if err != nil {
		return err
	}
	var procRole dynamo.Role
	if cmd.Flags().Changed("role") || cfg.Role != config.DefaultRole {
		if procRole, err = dynamo.ParseRole(cfg.Role); err != nil {
			return err
		}
	}

	runID := storage.NewRunID()
	var data *storage.Store
	if cfg.Logging {
		data = storage.New(cfg.DataDir)
		if err := os.MkdirAll(data.Dir(runID), 0755); err != nil {
			return err
		}
		detach, err := intlog.TeeToFile(logger, data.Dir(runID))
		if err != nil {
			return err
		}
		defer detach()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	loop, err := metrics.NewLoop(reg)
	if err != nil {
		return err
	}

	eng, err := engine.New(store, engine.Options{
		Role:      procRole,
		Storage:   data,
		RunID:     runID,
		ParentPID: cfg.ParentPID,
		Argv:      os.Args,
		Log:       log,
		Metrics:   loop,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	var sum engine.Summary
	g.Go(func() error {
		defer cancel()
		var err error
		sum, err = eng.Run(runCtx)
		return err
	})
	g.Go(func() error {
		w := &supervise.Watcher{
			PID:      cfg.ParentPID,
			Interval: cfg.Supervise.Interval,
			Log:      log,
		}
		return w.Watch(runCtx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(runCtx, cfg.MetricsAddr, reg, log)
		})
	}

	runErr := g.Wait()
	closeErr := eng.Close()
	printSummary(sum, eng.RunDir())
	return errors.Join(runErr, closeErr)
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *logrus.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.WithField("addr", addr).Info("serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func printSummary(sum engine.Summary, dir string) {
	fmt.Println(bold.Render("run " + sum.RunID))
	fmt.Printf("  %s %d/%d\n", dim.Render("steps:"), sum.Steps, sum.Planned)
	fmt.Printf("  %s %.4fs\n", dim.Render("sim time:"), sum.SimTime)
	fmt.Printf("  %s %d\n", dim.Render("control firings:"), sum.ControlFirings)
	fmt.Printf("  %s %v\n", dim.Render("elapsed:"), sum.Elapsed.Round(time.Millisecond))
	if dir != "" {
		fmt.Printf("  %s %s\n", dim.Render("run dir:"), dir)
	}
	if len(sum.Metrics) > 0 {
		names := make([]string, 0, len(sum.Metrics))
		for name := range sum.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println(white.Render("\nmetrics:"))
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, cyan.Render(fmt.Sprintf("%.6f", sum.Metrics[name])))
		}
	}
	if sum.Err != nil {
		fmt.Println(red.Render("\nstopped: " + metrics.Reason(sum.Err)))
	}
}
