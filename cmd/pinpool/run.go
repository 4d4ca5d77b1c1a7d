package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jzx17/pinpool/internal/logger"
	"github.com/jzx17/pinpool/pkg/affinity"
	"github.com/jzx17/pinpool/pkg/pool"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload on a pinned pool",
	Long:  `Submits CPU-bound spin tasks from one or more producers, waits for the pool to drain and prints per-worker statistics.`,
	RunE:  runWorkload,
}

func init() {
	runCmd.Flags().IntVarP(&cfg.Pool.Workers, "workers", "w", cfg.Pool.Workers, "Number of pinned workers")
	runCmd.Flags().BoolVar(&cfg.Pool.Pin, "pin", cfg.Pool.Pin, "Pin worker i to CPU i mod online CPUs")
	runCmd.Flags().IntVarP(&cfg.Workload.Tasks, "tasks", "n", cfg.Workload.Tasks, "Number of tasks to submit")
	runCmd.Flags().DurationVarP(&cfg.Workload.TaskDuration, "task-duration", "d", cfg.Workload.TaskDuration, "CPU time each task spins for")
	runCmd.Flags().IntVarP(&cfg.Workload.Producers, "producers", "p", cfg.Workload.Producers, "Concurrent submitting goroutines")
	runCmd.Flags().Float64Var(&cfg.Workload.Rate, "rate", cfg.Workload.Rate, "Submission rate limit in tasks per second (0 = unlimited)")
	runCmd.Flags().StringVar(&cfg.App.MetricsAddr, "metrics-addr", cfg.App.MetricsAddr, "Serve /metrics, /stats and /health on this address")
}

func runWorkload(cmd *cobra.Command, _ []string) error {
	if cfg.Workload.Producers <= 0 {
		return fmt.Errorf("producers must be positive, got %d", cfg.Workload.Producers)
	}

	log, err := logger.NewForCLI(cfg.App.LogLevel, cfg.App.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	runID := uuid.NewString()
	log = log.With(zap.String("run_id", runID))

	undo, err := maxprocs.Set(maxprocs.Logger(log.Sugar().Debugf))
	if err != nil {
		log.Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	defer undo()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	poolConfig := &pool.Config{
		Workers:    cfg.Pool.Workers,
		Name:       "pinpool",
		Logger:     log,
		Registerer: reg,
		ErrorHandler: func(err error) error {
			log.Warn("task failed", zap.Error(err))
			return nil
		},
	}
	if cfg.Pool.Pin {
		poolConfig.Affinity = affinity.Modulo()
	}

	p, err := pool.New(poolConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Destroy(); err != nil {
			log.Error("pool teardown failed", zap.Error(err))
		}
	}()

	if cfg.App.MetricsAddr != "" {
		srv := &http.Server{
			Addr:         cfg.App.MetricsAddr,
			Handler:      newRouter(p, reg, runID, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info("serving metrics", zap.String("addr", cfg.App.MetricsAddr))
	}

	if err := p.Start(ctx); err != nil {
		return err
	}

	tasks, results := newWorkload(cfg.Workload.Tasks, cfg.Workload.TaskDuration)

	var limiter *rate.Limiter
	if cfg.Workload.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Workload.Rate), cfg.Workload.Producers)
	}

	log.Info("submitting workload",
		zap.Int("workers", p.Size()),
		zap.Bool("pinned", cfg.Pool.Pin),
		zap.Int("tasks", len(tasks)),
		zap.Duration("task_duration", cfg.Workload.TaskDuration),
		zap.Int("producers", cfg.Workload.Producers),
		zap.Float64("rate", cfg.Workload.Rate))

	began := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for part := 0; part < cfg.Workload.Producers; part++ {
		start, end := partition(len(tasks), cfg.Workload.Producers, part)
		g.Go(func() error {
			for _, task := range tasks[start:end] {
				if limiter != nil {
					if err := limiter.Wait(gctx); err != nil {
						return err
					}
				}
				if err := p.Submit(task); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("submission stopped: %w", err)
	}

	if err := p.WaitAll(); err != nil {
		return fmt.Errorf("pool stopped before the workload drained: %w", err)
	}
	elapsed := time.Since(began)

	var rounds uint64
	for _, r := range results {
		rounds += r
	}
	stats := p.Stats()
	log.Info("workload finished",
		zap.Duration("elapsed", elapsed),
		zap.Int64("completed", stats.Completed),
		zap.Int64("panicked", stats.Panicked),
		zap.Duration("avg_task", stats.AverageExecutionTime),
		zap.Float64("tasks_per_second", float64(stats.Completed)/elapsed.Seconds()),
		zap.Uint64("spin_rounds", rounds))

	printWorkerStats(cmd, p)
	return nil
}

func printWorkerStats(cmd *cobra.Command, p *pool.Pool) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tCPU\tSTATE\tTASKS\tBUSY\tAVG")
	for _, ws := range p.WorkerStats() {
		cpu := "-"
		if ws.Pinned {
			cpu = fmt.Sprint(ws.CPU)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%v\t%v\n",
			ws.ID, cpu, ws.State, ws.TasksExecuted,
			ws.BusyTime.Round(time.Microsecond), ws.AverageTaskTime().Round(time.Microsecond))
	}
	_ = tw.Flush()
}
