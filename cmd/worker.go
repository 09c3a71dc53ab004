package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/matrix-engine/api/rest"
	"yqhp/matrix-engine/internal/worker"
)

var (
	workerHost string
	workerPort int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage worker nodes",
	Long:  `A worker computes the dot product of one row and one column per request.`,
}

var workerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a worker node",
	Example: `  # listen on $WORKER_PORT or 9001
  matrix-engine worker start

  # listen on another port
  matrix-engine worker start --port 9002`,
	RunE: runWorkerStart,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerStartCmd)

	workerStartCmd.Flags().StringVar(&workerHost, "host", "0.0.0.0", "listen host")
	workerStartCmd.Flags().IntVar(&workerPort, "port", 9001, "listen port (overrides WORKER_PORT)")
}

func runWorkerStart(cmd *cobra.Command, args []string) error {
	overrides := make(map[string]string)
	if cmd.Flags().Changed("host") {
		overrides["worker.host"] = workerHost
	}
	if cmd.Flags().Changed("port") {
		overrides["worker.port"] = strconv.Itoa(workerPort)
	}

	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()
	collector := newMetrics(cfg, log)

	svc := worker.NewService(log, collector)
	server := rest.NewWorkerServer(svc, &rest.Config{
		Address:        cfg.Worker.Address(),
		ReadTimeout:    cfg.Worker.ReadTimeout,
		WriteTimeout:   cfg.Worker.WriteTimeout,
		EnableCORS:     cfg.Worker.EnableCORS,
		MaxConnections: cfg.Worker.MaxConnections,
		MetricsPath:    cfg.Metrics.Path,
	}, log, collector)

	ctx, cancel := signalContext()
	defer cancel()

	if !quiet {
		fmt.Printf("Worker listening on %s\n", cfg.Worker.Address())
	}
	log.Info("worker starting",
		zap.String("worker_id", svc.Stats().ID),
		zap.String("address", cfg.Worker.Address()),
	)

	if err := server.StartWithContext(ctx, shutdownTimeout); err != nil {
		return fmt.Errorf("worker server failed: %w", err)
	}

	log.Info("worker stopped", zap.Int64("served", svc.Stats().Served))
	return nil
}
