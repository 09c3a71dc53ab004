package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/matrix-engine/api/rest"
	"yqhp/matrix-engine/api/rest/client"
	"yqhp/matrix-engine/internal/broker"
)

const shutdownTimeout = 30 * time.Second

var (
	brokerAddress        string
	brokerWorkers        []string
	brokerRequestTimeout time.Duration
	brokerMaxInFlight    int
	brokerMaxConns       int
	brokerStatusURL      string
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Manage the broker node",
	Long:  `The broker accepts matrix products, distributes their dot products to workers and assembles the result.`,
}

var brokerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the broker node",
	Example: `  # start with default config
  matrix-engine broker start

  # listen on another address with explicit workers
  matrix-engine broker start --address :8080 --workers http://10.0.0.1:9001,http://10.0.0.2:9001

  # use a config file
  matrix-engine broker start --config config.yaml`,
	RunE: runBrokerStart,
}

var brokerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the broker's workers and dispatch stats",
	Example: `  matrix-engine broker status
  matrix-engine broker status --broker http://localhost:8000`,
	RunE: runBrokerStatus,
}

func init() {
	rootCmd.AddCommand(brokerCmd)
	brokerCmd.AddCommand(brokerStartCmd)
	brokerCmd.AddCommand(brokerStatusCmd)

	brokerStartCmd.Flags().StringVar(&brokerAddress, "address", ":8000", "HTTP listen address")
	brokerStartCmd.Flags().StringSliceVar(&brokerWorkers, "workers", nil, "worker base URLs, in round-robin order")
	brokerStartCmd.Flags().DurationVar(&brokerRequestTimeout, "request-timeout", 10*time.Second, "timeout of a single dot product call")
	brokerStartCmd.Flags().IntVar(&brokerMaxInFlight, "max-in-flight", 64, "concurrent calls per product (0 = one per cell)")
	brokerStartCmd.Flags().IntVar(&brokerMaxConns, "max-conns-per-worker", 64, "pooled connections to each worker")

	brokerStatusCmd.Flags().StringVar(&brokerStatusURL, "broker", "http://localhost:8000", "broker base URL")
}

func runBrokerStart(cmd *cobra.Command, args []string) error {
	overrides := make(map[string]string)
	if cmd.Flags().Changed("address") {
		overrides["server.address"] = brokerAddress
	}
	if cmd.Flags().Changed("workers") {
		overrides["broker.workers"] = strings.Join(brokerWorkers, ",")
	}
	if cmd.Flags().Changed("request-timeout") {
		overrides["broker.request_timeout"] = brokerRequestTimeout.String()
	}
	if cmd.Flags().Changed("max-in-flight") {
		overrides["broker.max_in_flight"] = strconv.Itoa(brokerMaxInFlight)
	}
	if cmd.Flags().Changed("max-conns-per-worker") {
		overrides["broker.max_conns_per_worker"] = strconv.Itoa(brokerMaxConns)
	}

	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()
	collector := newMetrics(cfg, log)

	endpoints, err := broker.NewStaticEndpoints(cfg.Broker.Workers)
	if err != nil {
		return fmt.Errorf("failed to configure workers: %w", err)
	}

	caller := client.NewWorkerClient(&client.WorkerConfig{
		RequestTimeout:      cfg.Broker.RequestTimeout,
		MaxConnsPerHost:     cfg.Broker.MaxConnsPerWorker,
		MaxConnWaitTimeout:  cfg.Broker.RequestTimeout,
		MaxIdleConnDuration: client.DefaultWorkerConfig().MaxIdleConnDuration,
	})
	defer caller.CloseIdleConnections()
	b, err := broker.New(&broker.Config{
		RequestTimeout: cfg.Broker.RequestTimeout,
		MaxInFlight:    cfg.Broker.MaxInFlight,
		DispatchRate:   cfg.Broker.DispatchRate,
		DispatchBurst:  cfg.Broker.DispatchBurst,
	}, endpoints, caller, broker.WithLogger(log), broker.WithMetrics(collector))
	if err != nil {
		return fmt.Errorf("failed to create broker: %w", err)
	}

	server := rest.NewBrokerServer(b, &rest.Config{
		Address:        cfg.Server.Address,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		EnableCORS:     cfg.Server.EnableCORS,
		MaxConnections: cfg.Server.MaxConnections,
		MetricsPath:    cfg.Metrics.Path,
	}, log, collector)

	ctx, cancel := signalContext()
	defer cancel()

	if !quiet {
		fmt.Printf(Banner, Version)
		fmt.Println()
		fmt.Printf("  Broker ID:    %s\n", b.ID())
		fmt.Printf("  HTTP address: %s\n", cfg.Server.Address)
		for _, ep := range endpoints {
			fmt.Printf("  %-12s  %s\n", ep.ID+":", ep.Address)
		}
		fmt.Println()
	}

	log.Info("broker starting",
		zap.String("broker_id", b.ID()),
		zap.String("address", cfg.Server.Address),
		zap.Int("workers", len(endpoints)),
	)

	if err := server.StartWithContext(ctx, shutdownTimeout); err != nil {
		return fmt.Errorf("broker server failed: %w", err)
	}

	log.Info("broker stopped")
	return nil
}

func runBrokerStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bc := client.NewBrokerClient(brokerStatusURL, 0)
	resp, err := bc.Workers(ctx)
	if err != nil {
		return fmt.Errorf("failed to query broker %s: %w", brokerStatusURL, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Broker %s (%d workers)\n\n", resp.BrokerID, resp.Total)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tADDRESS\tDISPATCHED\tFAILED\tP50(ms)\tP95(ms)\tP99(ms)")
	for _, ws := range resp.Workers {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%.2f\n",
			ws.ID, ws.Address, ws.Dispatched, ws.Failed, ws.P50Ms, ws.P95Ms, ws.P99Ms)
	}
	return w.Flush()
}
