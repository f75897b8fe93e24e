// Package cli wires configuration, logging, storage and the pipeline stages
// behind the positioning command.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ai-startup-map/config"
	"ai-startup-map/metrics"
	"ai-startup-map/models"
	"ai-startup-map/services"
	"ai-startup-map/storage"
	"ai-startup-map/utils"
)

// app carries the state initialised by the root command for its subcommands.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *utils.Logger
	metrics *metrics.Recorder
	runID   string
}

// NewRootCommand creates the root command with its persistent flags and the
// process, analyze and run subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:   "positioning",
		Short: "Competitive positioning map of AI startups",
		Long: "positioning merges scraped AI startup listings, derives features from their\n" +
			"descriptions, clusters them into market segments and scores each company's\n" +
			"defensibility and market saturation.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.finish()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.String("sources", config.DefaultSources, "comma-separated Name=path source list, highest priority first")
	pf.String("processed", "data/ai_startups.csv", "checkpoint 1 path")
	pf.String("clustered", "data/clustered_ai_startups.csv", "checkpoint 2 path")
	pf.IntP("clusters", "k", 5, "number of clusters")
	pf.String("method", "kmeans", "clustering method (kmeans, hierarchical)")
	pf.Int64("seed", 42, "random seed for kmeans")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "console", "log format (console, json)")
	pf.String("sqlite", "", "also mirror checkpoint 2 into this SQLite file")
	pf.String("metrics-textfile", "", "write run metrics to this Prometheus textfile")

	for key, flag := range map[string]string{
		config.KeySources:         "sources",
		config.KeyProcessedPath:   "processed",
		config.KeyClusteredPath:   "clustered",
		config.KeyClusters:        "clusters",
		config.KeyClusterMethod:   "method",
		config.KeyClusterSeed:     "seed",
		config.KeyLogLevel:        "log-level",
		config.KeyLogFormat:       "log-format",
		config.KeySQLitePath:      "sqlite",
		config.KeyMetricsTextfile: "metrics-textfile",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "process",
			Short: "Merge sources, derive features and write checkpoint 1",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, closeSinks, err := a.pipeline(cmd.Context(), false)
				if err != nil {
					return err
				}
				defer closeSinks()
				_, err = p.Process(a.options())
				return err
			},
		},
		&cobra.Command{
			Use:   "analyze",
			Short: "Cluster and score checkpoint 1, write checkpoint 2 and print the report",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, closeSinks, err := a.pipeline(cmd.Context(), true)
				if err != nil {
					return err
				}
				defer closeSinks()
				_, report, err := p.Analyze(cmd.Context(), a.options())
				if err != nil {
					return err
				}
				p.Insights().Print(cmd.OutOrStdout(), report)
				return nil
			},
		},
		&cobra.Command{
			Use:   "run",
			Short: "Process then analyze",
			RunE: func(cmd *cobra.Command, args []string) error {
				p, closeSinks, err := a.pipeline(cmd.Context(), true)
				if err != nil {
					return err
				}
				defer closeSinks()
				_, report, err := p.Run(cmd.Context(), a.options())
				if err != nil {
					return err
				}
				p.Insights().Print(cmd.OutOrStdout(), report)
				fmt.Fprintf(cmd.OutOrStdout(), "  Done. Processed → %s | Clustered → %s\n\n",
					a.cfg.ProcessedPath, a.cfg.ClusteredPath)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) init() error {
	config.LoadDotEnv()
	cfg, err := config.FromViper(a.v)
	if err != nil {
		return err
	}
	logger, err := utils.NewLoggerWithConfig(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	a.metrics = metrics.NewRecorder()
	a.runID = uuid.NewString()

	a.logger.Info("=== AI startup positioning (run %s) ===", a.runID)
	a.logger.Info("Config — sources: %d | clusters: %d | method: %s | seed: %d",
		len(cfg.Sources), cfg.Clusters, cfg.ClusterMethod, cfg.ClusterSeed)
	return nil
}

func (a *app) finish() error {
	if a.logger == nil {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); err != nil {
		a.logger.Warn("Metrics not written: %v", err)
	}
	_ = a.logger.Sync()
	return nil
}

func (a *app) options() services.RunOptions {
	return services.RunOptions{
		Sources:       a.cfg.Sources,
		ProcessedPath: a.cfg.ProcessedPath,
		ClusteredPath: a.cfg.ClusteredPath,
		Method:        a.cfg.ClusterMethod,
		Clusters:      a.cfg.Clusters,
	}
}

// pipeline builds the stages and, when withSinks is set, opens the configured
// database mirrors. The returned func closes them.
func (a *app) pipeline(ctx context.Context, withSinks bool) (*services.Pipeline, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	deps := services.Deps{
		Sources:  storage.NewSourceReader(a.logger),
		Writer:   storage.NewCheckpointWriter(a.logger),
		Reader:   storage.NewCheckpointReader(a.logger),
		Registry: services.DefaultRegistry(a.cfg.ClusterSeed),
		Metrics:  a.metrics,
	}

	if withSinks && a.cfg.SQLitePath != "" {
		w, err := storage.NewSQLiteWriter(a.cfg.SQLitePath, a.logger)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, w)
		deps.Sinks = append(deps.Sinks, w)
	}
	if withSinks && a.cfg.PostgresEnabled {
		retry := utils.RetryConfig{MaxAttempts: a.cfg.MaxRetries + 1, BaseDelay: 2 * time.Second, Logger: a.logger}
		w, err := storage.NewPostgresWriter(ctx, a.cfg.DSN(), retry, a.logger)
		if err != nil {
			a.logger.Error("Failed to connect to PostgreSQL: %v", err)
			a.logger.Error("Continuing without the PostgreSQL mirror")
		} else {
			closers = append(closers, w)
			deps.Sinks = append(deps.Sinks, w)
		}
	}

	return services.NewPipeline(a.logger, a.runID, deps), closeAll, nil
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "positioning: %v\n", err)
		if kind := models.KindOf(err); kind != models.KindUnknown {
			fmt.Fprintf(os.Stderr, "positioning: failure kind %s\n", kind)
		}
		return 1
	}
	return 0
}
