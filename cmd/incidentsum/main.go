package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"incidentsum/config"
	"incidentsum/internal/digest"
	inputredis "incidentsum/internal/input/redis"
	"incidentsum/internal/logger"
	"incidentsum/internal/pipeline"
	"incidentsum/internal/report"
	"incidentsum/internal/server"
	"incidentsum/internal/telemetry"
	"incidentsum/pkg/models"
)

var configPath string

func main() {
	err := newRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "incidentsum: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "incidentsum",
		Short:         "Summarize IT incident write-ups into structured reports",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to incidentsum.yml")

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newServeCmd(),
		newConsumeCmd(),
		newEnqueueCmd(),
		newHistoryCmd(),
	)

	return rootCmd
}

// loadConfig reads configuration and initializes logging.
func loadConfig() (*config.Config, error) {
	cfg, path, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := initLogger(cfg); err != nil {
		return nil, err
	}
	if path != "" {
		logger.Infof("Config loaded from: %s", path)
	} else {
		logger.Infof("No config file found; using defaults")
	}
	return cfg, nil
}

func readInput(file string, stdin io.Reader) (string, error) {
	if file != "" && file != "-" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func newSummarizeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarize one incident from a file or stdin and print the report JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			text, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			gen, err := buildGenerator(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.IncidentSum.Summarizer.Timeout)
			defer cancel()
			out, err := report.Encode(gen.Generate(ctx, text))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Incident text file (default stdin)")
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the report HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := cfg.IncidentSum
			logger.Infof("incidentsum server starting")

			gen, err := buildGenerator(cfg)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			if st != nil {
				defer st.Close()
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := telemetry.New(reg)

			var opts []server.Option
			if st != nil {
				opts = append(opts, server.WithRecorder(st), server.WithHistory(st))
			}
			if c.Server.Metrics {
				opts = append(opts, server.WithMetrics(reg))
			}
			srv := server.New(server.Config{
				Addr:         c.Server.Addr,
				ReadTimeout:  c.Server.ReadTimeout,
				WriteTimeout: c.Server.WriteTimeout,
				MaxBodyBytes: c.Server.MaxBodyBytes,
			}, pipeline.NewProcessor(gen, engine, metrics, c.Summarizer.Timeout), opts...)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if c.Digest.Enabled && st != nil {
				if err := startDigest(ctx, cfg, st); err != nil {
					return err
				}
			}

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Infof("Shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Errorf("Error shutting down server: %v", err)
			}
			logger.Infof("incidentsum server stopped")
			return nil
		},
	}
}

func startDigest(ctx context.Context, cfg *config.Config, st digest.Counter) error {
	sched, err := digest.ParseSchedule(cfg.IncidentSum.Digest.Schedule)
	if err != nil {
		return err
	}
	slack, err := buildSlack(cfg)
	if err != nil {
		return err
	}
	var poster digest.Poster
	if slack != nil {
		poster = slack
	}
	d := digest.New(st, poster, sched)
	logger.Infof("Incident digest scheduled (cron: %s)", cfg.IncidentSum.Digest.Schedule)
	go func() {
		if err := d.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("Digest stopped: %v", err)
		}
	}()
	return nil
}

func newConsumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume incidents from the configured queue and write reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			c := cfg.IncidentSum
			logger.Infof("incidentsum consumer starting")

			gen, err := buildGenerator(cfg)
			if err != nil {
				return err
			}
			engine, err := buildEngine(cfg)
			if err != nil {
				return err
			}
			source, err := buildSource(cfg)
			if err != nil {
				return fmt.Errorf("create %s input: %w", c.Input.Mode, err)
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			sinks, err := buildSinks(cfg, st)
			if err != nil {
				return err
			}

			metrics := telemetry.New(prometheus.NewRegistry())
			pipe := pipeline.NewReportPipeline(
				source,
				pipeline.NewProcessor(gen, engine, metrics, c.Summarizer.Timeout),
				sinks,
				metrics,
				pipeline.Options{
					Workers:       c.Pipeline.Workers,
					BatchSize:     c.Pipeline.BatchSize,
					FlushInterval: c.Pipeline.FlushInterval,
				},
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if c.Digest.Enabled && st != nil {
				if err := startDigest(ctx, cfg, st); err != nil {
					return err
				}
			}

			if err := pipe.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("Pipeline error: %v", err)
			}

			logger.Infof("Shutting down")
			if err := pipe.Close(); err != nil {
				logger.Errorf("Error closing pipeline: %v", err)
			}
			logger.Infof("incidentsum consumer stopped")
			return nil
		},
	}
}

func newEnqueueCmd() *cobra.Command {
	var file, source string
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Push one incident onto the Redis input queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			text, err := readInput(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			r := cfg.IncidentSum.Input.Redis
			consumer, err := inputredis.NewConsumer(inputredis.Config{
				Addr:     r.Addr,
				Password: r.Password,
				DB:       r.DB,
				Key:      r.Key,
			})
			if err != nil {
				return err
			}
			defer consumer.Close()

			req := models.IncidentRequest{
				ID:         uuid.NewString(),
				Text:       text,
				Source:     source,
				ReceivedAt: time.Now().UTC(),
			}
			payload, err := json.Marshal(req)
			if err != nil {
				return err
			}
			if err := consumer.Push(cmd.Context(), payload); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), req.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Incident text file (default stdin)")
	cmd.Flags().StringVar(&source, "source", "cli", "Source label recorded with the report")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent reports from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.IncidentSum.Store.Enabled = true
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.Recent(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, rec := range records {
				fmt.Fprintf(w, "%s  %s  %-7s  %-22s  %s\n",
					rec.ReceivedAt.Local().Format("2006-01-02 15:04"),
					rec.ID, rec.Report.Status, rec.Report.IncidentType, oneLine(rec.Report))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of reports to show")
	return cmd
}

func oneLine(r models.Report) string {
	text := r.Summary
	if !r.OK() {
		text = r.ErrorMessage
	}
	runes := []rune(text)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return string(runes)
}
