package main

import (
	"fmt"
	"strings"

	"incidentsum/config"
	"incidentsum/internal/alerts"
	inputnats "incidentsum/internal/input/nats"
	inputredis "incidentsum/internal/input/redis"
	"incidentsum/internal/logger"
	"incidentsum/internal/output/reporthttp"
	"incidentsum/internal/output/reportjson"
	"incidentsum/internal/output/reportslack"
	"incidentsum/internal/pipeline"
	"incidentsum/internal/report"
	"incidentsum/internal/rules"
	"incidentsum/internal/store"
	"incidentsum/internal/summarize"
)

func initLogger(cfg *config.Config) error {
	l := cfg.IncidentSum.Logging
	if err := logger.Init(l.Enabled, l.Level, l.File, l.Console); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}

func buildGenerator(cfg *config.Config) (*report.Generator, error) {
	c := cfg.IncidentSum
	asm, err := report.NewAssemblerFromConfig(c.Extraction, c.Taxonomy)
	if err != nil {
		return nil, fmt.Errorf("build assembler: %w", err)
	}
	summarizer, translator, err := summarize.New(summarize.Config{
		Provider:       c.Summarizer.Provider,
		Model:          c.Summarizer.Model,
		APIKey:         c.Summarizer.APIKey,
		Translate:      c.Summarizer.Translation.Enabled,
		TargetLanguage: c.Summarizer.Translation.TargetLanguage,
		TranslateModel: c.Summarizer.Translation.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("build summarizer: %w", err)
	}
	logger.Infof("Summarizer: %s", summarizer.Name())
	if translator != nil {
		logger.Infof("Translator: %s -> %s", translator.Name(), c.Summarizer.Translation.TargetLanguage)
	}
	return report.NewGenerator(asm, summarizer, translator, report.Options{
		MinWordCount: c.Report.MinWordCount,
		Params: summarize.Params{
			MinLength:     c.Summarizer.MinLength,
			MaxLength:     c.Summarizer.MaxLength,
			MaxInputChars: c.Summarizer.MaxInputChars,
		},
		Confidence: c.Summarizer.Confidence,
	}), nil
}

func buildEngine(cfg *config.Config) (rules.Engine, error) {
	r := cfg.IncidentSum.Rules
	if !r.Enabled {
		return nil, nil
	}
	if strings.TrimSpace(r.Path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; tagging disabled")
		return nil, nil
	}
	engine, stats, err := rules.NewSigmaEngine(r.Path)
	if err != nil {
		return nil, fmt.Errorf("load sigma rules from %s: %w", r.Path, err)
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded,
		stats.SkippedComplex,
		stats.SkippedDatasource,
		stats.SkippedInvalid,
		stats.TotalFiles,
	)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; tagging is effectively disabled")
	}
	return engine, nil
}

func buildSource(cfg *config.Config) (pipeline.Source, error) {
	in := cfg.IncidentSum.Input
	switch in.Mode {
	case "redis":
		return inputredis.NewConsumer(inputredis.Config{
			Addr:         in.Redis.Addr,
			Password:     in.Redis.Password,
			DB:           in.Redis.DB,
			Key:          in.Redis.Key,
			BlockTimeout: in.Redis.BlockTimeout,
		})
	case "nats":
		return inputnats.NewSubscriber(inputnats.Config{
			URL:     in.NATS.URL,
			Subject: in.NATS.Subject,
			Queue:   in.NATS.Queue,
		})
	default:
		return nil, fmt.Errorf("unknown input mode: %s", in.Mode)
	}
}

// buildSinks opens the configured outputs. st may be nil.
func buildSinks(cfg *config.Config, st *store.Store) ([]pipeline.Sink, error) {
	out := cfg.IncidentSum.Output
	var sinks []pipeline.Sink

	switch out.Mode {
	case "file":
		w, err := reportjson.NewWriter(out.File.Path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pipeline.Sink{Name: "file", Writer: w})
		logger.Infof("Output mode: file (%s)", out.File.Path)
	case "http":
		w, err := reporthttp.NewWriter(reporthttp.Config{
			URL:     out.HTTP.URL,
			Timeout: out.HTTP.Timeout,
			Headers: out.HTTP.Headers,
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, pipeline.Sink{Name: "http", Writer: w})
		logger.Infof("Output mode: http (%s)", out.HTTP.URL)
	default:
		return nil, fmt.Errorf("unknown output mode: %s", out.Mode)
	}

	if slack, err := buildSlack(cfg); err != nil {
		return nil, err
	} else if slack != nil {
		sinks = append(sinks, pipeline.Sink{Name: "slack", Writer: slack})
		logger.Infof("Slack notifications enabled (channel %s)", out.Slack.ChannelID)
	}

	if st != nil {
		sinks = append(sinks, pipeline.Sink{Name: "store", Writer: st})
	}

	if a := cfg.IncidentSum.Alerts; a.Enabled {
		slack, err := buildSlack(cfg)
		if err != nil {
			return nil, err
		}
		var poster alerts.Poster
		if slack != nil {
			poster = slack
		}
		scorer := alerts.NewScorer(alerts.Config{
			Window:     a.Window,
			Threshold:  a.Threshold,
			MaxReports: a.MaxReports,
			Cooldown:   a.Cooldown,
		})
		sinks = append(sinks, pipeline.Sink{Name: "alerts", Writer: alerts.NewNotifier(scorer, poster)})
		logger.Infof("Burst alerts enabled: threshold=%d window=%s", a.Threshold, a.Window)
	}
	return sinks, nil
}

func buildSlack(cfg *config.Config) (*reportslack.Writer, error) {
	s := cfg.IncidentSum.Output.Slack
	if !s.Enabled {
		return nil, nil
	}
	return reportslack.NewWriter(reportslack.Config{
		BotToken:      s.BotToken,
		ChannelID:     s.ChannelID,
		IncludeErrors: s.IncludeErrors,
	})
}

func openStore(cfg *config.Config) (*store.Store, error) {
	s := cfg.IncidentSum.Store
	if !s.Enabled {
		return nil, nil
	}
	st, err := store.Open(s.Path)
	if err != nil {
		return nil, err
	}
	logger.Infof("Report store: %s", s.Path)
	return st, nil
}
