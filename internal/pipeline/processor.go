package pipeline

import (
	"context"
	"time"

	"incidentsum/internal/logger"
	"incidentsum/internal/rules"
	"incidentsum/internal/telemetry"
	"incidentsum/pkg/models"
)

// Generator turns incident text into a report.
type Generator interface {
	Generate(ctx context.Context, text string) models.Report
}

// Processor generates, measures and tags the report for one request. It is
// shared by the queue pipeline and the HTTP server.
type Processor struct {
	generator Generator
	engine    rules.Engine
	metrics   *telemetry.Metrics
	timeout   time.Duration
	now       func() time.Time
}

// NewProcessor creates a processor. engine and metrics may be nil; a zero
// timeout leaves generation bounded only by the caller's context.
func NewProcessor(generator Generator, engine rules.Engine, metrics *telemetry.Metrics, timeout time.Duration) *Processor {
	return &Processor{
		generator: generator,
		engine:    engine,
		metrics:   metrics,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Process generates the report for req and wraps it in a record.
func (p *Processor) Process(ctx context.Context, req models.IncidentRequest) *models.ReportRecord {
	genCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := p.now()
	report := p.generator.Generate(genCtx, req.Text)
	p.metrics.ObserveReport(report, p.now().Sub(start))

	rec := &models.ReportRecord{
		ID:          req.ID,
		Source:      req.Source,
		ReceivedAt:  req.ReceivedAt,
		ProcessedAt: p.now().UTC(),
		Report:      report,
	}
	if p.engine != nil {
		rec.Tags = p.engine.Apply(rec, req.Text)
	}
	if report.OK() {
		logger.Debugf("Report %s generated: type=%s entities=%d", rec.ID, report.IncidentType, len(report.Entities))
	} else {
		logger.Warnf("Report %s failed: %s", rec.ID, report.ErrorMessage)
	}
	return rec
}
