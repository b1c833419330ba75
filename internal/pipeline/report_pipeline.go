package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"incidentsum/internal/logger"
	"incidentsum/internal/telemetry"
	"incidentsum/pkg/models"
)

// Source yields raw incident payloads. Pop returns nil, nil when nothing arrived
// before its own poll timeout.
type Source interface {
	Name() string
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

// Options tunes the pipeline loops.
type Options struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	WriteRetries  int
	RetryDelay    time.Duration
}

// ReportPipeline consumes incident payloads and writes report records.
type ReportPipeline struct {
	source    Source
	processor *Processor
	sinks     []Sink
	metrics   *telemetry.Metrics
	opts      Options
	now       func() time.Time
}

// NewReportPipeline creates a pipeline. metrics may be nil.
func NewReportPipeline(source Source, processor *Processor, sinks []Sink, metrics *telemetry.Metrics, opts Options) *ReportPipeline {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = 2 * time.Second
	}
	if opts.WriteRetries <= 0 {
		opts.WriteRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &ReportPipeline{
		source:    source,
		processor: processor,
		sinks:     sinks,
		metrics:   metrics,
		opts:      opts,
		now:       time.Now,
	}
}

// Run starts the pipeline loop and blocks until ctx is cancelled and all
// in-flight reports are flushed.
func (p *ReportPipeline) Run(ctx context.Context) error {
	logger.Infof("Report pipeline started: source=%s workers=%d sinks=%d", p.source.Name(), p.opts.Workers, len(p.sinks))

	msgCh := make(chan []byte, p.opts.Workers*4)
	workCh := make(chan *models.ReportRecord, p.opts.Workers*4)

	go func() {
		p.readLoop(ctx, msgCh)
		close(msgCh)
	}()

	var workers sync.WaitGroup
	for i := 0; i < p.opts.Workers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			p.workerLoop(ctx, msgCh, workCh)
		}()
	}
	go func() {
		workers.Wait()
		close(workCh)
	}()

	p.writeLoop(ctx, workCh)
	logger.Infof("Report pipeline stopped")
	return ctx.Err()
}

// Close releases the source and every sink.
func (p *ReportPipeline) Close() error {
	for _, s := range p.sinks {
		if err := s.Writer.Close(); err != nil {
			logger.Errorf("Failed to close %s writer: %v", s.Name, err)
		}
	}
	if p.source != nil {
		return p.source.Close()
	}
	return nil
}

func (p *ReportPipeline) readLoop(ctx context.Context, out chan<- []byte) {
	for {
		payload, err := p.source.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to pop from %s: %v", p.source.Name(), err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if payload == nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		select {
		case out <- payload:
		case <-ctx.Done():
			return
		}
	}
}

func (p *ReportPipeline) workerLoop(ctx context.Context, in <-chan []byte, out chan<- *models.ReportRecord) {
	// Payloads already read are finished even after shutdown starts.
	base := context.WithoutCancel(ctx)
	for payload := range in {
		req, err := p.decode(payload)
		if err != nil {
			logger.Warnf("Dropping payload from %s: %v", p.source.Name(), err)
			continue
		}
		out <- p.processor.Process(base, req)
	}
}

// decode accepts either a JSON IncidentRequest or plain text.
func (p *ReportPipeline) decode(payload []byte) (models.IncidentRequest, error) {
	var req models.IncidentRequest
	trimmed := strings.TrimSpace(string(payload))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(payload, &req); err != nil {
			return req, err
		}
	} else {
		req.Text = string(payload)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Source == "" {
		req.Source = p.source.Name()
	}
	if req.ReceivedAt.IsZero() {
		req.ReceivedAt = p.now().UTC()
	}
	return req, nil
}

func (p *ReportPipeline) writeLoop(ctx context.Context, in <-chan *models.ReportRecord) {
	ticker := time.NewTicker(p.opts.FlushInterval)
	defer ticker.Stop()

	var batch []*models.ReportRecord

	flush := func() {
		if len(batch) == 0 {
			return
		}
		for _, s := range p.sinks {
			p.writeSink(ctx, s, batch)
		}
		batch = nil
	}

	for {
		select {
		case <-ticker.C:
			flush()
		case rec, ok := <-in:
			if !ok {
				flush()
				return
			}
			batch = append(batch, rec)
			if len(batch) >= p.opts.BatchSize {
				flush()
			}
		}
	}
}

// writeSink retries a sink a bounded number of times. After shutdown starts a
// single attempt is made.
func (p *ReportPipeline) writeSink(ctx context.Context, s Sink, batch []*models.ReportRecord) {
	for attempt := 1; ; attempt++ {
		err := s.Writer.WriteRecords(batch)
		if err == nil {
			return
		}
		p.metrics.WriteError(s.Name)
		logger.Errorf("Failed to write %d records to %s (attempt %d): %v", len(batch), s.Name, attempt, err)
		if attempt >= p.opts.WriteRetries || ctx.Err() != nil {
			logger.Errorf("Dropping %d records for %s", len(batch), s.Name)
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.opts.RetryDelay):
		}
	}
}
