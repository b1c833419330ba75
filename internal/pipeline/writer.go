package pipeline

import "incidentsum/pkg/models"

// ReportWriter writes report records to a sink.
type ReportWriter interface {
	WriteRecords(records []*models.ReportRecord) error
	Close() error
}

// Sink is a ReportWriter with a label used in logs and metrics.
type Sink struct {
	Name   string
	Writer ReportWriter
}
