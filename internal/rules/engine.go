package rules

import "incidentsum/pkg/models"

// Engine tags generated reports with matching detection rules.
type Engine interface {
	Apply(rec *models.ReportRecord, text string) []models.Tag
}

// NoopEngine returns no tags.
type NoopEngine struct{}

// Apply returns an empty tag list.
func (n *NoopEngine) Apply(rec *models.ReportRecord, text string) []models.Tag {
	return nil
}
