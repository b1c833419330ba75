package models

// ModelInfo describes the summarization collaborator that produced a summary.
// Name defaults to NotAvailable; the remaining fields are optional.
type ModelInfo struct {
	Name             string
	TranslationModel string
	MinLength        int
	MaxLength        int
}

// WithDefaults fills unset fields with their declared defaults.
func (m ModelInfo) WithDefaults() ModelInfo {
	if m.Name == "" {
		m.Name = NotAvailable
	}
	if m.MinLength < 0 {
		m.MinLength = 0
	}
	if m.MaxLength < 0 {
		m.MaxLength = 0
	}
	return m
}
