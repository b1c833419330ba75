package models

import "sort"

// Report statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// NotAvailable is the placeholder for metadata that was not produced.
const NotAvailable = "N/A"

// Entity types recognized by the default extraction rules.
const (
	EntityResources    = "resources"
	EntityIPs          = "ips"
	EntityIncidentID   = "incident_id"
	EntityTimes        = "times"
	EntityDates        = "dates"
	EntityApplications = "applications"
)

// Report is the structured summary of one incident write-up.
type Report struct {
	Status       string   `json:"status"`
	IncidentType string   `json:"incident_type"`
	Summary      string   `json:"summary"`
	Entities     Entities `json:"entities"`
	Metadata     Metadata `json:"metadata"`
	ErrorMessage string   `json:"error_message,omitempty"`
}

// OK reports whether the report was generated successfully.
func (r Report) OK() bool {
	return r.Status == StatusSuccess
}

// Metadata carries word counts, model details and the confidence estimate.
type Metadata struct {
	Model               string         `json:"model"`
	TranslationModel    string         `json:"translation_model,omitempty"`
	MinWords            int            `json:"min_words"`
	MaxWords            int            `json:"max_words"`
	ConfidenceScore     string         `json:"confidence_score"`
	OriginalWordsCount  int            `json:"original_words_count"`
	SummaryWordsCount   int            `json:"summary_words_count"`
	ReductionPercentage float64        `json:"reduction_percentage"`
	EntityCounts        map[string]int `json:"entity_counts"`
}

// Entities maps an entity type to its distinct values.
// A type is present only when at least one value was found.
type Entities map[string][]string

// Counts returns the number of values per present entity type.
func (e Entities) Counts() map[string]int {
	out := make(map[string]int, len(e))
	for typ, values := range e {
		if len(values) == 0 {
			continue
		}
		out[typ] = len(values)
	}
	return out
}

// Types returns the present entity types in sorted order.
func (e Entities) Types() []string {
	out := make([]string, 0, len(e))
	for typ, values := range e {
		if len(values) > 0 {
			out = append(out, typ)
		}
	}
	sort.Strings(out)
	return out
}

// Get returns the values of one entity type.
func (e Entities) Get(typ string) []string {
	if e == nil {
		return nil
	}
	return e[typ]
}
