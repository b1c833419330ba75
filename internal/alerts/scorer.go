package alerts

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"incidentsum/pkg/models"
)

// Config controls burst scoring behavior.
type Config struct {
	Window     time.Duration
	Threshold  int
	MaxReports int
	Cooldown   time.Duration
}

// Scorer raises an alert when successful reports of one category pile up inside
// a sliding window.
type Scorer struct {
	mu         sync.Mutex
	cfg        Config
	byCategory map[string]*categoryState
	now        func() time.Time
}

type categoryState struct {
	records   []*models.ReportRecord
	lastAlert time.Time
}

// NewScorer creates a new scorer.
func NewScorer(cfg Config) *Scorer {
	if cfg.Window <= 0 {
		cfg.Window = 30 * time.Minute
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.MaxReports <= 0 {
		cfg.MaxReports = 50
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	return &Scorer{
		cfg:        cfg,
		byCategory: make(map[string]*categoryState),
		now:        time.Now,
	}
}

// AddRecords ingests records and returns alerts if triggered. Error reports are ignored.
func (s *Scorer) AddRecords(records []*models.ReportRecord) []*models.Alert {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var alertsOut []*models.Alert
	for _, rec := range records {
		if rec == nil || !rec.Report.OK() {
			continue
		}
		category := rec.Report.IncidentType
		state := s.byCategory[category]
		if state == nil {
			state = &categoryState{}
			s.byCategory[category] = state
		}

		ts := rec.ReceivedAt
		if ts.IsZero() {
			ts = s.now()
		}

		state.records = append(state.records, rec)
		s.prune(state, ts)

		score, counts, tags, resources := s.score(state.records)
		if score < s.cfg.Threshold {
			continue
		}
		if !state.lastAlert.IsZero() && ts.Sub(state.lastAlert) < s.cfg.Cooldown {
			continue
		}

		ids := make([]string, len(state.records))
		for i, r := range state.records {
			ids[i] = r.ID
		}
		alertsOut = append(alertsOut, &models.Alert{
			AlertID:     newAlertID(category),
			Category:    category,
			Score:       score,
			WindowStart: ts.Add(-s.cfg.Window),
			WindowEnd:   ts,
			Tags:        tags,
			Counts:      counts,
			ReportIDs:   ids,
			Resources:   resources,
		})
		state.lastAlert = ts
	}

	return alertsOut
}

func (s *Scorer) prune(state *categoryState, now time.Time) {
	cutoff := now.Add(-s.cfg.Window)
	kept := state.records[:0]
	for _, rec := range state.records {
		if rec.ReceivedAt.IsZero() || !rec.ReceivedAt.Before(cutoff) {
			kept = append(kept, rec)
		}
	}
	state.records = kept
	if len(state.records) > s.cfg.MaxReports {
		state.records = state.records[len(state.records)-s.cfg.MaxReports:]
	}
}

// score is one point per report plus the severity weight of each distinct rule.
func (s *Scorer) score(records []*models.ReportRecord) (int, models.AlertCounts, []models.Tag, []string) {
	unique := make(map[string]models.Tag)
	resources := make(map[string]struct{})

	for _, rec := range records {
		for _, r := range rec.Report.Entities.Get(models.EntityResources) {
			resources[r] = struct{}{}
		}
		for _, tag := range rec.Tags {
			key := tag.ID
			if key == "" {
				key = tag.Name
			}
			if key != "" {
				unique[key] = tag
			}
		}
	}

	score := len(records)
	keys := make([]string, 0, len(unique))
	for k := range unique {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tags := make([]models.Tag, 0, len(keys))
	for _, k := range keys {
		score += severityWeight(unique[k].Severity)
		tags = append(tags, unique[k])
	}

	names := make([]string, 0, len(resources))
	for r := range resources {
		names = append(names, r)
	}
	sort.Strings(names)

	return score, models.AlertCounts{
		Reports:   len(records),
		Rules:     len(unique),
		Resources: len(names),
	}, tags, names
}

func severityWeight(level string) int {
	switch strings.ToLower(level) {
	case "critical":
		return 7
	case "high":
		return 5
	case "medium":
		return 3
	case "low":
		return 1
	default:
		return 1
	}
}

func newAlertID(category string) string {
	slug := strings.ToLower(strings.Join(strings.FieldsFunc(category, func(r rune) bool {
		return r == ' ' || r == '/'
	}), "-"))
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return slug + "-" + time.Now().Format("20060102150405")
	}
	return slug + "-" + hex.EncodeToString(buf)
}
