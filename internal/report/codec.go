package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"incidentsum/pkg/models"
)

// Encode renders a report as canonical JSON: four-space indentation, sorted entity
// values, and non-ASCII text left unescaped.
func Encode(r models.Report) ([]byte, error) {
	r = Canonical(r)
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Decode parses canonical JSON back into a report.
func Decode(data []byte) (models.Report, error) {
	var r models.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return models.Report{}, fmt.Errorf("decode report: %w", err)
	}
	return Canonical(r), nil
}

// Canonical returns a copy with non-nil maps, no empty entity buckets and sorted values.
func Canonical(r models.Report) models.Report {
	entities := make(models.Entities, len(r.Entities))
	for typ, values := range r.Entities {
		if len(values) == 0 {
			continue
		}
		sorted := append([]string(nil), values...)
		sort.Strings(sorted)
		entities[typ] = sorted
	}
	r.Entities = entities

	counts := make(map[string]int, len(r.Metadata.EntityCounts))
	for typ, n := range r.Metadata.EntityCounts {
		counts[typ] = n
	}
	r.Metadata.EntityCounts = counts
	return r
}
