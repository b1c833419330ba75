package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentsum/pkg/models"
)

const databaseOutageRule = `title: Database outage on production host
id: 5b0f3c9e-0d1c-4f0e-9a53-1b6a2f1d7c11
status: experimental
level: high
tags:
  - attack.impact
  - attack.t1499.004
logsource:
  product: incident
detection:
  selection:
    IncidentType: Base de datos
    Resources|contains: srv-db
  condition: selection
`

const windowsRule = `title: Sysmon process creation
logsource:
  product: windows
  service: sysmon
detection:
  selection:
    Image|endswith: '\cmd.exe'
  condition: selection
`

const keywordRule = `title: Outage keyword
logsource:
  product: incident
detection:
  keywords:
    - outage
  condition: keywords
`

func writeRule(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func sampleRecord() *models.ReportRecord {
	return &models.ReportRecord{
		ID:     "r-1",
		Source: "redis:incident_reports",
		Report: models.Report{
			Status:       models.StatusSuccess,
			IncidentType: "Base de datos",
			Summary:      "Database latency on srv-db-01.",
			Entities: models.Entities{
				models.EntityResources: {"srv-db-01"},
				models.EntityIPs:       {"192.168.1.5"},
			},
		},
	}
}

func TestSigmaEngineLoadsAndMatches(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "db.yml", databaseOutageRule)
	writeRule(t, dir, "windows.yaml", windowsRule)
	writeRule(t, dir, "keywords.yml", keywordRule)
	writeRule(t, dir, "broken.yml", "title: [unterminated")
	writeRule(t, dir, "README.md", "not a rule")

	engine, stats, err := NewSigmaEngine(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalFiles)
	assert.Equal(t, 1, stats.Loaded)
	assert.Equal(t, 1, stats.SkippedDatasource)
	assert.Equal(t, 1, stats.SkippedComplex)
	assert.Equal(t, 1, stats.SkippedInvalid)
	assert.Equal(t, 1, engine.Len())

	tags := engine.Apply(sampleRecord(), "srv-db-01 database latency")
	require.Len(t, tags, 1)
	assert.Equal(t, models.Tag{
		ID:        "5b0f3c9e-0d1c-4f0e-9a53-1b6a2f1d7c11",
		Name:      "Database outage on production host",
		Severity:  "high",
		Tactic:    "impact",
		Technique: "T1499/004",
	}, tags[0])
}

func TestSigmaEngineNoMatch(t *testing.T) {
	dir := t.TempDir()
	writeRule(t, dir, "db.yml", databaseOutageRule)
	engine, _, err := NewSigmaEngine(dir)
	require.NoError(t, err)

	rec := sampleRecord()
	rec.Report.IncidentType = "Seguridad"

	assert.Nil(t, engine.Apply(rec, "unauthorized login"))
	assert.Nil(t, engine.Apply(nil, ""))
}

func TestSigmaEngineRejectsNonYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rule.txt")
	require.NoError(t, os.WriteFile(path, []byte(databaseOutageRule), 0o644))

	_, _, err := NewSigmaEngine(path)
	assert.Error(t, err)

	_, _, err = NewSigmaEngine(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestNoopEngine(t *testing.T) {
	var e Engine = &NoopEngine{}
	assert.Nil(t, e.Apply(sampleRecord(), "text"))
}

func TestParseAttackTags(t *testing.T) {
	tactic, technique := parseAttackTags([]string{"cve.2021", "attack.initial_access", "attack.t1190"})
	assert.Equal(t, "initial-access", tactic)
	assert.Equal(t, "T1190", technique)
}
