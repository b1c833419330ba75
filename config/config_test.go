package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentsum/internal/classify"
	"incidentsum/internal/extract"
)

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("..", "incidentsum.example.yml"))
	require.NoError(t, err)
	ApplyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	c := cfg.IncidentSum
	assert.Equal(t, "extractive", c.Summarizer.Provider)
	require.NotNil(t, c.Summarizer.Confidence)
	assert.Equal(t, 0.85, *c.Summarizer.Confidence)
	assert.Equal(t, 5*time.Second, c.Input.Redis.BlockTimeout)
	assert.Equal(t, classify.DefaultTaxonomy(), c.Taxonomy)
	assert.Len(t, c.Extraction.Patterns, 5)

	_, err = extract.New(c.Extraction)
	require.NoError(t, err)
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	c := cfg.IncidentSum

	assert.Equal(t, 50, c.Report.MinWordCount)
	assert.Equal(t, 50, c.Summarizer.MinLength)
	assert.Equal(t, 150, c.Summarizer.MaxLength)
	assert.Equal(t, "redis", c.Input.Mode)
	assert.Equal(t, "file", c.Output.Mode)
	assert.Equal(t, extract.DefaultRuleSet(), c.Extraction)
	assert.Equal(t, classify.DefaultTaxonomy(), c.Taxonomy)
	assert.Nil(t, c.Summarizer.Confidence)
	assert.Equal(t, 30*time.Minute, c.Alerts.Window)
	assert.Equal(t, 5, c.Alerts.Threshold)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsKeepsCustomFallback(t *testing.T) {
	cfg, err := Parse([]byte("incidentsum:\n  taxonomy:\n    fallback: General/Otros\n"))
	require.NoError(t, err)
	ApplyDefaults(cfg)

	assert.Equal(t, "General/Otros", cfg.IncidentSum.Taxonomy.Fallback)
	assert.NotEmpty(t, cfg.IncidentSum.Taxonomy.Categories)
}

func TestCustomTaxonomyOrderPreserved(t *testing.T) {
	cfg, err := Parse([]byte(`
incidentsum:
  taxonomy:
    categories:
      - name: Infraestructura/Sistemas
        keywords: [servidor]
      - name: Base de datos
        keywords: [base de datos]
`))
	require.NoError(t, err)
	ApplyDefaults(cfg)

	cats := cfg.IncidentSum.Taxonomy.Categories
	require.Len(t, cats, 2)
	assert.Equal(t, "Infraestructura/Sistemas", cats[0].Name)
	assert.Equal(t, "Base de datos", cats[1].Name)
	assert.Equal(t, classify.DefaultFallback, cfg.IncidentSum.Taxonomy.Fallback)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(c *IncidentSumConfig){
		"provider":        func(c *IncidentSumConfig) { c.Summarizer.Provider = "bart" },
		"anthropic key":   func(c *IncidentSumConfig) { c.Summarizer.Provider = "anthropic" },
		"translation":     func(c *IncidentSumConfig) { c.Summarizer.Translation.Enabled = true; c.Summarizer.APIKey = "k" },
		"lengths":         func(c *IncidentSumConfig) { c.Summarizer.MinLength = 200 },
		"confidence":      func(c *IncidentSumConfig) { v := 1.5; c.Summarizer.Confidence = &v },
		"input mode":      func(c *IncidentSumConfig) { c.Input.Mode = "kafka" },
		"output mode":     func(c *IncidentSumConfig) { c.Output.Mode = "s3" },
		"http url":        func(c *IncidentSumConfig) { c.Output.Mode = "http" },
		"slack":           func(c *IncidentSumConfig) { c.Output.Slack.Enabled = true },
		"digest no store": func(c *IncidentSumConfig) { c.Digest.Enabled = true },
		"rules path":      func(c *IncidentSumConfig) { c.Rules.Enabled = true },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg.IncidentSum)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yml")
	require.NoError(t, os.WriteFile(path, []byte("incidentsum:\n  summarizer:\n    provider: anthropic\n"), 0644))
	t.Setenv("ANTHROPIC_API_KEY", "sk-test")

	cfg, got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "sk-test", cfg.IncidentSum.Summarizer.APIKey)
}
