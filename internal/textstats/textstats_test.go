package textstats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"incidentsum/pkg/models"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("palabra ", n))
}

func TestWordCountSplitsOnWhitespaceRuns(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount(" \n\t "))
	assert.Equal(t, 4, WordCount("  uno\tdos\n\ntres   cuatro "))
	assert.Equal(t, 2, WordCount("srv-db-01, caído."))
}

func TestReductionPercentage(t *testing.T) {
	assert.Equal(t, 80.0, ReductionPercentage(100, 20))
	assert.Equal(t, 0.0, ReductionPercentage(0, 20))
	assert.Equal(t, 0.0, ReductionPercentage(0, 0))
	assert.Equal(t, 66.67, ReductionPercentage(3, 1))
	assert.Equal(t, -50.0, ReductionPercentage(10, 15))
}

func TestFormatConfidence(t *testing.T) {
	c := 0.8734
	assert.Equal(t, "87.34%", FormatConfidence(&c))
	one := 1.0
	assert.Equal(t, "100.00%", FormatConfidence(&one))
	assert.Equal(t, models.NotAvailable, FormatConfidence(nil))
}

func TestComputeMirrorsEntityBuckets(t *testing.T) {
	entities := models.Entities{
		models.EntityIPs:       {"10.0.0.1", "10.0.0.2"},
		models.EntityResources: {"srv-db-01"},
	}
	conf := 0.5

	md := Compute(words(100), words(20), entities, models.ModelInfo{Name: "bart", MinLength: 50, MaxLength: 150}, &conf)

	assert.Equal(t, "bart", md.Model)
	assert.Equal(t, 50, md.MinWords)
	assert.Equal(t, 150, md.MaxWords)
	assert.Equal(t, "50.00%", md.ConfidenceScore)
	assert.Equal(t, 100, md.OriginalWordsCount)
	assert.Equal(t, 20, md.SummaryWordsCount)
	assert.Equal(t, 80.0, md.ReductionPercentage)
	assert.Equal(t, map[string]int{models.EntityIPs: 2, models.EntityResources: 1}, md.EntityCounts)
	_, hasIDs := md.EntityCounts[models.EntityIncidentID]
	assert.False(t, hasIDs)
}

func TestComputeDefaultsModelMetadata(t *testing.T) {
	md := Compute("", "", nil, models.ModelInfo{}, nil)

	assert.Equal(t, models.NotAvailable, md.Model)
	assert.Equal(t, models.NotAvailable, md.ConfidenceScore)
	assert.Equal(t, 0.0, md.ReductionPercentage)
	assert.NotNil(t, md.EntityCounts)
	assert.Empty(t, md.EntityCounts)
}

func TestEmpty(t *testing.T) {
	md := Empty(models.ModelInfo{Name: "m", TranslationModel: "t", MinLength: 1, MaxLength: 2})

	assert.Equal(t, "m", md.Model)
	assert.Equal(t, "t", md.TranslationModel)
	assert.Equal(t, models.NotAvailable, md.ConfidenceScore)
	assert.Zero(t, md.OriginalWordsCount)
	assert.NotNil(t, md.EntityCounts)
}
