// Package textstats derives word counts, compression and confidence metadata for reports.
package textstats

import (
	"fmt"
	"math"
	"strings"

	"incidentsum/pkg/models"
)

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ReductionPercentage is the relative shrinkage from original to summary, rounded to
// two decimals. It is 0 when the original has no words.
func ReductionPercentage(originalWords, summaryWords int) float64 {
	if originalWords <= 0 {
		return 0
	}
	return Round2((1 - float64(summaryWords)/float64(originalWords)) * 100)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatConfidence renders a [0,1] confidence as "NN.NN%", or "N/A" when absent.
func FormatConfidence(confidence *float64) string {
	if confidence == nil || math.IsNaN(*confidence) {
		return models.NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *confidence*100)
}

// Compute builds report metadata from the original text, its summary and the extracted
// entities. Entity types without values are not counted.
func Compute(original, summary string, entities models.Entities, model models.ModelInfo, confidence *float64) models.Metadata {
	model = model.WithDefaults()
	originalWords := WordCount(original)
	summaryWords := WordCount(summary)

	return models.Metadata{
		Model:               model.Name,
		TranslationModel:    model.TranslationModel,
		MinWords:            model.MinLength,
		MaxWords:            model.MaxLength,
		ConfidenceScore:     FormatConfidence(confidence),
		OriginalWordsCount:  originalWords,
		SummaryWordsCount:   summaryWords,
		ReductionPercentage: ReductionPercentage(originalWords, summaryWords),
		EntityCounts:        entities.Counts(),
	}
}

// Empty returns metadata for a report whose metrics were not computed.
func Empty(model models.ModelInfo) models.Metadata {
	model = model.WithDefaults()
	return models.Metadata{
		Model:            model.Name,
		TranslationModel: model.TranslationModel,
		MinWords:         model.MinLength,
		MaxWords:         model.MaxLength,
		ConfidenceScore:  models.NotAvailable,
		EntityCounts:     map[string]int{},
	}
}
