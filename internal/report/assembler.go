// Package report turns incident text and its summary into the structured Report.
package report

import (
	"fmt"
	"strings"

	"incidentsum/internal/classify"
	"incidentsum/internal/extract"
	"incidentsum/internal/textstats"
	"incidentsum/pkg/models"
)

// Input is everything needed to build one report. A nil Summary means no summary was
// produced and yields an error report.
type Input struct {
	Text         string
	Summary      *string
	MinWordCount int
	Model        models.ModelInfo
	Confidence   *float64
}

// Assembler combines extraction, classification and metrics into reports.
type Assembler struct {
	extractor  *extract.Extractor
	classifier *classify.Classifier
}

// NewAssembler creates an assembler from configured components.
func NewAssembler(extractor *extract.Extractor, classifier *classify.Classifier) *Assembler {
	return &Assembler{extractor: extractor, classifier: classifier}
}

// NewAssemblerFromConfig compiles a rule set and taxonomy into an assembler.
func NewAssemblerFromConfig(rules extract.RuleSet, taxonomy classify.Taxonomy) (*Assembler, error) {
	x, err := extract.New(rules)
	if err != nil {
		return nil, fmt.Errorf("extraction rules: %w", err)
	}
	c, err := classify.New(taxonomy)
	if err != nil {
		return nil, fmt.Errorf("taxonomy: %w", err)
	}
	return NewAssembler(x, c), nil
}

// Extractor returns the entity extractor.
func (a *Assembler) Extractor() *extract.Extractor {
	return a.extractor
}

// Classifier returns the incident classifier.
func (a *Assembler) Classifier() *classify.Classifier {
	return a.classifier
}

// ValidateText rejects empty text and text shorter than minWords words.
func ValidateText(text string, minWords int) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("input text is empty; please provide an incident report of at least %d words", max(minWords, 1))
	}
	if n := textstats.WordCount(text); minWords > 0 && n < minWords {
		return fmt.Errorf("input text is too short to summarize: got %d words, at least %d required", n, minWords)
	}
	return nil
}

// Build validates the input and assembles a success or error report.
func (a *Assembler) Build(in Input) models.Report {
	if err := ValidateText(in.Text, in.MinWordCount); err != nil {
		return a.AssembleError(err.Error(), in.Text, in.Model)
	}
	if in.Summary == nil {
		return a.AssembleError("no summary was produced for the input text", in.Text, in.Model)
	}
	category := a.classifier.Classify(in.Text)
	return a.Assemble(*in.Summary, in.Text, category, in.Model, in.Confidence)
}

// Assemble builds a success report.
func (a *Assembler) Assemble(summary, original, category string, model models.ModelInfo, confidence *float64) models.Report {
	entities := a.extractor.Extract(original)
	return models.Report{
		Status:       models.StatusSuccess,
		IncidentType: category,
		Summary:      summary,
		Entities:     entities,
		Metadata:     textstats.Compute(original, summary, entities, model, confidence),
	}
}

// AssembleError builds an error report. Only the original word count is measured.
func (a *Assembler) AssembleError(message, original string, model models.ModelInfo) models.Report {
	if strings.TrimSpace(message) == "" {
		message = "report generation failed"
	}
	md := textstats.Empty(model)
	md.OriginalWordsCount = textstats.WordCount(original)
	return models.Report{
		Status:       models.StatusError,
		IncidentType: models.NotAvailable,
		Entities:     models.Entities{},
		Metadata:     md,
		ErrorMessage: message,
	}
}
