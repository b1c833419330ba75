package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"incidentsum/internal/logger"
	"incidentsum/internal/summarize"
	"incidentsum/pkg/models"
)

// Options control report generation.
type Options struct {
	MinWordCount int
	Params       summarize.Params
	// Confidence is reported verbatim; nil renders as "N/A".
	Confidence *float64
}

// Generator runs the summarizer and assembles the report. It never returns an error:
// every failure becomes an error report.
type Generator struct {
	assembler  *Assembler
	summarizer summarize.Summarizer
	translator summarize.Translator
	opts       Options
}

// NewGenerator creates a generator. translator may be nil.
func NewGenerator(assembler *Assembler, summarizer summarize.Summarizer, translator summarize.Translator, opts Options) *Generator {
	return &Generator{
		assembler:  assembler,
		summarizer: summarizer,
		translator: translator,
		opts:       opts,
	}
}

// Assembler returns the underlying assembler.
func (g *Generator) Assembler() *Assembler {
	return g.assembler
}

// ModelInfo describes the configured collaborators.
func (g *Generator) ModelInfo() models.ModelInfo {
	info := models.ModelInfo{
		MinLength: g.opts.Params.MinLength,
		MaxLength: g.opts.Params.MaxLength,
	}
	if g.summarizer != nil {
		info.Name = g.summarizer.Name()
	}
	if g.translator != nil {
		info.TranslationModel = g.translator.Name()
	}
	return info.WithDefaults()
}

// Generate summarizes text and returns the assembled report.
func (g *Generator) Generate(ctx context.Context, text string) models.Report {
	model := g.ModelInfo()
	if err := ValidateText(text, g.opts.MinWordCount); err != nil {
		return g.assembler.AssembleError(err.Error(), text, model)
	}

	summary, err := g.summarize(ctx, text)
	if err != nil {
		logger.Warnf("Summarization failed: %v", err)
		return g.assembler.AssembleError("summarization failed: "+err.Error(), text, model)
	}

	if g.translator != nil {
		translated, err := g.translate(ctx, summary)
		if err != nil {
			logger.Warnf("Translation failed: %v", err)
			return g.assembler.AssembleError("translation failed: "+err.Error(), text, model)
		}
		summary = translated
	}

	return g.assembler.Build(Input{
		Text:         text,
		Summary:      &summary,
		MinWordCount: g.opts.MinWordCount,
		Model:        model,
		Confidence:   g.opts.Confidence,
	})
}

func (g *Generator) summarize(ctx context.Context, text string) (out string, err error) {
	if g.summarizer == nil {
		return "", errors.New("no summarizer configured")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("summarizer panicked: %v", r)
		}
	}()
	out, err = g.summarizer.Summarize(ctx, text, g.opts.Params)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("summarizer returned an empty summary")
	}
	return out, nil
}

func (g *Generator) translate(ctx context.Context, summary string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("translator panicked: %v", r)
		}
	}()
	out, err = g.translator.Translate(ctx, summary)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", errors.New("translator returned an empty translation")
	}
	return out, nil
}
