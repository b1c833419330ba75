// Package summarize holds the summarization and translation collaborators used to
// condense incident write-ups before report assembly.
package summarize

import (
	"context"
	"fmt"
	"strings"
)

// Params are the generation limits passed to a summarizer.
type Params struct {
	MinLength     int
	MaxLength     int
	MaxInputChars int
}

// Summarizer condenses incident text.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, text string, p Params) (string, error)
}

// Translator rewrites a summary into another language.
type Translator interface {
	Name() string
	Translate(ctx context.Context, text string) (string, error)
}

// Config selects and configures a summarizer and an optional translator.
type Config struct {
	Provider       string
	Model          string
	APIKey         string
	Translate      bool
	TargetLanguage string
	TranslateModel string
}

// New builds the summarizer and, when enabled, the translator described by cfg.
// The translator is nil when translation is disabled.
func New(cfg Config) (Summarizer, Translator, error) {
	var s Summarizer
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderExtractive:
		s = NewExtractive()
	case ProviderAnthropic:
		a, err := NewAnthropic(cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, nil, err
		}
		s = a
	default:
		return nil, nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}

	if !cfg.Translate {
		return s, nil, nil
	}
	model := cfg.TranslateModel
	if model == "" {
		model = cfg.Model
	}
	t, err := NewAnthropicTranslator(cfg.APIKey, model, cfg.TargetLanguage)
	if err != nil {
		return nil, nil, err
	}
	return s, t, nil
}

// truncate cuts text to at most max bytes on a rune boundary. max <= 0 disables it.
func truncate(text string, max int) string {
	if max <= 0 || len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
