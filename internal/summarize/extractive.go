package summarize

import (
	"context"
	"strings"
	"unicode"
)

// Provider names accepted by New.
const (
	ProviderExtractive = "extractive"
	ProviderAnthropic  = "anthropic"
)

// Extractive is a deterministic lead summarizer: it keeps leading sentences until
// MinLength words are reached and never exceeds MaxLength words.
type Extractive struct{}

// NewExtractive creates a lead summarizer.
func NewExtractive() *Extractive {
	return &Extractive{}
}

// Name returns the model name recorded in report metadata.
func (e *Extractive) Name() string {
	return "extractive-lead"
}

// Summarize returns the leading sentences of text.
func (e *Extractive) Summarize(ctx context.Context, text string, p Params) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text = truncate(text, p.MaxInputChars)

	var out []string
	for _, sentence := range splitSentences(text) {
		words := strings.Fields(sentence)
		if p.MaxLength > 0 && len(out)+len(words) > p.MaxLength {
			if len(out) == 0 || (p.MinLength > 0 && len(out) < p.MinLength) {
				out = append(out, words[:p.MaxLength-len(out)]...)
			}
			break
		}
		out = append(out, words...)
		if p.MinLength > 0 && len(out) >= p.MinLength {
			break
		}
	}
	return strings.Join(out, " "), nil
}

// splitSentences breaks text after '.', '!' or '?' followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
