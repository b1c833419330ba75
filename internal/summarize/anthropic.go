package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"incidentsum/internal/logger"
)

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"

const summarySystemPrompt = `You summarize IT incident reports for on-call operators.
Write a single plain-text paragraph in the same language as the report.
Keep hostnames, IP addresses, ticket identifiers and times exactly as written.
Do not add facts that are not in the report. Do not use markdown.`

// Anthropic summarizes with the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates an Anthropic summarizer. model defaults to a current Sonnet model.
func NewAnthropic(apiKey, model string, opts ...option.RequestOption) (*Anthropic, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	if model == "" {
		model = defaultAnthropicModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// Name returns the model identifier.
func (a *Anthropic) Name() string {
	return a.model
}

// Summarize asks the model for a synopsis between p.MinLength and p.MaxLength words.
func (a *Anthropic) Summarize(ctx context.Context, text string, p Params) (string, error) {
	text = truncate(text, p.MaxInputChars)
	prompt := fmt.Sprintf("Summarize the following incident report in %s.\n\n<report>\n%s\n</report>", lengthHint(p), text)
	return a.complete(ctx, summarySystemPrompt, prompt, "summarize")
}

func (a *Anthropic) complete(ctx context.Context, systemPrompt, userPrompt, op string) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   1024,
		Temperature: anthropic.Float(0),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		logger.Errorf("llm anthropic %s error: %v", op, err)
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			logger.Debugf("llm anthropic %s model=%s size=%d tokens_in=%d tokens_out=%d", op, a.model, len(block.Text), message.Usage.InputTokens, message.Usage.OutputTokens)
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", fmt.Errorf("no text content in anthropic response")
}

func lengthHint(p Params) string {
	switch {
	case p.MinLength > 0 && p.MaxLength > 0:
		return fmt.Sprintf("between %d and %d words", p.MinLength, p.MaxLength)
	case p.MaxLength > 0:
		return fmt.Sprintf("at most %d words", p.MaxLength)
	case p.MinLength > 0:
		return fmt.Sprintf("at least %d words", p.MinLength)
	default:
		return "a few sentences"
	}
}

// AnthropicTranslator translates summaries with the Anthropic Messages API.
type AnthropicTranslator struct {
	*Anthropic
	target string
}

// NewAnthropicTranslator creates a translator into target (for example "English").
func NewAnthropicTranslator(apiKey, model, target string, opts ...option.RequestOption) (*AnthropicTranslator, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("translation target language is required")
	}
	a, err := NewAnthropic(apiKey, model, opts...)
	if err != nil {
		return nil, err
	}
	return &AnthropicTranslator{Anthropic: a, target: target}, nil
}

// Translate returns text translated into the target language.
func (t *AnthropicTranslator) Translate(ctx context.Context, text string) (string, error) {
	system := fmt.Sprintf("Translate IT incident summaries into %s. Keep identifiers, hostnames and IP addresses unchanged. Reply with the translation only.", t.target)
	return t.complete(ctx, system, text, "translate")
}
