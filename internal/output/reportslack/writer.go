// Package reportslack posts report summaries to a Slack channel.
package reportslack

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/slack-go/slack"

	"incidentsum/pkg/models"
)

// Config configures the Slack writer.
type Config struct {
	BotToken      string
	ChannelID     string
	IncludeErrors bool
	Timeout       time.Duration
}

// Writer posts one message per report.
type Writer struct {
	api           *slack.Client
	channelID     string
	includeErrors bool
	timeout       time.Duration
}

// NewWriter creates a Slack writer. Extra client options are passed to slack.New.
func NewWriter(cfg Config, opts ...slack.Option) (*Writer, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("slack bot token is empty")
	}
	if cfg.ChannelID == "" {
		return nil, fmt.Errorf("slack channel is empty")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Writer{
		api:           slack.New(cfg.BotToken, opts...),
		channelID:     cfg.ChannelID,
		includeErrors: cfg.IncludeErrors,
		timeout:       timeout,
	}, nil
}

// WriteRecords posts each record. Error reports are skipped unless enabled.
func (w *Writer) WriteRecords(records []*models.ReportRecord) error {
	for _, rec := range records {
		if !rec.Report.OK() && !w.includeErrors {
			continue
		}
		text, blocks := messageFor(rec)
		if err := w.post(slack.MsgOptionText(text, false), slack.MsgOptionBlocks(blocks...)); err != nil {
			return fmt.Errorf("post report %s: %w", rec.ID, err)
		}
	}
	return nil
}

// PostText posts a plain message to the configured channel.
func (w *Writer) PostText(ctx context.Context, text string) error {
	_, _, err := w.api.PostMessageContext(ctx, w.channelID, slack.MsgOptionText(text, false))
	return err
}

// Close releases Slack resources.
func (w *Writer) Close() error {
	return nil
}

func (w *Writer) post(opts ...slack.MsgOption) error {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	_, _, err := w.api.PostMessageContext(ctx, w.channelID, opts...)
	return err
}

func messageFor(rec *models.ReportRecord) (string, []slack.Block) {
	r := rec.Report
	if !r.OK() {
		text := fmt.Sprintf("Incident report %s failed: %s", rec.ID, r.ErrorMessage)
		return text, []slack.Block{
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, ":warning: "+text, false, false), nil, nil),
		}
	}

	text := fmt.Sprintf("[%s] %s", r.IncidentType, r.Summary)
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, "Incident: "+r.IncidentType, false, false)),
		slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, r.Summary, false, false), nil, nil),
	}
	if fields := entityFields(r.Entities); len(fields) > 0 {
		blocks = append(blocks, slack.NewSectionBlock(nil, fields, nil))
	}
	blocks = append(blocks, slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("id `%s` | confidence %s | reduction %.2f%%",
			rec.ID, r.Metadata.ConfidenceScore, r.Metadata.ReductionPercentage), false, false),
	))
	return text, blocks
}

func entityFields(entities models.Entities) []*slack.TextBlockObject {
	types := make([]string, 0, len(entities))
	for typ := range entities {
		types = append(types, typ)
	}
	sort.Strings(types)

	fields := make([]*slack.TextBlockObject, 0, len(types))
	for _, typ := range types {
		values := entities[typ]
		if len(values) == 0 {
			continue
		}
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("*%s*\n%s", typ, strings.Join(values, ", ")), false, false))
	}
	return fields
}
