package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"incidentsum/internal/logger"
	"incidentsum/pkg/models"
)

// Poster delivers alert messages.
type Poster interface {
	PostText(ctx context.Context, text string) error
}

// Notifier is a report sink that scores records and announces bursts.
type Notifier struct {
	scorer  *Scorer
	poster  Poster
	timeout time.Duration
}

// NewNotifier creates a notifier. poster may be nil, in which case alerts are only logged.
func NewNotifier(scorer *Scorer, poster Poster) *Notifier {
	return &Notifier{scorer: scorer, poster: poster, timeout: 10 * time.Second}
}

// WriteRecords feeds the scorer and delivers any alerts raised.
func (n *Notifier) WriteRecords(records []*models.ReportRecord) error {
	for _, alert := range n.scorer.AddRecords(records) {
		msg := Format(alert)
		logger.Warnf("%s", msg)
		if n.poster == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		err := n.poster.PostText(ctx, msg)
		cancel()
		if err != nil {
			logger.Errorf("Failed to post alert %s: %v", alert.AlertID, err)
		}
	}
	return nil
}

// Close releases notifier resources.
func (n *Notifier) Close() error {
	return nil
}

// Format renders an alert as a single chat line.
func Format(a *models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incident burst: %d %s reports between %s and %s (score %d)",
		a.Counts.Reports, a.Category,
		a.WindowStart.Format("15:04"), a.WindowEnd.Format("15:04"), a.Score)
	if len(a.Resources) > 0 {
		fmt.Fprintf(&b, "; resources: %s", strings.Join(a.Resources, ", "))
	}
	if len(a.Tags) > 0 {
		names := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			names[i] = t.Name
			if names[i] == "" {
				names[i] = t.ID
			}
		}
		fmt.Fprintf(&b, "; rules: %s", strings.Join(names, ", "))
	}
	return b.String()
}
