// Package digest posts periodic per-category incident counts.
package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"incidentsum/internal/logger"
)

// Counter reports incident counts by category since a point in time.
type Counter interface {
	CountByCategory(since time.Time) (map[string]int, error)
}

// Poster delivers a digest message.
type Poster interface {
	PostText(ctx context.Context, text string) error
}

// ParseSchedule parses a standard 5-field cron expression.
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(strings.TrimSpace(expr))
	if err != nil {
		return nil, fmt.Errorf("invalid digest schedule %q: %w", expr, err)
	}
	return sched, nil
}

// Digest summarizes reports received since its previous run.
type Digest struct {
	counter  Counter
	poster   Poster
	schedule cron.Schedule
	now      func() time.Time
	last     time.Time
}

// New creates a digest. poster may be nil, in which case digests are only logged.
func New(counter Counter, poster Poster, schedule cron.Schedule) *Digest {
	d := &Digest{
		counter:  counter,
		poster:   poster,
		schedule: schedule,
		now:      time.Now,
	}
	d.last = d.now()
	return d
}

// Run fires the digest on schedule until ctx is cancelled.
func (d *Digest) Run(ctx context.Context) error {
	for {
		now := d.now()
		next := d.schedule.Next(now)
		wait := next.Sub(now)
		logger.Infof("Next incident digest at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if _, err := d.RunOnce(ctx); err != nil {
			logger.Errorf("Incident digest failed: %v", err)
		}
	}
}

// RunOnce builds and delivers one digest covering reports since the previous run.
func (d *Digest) RunOnce(ctx context.Context) (string, error) {
	since := d.last
	now := d.now()
	counts, err := d.counter.CountByCategory(since)
	if err != nil {
		return "", fmt.Errorf("count reports: %w", err)
	}
	d.last = now

	msg := Format(since, counts)
	logger.Infof("%s", msg)
	if d.poster != nil {
		if err := d.poster.PostText(ctx, msg); err != nil {
			return msg, fmt.Errorf("post digest: %w", err)
		}
	}
	return msg, nil
}

// Format renders counts ordered by count, then category name.
func Format(since time.Time, counts map[string]int) string {
	header := fmt.Sprintf("Incident digest since %s", since.Format("2006-01-02 15:04"))
	if len(counts) == 0 {
		return header + ": no incidents"
	}

	categories := make([]string, 0, len(counts))
	total := 0
	for c, n := range counts {
		categories = append(categories, c)
		total += n
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})

	parts := make([]string, len(categories))
	for i, c := range categories {
		parts[i] = fmt.Sprintf("%s %d", c, counts[c])
	}
	return fmt.Sprintf("%s: %s (total %d)", header, strings.Join(parts, ", "), total)
}
