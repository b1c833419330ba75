package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentsum/internal/telemetry"
	"incidentsum/pkg/models"
)

type deadlineGenerator struct {
	hadDeadline bool
}

func (g *deadlineGenerator) Generate(ctx context.Context, text string) models.Report {
	_, g.hadDeadline = ctx.Deadline()
	return models.Report{Status: models.StatusSuccess, IncidentType: "General", Summary: text}
}

func TestProcessorAppliesTimeoutAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	gen := &deadlineGenerator{}
	p := NewProcessor(gen, tagEverything{}, telemetry.New(reg), time.Minute)

	received := time.Date(2024, 3, 18, 10, 0, 0, 0, time.UTC)
	rec := p.Process(context.Background(), models.IncidentRequest{
		ID: "inc-7", Text: "router reboot", Source: "api", ReceivedAt: received,
	})

	assert.True(t, gen.hadDeadline)
	assert.Equal(t, "inc-7", rec.ID)
	assert.Equal(t, "api", rec.Source)
	assert.Equal(t, received, rec.ReceivedAt)
	assert.Equal(t, "router reboot", rec.Report.Summary)
	require.Len(t, rec.Tags, 1)

	count, err := testutil.GatherAndCount(reg, "incidentsum_reports_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessorWithoutTimeout(t *testing.T) {
	gen := &deadlineGenerator{}
	rec := NewProcessor(gen, nil, nil, 0).Process(context.Background(), models.IncidentRequest{ID: "x", Text: "t"})

	assert.False(t, gen.hadDeadline)
	assert.Nil(t, rec.Tags)
}
