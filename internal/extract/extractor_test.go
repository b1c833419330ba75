package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"incidentsum/pkg/models"
)

func newDefault(t *testing.T) *Extractor {
	t.Helper()
	x, err := New(DefaultRuleSet())
	require.NoError(t, err)
	return x
}

func TestExtractScenarioTicketHostAndIP(t *testing.T) {
	x := newDefault(t)

	got := x.Extract("INC-1234 reported high latency on srv-db-01 at 192.168.1.5")

	assert.ElementsMatch(t, []string{"INC-1234"}, got[models.EntityIncidentID])
	assert.ElementsMatch(t, []string{"192.168.1.5"}, got[models.EntityIPs])
	assert.ElementsMatch(t, []string{"srv-db-01"}, got[models.EntityResources])
	assert.Len(t, got, 3, "unexpected buckets: %v", got)
}

func TestExtractDeduplicatesRepeatedValues(t *testing.T) {
	x := newDefault(t)
	text := strings.Repeat("srv-web-02 lost connectivity to 10.0.0.7 again. ", 4)

	got := x.Extract(text)

	assert.Equal(t, []string{"10.0.0.7"}, got[models.EntityIPs])
	assert.Equal(t, []string{"srv-web-02"}, got[models.EntityResources])
}

func TestExtractOmitsEmptyBuckets(t *testing.T) {
	x := newDefault(t)

	got := x.Extract("nothing interesting happened here")
	assert.Empty(t, got)
	assert.NotNil(t, got)

	got = x.Extract("")
	assert.Empty(t, got)

	for typ, values := range x.Extract("INC-9999 only") {
		assert.NotEmpty(t, values, "bucket %s must not be empty", typ)
	}
}

func TestExtractKeyValueRoutesByKey(t *testing.T) {
	x := newDefault(t)
	text := "Hostname: web-frontend-01. IP: 172.16.4.20. Ticket: 778899. OS: ubuntu-22.04"

	got := x.Extract(text)

	assert.Contains(t, got[models.EntityResources], "web-frontend-01")
	assert.Equal(t, []string{"172.16.4.20"}, got[models.EntityIPs])
	assert.Equal(t, []string{"778899"}, got[models.EntityIncidentID])
	assert.Contains(t, got[models.EntityApplications], "ubuntu-22.04")
	assert.NotContains(t, got[models.EntityResources], "ubuntu-22.04")
}

func TestExtractKeyValueAndPatternDoNotDoubleCount(t *testing.T) {
	x := newDefault(t)

	got := x.Extract("Server: srv-app-03 restarted; srv-app-03 is healthy")

	assert.Equal(t, []string{"srv-app-03"}, got[models.EntityResources])
}

func TestExtractValueNeverInTwoBuckets(t *testing.T) {
	x := newDefault(t)

	got := x.Extract("INC-4521 opened on 2024-03-18 for node-cache-7 and #5521")

	assert.ElementsMatch(t, []string{"INC-4521", "#5521"}, got[models.EntityIncidentID])
	assert.Equal(t, []string{"2024-03-18"}, got[models.EntityDates])
	assert.Equal(t, []string{"node-cache-7"}, got[models.EntityResources])

	seen := map[string]string{}
	for typ, values := range got {
		for _, v := range values {
			prev, dup := seen[v]
			assert.False(t, dup, "value %q in both %s and %s", v, prev, typ)
			seen[v] = typ
		}
	}
}

func TestExtractTimesAndApplications(t *testing.T) {
	x := newDefault(t)

	got := x.Extract("Postgres stopped at 10:30 a.m. and recovered at 15:45 after nginx reload")

	assert.ElementsMatch(t, []string{"10:30 a.m.", "15:45"}, got[models.EntityTimes])
	assert.ElementsMatch(t, []string{"Postgres", "nginx"}, got[models.EntityApplications])
}

func TestExtractFirstNonEmptyGroup(t *testing.T) {
	x, err := New(RuleSet{
		Patterns: []PatternRule{
			{Type: "resources", Patterns: []string{`\b(db-\d+)\b|node\s*=\s*(\w+)`}},
		},
	})
	require.NoError(t, err)

	got := x.Extract("failover from db-1 to node = replica7")

	assert.ElementsMatch(t, []string{"db-1", "replica7"}, got["resources"])
}

func TestExtractKeyValueMinimumLength(t *testing.T) {
	x, err := New(RuleSet{
		KeyValues:      []KeyValueRule{{Type: "resources", Keys: []string{"host"}}},
		MinValueLength: 3,
	})
	require.NoError(t, err)

	got := x.Extract("host: ab host: abc")

	assert.Equal(t, []string{"abc"}, got["resources"])
}

func TestNewRejectsInvalidRules(t *testing.T) {
	_, err := New(RuleSet{Patterns: []PatternRule{{Type: "ips", Patterns: []string{"("}}}})
	assert.Error(t, err)

	_, err = New(RuleSet{Patterns: []PatternRule{{Patterns: []string{"x"}}}})
	assert.Error(t, err)

	_, err = New(RuleSet{KeyValues: []KeyValueRule{
		{Type: "ips", Keys: []string{"ip"}},
		{Type: "resources", Keys: []string{"IP"}},
	}})
	assert.Error(t, err)
}

func TestTypesFollowRuleOrder(t *testing.T) {
	x := newDefault(t)

	types := x.Types()

	require.NotEmpty(t, types)
	assert.Equal(t, models.EntityIncidentID, types[0])
	assert.Contains(t, types, models.EntityApplications)
}
