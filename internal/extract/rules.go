package extract

import "incidentsum/pkg/models"

// PatternRule maps an entity type to one or more regular expressions.
type PatternRule struct {
	Type     string   `yaml:"type"`
	Patterns []string `yaml:"patterns"`
}

// KeyValueRule routes values labeled with one of Keys ("Hostname: web-01") to Type.
type KeyValueRule struct {
	Type string   `yaml:"type"`
	Keys []string `yaml:"keys"`
}

// RuleSet is the declarative extraction configuration.
// Pattern rules are evaluated in order; a value claimed by an earlier type is not
// attributed to a later one.
type RuleSet struct {
	Patterns       []PatternRule  `yaml:"patterns"`
	KeyValues      []KeyValueRule `yaml:"key_values"`
	MinValueLength int            `yaml:"min_value_length"`
}

// DefaultRuleSet returns the built-in rules for IT incident write-ups.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		Patterns: []PatternRule{
			{
				Type:     models.EntityIncidentID,
				Patterns: []string{`\bINC-\d{4,}\b|#\d{4,}\b`},
			},
			{
				Type:     models.EntityIPs,
				Patterns: []string{`\b(?:(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\.){3}(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)\b`},
			},
			{
				Type: models.EntityDates,
				Patterns: []string{
					`\b\d{4}-\d{2}-\d{2}\b`,
					`\b\d{1,2}/\d{1,2}/\d{2,4}\b`,
				},
			},
			{
				Type:     models.EntityTimes,
				Patterns: []string{`\b\d{1,2}:\d{2}(?::\d{2})?(?:\s?(?:a\.m\.|p\.m\.|am\b|pm\b))?`},
			},
			{
				Type: models.EntityResources,
				Patterns: []string{
					`\b(srv-[0-9a-z]+(?:-[0-9a-z]+)*)`,
					`\b([a-z0-9][a-z0-9-]{2,}-[a-z0-9-]{2,}[a-z0-9])\b`,
				},
			},
			{
				Type:     models.EntityApplications,
				Patterns: []string{`\b(postgres(?:ql)?|mysql|mongodb|oracle|redis|kafka|rabbitmq|nginx|apache|tomcat|jenkins|kubernetes|docker|elasticsearch|sap)\b`},
			},
		},
		KeyValues: []KeyValueRule{
			{Type: models.EntityResources, Keys: []string{"hostname", "host", "server", "servidor"}},
			{Type: models.EntityIPs, Keys: []string{"ip"}},
			{Type: models.EntityIncidentID, Keys: []string{"id", "ticket"}},
			{Type: models.EntityApplications, Keys: []string{"os", "app", "application", "aplicación"}},
		},
		MinValueLength: 2,
	}
}
