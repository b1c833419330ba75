package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"incidentsum/pkg/models"
)

const defaultMinValueLength = 2

type compiledPatternRule struct {
	typ string
	res []*regexp.Regexp
}

// Extractor finds typed entities in incident text using a compiled RuleSet.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	patterns []compiledPatternRule
	keyValue *regexp.Regexp
	keyTypes map[string]string
	minLen   int
}

// New compiles a rule set. All patterns are matched case-insensitively.
func New(rs RuleSet) (*Extractor, error) {
	x := &Extractor{
		keyTypes: make(map[string]string),
		minLen:   rs.MinValueLength,
	}
	if x.minLen <= 0 {
		x.minLen = defaultMinValueLength
	}

	for _, rule := range rs.Patterns {
		typ := strings.TrimSpace(rule.Type)
		if typ == "" {
			return nil, fmt.Errorf("pattern rule without type")
		}
		compiled := compiledPatternRule{typ: typ}
		for _, expr := range rule.Patterns {
			if strings.TrimSpace(expr) == "" {
				continue
			}
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("compile %s pattern %q: %w", typ, expr, err)
			}
			compiled.res = append(compiled.res, re)
		}
		if len(compiled.res) > 0 {
			x.patterns = append(x.patterns, compiled)
		}
	}

	var keys []string
	for _, rule := range rs.KeyValues {
		typ := strings.TrimSpace(rule.Type)
		if typ == "" {
			return nil, fmt.Errorf("key-value rule without type")
		}
		for _, key := range rule.Keys {
			k := strings.ToLower(strings.TrimSpace(key))
			if k == "" {
				continue
			}
			if prev, ok := x.keyTypes[k]; ok && prev != typ {
				return nil, fmt.Errorf("key %q routed to both %s and %s", k, prev, typ)
			}
			if _, ok := x.keyTypes[k]; !ok {
				keys = append(keys, k)
			}
			x.keyTypes[k] = typ
		}
	}
	if len(keys) > 0 {
		// Longest keys first so "hostname" wins over "host".
		sort.SliceStable(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = regexp.QuoteMeta(k)
		}
		expr := `(?i)\b(` + strings.Join(quoted, "|") + `)\s*:\s*([a-z0-9][a-z0-9./-]*)`
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile key-value pattern: %w", err)
		}
		x.keyValue = re
	}

	return x, nil
}

// MustNew is like New but panics on an invalid rule set.
func MustNew(rs RuleSet) *Extractor {
	x, err := New(rs)
	if err != nil {
		panic(err)
	}
	return x
}

// Types returns the entity types this extractor can emit, pattern rules first.
func (x *Extractor) Types() []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(typ string) {
		if _, ok := seen[typ]; ok {
			return
		}
		seen[typ] = struct{}{}
		out = append(out, typ)
	}
	for _, rule := range x.patterns {
		add(rule.typ)
	}
	keys := make([]string, 0, len(x.keyTypes))
	for k := range x.keyTypes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(x.keyTypes[k])
	}
	return out
}

// Extract returns the distinct entities found in text. Types without matches are absent.
func (x *Extractor) Extract(text string) models.Entities {
	c := newCollector()
	if strings.TrimSpace(text) == "" {
		return c.entities()
	}

	// Labeled values are routed by their key before any pattern runs.
	if x.keyValue != nil {
		for _, m := range x.keyValue.FindAllStringSubmatch(text, -1) {
			typ, ok := x.keyTypes[strings.ToLower(m[1])]
			if !ok {
				continue
			}
			value := strings.TrimRight(strings.TrimSpace(m[2]), ".-/")
			if len([]rune(value)) < x.minLen {
				continue
			}
			c.claim(typ, value)
		}
	}

	for _, rule := range x.patterns {
		for _, re := range rule.res {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				value := strings.TrimSpace(matchValue(m))
				if value == "" {
					continue
				}
				c.claim(rule.typ, value)
			}
		}
	}

	return c.entities()
}

// matchValue returns the first non-empty capture group, or the whole match when the
// pattern has no groups or none participated.
func matchValue(m []string) string {
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return m[0]
}

type collector struct {
	buckets map[string]map[string]struct{}
	owner   map[string]string
}

func newCollector() *collector {
	return &collector{
		buckets: make(map[string]map[string]struct{}),
		owner:   make(map[string]string),
	}
}

func (c *collector) add(typ, value string) {
	set := c.buckets[typ]
	if set == nil {
		set = make(map[string]struct{})
		c.buckets[typ] = set
	}
	set[value] = struct{}{}
}

// claim adds value to typ unless another type already owns it.
func (c *collector) claim(typ, value string) {
	if prev, ok := c.owner[value]; ok && prev != typ {
		return
	}
	c.owner[value] = typ
	c.add(typ, value)
}

func (c *collector) entities() models.Entities {
	out := make(models.Entities, len(c.buckets))
	for typ, set := range c.buckets {
		if len(set) == 0 {
			continue
		}
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[typ] = values
	}
	return out
}
