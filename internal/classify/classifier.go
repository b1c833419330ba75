package classify

import (
	"fmt"
	"strings"
)

type category struct {
	name     string
	keywords []string
}

// Classifier maps incident text to exactly one category label.
type Classifier struct {
	categories []category
	fallback   string
}

// New prepares a taxonomy for matching. Keywords are lower-cased; category order is kept.
func New(t Taxonomy) (*Classifier, error) {
	c := &Classifier{fallback: strings.TrimSpace(t.Fallback)}
	if c.fallback == "" {
		c.fallback = DefaultFallback
	}
	for i, cat := range t.Categories {
		name := strings.TrimSpace(cat.Name)
		if name == "" {
			return nil, fmt.Errorf("category %d has no name", i)
		}
		prepared := category{name: name}
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				prepared.keywords = append(prepared.keywords, kw)
			}
		}
		if len(prepared.keywords) == 0 {
			return nil, fmt.Errorf("category %q has no keywords", name)
		}
		c.categories = append(c.categories, prepared)
	}
	return c, nil
}

// Classify returns the first category, in taxonomy order, with a keyword occurring in
// text, or the fallback label.
func (c *Classifier) Classify(text string) string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return c.fallback
	}
	for _, cat := range c.categories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name
			}
		}
	}
	return c.fallback
}

// Fallback returns the label used when nothing matches.
func (c *Classifier) Fallback() string {
	return c.fallback
}

// Labels returns every label the classifier can produce, fallback last.
func (c *Classifier) Labels() []string {
	out := make([]string, 0, len(c.categories)+1)
	for _, cat := range c.categories {
		out = append(out, cat.name)
	}
	return append(out, c.fallback)
}
