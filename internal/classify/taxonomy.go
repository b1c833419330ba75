package classify

// DefaultFallback is returned when no category keyword matches.
const DefaultFallback = "General"

// Category is one incident label and the keywords that select it.
type Category struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is an ordered category list. Order is significant: the first category
// with a matching keyword wins.
type Taxonomy struct {
	Categories []Category `yaml:"categories"`
	Fallback   string     `yaml:"fallback"`
}

// DefaultTaxonomy returns the built-in IT incident taxonomy.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Categories: []Category{
			{Name: "Redes/Infraestructura", Keywords: []string{"red", "servidor", "router", "switch"}},
			{Name: "Base de datos", Keywords: []string{"base de datos", "sql", "postgres", "mongo"}},
			{Name: "Seguridad", Keywords: []string{"seguridad", "acceso", "vulnerabilidad", "phishing"}},
			{Name: "Software/Aplicación", Keywords: []string{"aplicación", "software", "bug", "código"}},
		},
		Fallback: DefaultFallback,
	}
}
