package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFirstMatchWins(t *testing.T) {
	c, err := New(Taxonomy{
		Categories: []Category{
			{Name: "Infraestructura/Sistemas", Keywords: []string{"servidor"}},
			{Name: "Base de datos", Keywords: []string{"base de datos", "sql", "postgres", "tabla"}},
		},
	})
	require.NoError(t, err)

	// Three database keywords against one infrastructure keyword.
	text := "El servidor que aloja la base de datos postgres perdió la tabla de sql"
	assert.Equal(t, "Infraestructura/Sistemas", c.Classify(text))
}

func TestClassifyScenarioFallsBack(t *testing.T) {
	c, err := New(Taxonomy{
		Categories: []Category{
			{Name: "Infraestructura/Sistemas", Keywords: []string{"servidor"}},
			{Name: "Base de datos", Keywords: []string{"base de datos"}},
		},
		Fallback: "General/Otros",
	})
	require.NoError(t, err)

	got := c.Classify("INC-1234 reported high latency on srv-db-01 at 192.168.1.5")
	assert.Equal(t, "General/Otros", got)
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c, err := New(DefaultTaxonomy())
	require.NoError(t, err)

	assert.Equal(t, "Base de datos", c.Classify("Caída de MONGO en producción"))
	assert.Equal(t, "Seguridad", c.Classify("Intento de PHISHING detectado"))
	assert.Equal(t, "Software/Aplicación", c.Classify("Un BUG en el CÓDIGO de facturación"))
}

func TestClassifyEmptyTextReturnsFallback(t *testing.T) {
	c, err := New(DefaultTaxonomy())
	require.NoError(t, err)

	assert.Equal(t, DefaultFallback, c.Classify(""))
	assert.Equal(t, DefaultFallback, c.Classify("   \n\t"))
	assert.Equal(t, DefaultFallback, c.Classify("todo funciona"))
}

func TestClassifyDeterministic(t *testing.T) {
	c, err := New(DefaultTaxonomy())
	require.NoError(t, err)

	text := "El router principal dejó sin acceso a la base de datos"
	first := c.Classify(text)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Classify(text))
	}
	assert.Equal(t, "Redes/Infraestructura", first)
}

func TestNewValidatesTaxonomy(t *testing.T) {
	_, err := New(Taxonomy{Categories: []Category{{Name: "", Keywords: []string{"x"}}}})
	assert.Error(t, err)

	_, err = New(Taxonomy{Categories: []Category{{Name: "Empty", Keywords: []string{" "}}}})
	assert.Error(t, err)

	c, err := New(Taxonomy{})
	require.NoError(t, err)
	assert.Equal(t, DefaultFallback, c.Fallback())
	assert.Equal(t, []string{DefaultFallback}, c.Labels())
}
