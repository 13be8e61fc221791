package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSV(t *testing.T) {
	t.Run("display headers", func(t *testing.T) {
		in := "Spanish Text,English Translation,Category\n" +
			"¿Qué desayunaste?,What did you have for breakfast?,comida\n" +
			"\n" +
			"\"¿Te gusta viajar, o no?\",,Viajes\n"
		rows, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "¿Qué desayunaste?", rows[0].SpanishText)
		assert.Equal(t, "What did you have for breakfast?", rows[0].Translations["en"])
		assert.Equal(t, "comida", rows[0].Category)
		assert.Equal(t, "¿Te gusta viajar, o no?", rows[1].SpanishText)
		assert.Nil(t, rows[1].Translations)
		assert.Equal(t, "Viajes", rows[1].Category)
	})

	t.Run("column names and russian", func(t *testing.T) {
		in := "\ufeffcategory,russian_text,spanish_text\nfamilia,Как дела?,¿Cómo estás?\n"
		rows, err := ParseCSV(strings.NewReader(in))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "¿Cómo estás?", rows[0].SpanishText)
		assert.Equal(t, "Как дела?", rows[0].Translations["ru"])
		assert.Equal(t, "familia", rows[0].Category)
	})

	t.Run("rows without spanish text are kept for validation", func(t *testing.T) {
		rows, err := ParseCSV(strings.NewReader("spanish_text,category\n,food\nhola,\n"))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Empty(t, rows[0].SpanishText)
	})

	t.Run("missing spanish column", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("english_text,category\nhi,x\n"))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrMissingColumn)
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := ParseCSV(strings.NewReader("spanish_text,category\nhola,x,extra\n"))
		assert.ErrorContains(t, err, "csv parsing error")
	})
}
