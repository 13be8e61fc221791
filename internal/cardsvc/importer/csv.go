// Package importer turns uploaded CSV files into card rows.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
)

// MaxFileSize is the largest CSV file accepted for import.
const MaxFileSize = 1 << 20

// ErrMissingColumn is returned when the header has no Spanish text column.
var ErrMissingColumn = errors.New("csv: missing Spanish Text column")

type column int

const (
	colSpanish column = iota
	colEnglish
	colRussian
	colCategory
)

var headerAliases = map[string]column{
	"spanish text":        colSpanish,
	"spanish_text":        colSpanish,
	"english translation": colEnglish,
	"english_text":        colEnglish,
	"russian translation": colRussian,
	"russian_text":        colRussian,
	"category":            colCategory,
}

// ParseCSV reads a header row followed by one card per line. Unknown columns
// are ignored; a missing Spanish text column or a ragged row fails the whole
// file. Rows are returned as found, validation of their content is left to the
// import service.
func ParseCSV(r io.Reader) ([]models.CardFields, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrMissingColumn
	}
	if err != nil {
		return nil, fmt.Errorf("csv parsing error: %w", err)
	}

	index := map[column]int{}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if col, ok := headerAliases[key]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	if _, ok := index[colSpanish]; !ok {
		return nil, ErrMissingColumn
	}

	var rows []models.CardFields
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv parsing error: %w", err)
		}
		if blank(record) {
			continue
		}

		get := func(c column) string {
			if i, ok := index[c]; ok {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		row := models.CardFields{
			SpanishText: get(colSpanish),
			Category:    get(colCategory),
		}
		for lang, c := range map[string]column{models.LangEnglish: colEnglish, models.LangRussian: colRussian} {
			if v := get(c); v != "" {
				if row.Translations == nil {
					row.Translations = map[string]string{}
				}
				row.Translations[lang] = v
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
