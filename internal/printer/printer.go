// Package printer formats cardctl output.
package printer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/avvvet/tarjetas/internal/cardsvc/models"
	"github.com/fatih/color"
)

func init() {
	// Force color output even when not connected to TTY
	// Users can disable with NO_COLOR environment variable
	if os.Getenv("NO_COLOR") == "" {
		color.NoColor = false
	}
}

var (
	// Out and ErrOut are swapped in tests.
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr

	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
	faint  = color.New(color.Faint)
)

// Success prints a success message in green with a checkmark prefix
func Success(format string, a ...any) {
	green.Fprintf(Out, "✓ %s", fmt.Sprintf(format, a...))
}

func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a warning message in yellow
func Warning(format string, a ...any) {
	yellow.Fprintf(Out, "⚠️  %s", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to ErrOut and returns a
// plain error for cobra, which is set to stay silent.
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(ErrOut, "%s\n\n", title)
	fmt.Fprintf(ErrOut, "%s\n", explanation)

	if len(suggestions) > 0 {
		fmt.Fprintf(ErrOut, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(ErrOut, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(ErrOut, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(ErrOut, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// Card prints one card: the Spanish prompt, then its translations by
// language code and the category.
func Card(c models.Card) {
	cyan.Fprintf(Out, "%s\n", c.SpanishText)

	langs := make([]string, 0, len(c.Translations))
	for lang := range c.Translations {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	for _, lang := range langs {
		fmt.Fprintf(Out, "  %s: %s\n", lang, c.Translations[lang])
	}
	faint.Fprintf(Out, "  [%s] %s\n", Category(c.Category), c.ID)
}

// Cards prints a compact listing, one card per line.
func Cards(cards []models.Card) {
	for _, c := range cards {
		fmt.Fprintf(Out, "%s  %-12s  %s\n", shortID(c.ID), Category(c.Category), c.SpanishText)
	}
}

// Category renders a category name, naming the sentinel for what it is.
func Category(name string) string {
	if name == models.SentinelCategory {
		return name + " (uncategorized)"
	}
	return name
}

// Categories prints the category index with the sentinel set apart.
func Categories(names []string) {
	bold.Fprintf(Out, "Categories (%d)\n", len(names))
	for _, n := range names {
		fmt.Fprintf(Out, "  %s\n", Category(n))
	}
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
