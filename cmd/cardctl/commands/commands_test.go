package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/avvvet/tarjetas/internal/printer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cardsCSV = "Spanish Text,English Translation,Russian Translation,Category\n" +
	"¿Cuál es tu comida favorita?,What is your favourite food?,,Food\n" +
	"¿Adónde viajaste el verano pasado?,Where did you travel last summer?,,travel\n" +
	"¿Qué hiciste hoy?,What did you do today?,,\n"

func setupCLI(t *testing.T) (string, *bytes.Buffer, *bytes.Buffer) {
	dir := t.TempDir()
	t.Setenv("CARD_STORE", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "cards.db"))
	t.Setenv("LOG_DIR", "-")

	path := filepath.Join(dir, "cards.csv")
	require.NoError(t, os.WriteFile(path, []byte(cardsCSV), 0o644))

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	prevOut, prevErr := printer.Out, printer.ErrOut
	printer.Out, printer.ErrOut = out, errOut
	t.Cleanup(func() { printer.Out, printer.ErrOut = prevOut, prevErr })
	return path, out, errOut
}

func run(args ...string) error {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	return root.Execute()
}

func TestImportDrawAndList(t *testing.T) {
	path, out, _ := setupCLI(t)

	require.NoError(t, run("import", "--owner", "U1", path))
	assert.Contains(t, out.String(), "Imported 3 cards")

	out.Reset()
	require.NoError(t, run("categories", "--owner", "U1"))
	assert.Contains(t, out.String(), "food")
	assert.Contains(t, out.String(), "travel")
	assert.Contains(t, out.String(), "indefinida (uncategorized)")

	out.Reset()
	require.NoError(t, run("draw", "--owner", "U1", "--category", "travel"))
	assert.Contains(t, out.String(), "¿Adónde viajaste el verano pasado?")

	out.Reset()
	require.NoError(t, run("list", "--owner", "U1", "--category", "food"))
	assert.Contains(t, out.String(), "¿Cuál es tu comida favorita?")
	assert.Contains(t, out.String(), "1 cards")

	// cards are scoped to their owner
	out.Reset()
	require.NoError(t, run("list", "--owner", "U2"))
	assert.Contains(t, out.String(), "No cards found")
}

func TestDrawErrors(t *testing.T) {
	path, _, errOut := setupCLI(t)

	err := run("draw", "--owner", "U1")
	require.Error(t, err)
	assert.Equal(t, "no cards", err.Error())

	require.NoError(t, run("import", "--owner", "U1", path))

	errOut.Reset()
	err = run("draw", "--owner", "U1", "--category", "work")
	require.Error(t, err)
	assert.Contains(t, errOut.String(), `category "work"`)
}

func TestOwnerRequired(t *testing.T) {
	setupCLI(t)
	err := run("categories")
	require.Error(t, err)
	assert.Equal(t, "owner is required", err.Error())
}

func TestImportRejectsMissingSpanish(t *testing.T) {
	_, out, errOut := setupCLI(t)
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("Spanish Text,Category\n,food\n¿Sí?,food\n"), 0o644))

	err := run("import", "--owner", "U1", path)
	require.Error(t, err)
	assert.Contains(t, errOut.String(), "1 cards are missing Spanish text")

	out.Reset()
	require.NoError(t, run("list", "--owner", "U1"))
	assert.Contains(t, out.String(), "No cards found")
}

func TestRootShowsHelp(t *testing.T) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{})
	require.NoError(t, root.Execute())
	assert.Contains(t, buf.String(), "Usage:")
}
