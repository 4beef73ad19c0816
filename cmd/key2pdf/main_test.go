package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidekit/key2pdf/archive"
	"github.com/slidekit/key2pdf/ir/raw"
)

func fixtureDeck(t *testing.T) string {
	t.Helper()
	b := archive.NewBuilder(archive.RevisionUTF8)
	b.SetRoot(1)
	b.AddRecord(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
		raw.FieldW:        raw.FloatValue{V: 800},
		raw.FieldH:        raw.FloatValue{V: 600},
		raw.FieldChildren: raw.ArrayValue{Items: []raw.Value{raw.RefValue{ID: 2}}},
	})
	b.AddRecord(2, raw.TagSlide, map[raw.FieldKey]raw.Value{
		raw.FieldChildren: raw.ArrayValue{Items: []raw.Value{raw.RefValue{ID: 3}}},
	})
	b.AddRecord(3, raw.TagShapeRect, map[raw.FieldKey]raw.Value{
		raw.FieldX: raw.FloatValue{V: 10}, raw.FieldY: raw.FloatValue{V: 10},
		raw.FieldW: raw.FloatValue{V: 100}, raw.FieldH: raw.FloatValue{V: 50},
	})
	data, err := b.Bytes()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "deck.key")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var errOut bytes.Buffer
	cmd.SetErr(&errOut)
	cmd.SetOut(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return errOut.String(), err
}

func TestRunConvertsDeck(t *testing.T) {
	in := fixtureDeck(t)
	out := filepath.Join(t.TempDir(), "deck.pdf")
	msg, err := execute(t, in, "-o", out)
	require.NoError(t, err)
	assert.Contains(t, msg, "1 pages")

	pdf, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-1.7")))
}

func TestRunQuiet(t *testing.T) {
	in := fixtureDeck(t)
	out := filepath.Join(t.TempDir(), "deck.pdf")
	msg, err := execute(t, in, "-o", out, "-q")
	require.NoError(t, err)
	assert.Empty(t, msg)
}

func TestRunBadPageRange(t *testing.T) {
	in := fixtureDeck(t)
	_, err := execute(t, in, "--pages", "5-2")
	require.Error(t, err)
	var ce *conversionError
	assert.ErrorAs(t, err, &ce)
}

func TestRunMissingInput(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "nope.key"))
	require.Error(t, err)
	var ce *conversionError
	assert.ErrorAs(t, err, &ce)
}

func TestRunNoArgsIsUsageError(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
	var ce *conversionError
	assert.False(t, errors.As(err, &ce))
}

func TestWorkersDefaultIsOnePerCPU(t *testing.T) {
	cmd := newRootCmd()
	def := cmd.Flags().Lookup("workers").DefValue
	assert.Equal(t, strconv.Itoa(runtime.NumCPU()), def)
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, "deck.pdf", defaultOutput("deck.key"))
	assert.Equal(t, "deck.pdf", defaultOutput("deck"))
	assert.Equal(t, "a/b.dir/deck.pdf", defaultOutput("a/b.dir/deck"))
}
