package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("buildcast"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	return &cli, ctx, err
}

func TestParseCommands(t *testing.T) {
	input := filepath.Join(t.TempDir(), "in.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0644))

	cli, ctx, err := parse(t, "preprocess", "--input", input, "--out", "results")
	require.NoError(t, err)
	assert.Equal(t, "preprocess", ctx.Command())
	assert.Equal(t, input, cli.Preprocess.Input)
	assert.Equal(t, "info", cli.LogLevel)
	assert.True(t, filepath.IsAbs(cli.Out))

	_, ctx, err = parse(t, "train", "--log-level", "debug")
	require.NoError(t, err)
	assert.Equal(t, "train", ctx.Command())

	cli, ctx, err = parse(t, "run", "--input", input)
	require.NoError(t, err)
	assert.Equal(t, "run", ctx.Command())
	assert.Equal(t, input, cli.Run.Input)
}

func TestParseRejectsBadFlags(t *testing.T) {
	_, _, err := parse(t, "train", "--log-level", "loud")
	assert.Error(t, err)

	_, _, err = parse(t, "preprocess", "--input", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)

	_, _, err = parse(t, "train", "--input", "x.xlsx")
	assert.Error(t, err)
}
