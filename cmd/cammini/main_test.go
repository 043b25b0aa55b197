package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func contextWithFlags(t *testing.T, names, graph string, workers int, args []string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("names", names, "")
	set.String("graph", graph, "")
	set.Int("workers", workers, "")
	set.String("pipe", "", "")
	set.String("config", "", "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(nil, set, nil)
}

func TestResolveArgs_FlagForm(t *testing.T) {
	c := contextWithFlags(t, "nomi.txt", "grafo.txt", 4, nil)

	names, graph, workers, err := resolveArgs(c)
	require.NoError(t, err)
	assert.Equal(t, "nomi.txt", names)
	assert.Equal(t, "grafo.txt", graph)
	assert.Equal(t, 4, workers)
}

func TestResolveArgs_PositionalForm(t *testing.T) {
	c := contextWithFlags(t, "", "", 0, []string{"nomi.txt", "grafo.txt", "8"})

	names, graph, workers, err := resolveArgs(c)
	require.NoError(t, err)
	assert.Equal(t, "nomi.txt", names)
	assert.Equal(t, "grafo.txt", graph)
	assert.Equal(t, 8, workers)
}

func TestResolveArgs_MissingArgsIsFatal(t *testing.T) {
	c := contextWithFlags(t, "", "", 0, nil)

	_, _, _, err := resolveArgs(c)
	assert.Error(t, err)
}

func TestResolveArgs_NonPositiveWorkersIsFatal(t *testing.T) {
	c := contextWithFlags(t, "nomi.txt", "grafo.txt", 0, nil)

	_, _, _, err := resolveArgs(c)
	assert.Error(t, err)
}
