package graphload_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"code.hybscloud.com/cammini/internal/graphload"
	"code.hybscloud.com/cammini/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func namesStore(t *testing.T, names string) *model.VertexStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nomi.txt")
	require.NoError(t, os.WriteFile(path, []byte(names), 0o644))
	store, err := model.LoadVertexStore(path)
	require.NoError(t, err)
	return store
}

func writeGraph(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grafo.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoad_FillsNeighbors(t *testing.T) {
	store := namesStore(t, "1\tA\t1980\n2\tB\t1981\n3\tC\t1982\n")
	graphPath := writeGraph(t, "1\t1\t2\t\n2\t2\t1\t3\t\n3\t1\t2\t\n")

	err := graphload.Load(context.Background(), discardLogger(), graphPath, store, 4, 0)
	require.NoError(t, err)

	a1, _ := store.Lookup(1)
	assert.Equal(t, []int32{2}, a1.Neighbors)
	assert.Equal(t, 1, a1.NeighborCount)

	a2, _ := store.Lookup(2)
	assert.Equal(t, []int32{1, 3}, a2.Neighbors)

	a3, _ := store.Lookup(3)
	assert.Equal(t, []int32{2}, a3.Neighbors)
}

func TestLoad_CountMismatchIsFatal(t *testing.T) {
	store := namesStore(t, "1\tA\t1980\n2\tB\t1981\n")
	graphPath := writeGraph(t, "1\t2\t2\t\n2\t0\t\n")

	err := graphload.Load(context.Background(), discardLogger(), graphPath, store, 2, 0)
	assert.Error(t, err)
}

func TestLoad_UnknownCodeIsFatal(t *testing.T) {
	store := namesStore(t, "1\tA\t1980\n")
	graphPath := writeGraph(t, "999\t0\t\n")

	err := graphload.Load(context.Background(), discardLogger(), graphPath, store, 2, 0)
	assert.Error(t, err)
}

// TestLoad_DeterministicAcrossWorkerCounts: W in {1,2,8,32} over the same
// input must produce byte-identical vertex state, regardless of how the
// consumers interleave.
func TestLoad_DeterministicAcrossWorkerCounts(t *testing.T) {
	const n = 200

	var graphContents string
	names := make([]string, 0, n)
	for code := 1; code <= n; code++ {
		neighbor := code + 1
		if neighbor > n {
			neighbor = 1
		}
		graphContents += strconv.Itoa(code) + "\t1\t" + strconv.Itoa(neighbor) + "\t\n"
		names = append(names, strconv.Itoa(code)+"\tactor\t1950\n")
	}
	graphPath := writeGraph(t, graphContents)

	var namesContents string
	for _, line := range names {
		namesContents += line
	}

	for _, w := range []int{1, 2, 8, 32} {
		store := namesStore(t, namesContents)
		err := graphload.Load(context.Background(), discardLogger(), graphPath, store, w, 0)
		require.NoError(t, err)

		for code := int32(1); code <= n; code++ {
			a, ok := store.Lookup(code)
			require.True(t, ok)
			expected := code + 1
			if expected > n {
				expected = 1
			}
			assert.Equalf(t, []int32{expected}, a.Neighbors, "worker count %d, code %d", w, code)
		}
	}
}
