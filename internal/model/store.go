package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is the error value for a missing actor code. VertexStore.Lookup
// does not return it: Lookup reports a miss through its boolean result.
var ErrNotFound = errors.New("model: actor not found")

// VertexStore is an immutable (after load), ascending-by-Code slice of
// actors. Binary search requires the input to already be sorted; the loader
// does not re-sort it.
type VertexStore struct {
	actors []*Actor
}

// Len returns the number of actors in the store.
func (s *VertexStore) Len() int { return len(s.actors) }

// At returns the actor at position i in ascending-code order.
func (s *VertexStore) At(i int) *Actor { return s.actors[i] }

// MaxCode returns the code of the last actor in the store, used to size
// dense parent tables. Panics if the store is empty.
func (s *VertexStore) MaxCode() int32 {
	return s.actors[len(s.actors)-1].Code
}

// Lookup performs an O(log N) binary search for code.
func (s *VertexStore) Lookup(code int32) (*Actor, bool) {
	i := sort.Search(len(s.actors), func(i int) bool {
		return s.actors[i].Code >= code
	})
	if i < len(s.actors) && s.actors[i].Code == code {
		return s.actors[i], true
	}
	return nil, false
}

// LoadVertexStore reads a names-file (`code\tname\tyear\n` per record,
// blank lines tolerated and skipped, records assumed pre-sorted ascending
// by code) and returns the resulting store.
//
// Any malformed line, non-numeric field, negative code, or I/O error is
// fatal: the whole load aborts and the error propagates to main, which
// exits 2.
func LoadVertexStore(path string) (*VertexStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("model: opening names-file: %w", err)
	}
	defer f.Close()

	var actors []*Actor
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		actor, err := parseActorLine(line)
		if err != nil {
			return nil, fmt.Errorf("model: names-file line %d: %w", lineNo, err)
		}
		actors = append(actors, actor)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("model: reading names-file: %w", err)
	}

	return &VertexStore{actors: actors}, nil
}

func parseActorLine(line string) (*Actor, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 3 {
		return nil, fmt.Errorf("expected 3 tab-separated fields, got %d", len(fields))
	}

	code, err := strconv.ParseInt(fields[0], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid code %q: %w", fields[0], err)
	}
	if code < 0 {
		return nil, fmt.Errorf("negative code %d not allowed (collides with the parent-table source sentinel)", code)
	}

	year, err := strconv.ParseInt(fields[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid year %q: %w", fields[2], err)
	}

	return &Actor{
		Code:      int32(code),
		Name:      fields[1],
		BirthYear: int32(year),
	}, nil
}

// Format renders the actor the way output files and BFS path lines do:
// "code\tname\tyear\t".
func (a *Actor) Format() string {
	return fmt.Sprintf("%d\t%s\t%d\t", a.Code, a.Name, a.BirthYear)
}
