// Package model defines the Actor vertex and the VertexStore that loads it
// from nomi.txt and answers O(log N) lookups by code. Neighbor lists from
// grafo.txt are filled in afterwards by GraphLoader.
package model

// Actor is a vertex in the co-starring graph: one person, identified by a
// unique positive code.
//
// Neighbors is populated by GraphLoader in a second pass; before that pass
// completes it is nil and must not be read.
type Actor struct {
	Code          int32
	Name          string
	BirthYear     int32
	NeighborCount int
	Neighbors     []int32
}
