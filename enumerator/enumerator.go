// Package enumerator implements the lazy pairwise-merge key enumerator of
// spec.md §4.9: K independent per-byte ranked streams are combined,
// binary-tree style, into a single globally ranked stream of full-key
// candidates. Grounded on metrisca/enumerator/enumerator.hpp's
// frontier/cursor design from the MetriSCA original; re-expressed here as
// the equivalent k-largest-pair-sum lazy heap merge (see DESIGN.md for why
// this is operationally the same laziness/ordering guarantee as the
// source's per-row cursor frontier).
package enumerator

import (
	"container/heap"
	"math"
	"sort"
)

// Candidate is one emitted full (or partial, inside the tree) key
// candidate: its total score and the concatenated key bytes that produced
// it.
type Candidate struct {
	Score float64
	Key   []byte
}

// Stream produces Candidates in non-increasing score order, lazily. NaN
// scores sort last, per spec.md §4.9 ("NaN scores ... placed at the tail
// of each per-byte sort").
type Stream interface {
	Next() (Candidate, bool)
}

func rank(score float64) float64 {
	if math.IsNaN(score) {
		return math.Inf(-1)
	}
	return score
}

// sliceStream is a leaf stream backed by an already-sorted slice.
type sliceStream struct {
	items []Candidate
	pos   int
}

// NewSliceStream wraps a pre-sorted (descending, NaN-last) slice as a leaf
// Stream.
func NewSliceStream(items []Candidate) Stream {
	return &sliceStream{items: items}
}

func (s *sliceStream) Next() (Candidate, bool) {
	if s.pos >= len(s.items) {
		return Candidate{}, false
	}
	c := s.items[s.pos]
	s.pos++
	return c, true
}

// FromScores builds a descending, NaN-last leaf Stream from a 256-element
// per-key score array for one key byte; ties break by first-seen (key
// index ascending), per the Open Question resolution recorded in
// DESIGN.md.
func FromScores(scores [256]float64) Stream {
	items := make([]Candidate, 256)
	for k := 0; k < 256; k++ {
		items[k] = Candidate{Score: scores[k], Key: []byte{byte(k)}}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return rank(items[i].Score) > rank(items[j].Score)
	})
	return NewSliceStream(items)
}

// pairItem is one entry of the merge heap: a pending (i, j) index pair
// into the two buffered child streams, with its precomputed combined
// score.
type pairItem struct {
	i, j  int
	score float64
}

type pairHeap []pairItem

func (h pairHeap) Len() int            { return len(h) }
func (h pairHeap) Less(i, j int) bool  { return h[i].score > h[j].score }
func (h pairHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *pairHeap) Push(x interface{}) { *h = append(*h, x.(pairItem)) }
func (h *pairHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeStream is one internal binary-tree node: it lazily buffers its two
// children and emits the globally descending sequence of combined
// candidates using a max-heap over the frontier of not-yet-emitted index
// pairs, extending a buffer only the first time an index past its current
// length is requested — the same laziness guarantee as the source's
// cursor frontier, reached via the standard k-largest-pair-sum algorithm.
type mergeStream struct {
	a, b                   Stream
	bufA, bufB             []Candidate
	exhaustedA, exhaustedB bool
	heap                   pairHeap
	visited                map[[2]int]bool
}

// Merge combines two descending-ordered streams into one, whose score at
// each emission is the sum of the two children's scores.
func Merge(a, b Stream) Stream {
	m := &mergeStream{a: a, b: b, visited: make(map[[2]int]bool)}
	m.push(0, 0)
	return m
}

func (m *mergeStream) ensureA(i int) bool {
	for len(m.bufA) <= i && !m.exhaustedA {
		c, ok := m.a.Next()
		if !ok {
			m.exhaustedA = true
			break
		}
		m.bufA = append(m.bufA, c)
	}
	return i < len(m.bufA)
}

func (m *mergeStream) ensureB(j int) bool {
	for len(m.bufB) <= j && !m.exhaustedB {
		c, ok := m.b.Next()
		if !ok {
			m.exhaustedB = true
			break
		}
		m.bufB = append(m.bufB, c)
	}
	return j < len(m.bufB)
}

func (m *mergeStream) push(i, j int) {
	if i < 0 || j < 0 {
		return
	}
	key := [2]int{i, j}
	if m.visited[key] {
		return
	}
	if !m.ensureA(i) || !m.ensureB(j) {
		return
	}
	m.visited[key] = true
	score := rank(m.bufA[i].Score) + rank(m.bufB[j].Score)
	heap.Push(&m.heap, pairItem{i: i, j: j, score: score})
}

func (m *mergeStream) Next() (Candidate, bool) {
	if m.heap.Len() == 0 {
		return Candidate{}, false
	}
	top := heap.Pop(&m.heap).(pairItem)
	a, b := m.bufA[top.i], m.bufB[top.j]
	key := make([]byte, 0, len(a.Key)+len(b.Key))
	key = append(key, a.Key...)
	key = append(key, b.Key...)

	m.push(top.i+1, top.j)
	m.push(top.i, top.j+1)

	return Candidate{Score: top.score, Key: key}, true
}

// BuildTree pairs adjacent streams into merge nodes, binary-tree style,
// until a single root stream remains, per spec.md §4.9.
func BuildTree(streams []Stream) Stream {
	if len(streams) == 0 {
		return NewSliceStream(nil)
	}
	for len(streams) > 1 {
		next := make([]Stream, 0, (len(streams)+1)/2)
		for i := 0; i < len(streams); i += 2 {
			if i+1 < len(streams) {
				next = append(next, Merge(streams[i], streams[i+1]))
			} else {
				next = append(next, streams[i])
			}
		}
		streams = next
	}
	return streams[0]
}

// Enumerate pulls the top n candidates from root in descending score
// order.
func Enumerate(root Stream, n int) []Candidate {
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		c, ok := root.Next()
		if !ok {
			break
		}
		out = append(out, c)
	}
	return out
}
