package enumerator

import (
	"math"
	"testing"
)

func TestFromScoresSortsDescendingNaNLast(t *testing.T) {
	var scores [256]float64
	scores[3] = 5.0
	scores[9] = 9.0
	scores[1] = math.NaN()
	s := FromScores(scores)

	first, ok := s.Next()
	if !ok || first.Key[0] != 9 {
		t.Fatalf("want key 9 first, got %+v", first)
	}
	second, ok := s.Next()
	if !ok || second.Key[0] != 3 {
		t.Fatalf("want key 3 second, got %+v", second)
	}
	// remaining 253 zero-score entries precede the one NaN entry.
	for i := 0; i < 253; i++ {
		c, ok := s.Next()
		if !ok || math.IsNaN(c.Score) {
			t.Fatalf("expected a zero-score entry at position %d, got %+v", i, c)
		}
	}
	last, ok := s.Next()
	if !ok || !math.IsNaN(last.Score) {
		t.Fatalf("want NaN entry last, got %+v", last)
	}
}

func TestMergeEmitsDescendingSums(t *testing.T) {
	a := FromScores(func() [256]float64 {
		var s [256]float64
		s[0], s[1], s[2] = 3, 2, 1
		for k := 3; k < 256; k++ {
			s[k] = math.NaN()
		}
		return s
	}())
	b := FromScores(func() [256]float64 {
		var s [256]float64
		s[0], s[1], s[2] = 30, 20, 10
		for k := 3; k < 256; k++ {
			s[k] = math.NaN()
		}
		return s
	}())

	merged := Merge(a, b)
	results := Enumerate(merged, 9)
	if len(results) != 9 {
		t.Fatalf("want 9 candidates, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("candidates not descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
	if results[0].Score != 33 {
		t.Fatalf("want top sum 33 (3+30), got %v", results[0].Score)
	}
	if len(results[0].Key) != 2 {
		t.Fatalf("want 2-byte key, got %d bytes", len(results[0].Key))
	}
}

func TestBuildTreeMergesAllBytes(t *testing.T) {
	mkStream := func(best int) Stream {
		var s [256]float64
		for k := range s {
			s[k] = -float64(k)
		}
		s[best] = 1000
		return FromScores(s)
	}
	streams := []Stream{mkStream(1), mkStream(2), mkStream(3)}
	root := BuildTree(streams)
	top := Enumerate(root, 1)
	if len(top) != 1 {
		t.Fatalf("expected 1 candidate")
	}
	want := []byte{1, 2, 3}
	for i, b := range want {
		if top[0].Key[i] != b {
			t.Fatalf("want key %v, got %v", want, top[0].Key)
		}
	}
}

func TestEnumerateStopsWhenExhausted(t *testing.T) {
	var s [256]float64
	for k := range s {
		s[k] = math.NaN()
	}
	s[0] = 1
	stream := FromScores(s)
	got := Enumerate(stream, 1000)
	if len(got) != 256 {
		t.Fatalf("want 256 candidates (stream exhausts, does not block), got %d", len(got))
	}
}
