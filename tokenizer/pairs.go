package tokenizer

import (
	"cmp"
	"fmt"

	"github.com/emirpasic/gods/v2/maps/linkedhashmap"
	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

// Pair is two adjacent symbols. As a merge rule it stands for replacing
// Left, Right with their concatenation.
type Pair struct {
	Left, Right string
}

func (p Pair) Merged() string {
	return p.Left + p.Right
}

func (p Pair) String() string {
	return fmt.Sprintf("(%q, %q)", p.Left, p.Right)
}

// PairCount is a pair with its number of occurrences.
type PairCount struct {
	Pair
	Count int
}

// PairCounts holds adjacent pair frequencies in the order pairs were first
// seen while scanning the corpus left to right, document by document.
type PairCounts struct {
	m *linkedhashmap.Map[Pair, int]
}

// CountPairs counts every adjacent pair of every sequence, once per
// occurrence.
func CountPairs(seqs [][]string) *PairCounts {
	m := linkedhashmap.New[Pair, int]()
	for _, seq := range seqs {
		for i := 0; i+1 < len(seq); i++ {
			p := Pair{seq[i], seq[i+1]}
			n, _ := m.Get(p)
			m.Put(p, n+1)
		}
	}

	return &PairCounts{m: m}
}

func (c *PairCounts) Len() int {
	return c.m.Size()
}

// Get returns the count of p, zero when it never occurs.
func (c *PairCounts) Get(p Pair) int {
	n, _ := c.m.Get(p)
	return n
}

// Best returns the most frequent pair. Among pairs sharing the maximum
// count the first seen wins. ok is false when there are no pairs.
func (c *PairCounts) Best() (best Pair, count int, ok bool) {
	c.m.Each(func(p Pair, n int) {
		if n > count {
			best, count, ok = p, n, true
		}
	})

	return best, count, ok
}

// Top returns up to n pairs ordered by count, highest first, ties in
// first-seen order.
func (c *PairCounts) Top(n int) []PairCount {
	if n <= 0 {
		return nil
	}

	type ranked struct {
		PairCount
		seen int
	}

	h := heap.NewWith(func(a, b ranked) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return cmp.Compare(a.seen, b.seen)
	})

	var seen int
	c.m.Each(func(p Pair, count int) {
		h.Push(ranked{PairCount{p, count}, seen})
		seen++
	})

	top := make([]PairCount, 0, min(n, h.Size()))
	for len(top) < n {
		r, ok := h.Pop()
		if !ok {
			break
		}
		top = append(top, r.PairCount)
	}

	return top
}
