// Package rewrite splices text insertions into source files and renders the
// result as a unified diff.
package rewrite

import (
	"fmt"
	"sort"
)

// Insertion places Text immediately before the byte at Offset in the
// original source.
type Insertion struct {
	Offset int    `json:"offset"`
	Text   string `json:"text"`
}

// Order returns ins in application order: descending offset. Insertions that
// share an offset are applied last-listed first, so in the output they read
// in the order they were listed.
func Order(ins []Insertion) []Insertion {
	idx := make([]int, len(ins))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		ia, ib := ins[idx[a]], ins[idx[b]]
		if ia.Offset != ib.Offset {
			return ia.Offset > ib.Offset
		}
		return idx[a] > idx[b]
	})

	ordered := make([]Insertion, len(ins))
	for i, j := range idx {
		ordered[i] = ins[j]
	}
	return ordered
}

// Apply returns a copy of src with every insertion applied. Offsets refer to
// the original text; applying from the highest offset down means an
// insertion never moves a position that is still to be used.
func Apply(src []byte, ins []Insertion) ([]byte, error) {
	for _, in := range ins {
		if in.Offset < 0 || in.Offset > len(src) {
			return nil, fmt.Errorf("insertion offset %d out of range [0, %d]", in.Offset, len(src))
		}
	}

	out := make([]byte, len(src))
	copy(out, src)
	for _, in := range Order(ins) {
		spliced := make([]byte, 0, len(out)+len(in.Text))
		spliced = append(spliced, out[:in.Offset]...)
		spliced = append(spliced, in.Text...)
		out = append(spliced, out[in.Offset:]...)
	}
	return out, nil
}
