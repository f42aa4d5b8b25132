package search

import (
	"fmt"
	"sort"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// phraseWeight scores a phrase as a single pseudo-term whose idf is the
// sum over every term alternative in every slot.
type phraseWeight struct {
	query       *PhraseQuery
	sim         similarity.Similarity
	idf         float32
	queryWeight float32
	queryNorm   float32
	value       float32
}

var _ Weight = (*phraseWeight)(nil)

func newPhraseWeight(q *PhraseQuery, s Searchable) *phraseWeight {
	sim := s.Similarity()
	var idf float32
	for _, slot := range q.slots {
		for _, text := range slot.Terms {
			idf += sim.IDF(s.DocFreq(q.Field, text), s.MaxDoc())
		}
	}
	return &phraseWeight{query: q, sim: sim, idf: idf}
}

func (w *phraseWeight) Value() float32 { return w.value }

func (w *phraseWeight) SumOfSquaredWeights() float32 {
	w.queryWeight = w.idf * w.query.Boost()
	return w.queryWeight * w.queryWeight
}

func (w *phraseWeight) Normalize(norm float32) {
	w.queryNorm = norm
	w.queryWeight *= norm
	w.value = w.queryWeight * w.idf
}

// slotIters opens one posting stream per slot, merging alternatives.
// Returns nil when any slot has no postings at all, since the phrase
// then cannot match.
func (w *phraseWeight) slotIters(r index.Reader) ([]slotStream, error) {
	slots := w.query.sortedSlots()
	streams := make([]slotStream, 0, len(slots))
	fail := func() {
		for _, st := range streams {
			_ = st.iter.Close()
		}
	}
	for _, slot := range slots {
		var iters []index.PostingIterator
		for _, text := range slot.Terms {
			if pi := r.TermPositions(index.NewTerm(w.query.Field, text)); pi != nil {
				iters = append(iters, pi)
			}
		}
		switch len(iters) {
		case 0:
			fail()
			return nil, nil
		case 1:
			streams = append(streams, slotStream{iter: iters[0], offset: slot.Pos})
		default:
			streams = append(streams, slotStream{iter: newUnionPostings(iters), offset: slot.Pos})
		}
	}
	return streams, nil
}

func (w *phraseWeight) Scorer(r index.Reader) (Scorer, error) {
	streams, err := w.slotIters(r)
	if err != nil || streams == nil {
		return nil, err
	}
	norms := r.Norms(w.query.Field)
	if w.query.Slop == 0 {
		return newExactPhraseScorer(streams, norms, w.value, w.sim), nil
	}
	return newSloppyPhraseScorer(streams, norms, w.value, w.query.Slop, w.sim), nil
}

func (w *phraseWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	phrase := w.query.String(w.query.Field)

	var freq float32
	sc, err := w.Scorer(r)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		if sc.SkipTo(doc) && sc.Doc() == doc {
			freq = sc.(phraseFreqer).phraseFreq()
		}
		_ = sc.Close()
	}

	tf := w.sim.TF(freq)
	fieldExpl := NewExplanation(0, fmt.Sprintf("fieldWeight(%s in %d), product of:", phrase, doc))
	fieldExpl.AddDetail(NewExplanation(tf, fmt.Sprintf("tf(phraseFreq=%s)", formatScore(freq))))
	fieldExpl.AddDetail(NewExplanation(w.idf, "idf"))

	var norm float32 = 1.0
	if norms := r.Norms(w.query.Field); norms != nil && doc < len(norms) {
		norm = similarity.DecodeNorm(norms[doc])
	}
	fieldExpl.AddDetail(NewExplanation(norm, fmt.Sprintf("fieldNorm(field=%s, doc=%d)", w.query.Field, doc)))
	fieldExpl.Value = tf * w.idf * norm

	if w.queryWeight == 1.0 {
		return fieldExpl, nil
	}

	queryExpl := NewExplanation(w.queryWeight, fmt.Sprintf("queryWeight(%s), product of:", phrase))
	if b := w.query.Boost(); b != 1.0 {
		queryExpl.AddDetail(NewExplanation(b, "boost"))
	}
	queryExpl.AddDetail(NewExplanation(w.idf, "idf"))
	queryExpl.AddDetail(NewExplanation(w.queryNorm, "queryNorm"))

	expl := NewExplanation(queryExpl.Value*fieldExpl.Value,
		fmt.Sprintf("weight(%s in %d), product of:", phrase, doc))
	expl.AddDetail(queryExpl)
	expl.AddDetail(fieldExpl)
	return expl, nil
}

// slotStream is one phrase position's posting stream. Match positions
// are compared after subtracting the slot offset, so every slot of a
// matching phrase reports the same adjusted position.
type slotStream struct {
	iter   index.PostingIterator
	offset int
}

// adjusted returns the stream's positions for the current document,
// shifted so an exact phrase aligns all slots on equal values.
func (s slotStream) adjusted() []int {
	raw := s.iter.Positions()
	out := make([]int, len(raw))
	for i, p := range raw {
		out[i] = p - s.offset
	}
	return out
}

type phraseFreqer interface{ phraseFreq() float32 }

// phraseScorer drives the conjunctive doc-level advance shared by the
// exact and sloppy variants.
type phraseScorer struct {
	streams []slotStream
	norms   []byte
	sim     similarity.Similarity
	value   float32

	freqFn    func() float32
	doc       int
	freq      float32
	started   bool
	exhausted bool
}

func (sc *phraseScorer) Next() bool {
	if sc.exhausted {
		return false
	}
	if !sc.started {
		sc.started = true
		for _, st := range sc.streams {
			if !st.iter.Next() {
				sc.exhausted = true
				return false
			}
		}
		return sc.align()
	}
	if !sc.streams[0].iter.Next() {
		sc.exhausted = true
		return false
	}
	return sc.align()
}

func (sc *phraseScorer) SkipTo(target int) bool {
	if sc.exhausted {
		return false
	}
	if sc.started && sc.doc >= target {
		return true
	}
	sc.started = true
	for _, st := range sc.streams {
		if !st.iter.SkipTo(target) {
			sc.exhausted = true
			return false
		}
	}
	return sc.align()
}

// align raises every stream to a common document with a nonzero phrase
// frequency.
func (sc *phraseScorer) align() bool {
	for {
		max := sc.streams[0].iter.Doc()
		for _, st := range sc.streams[1:] {
			if d := st.iter.Doc(); d > max {
				max = d
			}
		}
		level := true
		for _, st := range sc.streams {
			if st.iter.Doc() < max {
				if !st.iter.SkipTo(max) {
					sc.exhausted = true
					return false
				}
				if st.iter.Doc() > max {
					level = false
				}
			}
		}
		if !level {
			continue
		}
		sc.doc = max
		if sc.freq = sc.freqFn(); sc.freq > 0 {
			return true
		}
		if !sc.streams[0].iter.Next() {
			sc.exhausted = true
			return false
		}
	}
}

func (sc *phraseScorer) Doc() int { return sc.doc }

func (sc *phraseScorer) Score() float32 {
	raw := sc.sim.TF(sc.freq) * sc.value
	if sc.norms != nil && sc.doc < len(sc.norms) {
		raw *= similarity.DecodeNorm(sc.norms[sc.doc])
	}
	return raw
}

func (sc *phraseScorer) phraseFreq() float32 { return sc.freq }

func (sc *phraseScorer) Close() error {
	var firstErr error
	for _, st := range sc.streams {
		if err := st.iter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// exactPhraseScorer counts adjusted positions common to every slot.
type exactPhraseScorer struct {
	phraseScorer
}

var _ Scorer = (*exactPhraseScorer)(nil)

func newExactPhraseScorer(streams []slotStream, norms []byte, value float32, sim similarity.Similarity) *exactPhraseScorer {
	sc := &exactPhraseScorer{phraseScorer{streams: streams, norms: norms, sim: sim, value: value, doc: -1}}
	sc.freqFn = sc.exactFreq
	return sc
}

func (sc *exactPhraseScorer) exactFreq() float32 {
	positions := make([][]int, len(sc.streams))
	for i, st := range sc.streams {
		positions[i] = st.adjusted()
	}
	idx := make([]int, len(positions))
	var freq float32
	for {
		target := -1 << 31
		for i, ps := range positions {
			if idx[i] >= len(ps) {
				return freq
			}
			if ps[idx[i]] > target {
				target = ps[idx[i]]
			}
		}
		matched := true
		for i, ps := range positions {
			for idx[i] < len(ps) && ps[idx[i]] < target {
				idx[i]++
			}
			if idx[i] >= len(ps) {
				return freq
			}
			if ps[idx[i]] != target {
				matched = false
			}
		}
		if matched {
			freq++
			for i := range idx {
				idx[i]++
			}
		}
	}
}

// sloppyPhraseScorer accumulates sloppyFreq over every minimal window
// spanning all slots whose length is within the slop.
type sloppyPhraseScorer struct {
	phraseScorer
	slop int
}

var _ Scorer = (*sloppyPhraseScorer)(nil)

func newSloppyPhraseScorer(streams []slotStream, norms []byte, value float32, slop int, sim similarity.Similarity) *sloppyPhraseScorer {
	sc := &sloppyPhraseScorer{
		phraseScorer: phraseScorer{streams: streams, norms: norms, sim: sim, value: value, doc: -1},
		slop:         slop,
	}
	sc.freqFn = sc.sloppyFreq
	return sc
}

// slotCursor walks one slot's adjusted positions during window
// scanning.
type slotCursor struct {
	positions []int
	idx       int
}

func (c *slotCursor) pos() int { return c.positions[c.idx] }

func (c *slotCursor) advance() bool {
	c.idx++
	return c.idx < len(c.positions)
}

func (sc *sloppyPhraseScorer) sloppyFreq() float32 {
	cursors := make([]*slotCursor, len(sc.streams))
	end := -1 << 31
	for i, st := range sc.streams {
		cursors[i] = &slotCursor{positions: st.adjusted()}
		if p := cursors[i].pos(); p > end {
			end = p
		}
	}
	sort.Slice(cursors, func(i, j int) bool { return cursors[i].pos() < cursors[j].pos() })

	var freq float32
	for {
		// The minimal window spans from the smallest cursor to end.
		first := cursors[0]
		start := first.pos()
		next := start
		if len(cursors) > 1 {
			next = cursors[1].pos()
		}
		done := false
		for first.pos() <= next {
			start = first.pos()
			if !first.advance() {
				done = true
				break
			}
		}
		if matchLength := end - start; matchLength <= sc.slop {
			freq += sc.sim.SloppyFreq(matchLength)
		}
		if done {
			return freq
		}
		if p := first.pos(); p > end {
			end = p
		}
		// Restore the ordering invariant after advancing the head.
		for i := 0; i+1 < len(cursors) && cursors[i].pos() > cursors[i+1].pos(); i++ {
			cursors[i], cursors[i+1] = cursors[i+1], cursors[i]
		}
	}
}

// unionPostings merges several posting streams into one, used for slots
// with alternative terms. Its document stream is the union of the
// inputs' and its positions are the sorted multiset union.
type unionPostings struct {
	iters     []index.PostingIterator
	active    []bool
	started   bool
	doc       int
	positions []int
}

var _ index.PostingIterator = (*unionPostings)(nil)

func newUnionPostings(iters []index.PostingIterator) *unionPostings {
	return &unionPostings{iters: iters, active: make([]bool, len(iters)), doc: -1}
}

func (u *unionPostings) Next() bool {
	if !u.started {
		u.started = true
		for i, it := range u.iters {
			u.active[i] = it.Next()
		}
	} else {
		for i, it := range u.iters {
			if u.active[i] && it.Doc() == u.doc {
				u.active[i] = it.Next()
			}
		}
	}
	return u.gather()
}

func (u *unionPostings) SkipTo(target int) bool {
	if u.started && u.doc >= target {
		return true
	}
	u.started = true
	for i, it := range u.iters {
		u.active[i] = it.SkipTo(target)
	}
	return u.gather()
}

// gather positions the union on the minimum active document and merges
// its positions.
func (u *unionPostings) gather() bool {
	min := -1
	for i, it := range u.iters {
		if !u.active[i] {
			continue
		}
		if min < 0 || it.Doc() < min {
			min = it.Doc()
		}
	}
	if min < 0 {
		return false
	}
	u.doc = min
	u.positions = u.positions[:0]
	for i, it := range u.iters {
		if u.active[i] && it.Doc() == min {
			u.positions = append(u.positions, it.Positions()...)
		}
	}
	sort.Ints(u.positions)
	return true
}

func (u *unionPostings) Doc() int { return u.doc }

func (u *unionPostings) Freq() int { return len(u.positions) }

func (u *unionPostings) Positions() []int { return u.positions }

func (u *unionPostings) Close() error {
	var firstErr error
	for _, it := range u.iters {
		if err := it.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
