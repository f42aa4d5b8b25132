package search

import (
	"fmt"

	"github.com/ferret-go/ferret/internal/index"
)

// FilteredQuery combines a scoring query with a filter: only documents
// admitted by the filter can match, scored by the inner query alone.
type FilteredQuery struct {
	boostable
	Inner  Query
	Filter Filter
}

var _ Query = (*FilteredQuery)(nil)

// NewFilteredQuery creates a filtered query.
func NewFilteredQuery(inner Query, filter Filter) *FilteredQuery {
	return &FilteredQuery{Inner: inner, Filter: filter}
}

func (q *FilteredQuery) String(defaultField string) string {
	return fmt.Sprintf("FilteredQuery(%s, %s)%s", q.Inner.String(defaultField), q.Filter, q.boostSuffix())
}

func (q *FilteredQuery) Rewrite(r index.Reader) (Query, error) {
	inner, err := q.Inner.Rewrite(r)
	if err != nil {
		return nil, err
	}
	if inner == q.Inner {
		return q, nil
	}
	out := &FilteredQuery{Inner: inner, Filter: q.Filter}
	out.SetBoost(q.Boost())
	return out, nil
}

func (q *FilteredQuery) Equal(o Query) bool {
	f, ok := o.(*FilteredQuery)
	return ok && q.Inner.Equal(f.Inner) &&
		q.Filter.String() == f.Filter.String() && q.Boost() == f.Boost()
}

func (q *FilteredQuery) Hash() uint32 {
	h := hashString(hashSeed, "filtered")
	h = hashUint32(h, q.Inner.Hash())
	h = hashString(h, q.Filter.String())
	return hashFloat(h, q.Boost())
}

func (q *FilteredQuery) Weight(s Searchable) (Weight, error) {
	inner, err := q.Inner.Weight(s)
	if err != nil {
		return nil, err
	}
	return &filteredWeight{inner: inner, filter: q.Filter, boost: q.Boost()}, nil
}

type filteredWeight struct {
	inner  Weight
	filter Filter
	boost  float32
}

var _ Weight = (*filteredWeight)(nil)

func (w *filteredWeight) Value() float32 { return w.inner.Value() }

func (w *filteredWeight) SumOfSquaredWeights() float32 {
	return w.inner.SumOfSquaredWeights() * w.boost * w.boost
}

func (w *filteredWeight) Normalize(norm float32) {
	w.inner.Normalize(norm * w.boost)
}

func (w *filteredWeight) Scorer(r index.Reader) (Scorer, error) {
	inner, err := w.inner.Scorer(r)
	if err != nil || inner == nil {
		return nil, err
	}
	bits, err := w.filter.Bits(r)
	if err != nil {
		_ = inner.Close()
		return nil, err
	}
	return &filteredScorer{inner: inner, bits: bits}, nil
}

func (w *filteredWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	bits, err := w.filter.Bits(r)
	if err != nil {
		return nil, err
	}
	if !bits.Get(doc) {
		return NewExplanation(0, "doc rejected by filter"), nil
	}
	return w.inner.Explain(r, doc)
}

type filteredScorer struct {
	inner Scorer
	bits  *BitSet
}

var _ Scorer = (*filteredScorer)(nil)

func (s *filteredScorer) Next() bool {
	for s.inner.Next() {
		if s.bits.Get(s.inner.Doc()) {
			return true
		}
	}
	return false
}

func (s *filteredScorer) SkipTo(target int) bool {
	if !s.inner.SkipTo(target) {
		return false
	}
	if s.bits.Get(s.inner.Doc()) {
		return true
	}
	return s.Next()
}

func (s *filteredScorer) Doc() int { return s.inner.Doc() }

func (s *filteredScorer) Score() float32 { return s.inner.Score() }

func (s *filteredScorer) Close() error { return s.inner.Close() }
