package search

import (
	"fmt"

	"github.com/ferret-go/ferret/internal/index"
)

// ConstantScoreQuery matches the documents admitted by a filter, all
// with the same score.
type ConstantScoreQuery struct {
	boostable
	Filter Filter
}

var _ Query = (*ConstantScoreQuery)(nil)

// NewConstantScoreQuery creates a constant-score query over a filter.
func NewConstantScoreQuery(f Filter) *ConstantScoreQuery {
	return &ConstantScoreQuery{Filter: f}
}

func (q *ConstantScoreQuery) String(string) string {
	return fmt.Sprintf("ConstantScore(%s)%s", q.Filter, q.boostSuffix())
}

func (q *ConstantScoreQuery) Rewrite(index.Reader) (Query, error) { return q, nil }

// Equal compares filters by their printed form; filters with the same
// rendering admit the same documents.
func (q *ConstantScoreQuery) Equal(o Query) bool {
	c, ok := o.(*ConstantScoreQuery)
	return ok && q.Filter.String() == c.Filter.String() && q.Boost() == c.Boost()
}

func (q *ConstantScoreQuery) Hash() uint32 {
	h := hashString(hashSeed, "constant_score")
	h = hashString(h, q.Filter.String())
	return hashFloat(h, q.Boost())
}

func (q *ConstantScoreQuery) Weight(Searchable) (Weight, error) {
	return &constantWeight{filter: q.Filter, boost: q.Boost()}, nil
}

type constantWeight struct {
	filter Filter
	boost  float32
	value  float32
}

var _ Weight = (*constantWeight)(nil)

func (w *constantWeight) Value() float32 { return w.value }

func (w *constantWeight) SumOfSquaredWeights() float32 {
	return w.boost * w.boost
}

func (w *constantWeight) Normalize(norm float32) {
	w.value = w.boost * norm
}

func (w *constantWeight) Scorer(r index.Reader) (Scorer, error) {
	bits, err := w.filter.Bits(r)
	if err != nil {
		return nil, err
	}
	return &constantScorer{bits: bits, score: w.value, doc: -1}, nil
}

func (w *constantWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	bits, err := w.filter.Bits(r)
	if err != nil {
		return nil, err
	}
	if !bits.Get(doc) {
		return NewExplanation(0, "no match"), nil
	}
	return NewExplanation(w.value, fmt.Sprintf("constant(%s)", w.filter)), nil
}

type constantScorer struct {
	bits  *BitSet
	score float32
	doc   int
}

var _ Scorer = (*constantScorer)(nil)

func (s *constantScorer) Next() bool {
	s.doc = s.bits.NextSetBit(s.doc + 1)
	return s.doc >= 0
}

func (s *constantScorer) SkipTo(target int) bool {
	if s.doc >= target {
		return s.doc >= 0
	}
	s.doc = s.bits.NextSetBit(target)
	return s.doc >= 0
}

func (s *constantScorer) Doc() int { return s.doc }

func (s *constantScorer) Score() float32 { return s.score }

func (s *constantScorer) Close() error { return nil }
