package search

import (
	"github.com/ferret-go/ferret/internal/index"
)

// MatchAllQuery matches every live document with a flat score.
type MatchAllQuery struct {
	boostable
}

var _ Query = (*MatchAllQuery)(nil)

// NewMatchAllQuery creates a query matching all documents.
func NewMatchAllQuery() *MatchAllQuery {
	return &MatchAllQuery{}
}

func (q *MatchAllQuery) String(string) string {
	return "*" + q.boostSuffix()
}

func (q *MatchAllQuery) Rewrite(index.Reader) (Query, error) { return q, nil }

func (q *MatchAllQuery) Equal(o Query) bool {
	m, ok := o.(*MatchAllQuery)
	return ok && q.Boost() == m.Boost()
}

func (q *MatchAllQuery) Hash() uint32 {
	return hashFloat(hashString(hashSeed, "match_all"), q.Boost())
}

func (q *MatchAllQuery) Weight(s Searchable) (Weight, error) {
	return &matchAllWeight{boost: q.Boost()}, nil
}

type matchAllWeight struct {
	boost float32
	value float32
}

var _ Weight = (*matchAllWeight)(nil)

func (w *matchAllWeight) Value() float32 { return w.value }

func (w *matchAllWeight) SumOfSquaredWeights() float32 {
	return w.boost * w.boost
}

func (w *matchAllWeight) Normalize(norm float32) {
	w.value = w.boost * norm
}

func (w *matchAllWeight) Scorer(r index.Reader) (Scorer, error) {
	return newMatchAllScorer(r, w.value), nil
}

func (w *matchAllWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	if doc < 0 || doc >= r.MaxDoc() || r.IsDeleted(doc) {
		return NewExplanation(0, "no match"), nil
	}
	return NewExplanation(w.value, "match_all"), nil
}

// matchAllScorer iterates every live document in the reader.
type matchAllScorer struct {
	reader index.Reader
	maxDoc int
	score  float32
	doc    int
}

var _ Scorer = (*matchAllScorer)(nil)

func newMatchAllScorer(r index.Reader, score float32) *matchAllScorer {
	return &matchAllScorer{reader: r, maxDoc: r.MaxDoc(), score: score, doc: -1}
}

func (s *matchAllScorer) Next() bool {
	for s.doc++; s.doc < s.maxDoc; s.doc++ {
		if !s.reader.IsDeleted(s.doc) {
			return true
		}
	}
	return false
}

func (s *matchAllScorer) SkipTo(target int) bool {
	if s.doc >= target {
		return s.doc < s.maxDoc
	}
	s.doc = target - 1
	return s.Next()
}

func (s *matchAllScorer) Doc() int { return s.doc }

func (s *matchAllScorer) Score() float32 { return s.score }

func (s *matchAllScorer) Close() error { return nil }
