package search

import (
	"sort"
	"strings"

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/index"
)

// defaultMaxTerms caps how many terms an enumerating rewrite keeps.
const defaultMaxTerms = 512

// TermBoost is one weighted alternative inside a MultiTermQuery.
type TermBoost struct {
	Text  string
	Boost float32
}

// MultiTermQuery scores a disjunction of weighted terms on one field.
// The term set is capped at MaxTerms, keeping the highest boosts;
// terms below MinBoost are rejected outright.
type MultiTermQuery struct {
	boostable
	Field    string
	MaxTerms int
	MinBoost float32
	Terms    []TermBoost
}

var _ Query = (*MultiTermQuery)(nil)

// NewMultiTermQuery creates an empty multi-term query.
func NewMultiTermQuery(field string, maxTerms int, minBoost float32) *MultiTermQuery {
	if maxTerms <= 0 {
		maxTerms = defaultMaxTerms
	}
	return &MultiTermQuery{Field: field, MaxTerms: maxTerms, MinBoost: minBoost}
}

// AddTerm adds a weighted term alternative. Terms below MinBoost are
// dropped; when the cap is exceeded the weakest term is evicted.
func (q *MultiTermQuery) AddTerm(text string, boost float32) *MultiTermQuery {
	if boost < q.MinBoost {
		return q
	}
	q.Terms = append(q.Terms, TermBoost{Text: text, Boost: boost})
	if len(q.Terms) > q.MaxTerms {
		weakest := 0
		for i, t := range q.Terms {
			if t.Boost < q.Terms[weakest].Boost {
				weakest = i
			}
		}
		q.Terms = append(q.Terms[:weakest], q.Terms[weakest+1:]...)
	}
	return q
}

// sortedTerms returns the terms ordered by boost descending, text
// ascending, the order used by the printed form.
func (q *MultiTermQuery) sortedTerms() []TermBoost {
	terms := make([]TermBoost, len(q.Terms))
	copy(terms, q.Terms)
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Boost != terms[j].Boost {
			return terms[i].Boost > terms[j].Boost
		}
		return terms[i].Text < terms[j].Text
	})
	return terms
}

func (q *MultiTermQuery) String(defaultField string) string {
	var sb strings.Builder
	sb.WriteString(fieldPrefix(q.Field, defaultField))
	sb.WriteString(`"`)
	for i, t := range q.sortedTerms() {
		if i > 0 {
			sb.WriteString("|")
		}
		sb.WriteString(t.Text)
		if t.Boost != 1.0 {
			sb.WriteString("^")
			sb.WriteString(formatScore(t.Boost))
		}
	}
	sb.WriteString(`"`)
	sb.WriteString(q.boostSuffix())
	return sb.String()
}

func (q *MultiTermQuery) Rewrite(index.Reader) (Query, error) {
	return q, nil
}

func (q *MultiTermQuery) Equal(o Query) bool {
	m, ok := o.(*MultiTermQuery)
	if !ok || q.Field != m.Field || q.Boost() != m.Boost() || len(q.Terms) != len(m.Terms) {
		return false
	}
	a, b := q.sortedTerms(), m.sortedTerms()
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (q *MultiTermQuery) Hash() uint32 {
	h := hashString(hashSeed, "multi_term")
	h = hashString(h, q.Field)
	for _, t := range q.sortedTerms() {
		h = hashString(h, t.Text)
		h = hashFloat(h, t.Boost)
	}
	return hashFloat(h, q.Boost())
}

// Weight delegates to a coord-disabled SHOULD boolean over the term
// alternatives, so each alternative carries its own boost.
func (q *MultiTermQuery) Weight(s Searchable) (Weight, error) {
	bq := NewBooleanQuery(true)
	for _, t := range q.Terms {
		tq := NewTermQuery(q.Field, t.Text)
		tq.SetBoost(t.Boost)
		bq.Add(tq, Should)
	}
	bq.SetBoost(q.Boost())
	return bq.Weight(s)
}

// collapseMultiTerm reduces an enumerated term set to its simplest
// query form: nothing matches, a single term, or the multi-term
// disjunction itself.
func collapseMultiTerm(mtq *MultiTermQuery, boost float32) Query {
	switch len(mtq.Terms) {
	case 0:
		bq := NewBooleanQuery(false)
		bq.SetBoost(boost)
		return bq
	case 1:
		tq := NewTermQuery(mtq.Field, mtq.Terms[0].Text)
		tq.SetBoost(boost * mtq.Terms[0].Boost)
		return tq
	default:
		mtq.SetBoost(boost)
		return mtq
	}
}

// errPrimitiveOnly reports a weight request against a query that must
// be rewritten into primitive form first.
func errPrimitiveOnly(kind string) error {
	return ferrors.StateError(kind+" must be rewritten before weighting", nil)
}
