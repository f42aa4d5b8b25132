package search

import (
	"strings"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// BooleanClause pairs a sub-query with its occurrence requirement.
type BooleanClause struct {
	Query Query
	Occur Occur
}

// BooleanQuery combines sub-queries with MUST, SHOULD and MUST_NOT
// semantics. A query with only MUST_NOT clauses matches the complement
// of the prohibited documents.
type BooleanQuery struct {
	boostable
	Clauses       []BooleanClause
	CoordDisabled bool
}

var _ Query = (*BooleanQuery)(nil)

// NewBooleanQuery creates an empty boolean query. An empty boolean
// matches no documents.
func NewBooleanQuery(coordDisabled bool) *BooleanQuery {
	return &BooleanQuery{CoordDisabled: coordDisabled}
}

// Add appends a clause and returns the query for chaining.
func (q *BooleanQuery) Add(sub Query, occur Occur) *BooleanQuery {
	q.Clauses = append(q.Clauses, BooleanClause{Query: sub, Occur: occur})
	return q
}

func (q *BooleanQuery) String(defaultField string) string {
	var sb strings.Builder
	needParens := q.Boost() != 1.0
	if needParens {
		sb.WriteString("(")
	}
	for i, c := range q.Clauses {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(c.Occur.String())
		sub := c.Query.String(defaultField)
		if _, isBool := c.Query.(*BooleanQuery); isBool {
			sb.WriteString("(")
			sb.WriteString(sub)
			sb.WriteString(")")
		} else {
			sb.WriteString(sub)
		}
	}
	if needParens {
		sb.WriteString(")")
		sb.WriteString(q.boostSuffix())
	}
	return sb.String()
}

func (q *BooleanQuery) Rewrite(r index.Reader) (Query, error) {
	// A one-clause boolean is just its clause, as long as neither the
	// clause polarity nor a non-neutral boost changes the semantics.
	if len(q.Clauses) == 1 && q.Clauses[0].Occur != MustNot && q.Boost() == 1.0 {
		return q.Clauses[0].Query.Rewrite(r)
	}

	changed := false
	rewritten := make([]BooleanClause, len(q.Clauses))
	for i, c := range q.Clauses {
		sub, err := c.Query.Rewrite(r)
		if err != nil {
			return nil, err
		}
		if sub != c.Query {
			changed = true
		}
		rewritten[i] = BooleanClause{Query: sub, Occur: c.Occur}
	}
	if !changed {
		return q, nil
	}
	out := &BooleanQuery{Clauses: rewritten, CoordDisabled: q.CoordDisabled}
	out.SetBoost(q.Boost())
	return out, nil
}

func (q *BooleanQuery) Equal(o Query) bool {
	b, ok := o.(*BooleanQuery)
	if !ok || len(q.Clauses) != len(b.Clauses) ||
		q.CoordDisabled != b.CoordDisabled || q.Boost() != b.Boost() {
		return false
	}
	for i, c := range q.Clauses {
		if c.Occur != b.Clauses[i].Occur || !c.Query.Equal(b.Clauses[i].Query) {
			return false
		}
	}
	return true
}

func (q *BooleanQuery) Hash() uint32 {
	h := hashString(hashSeed, "boolean")
	for _, c := range q.Clauses {
		h = hashInt(h, int(c.Occur))
		h = hashUint32(h, c.Query.Hash())
	}
	if q.CoordDisabled {
		h = hashInt(h, 1)
	}
	return hashFloat(h, q.Boost())
}

func (q *BooleanQuery) Weight(s Searchable) (Weight, error) {
	return newBooleanWeight(q, s)
}

type booleanWeight struct {
	clauses       []BooleanClause
	weights       []Weight
	sim           similarity.Similarity
	boost         float32
	coordDisabled bool
	value         float32
}

var _ Weight = (*booleanWeight)(nil)

func newBooleanWeight(q *BooleanQuery, s Searchable) (*booleanWeight, error) {
	w := &booleanWeight{
		clauses:       q.Clauses,
		sim:           s.Similarity(),
		boost:         q.Boost(),
		coordDisabled: q.CoordDisabled,
	}
	for _, c := range q.Clauses {
		sub, err := c.Query.Weight(s)
		if err != nil {
			return nil, err
		}
		w.weights = append(w.weights, sub)
	}
	return w, nil
}

func (w *booleanWeight) Value() float32 { return w.value }

func (w *booleanWeight) SumOfSquaredWeights() float32 {
	var sum float32
	for i, c := range w.clauses {
		if c.Occur == MustNot {
			continue
		}
		sum += w.weights[i].SumOfSquaredWeights()
	}
	return sum * w.boost * w.boost
}

func (w *booleanWeight) Normalize(norm float32) {
	w.value = norm * w.boost
	norm *= w.boost
	for i, c := range w.clauses {
		if c.Occur == MustNot {
			continue
		}
		w.weights[i].Normalize(norm)
	}
}

// coordFactor returns the multiplier for a doc matching n of the
// query's scoring clauses.
func (w *booleanWeight) coordFactor(n, maxCoord int) float32 {
	if w.coordDisabled {
		return 1.0
	}
	return w.sim.Coord(n, maxCoord)
}

func (w *booleanWeight) Scorer(r index.Reader) (Scorer, error) {
	var required, optional, prohibited []Scorer
	maxCoord := 0
	closeAll := func(lists ...[]Scorer) {
		for _, l := range lists {
			for _, s := range l {
				_ = s.Close()
			}
		}
	}

	for i, c := range w.clauses {
		if c.Occur != MustNot {
			maxCoord++
		}
		sub, err := w.weights[i].Scorer(r)
		if err != nil {
			closeAll(required, optional, prohibited)
			return nil, err
		}
		switch c.Occur {
		case Must:
			if sub == nil {
				closeAll(required, optional, prohibited)
				return nil, nil
			}
			required = append(required, sub)
		case Should:
			if sub != nil {
				optional = append(optional, sub)
			}
		case MustNot:
			if sub != nil {
				prohibited = append(prohibited, sub)
			}
		}
	}

	coord := make([]float32, maxCoord+1)
	for n := range coord {
		coord[n] = w.coordFactor(n, maxCoord)
	}

	var excl Scorer
	switch len(prohibited) {
	case 0:
	case 1:
		excl = prohibited[0]
	default:
		excl = newDisjunctionScorer(prohibited, 1, nil)
	}

	switch {
	case len(required) == 0 && len(optional) == 0:
		// Pure MUST_NOT booleans match the complement, scored flat.
		// Anything else with no live scoring clause matches nothing.
		pureNot := len(w.clauses) > 0 && countOccur(w.clauses, MustNot) == len(w.clauses)
		if !pureNot {
			return nil, nil
		}
		base := newMatchAllScorer(r, 1.0)
		if excl == nil {
			return base, nil
		}
		return newReqExclScorer(base, excl), nil

	case len(required) == 0:
		disj := newDisjunctionScorer(optional, 1, coord)
		if excl == nil {
			return disj, nil
		}
		return newReqExclScorer(disj, excl), nil

	case len(optional) == 0:
		conj := newConjunctionScorer(required, coord[len(required)])
		if excl == nil {
			return conj, nil
		}
		return newReqExclScorer(conj, excl), nil

	default:
		conj := newConjunctionScorer(required, 1.0)
		var req Scorer = conj
		if excl != nil {
			req = newReqExclScorer(conj, excl)
		}
		opt := newDisjunctionScorer(optional, 1, nil)
		return newReqOptScorer(req, opt, len(required), coord), nil
	}
}

func countOccur(clauses []BooleanClause, occur Occur) int {
	n := 0
	for _, c := range clauses {
		if c.Occur == occur {
			n++
		}
	}
	return n
}

func (w *booleanWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	sumExpl := NewExplanation(0, "sum of:")
	var sum float32
	matched := 0
	maxCoord := 0

	for i, c := range w.clauses {
		if c.Occur != MustNot {
			maxCoord++
		}
		subExpl, err := w.weights[i].Explain(r, doc)
		if err != nil {
			return nil, err
		}
		switch {
		case c.Occur == MustNot && subExpl.Value > 0:
			return NewExplanation(0, "failure to match prohibited clause"), nil
		case c.Occur == MustNot:
		case subExpl.Value > 0:
			sumExpl.AddDetail(subExpl)
			sum += subExpl.Value
			matched++
		case c.Occur == Must:
			return NewExplanation(0, "failure to match required clause"), nil
		}
	}
	sumExpl.Value = sum

	if matched == 0 {
		return NewExplanation(0, "no matching clause"), nil
	}

	coord := w.coordFactor(matched, maxCoord)
	if coord == 1.0 {
		return sumExpl, nil
	}
	result := NewExplanation(sum*coord, "product of:")
	result.AddDetail(sumExpl)
	result.AddDetail(NewExplanation(coord, "coord factor"))
	return result, nil
}
