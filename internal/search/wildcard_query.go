package search

import (
	"strings"

	"github.com/ferret-go/ferret/internal/index"
)

// WildcardQuery matches documents containing a term matching a glob
// pattern: '*' matches any run of characters including the empty run,
// '?' matches exactly one character. An empty pattern matches nothing.
type WildcardQuery struct {
	boostable
	Field   string
	Pattern string
}

var _ Query = (*WildcardQuery)(nil)

// NewWildcardQuery creates a wildcard query.
func NewWildcardQuery(field, pattern string) *WildcardQuery {
	return &WildcardQuery{Field: field, Pattern: pattern}
}

func (q *WildcardQuery) String(defaultField string) string {
	return fieldPrefix(q.Field, defaultField) + q.Pattern + q.boostSuffix()
}

func (q *WildcardQuery) Rewrite(r index.Reader) (Query, error) {
	mtq := NewMultiTermQuery(q.Field, defaultMaxTerms, 0)
	if q.Pattern != "" {
		if e := r.Terms(q.Field); e != nil {
			defer e.Close()
			// Seek to the literal prefix before the first wildcard to
			// skip the bulk of the dictionary.
			prefix := q.Pattern
			if i := strings.IndexAny(q.Pattern, "*?"); i >= 0 {
				prefix = q.Pattern[:i]
			}
			for ok := e.SkipTo(prefix); ok; ok = e.Next() {
				text := e.Term().Text
				if !strings.HasPrefix(text, prefix) {
					break
				}
				if WildcardMatch(q.Pattern, text) {
					mtq.AddTerm(text, 1.0)
				}
			}
		}
	}
	return collapseMultiTerm(mtq, q.Boost()), nil
}

func (q *WildcardQuery) Equal(o Query) bool {
	w, ok := o.(*WildcardQuery)
	return ok && q.Field == w.Field && q.Pattern == w.Pattern && q.Boost() == w.Boost()
}

func (q *WildcardQuery) Hash() uint32 {
	h := hashString(hashSeed, "wildcard")
	h = hashString(h, q.Field)
	h = hashString(h, q.Pattern)
	return hashFloat(h, q.Boost())
}

func (q *WildcardQuery) Weight(Searchable) (Weight, error) {
	return nil, errPrimitiveOnly("wildcard query")
}

// WildcardMatch reports whether s matches the glob pattern. Uses the
// two-pointer scan with backtracking to the most recent '*'.
func WildcardMatch(pattern, s string) bool {
	p, i := 0, 0
	star, mark := -1, 0
	for i < len(s) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == s[i]):
			p++
			i++
		case p < len(pattern) && pattern[p] == '*':
			star = p
			mark = i
			p++
		case star >= 0:
			p = star + 1
			mark++
			i = mark
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}
