package search

import (
	"strings"

	"github.com/ferret-go/ferret/internal/index"
)

// PrefixQuery matches documents containing any term starting with the
// prefix.
type PrefixQuery struct {
	boostable
	Field  string
	Prefix string
}

var _ Query = (*PrefixQuery)(nil)

// NewPrefixQuery creates a prefix query.
func NewPrefixQuery(field, prefix string) *PrefixQuery {
	return &PrefixQuery{Field: field, Prefix: prefix}
}

func (q *PrefixQuery) String(defaultField string) string {
	return fieldPrefix(q.Field, defaultField) + q.Prefix + "*" + q.boostSuffix()
}

func (q *PrefixQuery) Rewrite(r index.Reader) (Query, error) {
	mtq := NewMultiTermQuery(q.Field, defaultMaxTerms, 0)
	if e := r.Terms(q.Field); e != nil {
		defer e.Close()
		for ok := e.SkipTo(q.Prefix); ok; ok = e.Next() {
			text := e.Term().Text
			if !strings.HasPrefix(text, q.Prefix) {
				break
			}
			mtq.AddTerm(text, 1.0)
		}
	}
	return collapseMultiTerm(mtq, q.Boost()), nil
}

func (q *PrefixQuery) Equal(o Query) bool {
	p, ok := o.(*PrefixQuery)
	return ok && q.Field == p.Field && q.Prefix == p.Prefix && q.Boost() == p.Boost()
}

func (q *PrefixQuery) Hash() uint32 {
	h := hashString(hashSeed, "prefix")
	h = hashString(h, q.Field)
	h = hashString(h, q.Prefix)
	return hashFloat(h, q.Boost())
}

func (q *PrefixQuery) Weight(Searchable) (Weight, error) {
	return nil, errPrimitiveOnly("prefix query")
}
