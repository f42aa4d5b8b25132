package search

import (
	"strconv"

	"github.com/ferret-go/ferret/internal/index"
)

// RangeQuery matches documents whose field contains a term inside a
// lexicographic range. An empty bound is unbounded on that side.
type RangeQuery struct {
	boostable
	Field        string
	Lower, Upper string
	IncludeLower bool
	IncludeUpper bool
}

var _ Query = (*RangeQuery)(nil)

// NewRangeQuery creates a lexicographic range query.
func NewRangeQuery(field, lower, upper string, includeLower, includeUpper bool) *RangeQuery {
	return &RangeQuery{
		Field:        field,
		Lower:        lower,
		Upper:        upper,
		IncludeLower: includeLower,
		IncludeUpper: includeUpper,
	}
}

// rangeString renders the shared range syntax: "[lo..hi]" with curly
// braces on exclusive bounds, or comparison operators when one bound
// is missing.
func rangeString(field, defaultField, lower, upper string, includeLower, includeUpper bool) string {
	prefix := fieldPrefix(field, defaultField)
	switch {
	case lower != "" && upper != "":
		open, close := "{", "}"
		if includeLower {
			open = "["
		}
		if includeUpper {
			close = "]"
		}
		return prefix + open + lower + ".." + upper + close
	case lower != "":
		op := ">"
		if includeLower {
			op = ">="
		}
		return prefix + op + lower
	case upper != "":
		op := "<"
		if includeUpper {
			op = "<="
		}
		return prefix + op + upper
	default:
		return prefix + "[..]"
	}
}

func (q *RangeQuery) String(defaultField string) string {
	return rangeString(q.Field, defaultField, q.Lower, q.Upper, q.IncludeLower, q.IncludeUpper) + q.boostSuffix()
}

// forEachRangeTerm walks the field's term dictionary over the
// lexicographic range, calling fn for each term inside it.
func forEachRangeTerm(r index.Reader, field, lower, upper string, includeLower, includeUpper bool, fn func(index.Term)) {
	e := r.Terms(field)
	if e == nil {
		return
	}
	defer e.Close()

	var ok bool
	if lower != "" {
		ok = e.SkipTo(lower)
	} else {
		ok = e.Next()
	}
	for ; ok; ok = e.Next() {
		t := e.Term()
		if !includeLower && lower != "" && t.Text == lower {
			continue
		}
		if upper != "" {
			if t.Text > upper || (!includeUpper && t.Text == upper) {
				break
			}
		}
		fn(t)
	}
}

func (q *RangeQuery) Rewrite(r index.Reader) (Query, error) {
	mtq := NewMultiTermQuery(q.Field, defaultMaxTerms, 0)
	forEachRangeTerm(r, q.Field, q.Lower, q.Upper, q.IncludeLower, q.IncludeUpper, func(t index.Term) {
		mtq.AddTerm(t.Text, 1.0)
	})
	return collapseMultiTerm(mtq, q.Boost()), nil
}

func (q *RangeQuery) Equal(o Query) bool {
	b, ok := o.(*RangeQuery)
	return ok && q.Field == b.Field &&
		q.Lower == b.Lower && q.Upper == b.Upper &&
		q.IncludeLower == b.IncludeLower && q.IncludeUpper == b.IncludeUpper &&
		q.Boost() == b.Boost()
}

func (q *RangeQuery) Hash() uint32 {
	h := hashString(hashSeed, "range")
	h = hashString(h, q.Field)
	h = hashString(h, q.Lower)
	h = hashString(h, q.Upper)
	if q.IncludeLower {
		h = hashInt(h, 1)
	}
	if q.IncludeUpper {
		h = hashInt(h, 2)
	}
	return hashFloat(h, q.Boost())
}

func (q *RangeQuery) Weight(s Searchable) (Weight, error) {
	return nil, errPrimitiveOnly("range query")
}

// TypedRangeQuery matches documents whose field terms parse as
// numbers falling inside a numeric range. When no present bound
// parses as a number, comparison falls back to lexicographic.
type TypedRangeQuery struct {
	boostable
	Field        string
	Lower, Upper string
	IncludeLower bool
	IncludeUpper bool
}

var _ Query = (*TypedRangeQuery)(nil)

// NewTypedRangeQuery creates a numeric range query.
func NewTypedRangeQuery(field, lower, upper string, includeLower, includeUpper bool) *TypedRangeQuery {
	return &TypedRangeQuery{
		Field:        field,
		Lower:        lower,
		Upper:        upper,
		IncludeLower: includeLower,
		IncludeUpper: includeUpper,
	}
}

func (q *TypedRangeQuery) String(defaultField string) string {
	return rangeString(q.Field, defaultField, q.Lower, q.Upper, q.IncludeLower, q.IncludeUpper) + q.boostSuffix()
}

// parseNumber parses decimal and 0x-prefixed hex numbers.
func parseNumber(s string) (float64, bool) {
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if i, err := strconv.ParseInt(s, 0, 64); err == nil {
		return float64(i), true
	}
	return 0, false
}

func (q *TypedRangeQuery) Rewrite(r index.Reader) (Query, error) {
	var (
		lowerNum, upperNum float64
		lowerOK, upperOK   bool
	)
	if q.Lower != "" {
		lowerNum, lowerOK = parseNumber(q.Lower)
	}
	if q.Upper != "" {
		upperNum, upperOK = parseNumber(q.Upper)
	}
	numeric := lowerOK || upperOK
	if !numeric {
		// No parseable bound: plain lexicographic range.
		rq := NewRangeQuery(q.Field, q.Lower, q.Upper, q.IncludeLower, q.IncludeUpper)
		rq.SetBoost(q.Boost())
		return rq.Rewrite(r)
	}

	mtq := NewMultiTermQuery(q.Field, defaultMaxTerms, 0)
	e := r.Terms(q.Field)
	if e != nil {
		defer e.Close()
		for e.Next() {
			t := e.Term()
			v, ok := parseNumber(t.Text)
			if !ok {
				continue
			}
			if lowerOK {
				if v < lowerNum || (!q.IncludeLower && v == lowerNum) {
					continue
				}
			}
			if upperOK {
				if v > upperNum || (!q.IncludeUpper && v == upperNum) {
					continue
				}
			}
			mtq.AddTerm(t.Text, 1.0)
		}
	}
	return collapseMultiTerm(mtq, q.Boost()), nil
}

func (q *TypedRangeQuery) Equal(o Query) bool {
	b, ok := o.(*TypedRangeQuery)
	return ok && q.Field == b.Field &&
		q.Lower == b.Lower && q.Upper == b.Upper &&
		q.IncludeLower == b.IncludeLower && q.IncludeUpper == b.IncludeUpper &&
		q.Boost() == b.Boost()
}

func (q *TypedRangeQuery) Hash() uint32 {
	h := hashString(hashSeed, "typed_range")
	h = hashString(h, q.Field)
	h = hashString(h, q.Lower)
	h = hashString(h, q.Upper)
	if q.IncludeLower {
		h = hashInt(h, 1)
	}
	if q.IncludeUpper {
		h = hashInt(h, 2)
	}
	return hashFloat(h, q.Boost())
}

func (q *TypedRangeQuery) Weight(s Searchable) (Weight, error) {
	return nil, errPrimitiveOnly("typed range query")
}
