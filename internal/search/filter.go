package search

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// Filter restricts a search to the documents whose bit is set. Bits
// are computed per reader snapshot and may be cached.
type Filter interface {
	// Bits returns the set of documents the filter admits in r.
	Bits(r index.Reader) (*BitSet, error)
	// String renders the filter for diagnostics.
	String() string
}

// QueryFilter admits the documents matched by a query, ignoring
// scores.
type QueryFilter struct {
	query Query
}

var _ Filter = (*QueryFilter)(nil)

// NewQueryFilter creates a filter from any query.
func NewQueryFilter(q Query) *QueryFilter {
	return &QueryFilter{query: q}
}

func (f *QueryFilter) String() string {
	return fmt.Sprintf("QueryFilter<%s>", f.query.String(""))
}

func (f *QueryFilter) Bits(r index.Reader) (*BitSet, error) {
	bits := NewBitSet(r.MaxDoc())

	q, err := f.query.Rewrite(r)
	if err != nil {
		return nil, err
	}
	stats := readerStats{r}
	w, err := q.Weight(stats)
	if err != nil {
		return nil, err
	}
	w.Normalize(stats.Similarity().QueryNorm(w.SumOfSquaredWeights()))
	sc, err := w.Scorer(r)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return bits, nil
	}
	defer sc.Close()
	for sc.Next() {
		bits.Set(sc.Doc())
	}
	return bits, nil
}

// RangeFilter admits documents whose field term falls in a
// lexicographic range. Either bound may be empty (unbounded).
type RangeFilter struct {
	Field        string
	Lower, Upper string
	IncludeLower bool
	IncludeUpper bool
}

var _ Filter = (*RangeFilter)(nil)

// NewRangeFilter creates a lexicographic range filter.
func NewRangeFilter(field, lower, upper string, includeLower, includeUpper bool) *RangeFilter {
	return &RangeFilter{
		Field:        field,
		Lower:        lower,
		Upper:        upper,
		IncludeLower: includeLower,
		IncludeUpper: includeUpper,
	}
}

func (f *RangeFilter) String() string {
	return fmt.Sprintf("RangeFilter<%s>", rangeString(f.Field, "", f.Lower, f.Upper, f.IncludeLower, f.IncludeUpper))
}

func (f *RangeFilter) Bits(r index.Reader) (*BitSet, error) {
	bits := NewBitSet(r.MaxDoc())
	forEachRangeTerm(r, f.Field, f.Lower, f.Upper, f.IncludeLower, f.IncludeUpper, func(t index.Term) {
		it := r.TermPositions(t)
		if it == nil {
			return
		}
		defer it.Close()
		for it.Next() {
			bits.Set(it.Doc())
		}
	})
	return bits, nil
}

// CachingFilter wraps a filter and memoizes its bit sets per reader.
// Entries are keyed by reader identity, so a new snapshot recomputes.
type CachingFilter struct {
	filter Filter
	cache  *lru.Cache[index.Reader, *BitSet]
}

var _ Filter = (*CachingFilter)(nil)

// cachedReaders bounds how many reader snapshots a caching filter
// keeps bits for.
const cachedReaders = 8

// NewCachingFilter wraps filter with an LRU of per-reader bit sets.
func NewCachingFilter(filter Filter) *CachingFilter {
	cache, _ := lru.New[index.Reader, *BitSet](cachedReaders)
	return &CachingFilter{filter: filter, cache: cache}
}

func (f *CachingFilter) String() string {
	return fmt.Sprintf("CachingFilter<%s>", f.filter)
}

func (f *CachingFilter) Bits(r index.Reader) (*BitSet, error) {
	if bits, ok := f.cache.Get(r); ok {
		return bits, nil
	}
	bits, err := f.filter.Bits(r)
	if err != nil {
		return nil, err
	}
	f.cache.Add(r, bits)
	return bits, nil
}

// readerStats adapts a single reader to the Searchable statistics
// interface for weights created outside a Searcher.
type readerStats struct {
	r index.Reader
}

func (s readerStats) DocFreq(field, text string) int {
	return s.r.DocFreq(field, text)
}

func (s readerStats) MaxDoc() int { return s.r.MaxDoc() }

func (s readerStats) Similarity() similarity.Similarity { return similarity.Default() }
