package search

import (
	"math"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// Occur states how a boolean clause participates in matching.
type Occur int

const (
	// Should clauses are optional; matching them raises the score.
	Should Occur = iota
	// Must clauses are required.
	Must
	// MustNot clauses prune matching documents and never score.
	MustNot
)

// String returns the clause prefix used in the query's printed form.
func (o Occur) String() string {
	switch o {
	case Must:
		return "+"
	case MustNot:
		return "-"
	default:
		return ""
	}
}

// Searchable provides the corpus statistics weights are built against.
// For a MultiSearcher these are global across all sub-searchers, which
// keeps idf consistent no matter which shard a document lives in.
type Searchable interface {
	// DocFreq returns the number of documents containing the term.
	DocFreq(field, text string) int
	// MaxDoc returns one past the highest document id.
	MaxDoc() int
	// Similarity returns the scoring model in effect.
	Similarity() similarity.Similarity
}

// Query is an immutable query tree node. Concrete types provide
// equality, hashing and a printable form that round-trips for equal
// queries.
type Query interface {
	// Boost returns the query's score multiplier.
	Boost() float32
	// String renders the query, omitting the field when it equals
	// defaultField.
	String(defaultField string) string
	// Rewrite returns an equivalent query built from primitive
	// (term-level) queries. Rewriting a rewritten query is a no-op.
	Rewrite(r index.Reader) (Query, error)
	// Weight creates the per-searcher scoring state for this query.
	Weight(s Searchable) (Weight, error)
	// Equal reports structural equality including boosts.
	Equal(o Query) bool
	// Hash returns a hash consistent with Equal.
	Hash() uint32
}

// Weight is the per-(query, searcher) scoring state. The searcher
// calls SumOfSquaredWeights on the root weight, derives the cosine
// query norm, applies it via Normalize, then obtains a Scorer per
// reader.
type Weight interface {
	// Value returns the normalized query weight.
	Value() float32
	// SumOfSquaredWeights returns the squared weight contribution used
	// to compute the query norm.
	SumOfSquaredWeights() float32
	// Normalize applies the cosine query norm. Called once.
	Normalize(norm float32)
	// Scorer returns a scorer over the reader, or nil when the query
	// cannot match any document in it.
	Scorer(r index.Reader) (Scorer, error)
	// Explain describes the score the scorer would produce for doc.
	Explain(r index.Reader, doc int) (*Explanation, error)
}

// Scorer iterates (doc, score) pairs in strictly increasing doc order.
// Doc and Score are undefined before the first successful Next or
// SkipTo.
type Scorer interface {
	// Next advances to the next matching document.
	Next() bool
	// SkipTo advances to the first matching document >= target.
	SkipTo(target int) bool
	// Doc returns the current document id.
	Doc() int
	// Score returns the current document's score.
	Score() float32
	// Close releases the scorer's posting iterators.
	Close() error
}

// boostable carries the boost shared by every query type.
type boostable struct {
	boost float32
}

func (b *boostable) Boost() float32 {
	if b.boost == 0 {
		return 1.0
	}
	return b.boost
}

// SetBoost sets the query's score multiplier.
func (b *boostable) SetBoost(boost float32) {
	b.boost = boost
}

// boostSuffix renders "^boost" for non-neutral boosts.
func (b *boostable) boostSuffix() string {
	if b.Boost() == 1.0 {
		return ""
	}
	return "^" + formatScore(b.Boost())
}

// fieldPrefix renders "field:" unless field is the default.
func fieldPrefix(field, defaultField string) string {
	if field == defaultField {
		return ""
	}
	return field + ":"
}

const hashSeed uint32 = 2166136261

func hashString(h uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

func hashUint32(h, v uint32) uint32 {
	for i := 0; i < 4; i++ {
		h ^= v & 0xff
		h *= 16777619
		v >>= 8
	}
	return h
}

func hashFloat(h uint32, f float32) uint32 {
	return hashUint32(h, math.Float32bits(f))
}

func hashInt(h uint32, v int) uint32 {
	return hashUint32(h, uint32(v))
}
