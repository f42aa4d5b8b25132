package search

import (
	"fmt"

	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// TermQuery matches documents containing a single term.
type TermQuery struct {
	boostable
	Term index.Term
}

var _ Query = (*TermQuery)(nil)

// NewTermQuery creates a query for the term (field, text).
func NewTermQuery(field, text string) *TermQuery {
	return &TermQuery{Term: index.NewTerm(field, text)}
}

func (q *TermQuery) String(defaultField string) string {
	return fieldPrefix(q.Term.Field, defaultField) + q.Term.Text + q.boostSuffix()
}

func (q *TermQuery) Rewrite(_ index.Reader) (Query, error) {
	return q, nil
}

func (q *TermQuery) Equal(o Query) bool {
	t, ok := o.(*TermQuery)
	return ok && q.Term == t.Term && q.Boost() == t.Boost()
}

func (q *TermQuery) Hash() uint32 {
	h := hashString(hashSeed, "term")
	h = hashString(h, q.Term.Field)
	h = hashString(h, q.Term.Text)
	return hashFloat(h, q.Boost())
}

func (q *TermQuery) Weight(s Searchable) (Weight, error) {
	return newTermWeight(q.Term, q.Boost(), s), nil
}

// termWeight carries the precomputed idf and the normalized value for
// one term. It does not retain the query.
type termWeight struct {
	term        index.Term
	sim         similarity.Similarity
	boost       float32
	idf         float32
	queryWeight float32
	queryNorm   float32
	value       float32
}

var _ Weight = (*termWeight)(nil)

func newTermWeight(term index.Term, boost float32, s Searchable) *termWeight {
	sim := s.Similarity()
	return &termWeight{
		term:  term,
		sim:   sim,
		boost: boost,
		idf:   sim.IDF(s.DocFreq(term.Field, term.Text), s.MaxDoc()),
	}
}

func (w *termWeight) Value() float32 { return w.value }

func (w *termWeight) SumOfSquaredWeights() float32 {
	w.queryWeight = w.idf * w.boost
	return w.queryWeight * w.queryWeight
}

func (w *termWeight) Normalize(norm float32) {
	w.queryNorm = norm
	w.queryWeight *= norm
	w.value = w.queryWeight * w.idf
}

func (w *termWeight) Scorer(r index.Reader) (Scorer, error) {
	iter := r.TermPositions(w.term)
	if iter == nil {
		return nil, nil
	}
	return newTermScorer(iter, r.Norms(w.term.Field), w.value, w.sim), nil
}

func (w *termWeight) Explain(r index.Reader, doc int) (*Explanation, error) {
	fieldExpl := w.explainField(r, doc)
	if w.queryWeight == 1.0 {
		return fieldExpl, nil
	}

	queryExpl := NewExplanation(w.queryWeight,
		fmt.Sprintf("queryWeight(%s), product of:", w.term))
	if w.boost != 1.0 {
		queryExpl.AddDetail(NewExplanation(w.boost, "boost"))
	}
	queryExpl.AddDetail(NewExplanation(w.idf, "idf"))
	queryExpl.AddDetail(NewExplanation(w.queryNorm, "queryNorm"))

	expl := NewExplanation(queryExpl.Value*fieldExpl.Value,
		fmt.Sprintf("weight(%s in %d), product of:", w.term, doc))
	expl.AddDetail(queryExpl)
	expl.AddDetail(fieldExpl)
	return expl, nil
}

func (w *termWeight) explainField(r index.Reader, doc int) *Explanation {
	var freq int
	if pi := r.TermPositions(w.term); pi != nil {
		if pi.SkipTo(doc) && pi.Doc() == doc {
			freq = pi.Freq()
		}
		_ = pi.Close()
	}

	tf := w.sim.TF(float32(freq))
	tfExpl := NewExplanation(tf, fmt.Sprintf("tf(termFreq=%d)", freq))
	idfExpl := NewExplanation(w.idf, fmt.Sprintf("idf(docFreq=%d)", r.DocFreq(w.term.Field, w.term.Text)))

	var norm float32
	if norms := r.Norms(w.term.Field); norms != nil && doc < len(norms) {
		norm = similarity.DecodeNorm(norms[doc])
	} else {
		norm = 1.0
	}
	normExpl := NewExplanation(norm, fmt.Sprintf("fieldNorm(field=%s, doc=%d)", w.term.Field, doc))

	fieldExpl := NewExplanation(tf*w.idf*norm,
		fmt.Sprintf("fieldWeight(%s in %d), product of:", w.term, doc))
	fieldExpl.AddDetail(tfExpl)
	fieldExpl.AddDetail(idfExpl)
	fieldExpl.AddDetail(normExpl)
	return fieldExpl
}

// scoreCacheSize bounds the per-scorer table of precomputed
// tf(freq)*weight values for small frequencies.
const scoreCacheSize = 32

// termScorer scores one term's posting list.
type termScorer struct {
	iter  index.PostingIterator
	norms []byte
	sim   similarity.Similarity
	value float32
	cache [scoreCacheSize]float32
}

var _ Scorer = (*termScorer)(nil)

func newTermScorer(iter index.PostingIterator, norms []byte, value float32, sim similarity.Similarity) *termScorer {
	sc := &termScorer{iter: iter, norms: norms, sim: sim, value: value}
	for i := range sc.cache {
		sc.cache[i] = sim.TF(float32(i)) * value
	}
	return sc
}

func (sc *termScorer) Next() bool { return sc.iter.Next() }

func (sc *termScorer) SkipTo(target int) bool { return sc.iter.SkipTo(target) }

func (sc *termScorer) Doc() int { return sc.iter.Doc() }

func (sc *termScorer) Score() float32 {
	freq := sc.iter.Freq()
	var raw float32
	if freq < scoreCacheSize {
		raw = sc.cache[freq]
	} else {
		raw = sc.sim.TF(float32(freq)) * sc.value
	}
	return raw * sc.norm(sc.iter.Doc())
}

func (sc *termScorer) norm(doc int) float32 {
	if sc.norms == nil || doc >= len(sc.norms) {
		return 1.0
	}
	return similarity.DecodeNorm(sc.norms[doc])
}

func (sc *termScorer) Close() error { return sc.iter.Close() }
