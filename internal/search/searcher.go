package search

import (
	"log/slog"

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// defaultNumDocs is how many hits a search returns when the caller
// does not say.
const defaultNumDocs = 10

// PostFilter vets each scored hit; returning false drops the hit
// without counting it.
type PostFilter func(doc int, score float32) bool

// SearchOptions tune one search call. The zero value asks for the
// first ten hits with no filtering or sorting.
type SearchOptions struct {
	// FirstDoc is the rank of the first hit returned, for paging.
	FirstDoc int
	// NumDocs is the number of hits returned. Zero means the default.
	NumDocs int
	// Filter restricts matching before scoring is observed.
	Filter Filter
	// Sort replaces score ordering with a field comparator.
	Sort *Sort
	// PostFilter vets hits after scoring.
	PostFilter PostFilter
}

func (o *SearchOptions) normalized() (*SearchOptions, error) {
	out := &SearchOptions{NumDocs: defaultNumDocs}
	if o != nil {
		*out = *o
		if out.NumDocs == 0 {
			out.NumDocs = defaultNumDocs
		}
	}
	if out.FirstDoc < 0 {
		return nil, ferrors.ArgError("first_doc must not be negative", nil)
	}
	if out.NumDocs < 0 {
		return nil, ferrors.ArgError("num_docs must not be negative", nil)
	}
	return out, nil
}

// Searcher runs queries against one reader snapshot. It owns neither
// the reader nor the queries; closing the reader invalidates the
// searcher.
type Searcher struct {
	reader index.Reader
	sim    similarity.Similarity
	log    *slog.Logger
}

var _ Searchable = (*Searcher)(nil)

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithSimilarity overrides the scoring model.
func WithSimilarity(sim similarity.Similarity) SearcherOption {
	return func(s *Searcher) { s.sim = sim }
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(log *slog.Logger) SearcherOption {
	return func(s *Searcher) { s.log = log }
}

// NewSearcher creates a searcher over a reader.
func NewSearcher(r index.Reader, opts ...SearcherOption) *Searcher {
	s := &Searcher{reader: r, sim: similarity.Default(), log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reader returns the snapshot this searcher runs against.
func (s *Searcher) Reader() index.Reader { return s.reader }

func (s *Searcher) DocFreq(field, text string) int {
	return s.reader.DocFreq(field, text)
}

func (s *Searcher) MaxDoc() int { return s.reader.MaxDoc() }

func (s *Searcher) Similarity() similarity.Similarity { return s.sim }

// Document fetches a stored document by id.
func (s *Searcher) Document(doc int) (*index.Document, error) {
	return s.reader.Document(doc)
}

// Rewrite reduces a query to primitive form against this searcher's
// reader, iterating to a fixed point.
func (s *Searcher) Rewrite(q Query) (Query, error) {
	for {
		rq, err := q.Rewrite(s.reader)
		if err != nil {
			return nil, err
		}
		if rq == q || rq.Equal(q) {
			return rq, nil
		}
		q = rq
	}
}

// createWeight rewrites the query, builds its weight against this
// searcher's statistics and applies the cosine query norm.
func (s *Searcher) createWeight(q Query) (Weight, error) {
	rq, err := s.Rewrite(q)
	if err != nil {
		return nil, err
	}
	w, err := rq.Weight(s)
	if err != nil {
		return nil, err
	}
	w.Normalize(s.sim.QueryNorm(w.SumOfSquaredWeights()))
	return w, nil
}

// Search returns the top hits for the query under the given options.
func (s *Searcher) Search(q Query, opts *SearchOptions) (*TopDocs, error) {
	o, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	w, err := s.createWeight(q)
	if err != nil {
		return nil, err
	}
	sc, err := w.Scorer(s.reader)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return &TopDocs{}, nil
	}
	defer sc.Close()

	var bits *BitSet
	if o.Filter != nil {
		if bits, err = o.Filter.Bits(s.reader); err != nil {
			return nil, err
		}
	}

	var queue *hitQueue
	var acc *sortedAccumulator
	if o.Sort != nil {
		acc = newSortedAccumulator(o.Sort, s.reader)
	} else {
		queue = newHitQueue(o.FirstDoc + o.NumDocs)
	}

	var totalHits int
	var maxScore float32
	for sc.Next() {
		doc := sc.Doc()
		if bits != nil && !bits.Get(doc) {
			continue
		}
		score := sc.Score()
		if o.PostFilter != nil && !o.PostFilter(doc, score) {
			continue
		}
		totalHits++
		if score > maxScore {
			maxScore = score
		}
		if acc != nil {
			acc.Insert(Hit{Doc: doc, Score: score})
		} else {
			queue.Insert(Hit{Doc: doc, Score: score})
		}
	}

	var hits []Hit
	if acc != nil {
		hits = acc.Ordered()
	} else {
		hits = queue.Drain()
	}
	hits = page(hits, o.FirstDoc, o.NumDocs)

	s.log.Debug("search complete",
		slog.String("query", q.String("")),
		slog.Int("total_hits", totalHits),
		slog.Int("returned", len(hits)))
	return &TopDocs{TotalHits: totalHits, MaxScore: maxScore, Hits: hits}, nil
}

// page slices hits to the requested window.
func page(hits []Hit, first, n int) []Hit {
	if first >= len(hits) {
		return nil
	}
	hits = hits[first:]
	if n < len(hits) {
		hits = hits[:n]
	}
	return hits
}

// SearchEach calls fn for every matching (doc, score) pair in doc
// order, applying the filters the same way Search does.
func (s *Searcher) SearchEach(q Query, filter Filter, postFilter PostFilter, fn func(doc int, score float32)) error {
	w, err := s.createWeight(q)
	if err != nil {
		return err
	}
	sc, err := w.Scorer(s.reader)
	if err != nil || sc == nil {
		return err
	}
	defer sc.Close()

	var bits *BitSet
	if filter != nil {
		if bits, err = filter.Bits(s.reader); err != nil {
			return err
		}
	}
	for sc.Next() {
		doc := sc.Doc()
		if bits != nil && !bits.Get(doc) {
			continue
		}
		score := sc.Score()
		if postFilter != nil && !postFilter(doc, score) {
			continue
		}
		fn(doc, score)
	}
	return nil
}

// SearchUnscored fills buf with matching doc ids at or past offset, in
// ascending order, stopping when buf is full. Returns how many ids
// were written.
func (s *Searcher) SearchUnscored(q Query, buf []int, offset int) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	w, err := s.createWeight(q)
	if err != nil {
		return 0, err
	}
	sc, err := w.Scorer(s.reader)
	if err != nil || sc == nil {
		return 0, err
	}
	defer sc.Close()

	n := 0
	for ok := sc.SkipTo(offset); ok && n < len(buf); ok = sc.Next() {
		buf[n] = sc.Doc()
		n++
	}
	return n, nil
}

// Explain describes how doc would be scored by the query.
func (s *Searcher) Explain(q Query, doc int) (*Explanation, error) {
	w, err := s.createWeight(q)
	if err != nil {
		return nil, err
	}
	return w.Explain(s.reader, doc)
}
