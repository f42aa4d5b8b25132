package search

import (
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/index"
	"github.com/ferret-go/ferret/internal/similarity"
)

// MultiSearcher searches several sub-searchers as one corpus. Document
// ids are offset per sub-searcher so the merged result space is dense,
// and idf is computed from the summed corpus statistics so scores are
// comparable across shards.
type MultiSearcher struct {
	subs    []*Searcher
	offsets []int
	maxDoc  int
	sim     similarity.Similarity
	log     *slog.Logger
}

var _ Searchable = (*MultiSearcher)(nil)

// NewMultiSearcher combines sub-searchers into one. The scoring model
// of the first sub-searcher is used for the merged statistics.
func NewMultiSearcher(subs ...*Searcher) (*MultiSearcher, error) {
	if len(subs) == 0 {
		return nil, ferrors.ArgError("at least one sub-searcher is required", nil)
	}
	offsets := make([]int, len(subs))
	total := 0
	for i, sub := range subs {
		offsets[i] = total
		total += sub.MaxDoc()
	}
	return &MultiSearcher{
		subs:    subs,
		offsets: offsets,
		maxDoc:  total,
		sim:     subs[0].Similarity(),
		log:     slog.Default(),
	}, nil
}

func (m *MultiSearcher) DocFreq(field, text string) int {
	total := 0
	for _, sub := range m.subs {
		total += sub.DocFreq(field, text)
	}
	return total
}

func (m *MultiSearcher) MaxDoc() int { return m.maxDoc }

func (m *MultiSearcher) Similarity() similarity.Similarity { return m.sim }

// subFor locates the sub-searcher owning a merged doc id.
func (m *MultiSearcher) subFor(doc int) (int, error) {
	if doc < 0 || doc >= m.maxDoc {
		return 0, ferrors.New(ferrors.ErrCodeInvalidDoc, "document id out of range", nil)
	}
	i := sort.Search(len(m.offsets), func(i int) bool { return m.offsets[i] > doc }) - 1
	return i, nil
}

// Document fetches a stored document by merged id.
func (m *MultiSearcher) Document(doc int) (*index.Document, error) {
	i, err := m.subFor(doc)
	if err != nil {
		return nil, err
	}
	return m.subs[i].Document(doc - m.offsets[i])
}

// Rewrite rewrites the query against every sub-searcher in parallel
// and combines the results into one query. Rewriting only reads the
// per-shard term dictionaries, so the fan-out is safe.
func (m *MultiSearcher) Rewrite(q Query) (Query, error) {
	rewritten := make([]Query, len(m.subs))
	var g errgroup.Group
	for i, sub := range m.subs {
		g.Go(func() error {
			rq, err := sub.Rewrite(q)
			if err != nil {
				return err
			}
			rewritten[i] = rq
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return CombineQueries(rewritten), nil
}

// CombineQueries merges per-shard rewrites of one query. Identical
// rewrites collapse to a single query; divergent rewrites become a
// disjunction of the distinct forms.
func CombineQueries(queries []Query) Query {
	if len(queries) == 0 {
		return NewBooleanQuery(false)
	}
	distinct := queries[:1]
	for _, q := range queries[1:] {
		seen := false
		for _, d := range distinct {
			if q.Equal(d) {
				seen = true
				break
			}
		}
		if !seen {
			distinct = append(distinct, q)
		}
	}
	if len(distinct) == 1 {
		return distinct[0]
	}
	bq := NewBooleanQuery(true)
	for _, q := range distinct {
		bq.Add(q, Should)
	}
	return bq
}

// createWeight builds and normalizes a weight against the merged
// statistics, so every shard scores with the same idf and query norm.
func (m *MultiSearcher) createWeight(q Query) (Weight, error) {
	rq, err := m.Rewrite(q)
	if err != nil {
		return nil, err
	}
	w, err := rq.Weight(m)
	if err != nil {
		return nil, err
	}
	w.Normalize(m.sim.QueryNorm(w.SumOfSquaredWeights()))
	return w, nil
}

// Search runs the query on every sub-searcher and merges the top hits.
func (m *MultiSearcher) Search(q Query, opts *SearchOptions) (*TopDocs, error) {
	o, err := opts.normalized()
	if err != nil {
		return nil, err
	}
	w, err := m.createWeight(q)
	if err != nil {
		return nil, err
	}

	var queue *hitQueue
	var sorted []Hit
	if o.Sort == nil {
		queue = newHitQueue(o.FirstDoc + o.NumDocs)
	}

	var totalHits int
	var maxScore float32
	for i, sub := range m.subs {
		off := m.offsets[i]
		sc, err := w.Scorer(sub.Reader())
		if err != nil {
			return nil, err
		}
		if sc == nil {
			continue
		}
		var bits *BitSet
		if o.Filter != nil {
			if bits, err = o.Filter.Bits(sub.Reader()); err != nil {
				_ = sc.Close()
				return nil, err
			}
		}
		var acc *sortedAccumulator
		if o.Sort != nil {
			acc = newSortedAccumulator(o.Sort, sub.Reader())
		}
		for sc.Next() {
			doc := sc.Doc()
			if bits != nil && !bits.Get(doc) {
				continue
			}
			score := sc.Score()
			if o.PostFilter != nil && !o.PostFilter(doc+off, score) {
				continue
			}
			totalHits++
			if score > maxScore {
				maxScore = score
			}
			if acc != nil {
				acc.Insert(Hit{Doc: doc, Score: score})
			} else {
				queue.Insert(Hit{Doc: doc + off, Score: score})
			}
		}
		if err := sc.Close(); err != nil {
			return nil, err
		}
		if acc != nil {
			for _, h := range acc.Ordered() {
				h.Doc += off
				sorted = append(sorted, h)
			}
		}
	}

	var hits []Hit
	if o.Sort != nil {
		hits = mergeSorted(m, o.Sort, sorted)
	} else {
		hits = queue.Drain()
	}
	hits = page(hits, o.FirstDoc, o.NumDocs)

	m.log.Debug("multi search complete",
		slog.String("query", q.String("")),
		slog.Int("shards", len(m.subs)),
		slog.Int("total_hits", totalHits))
	return &TopDocs{TotalHits: totalHits, MaxScore: maxScore, Hits: hits}, nil
}

// mergeSorted re-sorts per-shard ordered hits into one global order.
func mergeSorted(m *MultiSearcher, s *Sort, hits []Hit) []Hit {
	keys := make([]sortKey, len(hits))
	for i, h := range hits {
		sub, err := m.subFor(h.Doc)
		if err != nil {
			continue
		}
		keys[i] = s.keyFor(m.subs[sub].Reader(), h.Doc-m.offsets[sub])
	}
	idx := make([]int, len(hits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return s.compare(keys[idx[i]], keys[idx[j]], hits[idx[i]], hits[idx[j]]) < 0
	})
	out := make([]Hit, len(idx))
	for i, j := range idx {
		out[i] = hits[j]
	}
	return out
}

// SearchEach calls fn for every match across all shards with merged
// doc ids. Iteration runs shard by shard.
func (m *MultiSearcher) SearchEach(q Query, filter Filter, postFilter PostFilter, fn func(doc int, score float32)) error {
	w, err := m.createWeight(q)
	if err != nil {
		return err
	}
	for i, sub := range m.subs {
		off := m.offsets[i]
		sc, err := w.Scorer(sub.Reader())
		if err != nil {
			return err
		}
		if sc == nil {
			continue
		}
		var bits *BitSet
		if filter != nil {
			if bits, err = filter.Bits(sub.Reader()); err != nil {
				_ = sc.Close()
				return err
			}
		}
		for sc.Next() {
			doc := sc.Doc()
			if bits != nil && !bits.Get(doc) {
				continue
			}
			score := sc.Score()
			if postFilter != nil && !postFilter(doc+off, score) {
				continue
			}
			fn(doc+off, score)
		}
		if err := sc.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Explain describes how a merged doc id would be scored, using the
// merged corpus statistics.
func (m *MultiSearcher) Explain(q Query, doc int) (*Explanation, error) {
	i, err := m.subFor(doc)
	if err != nil {
		return nil, err
	}
	w, err := m.createWeight(q)
	if err != nil {
		return nil, err
	}
	return w.Explain(m.subs[i].Reader(), doc-m.offsets[i])
}
