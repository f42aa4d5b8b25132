package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferret-go/ferret/internal/index"
)

// newShardedSearcher builds the shared corpus split across two index
// shards and returns a multi-searcher over them.
func newShardedSearcher(t *testing.T, split int) *MultiSearcher {
	t.Helper()
	left := index.NewMemoryIndex(index.WithAnalyzer(index.DoublingAnalyzer{}))
	right := index.NewMemoryIndex(index.WithAnalyzer(index.DoublingAnalyzer{}))
	for i, d := range searchTestDocs {
		doc := index.NewDocument()
		doc.Boost = float32(i + 1)
		doc.Add("date", d.date)
		doc.Add("field", d.field)
		doc.Add("cat", d.cat)
		doc.Add("number", d.number)
		target := left
		if i >= split {
			target = right
		}
		_, err := target.AddDocument(doc)
		require.NoError(t, err)
	}
	lr, rr := left.Reader(), right.Reader()
	t.Cleanup(func() {
		lr.Close()
		rr.Close()
	})
	ms, err := NewMultiSearcher(NewSearcher(lr), NewSearcher(rr))
	require.NoError(t, err)
	return ms
}

func TestMultiSearcherStats(t *testing.T) {
	ms := newShardedSearcher(t, 9)
	single := newTestSearcher(t)

	assert.Equal(t, single.MaxDoc(), ms.MaxDoc())
	assert.Equal(t, single.DocFreq("field", "word1"), ms.DocFreq("field", "word1"))
	assert.Equal(t, single.DocFreq("field", "word2"), ms.DocFreq("field", "word2"))
}

func TestMultiSearcherMatchesSingle(t *testing.T) {
	ms := newShardedSearcher(t, 9)
	single := newTestSearcher(t)

	queries := []Query{
		NewTermQuery("field", "word2"),
		NewTermQuery("field", "word3"),
		NewBooleanQuery(false).
			Add(NewTermQuery("field", "word1"), Must).
			Add(NewTermQuery("field", "word3"), Must),
	}
	for _, q := range queries {
		want, err := single.Search(q, &SearchOptions{NumDocs: 20})
		require.NoError(t, err)
		got, err := ms.Search(q, &SearchOptions{NumDocs: 20})
		require.NoError(t, err)

		assert.Equal(t, want.TotalHits, got.TotalHits, "query %s", q.String(""))
		require.Len(t, got.Hits, len(want.Hits))
		for i := range want.Hits {
			assert.Equal(t, want.Hits[i].Doc, got.Hits[i].Doc, "query %s rank %d", q.String(""), i)
			assert.InDelta(t, want.Hits[i].Score, got.Hits[i].Score, 1e-5, "query %s rank %d", q.String(""), i)
		}
	}
}

func TestMultiSearcherPrefixRewrite(t *testing.T) {
	ms := newShardedSearcher(t, 9)
	single := newTestSearcher(t)

	// Per-shard rewrites enumerate different term sets, so scores may
	// diverge from the single-index case. The hit set must not.
	q := NewPrefixQuery("cat", "cat1/sub")
	want, err := single.Search(q, &SearchOptions{NumDocs: 20})
	require.NoError(t, err)
	got, err := ms.Search(q, &SearchOptions{NumDocs: 20})
	require.NoError(t, err)

	assert.Equal(t, want.TotalHits, got.TotalHits)
	wantDocs := make([]int, 0, len(want.Hits))
	gotDocs := make([]int, 0, len(got.Hits))
	for _, h := range want.Hits {
		wantDocs = append(wantDocs, h.Doc)
	}
	for _, h := range got.Hits {
		gotDocs = append(gotDocs, h.Doc)
	}
	assert.ElementsMatch(t, wantDocs, gotDocs)
}

func TestMultiSearcherPhrase(t *testing.T) {
	ms := newShardedSearcher(t, 9)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.AddTerm("quick"))
	require.NoError(t, phq.AddTerm("brown"))
	require.NoError(t, phq.AddTerm("fox"))
	phq.SetSlop(4)

	top, err := ms.Search(phq, &SearchOptions{NumDocs: 20})
	require.NoError(t, err)
	require.Len(t, top.Hits, 3)
	assert.Equal(t, 17, top.Hits[0].Doc)
}

func TestMultiSearcherDocument(t *testing.T) {
	ms := newShardedSearcher(t, 9)

	doc, err := ms.Document(11)
	require.NoError(t, err)
	assert.Equal(t, searchTestDocs[11].field, doc.Get("field"))

	_, err = ms.Document(99)
	assert.Error(t, err)
}

func TestMultiSearcherExplain(t *testing.T) {
	ms := newShardedSearcher(t, 9)
	q := NewTermQuery("field", "word2")

	top, err := ms.Search(q, &SearchOptions{NumDocs: 10})
	require.NoError(t, err)
	for _, h := range top.Hits {
		expl, err := ms.Explain(q, h.Doc)
		require.NoError(t, err)
		assert.InDelta(t, h.Score, expl.Value, 1e-4, "doc %d:\n%s", h.Doc, expl)
	}
}

func TestMultiSearcherSort(t *testing.T) {
	ms := newShardedSearcher(t, 9)

	top, err := ms.Search(NewTermQuery("field", "word3"),
		&SearchOptions{NumDocs: 20, Sort: NewSort(SortField{Field: "date", Reverse: true})})
	require.NoError(t, err)
	docs := make([]int, 0, len(top.Hits))
	for _, h := range top.Hits {
		docs = append(docs, h.Doc)
	}
	assert.Equal(t, []int{14, 11, 8, 6, 3, 2}, docs)
}

func TestMultiSearcherSearchEach(t *testing.T) {
	ms := newShardedSearcher(t, 9)

	var docs []int
	err := ms.SearchEach(NewTermQuery("field", "word3"), nil, nil, func(doc int, score float32) {
		docs = append(docs, doc)
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 6, 8, 11, 14}, docs)
}

func TestCombineQueries(t *testing.T) {
	a := NewTermQuery("field", "a")
	b := NewTermQuery("field", "b")

	q := CombineQueries([]Query{a, NewTermQuery("field", "a")})
	assert.True(t, q.Equal(a))

	q = CombineQueries([]Query{a, b})
	bq, ok := q.(*BooleanQuery)
	require.True(t, ok)
	require.Len(t, bq.Clauses, 2)
	for _, c := range bq.Clauses {
		assert.Equal(t, Should, c.Occur)
	}

	q = CombineQueries(nil)
	_, ok = q.(*BooleanQuery)
	assert.True(t, ok)
}

func TestNewMultiSearcherEmpty(t *testing.T) {
	_, err := NewMultiSearcher()
	assert.Error(t, err)
}
