package search

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filteredDocs(t *testing.T, s *Searcher, q Query, f Filter) []int {
	t.Helper()
	top, err := s.Search(q, &SearchOptions{NumDocs: 20, Filter: f})
	require.NoError(t, err)
	docs := make([]int, 0, len(top.Hits))
	for _, h := range top.Hits {
		docs = append(docs, h.Doc)
	}
	sort.Ints(docs)
	return docs
}

func TestRangeFilter(t *testing.T) {
	s := newTestSearcher(t)
	q := NewMatchAllQuery()

	f := NewRangeFilter("date", "20051006", "20051010", true, true)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, filteredDocs(t, s, q, f))

	f = NewRangeFilter("date", "20051006", "20051010", false, false)
	assert.Equal(t, []int{7, 8, 9}, filteredDocs(t, s, q, f))

	f = NewRangeFilter("date", "20051014", "", true, false)
	assert.Equal(t, []int{14, 15, 16, 17}, filteredDocs(t, s, q, f))

	f = NewRangeFilter("date", "", "20051003", false, true)
	assert.Equal(t, []int{0, 1, 2, 3}, filteredDocs(t, s, q, f))
}

func TestQueryFilter(t *testing.T) {
	s := newTestSearcher(t)

	f := NewQueryFilter(NewTermQuery("field", "word3"))
	assert.Equal(t, []int{2, 3, 6, 8, 11, 14},
		filteredDocs(t, s, NewTermQuery("field", "word1"), f))

	f = NewQueryFilter(NewTermQuery("field", "word2"))
	assert.Equal(t, []int{8},
		filteredDocs(t, s, NewTermQuery("field", "word3"), f))
}

func TestCachingFilterMemoizesPerReader(t *testing.T) {
	s := newTestSearcher(t)
	f := NewCachingFilter(NewRangeFilter("date", "20051006", "20051010", true, true))

	bits1, err := f.Bits(s.Reader())
	require.NoError(t, err)
	bits2, err := f.Bits(s.Reader())
	require.NoError(t, err)
	assert.Same(t, bits1, bits2)

	other := newSearchIndex(t).Reader()
	defer other.Close()
	bits3, err := f.Bits(other)
	require.NoError(t, err)
	assert.NotSame(t, bits1, bits3)
	assert.Equal(t, bits1.Count(), bits3.Count())
}

func TestConstantScoreQuery(t *testing.T) {
	s := newTestSearcher(t)

	q := NewConstantScoreQuery(NewRangeFilter("date", "20051006", "20051010", true, true))
	top, err := s.Search(q, &SearchOptions{NumDocs: 20})
	require.NoError(t, err)
	require.Len(t, top.Hits, 5)
	docs := make([]int, 0, 5)
	for _, h := range top.Hits {
		docs = append(docs, h.Doc)
		assert.Equal(t, top.Hits[0].Score, h.Score)
	}
	sort.Ints(docs)
	assert.Equal(t, []int{6, 7, 8, 9, 10}, docs)
}

func TestFilteredQuery(t *testing.T) {
	s := newTestSearcher(t)

	fq := NewFilteredQuery(
		NewTermQuery("field", "word3"),
		NewRangeFilter("date", "20051006", "20051010", true, true),
	)
	checkHits(t, s, fq, []int{6, 8}, 6)
}

func TestPostFilter(t *testing.T) {
	s := newTestSearcher(t)

	even := func(doc int, score float32) bool { return doc%2 == 0 }
	top, err := s.Search(NewTermQuery("field", "word1"), &SearchOptions{NumDocs: 20, PostFilter: even})
	require.NoError(t, err)
	assert.Equal(t, 9, top.TotalHits)
	for _, h := range top.Hits {
		assert.Zero(t, h.Doc%2)
	}
}

func TestBitSet(t *testing.T) {
	b := NewBitSet(130)
	for _, i := range []int{0, 1, 63, 64, 65, 129} {
		b.Set(i)
	}
	assert.True(t, b.Get(64))
	assert.False(t, b.Get(2))
	assert.Equal(t, 6, b.Count())

	assert.Equal(t, 0, b.NextSetBit(0))
	assert.Equal(t, 63, b.NextSetBit(2))
	assert.Equal(t, 129, b.NextSetBit(66))
	assert.Equal(t, -1, b.NextSetBit(130))
}
