package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhraseQueryString(t *testing.T) {
	phq := NewPhraseQuery("field")
	assert.Equal(t, `""`, phq.String("field"))
	assert.Equal(t, `field:""`, phq.String(""))

	require.NoError(t, phq.AddTerm("quick"))
	require.NoError(t, phq.AddTerm("brown"))
	require.NoError(t, phq.AddTerm("fox"))
	assert.Equal(t, `"quick brown fox"`, phq.String("field"))
	assert.Equal(t, `field:"quick brown fox"`, phq.String(""))

	phq.SetSlop(4)
	assert.Equal(t, `field:"quick brown fox"~4`, phq.String(""))

	phq.SetBoost(2)
	assert.Equal(t, `field:"quick brown fox"~4^2.0`, phq.String(""))
}

func TestPhraseQueryGapString(t *testing.T) {
	phq := NewPhraseQuery("field")
	require.NoError(t, phq.Add("quick", 1))
	require.NoError(t, phq.Add("fox", 2))
	assert.Equal(t, `"quick <> fox"`, phq.String("field"))
	assert.Equal(t, `field:"quick <> fox"`, phq.String(""))
}

func TestPhraseQuerySamePositionString(t *testing.T) {
	phq := NewPhraseQuery("field")
	require.NoError(t, phq.Add("the", 1))
	require.NoError(t, phq.Add("WORD3", 0))
	require.NoError(t, phq.Add("THE", 1))
	require.NoError(t, phq.Add("quick", 0))
	require.NoError(t, phq.Add("QUICK", 1))
	assert.Equal(t, `field:"the&WORD3 THE&quick QUICK"`, phq.String(""))
}

func TestPhraseQueryArgErrors(t *testing.T) {
	phq := NewPhraseQuery("field")
	assert.Error(t, phq.Add("quick", -1))
	assert.Error(t, phq.Append("fast"))

	_, err := phq.Weight(newTestSearcher(t))
	assert.Error(t, err)
}

func TestPhraseQuerySearch(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.AddTerm("quick"))
	require.NoError(t, phq.AddTerm("brown"))
	require.NoError(t, phq.AddTerm("fox"))
	checkHits(t, s, phq, []int{1}, 1)

	phq.SetSlop(4)
	checkHits(t, s, phq, []int{1, 16, 17}, 17)
}

func TestPhraseQueryGapSearch(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.Add("quick", 1))
	require.NoError(t, phq.Add("fox", 2))
	checkHits(t, s, phq, []int{1, 11, 14}, 14)

	phq.SetSlop(1)
	checkHits(t, s, phq, []int{1, 11, 14, 16}, 14)

	phq.SetSlop(4)
	checkHits(t, s, phq, []int{1, 11, 14, 16, 17}, 14)
}

func TestPhraseQuerySamePositionSearch(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.Add("the", 1))
	require.NoError(t, phq.Add("WORD3", 0))
	checkHits(t, s, phq, []int{8, 11, 14}, 14)

	require.NoError(t, phq.Add("THE", 1))
	require.NoError(t, phq.Add("quick", 0))
	require.NoError(t, phq.Add("QUICK", 1))
	checkHits(t, s, phq, []int{11, 14}, 14)
}

func TestPhraseQueryUnknownField(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("not_a_field")
	require.NoError(t, phq.AddTerm("the"))
	require.NoError(t, phq.AddTerm("quick"))
	checkHits(t, s, phq, nil, -1)
}

func TestPhraseQuerySingleTermRewrite(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.AddTerm("word2"))
	checkHits(t, s, phq, []int{4, 8, 1}, -1)

	q, err := s.Rewrite(phq)
	require.NoError(t, err)
	tq, ok := q.(*TermQuery)
	require.True(t, ok)
	assert.Equal(t, "word2", tq.Term.Text)
}

func TestPhraseQueryHashAndEqual(t *testing.T) {
	build := func() *PhraseQuery {
		q := NewPhraseQuery("field")
		require.NoError(t, q.Add("quick", 1))
		require.NoError(t, q.Add("brown", 2))
		require.NoError(t, q.Add("fox", 0))
		return q
	}

	q1, q2 := build(), build()
	assert.Equal(t, q1.Hash(), q2.Hash())
	assert.True(t, q1.Equal(q1))
	assert.True(t, q1.Equal(q2))

	q2.SetSlop(5)
	assert.NotEqual(t, q1.Hash(), q2.Hash())
	assert.False(t, q1.Equal(q2))

	q2 = NewPhraseQuery("field")
	require.NoError(t, q2.Add("quick", 1))
	require.NoError(t, q2.Add("brown", 1))
	require.NoError(t, q2.Add("fox", 1))
	assert.NotEqual(t, q1.Hash(), q2.Hash())
	assert.False(t, q1.Equal(q2))

	q2 = NewPhraseQuery("field")
	require.NoError(t, q2.Add("fox", 1))
	require.NoError(t, q2.Add("brown", 2))
	require.NoError(t, q2.Add("quick", 0))
	assert.NotEqual(t, q1.Hash(), q2.Hash())
	assert.False(t, q1.Equal(q2))

	q2 = NewPhraseQuery("other_field")
	require.NoError(t, q2.Add("quick", 1))
	require.NoError(t, q2.Add("brown", 2))
	require.NoError(t, q2.Add("fox", 0))
	assert.NotEqual(t, q1.Hash(), q2.Hash())
	assert.False(t, q1.Equal(q2))
}

func TestMultiPhraseQuerySearch(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.AddTerm("quick"))
	require.NoError(t, phq.Append("fast"))
	assert.Equal(t, `"quick|fast"`, phq.String("field"))
	assert.Equal(t, `field:"quick|fast"`, phq.String(""))
	checkHits(t, s, phq, []int{1, 8, 11, 14, 16, 17}, -1)

	require.NoError(t, phq.AddTerm("brown"))
	require.NoError(t, phq.Append("red"))
	require.NoError(t, phq.Append("hairy"))
	require.NoError(t, phq.AddTerm("fox"))
	assert.Equal(t, `"quick|fast brown|red|hairy fox"`, phq.String("field"))
	assert.Equal(t, `field:"quick|fast brown|red|hairy fox"`, phq.String(""))
	checkHits(t, s, phq, []int{1, 8, 11, 14}, -1)

	phq.SetSlop(4)
	assert.Equal(t, `field:"quick|fast brown|red|hairy fox"~4`, phq.String(""))
	checkHits(t, s, phq, []int{1, 8, 11, 14, 16, 17}, -1)
}

func TestMultiPhraseQueryUnknownField(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("not_a_field")
	require.NoError(t, phq.AddTerm("the"))
	require.NoError(t, phq.AddTerm("quick"))
	require.NoError(t, phq.Append("THE"))
	checkHits(t, s, phq, nil, -1)
}

func TestMultiPhraseQuerySingleSlotRewrite(t *testing.T) {
	s := newTestSearcher(t)

	phq := NewPhraseQuery("field")
	require.NoError(t, phq.AddTerm("word2"))
	require.NoError(t, phq.Append("word3"))
	checkHits(t, s, phq, []int{1, 2, 3, 4, 6, 8, 11, 14}, -1)

	q, err := phq.Rewrite(s.Reader())
	require.NoError(t, err)
	bq, ok := q.(*BooleanQuery)
	require.True(t, ok)
	require.Len(t, bq.Clauses, 2)
	for _, c := range bq.Clauses {
		assert.Equal(t, Should, c.Occur)
	}
}

func TestMultiPhraseQueryHashAndEqual(t *testing.T) {
	build := func() *PhraseQuery {
		q := NewPhraseQuery("field")
		require.NoError(t, q.AddTerm("quick"))
		require.NoError(t, q.Append("fast"))
		require.NoError(t, q.AddTerm("fox"))
		return q
	}

	q1, q2 := build(), build()
	assert.Equal(t, q1.Hash(), q2.Hash())
	assert.True(t, q1.Equal(q2))

	q2 = NewPhraseQuery("field")
	require.NoError(t, q2.AddTerm("quick"))
	require.NoError(t, q2.AddTerm("fox"))
	assert.NotEqual(t, q1.Hash(), q2.Hash())
	assert.False(t, q1.Equal(q2))
}
