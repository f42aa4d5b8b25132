package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferret-go/ferret/internal/search"
)

func TestParseSingleTerm(t *testing.T) {
	q, err := parseQuery("word2", "field")
	require.NoError(t, err)
	tq, ok := q.(*search.TermQuery)
	require.True(t, ok)
	assert.Equal(t, "field", tq.Term.Field)
	assert.Equal(t, "word2", tq.Term.Text)
}

func TestParseFieldQualifiedTerm(t *testing.T) {
	q, err := parseQuery("cat:cat1/sub1", "field")
	require.NoError(t, err)
	tq, ok := q.(*search.TermQuery)
	require.True(t, ok)
	assert.Equal(t, "cat", tq.Term.Field)
	assert.Equal(t, "cat1/sub1", tq.Term.Text)
}

func TestParseBooleanClauses(t *testing.T) {
	q, err := parseQuery("+field:word1 -field:word3 word2", "field")
	require.NoError(t, err)
	bq, ok := q.(*search.BooleanQuery)
	require.True(t, ok)
	require.Len(t, bq.Clauses, 3)
	assert.Equal(t, search.Must, bq.Clauses[0].Occur)
	assert.Equal(t, search.MustNot, bq.Clauses[1].Occur)
	assert.Equal(t, search.Should, bq.Clauses[2].Occur)
}

func TestParsePrefixAndWildcard(t *testing.T) {
	q, err := parseQuery("cat:cat1/sub*", "field")
	require.NoError(t, err)
	pq, ok := q.(*search.PrefixQuery)
	require.True(t, ok)
	assert.Equal(t, "cat1/sub", pq.Prefix)

	q, err = parseQuery("cat:cat1*/s*sub2", "field")
	require.NoError(t, err)
	wq, ok := q.(*search.WildcardQuery)
	require.True(t, ok)
	assert.Equal(t, "cat1*/s*sub2", wq.Pattern)

	q, err = parseQuery("field:wor?", "field")
	require.NoError(t, err)
	_, ok = q.(*search.WildcardQuery)
	assert.True(t, ok)
}

func TestParseRange(t *testing.T) {
	q, err := parseQuery("date:[20051006..20051010]", "field")
	require.NoError(t, err)
	rq, ok := q.(*search.RangeQuery)
	require.True(t, ok)
	assert.Equal(t, "20051006", rq.Lower)
	assert.Equal(t, "20051010", rq.Upper)
	assert.True(t, rq.IncludeLower)
	assert.True(t, rq.IncludeUpper)
}

func TestParsePhrase(t *testing.T) {
	q, err := parseQuery(`"quick brown fox"`, "field")
	require.NoError(t, err)
	pq, ok := q.(*search.PhraseQuery)
	require.True(t, ok)
	assert.Equal(t, `"quick brown fox"`, pq.String("field"))
}

func TestParsePureProhibitedStaysBoolean(t *testing.T) {
	q, err := parseQuery("-field:word1", "field")
	require.NoError(t, err)
	bq, ok := q.(*search.BooleanQuery)
	require.True(t, ok)
	require.Len(t, bq.Clauses, 1)
	assert.Equal(t, search.MustNot, bq.Clauses[0].Occur)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"", "   ", "+", `"unterminated`, "field:"} {
		_, err := parseQuery(input, "field")
		assert.Error(t, err, "input %q", input)
	}
}
