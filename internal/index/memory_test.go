package index

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "github.com/ferret-go/ferret/internal/errors"
)

func buildIndex(t *testing.T, texts ...string) *MemoryIndex {
	t.Helper()
	idx := NewMemoryIndex()
	for _, text := range texts {
		_, err := idx.AddDocument(NewDocument().Add("field", text))
		require.NoError(t, err)
	}
	return idx
}

func collectDocs(t *testing.T, it PostingIterator) []int {
	t.Helper()
	require.NotNil(t, it)
	defer it.Close()
	var docs []int
	for it.Next() {
		docs = append(docs, it.Doc())
	}
	return docs
}

func TestAddDocumentAssignsIDs(t *testing.T) {
	idx := NewMemoryIndex()
	for i := 0; i < 3; i++ {
		id, err := idx.AddDocument(NewDocument().Add("field", "a b"))
		require.NoError(t, err)
		assert.Equal(t, i, id)
	}
	assert.Equal(t, 3, idx.MaxDoc())
	assert.Equal(t, 3, idx.NumDocs())
}

func TestAddDocumentValidation(t *testing.T) {
	idx := NewMemoryIndex()
	_, err := idx.AddDocument(nil)
	assert.Equal(t, ferrors.ErrCodeInvalidArg, ferrors.GetCode(err))

	doc := NewDocument().Add("field", "a")
	doc.Boost = 0
	_, err = idx.AddDocument(doc)
	assert.Equal(t, ferrors.ErrCodeInvalidArg, ferrors.GetCode(err))
}

func TestPostings(t *testing.T) {
	idx := buildIndex(t, "a b a", "b", "a c")
	r := idx.Reader()
	defer r.Close()

	assert.Equal(t, []int{0, 2}, collectDocs(t, r.TermPositions(NewTerm("field", "a"))))
	assert.Equal(t, []int{0, 1}, collectDocs(t, r.TermPositions(NewTerm("field", "b"))))
	assert.Nil(t, r.TermPositions(NewTerm("field", "zzz")))
	assert.Nil(t, r.TermPositions(NewTerm("nofield", "a")))

	it := r.TermPositions(NewTerm("field", "a"))
	defer it.Close()
	require.True(t, it.Next())
	assert.Equal(t, 0, it.Doc())
	assert.Equal(t, 2, it.Freq())
	assert.Equal(t, []int{0, 2}, it.Positions())
}

func TestPostingsSkipTo(t *testing.T) {
	idx := buildIndex(t, "a", "x", "a", "x", "a")
	r := idx.Reader()
	defer r.Close()

	it := r.TermPositions(NewTerm("field", "a"))
	defer it.Close()

	require.True(t, it.SkipTo(1))
	assert.Equal(t, 2, it.Doc())
	// Already at or past the target: stays put.
	require.True(t, it.SkipTo(1))
	assert.Equal(t, 2, it.Doc())
	require.True(t, it.SkipTo(3))
	assert.Equal(t, 4, it.Doc())
	assert.False(t, it.SkipTo(5))
}

func TestDocFreq(t *testing.T) {
	idx := buildIndex(t, "a b", "a", "c")
	r := idx.Reader()
	defer r.Close()

	assert.Equal(t, 2, r.DocFreq("field", "a"))
	assert.Equal(t, 1, r.DocFreq("field", "b"))
	assert.Equal(t, 0, r.DocFreq("field", "zzz"))
	assert.Equal(t, 0, r.DocFreq("nofield", "a"))
}

func TestTermEnum(t *testing.T) {
	idx := buildIndex(t, "cherry apple", "banana apple")
	r := idx.Reader()
	defer r.Close()

	e := r.Terms("field")
	require.NotNil(t, e)
	defer e.Close()

	var texts []string
	var freqs []int
	for e.Next() {
		texts = append(texts, e.Term().Text)
		freqs = append(freqs, e.DocFreq())
	}
	assert.Equal(t, []string{"apple", "banana", "cherry"}, texts)
	assert.Equal(t, []int{2, 1, 1}, freqs)

	assert.Nil(t, r.Terms("nofield"))
}

func TestTermEnumSkipTo(t *testing.T) {
	idx := buildIndex(t, "ant bee cow fox")
	r := idx.Reader()
	defer r.Close()

	e := r.Terms("field")
	defer e.Close()

	require.True(t, e.SkipTo("bee"))
	assert.Equal(t, "bee", e.Term().Text)
	require.True(t, e.SkipTo("cat"))
	assert.Equal(t, "cow", e.Term().Text)
	// Never moves backwards.
	require.True(t, e.SkipTo("app"))
	assert.Equal(t, "cow", e.Term().Text)
	assert.False(t, e.SkipTo("zebra"))
}

func TestNorms(t *testing.T) {
	idx := NewMemoryIndex()
	_, err := idx.AddDocument(NewDocument().Add("field", "a b c d"))
	require.NoError(t, err)
	boosted := NewDocument().Add("other", "a")
	boosted.Boost = 2
	_, err = idx.AddDocument(boosted)
	require.NoError(t, err)

	r := idx.Reader()
	defer r.Close()

	norms := r.Norms("field")
	require.Len(t, norms, 2)
	// Doc 0 has four terms: norm = 1/sqrt(4) = 0.5.
	assert.NotZero(t, norms[0])
	// Doc 1 has no "field": padded with zero.
	assert.Zero(t, norms[1])

	other := r.Norms("other")
	require.Len(t, other, 2)
	assert.Zero(t, other[0])
	assert.NotZero(t, other[1])

	assert.Nil(t, r.Norms("nofield"))
}

func TestSnapshotIsolation(t *testing.T) {
	idx := buildIndex(t, "a", "a")
	r := idx.Reader()
	defer r.Close()
	assert.True(t, r.IsLatest())

	_, err := idx.AddDocument(NewDocument().Add("field", "a"))
	require.NoError(t, err)

	assert.False(t, r.IsLatest())
	assert.Equal(t, 2, r.MaxDoc())
	assert.Equal(t, []int{0, 1}, collectDocs(t, r.TermPositions(NewTerm("field", "a"))))

	r2 := idx.Reader()
	defer r2.Close()
	assert.True(t, r2.IsLatest())
	assert.Equal(t, 3, r2.MaxDoc())
	assert.Equal(t, []int{0, 1, 2}, collectDocs(t, r2.TermPositions(NewTerm("field", "a"))))
}

func TestDeletions(t *testing.T) {
	idx := buildIndex(t, "a", "a", "a")
	require.NoError(t, idx.Delete(1))
	assert.Equal(t, 2, idx.NumDocs())

	r := idx.Reader()
	defer r.Close()

	assert.True(t, r.HasDeletions())
	assert.True(t, r.IsDeleted(1))
	assert.False(t, r.IsDeleted(0))
	assert.Equal(t, 3, r.MaxDoc())
	assert.Equal(t, 2, r.NumDocs())
	assert.Equal(t, []int{0, 2}, collectDocs(t, r.TermPositions(NewTerm("field", "a"))))

	it := r.TermPositions(NewTerm("field", "a"))
	defer it.Close()
	require.True(t, it.SkipTo(1))
	assert.Equal(t, 2, it.Doc())
}

func TestDeleteValidation(t *testing.T) {
	idx := buildIndex(t, "a")
	err := idx.Delete(5)
	assert.Equal(t, ferrors.ErrCodeInvalidDoc, ferrors.GetCode(err))
	// Deleting twice is a no-op.
	require.NoError(t, idx.Delete(0))
	require.NoError(t, idx.Delete(0))
	assert.Equal(t, 0, idx.NumDocs())
}

func TestDocument(t *testing.T) {
	idx := NewMemoryIndex()
	_, err := idx.AddDocument(NewDocument().Add("field", "hello").Add("cat", "cat1/"))
	require.NoError(t, err)

	r := idx.Reader()
	doc, err := r.Document(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", doc.Get("field"))
	assert.Equal(t, "cat1/", doc.Get("cat"))
	assert.True(t, doc.Has("cat"))
	assert.False(t, doc.Has("nope"))
	assert.Equal(t, "", doc.Get("nope"))

	_, err = r.Document(7)
	assert.Equal(t, ferrors.ErrCodeInvalidDoc, ferrors.GetCode(err))

	require.NoError(t, r.Close())
	_, err = r.Document(0)
	assert.True(t, stderrors.Is(err, ferrors.New(ferrors.ErrCodeReaderClosed, "", nil)))
}
