package index

import (
	"sort"
	"sync"

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/similarity"
)

// MemoryIndex is an in-memory inverted index. Writes are serialized by
// an internal mutex; Reader returns a point-in-time snapshot that can
// be searched without locking while writes continue.
type MemoryIndex struct {
	mu         sync.RWMutex
	analyzer   Analyzer
	sim        similarity.Similarity
	fields     map[string]*fieldData
	docs       []*Document
	deleted    map[int]bool
	numDeleted int
	gen        uint64
}

type fieldData struct {
	postings map[string][]posting
	norms    []byte
}

type posting struct {
	doc       int
	positions []int
}

// MemoryIndexOption configures a MemoryIndex.
type MemoryIndexOption func(*MemoryIndex)

// WithAnalyzer sets the analyzer used to tokenize field values.
func WithAnalyzer(a Analyzer) MemoryIndexOption {
	return func(m *MemoryIndex) { m.analyzer = a }
}

// WithSimilarity sets the similarity used to compute field norms.
func WithSimilarity(s similarity.Similarity) MemoryIndexOption {
	return func(m *MemoryIndex) { m.sim = s }
}

// NewMemoryIndex creates an empty index. The default analyzer splits
// on whitespace.
func NewMemoryIndex(opts ...MemoryIndexOption) *MemoryIndex {
	m := &MemoryIndex{
		analyzer: WhitespaceAnalyzer{},
		sim:      similarity.Default(),
		fields:   make(map[string]*fieldData),
		deleted:  make(map[int]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddDocument indexes and stores the document, returning its id.
func (m *MemoryIndex) AddDocument(doc *Document) (int, error) {
	if doc == nil {
		return 0, ferrors.ArgError("nil document", nil)
	}
	if doc.Boost <= 0 {
		return 0, ferrors.ArgError("document boost must be positive", nil)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	id := len(m.docs)
	m.docs = append(m.docs, doc)

	for _, f := range doc.Fields {
		tokens := m.analyzer.Tokens(f.Value)

		byText := make(map[string][]int)
		order := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if _, seen := byText[tok.Text]; !seen {
				order = append(order, tok.Text)
			}
			byText[tok.Text] = append(byText[tok.Text], tok.Pos)
		}

		fd := m.fields[f.Name]
		if fd == nil {
			fd = &fieldData{postings: make(map[string][]posting)}
			m.fields[f.Name] = fd
		}
		for _, text := range order {
			fd.postings[text] = append(fd.postings[text], posting{doc: id, positions: byText[text]})
		}

		for len(fd.norms) < id {
			fd.norms = append(fd.norms, 0)
		}
		norm := doc.Boost * m.sim.LengthNorm(f.Name, len(tokens))
		fd.norms = append(fd.norms, similarity.EncodeNorm(norm))
	}

	m.gen++
	return id, nil
}

// Delete marks the document as deleted. Readers opened afterwards skip
// it; existing readers are unaffected.
func (m *MemoryIndex) Delete(doc int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if doc < 0 || doc >= len(m.docs) {
		return ferrors.Newf(ferrors.ErrCodeInvalidDoc, "doc %d out of range [0, %d)", doc, len(m.docs))
	}
	if !m.deleted[doc] {
		m.deleted[doc] = true
		m.numDeleted++
		m.gen++
	}
	return nil
}

// MaxDoc returns one past the highest assigned document id.
func (m *MemoryIndex) MaxDoc() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// NumDocs returns the number of live documents.
func (m *MemoryIndex) NumDocs() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs) - m.numDeleted
}

// Reader opens a point-in-time snapshot. The snapshot shares posting
// storage with the index but is immune to later writes.
func (m *MemoryIndex) Reader() Reader {
	m.mu.RLock()
	defer m.mu.RUnlock()

	maxDoc := len(m.docs)
	deleted := make(map[int]bool, len(m.deleted))
	for d := range m.deleted {
		deleted[d] = true
	}

	fields := make(map[string]*fieldSnapshot, len(m.fields))
	for name, fd := range m.fields {
		snap := &fieldSnapshot{
			postings: make(map[string][]posting, len(fd.postings)),
			norms:    make([]byte, maxDoc),
			terms:    make([]string, 0, len(fd.postings)),
		}
		for text, list := range fd.postings {
			snap.postings[text] = list
			snap.terms = append(snap.terms, text)
		}
		sort.Strings(snap.terms)
		copy(snap.norms, fd.norms)
		fields[name] = snap
	}

	return &memoryReader{
		idx:     m,
		gen:     m.gen,
		maxDoc:  maxDoc,
		numDocs: maxDoc - m.numDeleted,
		deleted: deleted,
		docs:    m.docs,
		fields:  fields,
	}
}

type fieldSnapshot struct {
	postings map[string][]posting
	norms    []byte
	terms    []string
}

type memoryReader struct {
	idx     *MemoryIndex
	gen     uint64
	maxDoc  int
	numDocs int
	deleted map[int]bool
	docs    []*Document
	fields  map[string]*fieldSnapshot
	closed  bool
}

var _ Reader = (*memoryReader)(nil)

func (r *memoryReader) MaxDoc() int  { return r.maxDoc }
func (r *memoryReader) NumDocs() int { return r.numDocs }

func (r *memoryReader) DocFreq(field, text string) int {
	fs := r.fields[field]
	if fs == nil {
		return 0
	}
	return len(fs.postings[text])
}

func (r *memoryReader) TermPositions(t Term) PostingIterator {
	fs := r.fields[t.Field]
	if fs == nil {
		return nil
	}
	list := fs.postings[t.Text]
	if list == nil {
		return nil
	}
	return &memoryPostings{list: list, deleted: r.deleted, cur: -1}
}

func (r *memoryReader) Terms(field string) TermEnum {
	fs := r.fields[field]
	if fs == nil {
		return nil
	}
	return &memoryTermEnum{field: field, snap: fs, cur: -1}
}

func (r *memoryReader) Norms(field string) []byte {
	fs := r.fields[field]
	if fs == nil {
		return nil
	}
	return fs.norms
}

func (r *memoryReader) Document(doc int) (*Document, error) {
	if r.closed {
		return nil, ferrors.New(ferrors.ErrCodeReaderClosed, "reader is closed", nil)
	}
	if doc < 0 || doc >= r.maxDoc {
		return nil, ferrors.Newf(ferrors.ErrCodeInvalidDoc, "doc %d out of range [0, %d)", doc, r.maxDoc)
	}
	return r.docs[doc], nil
}

func (r *memoryReader) IsDeleted(doc int) bool { return r.deleted[doc] }
func (r *memoryReader) HasDeletions() bool     { return len(r.deleted) > 0 }

func (r *memoryReader) IsLatest() bool {
	r.idx.mu.RLock()
	defer r.idx.mu.RUnlock()
	return r.gen == r.idx.gen
}

func (r *memoryReader) Close() error {
	r.closed = true
	return nil
}

type memoryPostings struct {
	list    []posting
	deleted map[int]bool
	cur     int
}

var _ PostingIterator = (*memoryPostings)(nil)

func (p *memoryPostings) Next() bool {
	for p.cur++; p.cur < len(p.list); p.cur++ {
		if !p.deleted[p.list[p.cur].doc] {
			return true
		}
	}
	return false
}

func (p *memoryPostings) SkipTo(target int) bool {
	if p.cur >= 0 && p.cur < len(p.list) && p.list[p.cur].doc >= target {
		return true
	}
	start := p.cur + 1
	n := sort.Search(len(p.list)-start, func(i int) bool {
		return p.list[start+i].doc >= target
	})
	p.cur = start + n
	for p.cur < len(p.list) && p.deleted[p.list[p.cur].doc] {
		p.cur++
	}
	return p.cur < len(p.list)
}

func (p *memoryPostings) Doc() int { return p.list[p.cur].doc }

func (p *memoryPostings) Freq() int { return len(p.list[p.cur].positions) }

func (p *memoryPostings) Positions() []int { return p.list[p.cur].positions }

func (p *memoryPostings) Close() error { return nil }

type memoryTermEnum struct {
	field string
	snap  *fieldSnapshot
	cur   int
}

var _ TermEnum = (*memoryTermEnum)(nil)

func (e *memoryTermEnum) Next() bool {
	e.cur++
	return e.cur < len(e.snap.terms)
}

func (e *memoryTermEnum) SkipTo(text string) bool {
	n := sort.SearchStrings(e.snap.terms, text)
	if n > e.cur {
		e.cur = n
	}
	return e.cur < len(e.snap.terms)
}

func (e *memoryTermEnum) Term() Term {
	return Term{Field: e.field, Text: e.snap.terms[e.cur]}
}

func (e *memoryTermEnum) DocFreq() int {
	return len(e.snap.postings[e.snap.terms[e.cur]])
}

func (e *memoryTermEnum) Close() error { return nil }
