package index

// Reader is a point-in-time snapshot of an index. Implementations are
// safe for concurrent use by independent searches; documents added or
// deleted after the reader was opened are not visible through it.
type Reader interface {
	// MaxDoc returns one past the highest document id in the snapshot.
	MaxDoc() int
	// NumDocs returns the number of live (non-deleted) documents.
	NumDocs() int
	// DocFreq returns the number of documents containing the term.
	DocFreq(field, text string) int
	// TermPositions returns a posting iterator for the term, or nil
	// when the term does not occur in the snapshot.
	TermPositions(t Term) PostingIterator
	// Terms enumerates the field's term dictionary in ascending text
	// order, or nil when the field is not indexed.
	Terms(field string) TermEnum
	// Norms returns the field's norm bytes indexed by document id, or
	// nil when the field carries no norms.
	Norms(field string) []byte
	// Document returns the stored document.
	Document(doc int) (*Document, error)
	// IsDeleted reports whether the document was deleted.
	IsDeleted(doc int) bool
	// HasDeletions reports whether any document was deleted.
	HasDeletions() bool
	// IsLatest reports whether the snapshot still reflects the most
	// recent committed state of the index.
	IsLatest() bool
	// Close releases the snapshot.
	Close() error
}
