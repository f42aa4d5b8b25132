package index

// PostingIterator walks one term's posting list in strictly increasing
// document order. Doc, Freq and Positions are undefined before the
// first successful Next or SkipTo. Implementations skip deleted
// documents.
type PostingIterator interface {
	// Next advances to the next document. Returns false when exhausted.
	Next() bool
	// SkipTo advances to the first document >= target. Returns false
	// when no such document exists.
	SkipTo(target int) bool
	// Doc returns the current document id.
	Doc() int
	// Freq returns the term frequency in the current document.
	Freq() int
	// Positions returns the term's positions in the current document,
	// strictly ascending. The slice is only valid until the next
	// advance.
	Positions() []int
	// Close releases the iterator.
	Close() error
}

// TermEnum walks a field's term dictionary in ascending text order.
// Term and DocFreq are undefined before the first successful Next or
// SkipTo.
type TermEnum interface {
	// Next advances to the next term. Returns false when exhausted.
	Next() bool
	// SkipTo advances to the first term with text >= text. Returns
	// false when no such term exists.
	SkipTo(text string) bool
	// Term returns the current term.
	Term() Term
	// DocFreq returns the number of documents containing the current term.
	DocFreq() int
	// Close releases the enumerator.
	Close() error
}
