package index

// DocField is one named value on a document.
type DocField struct {
	Name  string
	Value string
}

// Document is the unit of indexing and retrieval. Field order is
// preserved. Boost scales the document's norms at index time.
type Document struct {
	Boost  float32
	Fields []DocField
}

// NewDocument creates an empty document with neutral boost.
func NewDocument() *Document {
	return &Document{Boost: 1.0}
}

// Add appends a field and returns the document for chaining.
func (d *Document) Add(name, value string) *Document {
	d.Fields = append(d.Fields, DocField{Name: name, Value: value})
	return d
}

// Get returns the value of the first field with the given name, or "".
func (d *Document) Get(name string) string {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Has reports whether the document carries a field with the given name.
func (d *Document) Has(name string) bool {
	for _, f := range d.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
