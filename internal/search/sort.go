package search

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ferret-go/ferret/internal/index"
)

// SortField orders hits by a stored field value. Values that parse as
// numbers compare numerically, otherwise lexicographically. Missing
// values sort last, or first when Reverse is set.
type SortField struct {
	Field   string
	Reverse bool
}

// Sort orders hits by a sequence of fields, falling back to score
// descending then doc ascending.
type Sort struct {
	Fields []SortField
}

// NewSort creates a sort over the given fields.
func NewSort(fields ...SortField) *Sort {
	return &Sort{Fields: fields}
}

func (s *Sort) String() string {
	var parts []string
	for _, f := range s.Fields {
		if f.Reverse {
			parts = append(parts, f.Field+"!")
		} else {
			parts = append(parts, f.Field)
		}
	}
	return "Sort[" + strings.Join(parts, ", ") + "]"
}

// sortKey is one hit's comparison data: the raw field values plus
// their numeric parses.
type sortKey struct {
	values  []string
	numbers []float64
	numeric []bool
	present []bool
}

func (s *Sort) keyFor(r index.Reader, doc int) sortKey {
	k := sortKey{
		values:  make([]string, len(s.Fields)),
		numbers: make([]float64, len(s.Fields)),
		numeric: make([]bool, len(s.Fields)),
		present: make([]bool, len(s.Fields)),
	}
	d, err := r.Document(doc)
	if err != nil {
		return k
	}
	for i, f := range s.Fields {
		if !d.Has(f.Field) {
			continue
		}
		v := d.Get(f.Field)
		k.values[i] = v
		k.present[i] = true
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			k.numbers[i] = n
			k.numeric[i] = true
		}
	}
	return k
}

// compare returns <0 when a sorts before b.
func (s *Sort) compare(a, b sortKey, ha, hb Hit) int {
	for i, f := range s.Fields {
		c := compareValues(a, b, i)
		if c == 0 {
			continue
		}
		if f.Reverse {
			return -c
		}
		return c
	}
	if ha.Score != hb.Score {
		if ha.Score > hb.Score {
			return -1
		}
		return 1
	}
	return ha.Doc - hb.Doc
}

func compareValues(a, b sortKey, i int) int {
	switch {
	case !a.present[i] && !b.present[i]:
		return 0
	case !a.present[i]:
		return 1
	case !b.present[i]:
		return -1
	case a.numeric[i] && b.numeric[i]:
		switch {
		case a.numbers[i] < b.numbers[i]:
			return -1
		case a.numbers[i] > b.numbers[i]:
			return 1
		}
		return 0
	default:
		return strings.Compare(a.values[i], b.values[i])
	}
}

// sortedAccumulator gathers every hit and orders them with the sort
// comparator once iteration finishes.
type sortedAccumulator struct {
	sort   *Sort
	reader index.Reader
	hits   []Hit
	keys   []sortKey
}

func newSortedAccumulator(s *Sort, r index.Reader) *sortedAccumulator {
	return &sortedAccumulator{sort: s, reader: r}
}

func (a *sortedAccumulator) Insert(h Hit) {
	a.hits = append(a.hits, h)
	a.keys = append(a.keys, a.sort.keyFor(a.reader, h.Doc))
}

// Ordered returns the hits in comparator order.
func (a *sortedAccumulator) Ordered() []Hit {
	idx := make([]int, len(a.hits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return a.sort.compare(a.keys[idx[i]], a.keys[idx[j]], a.hits[idx[i]], a.hits[idx[j]]) < 0
	})
	out := make([]Hit, len(idx))
	for i, j := range idx {
		out[i] = a.hits[j]
	}
	return out
}
