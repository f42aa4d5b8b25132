package search

import (
	"sort"
	"strconv"
	"strings"

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/index"
)

// phraseSlot is one position in a phrase. A slot holds one or more term
// alternatives; any alternative occurring at the slot's relative
// position satisfies the slot.
type phraseSlot struct {
	Pos   int
	Terms []string
}

// PhraseQuery matches documents where the slot terms occur at their
// relative positions, within Slop transpositions of the exact layout.
// Slop 0 demands the exact phrase.
type PhraseQuery struct {
	boostable
	Field string
	Slop  int

	slots   []phraseSlot
	lastPos int
}

var _ Query = (*PhraseQuery)(nil)

// NewPhraseQuery creates an empty phrase query on a field.
func NewPhraseQuery(field string) *PhraseQuery {
	return &PhraseQuery{Field: field, lastPos: -1}
}

// Add appends a term posInc positions after the previous one. A posInc
// greater than one leaves a gap the phrase must span; zero stacks the
// term on the previous position as a required co-occurrence.
func (q *PhraseQuery) Add(term string, posInc int) error {
	if posInc < 0 {
		return ferrors.ArgError("position increment must not be negative", nil)
	}
	q.lastPos += posInc
	q.slots = append(q.slots, phraseSlot{Pos: q.lastPos, Terms: []string{term}})
	return nil
}

// Append adds a term as an alternative at the last added position.
func (q *PhraseQuery) Append(term string) error {
	if len(q.slots) == 0 {
		return ferrors.StateError("phrase has no position to append to", nil)
	}
	last := &q.slots[len(q.slots)-1]
	last.Terms = append(last.Terms, term)
	return nil
}

// AddTerm appends a term directly after the previous one.
func (q *PhraseQuery) AddTerm(term string) error { return q.Add(term, 1) }

// SetSlop sets the allowed edit distance for sloppy matching.
func (q *PhraseQuery) SetSlop(slop int) { q.Slop = slop }

// sortedSlots returns the slots ordered by position, with separate
// entries sharing a position kept in insertion order.
func (q *PhraseQuery) sortedSlots() []phraseSlot {
	slots := make([]phraseSlot, len(q.slots))
	copy(slots, q.slots)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Pos < slots[j].Pos })
	return slots
}

func (q *PhraseQuery) String(defaultField string) string {
	var sb strings.Builder
	sb.WriteString(fieldPrefix(q.Field, defaultField))
	sb.WriteString(`"`)
	slots := q.sortedSlots()
	pos := 0
	if len(slots) > 0 {
		pos = slots[0].Pos
	}
	for i := 0; i < len(slots); {
		if i > 0 {
			sb.WriteString(" ")
			for ; pos < slots[i].Pos; pos++ {
				sb.WriteString("<> ")
			}
		} else {
			pos = slots[i].Pos
		}
		// Entries sharing a position are all required there.
		j := i
		for ; j < len(slots) && slots[j].Pos == slots[i].Pos; j++ {
			if j > i {
				sb.WriteString("&")
			}
			sb.WriteString(slotString(slots[j]))
		}
		pos++
		i = j
	}
	sb.WriteString(`"`)
	if q.Slop != 0 {
		sb.WriteString("~")
		sb.WriteString(strconv.Itoa(q.Slop))
	}
	sb.WriteString(q.boostSuffix())
	return sb.String()
}

// slotString renders one entry's alternatives joined by '|', in the
// order they were added.
func slotString(s phraseSlot) string {
	return strings.Join(s.Terms, "|")
}

// Rewrite collapses degenerate phrases: a single entry with one term
// becomes a term query, a single entry with alternatives becomes a
// disjunction. Everything else stays a phrase.
func (q *PhraseQuery) Rewrite(index.Reader) (Query, error) {
	if len(q.slots) != 1 {
		return q, nil
	}
	slot := q.slots[0]
	if len(slot.Terms) == 1 {
		tq := NewTermQuery(q.Field, slot.Terms[0])
		tq.SetBoost(q.Boost())
		return tq, nil
	}
	bq := NewBooleanQuery(true)
	for _, t := range slot.Terms {
		bq.Add(NewTermQuery(q.Field, t), Should)
	}
	bq.SetBoost(q.Boost())
	return bq, nil
}

func (q *PhraseQuery) Equal(o Query) bool {
	p, ok := o.(*PhraseQuery)
	if !ok || q.Field != p.Field || q.Slop != p.Slop || q.Boost() != p.Boost() {
		return false
	}
	a, b := q.sortedSlots(), p.sortedSlots()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Pos != b[i].Pos || slotString(a[i]) != slotString(b[i]) {
			return false
		}
	}
	return true
}

func (q *PhraseQuery) Hash() uint32 {
	h := hashString(hashSeed, "phrase")
	h = hashString(h, q.Field)
	h = hashInt(h, q.Slop)
	for _, s := range q.sortedSlots() {
		h = hashInt(h, s.Pos)
		h = hashString(h, slotString(s))
	}
	return hashFloat(h, q.Boost())
}

func (q *PhraseQuery) Weight(s Searchable) (Weight, error) {
	if len(q.slots) == 0 {
		return nil, ferrors.StateError("phrase query has no terms", nil)
	}
	return newPhraseWeight(q, s), nil
}
