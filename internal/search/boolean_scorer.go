package search

// conjunctionScorer aligns all sub-scorers on the same document via
// lock-step SkipTo: whenever one scorer moves past the candidate doc,
// the candidate is raised and the others catch up.
type conjunctionScorer struct {
	scorers   []Scorer
	coord     float32
	doc       int
	started   bool
	exhausted bool
}

var _ Scorer = (*conjunctionScorer)(nil)

func newConjunctionScorer(scorers []Scorer, coord float32) *conjunctionScorer {
	return &conjunctionScorer{scorers: scorers, coord: coord}
}

func (c *conjunctionScorer) Next() bool {
	if !c.started {
		return c.SkipTo(0)
	}
	return c.SkipTo(c.doc + 1)
}

func (c *conjunctionScorer) SkipTo(target int) bool {
	if c.exhausted {
		return false
	}
	if c.started && c.doc >= target {
		return true
	}
	for {
		max := target
		for _, s := range c.scorers {
			if !s.SkipTo(max) {
				c.exhausted = true
				return false
			}
			if s.Doc() > max {
				max = s.Doc()
			}
		}
		if max == target {
			c.doc = max
			c.started = true
			return true
		}
		target = max
	}
}

func (c *conjunctionScorer) Doc() int { return c.doc }

func (c *conjunctionScorer) Score() float32 {
	var sum float32
	for _, s := range c.scorers {
		sum += s.Score()
	}
	return sum * c.coord
}

func (c *conjunctionScorer) Close() error {
	var first error
	for _, s := range c.scorers {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// disjunctionScorer merges sub-scorers with a min-heap keyed by
// current doc, emitting documents matched by at least minMatchers
// sub-scorers. The score is the sum over the matching sub-scorers,
// multiplied by the coord factor for the match count when coord
// factors are supplied.
type disjunctionScorer struct {
	all         []Scorer
	heap        []Scorer
	minMatchers int
	coord       []float32
	doc         int
	score       float32
	nrMatchers  int
	started     bool
	exhausted   bool
}

var _ Scorer = (*disjunctionScorer)(nil)

func newDisjunctionScorer(scorers []Scorer, minMatchers int, coord []float32) *disjunctionScorer {
	return &disjunctionScorer{all: scorers, minMatchers: minMatchers, coord: coord}
}

func (d *disjunctionScorer) Next() bool {
	if !d.started {
		return d.advance(0)
	}
	return d.advance(d.doc + 1)
}

func (d *disjunctionScorer) SkipTo(target int) bool {
	if d.exhausted {
		return false
	}
	if d.started && d.doc >= target {
		return true
	}
	return d.advance(target)
}

func (d *disjunctionScorer) advance(minDoc int) bool {
	if !d.started {
		d.started = true
		for _, s := range d.all {
			if s.Next() {
				d.heap = append(d.heap, s)
			}
		}
		for i := len(d.heap)/2 - 1; i >= 0; i-- {
			d.siftDown(i)
		}
	}

	for len(d.heap) > 0 {
		for len(d.heap) > 0 && d.heap[0].Doc() < minDoc {
			if d.heap[0].SkipTo(minDoc) {
				d.siftDown(0)
			} else {
				d.pop()
			}
		}
		if len(d.heap) == 0 {
			break
		}

		doc := d.heap[0].Doc()
		var score float32
		nr := 0
		for len(d.heap) > 0 && d.heap[0].Doc() == doc {
			score += d.heap[0].Score()
			nr++
			if d.heap[0].Next() {
				d.siftDown(0)
			} else {
				d.pop()
			}
		}
		if nr >= d.minMatchers {
			d.doc = doc
			d.score = score
			d.nrMatchers = nr
			return true
		}
		minDoc = doc + 1
	}
	d.exhausted = true
	return false
}

func (d *disjunctionScorer) siftDown(i int) {
	h := d.heap
	for {
		l, r := 2*i+1, 2*i+2
		small := i
		if l < len(h) && h[l].Doc() < h[small].Doc() {
			small = l
		}
		if r < len(h) && h[r].Doc() < h[small].Doc() {
			small = r
		}
		if small == i {
			return
		}
		h[i], h[small] = h[small], h[i]
		i = small
	}
}

func (d *disjunctionScorer) pop() {
	last := len(d.heap) - 1
	d.heap[0] = d.heap[last]
	d.heap = d.heap[:last]
	if len(d.heap) > 0 {
		d.siftDown(0)
	}
}

func (d *disjunctionScorer) Doc() int { return d.doc }

func (d *disjunctionScorer) Score() float32 {
	if d.coord != nil {
		return d.score * d.coord[d.nrMatchers]
	}
	return d.score
}

// NrMatchers returns how many sub-scorers matched the current doc.
func (d *disjunctionScorer) NrMatchers() int { return d.nrMatchers }

// rawScore returns the unweighted sum over the matching sub-scorers.
func (d *disjunctionScorer) rawScore() float32 { return d.score }

func (d *disjunctionScorer) Close() error {
	var first error
	for _, s := range d.all {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// reqExclScorer yields the required scorer's documents minus those
// matched by the exclusion scorer.
type reqExclScorer struct {
	req      Scorer
	excl     Scorer
	exclDone bool
}

var _ Scorer = (*reqExclScorer)(nil)

func newReqExclScorer(req, excl Scorer) *reqExclScorer {
	return &reqExclScorer{req: req, excl: excl}
}

func (s *reqExclScorer) Next() bool {
	if !s.req.Next() {
		return false
	}
	return s.toNonExcluded()
}

func (s *reqExclScorer) SkipTo(target int) bool {
	if !s.req.SkipTo(target) {
		return false
	}
	return s.toNonExcluded()
}

func (s *reqExclScorer) toNonExcluded() bool {
	for {
		if s.exclDone {
			return true
		}
		doc := s.req.Doc()
		if !s.excl.SkipTo(doc) {
			s.exclDone = true
			return true
		}
		if s.excl.Doc() != doc {
			return true
		}
		if !s.req.Next() {
			return false
		}
	}
}

func (s *reqExclScorer) Doc() int { return s.req.Doc() }

func (s *reqExclScorer) Score() float32 { return s.req.Score() }

func (s *reqExclScorer) Close() error {
	err := s.req.Close()
	if e := s.excl.Close(); e != nil && err == nil {
		err = e
	}
	return err
}

// reqOptScorer drives iteration off the required scorer and folds in
// the optional scorer's score whenever it lands on the same doc. The
// coord factor is chosen by the total number of matching clauses.
type reqOptScorer struct {
	req        Scorer
	opt        *disjunctionScorer
	nrRequired int
	coord      []float32
	optDone    bool
}

var _ Scorer = (*reqOptScorer)(nil)

func newReqOptScorer(req Scorer, opt *disjunctionScorer, nrRequired int, coord []float32) *reqOptScorer {
	return &reqOptScorer{req: req, opt: opt, nrRequired: nrRequired, coord: coord}
}

func (s *reqOptScorer) Next() bool { return s.req.Next() }

func (s *reqOptScorer) SkipTo(target int) bool { return s.req.SkipTo(target) }

func (s *reqOptScorer) Doc() int { return s.req.Doc() }

func (s *reqOptScorer) Score() float32 {
	doc := s.req.Doc()
	score := s.req.Score()
	n := s.nrRequired
	if !s.optDone {
		if !s.opt.SkipTo(doc) {
			s.optDone = true
		} else if s.opt.Doc() == doc {
			score += s.opt.rawScore()
			n += s.opt.NrMatchers()
		}
	}
	return score * s.coord[n]
}

func (s *reqOptScorer) Close() error {
	err := s.req.Close()
	if e := s.opt.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
