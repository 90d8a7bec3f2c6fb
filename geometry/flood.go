package geometry

// driftRadius bounds the per-axis search offset a Drift will suggest,
// matching spec.md's "typical N=2".
const driftRadius = 2

// Offset is a candidate (dx, dy) pixel adjustment to try when locating
// a cell's actual icon origin.
type Offset struct{ DX, DY int }

// Drift is the accumulated local offset between a cell's nominal and
// actual icon origin, plus a confidence in [0, 1] carried so that
// FloodDecodeOrder can blend multiple neighbor estimates (0 means no
// neighbor has contributed an estimate yet).
type Drift struct {
	X, Y       int
	Confidence float64
}

// Pairs returns the ordered neighborhood search set: (0,0) first, then
// expanding outward in rings, matching the early-exit search in spec
// §4.2 ("for each (dx,dy) in D.pairs ... early-exit if distance < 8").
func (d Drift) Pairs() []Offset {
	pairs := make([]Offset, 0, (2*driftRadius+1)*(2*driftRadius+1))
	pairs = append(pairs, Offset{0, 0})
	for radius := 1; radius <= driftRadius; radius++ {
		for dx := -radius; dx <= radius; dx++ {
			for dy := -radius; dy <= radius; dy++ {
				if maxAbs(dx, dy) != radius {
					continue // already emitted by a smaller ring
				}
				pairs = append(pairs, Offset{dx, dy})
			}
		}
	}
	return pairs
}

func maxAbs(a, b int) int {
	a, b = absInt(a), absInt(b)
	if a > b {
		return a
	}
	return b
}

// driftState is the per-cell accumulator behind the flood traversal:
// sum of neighbor drift estimates and how many contributed, so the
// hint handed to a not-yet-visited cell is their running average.
type driftState struct {
	sumX, sumY float64
	sumConf    float64
	n          int
	measured   bool
	dx, dy     int
}

func (s *driftState) hint() Drift {
	if s.n == 0 {
		return Drift{Confidence: 0}
	}
	return Drift{
		X:          int(s.sumX / float64(s.n)),
		Y:          int(s.sumY / float64(s.n)),
		Confidence: s.sumConf / float64(s.n),
	}
}

// FloodDecodeOrder emits cells in BFS order seeded from the four data
// area corners, each with a drift hint derived from its already
// visited neighbors. The caller MUST call Update immediately after
// classifying the cell Next returned, before calling Next again, so
// that the measured drift can propagate to unvisited neighbors.
type FloodDecodeOrder struct {
	cells    []CellPosition
	finder   *AdjacentCellFinder
	visited  []bool
	enqueued []bool
	state    []driftState
	queue    []int
	current  int
}

// NewFloodDecodeOrder builds a traversal over cells using finder for
// adjacency, seeded from finder's four corner cells.
func NewFloodDecodeOrder(cells []CellPosition, finder *AdjacentCellFinder) *FloodDecodeOrder {
	f := &FloodDecodeOrder{
		cells:    cells,
		finder:   finder,
		visited:  make([]bool, len(cells)),
		enqueued: make([]bool, len(cells)),
		state:    make([]driftState, len(cells)),
		current:  -1,
	}
	for _, seed := range finder.Corners() {
		f.enqueue(seed)
	}
	return f
}

func (f *FloodDecodeOrder) enqueue(i int) {
	if f.enqueued[i] {
		return
	}
	f.enqueued[i] = true
	f.queue = append(f.queue, i)
}

// Next reports the next cell to decode along with its nominal position
// and current drift hint. ok is false once every cell has been
// emitted.
func (f *FloodDecodeOrder) Next() (index int, pos CellPosition, drift Drift, ok bool) {
	if len(f.queue) == 0 {
		return 0, CellPosition{}, Drift{}, false
	}
	i := f.queue[0]
	f.queue = f.queue[1:]
	f.visited[i] = true
	f.current = i
	for _, nb := range f.finder.Neighbors(i).Slice() {
		if !f.visited[nb] {
			f.enqueue(nb)
		}
	}
	return i, f.cells[i], f.state[i].hint(), true
}

// Update records the measured drift for the cell most recently
// returned by Next, and folds it into the hint of each not-yet-visited
// neighbor so later-visited cells benefit from it.
func (f *FloodDecodeOrder) Update(dx, dy, distance int) {
	if f.current < 0 {
		return
	}
	i := f.current
	f.state[i].measured = true
	f.state[i].dx, f.state[i].dy = dx, dy

	confidence := confidenceFromDistance(distance)
	for _, nb := range f.finder.Neighbors(i).Slice() {
		if f.visited[nb] {
			continue
		}
		s := &f.state[nb]
		s.sumX += float64(dx)
		s.sumY += float64(dy)
		s.sumConf += confidence
		s.n++
	}
}

// confidenceFromDistance maps a classifier distance (lower is better,
// 0 is a perfect match) to a (0, 1] confidence weight.
func confidenceFromDistance(distance int) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1.0 / float64(1+distance)
}

// Remaining reports how many cells have not yet been emitted by Next,
// for callers (and tests) that want to confirm full coverage.
func (f *FloodDecodeOrder) Remaining() int {
	visited := 0
	for _, v := range f.visited {
		if v {
			visited++
		}
	}
	return len(f.cells) - visited
}
