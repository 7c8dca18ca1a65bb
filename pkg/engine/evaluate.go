package engine

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// ResultKind tags a search result as a terminal outcome or a heuristic estimate.
type ResultKind int8

const (
	Loss      ResultKind = iota // Terminal, second color ahead
	Heuristic                   // Static estimate at the depth cutoff
	Draw                        // Terminal, equal disks
	Win                         // Terminal, first color ahead
)

func (k ResultKind) String() string {
	switch k {
	case Loss:
		return "loss"
	case Heuristic:
		return "heuristic"
	case Draw:
		return "draw"
	case Win:
		return "win"
	}
	return fmt.Sprintf("ResultKind(%d)", int8(k))
}

// Result is a search score from the first color's perspective.
//
// Results are totally ordered: every Loss ranks below every heuristic value,
// every Win above, and a Draw ranks as a heuristic value of zero. Terminal and
// heuristic scores can therefore never collide, whatever the board size.
type Result struct {
	Kind  ResultKind
	Value int // Heuristic value; final disk differential for terminal kinds
}

// HeuristicResult wraps a static evaluation.
func HeuristicResult(v int) Result {
	return Result{Kind: Heuristic, Value: v}
}

// terminalResult converts a final disk differential to a terminal result
func terminalResult(score int) Result {
	switch {
	case score > 0:
		return Result{Kind: Win, Value: score}
	case score < 0:
		return Result{Kind: Loss, Value: score}
	}
	return Result{Kind: Draw}
}

// Full-window bounds; no result lies outside them
var (
	minResult = Result{Kind: Loss, Value: math.MinInt}
	maxResult = Result{Kind: Win, Value: math.MaxInt}
)

func (r Result) tier() int {
	switch r.Kind {
	case Loss:
		return 0
	case Win:
		return 2
	}
	return 1
}

// Compare returns -1, 0 or +1 as r ranks below, equal to or above o.
// All wins rank equal, as do all losses.
func (r Result) Compare(o Result) int {
	if t, u := r.tier(), o.tier(); t != u {
		if t < u {
			return -1
		}
		return 1
	}
	if r.tier() != 1 {
		return 0
	}
	switch {
	case r.value() < o.value():
		return -1
	case r.value() > o.value():
		return 1
	}
	return 0
}

func (r Result) value() int {
	if r.Kind == Draw {
		return 0
	}
	return r.Value
}

// IsTerminal reports whether r is a game outcome rather than an estimate.
func (r Result) IsTerminal() bool {
	return r.Kind != Heuristic
}

func (r Result) String() string {
	if r.Kind == Heuristic {
		return fmt.Sprintf("%+d", r.Value)
	}
	return fmt.Sprintf("%v(%+d)", r.Kind, r.Value)
}

// Evaluator scores a board from the first color's perspective. Implementations
// must be safe for concurrent use and keep |score| <= N².
type Evaluator interface {
	Name() string
	Evaluate(b Board) int
}

// DiskEvaluator scores a board by disk differential.
type DiskEvaluator struct{}

func (DiskEvaluator) Name() string { return "disk" }

func (DiskEvaluator) Evaluate(b Board) int {
	return b.Count(FirstColor) - b.Count(SecondColor)
}

// Square weight classes for the positional table
const (
	weightCorner   = 8.0
	weightXSquare  = -4.0 // diagonal neighbor of a corner
	weightCSquare  = -2.0 // edge neighbor of a corner
	weightEdge     = 2.0
	weightInterior = 1.0
)

// PositionalEvaluator weights each square (corners high, squares next to
// corners negative) and scores the weighted disk differential, scaled so that
// a board entirely of one color scores ±N².
type PositionalEvaluator struct {
	mu     sync.Mutex
	tables map[int]*squareTable
}

type squareTable struct {
	weights []float64
	norm    float64 // sum of |weights|
}

// NewPositionalEvaluator creates a positional evaluator. Tables are built
// lazily per board size.
func NewPositionalEvaluator() *PositionalEvaluator {
	return &PositionalEvaluator{tables: make(map[int]*squareTable)}
}

func (e *PositionalEvaluator) Name() string { return "positional" }

func (e *PositionalEvaluator) Evaluate(b Board) int {
	n := b.Size()
	if n == 0 {
		return 0
	}
	t := e.table(n)

	occ := occupancy(b)
	v := floats.Dot(t.weights, occ) / t.norm * float64(n*n)
	return clampScore(int(math.Round(v)), n)
}

func (e *PositionalEvaluator) table(n int) *squareTable {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tables[n]; ok {
		return t
	}
	w := SquareWeights(n)
	abs := make([]float64, len(w))
	for i, v := range w {
		abs[i] = math.Abs(v)
	}
	t := &squareTable{weights: w, norm: floats.Sum(abs)}
	e.tables[n] = t
	return t
}

// SquareWeights returns the row-major positional weight table for an n×n board.
func SquareWeights(n int) []float64 {
	w := make([]float64, n*n)
	last := n - 1
	edge := func(i int) bool { return i == 0 || i == last }
	near := func(i int) bool { return i == 1 || i == last-1 }

	for x := 0; x < n; x++ {
		for y := 0; y < n; y++ {
			var v float64
			switch {
			case edge(x) && edge(y):
				v = weightCorner
			case near(x) && near(y):
				v = weightXSquare
			case (edge(x) && near(y)) || (near(x) && edge(y)):
				v = weightCSquare
			case edge(x) || edge(y):
				v = weightEdge
			default:
				v = weightInterior
			}
			w[x*n+y] = v
		}
	}
	return w
}

// occupancy returns the board as +1 (first), -1 (second), 0 (empty)
func occupancy(b Board) []float64 {
	v := make([]float64, len(b.cells))
	for i, c := range b.cells {
		switch c {
		case FirstColor:
			v[i] = 1
		case SecondColor:
			v[i] = -1
		}
	}
	return v
}

// clampScore keeps a heuristic within [-n², n²]
func clampScore(v, n int) int {
	limit := n * n
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
