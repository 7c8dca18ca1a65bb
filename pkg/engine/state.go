package engine

import (
	"fmt"
	"iter"
)

// Maximizer is the side whose wins are positive. Score is first-color disks
// minus second-color disks, so the first color maximizes.
const Maximizer = FirstColor

// Outcome is the result of a finished game.
type Outcome int

const (
	Undecided Outcome = iota // Game still in progress
	FirstWins
	SecondWins
	Drawn
)

func (o Outcome) String() string {
	switch o {
	case FirstWins:
		return "first wins"
	case SecondWins:
		return "second wins"
	case Drawn:
		return "draw"
	}
	return "undecided"
}

// GameState pairs a board with the side to move. It is immutable: every move
// or pass produces a new GameState holding a new board.
type GameState struct {
	board Board
	mover CellState
}

// Transition is one child of a GameState: the move that produced it (absent
// for a forced pass) and the resulting state.
type Transition struct {
	Move  Coord
	Pass  bool
	State *GameState
}

// Construct builds a game state from a board and the side to move.
func Construct(initial Board, firstMover CellState) (*GameState, error) {
	if err := validateSize(initial.size); err != nil {
		return nil, err
	}
	if !firstMover.IsColor() {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMover, firstMover)
	}
	return &GameState{board: initial, mover: firstMover}, nil
}

// NewGame returns the standard opening on an n×n board with the first color to move.
func NewGame(n int) (*GameState, error) {
	b, err := StartingBoard(n)
	if err != nil {
		return nil, err
	}
	return &GameState{board: b, mover: FirstColor}, nil
}

// Board returns the state's board.
func (s *GameState) Board() Board { return s.board }

// Mover returns the side to move.
func (s *GameState) Mover() CellState { return s.mover }

// Opponent returns the side not to move.
func (s *GameState) Opponent() CellState { return s.mover.Opponent() }

// CanPlace reports whether the mover may place at (x, y). Off-board
// coordinates are declined with false.
func (s *GameState) CanPlace(x, y int) bool {
	return CanPlace(s.board, x, y, s.mover)
}

// PlaceDisk applies the mover's placement at (x, y) and returns the new board.
func (s *GameState) PlaceDisk(x, y int) (Board, error) {
	if !s.board.InBounds(x, y) {
		return Board{}, fmt.Errorf("%w: (%d,%d) on a %dx%d board", ErrInvalidCoordinate, x, y, s.board.size, s.board.size)
	}
	if !s.CanPlace(x, y) {
		return Board{}, fmt.Errorf("%w: %v cannot place at (%d,%d)", ErrIllegalMove, s.mover, x, y)
	}
	return Apply(s.board, x, y, s.mover), nil
}

// Play places a disk at (x, y) and hands the turn to the opponent.
func (s *GameState) Play(x, y int) (*GameState, error) {
	b, err := s.PlaceDisk(x, y)
	if err != nil {
		return nil, err
	}
	return &GameState{board: b, mover: s.Opponent()}, nil
}

// Pass hands the turn to the opponent with the board unchanged.
func (s *GameState) Pass() *GameState {
	return &GameState{board: s.board, mover: s.Opponent()}
}

// CanMakeMove reports whether the mover has at least one legal placement.
func (s *GameState) CanMakeMove() bool {
	for range s.LegalMoves() {
		return true
	}
	return false
}

// LegalMoves yields every legal placement for the mover in row-major order.
// The sequence can be ranged over any number of times.
func (s *GameState) LegalMoves() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		n := s.board.size
		for x := 0; x < n; x++ {
			for y := 0; y < n; y++ {
				if CanPlace(s.board, x, y, s.mover) && !yield(Coord{x, y}) {
					return
				}
			}
		}
	}
}

// Transitions returns one child per legal move in row-major order, or a single
// pass child when the mover has no legal move.
func (s *GameState) Transitions() []Transition {
	var out []Transition
	opp := s.Opponent()
	for m := range s.LegalMoves() {
		out = append(out, Transition{
			Move:  m,
			State: &GameState{board: Apply(s.board, m.X, m.Y, s.mover), mover: opp},
		})
	}
	if len(out) == 0 {
		out = append(out, Transition{Pass: true, State: s.Pass()})
	}
	return out
}

// NextStates returns the child states of s (see Transitions).
func (s *GameState) NextStates() []*GameState {
	ts := s.Transitions()
	states := make([]*GameState, len(ts))
	for i, t := range ts {
		states[i] = t.State
	}
	return states
}

// IsTerminal reports whether neither side has a legal move on this board.
// The answer does not depend on which side is to move.
func (s *GameState) IsTerminal() bool {
	return !s.CanMakeMove() && !s.Pass().CanMakeMove()
}

// Score returns first-color disks minus second-color disks.
func (s *GameState) Score() int {
	return s.board.Count(FirstColor) - s.board.Count(SecondColor)
}

// Outcome returns the final result, or Undecided if the game is not over.
func (s *GameState) Outcome() Outcome {
	if !s.IsTerminal() {
		return Undecided
	}
	switch score := s.Score(); {
	case score > 0:
		return FirstWins
	case score < 0:
		return SecondWins
	}
	return Drawn
}

// GetNextOptimalBoard searches depth plies with the disk-differential
// evaluator and returns the best board for the mover. ok is false when the
// game is over.
func (s *GameState) GetNextOptimalBoard(depth int) (Board, bool) {
	return defaultEngine.BestNextBoard(s, depth)
}

func (s *GameState) String() string {
	return fmt.Sprintf("%v to move\n%s", s.mover, s.board)
}
