package engine

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
)

func newGame(t *testing.T) *GameState {
	t.Helper()
	s, err := NewGame(DefaultBoardSize)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	return s
}

func construct(t *testing.T, b Board, mover CellState) *GameState {
	t.Helper()
	s, err := Construct(b, mover)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	return s
}

func TestScoreStartingPosition(t *testing.T) {
	s := newGame(t)
	if got := s.Score(); got != 0 {
		t.Errorf("Score() = %d, want 0", got)
	}
	if s.Mover() != FirstColor {
		t.Errorf("Mover() = %v, want first", s.Mover())
	}
}

func TestLegalMovesRowMajor(t *testing.T) {
	s := newGame(t)

	want := []Coord{{2, 4}, {3, 5}, {4, 2}, {5, 3}}
	got := slices.Collect(s.LegalMoves())
	if !slices.Equal(got, want) {
		t.Errorf("LegalMoves() = %v, want %v", got, want)
	}

	// The sequence restarts from the beginning on every range
	again := slices.Collect(s.LegalMoves())
	if !slices.Equal(again, want) {
		t.Errorf("second LegalMoves() = %v, want %v", again, want)
	}
}

func TestPlaceDiskScenario(t *testing.T) {
	s := newGame(t)

	if !s.CanPlace(2, 4) {
		t.Fatal("CanPlace(2,4) = false, want true")
	}
	b, err := s.PlaceDisk(2, 4)
	if err != nil {
		t.Fatalf("PlaceDisk(2,4): %v", err)
	}
	if c, _ := b.At(3, 4); c != FirstColor {
		t.Errorf("(3,4) = %v, want first", c)
	}
	if got := b.Count(FirstColor); got != 4 {
		t.Errorf("first count = %d, want 4", got)
	}
	if got := b.Count(SecondColor); got != 1 {
		t.Errorf("second count = %d, want 1", got)
	}

	// The state's own board is untouched
	if c, _ := s.Board().At(3, 4); c != SecondColor {
		t.Errorf("original state (3,4) = %v, want second", c)
	}
}

func TestPlaceDiskErrors(t *testing.T) {
	s := newGame(t)

	tests := []struct {
		name string
		x, y int
		want error
	}{
		{"negative", -1, 0, ErrInvalidCoordinate},
		{"past edge", 0, 8, ErrInvalidCoordinate},
		{"occupied", 3, 3, ErrIllegalMove},
		{"nothing to flip", 0, 0, ErrIllegalMove},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if s.CanPlace(tc.x, tc.y) {
				t.Errorf("CanPlace(%d,%d) = true, want false", tc.x, tc.y)
			}
			_, err := s.PlaceDisk(tc.x, tc.y)
			if !errors.Is(err, tc.want) {
				t.Errorf("PlaceDisk(%d,%d) error = %v, want %v", tc.x, tc.y, err, tc.want)
			}
		})
	}
}

func TestPlaySwapsMover(t *testing.T) {
	s := newGame(t)
	next, err := s.Play(2, 4)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if next.Mover() != SecondColor {
		t.Errorf("Mover() = %v, want second", next.Mover())
	}
	if next.Opponent() != FirstColor {
		t.Errorf("Opponent() = %v, want first", next.Opponent())
	}
}

func TestNextStatesOnePerMove(t *testing.T) {
	s := newGame(t)
	children := s.NextStates()
	if len(children) != 4 {
		t.Fatalf("len(NextStates()) = %d, want 4", len(children))
	}

	moves := slices.Collect(s.LegalMoves())
	for i, c := range children {
		if c.Mover() != SecondColor {
			t.Errorf("child %d mover = %v, want second", i, c.Mover())
		}
		want := Apply(s.Board(), moves[i].X, moves[i].Y, FirstColor)
		if !c.Board().Equal(want) {
			t.Errorf("child %d board mismatch for move %v", i, moves[i])
		}
	}
}

func TestNextStatesForcedPass(t *testing.T) {
	// Second cannot flank the corner disk; first can capture along the top row
	b := boardFromStrings(t,
		"XO..",
		"....",
		"....",
		"....",
	)
	s := construct(t, b, SecondColor)

	if s.CanMakeMove() {
		t.Fatal("CanMakeMove() = true, want false")
	}
	if s.IsTerminal() {
		t.Fatal("IsTerminal() = true, want false")
	}

	children := s.NextStates()
	if len(children) != 1 {
		t.Fatalf("len(NextStates()) = %d, want 1", len(children))
	}
	if !children[0].Board().Equal(b) {
		t.Error("pass child board changed")
	}
	if children[0].Mover() != FirstColor {
		t.Errorf("pass child mover = %v, want first", children[0].Mover())
	}
	if ts := s.Transitions(); !ts[0].Pass {
		t.Error("Transitions()[0].Pass = false, want true")
	}
}

func TestTerminalBothSidesBlocked(t *testing.T) {
	b := boardFromStrings(t,
		"X...",
		".X..",
		"....",
		"....",
	)
	first := construct(t, b, FirstColor)

	if !first.IsTerminal() {
		t.Fatal("IsTerminal() = false, want true")
	}

	// Both movers pass with the board unchanged and both see a terminal state
	second := first.NextStates()[0]
	if second.Mover() != SecondColor || !second.Board().Equal(b) {
		t.Error("first pass did not swap mover with board unchanged")
	}
	back := second.NextStates()[0]
	if back.Mover() != FirstColor || !back.Board().Equal(b) {
		t.Error("second pass did not swap mover with board unchanged")
	}
	if !second.IsTerminal() {
		t.Error("IsTerminal() for second = false, want true")
	}
	if got := first.Outcome(); got != FirstWins {
		t.Errorf("Outcome() = %v, want %v", got, FirstWins)
	}
}

func TestIsTerminalSymmetric(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 300; i++ {
		b := randomBoard(rng, []int{4, 6}[i%2], 0.85)
		a := construct(t, b, FirstColor)
		o := construct(t, b, SecondColor)
		if a.IsTerminal() != o.IsTerminal() {
			t.Fatalf("IsTerminal differs by mover on\n%s", b)
		}
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		rows []string
		want Outcome
	}{
		{"in progress", nil, Undecided},
		{"first wins", []string{"XXXX", "XXXX", "XXOO", "OOOO"}, FirstWins},
		{"second wins", []string{"OOOO", "OOOO", "XXOO", "XXXX"}, SecondWins},
		{"draw", []string{"XXXX", "XXXX", "OOOO", "OOOO"}, Drawn},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var s *GameState
			if tc.rows == nil {
				s = newGame(t)
			} else {
				s = construct(t, boardFromStrings(t, tc.rows...), FirstColor)
			}
			if got := s.Outcome(); got != tc.want {
				t.Errorf("Outcome() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConstructErrors(t *testing.T) {
	if _, err := Construct(Board{}, FirstColor); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("Construct(zero board) error = %v, want ErrInvalidBoard", err)
	}
	if _, err := Construct(startingBoard(t), Empty); !errors.Is(err, ErrInvalidMover) {
		t.Errorf("Construct(mover empty) error = %v, want ErrInvalidMover", err)
	}
}

func TestPositionIDRoundTrip(t *testing.T) {
	s, err := newGame(t).Play(2, 4)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}

	got, err := ParsePosition(s.PositionID())
	if err != nil {
		t.Fatalf("ParsePosition: %v", err)
	}
	if got.Mover() != s.Mover() {
		t.Errorf("Mover() = %v, want %v", got.Mover(), s.Mover())
	}
	if !got.Board().Equal(s.Board()) {
		t.Errorf("board mismatch:\n%s\nwant:\n%s", got.Board(), s.Board())
	}
}

func TestParsePositionRejectsOddSize(t *testing.T) {
	// 5x5 is a well-formed code but not a legal board
	cells := make([]CellState, 25)
	for i := range cells {
		cells[i] = Empty
	}
	s := &GameState{board: Board{size: 5, cells: cells}, mover: FirstColor}

	if _, err := ParsePosition(s.PositionID()); !errors.Is(err, ErrInvalidPosition) {
		t.Errorf("ParsePosition error = %v, want ErrInvalidPosition", err)
	}
}

func TestParseRowsRoundTrip(t *testing.T) {
	b := startingBoard(t)
	got, err := ParseRows(b.Lines())
	if err != nil {
		t.Fatalf("ParseRows: %v", err)
	}
	if !got.Equal(b) {
		t.Errorf("ParseRows(Lines()) =\n%s\nwant:\n%s", got, b)
	}

	if _, err := ParseRows([]string{"X?..", "....", "....", "...."}); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("ParseRows with a bad symbol error = %v, want ErrInvalidBoard", err)
	}
	if _, err := ParseRows([]string{"X..", "...", "..."}); !errors.Is(err, ErrInvalidBoard) {
		t.Errorf("ParseRows 3x3 error = %v, want ErrInvalidBoard", err)
	}
}
