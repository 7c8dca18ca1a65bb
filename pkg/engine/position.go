// Package engine provides the public API for the reversi engine: board model,
// move legality and application, game states, static evaluation and
// alpha-beta search.
package engine

import (
	"errors"
	"fmt"
	"strings"
)

// CellState is the occupancy of one board cell.
// The numeric values match the 2-bit position codes (00, 01, 10).
type CellState uint8

const (
	FirstColor  CellState = iota // Moves first; positive scores favor this side
	SecondColor                  // Moves second
	Empty                        // Unoccupied
)

// Board size limits
const (
	MinBoardSize     = 4
	MaxBoardSize     = 16
	DefaultBoardSize = 8
)

var (
	// ErrInvalidBoard is returned for boards that break the size or cell rules
	ErrInvalidBoard = errors.New("invalid board")
	// ErrInvalidCoordinate is returned when x or y lies outside [0,N)
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	// ErrIllegalMove is returned when a placement flips nothing or hits an occupied cell
	ErrIllegalMove = errors.New("illegal move")
	// ErrInvalidMover is returned when the side to move is not a color
	ErrInvalidMover = errors.New("mover must be a color")
)

// Opponent returns the other color. Empty has no opponent and is returned unchanged.
func (c CellState) Opponent() CellState {
	switch c {
	case FirstColor:
		return SecondColor
	case SecondColor:
		return FirstColor
	}
	return c
}

// IsColor reports whether c is one of the two disk colors.
func (c CellState) IsColor() bool {
	return c == FirstColor || c == SecondColor
}

func (c CellState) String() string {
	switch c {
	case FirstColor:
		return "first"
	case SecondColor:
		return "second"
	case Empty:
		return "empty"
	}
	return fmt.Sprintf("CellState(%d)", uint8(c))
}

// symbol is the single-character form used by Board.String
func (c CellState) symbol() byte {
	switch c {
	case FirstColor:
		return 'X'
	case SecondColor:
		return 'O'
	}
	return '.'
}

// Board is an N×N grid of cells stored row-major, indexed (x, y) with x the row.
//
// A Board has no exported mutators. Every transition (placement and flips)
// builds a fresh copy, so a Board reachable from one GameState can never
// change underneath another.
type Board struct {
	size  int
	cells []CellState
}

// NewBoard builds a board from rows of cells. The grid must be square with an
// even edge between MinBoardSize and MaxBoardSize.
func NewBoard(rows [][]CellState) (Board, error) {
	n := len(rows)
	if err := validateSize(n); err != nil {
		return Board{}, err
	}

	b := Board{size: n, cells: make([]CellState, n*n)}
	for x, row := range rows {
		if len(row) != n {
			return Board{}, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidBoard, x, len(row), n)
		}
		for y, c := range row {
			if c > Empty {
				return Board{}, fmt.Errorf("%w: cell (%d,%d) holds %v", ErrInvalidBoard, x, y, c)
			}
			b.cells[x*n+y] = c
		}
	}
	return b, nil
}

// EmptyBoard returns an n×n board with every cell empty.
func EmptyBoard(n int) (Board, error) {
	if err := validateSize(n); err != nil {
		return Board{}, err
	}
	b := Board{size: n, cells: make([]CellState, n*n)}
	for i := range b.cells {
		b.cells[i] = Empty
	}
	return b, nil
}

// StartingBoard returns the standard opening: the central 2×2 block with the
// colors crossed, first color on the main diagonal.
func StartingBoard(n int) (Board, error) {
	b, err := EmptyBoard(n)
	if err != nil {
		return Board{}, err
	}
	m := n / 2
	b.set(m-1, m-1, FirstColor)
	b.set(m, m, FirstColor)
	b.set(m-1, m, SecondColor)
	b.set(m, m-1, SecondColor)
	return b, nil
}

func validateSize(n int) error {
	if n < MinBoardSize || n > MaxBoardSize || n%2 != 0 {
		return fmt.Errorf("%w: size %d must be even and within [%d,%d]",
			ErrInvalidBoard, n, MinBoardSize, MaxBoardSize)
	}
	return nil
}

// Size returns the edge length N. The zero Board has size 0.
func (b Board) Size() int {
	return b.size
}

// InBounds reports whether (x, y) lies on the board.
func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.size && y < b.size
}

// At returns the cell at (x, y). ok is false for off-board coordinates.
func (b Board) At(x, y int) (c CellState, ok bool) {
	if !b.InBounds(x, y) {
		return Empty, false
	}
	return b.cells[x*b.size+y], true
}

// Count returns the number of cells holding c.
func (b Board) Count(c CellState) int {
	n := 0
	for _, v := range b.cells {
		if v == c {
			n++
		}
	}
	return n
}

// Rows returns a copy of the grid as rows.
func (b Board) Rows() [][]CellState {
	rows := make([][]CellState, b.size)
	for x := range rows {
		rows[x] = make([]CellState, b.size)
		copy(rows[x], b.cells[x*b.size:(x+1)*b.size])
	}
	return rows
}

// Equal reports whether two boards have the same size and cells.
func (b Board) Equal(o Board) bool {
	if b.size != o.size {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

// String renders the board one row per line, X for first, O for second.
func (b Board) String() string {
	var sb strings.Builder
	for x := 0; x < b.size; x++ {
		for y := 0; y < b.size; y++ {
			sb.WriteByte(b.cells[x*b.size+y].symbol())
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// clone returns an independent copy of the board
func (b Board) clone() Board {
	cells := make([]CellState, len(b.cells))
	copy(cells, b.cells)
	return Board{size: b.size, cells: cells}
}

// set writes a cell. Only called on boards that no GameState can see yet.
func (b Board) set(x, y int, c CellState) {
	b.cells[x*b.size+y] = c
}

func (b Board) get(x, y int) CellState {
	return b.cells[x*b.size+y]
}
