package engine

import (
	"errors"
	"fmt"

	"github.com/yourusername/reversi/internal/positionid"
)

// ErrInvalidPosition is returned when a position ID cannot be turned into a game state
var ErrInvalidPosition = errors.New("invalid position")

// codes returns the board's row-major 2-bit cell codes
func (b Board) codes() []uint8 {
	out := make([]uint8, len(b.cells))
	for i, c := range b.cells {
		out[i] = uint8(c)
	}
	return out
}

// Key returns the board's compact cache key.
func (b Board) Key() positionid.PositionKey {
	return positionid.MakePositionKey(b.size, b.codes())
}

// PositionID encodes the state as a URL-safe position ID.
func (s *GameState) PositionID() string {
	return positionid.PositionID(positionid.Position{
		Size:  s.board.size,
		Mover: uint8(s.mover),
		Cells: s.board.codes(),
	})
}

// ParsePosition decodes a position ID into a game state.
func ParsePosition(id string) (*GameState, error) {
	p, err := positionid.FromPositionID(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}
	if err := validateSize(p.Size); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	b := Board{size: p.Size, cells: make([]CellState, len(p.Cells))}
	for i, c := range p.Cells {
		b.cells[i] = CellState(c)
	}
	return &GameState{board: b, mover: CellState(p.Mover)}, nil
}

// ParseRows builds a board from text rows using X for the first color, O for
// the second and '.' for empty, the same form Board.String produces.
func ParseRows(rows []string) (Board, error) {
	grid := make([][]CellState, len(rows))
	for x, row := range rows {
		grid[x] = make([]CellState, len(row))
		for y, ch := range row {
			switch ch {
			case 'X', 'x':
				grid[x][y] = FirstColor
			case 'O', 'o':
				grid[x][y] = SecondColor
			case '.':
				grid[x][y] = Empty
			default:
				return Board{}, fmt.Errorf("%w: unexpected %q at (%d,%d)", ErrInvalidBoard, ch, x, y)
			}
		}
	}
	return NewBoard(grid)
}

// Lines renders the board as text rows, the inverse of ParseRows.
func (b Board) Lines() []string {
	lines := make([]string, b.size)
	for x := range lines {
		row := make([]byte, b.size)
		for y := range row {
			row[y] = b.get(x, y).symbol()
		}
		lines[x] = string(row)
	}
	return lines
}
