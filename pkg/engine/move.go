package engine

import "fmt"

// Coord is a board coordinate, x the row and y the column.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// direction is one of the eight rays out of a cell
type direction struct {
	dx, dy int
}

// directions is {-1,0,+1} × {-1,0,+1} without the center
var directions = func() []direction {
	dirs := make([]direction, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			dirs = append(dirs, direction{dx, dy})
		}
	}
	return dirs
}()

// flanked walks from (x, y) along d and returns how many opponent disks lie
// between (x, y) and the first mover disk on the ray. It returns 0 when the
// ray hits an empty cell or the edge first, or when the adjacent cell is
// already the mover's.
func flanked(b Board, x, y int, d direction, mover CellState) int {
	opp := mover.Opponent()
	crossed := 0
	for cx, cy := x+d.dx, y+d.dy; b.InBounds(cx, cy); cx, cy = cx+d.dx, cy+d.dy {
		switch b.get(cx, cy) {
		case opp:
			crossed++
		case mover:
			return crossed
		default:
			return 0
		}
	}
	return 0
}

// CanPlace reports whether mover may place a disk at (x, y): the cell is on
// the board, empty, and at least one ray from it crosses one or more opponent
// disks before reaching a mover disk.
func CanPlace(b Board, x, y int, mover CellState) bool {
	if !mover.IsColor() {
		return false
	}
	if c, ok := b.At(x, y); !ok || c != Empty {
		return false
	}
	for _, d := range directions {
		if flanked(b, x, y, d, mover) > 0 {
			return true
		}
	}
	return false
}

// Apply returns a new board with mover's disk at (x, y) and every flanked
// opponent disk flipped. The input board is never modified. Off-board
// coordinates or a non-color mover decline the operation and return a copy of
// the input unchanged. Apply does not check legality; use CanPlace first.
func Apply(b Board, x, y int, mover CellState) Board {
	next := b.clone()
	if !b.InBounds(x, y) || !mover.IsColor() {
		return next
	}

	next.set(x, y, mover)
	for _, d := range directions {
		// rays out of one cell are disjoint, so judging on the input is exact
		n := flanked(b, x, y, d, mover)
		for i := 1; i <= n; i++ {
			next.set(x+i*d.dx, y+i*d.dy, mover)
		}
	}
	return next
}

// Flips returns the number of disks a placement at (x, y) would flip.
func Flips(b Board, x, y int, mover CellState) int {
	if !b.InBounds(x, y) || !mover.IsColor() {
		return 0
	}
	total := 0
	for _, d := range directions {
		total += flanked(b, x, y, d, mover)
	}
	return total
}
