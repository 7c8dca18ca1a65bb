package external

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/reversi/pkg/engine"
)

// Text boards put a whole position on one line:
//
//	board:<mover>:<row>/<row>/...
//
// mover is X (first color) or O (second color); rows use X, O and '.'.
// Example: board:X:..../.XO./.OX./....
const textBoardPrefix = "board:"

// ParseTextBoard parses a text board.
func ParseTextBoard(s string) (*engine.GameState, error) {
	s = strings.TrimSpace(s)
	if len(s) >= len(textBoardPrefix) && strings.EqualFold(s[:len(textBoardPrefix)], textBoardPrefix) {
		s = s[len(textBoardPrefix):]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid text board: expected <mover>:<rows>, got %d fields", len(parts))
	}

	var mover engine.CellState
	switch parts[0] {
	case "X", "x":
		mover = engine.FirstColor
	case "O", "o":
		mover = engine.SecondColor
	default:
		return nil, fmt.Errorf("invalid text board: mover %q", parts[0])
	}

	b, err := engine.ParseRows(strings.Split(parts[1], "/"))
	if err != nil {
		return nil, err
	}
	return engine.Construct(b, mover)
}

// FormatTextBoard formats a position as a text board.
func FormatTextBoard(s *engine.GameState) string {
	mover := "X"
	if s.Mover() == engine.SecondColor {
		mover = "O"
	}
	return textBoardPrefix + mover + ":" + strings.Join(s.Board().Lines(), "/")
}

// FormatMove formats a root candidate as "x,y" or "pass".
func FormatMove(c engine.Candidate) string {
	if c.Pass {
		return "pass"
	}
	return fmt.Sprintf("%d,%d", c.Move.X, c.Move.Y)
}

// ParseMove parses "x,y" (or "x y" split across args).
func ParseMove(args []string) (x, y int, err error) {
	parts := args
	if len(args) == 1 {
		parts = strings.Split(args[0], ",")
	}
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("move should be x,y")
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("coordinates must be integers")
	}
	return x, y, nil
}
