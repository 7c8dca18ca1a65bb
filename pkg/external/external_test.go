package external

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/reversi/pkg/engine"
)

const start4 = "board:X:..../.XO./.OX./...."

func TestParseTextBoard(t *testing.T) {
	s, err := ParseTextBoard(start4)
	if err != nil {
		t.Fatalf("ParseTextBoard error: %v", err)
	}
	if s.Board().Size() != 4 {
		t.Errorf("Size = %d, want 4", s.Board().Size())
	}
	if s.Mover() != engine.FirstColor {
		t.Errorf("Mover = %v, want first", s.Mover())
	}
	if got := FormatTextBoard(s); got != start4 {
		t.Errorf("FormatTextBoard = %q, want %q", got, start4)
	}

	s, err = ParseTextBoard("o:XO../..../..../....")
	if err != nil {
		t.Fatalf("ParseTextBoard without prefix: %v", err)
	}
	if s.Mover() != engine.SecondColor {
		t.Errorf("Mover = %v, want second", s.Mover())
	}

	s, err = ParseTextBoard("BOARD:O:XO../..../..../....")
	if err != nil {
		t.Fatalf("ParseTextBoard with upper-case prefix: %v", err)
	}
	if got, want := FormatTextBoard(s), "board:O:XO../..../..../...."; got != want {
		t.Errorf("FormatTextBoard = %q, want %q", got, want)
	}
}

func TestParseTextBoardInvalid(t *testing.T) {
	tests := []string{
		"invalid",
		"board:Z:..../.XO./.OX./....",
		"board:X:..../.XO./.OX.",
		"board:X:..../.X?./.OX./....",
		"board:X:...../.XO../.OX../...../.....",
		"board:X:O:....",
	}

	for _, tc := range tests {
		if _, err := ParseTextBoard(tc); err == nil {
			t.Errorf("ParseTextBoard(%q) succeeded, want error", tc)
		}
	}
}

func TestParseMove(t *testing.T) {
	tests := []struct {
		args    []string
		x, y    int
		wantErr bool
	}{
		{[]string{"2,4"}, 2, 4, false},
		{[]string{"3", "5"}, 3, 5, false},
		{[]string{" 1, 0"}, 1, 0, false},
		{[]string{"a,b"}, 0, 0, true},
		{[]string{"1,2,3"}, 0, 0, true},
		{nil, 0, 0, true},
	}

	for _, tc := range tests {
		x, y, err := ParseMove(tc.args)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseMove(%q) error = %v, wantErr %v", tc.args, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && (x != tc.x || y != tc.y) {
			t.Errorf("ParseMove(%q) = %d,%d, want %d,%d", tc.args, x, y, tc.x, tc.y)
		}
	}
}

func TestFormatMove(t *testing.T) {
	if got := FormatMove(engine.Candidate{Move: engine.Coord{X: 2, Y: 4}}); got != "2,4" {
		t.Errorf("FormatMove = %q, want 2,4", got)
	}
	if got := FormatMove(engine.Candidate{Pass: true}); got != "pass" {
		t.Errorf("FormatMove = %q, want pass", got)
	}
}

func newTestServer() *Server {
	return NewServer(engine.NewEngineWithEvaluator(engine.DiskEvaluator{}), ServerOptions{Depth: 1})
}

func TestProcessCommandGame(t *testing.T) {
	s := newTestServer()
	sess := s.newSession()

	steps := []struct {
		cmd  string
		want string
	}{
		{"newgame 4", start4 + "\n"},
		{"moves", "0,2 1,3 2,0 3,1\n"},
		{"pass", "Error: first may not pass\n"},
		{"play 0,0", "Error: illegal move: first cannot place at (0,0)\n"},
		{"play 9 9", "Error: coordinate out of range: (9,9) on a 4x4 board\n"},
		{"best", "0,2 +3\n"},
		{"play 0,2", "board:O:..X./.XX./.OX./....\n"},
		{"board", "board:O:..X./.XX./.OX./....\n"},
		{"play 0 1", "board:X:.OX./.OX./.OX./....\n"},
		{"BOARD:O:XO../..../..../....", "board:O:XO../..../..../....\n"},
		{"moves", "pass\n"},
		{"pass", "board:X:XO../..../..../....\n"},
		{"go", "0,2 board:O:XXX./..../..../....\n"},
		{"moves", "game over: first wins +3\n"},
		{"best", "Error: game over (first wins)\n"},
	}

	for _, st := range steps {
		if got := s.processCommand(sess, st.cmd); got != st.want {
			t.Errorf("%s: got %q, want %q", st.cmd, got, st.want)
		}
	}
}

func TestProcessCommandSession(t *testing.T) {
	s := newTestServer()
	sess := s.newSession()

	if sess.depth != 1 {
		t.Errorf("session depth = %d, want 1", sess.depth)
	}

	tests := []struct {
		cmd    string
		prefix string
	}{
		{"version", "reversi text protocol"},
		{"help", "Available commands"},
		{"set depth 3", "depth set to 3"},
		{"set depth 0", "Error:"},
		{"set depth 99", "Error:"},
		{"set colour red", "Error: unknown option"},
		{"set depth", "Error:"},
		{"newgame 5", "Error:"},
		{"newgame big", "Error:"},
		{"position", "Error:"},
		{"position ???", "Error:"},
		{"teleport", "Error: unknown command"},
		{"quit", "Goodbye"},
	}

	for _, tc := range tests {
		if got := s.processCommand(sess, tc.cmd); !strings.HasPrefix(got, tc.prefix) {
			t.Errorf("%s: got %q, want prefix %q", tc.cmd, got, tc.prefix)
		}
	}
	if sess.depth != 3 {
		t.Errorf("session depth = %d after set, want 3", sess.depth)
	}
}

func TestProcessCommandPositionID(t *testing.T) {
	s := newTestServer()
	sess := s.newSession()

	s.processCommand(sess, "newgame 6")
	id := strings.TrimSpace(s.processCommand(sess, "id"))

	other := s.newSession()
	got := s.processCommand(other, "position "+id)

	want, _ := engine.NewGame(6)
	if got != FormatTextBoard(want)+"\n" {
		t.Errorf("position %s = %q, want %q", id, got, FormatTextBoard(want))
	}
}

func TestServerTCP(t *testing.T) {
	s := NewServer(engine.NewEngineWithEvaluator(engine.DiskEvaluator{}), ServerOptions{Host: "127.0.0.1", Depth: 1})
	if err := s.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer s.Stop()

	if err := s.Start(); err == nil {
		t.Error("second Start succeeded, want error")
	}

	conn, err := net.Dial("tcp", s.Addr().String())
	if err != nil {
		t.Fatalf("Dial error: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(10 * time.Second))

	fmt.Fprint(conn, "newgame 4\n\nmoves\nquit\n")

	reader := bufio.NewReader(conn)
	want := []string{start4, "0,2 1,3 2,0 3,1", "Goodbye"}
	for _, w := range want {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("ReadString error: %v (want %q)", err, w)
		}
		if got := strings.TrimSpace(line); got != w {
			t.Errorf("response = %q, want %q", got, w)
		}
	}

	if _, err := reader.ReadString('\n'); err == nil {
		t.Error("connection still open after quit")
	}
}
