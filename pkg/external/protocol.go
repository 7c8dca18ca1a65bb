// Package external implements a line-based text protocol for the engine.
// This allows other programs to drive the engine over a TCP socket.
//
// Protocol overview:
// - Server listens on a TCP port
// - Each connection holds its own game and search depth
// - Commands include: newgame, board, position, moves, play, pass, best, go
// - Positions travel as text boards or position IDs
// - Every command gets a one-line response; errors start with "Error:"
package external

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/yourusername/reversi/pkg/engine"
)

// MaxDepth bounds the per-session search depth.
const MaxDepth = 12

// Server implements the text protocol server.
type Server struct {
	engine   *engine.Engine
	listener net.Listener
	mu       sync.Mutex
	running  bool
	options  ServerOptions
}

// ServerOptions configures the text protocol server.
type ServerOptions struct {
	Host          string // Host to bind to ("" = all interfaces)
	Port          int    // TCP port to listen on (0 = any free port)
	Depth         int    // Initial search depth for new sessions
	PromptEnabled bool   // Send prompts after responses
}

// DefaultServerOptions returns sensible defaults.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		Port:          1234,
		Depth:         engine.DefaultDepth,
		PromptEnabled: true,
	}
}

// NewServer creates a new text protocol server.
func NewServer(eng *engine.Engine, opts ServerOptions) *Server {
	if opts.Depth < 1 || opts.Depth > MaxDepth {
		opts.Depth = engine.DefaultDepth
	}
	return &Server{
		engine:  eng,
		options: opts,
	}
}

// Start begins listening for connections.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	addr := net.JoinHostPort(s.options.Host, strconv.Itoa(s.options.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = listener
	s.running = true

	go s.acceptLoop()

	return nil
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.mu.Lock()
			running := s.running
			s.mu.Unlock()
			if !running {
				return
			}
			continue
		}

		go s.handleConnection(conn)
	}
}

// session is one connection's game
type session struct {
	state *engine.GameState
	depth int
}

func (s *Server) newSession() *session {
	start, _ := engine.NewGame(engine.DefaultBoardSize)
	return &session{state: start, depth: s.options.Depth}
}

// handleConnection handles a single client connection.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	sess := s.newSession()
	reader := bufio.NewScanner(conn)
	writer := bufio.NewWriter(conn)

	prompt := func() {
		if s.options.PromptEnabled {
			writer.WriteString("> ")
		}
		writer.Flush()
	}

	prompt()
	for reader.Scan() {
		line := strings.TrimSpace(reader.Text())
		if line == "" {
			prompt()
			continue
		}

		writer.WriteString(s.processCommand(sess, line))

		cmd := strings.ToLower(strings.Fields(line)[0])
		if cmd == "exit" || cmd == "quit" {
			writer.Flush()
			return
		}
		prompt()
	}
	if err := reader.Err(); err != nil {
		log.Printf("external: %s: %v", conn.RemoteAddr(), err)
	}
}

// processCommand processes a single command and returns the response.
func (s *Server) processCommand(sess *session, cmd string) string {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return "Error: empty command\n"
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "version":
		return "reversi text protocol 1.0\n"

	case "help":
		return helpResponse()

	case "exit", "quit":
		return "Goodbye\n"

	case "set":
		return s.handleSet(sess, args)

	case "newgame":
		return handleNewGame(sess, args)

	case "board":
		if len(args) == 0 {
			return FormatTextBoard(sess.state) + "\n"
		}
		return handleBoard(sess, args[0])

	case "position":
		return handlePosition(sess, args)

	case "id":
		return sess.state.PositionID() + "\n"

	case "moves":
		return handleMoves(sess)

	case "play":
		return handlePlay(sess, args)

	case "pass":
		return handlePass(sess)

	case "best":
		c, errResp := s.search(sess)
		if errResp != "" {
			return errResp
		}
		return fmt.Sprintf("%s %v\n", FormatMove(c), c.Result)

	case "go":
		c, errResp := s.search(sess)
		if errResp != "" {
			return errResp
		}
		sess.state = c.State
		return FormatMove(c) + " " + FormatTextBoard(sess.state) + "\n"

	default:
		if strings.HasPrefix(command, textBoardPrefix) {
			return handleBoard(sess, cmd)
		}
		return fmt.Sprintf("Error: unknown command '%s'\n", command)
	}
}

// helpResponse returns help text.
func helpResponse() string {
	return `Available commands:
  version          - Show version information
  help             - Show this help
  set depth <n>    - Set the search depth
  newgame [size]   - Start from the standard opening
  board [board:..] - Show or set the position as a text board
  position <id>    - Set the position from a position ID
  id               - Show the position ID
  moves            - List legal placements
  play <x,y>       - Place a disk
  pass             - Pass (only when no placement exists)
  best             - Show the engine's move without playing it
  go               - Let the engine play its move
  exit             - Close connection
`
}

// handleSet handles the set command.
func (s *Server) handleSet(sess *session, args []string) string {
	if len(args) < 2 {
		return "Error: set requires option and value\n"
	}

	option := strings.ToLower(args[0])
	value := args[1]

	switch option {
	case "depth", "plies":
		depth, err := strconv.Atoi(value)
		if err != nil || depth < 1 || depth > MaxDepth {
			return fmt.Sprintf("Error: depth must be 1-%d\n", MaxDepth)
		}
		sess.depth = depth
		return fmt.Sprintf("depth set to %d\n", depth)

	default:
		return fmt.Sprintf("Error: unknown option '%s'\n", option)
	}
}

func handleNewGame(sess *session, args []string) string {
	size := engine.DefaultBoardSize
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return "Error: size must be an integer\n"
		}
		size = n
	}
	st, err := engine.NewGame(size)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	sess.state = st
	return FormatTextBoard(st) + "\n"
}

func handleBoard(sess *session, board string) string {
	st, err := ParseTextBoard(board)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	sess.state = st
	return FormatTextBoard(st) + "\n"
}

func handlePosition(sess *session, args []string) string {
	if len(args) == 0 {
		return "Error: position requires an ID\n"
	}
	st, err := engine.ParsePosition(args[0])
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	sess.state = st
	return FormatTextBoard(st) + "\n"
}

func handleMoves(sess *session) string {
	if sess.state.IsTerminal() {
		return fmt.Sprintf("game over: %v %+d\n", sess.state.Outcome(), sess.state.Score())
	}
	var moves []string
	for m := range sess.state.LegalMoves() {
		moves = append(moves, fmt.Sprintf("%d,%d", m.X, m.Y))
	}
	if len(moves) == 0 {
		return "pass\n"
	}
	return strings.Join(moves, " ") + "\n"
}

func handlePlay(sess *session, args []string) string {
	x, y, err := ParseMove(args)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	next, err := sess.state.Play(x, y)
	if err != nil {
		return fmt.Sprintf("Error: %v\n", err)
	}
	sess.state = next
	return FormatTextBoard(next) + "\n"
}

func handlePass(sess *session) string {
	if sess.state.CanMakeMove() || sess.state.IsTerminal() {
		return fmt.Sprintf("Error: %v may not pass\n", sess.state.Mover())
	}
	sess.state = sess.state.Pass()
	return FormatTextBoard(sess.state) + "\n"
}

// search runs the session's search. A non-empty string is the error response.
func (s *Server) search(sess *session) (engine.Candidate, string) {
	c, ok := s.engine.Best(sess.state, sess.depth)
	if !ok {
		return engine.Candidate{}, fmt.Sprintf("Error: game over (%v)\n", sess.state.Outcome())
	}
	return c, ""
}
