// reversi - command-line reversi analysis engine
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/reversi/pkg/engine"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "newgame":
		cmdNewGame(args)
	case "encode":
		cmdEncode(args)
	case "moves":
		cmdMoves(args)
	case "place":
		cmdPlace(args)
	case "pass":
		cmdPass(args)
	case "best":
		cmdBest(args)
	case "selfplay":
		cmdSelfPlay(args)
	case "rollout":
		cmdRollout(args)
	case "train":
		cmdTrain(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`reversi - Reversi Analysis Engine

Usage: reversi <command> [options]

Commands:
  newgame   Print the standard opening for a board size
  encode    Build a position ID from text rows
  moves     List legal placements
  place     Apply a placement
  pass      Apply a forced pass
  best      Search for the best move
  selfplay  Let the engine play both sides to the end
  rollout   Monte Carlo rollout
  train     Train a neural evaluator by self-play

Use "reversi <command> -h" for command-specific help.

Position ID Format:
  Positions are URL-safe base64 strings carrying the board size, the side
  to move and every cell. "reversi newgame" and "reversi encode" print them.
  Rows use X for the first color, O for the second and . for empty.`)
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

// positionFlags registers -position and its short form
func positionFlags(fs *flag.FlagSet) func() string {
	long := fs.String("position", "", "Position ID")
	short := fs.String("p", "", "Position ID (short form)")
	return func() string {
		if *long != "" {
			return *long
		}
		return *short
	}
}

// engineFlags registers the evaluator options shared by searching commands
func engineFlags(fs *flag.FlagSet) *engine.EngineOptions {
	opts := &engine.EngineOptions{}
	fs.StringVar(&opts.Evaluator, "eval", engine.EvalDisk, "Evaluator: disk, positional or neural")
	fs.StringVar(&opts.NeuralWeightsFile, "weights", "", "Neural network JSON (with -eval neural)")
	fs.IntVar(&opts.Workers, "workers", 0, "Root moves searched in parallel (0 = serial)")
	return opts
}

func requirePosition(command, pos string) *engine.GameState {
	if pos == "" {
		fmt.Fprintln(os.Stderr, "Error: position required")
		fmt.Fprintf(os.Stderr, "Usage: reversi %s -position <positionID>\n", command)
		os.Exit(1)
	}
	s, err := engine.ParsePosition(pos)
	if err != nil {
		fail("%v", err)
	}
	return s
}

func createEngine(opts *engine.EngineOptions) *engine.Engine {
	e, err := engine.NewEngine(*opts)
	if err != nil {
		fail("failed to create engine: %v", err)
	}
	return e
}

func printState(s *engine.GameState) {
	fmt.Print(s.Board().String())
	b := s.Board()
	fmt.Printf("X: %d  O: %d  score: %+d\n", b.Count(engine.FirstColor), b.Count(engine.SecondColor), s.Score())
	if s.IsTerminal() {
		fmt.Printf("Game over: %s\n", s.Outcome())
	} else {
		fmt.Printf("To move: %s\n", s.Mover())
	}
	fmt.Printf("Position: %s\n", s.PositionID())
}

func cmdNewGame(args []string) {
	fs := flag.NewFlagSet("newgame", flag.ExitOnError)
	size := fs.Int("size", engine.DefaultBoardSize, "Board edge (even, 4-16)")
	fs.Parse(args)

	s, err := engine.NewGame(*size)
	if err != nil {
		fail("%v", err)
	}
	printState(s)
}

func cmdEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	rows := fs.String("rows", "", "Board rows separated by '/' (e.g. ..../.XO./.OX./....)")
	second := fs.Bool("second", false, "Second color to move")
	fs.Parse(args)

	if *rows == "" {
		fmt.Fprintln(os.Stderr, "Error: rows required")
		fmt.Fprintln(os.Stderr, "Usage: reversi encode -rows <r1/r2/...> [-second]")
		os.Exit(1)
	}

	b, err := engine.ParseRows(strings.Split(*rows, "/"))
	if err != nil {
		fail("%v", err)
	}
	mover := engine.FirstColor
	if *second {
		mover = engine.SecondColor
	}
	s, err := engine.Construct(b, mover)
	if err != nil {
		fail("%v", err)
	}
	printState(s)
}

func cmdMoves(args []string) {
	fs := flag.NewFlagSet("moves", flag.ExitOnError)
	pos := positionFlags(fs)
	fs.Parse(args)

	s := requirePosition("moves", pos())
	if s.IsTerminal() {
		fmt.Println("Game over")
		return
	}

	var moves []string
	for m := range s.LegalMoves() {
		moves = append(moves, m.String())
	}
	if len(moves) == 0 {
		fmt.Printf("No legal moves for %s (must pass)\n", s.Mover())
		return
	}
	fmt.Printf("Legal moves for %s: %s\n", s.Mover(), strings.Join(moves, " "))
}

// parseCoord reads "x,y"
func parseCoord(str string) (int, int, error) {
	parts := strings.Split(str, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("move should be in format 'x,y'")
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return 0, 0, fmt.Errorf("coordinates must be integers")
	}
	return x, y, nil
}

func cmdPlace(args []string) {
	fs := flag.NewFlagSet("place", flag.ExitOnError)
	pos := positionFlags(fs)
	move := fs.String("move", "", "Placement as x,y")
	fs.Parse(args)

	s := requirePosition("place", pos())
	if *move == "" {
		fail("move required (e.g. -move 2,4)")
	}
	x, y, err := parseCoord(*move)
	if err != nil {
		fail("%v", err)
	}

	next, err := s.Play(x, y)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("%s plays (%d,%d), flipping %d\n", s.Mover(), x, y, engine.Flips(s.Board(), x, y, s.Mover()))
	printState(next)
}

func cmdPass(args []string) {
	fs := flag.NewFlagSet("pass", flag.ExitOnError)
	pos := positionFlags(fs)
	fs.Parse(args)

	s := requirePosition("pass", pos())
	if s.CanMakeMove() || s.IsTerminal() {
		fail("%s may not pass", s.Mover())
	}
	printState(s.Pass())
}

func formatCandidate(c engine.Candidate) string {
	if c.Pass {
		return "pass"
	}
	return c.Move.String()
}

func cmdBest(args []string) {
	fs := flag.NewFlagSet("best", flag.ExitOnError)
	pos := positionFlags(fs)
	depth := fs.Int("depth", engine.DefaultDepth, "Search depth in plies")
	opts := engineFlags(fs)
	fs.Parse(args)

	s := requirePosition("best", pos())
	e := createEngine(opts)

	start := time.Now()
	cands := e.AnalyzeRoot(s, *depth, nil)
	elapsed := time.Since(start)

	best, ok := engine.SelectBest(cands, s.Mover())
	if !ok {
		fmt.Println("Game over")
		return
	}

	fmt.Printf("Depth %d, %d nodes, %.2fs (%s evaluator):\n", *depth, e.Nodes(), elapsed.Seconds(), e.Evaluator().Name())
	for _, c := range cands {
		marker := " "
		if c.Index == best.Index {
			marker = "*"
		}
		fmt.Printf(" %s %-8s  %s\n", marker, formatCandidate(c), c.Result)
	}
	fmt.Printf("Best: %s\n", formatCandidate(best))
	fmt.Printf("Position: %s\n", best.State.PositionID())
}

func cmdSelfPlay(args []string) {
	fs := flag.NewFlagSet("selfplay", flag.ExitOnError)
	pos := positionFlags(fs)
	size := fs.Int("size", engine.DefaultBoardSize, "Board edge when no position is given")
	depth := fs.Int("depth", engine.DefaultDepth, "Search depth in plies")
	opts := engineFlags(fs)
	fs.Parse(args)

	var s *engine.GameState
	if p := pos(); p != "" {
		s = requirePosition("selfplay", p)
	} else {
		var err error
		if s, err = engine.NewGame(*size); err != nil {
			fail("%v", err)
		}
	}
	e := createEngine(opts)

	for ply := 1; ; ply++ {
		e.ResetNodes()
		c, ok := e.Best(s, *depth)
		if !ok {
			break
		}
		fmt.Printf("%3d. %-6s %-8s %-12s %d nodes\n", ply, s.Mover(), formatCandidate(c), c.Result, e.Nodes())
		s = c.State
	}
	printState(s)
}

func cmdRollout(args []string) {
	fs := flag.NewFlagSet("rollout", flag.ExitOnError)
	pos := positionFlags(fs)
	trials := fs.Int("trials", 1000, "Number of games to simulate")
	truncate := fs.Int("truncate", 0, "Truncate rollout at N plies (0 = play to end)")
	seed := fs.Int64("seed", 0, "Random seed (0 = random)")
	greedy := fs.Bool("greedy", false, "Play the move flipping the most disks instead of a random one")
	opts := engineFlags(fs)
	fs.Parse(args)

	s := requirePosition("rollout", pos())
	e := createEngine(opts)

	ropts := engine.RolloutOptions{
		Trials:   *trials,
		Workers:  opts.Workers,
		Truncate: *truncate,
		Seed:     *seed,
		Greedy:   *greedy,
	}

	start := time.Now()
	result := e.Rollout(s, ropts)
	elapsed := time.Since(start)

	fmt.Printf("Rollout (%d trials, %.1fs):\n", result.TrialsCompleted, elapsed.Seconds())
	fmt.Printf("  Disk diff: %+.2f ± %.2f (95%% CI: ±%.2f)\n", result.MeanDiff, result.DiffStdDev, result.DiffCI)
	fmt.Printf("  First:  %.1f%%\n", result.FirstWinRate*100)
	fmt.Printf("  Second: %.1f%%\n", result.SecondWinRate*100)
	fmt.Printf("  Draw:   %.1f%%\n", result.DrawRate*100)
}

func cmdTrain(args []string) {
	cfg := engine.DefaultTrainingConfig()

	fs := flag.NewFlagSet("train", flag.ExitOnError)
	from := fs.String("from", "", "Network JSON to continue training (default: fresh network)")
	size := fs.Int("size", cfg.Network.BoardSize, "Board edge for a fresh network")
	fs.IntVar(&cfg.Games, "games", cfg.Games, "Self-play games")
	fs.IntVar(&cfg.Depth, "depth", cfg.Depth, "Search depth for self-play moves")
	fs.Float64Var(&cfg.Exploration, "explore", cfg.Exploration, "Probability of a random move")
	fs.IntVar(&cfg.BatchSize, "batch", cfg.BatchSize, "Examples per fitting round")
	fs.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "Passes over each batch")
	fs.Float64Var(&cfg.LearningRate, "lr", cfg.LearningRate, "Learning rate")
	fs.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 = random)")
	fs.StringVar(&cfg.Output, "out", "", "Where to write the trained network JSON")
	fs.Parse(args)

	if cfg.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output required")
		fmt.Fprintln(os.Stderr, "Usage: reversi train -out <file.json> [-games N] [-size N]")
		os.Exit(1)
	}

	if *from != "" {
		nc, err := engine.LoadNetworkConfig(*from)
		if err != nil {
			fail("%v", err)
		}
		cfg.Network = nc
	} else {
		cfg.Network.BoardSize = *size
	}

	cfg.Report = func(st engine.TrainingStats) {
		if st.Games%10 == 0 {
			fmt.Printf("  %d games, %d examples, %d rounds (X %d / O %d / draw %d)\n",
				st.Games, st.Examples, st.Rounds, st.FirstWins, st.SecondWins, st.Draws)
		}
	}

	start := time.Now()
	_, stats, err := engine.TrainNeural(cfg)
	if err != nil {
		fail("%v", err)
	}
	fmt.Printf("Trained on %d examples from %d games in %.1fs, saved to %s\n",
		stats.Examples, stats.Games, time.Since(start).Seconds(), cfg.Output)
}
