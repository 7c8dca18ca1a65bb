package engine

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestNewEngine(t *testing.T) {
	e, err := NewEngine(EngineOptions{})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if e.Evaluator().Name() != EvalDisk {
		t.Errorf("default evaluator = %q, want %q", e.Evaluator().Name(), EvalDisk)
	}
	if e.Cache() == nil {
		t.Error("expected the default cache to be enabled")
	}
	if e.Workers() != 1 {
		t.Errorf("Workers() = %d, want 1", e.Workers())
	}
}

func TestNewEngineOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    EngineOptions
		wantErr bool
	}{
		{"positional", EngineOptions{Evaluator: EvalPositional}, false},
		{"neural untrained", EngineOptions{Evaluator: EvalNeural}, false},
		{"unknown evaluator", EngineOptions{Evaluator: "material"}, true},
		{"missing weights", EngineOptions{Evaluator: EvalNeural, NeuralWeightsFile: filepath.Join(t.TempDir(), "none.json")}, true},
		{"malformed weights", EngineOptions{Evaluator: EvalNeural, NeuralWeightsFile: writeFile(t, "bad.json",
			`{"board_size":8,"hidden_layers":[32,16],"weights":[[[0.1]],[[0.1]],[[0.1]]]}`)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewEngine(tc.opts)
			if (err != nil) != tc.wantErr {
				t.Errorf("NewEngine error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}

	e, err := NewEngine(EngineOptions{CacheSize: -1, Workers: 3})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if e.Cache() != nil {
		t.Error("negative CacheSize should disable the cache")
	}
	if e.Workers() != 3 {
		t.Errorf("Workers() = %d, want 3", e.Workers())
	}
}

func TestDiskEvaluator(t *testing.T) {
	ev := DiskEvaluator{}
	if got := ev.Evaluate(startingBoard(t)); got != 0 {
		t.Errorf("starting board = %d, want 0", got)
	}

	b := boardFromStrings(t,
		"XXO.",
		"X...",
		"....",
		"...O",
	)
	if got := ev.Evaluate(b); got != 1 {
		t.Errorf("Evaluate = %d, want 1", got)
	}
}

func TestSquareWeights(t *testing.T) {
	w := SquareWeights(8)
	tests := []struct {
		x, y int
		want float64
	}{
		{0, 0, weightCorner},
		{7, 7, weightCorner},
		{1, 1, weightXSquare},
		{6, 1, weightXSquare},
		{0, 1, weightCSquare},
		{1, 7, weightCSquare},
		{0, 3, weightEdge},
		{4, 7, weightEdge},
		{3, 3, weightInterior},
	}
	for _, tc := range tests {
		if got := w[tc.x*8+tc.y]; got != tc.want {
			t.Errorf("weight(%d,%d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}
}

func TestPositionalEvaluator(t *testing.T) {
	ev := NewPositionalEvaluator()

	if got := ev.Evaluate(emptyBoard(t, 8)); got != 0 {
		t.Errorf("empty board = %d, want 0", got)
	}

	corner := boardFromStrings(t,
		"X...",
		"....",
		"....",
		"....",
	)
	if got := ev.Evaluate(corner); got <= 0 {
		t.Errorf("first-color corner = %d, want positive", got)
	}

	xSquare := boardFromStrings(t,
		"....",
		".X..",
		"....",
		"....",
	)
	if got := ev.Evaluate(xSquare); got >= 0 {
		t.Errorf("first-color X-square = %d, want negative", got)
	}

	allFirst := boardFromStrings(t, "XXXX", "XXXX", "XXXX", "XXXX")
	allSecond := boardFromStrings(t, "OOOO", "OOOO", "OOOO", "OOOO")
	if a, b := ev.Evaluate(allFirst), ev.Evaluate(allSecond); a != -b {
		t.Errorf("color swap not antisymmetric: %d vs %d", a, b)
	}
}

func TestEvaluatorsBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(6))

	nn, err := NewNeuralEvaluator(NetworkConfig{Name: "t", BoardSize: 6, HiddenLayers: []int{8}})
	if err != nil {
		t.Fatalf("NewNeuralEvaluator: %v", err)
	}
	evaluators := []Evaluator{DiskEvaluator{}, NewPositionalEvaluator(), nn}

	for i := 0; i < 100; i++ {
		n := []int{4, 6, 8}[i%3]
		b := randomBoard(rng, n, rng.Float64())
		for _, ev := range evaluators {
			if v := ev.Evaluate(b); v > n*n || v < -n*n {
				t.Fatalf("%s scored %d on a %dx%d board", ev.Name(), v, n, n)
			}
		}
	}
}

func TestNeuralEvaluatorSaturatedOutputClamped(t *testing.T) {
	cfg := NetworkConfig{Name: "t", BoardSize: 4, HiddenLayers: []int{4}}
	base, err := NewNeuralEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewNeuralEvaluator: %v", err)
	}

	weights := base.Weights()
	for _, layer := range weights {
		for _, neuron := range layer {
			for k := range neuron {
				neuron[k] = 1000
			}
		}
	}
	cfg.Weights = weights
	big, err := NewNeuralEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewNeuralEvaluator: %v", err)
	}

	allFirst := boardFromStrings(t, "XXXX", "XXXX", "XXXX", "XXXX")
	if got := big.Evaluate(allFirst); got != 16 {
		t.Errorf("saturated output = %d, want 16", got)
	}
}

func TestNeuralEvaluatorWeightsRoundTrip(t *testing.T) {
	cfg := NetworkConfig{Name: "t", BoardSize: 4, HiddenLayers: []int{6, 3}}
	a, err := NewNeuralEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewNeuralEvaluator: %v", err)
	}

	cfg.Weights = a.Weights()
	b, err := NewNeuralEvaluator(cfg)
	if err != nil {
		t.Fatalf("NewNeuralEvaluator with weights: %v", err)
	}

	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 30; i++ {
		board := randomBoard(rng, 4, 0.7)
		if x, y := a.Evaluate(board), b.Evaluate(board); x != y {
			t.Fatalf("evaluations differ after weight copy: %d vs %d", x, y)
		}
	}
}

func TestNeuralEvaluatorSizeFallback(t *testing.T) {
	nn, err := NewNeuralEvaluator(NetworkConfig{Name: "t", BoardSize: 4, HiddenLayers: []int{4}})
	if err != nil {
		t.Fatalf("NewNeuralEvaluator: %v", err)
	}

	s, err := newGame(t).Play(2, 4)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if got := nn.Evaluate(s.Board()); got != 3 {
		t.Errorf("8x8 board on a 4x4 network = %d, want disk differential 3", got)
	}
}

func TestNewNeuralEvaluatorErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  NetworkConfig
	}{
		{"odd size", NetworkConfig{BoardSize: 5, HiddenLayers: []int{4}}},
		{"zero width", NetworkConfig{BoardSize: 4, HiddenLayers: []int{0}}},
		{"layer count", NetworkConfig{BoardSize: 4, HiddenLayers: []int{4}, Weights: [][][]float64{{{1}}}}},
		{"neuron count", NetworkConfig{BoardSize: 4, HiddenLayers: []int{2}, Weights: [][][]float64{
			{make([]float64, 17)},
			{make([]float64, 2)},
		}}},
		{"input width", NetworkConfig{BoardSize: 4, HiddenLayers: []int{2}, Weights: [][][]float64{
			{make([]float64, 17), make([]float64, 16)},
			{make([]float64, 2)},
		}}},
		{"output width", NetworkConfig{BoardSize: 4, HiddenLayers: []int{2}, Weights: [][][]float64{
			{make([]float64, 17), make([]float64, 17)},
			{make([]float64, 3)},
		}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewNeuralEvaluator(tc.cfg); err == nil {
				t.Error("NewNeuralEvaluator succeeded, want error")
			}
		})
	}
}

func TestEngineCachesStaticValues(t *testing.T) {
	e, err := NewEngine(EngineOptions{CacheSize: 1024})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	s := newGame(t)

	first := e.Evaluate(s, 3, minResult, maxResult)
	_, hitsBefore, adds := e.Cache().Stats()
	if adds == 0 {
		t.Fatal("search stored nothing in the cache")
	}

	second := e.Evaluate(s, 3, minResult, maxResult)
	_, hitsAfter, _ := e.Cache().Stats()
	if hitsAfter <= hitsBefore {
		t.Error("repeated search produced no cache hits")
	}
	if first != second {
		t.Errorf("cached search = %v, uncached = %v", second, first)
	}
}

// writeFile writes content to a file in a fresh temp dir and returns its path
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// emptyBoard returns an empty n×n board
func emptyBoard(t *testing.T, n int) Board {
	t.Helper()
	b, err := EmptyBoard(n)
	if err != nil {
		t.Fatalf("EmptyBoard: %v", err)
	}
	return b
}

func BenchmarkSearchDepth4(b *testing.B) {
	e := NewEngineWithEvaluator(NewPositionalEvaluator())
	s, err := NewGame(DefaultBoardSize)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Best(s, 4)
	}
}
