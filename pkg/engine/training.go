package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"

	"github.com/patrikeh/go-deep/training"
)

// TrainingConfig controls self-play training of a NeuralEvaluator
type TrainingConfig struct {
	Network      NetworkConfig // Starting architecture (and weights, if any)
	Games        int           // Self-play games to play
	Depth        int           // Search depth for self-play moves
	Exploration  float64       // Probability of a random move instead of the searched one
	BatchSize    int           // Examples collected before each fitting round
	Epochs       int           // Passes over each batch
	LearningRate float64
	Seed         int64  // 0 = random
	Output       string // Path to write the trained network JSON ("" = don't save)

	// Report, if set, is called after every game
	Report func(TrainingStats)
}

// TrainingStats tracks a training run
type TrainingStats struct {
	Games      int
	Examples   int
	Rounds     int
	FirstWins  int
	SecondWins int
	Draws      int
}

// DefaultTrainingConfig returns a small self-play schedule for the default network
func DefaultTrainingConfig() TrainingConfig {
	return TrainingConfig{
		Network:      DefaultNetworkConfig(),
		Games:        200,
		Depth:        1,
		Exploration:  0.1,
		BatchSize:    512,
		Epochs:       4,
		LearningRate: 0.01,
	}
}

var errTrainingConfig = errors.New("invalid training config")

// TrainNeural plays self-play games with the network being trained as the
// search evaluator, labels every position with the game's final disk
// differential as a fraction of N², and fits the network to those labels.
func TrainNeural(cfg TrainingConfig) (NetworkConfig, TrainingStats, error) {
	var stats TrainingStats
	switch {
	case cfg.Games <= 0:
		return NetworkConfig{}, stats, fmt.Errorf("%w: games must be positive", errTrainingConfig)
	case cfg.BatchSize <= 0:
		return NetworkConfig{}, stats, fmt.Errorf("%w: batch size must be positive", errTrainingConfig)
	case cfg.Exploration < 0 || cfg.Exploration > 1:
		return NetworkConfig{}, stats, fmt.Errorf("%w: exploration must be in [0,1]", errTrainingConfig)
	}
	if cfg.Epochs <= 0 {
		cfg.Epochs = 1
	}
	if cfg.Depth < 1 {
		cfg.Depth = 1
	}
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.01
	}
	if cfg.Seed == 0 {
		cfg.Seed = rand.Int63()
	}

	ev, err := NewNeuralEvaluator(cfg.Network)
	if err != nil {
		return NetworkConfig{}, stats, err
	}
	e := NewEngineWithEvaluator(ev)
	rng := rand.New(rand.NewSource(cfg.Seed))
	trainer := training.NewTrainer(training.NewSGD(cfg.LearningRate, 0.5, 0.0, false), 0)

	n := cfg.Network.BoardSize
	var pending training.Examples

	for game := 0; game < cfg.Games; game++ {
		s, err := NewGame(n)
		if err != nil {
			return NetworkConfig{}, stats, err
		}

		var seen []Board
		for !s.IsTerminal() {
			seen = append(seen, s.board)
			if rng.Float64() < cfg.Exploration {
				ts := s.Transitions()
				s = ts[rng.Intn(len(ts))].State
				continue
			}
			best, _ := e.Best(s, cfg.Depth)
			s = best.State
		}

		score := s.Score()
		switch {
		case score > 0:
			stats.FirstWins++
		case score < 0:
			stats.SecondWins++
		default:
			stats.Draws++
		}

		label := []float64{float64(score) / float64(n*n)}
		for _, b := range seen {
			pending = append(pending, training.Example{Input: occupancy(b), Response: label})
		}
		stats.Games++
		stats.Examples += len(seen)

		if len(pending) >= cfg.BatchSize || game == cfg.Games-1 {
			ev.fit(trainer, pending, cfg.Epochs)
			pending = nil
			stats.Rounds++
		}

		if cfg.Report != nil {
			cfg.Report(stats)
		}
	}

	out := cfg.Network
	out.Weights = ev.Weights()
	if cfg.Output != "" {
		if err := SaveNetworkConfig(cfg.Output, out); err != nil {
			return out, stats, err
		}
	}
	return out, stats, nil
}

// fit trains the network on examples
func (e *NeuralEvaluator) fit(trainer training.Trainer, examples training.Examples, epochs int) {
	if len(examples) == 0 {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	trainer.Train(e.network, examples, nil, epochs)
}

// SaveNetworkConfig writes a network config as JSON.
func SaveNetworkConfig(path string, cfg NetworkConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode network: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write network file: %w", err)
	}
	return nil
}
