package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/patrikeh/go-deep"
)

// NetworkConfig defines the evaluation network architecture and weights.
type NetworkConfig struct {
	Name         string        `json:"name"`
	BoardSize    int           `json:"board_size"`
	HiddenLayers []int         `json:"hidden_layers"`
	Weights      [][][]float64 `json:"weights,omitempty"`
}

// DefaultNetworkConfig returns an untrained 8×8 network layout.
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Name:         "default",
		BoardSize:    DefaultBoardSize,
		HiddenLayers: []int{32, 16},
	}
}

// LoadNetworkConfig reads a network config from a JSON file.
func LoadNetworkConfig(path string) (NetworkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NetworkConfig{}, fmt.Errorf("failed to read network file: %w", err)
	}
	var cfg NetworkConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return NetworkConfig{}, fmt.Errorf("failed to parse network file %s: %w", path, err)
	}
	return cfg, nil
}

// NeuralEvaluator scores boards with a feed-forward regression network over
// the ±1/0 occupancy vector. The single output is read as a fraction of N²
// and clamped to [-N², N²]. Boards of a size the network was not built for
// fall back to disk differential.
type NeuralEvaluator struct {
	mu      sync.Mutex // Predict writes neuron activations
	network *deep.Neural
	config  NetworkConfig
}

// NewNeuralEvaluator builds the network and applies any configured weights.
func NewNeuralEvaluator(config NetworkConfig) (*NeuralEvaluator, error) {
	if err := validateSize(config.BoardSize); err != nil {
		return nil, fmt.Errorf("network board size: %w", err)
	}
	for _, h := range config.HiddenLayers {
		if h <= 0 {
			return nil, fmt.Errorf("invalid hidden layer width %d", h)
		}
	}

	layout := append(append([]int{}, config.HiddenLayers...), 1)
	network := deep.NewNeural(&deep.Config{
		Inputs:     config.BoardSize * config.BoardSize,
		Layout:     layout,
		Activation: deep.ActivationTanh,
		Mode:       deep.ModeRegression,
		Weight:     deep.NewNormal(0.1, 0.0),
		Bias:       true,
	})

	if config.Weights != nil {
		if err := checkWeightShape(config.Weights, network.Weights()); err != nil {
			return nil, err
		}
		network.ApplyWeights(config.Weights)
	}

	return &NeuralEvaluator{network: network, config: config}, nil
}

// checkWeightShape reports whether weights fit the layer, neuron and synapse
// counts of a freshly built network. Hidden neurons carry a trailing bias
// synapse; the regression output neuron does not.
func checkWeightShape(weights, want [][][]float64) error {
	if len(weights) != len(want) {
		return fmt.Errorf("network weights have %d layers, want %d", len(weights), len(want))
	}
	for i := range want {
		if len(weights[i]) != len(want[i]) {
			return fmt.Errorf("network layer %d has %d neurons, want %d", i, len(weights[i]), len(want[i]))
		}
		for j := range want[i] {
			if len(weights[i][j]) != len(want[i][j]) {
				return fmt.Errorf("network layer %d neuron %d has %d weights, want %d",
					i, j, len(weights[i][j]), len(want[i][j]))
			}
		}
	}
	return nil
}

func (e *NeuralEvaluator) Name() string {
	return fmt.Sprintf("neural (%s)", e.config.Name)
}

func (e *NeuralEvaluator) Evaluate(b Board) int {
	n := b.Size()
	if n != e.config.BoardSize {
		return DiskEvaluator{}.Evaluate(b)
	}

	features := occupancy(b)

	e.mu.Lock()
	prediction := e.network.Predict(features)
	e.mu.Unlock()

	v := prediction[0]
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(-1, math.Min(1, v))
	return clampScore(int(math.Round(v*float64(n*n))), n)
}

// Weights returns the network's current weights, in the layout ApplyWeights expects.
func (e *NeuralEvaluator) Weights() [][][]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.network.Dump().Weights
}
