package engine

import (
	"fmt"
	"sync/atomic"
)

// Evaluator kinds accepted by EngineOptions
const (
	EvalDisk       = "disk"
	EvalPositional = "positional"
	EvalNeural     = "neural"
)

// DefaultDepth is the search depth used when callers do not choose one
const DefaultDepth = 4

// Engine is the search engine: an evaluator, an optional static evaluation
// cache and the root-level worker count.
type Engine struct {
	evaluator   Evaluator
	evalContext uint32
	cache       *EvalCache
	workers     int

	nodes atomic.Uint64
}

// EngineOptions configures the engine
type EngineOptions struct {
	Evaluator         string // "disk" (default), "positional" or "neural"
	NeuralWeightsFile string // JSON NetworkConfig for the neural evaluator (empty = untrained default)
	CacheSize         int    // Static evaluation cache size (0 = default, negative = disabled)
	Workers           int    // Root children searched in parallel (0 or 1 = serial)
}

// defaultEngine backs GameState.GetNextOptimalBoard
var defaultEngine = NewEngineWithEvaluator(DiskEvaluator{})

// NewEngine creates a new engine with the given options
func NewEngine(opts EngineOptions) (*Engine, error) {
	var ev Evaluator
	switch opts.Evaluator {
	case "", EvalDisk:
		ev = DiskEvaluator{}
	case EvalPositional:
		ev = NewPositionalEvaluator()
	case EvalNeural:
		cfg := DefaultNetworkConfig()
		if opts.NeuralWeightsFile != "" {
			loaded, err := LoadNetworkConfig(opts.NeuralWeightsFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load neural evaluator: %w", err)
			}
			cfg = loaded
		}
		nn, err := NewNeuralEvaluator(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build neural evaluator: %w", err)
		}
		ev = nn
	default:
		return nil, fmt.Errorf("unknown evaluator %q", opts.Evaluator)
	}

	e := NewEngineWithEvaluator(ev)
	e.workers = opts.Workers

	switch {
	case opts.CacheSize < 0:
		// disabled
	case opts.CacheSize == 0:
		e.cache = NewEvalCache(DefaultCacheSize)
	default:
		e.cache = NewEvalCache(uint32(opts.CacheSize))
	}

	return e, nil
}

// NewEngineWithEvaluator creates a serial, uncached engine around ev.
func NewEngineWithEvaluator(ev Evaluator) *Engine {
	return &Engine{evaluator: ev, evalContext: evalContextFor(ev.Name())}
}

// Evaluator returns the engine's static evaluator.
func (e *Engine) Evaluator() Evaluator {
	return e.evaluator
}

// Cache returns the evaluation cache, or nil when caching is disabled.
func (e *Engine) Cache() *EvalCache {
	return e.cache
}

// Workers returns the number of root-level search workers.
func (e *Engine) Workers() int {
	if e.workers < 1 {
		return 1
	}
	return e.workers
}

// Nodes returns the number of positions visited by Evaluate since the last reset.
func (e *Engine) Nodes() uint64 {
	return e.nodes.Load()
}

// ResetNodes zeroes the visited-node counter.
func (e *Engine) ResetNodes() {
	e.nodes.Store(0)
}
