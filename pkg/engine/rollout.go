package engine

import (
	"math"
	"math/rand"
	"runtime"
	"sync"
)

// RolloutOptions controls rollout execution
type RolloutOptions struct {
	Trials   int   // Number of games to play out (default 1000)
	Truncate int   // Stop after N plies and score with the evaluator (0 = play to end)
	Seed     int64 // RNG seed (0 = random)
	Workers  int   // Number of parallel workers (0 = GOMAXPROCS)
	Greedy   bool  // Play the move that flips the most disks instead of a random one
}

// RolloutProgress contains progress information during a rollout
type RolloutProgress struct {
	TrialsCompleted int
	TrialsTotal     int
	Percent         float64 // 0-100
	CurrentMean     float64 // Running mean disk differential
	CurrentCI       float64 // Running 95% confidence interval of the mean
}

// ProgressCallback is called after each batch of trials
type ProgressCallback func(progress RolloutProgress)

// RolloutResult summarises a batch of played-out games. Differentials are
// first-color disks minus second-color disks.
type RolloutResult struct {
	FirstWinRate  float64
	SecondWinRate float64
	DrawRate      float64

	MeanDiff   float64
	DiffStdDev float64
	DiffCI     float64 // 95% confidence interval of MeanDiff

	TrialsCompleted int
	FirstWins       int
	SecondWins      int
	Draws           int
}

// partialResult holds one worker batch
type partialResult struct {
	sum, sumSq float64
	trials     int
	first      int
	second     int
	draws      int
}

func (pr *partialResult) add(diff int) {
	d := float64(diff)
	pr.sum += d
	pr.sumSq += d * d
	pr.trials++
	switch {
	case diff > 0:
		pr.first++
	case diff < 0:
		pr.second++
	default:
		pr.draws++
	}
}

const defaultRolloutTrials = 1000

// DefaultRolloutOptions returns sensible defaults
func DefaultRolloutOptions() RolloutOptions {
	return RolloutOptions{Trials: defaultRolloutTrials}
}

func (opts *RolloutOptions) normalize() {
	if opts.Trials <= 0 {
		opts.Trials = defaultRolloutTrials
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Workers > opts.Trials {
		opts.Workers = opts.Trials
	}
	if opts.Seed == 0 {
		opts.Seed = rand.Int63()
	}
}

// Rollout plays opts.Trials games out from state and reports how they ended.
func (e *Engine) Rollout(state *GameState, opts RolloutOptions) *RolloutResult {
	return e.RolloutWithProgress(state, opts, nil)
}

// RolloutWithProgress performs a rollout, calling callback (if set) about
// twenty times as batches complete. Results depend only on the seed and the
// worker count.
func (e *Engine) RolloutWithProgress(state *GameState, opts RolloutOptions, callback ProgressCallback) *RolloutResult {
	opts.normalize()

	batchSize := opts.Trials / 20
	if perWorker := opts.Trials / opts.Workers; batchSize > perWorker {
		batchSize = perWorker
	}
	if batchSize < 1 {
		batchSize = 1
	}

	results := make(chan partialResult, opts.Workers*20)
	var wg sync.WaitGroup

	trialsPerWorker := opts.Trials / opts.Workers
	extraTrials := opts.Trials % opts.Workers

	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		workerTrials := trialsPerWorker
		if i < extraTrials {
			workerTrials++
		}
		workerSeed := opts.Seed + int64(i)*1000000

		go func(trials int, seed int64) {
			defer wg.Done()
			e.rolloutWorker(state, trials, seed, opts, batchSize, results)
		}(workerTrials, workerSeed)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return aggregateRollout(results, opts.Trials, callback)
}

// rolloutWorker plays its share of trials and reports them in batches
func (e *Engine) rolloutWorker(state *GameState, trials int, seed int64, opts RolloutOptions, batchSize int, results chan<- partialResult) {
	rng := rand.New(rand.NewSource(seed))

	for remaining := trials; remaining > 0; {
		batch := min(batchSize, remaining)

		var pr partialResult
		for i := 0; i < batch; i++ {
			diff, _ := e.playOut(state, rng, opts.Truncate, opts.Greedy, nil)
			pr.add(diff)
		}

		results <- pr
		remaining -= batch
	}
}

// aggregateRollout combines worker batches
func aggregateRollout(results <-chan partialResult, total int, callback ProgressCallback) *RolloutResult {
	var acc partialResult

	for pr := range results {
		acc.sum += pr.sum
		acc.sumSq += pr.sumSq
		acc.trials += pr.trials
		acc.first += pr.first
		acc.second += pr.second
		acc.draws += pr.draws

		if callback != nil && acc.trials > 0 {
			n := float64(acc.trials)
			callback(RolloutProgress{
				TrialsCompleted: acc.trials,
				TrialsTotal:     total,
				Percent:         100.0 * n / float64(total),
				CurrentMean:     acc.sum / n,
				CurrentCI:       1.96 * calcStdDev(acc.sum, acc.sumSq, n) / math.Sqrt(n),
			})
		}
	}

	if acc.trials == 0 {
		return &RolloutResult{}
	}

	n := float64(acc.trials)
	result := &RolloutResult{
		FirstWinRate:    float64(acc.first) / n,
		SecondWinRate:   float64(acc.second) / n,
		DrawRate:        float64(acc.draws) / n,
		MeanDiff:        acc.sum / n,
		TrialsCompleted: acc.trials,
		FirstWins:       acc.first,
		SecondWins:      acc.second,
		Draws:           acc.draws,
	}
	if n > 1 {
		result.DiffStdDev = calcStdDev(acc.sum, acc.sumSq, n)
		result.DiffCI = 1.96 * result.DiffStdDev / math.Sqrt(n)
	}
	return result
}

// calcStdDev calculates the sample standard deviation from a sum and sum of squares
func calcStdDev(sum, sumSq, n float64) float64 {
	if n <= 1 {
		return 0
	}
	mean := sum / n
	variance := (sumSq/n - mean*mean) * n / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// playOut plays a game from s with the rollout policy and returns the final
// disk differential (or the clamped static evaluation when truncated) and the
// number of plies played. visit, if set, sees every state before it is left.
func (e *Engine) playOut(s *GameState, rng *rand.Rand, truncate int, greedy bool, visit func(*GameState)) (int, int) {
	ply := 0
	for !s.IsTerminal() {
		if truncate > 0 && ply >= truncate {
			return e.static(s.board).Value, ply
		}
		if visit != nil {
			visit(s)
		}

		ts := s.Transitions()
		s = ts[pickTransition(ts, s, rng, greedy)].State
		ply++
	}
	return s.Score(), ply
}

// pickTransition chooses a uniformly random child, or the one flipping the
// most disks when greedy (ties broken at random)
func pickTransition(ts []Transition, s *GameState, rng *rand.Rand, greedy bool) int {
	if len(ts) == 1 || !greedy {
		return rng.Intn(len(ts))
	}

	best := []int{}
	most := -1
	for i, t := range ts {
		f := Flips(s.board, t.Move.X, t.Move.Y, s.mover)
		switch {
		case f > most:
			most = f
			best = append(best[:0], i)
		case f == most:
			best = append(best, i)
		}
	}
	return best[rng.Intn(len(best))]
}
