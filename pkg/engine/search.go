package engine

import (
	"sync"
	"sync/atomic"
)

// Candidate is one root child scored by the search.
type Candidate struct {
	Index  int        // Enumeration order (row-major; a pass is the only child)
	Move   Coord      // Placement; zero when Pass is set
	Pass   bool       // Forced pass
	State  *GameState // Resulting state
	Result Result     // Score of the resulting state
}

// Evaluate scores state s by minimax with alpha-beta pruning, searching depth
// plies within the window [alpha, beta]. Terminal positions are recognised
// before the depth cutoff, so a finished game always scores as Win, Loss or
// Draw even at depth 0.
func (e *Engine) Evaluate(s *GameState, depth int, alpha, beta Result) Result {
	e.nodes.Add(1)

	if s.IsTerminal() {
		return terminalResult(s.Score())
	}
	if depth <= 0 {
		return e.static(s.board)
	}

	children := s.NextStates()
	if len(children) == 0 {
		// unreachable when terminal detection is correct; keep the search total
		return terminalResult(s.Score())
	}

	if s.mover == Maximizer {
		var best Result
		for i, child := range children {
			v := e.Evaluate(child, depth-1, alpha, beta)
			if i == 0 || v.Compare(best) > 0 {
				best = v
			}
			if best.Compare(alpha) > 0 {
				alpha = best
			}
			if best.Compare(beta) >= 0 {
				break
			}
		}
		return best
	}

	var best Result
	for i, child := range children {
		v := e.Evaluate(child, depth-1, alpha, beta)
		if i == 0 || v.Compare(best) < 0 {
			best = v
		}
		if best.Compare(beta) < 0 {
			beta = best
		}
		if best.Compare(alpha) <= 0 {
			break
		}
	}
	return best
}

// static evaluates a leaf through the cache and clamps it to ±N²
func (e *Engine) static(b Board) Result {
	if e.cache == nil {
		return HeuristicResult(clampScore(e.evaluator.Evaluate(b), b.size))
	}

	key := b.Key()
	if v, ok := e.cache.Lookup(key, e.evalContext); ok {
		return HeuristicResult(v)
	}
	v := clampScore(e.evaluator.Evaluate(b), b.size)
	e.cache.Add(key, e.evalContext, v)
	return HeuristicResult(v)
}

// AnalyzeRoot scores every child of s at depth-1, each with a fresh full
// window, and returns them in enumeration order. progress, if set, is called
// once per candidate as it completes; with several workers the calls are
// serialized but arrive in completion order. A terminal root has no candidates.
func (e *Engine) AnalyzeRoot(s *GameState, depth int, progress func(Candidate)) []Candidate {
	if s.IsTerminal() {
		return nil
	}

	childDepth := depth - 1
	if childDepth < 0 {
		childDepth = 0
	}

	ts := s.Transitions()
	cands := make([]Candidate, len(ts))
	for i, t := range ts {
		cands[i] = Candidate{Index: i, Move: t.Move, Pass: t.Pass, State: t.State}
	}

	var mu sync.Mutex
	report := func(c Candidate) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		progress(c)
	}

	workers := e.workers
	if workers > len(cands) {
		workers = len(cands)
	}

	if workers <= 1 {
		for i := range cands {
			cands[i].Result = e.Evaluate(cands[i].State, childDepth, minResult, maxResult)
			report(cands[i])
		}
		return cands
	}

	// Siblings share nothing: each worker owns its candidates' windows and
	// every state owns its board.
	var next atomic.Int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(next.Add(1) - 1)
				if i >= len(cands) {
					return
				}
				cands[i].Result = e.Evaluate(cands[i].State, childDepth, minResult, maxResult)
				report(cands[i])
			}
		}()
	}
	wg.Wait()

	return cands
}

// SelectBest picks the extremal candidate for the side to move: the highest
// result if mover maximizes, the lowest otherwise. A later candidate replaces
// the running best only when strictly better, so ties keep the earliest
// row-major move.
func SelectBest(cands []Candidate, mover CellState) (Candidate, bool) {
	if len(cands) == 0 {
		return Candidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		cmp := c.Result.Compare(best.Result)
		if (mover == Maximizer && cmp > 0) || (mover != Maximizer && cmp < 0) {
			best = c
		}
	}
	return best, true
}

// Best searches depth plies and returns the chosen root candidate.
func (e *Engine) Best(s *GameState, depth int) (Candidate, bool) {
	return SelectBest(e.AnalyzeRoot(s, depth, nil), s.mover)
}

// BestNextBoard returns the board after the mover's best move, or ok=false
// when the game is over. When the mover must pass, the unchanged board is
// returned.
func (e *Engine) BestNextBoard(s *GameState, depth int) (Board, bool) {
	c, ok := e.Best(s, depth)
	if !ok {
		return Board{}, false
	}
	return c.State.board, true
}
