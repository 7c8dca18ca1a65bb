// Package api provides the HTTP/JSON, WebSocket and SSE analysis service for
// the reversi engine. The service is stateless: every request carries the
// position it is about.
package api

import (
	"github.com/yourusername/reversi/pkg/engine"
)

// Request Types

// PositionRequest is the request body for legal-move queries.
type PositionRequest struct {
	Position string `json:"position"` // Position ID
}

// PlaceRequest is the request body for applying a placement.
type PlaceRequest struct {
	Position string `json:"position"`
	X        *int   `json:"x"` // Row
	Y        *int   `json:"y"` // Column
}

// BestRequest is the request body for a best-move search.
type BestRequest struct {
	Position string `json:"position"`
	Depth    int    `json:"depth,omitempty"` // Search depth (default engine.DefaultDepth)
}

// RolloutRequest is the request body for Monte Carlo rollouts.
type RolloutRequest struct {
	Position string `json:"position"`
	Trials   int    `json:"trials,omitempty"`   // Number of games (default 1000)
	Truncate int    `json:"truncate,omitempty"` // Stop after N plies (0 = play to end)
	Seed     int64  `json:"seed,omitempty"`     // Random seed (0 = random)
	Greedy   bool   `json:"greedy,omitempty"`   // Greedy playout policy
}

// EncodeRequest converts text rows to a position ID.
type EncodeRequest struct {
	Rows  []string `json:"rows"`  // X = first, O = second, . = empty
	Mover string   `json:"mover"` // "first" (default) or "second"
}

// Response Types

// StateResponse describes a game state.
type StateResponse struct {
	Position string   `json:"position"`
	Size     int      `json:"size"`
	Mover    string   `json:"mover"`
	Rows     []string `json:"rows"`
	First    int      `json:"first"`  // First-color disks
	Second   int      `json:"second"` // Second-color disks
	Score    int      `json:"score"`  // First minus second
	Terminal bool     `json:"terminal"`
	Outcome  string   `json:"outcome,omitempty"` // Set when terminal
}

// MovesResponse lists the mover's legal placements.
type MovesResponse struct {
	State    StateResponse  `json:"state"`
	Moves    []engine.Coord `json:"moves"`
	CanMove  bool           `json:"can_move"`
	MustPass bool           `json:"must_pass"` // No placement, but the game goes on
}

// PlaceResponse is the state after a placement.
type PlaceResponse struct {
	Move    engine.Coord  `json:"move"`
	Flipped int           `json:"flipped"`
	State   StateResponse `json:"state"`
}

// ResultResponse is a search score from the first color's perspective.
type ResultResponse struct {
	Kind  string `json:"kind"` // "win", "loss", "draw" or "heuristic"
	Value int    `json:"value"`
}

// CandidateResponse is one scored root move.
type CandidateResponse struct {
	Index    int            `json:"index"`
	Move     *engine.Coord  `json:"move,omitempty"` // Absent for a forced pass
	Pass     bool           `json:"pass,omitempty"`
	Position string         `json:"position"` // Resulting position
	Result   ResultResponse `json:"result"`
}

// BestResponse is the outcome of a best-move search.
type BestResponse struct {
	Depth      int                 `json:"depth"`
	Best       CandidateResponse   `json:"best"`
	State      StateResponse       `json:"state"` // State after the best move
	Candidates []CandidateResponse `json:"candidates"`
}

// RolloutResponse summarises played-out games. Rates are percentages.
type RolloutResponse struct {
	FirstWin    float64 `json:"first_win"`
	SecondWin   float64 `json:"second_win"`
	Draw        float64 `json:"draw"`
	MeanDiff    float64 `json:"mean_diff"`
	StdDev      float64 `json:"std_dev"`
	CI95        float64 `json:"ci95"`
	Trials      int     `json:"trials"`
	Truncated   bool    `json:"truncated"`
	TruncatePly int     `json:"truncate_ply,omitempty"`
}

// RolloutProgressResponse is a streamed rollout progress update.
type RolloutProgressResponse struct {
	TrialsCompleted int     `json:"trials_completed"`
	TrialsTotal     int     `json:"trials_total"`
	Percent         float64 `json:"percent"`
	CurrentMean     float64 `json:"current_mean"`
	CurrentCI       float64 `json:"current_ci"`
}

// CacheStats reports the evaluation cache.
type CacheStats struct {
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"`
}

// HealthResponse is the response for health checks.
type HealthResponse struct {
	Status    string      `json:"status"`
	Version   string      `json:"version"`
	Ready     bool        `json:"ready"`
	Evaluator string      `json:"evaluator,omitempty"`
	Pool      *PoolStats  `json:"pool,omitempty"`
	Cache     *CacheStats `json:"cache,omitempty"`
}

// ErrorResponse is returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Conversions

// StateToResponse describes a game state.
func StateToResponse(s *engine.GameState) StateResponse {
	b := s.Board()
	resp := StateResponse{
		Position: s.PositionID(),
		Size:     b.Size(),
		Mover:    s.Mover().String(),
		Rows:     b.Lines(),
		First:    b.Count(engine.FirstColor),
		Second:   b.Count(engine.SecondColor),
		Score:    s.Score(),
		Terminal: s.IsTerminal(),
	}
	if resp.Terminal {
		resp.Outcome = s.Outcome().String()
	}
	return resp
}

// ResultToResponse converts a search result.
func ResultToResponse(r engine.Result) ResultResponse {
	return ResultResponse{Kind: r.Kind.String(), Value: r.Value}
}

// CandidateToResponse converts a root candidate.
func CandidateToResponse(c engine.Candidate) CandidateResponse {
	resp := CandidateResponse{
		Index:    c.Index,
		Pass:     c.Pass,
		Position: c.State.PositionID(),
		Result:   ResultToResponse(c.Result),
	}
	if !c.Pass {
		m := c.Move
		resp.Move = &m
	}
	return resp
}

// RolloutToResponse converts a rollout result.
func RolloutToResponse(r *engine.RolloutResult, truncate int) RolloutResponse {
	return RolloutResponse{
		FirstWin:    r.FirstWinRate * 100,
		SecondWin:   r.SecondWinRate * 100,
		Draw:        r.DrawRate * 100,
		MeanDiff:    r.MeanDiff,
		StdDev:      r.DiffStdDev,
		CI95:        r.DiffCI,
		Trials:      r.TrialsCompleted,
		Truncated:   truncate > 0,
		TruncatePly: truncate,
	}
}

// ProgressToResponse converts a rollout progress update.
func ProgressToResponse(p engine.RolloutProgress) RolloutProgressResponse {
	return RolloutProgressResponse{
		TrialsCompleted: p.TrialsCompleted,
		TrialsTotal:     p.TrialsTotal,
		Percent:         p.Percent,
		CurrentMean:     p.CurrentMean,
		CurrentCI:       p.CurrentCI,
	}
}
