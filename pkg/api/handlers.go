package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/reversi/pkg/engine"
)

// Request limits
const (
	MaxSearchDepth   = 12
	MaxRolloutTrials = 100000
)

// Handlers holds the HTTP handlers and engine reference.
type Handlers struct {
	engine  *engine.Engine
	version string
	pool    *WorkerPool
}

// NewHandlers creates a new Handlers instance without a worker pool.
func NewHandlers(e *engine.Engine, version string) *Handlers {
	return &Handlers{engine: e, version: version}
}

// NewHandlersWithPool creates a new Handlers instance with a worker pool.
func NewHandlersWithPool(e *engine.Engine, version string, pool *WorkerPool) *Handlers {
	return &Handlers{engine: e, version: version, pool: pool}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, msg string, code string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// requestError is a failed request with its HTTP status and error code
type requestError struct {
	status int
	code   string
	err    error
}

func (e *requestError) Error() string { return e.err.Error() }

func (e *requestError) Unwrap() error { return e.err }

func badRequest(code string, err error) *requestError {
	return &requestError{status: http.StatusBadRequest, code: code, err: err}
}

// writeRequestError writes err with the status and code it carries
func writeRequestError(w http.ResponseWriter, err error) {
	var re *requestError
	if errors.As(err, &re) {
		writeError(w, re.status, re.Error(), re.code)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
}

// parsePosition turns a request's position ID into a game state.
func parsePosition(id string) (*engine.GameState, error) {
	if id == "" {
		return nil, badRequest("MISSING_POSITION", errors.New("position is required"))
	}
	s, err := engine.ParsePosition(id)
	if err != nil {
		return nil, badRequest("INVALID_POSITION", err)
	}
	return s, nil
}

// parseDepth applies the default and bounds to a requested search depth.
func parseDepth(depth int) (int, error) {
	switch {
	case depth == 0:
		return engine.DefaultDepth, nil
	case depth < 0 || depth > MaxSearchDepth:
		return 0, badRequest("INVALID_DEPTH", fmt.Errorf("depth must be in [1,%d]", MaxSearchDepth))
	}
	return depth, nil
}

// parseMover reads "first" or "second"; empty means first.
func parseMover(s string) (engine.CellState, error) {
	switch s {
	case "", "first", "X", "x":
		return engine.FirstColor, nil
	case "second", "O", "o":
		return engine.SecondColor, nil
	}
	return engine.Empty, badRequest("INVALID_MOVER", fmt.Errorf("unknown mover %q", s))
}

// rolloutOptions validates a rollout request.
func rolloutOptions(req RolloutRequest) (engine.RolloutOptions, error) {
	if req.Trials < 0 || req.Trials > MaxRolloutTrials {
		return engine.RolloutOptions{}, badRequest("INVALID_TRIALS", fmt.Errorf("trials must be in [1,%d]", MaxRolloutTrials))
	}
	if req.Truncate < 0 {
		return engine.RolloutOptions{}, badRequest("INVALID_TRUNCATE", errors.New("truncate must not be negative"))
	}
	opts := engine.DefaultRolloutOptions()
	if req.Trials > 0 {
		opts.Trials = req.Trials
	}
	opts.Truncate = req.Truncate
	opts.Seed = req.Seed
	opts.Greedy = req.Greedy
	return opts, nil
}

// acquire takes a pool slot if a pool is configured. It writes the busy
// response itself and returns ok=false when the request was cancelled first.
func (h *Handlers) acquire(w http.ResponseWriter, r *http.Request, slow bool) (release func(), ok bool) {
	if h.pool == nil {
		return func() {}, true
	}
	if slow {
		if err := h.pool.AcquireSlow(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
			return nil, false
		}
		return h.pool.ReleaseSlow, true
	}
	if err := h.pool.AcquireFast(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "server busy", "SERVER_BUSY")
		return nil, false
	}
	return h.pool.ReleaseFast, true
}

// decode reads a JSON request body into v.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("INVALID_JSON", errors.New("invalid JSON"))
	}
	return nil
}

// Health handles GET /api/health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Version: h.version,
		Ready:   h.engine != nil,
	}
	if h.engine != nil {
		resp.Evaluator = h.engine.Evaluator().Name()
		if c := h.engine.Cache(); c != nil {
			lookups, hits, adds := c.Stats()
			resp.Cache = &CacheStats{Lookups: lookups, Hits: hits, Adds: adds, HitRate: c.HitRate()}
		}
	}
	if h.pool != nil {
		stats := h.pool.Stats()
		resp.Pool = &stats
	}

	writeJSON(w, http.StatusOK, resp)
}

// NewGame handles GET /api/newgame?size=N
func (h *Handlers) NewGame(w http.ResponseWriter, r *http.Request) {
	size := engine.DefaultBoardSize
	if v := r.URL.Query().Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "size must be an integer", "INVALID_SIZE")
			return
		}
		size = n
	}

	s, err := engine.NewGame(size)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_SIZE")
		return
	}
	writeJSON(w, http.StatusOK, StateToResponse(s))
}

// Encode handles POST /api/encode
func (h *Handlers) Encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	s, err := encodeState(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StateToResponse(s))
}

func encodeState(req EncodeRequest) (*engine.GameState, error) {
	mover, err := parseMover(req.Mover)
	if err != nil {
		return nil, err
	}
	b, err := engine.ParseRows(req.Rows)
	if err != nil {
		return nil, badRequest("INVALID_BOARD", err)
	}
	return engine.Construct(b, mover)
}

// Moves handles POST /api/moves
func (h *Handlers) Moves(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req PositionRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	s, err := parsePosition(req.Position)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, movesResponse(s))
}

func movesResponse(s *engine.GameState) MovesResponse {
	moves := []engine.Coord{}
	for m := range s.LegalMoves() {
		moves = append(moves, m)
	}
	state := StateToResponse(s)
	return MovesResponse{
		State:    state,
		Moves:    moves,
		CanMove:  len(moves) > 0,
		MustPass: len(moves) == 0 && !state.Terminal,
	}
}

// Place handles POST /api/place
func (h *Handlers) Place(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req PlaceRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	resp, err := place(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func place(req PlaceRequest) (PlaceResponse, error) {
	s, err := parsePosition(req.Position)
	if err != nil {
		return PlaceResponse{}, err
	}
	if req.X == nil || req.Y == nil {
		return PlaceResponse{}, badRequest("MISSING_COORDINATE", errors.New("x and y are required"))
	}
	x, y := *req.X, *req.Y

	next, err := s.Play(x, y)
	switch {
	case errors.Is(err, engine.ErrInvalidCoordinate):
		return PlaceResponse{}, badRequest("INVALID_COORDINATE", err)
	case errors.Is(err, engine.ErrIllegalMove):
		return PlaceResponse{}, &requestError{status: http.StatusUnprocessableEntity, code: "ILLEGAL_MOVE", err: err}
	case err != nil:
		return PlaceResponse{}, err
	}

	return PlaceResponse{
		Move:    engine.Coord{X: x, Y: y},
		Flipped: engine.Flips(s.Board(), x, y, s.Mover()),
		State:   StateToResponse(next),
	}, nil
}

// Pass handles POST /api/pass. A pass is only accepted when the mover has no
// legal placement and the game is not over.
func (h *Handlers) Pass(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, false)
	if !ok {
		return
	}
	defer release()

	var req PositionRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	resp, err := pass(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func pass(req PositionRequest) (StateResponse, error) {
	s, err := parsePosition(req.Position)
	if err != nil {
		return StateResponse{}, err
	}
	if s.CanMakeMove() || s.IsTerminal() {
		return StateResponse{}, &requestError{
			status: http.StatusUnprocessableEntity,
			code:   "PASS_NOT_ALLOWED",
			err:    fmt.Errorf("%v may not pass", s.Mover()),
		}
	}
	return StateToResponse(s.Pass()), nil
}

// Best handles POST /api/best
func (h *Handlers) Best(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req BestRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	resp, err := h.best(req, nil)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// best runs the search for a request, reporting candidates to progress as
// they complete.
func (h *Handlers) best(req BestRequest, progress func(engine.Candidate)) (BestResponse, error) {
	s, err := parsePosition(req.Position)
	if err != nil {
		return BestResponse{}, err
	}
	depth, err := parseDepth(req.Depth)
	if err != nil {
		return BestResponse{}, err
	}

	cands := h.engine.AnalyzeRoot(s, depth, progress)
	chosen, ok := engine.SelectBest(cands, s.Mover())
	if !ok {
		return BestResponse{}, &requestError{
			status: http.StatusUnprocessableEntity,
			code:   "GAME_OVER",
			err:    errors.New("the game is over"),
		}
	}

	resp := BestResponse{
		Depth:      depth,
		Best:       CandidateToResponse(chosen),
		State:      StateToResponse(chosen.State),
		Candidates: make([]CandidateResponse, len(cands)),
	}
	for i, c := range cands {
		resp.Candidates[i] = CandidateToResponse(c)
	}
	return resp, nil
}

// Rollout handles POST /api/rollout
func (h *Handlers) Rollout(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	var req RolloutRequest
	if err := decode(r, &req); err != nil {
		writeRequestError(w, err)
		return
	}
	s, err := parsePosition(req.Position)
	if err != nil {
		writeRequestError(w, err)
		return
	}
	opts, err := rolloutOptions(req)
	if err != nil {
		writeRequestError(w, err)
		return
	}

	result := h.engine.Rollout(s, opts)
	writeJSON(w, http.StatusOK, RolloutToResponse(result, opts.Truncate))
}
