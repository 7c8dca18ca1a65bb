package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/yourusername/reversi/pkg/engine"
)

// sseStream writes Server-Sent Events, flushing after each one.
type sseStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// startSSE sets the event-stream headers. ok is false when the writer
// cannot stream.
func startSSE(w http.ResponseWriter) (*sseStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported", "STREAMING_UNSUPPORTED")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseStream{w: w, flusher: flusher}, true
}

// event writes one event; data is JSON-encoded when set.
func (s *sseStream) event(name string, data any) {
	writeSSEEvent(s.w, name, data)
	s.flusher.Flush()
}

// fail writes an error event carrying err's code when it has one.
func (s *sseStream) fail(err error) {
	code := "INTERNAL_ERROR"
	var re *requestError
	if errors.As(err, &re) {
		code = re.code
	}
	s.event("error", ErrorResponse{Error: err.Error(), Code: code})
}

// writeSSEEvent writes a Server-Sent Event to the response.
func writeSSEEvent(w http.ResponseWriter, event string, data any) {
	fmt.Fprintf(w, "event: %s\n", event)
	if data != nil {
		jsonData, _ := json.Marshal(data)
		fmt.Fprintf(w, "data: %s\n", jsonData)
	}
	fmt.Fprintf(w, "\n")
}

// parseIntParam parses an integer query value, falling back to defaultVal
// when it is absent or malformed.
func parseIntParam(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// BestSSE streams a best-move search.
// GET /api/best/stream?position=...&depth=...
//
// Events: one "candidate" per root move as its score is known, then
// "result" with the full BestResponse, then "done".
func (h *Handlers) BestSSE(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	stream, ok := startSSE(w)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := BestRequest{
		Position: query.Get("position"),
		Depth:    parseIntParam(query.Get("depth"), 0),
	}

	resp, err := h.best(req, func(c engine.Candidate) {
		stream.event("candidate", CandidateToResponse(c))
	})
	if err != nil {
		stream.fail(err)
		return
	}

	stream.event("result", resp)
	stream.event("done", nil)
}

// RolloutSSE streams rollout progress.
// GET /api/rollout/stream?position=...&trials=...&truncate=...&seed=...
func (h *Handlers) RolloutSSE(w http.ResponseWriter, r *http.Request) {
	release, ok := h.acquire(w, r, true)
	if !ok {
		return
	}
	defer release()

	stream, ok := startSSE(w)
	if !ok {
		return
	}

	query := r.URL.Query()
	s, err := parsePosition(query.Get("position"))
	if err != nil {
		stream.fail(err)
		return
	}
	seed, _ := strconv.ParseInt(query.Get("seed"), 10, 64)
	opts, err := rolloutOptions(RolloutRequest{
		Trials:   parseIntParam(query.Get("trials"), 0),
		Truncate: parseIntParam(query.Get("truncate"), 0),
		Seed:     seed,
		Greedy:   query.Get("greedy") == "true",
	})
	if err != nil {
		stream.fail(err)
		return
	}

	// Progress callbacks arrive on the aggregating goroutine only
	result := h.engine.RolloutWithProgress(s, opts, func(p engine.RolloutProgress) {
		stream.event("progress", ProgressToResponse(p))
	})

	stream.event("result", RolloutToResponse(result, opts.Truncate))
	stream.event("done", nil)
}
