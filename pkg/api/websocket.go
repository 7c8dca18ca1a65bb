package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourusername/reversi/pkg/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the service is stateless and read-only
	},
}

// wsIdlePingInterval is how long a connection may sit without writes before
// the server sends an application-level ping
const wsIdlePingInterval = 30 * time.Second

// WSMessage is a client request.
type WSMessage struct {
	Type    string          `json:"type"`    // "moves", "place", "pass", "best", "rollout", "encode", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a server message.
type WSResponse struct {
	Type    string `json:"type"`              // "result", "candidate", "progress", "error", "pong", "ping"
	ID      string `json:"id,omitempty"`      // Request ID
	Payload any    `json:"payload,omitempty"` // Response data
	Error   string `json:"error,omitempty"`   // Error message
	Code    string `json:"code,omitempty"`    // Error code, as in ErrorResponse
}

// WSClient is one connected WebSocket client. Requests are handled in the
// order they arrive; streamed updates for a request precede its result.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	ctx      context.Context // ends when the connection is lost
	cancel   context.CancelFunc
	sendChan chan WSResponse
}

// WebSocket handles GET /api/ws.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := newWSClient(r.Context(), conn, h)
	defer client.cancel()
	go client.writePump()
	client.readPump()
}

func newWSClient(parent context.Context, conn *websocket.Conn, h *Handlers) *WSClient {
	ctx, cancel := context.WithCancel(parent)
	return &WSClient{conn: conn, handlers: h, ctx: ctx, cancel: cancel, sendChan: make(chan WSResponse, 256)}
}

// writePump drains sendChan. A failed write cancels the client so requests
// still queued or running stop reporting to a dead connection.
func (c *WSClient) writePump() {
	defer func() {
		c.cancel()
		c.conn.Close()
	}()

	ticker := time.NewTicker(wsIdlePingInterval)
	defer ticker.Stop()
	lastWrite := time.Now()

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
			lastWrite = time.Now()
		case <-ticker.C:
			if time.Since(lastWrite) < wsIdlePingInterval {
				continue
			}
			if err := c.conn.WriteJSON(WSResponse{Type: "ping"}); err != nil {
				return
			}
			lastWrite = time.Now()
		}
	}
}

func (c *WSClient) readPump() {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		c.handleMessage(msg)
	}
}

// send queues msg for the writer. It reports false, dropping msg, once the
// connection is gone.
func (c *WSClient) send(msg WSResponse) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.sendChan <- msg:
		return true
	case <-c.ctx.Done():
		return false
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	var (
		payload any
		err     error
	)

	switch msg.Type {
	case "ping":
		c.send(WSResponse{Type: "pong", ID: msg.ID})
		return
	case "moves":
		payload, err = c.handleMoves(msg)
	case "place":
		payload, err = c.handlePlace(msg)
	case "pass":
		payload, err = c.handlePass(msg)
	case "encode":
		payload, err = c.handleEncode(msg)
	case "best":
		payload, err = c.handleBest(msg)
	case "rollout":
		payload, err = c.handleRollout(msg)
	default:
		c.send(WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type", Code: "UNKNOWN_TYPE"})
		return
	}

	if err != nil {
		c.sendError(msg.ID, err)
		return
	}
	c.send(WSResponse{Type: "result", ID: msg.ID, Payload: payload})
}

func (c *WSClient) sendError(id string, err error) {
	code := "INTERNAL_ERROR"
	var re *requestError
	if errors.As(err, &re) {
		code = re.code
	}
	c.send(WSResponse{Type: "error", ID: id, Error: err.Error(), Code: code})
}

// unmarshal decodes a message payload
func unmarshal(msg WSMessage, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return badRequest("INVALID_PAYLOAD", errors.New("invalid payload"))
	}
	return nil
}

// slot takes a pool slot for the connection
func (c *WSClient) slot(slow bool) (func(), error) {
	busy := &requestError{status: http.StatusServiceUnavailable, code: "SERVER_BUSY", err: errors.New("server busy")}
	if c.ctx.Err() != nil {
		return nil, busy
	}
	pool := c.handlers.pool
	if pool == nil {
		return func() {}, nil
	}
	if slow {
		if err := pool.AcquireSlow(c.ctx); err != nil {
			return nil, busy
		}
		return pool.ReleaseSlow, nil
	}
	if err := pool.AcquireFast(c.ctx); err != nil {
		return nil, busy
	}
	return pool.ReleaseFast, nil
}

func (c *WSClient) handleMoves(msg WSMessage) (any, error) {
	var req PositionRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	release, err := c.slot(false)
	if err != nil {
		return nil, err
	}
	defer release()

	s, err := parsePosition(req.Position)
	if err != nil {
		return nil, err
	}
	return movesResponse(s), nil
}

func (c *WSClient) handlePlace(msg WSMessage) (any, error) {
	var req PlaceRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	release, err := c.slot(false)
	if err != nil {
		return nil, err
	}
	defer release()

	return place(req)
}

func (c *WSClient) handlePass(msg WSMessage) (any, error) {
	var req PositionRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	release, err := c.slot(false)
	if err != nil {
		return nil, err
	}
	defer release()

	return pass(req)
}

func (c *WSClient) handleEncode(msg WSMessage) (any, error) {
	var req EncodeRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	s, err := encodeState(req)
	if err != nil {
		return nil, err
	}
	return StateToResponse(s), nil
}

func (c *WSClient) handleBest(msg WSMessage) (any, error) {
	var req BestRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	release, err := c.slot(true)
	if err != nil {
		return nil, err
	}
	defer release()

	return c.handlers.best(req, func(cand engine.Candidate) {
		c.send(WSResponse{Type: "candidate", ID: msg.ID, Payload: CandidateToResponse(cand)})
	})
}

func (c *WSClient) handleRollout(msg WSMessage) (any, error) {
	var req RolloutRequest
	if err := unmarshal(msg, &req); err != nil {
		return nil, err
	}
	s, err := parsePosition(req.Position)
	if err != nil {
		return nil, err
	}
	opts, err := rolloutOptions(req)
	if err != nil {
		return nil, err
	}
	release, err := c.slot(true)
	if err != nil {
		return nil, err
	}
	defer release()

	result := c.handlers.engine.RolloutWithProgress(s, opts, func(p engine.RolloutProgress) {
		c.send(WSResponse{Type: "progress", ID: msg.ID, Payload: ProgressToResponse(p)})
	})
	return RolloutToResponse(result, opts.Truncate), nil
}
