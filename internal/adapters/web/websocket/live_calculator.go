package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/telemetry"
)

// TransportWebSocket labels operations triggered from the live calculator.
const TransportWebSocket = "ws"

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// MessageTypeResult tags every outbound calculator message.
const MessageTypeResult = "cvss.result"

// WSMessage is the envelope of outbound messages.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// LiveRequest is one inbound calculator message. Vector, when present, is
// resolved over the defaults; otherwise Metrics is built with fallback.
type LiveRequest struct {
	ID      string            `json:"id,omitempty"`
	Metrics map[string]string `json:"metrics,omitempty"`
	Vector  *string           `json:"vector,omitempty"`
}

// LiveResult answers one LiveRequest.
type LiveResult struct {
	ID       string `json:"id,omitempty"`
	Fallback bool   `json:"fallback"`
	domain.ScoreResult
}

// client serialises writes to one connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, data)
}

// LiveCalculator scores metric selections as the user edits them.
type LiveCalculator struct {
	Service  ports.ScoringService
	upgrader websocket.Upgrader
	clients  map[*client]struct{}
	mu       sync.Mutex
	logger   *slog.Logger
}

// NewLiveCalculator creates the calculator endpoint. Browser connections are
// accepted only from allowedOrigins ("*" allows any); requests without an
// Origin header are always accepted.
func NewLiveCalculator(service ports.ScoringService, allowedOrigins []string) *LiveCalculator {
	lc := &LiveCalculator{
		Service: service,
		clients: make(map[*client]struct{}),
		logger:  slog.Default().With("component", "live_calculator"),
	}
	lc.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin) {
				return true
			}
			lc.logger.Warn("WebSocket: rejected origin", "origin", origin)
			return false
		},
	}
	return lc
}

// HandleWebSocket upgrades the connection and answers each inbound message.
func (lc *LiveCalculator) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := lc.upgrader.Upgrade(w, r, nil)
	if err != nil {
		lc.logger.Debug("Upgrade error", "error", err)
		return
	}

	info := domain.RequestInfoFrom(r.Context())
	info.Transport = TransportWebSocket
	if info.ClientIP == "" {
		info.ClientIP = middleware.ClientIP(r)
	}
	if info.UserAgent == "" {
		info.UserAgent = r.UserAgent()
	}
	// The request context ends with the handler; sessions outlive it.
	ctx := domain.WithRequestInfo(context.Background(), info)

	c := &client{conn: conn}
	lc.mu.Lock()
	lc.clients[c] = struct{}{}
	lc.mu.Unlock()
	telemetry.LiveSessions.Inc()

	lc.logger.Info("WebSocket connected", "client_ip", info.ClientIP, "request_id", info.RequestID)

	go lc.serve(ctx, c)
}

func (lc *LiveCalculator) serve(ctx context.Context, c *client) {
	done := make(chan struct{})
	defer func() {
		close(done)
		lc.remove(c)
		lc.logger.Info("WebSocket disconnected", "request_id", domain.RequestInfoFrom(ctx).RequestID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := c.write(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		reply, err := json.Marshal(WSMessage{Type: MessageTypeResult, Payload: lc.Score(ctx, data)})
		if err != nil {
			lc.logger.Error("JSON marshal error", "error", err)
			return
		}
		if err := c.write(websocket.TextMessage, reply); err != nil {
			return
		}
	}
}

// Score answers one raw inbound message. Undecodable messages are treated
// like an empty selection and so fall back to the neutral result.
func (lc *LiveCalculator) Score(ctx context.Context, data []byte) LiveResult {
	var req LiveRequest
	if err := json.Unmarshal(data, &req); err != nil {
		lc.logger.Debug("Undecodable calculator message", "error", err)
		req = LiveRequest{}
	}

	if req.Vector != nil {
		return LiveResult{ID: req.ID, ScoreResult: lc.Service.Resolve(ctx, *req.Vector)}
	}

	res, fellBack := lc.Service.BuildWithFallback(ctx, req.Metrics)
	return LiveResult{ID: req.ID, Fallback: fellBack, ScoreResult: res}
}

func (lc *LiveCalculator) remove(c *client) {
	lc.mu.Lock()
	_, ok := lc.clients[c]
	delete(lc.clients, c)
	lc.mu.Unlock()

	if ok {
		telemetry.LiveSessions.Dec()
		c.conn.Close()
	}
}

// Sessions returns the number of open connections.
func (lc *LiveCalculator) Sessions() int {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	return len(lc.clients)
}

// CloseAll sends a close frame to every session and drops it.
func (lc *LiveCalculator) CloseAll() {
	lc.mu.Lock()
	clients := make([]*client, 0, len(lc.clients))
	for c := range lc.clients {
		clients = append(clients, c)
	}
	lc.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for _, c := range clients {
		c.write(websocket.CloseMessage, msg)
		lc.remove(c)
	}
}
