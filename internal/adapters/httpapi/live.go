package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/simplimarked/signup-api/internal/domain"
	"github.com/simplimarked/signup-api/internal/ports/out/rosterstore"
)

// LiveOptions tunes the live feed connection. Zero fields take defaults.
type LiveOptions struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
	// CheckOrigin defaults to allowing every origin.
	CheckOrigin func(r *http.Request) bool
}

func (o LiveOptions) withDefaults() LiveOptions {
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.PingPeriod <= 0 || o.PingPeriod >= o.PongWait {
		o.PingPeriod = o.PongWait * 9 / 10
	}
	if o.CheckOrigin == nil {
		o.CheckOrigin = func(*http.Request) bool { return true }
	}
	return o
}

const liveMessageSession = "session"

// liveMessage is one frame on the live feed. Data is null when no session
// is active.
type liveMessage struct {
	Type string         `json:"type"`
	Data *domain.Roster `json:"data"`
}

// Live upgrades to a websocket and pushes the session document on connect
// and after every change.
func (s *Server) Live(w http.ResponseWriter, r *http.Request) {
	opts := s.LiveOpts.withDefaults()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before upgrading so store failures are ordinary HTTP errors.
	snaps, err := s.Session.Subscribe(ctx)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     opts.CheckOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("live upgrade failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		return
	}
	defer conn.Close()

	s.Metrics.LiveClientConnected()
	defer s.Metrics.LiveClientDisconnected()
	slog.Debug("live client connected", "actor", string(ActorFromContext(r.Context())), "remote", r.RemoteAddr)

	go readPump(conn, opts, cancel)
	writePump(conn, opts, snaps)
}

// readPump discards client frames and keeps the read deadline fresh on pong.
// It cancels the connection context once the client goes away.
func readPump(conn *websocket.Conn, opts LiveOptions, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(opts.PongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("live read error", "error", err)
			}
			return
		}
	}
}

// writePump sends snapshots and pings. It returns once snaps is closed, which
// happens when the connection context is canceled.
func writePump(conn *websocket.Conn, opts LiveOptions, snaps <-chan rosterstore.Snapshot) {
	ticker := time.NewTicker(opts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snaps:
			_ = conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(liveMessage{Type: liveMessageSession, Data: snap.Roster}); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
