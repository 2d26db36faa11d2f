package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/dispatcher"
	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/overlay"
	"github.com/brusilov1916/brusilov-map/internal/session"
	"github.com/brusilov1916/brusilov-map/pkg/streaming"
	ws "github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	sendChSize     = 64
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	usageQueueSize = 256

	// internal message type for asynchronous usage recording
	typeUsagePhase = "usage.phase"
)

// reply tells the read loop what to push back after a handled message.
// Overlay transitions push their own state through OnChange.
type reply struct {
	state  bool
	layers bool
}

// wsClient manages one WebSocket connection with a single write goroutine.
type wsClient struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func newWSClient(conn *ws.Conn, logger *slog.Logger) *wsClient {
	return &wsClient{
		conn:   conn,
		sendCh: make(chan []byte, sendChSize),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// send queues a message for the write loop. Messages are dropped when the
// client is too slow to keep up.
func (c *wsClient) send(msgType string, payload any) {
	data, err := streaming.Marshal(msgType, payload)
	if err != nil {
		c.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	select {
	case <-c.done:
	case c.sendCh <- data:
	default:
		c.logger.Warn("Send buffer full, dropping message", "type", msgType)
	}
}

func (c *wsClient) sendError(forType string, err error) {
	c.send(streaming.TypeError, streaming.ErrorPayload{For: forType, Error: err.Error()})
}

// writeLoop drains sendCh and writes messages to the WebSocket.
func (c *wsClient) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Warn("WebSocket SetWriteDeadline error", "error", err)
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.logger.Warn("WebSocket write error", "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *wsClient) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Attach(r.URL.Query().Get("session"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		s.logger.Warn("WebSocket upgrade failed", "session", sess.ID, "error", err)
		s.sessions.Detach(sess.ID)
		return
	}

	ctx := context.Background()
	c := newWSClient(conn, s.logger.With("session", sess.ID))
	s.metrics.wsClients.Add(ctx, 1)
	go c.writeLoop()

	sess.Overlay.OnChange(func(overlay.State) {
		c.send(streaming.TypeState, sess.Snapshot())
	})

	c.send(streaming.TypeState, sess.Snapshot())
	s.sendLayers(c, sess)
	s.readLoop(c, sess)

	// a closed view ends its session so no timer outlives it
	sess.Overlay.OnChange(nil)
	c.close()
	s.metrics.wsClients.Add(ctx, -1)
	if err := s.sessions.End(sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		c.logger.Error("Failed to end session", "error", err)
	}
	s.usage.SessionEvent("end", s.sessions.Len())
}

// readLoop reads client messages until the connection fails or closes.
func (s *Server) readLoop(c *wsClient, sess *session.Session) {
	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ws.IsUnexpectedCloseError(err, ws.CloseGoingAway, ws.CloseNormalClosure) {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}

		var env streaming.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("", fmt.Errorf("%w: %v", errBadRequest, err))
			continue
		}
		s.metrics.wsMessages.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("type", env.Type)))

		// internal types are not accepted from clients
		if env.Type == typeUsagePhase {
			c.sendError(env.Type, fmt.Errorf("%w: %s", dispatcher.ErrUnknownType, env.Type))
			continue
		}

		res, err := s.messages.Dispatch(dispatcher.Event{
			Type:      env.Type,
			SessionID: sess.ID,
			Payload:   env.Payload,
		})
		if err != nil {
			c.sendError(env.Type, err)
			continue
		}

		rep, _ := res.(reply)
		if rep.state {
			c.send(streaming.TypeState, sess.Snapshot())
		}
		if rep.layers {
			s.sendLayers(c, sess)
		}
	}
}

func (s *Server) sendLayers(c *wsClient, sess *session.Session) {
	snap := sess.Snapshot()
	body, cached, err := s.encodedLayers(layers.Selection{Phase: snap.Phase, MovementID: snap.SelectedMovement}, geo.CRS4326)
	if err != nil {
		c.sendError(streaming.TypeLayers, err)
		return
	}
	s.usage.LayersServed(string(snap.Phase), int(geo.CRS4326), len(body), cached)
	c.send(streaming.TypeLayers, json.RawMessage(body))
}

func (s *Server) registerMessages() {
	s.messages.Register(streaming.TypeSelectPhase, s.onSelectPhase, dispatcher.Logged())
	s.messages.Register(streaming.TypeSelectMovement, s.onSelectMovement, dispatcher.Logged())
	s.messages.Register(streaming.TypeToggleLegend, s.onToggleLegend)
	s.messages.Register(streaming.TypeOpenOverlay, s.onOpenOverlay, dispatcher.Logged())
	s.messages.Register(streaming.TypeCloseOverlay, s.withSession(func(sess *session.Session) {
		sess.Overlay.Close()
	}))
	s.messages.Register(streaming.TypeKey, s.onKey)
	s.messages.Register(streaming.TypeTourNext, s.withSession(func(sess *session.Session) {
		sess.Overlay.Next()
	}))
	s.messages.Register(streaming.TypeTourFinish, s.withSession(func(sess *session.Session) {
		sess.Overlay.Finish()
	}))

	s.messages.Register(typeUsagePhase, func(e dispatcher.Event) (any, error) {
		var p streaming.SelectPhasePayload
		if err := e.Decode(&p); err != nil {
			return nil, err
		}
		s.usage.PhaseSelected(p.Phase)
		return nil, nil
	}, dispatcher.Buffered(usageQueueSize))
}

func (s *Server) withSession(fn func(*session.Session)) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		sess, err := s.sessions.Get(e.SessionID)
		if err != nil {
			return nil, err
		}
		fn(sess)
		return reply{}, nil
	}
}

func (s *Server) onSelectPhase(e dispatcher.Event) (any, error) {
	var p streaming.SelectPhasePayload
	if err := e.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	snap, err := s.sessions.SelectPhase(e.SessionID, p.Phase)
	if err != nil {
		return nil, err
	}
	usage, _ := json.Marshal(streaming.SelectPhasePayload{Phase: string(snap.Phase)})
	if _, err := s.messages.Dispatch(dispatcher.Event{Type: typeUsagePhase, SessionID: e.SessionID, Payload: usage}); err != nil {
		s.logger.Debug("Usage event dropped", "error", err)
	}
	return reply{state: true, layers: true}, nil
}

func (s *Server) onSelectMovement(e dispatcher.Event) (any, error) {
	var p streaming.SelectMovementPayload
	if err := e.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	if _, err := s.sessions.SelectMovement(e.SessionID, p.MovementID); err != nil {
		return nil, err
	}
	return reply{state: true, layers: true}, nil
}

func (s *Server) onToggleLegend(e dispatcher.Event) (any, error) {
	if _, err := s.sessions.ToggleLegend(e.SessionID); err != nil {
		return nil, err
	}
	return reply{state: true}, nil
}

func (s *Server) onOpenOverlay(e dispatcher.Event) (any, error) {
	var p streaming.OpenOverlayPayload
	if err := e.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	kind, err := overlay.ParseKind(p.Overlay)
	if err != nil {
		return nil, err
	}
	if kind == overlay.River {
		if r, ok := s.composer.Dataset().River(p.Arg); !ok || !layers.Rendered(r) {
			return nil, fmt.Errorf("%w: river %q", errNotFound, p.Arg)
		}
	}
	sess, err := s.sessions.Get(e.SessionID)
	if err != nil {
		return nil, err
	}
	return reply{}, sess.Overlay.Open(kind, p.Arg)
}

func (s *Server) onKey(e dispatcher.Event) (any, error) {
	var p streaming.KeyPayload
	if err := e.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	sess, err := s.sessions.Get(e.SessionID)
	if err != nil {
		return nil, err
	}
	sess.Overlay.Key(p.Key)
	return reply{}, nil
}
