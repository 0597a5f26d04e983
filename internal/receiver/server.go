// Package receiver serves the touch pad websocket endpoint on the controlled
// machine and dispatches decoded updates to a Handler.
package receiver

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/logging"
	"github.com/frudas24/touchpad/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const readLimit = 64 << 10

// ErrPadActive is returned when a second pad connects under PolicyReject.
var ErrPadActive = errors.New("touch pad already connected")

// Policy controls how additional touch pads are handled.
type Policy int

const (
	// PolicyReject rejects new connections when one is active.
	PolicyReject Policy = iota
	// PolicyReplace closes the active connection when a new one arrives.
	PolicyReplace
)

// Handler receives touch pad lifecycle and update notifications. Calls for
// one connection are made from a single goroutine, in arrival order.
type Handler interface {
	TouchPadCreated(id string)
	TouchUpdate(id string, kind gesture.Kind)
	TouchPadClosed(id string)
}

// Server handles touch pad websocket connections.
type Server struct {
	mu       sync.Mutex
	upgrader websocket.Upgrader
	handler  Handler
	policy   Policy
	log      *zap.SugaredLogger
	conn     *websocket.Conn
	connID   string
}

// NewServer creates a touch pad server with the chosen connection policy.
func NewServer(handler Handler, policy Policy, log *zap.SugaredLogger) *Server {
	return &Server{
		handler: handler,
		policy:  policy,
		log:     logging.OrNop(log),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and reads touch pad messages until the
// socket closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debugw("upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(readLimit)

	id := uuid.NewString()
	if err := s.acceptConn(conn, id); err != nil {
		s.log.Infow("touch pad rejected", "remote", r.RemoteAddr, "error", err)
		s.rejectConn(conn, err.Error())
		return
	}
	defer s.cleanupConn(conn, id)
	s.log.Infow("touch pad connected", "id", id, "remote", r.RemoteAddr)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debugw("touch pad read ended", "id", id, "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		s.handleMessage(id, data)
	}
}

// ActiveConnection returns the id of the connected pad, if any.
func (s *Server) ActiveConnection() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connID, s.conn != nil
}

// handleMessage decodes one payload and dispatches it.
func (s *Server) handleMessage(id string, data []byte) {
	msg, err := protocol.Decode(data)
	if err != nil {
		s.log.Warnw("touch pad message skipped", "id", id, "error", err)
		return
	}
	switch msg.MessageType {
	case protocol.TypeTouchPadDataRequest:
		s.handler.TouchPadCreated(id)
	case protocol.TypeTouchUpdate:
		kind, _ := msg.UpdateType()
		s.handler.TouchUpdate(id, kind)
	default:
		s.log.Debugw("touch pad message ignored", "id", id, "messageType", msg.MessageType)
	}
}

// acceptConn registers a new websocket connection or returns an error.
func (s *Server) acceptConn(conn *websocket.Conn, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		switch s.policy {
		case PolicyReplace:
			s.log.Infow("touch pad replaced", "id", s.connID)
			_ = s.conn.Close()
		default:
			return ErrPadActive
		}
	}
	s.conn = conn
	s.connID = id
	return nil
}

// rejectConn sends a policy violation close and closes the socket.
func (s *Server) rejectConn(conn *websocket.Conn, reason string) {
	message := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(time.Second))
	_ = conn.Close()
}

// cleanupConn clears state if the connection is still the active one and
// notifies the handler.
func (s *Server) cleanupConn(conn *websocket.Conn, id string) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
		s.connID = ""
	}
	s.mu.Unlock()
	_ = conn.Close()
	s.handler.TouchPadClosed(id)
	s.log.Infow("touch pad disconnected", "id", id)
}
