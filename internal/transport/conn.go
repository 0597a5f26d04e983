// Package transport owns the websocket connection to the remote controller.
package transport

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/frudas24/touchpad/internal/logging"
	"github.com/frudas24/touchpad/internal/protocol"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Path is the touch pad endpoint on the remote controller.
const Path = "/ws/touch_pad"

// State is the connection lifecycle state.
type State int

const (
	// StateConnecting is the initial state until the handshake completes.
	StateConnecting State = iota
	// StateOpen accepts sends.
	StateOpen
	// StateClosed is terminal.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// EventType identifies a lifecycle notification.
type EventType int

const (
	// EventOpen is delivered once the socket is open.
	EventOpen EventType = iota + 1
	// EventMessage carries one inbound message.
	EventMessage
	// EventClosed is the last event. Err is nil after an explicit Close.
	EventClosed
)

// Event is a lifecycle notification.
type Event struct {
	Type EventType
	Raw  []byte
	Err  error
}

// Options tune the connection.
type Options struct {
	HandshakeTimeout time.Duration
	WriteWait        time.Duration
	PongWait         time.Duration
	PingInterval     time.Duration
	ReadLimit        int64
	EventBuffer      int
}

// DefaultOptions returns the standard keepalive and buffer settings.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		WriteWait:        10 * time.Second,
		PongWait:         60 * time.Second,
		PingInterval:     30 * time.Second,
		ReadLimit:        64 * 1024,
		EventBuffer:      16,
	}
}

// Endpoint returns the touch pad websocket URL for a host:port address.
func Endpoint(hostport string) string {
	u := url.URL{Scheme: "ws", Host: hostport, Path: Path}
	return u.String()
}

// Conn is a single websocket connection with an explicit lifecycle:
// Connecting -> Open -> Closed, never leaving Closed.
type Conn struct {
	url    string
	opts   Options
	dialer *websocket.Dialer
	log    *zap.SugaredLogger

	mu      sync.Mutex
	state   State
	opened  bool
	closing bool
	ws      *websocket.Conn
	cancel  context.CancelFunc

	writeMu   sync.Mutex
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
}

// New returns an unopened connection to rawURL.
func New(rawURL string, log *zap.SugaredLogger, opts Options) *Conn {
	def := DefaultOptions()
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = def.HandshakeTimeout
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = def.WriteWait
	}
	if opts.PongWait <= 0 {
		opts.PongWait = def.PongWait
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.PongWait {
		opts.PingInterval = opts.PongWait * 9 / 10
	}
	if opts.ReadLimit <= 0 {
		opts.ReadLimit = def.ReadLimit
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = def.EventBuffer
	}
	return &Conn{
		url:  rawURL,
		opts: opts,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		},
		log:    logging.OrNop(log),
		state:  StateConnecting,
		events: make(chan Event, opts.EventBuffer),
		done:   make(chan struct{}),
	}
}

// URL returns the dialled URL.
func (c *Conn) URL() string {
	return c.url
}

// State returns the current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns the lifecycle notifications. The channel is closed after
// EventClosed has been delivered.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Open starts connecting in the background and returns immediately.
func (c *Conn) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return ErrClosed
	}
	if c.opened {
		return ErrAlreadyOpened
	}
	c.opened = true
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	go c.run(runCtx)
	return nil
}

// Send writes msg. It fails with ErrConnectionNotOpen unless the state is Open.
func (c *Conn) Send(msg protocol.Message) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	c.mu.Lock()
	state, ws := c.state, c.ws
	c.mu.Unlock()
	if state != StateOpen || ws == nil {
		return ErrConnectionNotOpen
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = ws.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		// The reader observes the closed socket and reports EventClosed.
		_ = ws.Close()
		return &TransportError{Op: "write", Err: err}
	}
	return nil
}

// Close moves the connection to Closed and releases the socket. It is
// idempotent.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closing = true
		prev := c.state
		c.state = StateClosed
		ws := c.ws
		cancel := c.cancel
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if prev == StateOpen && ws != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteWait))
			err = ws.Close()
		}
		close(c.done)
	})
	return err
}

// run dials, reports EventOpen, and pumps inbound messages until the socket ends.
func (c *Conn) run(ctx context.Context) {
	defer close(c.events)

	c.log.Debugw("dialing", "url", c.url)
	ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.finish(&TransportError{Op: "dial", Err: err})
		return
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		_ = ws.Close()
		c.finish(nil)
		return
	}
	c.ws = ws
	c.state = StateOpen
	c.mu.Unlock()

	c.log.Infow("connection open", "url", c.url)
	c.emit(Event{Type: EventOpen})

	stop := make(chan struct{})
	go c.pingLoop(ws, stop)
	err = c.readLoop(ws)
	close(stop)
	_ = ws.Close()
	c.finish(err)
}

// readLoop forwards inbound messages until the socket fails.
func (c *Conn) readLoop(ws *websocket.Conn) error {
	ws.SetReadLimit(c.opts.ReadLimit)
	_ = ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return &TransportError{Op: "read", Err: err}
		}
		c.emit(Event{Type: EventMessage, Raw: data})
	}
}

// pingLoop keeps the connection alive until stop is closed.
func (c *Conn) pingLoop(ws *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait)); err != nil {
				c.log.Debugw("ping failed", "error", err)
				return
			}
		case <-stop:
			return
		}
	}
}

// finish moves to Closed and emits EventClosed. Errors caused by an explicit
// Close are not reported.
func (c *Conn) finish(err error) {
	c.mu.Lock()
	if c.closing {
		err = nil
	}
	c.state = StateClosed
	c.ws = nil
	c.mu.Unlock()

	if err != nil {
		c.log.Warnw("connection closed", "url", c.url, "error", err)
	} else {
		c.log.Infow("connection closed", "url", c.url)
	}
	c.emit(Event{Type: EventClosed, Err: err})
}

// emit delivers ev, giving up once the connection has been closed and the
// buffer is full.
func (c *Conn) emit(ev Event) {
	select {
	case c.events <- ev:
		return
	default:
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}
