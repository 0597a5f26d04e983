// Package touchpad forwards recognized gestures to a remote controller.
package touchpad

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/frudas24/touchpad/internal/config"
	"github.com/frudas24/touchpad/internal/gesture"
	"github.com/frudas24/touchpad/internal/logging"
	"github.com/frudas24/touchpad/internal/protocol"
	"github.com/frudas24/touchpad/internal/transport"
	"go.uber.org/zap"
)

const (
	defaultQueueLimit   = 32
	defaultGestureQueue = 64
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("controller already started")

// PendingPolicy decides what happens to gestures recognized before the
// handshake has been sent.
type PendingPolicy string

const (
	// PendingDrop discards and logs early gestures.
	PendingDrop PendingPolicy = config.PendingDrop
	// PendingQueue buffers early gestures and flushes them after the handshake.
	PendingQueue PendingPolicy = config.PendingQueue
)

// InboundHandler processes one raw inbound message. Returned errors are
// logged and never stop the controller.
type InboundHandler func(raw []byte) error

// Stats counts controller activity.
type Stats struct {
	Sent           int
	Dropped        int
	Queued         int
	Inbound        int
	ProtocolErrors int
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(log *zap.SugaredLogger) Option {
	return func(c *Controller) {
		c.log = logging.OrNop(log)
	}
}

// WithInboundHandler replaces the default inbound handler.
func WithInboundHandler(h InboundHandler) Option {
	return func(c *Controller) {
		if h != nil {
			c.inbound = h
		}
	}
}

// WithPendingPolicy sets the early-gesture policy and the queue bound.
func WithPendingPolicy(policy PendingPolicy, queueLimit int) Option {
	return func(c *Controller) {
		c.policy = policy
		if queueLimit > 0 {
			c.queueLimit = queueLimit
		}
	}
}

// WithTransportOptions overrides the websocket settings.
func WithTransportOptions(opts transport.Options) Option {
	return func(c *Controller) {
		c.transportOpts = opts
	}
}

// Controller owns one connection and one gesture subscription. All
// connection events and gestures are processed sequentially by Run.
type Controller struct {
	addr          config.Address
	source        gesture.Source
	conn          *transport.Conn
	log           *zap.SugaredLogger
	inbound       InboundHandler
	policy        PendingPolicy
	queueLimit    int
	transportOpts transport.Options

	gestures  chan gesture.Event
	ready     chan struct{}
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	started bool
	sub     gesture.Subscription
	stats   Stats

	// Owned by Run.
	handshakeSent bool
	pending       []gesture.Kind
}

// New creates a controller for the remote controller at addr.
func New(addr config.Address, source gesture.Source, opts ...Option) (*Controller, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	if source == nil {
		return nil, errors.New("gesture source is required")
	}

	c := &Controller{
		addr:          addr,
		source:        source,
		log:           logging.OrNop(nil),
		policy:        PendingDrop,
		queueLimit:    defaultQueueLimit,
		transportOpts: transport.DefaultOptions(),
		gestures:      make(chan gesture.Event, defaultGestureQueue),
		ready:         make(chan struct{}),
		closed:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	switch c.policy {
	case PendingDrop, PendingQueue:
	default:
		return nil, fmt.Errorf("unknown pending policy %q", c.policy)
	}
	if c.inbound == nil {
		c.inbound = c.logInbound
	}
	c.conn = transport.New(transport.Endpoint(addr.HostPort()), c.log, c.transportOpts)
	return c, nil
}

// Start opens the connection and subscribes to the gesture source. Pair it
// with Close to release both.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrAlreadyStarted
	}
	select {
	case <-c.closed:
		return transport.ErrClosed
	default:
	}

	c.sub = c.source.Subscribe(c.onGesture)
	if err := c.conn.Open(ctx); err != nil {
		c.sub.Unsubscribe()
		c.sub = nil
		return err
	}
	c.started = true
	c.log.Infow("touch pad started", "url", c.conn.URL(), "pending", string(c.policy))
	return nil
}

// Run processes connection events and gestures until ctx is done, Close is
// called, or the connection closes. A transport failure is returned.
func (c *Controller) Run(ctx context.Context) error {
	events := c.conn.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.closed:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if done, err := c.handleConnEvent(ev); done {
				return err
			}
		case ev := <-c.gestures:
			c.handleGesture(ev.Kind)
		}
	}
}

// Ready is closed once the handshake has been sent.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// State returns the connection state.
func (c *Controller) State() transport.State {
	return c.conn.State()
}

// Stats returns a snapshot of the counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close unsubscribes from the gesture source and closes the connection. It
// is idempotent.
func (c *Controller) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		sub := c.sub
		c.sub = nil
		c.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		err = c.conn.Close()
		close(c.closed)
		c.log.Infow("touch pad closed", "stats", c.Stats())
	})
	return err
}

// onGesture hands a recognized gesture to Run without blocking the source.
func (c *Controller) onGesture(ev gesture.Event) {
	select {
	case c.gestures <- ev:
	default:
		c.count(func(s *Stats) { s.Dropped++ })
		c.log.Warnw("gesture dropped: controller busy", "kind", string(ev.Kind))
	}
}

// handleConnEvent processes one lifecycle event and reports whether Run must stop.
func (c *Controller) handleConnEvent(ev transport.Event) (bool, error) {
	switch ev.Type {
	case transport.EventOpen:
		c.sendHandshake()
		return false, nil
	case transport.EventMessage:
		c.handleInbound(ev.Raw)
		return false, nil
	case transport.EventClosed:
		return true, ev.Err
	default:
		return false, nil
	}
}

// sendHandshake sends the TouchPadData-Request once per connection and
// flushes queued gestures.
func (c *Controller) sendHandshake() {
	if c.handshakeSent {
		return
	}
	c.handshakeSent = true
	if err := c.conn.Send(protocol.NewTouchPadDataRequest()); err != nil {
		c.log.Warnw("handshake failed", "error", err)
	} else {
		c.count(func(s *Stats) { s.Sent++ })
		c.log.Debugw("handshake sent")
	}
	close(c.ready)

	pending := c.pending
	c.pending = nil
	for _, kind := range pending {
		c.send(kind)
	}
}

// handleGesture sends a TouchUpdate, or applies the pending policy while
// the handshake is outstanding.
func (c *Controller) handleGesture(kind gesture.Kind) {
	if c.handshakeSent {
		c.send(kind)
		return
	}

	switch c.policy {
	case PendingQueue:
		if len(c.pending) >= c.queueLimit {
			c.pending = c.pending[1:]
			c.count(func(s *Stats) { s.Dropped++ })
			c.log.Warnw("gesture queue full, oldest dropped", "limit", c.queueLimit)
		}
		c.pending = append(c.pending, kind)
		c.count(func(s *Stats) { s.Queued++ })
		c.log.Debugw("gesture queued until open", "kind", string(kind))
	default:
		c.count(func(s *Stats) { s.Dropped++ })
		c.log.Infow("gesture dropped: connection not open", "kind", string(kind), "state", c.conn.State().String())
	}
}

// send encodes and writes one TouchUpdate.
func (c *Controller) send(kind gesture.Kind) {
	if err := c.conn.Send(protocol.NewTouchUpdate(kind)); err != nil {
		c.count(func(s *Stats) { s.Dropped++ })
		if errors.Is(err, transport.ErrConnectionNotOpen) {
			c.log.Infow("gesture dropped: connection not open", "kind", string(kind), "state", c.conn.State().String())
			return
		}
		c.log.Warnw("gesture send failed", "kind", string(kind), "error", err)
		return
	}
	c.count(func(s *Stats) { s.Sent++ })
}

// handleInbound passes raw to the inbound handler, containing any failure.
func (c *Controller) handleInbound(raw []byte) {
	c.count(func(s *Stats) { s.Inbound++ })
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorw("inbound handler panicked", "panic", r)
		}
	}()
	if err := c.inbound(raw); err != nil {
		if errors.Is(err, protocol.ErrProtocol) {
			c.count(func(s *Stats) { s.ProtocolErrors++ })
		}
		c.log.Warnw("inbound message rejected", "error", err)
	}
}

// logInbound is the default inbound handler: the response protocol is not
// defined yet, so valid messages are only logged.
func (c *Controller) logInbound(raw []byte) error {
	msg, err := protocol.Decode(raw)
	if err != nil {
		return err
	}
	c.log.Debugw("inbound message", "messageType", msg.MessageType)
	return nil
}

// count applies fn to the stats under the lock.
func (c *Controller) count(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}
