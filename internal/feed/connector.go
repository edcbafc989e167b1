// Package feed implements the resilient streaming price connectors. One
// Connector owns one upstream WebSocket: it manages the
// disconnected/connecting/connected/error state machine, bounded exponential
// reconnect, keepalive and liveness checks, and coalesced publication of
// price updates. Venue-specific framing lives in an Adapter.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skewmarket/skewd/internal/domain"
)

// Adapter abstracts one streaming venue: where to connect, what to send
// after the connection opens, and how to extract (key, price) pairs from the
// venue's payload shapes. Parse must silently drop anything malformed or out
// of range.
type Adapter interface {
	Name() string
	URL(keys []string) string
	SubscribeFrames(keys []string) [][]byte
	Parse(raw []byte) []domain.PriceUpdate
}

// Config holds the per-connector timing and budget parameters.
type Config struct {
	// ConnectDebounce delays the first dial so rapid key-set churn at startup
	// collapses into one connection.
	ConnectDebounce time.Duration

	// FlushInterval is the coalescing window: bursts of updates inside it
	// publish as a single snapshot.
	FlushInterval time.Duration

	// FlashWindow is how long an up/down direction tag stays visible.
	FlashWindow time.Duration

	// PingInterval and PingFrame drive the application-level keepalive.
	// Zero interval disables it.
	PingInterval time.Duration
	PingFrame    []byte

	// HealthInterval and HealthTimeout force a reconnect when no message has
	// arrived within the timeout. Zero interval disables the check.
	HealthInterval time.Duration
	HealthTimeout  time.Duration

	// MaxReconnectAttempts bounds automatic reconnection; once exceeded the
	// connector parks in the terminal error state.
	MaxReconnectAttempts int
	ReconnectBase        time.Duration
	ReconnectMax         time.Duration

	// RequiresKeys makes the connector idle (disconnected) until a non-empty
	// key set is supplied. MaxKeys caps the subscription size; extra keys are
	// silently dropped.
	RequiresKeys bool
	MaxKeys      int

	HandshakeTimeout time.Duration
}

type dirEntry struct {
	dir       domain.PriceDirection
	expiresAt time.Time
}

// Connector owns one streaming connection and its price/direction tables.
// Consumers only ever see copies via Snapshot; the tables are mutated solely
// by the connector's own goroutines.
type Connector struct {
	adapter Adapter
	cfg     Config
	logger  *slog.Logger
	mirror  domain.PriceCache
	onFlush func(domain.FeedSnapshot)
	now     func() time.Time

	mu           sync.Mutex
	status       domain.ConnStatus
	prices       map[string]float64
	directions   map[string]dirEntry
	pendingPrice map[string]float64 // changed since last flush, for the mirror
	keys         []string
	conn         *websocket.Conn
	gen          uint64 // connection generation; stale timers check it
	attempts     int
	lastMsg      time.Time
	flushPending bool
	resub        bool // key count changed; reconnect without burning an attempt

	kick      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Connector for the given adapter. Run must be called to start it.
func New(adapter Adapter, cfg Config, logger *slog.Logger) *Connector {
	if cfg.HandshakeTimeout == 0 {
		cfg.HandshakeTimeout = 15 * time.Second
	}
	return &Connector{
		adapter:      adapter,
		cfg:          cfg,
		logger:       logger.With(slog.String("component", "feed"), slog.String("feed", adapter.Name())),
		now:          time.Now,
		status:       domain.ConnDisconnected,
		prices:       make(map[string]float64),
		directions:   make(map[string]dirEntry),
		pendingPrice: make(map[string]float64),
		kick:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
}

// SetMirror installs an optional live-price mirror written on every flush.
// Must be called before Run.
func (c *Connector) SetMirror(m domain.PriceCache) { c.mirror = m }

// SetOnFlush installs the flush subscriber. Must be called before Run.
func (c *Connector) SetOnFlush(fn func(domain.FeedSnapshot)) { c.onFlush = fn }

// SetKeys replaces the subscription key set. The connector reconnects only
// when the key count changes; same-count replacements are picked up on the
// next natural reconnect to avoid churn. Keys beyond MaxKeys are dropped.
func (c *Connector) SetKeys(keys []string) {
	if c.cfg.MaxKeys > 0 && len(keys) > c.cfg.MaxKeys {
		keys = keys[:c.cfg.MaxKeys]
	}

	c.mu.Lock()
	countChanged := len(keys) != len(c.keys)
	c.keys = append([]string(nil), keys...)
	var conn *websocket.Conn
	if countChanged && c.conn != nil {
		c.resub = true
		conn = c.conn
	}
	c.mu.Unlock()

	if conn != nil {
		// Closing the transport bounces the read loop into a resubscribing
		// reconnect.
		_ = conn.Close()
	}

	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current price table, direction tags, and
// connection status.
func (c *Connector) Snapshot() domain.FeedSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Connector) snapshotLocked() domain.FeedSnapshot {
	now := c.now()
	snap := domain.FeedSnapshot{
		Prices:     make(map[string]float64, len(c.prices)),
		Directions: make(map[string]domain.PriceDirection),
		Status:     c.status,
	}
	for k, v := range c.prices {
		snap.Prices[k] = v
	}
	for k, d := range c.directions {
		if now.Before(d.expiresAt) {
			snap.Directions[k] = d.dir
		} else {
			delete(c.directions, k)
		}
	}
	return snap
}

// Status returns the current connection status.
func (c *Connector) Status() domain.ConnStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close stops the connector, closes the transport, and discards pending
// timers. Safe to call more than once.
func (c *Connector) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
	})
}

// Run drives the connector until ctx is cancelled, Close is called, or the
// reconnect budget is exhausted (terminal error state). It blocks.
func (c *Connector) Run(ctx context.Context) error {
	// Initial debounce before the first dial.
	if c.cfg.ConnectDebounce > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-time.After(c.cfg.ConnectDebounce):
		}
	}

	for {
		if err := c.waitForKeys(ctx); err != nil {
			return err
		}

		err := c.runConnection(ctx)

		select {
		case <-ctx.Done():
			c.setStatus(domain.ConnDisconnected)
			return ctx.Err()
		case <-c.done:
			c.setStatus(domain.ConnDisconnected)
			return nil
		default:
		}

		c.mu.Lock()
		resub := c.resub
		c.resub = false
		c.mu.Unlock()
		if resub {
			// Key-set driven reconnect: immediate, does not spend an attempt.
			c.logger.Debug("resubscribing after key set change")
			continue
		}

		c.mu.Lock()
		c.attempts++
		attempt := c.attempts
		c.mu.Unlock()

		if attempt > c.cfg.MaxReconnectAttempts {
			c.logger.Error("reconnect budget exhausted",
				slog.Int("attempts", attempt-1),
				slog.String("error", errString(err)),
			)
			c.setStatus(domain.ConnError)
			return domain.ErrWSDisconnect
		}

		delay := backoffDelay(attempt-1, c.cfg.ReconnectBase, c.cfg.ReconnectMax)
		c.logger.Warn("feed disconnected, reconnecting",
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("error", errString(err)),
		)
		c.setStatus(domain.ConnConnecting)

		select {
		case <-ctx.Done():
			c.setStatus(domain.ConnDisconnected)
			return ctx.Err()
		case <-c.done:
			c.setStatus(domain.ConnDisconnected)
			return nil
		case <-time.After(delay):
		}
	}
}

// waitForKeys idles in the disconnected state until the key set is non-empty
// (when the adapter needs one).
func (c *Connector) waitForKeys(ctx context.Context) error {
	for {
		c.mu.Lock()
		n := len(c.keys)
		c.mu.Unlock()
		if !c.cfg.RequiresKeys || n > 0 {
			return nil
		}
		c.setStatus(domain.ConnDisconnected)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case <-c.kick:
		}
	}
}

// runConnection performs one full dial/subscribe/read cycle and returns when
// the transport fails or is closed.
func (c *Connector) runConnection(ctx context.Context) error {
	c.setStatus(domain.ConnConnecting)

	c.mu.Lock()
	keys := append([]string(nil), c.keys...)
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, c.adapter.URL(keys), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.gen++
	gen := c.gen
	c.attempts = 0
	c.lastMsg = c.now()
	c.mu.Unlock()

	for _, frame := range c.adapter.SubscribeFrames(keys) {
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			c.dropConn(conn)
			return err
		}
	}

	c.setStatus(domain.ConnConnected)
	c.logger.Info("feed connected", slog.Int("keys", len(keys)))

	timerCtx, cancelTimers := context.WithCancel(ctx)
	defer cancelTimers()
	if c.cfg.PingInterval > 0 {
		go c.pingLoop(timerCtx, conn)
	}
	if c.cfg.HealthInterval > 0 {
		go c.healthLoop(timerCtx, conn)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.dropConn(conn)
			return err
		}
		c.handleMessage(gen, raw)
	}
}

// dropConn closes and forgets the connection if it is still the current one.
func (c *Connector) dropConn(conn *websocket.Conn) {
	_ = conn.Close()
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Connector) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, c.cfg.PingFrame); err != nil {
				return
			}
		}
	}
}

// healthLoop force-closes the connection when no message has arrived within
// the timeout; the read loop then drives a normal reconnect.
func (c *Connector) healthLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(c.cfg.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := c.now().Sub(c.lastMsg) > c.cfg.HealthTimeout
			c.mu.Unlock()
			if stale {
				c.logger.Warn("no messages within health timeout, forcing reconnect")
				_ = conn.Close()
				return
			}
		}
	}
}

// handleMessage applies one raw frame to the price table and schedules a
// coalesced flush. Messages from a superseded connection generation are
// ignored.
func (c *Connector) handleMessage(gen uint64, raw []byte) {
	updates := c.adapter.Parse(raw)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.lastMsg = c.now()
	changed := false
	for _, u := range updates {
		prev, seen := c.prices[u.Key]
		c.prices[u.Key] = u.Price
		c.pendingPrice[u.Key] = u.Price
		changed = true
		if seen && prev != u.Price {
			dir := domain.DirectionUp
			if u.Price < prev {
				dir = domain.DirectionDown
			}
			c.directions[u.Key] = dirEntry{dir: dir, expiresAt: c.now().Add(c.cfg.FlashWindow)}
			// Publish again once the tag has expired so it visibly clears.
			time.AfterFunc(c.cfg.FlashWindow+10*time.Millisecond, func() { c.scheduleFlush() })
		}
	}
	schedule := changed && !c.flushPending
	if schedule {
		c.flushPending = true
	}
	c.mu.Unlock()

	if schedule {
		time.AfterFunc(c.cfg.FlushInterval, c.flush)
	}
}

func (c *Connector) scheduleFlush() {
	select {
	case <-c.done:
		return
	default:
	}
	c.mu.Lock()
	schedule := !c.flushPending
	if schedule {
		c.flushPending = true
	}
	c.mu.Unlock()
	if schedule {
		time.AfterFunc(c.cfg.FlushInterval, c.flush)
	}
}

// flush publishes one coalesced snapshot to the subscriber and the mirror.
func (c *Connector) flush() {
	select {
	case <-c.done:
		return
	default:
	}

	c.mu.Lock()
	c.flushPending = false
	snap := c.snapshotLocked()
	pending := c.pendingPrice
	c.pendingPrice = make(map[string]float64)
	c.mu.Unlock()

	if c.onFlush != nil {
		c.onFlush(snap)
	}

	if c.mirror != nil && len(pending) > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		ts := c.now()
		for key, price := range pending {
			if err := c.mirror.SetPrice(ctx, key, price, ts); err != nil {
				c.logger.Warn("price mirror write failed",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				break
			}
		}
	}
}

func (c *Connector) setStatus(s domain.ConnStatus) {
	c.mu.Lock()
	changed := c.status != s
	c.status = s
	c.mu.Unlock()
	if changed {
		c.logger.Debug("feed status", slog.String("status", string(s)))
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
