// Package channel implements the resilient real-time channel shared by
// every live widget in the console: one websocket-style connection with an
// explicit reconnection state machine, an ordered outbound queue, a
// heartbeat, and topic-keyed fan-out of inbound messages.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fraudlens/ringview/internal/model"
)

// Defaults for Options zero values.
const (
	DefaultBackoffBase       = time.Second
	DefaultMaxAttempts       = 5
	DefaultHeartbeatInterval = 30 * time.Second
)

// ErrNotConnected is returned by operations that require an open transport.
var ErrNotConnected = errors.New("channel: not connected")

// BackoffDelay returns the reconnect delay for the given 1-indexed attempt:
// base * 2^(attempt-1).
func BackoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		return base
	}
	return base << (attempt - 1)
}

// TokenProvider supplies the auth token attached to each dial. It is called
// per attempt so rotated tokens are picked up on reconnect.
type TokenProvider func() string

// Options configures a Manager. Zero values take the defaults above.
type Options struct {
	URL               string
	Token             TokenProvider
	Dialer            Dialer
	BackoffBase       time.Duration
	MaxAttempts       int
	HeartbeatInterval time.Duration
	Logger            *slog.Logger
}

// Manager owns the process-wide live channel: exactly one underlying
// transport is open at a time, and only the Manager mutates connection
// state. Construct one per application session with New, share it by
// reference, and tear it down with Disconnect.
type Manager struct {
	opts     Options
	registry *Registry

	mu          sync.Mutex
	state       State
	transport   Transport
	gen         int // connection generation; guards callbacks from stale pumps
	attempts    int
	intentional bool
	queue       []model.Envelope

	reconnectTimer *time.Timer
	heartbeatStop  chan struct{}

	observers map[int]func(State)
	nextObs   int
}

// New returns a Manager in StateDisconnected. Call Connect to open the
// channel.
func New(opts Options) *Manager {
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.HeartbeatInterval == 0 {
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts:      opts,
		registry:  NewRegistry(),
		state:     StateDisconnected,
		observers: make(map[int]func(State)),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers handler for topic (or model.TopicWildcard) and
// returns its unsubscribe function.
func (m *Manager) Subscribe(topic string, handler Handler) func() {
	return m.registry.Subscribe(topic, handler)
}

// OnStateChange registers an observer invoked on every state transition.
// The returned function removes the observer.
func (m *Manager) OnStateChange(fn func(State)) func() {
	m.mu.Lock()
	m.nextObs++
	id := m.nextObs
	m.observers[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// setStateLocked transitions to s and returns the notification to run once
// the caller has released the mutex. Observers never run under the lock so
// they are free to call back into the Manager.
func (m *Manager) setStateLocked(s State) func() {
	if m.state == s {
		return func() {}
	}
	m.state = s
	obs := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		obs = append(obs, fn)
	}
	return func() {
		for _, fn := range obs {
			fn(s)
		}
	}
}

// Connect opens the channel. It is idempotent while already Connecting or
// Connected. A manual Connect clears the intentional-close flag and resets
// the attempt counter, so it also recovers a channel whose reconnects were
// exhausted.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnecting || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.stopTimersLocked()
	m.intentional = false
	m.attempts = 0
	notify := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	notify()

	return m.dial(ctx)
}

// dial attempts to open the transport once. On failure it schedules the
// next reconnect (or exhausts) and returns the dial error.
func (m *Manager) dial(ctx context.Context) error {
	header := http.Header{}
	if m.opts.Token != nil {
		if tok := m.opts.Token(); tok != "" {
			header.Set("Authorization", "Bearer "+tok)
		}
	}

	t, err := m.opts.Dialer.Dial(ctx, m.opts.URL, header)

	m.mu.Lock()
	if m.intentional {
		m.mu.Unlock()
		if t != nil {
			t.Close()
		}
		return nil
	}
	if err != nil {
		m.opts.Logger.Warn("channel dial failed", "url", m.opts.URL, "error", err)
		notify := m.scheduleReconnectLocked()
		m.mu.Unlock()
		notify()
		return err
	}

	m.transport = t
	m.gen++
	gen := m.gen
	m.attempts = 0
	notify := m.setStateLocked(StateConnected)
	if err := m.flushQueueLocked(); err != nil {
		// The fresh transport failed before the queue drained. Staying
		// Connected would let a live Send overtake the queued remainder,
		// so treat this as an immediate transport close.
		m.opts.Logger.Warn("channel flush after connect failed", "error", err)
		t.Close()
		m.transport = nil
		notifyWait := m.scheduleReconnectLocked()
		m.mu.Unlock()
		notify()
		notifyWait()
		return err
	}
	m.heartbeatStop = make(chan struct{})
	go m.heartbeat(gen, m.heartbeatStop)
	go m.readPump(t, gen)
	m.mu.Unlock()
	notify()
	return nil
}

// scheduleReconnectLocked advances the attempt counter and either arms the
// backoff timer or, past MaxAttempts, gives up into StateDisconnected. The
// returned notification must run after the mutex is released.
func (m *Manager) scheduleReconnectLocked() func() {
	m.attempts++
	if m.attempts > m.opts.MaxAttempts {
		m.opts.Logger.Warn("channel reconnect attempts exhausted", "attempts", m.opts.MaxAttempts)
		return m.setStateLocked(StateDisconnected)
	}

	delay := BackoffDelay(m.opts.BackoffBase, m.attempts)
	m.opts.Logger.Info("channel reconnect scheduled", "attempt", m.attempts, "delay", delay)
	notify := m.setStateLocked(StateReconnectWait)
	m.reconnectTimer = time.AfterFunc(delay, m.redial)
	return notify
}

// redial fires from the backoff timer.
func (m *Manager) redial() {
	m.mu.Lock()
	if m.intentional || m.state != StateReconnectWait {
		m.mu.Unlock()
		return
	}
	notify := m.setStateLocked(StateConnecting)
	m.mu.Unlock()
	notify()

	// Errors are already logged and the next attempt scheduled inside dial.
	_ = m.dial(context.Background())
}

// Disconnect closes the channel for good: it sets the intentional-close
// flag, synchronously clears the heartbeat and any pending reconnect timer,
// and closes the transport. No reconnect will fire afterwards; a later
// close event from the dying transport is ignored.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.intentional = true
	m.stopTimersLocked()
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	m.gen++ // invalidate any in-flight pump callbacks
	notify := m.setStateLocked(StateDisconnected)
	m.mu.Unlock()
	notify()
}

func (m *Manager) stopTimersLocked() {
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
}

// Send delivers an envelope for topic. While Connected it writes
// immediately; otherwise the message joins the FIFO outbound queue and is
// flushed, in original order, on the next transition to Connected. Queued
// messages are never reordered or dropped.
func (m *Manager) Send(topic string, payload any) error {
	env, err := model.NewEnvelope(topic, payload)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateConnected || m.transport == nil {
		m.queue = append(m.queue, env)
		return nil
	}
	return m.writeLocked(env)
}

func (m *Manager) writeLocked(env model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return m.transport.Write(data)
}

// flushQueueLocked drains the outbound queue in insertion order. On a write
// failure the unsent remainder stays queued; the caller must then tear the
// connection down so no live send can slip ahead of the remainder.
func (m *Manager) flushQueueLocked() error {
	for i, env := range m.queue {
		if err := m.writeLocked(env); err != nil {
			m.queue = m.queue[i:]
			return err
		}
	}
	m.queue = nil
	return nil
}

// QueuedLen returns the number of messages waiting for the next connection.
func (m *Manager) QueuedLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// heartbeat sends a ping on a fixed interval while the connection that
// started it is still current.
func (m *Manager) heartbeat(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(m.opts.HeartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			env, err := model.NewEnvelope(model.TopicPing, nil)
			if err != nil {
				continue
			}
			m.mu.Lock()
			if m.gen != gen || m.state != StateConnected || m.transport == nil {
				m.mu.Unlock()
				return
			}
			if err := m.writeLocked(env); err != nil {
				m.opts.Logger.Warn("heartbeat write failed", "error", err)
			}
			m.mu.Unlock()
		}
	}
}

// readPump reads until the transport fails, dispatching each well-formed
// envelope in arrival order. Ping/pong control messages are consumed here
// and never reach business handlers.
func (m *Manager) readPump(t Transport, gen int) {
	for {
		data, err := t.Read()
		if err != nil {
			m.handleTransportClose(gen, err)
			return
		}

		var env model.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			// Protocol error: drop the message, keep the channel alive.
			m.opts.Logger.Warn("dropping malformed message", "error", err)
			continue
		}

		switch env.Type {
		case model.TopicPong:
			// Heartbeat reply, consumed internally.
		case model.TopicPing:
			if pong, err := model.NewEnvelope(model.TopicPong, nil); err == nil {
				m.mu.Lock()
				if m.gen == gen && m.transport != nil {
					_ = m.writeLocked(pong)
				}
				m.mu.Unlock()
			}
		default:
			m.registry.Dispatch(env)
		}
	}
}

// handleTransportClose reacts to a transport failure. Closes of a stale
// generation (already replaced or intentionally shut down) are ignored;
// otherwise the manager moves to ReconnectWait and arms the backoff timer.
func (m *Manager) handleTransportClose(gen int, err error) {
	m.mu.Lock()
	if m.gen != gen || m.intentional {
		m.mu.Unlock()
		return
	}
	m.opts.Logger.Warn("channel transport closed", "error", err)
	if m.transport != nil {
		m.transport.Close()
		m.transport = nil
	}
	if m.heartbeatStop != nil {
		close(m.heartbeatStop)
		m.heartbeatStop = nil
	}
	notify := m.scheduleReconnectLocked()
	m.mu.Unlock()
	notify()
}
