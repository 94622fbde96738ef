// Package live maintains a single receive-only WebSocket subscription to the
// advisor service's price feed and republishes the latest sample to the UI.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"niftydesk/internal/api"
)

// State is the subscriber connection state.
type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
	StateFailed
)

// String returns a short label for status lines.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "live"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sample is one live price observation. Exactly one is retained; each valid
// frame replaces it wholesale.
type Sample struct {
	Price float64
	Time  time.Time
}

// envelope is the wire frame. Frames whose Type is not "live_price" are
// silently ignored.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type pricePayload struct {
	Price float64       `json:"price"`
	Time  api.Timestamp `json:"time"`
}

// Subscriber owns the feed connection. Run drives the connection from a
// single goroutine; Latest and State are safe from any goroutine.
type Subscriber struct {
	url         string
	maxAttempts int
	baseDelay   time.Duration
	log         *slog.Logger

	mu     sync.RWMutex
	state  State
	latest *Sample

	samples chan Sample
}

// NewSubscriber creates a subscriber for the given WebSocket URL. The feed
// reconnects after transport failures up to maxAttempts times with
// exponential backoff from baseDelay; a healthy connection resets the count.
func NewSubscriber(url string, maxAttempts int, baseDelay time.Duration, log *slog.Logger) *Subscriber {
	return &Subscriber{
		url:         url,
		maxAttempts: maxAttempts,
		baseDelay:   baseDelay,
		log:         log,
		state:       StateConnecting,
		samples:     make(chan Sample, 16),
	}
}

// Samples returns the channel of price updates. The channel is closed when
// Run returns. Slow consumers miss intermediate samples; Latest always holds
// the newest one.
func (s *Subscriber) Samples() <-chan Sample {
	return s.samples
}

// Latest returns a copy of the most recent sample, or nil before the first
// valid frame.
func (s *Subscriber) Latest() *Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil
	}
	cp := *s.latest
	return &cp
}

// State returns the current connection state.
func (s *Subscriber) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Subscriber) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run connects to the feed and consumes frames until ctx is cancelled or the
// reconnect budget is exhausted. Cancellation closes the socket
// deterministically and returns nil.
func (s *Subscriber) Run(ctx context.Context) error {
	defer close(s.samples)

	attempt := 0
	delay := s.baseDelay
	for {
		opened, err := s.connect(ctx)
		if ctx.Err() != nil {
			s.setState(StateClosed)
			return nil
		}
		if err == nil {
			// Server closed the stream normally.
			s.setState(StateClosed)
			return nil
		}

		s.setState(StateFailed)
		if opened {
			// A healthy connection was established; restart the budget.
			attempt = 0
			delay = s.baseDelay
		}

		attempt++
		if attempt >= s.maxAttempts {
			s.log.Error("live feed gave up", "url", s.url, "attempts", attempt, "error", err)
			return fmt.Errorf("live feed: %d attempts: %w", attempt, err)
		}
		s.log.Warn("live feed reconnecting", "attempt", attempt, "delay", delay, "error", err)

		select {
		case <-ctx.Done():
			s.setState(StateClosed)
			return nil
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// connect dials the feed and reads frames until the connection ends. It
// reports whether the handshake succeeded so Run can reset its budget.
func (s *Subscriber) connect(ctx context.Context) (opened bool, err error) {
	s.setState(StateConnecting)

	conn, _, err := websocket.Dial(ctx, s.url, nil)
	if err != nil {
		return false, fmt.Errorf("dialing %s: %w", s.url, err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	s.setState(StateOpen)
	s.log.Info("live feed connected", "url", s.url)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return true, nil
			}
			return true, fmt.Errorf("reading frame: %w", err)
		}
		s.handleFrame(data)
	}
}

// handleFrame applies one inbound frame. Malformed frames are logged and
// dropped; the subscriber never crashes on bad input.
func (s *Subscriber) handleFrame(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.log.Warn("malformed feed frame", "error", &api.ParseError{Op: "live frame", Err: err})
		return
	}
	if env.Type != "live_price" {
		return
	}

	var p pricePayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		s.log.Warn("malformed live_price payload", "error", &api.ParseError{Op: "live payload", Err: err})
		return
	}

	sample := Sample{Price: p.Price, Time: p.Time.Time}
	s.mu.Lock()
	s.latest = &sample
	s.mu.Unlock()

	// Last-write-wins for the UI as well: drop rather than block.
	select {
	case s.samples <- sample:
	default:
	}
}
