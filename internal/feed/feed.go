// Package feed broadcasts log events to live observers. The server's
// terminal feed subscribes here; the hub tees off the global zap logger.
package feed

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event is one log record as seen by feed subscribers.
type Event struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Hub fans log events out to subscribers and keeps a bounded replay
// buffer so a new subscriber sees recent history.
type Hub struct {
	mu     sync.Mutex
	buffer []Event
	cap    int
	subs   map[chan Event]struct{}
}

// NewHub builds a hub retaining up to capacity recent events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 256
	}
	return &Hub{cap: capacity, subs: map[chan Event]struct{}{}}
}

// Publish records an event and delivers it to every subscriber. Slow
// subscribers drop events rather than block the logger.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buffer = append(h.buffer, ev)
	if len(h.buffer) > h.cap {
		h.buffer = h.buffer[len(h.buffer)-h.cap:]
	}
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a new observer. It receives the replay buffer first,
// then live events. The returned cancel must be called when done.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	// The channel holds the whole replay buffer plus headroom, and the
	// replay is queued before the subscriber is registered, so live events
	// can never interleave ahead of older history.
	ch := make(chan Event, h.cap+64)
	for _, ev := range h.buffer {
		ch <- ev
	}
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// core is a zapcore.Core that mirrors entries into the hub.
type core struct {
	zapcore.LevelEnabler
	hub *Hub
}

func (c *core) With([]zapcore.Field) zapcore.Core { return c }

func (c *core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *core) Write(ent zapcore.Entry, _ []zapcore.Field) error {
	c.hub.Publish(Event{Time: ent.Time, Level: ent.Level.String(), Message: ent.Message})
	return nil
}

func (c *core) Sync() error { return nil }

// AttachToGlobals tees the global logger into the hub so every log line
// also reaches feed subscribers.
func (h *Hub) AttachToGlobals(level zapcore.Level) {
	logger := zap.L().WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, &core{LevelEnabler: level, hub: h})
	}))
	zap.ReplaceGlobals(logger)
}
