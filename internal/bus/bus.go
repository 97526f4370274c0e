package bus

import (
	"sync"
	"sync/atomic"

	"github.com/netwatch-io/netwatch/internal/model"
)

// DefaultStreamCapacity is the per-subscriber buffer of the status stream.
const DefaultStreamCapacity = 100

// Config is the single-producer/many-observer holder of the current
// AppConfig. It is safe for concurrent use.
type Config struct {
	mu       sync.RWMutex
	cfg      model.AppConfig
	watchers map[*Watcher]struct{}
}

// NewConfig returns a holder seeded with the initial config.
func NewConfig(initial model.AppConfig) *Config {
	return &Config{
		cfg:      initial.Clone(),
		watchers: make(map[*Watcher]struct{}),
	}
}

// Get returns a deep copy of the current config, safe to retain and mutate.
func (c *Config) Get() model.AppConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg.Clone()
}

// Publish replaces the held config and wakes all watchers. The caller must
// not mutate cfg afterwards; the holder keeps its own copy.
func (c *Config) Publish(cfg model.AppConfig) {
	c.mu.Lock()
	c.cfg = cfg.Clone()
	for w := range c.watchers {
		select {
		case w.c <- struct{}{}:
		default: // already pending, coalesce
		}
	}
	c.mu.Unlock()
}

// Watch registers a new change observer. Close it when done.
func (c *Config) Watch() *Watcher {
	w := &Watcher{c: make(chan struct{}, 1), bus: c}
	c.mu.Lock()
	c.watchers[w] = struct{}{}
	c.mu.Unlock()
	w.C = w.c
	return w
}

// Watcher observes config changes. A receive from C means "the config changed
// at least once since you last looked"; read the latest value with Get.
type Watcher struct {
	C   <-chan struct{}
	c   chan struct{}
	bus *Config
}

// Close unregisters the watcher.
func (w *Watcher) Close() {
	w.bus.mu.Lock()
	delete(w.bus.watchers, w)
	w.bus.mu.Unlock()
}

// Stream broadcasts serialized status snapshots to SSE subscribers.
type Stream struct {
	mu       sync.Mutex
	subs     map[*Subscriber]struct{}
	capacity int
	dropped  func() // invoked per dropped payload, for metrics
}

// NewStream returns a stream with the given per-subscriber capacity
// (DefaultStreamCapacity when zero). The optional dropped callback is called
// once per payload discarded due to a lagging subscriber.
func NewStream(capacity int, dropped func()) *Stream {
	if capacity <= 0 {
		capacity = DefaultStreamCapacity
	}
	return &Stream{
		subs:     make(map[*Subscriber]struct{}),
		capacity: capacity,
		dropped:  dropped,
	}
}

// Subscribe registers a new consumer. Late subscribers receive only future
// publishes; the catch-up "init" snapshot is the HTTP layer's business.
func (s *Stream) Subscribe() *Subscriber {
	sub := &Subscriber{c: make(chan []byte, s.capacity), stream: s}
	sub.C = sub.c
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

// SubscriberCount returns the number of active subscribers.
func (s *Stream) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Publish delivers payload to every subscriber without blocking. A subscriber
// whose buffer is full loses its oldest pending payload and is marked lagged.
func (s *Stream) Publish(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.c <- payload:
			continue
		default:
		}
		// Buffer full: drop the oldest entry to make room, then retry.
		select {
		case <-sub.c:
			sub.lagged.Store(true)
			if s.dropped != nil {
				s.dropped()
			}
		default:
		}
		select {
		case sub.c <- payload:
		default:
		}
	}
}

// Subscriber is one consumer of the status stream.
type Subscriber struct {
	// C yields serialized snapshots in publish order, minus any dropped
	// while this subscriber lagged.
	C      <-chan []byte
	c      chan []byte
	lagged atomic.Bool
	stream *Stream
}

// TakeLagged reports whether deliveries were dropped since the last call,
// clearing the flag.
func (s *Subscriber) TakeLagged() bool {
	return s.lagged.Swap(false)
}

// Close unregisters the subscriber. Pending payloads are discarded.
func (s *Subscriber) Close() {
	s.stream.mu.Lock()
	delete(s.stream.subs, s)
	s.stream.mu.Unlock()
}
