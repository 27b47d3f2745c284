package channel

import (
	"sync"

	"github.com/fraudlens/ringview/internal/model"
)

// Handler receives inbound envelopes for a subscribed topic. Handlers run
// on the channel's dispatch goroutine in arrival order, so they must not
// block; defer expensive work elsewhere.
type Handler func(model.Envelope)

// Registry fans inbound messages out to topic subscribers. Handlers
// registered under model.TopicWildcard receive every message. Fan-out for
// one message invokes exact-topic handlers first, then wildcard handlers,
// each in registration order.
type Registry struct {
	mu     sync.RWMutex
	nextID int
	topics map[string][]subscription
}

type subscription struct {
	id int
	fn Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{topics: make(map[string][]subscription)}
}

// Subscribe registers handler under topic and returns a function that
// removes exactly that handler. The returned function is safe to call more
// than once.
func (r *Registry) Subscribe(topic string, handler Handler) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.topics[topic] = append(r.topics[topic], subscription{id: id, fn: handler})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			subs := r.topics[topic]
			for i, s := range subs {
				if s.id == id {
					r.topics[topic] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			if len(r.topics[topic]) == 0 {
				delete(r.topics, topic)
			}
		})
	}
}

// Dispatch delivers env to every handler registered for its exact type,
// then to every wildcard handler.
func (r *Registry) Dispatch(env model.Envelope) {
	r.mu.RLock()
	exact := append([]subscription(nil), r.topics[env.Type]...)
	wild := append([]subscription(nil), r.topics[model.TopicWildcard]...)
	r.mu.RUnlock()

	for _, s := range exact {
		s.fn(env)
	}
	for _, s := range wild {
		s.fn(env)
	}
}
