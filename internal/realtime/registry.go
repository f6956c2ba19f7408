package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

type BrokerFactory func(ctx context.Context) (Broker, error)

// Registry maps backend names ("hub", "redis") to broker factories so the
// fan-out transport stays a config choice rather than a compile-time one.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]BrokerFactory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]BrokerFactory)}
}

func (r *Registry) Register(name string, f BrokerFactory) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

func (r *Registry) Get(ctx context.Context, name string) (Broker, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown realtime backend: %s", name)
	}
	return f(ctx)
}
