package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
)

var ErrNoQueryHandler = errors.New("no query handler registered")

// Query represents a read-only request against editing state.
type Query interface {
	Validate() error
}

// QueryHandler handles a specific query type.
type QueryHandler interface {
	Handle(ctx context.Context, query Query) (interface{}, error)
}

// QueryHandlerFunc adapts a function to the QueryHandler interface.
type QueryHandlerFunc func(ctx context.Context, query Query) (interface{}, error)

func (f QueryHandlerFunc) Handle(ctx context.Context, query Query) (interface{}, error) {
	return f(ctx, query)
}

// QueryBus routes each query to the handler registered for its concrete type.
type QueryBus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type]QueryHandler
}

func NewQueryBus() *QueryBus {
	return &QueryBus{handlers: make(map[reflect.Type]QueryHandler)}
}

// Register binds a handler to the query's concrete type.
func (b *QueryBus) Register(prototype Query, handler QueryHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := reflect.TypeOf(prototype)
	if _, taken := b.handlers[key]; taken {
		return fmt.Errorf("query %s already has a handler", key.Name())
	}
	b.handlers[key] = handler
	return nil
}

// Ask validates the query, dispatches it, and returns the read model.
func (b *QueryBus) Ask(ctx context.Context, query Query) (interface{}, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("query validation failed: %w", err)
	}

	b.mu.RLock()
	handler, ok := b.handlers[reflect.TypeOf(query)]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNoQueryHandler, query)
	}

	return handler.Handle(ctx, query)
}

// Cache is the subset of the application cache the query bus needs.
type Cache interface {
	Get(ctx context.Context, key string) (interface{}, bool)
	Set(ctx context.Context, key string, value interface{}, ttl int) error
}

// CachingMiddleware serves repeated queries from cache. Editing state moves
// fast, so only listing queries with a short TTL should be wrapped.
type CachingMiddleware struct {
	cache Cache
	ttl   int
}

// NewCachingMiddleware creates a caching middleware with TTL in seconds.
func NewCachingMiddleware(cache Cache, ttl int) *CachingMiddleware {
	return &CachingMiddleware{cache: cache, ttl: ttl}
}

// Wrap adds a read-through cache keyed on the query's type and fields.
func (m *CachingMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		key := fmt.Sprintf("%T:%+v", query, query)
		if hit, ok := m.cache.Get(ctx, key); ok {
			return hit, nil
		}

		result, err := next.Handle(ctx, query)
		if err != nil {
			return nil, err
		}
		m.cache.Set(ctx, key, result, m.ttl)
		return result, nil
	})
}

// Metrics records query execution counts and latency.
type Metrics interface {
	StartTimer(metric, label string) Timer
	Increment(metric, label string)
}

// Timer measures one operation.
type Timer interface {
	Stop()
}

// MetricsMiddleware instruments query handlers.
type MetricsMiddleware struct {
	metrics Metrics
}

func NewMetricsMiddleware(metrics Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{metrics: metrics}
}

// Wrap counts and times each dispatch, tagging failures separately.
func (m *MetricsMiddleware) Wrap(next QueryHandler) QueryHandler {
	return QueryHandlerFunc(func(ctx context.Context, query Query) (interface{}, error) {
		name := reflect.TypeOf(query).Name()

		timer := m.metrics.StartTimer("query_duration", name)
		defer timer.Stop()
		m.metrics.Increment("query_count", name)

		result, err := next.Handle(ctx, query)
		if err != nil {
			m.metrics.Increment("query_errors", name)
			return nil, err
		}
		return result, nil
	})
}
