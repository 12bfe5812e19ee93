package ports

import (
	"context"

	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
)

// SceneRepository defines the interface for scene persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type SceneRepository interface {
	// Save persists a scene snapshot (create or update)
	Save(ctx context.Context, scene *aggregates.Scene) error

	// GetByID retrieves a scene by its ID
	GetByID(ctx context.Context, id aggregates.SceneID) (*aggregates.Scene, error)

	// GetByUserID retrieves all scenes for a user
	GetByUserID(ctx context.Context, userID string) ([]*aggregates.Scene, error)

	// Delete removes a scene and all its elements
	Delete(ctx context.Context, id aggregates.SceneID) error
}

// EventArchive defines the interface for durable event persistence
type EventArchive interface {
	// SaveEvents persists domain events
	SaveEvents(ctx context.Context, events []events.DomainEvent) error

	// GetEvents retrieves events for an aggregate
	GetEvents(ctx context.Context, aggregateID string) ([]events.DomainEvent, error)

	// GetEventsByType retrieves events of a specific type
	GetEventsByType(ctx context.Context, eventType string, limit int) ([]events.DomainEvent, error)

	// DeleteEvents removes all events for an aggregate
	DeleteEvents(ctx context.Context, aggregateID string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// EventBus defines the interface for publishing and subscribing to domain events.
// Implementations must isolate producers from subscriber failures: a panicking
// or erroring handler never surfaces back to the publishing call.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for an event type
	Subscribe(eventType string, handler EventHandler) error

	// Unsubscribe removes a handler
	Unsubscribe(eventType string, handler EventHandler) error
}

// EventHandler defines the interface for handling domain events
type EventHandler interface {
	// Handle processes an event
	Handle(ctx context.Context, event events.DomainEvent) error

	// CanHandle checks if this handler can process the event
	CanHandle(eventType string) bool
}

// Renderer abstracts the canvas-facing side effects the editing services
// request: selection indicators and the live preview edge drawn during a
// connection session. Implementations push to connected browsers.
type Renderer interface {
	// RequestIndicator shows a selection indicator for an element
	RequestIndicator(ctx context.Context, ref valueobjects.ElementRef) error

	// RemoveIndicator hides the selection indicator for an element
	RemoveIndicator(ctx context.Context, ref valueobjects.ElementRef) error

	// RequestPreviewEdge draws a preview edge anchored at the source node
	RequestPreviewEdge(ctx context.Context, sourceID valueobjects.ElementID, from valueobjects.Position) error

	// UpdatePreviewEdge moves the free end of the preview edge
	UpdatePreviewEdge(ctx context.Context, to valueobjects.Position) error

	// RemovePreviewEdge removes the preview edge
	RemovePreviewEdge(ctx context.Context) error
}

// TreeNotifier informs the navigation tree about element removal
type TreeNotifier interface {
	// NotifyTreeRemoved tells the tree view an element left the scene
	NotifyTreeRemoved(ctx context.Context, ref valueobjects.ElementRef) error
}

// Animator abstracts deletion animations. FadeOutThenResolve runs the fade
// and invokes resolve exactly once when the animation finishes or is skipped.
type Animator interface {
	FadeOutThenResolve(ctx context.Context, ref valueobjects.ElementRef, resolve func())
}

// ConnectionRegistry tracks live websocket connections per user
type ConnectionRegistry interface {
	// Register stores a connection for a user
	Register(ctx context.Context, userID, connectionID string) error

	// Deregister removes a connection
	Deregister(ctx context.Context, connectionID string) error

	// ConnectionsForUser lists the active connection IDs for a user
	ConnectionsForUser(ctx context.Context, userID string) ([]string, error)
}

// Cache defines the interface for caching
type Cache interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) (interface{}, bool)

	// Set stores a value in cache with TTL in seconds
	Set(ctx context.Context, key string, value interface{}, ttl int) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// Clear removes all values from cache
	Clear(ctx context.Context) error
}

// SceneLock serializes cross-process access to a scene
type SceneLock interface {
	// Acquire takes the lock for a scene, returning a release function
	Acquire(ctx context.Context, sceneID string, ownerID string) (release func(context.Context) error, err error)
}
