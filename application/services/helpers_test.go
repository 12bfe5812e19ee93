package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	"archboard-backend/domain/events"
)

// recordingBus captures published events so tests can assert on what the
// services emitted and in which order.
type recordingBus struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (b *recordingBus) Publish(_ context.Context, event events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) PublishBatch(_ context.Context, batch []events.DomainEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, batch...)
	return nil
}

func (b *recordingBus) countOf(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, event := range b.events {
		if event.GetEventType() == eventType {
			count++
		}
	}
	return count
}

func (b *recordingBus) lastOf(eventType string) events.DomainEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.events) - 1; i >= 0; i-- {
		if b.events[i].GetEventType() == eventType {
			return b.events[i]
		}
	}
	return nil
}

func (b *recordingBus) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// fakeRenderer records indicator and preview-edge requests.
type fakeRenderer struct {
	mu         sync.Mutex
	indicators map[valueobjects.ElementRef]bool
	previewOn  bool
	previewSrc valueobjects.ElementID
	pointer    valueobjects.Position
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{indicators: make(map[valueobjects.ElementRef]bool)}
}

func (r *fakeRenderer) RequestIndicator(_ context.Context, ref valueobjects.ElementRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indicators[ref] = true
	return nil
}

func (r *fakeRenderer) RemoveIndicator(_ context.Context, ref valueobjects.ElementRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.indicators, ref)
	return nil
}

func (r *fakeRenderer) RequestPreviewEdge(_ context.Context, sourceID valueobjects.ElementID, from valueobjects.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previewOn = true
	r.previewSrc = sourceID
	r.pointer = from
	return nil
}

func (r *fakeRenderer) UpdatePreviewEdge(_ context.Context, to valueobjects.Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pointer = to
	return nil
}

func (r *fakeRenderer) RemovePreviewEdge(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.previewOn = false
	return nil
}

func (r *fakeRenderer) hasIndicator(ref valueobjects.ElementRef) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.indicators[ref]
}

func (r *fakeRenderer) previewActive() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.previewOn
}

// fakeTree records tree removal notifications in order.
type fakeTree struct {
	mu      sync.Mutex
	removed []valueobjects.ElementRef
}

func (t *fakeTree) NotifyTreeRemoved(_ context.Context, ref valueobjects.ElementRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removed = append(t.removed, ref)
	return nil
}

func (t *fakeTree) removedRefs() []valueobjects.ElementRef {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]valueobjects.ElementRef, len(t.removed))
	copy(out, t.removed)
	return out
}

// immediateAnimator resolves the fade synchronously, like the production
// animator with fades disabled.
type immediateAnimator struct{}

func (immediateAnimator) FadeOutThenResolve(_ context.Context, _ valueobjects.ElementRef, resolve func()) {
	resolve()
}

// manualAnimator holds fade resolutions until the test releases them,
// simulating an animation still in progress.
type manualAnimator struct {
	mu      sync.Mutex
	pending []func()
}

func (a *manualAnimator) FadeOutThenResolve(_ context.Context, _ valueobjects.ElementRef, resolve func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, resolve)
}

func (a *manualAnimator) release() {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()
	for _, resolve := range pending {
		resolve()
	}
}

func defaultMeta() entities.PropertyMeta {
	return entities.PropertyMeta{Category: "general"}
}

func mustLabel(t *testing.T, text string) valueobjects.Label {
	t.Helper()
	label, err := valueobjects.NewLabel(text)
	require.NoError(t, err)
	return label
}

func testBounds(x, y float64) valueobjects.Bounds {
	return valueobjects.NewBounds(valueobjects.NewPosition(x, y), 120, 60)
}

func newTestScene(t *testing.T) *aggregates.Scene {
	t.Helper()
	scene, err := aggregates.NewScene("user-1", "Payment Platform")
	require.NoError(t, err)
	scene.MarkEventsAsCommitted()
	return scene
}

func addTestNode(t *testing.T, scene *aggregates.Scene, name string) *entities.Node {
	t.Helper()
	node, err := entities.NewNode(scene.ID().String(), entities.KindSystem, mustLabel(t, name), testBounds(0, 0))
	require.NoError(t, err)
	require.NoError(t, scene.AddNode(node))
	return node
}
