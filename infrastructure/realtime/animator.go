package realtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/valueobjects"
)

const msgFadeOut = "canvas.fade_out"

// FadeAnimator plays a fade-out on connected clients and resolves the
// deletion when the fade window elapses. With a zero duration the resolve
// runs immediately on the calling goroutine, which is what the immediate
// deletion mode and tests use.
type FadeAnimator struct {
	broadcaster *Broadcaster
	duration    time.Duration
	logger      *zap.Logger
}

var _ ports.Animator = (*FadeAnimator)(nil)

// NewFadeAnimator creates an animator with the given fade window
func NewFadeAnimator(broadcaster *Broadcaster, duration time.Duration, logger *zap.Logger) *FadeAnimator {
	return &FadeAnimator{
		broadcaster: broadcaster,
		duration:    duration,
		logger:      logger,
	}
}

// FadeOutThenResolve starts the fade and invokes resolve exactly once when
// the window elapses
func (a *FadeAnimator) FadeOutThenResolve(ctx context.Context, ref valueobjects.ElementRef, resolve func()) {
	if a.broadcaster != nil {
		err := a.broadcaster.Broadcast(ctx, msgFadeOut, map[string]interface{}{
			"element_id":   ref.ID.String(),
			"element_type": string(ref.Type),
			"duration_ms":  a.duration.Milliseconds(),
		})
		if err != nil {
			a.logger.Warn("failed to broadcast fade",
				zap.String("element", ref.String()),
				zap.Error(err),
			)
		}
	}

	if a.duration <= 0 {
		resolve()
		return
	}

	time.AfterFunc(a.duration, resolve)
}

// NoopAnimator resolves immediately without any client-side animation
type NoopAnimator struct{}

var _ ports.Animator = NoopAnimator{}

// FadeOutThenResolve invokes resolve synchronously
func (NoopAnimator) FadeOutThenResolve(_ context.Context, _ valueobjects.ElementRef, resolve func()) {
	resolve()
}
