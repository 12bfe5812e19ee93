package observability

import (
	"context"

	"github.com/aws/aws-xray-sdk-go/xray"
)

// Tracer wraps X-Ray segment management with the service name prefixed
// onto every root segment.
type Tracer struct {
	service string
}

func NewTracer(service string) *Tracer {
	return &Tracer{service: service}
}

// StartSegment opens a root segment for a unit of work outside an
// incoming-request trace, such as the outbox processor loop.
func (t *Tracer) StartSegment(ctx context.Context, name string) (context.Context, *xray.Segment) {
	return xray.BeginSegment(ctx, t.service+"."+name)
}

// Trace runs fn inside a subsegment and records its error, if any.
func (t *Tracer) Trace(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, seg := xray.BeginSubsegment(ctx, name)
	err := fn(ctx)
	if err != nil {
		seg.AddError(err)
	}
	seg.Close(nil)
	return err
}

// Annotate attaches an indexed key/value pair to the active segment so
// traces can be filtered on it.
func (t *Tracer) Annotate(ctx context.Context, key, value string) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddAnnotation(key, value)
	}
}

// RecordError marks the active segment as failed.
func (t *Tracer) RecordError(ctx context.Context, err error) {
	if seg := xray.GetSegment(ctx); seg != nil {
		seg.AddError(err)
	}
}
