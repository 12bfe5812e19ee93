package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics buffers counters and timers and flushes them to CloudWatch.
// Datums are batched to stay under the PutMetricData limit of 20 per call.
type Metrics struct {
	namespace string
	client    *cloudwatch.Client

	mu      sync.Mutex
	pending []types.MetricDatum
}

// NewMetrics creates a CloudWatch-backed metrics sink. A nil client turns
// every recording into a no-op, which keeps local development quiet.
func NewMetrics(namespace string, client *cloudwatch.Client) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
	}
}

// Increment records one occurrence of a metric
func (m *Metrics) Increment(metric, label string) {
	m.record(types.MetricDatum{
		MetricName: aws.String(metric),
		Value:      aws.Float64(1),
		Unit:       types.StandardUnitCount,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Label"), Value: aws.String(label)},
		},
	})
}

// StartTimer begins timing an operation; Stop records the elapsed time
func (m *Metrics) StartTimer(metric, label string) Timer {
	return &cloudWatchTimer{
		metrics: m,
		metric:  metric,
		label:   label,
		started: time.Now(),
	}
}

// Flush sends buffered datums to CloudWatch
func (m *Metrics) Flush(ctx context.Context) error {
	if m.client == nil {
		return nil
	}

	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for len(pending) > 0 {
		batch := pending
		if len(batch) > 20 {
			batch = batch[:20]
		}
		pending = pending[len(batch):]

		_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(m.namespace),
			MetricData: batch,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) record(datum types.MetricDatum) {
	if m.client == nil {
		return
	}

	m.mu.Lock()
	m.pending = append(m.pending, datum)
	flush := len(m.pending) >= 20
	m.mu.Unlock()

	if flush {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = m.Flush(ctx)
		}()
	}
}

// Timer measures one operation
type Timer interface {
	Stop()
}

type cloudWatchTimer struct {
	metrics *Metrics
	metric  string
	label   string
	started time.Time
}

func (t *cloudWatchTimer) Stop() {
	t.metrics.record(types.MetricDatum{
		MetricName: aws.String(t.metric),
		Value:      aws.Float64(float64(time.Since(t.started).Milliseconds())),
		Unit:       types.StandardUnitMilliseconds,
		Timestamp:  aws.Time(time.Now()),
		Dimensions: []types.Dimension{
			{Name: aws.String("Label"), Value: aws.String(t.label)},
		},
	})
}
