package dynamodb

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archboard-backend/application/ports"
)

// OutboxProcessor relays archived editing events that have not yet been
// delivered to the external publisher. Events are written to the archive in
// the same flush as the scene snapshot, so a crash between persisting and
// publishing only delays delivery instead of losing it.
type OutboxProcessor struct {
	archive   *EventArchive
	publisher ports.EventPublisher
	logger    *zap.Logger

	batchSize  int32
	interval   time.Duration
	maxRetries int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates a relay over the event archive
func NewOutboxProcessor(
	archive *EventArchive,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *OutboxProcessor {
	return &OutboxProcessor{
		archive:     archive,
		publisher:   publisher,
		logger:      logger,
		batchSize:   50,
		interval:    5 * time.Second,
		maxRetries:  3,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Start begins relaying pending events in the background
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("starting outbox processor",
		zap.Int32("batchSize", op.batchSize),
		zap.Duration("interval", op.interval),
	)

	go op.relayLoop(ctx)
}

// Stop drains the relay loop and blocks until it exits
func (op *OutboxProcessor) Stop() {
	close(op.stopChan)
	<-op.stoppedChan
	op.logger.Info("outbox processor stopped")
}

func (op *OutboxProcessor) relayLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			if err := op.relayBatch(ctx); err != nil {
				op.logger.Error("outbox batch failed", zap.Error(err))
			}
		}
	}
}

func (op *OutboxProcessor) relayBatch(ctx context.Context) error {
	pending, err := op.archive.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return fmt.Errorf("failed to load pending events: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	published := 0
	failed := 0

	for _, record := range pending {
		if err := op.relayEvent(ctx, record); err != nil {
			op.logger.Error("failed to relay event",
				zap.String("eventID", record.EventID),
				zap.String("eventType", record.EventType),
				zap.Error(err),
			)
			failed++
		} else {
			published++
		}
	}

	op.logger.Debug("outbox batch processed",
		zap.Int("published", published),
		zap.Int("failed", failed),
	)

	return nil
}

func (op *OutboxProcessor) relayEvent(ctx context.Context, record *EventRecord) error {
	event, err := op.archive.recordToEvent(*record)
	if err != nil {
		// Malformed records never become publishable; park them as failed
		return op.markFailed(ctx, record, fmt.Sprintf("failed to decode event: %v", err))
	}

	if err := op.publisher.Publish(ctx, event); err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("publish failed: %v", err))
	}

	return op.markPublished(ctx, record)
}

func (op *OutboxProcessor) markPublished(ctx context.Context, record *EventRecord) error {
	if err := op.archive.MarkEventAsPublished(ctx, record.PK, record.SK); err != nil {
		op.logger.Error("failed to mark event published",
			zap.String("eventID", record.EventID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (op *OutboxProcessor) markFailed(ctx context.Context, record *EventRecord, reason string) error {
	attempts := record.PublishAttempts + 1

	if err := op.archive.MarkEventAsFailed(ctx, record.PK, record.SK, reason, attempts); err != nil {
		op.logger.Error("failed to mark event failed",
			zap.String("eventID", record.EventID),
			zap.Error(err),
		)
		return err
	}

	if attempts >= op.maxRetries {
		op.logger.Warn("event permanently failed",
			zap.String("eventID", record.EventID),
			zap.String("eventType", record.EventType),
			zap.Int("attempts", attempts),
			zap.String("reason", reason),
		)
	}

	return fmt.Errorf("event relay failed: %s", reason)
}
