package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"archboard-backend/application/ports"
)

// SceneLock serializes cross-process access to a scene using DynamoDB
// conditional writes. Within one process the editor mutex already
// serializes operations; this lock covers multiple API instances sharing
// a scene.
type SceneLock struct {
	client       *dynamodb.Client
	tableName    string
	lockDuration time.Duration
	logger       *zap.Logger
}

// lockRecord represents a lock item in DynamoDB
type lockRecord struct {
	PK         string `dynamodbav:"PK"` // LOCK#SCENE#<scene_id>
	SK         string `dynamodbav:"SK"` // LOCK
	LockID     string `dynamodbav:"LockID"`
	Owner      string `dynamodbav:"Owner"`
	AcquiredAt string `dynamodbav:"AcquiredAt"`
	ExpiresAt  string `dynamodbav:"ExpiresAt"`
	TTL        int64  `dynamodbav:"TTL"`
}

// NewSceneLock creates a scene lock backed by DynamoDB
func NewSceneLock(client *dynamodb.Client, tableName string, lockDuration time.Duration, logger *zap.Logger) ports.SceneLock {
	if lockDuration <= 0 {
		lockDuration = 30 * time.Second
	}
	return &SceneLock{
		client:       client,
		tableName:    tableName,
		lockDuration: lockDuration,
		logger:       logger,
	}
}

// Acquire takes the lock for a scene. It fails fast if another owner holds
// an unexpired lock; the returned release function frees it.
func (sl *SceneLock) Acquire(ctx context.Context, sceneID string, ownerID string) (func(context.Context) error, error) {
	lockID := fmt.Sprintf("%s_%d", ownerID, time.Now().UnixNano())
	now := time.Now()
	expiresAt := now.Add(sl.lockDuration)
	pk := fmt.Sprintf("LOCK#SCENE#%s", sceneID)

	item := map[string]types.AttributeValue{
		"PK":         &types.AttributeValueMemberS{Value: pk},
		"SK":         &types.AttributeValueMemberS{Value: "LOCK"},
		"LockID":     &types.AttributeValueMemberS{Value: lockID},
		"Owner":      &types.AttributeValueMemberS{Value: ownerID},
		"AcquiredAt": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		"ExpiresAt":  &types.AttributeValueMemberS{Value: expiresAt.Format(time.RFC3339)},
		"TTL":        &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt.Unix())},
	}

	input := &dynamodb.PutItemInput{
		TableName:           aws.String(sl.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK) OR ExpiresAt < :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)},
		},
	}

	if _, err := sl.client.PutItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			sl.logger.Debug("scene lock already held",
				zap.String("sceneID", sceneID),
				zap.String("owner", ownerID),
			)
			return nil, fmt.Errorf("scene %s is locked by another editor", sceneID)
		}
		return nil, fmt.Errorf("failed to acquire scene lock: %w", err)
	}

	sl.logger.Debug("scene lock acquired",
		zap.String("sceneID", sceneID),
		zap.String("lockID", lockID),
		zap.String("owner", ownerID),
	)

	release := func(releaseCtx context.Context) error {
		return sl.release(releaseCtx, pk, lockID, ownerID, sceneID)
	}

	return release, nil
}

func (sl *SceneLock) release(ctx context.Context, pk, lockID, ownerID, sceneID string) error {
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(sl.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: pk},
			"SK": &types.AttributeValueMemberS{Value: "LOCK"},
		},
		ConditionExpression: aws.String("LockID = :lockId AND #owner = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#owner": "Owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":lockId": &types.AttributeValueMemberS{Value: lockID},
			":owner":  &types.AttributeValueMemberS{Value: ownerID},
		},
	}

	if _, err := sl.client.DeleteItem(ctx, input); err != nil {
		var conditionalCheckFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionalCheckFailed) {
			sl.logger.Warn("scene lock already released or owned elsewhere",
				zap.String("sceneID", sceneID),
				zap.String("lockID", lockID),
			)
			return nil
		}
		return fmt.Errorf("failed to release scene lock: %w", err)
	}

	sl.logger.Debug("scene lock released",
		zap.String("sceneID", sceneID),
		zap.String("lockID", lockID),
	)

	return nil
}
