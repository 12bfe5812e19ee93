package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DistributedRateLimiter enforces a fixed-window limit with DynamoDB as
// the shared counter store, so concurrent Lambda invocations see the same
// window. A nil client disables enforcement, which keeps local runs and
// tests working without a table.
type DistributedRateLimiter struct {
	client *dynamodb.Client
	table  string
	limit  int
	window time.Duration
	scope  string
}

type rateWindowItem struct {
	PK    string `dynamodbav:"PK"`
	Count int    `dynamodbav:"Count"`
	TTL   int64  `dynamodbav:"TTL"`
}

// NewDistributedRateLimiter builds a limiter over an arbitrary scope label.
func NewDistributedRateLimiter(client *dynamodb.Client, table string, limit int, window time.Duration, scope string) *DistributedRateLimiter {
	return &DistributedRateLimiter{
		client: client,
		table:  table,
		limit:  limit,
		window: window,
		scope:  scope,
	}
}

// NewDistributedUserRateLimiter builds a per-user, per-minute limiter.
func NewDistributedUserRateLimiter(client *dynamodb.Client, table string, requestsPerMinute int) *DistributedRateLimiter {
	return NewDistributedRateLimiter(client, table, requestsPerMinute, time.Minute, "USER")
}

func (r *DistributedRateLimiter) windowKey(key string, windowStart time.Time) string {
	return fmt.Sprintf("RATELIMIT#%s#%s#%d", r.scope, key, windowStart.Unix())
}

// Allow atomically increments the counter for the current window. The
// conditional expression rejects the write once the limit is reached,
// which distinguishes "over limit" from a transport failure. Transport
// failures fail open.
func (r *DistributedRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if r.client == nil {
		return true, nil
	}

	windowStart := time.Now().Truncate(r.window)
	expiresAt := windowStart.Add(r.window + time.Hour)

	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.windowKey(key, windowStart)},
		},
		UpdateExpression:    aws.String("SET #count = if_not_exists(#count, :zero) + :one, #ttl = :ttl"),
		ConditionExpression: aws.String("attribute_not_exists(#count) OR #count < :limit"),
		ExpressionAttributeNames: map[string]string{
			"#count": "Count",
			"#ttl":   "TTL",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero":  &types.AttributeValueMemberN{Value: "0"},
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":limit": &types.AttributeValueMemberN{Value: strconv.Itoa(r.limit)},
			":ttl":   &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt.Unix(), 10)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return false, nil
		}
		return true, fmt.Errorf("rate limit check failed open: %w", err)
	}

	var item rateWindowItem
	if err := attributevalue.UnmarshalMap(out.Attributes, &item); err != nil {
		return true, fmt.Errorf("rate limit item unreadable, failing open: %w", err)
	}
	return item.Count <= r.limit, nil
}

// Remaining reports how many requests are left in the current window and
// when the window rolls over.
func (r *DistributedRateLimiter) Remaining(ctx context.Context, key string) (int, time.Time, error) {
	windowStart := time.Now().Truncate(r.window)
	rollover := windowStart.Add(r.window)
	if r.client == nil {
		return r.limit, rollover, nil
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.windowKey(key, windowStart)},
		},
	})
	if err != nil || out.Item == nil {
		return r.limit, rollover, err
	}

	var item rateWindowItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return r.limit, rollover, err
	}

	left := r.limit - item.Count
	if left < 0 {
		left = 0
	}
	return left, rollover, nil
}

// Reset drops the counter for the current window.
func (r *DistributedRateLimiter) Reset(ctx context.Context, key string) error {
	if r.client == nil {
		return nil
	}
	windowStart := time.Now().Truncate(r.window)
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: r.windowKey(key, windowStart)},
		},
	})
	return err
}
