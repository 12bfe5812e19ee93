// Package main implements the WebSocket push Lambda. It consumes domain
// events relayed through EventBridge and pushes them to connected editor
// clients, scoping delivery to the owning user when the event names one.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"archboard-backend/infrastructure/config"
	dynamostore "archboard-backend/infrastructure/persistence/dynamodb"
	"archboard-backend/infrastructure/realtime"
)

var (
	broadcaster *realtime.Broadcaster
	logger      *zap.Logger
)

// PushRequest is the direct-invocation payload. EventBridge events are
// translated into this shape before delivery.
type PushRequest struct {
	EventType    string                 `json:"event_type"`
	TargetUserID string                 `json:"target_user_id,omitempty"`
	TargetUsers  []string               `json:"target_users,omitempty"`
	Broadcast    bool                   `json:"broadcast,omitempty"`
	Payload      map[string]interface{} `json:"payload"`
}

func init() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err = zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	dynamoClient := awsdynamodb.NewFromConfig(awsCfg)
	registry := dynamostore.NewConnectionRegistry(dynamoClient, cfg.ConnectionsTable, logger)

	apiClient := apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		if cfg.WebSocketEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.WebSocketEndpoint)
		}
	})

	broadcaster = realtime.NewBroadcaster(apiClient, registry, logger)

	logger.Info("WebSocket push handler initialized")
}

func push(ctx context.Context, req PushRequest) error {
	switch {
	case req.Broadcast:
		return broadcaster.Broadcast(ctx, req.EventType, req.Payload)
	case req.TargetUserID != "":
		return broadcaster.BroadcastToUser(ctx, req.TargetUserID, req.EventType, req.Payload)
	case len(req.TargetUsers) > 0:
		var lastErr error
		for _, userID := range req.TargetUsers {
			if err := broadcaster.BroadcastToUser(ctx, userID, req.EventType, req.Payload); err != nil {
				logger.Warn("push to user failed",
					zap.String("userID", userID),
					zap.Error(err),
				)
				lastErr = err
			}
		}
		return lastErr
	default:
		return fmt.Errorf("push request names no target")
	}
}

// fromDomainEvent converts a relayed domain event into a push request.
// Events carry the owning user, so delivery is scoped to that user's
// connections; events without one fan out to everyone.
func fromDomainEvent(event events.CloudWatchEvent) (PushRequest, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(event.Detail, &payload); err != nil {
		return PushRequest{}, fmt.Errorf("failed to parse event detail: %w", err)
	}

	req := PushRequest{
		EventType: event.DetailType,
		Payload:   payload,
	}

	if userID, ok := payload["user_id"].(string); ok && userID != "" {
		req.TargetUserID = userID
	} else {
		req.Broadcast = true
	}

	return req, nil
}

// handler accepts EventBridge domain events, direct push requests, and
// SQS batches of push requests.
func handler(ctx context.Context, event json.RawMessage) error {
	var cloudWatchEvent events.CloudWatchEvent
	if err := json.Unmarshal(event, &cloudWatchEvent); err == nil && cloudWatchEvent.DetailType != "" {
		logger.Info("pushing domain event", zap.String("detailType", cloudWatchEvent.DetailType))

		req, err := fromDomainEvent(cloudWatchEvent)
		if err != nil {
			return err
		}
		return push(ctx, req)
	}

	var sqsEvent events.SQSEvent
	if err := json.Unmarshal(event, &sqsEvent); err == nil && len(sqsEvent.Records) > 0 {
		for _, record := range sqsEvent.Records {
			var req PushRequest
			if err := json.Unmarshal([]byte(record.Body), &req); err != nil {
				logger.Warn("skipping unparseable queue record", zap.Error(err))
				continue
			}
			if err := push(ctx, req); err != nil {
				logger.Warn("queued push failed", zap.Error(err))
			}
		}
		return nil
	}

	var req PushRequest
	if err := json.Unmarshal(event, &req); err == nil && req.EventType != "" {
		return push(ctx, req)
	}

	return fmt.Errorf("unable to parse push event")
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		log.Fatal("This handler only runs inside AWS Lambda")
	}
	lambda.Start(handler)
}
