package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"
	"go.uber.org/zap"
)

// ConnectionLister supplies the websocket connections a broadcast targets.
// The DynamoDB connection registry satisfies it.
type ConnectionLister interface {
	AllConnectionIDs(ctx context.Context) ([]string, error)
	ConnectionsForUser(ctx context.Context, userID string) ([]string, error)
	Deregister(ctx context.Context, connectionID string) error
}

// Message is the envelope pushed to browser clients
type Message struct {
	Type      string                 `json:"type"`
	Timestamp int64                  `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Broadcaster pushes canvas updates to connected clients through the API
// Gateway management API. Stale connections discovered during a push are
// deregistered instead of failing the broadcast.
type Broadcaster struct {
	client *apigatewaymanagementapi.Client
	lister ConnectionLister
	logger *zap.Logger
}

// NewBroadcaster creates a broadcaster for a websocket endpoint
func NewBroadcaster(client *apigatewaymanagementapi.Client, lister ConnectionLister, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		client: client,
		lister: lister,
		logger: logger,
	}
}

// Broadcast sends a message to every connected client
func (b *Broadcaster) Broadcast(ctx context.Context, messageType string, data map[string]interface{}) error {
	connectionIDs, err := b.lister.AllConnectionIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	return b.send(ctx, connectionIDs, messageType, data)
}

// BroadcastToUser sends a message to one user's connections
func (b *Broadcaster) BroadcastToUser(ctx context.Context, userID, messageType string, data map[string]interface{}) error {
	connectionIDs, err := b.lister.ConnectionsForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list user connections: %w", err)
	}
	return b.send(ctx, connectionIDs, messageType, data)
}

func (b *Broadcaster) send(ctx context.Context, connectionIDs []string, messageType string, data map[string]interface{}) error {
	if len(connectionIDs) == 0 {
		return nil
	}

	payload, err := json.Marshal(Message{
		Type:      messageType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	sent := 0
	failed := 0

	for _, connectionID := range connectionIDs {
		_, err := b.client.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
			ConnectionId: aws.String(connectionID),
			Data:         payload,
		})
		if err != nil {
			var gone *apigwtypes.GoneException
			if errors.As(err, &gone) {
				if derr := b.lister.Deregister(ctx, connectionID); derr != nil {
					b.logger.Warn("failed to drop stale connection",
						zap.String("connectionID", connectionID),
						zap.Error(derr),
					)
				}
				continue
			}
			b.logger.Warn("failed to push to connection",
				zap.String("connectionID", connectionID),
				zap.Error(err),
			)
			failed++
			continue
		}
		sent++
	}

	if failed > 0 && sent == 0 {
		return fmt.Errorf("all %d pushes failed for message %s", failed, messageType)
	}

	return nil
}
