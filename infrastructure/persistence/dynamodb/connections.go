package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"archboard-backend/application/ports"
)

const connectionTTL = 2 * time.Hour

// ConnectionRegistry tracks live websocket connections in DynamoDB.
// Items are keyed PK=USER#<user_id>, SK=CONN#<connection_id> with GSI1
// inverted so a disconnect can find the owning user from the connection
// ID alone. A TTL sweeps connections that never disconnected cleanly.
type ConnectionRegistry struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

var _ ports.ConnectionRegistry = (*ConnectionRegistry)(nil)

// NewConnectionRegistry creates a DynamoDB-backed connection registry
func NewConnectionRegistry(client *dynamodb.Client, tableName string, logger *zap.Logger) *ConnectionRegistry {
	return &ConnectionRegistry{
		client:    client,
		tableName: tableName,
		indexName: "connection-id-index",
		logger:    logger,
	}
}

// Register stores a connection for a user
func (r *ConnectionRegistry) Register(ctx context.Context, userID, connectionID string) error {
	pk := fmt.Sprintf("USER#%s", userID)
	sk := fmt.Sprintf("CONN#%s", connectionID)
	expireAt := time.Now().Add(connectionTTL).Unix()

	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"PK":           &types.AttributeValueMemberS{Value: pk},
			"SK":           &types.AttributeValueMemberS{Value: sk},
			"GSI1PK":       &types.AttributeValueMemberS{Value: sk},
			"GSI1SK":       &types.AttributeValueMemberS{Value: pk},
			"ConnectionID": &types.AttributeValueMemberS{Value: connectionID},
			"UserID":       &types.AttributeValueMemberS{Value: userID},
			"TTL":          &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expireAt)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to register connection: %w", err)
	}

	r.logger.Debug("connection registered",
		zap.String("userID", userID),
		zap.String("connectionID", connectionID),
	)

	return nil
}

// Deregister removes a connection. The owning user is resolved through the
// inverted index because disconnect events carry only the connection ID.
func (r *ConnectionRegistry) Deregister(ctx context.Context, connectionID string) error {
	sk := fmt.Sprintf("CONN#%s", connectionID)

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(r.indexName),
		KeyConditionExpression: aws.String("GSI1PK = :connpk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":connpk": &types.AttributeValueMemberS{Value: sk},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to look up connection: %w", err)
	}

	for _, item := range result.Items {
		pk, ok := item["PK"].(*types.AttributeValueMemberS)
		if !ok {
			continue
		}
		_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": &types.AttributeValueMemberS{Value: pk.Value},
				"SK": &types.AttributeValueMemberS{Value: sk},
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete connection: %w", err)
		}
	}

	r.logger.Debug("connection deregistered", zap.String("connectionID", connectionID))

	return nil
}

// AllConnectionIDs lists every live connection. Used by the realtime
// broadcaster when a canvas update has no single target user.
func (r *ConnectionRegistry) AllConnectionIDs(ctx context.Context) ([]string, error) {
	var connectionIDs []string

	input := &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(SK, :connprefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":connprefix": &types.AttributeValueMemberS{Value: "CONN#"},
		},
	}

	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connections: %w", err)
		}
		for _, item := range page.Items {
			if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
				connectionIDs = append(connectionIDs, connID.Value)
			}
		}
	}

	return connectionIDs, nil
}

// ConnectionsForUser lists the active connection IDs for a user
func (r *ConnectionRegistry) ConnectionsForUser(ctx context.Context, userID string) ([]string, error) {
	pk := fmt.Sprintf("USER#%s", userID)

	var connectionIDs []string

	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("PK = :userpk AND begins_with(SK, :connprefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userpk":     &types.AttributeValueMemberS{Value: pk},
			":connprefix": &types.AttributeValueMemberS{Value: "CONN#"},
		},
	}

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to query connections: %w", err)
		}
		for _, item := range page.Items {
			if connID, ok := item["ConnectionID"].(*types.AttributeValueMemberS); ok {
				connectionIDs = append(connectionIDs, connID.Value)
			}
		}
	}

	return connectionIDs, nil
}
