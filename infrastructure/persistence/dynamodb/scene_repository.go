package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"archboard-backend/application/ports"
	"archboard-backend/domain/core/aggregates"
	"archboard-backend/domain/core/entities"
	"archboard-backend/domain/core/valueobjects"
	pkgerrors "archboard-backend/pkg/errors"
)

// SceneRepository implements ports.SceneRepository using DynamoDB.
// A scene is stored as one metadata item plus one item per node and edge,
// all sharing the scene partition key.
type SceneRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewSceneRepository creates a new SceneRepository
func NewSceneRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.SceneRepository {
	return &SceneRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// sceneItem is the DynamoDB shape of scene metadata
type sceneItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	GSI1PK      string `dynamodbav:"GSI1PK"`
	GSI1SK      string `dynamodbav:"GSI1SK"`
	EntityType  string `dynamodbav:"EntityType"`
	SceneID     string `dynamodbav:"SceneID"`
	UserID      string `dynamodbav:"UserID"`
	Name        string `dynamodbav:"Name"`
	Description string `dynamodbav:"Description"`
	NodeCount   int    `dynamodbav:"NodeCount"`
	EdgeCount   int    `dynamodbav:"EdgeCount"`
	CreatedAt   string `dynamodbav:"CreatedAt"`
	UpdatedAt   string `dynamodbav:"UpdatedAt"`
	Version     int    `dynamodbav:"Version"`
}

// nodeItem is the DynamoDB shape of a node
type nodeItem struct {
	PK          string  `dynamodbav:"PK"`
	SK          string  `dynamodbav:"SK"`
	EntityType  string  `dynamodbav:"EntityType"`
	NodeID      string  `dynamodbav:"NodeID"`
	SceneID     string  `dynamodbav:"SceneID"`
	Kind        string  `dynamodbav:"Kind"`
	Name        string  `dynamodbav:"Name"`
	Description string  `dynamodbav:"Description"`
	X           float64 `dynamodbav:"X"`
	Y           float64 `dynamodbav:"Y"`
	Width       float64 `dynamodbav:"Width"`
	Height      float64 `dynamodbav:"Height"`
	CreatedAt   string  `dynamodbav:"CreatedAt"`
	UpdatedAt   string  `dynamodbav:"UpdatedAt"`
	Version     int     `dynamodbav:"Version"`
}

// edgeItem is the DynamoDB shape of an edge
type edgeItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	EdgeID     string `dynamodbav:"EdgeID"`
	SceneID    string `dynamodbav:"SceneID"`
	SourceID   string `dynamodbav:"SourceID"`
	TargetID   string `dynamodbav:"TargetID"`
	Label      string `dynamodbav:"Label"`
	Technology string `dynamodbav:"Technology"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func scenePK(sceneID string) string {
	return fmt.Sprintf("SCENE#%s", sceneID)
}

// awsErrorCode extracts the service error code so logs show the DynamoDB
// failure class rather than the wrapped message chain.
func awsErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return "unknown"
}

// Save persists the scene snapshot: metadata first, then every node and edge
func (r *SceneRepository) Save(ctx context.Context, scene *aggregates.Scene) error {
	sceneID := scene.ID().String()

	meta := sceneItem{
		PK:          scenePK(sceneID),
		SK:          "METADATA",
		GSI1PK:      fmt.Sprintf("USER#%s", scene.UserID()),
		GSI1SK:      fmt.Sprintf("SCENE#%s", sceneID),
		EntityType:  "SCENE",
		SceneID:     sceneID,
		UserID:      scene.UserID(),
		Name:        scene.Name(),
		Description: scene.Description(),
		NodeCount:   scene.NodeCount(),
		EdgeCount:   scene.EdgeCount(),
		CreatedAt:   scene.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:   scene.UpdatedAt().Format(time.RFC3339Nano),
		Version:     scene.Version(),
	}

	av, err := attributevalue.MarshalMap(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal scene: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		r.logger.Error("failed to save scene metadata",
			zap.Error(err),
			zap.String("sceneID", sceneID),
			zap.String("awsErrorCode", awsErrorCode(err)),
		)
		return pkgerrors.NewDatabaseError("save scene", err)
	}

	for _, node := range scene.GetNodes() {
		if err := r.saveNode(ctx, sceneID, node); err != nil {
			return err
		}
	}

	for _, edge := range scene.GetEdges() {
		if err := r.saveEdge(ctx, sceneID, edge); err != nil {
			return err
		}
	}

	r.logger.Debug("scene snapshot saved",
		zap.String("sceneID", sceneID),
		zap.Int("nodeCount", scene.NodeCount()),
		zap.Int("edgeCount", scene.EdgeCount()),
	)

	return nil
}

func (r *SceneRepository) saveNode(ctx context.Context, sceneID string, node *entities.Node) error {
	bounds := node.Bounds()
	item := nodeItem{
		PK:          scenePK(sceneID),
		SK:          fmt.Sprintf("NODE#%s", node.ID().String()),
		EntityType:  "NODE",
		NodeID:      node.ID().String(),
		SceneID:     sceneID,
		Kind:        string(node.Kind()),
		Name:        node.Name().String(),
		Description: node.Description(),
		X:           bounds.Origin.X,
		Y:           bounds.Origin.Y,
		Width:       bounds.Width,
		Height:      bounds.Height,
		CreatedAt:   node.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:   node.UpdatedAt().Format(time.RFC3339Nano),
		Version:     node.Version(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save node", err)
	}

	return nil
}

func (r *SceneRepository) saveEdge(ctx context.Context, sceneID string, edge *entities.Edge) error {
	item := edgeItem{
		PK:         scenePK(sceneID),
		SK:         fmt.Sprintf("EDGE#%s", edge.ID().String()),
		EntityType: "EDGE",
		EdgeID:     edge.ID().String(),
		SceneID:    sceneID,
		SourceID:   edge.SourceID().String(),
		TargetID:   edge.TargetID().String(),
		Label:      edge.Label(),
		Technology: edge.Technology(),
		CreatedAt:  edge.CreatedAt().Format(time.RFC3339Nano),
		UpdatedAt:  edge.UpdatedAt().Format(time.RFC3339Nano),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal edge: %w", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	}); err != nil {
		return pkgerrors.NewDatabaseError("save edge", err)
	}

	return nil
}

// GetByID retrieves a scene with all of its nodes and edges
func (r *SceneRepository) GetByID(ctx context.Context, id aggregates.SceneID) (*aggregates.Scene, error) {
	keyExpr := expression.Key("PK").Equal(expression.Value(scenePK(id.String())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build scene query: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		r.logger.Error("failed to query scene",
			zap.Error(err),
			zap.String("sceneID", id.String()),
			zap.String("awsErrorCode", awsErrorCode(err)),
		)
		return nil, pkgerrors.NewDatabaseError("query scene", err)
	}

	var meta *sceneItem
	var nodeItems []nodeItem
	var edgeItems []edgeItem

	for _, raw := range result.Items {
		entityType := ""
		if attr, ok := raw["EntityType"].(*types.AttributeValueMemberS); ok {
			entityType = attr.Value
		}

		switch entityType {
		case "SCENE":
			var item sceneItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal scene: %w", err)
			}
			meta = &item
		case "NODE":
			var item nodeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("failed to unmarshal node item", zap.Error(err))
				continue
			}
			nodeItems = append(nodeItems, item)
		case "EDGE":
			var item edgeItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("failed to unmarshal edge item", zap.Error(err))
				continue
			}
			edgeItems = append(edgeItems, item)
		}
	}

	if meta == nil {
		return nil, pkgerrors.ErrSceneNotFound.WithDetail("scene_id", id.String())
	}

	return r.reconstruct(*meta, nodeItems, edgeItems)
}

func (r *SceneRepository) reconstruct(meta sceneItem, nodeItems []nodeItem, edgeItems []edgeItem) (*aggregates.Scene, error) {
	createdAt, _ := time.Parse(time.RFC3339Nano, meta.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, meta.UpdatedAt)

	scene, err := aggregates.ReconstructScene(
		meta.SceneID,
		meta.UserID,
		meta.Name,
		meta.Description,
		createdAt,
		updatedAt,
		meta.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct scene: %w", err)
	}

	for _, item := range nodeItems {
		node, err := r.reconstructNode(item)
		if err != nil {
			r.logger.Warn("skipping unreadable node",
				zap.String("nodeID", item.NodeID),
				zap.Error(err),
			)
			continue
		}
		if err := scene.AddNode(node); err != nil {
			r.logger.Warn("failed to add node to scene",
				zap.String("nodeID", item.NodeID),
				zap.Error(err),
			)
		}
	}

	for _, item := range edgeItems {
		sourceID, err := valueobjects.NewElementIDFromString(item.SourceID)
		if err != nil {
			continue
		}
		targetID, err := valueobjects.NewElementIDFromString(item.TargetID)
		if err != nil {
			continue
		}
		if _, err := scene.ConnectNodes(sourceID, targetID, item.Label); err != nil {
			r.logger.Warn("failed to restore edge",
				zap.String("edgeID", item.EdgeID),
				zap.Error(err),
			)
		}
	}

	scene.MarkEventsAsCommitted()

	return scene, nil
}

func (r *SceneRepository) reconstructNode(item nodeItem) (*entities.Node, error) {
	id, err := valueobjects.NewElementIDFromString(item.NodeID)
	if err != nil {
		return nil, err
	}

	name, err := valueobjects.NewLabel(item.Name)
	if err != nil {
		return nil, err
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

	return entities.ReconstructNode(
		id,
		item.SceneID,
		entities.NodeKind(item.Kind),
		name,
		item.Description,
		valueobjects.NewBounds(valueobjects.NewPosition(item.X, item.Y), item.Width, item.Height),
		createdAt,
		updatedAt,
		item.Version,
	)
}

// GetByUserID retrieves every scene owned by a user (metadata only)
func (r *SceneRepository) GetByUserID(ctx context.Context, userID string) ([]*aggregates.Scene, error) {
	keyExpr := expression.Key("GSI1PK").Equal(expression.Value(fmt.Sprintf("USER#%s", userID))).
		And(expression.Key("GSI1SK").BeginsWith("SCENE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build user scenes query: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("GSI1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("query user scenes", err)
	}

	scenes := make([]*aggregates.Scene, 0, len(result.Items))
	for _, raw := range result.Items {
		var item sceneItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("failed to unmarshal scene item", zap.Error(err))
			continue
		}

		createdAt, _ := time.Parse(time.RFC3339Nano, item.CreatedAt)
		updatedAt, _ := time.Parse(time.RFC3339Nano, item.UpdatedAt)

		scene, err := aggregates.ReconstructScene(
			item.SceneID, item.UserID, item.Name, item.Description,
			createdAt, updatedAt, item.Version,
		)
		if err != nil {
			r.logger.Warn("failed to reconstruct scene from item",
				zap.String("sceneID", item.SceneID),
				zap.Error(err),
			)
			continue
		}
		scenes = append(scenes, scene)
	}

	return scenes, nil
}

// Delete removes a scene and every item stored under it
func (r *SceneRepository) Delete(ctx context.Context, id aggregates.SceneID) error {
	keyExpr := expression.Key("PK").Equal(expression.Value(scenePK(id.String())))
	expr, err := expression.NewBuilder().WithKeyCondition(keyExpr).Build()
	if err != nil {
		return fmt.Errorf("failed to build scene query: %w", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ProjectionExpression:      aws.String("PK, SK"),
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("query scene items", err)
	}

	for _, raw := range result.Items {
		if _, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"PK": raw["PK"],
				"SK": raw["SK"],
			},
		}); err != nil {
			return pkgerrors.NewDatabaseError("delete scene item", err)
		}
	}

	r.logger.Debug("scene deleted",
		zap.String("sceneID", id.String()),
		zap.Int("items", len(result.Items)),
	)

	return nil
}
