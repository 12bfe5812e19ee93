// Package main implements the WebSocket lifecycle Lambda handler.
// It authenticates $connect requests with a JWT and records the
// connection so broadcasts can find it; $disconnect removes the record.
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"

	"archboard-backend/infrastructure/config"
	dynamostore "archboard-backend/infrastructure/persistence/dynamodb"
	"archboard-backend/pkg/auth"
)

var (
	registry  *dynamostore.ConnectionRegistry
	validator *auth.JWTValidator
	limiter   *auth.DistributedRateLimiter
	logger    *zap.Logger
)

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

	client := awsdynamodb.NewFromConfig(awsCfg)
	registry = dynamostore.NewConnectionRegistry(client, cfg.ConnectionsTable, logger)
	limiter = auth.NewDistributedUserRateLimiter(client, cfg.ConnectionsTable, 30)

	validator, err = auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		log.Fatalf("Failed to create JWT validator: %v", err)
	}

	logger.Info("WebSocket lifecycle handler initialized")
}

// extractToken pulls the JWT from the query string or Authorization header.
// Browsers cannot set headers on a WebSocket upgrade, so the query parameter
// is the primary channel.
func extractToken(request events.APIGatewayWebsocketProxyRequest) string {
	if token := request.QueryStringParameters["token"]; token != "" {
		return token
	}
	if header := request.Headers["Authorization"]; header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func handleConnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID

	token := extractToken(request)
	if token == "" {
		logger.Warn("connection attempt without token", zap.String("connectionID", connectionID))
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	claims, err := validator.ValidateToken(token)
	if err != nil {
		logger.Warn("connection token rejected",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusUnauthorized,
			Body:       `{"error": "unauthorized"}`,
		}, nil
	}

	// Reconnect storms count against the same shared window across
	// concurrent Lambda invocations
	if allowed, err := limiter.Allow(ctx, claims.UserID); err == nil && !allowed {
		logger.Warn("connection rate limit exceeded",
			zap.String("userID", claims.UserID),
			zap.String("connectionID", connectionID),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusTooManyRequests,
			Body:       `{"error": "too many connection attempts"}`,
		}, nil
	}

	if err := registry.Register(ctx, claims.UserID, connectionID); err != nil {
		logger.Error("failed to register connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       `{"error": "internal server error"}`,
		}, nil
	}

	logger.Info("websocket connection established",
		zap.String("userID", claims.UserID),
		zap.String("connectionID", connectionID),
	)

	body, _ := json.Marshal(map[string]interface{}{
		"type":         "connection_established",
		"connectionId": connectionID,
		"userId":       claims.UserID,
		"timestamp":    time.Now().Unix(),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(body),
	}, nil
}

func handleDisconnect(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	connectionID := request.RequestContext.ConnectionID

	if err := registry.Deregister(ctx, connectionID); err != nil {
		// Disconnects are best-effort; the table TTL cleans up leftovers
		logger.Warn("failed to deregister connection",
			zap.String("connectionID", connectionID),
			zap.Error(err),
		)
	}

	return events.APIGatewayProxyResponse{StatusCode: http.StatusOK}, nil
}

// handler routes WebSocket lifecycle events by route key
func handler(ctx context.Context, request events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch request.RequestContext.RouteKey {
	case "$disconnect":
		return handleDisconnect(ctx, request)
	default:
		return handleConnect(ctx, request)
	}
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") == "" {
		log.Fatal("This handler only runs inside AWS Lambda")
	}
	lambda.Start(handler)
}
