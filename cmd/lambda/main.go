package main

import (
	"context"
	"log"
	"strings"
	"time"

	"archboard-backend/infrastructure/config"
	"archboard-backend/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	adapter   *chiadapter.ChiLambdaV2
	container *di.Container
	bootedAt  time.Time
	coldStart = true
)

func init() {
	bootedAt = time.Now()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	container, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("initialize container: %v", err)
	}

	// The proxy adapter needs the concrete chi router
	mux, ok := container.Router.Setup().(*chi.Mux)
	if !ok {
		log.Fatal("router did not produce a chi.Mux")
	}
	adapter = chiadapter.NewV2(mux)

	container.Logger.Info("lambda cold start complete",
		zap.Duration("duration", time.Since(bootedAt)),
	)
}

// forwardAuthorizerClaims copies the identity the API Gateway JWT
// authorizer established into the headers the in-process auth middleware
// trusts. The raw Authorization header is dropped so nothing downstream
// re-validates it.
func forwardAuthorizerClaims(req *events.APIGatewayV2HTTPRequest) {
	if req.RequestContext.Authorizer == nil || req.RequestContext.Authorizer.JWT == nil {
		return
	}
	claims := req.RequestContext.Authorizer.JWT.Claims

	userID := claims["sub"]
	if userID == "" {
		return
	}

	if req.Headers == nil {
		req.Headers = make(map[string]string)
	}
	delete(req.Headers, "authorization")
	delete(req.Headers, "Authorization")

	req.Headers["X-API-Gateway-Authorized"] = "true"
	req.Headers["X-User-ID"] = userID
	if email := claims["email"]; email != "" {
		req.Headers["X-User-Email"] = email
	}
	if roles := claims["cognito:groups"]; roles != "" {
		req.Headers["X-User-Roles"] = strings.Trim(roles, "[]")
	}
}

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	forwardAuthorizerClaims(&req)

	resp, err := adapter.ProxyWithContextV2(ctx, req)

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = time.Since(bootedAt).String()
		coldStart = false
	}
	if id := req.RequestContext.RequestID; id != "" {
		resp.Headers["X-Request-ID"] = id
	}

	container.Logger.Info("lambda request",
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status", resp.StatusCode),
	)

	return resp, err
}

func main() {
	lambda.Start(handler)
}
