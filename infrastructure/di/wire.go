//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"archboard-backend/application/commands/bus"
	"archboard-backend/application/ports"
	querybus "archboard-backend/application/queries/bus"
	"archboard-backend/application/services"
	"archboard-backend/infrastructure/config"
	"archboard-backend/infrastructure/persistence/dynamodb"
	"archboard-backend/infrastructure/realtime"
	"archboard-backend/interfaces/http/rest"
	"archboard-backend/pkg/auth"
	"archboard-backend/pkg/observability"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	SceneRepo   ports.SceneRepository
	Editors     *services.EditorManager
	Checkpoints *services.CheckpointService
	CommandBus  *bus.CommandBus
	QueryBus    *querybus.QueryBus
	Cache       ports.Cache
	Metrics     *observability.Metrics
	Tracer      *observability.Tracer
	RateLimiter *auth.DistributedRateLimiter
	Connections *dynamodb.ConnectionRegistry
	Broadcaster *realtime.Broadcaster
	Outbox      *dynamodb.OutboxProcessor
	Router      *rest.Router
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideCloudWatchClient,
	ProvideAPIGatewayClient,
	ProvideSceneLock,
	ProvideSceneRepository,
	ProvideConnectionRegistry,
	ProvideBroadcaster,
	ProvideRenderer,
	ProvideTreeNotifier,
	ProvideAnimator,
	ProvideEventArchive,
	ProvideEventBus,
	ProvideEventPublisher,
	ProvideOutboxProcessor,
	ProvideDomainConfig,
	ProvideEditorManager,
	ProvideEvolution,
	ProvideVersioningService,
	ProvideCheckpointService,
	ProvideMetrics,
	ProvideTracer,
	ProvideDistributedRateLimiter,
	ProvideInMemoryCache,
	ProvideCreateSceneHandler,
	ProvideAddNodeHandler,
	ProvideConnectElementsHandler,
	ProvideImportSceneHandler,
	ProvideExportSceneHandler,
	ProvideBulkDeleteSelectionHandler,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
