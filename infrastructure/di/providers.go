package di

import (
	"context"
	"fmt"
	"time"

	"archboard-backend/application/commands"
	"archboard-backend/application/commands/bus"
	cmdhandlers "archboard-backend/application/commands/handlers"
	"archboard-backend/application/ports"
	"archboard-backend/application/queries"
	querybus "archboard-backend/application/queries/bus"
	"archboard-backend/application/services"
	domaincfg "archboard-backend/domain/config"
	"archboard-backend/domain/events"
	"archboard-backend/domain/versioning"
	"archboard-backend/infrastructure/config"
	"archboard-backend/infrastructure/messaging/eventbridge"
	"archboard-backend/infrastructure/messaging/memory"
	scenecache "archboard-backend/infrastructure/persistence/cache"
	"archboard-backend/infrastructure/persistence/dynamodb"
	"archboard-backend/infrastructure/persistence/schema"
	"archboard-backend/interfaces/http/rest"
	"archboard-backend/interfaces/http/rest/handlers"
	"archboard-backend/interfaces/http/rest/middleware"
	"archboard-backend/pkg/auth"
	"archboard-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"archboard-backend/infrastructure/realtime"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideAPIGatewayClient creates the websocket management client used to
// push canvas updates to connected browsers
func ProvideAPIGatewayClient(awsCfg aws.Config, cfg *config.Config) *apigatewaymanagementapi.Client {
	return apigatewaymanagementapi.NewFromConfig(awsCfg, func(o *apigatewaymanagementapi.Options) {
		if cfg.WebSocketEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.WebSocketEndpoint)
		}
	})
}

// ProvideSceneLock creates the cross-process scene lock
func ProvideSceneLock(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.SceneLock {
	return dynamodb.NewSceneLock(client, cfg.DynamoDBTable, 30*time.Second, logger)
}

// ProvideSceneRepository assembles the scene persistence stack: DynamoDB
// storage, cross-process locking around writes, and a read cache on top
func ProvideSceneRepository(
	client *awsdynamodb.Client,
	lock ports.SceneLock,
	cache ports.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) ports.SceneRepository {
	base := dynamodb.NewSceneRepository(client, cfg.DynamoDBTable, logger)
	locked := dynamodb.NewLockedSceneRepository(base, lock, uuid.New().String(), logger)
	return scenecache.NewCachedSceneRepository(locked, cache, cfg.CacheTTLSeconds, logger)
}

// ProvideConnectionRegistry creates the websocket connection registry
func ProvideConnectionRegistry(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.ConnectionRegistry {
	return dynamodb.NewConnectionRegistry(client, cfg.ConnectionsTable, logger)
}

// ProvideBroadcaster creates the websocket broadcaster
func ProvideBroadcaster(client *apigatewaymanagementapi.Client, registry *dynamodb.ConnectionRegistry, logger *zap.Logger) *realtime.Broadcaster {
	return realtime.NewBroadcaster(client, registry, logger)
}

// ProvideRenderer creates the canvas renderer
func ProvideRenderer(broadcaster *realtime.Broadcaster, logger *zap.Logger) ports.Renderer {
	return realtime.NewPushRenderer(broadcaster, logger)
}

// ProvideTreeNotifier creates the navigation tree notifier
func ProvideTreeNotifier(broadcaster *realtime.Broadcaster, logger *zap.Logger) ports.TreeNotifier {
	return realtime.NewPushTreeNotifier(broadcaster, logger)
}

// ProvideAnimator creates the deletion fade animator
func ProvideAnimator(broadcaster *realtime.Broadcaster, cfg *config.Config, logger *zap.Logger) ports.Animator {
	return realtime.NewFadeAnimator(broadcaster, cfg.FadeOutDuration, logger)
}

// ProvideEventArchive creates the durable event archive
func ProvideEventArchive(client *awsdynamodb.Client, cfg *config.Config) *dynamodb.EventArchive {
	return dynamodb.NewEventArchive(client, cfg.DynamoDBTable)
}

// ProvideEventBus creates the in-process event bus for local subscribers
func ProvideEventBus(logger *zap.Logger) ports.EventBus {
	return memory.NewEventBus(logger)
}

// ProvideEventPublisher creates the publisher the editors flush into.
// Events land in the archive first (outbox) and fan out to in-process
// subscribers; the outbox processor relays archived events to EventBridge.
func ProvideEventPublisher(archive *dynamodb.EventArchive, local ports.EventBus) ports.EventPublisher {
	return &outboxPublisher{archive: archive, local: local}
}

type outboxPublisher struct {
	archive *dynamodb.EventArchive
	local   ports.EventBus
}

func (p *outboxPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	if err := p.archive.SaveEvents(ctx, []events.DomainEvent{event}); err != nil {
		return err
	}
	return p.local.Publish(ctx, event)
}

func (p *outboxPublisher) PublishBatch(ctx context.Context, batch []events.DomainEvent) error {
	if err := p.archive.SaveEvents(ctx, batch); err != nil {
		return err
	}
	return p.local.PublishBatch(ctx, batch)
}

// ProvideOutboxProcessor creates the relay from the event archive to
// EventBridge
func ProvideOutboxProcessor(
	archive *dynamodb.EventArchive,
	client *awseventbridge.Client,
	cfg *config.Config,
	logger *zap.Logger,
) *dynamodb.OutboxProcessor {
	publisher := eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	return dynamodb.NewOutboxProcessor(archive, publisher, logger)
}

// ProvideDomainConfig creates the domain configuration
func ProvideDomainConfig() *domaincfg.DomainConfig {
	return domaincfg.DefaultDomainConfig()
}

// ProvideEditorManager creates the editor manager
func ProvideEditorManager(
	repo ports.SceneRepository,
	renderer ports.Renderer,
	tree ports.TreeNotifier,
	animator ports.Animator,
	publisher ports.EventPublisher,
	dcfg *domaincfg.DomainConfig,
	logger *zap.Logger,
) *services.EditorManager {
	return services.NewEditorManager(repo, renderer, tree, animator, publisher, dcfg, logger)
}

// ProvideEvolution creates the snapshot schema migrator
func ProvideEvolution() *schema.Evolution {
	return schema.NewEvolution()
}

// ProvideVersioningService creates the scene versioning service
func ProvideVersioningService() *versioning.VersioningService {
	return versioning.NewVersioningService(50, true)
}

// ProvideCheckpointService creates the checkpoint service
func ProvideCheckpointService(repo ports.SceneRepository, vs *versioning.VersioningService, logger *zap.Logger) *services.CheckpointService {
	return services.NewCheckpointService(repo, vs, logger)
}

// ProvideMetrics creates the CloudWatch metrics sink
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config) *observability.Metrics {
	namespace := fmt.Sprintf("Archboard/%s", cfg.Environment)
	if !cfg.EnableMetrics {
		client = nil
	}
	return observability.NewMetrics(namespace, client)
}

// ProvideTracer creates the X-Ray tracer
func ProvideTracer() *observability.Tracer {
	return observability.NewTracer("archboard-backend")
}

// ProvideDistributedRateLimiter creates a distributed rate limiter
func ProvideDistributedRateLimiter(client *awsdynamodb.Client, cfg *config.Config) *auth.DistributedRateLimiter {
	return auth.NewDistributedRateLimiter(
		client,
		cfg.DynamoDBTable,
		100,
		1*time.Minute,
		"API",
	)
}

// ProvideInMemoryCache creates a simple in-memory cache
// In production, this would be Redis or similar
func ProvideInMemoryCache() ports.Cache {
	return NewInMemoryCache()
}

// Application handler providers

// ProvideCreateSceneHandler creates the create scene handler
func ProvideCreateSceneHandler(editors *services.EditorManager, logger *zap.Logger) *commands.CreateSceneHandler {
	return commands.NewCreateSceneHandler(editors, logger)
}

// ProvideAddNodeHandler creates the add node handler
func ProvideAddNodeHandler(editors *services.EditorManager, logger *zap.Logger) *commands.AddNodeHandler {
	return commands.NewAddNodeHandler(editors, logger)
}

// ProvideConnectElementsHandler creates the connect elements handler
func ProvideConnectElementsHandler(editors *services.EditorManager, logger *zap.Logger) *commands.ConnectElementsHandler {
	return commands.NewConnectElementsHandler(editors, logger)
}

// ProvideImportSceneHandler creates the import scene handler
func ProvideImportSceneHandler(editors *services.EditorManager, evolution *schema.Evolution, logger *zap.Logger) *commands.ImportSceneHandler {
	return commands.NewImportSceneHandler(editors, evolution, logger)
}

// ProvideExportSceneHandler creates the export scene handler
func ProvideExportSceneHandler(editors *services.EditorManager) *queries.ExportSceneHandler {
	return queries.NewExportSceneHandler(editors)
}

// ProvideBulkDeleteSelectionHandler creates the bulk delete handler
func ProvideBulkDeleteSelectionHandler(editors *services.EditorManager, logger *zap.Logger) *cmdhandlers.BulkDeleteSelectionHandler {
	return cmdhandlers.NewBulkDeleteSelectionHandler(editors, logger)
}

// CommandHandlerAdapter adapts specific command handlers to the generic interface
type CommandHandlerAdapter struct {
	handler func(context.Context, bus.Command) error
}

func (a *CommandHandlerAdapter) Handle(ctx context.Context, cmd bus.Command) error {
	return a.handler(ctx, cmd)
}

// ProvideCommandBus creates a command bus with the side-effect-only command
// handlers registered. Operations that return data to the caller use their
// typed handlers directly from the HTTP layer.
func ProvideCommandBus(
	editors *services.EditorManager,
	logger *zap.Logger,
) *bus.CommandBus {
	commandBus := bus.NewCommandBus()
	pipeline := bus.NewPipeline(
		bus.LoggingMiddleware(logger),
		bus.ValidationMiddleware(),
	)

	deleteElement := commands.NewDeleteElementHandler(editors, logger)
	commandBus.Register(commands.DeleteElementCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			deleteCmd, ok := cmd.(commands.DeleteElementCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return deleteElement.Handle(ctx, deleteCmd)
		},
	}))

	updateNode := cmdhandlers.NewUpdateNodeHandler(editors, logger)
	commandBus.Register(cmdhandlers.MoveNodeCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			moveCmd, ok := cmd.(cmdhandlers.MoveNodeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return updateNode.HandleMove(ctx, moveCmd)
		},
	}))
	commandBus.Register(cmdhandlers.RenameNodeCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			renameCmd, ok := cmd.(cmdhandlers.RenameNodeCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return updateNode.HandleRename(ctx, renameCmd)
		},
	}))

	properties := commands.NewPropertyHandler(editors, logger)
	commandBus.Register(commands.DefinePropertyCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			defineCmd, ok := cmd.(commands.DefinePropertyCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return properties.HandleDefine(ctx, defineCmd)
		},
	}))
	commandBus.Register(commands.UpdatePropertyCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			updateCmd, ok := cmd.(commands.UpdatePropertyCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return properties.HandleUpdate(ctx, updateCmd)
		},
	}))
	commandBus.Register(commands.ReorderPropertyCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			reorderCmd, ok := cmd.(commands.ReorderPropertyCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return properties.HandleReorder(ctx, reorderCmd)
		},
	}))
	commandBus.Register(commands.RemovePropertyCommand{}, pipeline.Execute(&CommandHandlerAdapter{
		handler: func(ctx context.Context, cmd bus.Command) error {
			removeCmd, ok := cmd.(commands.RemovePropertyCommand)
			if !ok {
				return fmt.Errorf("invalid command type")
			}
			return properties.HandleRemove(ctx, removeCmd)
		},
	}))

	return commandBus
}

// QueryHandlerAdapter adapts specific query handlers to the generic interface
type QueryHandlerAdapter struct {
	handler func(context.Context, querybus.Query) (interface{}, error)
}

func (a *QueryHandlerAdapter) Handle(ctx context.Context, query querybus.Query) (interface{}, error) {
	return a.handler(ctx, query)
}

// metricsAdapter bridges the CloudWatch metrics sink to the query bus
type metricsAdapter struct {
	metrics *observability.Metrics
}

func (a *metricsAdapter) StartTimer(metric, label string) querybus.Timer {
	return a.metrics.StartTimer(metric, label)
}

func (a *metricsAdapter) Increment(metric, label string) {
	a.metrics.Increment(metric, label)
}

// ProvideQueryBus creates a query bus with registered handlers. The scene
// listing is cached briefly; interactive state queries are always live.
func ProvideQueryBus(
	editors *services.EditorManager,
	repo ports.SceneRepository,
	cache ports.Cache,
	metrics *observability.Metrics,
) *querybus.QueryBus {
	queryBus := querybus.NewQueryBus()
	metricsMW := querybus.NewMetricsMiddleware(&metricsAdapter{metrics: metrics})
	cachingMW := querybus.NewCachingMiddleware(cache, 30)

	listScenes := queries.NewListScenesHandler(repo)
	queryBus.Register(queries.ListScenesQuery{}, cachingMW.Wrap(metricsMW.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			listQuery, ok := query.(queries.ListScenesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return listScenes.Handle(ctx, listQuery)
		},
	})))

	getScene := queries.NewGetSceneHandler(editors)
	queryBus.Register(queries.GetSceneQuery{}, metricsMW.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			getQuery, ok := query.(queries.GetSceneQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getScene.Handle(ctx, getQuery)
		},
	}))

	getEditorState := queries.NewGetEditorStateHandler(editors)
	queryBus.Register(queries.GetEditorStateQuery{}, metricsMW.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			stateQuery, ok := query.(queries.GetEditorStateQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getEditorState.Handle(ctx, stateQuery)
		},
	}))

	getProperties := queries.NewGetPropertiesHandler(editors)
	queryBus.Register(queries.GetPropertiesQuery{}, metricsMW.Wrap(&QueryHandlerAdapter{
		handler: func(ctx context.Context, query querybus.Query) (interface{}, error) {
			propsQuery, ok := query.(queries.GetPropertiesQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type")
			}
			return getProperties.Handle(ctx, propsQuery)
		},
	}))

	return queryBus
}

// ProvideRouter assembles the HTTP handlers and router
func ProvideRouter(
	createScene *commands.CreateSceneHandler,
	importScene *commands.ImportSceneHandler,
	exportScene *queries.ExportSceneHandler,
	addNode *commands.AddNodeHandler,
	connect *commands.ConnectElementsHandler,
	bulkDelete *cmdhandlers.BulkDeleteSelectionHandler,
	editors *services.EditorManager,
	checkpoints *services.CheckpointService,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	bundle := rest.Handlers{
		Scenes:       handlers.NewSceneHandler(createScene, importScene, exportScene, editors, checkpoints, queryBus, logger),
		Nodes:        handlers.NewNodeHandler(addNode, commandBus, logger),
		Edges:        handlers.NewEdgeHandler(connect, commandBus, logger),
		Interactions: handlers.NewInteractionHandler(editors, bulkDelete, logger),
		Properties:   handlers.NewPropertyHandler(commandBus, queryBus, editors, logger),
	}

	tokenRefresh, err := middleware.NewTokenRefresh(cfg.JWTSecret)
	if err != nil {
		logger.Warn("token refresh endpoint disabled", zap.Error(err))
	}

	return rest.NewRouter(bundle, tokenRefresh, logger)
}
