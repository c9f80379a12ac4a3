package app

import (
	"context"
	"fmt"
	"time"

	"github.com/adplane/ads-control-plane/auth"
	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/middleware"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/adplane/ads-control-plane/repositories/postgres"
	"github.com/adplane/ads-control-plane/services/audit"
	"github.com/adplane/ads-control-plane/services/compliance"
	"github.com/adplane/ads-control-plane/services/credentials"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/isolation"
	"github.com/adplane/ads-control-plane/services/pages"
	"github.com/adplane/ads-control-plane/services/policy"
	"github.com/adplane/ads-control-plane/services/registry"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// auditStopTimeout bounds the drain on shutdown
const auditStopTimeout = 10 * time.Second

// Dependencies holds all application dependencies. This is the central
// wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Tenants        repositories.TenantRepository
	Assets         repositories.AssetRepository
	DsaSettings    repositories.DsaRepository
	PageSelections repositories.PageSelectionRepository
	AuditLogs      repositories.AuditRepository
	TxManager      repositories.TransactionManager

	// Domain services
	Registry    *registry.Service
	Credentials *credentials.CredentialService
	Queue       *graph.AccountQueue
	Protocol    *graph.Client
	Gate        *isolation.Gate
	Policy      *policy.Engine
	Compliance  *compliance.Service
	Pages       *pages.Service
	Audit       *audit.AuditService
	Gateway     *gateway.Service

	// Auth
	AuthMiddleware *middleware.AuthMiddleware

	// redisClient is kept for shutdown when the Redis window store is used
	redisClient *redis.Client
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initDatabase(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	if err := deps.initTenants(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize tenants: %w", err)
	}

	deps.initServices(cfg)
	deps.initAuth(cfg)

	if err := deps.Audit.Start(); err != nil {
		return nil, fmt.Errorf("failed to start audit pipeline: %w", err)
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase initializes the PostgreSQL connection, factory, and schema
func (d *Dependencies) initDatabase(ctx context.Context, cfg *config.Config) error {
	factory, err := postgres.NewRepositoryFactory(cfg, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}

	d.RepoFactory = factory
	d.DB = factory.GetDB()

	if err := d.DB.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if err := factory.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := factory.InitAuditSchema(ctx); err != nil {
		return fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))

	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() error {
	repos := d.RepoFactory.NewRepositories()

	d.Tenants = repos.Tenants
	d.Assets = repos.Assets
	d.DsaSettings = repos.DsaSettings
	d.PageSelections = repos.PageSelections
	d.AuditLogs = repos.AuditLogs
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
	return nil
}

// initTenants loads the tenants file, builds the registry, and mirrors
// the tenant rows into the database so settings rows have a parent
func (d *Dependencies) initTenants(ctx context.Context, cfg *config.Config) error {
	tenantConfigs, err := config.LoadTenants(cfg.TenantsFile)
	if err != nil {
		return err
	}

	reg, err := registry.NewService(tenantConfigs, d.Logger)
	if err != nil {
		return err
	}
	d.Registry = reg

	for _, tc := range tenantConfigs {
		tenant := models.NewTenant(tc.TenantID, tc.DisplayName, tc.CredentialRef)
		if err := d.Tenants.Upsert(ctx, tenant); err != nil {
			return fmt.Errorf("failed to mirror tenant %q: %w", tc.TenantID, err)
		}
	}

	d.Logger.Info("tenants loaded", zap.Int("count", len(tenantConfigs)))
	return nil
}

// initServices wires the gateway pipeline from the leaves up
func (d *Dependencies) initServices(cfg *config.Config) {
	d.Credentials = credentials.NewCredentialService(cfg.Credentials, d.Registry, d.Logger)

	d.Queue = graph.NewAccountQueue(d.Logger)
	d.Protocol = graph.NewClient(cfg.Platform, d.Credentials, d.Queue, d.Logger)

	d.Gate = isolation.NewGate(d.Registry, d.Protocol, d.Logger)

	d.Policy = policy.NewEngine(cfg.Policy, d.newWindowStore(cfg), d.Logger)

	d.Compliance = compliance.NewService(d.Registry, d.DsaSettings, d.Protocol, d.Logger)
	d.Pages = pages.NewService(d.Registry, d.PageSelections, d.Assets, d.Logger)

	d.Audit = audit.NewAuditService(d.AuditLogs, d.Logger, audit.Config{
		BufferSize:  cfg.Audit.BufferSize,
		WorkerCount: cfg.Audit.Workers,
	})

	d.Gateway = gateway.NewService(
		d.Registry,
		d.Gate,
		d.Policy,
		d.Compliance,
		d.Pages,
		d.Protocol,
		d.Assets,
		d.TxManager,
		d.Audit,
		d.Logger,
	)

	d.Logger.Info("gateway pipeline wired",
		zap.String("policy_mode", cfg.Policy.Mode),
		zap.Bool("redis_window", cfg.Redis.Enabled))
}

// newWindowStore selects the mutation-window backend: the in-memory
// sharded store by default, Redis when configured for horizontal scaling
func (d *Dependencies) newWindowStore(cfg *config.Config) policy.WindowStore {
	if !cfg.Redis.Enabled {
		return policy.NewMemoryStore(cfg.Policy.MaxTrackedTenants)
	}

	d.redisClient = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return policy.NewRedisStore(d.redisClient, "mutation_window")
}

// initAuth configures service-token validation
func (d *Dependencies) initAuth(cfg *config.Config) {
	if cfg.Auth.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, all authenticated routes will reject")
		d.AuthMiddleware = middleware.NewAuthMiddleware(&rejectAllValidator{}, d.Logger)
		return
	}

	validator := auth.NewValidator(auth.Config{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
	})
	d.AuthMiddleware = middleware.NewAuthMiddleware(validator, d.Logger)
	d.Logger.Info("service-token validation initialized",
		zap.String("issuer", cfg.Auth.Issuer))
}

// rejectAllValidator rejects all tokens (used when no secret is configured)
type rejectAllValidator struct{}

func (*rejectAllValidator) ValidateToken(context.Context, string) (*auth.Claims, error) {
	return nil, fmt.Errorf("authentication not configured")
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	// Drain the audit pipeline before cutting its database away
	if d.Audit != nil {
		if err := d.Audit.Stop(auditStopTimeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audit pipeline: %w", err))
		}
	}

	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
