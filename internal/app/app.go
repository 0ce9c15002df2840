// Package app assembles the CRM from configuration: infrastructure,
// repositories, the access guard and the services built on top of them.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/auth"
	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/observability"
	"github.com/spec-kit/crm/internal/persistence"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/internal/service"
	"github.com/spec-kit/crm/internal/session"
	"github.com/spec-kit/crm/internal/worker"
	"github.com/spec-kit/crm/pkg/password"
)

// Core holds what every command needs without touching the database.
type Core struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Dispatcher events.Dispatcher
	Tokens     *auth.TokenManager
	Sessions   *session.FileStore
	Hasher     password.Hasher
}

// NewCore builds the token codec, the session store and the audit pipeline.
func NewCore(cfg *config.Config, logger *zap.Logger) (*Core, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:    cfg.Auth.JWTSecret,
		Algorithm: cfg.Auth.JWTAlgorithm,
		TTL:       cfg.Auth.TokenTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	hasher, err := password.NewHasher(cfg.Auth.PasswordHasher, cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.NewAuditWorker(logger, metrics).Start(dispatcher)

	return &Core{
		Config:     cfg,
		Logger:     logger,
		Metrics:    metrics,
		Dispatcher: dispatcher,
		Tokens:     tokens,
		Sessions:   session.NewFileStore(cfg.Session.FilePath, cfg.Session.TokenField),
		Hasher:     hasher,
	}, nil
}

// SessionService returns an auth service that can only log out. It needs no repositories.
func (c *Core) SessionService() *service.AuthService {
	return service.NewAuthService(c.Config.Auth, service.AuthDependencies{
		Tokens:     c.Tokens,
		Sessions:   c.Sessions,
		Dispatcher: c.Dispatcher,
		Logger:     c.Logger,
	})
}

// Repositories groups the storage ports.
type Repositories struct {
	Users         repository.UserRepository
	Roles         repository.RoleRepository
	Clients       repository.ClientRepository
	Contracts     repository.ContractRepository
	Events        repository.EventRepository
	LoginAttempts repository.LoginAttemptRepository
}

// Services is the fully wired application.
type Services struct {
	Guard         *auth.Guard
	Auth          *service.AuthService
	Authz         *service.AuthorizationService
	Clients       *service.ClientService
	Contracts     *service.ContractService
	Events        *service.EventService
	Collaborators *service.CollaboratorService
	Roles         *service.RoleService
	Bootstrap     *service.BootstrapService
}

// Services wires the guard and the services over repos. The guard reads the
// token from the local session file.
func (c *Core) Services(repos Repositories) *Services {
	logger := c.Logger
	collaborators := service.NewCollaboratorService(service.CollaboratorDependencies{
		UserRepo:   repos.Users,
		RoleRepo:   repos.Roles,
		Hasher:     c.Hasher,
		Dispatcher: c.Dispatcher,
		Logger:     logger,
	})
	roles := service.NewRoleService(repos.Roles, logger)

	return &Services{
		Guard: auth.NewGuard(c.Sessions, c.Tokens, repos.Users, logger.Named("guard")),
		Auth: service.NewAuthService(c.Config.Auth, service.AuthDependencies{
			UserRepo:    repos.Users,
			AttemptRepo: repos.LoginAttempts,
			Tokens:      c.Tokens,
			Sessions:    c.Sessions,
			Dispatcher:  c.Dispatcher,
			Logger:      logger,
		}),
		Authz:     service.NewAuthorizationService(repos.Users),
		Clients:   service.NewClientService(repos.Clients, c.Dispatcher, logger),
		Contracts: service.NewContractService(repos.Contracts, c.Dispatcher, logger),
		Events: service.NewEventService(service.EventDependencies{
			EventRepo:    repos.Events,
			ContractRepo: repos.Contracts,
			Dispatcher:   c.Dispatcher,
			Logger:       logger,
		}),
		Collaborators: collaborators,
		Roles:         roles,
		Bootstrap:     service.NewBootstrapService(repos.Users, roles, collaborators, c.Dispatcher, logger),
	}
}

// Infra owns the database and cache connections behind a set of repositories.
type Infra struct {
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
}

// Connect opens Postgres (required) and Redis (optional), runs migrations when
// configured and returns Postgres-backed repositories.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Repositories, *Infra, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return Repositories{}, nil, err
	}
	if cfg.Postgres.RunMigrations {
		if _, err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			pg.Close()
			return Repositories{}, nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)

	infra := &Infra{Postgres: pg, Redis: rdb}
	return Repositories{
		Users:         repository.NewUserRepository(pg.Pool),
		Roles:         repository.NewRoleRepository(pg.Pool),
		Clients:       repository.NewClientRepository(pg.Pool),
		Contracts:     repository.NewContractRepository(pg.Pool),
		Events:        repository.NewEventRepository(pg.Pool),
		LoginAttempts: repository.NewLoginAttemptRepository(rdb.ClientHandle()),
	}, infra, nil
}

// Close releases every connection. Safe on nil.
func (i *Infra) Close() {
	if i == nil {
		return
	}
	i.Redis.Close()
	i.Postgres.Close()
}

// Migrate applies pending schema migrations and returns the resulting version.
func Migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) (int64, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return 0, err
	}
	defer pg.Close()
	return persistence.RunMigrations(ctx, pg.Pool, logger)
}
