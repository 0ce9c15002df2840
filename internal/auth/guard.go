package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// Guard rejections. Compare with errors.Is; the returned values may wrap a cause.
var (
	ErrAuthenticationRequired = apperrors.NewDomainError(apperrors.CodeAuthenticationRequired,
		"Authentication required: Please log in first.", http.StatusUnauthorized, nil)
	ErrAuthenticationFailed = apperrors.NewDomainError(apperrors.CodeAuthenticationFailed,
		"Authentication failed", http.StatusUnauthorized, nil)
	ErrUnknownUser = apperrors.NewDomainError(apperrors.CodeUnknownUser,
		"Unauthorized: User not found.", http.StatusUnauthorized, nil)
	ErrInsufficientRole = apperrors.NewDomainError(apperrors.CodeInsufficientRole,
		"Unauthorized: Insufficient permissions.", http.StatusForbidden, nil)
)

// TokenSource yields the caller's session token. ok is false when no session exists.
type TokenSource interface {
	Load() (token string, ok bool, err error)
}

// TokenDecoder extracts the subject id from a session token.
type TokenDecoder interface {
	Decode(token string) (int64, error)
}

// IdentityStore resolves subject ids to identities. A missing identity is
// reported as repository.ErrNotFound.
type IdentityStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// StaticToken is a TokenSource holding a token received out of band, such as
// an HTTP bearer header. The empty string means no session.
type StaticToken string

func (s StaticToken) Load() (string, bool, error) {
	return string(s), s != "", nil
}

// Policy configures one guarded operation.
type Policy struct {
	// Roles lists the accepted role tags. Empty accepts any authenticated identity.
	Roles []domain.Role
	// ReadOnly runs the operation for any authenticated identity when the role check fails.
	ReadOnly bool
}

// AnyAuthenticated accepts every resolved identity.
var AnyAuthenticated = Policy{}

// RequireRoles builds a policy accepting only the given roles.
func RequireRoles(roles ...domain.Role) Policy {
	return Policy{Roles: roles}
}

// ReadOnlyFor builds a policy preferring the given roles with read-only fallback.
func ReadOnlyFor(roles ...domain.Role) Policy {
	return Policy{Roles: roles, ReadOnly: true}
}

// Operation is a privileged action. callerID is the authenticated identity.
type Operation func(ctx context.Context, callerID int64, args []string) error

// Guard authenticates the caller and enforces a Policy before an operation runs.
type Guard struct {
	source TokenSource
	tokens TokenDecoder
	users  IdentityStore
	logger *zap.Logger
}

// NewGuard wires a guard. A nil logger discards rejection logs.
func NewGuard(source TokenSource, tokens TokenDecoder, users IdentityStore, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{source: source, tokens: tokens, users: users, logger: logger}
}

// WithSource returns a copy of the guard reading tokens from source.
func (g *Guard) WithSource(source TokenSource) *Guard {
	cp := *g
	cp.source = source
	return &cp
}

// Authorize resolves the caller and checks it against policy.
func (g *Guard) Authorize(ctx context.Context, policy Policy) (*domain.User, error) {
	token, ok, err := g.source.Load()
	if err != nil {
		return nil, g.reject(ErrAuthenticationRequired.WithCause(err))
	}
	if !ok {
		return nil, g.reject(ErrAuthenticationRequired)
	}

	subjectID, err := g.tokens.Decode(token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return nil, g.reject(ErrAuthenticationFailed.WithMessage("Authentication failed: Token has expired"))
		}
		return nil, g.reject(ErrAuthenticationFailed.WithMessage("Authentication failed: Invalid token").WithCause(err))
	}

	user, err := g.users.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, g.reject(ErrUnknownUser)
		}
		return nil, apperrors.NewInternalError(err)
	}

	if !policy.allows(user.Role) {
		if !policy.ReadOnly {
			return nil, g.reject(ErrInsufficientRole)
		}
		g.logger.Debug("read-only access granted",
			zap.Int64("user_id", user.ID),
			zap.String("role", string(user.Role)),
		)
	}
	return user, nil
}

// Wrap decorates op so that it only runs once Authorize succeeds.
func (g *Guard) Wrap(policy Policy, op Operation) func(ctx context.Context, args []string) error {
	return func(ctx context.Context, args []string) error {
		user, err := g.Authorize(ctx, policy)
		if err != nil {
			return err
		}
		return op(ctx, user.ID, args)
	}
}

func (g *Guard) reject(err *apperrors.DomainError) error {
	g.logger.Info("access rejected", zap.String("reason", err.Code), zap.Error(err.Err))
	return err
}

func (p Policy) allows(role domain.Role) bool {
	return len(p.Roles) == 0 || HasRole(role, p.Roles...)
}
