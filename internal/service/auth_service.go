package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm/internal/config"
	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/events"
	"github.com/spec-kit/crm/internal/repository"
	apperrors "github.com/spec-kit/crm/pkg/util"
)

// ErrCredentialInvalid is returned for an unknown email or a wrong password.
var ErrCredentialInvalid = apperrors.NewDomainError(apperrors.CodeCredentialInvalid,
	"Invalid email or password", http.StatusUnauthorized, nil)

// TokenIssuer signs and reads session tokens.
type TokenIssuer interface {
	Issue(subjectID int64) (string, time.Time, error)
	Decode(token string) (int64, error)
}

// SessionStore persists the local session token.
type SessionStore interface {
	Save(token string) error
	Load() (string, bool, error)
	Clear() error
}

// AuthService coordinates login and logout flows.
type AuthService struct {
	users       repository.UserRepository
	attempts    repository.LoginAttemptRepository
	tokens      TokenIssuer
	sessions    SessionStore
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	maxAttempts int
	lockout     time.Duration
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	AttemptRepo repository.LoginAttemptRepository
	Tokens      TokenIssuer
	// Sessions may be nil for callers that only issue tokens, such as the HTTP API.
	Sessions   SessionStore
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	attempts := deps.AttemptRepo
	if attempts == nil {
		attempts = repository.NewLoginAttemptRepository(nil)
	}
	return &AuthService{
		users:       deps.UserRepo,
		attempts:    attempts,
		tokens:      deps.Tokens,
		sessions:    deps.Sessions,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		maxAttempts: cfg.MaxLoginAttempts,
		lockout:     cfg.LockoutWindow(),
	}
}

// Authenticate verifies credentials and issues a session token.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, domain.IssuedToken, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.IssuedToken{}, apperrors.NewValidationError("email and password are required", nil)
	}

	if err := s.checkThrottle(ctx, email); err != nil {
		return nil, domain.IssuedToken{}, err
	}

	user, err := s.users.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.recordFailure(ctx, email)
			return nil, domain.IssuedToken{}, ErrCredentialInvalid
		}
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}

	if err := s.attempts.Reset(ctx, email); err != nil {
		s.logger.Warn("reset login attempts", zap.Error(err))
	}

	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(err)
	}
	return user, domain.IssuedToken{Token: token, SubjectID: user.ID, ExpiresAt: expiresAt}, nil
}

// Login authenticates and persists the issued token as the local session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, domain.IssuedToken, error) {
	if s.sessions == nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(errors.New("no session store configured"))
	}
	user, issued, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	if err := s.sessions.Save(issued.Token); err != nil {
		return nil, domain.IssuedToken{}, apperrors.NewInternalError(fmt.Errorf("save session: %w", err))
	}

	s.logger.Debug("session opened", zap.Int64("user_id", user.ID))
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventSessionOpened,
		ActorID:  user.ID,
		EntityID: user.ID,
		Payload:  events.SessionPayload{Email: user.Email, ExpiresAt: &issued.ExpiresAt},
	})
	return user, issued, nil
}

// Logout clears the local session. It reports whether a session existed.
func (s *AuthService) Logout(ctx context.Context) (bool, error) {
	if s.sessions == nil {
		return false, apperrors.NewInternalError(errors.New("no session store configured"))
	}
	token, ok, loadErr := s.sessions.Load()
	if err := s.sessions.Clear(); err != nil {
		return false, apperrors.NewInternalError(fmt.Errorf("clear session: %w", err))
	}
	if loadErr != nil || !ok {
		return loadErr != nil, nil
	}

	// Expired or forged tokens leave the actor unknown (zero).
	actorID, _ := s.tokens.Decode(token)
	publish(ctx, s.dispatcher, events.Event{
		Type:     events.EventSessionClosed,
		ActorID:  actorID,
		EntityID: actorID,
		Payload:  events.SessionPayload{},
	})
	return true, nil
}

func (s *AuthService) checkThrottle(ctx context.Context, email string) error {
	if s.maxAttempts <= 0 {
		return nil
	}
	failures, err := s.attempts.Failures(ctx, email)
	if err != nil {
		s.logger.Warn("read login attempts", zap.Error(err))
		return nil
	}
	if failures >= int64(s.maxAttempts) {
		s.logger.Info("login throttled", zap.String("email", email), zap.Int64("failures", failures))
		return apperrors.NewTooManyAttempts(fmt.Sprintf(
			"Too many failed login attempts: try again in %s", s.lockout))
	}
	return nil
}

func (s *AuthService) recordFailure(ctx context.Context, email string) {
	if s.maxAttempts <= 0 {
		return
	}
	if _, err := s.attempts.RecordFailure(ctx, email, s.lockout); err != nil {
		s.logger.Warn("record login attempt", zap.Error(err))
	}
}
