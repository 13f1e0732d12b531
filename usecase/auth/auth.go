package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/domain"
	"github.com/fastygo/projecthub/pkg/password"
	"github.com/fastygo/projecthub/pkg/token"
	"github.com/fastygo/projecthub/repository"
)

type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	tokens   *token.Manager
	hasher   *password.Hasher
	logger   *zap.Logger
	now      func() time.Time
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	tokens *token.Manager,
	hasher *password.Hasher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = password.NewHasher(0)
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		hasher:   hasher,
		logger:   logger,
		now:      time.Now,
	}
}

type RegisterInput struct {
	Username string
	Password string
	Role     string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.Invalid("username is required")
	}
	if in.Password == "" {
		return nil, domain.Invalid("password is required")
	}
	if len(in.Password) < password.MinLength {
		return nil, domain.Invalid("Password must be at least 6 characters")
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	// The unique constraint settles races; this only avoids hashing for
	// an obvious duplicate.
	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return nil, domain.ErrUsernameTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &domain.User{Username: username, PasswordHash: hash, Role: role}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	uc.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Login verifies credentials, opens a session and issues a token bound to it.
// Unknown users and wrong passwords fail identically.
func (uc *UseCase) Login(ctx context.Context, username, plain string) (*LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || plain == "" {
		return nil, domain.Invalid("Username and password are required")
	}

	user, err := uc.users.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		uc.hasher.Verify("", plain)
		return nil, domain.ErrInvalidCredentials
	case err != nil:
		return nil, err
	}
	if !uc.hasher.Verify(user.PasswordHash, plain) {
		return nil, domain.ErrInvalidCredentials
	}

	now := uc.now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(uc.tokens.TTL()),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	raw, expires, err := uc.tokens.Issue(user.ID, session.ID)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, err
	}
	return &LoginResult{Token: raw, ExpiresAt: expires, User: user}, nil
}

// Authenticate resolves a bearer token into the calling user.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (domain.Caller, error) {
	if raw == "" {
		return domain.Caller{}, domain.ErrTokenMissing
	}
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			return domain.Caller{}, domain.ErrTokenExpired
		}
		return domain.Caller{}, domain.ErrTokenInvalid
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Caller{}, domain.ErrTokenInvalid
		}
		return domain.Caller{}, err
	}
	userID, _ := claims.UserID()
	if session.UserID != userID {
		return domain.Caller{}, domain.ErrTokenInvalid
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.Caller{}, domain.ErrTokenInvalid
		}
		return domain.Caller{}, err
	}

	caller := user.Caller()
	caller.SessionID = session.ID
	return caller, nil
}

// Logout revokes the caller's session.
func (uc *UseCase) Logout(ctx context.Context, caller domain.Caller) error {
	if caller.SessionID == "" {
		return domain.ErrTokenInvalid
	}
	return uc.sessions.Delete(ctx, caller.SessionID)
}

// SeedAdmin creates the bootstrap admin account unless the username exists.
func (uc *UseCase) SeedAdmin(ctx context.Context, username, plain string) (bool, error) {
	if username == "" || plain == "" {
		return false, domain.Invalid("admin credentials are required")
	}
	if _, err := uc.users.GetByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return false, err
	}

	hash, err := uc.hasher.Hash(plain)
	if err != nil {
		return false, err
	}
	err = uc.users.Create(ctx, &domain.User{Username: username, PasswordHash: hash, Role: domain.RoleAdmin})
	if errors.Is(err, domain.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	uc.logger.Info("admin account seeded", zap.String("username", username))
	return true, nil
}
