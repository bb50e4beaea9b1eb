package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/model"
	appErr "github.com/xxxsen/insighthub/internal/pkg/errors"
	"github.com/xxxsen/insighthub/internal/pkg/jwt"
	"github.com/xxxsen/insighthub/internal/pkg/password"
	"github.com/xxxsen/insighthub/internal/repo"
)

const maxEmailLen = 254

type AuthService struct {
	users     *repo.UserRepo
	hasher    password.Hasher
	jwtSecret []byte
	jwtTTL    time.Duration
	now       func() time.Time
}

type AuthOption func(*AuthService)

func WithClock(now func() time.Time) AuthOption {
	return func(s *AuthService) {
		s.now = now
	}
}

func WithHasher(h password.Hasher) AuthOption {
	return func(s *AuthService) {
		s.hasher = h
	}
}

func NewAuthService(users *repo.UserRepo, secret []byte, ttl time.Duration, opts ...AuthOption) *AuthService {
	s := &AuthService{
		users:     users,
		hasher:    password.NewBcrypt(0),
		jwtSecret: secret,
		jwtTTL:    ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AuthService) Signup(ctx context.Context, email, plainPassword string) (string, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, plainPassword); err != nil {
		return "", err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return "", appErr.Wrap(appErr.ErrConflict, "email already registered")
	} else if !appErr.IsNotFound(err) {
		return "", err
	}
	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return "", err
	}
	now := s.now().Unix()
	user := &model.User{
		ID:           newID(),
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
		Mtime:        now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if appErr.IsConflict(err) {
			return "", appErr.Wrap(appErr.ErrConflict, "email already registered")
		}
		return "", err
	}
	logutil.GetLogger(ctx).Info("user registered", zap.String("user_id", user.ID))
	return user.ID, nil
}

func (s *AuthService) Login(ctx context.Context, email, plainPassword string) (string, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", appErr.Wrap(appErr.ErrUnauthorized, "invalid credentials")
		}
		return "", err
	}
	if !s.hasher.Verify(plainPassword, user.PasswordHash) {
		return "", appErr.Wrap(appErr.ErrUnauthorized, "invalid credentials")
	}
	return jwt.GenerateToken(user.Email, s.jwtSecret, s.jwtTTL, s.now())
}

// Resolve maps a bearer token back to the identity it was issued for.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.User, error) {
	claims, err := jwt.ParseToken(token, s.jwtSecret, s.now)
	if err != nil {
		logutil.GetLogger(ctx).Debug("token rejected", zap.Error(err))
		return nil, appErr.Wrap(appErr.ErrUnauthorized, "invalid token")
	}
	user, err := s.users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.Wrap(appErr.ErrUnauthorized, "invalid token")
		}
		return nil, err
	}
	return user, nil
}

func validateCredentials(email, plainPassword string) error {
	if email == "" || plainPassword == "" {
		return appErr.Wrap(appErr.ErrInvalid, "email and password are required")
	}
	if len(email) > maxEmailLen || !strings.Contains(email, "@") || strings.ContainsAny(email, " \t\r\n") {
		return appErr.Wrap(appErr.ErrInvalid, "invalid email")
	}
	if len(dataset.NamespaceFor(email)) > dataset.MaxNamespaceLen {
		return appErr.Wrap(appErr.ErrInvalid, "email too long")
	}
	if len(plainPassword) > password.MaxLength {
		return appErr.Wrap(appErr.ErrInvalid, "password must be at most 72 bytes")
	}
	return nil
}
