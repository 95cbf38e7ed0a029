package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/repository"
	"github.com/neeravgigglesandgrins/giggles/pkg/auth"
	"github.com/neeravgigglesandgrins/giggles/pkg/config"
	"github.com/neeravgigglesandgrins/giggles/pkg/events"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}

type authService struct {
	users repository.UserRepository
	bus   events.Publisher
	cfg   *config.Config
}

func NewAuthService(users repository.UserRepository, bus events.Publisher, cfg *config.Config) AuthService {
	return &authService{users: users, bus: bus, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.LoginResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrValidation, err)
	}

	hash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         "user",
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.bus.Publish(ctx, events.UserSignedUp, events.UserSignedUpEvent{
		UserID:    user.ID,
		Phone:     user.Phone,
		Role:      user.Role,
		Timestamp: time.Now(),
	}); err != nil {
		// Event delivery must never block a signup.
		logger.ErrorContext(ctx, "Failed to publish signup event", "error", err, "user_id", user.ID)
	}

	return s.issueToken(user)
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	req.Normalize()

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil || !match {
		return nil, domain.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *authService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return user, nil
}

func (s *authService) issueToken(user *domain.User) (*domain.LoginResponse, error) {
	token, err := auth.NewAccessToken(user.ID, user.Email, user.Role, s.cfg.Auth.JWTSecret, s.cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.cfg.Auth.AccessTokenTTL),
		User:        user,
	}, nil
}
