package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/service"
	"github.com/neeravgigglesandgrins/giggles/pkg/config"
	"github.com/neeravgigglesandgrins/giggles/pkg/events"
)

func authConfig() *config.Config {
	cfg := testConfig()
	cfg.Auth = config.AuthConfig{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Hour,
	}
	return cfg
}

func TestRegisterAndLogin(t *testing.T) {
	store := newMemStore()
	bus := &stubBus{}
	svc := service.NewAuthService(store, bus, authConfig())
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Phone:    "+919800000000",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" {
		t.Fatal("no access token issued")
	}
	if resp.User.Email != "asha@example.com" {
		t.Fatalf("email not normalized: %s", resp.User.Email)
	}

	bus.mu.Lock()
	published := append([]string(nil), bus.published...)
	bus.mu.Unlock()
	if len(published) != 1 || published[0] != events.UserSignedUp {
		t.Fatalf("published %v, want [%s]", published, events.UserSignedUp)
	}

	login, err := svc.Login(ctx, &domain.LoginRequest{Email: "asha@example.com", Password: "correct-horse"})
	if err != nil {
		t.Fatal(err)
	}
	if login.User.ID != resp.User.ID {
		t.Fatal("login resolved a different user")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store := newMemStore()
	svc := service.NewAuthService(store, &stubBus{}, authConfig())
	ctx := context.Background()

	if _, err := svc.Register(ctx, &domain.RegisterRequest{
		Name: "Ravi", Email: "ravi@example.com", Password: "super-secret",
	}); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Login(ctx, &domain.LoginRequest{Email: "ravi@example.com", Password: "wrong"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}

	_, err = svc.Login(ctx, &domain.LoginRequest{Email: "nobody@example.com", Password: "whatever"})
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	store := newMemStore()
	svc := service.NewAuthService(store, &stubBus{}, authConfig())

	_, err := svc.Register(context.Background(), &domain.RegisterRequest{
		Name: "X", Email: "not-an-email", Password: "short",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
}
