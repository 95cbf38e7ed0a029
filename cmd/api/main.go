package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/neeravgigglesandgrins/giggles/internal/http/handlers"
	authmw "github.com/neeravgigglesandgrins/giggles/internal/http/middleware"
	"github.com/neeravgigglesandgrins/giggles/internal/repository"
	"github.com/neeravgigglesandgrins/giggles/internal/scheduler"
	"github.com/neeravgigglesandgrins/giggles/internal/service"
	"github.com/neeravgigglesandgrins/giggles/pkg/config"
	"github.com/neeravgigglesandgrins/giggles/pkg/database"
	"github.com/neeravgigglesandgrins/giggles/pkg/events"
	"github.com/neeravgigglesandgrins/giggles/pkg/idempotency"
	"github.com/neeravgigglesandgrins/giggles/pkg/logger"
	mw "github.com/neeravgigglesandgrins/giggles/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	idemStore, err := idempotency.NewRedisStore(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer idemStore.Close()

	// Repositories
	store := repository.NewStore(pool)
	slotRepo := repository.NewSlotRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	branchRepo := repository.NewBranchRepository(pool)
	userRepo := repository.NewUserRepository(pool)

	// Services
	bookingService := service.NewBookingService(store, slotRepo, bookingRepo, branchRepo, userRepo, eventBus, cfg)
	authService := service.NewAuthService(userRepo, eventBus, cfg)

	// Handlers
	bookingHandlers := handlers.NewBookingHandlers(bookingService)
	authHandlers := handlers.NewAuthHandlers(authService)
	branchHandlers := handlers.NewBranchHandlers(branchRepo)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.ServiceName("giggles"))
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	requireJWT := authmw.RequireJWT(cfg.Auth.JWTSecret)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandlers.Register)
			r.Post("/login", authHandlers.Login)
			r.With(requireJWT).Get("/me", authHandlers.Me)
		})

		r.Get("/branches", branchHandlers.List)

		r.Route("/bookings", func(r chi.Router) {
			r.Use(requireJWT)
			r.Get("/slots", bookingHandlers.AvailableSlots)
			r.With(mw.Idempotency(idemStore)).Post("/reserve", bookingHandlers.Reserve)
			r.Post("/confirm-payment", bookingHandlers.ConfirmPayment)
			r.Get("/my", bookingHandlers.MyBookings)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	reconciler := scheduler.New(bookingService, cfg.Booking.SweepInterval)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting giggles API", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := reconciler.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down giggles API...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Service error", "error", err)
		os.Exit(1)
	}
}
