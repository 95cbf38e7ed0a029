package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	"github.com/neeravgigglesandgrins/giggles/internal/http/handlers"
	mw "github.com/neeravgigglesandgrins/giggles/internal/http/middleware"
	"github.com/neeravgigglesandgrins/giggles/pkg/auth"
)

const testSecret = "handler-test-secret"

// ---------- Mocks ----------

type stubBookingService struct {
	reserveFn func(ctx context.Context, req *domain.ReserveRequest, userID int64) (*domain.Reservation, error)
	confirmFn func(ctx context.Context, req *domain.ConfirmPaymentRequest, userID int64) (*domain.Booking, error)
	slotsFn   func(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error)
	listFn    func(ctx context.Context, userID int64) ([]domain.BookingDetail, error)
}

func (s *stubBookingService) AvailableSlots(ctx context.Context, branchID int64, date time.Time) ([]domain.Slot, error) {
	return s.slotsFn(ctx, branchID, date)
}

func (s *stubBookingService) Reserve(ctx context.Context, req *domain.ReserveRequest, userID int64) (*domain.Reservation, error) {
	return s.reserveFn(ctx, req, userID)
}

func (s *stubBookingService) ConfirmPayment(ctx context.Context, req *domain.ConfirmPaymentRequest, userID int64) (*domain.Booking, error) {
	return s.confirmFn(ctx, req, userID)
}

func (s *stubBookingService) MyBookings(ctx context.Context, userID int64) ([]domain.BookingDetail, error) {
	return s.listFn(ctx, userID)
}

func (s *stubBookingService) ExpireOverdue(ctx context.Context) (int, error) {
	return 0, nil
}

func newRouter(svc *stubBookingService) http.Handler {
	h := handlers.NewBookingHandlers(svc)
	r := chi.NewRouter()
	r.Route("/api/bookings", func(r chi.Router) {
		r.Use(mw.RequireJWT(testSecret))
		r.Get("/slots", h.AvailableSlots)
		r.Post("/reserve", h.Reserve)
		r.Post("/confirm-payment", h.ConfirmPayment)
		r.Get("/my", h.MyBookings)
	})
	return r
}

func bearer(t *testing.T, userID int64) string {
	t.Helper()
	token, err := auth.NewAccessToken(userID, "user@example.com", "user", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + token
}

// ---------- Tests ----------

func TestReserveRequiresAuth(t *testing.T) {
	router := newRouter(&stubBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reserve", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReserveReturnsCreated(t *testing.T) {
	expires := time.Now().Add(10 * time.Minute)
	svc := &stubBookingService{
		reserveFn: func(_ context.Context, req *domain.ReserveRequest, userID int64) (*domain.Reservation, error) {
			if userID != 42 {
				t.Fatalf("userID = %d, want 42 from JWT", userID)
			}
			if req.BranchID != 1 || req.StartTime != "10:00" || req.EndTime != "11:00" {
				t.Fatalf("unexpected request: %+v", req)
			}
			return &domain.Reservation{
				BookingID:  9,
				PaymentURL: "/payment/9",
				ExpiresAt:  expires,
			}, nil
		},
	}
	router := newRouter(svc)

	body := `{"branch_id":1,"slot_date":"2026-09-14","start_time":"10:00","end_time":"11:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reserve", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	var out domain.Reservation
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.BookingID != 9 || out.PaymentURL != "/payment/9" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestReserveRejectsBadDate(t *testing.T) {
	router := newRouter(&stubBookingService{})

	body := `{"branch_id":1,"slot_date":"14-09-2026","start_time":"10:00","end_time":"11:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reserve", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestReserveMapsCapacityExceededToConflict(t *testing.T) {
	svc := &stubBookingService{
		reserveFn: func(context.Context, *domain.ReserveRequest, int64) (*domain.Reservation, error) {
			return nil, fmt.Errorf("slot 3 is full (2/2): %w", domain.ErrCapacityExceeded)
		},
	}
	router := newRouter(svc)

	body := `{"branch_id":1,"slot_date":"2026-09-14","start_time":"10:00","end_time":"11:00"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reserve", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}

	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["code"] != "CAPACITY_EXCEEDED" {
		t.Fatalf("code = %q, want CAPACITY_EXCEEDED", out["code"])
	}
}

func TestConfirmMapsExpiredToBadRequest(t *testing.T) {
	svc := &stubBookingService{
		confirmFn: func(context.Context, *domain.ConfirmPaymentRequest, int64) (*domain.Booking, error) {
			return nil, fmt.Errorf("booking 9 payment window closed: %w", domain.ErrExpired)
		},
	}
	router := newRouter(svc)

	body := `{"booking_id":9,"payment_id":"pay-1","payment_success":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/confirm-payment", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var out map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out["code"] != "RESERVATION_EXPIRED" {
		t.Fatalf("code = %q, want RESERVATION_EXPIRED", out["code"])
	}
}

func TestConfirmMapsForbidden(t *testing.T) {
	svc := &stubBookingService{
		confirmFn: func(context.Context, *domain.ConfirmPaymentRequest, int64) (*domain.Booking, error) {
			return nil, fmt.Errorf("booking 9 belongs to another user: %w", domain.ErrForbidden)
		},
	}
	router := newRouter(svc)

	body := `{"booking_id":9,"payment_id":"pay-1","payment_success":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/confirm-payment", bytes.NewBufferString(body))
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAvailableSlotsValidatesQuery(t *testing.T) {
	router := newRouter(&stubBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/slots?branch_id=abc&date=2026-09-14", nil)
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAvailableSlotsReturnsSlots(t *testing.T) {
	svc := &stubBookingService{
		slotsFn: func(_ context.Context, branchID int64, date time.Time) ([]domain.Slot, error) {
			if branchID != 1 {
				t.Fatalf("branchID = %d, want 1", branchID)
			}
			return []domain.Slot{
				{ID: 1, BranchID: 1, SlotDate: date, StartTime: "09:00", EndTime: "10:00", MaxCapacity: 2, BookedCount: 1},
			}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/bookings/slots?branch_id=1&date=2026-09-14", nil)
	req.Header.Set("Authorization", bearer(t, 42))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var out []domain.Slot
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].StartTime != "09:00" {
		t.Fatalf("unexpected slots: %+v", out)
	}
}
