package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/neeravgigglesandgrins/giggles/internal/domain"
	mw "github.com/neeravgigglesandgrins/giggles/internal/http/middleware"
	"github.com/neeravgigglesandgrins/giggles/internal/http/response"
	"github.com/neeravgigglesandgrins/giggles/internal/service"
)

type BookingHandlers struct {
	bookings service.BookingService
}

func NewBookingHandlers(bookings service.BookingService) *BookingHandlers {
	return &BookingHandlers{bookings: bookings}
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// GET /api/bookings/slots?branch_id=1&date=2026-09-01
func (h *BookingHandlers) AvailableSlots(w http.ResponseWriter, r *http.Request) {
	branchID, ok := parseID(r.URL.Query().Get("branch_id"))
	if !ok {
		response.BadRequest(w, "branch_id is required")
		return
	}

	date, err := time.Parse(dateLayout, r.URL.Query().Get("date"))
	if err != nil {
		response.BadRequest(w, "date must be formatted as YYYY-MM-DD")
		return
	}

	slots, err := h.bookings.AvailableSlots(r.Context(), branchID, date)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, slots)
}

type reserveSlotRequest struct {
	BranchID  int64  `json:"branch_id"`
	SlotDate  string `json:"slot_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// POST /api/bookings/reserve
func (h *BookingHandlers) Reserve(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var in reserveSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}

	date, err := time.Parse(dateLayout, in.SlotDate)
	if err != nil {
		response.BadRequest(w, "slot_date must be formatted as YYYY-MM-DD")
		return
	}
	if _, err := time.Parse(timeLayout, in.StartTime); err != nil {
		response.BadRequest(w, "start_time must be formatted as HH:MM")
		return
	}
	if _, err := time.Parse(timeLayout, in.EndTime); err != nil {
		response.BadRequest(w, "end_time must be formatted as HH:MM")
		return
	}

	reservation, err := h.bookings.Reserve(r.Context(), &domain.ReserveRequest{
		BranchID:  in.BranchID,
		SlotDate:  date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
	}, userID)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, reservation)
}

// POST /api/bookings/confirm-payment
func (h *BookingHandlers) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	var in domain.ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid JSON body")
		return
	}
	if in.BookingID <= 0 {
		response.BadRequest(w, "booking_id is required")
		return
	}
	if in.PaymentID == "" {
		response.BadRequest(w, "payment_id is required")
		return
	}

	booking, err := h.bookings.ConfirmPayment(r.Context(), &in, userID)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, booking)
}

// GET /api/bookings/my
func (h *BookingHandlers) MyBookings(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, "authentication required")
		return
	}

	bookings, err := h.bookings.MyBookings(r.Context(), userID)
	if err != nil {
		response.DomainError(w, r, err)
		return
	}
	if bookings == nil {
		bookings = []domain.BookingDetail{}
	}
	response.WriteJSON(w, http.StatusOK, bookings)
}
