package domain

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingExpired   BookingStatus = "EXPIRED"
)

// Booking is a user's claim on one unit of a slot's capacity. The unit is
// held while the booking is PENDING or CONFIRMED and released exactly once
// on the transition to EXPIRED. CONFIRMED and EXPIRED are terminal.
type Booking struct {
	ID         int64         `json:"id"`
	UserID     int64         `json:"user_id"`
	SlotID     int64         `json:"slot_id"`
	Status     BookingStatus `json:"status"`
	PaymentID  *string       `json:"payment_id,omitempty"`
	ReservedAt time.Time     `json:"reserved_at"`
	ExpiresAt  time.Time     `json:"expires_at"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (b *Booking) Overdue(now time.Time) bool {
	return now.After(b.ExpiresAt)
}

// BookingDetail joins a booking with its slot and branch context for
// listing endpoints.
type BookingDetail struct {
	Booking
	SlotDate   time.Time `json:"slot_date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	BranchName string    `json:"branch_name"`
	City       string    `json:"city"`
}

// Reservation is the synchronous result of a successful reserve call.
type Reservation struct {
	BookingID  int64     `json:"booking_id"`
	PaymentURL string    `json:"payment_url"`
	ExpiresAt  time.Time `json:"expires_at"`
	Message    string    `json:"message"`
}

type ReserveRequest struct {
	BranchID  int64     `json:"branch_id"`
	SlotDate  time.Time `json:"slot_date"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
}

type ConfirmPaymentRequest struct {
	BookingID      int64  `json:"booking_id"`
	PaymentID      string `json:"payment_id"`
	PaymentSuccess bool   `json:"payment_success"`
}
