package domain

import "time"

// Slot is a fixed hourly window at a branch with finite capacity.
// Exactly one row exists per (branch, date, start, end); the unique
// constraint in the slots table enforces it under concurrent creation.
type Slot struct {
	ID          int64     `json:"id"`
	BranchID    int64     `json:"branch_id"`
	SlotDate    time.Time `json:"slot_date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	MaxCapacity int       `json:"max_capacity"`
	BookedCount int       `json:"booked_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsAvailable is the single definition of "has spare capacity"; the
// reservation path and the expiry sweep must never disagree on it.
func (s *Slot) IsAvailable() bool {
	return s.BookedCount < s.MaxCapacity
}

func (s *Slot) AvailableCount() int {
	return s.MaxCapacity - s.BookedCount
}
