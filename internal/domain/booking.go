package domain

import "time"

type BookingState string

const (
	BookingStateActive BookingState = "ACTIVE"
	BookingStateClosed BookingState = "CLOSED"
)

type Vehicle struct {
	Number string `json:"number"`
	Brand  string `json:"brand"`
	Model  string `json:"model"`
}

// Closure is set exactly once, when the spot is released and paid for.
type Closure struct {
	ExitTime  time.Time `json:"exit_time"`
	CostCents int64     `json:"cost_cents"`
}

// Booking is Active while Closure is nil. ProvisionalCostCents is the
// one-hour estimate recorded at booking time and is superseded by
// Closure.CostCents.
type Booking struct {
	ID                   int64
	SpotID               int64
	LotID                int64
	UserID               int64
	EntryTime            time.Time
	Vehicle              Vehicle
	ProvisionalCostCents int64
	Closure              *Closure
}

func (b *Booking) Active() bool {
	return b.Closure == nil
}

func (b *Booking) State() BookingState {
	if b.Active() {
		return BookingStateActive
	}
	return BookingStateClosed
}

// CostCents returns the final cost for closed bookings and the provisional
// estimate otherwise.
func (b *Booking) CostCents() int64 {
	if b.Closure != nil {
		return b.Closure.CostCents
	}
	return b.ProvisionalCostCents
}

func (b *Booking) Close(exit time.Time, costCents int64) {
	b.Closure = &Closure{ExitTime: exit, CostCents: costCents}
}

type BookingFilter struct {
	UserID     *int64
	SpotID     *int64
	ActiveOnly bool
}
