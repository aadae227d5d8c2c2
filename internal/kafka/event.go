package kafka

import "time"

const (
	EventSpotBooked   = "spot_booked"
	EventSpotReleased = "spot_released"
)

// ParkingEvent is the JSON payload written to the booking and
// notifications topics.
type ParkingEvent struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	BookingID     int64      `json:"booking_id"`
	UserID        int64      `json:"user_id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	LotID         int64      `json:"lot_id"`
	LotName       string     `json:"lot_name"`
	SpotID        int64      `json:"spot_id"`
	VehicleNumber string     `json:"vehicle_number"`
	EntryTime     time.Time  `json:"entry_time"`
	ExitTime      *time.Time `json:"exit_time,omitempty"`
	CostCents     int64      `json:"cost_cents"`
	OccurredAt    time.Time  `json:"occurred_at"`
}

// Key partitions events by booking so a booking's events stay ordered.
func (e ParkingEvent) Key() string {
	return "booking-" + itoa(e.BookingID)
}
