package domain

type SpotStatus string

const (
	SpotStatusFree     SpotStatus = "free"
	SpotStatusOccupied SpotStatus = "occupied"
)

type ParkingSpot struct {
	ID     int64      `json:"id"`
	LotID  int64      `json:"lot_id"`
	Status SpotStatus `json:"status"`
}

func (s ParkingSpot) Occupied() bool {
	return s.Status == SpotStatusOccupied
}

// SpotInfo describes a spot for the admin board, including who is parked
// there when the spot is occupied.
type SpotInfo struct {
	Spot    ParkingSpot `json:"spot"`
	Lot     ParkingLot  `json:"lot"`
	Booking *Booking    `json:"-"`
	Holder  *User       `json:"-"`
}
