package domain

import "time"

type ParkingLot struct {
	ID                int64     `json:"id"`
	PrimeLocation     string    `json:"prime_location"`
	Address           string    `json:"address"`
	Pincode           string    `json:"pincode"`
	PricePerHourCents int64     `json:"price_per_hour_cents"`
	MaxSpots          int       `json:"max_spots"`
	RevenueCents      int64     `json:"revenue_cents"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// LotOverview is a lot together with its spots, as shown on the admin board.
type LotOverview struct {
	Lot      ParkingLot    `json:"lot"`
	Spots    []ParkingSpot `json:"spots"`
	Occupied int           `json:"occupied"`
	Total    int           `json:"total"`
}

// LotAvailability is a catalogue entry shown to visitors choosing a lot.
type LotAvailability struct {
	Lot       ParkingLot `json:"lot"`
	Available int        `json:"available"`
}
