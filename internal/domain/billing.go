package domain

import "time"

// BillableHours charges whole elapsed hours with a one hour minimum.
func BillableHours(entry, exit time.Time) int64 {
	hours := int64(exit.Sub(entry) / time.Hour)
	if hours < 1 {
		return 1
	}
	return hours
}

func TotalCost(entry, exit time.Time, pricePerHourCents int64) int64 {
	return BillableHours(entry, exit) * pricePerHourCents
}
