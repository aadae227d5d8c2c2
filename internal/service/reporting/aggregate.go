package reporting

import (
	"sort"
	"strconv"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
)

const monthLayout = "2006-01"

// Point is one bar or line point of a chart series.
type Point struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type UserRow struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Type         string `json:"type"`
	VehicleCount int    `json:"vehicle_count"`
	BookingCount int    `json:"booking_count"`
}

type AdminSummary struct {
	TotalUsers        int       `json:"total_users"`
	ActiveBookings    int       `json:"active_bookings"`
	DistinctVehicles  int       `json:"distinct_vehicles"`
	BookingsPerUser   []Point   `json:"bookings_per_user"`
	Users             []UserRow `json:"users"`
	TotalRevenueCents int64     `json:"total_revenue_cents"`
	RevenuePerLot     []Point   `json:"revenue_per_lot"`
}

type BookingRow struct {
	BookingID     int64      `json:"booking_id"`
	LotName       string     `json:"lot_name"`
	SpotID        int64      `json:"spot_id"`
	VehicleNumber string     `json:"vehicle_number"`
	VehicleBrand  string     `json:"vehicle_brand"`
	VehicleModel  string     `json:"vehicle_model"`
	EntryTime     time.Time  `json:"entry_time"`
	ExitTime      *time.Time `json:"exit_time"`
	CostCents     int64      `json:"cost_cents"`
	Active        bool       `json:"active"`
}

type UserSummary struct {
	TotalBookings   int          `json:"total_bookings"`
	ActiveBookings  int          `json:"active_bookings"`
	TotalSpentCents int64        `json:"total_spent_cents"`
	Bookings        []BookingRow `json:"bookings"`
}

func userLabel(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return "User " + strconv.FormatInt(u.ID, 10)
}

func BuildAdminSummary(users []domain.User, lots []domain.ParkingLot, bookings []domain.Booking) AdminSummary {
	summary := AdminSummary{
		TotalUsers:      len(users),
		BookingsPerUser: BookingsPerUser(users, bookings),
		Users:           make([]UserRow, 0, len(users)),
		RevenuePerLot:   RevenuePerLot(lots),
	}

	vehicles := make(map[string]struct{})
	perUserVehicles := make(map[int64]map[string]struct{})
	perUserBookings := make(map[int64]int)
	for _, b := range bookings {
		if b.Active() {
			summary.ActiveBookings++
		}
		vehicles[b.Vehicle.Number] = struct{}{}
		if perUserVehicles[b.UserID] == nil {
			perUserVehicles[b.UserID] = make(map[string]struct{})
		}
		perUserVehicles[b.UserID][b.Vehicle.Number] = struct{}{}
		perUserBookings[b.UserID]++
	}
	summary.DistinctVehicles = len(vehicles)

	for _, u := range users {
		summary.Users = append(summary.Users, UserRow{
			UserID:       u.ID,
			Name:         u.Name,
			Email:        u.Email,
			Type:         "User",
			VehicleCount: len(perUserVehicles[u.ID]),
			BookingCount: perUserBookings[u.ID],
		})
	}
	for _, l := range lots {
		summary.TotalRevenueCents += l.RevenueCents
	}
	return summary
}

// BuildUserSummary expects the bookings of a single user. Rows come out in
// entry order, oldest first.
func BuildUserSummary(bookings []domain.Booking, lotNames map[int64]string) UserSummary {
	sorted := sortedByEntry(bookings)
	summary := UserSummary{
		TotalBookings: len(sorted),
		Bookings:      make([]BookingRow, 0, len(sorted)),
	}
	for _, b := range sorted {
		row := BookingRow{
			BookingID:     b.ID,
			LotName:       lotNames[b.LotID],
			SpotID:        b.SpotID,
			VehicleNumber: b.Vehicle.Number,
			VehicleBrand:  b.Vehicle.Brand,
			VehicleModel:  b.Vehicle.Model,
			EntryTime:     b.EntryTime,
			CostCents:     b.CostCents(),
			Active:        b.Active(),
		}
		if row.LotName == "" {
			row.LotName = "-"
		}
		if b.Active() {
			summary.ActiveBookings++
		} else {
			exit := b.Closure.ExitTime
			row.ExitTime = &exit
			summary.TotalSpentCents += b.Closure.CostCents
		}
		summary.Bookings = append(summary.Bookings, row)
	}
	return summary
}

func BookingsPerUser(users []domain.User, bookings []domain.Booking) []Point {
	counts := make(map[int64]int64)
	for _, b := range bookings {
		counts[b.UserID]++
	}
	series := make([]Point, 0, len(users))
	for _, u := range users {
		series = append(series, Point{Label: userLabel(u), Value: counts[u.ID]})
	}
	return series
}

func RevenuePerLot(lots []domain.ParkingLot) []Point {
	series := make([]Point, 0, len(lots))
	for _, l := range lots {
		series = append(series, Point{Label: l.PrimeLocation, Value: l.RevenueCents})
	}
	return series
}

// MonthlyBookings counts every booking by the month it started in.
func MonthlyBookings(bookings []domain.Booking) []Point {
	return byMonth(bookings, func(b domain.Booking) (int64, bool) {
		return 1, true
	})
}

// MonthlySpending sums final costs by the month the booking started in.
// Open bookings have no final cost and are skipped.
func MonthlySpending(bookings []domain.Booking) []Point {
	return byMonth(bookings, func(b domain.Booking) (int64, bool) {
		if b.Active() {
			return 0, false
		}
		return b.Closure.CostCents, true
	})
}

func byMonth(bookings []domain.Booking, value func(domain.Booking) (int64, bool)) []Point {
	totals := make(map[string]int64)
	for _, b := range bookings {
		v, ok := value(b)
		if !ok {
			continue
		}
		totals[b.EntryTime.UTC().Format(monthLayout)] += v
	}

	months := make([]string, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Strings(months)

	series := make([]Point, 0, len(months))
	for _, m := range months {
		series = append(series, Point{Label: m, Value: totals[m]})
	}
	return series
}

func sortedByEntry(bookings []domain.Booking) []domain.Booking {
	sorted := make([]domain.Booking, len(bookings))
	copy(sorted, bookings)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].EntryTime.Equal(sorted[j].EntryTime) {
			return sorted[i].EntryTime.Before(sorted[j].EntryTime)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
