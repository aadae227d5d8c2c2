package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	VehicleNumber string `json:"vehicle_number"`
	VehicleBrand  string `json:"vehicle_brand"`
	VehicleModel  string `json:"vehicle_model"`
}

type bookingResponse struct {
	ID            int64   `json:"id"`
	SpotID        int64   `json:"spot_id"`
	LotID         int64   `json:"lot_id"`
	UserID        int64   `json:"user_id"`
	State         string  `json:"state"`
	EntryTime     string  `json:"entry_time"`
	ExitTime      *string `json:"exit_time,omitempty"`
	VehicleNumber string  `json:"vehicle_number"`
	VehicleBrand  string  `json:"vehicle_brand"`
	VehicleModel  string  `json:"vehicle_model"`
	CostCents     int64   `json:"cost_cents"`
}

type allocationResponse struct {
	Booking bookingResponse    `json:"booking"`
	Spot    domain.ParkingSpot `json:"spot"`
	Lot     domain.ParkingLot  `json:"lot"`
}

type quoteResponse struct {
	BookingID         int64  `json:"booking_id"`
	SpotID            int64  `json:"spot_id"`
	LotID             int64  `json:"lot_id"`
	LotName           string `json:"lot_name"`
	EntryTime         string `json:"entry_time"`
	ExitTime          string `json:"exit_time"`
	PricePerHourCents int64  `json:"price_per_hour_cents"`
	Hours             int64  `json:"hours"`
	TotalCents        int64  `json:"total_cents"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/lots/:id/bookings", h.create)
	router.GET("/bookings", h.list)
	router.POST("/bookings/:id/quote", h.quote)
	router.POST("/bookings/:id/release", h.release)
}

func (h *BookingHandler) create(c *gin.Context) {
	lotID, ok := idParam(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	alloc, err := h.service.Book(c.Request.Context(), principalFrom(c), booking.BookInput{
		LotID:         lotID,
		VehicleNumber: req.VehicleNumber,
		VehicleBrand:  req.VehicleBrand,
		VehicleModel:  req.VehicleModel,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, allocationResponse{
		Booking: toBookingResponse(alloc.Booking),
		Spot:    alloc.Spot,
		Lot:     alloc.Lot,
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.History(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, toBookingResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) quote(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	q, err := h.service.Quote(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		BookingID:         q.BookingID,
		SpotID:            q.SpotID,
		LotID:             q.LotID,
		LotName:           q.LotName,
		EntryTime:         q.EntryTime.Format(time.RFC3339),
		ExitTime:          q.ExitTime.Format(time.RFC3339),
		PricePerHourCents: q.PricePerHourCents,
		Hours:             q.Hours,
		TotalCents:        q.TotalCents,
	})
}

func (h *BookingHandler) release(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	b, err := h.service.Finalize(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(*b))
}

func toBookingResponse(b domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:            b.ID,
		SpotID:        b.SpotID,
		LotID:         b.LotID,
		UserID:        b.UserID,
		State:         string(b.State()),
		EntryTime:     b.EntryTime.Format(time.RFC3339),
		VehicleNumber: b.Vehicle.Number,
		VehicleBrand:  b.Vehicle.Brand,
		VehicleModel:  b.Vehicle.Model,
		CostCents:     b.CostCents(),
	}
	if b.Closure != nil {
		exit := b.Closure.ExitTime.Format(time.RFC3339)
		resp.ExitTime = &exit
	}
	return resp
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
