package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/service/reporting"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	service reporting.ReportingUseCase
}

func NewReportHandler(service reporting.ReportingUseCase) *ReportHandler {
	return &ReportHandler{service: service}
}

// Register mounts the caller's own summary and charts.
func (h *ReportHandler) Register(router *gin.RouterGroup) {
	router.GET("/summary", h.userSummary)
	router.GET("/charts/bookings", h.series(h.service.MonthlyBookings))
	router.GET("/charts/spending", h.series(h.service.MonthlySpending))
}

func (h *ReportHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/summary", h.adminSummary)
	router.GET("/charts/bookings-per-user", h.series(h.service.BookingsPerUser))
	router.GET("/charts/revenue-per-lot", h.series(h.service.RevenuePerLot))
}

func (h *ReportHandler) userSummary(c *gin.Context) {
	summary, err := h.service.UserSummary(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) adminSummary(c *gin.Context) {
	summary, err := h.service.AdminSummary(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type seriesFunc func(ctx context.Context, p domain.Principal) ([]reporting.Point, error)

func (h *ReportHandler) series(fn seriesFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		points, err := fn(c.Request.Context(), principalFrom(c))
		if err != nil {
			writeError(c, err)
			return
		}
		if points == nil {
			points = []reporting.Point{}
		}
		c.JSON(http.StatusOK, points)
	}
}
