package api

import (
	"net/http"

	"github.com/Domenick1991/parking/internal/domain"
	"github.com/Domenick1991/parking/internal/service/lots"
	"github.com/gin-gonic/gin"
)

type LotHandler struct {
	service lots.LotUseCase
}

type holderResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

type spotInfoResponse struct {
	Spot    domain.ParkingSpot `json:"spot"`
	Lot     domain.ParkingLot  `json:"lot"`
	Booking *bookingResponse   `json:"booking,omitempty"`
	Holder  *holderResponse    `json:"holder,omitempty"`
}

func NewLotHandler(service lots.LotUseCase) *LotHandler {
	return &LotHandler{service: service}
}

// Register mounts the catalogue visible to signed-in users.
func (h *LotHandler) Register(router *gin.RouterGroup) {
	router.GET("/lots", h.list)
}

// RegisterAdmin mounts lot administration.
func (h *LotHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/lots", h.overview)
	router.POST("/lots", h.create)
	router.PUT("/lots/:id", h.update)
	router.DELETE("/lots/:id", h.delete)
	router.GET("/spots/:id", h.spotInfo)
	router.GET("/users", h.users)
}

func (h *LotHandler) list(c *gin.Context) {
	lots, err := h.service.ListLots(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

func (h *LotHandler) overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *LotHandler) create(c *gin.Context) {
	var req lots.CreateLotInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	lot, err := h.service.CreateLot(c.Request.Context(), principalFrom(c), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

func (h *LotHandler) update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req lots.ResizeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	lot, err := h.service.Resize(c.Request.Context(), principalFrom(c), id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

func (h *LotHandler) delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.service.DeleteLot(c.Request.Context(), principalFrom(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LotHandler) spotInfo(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	info, err := h.service.SpotInfo(c.Request.Context(), principalFrom(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := spotInfoResponse{Spot: info.Spot, Lot: info.Lot}
	if info.Booking != nil {
		b := toBookingResponse(*info.Booking)
		resp.Booking = &b
	}
	if info.Holder != nil {
		resp.Holder = &holderResponse{
			UserID: info.Holder.ID,
			Name:   info.Holder.Name,
			Email:  info.Holder.Email,
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LotHandler) users(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context(), principalFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}
