package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/audit"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	audit   audit.AuditUseCase
	flights flights.FlightUseCase
	seats   seats.SeatUseCase
}

type statusRequest struct {
	Status string `json:"status"`
}

type holdRequest struct {
	Seats []string `json:"seats"`
}

func NewAdminHandler(audit audit.AuditUseCase, flights flights.FlightUseCase, seats seats.SeatUseCase) *AdminHandler {
	return &AdminHandler{audit: audit, flights: flights, seats: seats}
}

func (h *AdminHandler) Register(router *gin.RouterGroup) {
	router.GET("/stats", h.stats)
	router.GET("/audit", h.recent)
	router.PUT("/flights/:id/status", h.updateStatus)
	router.POST("/flights/:id/holds", h.hold)
	router.DELETE("/flights/:id/holds", h.release)
}

func (h *AdminHandler) stats(c *gin.Context) {
	st, err := h.audit.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{
		TotalBookings:    st.TotalBookings,
		RevenueCents:     st.RevenueCents,
		Revenue:          domain.FormatCents(st.RevenueCents),
		OccupancyPercent: st.OccupancyPercent,
		CheckedIn:        st.CheckedIn,
	})
}

func (h *AdminHandler) recent(c *gin.Context) {
	limit := domain.MaxAuditEntries
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := h.audit.Recent(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]auditResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditResponse{Timestamp: e.Timestamp, Actor: e.Actor, Message: e.Message})
	}
	c.JSON(http.StatusOK, out)
}

func (h *AdminHandler) updateStatus(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	claims, _ := currentClaims(c)
	changed, err := h.flights.UpdateStatus(c.Request.Context(), id, domain.FlightStatus(req.Status), claims.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flight_id": id, "status": req.Status, "changed": changed})
}

func (h *AdminHandler) hold(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.seats.Reserve(c.Request.Context(), id, req.Seats); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flight_id": id, "seats": req.Seats})
}

func (h *AdminHandler) release(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	var req holdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := h.seats.Release(c.Request.Context(), id, req.Seats); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
