package api

import (
	"net/http"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	FlightID      int64    `json:"flight_id"`
	FareClass     string   `json:"fare_class"`
	Seats         []string `json:"seats"`
	Persons       int      `json:"persons"`
	PaymentMethod string   `json:"payment_method"`
}

type quoteRequest struct {
	FlightID  int64  `json:"flight_id"`
	FareClass string `json:"fare_class"`
	Persons   int    `json:"persons"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

// RegisterPublic mounts the routes that need no account.
func (h *BookingHandler) RegisterPublic(router *gin.RouterGroup) {
	router.POST("/quotes", h.quote)
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:pnr", h.get)
	router.DELETE("/:pnr", h.cancel)
	router.POST("/:pnr/check-in", h.checkIn)
	router.GET("/:pnr/boarding-pass", h.boardingPass)
}

func (h *BookingHandler) quote(c *gin.Context) {
	var req quoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	q, err := h.service.Quote(c.Request.Context(), req.FlightID, req.FareClass, req.Persons)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:        userID(c),
		FlightID:      req.FlightID,
		FareClass:     req.FareClass,
		Seats:         req.Seats,
		Persons:       req.Persons,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newBookingResponse(b))
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, newBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, out)
}

// get only shows a booking to its owner.
func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetBooking(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		writeError(c, err)
		return
	}
	if b.UserID != userID(c) {
		writeError(c, domain.ErrNotOwner)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	if err := h.service.CancelBooking(c.Request.Context(), c.Param("pnr"), userID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) checkIn(c *gin.Context) {
	b, err := h.service.CheckIn(c.Request.Context(), c.Param("pnr"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(b))
}

func (h *BookingHandler) boardingPass(c *gin.Context) {
	pdf, err := h.service.BoardingPass(c.Request.Context(), c.Param("pnr"), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="boarding-pass.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
