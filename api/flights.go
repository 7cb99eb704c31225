package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/airreservation/internal/domain"
	"github.com/Domenick1991/airreservation/internal/service/flights"
	"github.com/Domenick1991/airreservation/internal/service/seats"
	"github.com/Domenick1991/airreservation/internal/service/simulator"
	"github.com/gin-gonic/gin"
)

type FlightHandler struct {
	service flights.FlightUseCase
	seats   seats.SeatUseCase
	weather simulator.WeatherProvider
}

func NewFlightHandler(service flights.FlightUseCase, seats seats.SeatUseCase, weather simulator.WeatherProvider) *FlightHandler {
	return &FlightHandler{service: service, seats: seats, weather: weather}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/by-route", h.byRoute)
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seatMap)
	router.GET("/:id/weather", h.currentWeather)
}

func flightID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *FlightHandler) list(c *gin.Context) {
	region, ok := domain.ParseRegion(c.Query("region"))
	if !ok {
		badRequest(c, "region must be LOCAL or INTERNATIONAL")
		return
	}
	list, err := h.service.List(c.Request.Context(), region)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightsResponse(list))
}

func (h *FlightHandler) byRoute(c *gin.Context) {
	route := c.Query("route")
	if route == "" {
		badRequest(c, "route is required")
		return
	}
	flight, err := h.service.GetByRoute(c.Request.Context(), route)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(*flight))
}

// search matches q against routes, so "nrt" finds "MNL → NRT".
func (h *FlightHandler) search(c *gin.Context) {
	list, err := h.service.SearchByDestination(c.Request.Context(), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightsResponse(list))
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(*flight))
}

func (h *FlightHandler) seatMap(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	m, err := h.seats.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *FlightHandler) currentWeather(c *gin.Context) {
	id, ok := flightID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := h.weather.Current(c.Request.Context(), flight.Route)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
