package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth      *AuthHandler
	Flights   *FlightHandler
	Bookings  *BookingHandler
	Admin     *AdminHandler
	Assistant *AssistantHandler
}

// NewRouter mounts every handler under /api/v1 plus health and swagger routes.
func NewRouter(h Handlers, tokens TokenParser, log *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))

	v1 := router.Group("/api/v1")
	h.Auth.Register(v1.Group("/auth"))
	h.Flights.Register(v1.Group("/flights"))
	h.Bookings.RegisterPublic(v1)

	private := v1.Group("", AuthMiddleware(tokens))
	h.Auth.RegisterProtected(private)
	h.Bookings.Register(private.Group("/bookings"))
	h.Assistant.Register(private)

	admin := private.Group("/admin", RequireAdmin())
	h.Admin.Register(admin)

	return router
}
