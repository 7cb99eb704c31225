package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/airreservation/internal/service/assistant"
	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	service assistant.AssistantUseCase
}

type assistantRequest struct {
	Message string `json:"message"`
}

func NewAssistantHandler(service assistant.AssistantUseCase) *AssistantHandler {
	return &AssistantHandler{service: service}
}

func (h *AssistantHandler) Register(router *gin.RouterGroup) {
	router.POST("/assistant", h.reply)
}

func (h *AssistantHandler) reply(c *gin.Context) {
	var req assistantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "message is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": h.service.Reply(c.Request.Context(), userID(c), req.Message)})
}
