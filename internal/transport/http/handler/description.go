package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"concierge/internal/app"
)

type DescriptionService interface {
	Describe(ctx context.Context, in app.DescribeInput) (*app.DescriptionResult, error)
}

type DescriptionHandler struct {
	service DescriptionService
	log     zerolog.Logger
}

func NewDescriptionHandler(service DescriptionService, log zerolog.Logger) *DescriptionHandler {
	return &DescriptionHandler{service: service, log: log}
}

func (h *DescriptionHandler) Describe(c *gin.Context) {
	log := requestLogger(c, h.log)

	var req app.DescribeInput
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, app.NewUserError("Missing request data", nil))
		return
	}

	result, err := h.service.Describe(c.Request.Context(), req)
	if err != nil {
		writeError(c, log, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
