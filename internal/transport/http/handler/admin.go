package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"concierge/internal/model"
	"concierge/internal/repository"
	"concierge/internal/transport/http/response"
)

type AnswerReader interface {
	GetByID(ctx context.Context, id uint) (*model.AnswerRecord, error)
}

type PageStatReader interface {
	ListTop(ctx context.Context, limit int) ([]model.PageHitStat, error)
}

// AdminHandler exposes stored answers and page statistics for analysis.
type AdminHandler struct {
	answers AnswerReader
	stats   PageStatReader
	log     zerolog.Logger
}

func NewAdminHandler(answers AnswerReader, stats PageStatReader, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{answers: answers, stats: stats, log: log}
}

func (h *AdminHandler) GetAnswer(c *gin.Context) {
	id64, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id64 == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid answer id")
		return
	}

	record, err := h.answers.GetByID(c.Request.Context(), uint(id64))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAnswerNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		default:
			log := requestLogger(c, h.log)
			log.Error().Err(err).Uint64("id", id64).Msg("get answer failed")
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get answer failed")
		}
		return
	}

	response.OK(c, record)
}

func (h *AdminHandler) ListPageStats(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	stats, err := h.stats.ListTop(c.Request.Context(), limit)
	if err != nil {
		log := requestLogger(c, h.log)
		log.Error().Err(err).Msg("list page stats failed")
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list page stats failed")
		return
	}

	response.OK(c, stats)
}
