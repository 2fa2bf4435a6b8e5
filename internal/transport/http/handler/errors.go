package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"concierge/internal/app"
	"concierge/internal/transport/http/response"
)

// writeError maps caller-caused failures to 400 and everything else to a
// generic 500, logging the details of the latter.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var userErr *app.UserError
	if errors.As(err, &userErr) {
		log.Warn().Str("error", userErr.Message).Interface("data", userErr.Data).Msg("user error")
		response.UserError(c, userErr.Message, userErr.Data)
		return
	}
	var appErr *app.ApplicationError
	if errors.As(err, &appErr) {
		log.Error().Err(appErr.Err).Str("error", appErr.Message).Interface("data", appErr.Data).Msg("application error")
	} else {
		log.Error().Err(err).Msg("unexpected error")
	}
	response.ServerError(c)
}

func requestLogger(c *gin.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(c.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
