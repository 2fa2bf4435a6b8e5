package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"concierge/internal/app"
	"concierge/internal/transport/http/response"
)

type AnswerService interface {
	Answer(ctx context.Context, question string) (*app.AnswerStream, error)
}

type AnswerHandler struct {
	service AnswerService
	log     zerolog.Logger
}

type AnswerRequest struct {
	Question string `json:"question"`
}

func NewAnswerHandler(service AnswerService, log zerolog.Logger) *AnswerHandler {
	return &AnswerHandler{service: service, log: log}
}

// Answer streams the answer as server-sent events: the matched sections
// first, then every completion fragment, then [DONE] once it is stored.
func (h *AnswerHandler) Answer(c *gin.Context) {
	log := requestLogger(c, h.log)

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, log, app.NewUserError("Missing request data", nil))
		return
	}

	ctx := c.Request.Context()
	stream, err := h.service.Answer(ctx, req.Question)
	if err != nil {
		writeError(c, log, err)
		return
	}
	log = log.With().Str("identifier", stream.Identifier).Logger()
	defer func() {
		if err := stream.Relay.Abort(ctx); err != nil {
			log.Error().Err(err).Msg("abort relay failed")
		}
	}()

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		log.Error().Msg("response writer does not support streaming")
		response.ServerError(c)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	head, err := json.Marshal(gin.H{"pageSections": stream.Sections})
	if err != nil {
		log.Error().Err(err).Msg("marshal page sections failed")
		return
	}
	if err := writeData(c.Writer, flusher, head); err != nil {
		log.Info().Err(err).Msg("caller went away")
		return
	}

	for {
		if ctx.Err() != nil {
			log.Info().Msg("caller went away")
			return
		}
		frag, err := stream.Relay.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("answer stream failed")
			writeErrorEvent(c.Writer, flusher)
			return
		}
		payload := frag.Raw
		if len(payload) == 0 {
			payload, _ = json.Marshal(gin.H{"text": frag.Text})
		}
		if err := writeData(c.Writer, flusher, payload); err != nil {
			log.Info().Err(err).Msg("caller went away")
			return
		}
	}
}

func writeData(w io.Writer, flusher http.Flusher, payload []byte) error {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeErrorEvent(w io.Writer, flusher http.Flusher) {
	body, _ := json.Marshal(response.ServerErrorBody{Error: response.GenericErrorMessage})
	if _, err := fmt.Fprintf(w, "event: error\ndata: %s\n\n", body); err == nil {
		flusher.Flush()
	}
}
