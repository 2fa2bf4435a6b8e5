package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"concierge/internal/metrics"
	"concierge/internal/model"
	"concierge/internal/platform/rabbitmq"
)

// PageHitRecorder is the page statistics store the worker updates.
type PageHitRecorder interface {
	RecordHit(ctx context.Context, pageURL string, similarity float64, seenAt time.Time) error
}

// AnswerEventWorker consumes AnswerRecorded events and counts one hit per
// distinct page that contributed context to the answer.
type AnswerEventWorker struct {
	conn      *amqp.Connection
	stats     PageHitRecorder
	queueName string
	log       zerolog.Logger
	metrics   *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewAnswerEventWorker(conn *amqp.Connection, stats PageHitRecorder, queueName string, log zerolog.Logger, m *metrics.Metrics) *AnswerEventWorker {
	return &AnswerEventWorker{
		conn:      conn,
		stats:     stats,
		queueName: queueName,
		log:       log,
		metrics:   m,
	}
}

func (w *AnswerEventWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if err := rabbitmq.DeclareQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.Handle(workerCtx, d.Body); err != nil {
					w.log.Error().Err(err).Msg("handle answer event failed")
					w.metrics.AnswerEventConsumed("error")
					_ = d.Nack(false, false)
					continue
				}
				w.metrics.AnswerEventConsumed("ok")
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

// Handle decodes one event body and records its page hits.
func (w *AnswerEventWorker) Handle(ctx context.Context, body []byte) error {
	var event model.AnswerRecordedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("decode answer event failed: %w", err)
	}
	for _, hit := range pageHits(event.Sections) {
		if err := w.stats.RecordHit(ctx, hit.PageURL, hit.Similarity, event.RecordedAt); err != nil {
			return fmt.Errorf("record hit for question %d failed: %w", event.QuestionID, err)
		}
	}
	return nil
}

func (w *AnswerEventWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// pageHits keeps the best similarity per page, in first-seen order.
func pageHits(sections []model.AnswerEventSection) []model.AnswerEventSection {
	index := make(map[string]int, len(sections))
	var out []model.AnswerEventSection
	for _, s := range sections {
		if s.PageURL == "" {
			continue
		}
		if i, ok := index[s.PageURL]; ok {
			if s.Similarity > out[i].Similarity {
				out[i].Similarity = s.Similarity
			}
			continue
		}
		index[s.PageURL] = len(out)
		out = append(out, model.AnswerEventSection{PageURL: s.PageURL, Similarity: s.Similarity})
	}
	return out
}
