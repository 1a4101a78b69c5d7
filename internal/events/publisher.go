// Package events publishes prediction events to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/config"
	"github.com/AhmedHarera/HeartFailure/internal/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TypePredictionCreated is the event type written for every stored prediction.
const TypePredictionCreated = "prediction.created"

const (
	publishTimeout = 5 * time.Second
	queueSize      = 256
)

// PredictionCreated is the event payload. Attributes are not included.
type PredictionCreated struct {
	Type         string          `json:"type"`
	PredictionID string          `json:"prediction_id"`
	UserID       string          `json:"user_id"`
	Label        string          `json:"label"`
	Tier         models.RiskTier `json:"tier"`
	CreatedAt    time.Time       `json:"created_at"`
}

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher queues prediction events and writes them from a single
// background goroutine. Callers never wait on the broker; when the queue is
// full the event is dropped and logged.
type Publisher struct {
	w     MessageWriter
	log   *zap.Logger
	queue chan kafka.Message

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewPublisher returns a Kafka-backed publisher, or a no-op one when events are disabled.
func NewPublisher(cfg config.EventsConfig, log *zap.Logger) *Publisher {
	log = log.Named("events")
	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info("Prediction events disabled")
		return &Publisher{log: log}
	}
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, log)
}

// NewPublisherWithWriter wraps an existing writer and starts the send loop.
func NewPublisherWithWriter(w MessageWriter, log *zap.Logger) *Publisher {
	p := &Publisher{
		w:     w,
		log:   log,
		queue: make(chan kafka.Message, queueSize),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Publisher) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := p.w.WriteMessages(ctx, msg)
		cancel()
		if err != nil {
			p.log.Warn("Failed to publish prediction event",
				zap.String("prediction_id", predictionID(msg)),
				zap.Error(err))
			continue
		}
		p.log.Debug("Published prediction event", zap.String("prediction_id", predictionID(msg)))
	}
}

// PredictionCreated queues the event for pred, keyed by user so a user's events stay ordered.
func (p *Publisher) PredictionCreated(_ context.Context, pred *models.Prediction) {
	if p.w == nil || pred == nil {
		return
	}
	ev := PredictionCreated{
		Type:         TypePredictionCreated,
		PredictionID: pred.ID.String(),
		UserID:       pred.UserID,
		Label:        pred.PredictionResult,
		Tier:         pred.Tier(),
		CreatedAt:    pred.CreatedAt,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("Failed to encode prediction event", zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(pred.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypePredictionCreated)},
			{Key: "prediction_id", Value: []byte(ev.PredictionID)},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.log.Warn("Event queue full, dropping prediction event", zap.String("prediction_id", ev.PredictionID))
	}
}

// Close drains queued events and closes the underlying writer.
func (p *Publisher) Close() error {
	if p.w == nil {
		return nil
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.w.Close()
}

func predictionID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "prediction_id" {
			return string(h.Value)
		}
	}
	return ""
}
