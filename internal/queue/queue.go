package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jokes-web/internal/config"
	"jokes-web/internal/metrics"
	"jokes-web/internal/models"
	"jokes-web/pkg/logger"

	"github.com/nats-io/nats.go"
)

const (
	FavoriteSubjectPrefix = "jokes.favorites"
	ConsumerGroup         = "jokes-web-bot"
)

func FavoriteSubject(action models.FavoriteAction) string {
	return FavoriteSubjectPrefix + "." + string(action)
}

type NATS struct {
	conn      *nats.Conn
	jetstream nats.JetStreamContext
	cfg       config.NATSConfig
}

func New(cfg config.NATSConfig) (*NATS, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("jokes-web"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to get JetStream: %w", err)
	}

	n := &NATS{
		conn:      conn,
		jetstream: js,
		cfg:       cfg,
	}

	if err := n.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}

	return n, nil
}

func (n *NATS) ensureStream() error {
	_, err := n.jetstream.StreamInfo(n.cfg.StreamName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("failed to look up stream %s: %w", n.cfg.StreamName, err)
	}

	_, err = n.jetstream.AddStream(&nats.StreamConfig{
		Name:     n.cfg.StreamName,
		Subjects: []string{FavoriteSubjectPrefix + ".*"},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream %s: %w", n.cfg.StreamName, err)
	}
	logger.Info("Created JetStream stream", logger.String("stream", n.cfg.StreamName))
	return nil
}

func (n *NATS) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}

type FavoriteEvent struct {
	Action     models.FavoriteAction `json:"action"`
	Joke       models.Joke           `json:"joke"`
	OccurredAt time.Time             `json:"occurred_at"`
}

func NewFavoriteEvent(action models.FavoriteAction, joke models.Joke) *FavoriteEvent {
	return &FavoriteEvent{
		Action:     action,
		Joke:       joke,
		OccurredAt: time.Now().UTC(),
	}
}

func (n *NATS) PublishFavorite(ctx context.Context, event *FavoriteEvent) (err error) {
	defer func() {
		metrics.EventsPublishedTotal.WithLabelValues(string(event.Action), metrics.Result(err)).Inc()
	}()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal favorite event: %w", err)
	}

	_, err = n.jetstream.Publish(FavoriteSubject(event.Action), data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("failed to publish favorite event: %w", err)
	}

	logger.Debug("Favorite event published",
		logger.String("action", string(event.Action)),
		logger.Int64("joke_id", event.Joke.ID),
	)

	return nil
}

// ConsumeFavorites pulls favorite events until ctx is done. Events the
// handler rejects are nak'ed for redelivery.
func (n *NATS) ConsumeFavorites(ctx context.Context, handler func(*FavoriteEvent) error) error {
	sub, err := n.jetstream.PullSubscribe(
		FavoriteSubjectPrefix+".*",
		ConsumerGroup,
		nats.BindStream(n.cfg.StreamName),
	)
	if err != nil {
		return fmt.Errorf("failed to subscribe to favorites: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			msgs, err := sub.Fetch(10, nats.MaxWait(500*time.Millisecond))
			if err != nil {
				if errors.Is(err, nats.ErrTimeout) {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("failed to fetch messages: %w", err)
			}

			for _, msg := range msgs {
				var event FavoriteEvent
				if err := json.Unmarshal(msg.Data, &event); err != nil {
					logger.Error("Failed to unmarshal favorite event",
						logger.Err(err),
					)
					msg.Term()
					continue
				}

				if err := handler(&event); err != nil {
					logger.Error("Failed to process favorite event",
						logger.String("action", string(event.Action)),
						logger.Err(err),
					)
					msg.Nak()
					continue
				}

				msg.Ack()
			}
		}
	}
}
