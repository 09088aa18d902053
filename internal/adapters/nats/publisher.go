package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/tripsense/tripsense/internal/core/domain"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the recommendations stream exists.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	cfg := nats.StreamConfig{
		Name:      "RECOMMENDATIONS",
		Subjects:  []string{"tripsense.recommendations.>"},
		Retention: nats.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	}
	if _, err := js.AddStream(&cfg); err != nil {
		// Stream may already exist — try update
		if _, err := js.UpdateStream(&cfg); err != nil {
			return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishRecommendation publishes the event on a per-group subject so
// consumers can subscribe to a single fleet group.
func (p *Publisher) PublishRecommendation(ctx context.Context, event *domain.RecommendationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish("tripsense.recommendations."+groupSlug(event.Group), data)
	return err
}

// Healthy reports whether the underlying connection is up.
func (p *Publisher) Healthy() bool {
	return p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// groupSlug turns a fleet group name into a subject token ("SUV Premium" →
// "suv-premium").
func groupSlug(group string) string {
	slug := strings.ToLower(strings.TrimSpace(group))
	slug = strings.ReplaceAll(slug, " ", "-")
	if slug == "" {
		return "unspecified"
	}
	return slug
}
