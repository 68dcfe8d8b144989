package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	ProductCreated               = "product_created"
	ProductUpdated               = "product_updated"
	ProductDeleted               = "product_deleted"
	ProductRecommendationChanged = "product_recommendation_changed"

	UserLoggedIn    = "user_logged_in"
	UserLoginFailed = "user_login_failed"
)

type ProductEvent struct {
	Type        string    `json:"type"`
	ProductID   int64     `json:"productID"`
	Name        string    `json:"name,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Recommended *bool     `json:"recommended,omitempty"`
	At          time.Time `json:"at"`
}

type UserEvent struct {
	Type     string    `json:"type"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }

// Emitter publishes with a bounded deadline and only logs failures; events
// never fail the request that produced them.
type Emitter struct {
	Pub          Publisher
	ProductTopic string
	UserTopic    string
	Timeout      time.Duration
}

func (e *Emitter) Product(ctx context.Context, l *slog.Logger, ev ProductEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	e.publish(ctx, l, e.ProductTopic, formatID(ev.ProductID), ev)
}

func (e *Emitter) User(ctx context.Context, l *slog.Logger, ev UserEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	e.publish(ctx, l, e.UserTopic, ev.Username, ev)
}

func (e *Emitter) publish(ctx context.Context, l *slog.Logger, topic, key string, ev any) {
	if e == nil || e.Pub == nil {
		return
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	if err := e.Pub.Publish(ctx, topic, key, ev); err != nil {
		l.Error("event_publish_error", "topic", topic, "key", key, "error", err)
	}
}
