package server

import (
	"context"

	"github.com/samvad-hq/samvad-articles/pkg/publishers"
)

// EventPublisher publishes article change events downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
