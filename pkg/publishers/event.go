package publishers

import (
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/samvad-articles/internal/domain"
)

// Article change event types.
const (
	EventArticleCreated = "article.created"
	EventArticleUpdated = "article.updated"
	EventArticleDeleted = "article.deleted"
)

// Event represents the payload published downstream after an article changes.
type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Article    domain.Article `json:"article"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewEvent constructs an Event of the given type for article.
func NewEvent(typ string, article domain.Article) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		Article:    article,
		OccurredAt: time.Now().UTC(),
	}
}
