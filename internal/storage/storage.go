package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/samvad-articles/internal/domain"
)

// Package storage provides the article persistence backends behind the reference server.

// ErrNotFound is returned when no article has the requested id.
var ErrNotFound = errors.New("article not found")

// Store persists articles. IDs are assigned by Create and never reused.
type Store interface {
	Close() error
	Create(a domain.Article) (domain.Article, error)
	Get(id int64) (domain.Article, error)
	List() ([]domain.Article, error)
	Update(id int64, a domain.Article) (domain.Article, error)
	Delete(id int64) error
}

// NewStore creates the configured storage backend.
func NewStore(typ, path string) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))

	switch typ {
	case "", "memory":
		return newMemoryStore(), nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

// Paginate returns the zero-based page of list holding at most limit entries.
func Paginate(list []domain.Article, page, limit int) []domain.Article {
	if page < 0 || limit <= 0 || len(list) == 0 {
		return []domain.Article{}
	}
	// page*limit must not overflow; any page past the last one is empty.
	if page > (len(list)-1)/limit {
		return []domain.Article{}
	}
	start := page * limit
	end := len(list)
	if limit < end-start {
		end = start + limit
	}
	return list[start:end]
}

// Filter keeps the articles whose title, body or author contains q, ignoring case.
// An empty q keeps everything.
func Filter(list []domain.Article, q string) []domain.Article {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]domain.Article, 0, len(list))
	for _, a := range list {
		if q == "" ||
			strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.Body), q) ||
			strings.Contains(strings.ToLower(a.Author), q) {
			out = append(out, a)
		}
	}
	return out
}
