// Package server is the reference HTTP implementation of the /articles resource.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/samvad-hq/samvad-articles/internal/domain"
	"github.com/samvad-hq/samvad-articles/internal/logger"
	"github.com/samvad-hq/samvad-articles/internal/storage"
	"github.com/samvad-hq/samvad-articles/pkg/publishers"
)

// publishTimeout bounds event delivery once the request has been answered.
const publishTimeout = 5 * time.Second

// Server serves the articles REST API from a Store.
type Server struct {
	store     storage.Store
	publisher EventPublisher
	log       logger.Logger
	router    chi.Router
}

// New builds a Server. publisher may be nil when no change events are wanted.
func New(store storage.Store, publisher EventPublisher, log logger.Logger) *Server {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Server{store: store, publisher: publisher, log: log}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/articles", func(r chi.Router) {
		r.Get("/", s.ListArticles)
		r.Post("/", s.CreateArticle)
		r.Get("/paged", s.PagedArticles)
		r.Get("/search", s.SearchArticles)

		r.Route("/{articleID}", func(r chi.Router) {
			r.Use(s.ArticleCtx)
			r.Get("/", s.GetArticle)
			r.Put("/", s.UpdateArticle)
			r.Delete("/", s.DeleteArticle)
		})
	})

	return r
}

func (s *Server) ListArticles(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.renderList(w, r, list)
}

// PagedArticles serves one zero-based page; page defaults to 0 and limit to 10.
func (s *Server) PagedArticles(w http.ResponseWriter, r *http.Request) {
	page, err := intParam(r, "page", 0)
	if err != nil || page < 0 {
		s.render(w, r, ErrInvalidRequest(errors.New("page must be a non-negative integer")))
		return
	}
	limit, err := intParam(r, "limit", 10)
	if err != nil || limit <= 0 {
		s.render(w, r, ErrInvalidRequest(errors.New("limit must be a positive integer")))
		return
	}

	list, err := s.store.List()
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.renderList(w, r, storage.Paginate(list, page, limit))
}

// SearchArticles lists articles whose content contains the q query parameter.
func (s *Server) SearchArticles(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List()
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.renderList(w, r, storage.Filter(list, r.URL.Query().Get("q")))
}

// CreateArticle persists the posted Article and returns it
// back to the client as an acknowledgement.
func (s *Server) CreateArticle(w http.ResponseWriter, r *http.Request) {
	data := &ArticleRequest{}
	if err := render.Bind(r, data); err != nil {
		s.render(w, r, ErrInvalidRequest(err))
		return
	}

	article, err := s.store.Create(*data.Article)
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.publish(r.Context(), publishers.EventArticleCreated, article)

	render.Status(r, http.StatusCreated)
	s.render(w, r, NewArticleResponse(article))
}

func (s *Server) GetArticle(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, NewArticleResponse(articleFromContext(r.Context())))
}

// UpdateArticle replaces an existing Article in the store.
func (s *Server) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	current := articleFromContext(r.Context())

	data := &ArticleRequest{}
	if err := render.Bind(r, data); err != nil {
		s.render(w, r, ErrInvalidRequest(err))
		return
	}

	article, err := s.store.Update(current.ID, *data.Article)
	if errors.Is(err, storage.ErrNotFound) {
		s.render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.publish(r.Context(), publishers.EventArticleUpdated, article)

	s.render(w, r, NewArticleResponse(article))
}

// DeleteArticle removes an existing Article and answers with an empty body.
func (s *Server) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	article := articleFromContext(r.Context())

	err := s.store.Delete(article.ID)
	if errors.Is(err, storage.ErrNotFound) {
		s.render(w, r, ErrNotFound)
		return
	}
	if err != nil {
		s.render(w, r, ErrInternal(err))
		return
	}
	s.publish(r.Context(), publishers.EventArticleDeleted, article)

	render.NoContent(w, r)
}

func (s *Server) renderList(w http.ResponseWriter, r *http.Request, list []domain.Article) {
	if err := render.RenderList(w, r, NewArticleListResponse(list)); err != nil {
		s.render(w, r, ErrInternal(err))
	}
}

// publish hands the event to the publisher. Failures are logged only.
// Delivery outlives a client disconnect but not publishTimeout.
func (s *Server) publish(ctx context.Context, typ string, article domain.Article) {
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	evt := publishers.NewEvent(typ, article)
	n, err := s.publisher.Publish(ctx, evt)
	if err != nil {
		s.log.WarnObj("article event publish failed", "article_event", map[string]any{
			"event_id":   evt.ID,
			"event_type": typ,
			"article_id": article.ID,
			"delivered":  n,
			"error":      err.Error(),
		})
		return
	}
	s.log.DebugObj("article event published", "article_event", map[string]any{
		"event_id":   evt.ID,
		"event_type": typ,
		"article_id": article.ID,
		"delivered":  n,
	})
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
