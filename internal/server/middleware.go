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
	"github.com/samvad-hq/samvad-articles/internal/storage"
)

type ctxKey int8

const ctxKeyArticle ctxKey = iota

// ArticleCtx loads the Article named by the {articleID} URL parameter onto the
// request context. Unparsable ids get a 400 and unknown ids a 404.
func (s *Server) ArticleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "articleID"), 10, 64)
		if err != nil {
			s.render(w, r, ErrInvalidRequest(errors.New("article id must be an integer")))
			return
		}

		article, err := s.store.Get(id)
		if errors.Is(err, storage.ErrNotFound) {
			s.render(w, r, ErrNotFound)
			return
		}
		if err != nil {
			s.render(w, r, ErrInternal(err))
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyArticle, article)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func articleFromContext(ctx context.Context) domain.Article {
	article, _ := ctx.Value(ctxKeyArticle).(domain.Article)
	return article
}

// requestLogger logs one structured entry per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.InfoObj("http request", "http_request", map[string]any{
			"request_id":  middleware.GetReqID(r.Context()),
			"method":      r.Method,
			"path":        r.URL.Path,
			"query":       r.URL.RawQuery,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, v render.Renderer) {
	if err := render.Render(w, r, v); err != nil {
		s.log.ErrorObj("render response failed", "error", err.Error())
	}
}
