package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/samvad-hq/samvad-articles/internal/domain"
)

// ArticleRequest is the request payload for Article data model.
type ArticleRequest struct {
	*domain.Article
}

func (a *ArticleRequest) Bind(*http.Request) error {
	if a.Article == nil {
		return errors.New("missing required Article fields")
	}
	// the id is assigned by the store, never by the caller
	a.Article.ID = 0
	return nil
}

// ArticleResponse is the response payload for the Article data model.
type ArticleResponse struct {
	*domain.Article
}

func NewArticleResponse(article domain.Article) *ArticleResponse {
	return &ArticleResponse{Article: &article}
}

func (*ArticleResponse) Render(http.ResponseWriter, *http.Request) error { return nil }

func NewArticleListResponse(articles []domain.Article) []render.Renderer {
	list := make([]render.Renderer, 0, len(articles))
	for _, article := range articles {
		list = append(list, NewArticleResponse(article))
	}
	return list
}
