package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/storage"
)

type fakeStore struct {
	articles  []storage.Article
	err       error
	newspaper string
	limit     int
}

func (f *fakeStore) ListArticles(_ context.Context, newspaper string, limit int) ([]storage.Article, error) {
	f.newspaper, f.limit = newspaper, limit
	return f.articles, f.err
}

func (f *fakeStore) GetArticle(_ context.Context, uid string) (*storage.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, a := range f.articles {
		if a.UID == uid {
			return &a, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListNewspapers(context.Context) ([]storage.NewspaperCount, error) {
	return []storage.NewspaperCount{{NewspaperID: "elpais", Articles: int64(len(f.articles))}}, f.err
}

func (f *fakeStore) ListLoadRuns(_ context.Context, limit int) ([]storage.LoadRun, error) {
	f.limit = limit
	return []storage.LoadRun{{ID: "r1", File: "clean_elpais.csv"}}, f.err
}

func newRouter(store ArticleStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(store, logger.NewNop()).RegisterRoutes(r)
	return r
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := get(t, newRouter(&fakeStore{}), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestListArticlesPassesFilters(t *testing.T) {
	store := &fakeStore{articles: []storage.Article{{UID: "u1", NewspaperID: "elpais"}}}
	w, body := get(t, newRouter(store), "/api/v1/articles?newspaper=elpais&limit=5")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "elpais", store.newspaper)
	assert.Equal(t, 5, store.limit)
	assert.Len(t, body["data"], 1)
}

func TestListArticlesBadLimitFallsBack(t *testing.T) {
	store := &fakeStore{}
	get(t, newRouter(store), "/api/v1/articles?limit=abc")
	assert.Equal(t, 20, store.limit)
}

func TestGetArticle(t *testing.T) {
	store := &fakeStore{articles: []storage.Article{{UID: "u1", Title: "uno"}}}
	r := newRouter(store)

	w, body := get(t, r, "/api/v1/articles/u1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "uno", body["data"].(map[string]any)["title"])

	w, body = get(t, r, "/api/v1/articles/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", body["code"])
}

func TestStoreFailureIsInternalError(t *testing.T) {
	r := newRouter(&fakeStore{err: errors.New("db down")})

	for _, path := range []string{"/api/v1/articles", "/api/v1/articles/u1", "/api/v1/newspapers", "/api/v1/runs"} {
		w, body := get(t, r, path)
		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.Equal(t, "internal_error", body["code"], path)
	}
}

func TestListRuns(t *testing.T) {
	store := &fakeStore{}
	w, body := get(t, newRouter(store), "/api/v1/runs")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 10, store.limit)
	assert.Len(t, body["data"], 1)
}

func TestBasicAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BasicAuth("editor", "secreto"))
	NewServer(&fakeStore{}, logger.NewNop()).RegisterRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health stays open")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil)
	req.SetBasicAuth("editor", "secreto")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
