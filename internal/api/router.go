package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/storage"
)

// ArticleStore is the read side of storage.Store.
type ArticleStore interface {
	ListArticles(ctx context.Context, newspaper string, limit int) ([]storage.Article, error)
	GetArticle(ctx context.Context, uid string) (*storage.Article, error)
	ListNewspapers(ctx context.Context) ([]storage.NewspaperCount, error)
	ListLoadRuns(ctx context.Context, limit int) ([]storage.LoadRun, error)
}

type Server struct {
	store ArticleStore
	log   logger.Logger
}

func NewServer(store ArticleStore, log logger.Logger) *Server {
	return &Server{store: store, log: log}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/articles/:uid", s.getArticle)
		v1.GET("/newspapers", s.listNewspapers)
		v1.GET("/runs", s.listRuns)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listArticles(c *gin.Context) {
	newspaper := c.Query("newspaper")
	limit := queryLimit(c, 20)

	items, err := s.store.ListArticles(c.Request.Context(), newspaper, limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	ok(c, items)
}

func (s *Server) getArticle(c *gin.Context) {
	item, err := s.store.GetArticle(c.Request.Context(), c.Param("uid"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "not_found",
			"message": "article not found",
		})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	ok(c, item)
}

func (s *Server) listNewspapers(c *gin.Context) {
	items, err := s.store.ListNewspapers(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	ok(c, items)
}

func (s *Server) listRuns(c *gin.Context) {
	items, err := s.store.ListLoadRuns(c.Request.Context(), queryLimit(c, 10))
	if err != nil {
		s.internalError(c, err)
		return
	}
	ok(c, items)
}

func queryLimit(c *gin.Context, def int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error("request failed", logger.String("path", c.FullPath()), logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}
