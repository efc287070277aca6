package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no article has the requested uid.
var ErrNotFound = errors.New("article not found")

const listCacheTTL = 5 * time.Minute

// ListArticles returns the newest articles, optionally limited to one
// newspaper. Non-empty results are cached in Redis for five minutes.
func (s *Store) ListArticles(ctx context.Context, newspaper string, limit int) ([]Article, error) {
	if limit <= 0 || limit > 1000 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("articles:list:%s:%d", newspaper, limit)
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []Article
	db := s.DB.WithContext(ctx).Model(&Article{})
	if newspaper != "" {
		db = db.Where("newspaper_id = ?", newspaper)
	}
	if err := db.Order("created_at DESC").Limit(limit).Find(&list).Error; err != nil {
		return nil, err
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return list, nil
}

func (s *Store) GetArticle(ctx context.Context, uid string) (*Article, error) {
	var a Article
	err := s.DB.WithContext(ctx).Where("uid = ?", uid).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// NewspaperCount is one row of ListNewspapers.
type NewspaperCount struct {
	NewspaperID string `json:"newspaperId"`
	Articles    int64  `json:"articles"`
}

// ListNewspapers returns the newspapers that have stored articles, with
// their article counts. Cached like ListArticles.
func (s *Store) ListNewspapers(ctx context.Context) ([]NewspaperCount, error) {
	const cacheKey = "articles:newspapers"
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []NewspaperCount
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var rows []NewspaperCount
	err := s.DB.WithContext(ctx).Model(&Article{}).
		Select("newspaper_id, COUNT(*) AS articles").
		Group("newspaper_id").
		Order("newspaper_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	if s.Redis != nil && len(rows) > 0 {
		if bs, err := json.Marshal(rows); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}
	return rows, nil
}

// ListLoadRuns returns the most recent load batches.
func (s *Store) ListLoadRuns(ctx context.Context, limit int) ([]LoadRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var runs []LoadRun
	if err := s.DB.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
