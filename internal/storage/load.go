package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LJTian/NewsETL/internal/logger"
	"github.com/LJTian/NewsETL/internal/record"
)

// ErrUIDCollision means two different URLs hash to the same uid.
var ErrUIDCollision = errors.New("uid collision")

const (
	loadBatchSize   = 500
	lookupChunkSize = 1000
)

// Load persists a clean table in a single transaction, together with a
// LoadRun row describing it. Re-loading an article with the same uid and url
// updates it; a uid already bound to another url aborts the whole batch.
func (s *Store) Load(ctx context.Context, file string, articles []record.CleanArticle) (*LoadRun, error) {
	urls := make(map[string]string, len(articles))
	rows := make([]Article, 0, len(articles))
	perNewspaper := make(map[string]any)

	for _, a := range articles {
		if prev, ok := urls[a.UID]; ok {
			if prev != a.URL {
				return nil, fmt.Errorf("%w: %s is both %q and %q", ErrUIDCollision, a.UID, prev, a.URL)
			}
			continue
		}
		urls[a.UID] = a.URL
		s.log.Debug("Loading article into DB", logger.String("uid", a.UID))

		rows = append(rows, Article{
			UID:          a.UID,
			URL:          a.URL,
			Host:         a.Host,
			Title:        a.Title,
			Body:         a.Body,
			NewspaperID:  a.NewspaperID,
			NTokensTitle: a.NTokensTitle,
			NTokensBody:  a.NTokensBody,
		})
		n, _ := perNewspaper[a.NewspaperID].(int)
		perNewspaper[a.NewspaperID] = n + 1
	}

	run := &LoadRun{
		ID:       uuid.NewString(),
		File:     file,
		Articles: len(rows),
		Stats:    datatypes.JSONMap{"newspapers": perNewspaper},
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			if err := checkStoredUIDs(tx, urls); err != nil {
				return err
			}
			upsert := clause.OnConflict{
				Columns:   []clause.Column{{Name: "uid"}},
				UpdateAll: true,
			}
			if err := tx.Clauses(upsert).CreateInBatches(rows, loadBatchSize).Error; err != nil {
				return fmt.Errorf("insert articles: %w", err)
			}
		}
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("insert load run: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Load committed", logger.File(file), logger.Int("articles", len(rows)), logger.String("run", run.ID))
	return run, nil
}

// checkStoredUIDs fails when a stored article shares a uid with a batch row
// but has a different url.
func checkStoredUIDs(tx *gorm.DB, urls map[string]string) error {
	uids := make([]string, 0, len(urls))
	for uid := range urls {
		uids = append(uids, uid)
	}

	for start := 0; start < len(uids); start += lookupChunkSize {
		end := min(start+lookupChunkSize, len(uids))

		var stored []Article
		if err := tx.Model(&Article{}).Select("uid", "url").Where("uid IN ?", uids[start:end]).Find(&stored).Error; err != nil {
			return fmt.Errorf("lookup stored uids: %w", err)
		}
		for _, a := range stored {
			if urls[a.UID] != a.URL {
				return fmt.Errorf("%w: %s is stored as %q, batch has %q", ErrUIDCollision, a.UID, a.URL, urls[a.UID])
			}
		}
	}
	return nil
}
