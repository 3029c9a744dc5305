// Package articles 读取文章并维护浏览计数。文章的增删改属于 CMS 后台。
package articles

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"newsroom/internal/models"
)

var ErrNotFound = errors.New("article not found")

// DefaultListLimit 列表默认条数
const DefaultListLimit = 30

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// List 最新文章
func (s *Store) List(ctx context.Context, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var list []models.Article
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return list, nil
}

func (s *Store) Get(ctx context.Context, id uint) (models.Article, error) {
	var a models.Article
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Article{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return models.Article{}, fmt.Errorf("get article %d: %w", id, err)
	}
	return a, nil
}

// IncrementViews 原子地将浏览量加一并返回新值
func (s *Store) IncrementViews(ctx context.Context, id uint) (int64, error) {
	var views int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Article{}).
			Where("id = ?", id).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return tx.Model(&models.Article{}).
			Where("id = ?", id).
			Pluck("views", &views).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("increment views %d: %w", id, err)
	}
	return views, nil
}
