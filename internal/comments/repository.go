package comments

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"newsroom/internal/models"
)

// Repository 远端评论数据
type Repository interface {
	ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error)
	Get(ctx context.Context, id uint) (models.Comment, error)
	Insert(ctx context.Context, c *models.Comment) error
	ArticleExists(ctx context.Context, articleID uint) (bool, error)
}

// GormRepository 基于 gorm 的实现
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) ListByArticle(ctx context.Context, articleID uint) ([]models.Comment, error) {
	var list []models.Comment
	err := r.db.WithContext(ctx).
		Where("article_id = ?", articleID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

func (r *GormRepository) Get(ctx context.Context, id uint) (models.Comment, error) {
	var c models.Comment
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Comment{}, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return models.Comment{}, err
	}
	return c, nil
}

func (r *GormRepository) Insert(ctx context.Context, c *models.Comment) error {
	return r.db.WithContext(ctx).Omit("Article", "Parent").Create(c).Error
}

func (r *GormRepository) ArticleExists(ctx context.Context, articleID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", articleID).Count(&count).Error
	return count > 0, err
}
