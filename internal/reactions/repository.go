package reactions

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"newsroom/internal/models"
)

// Repository 远端的回应汇总与访客回应记录
type Repository interface {
	Counts(ctx context.Context, targetType models.TargetType, ids []uint) (map[uint]models.ReactionCounts, error)
	UserReactions(ctx context.Context, targetType models.TargetType, ids []uint, visitorID string) (map[uint]models.ReactionSet, error)
	// Toggle 在一个事务内翻转访客回应并同步调整汇总，返回翻转后是否激活
	Toggle(ctx context.Context, target models.Target, kind models.ReactionKind, visitorID string) (bool, error)
	TargetExists(ctx context.Context, target models.Target) (bool, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Counts(ctx context.Context, targetType models.TargetType, ids []uint) (map[uint]models.ReactionCounts, error) {
	out := make(map[uint]models.ReactionCounts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ReactionAggregate
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id IN ?", targetType, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.TargetID] = row.ReactionCounts
	}
	return out, nil
}

func (r *GormRepository) UserReactions(ctx context.Context, targetType models.TargetType, ids []uint, visitorID string) (map[uint]models.ReactionSet, error) {
	out := make(map[uint]models.ReactionSet, len(ids))
	if len(ids) == 0 || visitorID == "" {
		return out, nil
	}
	var rows []models.UserReaction
	err := r.db.WithContext(ctx).
		Where("target_type = ? AND visitor_id = ? AND target_id IN ?", targetType, visitorID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if !row.Kind.Valid() {
			continue
		}
		out[row.TargetID] = out[row.TargetID].With(row.Kind)
	}
	return out, nil
}

func (r *GormRepository) Toggle(ctx context.Context, target models.Target, kind models.ReactionKind, visitorID string) (bool, error) {
	var active bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []models.UserReaction
		err := tx.Where("target_id = ? AND target_type = ? AND kind = ? AND visitor_id = ?",
			target.ID, target.Type, kind, visitorID).
			Limit(1).
			Find(&existing).Error
		if err != nil {
			return err
		}

		// 确保汇总行存在
		agg := models.ReactionAggregate{TargetID: target.ID, TargetType: target.Type}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&agg).Error; err != nil {
			return err
		}

		col := kind.Column()
		expr := gorm.Expr(col + " + 1")
		if len(existing) > 0 {
			if err := tx.Delete(&existing[0]).Error; err != nil {
				return err
			}
			expr = gorm.Expr("CASE WHEN " + col + " > 0 THEN " + col + " - 1 ELSE 0 END")
		} else {
			row := models.UserReaction{TargetID: target.ID, TargetType: target.Type, Kind: kind, VisitorID: visitorID}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			active = true
		}

		return tx.Model(&models.ReactionAggregate{}).
			Where("target_id = ? AND target_type = ?", target.ID, target.Type).
			UpdateColumn(col, expr).Error
	})
	if err != nil {
		return false, fmt.Errorf("toggle %s on %s: %w", kind, target, err)
	}
	return active, nil
}

func (r *GormRepository) TargetExists(ctx context.Context, target models.Target) (bool, error) {
	var model interface{}
	switch target.Type {
	case models.TargetArticle:
		model = &models.Article{}
	case models.TargetComment:
		model = &models.Comment{}
	default:
		return false, models.ErrUnknownTargetType
	}
	var count int64
	err := r.db.WithContext(ctx).Model(model).Where("id = ?", target.ID).Count(&count).Error
	return count > 0, err
}
