// Package reactions 维护文章和评论上六种表情回应的计数，
// 并提供按访客幂等切换的操作。不同回应之间互不排斥。
package reactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"newsroom/internal/metrics"
	"newsroom/internal/models"
)

var ErrTargetNotFound = errors.New("reaction target not found")

// Ledger 回应账本；失败直接返回给调用方，不做重试
type Ledger struct {
	repo    Repository
	locks   *keyLock
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func NewLedger(repo Repository, log zerolog.Logger, m *metrics.Metrics) *Ledger {
	return &Ledger{
		repo:    repo,
		locks:   newKeyLock(),
		log:     log,
		metrics: m,
	}
}

// GetCounts 目标当前的回应计数，无记录时全为 0
func (l *Ledger) GetCounts(ctx context.Context, target models.Target) (models.ReactionCounts, error) {
	all, err := l.GetCountsBatch(ctx, target.Type, []uint{target.ID})
	if err != nil {
		return models.ReactionCounts{}, err
	}
	return all[target.ID], nil
}

// GetCountsBatch 一次查询多个同类目标的计数
func (l *Ledger) GetCountsBatch(ctx context.Context, targetType models.TargetType, ids []uint) (map[uint]models.ReactionCounts, error) {
	counts, err := l.repo.Counts(ctx, targetType, ids)
	if err != nil {
		return nil, fmt.Errorf("read reaction counts: %w", err)
	}
	return counts, nil
}

// GetUserReactions 批量读取访客在多个目标上已激活的回应，避免逐个往返
func (l *Ledger) GetUserReactions(ctx context.Context, ids []uint, targetType models.TargetType, visitorID string) (map[uint]models.ReactionSet, error) {
	sets, err := l.repo.UserReactions(ctx, targetType, ids, visitorID)
	if err != nil {
		return nil, fmt.Errorf("read user reactions: %w", err)
	}
	return sets, nil
}

// Lock 获取 (目标, 回应, 访客) 的键锁，返回释放函数。
// 调用方需要把本地的乐观更新与校正和切换放在同一个临界区时使用，持锁期间调用 ToggleLocked。
func (l *Ledger) Lock(target models.Target, kind models.ReactionKind, visitorID string) (unlock func()) {
	return l.locks.Lock(toggleKey(target, kind, visitorID))
}

// Toggle 已激活则取消并减一，否则激活并加一；返回是否处于激活状态。
// 同一 (目标, 访客, 回应) 的切换串行执行。
func (l *Ledger) Toggle(ctx context.Context, target models.Target, kind models.ReactionKind, visitorID string) (bool, error) {
	unlock := l.Lock(target, kind, visitorID)
	defer unlock()
	return l.ToggleLocked(ctx, target, kind, visitorID)
}

// ToggleLocked 同 Toggle，但要求调用方已通过 Lock 持有键锁
func (l *Ledger) ToggleLocked(ctx context.Context, target models.Target, kind models.ReactionKind, visitorID string) (bool, error) {
	if !kind.Valid() {
		return false, fmt.Errorf("%w: %q", models.ErrUnknownReactionKind, kind)
	}
	if _, err := models.ParseTargetType(string(target.Type)); err != nil {
		return false, err
	}
	if visitorID == "" {
		return false, errors.New("toggle requires a visitor id")
	}

	ok, err := l.repo.TargetExists(ctx, target)
	if err != nil {
		l.metrics.Toggle(string(kind), "error")
		return false, fmt.Errorf("check target %s: %w", target, err)
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
	}

	active, err := l.repo.Toggle(ctx, target, kind, visitorID)
	if err != nil {
		l.metrics.Toggle(string(kind), "error")
		l.log.Warn().Err(err).Str("target", target.String()).Str("kind", string(kind)).Msg("reaction toggle failed")
		return false, err
	}

	result := "deactivated"
	if active {
		result = "activated"
	}
	l.metrics.Toggle(string(kind), result)
	l.log.Debug().Str("target", target.String()).Str("kind", string(kind)).Bool("active", active).Msg("reaction toggled")
	return active, nil
}

func toggleKey(target models.Target, kind models.ReactionKind, visitorID string) string {
	return target.String() + "|" + string(kind) + "|" + visitorID
}
