package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"newsroom/internal/articles"
	"newsroom/internal/cacheaside"
	"newsroom/internal/comments"
	"newsroom/internal/kvstore"
	"newsroom/internal/metrics"
	"newsroom/internal/models"
	"newsroom/internal/reactions"
)

// 缓存键族
const (
	FamilyArticles = "articles"
	FamilyStats    = "article_stats"
	FamilyComments = "article_comments"
)

const articlesKey = "articles:list"

func statsKey(articleID uint) string {
	return "article:" + strconv.FormatUint(uint64(articleID), 10) + ":stats"
}

func commentsKey(articleID uint) string {
	return "article:" + strconv.FormatUint(uint64(articleID), 10) + ":comments"
}

// TTLs 各键族的新鲜期
type TTLs struct {
	Articles time.Duration
	Stats    time.Duration
	Comments time.Duration
}

// DefaultTTLs 默认新鲜期
var DefaultTTLs = TTLs{
	Articles: time.Minute,
	Stats:    5 * time.Minute,
	Comments: 2 * time.Minute,
}

// statsSnapshot 缓存中的文章统计快照，不含访客相关数据
type statsSnapshot struct {
	Views            int64                          `json:"views"`
	Reactions        models.ReactionCounts          `json:"reactions"`
	CommentReactions map[uint]models.ReactionCounts `json:"comment_reactions"`
}

// ReactionResult 一次切换回应后的结果
type ReactionResult struct {
	Target models.Target         `json:"target"`
	Kind   models.ReactionKind   `json:"kind"`
	Active bool                  `json:"active"`
	Counts models.ReactionCounts `json:"counts"`
}

// Deps Social 的依赖
type Deps struct {
	Articles *articles.Store
	Comments *comments.Store
	Ledger   *reactions.Ledger
	Cache    *cacheaside.Coordinator
	Store    kvstore.Store
	TTLs     TTLs
	Log      zerolog.Logger
	Metrics  *metrics.Metrics
	Now      func() time.Time
}

// Social 组合评论、回应与缓存，产出文章页的社交视图
type Social struct {
	articles *articles.Store
	comments *comments.Store
	ledger   *reactions.Ledger
	cache    *cacheaside.Coordinator
	store    kvstore.Store
	ttl      TTLs
	log      zerolog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSocial(d Deps) *Social {
	if d.TTLs == (TTLs{}) {
		d.TTLs = DefaultTTLs
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Social{
		articles: d.Articles,
		comments: d.Comments,
		ledger:   d.Ledger,
		cache:    d.Cache,
		store:    d.Store,
		ttl:      d.TTLs,
		log:      d.Log,
		metrics:  d.Metrics,
		now:      d.Now,
	}
}

// Articles 首页文章列表（走缓存）
func (s *Social) Articles(ctx context.Context) ([]models.Article, error) {
	codec := cacheaside.StoreCodec[[]models.Article](s.store)
	list, _, err := cached(ctx, s, cacheaside.Request[[]models.Article]{
		Key:    articlesKey,
		Family: FamilyArticles,
		TTL:    s.ttl.Articles,
		Fetch: func(ctx context.Context) ([]models.Article, error) {
			return s.articles.List(ctx, articles.DefaultListLimit)
		},
		Read:  codec.Read,
		Write: codec.Write,
	})
	return list, err
}

// Article 单篇文章，不走缓存
func (s *Social) Article(ctx context.Context, id uint) (models.Article, error) {
	return s.articles.Get(ctx, id)
}

// RecordView 浏览数加一，返回最新值
func (s *Social) RecordView(ctx context.Context, articleID uint) (int64, error) {
	return s.articles.IncrementViews(ctx, articleID)
}

// ArticleStats 组装文章的社交视图。
// 远端不可用时退回到缓存中的旧值并标记 Stale；连旧值都没有时返回错误。
func (s *Social) ArticleStats(ctx context.Context, articleID uint, visitorID string) (*ArticleStats, error) {
	// 统计快照先行，文章不存在时不会留下空的评论缓存
	snap, staleStats, err := cached(ctx, s, s.statsRequest(articleID))
	if err != nil {
		return nil, err
	}
	flat, staleComments, err := cached(ctx, s, s.commentsRequest(articleID))
	if err != nil {
		return nil, err
	}

	view := EmptyStats(articleID)
	view.Views = snap.Views
	view.Reactions = snap.Reactions
	for id, counts := range snap.CommentReactions {
		view.CommentReactions[id] = counts
	}
	view.setComments(flat)
	view.Stale = staleComments || staleStats

	if visitorID == "" {
		return view, nil
	}
	if err := s.loadUserReactions(ctx, view, visitorID); err != nil {
		// 访客状态读不到时按未回应展示
		s.log.Warn().Err(err).Uint("article_id", articleID).Msg("failed to load visitor reactions")
		view.Stale = true
	}
	return view, nil
}

func (s *Social) loadUserReactions(ctx context.Context, view *ArticleStats, visitorID string) error {
	sets, err := s.ledger.GetUserReactions(ctx, []uint{view.ArticleID}, models.TargetArticle, visitorID)
	if err != nil {
		return err
	}
	view.UserReactions = sets[view.ArticleID]

	ids := make([]uint, 0, len(view.flat))
	for _, c := range view.flat {
		ids = append(ids, c.ID)
	}
	if len(ids) == 0 {
		return nil
	}
	commentSets, err := s.ledger.GetUserReactions(ctx, ids, models.TargetComment, visitorID)
	if err != nil {
		return err
	}
	for id, set := range commentSets {
		view.CommentUserReactions[id] = set
	}
	return nil
}

// Refresh 强制重新拉取文章的统计与评论，然后返回新的视图
func (s *Social) Refresh(ctx context.Context, articleID uint, visitorID string) (*ArticleStats, error) {
	if _, err := cacheaside.Refresh(ctx, s.cache, s.commentsRequest(articleID)); err != nil {
		return nil, err
	}
	if _, err := cacheaside.Refresh(ctx, s.cache, s.statsRequest(articleID)); err != nil {
		return nil, err
	}
	return s.ArticleStats(ctx, articleID, visitorID)
}

// React 切换回应。view 非空时先乐观更新，失败回滚，成功后用权威计数校正。
func (s *Social) React(ctx context.Context, view *ArticleStats, target models.Target, kind models.ReactionKind, visitorID string) (ReactionResult, error) {
	if !kind.Valid() {
		return ReactionResult{}, fmt.Errorf("%w: %q", models.ErrUnknownReactionKind, kind)
	}
	articleID, err := s.articleOf(ctx, target)
	if err != nil {
		return ReactionResult{}, err
	}

	result, err := s.toggle(ctx, view, target, kind, visitorID)
	if err != nil {
		return ReactionResult{}, err
	}
	s.refreshStats(ctx, articleID)
	return result, nil
}

// toggle 在键锁内完成乐观更新、服务端切换与校正，重叠的同键切换不会让视图与服务端分叉
func (s *Social) toggle(ctx context.Context, view *ArticleStats, target models.Target, kind models.ReactionKind, visitorID string) (ReactionResult, error) {
	unlock := s.ledger.Lock(target, kind, visitorID)
	defer unlock()

	var revert func()
	if view != nil {
		revert = view.applyToggle(target, kind)
	}

	active, err := s.ledger.ToggleLocked(ctx, target, kind, visitorID)
	if err != nil {
		if revert != nil {
			revert()
		}
		return ReactionResult{}, err
	}

	result := ReactionResult{Target: target, Kind: kind, Active: active}
	counts, err := s.ledger.GetCounts(ctx, target)
	if err != nil {
		// 切换已成功，计数暂时保留乐观值
		s.log.Warn().Err(err).Str("target", target.String()).Msg("failed to reload reaction counts")
		if view != nil {
			result.Counts = view.Counts(target)
		}
	} else {
		result.Counts = counts
		if view != nil {
			view.reconcile(target, kind, counts, active)
		}
	}
	return result, nil
}

// AddComment 发表评论或回复。view 非空时先乐观插入，失败移除，成功后替换为服务端返回的评论。
func (s *Social) AddComment(ctx context.Context, view *ArticleStats, in comments.NewComment) (models.Comment, error) {
	kind := "comment"
	if in.ParentID != nil {
		kind = "reply"
	}

	draft, err := s.comments.Validate(in)
	if err != nil {
		s.metrics.Comment(kind, "rejected")
		return models.Comment{}, err
	}

	var revert func()
	if view != nil {
		revert = view.addPending(draft, s.now())
	}

	saved, err := s.comments.Add(ctx, in)
	if err != nil {
		if revert != nil {
			revert()
		}
		s.metrics.Comment(kind, "error")
		return models.Comment{}, err
	}
	s.metrics.Comment(kind, "ok")

	if view != nil {
		view.confirm(revert, saved)
	}
	if _, err := cacheaside.Refresh(ctx, s.cache, s.commentsRequest(saved.ArticleID)); err != nil {
		s.log.Warn().Err(err).Uint("article_id", saved.ArticleID).Msg("failed to refresh comments cache")
	}
	return saved, nil
}

// Reply 回复已有评论，文章取自父评论
func (s *Social) Reply(ctx context.Context, view *ArticleStats, parentID uint, authorName, content string) (models.Comment, error) {
	parent, err := s.comments.Get(ctx, parentID)
	if err != nil {
		if errors.Is(err, comments.ErrNotFound) {
			return models.Comment{}, fmt.Errorf("%w: %d", comments.ErrParentNotFound, parentID)
		}
		return models.Comment{}, err
	}
	return s.AddComment(ctx, view, comments.NewComment{
		ArticleID:  parent.ArticleID,
		ParentID:   &parentID,
		AuthorName: authorName,
		Content:    content,
	})
}

func (s *Social) articleOf(ctx context.Context, target models.Target) (uint, error) {
	switch target.Type {
	case models.TargetArticle:
		return target.ID, nil
	case models.TargetComment:
		c, err := s.comments.Get(ctx, target.ID)
		if err != nil {
			if errors.Is(err, comments.ErrNotFound) {
				return 0, fmt.Errorf("%w: %s", reactions.ErrTargetNotFound, target)
			}
			return 0, err
		}
		return c.ArticleID, nil
	default:
		return 0, fmt.Errorf("%w: %q", models.ErrUnknownTargetType, target.Type)
	}
}

func (s *Social) refreshStats(ctx context.Context, articleID uint) {
	if _, err := cacheaside.Refresh(ctx, s.cache, s.statsRequest(articleID)); err != nil {
		s.log.Warn().Err(err).Uint("article_id", articleID).Msg("failed to refresh stats cache")
	}
}

func (s *Social) commentsRequest(articleID uint) cacheaside.Request[[]models.Comment] {
	codec := cacheaside.StoreCodec[[]models.Comment](s.store)
	return cacheaside.Request[[]models.Comment]{
		Key:    commentsKey(articleID),
		Family: FamilyComments,
		TTL:    s.ttl.Comments,
		Fetch: func(ctx context.Context) ([]models.Comment, error) {
			return s.comments.List(ctx, articleID)
		},
		Read:  codec.Read,
		Write: codec.Write,
	}
}

func (s *Social) statsRequest(articleID uint) cacheaside.Request[statsSnapshot] {
	codec := cacheaside.StoreCodec[statsSnapshot](s.store)
	return cacheaside.Request[statsSnapshot]{
		Key:    statsKey(articleID),
		Family: FamilyStats,
		TTL:    s.ttl.Stats,
		Fetch: func(ctx context.Context) (statsSnapshot, error) {
			return s.fetchStats(ctx, articleID)
		},
		Read:  codec.Read,
		Write: codec.Write,
	}
}

func (s *Social) fetchStats(ctx context.Context, articleID uint) (statsSnapshot, error) {
	article, err := s.articles.Get(ctx, articleID)
	if err != nil {
		return statsSnapshot{}, err
	}
	counts, err := s.ledger.GetCounts(ctx, models.Target{Type: models.TargetArticle, ID: articleID})
	if err != nil {
		return statsSnapshot{}, err
	}

	// 评论列表优先走缓存
	flat, _, err := cached(ctx, s, s.commentsRequest(articleID))
	if err != nil {
		return statsSnapshot{}, err
	}
	ids := make([]uint, 0, len(flat))
	for _, c := range flat {
		ids = append(ids, c.ID)
	}
	commentCounts := map[uint]models.ReactionCounts{}
	if len(ids) > 0 {
		commentCounts, err = s.ledger.GetCountsBatch(ctx, models.TargetComment, ids)
		if err != nil {
			return statsSnapshot{}, err
		}
	}

	return statsSnapshot{
		Views:            article.Views,
		Reactions:        counts,
		CommentReactions: commentCounts,
	}, nil
}

// cached 读缓存或回源；回源失败时退回旧值（第二个返回值为 true）
func cached[V any](ctx context.Context, s *Social, req cacheaside.Request[V]) (V, bool, error) {
	value, err := cacheaside.GetOrFetch(ctx, s.cache, req)
	if err == nil {
		return value, false, nil
	}
	if errors.Is(err, articles.ErrNotFound) || errors.Is(err, context.Canceled) {
		return value, false, err
	}
	if entry, ok := cacheaside.Peek(ctx, req.Read, req.Key); ok {
		s.metrics.CacheLookup(req.Family, metrics.CacheStaleFallback)
		s.log.Warn().Err(err).Str("key", req.Key).Time("fetched_at", entry.FetchedAt).Msg("serving stale cache entry")
		return entry.Value, true, nil
	}
	var zero V
	return zero, false, err
}
