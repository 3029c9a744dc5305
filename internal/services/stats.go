package services

import (
	"sync"
	"time"

	"newsroom/internal/models"
	"newsroom/internal/threads"
)

// ArticleStats 文章页的社交视图模型，每次请求组装，不整体持久化。
// 写操作可以先在这里做乐观更新，远端失败后回滚。
type ArticleStats struct {
	ArticleID            uint                           `json:"article_id"`
	Views                int64                          `json:"views"`
	Reactions            models.ReactionCounts          `json:"reaction_counts"`
	UserReactions        models.ReactionSet             `json:"user_reactions"`
	Comments             []*threads.Node                `json:"comments"`
	CommentCount         int                            `json:"comment_count"`
	CommentReactions     map[uint]models.ReactionCounts `json:"comment_reactions"`
	CommentUserReactions map[uint]models.ReactionSet    `json:"comment_user_reactions"`
	Stale                bool                           `json:"stale"`

	mu       sync.Mutex
	flat     []models.Comment
	pending  int
	lastTemp uint
}

// EmptyStats 无任何数据时的兜底视图
func EmptyStats(articleID uint) *ArticleStats {
	s := &ArticleStats{
		ArticleID:            articleID,
		CommentReactions:     make(map[uint]models.ReactionCounts),
		CommentUserReactions: make(map[uint]models.ReactionSet),
	}
	s.setComments(nil)
	return s
}

func (s *ArticleStats) setComments(flat []models.Comment) {
	s.flat = flat
	s.Comments = threads.Organize(flat)
	s.CommentCount = len(flat)
}

// Counts 目标当前展示的计数
func (s *ArticleStats) Counts(target models.Target) models.ReactionCounts {
	s.mu.Lock()
	defer s.mu.Unlock()
	if target.Type == models.TargetArticle {
		return s.Reactions
	}
	return s.CommentReactions[target.ID]
}

// Active 当前访客在目标上是否激活了 kind
func (s *ArticleStats) Active(target models.Target, kind models.ReactionKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userSet(target).Has(kind)
}

func (s *ArticleStats) userSet(target models.Target) models.ReactionSet {
	if target.Type == models.TargetArticle {
		return s.UserReactions
	}
	return s.CommentUserReactions[target.ID]
}

func (s *ArticleStats) put(target models.Target, counts models.ReactionCounts, set models.ReactionSet) {
	if target.Type == models.TargetArticle {
		s.Reactions = counts
		s.UserReactions = set
		return
	}
	if s.CommentReactions == nil {
		s.CommentReactions = make(map[uint]models.ReactionCounts)
	}
	if s.CommentUserReactions == nil {
		s.CommentUserReactions = make(map[uint]models.ReactionSet)
	}
	s.CommentReactions[target.ID] = counts
	s.CommentUserReactions[target.ID] = set
}

// applyToggle 乐观地翻转 kind 并调整计数，返回回滚函数
func (s *ArticleStats) applyToggle(target models.Target, kind models.ReactionKind) (revert func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prevCounts models.ReactionCounts
	if target.Type == models.TargetArticle {
		prevCounts = s.Reactions
	} else {
		prevCounts = s.CommentReactions[target.ID]
	}
	prevSet := s.userSet(target)

	counts, set := prevCounts, prevSet
	if set.Has(kind) {
		set = set.Without(kind)
		counts.Add(kind, -1)
	} else {
		set = set.With(kind)
		counts.Add(kind, 1)
	}
	s.put(target, counts, set)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.put(target, prevCounts, prevSet)
	}
}

// reconcile 用服务端的权威值覆盖乐观结果
func (s *ArticleStats) reconcile(target models.Target, kind models.ReactionKind, counts models.ReactionCounts, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.userSet(target)
	if active {
		set = set.With(kind)
	} else {
		set = set.Without(kind)
	}
	s.put(target, counts, set)
}

// addPending 乐观地插入一条尚未确认的评论，返回回滚函数
func (s *ArticleStats) addPending(c models.Comment, now time.Time) (revert func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 临时 ID 从最大值往下分配，不与服务端 ID 冲突，Organize 也不会把多条待确认评论去重
	if s.lastTemp == 0 {
		s.lastTemp = ^uint(0)
	} else {
		s.lastTemp--
	}
	c.ID = s.lastTemp
	c.CreatedAt = now
	s.pending++
	s.setComments(append(append([]models.Comment(nil), s.flat...), c))

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.removePending(c)
		})
	}
}

func (s *ArticleStats) removePending(c models.Comment) {
	kept := make([]models.Comment, 0, len(s.flat))
	removed := false
	for _, existing := range s.flat {
		if !removed && existing.ID == c.ID {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	if removed {
		s.pending--
	}
	s.setComments(kept)
}

// confirm 用服务端返回的评论替换待确认的那条
func (s *ArticleStats) confirm(revertPending func(), c models.Comment) {
	if revertPending != nil {
		revertPending()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.flat {
		if existing.ID == c.ID {
			return
		}
	}
	s.setComments(append(append([]models.Comment(nil), s.flat...), c))
}

// Pending 待确认的评论数
func (s *ArticleStats) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}
