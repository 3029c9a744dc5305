package handlers

import (
	"time"

	"newsroom/internal/models"
	"newsroom/internal/services"
	"newsroom/internal/threads"
	"newsroom/internal/utils"
)

type commentJSON struct {
	ID            uint                  `json:"id"`
	ArticleID     uint                  `json:"article_id"`
	ParentID      *uint                 `json:"parent_comment_id"`
	AuthorName    string                `json:"author_name"`
	Content       string                `json:"content"`
	ContentHTML   string                `json:"content_html"`
	CreatedAt     time.Time             `json:"created_at"`
	Reactions     models.ReactionCounts `json:"reaction_counts"`
	UserReactions models.ReactionSet    `json:"user_reactions"`
	Replies       []commentJSON         `json:"replies"`
}

type statsJSON struct {
	ArticleID     uint                  `json:"article_id"`
	Views         int64                 `json:"views"`
	Reactions     models.ReactionCounts `json:"reaction_counts"`
	UserReactions models.ReactionSet    `json:"user_reactions"`
	CommentCount  int                   `json:"comment_count"`
	Comments      []commentJSON         `json:"comments"`
	Stale         bool                  `json:"stale"`
}

type articleJSON struct {
	models.Article
	Stats statsJSON `json:"stats"`
}

func renderStats(view *services.ArticleStats) statsJSON {
	return statsJSON{
		ArticleID:     view.ArticleID,
		Views:         view.Views,
		Reactions:     view.Reactions,
		UserReactions: view.UserReactions,
		CommentCount:  view.CommentCount,
		Comments:      renderNodes(view, view.Comments),
		Stale:         view.Stale,
	}
}

func renderNodes(view *services.ArticleStats, nodes []*threads.Node) []commentJSON {
	out := make([]commentJSON, 0, len(nodes))
	for _, n := range nodes {
		c := renderComment(n.Comment)
		c.Reactions = view.CommentReactions[n.Comment.ID]
		c.UserReactions = view.CommentUserReactions[n.Comment.ID]
		c.Replies = renderNodes(view, n.Replies)
		out = append(out, c)
	}
	return out
}

func renderComment(c models.Comment) commentJSON {
	return commentJSON{
		ID:          c.ID,
		ArticleID:   c.ArticleID,
		ParentID:    c.ParentID,
		AuthorName:  c.AuthorName,
		Content:     c.Content,
		ContentHTML: utils.RenderMarkdown(c.Content),
		CreatedAt:   c.CreatedAt,
		Replies:     []commentJSON{},
	}
}
