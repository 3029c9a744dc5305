// Package comments 保存文章的扁平评论并提交新评论与回复。
// 评论创建后不再修改。
package comments

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"newsroom/internal/models"
)

var (
	ErrEmptyContent    = errors.New("comment content is empty")
	ErrContentTooLong  = errors.New("comment content is too long")
	ErrAuthorTooLong   = errors.New("author name is too long")
	ErrParentNotFound  = errors.New("parent comment not found")
	ErrArticleNotFound = errors.New("article not found")
	ErrNotFound        = errors.New("comment not found")
	ErrParentMismatch  = errors.New("parent comment belongs to another article")
)

const (
	MaxContentLength = 5000
	MaxAuthorLength  = 80
	DefaultAuthor    = "Anonymous"
)

// NewComment 提交评论的输入；ParentID 非空即为回复
type NewComment struct {
	ArticleID  uint
	ParentID   *uint
	AuthorName string
	Content    string
}

type Store struct {
	repo   Repository
	policy *bluemonday.Policy
	log    zerolog.Logger
}

func NewStore(repo Repository, log zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		policy: bluemonday.StrictPolicy(),
		log:    log,
	}
}

// List 文章的全部评论（扁平）
func (s *Store) List(ctx context.Context, articleID uint) ([]models.Comment, error) {
	list, err := s.repo.ListByArticle(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("list comments for article %d: %w", articleID, err)
	}
	return list, nil
}

func (s *Store) Get(ctx context.Context, id uint) (models.Comment, error) {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.Comment{}, err
		}
		return models.Comment{}, fmt.Errorf("get comment %d: %w", id, err)
	}
	return c, nil
}

// Add 校验并保存评论或回复
func (s *Store) Add(ctx context.Context, in NewComment) (models.Comment, error) {
	comment, err := s.prepare(ctx, in)
	if err != nil {
		return models.Comment{}, err
	}

	if err := s.repo.Insert(ctx, &comment); err != nil {
		s.log.Error().Err(err).Uint("article_id", in.ArticleID).Msg("failed to save comment")
		return models.Comment{}, fmt.Errorf("save comment: %w", err)
	}
	s.log.Info().Uint("article_id", comment.ArticleID).Uint("comment_id", comment.ID).
		Bool("reply", comment.IsReply()).Msg("comment added")
	return comment, nil
}

// Validate 只做本地校验，不访问远端；乐观更新前调用。
// 去掉标签后还原实体，保存的是纯文本，转义交给渲染层。
func (s *Store) Validate(in NewComment) (models.Comment, error) {
	content := s.plain(in.Content)
	if content == "" {
		return models.Comment{}, ErrEmptyContent
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return models.Comment{}, ErrContentTooLong
	}

	author := s.plain(in.AuthorName)
	if author == "" {
		author = DefaultAuthor
	}
	if utf8.RuneCountInString(author) > MaxAuthorLength {
		return models.Comment{}, ErrAuthorTooLong
	}

	return models.Comment{
		ArticleID:  in.ArticleID,
		ParentID:   in.ParentID,
		AuthorName: author,
		Content:    content,
	}, nil
}

func (s *Store) plain(in string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

func (s *Store) prepare(ctx context.Context, in NewComment) (models.Comment, error) {
	comment, err := s.Validate(in)
	if err != nil {
		return models.Comment{}, err
	}

	if in.ParentID != nil {
		parent, err := s.repo.Get(ctx, *in.ParentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return models.Comment{}, fmt.Errorf("%w: %d", ErrParentNotFound, *in.ParentID)
			}
			return models.Comment{}, fmt.Errorf("load parent comment: %w", err)
		}
		if parent.ArticleID != in.ArticleID {
			return models.Comment{}, ErrParentMismatch
		}
		return comment, nil
	}

	ok, err := s.repo.ArticleExists(ctx, in.ArticleID)
	if err != nil {
		return models.Comment{}, fmt.Errorf("check article: %w", err)
	}
	if !ok {
		return models.Comment{}, fmt.Errorf("%w: %d", ErrArticleNotFound, in.ArticleID)
	}
	return comment, nil
}
