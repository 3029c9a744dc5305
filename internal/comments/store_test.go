package comments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/models"
	"newsroom/internal/testutil"
)

func newStore(t *testing.T) (*Store, models.Article) {
	t.Helper()
	conn := testutil.OpenDB(t)
	a := testutil.CreateArticle(t, conn, "a1")
	return NewStore(NewGormRepository(conn), zerolog.Nop()), a
}

func TestAddCommentAndReply(t *testing.T) {
	s, a := newStore(t)
	ctx := context.Background()

	root, err := s.Add(ctx, NewComment{ArticleID: a.ID, AuthorName: "Ana", Content: "Great work"})
	require.NoError(t, err)
	assert.NotZero(t, root.ID)
	assert.Nil(t, root.ParentID)
	assert.False(t, root.CreatedAt.IsZero())

	reply, err := s.Add(ctx, NewComment{ArticleID: a.ID, ParentID: &root.ID, Content: "Agreed"})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, root.ID, *reply.ParentID)
	assert.Equal(t, DefaultAuthor, reply.AuthorName)

	list, err := s.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, root.ID, list[0].ID)

	got, err := s.Get(ctx, reply.ID)
	require.NoError(t, err)
	assert.Equal(t, "Agreed", got.Content)
}

func TestAddCommentValidation(t *testing.T) {
	s, a := newStore(t)
	ctx := context.Background()

	_, err := s.Add(ctx, NewComment{ArticleID: a.ID, Content: "   "})
	assert.ErrorIs(t, err, ErrEmptyContent)

	_, err = s.Add(ctx, NewComment{ArticleID: a.ID, Content: "<script>alert(1)</script>"})
	assert.ErrorIs(t, err, ErrEmptyContent, "markup-only content is empty after sanitizing")

	_, err = s.Add(ctx, NewComment{ArticleID: a.ID, Content: strings.Repeat("x", MaxContentLength+1)})
	assert.ErrorIs(t, err, ErrContentTooLong)

	_, err = s.Add(ctx, NewComment{ArticleID: a.ID, AuthorName: strings.Repeat("n", MaxAuthorLength+1), Content: "hi"})
	assert.ErrorIs(t, err, ErrAuthorTooLong)

	_, err = s.Add(ctx, NewComment{ArticleID: 9999, Content: "hi"})
	assert.ErrorIs(t, err, ErrArticleNotFound)

	missing := uint(424242)
	_, err = s.Add(ctx, NewComment{ArticleID: a.ID, ParentID: &missing, Content: "hi"})
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestAddCommentStripsMarkup(t *testing.T) {
	s, a := newStore(t)
	c, err := s.Add(context.Background(), NewComment{
		ArticleID:  a.ID,
		AuthorName: "<b>Bo</b>",
		Content:    "hello <img src=x onerror=alert(1)>world",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bo", c.AuthorName)
	assert.Equal(t, "hello world", c.Content)
}

func TestAddCommentKeepsPlainText(t *testing.T) {
	s, a := newStore(t)
	ctx := context.Background()
	body := `it's 3 < 5 & "ok"`

	c, err := s.Add(ctx, NewComment{ArticleID: a.ID, AuthorName: "O'Brien & co", Content: body})
	require.NoError(t, err)
	assert.Equal(t, body, c.Content)
	assert.Equal(t, "O'Brien & co", c.AuthorName)

	list, err := s.List(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, body, list[0].Content)

	// 长度按还原后的字符计算
	_, err = s.Add(ctx, NewComment{ArticleID: a.ID, Content: strings.Repeat("&", MaxContentLength)})
	assert.NoError(t, err)
}

func TestReplyMustShareArticle(t *testing.T) {
	conn := testutil.OpenDB(t)
	a1 := testutil.CreateArticle(t, conn, "a1")
	a2 := testutil.CreateArticle(t, conn, "a2")
	s := NewStore(NewGormRepository(conn), zerolog.Nop())
	ctx := context.Background()

	root, err := s.Add(ctx, NewComment{ArticleID: a1.ID, Content: "root"})
	require.NoError(t, err)

	_, err = s.Add(ctx, NewComment{ArticleID: a2.ID, ParentID: &root.ID, Content: "cross"})
	assert.ErrorIs(t, err, ErrParentMismatch)
}

type brokenRepo struct {
	Repository
	err error
}

func (b brokenRepo) ArticleExists(context.Context, uint) (bool, error) { return true, nil }
func (b brokenRepo) Insert(context.Context, *models.Comment) error    { return b.err }

func TestAddCommentSurfacesRemoteFailure(t *testing.T) {
	boom := errors.New("connection reset")
	s := NewStore(brokenRepo{err: boom}, zerolog.Nop())
	_, err := s.Add(context.Background(), NewComment{ArticleID: 1, Content: "hi"})
	assert.ErrorIs(t, err, boom)
}

func TestGetMissing(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.Get(context.Background(), 77)
	assert.ErrorIs(t, err, ErrNotFound)
}
