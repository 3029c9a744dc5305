package db

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/models"
)

func TestDialector(t *testing.T) {
	assert.Equal(t, "postgres", Dialector("postgres://u:p@localhost/newsroom").Name())
	assert.Equal(t, "postgres", Dialector("host=localhost user=u dbname=newsroom").Name())
	assert.Equal(t, "sqlite", Dialector("newsroom.db").Name())
}

func TestOpenSQLiteAndSeed(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "newsroom.db"), zerolog.Nop())
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, SeedArticles(conn, zerolog.Nop()))
	require.NoError(t, SeedArticles(conn, zerolog.Nop()), "seeding twice is a no-op")

	var count int64
	require.NoError(t, conn.Model(&models.Article{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}
