// Package testutil 测试辅助
package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsroom/internal/db"
	"newsroom/internal/models"
)

// OpenDB 每个测试独享的内存 SQLite，已迁移
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

// CreateArticle 插入一篇文章
func CreateArticle(t testing.TB, conn *gorm.DB, slug string) models.Article {
	t.Helper()
	a := models.Article{Slug: slug, Title: slug}
	if err := conn.Create(&a).Error; err != nil {
		t.Fatalf("create article: %v", err)
	}
	return a
}
