package db

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"newsroom/internal/models"
)

// Dialector 按 DSN 选择驱动：postgres:// 或 key=value 形式走 Postgres，其余视为 SQLite 文件
func Dialector(dsn string) gorm.Dialector {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return postgres.Open(dsn)
	}
	return sqlite.Open(dsn)
}

// Open 连接数据库并完成迁移
func Open(dsn string, log zerolog.Logger) (*gorm.DB, error) {
	conn, err := gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	log.Info().Msg("Database migration completed")
	return conn, nil
}

// Migrate 自动迁移社交模块用到的表
func Migrate(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&models.Article{},
		&models.Comment{},
		&models.ReactionAggregate{},
		&models.UserReaction{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// SeedArticles 开发环境下没有文章时写入示例数据
func SeedArticles(conn *gorm.DB, log zerolog.Logger) error {
	var count int64
	if err := conn.Model(&models.Article{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Debug().Msg("Articles already seeded, skipping")
		return nil
	}

	articles := []models.Article{
		{Slug: "clean-water-drive", Title: "Clean water drive reaches 40 villages"},
		{Slug: "volunteer-week", Title: "Volunteer week recap"},
		{Slug: "annual-report", Title: "Our annual report is out"},
	}
	for _, a := range articles {
		if err := conn.Create(&a).Error; err != nil {
			log.Error().Err(err).Str("slug", a.Slug).Msg("Failed to create article")
		}
	}
	log.Info().Int("count", len(articles)).Msg("Initial articles created")
	return nil
}
