package mysql

import (
	"fmt"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	driver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PoolConfig struct {
	MaxIdleConns int
	MaxOpenConns int
	ConnMaxLife  time.Duration
}

// InitDB 打开连接池，由 main 持有并在退出时关闭
func InitDB(dsn string, pool PoolConfig) (*gorm.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	// RowsAffected 按匹配行计，值未变化的更新不会被当成记录不存在
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	db, err := gorm.Open(gormmysql.New(gormmysql.Config{DSN: cfg.FormatDSN(), DSNConfig: cfg}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLife)
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Admin{},
		&model.SocialLogin{},
		&model.ConnectionAccount{},
		&model.PhoneVerifyRequest{},
		&model.School{},
		&model.UserSchool{},
		&model.UserSchoolVerify{},
		&model.Board{},
		&model.BoardRequest{},
		&model.Article{},
		&model.ArticleLike{},
		&model.Comment{},
		&model.CommentLike{},
		&model.ReComment{},
		&model.ReCommentLike{},
		&model.AskedUser{},
		&model.Asked{},
		&model.Fight{},
		&model.FightRanking{},
		&model.FightRankingUser{},
		&model.Report{},
		&model.Ad{},
		&model.Image{},
		&model.Outbox{},
	)
}

// NotFound 更新/删除未命中任何行时统一返回 gorm.ErrRecordNotFound
func NotFound(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
