package mysql

import (
	"context"
	"errors"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FightRepository struct {
	DB *gorm.DB
}

func (r *FightRepository) Create(ctx context.Context, f *model.Fight) error {
	return r.DB.WithContext(ctx).Create(f).Error
}

func (r *FightRepository) FindByID(ctx context.Context, id uint64) (*model.Fight, error) {
	var f model.Fight
	err := r.DB.WithContext(ctx).First(&f, id).Error
	return &f, err
}

// ListActive start_at <= now < end_at
func (r *FightRepository) ListActive(ctx context.Context, now time.Time) ([]model.Fight, error) {
	var list []model.Fight
	err := r.DB.WithContext(ctx).
		Where("start_at <= ? AND end_at > ?", now, now).
		Order("end_at ASC").
		Find(&list).Error
	return list, err
}

// Ranking 每次读取时按学校汇总个人分数，分数降序取前 limit 名
func (r *FightRepository) Ranking(ctx context.Context, fightID uint64, limit int) ([]model.SchoolScore, error) {
	var rows []model.SchoolScore
	err := r.DB.WithContext(ctx).Model(&model.FightRankingUser{}).
		Select("school_id, SUM(score) AS score").
		Where("fight_id = ?", fightID).
		Group("school_id").
		Order("score DESC, school_id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *FightRepository) SchoolScore(ctx context.Context, fightID, schoolID uint64) (int64, error) {
	var total int64
	err := r.DB.WithContext(ctx).Model(&model.FightRankingUser{}).
		Select("COALESCE(SUM(score), 0)").
		Where("fight_id = ? AND school_id = ?", fightID, schoolID).
		Scan(&total).Error
	return total, err
}

// SchoolRank 比该校总分高的学校数 + 1
func (r *FightRepository) SchoolRank(ctx context.Context, fightID uint64, score int64) (int, error) {
	var higher int64
	sums := r.DB.Model(&model.FightRankingUser{}).
		Select("school_id, SUM(score) AS score").
		Where("fight_id = ?", fightID).
		Group("school_id")
	err := r.DB.WithContext(ctx).Table("(?) AS sums", sums).Where("score > ?", score).Count(&higher).Error
	return int(higher) + 1, err
}

func (r *FightRepository) IsRegistered(ctx context.Context, fightID, userID uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.FightRankingUser{}).
		Where("fight_id = ? AND user_id = ?", fightID, userID).
		Count(&n).Error
	return n > 0, err
}

// Register 取得或创建学校桶，再写个人记录；唯一(fight_id, user_id) 冲突返回 gorm.ErrDuplicatedKey
func (r *FightRepository) Register(ctx context.Context, fru *model.FightRankingUser) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var bucket model.FightRanking
		err := tx.Where("fight_id = ? AND school_id = ?", fru.FightID, fru.SchoolID).First(&bucket).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 同校同时报名会抢着建桶，冲突时取已存在的那个
			err = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&model.FightRanking{FightID: fru.FightID, SchoolID: fru.SchoolID}).Error
			if err == nil {
				err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					Where("fight_id = ? AND school_id = ?", fru.FightID, fru.SchoolID).First(&bucket).Error
			}
		}
		if err != nil {
			return err
		}
		fru.FightRankingID = bucket.ID
		return tx.Create(fru).Error
	})
}
