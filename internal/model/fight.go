package model

import "time"

// Fight 学校间的比拼，Requirement 为报名需要绑定的 ConnectionAccount.Provider
type Fight struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:100;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Requirement string    `gorm:"size:32;not null" json:"requirement"`
	StartAt     time.Time `gorm:"index" json:"startAt"`
	EndAt       time.Time `gorm:"index" json:"endAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FightRanking 每个学校在一场 fight 中的桶
type FightRanking struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	FightID   uint64    `gorm:"not null;uniqueIndex:uk_fight_school" json:"fightId"`
	SchoolID  uint64    `gorm:"not null;uniqueIndex:uk_fight_school" json:"schoolId"`
	CreatedAt time.Time `json:"createdAt"`
}

// FightRankingUser 个人分数贡献，唯一(fight_id, user_id) 保证先写者赢
type FightRankingUser struct {
	ID                  uint64    `gorm:"primaryKey" json:"id"`
	FightID             uint64    `gorm:"not null;uniqueIndex:uk_fight_user;index:idx_fight_school,priority:1" json:"fightId"`
	UserID              uint64    `gorm:"not null;uniqueIndex:uk_fight_user" json:"userId"`
	SchoolID            uint64    `gorm:"not null;index:idx_fight_school,priority:2" json:"schoolId"`
	FightRankingID      uint64    `gorm:"not null;index" json:"fightRankingId"`
	ConnectionAccountID uint64    `gorm:"not null;index" json:"connectionAccountId"`
	Score               int64     `gorm:"not null;default:0" json:"score"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
