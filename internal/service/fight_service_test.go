package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedFight(t *testing.T, db *gorm.DB, start, end time.Time) *model.Fight {
	t.Helper()
	f := &model.Fight{Title: "팔로워 대결", Requirement: model.ProviderInstagram, StartAt: start, EndAt: end}
	require.NoError(t, db.Create(f).Error)
	return f
}

func connect(t *testing.T, db *gorm.DB, userID uint64, followers int64) {
	t.Helper()
	require.NoError(t, db.Create(&model.ConnectionAccount{
		UserID:        userID,
		Provider:      model.ProviderInstagram,
		AccountID:     fmt.Sprintf("ig-%d", userID),
		FollowerCount: followers,
	}).Error)
}

func TestFight_Register(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewFightService(db)
	now := time.Now()
	f := seedFight(t, db, now.Add(-time.Hour), now.Add(time.Hour))
	school := seedSchool(t, db, "7010003")
	u := seedUser(t, db, "참가자")

	_, err := svc.Register(ctx, u.ID, f.ID)
	assertStatus(t, err, http.StatusBadRequest)

	enroll(t, db, u.ID, school.ID)
	_, err = svc.Register(ctx, u.ID, f.ID)
	assertStatus(t, err, http.StatusBadRequest)

	connect(t, db, u.ID, 120)
	v, err := svc.Register(ctx, u.ID, f.ID)
	require.NoError(t, err)
	assert.True(t, v.Registered)
	require.Len(t, v.Ranking, 1)
	assert.Equal(t, int64(120), v.Ranking[0].Score)
	require.NotNil(t, v.MySchool)
	assert.Equal(t, 1, v.MySchool.Rank)

	_, err = svc.Register(ctx, u.ID, f.ID)
	assertStatus(t, err, http.StatusConflict)

	_, err = svc.Register(ctx, u.ID, 9999)
	assertStatus(t, err, http.StatusNotFound)
}

func TestFight_RegisterConcurrentBucket(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewFightService(db)
	now := time.Now()
	f := seedFight(t, db, now.Add(-time.Hour), now.Add(time.Hour))
	school := seedSchool(t, db, "7010003")
	u := seedUser(t, db, "참가자")
	enroll(t, db, u.ID, school.ID)
	connect(t, db, u.ID, 50)

	// 查不到桶之后，同校另一个人的报名先把桶建好
	var rival *model.FightRanking
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:bucket_race", func(tx *gorm.DB) {
		if rival != nil || tx.Statement.Table != "fight_rankings" || tx.Statement.RowsAffected != 0 {
			return
		}
		rival = &model.FightRanking{FightID: f.ID, SchoolID: school.ID}
		require.NoError(t, tx.Session(&gorm.Session{NewDB: true}).Create(rival).Error)
	}))

	v, err := svc.Register(ctx, u.ID, f.ID)
	require.NoError(t, err)
	require.NotNil(t, rival)
	assert.True(t, v.Registered)

	var buckets int64
	require.NoError(t, db.Model(&model.FightRanking{}).Count(&buckets).Error)
	assert.Equal(t, int64(1), buckets)
	var fru model.FightRankingUser
	require.NoError(t, db.Where("user_id = ?", u.ID).First(&fru).Error)
	assert.Equal(t, rival.ID, fru.FightRankingID)
}

func TestFight_RegisterOutsideWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewFightService(db)
	now := time.Now()
	ended := seedFight(t, db, now.Add(-2*time.Hour), now.Add(-time.Hour))
	u := seedUser(t, db, "지각생")

	_, err := svc.Register(context.Background(), u.ID, ended.ID)
	assertStatus(t, err, http.StatusBadRequest)

	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestFight_RankingOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewFightService(db)
	now := time.Now()
	f := seedFight(t, db, now.Add(-time.Hour), now.Add(time.Hour))

	// 35 所学校，分数各不相同
	var userID uint64 = 1000
	for i := 1; i <= RankingLimit+5; i++ {
		school := seedSchool(t, db, fmt.Sprintf("S%03d", i))
		for j := 0; j < 2; j++ {
			userID++
			require.NoError(t, db.Create(&model.FightRankingUser{
				FightID:  f.ID,
				UserID:   userID,
				SchoolID: school.ID,
				Score:    int64(i * 10),
			}).Error)
		}
	}

	v, err := svc.Detail(ctx, 0, f.ID)
	require.NoError(t, err)
	require.Len(t, v.Ranking, RankingLimit)
	for i := 1; i < len(v.Ranking); i++ {
		assert.GreaterOrEqual(t, v.Ranking[i-1].Score, v.Ranking[i].Score)
		assert.Equal(t, i+1, v.Ranking[i].Rank)
	}
	assert.Equal(t, int64((RankingLimit+5)*20), v.Ranking[0].Score)
	require.NotNil(t, v.Ranking[0].School)
	assert.Nil(t, v.MySchool)

	_, err = svc.Detail(ctx, 0, 9999)
	assertStatus(t, err, http.StatusNotFound)
}

func TestFight_Create(t *testing.T) {
	db := newTestDB(t)
	svc := NewFightService(db)
	now := time.Now()

	_, err := svc.Create(context.Background(), FightInput{Title: "x", Requirement: "tiktok", StartAt: now, EndAt: now.Add(time.Hour)})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Create(context.Background(), FightInput{Title: "x", Requirement: model.ProviderInstagram, StartAt: now, EndAt: now})
	assertStatus(t, err, http.StatusBadRequest)

	f, err := svc.Create(context.Background(), FightInput{Title: "x", Requirement: model.ProviderLeagueOfLegends, StartAt: now.Add(-time.Minute), EndAt: now.Add(time.Hour)})
	require.NoError(t, err)
	active, err := svc.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, f.ID, active[0].ID)
}

type fakeFetcher struct {
	followers map[string]int64
}

func (f *fakeFetcher) Fetch(_ context.Context, accessToken string) (*client.Profile, error) {
	n, ok := f.followers[accessToken]
	if !ok {
		return nil, assert.AnError
	}
	return &client.Profile{FollowerCount: n}, nil
}

func TestScoreRefresher_SyncsRegisteredScores(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	ctx := context.Background()
	svc := NewFightService(db)
	now := time.Now()
	f := seedFight(t, db, now.Add(-time.Hour), now.Add(time.Hour))
	school := seedSchool(t, db, "7010009")

	fresh := seedUser(t, db, "성장")
	stale := seedUser(t, db, "실패")
	for _, u := range []*model.User{fresh, stale} {
		enroll(t, db, u.ID, school.ID)
		require.NoError(t, db.Create(&model.ConnectionAccount{
			UserID: u.ID, Provider: model.ProviderInstagram, AccountID: fmt.Sprintf("ig-%d", u.ID),
			FollowerCount: 10, AccessToken: fmt.Sprintf("tok-%d", u.ID),
		}).Error)
		_, err := svc.Register(ctx, u.ID, f.ID)
		require.NoError(t, err)
	}

	fetcher := &fakeFetcher{followers: map[string]int64{fmt.Sprintf("tok-%d", fresh.ID): 500}}
	r := NewScoreRefresher(db, rdb, map[string]client.ProfileFetcher{model.ProviderInstagram: fetcher}, 1, time.Minute, zap.NewNop())
	r.refreshOnce(ctx)

	v, err := svc.Detail(ctx, fresh.ID, f.ID)
	require.NoError(t, err)
	require.Len(t, v.Ranking, 1)
	assert.Equal(t, int64(510), v.Ranking[0].Score)
}
