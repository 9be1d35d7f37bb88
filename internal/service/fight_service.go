package service

import (
	"context"
	"errors"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	RankingLimit = 30

	msgFightNotFound = "대결을 찾을 수 없습니다."
)

type FightService struct {
	fights      *mysql.FightRepository
	schools     *mysql.SchoolRepository
	userSchools *mysql.UserSchoolRepository
	conns       *mysql.ConnectionRepository
	now         func() time.Time
}

func NewFightService(db *gorm.DB) *FightService {
	return &FightService{
		fights:      &mysql.FightRepository{DB: db},
		schools:     &mysql.SchoolRepository{DB: db},
		userSchools: &mysql.UserSchoolRepository{DB: db},
		conns:       &mysql.ConnectionRepository{DB: db},
		now:         time.Now,
	}
}

func (s *FightService) ListActive(ctx context.Context) ([]model.FightView, error) {
	list, err := s.fights.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkg.Internal(err)
	}
	out := make([]model.FightView, 0, len(list))
	for i := range list {
		out = append(out, *model.NewFightView(&list[i]))
	}
	return out, nil
}

// Detail 排行榜在读取时聚合，前 30 名逐个补学校信息
func (s *FightService) Detail(ctx context.Context, userID, id uint64) (*model.FightView, error) {
	f, err := s.fights.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgFightNotFound)
	}
	rows, err := s.fights.Ranking(ctx, id, RankingLimit)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	v := model.NewFightView(f)
	v.Ranking = make([]model.RankingView, 0, len(rows))
	for i, row := range rows {
		rv := model.RankingView{Rank: i + 1, SchoolID: row.SchoolID, Score: row.Score}
		if school, err := s.schools.FindByID(ctx, row.SchoolID); err == nil {
			rv.School = school
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkg.Internal(err)
		}
		v.Ranking = append(v.Ranking, rv)
	}
	if userID == 0 {
		return v, nil
	}
	if v.Registered, err = s.fights.IsRegistered(ctx, id, userID); err != nil {
		return nil, pkg.Internal(err)
	}
	schoolID, err := schoolOf(ctx, s.userSchools, userID)
	if err != nil {
		return nil, err
	}
	if schoolID == 0 {
		return v, nil
	}
	score, err := s.fights.SchoolScore(ctx, id, schoolID)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	rank, err := s.fights.SchoolRank(ctx, id, score)
	if err != nil {
		return nil, pkg.Internal(err)
	}
	mine := &model.RankingView{Rank: rank, SchoolID: schoolID, Score: score}
	if school, err := s.schools.FindByID(ctx, schoolID); err == nil {
		mine.School = school
	}
	v.MySchool = mine
	return v, nil
}

// Register 报名：需要已认证学校和 requirement 对应的绑定账号，同一 fight 只能报名一次
func (s *FightService) Register(ctx context.Context, userID, id uint64) (*model.FightView, error) {
	f, err := s.fights.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, msgFightNotFound)
	}
	now := s.now()
	if now.Before(f.StartAt) || !now.Before(f.EndAt) {
		return nil, pkg.BadRequest("진행 중인 대결이 아닙니다.")
	}
	schoolID, err := schoolOf(ctx, s.userSchools, userID)
	if err != nil {
		return nil, err
	}
	if schoolID == 0 {
		return nil, pkg.BadRequest("학교 인증이 필요합니다.")
	}
	conn, err := s.conns.FindByUser(ctx, userID, f.Requirement)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkg.BadRequest("대결 참가에 필요한 계정 연동이 없습니다.")
	}
	if err != nil {
		return nil, pkg.Internal(err)
	}
	fru := &model.FightRankingUser{
		FightID:             f.ID,
		UserID:              userID,
		SchoolID:            schoolID,
		ConnectionAccountID: conn.ID,
		Score:               conn.FollowerCount,
	}
	if err := s.fights.Register(ctx, fru); err != nil {
		if isDuplicate(err) {
			return nil, pkg.Conflict("이미 참가한 대결입니다.")
		}
		return nil, pkg.Internal(err)
	}
	return s.Detail(ctx, userID, id)
}

type FightInput struct {
	Title       string
	Description string
	Requirement string
	StartAt     time.Time
	EndAt       time.Time
}

func (s *FightService) Create(ctx context.Context, in FightInput) (*model.Fight, error) {
	if !ConnectProviders[in.Requirement] {
		return nil, pkg.BadRequest("지원하지 않는 참가 조건입니다.")
	}
	if !in.EndAt.After(in.StartAt) {
		return nil, pkg.BadRequest("종료 시간은 시작 시간 이후여야 합니다.")
	}
	f := &model.Fight{
		Title:       in.Title,
		Description: in.Description,
		Requirement: in.Requirement,
		StartAt:     in.StartAt,
		EndAt:       in.EndAt,
	}
	if err := s.fights.Create(ctx, f); err != nil {
		return nil, pkg.Internal(err)
	}
	return f, nil
}

// ScoreRefresher 定期用保存的 access token 刷新绑定账号的粉丝数，并同步到报名记录
type ScoreRefresher struct {
	conns     *mysql.ConnectionRepository
	lock      *redis.DistLock
	fetchers  map[string]client.ProfileFetcher
	batchSize int
	interval  time.Duration
	log       *zap.Logger
}

func NewScoreRefresher(db *gorm.DB, rdb *goredis.Client, fetchers map[string]client.ProfileFetcher,
	batchSize int, interval time.Duration, log *zap.Logger) *ScoreRefresher {
	return &ScoreRefresher{
		conns:     &mysql.ConnectionRepository{DB: db},
		lock:      &redis.DistLock{RDB: rdb},
		fetchers:  fetchers,
		batchSize: batchSize,
		interval:  interval,
		log:       log,
	}
}

// Run 定时任务启动器
func (r *ScoreRefresher) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.refreshOnce(ctx)
		}
	}
}

func (r *ScoreRefresher) refreshOnce(ctx context.Context) {
	token := uuid.NewString()
	ok, err := r.lock.Acquire(ctx, "score-refresh", token, r.interval)
	if err != nil {
		r.log.Error("score refresh lock failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	defer func() {
		if err := r.lock.Release(context.WithoutCancel(ctx), "score-refresh", token); err != nil {
			r.log.Warn("score refresh unlock failed", zap.Error(err))
		}
	}()
	for provider, fetcher := range r.fetchers {
		n := r.refreshProvider(ctx, provider, fetcher)
		r.log.Info("score refresh done", zap.String("provider", provider), zap.Int("updated", n))
	}
}

// refreshProvider 按 id 游标分批遍历；单个账号失败只记日志
func (r *ScoreRefresher) refreshProvider(ctx context.Context, provider string, fetcher client.ProfileFetcher) int {
	var lastID uint64
	updated := 0
	for {
		list, next, err := r.conns.ScanBatch(ctx, provider, lastID, r.batchSize)
		if err != nil {
			r.log.Error("score refresh scan failed", zap.String("provider", provider), zap.Error(err))
			return updated
		}
		if len(list) == 0 {
			return updated
		}
		for _, ca := range list {
			if ca.AccessToken == "" {
				continue
			}
			profile, err := fetcher.Fetch(ctx, ca.AccessToken)
			if err != nil {
				r.log.Warn("score refresh fetch failed", zap.Uint64("connection_id", ca.ID), zap.Error(err))
				continue
			}
			if profile.FollowerCount == ca.FollowerCount {
				continue
			}
			if err := r.conns.UpdateScore(ctx, ca.ID, profile.FollowerCount); err != nil {
				r.log.Error("score refresh update failed", zap.Uint64("connection_id", ca.ID), zap.Error(err))
				continue
			}
			updated++
		}
		lastID = next
	}
}
