package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/client"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/config"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/handler"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/router"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := pkg.NewLogger(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := handler.RegisterValidators(); err != nil {
		return err
	}

	db, err := mysql.InitDB(cfg.MySQL.DSN, mysql.PoolConfig{
		MaxIdleConns: cfg.MySQL.MaxIdleConns,
		MaxOpenConns: cfg.MySQL.MaxOpenConns,
		ConnMaxLife:  cfg.MySQL.ConnMaxLife,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	// 自动建表，线上可通过 MYSQL_AUTO_MIGRATE=false 关闭
	if cfg.MySQL.AutoMigrate {
		if err := mysql.AutoMigrate(db); err != nil {
			return err
		}
	}

	rdb, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	storage, err := newStorage(cfg, log)
	if err != nil {
		return err
	}

	tokens := pkg.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.UserTTL, cfg.JWT.AdminTTL, cfg.JWT.RefreshTTL, cfg.HTTP.CookieDomain)
	loginProviders, err := newLoginProviders(cfg.OAuth)
	if err != nil {
		return err
	}
	instagram := client.NewInstagram(credentials(cfg.OAuth.Instagram), client.InstagramEndpoints)
	lol := client.NewLeagueOfLegends(credentials(cfg.OAuth.LeagueOfLegends), client.LeagueOfLegendsEndpoints)

	ext := cfg.External
	moderation := service.NewModerationService(db, log)
	fights := service.NewFightService(db)
	svcs := &router.Services{
		Auth: service.NewAuthService(db, rdb, client.NewSMSClient(cfg.SMS.URL, cfg.SMS.APIKey, cfg.SMS.Sender),
			tokens, loginProviders, cfg.RateLimit.PhoneCoolOff, log),
		User: service.NewUserService(db),
		School: service.NewSchoolService(db, rdb, client.NewNeisClient(ext.NeisURL, ext.NeisKey),
			client.NewGeocodeClient(ext.GeocodeURL, ext.KakaoKey), log),
		Asked: service.NewAskedService(db),
		Connection: service.NewConnectionService(db, map[string]client.OAuthProvider{
			model.ProviderInstagram:       instagram,
			model.ProviderLeagueOfLegends: lol,
		}),
		Fight:      fights,
		Report:     service.NewReportService(db),
		Moderation: moderation,
		Ad:         service.NewAdService(db),
		Image:      service.NewImageService(db, storage, log),
		Bus:        service.NewBusService(db, rdb, client.NewTransitClient(ext.TransitURL, ext.TransitKey), log),
		Cache:      service.NewCacheService(rdb, log),
		Tokens:     tokens,
		Limiter:    &redis.RateLimiter{RDB: rdb},
		HTTP:       cfg.HTTP,
		RateLimit:  cfg.RateLimit,
		Log:        log,
	}
	svcs.Board = service.NewBoardService(db)
	svcs.Article = service.NewArticleService(db, svcs.Board)
	svcs.Comment = service.NewCommentService(db, svcs.Board)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	svcs.Registry = reg

	if err := moderation.EnsureSuperAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password); err != nil {
		return err
	}

	// 事件消费：审核通知 + 缩略图
	dispatcher := service.NewEventDispatcher(rdb, log)
	dispatcher.On(model.EventImageResize, service.NewImageResizer(storage).Handle)
	dispatcher.On(model.EventModerationCreated, service.NewModerationNotifier(newNotifier(cfg, log)).Handle)

	var wg sync.WaitGroup
	sender := service.DirectSender(dispatcher)
	if len(cfg.Kafka.Brokers) > 0 {
		kcfg := pkg.KafkaConfig{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic, GroupID: cfg.Kafka.GroupID}
		producer, err := pkg.NewKafkaProducer(kcfg)
		if err != nil {
			return err
		}
		defer producer.Close()
		sender = service.KafkaSender(producer)

		consumer := pkg.NewKafkaConsumer(kcfg, log)
		defer consumer.Close()
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Run(ctx, dispatcher.Handle)
		}()
	}

	relayer := service.NewOutboxRelayer(db, sender, cfg.Worker.OutboxBatch, cfg.Worker.OutboxMaxRetry, cfg.Worker.OutboxInterval, log)
	refresher := service.NewScoreRefresher(db, rdb, map[string]client.ProfileFetcher{
		model.ProviderInstagram:       instagram,
		model.ProviderLeagueOfLegends: lol,
	}, cfg.Worker.ScoreBatch, cfg.Worker.ScoreInterval, log)
	wg.Add(2)
	go func() {
		defer wg.Done()
		relayer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		refresher.Run(ctx)
	}()

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router.InitRouter(svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	wg.Wait()
	return err
}

// newStorage 没有配置 S3 时退回内存存储，只用于本地开发
func newStorage(cfg *config.Config, log *zap.Logger) (pkg.Storage, error) {
	if cfg.S3.AccessKey == "" {
		log.Warn("S3 not configured, using in-memory storage")
		return pkg.NewMemoryStorage(), nil
	}
	return pkg.NewS3Storage(pkg.S3Config{
		Endpoint:  cfg.S3.Endpoint,
		Region:    cfg.S3.Region,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Bucket:    cfg.S3.Bucket,
		BaseURL:   cfg.S3.BaseURL,
	})
}

func credentials(p config.ProviderConfig) client.Credentials {
	return client.Credentials{ClientID: p.ClientID, ClientSecret: p.ClientSecret, RedirectURL: p.RedirectURL}
}

// newLoginProviders apple 需要私钥，未配置时不启用
func newLoginProviders(cfg config.OAuthConfig) (map[string]client.OAuthProvider, error) {
	providers := map[string]client.OAuthProvider{
		model.ProviderKakao:  client.NewKakao(credentials(cfg.Kakao), client.KakaoEndpoints),
		model.ProviderGoogle: client.NewGoogle(credentials(cfg.Google), client.GoogleEndpoints),
	}
	if cfg.Apple.PrivateKey != "" {
		apple, err := client.NewApple(client.AppleCredentials{
			ClientID:    cfg.Apple.ClientID,
			TeamID:      cfg.Apple.TeamID,
			KeyID:       cfg.Apple.KeyID,
			PrivateKey:  cfg.Apple.PrivateKey,
			RedirectURL: cfg.Apple.RedirectURL,
		}, client.AppleEndpoints)
		if err != nil {
			return nil, err
		}
		providers[model.ProviderApple] = apple
	}
	return providers, nil
}

func newNotifier(cfg *config.Config, log *zap.Logger) pkg.Notifier {
	var out pkg.MultiNotifier
	if cfg.Webhook.URL != "" {
		out = append(out, pkg.NewWebhookNotifier(cfg.Webhook.URL))
	}
	if cfg.SMTP.Host != "" && cfg.SMTP.AdminTo != "" {
		out = append(out, pkg.NewMailNotifier(pkg.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.SMTP.AdminTo))
	}
	if len(out) == 0 {
		log.Warn("no moderation notifier configured")
	}
	return out
}
