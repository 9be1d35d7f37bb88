package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
	"gorm.io/gorm"
)

const ThumbWidth = 320

type Sender func(ctx context.Context, ob *model.Outbox) error

// OutboxRelayer outbox 投递器，从数据库读取事件交给 sender
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	maxRetry  int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, batchSize, maxRetry int, interval time.Duration, log *zap.Logger) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: db},
		batchSize: batchSize,
		maxRetry:  maxRetry,
		interval:  interval,
		sender:    sender,
		log:       log,
	}
}

// Run outbox 启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// drainOnce 成功标记已发送，失败累加重试次数
func (r *OutboxRelayer) drainOnce(ctx context.Context) int {
	rows, err := r.repo.List(ctx, r.batchSize, r.maxRetry)
	if err != nil {
		r.log.Error("outbox query failed", zap.Error(err))
		return 0
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.log.Warn("outbox send failed", zap.String("event_id", ob.EventID), zap.Int("retry", ob.Retry), zap.Error(err))
			if err := r.repo.RetryUpdate(ctx, ob.ID); err != nil {
				r.log.Error("outbox retry update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			}
			continue
		}
		if err := r.repo.SuccessUpdate(ctx, ob.ID); err != nil {
			r.log.Error("outbox success update failed", zap.Uint64("id", ob.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

// KafkaSender 以 aggregate id 为 key，同一对象的事件进同一分区
func KafkaSender(p *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		return p.Send(ctx, pkg.MakeKeyFromID(ob.AggregateID), []byte(ob.Payload))
	}
}

// DirectSender 未配置 Kafka 时在进程内直接处理
func DirectSender(d *EventDispatcher) Sender {
	return func(ctx context.Context, ob *model.Outbox) error {
		return d.Handle(ctx, []byte(ob.Payload))
	}
}

type EventHandler func(ctx context.Context, ev *mysql.Event) error

// EventDispatcher 按事件类型分发，用 redis 标记保证同一事件只处理一次
type EventDispatcher struct {
	done     *redis.EventRepository
	handlers map[string]EventHandler
	log      *zap.Logger
}

func NewEventDispatcher(rdb *goredis.Client, log *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		done:     &redis.EventRepository{RDB: rdb},
		handlers: map[string]EventHandler{},
		log:      log,
	}
}

func (d *EventDispatcher) On(eventType string, h EventHandler) {
	d.handlers[eventType] = h
}

// Handle 返回错误时撤销标记，交给上游重投
func (d *EventDispatcher) Handle(ctx context.Context, value []byte) error {
	var ev mysql.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		// 格式错误的消息重投也没用
		d.log.Error("event decode failed", zap.Error(err))
		return nil
	}
	h, ok := d.handlers[ev.Type]
	if !ok {
		d.log.Warn("no handler for event", zap.String("type", ev.Type))
		return nil
	}
	first, err := d.done.MarkDone(ctx, ev.ID)
	if err != nil {
		return err
	}
	if !first {
		d.log.Debug("event already handled", zap.String("event_id", ev.ID))
		return nil
	}
	if err := h(ctx, &ev); err != nil {
		if uerr := d.done.Unmark(context.WithoutCancel(ctx), ev.ID); uerr != nil {
			d.log.Error("event unmark failed", zap.String("event_id", ev.ID), zap.Error(uerr))
		}
		return fmt.Errorf("handle %s: %w", ev.Type, err)
	}
	return nil
}

// ImageResizer 生成 320px 宽的 JPEG 缩略图，与原图同目录
type ImageResizer struct {
	storage pkg.Storage
}

func NewImageResizer(storage pkg.Storage) *ImageResizer {
	return &ImageResizer{storage: storage}
}

func (r *ImageResizer) Handle(ctx context.Context, ev *mysql.Event) error {
	var data model.ImageResizeEvent
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return err
	}
	raw, err := r.storage.Get(ctx, data.Key)
	if err != nil {
		return err
	}
	thumb, err := Thumbnail(raw, ThumbWidth)
	if err != nil {
		return err
	}
	_, err = r.storage.Put(ctx, pkg.ThumbKey(data.Key), "image/jpeg", bytes.NewReader(thumb))
	return err
}

// MaxThumbnailPixels 解码前按头部尺寸拦截，防止小文件声明超大画幅
const MaxThumbnailPixels = 40_000_000

var ErrImageTooLarge = errors.New("image dimensions too large")

// Thumbnail 等比缩放到 width 宽；原图更窄时不放大
func Thumbnail(raw []byte, width int) ([]byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxThumbnailPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > width {
		h = h * width / w
		w = width
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ModerationNotifier 新审核请求推送给管理员
type ModerationNotifier struct {
	notifier pkg.Notifier
}

func NewModerationNotifier(n pkg.Notifier) *ModerationNotifier {
	return &ModerationNotifier{notifier: n}
}

var moderationTitles = map[string]string{
	model.ModerationVerify:       "새 학교 인증 요청",
	model.ModerationReport:       "새 신고",
	model.ModerationBoardRequest: "새 게시판 요청",
}

func (m *ModerationNotifier) Handle(ctx context.Context, ev *mysql.Event) error {
	var data model.ModerationEvent
	if err := json.Unmarshal(ev.Data, &data); err != nil {
		return err
	}
	subject, ok := moderationTitles[data.Kind]
	if !ok {
		subject = "새 요청"
	}
	body := fmt.Sprintf("#%d (user %d) %s", data.TargetID, data.UserID, data.Summary)
	return m.notifier.Notify(ctx, subject, body)
}
