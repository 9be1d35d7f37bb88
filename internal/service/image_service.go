package service

import (
	"context"
	"io"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/repository/mysql"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const MaxImageSize = 10 << 20

const (
	CategoryProfile = "profile"
	CategoryArticle = "article"
	CategoryVerify  = "verify"
	CategoryAd      = "ad"
)

var imageCategories = map[string]bool{
	CategoryProfile: true,
	CategoryArticle: true,
	CategoryVerify:  true,
	CategoryAd:      true,
}

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type ImageService struct {
	images  *mysql.ImageRepository
	storage pkg.Storage
	log     *zap.Logger
	now     func() time.Time
}

func NewImageService(db *gorm.DB, storage pkg.Storage, log *zap.Logger) *ImageService {
	return &ImageService{
		images:  &mysql.ImageRepository{DB: db},
		storage: storage,
		log:     log,
		now:     time.Now,
	}
}

// put 校验后上传到对象存储，key 为 <category>/<YYYY>/<MM>/<DD>/<uuid><ext>
func (s *ImageService) put(ctx context.Context, userID uint64, category string, up Upload) (*model.Image, error) {
	if !imageCategories[category] {
		return nil, pkg.BadRequest("지원하지 않는 이미지 분류입니다.")
	}
	if !imageTypes[up.ContentType] {
		return nil, pkg.BadRequest("이미지 파일만 업로드할 수 있습니다.")
	}
	if up.Size > MaxImageSize {
		return nil, pkg.BadRequest("이미지는 10MB 이하만 업로드할 수 있습니다.")
	}
	key := pkg.ObjectKey(category, up.Filename, s.now())
	url, err := s.storage.Put(ctx, key, up.ContentType, up.Body)
	if err != nil {
		return nil, pkg.Upstream(err)
	}
	return &model.Image{
		UserID:      userID,
		Category:    category,
		Key:         key,
		URL:         url,
		ContentType: up.ContentType,
		Size:        up.Size,
	}, nil
}

// Upload 文章、认证、广告等图片；同时写缩略图事件
func (s *ImageService) Upload(ctx context.Context, userID uint64, category string, up Upload) (*model.Image, error) {
	img, err := s.put(ctx, userID, category, up)
	if err != nil {
		return nil, err
	}
	if err := s.images.CreateWithEvent(ctx, img); err != nil {
		s.discard(img.Key)
		return nil, pkg.Internal(err)
	}
	return img, nil
}

// UploadProfile 头像上传，图片记录、用户头像和缩略图事件同一事务
func (s *ImageService) UploadProfile(ctx context.Context, userID uint64, up Upload) (*model.Image, error) {
	img, err := s.put(ctx, userID, CategoryProfile, up)
	if err != nil {
		return nil, err
	}
	if err := s.images.SetProfileImage(ctx, img); err != nil {
		s.discard(img.Key)
		return nil, notFoundOr(err, msgUserNotFound)
	}
	return img, nil
}

// Get 仅本人可查看自己的图片记录
func (s *ImageService) Get(ctx context.Context, userID, id uint64) (*model.Image, error) {
	img, err := s.images.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "이미지를 찾을 수 없습니다.")
	}
	if img.UserID != userID {
		return nil, pkg.Forbidden("본인의 이미지만 사용할 수 있습니다.")
	}
	return img, nil
}

func (s *ImageService) Delete(ctx context.Context, userID, id uint64) error {
	img, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.images.Delete(ctx, id); err != nil {
		return notFoundOr(err, "이미지를 찾을 수 없습니다.")
	}
	if err := s.storage.Delete(ctx, img.Key); err != nil {
		s.log.Warn("delete object failed", zap.String("key", img.Key), zap.Error(err))
	}
	_ = s.storage.Delete(ctx, pkg.ThumbKey(img.Key))
	return nil
}

// discard 数据库写入失败时清理已上传的对象
func (s *ImageService) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.storage.Delete(ctx, key); err != nil {
		s.log.Warn("discard object failed", zap.String("key", key), zap.Error(err))
	}
}
