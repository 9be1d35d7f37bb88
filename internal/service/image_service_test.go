package service

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"
	"time"

	"github.com/School-Mate/School-Mate-Backend-sub000/internal/model"
	"github.com/School-Mate/School-Mate-Backend-sub000/internal/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngUpload(t *testing.T) Upload {
	raw := pngBytes(t, 640, 480)
	return Upload{Filename: "photo.PNG", ContentType: "image/png", Size: int64(len(raw)), Body: bytes.NewReader(raw)}
}

func TestThumbnail(t *testing.T) {
	thumb, err := Thumbnail(pngBytes(t, 640, 480), ThumbWidth)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(thumb))
	require.NoError(t, err)
	assert.Equal(t, ThumbWidth, cfg.Width)
	assert.Equal(t, 240, cfg.Height)

	// 窄图不放大
	small, err := Thumbnail(pngBytes(t, 100, 50), ThumbWidth)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(small))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)

	_, err = Thumbnail([]byte("not an image"), ThumbWidth)
	assert.Error(t, err)
}

// withDimensions 改写 PNG 的 IHDR 宽高并重算校验和，像素数据不变
func withDimensions(raw []byte, w, h uint32) []byte {
	out := append([]byte(nil), raw...)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestThumbnail_RejectsHugeDimensions(t *testing.T) {
	raw := withDimensions(pngBytes(t, 2, 2), 100_000, 100_000)
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 100_000, cfg.Width)

	_, err = Thumbnail(raw, ThumbWidth)
	assert.ErrorIs(t, err, ErrImageTooLarge)
}

func TestImage_UploadValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, pkg.NewMemoryStorage(), zap.NewNop())
	ctx := context.Background()
	u := seedUser(t, db, "업로더")

	_, err := svc.Upload(ctx, u.ID, "banner", pngUpload(t))
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Upload(ctx, u.ID, CategoryArticle, Upload{Filename: "a.txt", ContentType: "text/plain", Body: bytes.NewReader(nil)})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = svc.Upload(ctx, u.ID, CategoryArticle, Upload{Filename: "a.png", ContentType: "image/png", Size: MaxImageSize + 1, Body: bytes.NewReader(nil)})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestImage_UploadResizeAndDelete(t *testing.T) {
	db := newTestDB(t)
	_, rdb := newTestRedis(t)
	storage := pkg.NewMemoryStorage()
	svc := NewImageService(db, storage, zap.NewNop())
	ctx := context.Background()
	owner := seedUser(t, db, "업로더")
	other := seedUser(t, db, "구경꾼")

	img, err := svc.Upload(ctx, owner.ID, CategoryArticle, pngUpload(t))
	require.NoError(t, err)
	assert.Regexp(t, `^article/\d{4}/\d{2}/\d{2}/[0-9a-f-]{36}\.png$`, img.Key)
	assert.Equal(t, "memory://"+img.Key, img.URL)

	dispatcher := NewEventDispatcher(rdb, zap.NewNop())
	dispatcher.On(model.EventImageResize, NewImageResizer(storage).Handle)
	relayer := NewOutboxRelayer(db, DirectSender(dispatcher), 10, 3, time.Second, zap.NewNop())
	assert.Equal(t, 1, relayer.drainOnce(ctx))
	_, err = storage.Get(ctx, pkg.ThumbKey(img.Key))
	require.NoError(t, err)

	_, err = svc.Get(ctx, other.ID, img.ID)
	assertStatus(t, err, http.StatusForbidden)

	require.NoError(t, svc.Delete(ctx, owner.ID, img.ID))
	_, err = storage.Get(ctx, img.Key)
	assert.Error(t, err)
	_, err = storage.Get(ctx, pkg.ThumbKey(img.Key))
	assert.Error(t, err)

	assertStatus(t, svc.Delete(ctx, owner.ID, img.ID), http.StatusNotFound)
}

func TestImage_UploadProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewImageService(db, pkg.NewMemoryStorage(), zap.NewNop())
	ctx := context.Background()
	u := seedUser(t, db, "프로필")

	img, err := svc.UploadProfile(ctx, u.ID, pngUpload(t))
	require.NoError(t, err)
	var got model.User
	require.NoError(t, db.First(&got, u.ID).Error)
	assert.Equal(t, img.URL, got.ProfileImage)

	_, err = svc.UploadProfile(ctx, 9999, pngUpload(t))
	assertStatus(t, err, http.StatusNotFound)
}

func TestAd_RandomAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewAdService(db)
	ctx := context.Background()
	now := time.Now()

	_, err := svc.Random(ctx)
	assertStatus(t, err, http.StatusNotFound)

	_, err = svc.Create(ctx, AdInput{Title: "역순", StartAt: now, EndAt: now.Add(-time.Hour)})
	assertStatus(t, err, http.StatusBadRequest)

	expired, err := svc.Create(ctx, AdInput{Title: "지난 광고", ImageURL: "x", StartAt: now.Add(-2 * time.Hour), EndAt: now.Add(-time.Hour)})
	require.NoError(t, err)
	live, err := svc.Create(ctx, AdInput{Title: "진행 광고", ImageURL: "y", StartAt: now.Add(-time.Hour), EndAt: now.Add(time.Hour)})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ad, err := svc.Random(ctx)
		require.NoError(t, err)
		assert.Equal(t, live.ID, ad.ID)
	}

	require.NoError(t, svc.Delete(ctx, expired.ID))
	assertStatus(t, svc.Delete(ctx, expired.ID), http.StatusNotFound)
}
