package pkg

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	key := ObjectKey("article", "Photo.JPG", now)

	pattern := regexp.MustCompile(`^article/2024/03/09/[0-9a-f-]{36}\.jpg$`)
	assert.Regexp(t, pattern, key)
	assert.NotEqual(t, key, ObjectKey("article", "Photo.JPG", now))
	assert.Equal(t, key+".thumb.jpg", ThumbKey(key))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	url, err := s.Put(ctx, "profile/a.png", "image/png", strings.NewReader("data"))
	require.NoError(t, err)
	assert.Equal(t, "memory://profile/a.png", url)

	got, err := s.Get(ctx, "profile/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got)

	require.NoError(t, s.Delete(ctx, "profile/a.png"))
	_, err = s.Get(ctx, "profile/a.png")
	assert.Error(t, err)
}
