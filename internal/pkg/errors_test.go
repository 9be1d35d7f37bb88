package pkg

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NotFound("게시글을 찾을 수 없습니다."))
	appErr := AsAppError(wrapped)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "게시글을 찾을 수 없습니다.", appErr.Message)

	plain := AsAppError(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, InternalMessage, plain.Message)
}

func TestInternal(t *testing.T) {
	assert.NoError(t, Internal(nil))

	conflict := Conflict("이미 존재합니다.")
	assert.Same(t, conflict, Internal(conflict))

	cause := errors.New("db down")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, AsAppError(err).Status)
}

func TestUpstream(t *testing.T) {
	cause := errors.New("timeout")
	err := Upstream(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, AsAppError(err).Status)
}
