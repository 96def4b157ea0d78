package cryptoerr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	for _, kind := range kinds {
		wrapped := errors.Wrap(errors.Wrapf(kind, "inner detail %d", 32), "outer")
		assert.Equal(t, kind, Kind(wrapped))
		assert.True(t, errors.Is(wrapped, kind))
	}

	assert.Nil(t, Kind(nil))
	assert.Nil(t, Kind(errors.New("unrelated")))
	assert.Equal(t, ErrKey, Kind(fmt.Errorf("std wrap: %w", ErrKey)))
}

func TestPublicMessage(t *testing.T) {
	err := errors.Wrapf(ErrKey, "key length %d, want %d", 31, 32)

	msg := PublicMessage(err)
	assert.Equal(t, "invalid key", msg)
	assert.NotContains(t, msg, "31")

	assert.Equal(t, "", PublicMessage(nil))
	assert.Equal(t, "operation failed", PublicMessage(errors.New("boom")))

	// 每个类别都有对应的提示
	for _, kind := range kinds {
		assert.NotEmpty(t, publicMessages[kind])
	}
}
