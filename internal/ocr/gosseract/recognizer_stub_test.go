//go:build !gosseract

package gosseract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

func TestNewWithoutTagIsConfigError(t *testing.T) {
	rec, err := New(Config{Lang: "jpn"})
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	var appErr *common.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, common.CodeConfig, appErr.Code)
	}
}
