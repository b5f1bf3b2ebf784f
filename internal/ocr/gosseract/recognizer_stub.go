//go:build !gosseract

package gosseract

import (
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
)

// New fails in builds without the gosseract tag.
func New(Config) (ocr.Recognizer, error) {
	return nil, common.NewAppError(common.CodeConfig,
		"OCR_ENGINE=gosseract needs a build with -tags gosseract; use OCR_ENGINE=exec", common.ErrInvalidInput)
}
