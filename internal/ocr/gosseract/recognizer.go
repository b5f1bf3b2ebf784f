//go:build gosseract

package gosseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
)

// Recognizer implements ocr.Recognizer. A tesseract client is not safe for
// concurrent use, so each call opens its own.
type Recognizer struct {
	cfg Config
}

func New(cfg Config) (ocr.Recognizer, error) {
	if cfg.Lang == "" {
		cfg.Lang = "jpn+eng"
	}
	return &Recognizer{cfg: cfg}, nil
}

var _ ocr.Recognizer = (*Recognizer)(nil)

func (r *Recognizer) Recognize(ctx context.Context, img image.Image) ([]ocr.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if r.cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(r.cfg.TessdataDir); err != nil {
			return nil, fmt.Errorf("tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(r.cfg.Lang, "+")...); err != nil {
		return nil, fmt.Errorf("set language: %w", err)
	}
	if r.cfg.PSM > 0 {
		if err := client.SetPageSegMode(gosseract.PageSegMode(r.cfg.PSM)); err != nil {
			return nil, fmt.Errorf("set psm: %w", err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := make([]ocr.Token, 0, len(boxes))
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		tokens = append(tokens, ocr.Token{Text: text, Box: b.Box, Confidence: b.Confidence / 100.0})
	}
	return tokens, nil
}
