package ocr

import (
	"context"
	"image"
)

// Token is one recognized word. Box is relative to the recognized image's
// top-left corner.
type Token struct {
	Text       string
	Box        image.Rectangle
	Confidence float64
}

// Recognizer runs local text recognition over an image.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) ([]Token, error)
}
