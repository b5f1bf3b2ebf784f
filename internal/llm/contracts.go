package llm

import (
	"context"
	"time"
)

// PageImage is one normalized page sent to the vision model.
type PageImage struct {
	Page     int
	MIMEType string
	Data     []byte
}

type ExtractRequest struct {
	Pages []PageImage
	// FilenameHint is the uploaded file name, if any.
	FilenameHint string
	// Now anchors "years since construction" for building age.
	Now time.Time
}

// VisionExtractor is the interface the analysis pipeline depends on. It
// returns the model's raw JSON text; parsing and validation happen in the
// extract package.
type VisionExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) ([]byte, error)
	Name() string
}
