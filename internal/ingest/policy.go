package ingest

import (
	"context"
	"fmt"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// PageCounter reports how many pages a PDF has.
type PageCounter interface {
	PageCount(ctx context.Context, name string, data []byte) (int, error)
}

// Policy gates an upload before any decoding happens.
type Policy struct {
	MaxPDFBytes        int
	MaxPDFFiles        int
	MaxPDFPages        int
	MaxImageBytes      int
	MaxImageFiles      int
	MaxImageTotalBytes int

	pages PageCounter
}

// DefaultPolicy returns the standard limits. pages may be nil, in which case
// the PDF page count is left to the normalizer's cap.
func DefaultPolicy(pages PageCounter) *Policy {
	return &Policy{
		MaxPDFBytes:        constants.MaxPDFBytes,
		MaxPDFFiles:        constants.MaxPDFFiles,
		MaxPDFPages:        constants.MaxPDFPages,
		MaxImageBytes:      constants.MaxImageBytes,
		MaxImageFiles:      constants.MaxImageFiles,
		MaxImageTotalBytes: constants.MaxImageTotalBytes,
		pages:              pages,
	}
}

// Check rejects uploads that break a limit. The message names the limit.
func (p *Policy) Check(ctx context.Context, sources []canvas.Source) error {
	if len(sources) == 0 {
		return common.NewUploadError("no files uploaded")
	}

	var pdfs, images []canvas.Source
	for _, src := range sources {
		switch src.Format() {
		case constants.PDF:
			pdfs = append(pdfs, src)
		case constants.IMAGE:
			images = append(images, src)
		default:
			return common.NewUploadError(fmt.Sprintf("%s: unsupported file type", src.Name))
		}
	}

	if len(pdfs) > 0 && len(images) > 0 {
		return common.NewUploadError("pdf and image files cannot be uploaded together")
	}
	if len(pdfs) > 0 {
		return p.checkPDFs(ctx, pdfs)
	}
	return p.checkImages(images)
}

func (p *Policy) checkPDFs(ctx context.Context, pdfs []canvas.Source) error {
	if len(pdfs) > p.MaxPDFFiles {
		return common.NewUploadError(fmt.Sprintf("at most %d pdf file may be uploaded", p.MaxPDFFiles))
	}
	for _, src := range pdfs {
		if len(src.Data) > p.MaxPDFBytes {
			return common.NewUploadError(fmt.Sprintf("%s: pdf exceeds %s", src.Name, formatBytes(p.MaxPDFBytes)))
		}
		if p.pages == nil {
			continue
		}
		n, err := p.pages.PageCount(ctx, src.Name, src.Data)
		if err != nil {
			return err
		}
		if n > p.MaxPDFPages {
			return common.NewUploadError(fmt.Sprintf("%s: pdf has %d pages, limit is %d", src.Name, n, p.MaxPDFPages))
		}
	}
	return nil
}

func (p *Policy) checkImages(images []canvas.Source) error {
	if len(images) > p.MaxImageFiles {
		return common.NewUploadError(fmt.Sprintf("at most %d image files may be uploaded", p.MaxImageFiles))
	}
	total := 0
	for _, src := range images {
		if len(src.Data) > p.MaxImageBytes {
			return common.NewUploadError(fmt.Sprintf("%s: image exceeds %s", src.Name, formatBytes(p.MaxImageBytes)))
		}
		total += len(src.Data)
	}
	if total > p.MaxImageTotalBytes {
		return common.NewUploadError(fmt.Sprintf("images exceed %s in total", formatBytes(p.MaxImageTotalBytes)))
	}
	return nil
}

func formatBytes(n int) string {
	if n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}
