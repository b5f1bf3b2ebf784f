package canvas

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// Source is one uploaded file.
type Source struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Format resolves PDF or IMAGE from the extension, then the declared MIME
// type, then the content itself.
func (s Source) Format() string {
	if f := constants.MapExtToFormat(filepath.Ext(s.Name)); f != "" {
		return f
	}
	if f := constants.MapMIMEToFormat(s.MIMEType); f != "" {
		return f
	}
	return constants.MapMIMEToFormat(http.DetectContentType(s.Data))
}

// Document is the normalized form of one upload. Close releases the rasters.
type Document struct {
	ID    uuid.UUID
	Pages []*Page

	mu     sync.Mutex
	closed bool
}

// Page returns the 1-based page or nil.
func (d *Document) Page(number int) *Page {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || number < 1 || number > len(d.Pages) {
		return nil
	}
	return d.Pages[number-1]
}

// Canvas returns the normalized canvas of a 1-based page, or nil.
func (d *Document) Canvas(number int) image.Image {
	if p := d.Page(number); p != nil {
		return p.Canvas
	}
	return nil
}

func (d *Document) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	for _, p := range d.Pages {
		p.Canvas = nil
		p.Source = nil
	}
	d.Pages = nil
	d.closed = true
}

func (d *Document) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

type Config struct {
	Size     int
	PDFScale float64
	MaxPages int
	Workers  int
	Pdftoppm string
	Pdfinfo  string
}

// Normalizer turns uploads into documents of square canvases.
type Normalizer struct {
	cfg    Config
	raster *Rasterizer
	logger *slog.Logger
}

func NewNormalizer(cfg Config, raster *Rasterizer, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = constants.MaxPDFPages
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Normalizer{cfg: cfg, raster: raster, logger: logger}
}

// Normalize decodes every source (a PDF contributes its pages, an image one
// page) and letterboxes each page. Any decode failure rejects the whole
// upload; no partial document is returned.
func (n *Normalizer) Normalize(ctx context.Context, sources ...Source) (*Document, error) {
	start := time.Now()
	if len(sources) == 0 {
		return nil, common.NewDecodeError("no files uploaded", nil)
	}

	var rasters []image.Image
	for _, src := range sources {
		switch src.Format() {
		case constants.PDF:
			if n.raster == nil {
				return nil, common.NewDecodeError(src.Name+": pdf rendering is not configured", nil)
			}
			pages, err := n.raster.Rasterize(ctx, src.Name, src.Data, n.cfg.MaxPages)
			if err != nil {
				n.logger.Error("canvas.normalize.decode_failed", "name", src.Name, "error", err)
				return nil, err
			}
			rasters = append(rasters, pages...)
		case constants.IMAGE:
			img, _, err := DecodeImage(src.Name, src.Data)
			if err != nil {
				n.logger.Error("canvas.normalize.decode_failed", "name", src.Name, "error", err)
				return nil, err
			}
			rasters = append(rasters, img)
		default:
			return nil, common.NewDecodeError(fmt.Sprintf("%s: unsupported file type", src.Name), nil)
		}
	}
	if len(rasters) > n.cfg.MaxPages {
		rasters = rasters[:n.cfg.MaxPages]
	}

	pages := make([]*Page, len(rasters))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.cfg.Workers)
	for i, img := range rasters {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := NormalizePage(img, i+1, n.cfg.Size)
			if err != nil {
				return err
			}
			pages[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	doc := &Document{ID: uuid.New(), Pages: pages}
	n.logger.Info("canvas.normalize.ok",
		"document_id", doc.ID,
		"files", len(sources),
		"pages", len(pages),
		"canvas_size", n.cfg.Size,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}
