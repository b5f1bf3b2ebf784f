package canvas

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/estate-toolkit/internal/command"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// nominalDPI is the PDF user-space resolution (1 point = 1 pixel at scale 1).
const nominalDPI = 72

var rePages = regexp.MustCompile(`(?m)^Pages:\s+(\d+)\s*$`)

// Rasterizer renders PDF pages to rasters through poppler-utils.
type Rasterizer struct {
	Pdftoppm string
	Pdfinfo  string
	Scale    float64
	runner   command.Runner
	logger   *slog.Logger
}

func NewRasterizer(pdftoppm, pdfinfo string, scale float64, runner command.Runner, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if pdfinfo == "" {
		pdfinfo = "pdfinfo"
	}
	if scale <= 0 {
		scale = 2
	}
	return &Rasterizer{Pdftoppm: pdftoppm, Pdfinfo: pdfinfo, Scale: scale, runner: runner, logger: logger}
}

// DPI is the render resolution: the nominal 72 DPI times Scale.
func (r *Rasterizer) DPI() int {
	return int(nominalDPI * r.Scale)
}

// PageCount reads the page count with pdfinfo.
func (r *Rasterizer) PageCount(ctx context.Context, name string, data []byte) (int, error) {
	_, in, cleanup, err := writeTemp(name, data)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	out, errb, err := r.runner.Run(ctx, r.Pdfinfo, in)
	if err != nil {
		return 0, common.NewDecodeError(name+": pdfinfo failed: "+command.Truncate(string(errb), 512), err)
	}
	m := rePages.FindSubmatch(out)
	if m == nil {
		return 0, common.NewDecodeError(name+": page count not reported", nil)
	}
	n, _ := strconv.Atoi(string(m[1]))
	return n, nil
}

// Rasterize renders pages 1..maxPages (0 = all) and decodes them in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, name string, data []byte, maxPages int) ([]image.Image, error) {
	tmpDir, in, cleanup, err := writeTemp(name, data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 144 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(r.DPI()), "-png"}
	if maxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(maxPages))
	}
	args = append(args, in, prefix)
	_, errb, err := r.runner.Run(ctx, r.Pdftoppm, args...)
	if err != nil {
		return nil, common.NewDecodeError(name+": pdftoppm failed: "+command.Truncate(string(errb), 512), err)
	}

	// collect generated pngs (page-1.png or zero-padded page-01.png ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool { return pageIndex(matches[i]) < pageIndex(matches[j]) })
	if maxPages > 0 && len(matches) > maxPages {
		matches = matches[:maxPages]
	}
	if len(matches) == 0 {
		return nil, common.NewDecodeError(name+": pdftoppm produced no images", nil)
	}

	pages := make([]image.Image, 0, len(matches))
	for _, path := range matches {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rendered page: %w", err)
		}
		img, _, err := DecodeImage(filepath.Base(path), b)
		if err != nil {
			return nil, err
		}
		pages = append(pages, img)
	}
	r.logger.Debug("canvas.pdf.rasterized", "name", name, "pages", len(pages), "dpi", r.DPI())
	return pages, nil
}

var rePageIndex = regexp.MustCompile(`-(\d+)\.png$`)

func pageIndex(path string) int {
	m := rePageIndex.FindStringSubmatch(path)
	if m == nil {
		return 0
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

func writeTemp(name string, data []byte) (dir, path string, cleanup func(), err error) {
	dir, err = os.MkdirTemp("", "estate-pdf-*")
	if err != nil {
		return "", "", nil, err
	}
	cleanup = func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}
	path = filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		cleanup()
		return "", "", nil, fmt.Errorf("write %s: %w", name, err)
	}
	return dir, path, cleanup, nil
}
