package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

const (
	DefaultPadding = 15.0
	DefaultTimeout = 5 * time.Second
)

// Options tunes a Refiner. Zero values take the defaults.
type Options struct {
	// Padding grows the model box on every side, in normalized units.
	Padding float64
	// Timeout bounds one RefineAll call across all targets.
	Timeout time.Duration
}

// Refiner tightens model-provided boxes to the value text found by a local
// recognizer on the normalized canvas.
type Refiner struct {
	rec     Recognizer
	padding float64
	timeout time.Duration
	logger  *slog.Logger
}

func NewRefiner(rec Recognizer, opts Options, logger *slog.Logger) *Refiner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Padding <= 0 {
		opts.Padding = DefaultPadding
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Refiner{rec: rec, padding: opts.Padding, timeout: opts.Timeout, logger: logger}
}

// Refine runs one crop-and-recognize pass. Zero-area boxes and crops with no
// tokens come back unchanged.
func (r *Refiner) Refine(ctx context.Context, canvas image.Image, box geometry.BoundingBox) (geometry.BoundingBox, error) {
	if box.IsEmpty() {
		return box, nil
	}
	if canvas == nil {
		return box, fmt.Errorf("%w: no canvas for page %d", common.ErrRefinement, box.Page)
	}
	size := canvas.Bounds().Dx()

	crop := geometry.ToCanvasPixels(box.Pad(r.padding), size).Image().Intersect(canvas.Bounds())
	if crop.Empty() {
		return box, nil
	}

	// recognizers report token boxes from the image origin
	local := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	draw.Draw(local, local.Bounds(), canvas, crop.Min, draw.Src)

	tokens, err := r.rec.Recognize(ctx, local)
	if err != nil {
		return box, fmt.Errorf("%w: %w", common.ErrRefinement, err)
	}
	tok, ok := pickToken(tokens)
	if !ok {
		return box, nil
	}

	refined := geometry.CropToNormalized(geometry.RectFromImage(tok.Box), crop.Min, size, box.Page).Clamp()
	if refined.IsEmpty() {
		return box, nil
	}
	return refined, nil
}

// Target is one field box queued for refinement.
type Target struct {
	Key string
	Box geometry.BoundingBox
}

// Report summarizes a RefineAll call.
type Report struct {
	Refined   int
	Abandoned int
	TimedOut  bool
	Err       error
	Elapsed   time.Duration
}

// PageSource returns the normalized canvas for a 1-based page, or nil.
type PageSource func(page int) image.Image

type refined struct {
	index int
	box   geometry.BoundingBox
}

// RefineAll refines targets one after another, racing the whole loop
// against the timeout. Targets finished before a timeout or failure keep
// their refined box; the rest keep the model box. Errors are logged and
// reported, never returned.
func (r *Refiner) RefineAll(ctx context.Context, pages PageSource, targets []Target) ([]Target, Report) {
	start := time.Now()
	out := make([]Target, len(targets))
	copy(out, targets)
	if len(targets) == 0 {
		return out, Report{}
	}

	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan refined, len(targets))
	done := make(chan error, 1)
	go func() {
		for i, t := range targets {
			if err := rctx.Err(); err != nil {
				done <- err
				return
			}
			box, err := r.Refine(rctx, pages(t.Box.Page), t.Box)
			if err != nil {
				done <- fmt.Errorf("refine %s: %w", t.Key, err)
				return
			}
			progress <- refined{index: i, box: box}
		}
		done <- nil
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	var rep Report
	select {
	case err := <-done:
		rep.Err = err
	case <-timer.C:
		rep.TimedOut = true
	case <-ctx.Done():
		rep.Err = ctx.Err()
	}
	cancel()

	completed := make(map[int]bool, len(targets))
drain:
	for {
		select {
		case p := <-progress:
			out[p.index].Box = p.box
			completed[p.index] = true
		default:
			break drain
		}
	}
	rep.Refined = len(completed)
	rep.Abandoned = len(targets) - len(completed)
	rep.Elapsed = time.Since(start)

	switch {
	case rep.TimedOut:
		r.logger.Warn("ocr.refine.timeout",
			"timeout_ms", r.timeout.Milliseconds(),
			"refined", rep.Refined,
			"abandoned", rep.Abandoned)
	case rep.Err != nil && errors.Is(rep.Err, context.Canceled):
		r.logger.Info("ocr.refine.canceled", "refined", rep.Refined, "abandoned", rep.Abandoned)
	case rep.Err != nil:
		r.logger.Warn("ocr.refine.failed",
			"error", rep.Err,
			"refined", rep.Refined,
			"abandoned", rep.Abandoned)
	default:
		r.logger.Info("ocr.refine.ok",
			"refined", rep.Refined,
			"elapsed_ms", rep.Elapsed.Milliseconds())
	}
	return out, rep
}
