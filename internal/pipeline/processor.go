package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/extract"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
)

// QuotaGate is the slice of the quota service the pipeline needs.
type QuotaGate interface {
	// Reserve takes a slot up front; release gives it back on failure.
	Reserve(ctx context.Context, userID string) (release func(context.Context), err error)
}

// SnapshotRecorder stores the extraction for later export.
type SnapshotRecorder interface {
	Record(ctx context.Context, kind constants.SnapshotKind, inputs, result any) (*repository.Snapshot, error)
}

// Processor coordinates upload gating, page normalization, the vision model,
// response parsing and field assembly with OCR refinement.
type Processor struct {
	Logger     *slog.Logger
	Policy     *ingest.Policy
	Normalizer *canvas.Normalizer
	Vision     llm.VisionExtractor
	Refining   *extract.Assembler
	Plain      *extract.Assembler
	Quota      QuotaGate        // optional
	Snapshots  SnapshotRecorder // optional

	now func() time.Time
}

func NewProcessor(logger *slog.Logger, policy *ingest.Policy, normalizer *canvas.Normalizer, vision llm.VisionExtractor, assembler *extract.Assembler) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:     logger,
		Policy:     policy,
		Normalizer: normalizer,
		Vision:     vision,
		Refining:   assembler,
		Plain:      extract.NewAssembler(nil, logger),
		now:        time.Now,
	}
}

type Options struct {
	SkipRefine bool
}

// Analysis is the outcome for one upload. Document stays open for overlays;
// the caller closes it.
type Analysis struct {
	DocumentID uuid.UUID                 `json:"documentId"`
	Files      []string                  `json:"files"`
	Pages      []geometry.NormalizedPage `json:"pages"`
	Extraction extract.Result            `json:"extraction"`
	Refined    int                       `json:"refined"`
	TimedOut   bool                      `json:"refineTimedOut"`
	Model      string                    `json:"model"`
	SnapshotID *uuid.UUID                `json:"snapshotId,omitempty"`
	Elapsed    time.Duration             `json:"-"`

	Document *canvas.Document `json:"-"`
}

// Analyze runs the full pipeline for one upload.
func (p *Processor) Analyze(ctx context.Context, sources []canvas.Source, opts Options) (*Analysis, error) {
	start := time.Now()
	userID := common.UserIDFromContext(ctx)
	log := p.Logger.With("user_id", userID, "request_id", common.RequestIDFromContext(ctx))

	// 1) gate the upload and the caller
	if p.Policy != nil {
		if err := p.Policy.Check(ctx, sources); err != nil {
			log.Warn("processor.upload.rejected", "error", err)
			return nil, err
		}
	}
	ok := false
	if p.Quota != nil {
		release, err := p.Quota.Reserve(ctx, userID)
		if err != nil {
			return nil, err
		}
		defer func() {
			if !ok {
				release(context.WithoutCancel(ctx))
			}
		}()
	}

	// 2) normalize every page onto the fixed canvas
	doc, err := p.Normalizer.Normalize(ctx, sources...)
	if err != nil {
		log.Error("processor.normalize.failed", "error", err)
		return nil, err
	}
	defer func() {
		if !ok {
			doc.Close()
		}
	}()

	// 3) vision model on the normalized canvases
	images, err := encodePages(ctx, doc)
	if err != nil {
		return nil, common.NewDecodeError("encode pages", err)
	}
	req := llm.ExtractRequest{Pages: images, Now: p.now()}
	if len(sources) == 1 {
		req.FilenameHint = sources[0].Name
	}
	raw, err := p.Vision.ExtractFields(ctx, req)
	if err != nil {
		log.Error("processor.vision.failed", "model", p.Vision.Name(), "error", err)
		return nil, err
	}
	resp, err := extract.ParseModelResponse(raw, log)
	if err != nil {
		log.Error("processor.parse.failed", "error", err)
		return nil, err
	}

	// 4) assemble, refining boxes against the canvases
	asm := p.Refining
	if opts.SkipRefine || asm == nil {
		asm = p.Plain
	}
	result := asm.Assemble(ctx, resp, doc.Canvas)

	a := &Analysis{
		DocumentID: doc.ID,
		Extraction: result,
		Refined:    result.Refinement.Refined,
		TimedOut:   result.Refinement.TimedOut,
		Model:      p.Vision.Name(),
		Document:   doc,
	}
	for _, s := range sources {
		a.Files = append(a.Files, s.Name)
	}
	for _, pg := range doc.Pages {
		a.Pages = append(a.Pages, pg.Geometry)
	}

	// 5) bookkeeping; the analysis already succeeded
	if p.Snapshots != nil {
		snap, err := p.Snapshots.Record(ctx, constants.SnapshotExtraction,
			map[string]any{"files": a.Files, "pages": len(a.Pages), "model": a.Model}, result)
		if err != nil {
			log.Error("processor.snapshot.failed", "error", err)
		} else if snap != nil {
			a.SnapshotID = &snap.ID
		}
	}

	a.Elapsed = time.Since(start)
	log.Info("processor.analyze.ok",
		"document_id", doc.ID,
		"pages", len(a.Pages),
		"refined", a.Refined,
		"refine_timed_out", a.TimedOut,
		"elapsed_ms", a.Elapsed.Milliseconds(),
	)
	ok = true
	return a, nil
}

func encodePages(ctx context.Context, doc *canvas.Document) ([]llm.PageImage, error) {
	out := make([]llm.PageImage, len(doc.Pages))
	g, _ := errgroup.WithContext(ctx)
	for i, pg := range doc.Pages {
		g.Go(func() error {
			data, err := canvas.EncodePNG(pg.Canvas)
			if err != nil {
				return fmt.Errorf("page %d: %w", pg.Number, err)
			}
			out[i] = llm.PageImage{Page: pg.Number, MIMEType: "image/png", Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
