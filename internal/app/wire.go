// Package app wires configuration into the services the binaries run.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/command"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/export"
	"github.com/joseph-ayodele/estate-toolkit/internal/extract"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm/gemini"
	"github.com/joseph-ayodele/estate-toolkit/internal/llm/openai"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr/gosseract"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/calculation"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/quota"
)

type Options struct {
	Database bool // open the database for snapshots and usage
	Vision   bool // build the vision client and analysis pipeline
	Quota    bool // enforce the daily limit (requires Database)
}

// Deps holds everything a binary may need. Fields not requested are nil.
type Deps struct {
	Config     *common.Config
	Logger     *slog.Logger
	DB         *repository.DB
	Calc       *calculation.Service
	Export     *export.Service
	Quota      *quota.Service
	Normalizer *canvas.Normalizer
	Refiner    *ocr.Refiner
	Vision     llm.VisionExtractor
	Processor  *processor.Processor

	closers []func()
}

// Build constructs the requested dependencies. Close releases them.
func Build(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*Deps, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Deps{Config: cfg, Logger: logger}

	var snaps repository.SnapshotRepository
	if opts.Database {
		db, err := repository.Open(ctx, repository.Config{
			DSN:              cfg.Database.DSN,
			MaxConns:         cfg.Database.MaxConns,
			MinConns:         cfg.Database.MinConns,
			MaxConnLifetime:  cfg.Database.MaxConnLifetime,
			MaxConnIdleTime:  cfg.Database.MaxConnIdleTime,
			DialTimeout:      cfg.Database.DialTimeout,
			StatementTimeout: cfg.Database.StatementTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		d.DB = db
		d.closers = append(d.closers, func() { db.Close(logger) })
		snaps = repository.NewSnapshotRepository(db, logger)

		if opts.Quota {
			q, err := quota.NewService(repository.NewUsageRepository(db, logger), cfg.Quota, logger)
			if err != nil {
				d.Close()
				return nil, err
			}
			d.Quota = q
		}
	}
	d.Calc = calculation.NewService(snaps, logger)
	d.Export = export.NewService(snaps, logger)

	runner := command.NewExecRunner(logger)
	raster := canvas.NewRasterizer(cfg.Canvas.Pdftoppm, cfg.Canvas.Pdfinfo, cfg.Canvas.PDFScale, runner, logger)
	d.Normalizer = canvas.NewNormalizer(canvas.Config{
		Size:     cfg.Canvas.Size,
		PDFScale: cfg.Canvas.PDFScale,
		MaxPages: cfg.Canvas.MaxPages,
		Workers:  cfg.Canvas.PageWorkers,
		Pdftoppm: cfg.Canvas.Pdftoppm,
		Pdfinfo:  cfg.Canvas.Pdfinfo,
	}, raster, logger)

	rec, err := NewRecognizer(cfg.OCR, runner, logger)
	if err != nil {
		d.Close()
		return nil, err
	}
	if rec != nil {
		d.Refiner = ocr.NewRefiner(rec, ocr.Options{
			Padding: cfg.OCR.RefinePadding,
			Timeout: cfg.OCR.RefineTimeout,
		}, logger)
	}

	if opts.Vision {
		vision, closeVision, err := NewVision(ctx, cfg.LLM, logger)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Vision = vision
		d.closers = append(d.closers, closeVision)

		p := processor.NewProcessor(logger, ingest.DefaultPolicy(raster), d.Normalizer, vision, extract.NewAssembler(d.Refiner, logger))
		if d.Quota != nil {
			p.Quota = d.Quota
		}
		if snaps != nil {
			p.Snapshots = d.Calc
		}
		d.Processor = p
	}
	return d, nil
}

// Close releases resources in reverse order.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// NewRecognizer returns the configured OCR engine, or nil when OCR is off.
// The gosseract engine fails unless the binary was built with -tags gosseract.
func NewRecognizer(cfg common.OCRConfig, runner command.Runner, logger *slog.Logger) (ocr.Recognizer, error) {
	switch cfg.Engine {
	case "none":
		return nil, nil
	case "gosseract":
		return gosseract.New(gosseract.Config{Lang: cfg.Lang, TessdataDir: cfg.TessdataDir, PSM: cfg.PSM})
	default:
		return ocr.NewTesseractRecognizer(ocr.Config{
			Tesseract:   cfg.Tesseract,
			Lang:        cfg.Lang,
			TessdataDir: cfg.TessdataDir,
			PSM:         cfg.PSM,
		}, runner, logger), nil
	}
}

// NewVision builds the vision client for the configured provider.
func NewVision(ctx context.Context, cfg common.LLMConfig, logger *slog.Logger) (llm.VisionExtractor, func(), error) {
	switch cfg.Provider {
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
			MaxAttempts: cfg.MaxAttempts,
		}, logger)
		return c, func() {}, nil
	case "gemini", "":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxAttempts: cfg.MaxAttempts,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {
			if err := c.Close(); err != nil {
				logger.Warn("failed to close gemini client", "error", err)
			}
		}, nil
	default:
		return nil, nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown LLM_PROVIDER %q", cfg.Provider), common.ErrInvalidInput)
	}
}
