package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/command"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
)

// runocr tightens one normalized box on a single image, the same way the
// analysis pipeline refines numeric fields.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if len(os.Args) != 3 {
		logger.Error("usage", "cmd", "runocr <image> <ymin,xmin,ymax,xmax>")
		os.Exit(2)
	}
	box, err := parseBox(os.Args[2])
	if err != nil {
		logger.Error("invalid box", "arg", os.Args[2], "error", err)
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	if cfg.OCR.Engine == "none" {
		cfg.OCR.Engine = "exec"
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read image", "error", err)
		os.Exit(1)
	}
	img, format, err := canvas.DecodeImage(os.Args[1], data)
	if err != nil {
		logger.Error("decode image", "error", err)
		os.Exit(1)
	}
	page, err := canvas.NormalizePage(img, 1, cfg.Canvas.Size)
	if err != nil {
		logger.Error("normalize page", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	rec, err := app.NewRecognizer(cfg.OCR, command.NewExecRunner(logger), logger)
	if err != nil {
		logger.Error("ocr engine", "error", err)
		os.Exit(2)
	}
	refiner := ocr.NewRefiner(rec, ocr.Options{Padding: cfg.OCR.RefinePadding, Timeout: cfg.OCR.RefineTimeout}, logger)

	start := time.Now()
	out, err := refiner.Refine(ctx, page.Canvas, box)
	dur := time.Since(start)
	if err != nil {
		logger.Error("refinement failed", "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	logger.Info("refinement OK",
		"format", format,
		"engine", cfg.OCR.Engine,
		"model_box", box.String(),
		"refined_box", out.String(),
		"changed", out != box,
		"duration_ms", dur.Milliseconds(),
	)
}

func parseBox(s string) (geometry.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.BoundingBox{}, fmt.Errorf("want 4 comma-separated numbers, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.BoundingBox{}, err
		}
		v[i] = f
	}
	box := geometry.BoundingBox{YMin: v[0], XMin: v[1], YMax: v[2], XMax: v[3], Page: 1}
	return box, box.Validate()
}
