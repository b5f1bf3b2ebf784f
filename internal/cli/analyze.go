package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/extract"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
)

var (
	overlayDir string
	noRefine   bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Extract fields from one PDF or up to ten page images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&overlayDir, "overlay", "", "write one highlighted PNG per page into this directory")
	analyzeCmd.Flags().BoolVar(&noRefine, "no-refine", false, "keep the model's boxes without OCR refinement")
	RootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	sources := make([]canvas.Source, 0, len(args))
	for _, p := range args {
		src, err := ingest.LoadSource(p)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	deps, err := app.Build(cmd.Context(), config, logger, app.Options{
		Database: config.Database.DSN != "",
		Vision:   true,
		Quota:    config.Database.DSN != "",
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	analysis, err := deps.Processor.Analyze(userContext(cmd.Context()), sources, processor.Options{SkipRefine: noRefine})
	if err != nil {
		return err
	}

	var session canvas.Session
	defer session.Close()
	gen := session.Replace(analysis.Document)

	if overlayDir != "" {
		if err := writeOverlays(&session, gen, analysis, overlayDir); err != nil {
			return err
		}
	}
	return writeJSON(cmd.OutOrStdout(), analysis)
}

func writeOverlays(session *canvas.Session, gen uint64, analysis *processor.Analysis, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	byPage := highlightsByPage(analysis.Extraction)
	for _, page := range analysis.Pages {
		img, err := session.Overlay(gen, page.Number, byPage[page.Number])
		if err != nil {
			return err
		}
		data, err := canvas.EncodePNG(img)
		if err != nil {
			return err
		}
		name := fmt.Sprintf("%s-p%02d.png", analysis.DocumentID, page.Number)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
		logger.Info("overlay.written", "page", page.Number, "path", filepath.Join(dir, name))
	}
	return nil
}

func highlightsByPage(r extract.Result) map[int][]canvas.Highlight {
	out := map[int][]canvas.Highlight{}
	for _, f := range r.Fields {
		if f.Box == nil || f.Box.IsEmpty() {
			continue
		}
		out[f.Box.Page] = append(out[f.Box.Page], canvas.Highlight{
			Label: string(f.Key),
			Box:   *f.Box,
		})
	}
	return out
}
