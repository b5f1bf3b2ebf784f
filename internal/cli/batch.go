package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/estate-toolkit/internal/app"
	"github.com/joseph-ayodele/estate-toolkit/internal/async"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/ingest"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/batch"
)

var (
	batchDir     string
	batchOut     string
	batchExts    []string
	batchWatch   bool
	batchWorkers int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every document under a directory and write an XLSX summary",
	Args:  cobra.NoArgs,
	RunE:  runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchDir, "dir", "", "directory to process documents from (required)")
	f.StringVar(&batchOut, "out", "", "output XLSX path (defaults to estate-batch.xlsx next to --dir)")
	f.StringSliceVar(&batchExts, "ext", nil, "extensions to include (default every supported type)")
	f.BoolVar(&batchWatch, "watch", false, "keep running and analyze documents as they appear")
	f.IntVar(&batchWorkers, "workers", 4, "documents analyzed concurrently")
	f.BoolVar(&noRefine, "no-refine", false, "keep the model's boxes without OCR refinement")
	_ = batchCmd.MarkFlagRequired("dir")
	RootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if batchOut == "" {
		batchOut = filepath.Join(filepath.Dir(filepath.Clean(batchDir)), "estate-batch.xlsx")
	}

	deps, err := app.Build(cmd.Context(), config, logger, app.Options{
		Database: config.Database.DSN != "",
		Vision:   true,
	})
	if err != nil {
		return err
	}
	defer deps.Close()

	svc := batch.NewService(deps.Processor, logger, async.WithWorkers(batchWorkers))
	user := common.UserIDFromContext(userContext(cmd.Context()))

	if batchWatch {
		return watchBatch(cmd, deps, svc, user)
	}

	res, err := svc.RunDirectory(cmd.Context(), batch.DirectoryRequest{
		RootPath:   batchDir,
		Extensions: batchExts,
		SkipHidden: true,
		SkipRefine: noRefine,
		UserID:     user,
	})
	if err != nil {
		return err
	}
	for _, s := range res.Skipped {
		logger.Warn("batch.skipped", "path", s.Path, "error", s.Err)
	}
	if err := writeBatch(deps, res.Results); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d matched=%d succeeded=%d failed=%d out=%s\n",
		res.Statistics.Scanned, res.Statistics.Matched, res.Statistics.Succeeded, res.Statistics.Failed, batchOut)
	return nil
}

// watchBatch rewrites the workbook after every finished document until interrupted.
func watchBatch(cmd *cobra.Command, deps *app.Deps, svc *batch.Service, user string) error {
	var (
		mu      sync.Mutex
		results []async.JobResult
	)
	err := svc.Watch(cmd.Context(), ingest.WatchConfig{
		Roots:       []string{batchDir},
		Extensions:  batchExts,
		SkipHidden:  true,
		InitialScan: true,
	}, user, noRefine, func(r async.JobResult) {
		mu.Lock()
		defer mu.Unlock()
		results = append(results, r)
		if err := writeBatch(deps, results); err != nil {
			logger.Error("batch.write_failed", "error", err)
			return
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status(r), r.Job.Path)
	})
	if err != nil && cmd.Context().Err() == nil {
		return err
	}
	return nil
}

func writeBatch(deps *app.Deps, results []async.JobResult) error {
	data, err := deps.Export.BatchXLSX(results)
	if err != nil {
		return err
	}
	return os.WriteFile(batchOut, data, 0o644)
}

func status(r async.JobResult) string {
	if r.Err != nil {
		return "FAILED " + strings.TrimSpace(r.Err.Error())
	}
	return "OK"
}
