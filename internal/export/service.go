package export

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/async"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
)

// Service produces XLSX workbooks from stored snapshots and batch runs.
type Service struct {
	snapshots repository.SnapshotRepository
	logger    *slog.Logger
}

func NewService(snapshots repository.SnapshotRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{snapshots: snapshots, logger: logger}
}

var sheetNames = map[constants.SnapshotKind]string{
	constants.SnapshotValuation:     "Valuation",
	constants.SnapshotApportionment: "Apportionment",
	constants.SnapshotProration:     "Proration",
	constants.SnapshotExtraction:    "Extraction",
}

var kindOrder = []constants.SnapshotKind{
	constants.SnapshotValuation,
	constants.SnapshotApportionment,
	constants.SnapshotProration,
	constants.SnapshotExtraction,
}

// SnapshotsXLSX writes one sheet per snapshot kind for the user. An empty
// kind exports every kind.
func (s *Service) SnapshotsXLSX(ctx context.Context, userID string, kind constants.SnapshotKind, limit int) ([]byte, error) {
	if s.snapshots == nil {
		return nil, common.NewAppError(common.CodeDatabase, "snapshot export needs a database", common.ErrInvalidInput)
	}
	start := time.Now()
	if limit <= 0 {
		limit = repository.MaxListLimit
	}
	snaps, err := s.snapshots.List(ctx, userID, kind, limit)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}

	byKind := map[constants.SnapshotKind][]*repository.Snapshot{}
	for _, sn := range snaps {
		byKind[sn.Kind] = append(byKind[sn.Kind], sn)
	}

	f := excelize.NewFile()
	defer f.Close()
	wrote := 0
	for _, k := range kindOrder {
		rows := byKind[k]
		if len(rows) == 0 && kind != k {
			continue
		}
		if err := writeSnapshotSheet(f, sheetNames[k], rows); err != nil {
			return nil, err
		}
		wrote++
	}
	if wrote == 0 {
		if err := writeSnapshotSheet(f, "Snapshots", nil); err != nil {
			return nil, err
		}
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.snapshots.ok",
		"user_id", userID,
		"kind", kind,
		"rows", len(snaps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeSnapshotSheet(f *excelize.File, sheet string, snaps []*repository.Snapshot) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	flatIn := make([]map[string]any, len(snaps))
	flatOut := make([]map[string]any, len(snaps))
	inKeys, outKeys := map[string]struct{}{}, map[string]struct{}{}
	for i, sn := range snaps {
		flatIn[i] = flattenJSON(sn.Inputs)
		flatOut[i] = flattenJSON(sn.Result)
		for k := range flatIn[i] {
			inKeys[k] = struct{}{}
		}
		for k := range flatOut[i] {
			outKeys[k] = struct{}{}
		}
	}
	ins, outs := sortedKeys(inKeys), sortedKeys(outKeys)

	headers := []string{"Created At", "Snapshot ID"}
	for _, k := range ins {
		headers = append(headers, "input."+k)
	}
	for _, k := range outs {
		headers = append(headers, "result."+k)
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for r, sn := range snaps {
		row := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, sn.CreatedAt.Format(time.RFC3339))
		write(2, sn.ID.String())
		for i, k := range ins {
			write(3+i, flatIn[r][k])
		}
		for i, k := range outs {
			write(3+len(ins)+i, flatOut[r][k])
		}
	}

	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "B", 38)
	return nil
}

// BatchXLSX writes one row per analyzed document with one column per field.
func (s *Service) BatchXLSX(results []async.JobResult) ([]byte, error) {
	start := time.Now()
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Batch"
	if _, err := f.NewSheet(sheet); err != nil {
		return nil, err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	keys := constants.AllFields()
	headers := []string{"File", "Status", "Error"}
	for _, k := range keys {
		headers = append(headers, string(k))
	}
	headers = append(headers, "Address Candidates", "Refined Boxes", "Elapsed (ms)")
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for r, res := range results {
		row := r + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, res.Job.Path)
		if res.Err != nil || res.Analysis == nil {
			write(2, "FAILED")
			if res.Err != nil {
				write(3, truncate(res.Err.Error(), 240))
			}
		} else {
			write(2, "OK")
			ex := res.Analysis.Extraction
			for i, k := range keys {
				if fld, ok := ex.Field(k); ok && fld.Value != nil {
					write(4+i, fld.Value)
				}
			}
			write(4+len(keys), joinCandidates(ex.AddressCandidates))
			write(5+len(keys), res.Analysis.Refined)
		}
		write(6+len(keys), res.Elapsed.Milliseconds())
	}

	_ = f.SetColWidth(sheet, "A", "A", 48)
	_ = f.SetColWidth(sheet, "C", "C", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.batch.ok", "rows", len(results), "elapsed_ms", time.Since(start).Milliseconds())
	return buf.Bytes(), nil
}

// flattenJSON turns nested objects into dotted keys. Arrays are kept as JSON text.
func flattenJSON(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	var walk func(prefix string, v any)
	walk = func(prefix string, v any) {
		switch t := v.(type) {
		case map[string]any:
			for k, child := range t {
				key := k
				if prefix != "" {
					key = prefix + "." + k
				}
				walk(key, child)
			}
		case []any:
			b, _ := json.Marshal(t)
			out[prefix] = string(b)
		case nil:
			out[prefix] = ""
		default:
			out[prefix] = t
		}
	}
	walk("", m)
	return out
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinCandidates(c []string) string {
	b, _ := json.Marshal(c)
	if len(c) == 0 {
		return ""
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
