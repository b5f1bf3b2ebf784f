package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/ocr"
)

// Assembler merges model values with (optionally refined) boxes.
type Assembler struct {
	refiner *ocr.Refiner
	logger  *slog.Logger
}

// NewAssembler builds an Assembler. A nil refiner disables refinement.
func NewAssembler(refiner *ocr.Refiner, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{refiner: refiner, logger: logger}
}

// Assemble produces an entry for every known field key. Only refinable
// fields with a non-empty box are handed to the refiner, and a failed or
// timed-out refinement leaves the model boxes in place.
func (a *Assembler) Assemble(ctx context.Context, resp *ModelResponse, pages ocr.PageSource) Result {
	start := time.Now()
	if resp == nil {
		resp = &ModelResponse{}
	}

	keys := constants.AllFields()
	fields := make([]ExtractedField, 0, len(keys))
	index := make(map[constants.FieldKey]int, len(keys))
	var targets []ocr.Target

	for _, k := range keys {
		f := ExtractedField{Key: k, Value: resp.PlanInfo[k]}
		if b := resp.Coordinates[k]; b != nil {
			box := *b
			f.Box = &box
			if constants.IsRefinable(k) && !box.IsEmpty() {
				targets = append(targets, ocr.Target{Key: string(k), Box: box})
			}
		}
		index[k] = len(fields)
		fields = append(fields, f)
	}

	// candidates stay alongside the fields; a missing address remains null
	candidates := append([]string(nil), resp.AddressCandidates...)

	var rep ocr.Report
	if a.refiner != nil && pages != nil && len(targets) > 0 {
		var refined []ocr.Target
		refined, rep = a.refiner.RefineAll(ctx, pages, targets)
		for _, t := range refined {
			box := t.Box
			fields[index[constants.FieldKey(t.Key)]].Box = &box
		}
	}

	found := 0
	for _, f := range fields {
		if f.Value != nil {
			found++
		}
	}
	a.logger.Info("extract.assemble.ok",
		"fields_found", found,
		"fields_total", len(fields),
		"refine_targets", len(targets),
		"refined", rep.Refined,
		"elapsed_ms", time.Since(start).Milliseconds())

	return Result{Fields: fields, AddressCandidates: candidates, Refinement: rep}
}
