package server

import (
	"github.com/joseph-ayodele/estate-toolkit/constants"
	"github.com/joseph-ayodele/estate-toolkit/internal/apportionment"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
	"github.com/joseph-ayodele/estate-toolkit/internal/proration"
	"github.com/joseph-ayodele/estate-toolkit/internal/repository"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/calculation"
	"github.com/joseph-ayodele/estate-toolkit/internal/valuation"
)

// File is one uploaded document. Data is base64 in JSON.
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data"`
}

type AnalyzeRequest struct {
	Files      []File `json:"files"`
	SkipRefine bool   `json:"skipRefine,omitempty"`
}

type AnalyzeResponse struct {
	Analysis  *processor.Analysis `json:"analysis"`
	Remaining *int                `json:"remainingToday,omitempty"`
}

type CalculateValuationRequest struct {
	Inputs valuation.Inputs `json:"inputs"`
}

type CalculateValuationResponse = calculation.Outcome[valuation.Result]

type CalculateApportionmentRequest struct {
	Inputs apportionment.Inputs `json:"inputs"`
}

type CalculateApportionmentResponse = calculation.Outcome[apportionment.Result]

type CalculateProrationRequest struct {
	Inputs proration.Inputs `json:"inputs"`
}

type CalculateProrationResponse = calculation.Outcome[proration.Result]

type ListSnapshotsRequest struct {
	Kind  constants.SnapshotKind `json:"kind,omitempty"`
	Limit int                    `json:"limit,omitempty"`
}

type ListSnapshotsResponse struct {
	Snapshots []*repository.Snapshot `json:"snapshots"`
}

type ExportSnapshotsRequest struct {
	Kind  constants.SnapshotKind `json:"kind,omitempty"`
	Limit int                    `json:"limit,omitempty"`
}

type ExportSnapshotsResponse struct {
	Xlsx []byte `json:"xlsx"`
}
