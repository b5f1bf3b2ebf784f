package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/estate-toolkit/internal/async"
	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/export"
	processor "github.com/joseph-ayodele/estate-toolkit/internal/pipeline"
	"github.com/joseph-ayodele/estate-toolkit/internal/services/calculation"
)

const ServiceName = "estate.v1.EstateService"

// EstateServiceServer is the server API for the estate service.
type EstateServiceServer interface {
	Analyze(context.Context, *AnalyzeRequest) (*AnalyzeResponse, error)
	CalculateValuation(context.Context, *CalculateValuationRequest) (*CalculateValuationResponse, error)
	CalculateApportionment(context.Context, *CalculateApportionmentRequest) (*CalculateApportionmentResponse, error)
	CalculateProration(context.Context, *CalculateProrationRequest) (*CalculateProrationResponse, error)
	ListSnapshots(context.Context, *ListSnapshotsRequest) (*ListSnapshotsResponse, error)
	ExportSnapshots(context.Context, *ExportSnapshotsRequest) (*ExportSnapshotsResponse, error)
}

// Remaining reports the caller's quota left today.
type Remaining interface {
	Remaining(ctx context.Context, userID string) (int, error)
}

type EstateService struct {
	analyzer async.Analyzer
	calc     *calculation.Service
	export   *export.Service
	quota    Remaining
	logger   *slog.Logger
}

// NewEstateService wires the handlers. exp and quota may be nil.
func NewEstateService(analyzer async.Analyzer, calc *calculation.Service, exp *export.Service, quota Remaining, logger *slog.Logger) *EstateService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EstateService{analyzer: analyzer, calc: calc, export: exp, quota: quota, logger: logger}
}

func (s *EstateService) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalyzeResponse, error) {
	if len(req.Files) == 0 {
		return nil, common.InvalidArgumentError("files are required")
	}
	sources := make([]canvas.Source, 0, len(req.Files))
	for _, f := range req.Files {
		sources = append(sources, canvas.Source{Name: f.Name, MIMEType: f.MIMEType, Data: f.Data})
	}

	a, err := s.analyzer.Analyze(ctx, sources, processor.Options{SkipRefine: req.SkipRefine})
	if err != nil {
		return nil, err
	}
	if a.Document != nil {
		// overlays are rendered client side from the returned boxes
		a.Document.Close()
	}

	resp := &AnalyzeResponse{Analysis: a}
	if s.quota != nil {
		if left, err := s.quota.Remaining(ctx, common.UserIDFromContext(ctx)); err == nil && left >= 0 {
			resp.Remaining = &left
		}
	}
	return resp, nil
}

func (s *EstateService) CalculateValuation(ctx context.Context, req *CalculateValuationRequest) (*CalculateValuationResponse, error) {
	return s.calc.Valuation(ctx, req.Inputs)
}

func (s *EstateService) CalculateApportionment(ctx context.Context, req *CalculateApportionmentRequest) (*CalculateApportionmentResponse, error) {
	return s.calc.Apportionment(ctx, req.Inputs)
}

func (s *EstateService) CalculateProration(ctx context.Context, req *CalculateProrationRequest) (*CalculateProrationResponse, error) {
	return s.calc.Proration(ctx, req.Inputs)
}

func (s *EstateService) ListSnapshots(ctx context.Context, req *ListSnapshotsRequest) (*ListSnapshotsResponse, error) {
	snaps, err := s.calc.ListSnapshots(ctx, req.Kind, req.Limit)
	if err != nil {
		return nil, err
	}
	return &ListSnapshotsResponse{Snapshots: snaps}, nil
}

func (s *EstateService) ExportSnapshots(ctx context.Context, req *ExportSnapshotsRequest) (*ExportSnapshotsResponse, error) {
	if s.export == nil {
		return nil, status.Error(codes.FailedPrecondition, "export requires a database")
	}
	xlsx, err := s.export.SnapshotsXLSX(ctx, common.UserIDFromContext(ctx), req.Kind, req.Limit)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "user_id", common.UserIDFromContext(ctx), "error", err)
		return nil, err
	}
	return &ExportSnapshotsResponse{Xlsx: xlsx}, nil
}

// RegisterEstateServiceServer registers srv on s.
func RegisterEstateServiceServer(s grpc.ServiceRegistrar, srv EstateServiceServer) {
	s.RegisterService(&EstateServiceDesc, srv)
}

func unary[Req, Resp any](method string, call func(EstateServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(EstateServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(EstateServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// EstateServiceDesc is the grpc.ServiceDesc for the estate service. Messages
// are Go structs carried by the JSON codec.
var EstateServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EstateServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Analyze", EstateServiceServer.Analyze),
		unary("CalculateValuation", EstateServiceServer.CalculateValuation),
		unary("CalculateApportionment", EstateServiceServer.CalculateApportionment),
		unary("CalculateProration", EstateServiceServer.CalculateProration),
		unary("ListSnapshots", EstateServiceServer.ListSnapshots),
		unary("ExportSnapshots", EstateServiceServer.ExportSnapshots),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "estate/v1/estate.proto",
}
