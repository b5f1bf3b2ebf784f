package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// Metadata keys read from incoming calls.
const (
	MetadataUserID    = "x-user-id"
	MetadataRequestID = "x-request-id"
)

// UnaryInterceptor attaches the caller identity to the context, logs each
// call and maps domain errors onto gRPC status codes.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		userID, requestID := "", ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			userID = first(md.Get(MetadataUserID))
			requestID = first(md.Get(MetadataRequestID))
		}
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = common.WithRequestID(common.WithUserID(ctx, userID), requestID)

		resp, err := handler(ctx, req)
		err = common.ToStatus(err)

		attrs := []any{
			"method", info.FullMethod,
			"user_id", common.UserIDFromContext(ctx),
			"request_id", requestID,
			"elapsed_ms", time.Since(start).Milliseconds(),
		}
		if err != nil {
			st, _ := status.FromError(err)
			logger.Warn("grpc.request.failed", append(attrs, "code", st.Code().String(), "error", st.Message())...)
			return nil, err
		}
		logger.Info("grpc.request.ok", attrs...)
		return resp, nil
	}
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return strings.TrimSpace(v[0])
}
