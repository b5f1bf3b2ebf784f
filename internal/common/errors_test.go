package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestDomainErrorsUnwrapToSentinels(t *testing.T) {
	assert.True(t, errors.Is(NewDecodeError("bad png", fmt.Errorf("unexpected EOF")), ErrDecode))
	assert.True(t, errors.Is(NewModelExtractionError("no json", nil), ErrModelExtraction))
	assert.True(t, errors.Is(NewModelExtractionError("quota", ErrQuotaExceeded), ErrQuotaExceeded))
	assert.True(t, errors.Is(NewDegenerateError("both zero"), ErrZeroDenominator))
	assert.True(t, errors.Is(NewUploadError("too big"), ErrUploadRejected))

	var appErr *AppError
	assert.True(t, errors.As(NewDegenerateError("both zero"), &appErr))
	assert.Equal(t, CodeDegenerate, appErr.Code)
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{NewValidator().Field("x", nil, Required).Err(), codes.InvalidArgument},
		{NewDegenerateError("zero"), codes.InvalidArgument},
		{NewDecodeError("bad", nil), codes.InvalidArgument},
		{NewAppError(CodeQuota, "limit", ErrQuotaExceeded), codes.ResourceExhausted},
		{NewModelExtractionError("down", nil), codes.Unavailable},
		{ErrStaleDocument, codes.FailedPrecondition},
		{errors.New("boom"), codes.Internal},
		{status.Error(codes.NotFound, "gone"), codes.NotFound},
	}
	for _, tt := range tests {
		st, ok := status.FromError(ToStatus(tt.err))
		assert.True(t, ok)
		assert.Equal(t, tt.want, st.Code(), tt.err.Error())
	}
	assert.NoError(t, ToStatus(nil))
}
