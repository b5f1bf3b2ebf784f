package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatorCollectsAllMissingFields(t *testing.T) {
	var (
		roadPrice *float64
		landArea  = 120.0
		age       *int
		structure = "  "
	)

	err := NewValidator().
		Field("roadPrice", roadPrice, Required).
		Field("landArea", &landArea, Required, Positive).
		Field("age", age, Required).
		Field("structure", structure, Required).
		Err()

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var batch *ValidationErrors
	require.True(t, errors.As(err, &batch))
	assert.Equal(t, []string{"roadPrice", "age", "structure"}, batch.Fields())
	assert.Contains(t, err.Error(), "roadPrice is required; age is required; structure is required")
}

func TestValidatorStopsAtFirstFailingRulePerField(t *testing.T) {
	v := -5.0
	err := NewValidator().Field("floorArea", &v, Required, NonNegative, Positive).Err()

	var batch *ValidationErrors
	require.True(t, errors.As(err, &batch))
	assert.Len(t, batch.Errors, 1)
	assert.Equal(t, "must not be negative", batch.Errors[0].Message)
}

func TestRequired(t *testing.T) {
	f := 0.0
	s := "x"
	now := time.Now()
	var nilTime *time.Time

	tests := []struct {
		name    string
		value   interface{}
		missing bool
	}{
		{"nil", nil, true},
		{"nil float pointer", (*float64)(nil), true},
		{"zero float pointer is present", &f, false},
		{"blank string", " ", true},
		{"string pointer", &s, false},
		{"zero time", time.Time{}, true},
		{"nil time pointer", nilTime, true},
		{"time", now, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Required("f", tt.value)
			assert.Equal(t, tt.missing, got != nil)
		})
	}
}

func TestOneOf(t *testing.T) {
	rule := OneOf("auto", "road", "multiplier")
	assert.Nil(t, rule("method", "road"))
	assert.NotNil(t, rule("method", "guess"))
}

func TestNoErrorsReturnsNil(t *testing.T) {
	x := 1.0
	v := NewValidator().Field("x", &x, Required, Positive)
	assert.False(t, v.HasErrors())
	assert.NoError(t, v.Err())
}

func TestWholeNumber(t *testing.T) {
	whole, frac := 30_000_000.0, 1000.5
	assert.Nil(t, WholeNumber("salesPrice", &whole))
	assert.NotNil(t, WholeNumber("salesPrice", &frac))
	assert.Nil(t, WholeNumber("salesPrice", (*float64)(nil)))
}
