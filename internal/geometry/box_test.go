package geometry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxJSON(t *testing.T) {
	var b BoundingBox
	require.NoError(t, json.Unmarshal([]byte(`{"box":[100,200,150,400],"page":2}`), &b))
	assert.Equal(t, BoundingBox{YMin: 100, XMin: 200, YMax: 150, XMax: 400, Page: 2}, b)

	out, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, `{"box":[100,200,150,400],"page":2}`, string(out))

	require.NoError(t, json.Unmarshal([]byte(`{"box":[1,2,3,4]}`), &b))
	assert.Equal(t, 1, b.Page)

	assert.Error(t, json.Unmarshal([]byte(`{"box":[1,2,3],"page":1}`), &b))
}

func TestBoundingBoxValidate(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		ok   bool
	}{
		{"valid", BoundingBox{YMin: 1, XMin: 2, YMax: 3, XMax: 4, Page: 1}, true},
		{"zero area is still valid", BoundingBox{YMin: 5, XMin: 5, YMax: 5, XMax: 5, Page: 1}, true},
		{"inverted", BoundingBox{YMin: 10, XMin: 2, YMax: 3, XMax: 4, Page: 1}, false},
		{"out of range", BoundingBox{YMin: 0, XMin: 0, YMax: 1001, XMax: 4, Page: 1}, false},
		{"negative", BoundingBox{YMin: -1, XMin: 0, YMax: 10, XMax: 4, Page: 1}, false},
		{"page zero", BoundingBox{YMin: 0, XMin: 0, YMax: 10, XMax: 4, Page: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.box.Validate() == nil)
		})
	}
}

func TestPadClampsToCanvas(t *testing.T) {
	b := BoundingBox{YMin: 5, XMin: 500, YMax: 20, XMax: 995, Page: 1}.Pad(15)
	assert.Equal(t, BoundingBox{YMin: 0, XMin: 485, YMax: 35, XMax: 1000, Page: 1}, b)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, BoundingBox{YMin: 10, XMin: 10, YMax: 10, XMax: 50}.IsEmpty())
	assert.True(t, BoundingBox{}.IsEmpty())
	assert.False(t, BoundingBox{YMin: 10, XMin: 10, YMax: 11, XMax: 50}.IsEmpty())
}
