package ocr

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

type fakeRecognizer struct {
	mu     sync.Mutex
	calls  int
	sizes  []image.Rectangle
	script func(call int, ctx context.Context) ([]Token, error)
}

func (f *fakeRecognizer) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.sizes = append(f.sizes, img.Bounds())
	f.mu.Unlock()
	return f.script(call, ctx)
}

func whiteCanvas() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

func tokens(ts ...Token) func(int, context.Context) ([]Token, error) {
	return func(int, context.Context) ([]Token, error) { return ts, nil }
}

func TestRefineNoTokensReturnsOriginalBox(t *testing.T) {
	rec := &fakeRecognizer{script: tokens()}
	r := NewRefiner(rec, Options{}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 1}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestRefineSkipsEmptyBox(t *testing.T) {
	rec := &fakeRecognizer{script: tokens(Token{Text: "1", Box: image.Rect(0, 0, 5, 5)})}
	r := NewRefiner(rec, Options{}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 100, XMax: 300, Page: 1}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.Zero(t, rec.calls)
}

func TestRefineTranslatesCropLocalToken(t *testing.T) {
	rec := &fakeRecognizer{script: tokens(Token{Text: "120.5㎡", Box: image.Rect(20, 30, 60, 50)})}
	r := NewRefiner(rec, Options{Padding: 15}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 2}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.NoError(t, err)
	// crop origin is (85,85) after padding
	assert.Equal(t, geometry.BoundingBox{YMin: 115, XMin: 105, YMax: 135, XMax: 145, Page: 2}, got)
	require.Len(t, rec.sizes, 1)
	assert.Equal(t, image.Rect(0, 0, 230, 130), rec.sizes[0])
}

func TestRefineScalesOnSmallerCanvas(t *testing.T) {
	canvas := image.NewRGBA(image.Rect(0, 0, 500, 500))
	rec := &fakeRecognizer{script: tokens(Token{Text: "8", Box: image.Rect(10, 10, 20, 20)})}
	r := NewRefiner(rec, Options{Padding: 10}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 200, Page: 1}

	got, err := r.Refine(context.Background(), canvas, in)
	require.NoError(t, err)
	// padded box 90..210 -> canvas pixels 45..105; token at 55..65 -> normalized 110..130
	assert.InDelta(t, 110, got.XMin, 1e-9)
	assert.InDelta(t, 110, got.YMin, 1e-9)
	assert.InDelta(t, 130, got.XMax, 1e-9)
	assert.InDelta(t, 130, got.YMax, 1e-9)
}

func TestRefinePrefersDigitToken(t *testing.T) {
	rec := &fakeRecognizer{script: tokens(
		Token{Text: "地積", Box: image.Rect(0, 0, 10, 10)},
		Token{Text: "１２０", Box: image.Rect(50, 0, 80, 10)},
		Token{Text: "99", Box: image.Rect(90, 0, 100, 10)},
	)}
	r := NewRefiner(rec, Options{Padding: 15}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 1}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.NoError(t, err)
	assert.Equal(t, 135.0, got.XMin)
	assert.Equal(t, 165.0, got.XMax)
}

func TestRefineFallsBackToFirstToken(t *testing.T) {
	rec := &fakeRecognizer{script: tokens(
		Token{Text: "木造", Box: image.Rect(5, 5, 25, 15)},
		Token{Text: "瓦葺", Box: image.Rect(30, 5, 50, 15)},
	)}
	r := NewRefiner(rec, Options{Padding: 15}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 1}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.NoError(t, err)
	assert.Equal(t, 90.0, got.XMin)
	assert.Equal(t, 110.0, got.XMax)
}

func TestRefineRecognizerErrorIsRefinementError(t *testing.T) {
	rec := &fakeRecognizer{script: func(int, context.Context) ([]Token, error) {
		return nil, errors.New("engine crashed")
	}}
	r := NewRefiner(rec, Options{}, nil)
	in := geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 1}

	got, err := r.Refine(context.Background(), whiteCanvas(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRefinement)
	assert.Equal(t, in, got)
}

func targetsFixture() []Target {
	return []Target{
		{Key: "landArea", Box: geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 200, XMax: 300, Page: 1}},
		{Key: "floorArea", Box: geometry.BoundingBox{YMin: 400, XMin: 100, YMax: 500, XMax: 300, Page: 1}},
		{Key: "roadPrice", Box: geometry.BoundingBox{YMin: 600, XMin: 100, YMax: 700, XMax: 300, Page: 1}},
	}
}

func pagesOf(img image.Image) PageSource {
	return func(page int) image.Image {
		if page == 1 {
			return img
		}
		return nil
	}
}

func TestRefineAllCompletes(t *testing.T) {
	rec := &fakeRecognizer{script: tokens(Token{Text: "1", Box: image.Rect(15, 15, 35, 25)})}
	r := NewRefiner(rec, Options{Padding: 15, Timeout: time.Second}, nil)

	in := targetsFixture()
	out, rep := r.RefineAll(context.Background(), pagesOf(whiteCanvas()), in)

	assert.False(t, rep.TimedOut)
	assert.NoError(t, rep.Err)
	assert.Equal(t, 3, rep.Refined)
	assert.Equal(t, 0, rep.Abandoned)
	assert.Equal(t, geometry.BoundingBox{YMin: 100, XMin: 100, YMax: 110, XMax: 120, Page: 1}, out[0].Box)
	assert.Equal(t, 400.0, out[1].Box.YMin)
	// input slice untouched
	assert.Equal(t, 300.0, in[0].Box.XMax)
}

func TestRefineAllTimeoutKeepsCompletedFields(t *testing.T) {
	rec := &fakeRecognizer{script: func(call int, ctx context.Context) ([]Token, error) {
		if call == 1 {
			return []Token{{Text: "1", Box: image.Rect(15, 15, 35, 25)}}, nil
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := NewRefiner(rec, Options{Padding: 15, Timeout: 50 * time.Millisecond}, nil)

	in := targetsFixture()
	out, rep := r.RefineAll(context.Background(), pagesOf(whiteCanvas()), in)

	assert.True(t, rep.TimedOut)
	assert.Equal(t, 1, rep.Refined)
	assert.Equal(t, 2, rep.Abandoned)
	assert.Equal(t, 110.0, out[0].Box.YMax)
	assert.Equal(t, in[1].Box, out[1].Box)
	assert.Equal(t, in[2].Box, out[2].Box)
}

func TestRefineAllFailureIsSwallowed(t *testing.T) {
	rec := &fakeRecognizer{script: func(call int, _ context.Context) ([]Token, error) {
		if call == 2 {
			return nil, errors.New("bad crop")
		}
		return []Token{{Text: "7", Box: image.Rect(15, 15, 35, 25)}}, nil
	}}
	r := NewRefiner(rec, Options{Padding: 15, Timeout: time.Second}, nil)

	in := targetsFixture()
	out, rep := r.RefineAll(context.Background(), pagesOf(whiteCanvas()), in)

	require.Error(t, rep.Err)
	assert.ErrorIs(t, rep.Err, common.ErrRefinement)
	assert.Equal(t, 1, rep.Refined)
	assert.Equal(t, in[1].Box, out[1].Box)
	assert.Equal(t, in[2].Box, out[2].Box)
	assert.Equal(t, 2, rec.calls)
}

func TestRefineAllMissingPageIsFailure(t *testing.T) {
	rec := &fakeRecognizer{script: tokens()}
	r := NewRefiner(rec, Options{Timeout: time.Second}, nil)

	in := []Target{{Key: "landArea", Box: geometry.BoundingBox{YMin: 1, XMin: 1, YMax: 9, XMax: 9, Page: 3}}}
	out, rep := r.RefineAll(context.Background(), pagesOf(whiteCanvas()), in)

	assert.ErrorIs(t, rep.Err, common.ErrRefinement)
	assert.Equal(t, in, out)
}

func TestHasDigit(t *testing.T) {
	assert.True(t, HasDigit("120㎡"))
	assert.True(t, HasDigit("１２０"))
	assert.False(t, HasDigit("木造"))
	assert.False(t, HasDigit(""))
}
