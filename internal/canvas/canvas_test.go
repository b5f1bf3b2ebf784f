package canvas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
	"github.com/joseph-ayodele/estate-toolkit/internal/geometry"
)

var red = color.RGBA{R: 0xff, A: 0xff}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	b, err := EncodePNG(img)
	require.NoError(t, err)
	return b
}

func isWhite(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r > 0xf000 && g < 0x1000 && b < 0x1000
}

func TestNormalizePageLandscapeIsCenteredVertically(t *testing.T) {
	p, err := NormalizePage(solid(200, 100, red), 1, 1000)
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 1000, 1000), p.Canvas.Bounds())
	assert.Equal(t, 5.0, p.Geometry.Scale)
	assert.Equal(t, 250.0, p.Geometry.OffsetY)
	assert.Equal(t, 0.0, p.Geometry.OffsetX)

	assert.True(t, isWhite(p.Canvas.At(500, 100)), "top band is padding")
	assert.True(t, isWhite(p.Canvas.At(500, 900)), "bottom band is padding")
	assert.True(t, isRed(p.Canvas.At(500, 500)), "content is centered")
	assert.True(t, isRed(p.Canvas.At(2, 500)), "content touches the left edge")
}

func TestNormalizePagePortraitTouchesTopAndBottom(t *testing.T) {
	p, err := NormalizePage(solid(50, 400, red), 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2.5, p.Geometry.Scale)
	assert.Equal(t, 437.5, p.Geometry.OffsetX)
	assert.True(t, isRed(p.Canvas.At(500, 2)))
	assert.True(t, isWhite(p.Canvas.At(100, 500)))
}

func TestDecodeImageRejectsGarbage(t *testing.T) {
	_, _, err := DecodeImage("scan.jpg", []byte("not an image"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDecode))

	_, _, err = DecodeImage("empty.png", nil)
	assert.True(t, errors.Is(err, common.ErrDecode))
}

// fakePoppler emulates pdfinfo and pdftoppm.
type fakePoppler struct {
	pages int
	calls [][]string
	fail  bool
}

func (f *fakePoppler) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.fail {
		return nil, []byte("Syntax Error: Couldn't find trailer dictionary"), errors.New("exit status 1")
	}
	switch name {
	case "pdfinfo":
		return []byte("Producer: test\nPages:          " + strconv.Itoa(f.pages) + "\n"), nil, nil
	case "pdftoppm":
		prefix := args[len(args)-1]
		last := f.pages
		for i, a := range args {
			if a == "-l" {
				last, _ = strconv.Atoi(args[i+1])
			}
		}
		if last > f.pages {
			last = f.pages
		}
		for i := 1; i <= last; i++ {
			img := solid(100+i, 141, red)
			b, _ := EncodePNG(img)
			if err := os.WriteFile(fmt.Sprintf("%s-%0*d.png", prefix, len(strconv.Itoa(f.pages)), i), b, 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func TestNormalizeMultiPagePDF(t *testing.T) {
	runner := &fakePoppler{pages: 12}
	n := NewNormalizer(Config{Size: 1000, MaxPages: 10, Workers: 3}, NewRasterizer("", "", 2, runner, nil), nil)

	doc, err := n.Normalize(context.Background(), Source{Name: "plan.pdf", Data: []byte("%PDF-1.7")})
	require.NoError(t, err)
	defer doc.Close()

	require.Len(t, doc.Pages, 10)
	for i, p := range doc.Pages {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, 100+i+1, p.Geometry.SourceWidth, "pages keep their order")
	}

	call := strings.Join(runner.calls[0], " ")
	assert.Contains(t, call, "-r 144 -png -f 1 -l 10")
}

func TestNormalizeRejectsWholeUploadOnDecodeFailure(t *testing.T) {
	n := NewNormalizer(Config{}, nil, nil)
	good := Source{Name: "a.png", Data: pngBytes(t, solid(10, 10, red))}
	bad := Source{Name: "b.png", Data: []byte("\x89PNG broken")}

	doc, err := n.Normalize(context.Background(), good, bad)
	assert.Nil(t, doc)
	assert.True(t, errors.Is(err, common.ErrDecode))
}

func TestNormalizePDFToolFailureIsDecodeError(t *testing.T) {
	n := NewNormalizer(Config{}, NewRasterizer("", "", 2, &fakePoppler{fail: true}, nil), nil)
	_, err := n.Normalize(context.Background(), Source{Name: "x.pdf", Data: []byte("%PDF")})
	assert.True(t, errors.Is(err, common.ErrDecode))
}

func TestPageCount(t *testing.T) {
	r := NewRasterizer("", "", 2, &fakePoppler{pages: 7}, nil)
	n, err := r.PageCount(context.Background(), "x.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestSourceFormat(t *testing.T) {
	assert.Equal(t, "PDF", Source{Name: "a.PDF"}.Format())
	assert.Equal(t, "IMAGE", Source{Name: "blob", MIMEType: "image/jpeg"}.Format())
	assert.Equal(t, "IMAGE", Source{Name: "blob", Data: pngBytes(t, solid(2, 2, red))}.Format())
	assert.Equal(t, "", Source{Name: "notes.txt", Data: []byte("hello")}.Format())
}

func TestSessionReplaceReleasesPreviousDocument(t *testing.T) {
	n := NewNormalizer(Config{}, nil, nil)
	first, err := n.Normalize(context.Background(), Source{Name: "a.png", Data: pngBytes(t, solid(20, 10, red))})
	require.NoError(t, err)
	second, err := n.Normalize(context.Background(), Source{Name: "b.png", Data: pngBytes(t, solid(10, 20, red))})
	require.NoError(t, err)

	var s Session
	g1 := s.Replace(first)
	g2 := s.Replace(second)

	assert.True(t, first.Closed())
	assert.Nil(t, first.Canvas(1))
	assert.NotNil(t, second.Canvas(1))

	_, err = s.Overlay(g1, 1, nil)
	assert.ErrorIs(t, err, common.ErrStaleDocument)

	img, err := s.Overlay(g2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 10, 20), img.Bounds())
}

func TestRenderOverlayHighlightsOnSourcePage(t *testing.T) {
	src := solid(2000, 1000, color.White)
	p, err := NormalizePage(src, 1, 1000)
	require.NoError(t, err)

	out := RenderOverlay(p, []Highlight{
		{Label: "landArea", Box: geometry.BoundingBox{YMin: 400, XMin: 100, YMax: 450, XMax: 300, Page: 1}},
		{Label: "other page", Box: geometry.BoundingBox{YMin: 0, XMin: 0, YMax: 1000, XMax: 1000, Page: 2}},
	})
	assert.Equal(t, src.Bounds(), out.Bounds())

	// canvas y 412..467 -> page y (412-250)/0.5=324 .. 434; x 100..300 -> 200..600
	assert.False(t, isWhite(out.At(400, 380)), "inside highlight")
	assert.True(t, isWhite(out.At(400, 300)), "above highlight")
	assert.True(t, isWhite(out.At(1500, 380)), "right of highlight")
}
