package canvas

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// DecodeImage decodes any registered raster format. Failures are DecodeErrors.
func DecodeImage(name string, data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", common.NewDecodeError(name+": empty file", nil)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", common.NewDecodeError(name+": unsupported or corrupt image", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", common.NewDecodeError(name+": image has no pixels", nil)
	}
	return img, format, nil
}

// EncodePNG renders a canvas for the vision model or for disk.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
