// Package gosseract runs the refinement recognizer in-process through the
// tesseract C API instead of shelling out to the CLI. It needs cgo and the
// tesseract/leptonica headers, so it is only compiled with -tags gosseract.
package gosseract

type Config struct {
	Lang        string // "jpn+eng"
	TessdataDir string
	PSM         int
}
