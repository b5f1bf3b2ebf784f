package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/estate-toolkit/internal/command"
)

// TSV columns: level page_num block_num par_num line_num word_num left top width height conf text
const (
	tsvLevel = iota
	_
	_
	_
	_
	_
	tsvLeft
	tsvTop
	tsvWidth
	tsvHeight
	tsvConf
	tsvText
	tsvColumns
)

const wordLevel = "5"

type Config struct {
	Tesseract   string // binary name or absolute path; if empty -> "tesseract"
	Lang        string // default "jpn+eng"
	TessdataDir string
	PSM         int // e.g., 6 is good for uniform block of text
	OEM         int // 1 = LSTM; leave 0 to use default
}

// TesseractRecognizer shells out to the tesseract CLI in TSV mode.
type TesseractRecognizer struct {
	cfg    Config
	runner command.Runner
	logger *slog.Logger
}

func NewTesseractRecognizer(cfg Config, runner command.Runner, logger *slog.Logger) *TesseractRecognizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "jpn+eng"
	}
	return &TesseractRecognizer{cfg: cfg, runner: runner, logger: logger}
}

func (t *TesseractRecognizer) Recognize(ctx context.Context, img image.Image) ([]Token, error) {
	tmpDir, err := os.MkdirTemp("", "estate-ocr-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		if err := os.RemoveAll(path); err != nil {
			t.logger.Warn("failed to remove temp dir", "dir", path, "error", err)
		}
	}(tmpDir)

	in := filepath.Join(tmpDir, "crop.png")
	f, err := os.Create(in)
	if err != nil {
		return nil, err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	// tesseract <file> stdout -l <lang> [--tessdata-dir d] [--psm n] [--oem n] tsv
	args := []string{in, "stdout", "-l", t.cfg.Lang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(t.cfg.OEM))
	}
	args = append(args, "tsv")

	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract TSV: %w: %s", err, command.Truncate(string(errb), 512))
	}
	return ParseTSV(string(out)), nil
}

// ParseTSV extracts word-level tokens in reading order. Rows without text or
// with conf -1 (layout rows) are skipped.
func ParseTSV(tsv string) []Token {
	var tokens []Token
	for i, ln := range strings.Split(tsv, "\n") {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(strings.TrimRight(ln, "\r"), "\t")
		if len(cols) < tsvColumns {
			continue
		}
		if cols[tsvLevel] != wordLevel {
			continue
		}
		text := strings.TrimSpace(cols[tsvText])
		if text == "" || cols[tsvConf] == "-1" {
			continue
		}
		left, err1 := strconv.Atoi(cols[tsvLeft])
		top, err2 := strconv.Atoi(cols[tsvTop])
		w, err3 := strconv.Atoi(cols[tsvWidth])
		h, err4 := strconv.Atoi(cols[tsvHeight])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}
		conf, _ := strconv.ParseFloat(cols[tsvConf], 64)
		tokens = append(tokens, Token{
			Text:       text,
			Box:        image.Rect(left, top, left+w, top+h),
			Confidence: conf / 100.0,
		})
	}
	return tokens
}
