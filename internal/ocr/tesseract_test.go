package ocr

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t230\t130\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t12\t200\t20\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t12\t40\t20\t91.5\t地積\n" +
	"5\t1\t1\t1\t1\t2\t60\t12\t70\t20\t88\t120.50\n" +
	"5\t1\t1\t1\t1\t3\t140\t12\t10\t20\t50\t \n"

func TestParseTSV(t *testing.T) {
	toks := ParseTSV(sampleTSV)
	require.Len(t, toks, 2)
	assert.Equal(t, "地積", toks[0].Text)
	assert.Equal(t, image.Rect(10, 12, 50, 32), toks[0].Box)
	assert.InDelta(t, 0.915, toks[0].Confidence, 1e-9)
	assert.Equal(t, "120.50", toks[1].Text)
	assert.Equal(t, image.Rect(60, 12, 130, 32), toks[1].Box)
}

type scriptedRunner struct {
	name string
	args []string
	out  []byte
	err  error
}

func (s *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	return s.out, []byte("stderr text"), s.err
}

func TestTesseractRecognizerArgs(t *testing.T) {
	run := &scriptedRunner{out: []byte(sampleTSV)}
	rec := NewTesseractRecognizer(Config{PSM: 6, TessdataDir: "/tess"}, run, nil)

	toks, err := rec.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 20, 20)))
	require.NoError(t, err)
	assert.Len(t, toks, 2)
	assert.Equal(t, "tesseract", run.name)
	require.GreaterOrEqual(t, len(run.args), 2)
	assert.Equal(t, []string{"stdout", "-l", "jpn+eng", "--tessdata-dir", "/tess", "--psm", "6", "tsv"}, run.args[1:])
}

func TestTesseractRecognizerFailure(t *testing.T) {
	run := &scriptedRunner{err: errors.New("exit status 1")}
	rec := NewTesseractRecognizer(Config{}, run, nil)

	_, err := rec.Recognize(context.Background(), image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stderr text")
}
