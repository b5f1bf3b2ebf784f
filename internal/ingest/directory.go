package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/estate-toolkit/internal/canvas"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// FileError records a path the walk could not visit.
type FileError struct {
	Path string
	Err  string
}

// Walk lists the supported documents under root in lexical order. Unreadable
// entries are counted and reported, not fatal.
func Walk(ctx context.Context, root string, includeExts []string, skipHidden bool) ([]string, []FileError, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}
	exts := ExtSet(includeExts)

	var paths []string
	var failures []FileError
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			failures = append(failures, FileError{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !matches(path, exts) {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, failures, stats, fmt.Errorf("walk: %w", err)
	}
	return paths, failures, stats, nil
}

// LoadSource reads a file into an upload source.
func LoadSource(path string) (canvas.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return canvas.Source{}, fmt.Errorf("read %s: %w", path, err)
	}
	return canvas.Source{
		Name:     filepath.Base(path),
		MIMEType: mime.TypeByExtension(strings.ToLower(filepath.Ext(path))),
		Data:     data,
	}, nil
}
