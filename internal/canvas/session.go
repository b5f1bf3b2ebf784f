package canvas

import (
	"image"
	"sync"

	"github.com/joseph-ayodele/estate-toolkit/internal/common"
)

// Session holds the document currently on screen. Loading a new document
// releases the previous one, and overlays requested against an older
// generation are refused.
type Session struct {
	mu  sync.Mutex
	doc *Document
	gen uint64
}

// Replace installs doc, closes the previous document and returns the new generation.
func (s *Session) Replace(doc *Document) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil && s.doc != doc {
		s.doc.Close()
	}
	s.doc = doc
	s.gen++
	return s.gen
}

// Overlay renders highlights on a page of the document loaded at generation gen.
func (s *Session) Overlay(gen uint64, page int, highlights []Highlight) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || gen != s.gen {
		return nil, common.ErrStaleDocument
	}
	p := s.doc.Page(page)
	if p == nil {
		return nil, common.ErrNotFound
	}
	return RenderOverlay(p, highlights), nil
}

// Close releases the current document.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		s.doc.Close()
		s.doc = nil
	}
	s.gen++
}
