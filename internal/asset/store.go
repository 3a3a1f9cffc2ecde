package asset

import (
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/vecnote/vecnote/internal/raster"
	"github.com/vecnote/vecnote/internal/typeid"
)

var ErrNotFound = errors.New("preview not found")

// Store keeps rendered drawing previews as PNG files, one per drawing.
type Store struct {
	dir string // directory to store preview files
}

// NewStore creates a preview store that keeps files in dir.
func NewStore(dir string) *Store {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create preview dir", "error", err, "dir", dir)
	}
	return &Store{dir: dir}
}

func (s *Store) path(drawingID string) (string, error) {
	if err := typeid.Validate(drawingID, typeid.PrefixDrawing); err != nil {
		return "", fmt.Errorf("preview for %q: %w", drawingID, err)
	}
	return filepath.Join(s.dir, drawingID+".png"), nil
}

// Save writes the preview of a drawing, replacing any previous one. The
// file is written beside its final name and renamed into place.
func (s *Store) Save(drawingID string, img image.Image) error {
	dst, err := s.path(drawingID)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, drawingID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create preview file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := raster.EncodePNG(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

// Open returns the stored preview of a drawing as PNG.
func (s *Store) Open(drawingID string) (io.ReadCloser, error) {
	p, err := s.path(drawingID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, drawingID)
	}
	return f, err
}

// Delete removes a drawing's preview. A missing preview is not an error.
func (s *Store) Delete(drawingID string) error {
	p, err := s.path(drawingID)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Serve returns an http.Handler that serves stored previews under prefix.
// Previews change when a drawing is saved, so clients must revalidate.
func (s *Store) Serve(prefix string) http.Handler {
	fs := http.FileServer(http.Dir(s.dir))
	return http.StripPrefix(prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ".png") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-cache")
		fs.ServeHTTP(w, r)
	}))
}
