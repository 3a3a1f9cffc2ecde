// Package library stores named drawings in PostgreSQL and serves them over
// HTTP. Documents are kept verbatim in the flat drawing format.
package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/raster"
	"github.com/vecnote/vecnote/internal/typeid"
)

const maxNameLength = 200

var (
	ErrNotFound        = errors.New("drawing not found")
	ErrInvalidName     = errors.New("invalid drawing name")
	ErrInvalidDocument = errors.New("invalid drawing document")
)

// PreviewStore caches rendered previews.
type PreviewStore interface {
	Save(drawingID string, img image.Image) error
	Open(drawingID string) (io.ReadCloser, error)
	Delete(drawingID string) error
}

type Service struct {
	queries  Querier
	previews PreviewStore

	previewWidth, previewHeight int
}

// NewService creates a library service. previews may be nil, in which case
// previews are rendered on every request.
func NewService(queries Querier, previews PreviewStore, previewWidth, previewHeight int) *Service {
	return &Service{
		queries:       queries,
		previews:      previews,
		previewWidth:  previewWidth,
		previewHeight: previewHeight,
	}
}

// Drawing describes a stored drawing without its elements.
type Drawing struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Background string    `json:"background"`
	Elements   int       `json:"elements"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// normalize decodes a posted document, legacy arrays included, checks that
// every element materializes and re-encodes it in the canonical form.
func normalize(data []byte) ([]byte, error) {
	doc, err := document.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if _, err := doc.Shapes(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	out, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return name, nil
}

func rowToDrawing(row DrawingRow) (*Drawing, error) {
	doc, err := document.Decode(row.Document)
	if err != nil {
		return nil, fmt.Errorf("decode stored drawing %s: %w", row.ID, err)
	}
	return &Drawing{
		ID:         row.ID,
		Name:       row.Name,
		Background: doc.Background,
		Elements:   len(doc.Elements),
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}, nil
}

func notFound(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func (s *Service) Create(ctx context.Context, name string, data []byte) (*Drawing, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.CreateDrawing(ctx, typeid.NewDrawingID(), name, normalized)
	if err != nil {
		return nil, fmt.Errorf("create drawing: %w", err)
	}
	slog.Info("drawing created", "id", row.ID, "name", row.Name)
	return rowToDrawing(row)
}

func (s *Service) Get(ctx context.Context, id string) (*Drawing, error) {
	row, err := s.queries.GetDrawing(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	return rowToDrawing(row)
}

func (s *Service) List(ctx context.Context) ([]Drawing, error) {
	rows, err := s.queries.ListDrawings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	drawings := make([]Drawing, 0, len(rows))
	for _, row := range rows {
		d, err := rowToDrawing(row)
		if err != nil {
			slog.Warn("skipping unreadable drawing", "id", row.ID, "error", err)
			continue
		}
		drawings = append(drawings, *d)
	}
	return drawings, nil
}

// Document returns the stored document in canonical form.
func (s *Service) Document(ctx context.Context, id string) ([]byte, error) {
	row, err := s.queries.GetDrawing(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	doc, err := document.Decode(row.Document)
	if err != nil {
		return nil, fmt.Errorf("decode stored drawing %s: %w", id, err)
	}
	return doc.Encode()
}

// Update replaces a drawing's document, and its name when name is not
// empty. The cached preview is dropped.
func (s *Service) Update(ctx context.Context, id, name string, data []byte) (*Drawing, error) {
	current, err := s.queries.GetDrawing(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	if name == "" {
		name = current.Name
	}
	if name, err = cleanName(name); err != nil {
		return nil, err
	}
	normalized, err := normalize(data)
	if err != nil {
		return nil, err
	}

	row, err := s.queries.UpdateDrawing(ctx, id, name, normalized)
	if err != nil {
		return nil, notFound(err, id)
	}
	s.dropPreview(id)
	slog.Info("drawing updated", "id", id)
	return rowToDrawing(row)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.queries.DeleteDrawing(ctx, id); err != nil {
		return notFound(err, id)
	}
	s.dropPreview(id)
	slog.Info("drawing deleted", "id", id)
	return nil
}

func (s *Service) dropPreview(id string) {
	if s.previews == nil {
		return
	}
	if err := s.previews.Delete(id); err != nil {
		slog.Warn("drop preview", "id", id, "error", err)
	}
}

// Preview returns a PNG thumbnail of the drawing, rendering and caching it
// when no cached copy exists.
func (s *Service) Preview(ctx context.Context, id string) (io.ReadCloser, error) {
	if s.previews != nil {
		if rc, err := s.previews.Open(id); err == nil {
			return rc, nil
		}
	}

	row, err := s.queries.GetDrawing(ctx, id)
	if err != nil {
		return nil, notFound(err, id)
	}
	doc, err := document.Decode(row.Document)
	if err != nil {
		return nil, fmt.Errorf("decode stored drawing %s: %w", id, err)
	}
	img, err := raster.Thumbnail(doc, s.previewWidth, s.previewHeight)
	if err != nil {
		return nil, fmt.Errorf("render preview: %w", err)
	}

	if s.previews != nil {
		if err := s.previews.Save(id, img); err != nil {
			slog.Warn("cache preview", "id", id, "error", err)
		}
	}
	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		return nil, fmt.Errorf("encode preview: %w", err)
	}
	return io.NopCloser(&buf), nil
}
