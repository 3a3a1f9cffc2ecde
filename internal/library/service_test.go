package library

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

// memQueries is an in-memory Querier.
type memQueries struct {
	mu   sync.Mutex
	rows map[string]DrawingRow
	now  time.Time
}

func newMemQueries() *memQueries {
	return &memQueries{rows: map[string]DrawingRow{}, now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memQueries) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *memQueries) CreateDrawing(_ context.Context, id, name string, doc []byte) (DrawingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.tick()
	row := DrawingRow{ID: id, Name: name, Document: doc, CreatedAt: t, UpdatedAt: t}
	m.rows[id] = row
	return row, nil
}

func (m *memQueries) GetDrawing(_ context.Context, id string) (DrawingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return DrawingRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (m *memQueries) ListDrawings(context.Context) ([]DrawingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DrawingRow, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memQueries) UpdateDrawing(_ context.Context, id, name string, doc []byte) (DrawingRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return DrawingRow{}, pgx.ErrNoRows
	}
	row.Name, row.Document, row.UpdatedAt = name, doc, m.tick()
	m.rows[id] = row
	return row, nil
}

func (m *memQueries) DeleteDrawing(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.rows, id)
	return nil
}

// memPreviews is an in-memory PreviewStore that counts renders.
type memPreviews struct {
	saved   map[string]image.Image
	saves   int
	deletes int
}

func (p *memPreviews) Save(id string, img image.Image) error {
	p.saved[id] = img
	p.saves++
	return nil
}

func (p *memPreviews) Open(id string) (io.ReadCloser, error) {
	img, ok := p.saved[id]
	if !ok {
		return nil, errors.New("no preview")
	}
	pr, pw := io.Pipe()
	go func() { pw.CloseWithError(png.Encode(pw, img)) }()
	return pr, nil
}

func (p *memPreviews) Delete(id string) error {
	delete(p.saved, id)
	p.deletes++
	return nil
}

const sampleDoc = `{"background":"#fafafa","elements":[
	{"type":"rect","attrs":{"x":"0","y":"0","width":"40","height":"30","fill":"#ff0000"},"start":"0","end":"10","layer":"0"},
	{"type":"text","attrs":{"x":"5","y":"20"},"text":"hi","layer":"1"}
]}`

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	previews := &memPreviews{saved: map[string]image.Image{}}
	svc := NewService(newMemQueries(), previews, 40, 30)

	d, err := svc.Create(ctx, "  Sketch  ", []byte(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}
	if d.Name != "Sketch" || d.Background != "#fafafa" || d.Elements != 2 {
		t.Errorf("created = %+v", d)
	}

	got, err := svc.Get(ctx, d.ID)
	if err != nil || got.ID != d.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	updated, err := svc.Update(ctx, d.ID, "", []byte(`[{"type":"circle","attrs":{"cx":"5","cy":"5","r":"3"}}]`))
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Sketch" || updated.Elements != 1 || updated.Background != "#ffffff" {
		t.Errorf("updated = %+v", updated)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %v, %v", list, err)
	}

	if err := svc.Delete(ctx, d.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemQueries(), nil, 40, 30)

	tests := []struct {
		name, doc string
		want      error
	}{
		{"", sampleDoc, ErrInvalidName},
		{"ok", `{"elements": [`, ErrInvalidDocument},
		{"ok", `{"elements": [{"type": "star"}]}`, ErrInvalidDocument},
		{"ok", `{"elements": [{"type": "rect", "attrs": {"x": "0"}, "layer": "9"}]}`, ErrInvalidDocument},
	}
	for _, tt := range tests {
		if _, err := svc.Create(ctx, tt.name, []byte(tt.doc)); !errors.Is(err, tt.want) {
			t.Errorf("Create(%q, %.20q) error = %v, want %v", tt.name, tt.doc, err, tt.want)
		}
	}
}

func TestPreviewIsCachedUntilUpdate(t *testing.T) {
	ctx := context.Background()
	previews := &memPreviews{saved: map[string]image.Image{}}
	svc := NewService(newMemQueries(), previews, 40, 30)
	d, err := svc.Create(ctx, "Sketch", []byte(sampleDoc))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		rc, err := svc.Preview(ctx, d.ID)
		if err != nil {
			t.Fatal(err)
		}
		img, err := png.Decode(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		if b := img.Bounds(); b.Dx() > 40 || b.Dy() > 30 {
			t.Errorf("preview is %dx%d", b.Dx(), b.Dy())
		}
	}
	if previews.saves != 1 {
		t.Errorf("rendered %d times, want 1", previews.saves)
	}

	if _, err := svc.Update(ctx, d.ID, "", []byte(sampleDoc)); err != nil {
		t.Fatal(err)
	}
	if _, ok := previews.saved[d.ID]; ok {
		t.Error("update kept the stale preview")
	}
	if _, err := svc.Preview(ctx, "drw_missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Preview of missing drawing error = %v", err)
	}
}
