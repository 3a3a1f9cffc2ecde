package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/vecnote/vecnote/internal/document"
	"github.com/vecnote/vecnote/internal/raster"
)

// DefaultFileName is the download name of exported drawings.
const DefaultFileName = "drawing"

type Handler struct {
	maxBytes      int64
	defaultWidth  int
	defaultHeight int
}

// NewHandler creates the export handler. Posted documents larger than
// maxBytes are rejected; PNGs default to width×height.
func NewHandler(maxBytes int64, width, height int) *Handler {
	return &Handler{maxBytes: maxBytes, defaultWidth: width, defaultHeight: height}
}

// readDocument decodes the posted drawing, legacy arrays included.
func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (*document.Document, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "drawing too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, "failed to read drawing", http.StatusBadRequest)
		return nil, false
	}

	doc, err := document.Decode(data)
	if err == nil {
		_, err = doc.Shapes()
	}
	if err != nil {
		http.Error(w, "invalid drawing: "+err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return doc, true
}

// fileName sanitizes the "name" query parameter for Content-Disposition.
func fileName(r *http.Request) string {
	name := r.URL.Query().Get("name")
	if name == "" {
		return DefaultFileName
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

// JSON handles POST /export/json: the posted drawing is normalized and sent
// back as a download.
func (h *Handler) JSON(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	out, err := doc.Encode()
	if err != nil {
		slog.Error("encode drawing", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.json"`, fileName(r)))
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)

	slog.Info("export complete", "format", "json", "elements", len(doc.Elements))
}

// pngOptions reads width, height, start, end and fit from the query.
func (h *Handler) pngOptions(r *http.Request) (raster.Options, error) {
	q := r.URL.Query()
	opts := raster.Options{Width: h.defaultWidth, Height: h.defaultHeight}

	var err error
	if v := q.Get("width"); v != "" {
		if opts.Width, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("invalid width %q", v)
		}
	}
	if v := q.Get("height"); v != "" {
		if opts.Height, err = strconv.Atoi(v); err != nil {
			return opts, fmt.Errorf("invalid height %q", v)
		}
	}

	start, end := q.Get("start"), q.Get("end")
	if start != "" || end != "" {
		var tr document.TimeRange
		if tr.Start, err = strconv.ParseFloat(start, 64); err != nil {
			return opts, fmt.Errorf("invalid start %q", start)
		}
		if tr.End, err = strconv.ParseFloat(end, 64); err != nil {
			return opts, fmt.Errorf("invalid end %q", end)
		}
		opts.Window = &tr
	}

	if v := q.Get("fit"); v != "" {
		if opts.Fit, err = strconv.ParseBool(v); err != nil {
			return opts, fmt.Errorf("invalid fit %q", v)
		}
		opts.Padding = 10
	}
	return opts, nil
}

// PNG handles POST /export/png: the posted drawing is rasterised.
func (h *Handler) PNG(w http.ResponseWriter, r *http.Request) {
	opts, err := h.pngOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}

	img, err := raster.Render(doc, opts)
	if errors.Is(err, raster.ErrInvalidSize) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("render drawing", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := raster.EncodePNG(&buf, img); err != nil {
		slog.Error("encode png", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.png"`, fileName(r)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	io.Copy(w, &buf)

	slog.Info("export complete", "format", "png", "width", opts.Width, "height", opts.Height)
}
