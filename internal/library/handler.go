package library

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

type Handler struct {
	service  *Service
	maxBytes int64
}

// NewHandler creates the library HTTP handler. Request bodies larger than
// maxBytes are rejected.
func NewHandler(service *Service, maxBytes int64) *Handler {
	return &Handler{service: service, maxBytes: maxBytes}
}

// Mount registers the library routes on r.
func (h *Handler) Mount(r *mux.Router) {
	r.HandleFunc("/drawings", h.List).Methods("GET")
	r.HandleFunc("/drawings", h.Create).Methods("POST")
	r.HandleFunc("/drawings/{drawingId}", h.Get).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}", h.Update).Methods("PUT")
	r.HandleFunc("/drawings/{drawingId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/drawings/{drawingId}/meta", h.Meta).Methods("GET")
	r.HandleFunc("/drawings/{drawingId}/preview.png", h.Preview).Methods("GET")

	// Preflight requests are answered by the CORS middleware; the route only
	// has to match.
	r.PathPrefix("/drawings").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

type saveRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (saveRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "drawing too large"})
			return req, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if len(req.Document) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document is required"})
		return req, false
	}
	return req, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	drawing, err := h.service.Create(r.Context(), req.Name, req.Document)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, drawing)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	drawings, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, drawings)
}

// Get downloads the drawing document as drawing.json.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["drawingId"]

	doc, err := h.service.Document(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="drawing.json"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["drawingId"]

	drawing, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, drawing)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["drawingId"]
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	drawing, err := h.service.Update(r.Context(), id, req.Name, req.Document)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, drawing)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["drawingId"]

	if err := h.service.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["drawingId"]

	rc, err := h.service.Preview(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Debug("write preview", "id", id, "error", err)
	}
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrInvalidName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
	case errors.Is(err, ErrInvalidDocument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
