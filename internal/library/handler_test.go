package library

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	r := mux.NewRouter()
	NewHandler(NewService(newMemQueries(), nil, 40, 30), 1<<16).Mount(r.PathPrefix("/api").Subrouter())
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandlerRoundTrip(t *testing.T) {
	h := newTestServer(t)

	body, _ := json.Marshal(map[string]any{"name": "Sketch", "document": json.RawMessage(sampleDoc)})
	rec := do(t, h, http.MethodPost, "/api/drawings", string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	var created Drawing
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	rec = do(t, h, http.MethodGet, "/api/drawings/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "drawing.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	var doc struct {
		Background string            `json:"background"`
		Elements   []json.RawMessage `json:"elements"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatal(err)
	}
	if doc.Background != "#fafafa" || len(doc.Elements) != 2 {
		t.Errorf("document = %+v", doc)
	}

	rec = do(t, h, http.MethodGet, "/api/drawings", "")
	var list []Drawing
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 1 {
		t.Errorf("list = %v, %v", list, err)
	}

	rec = do(t, h, http.MethodPut, "/api/drawings/"+created.ID, `{"document": []}`)
	if rec.Code != http.StatusOK {
		t.Errorf("update status = %d: %s", rec.Code, rec.Body)
	}

	rec = do(t, h, http.MethodGet, "/api/drawings/"+created.ID+"/preview.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("preview status = %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	if rec = do(t, h, http.MethodDelete, "/api/drawings/"+created.ID, ""); rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if rec = do(t, h, http.MethodGet, "/api/drawings/"+created.ID+"/meta", ""); rec.Code != http.StatusNotFound {
		t.Errorf("meta after delete status = %d", rec.Code)
	}
}

func TestHandlerAcceptsPreflight(t *testing.T) {
	h := newTestServer(t)
	for _, path := range []string{"/api/drawings", "/api/drawings/drw_x", "/api/drawings/drw_x/preview.png"} {
		if rec := do(t, h, http.MethodOptions, path, ""); rec.Code != http.StatusNoContent {
			t.Errorf("OPTIONS %s status = %d, want 204", path, rec.Code)
		}
	}
}

func TestHandlerRejectsBadRequests(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name, body string
		want       int
	}{
		{"malformed json", `{"name":`, http.StatusBadRequest},
		{"missing document", `{"name": "x"}`, http.StatusBadRequest},
		{"missing name", `{"document": []}`, http.StatusBadRequest},
		{"bad element", `{"name": "x", "document": [{"type": "blob"}]}`, http.StatusBadRequest},
		{"too large", `{"name": "x", "document": "` + strings.Repeat("a", 1<<17) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/drawings", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}
