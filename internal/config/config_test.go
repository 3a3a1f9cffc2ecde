package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 || cfg.PreviewWidth != 320 || cfg.MaxDocumentBytes != 10<<20 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PREVIEW_DIR", "/tmp/previews")
	t.Setenv("MAX_DOCUMENT_BYTES", "1024")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 9090 || cfg.PreviewDir != "/tmp/previews" || cfg.MaxDocumentBytes != 1024 {
		t.Errorf("env not applied: %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric PORT")
	}
}
