package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":8080" {
		t.Errorf("Listen: got %q", cfg.Listen)
	}
	if cfg.Ingest != IngestDial {
		t.Errorf("Ingest: got %q", cfg.Ingest)
	}
	if cfg.TickHz != 60 {
		t.Errorf("TickHz: got %v", cfg.TickHz)
	}
	if cfg.StaleAfter != 500*time.Millisecond {
		t.Errorf("StaleAfter: got %v", cfg.StaleAfter)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STAGEHAND_LISTEN", ":9000")
	t.Setenv("STAGEHAND_INGEST", "listen")
	t.Setenv("STAGEHAND_STALE_AFTER", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != ":9000" || cfg.Ingest != IngestListen || cfg.StaleAfter != 2*time.Second {
		t.Errorf("Overrides not applied: %+v", cfg)
	}
}

func TestValidate_BadIngest(t *testing.T) {
	t.Setenv("STAGEHAND_INGEST", "carrier-pigeon")
	if _, err := Load(); err == nil {
		t.Error("Invalid ingest mode accepted")
	}
}

func TestValidate_BadTickRate(t *testing.T) {
	cfg := Config{Ingest: IngestDial, TickHz: 0}
	if err := cfg.Validate(); err == nil {
		t.Error("Zero tick rate accepted")
	}
}
