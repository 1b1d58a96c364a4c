package config

import (
	"testing"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.API.BaseURL == "" || cfg.AI.Model != "mistral-nemo" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if Exists() {
		t.Fatal("Exists must be false before first Save")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://pnl.example.com/api"
	cfg.General.DefaultMode = "account"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists must be true after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.API.BaseURL != "https://pnl.example.com/api" || got.General.DefaultMode != "account" {
		t.Fatalf("round trip lost values: %+v", got)
	}
}
