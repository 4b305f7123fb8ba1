package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flowgrid/flowgrid/internal/config"
	"github.com/flowgrid/flowgrid/internal/store"
)

func TestEditorDefaultsWithoutFile(t *testing.T) {
	cfg := &config.Config{}

	got, err := cfg.EditorDefaults()
	if err != nil {
		t.Fatalf("EditorDefaults: %v", err)
	}
	if got != store.DefaultSettings() {
		t.Errorf("settings = %+v, want built-in defaults", got)
	}
}

func TestEditorDefaultsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "editor.yaml")
	content := []byte("snapToGrid: true\nsnapGrid: [10, 10]\ndragThreshold: 4\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{EditorDefaultsFile: path}
	got, err := cfg.EditorDefaults()
	if err != nil {
		t.Fatalf("EditorDefaults: %v", err)
	}

	if !got.SnapToGrid || got.SnapGrid != [2]float64{10, 10} || got.DragThreshold != 4 {
		t.Errorf("overridden fields not applied: %+v", got)
	}
	// Fields absent from the file keep their defaults.
	if got.MaxZoom != store.DefaultSettings().MaxZoom {
		t.Errorf("maxZoom = %v, want default kept", got.MaxZoom)
	}
	if got.AutoPanMargin != store.DefaultSettings().AutoPanMargin {
		t.Errorf("autoPanMargin = %v, want default kept", got.AutoPanMargin)
	}
}

func TestEditorDefaultsMissingFile(t *testing.T) {
	cfg := &config.Config{EditorDefaultsFile: "/nonexistent/editor.yaml"}
	if _, err := cfg.EditorDefaults(); err == nil {
		t.Error("missing defaults file should be reported")
	}
}
