package main

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		width       int
		expectError bool
	}{
		// Built-in scenes
		{"default scene", "default", 0, false},
		{"cornell scene", "cornell-box", 0, false},
		{"sphere grid scene", "sphere-grid", 0, false},
		{"fractal scene", "fractal", 0, false},
		{"fog scene", "fog", 0, false},
		{"motion blur scene", "motion-blur", 0, false},
		{"width override", "default", 64, false},

		// Invalid scenes
		{"unknown scene", "nonexistent", 0, true},
		{"empty scene name", "", 0, true},
		{"negative width", "default", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := createScene(tt.sceneType, tt.width)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error for scene type '%s', but got none", tt.sceneType)
				}
				if sc != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if sc.CameraConfig.Width <= 0 {
				t.Errorf("Scene camera width should be positive, got %d", sc.CameraConfig.Width)
			}
			if tt.width > 0 && sc.CameraConfig.Width != tt.width {
				t.Errorf("Expected width override %d, got %d", tt.width, sc.CameraConfig.Width)
			}
			if sc.SamplingConfig.SamplesPerPixel <= 0 {
				t.Errorf("Scene samples per pixel should be positive, got %d", sc.SamplingConfig.SamplesPerPixel)
			}
		})
	}

	if _, err := createScene("nonexistent", 0); !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestBuildSettings(t *testing.T) {
	sc, err := createScene("default", 0)
	if err != nil {
		t.Fatalf("createScene: %v", err)
	}

	settings := buildSettings(sc, Config{Passes: 3})
	if settings.SamplesPerPixel != sc.SamplingConfig.SamplesPerPixel {
		t.Errorf("Expected scene samples %d, got %d", sc.SamplingConfig.SamplesPerPixel, settings.SamplesPerPixel)
	}
	if settings.Integrator.MaxDepth != sc.SamplingConfig.MaxDepth {
		t.Errorf("Expected scene depth %d, got %d", sc.SamplingConfig.MaxDepth, settings.Integrator.MaxDepth)
	}
	if settings.MaxPasses != 3 {
		t.Errorf("Expected 3 passes, got %d", settings.MaxPasses)
	}

	settings = buildSettings(sc, Config{Samples: 9, MaxDepth: 4, Workers: 2, Seed: 7, DisableNEE: true})
	if settings.SamplesPerPixel != 9 || settings.Integrator.MaxDepth != 4 {
		t.Errorf("Expected flag overrides 9/4, got %d/%d", settings.SamplesPerPixel, settings.Integrator.MaxDepth)
	}
	if settings.NumWorkers != 2 || settings.Integrator.Seed != 7 || !settings.Integrator.DisableNEE {
		t.Errorf("Expected workers, seed and NEE flags to carry over, got %+v", settings)
	}
	if err := settings.Validate(); err != nil {
		t.Errorf("Expected valid settings, got %v", err)
	}
}

func TestCreateOutputDir(t *testing.T) {
	base := t.TempDir()

	dir, err := createOutputDir(base, "cornell-box")
	if err != nil {
		t.Fatalf("createOutputDir: %v", err)
	}
	if dir != filepath.Join(base, "cornell-box") {
		t.Errorf("Expected %s, got %s", filepath.Join(base, "cornell-box"), dir)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("Expected directory %s to exist, got %v", dir, err)
	}

	// Creating it again is not an error
	if _, err := createOutputDir(base, "cornell-box"); err != nil {
		t.Errorf("Expected existing directory to be accepted, got %v", err)
	}
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA64(image.Rect(0, 0, 3, 2))

	tests := []struct {
		format string
		decode func(f *os.File) (image.Image, error)
	}{
		{"png", func(f *os.File) (image.Image, error) { return png.Decode(f) }},
		{"tiff", func(f *os.File) (image.Image, error) { return tiff.Decode(f) }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			filename := filepath.Join(dir, "out."+tt.format)
			if err := saveImage(filename, tt.format, img); err != nil {
				t.Fatalf("saveImage: %v", err)
			}

			f, err := os.Open(filename)
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer f.Close()

			decoded, err := tt.decode(f)
			if err != nil {
				t.Fatalf("Expected a decodable %s, got %v", tt.format, err)
			}
			if decoded.Bounds() != img.Bounds() {
				t.Errorf("Expected bounds %v, got %v", img.Bounds(), decoded.Bounds())
			}
		})
	}
}
