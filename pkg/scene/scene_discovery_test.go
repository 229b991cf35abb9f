package scene

import (
	"errors"
	"testing"

	"github.com/df07/go-sdf-pathtracer/pkg/camera"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"cornell-box", "Cornell Box"},
		{"motion_blur", "Motion Blur"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := titleCase(tc.input)
			if result != tc.expected {
				t.Errorf("titleCase(%q) = %q, want %q", tc.input, result, tc.expected)
			}
		})
	}
}

// TestBuiltInScenesPreprocess checks that every preset builds a valid scene
func TestBuiltInScenesPreprocess(t *testing.T) {
	scenes := ListScenes()
	if len(scenes) != len(builtInScenes) {
		t.Fatalf("Expected %d scenes, got %d", len(builtInScenes), len(scenes))
	}

	for _, info := range scenes {
		t.Run(info.ID, func(t *testing.T) {
			sc, err := Load(info.ID, camera.Config{Width: 32})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if sc.CameraConfig.Width != 32 {
				t.Errorf("Expected width override 32, got %d", sc.CameraConfig.Width)
			}
			if err := sc.Preprocess(); err != nil {
				t.Fatalf("Preprocess: %v", err)
			}
			if sc.Camera == nil || sc.Marcher == nil || sc.LightSampler == nil {
				t.Errorf("Expected Preprocess to build camera, marcher and light sampler")
			}
			if sc.LightSampler.Len() != len(sc.Lights) {
				t.Errorf("Expected %d lights in the sampler, got %d", len(sc.Lights), sc.LightSampler.Len())
			}
		})
	}

	if _, err := Load("dragon"); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}
