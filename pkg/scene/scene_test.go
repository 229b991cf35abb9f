package scene

import (
	"errors"
	"testing"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/medium"
)

func minimalScene() *Scene {
	s := New("minimal")
	s.CameraConfig.Center = core.NewVec3(0, 1, 3)
	s.CameraConfig.LookAt = core.NewVec3(0, 0, 0)
	s.CameraConfig.Up = core.NewVec3(0, 1, 0)
	s.CameraConfig.Width = 16
	s.CameraConfig.AspectRatio = 1
	s.CameraConfig.VFov = 40
	mat := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)))
	s.SDF.SetRoot(s.SDF.Sphere(core.Vec3{}, 1, mat))
	return s
}

func TestSceneValidate(t *testing.T) {
	if err := minimalScene().Preprocess(); err != nil {
		t.Fatalf("Expected minimal scene to preprocess, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(s *Scene)
	}{
		{"Missing material", func(s *Scene) { s.Materials = nil }},
		{"Bad medium", func(s *Scene) { s.Medium = &medium.Homogeneous{SigmaT: -1} }},
		{"Bad camera", func(s *Scene) { s.CameraConfig.Width = 0 }},
		{"Bad march config", func(s *Scene) { s.MarchConfig.MaxSteps = 0 }},
		{"Negative sky", func(s *Scene) { s.TopColor = core.NewVec3(-1, 0, 0) }},
		{"No geometry", func(s *Scene) { s.SDF = nil }},
		{"Zero distance", func(s *Scene) { s.MaxDistance = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := minimalScene()
			tt.mutate(s)
			if err := s.Preprocess(); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("Expected ErrInvalidScene, got %v", err)
			}
		})
	}
}

func TestSceneRejectsTransformedEmitter(t *testing.T) {
	s := minimalScene()
	lamp := s.AddEmissiveSphere(core.NewVec3(0, 3, 0), core.Vec3{}, 0.2, core.NewVec3(5, 5, 5))
	moved := s.SDF.Translate(lamp, core.NewVec3(1, 0, 0), core.Vec3{})
	s.SDF.SetRoot(s.SDF.Union(s.SDF.Root(), moved))

	if err := s.Preprocess(); !errors.Is(err, ErrInvalidScene) {
		t.Errorf("Expected ErrInvalidScene for an emitter under a transform, got %v", err)
	}
}

func TestBackground(t *testing.T) {
	s := New("sky")
	if got := s.Background(core.NewVec3(0, 1, 0)); got != s.TopColor {
		t.Errorf("Expected top colour straight up, got %v", got)
	}
	if got := s.Background(core.NewVec3(0, -1, 0)); got != s.BottomColor {
		t.Errorf("Expected bottom colour straight down, got %v", got)
	}
}
