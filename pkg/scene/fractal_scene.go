package scene

import (
	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/lights"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
)

// NewFractalScene places a Mandelbulb and a Menger sponge on a ground plane
func NewFractalScene(cameraOverrides ...camera.Config) *Scene {
	s := New("fractal")
	s.CameraConfig = mergeCameraConfig(camera.Config{
		Center:      core.NewVec3(0.6, 2.2, 4.5),
		LookAt:      core.NewVec3(0.6, 0.9, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        40.0,
		Filter:      camera.NewLanczosFilter(2, 2),
	}, cameraOverrides...)

	// Fractal distance estimates are not exact bounds, so march conservatively
	s.MarchConfig.OverRelaxation = 1.0
	s.MarchConfig.MaxSteps = 1024
	s.LightSelection = lights.SelectPower
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel:           128,
		MaxDepth:                  6,
		RussianRouletteMinBounces: 2,
	}

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.45, 0.45, 0.5)))
	bulb := s.AddMaterial(material.NewDiffuse(oklchToRGB(0.7, 0.15, 40)))
	sponge := s.AddMaterial(material.NewDiffuse(oklchToRGB(0.75, 0.12, 220)))

	g := s.SDF
	plane := g.Plane(core.NewVec3(0, 1, 0), 0, ground)
	mandelbulb := g.Mandelbulb(core.NewVec3(-0.7, 1.1, 0), 1.0, 8, 12, bulb)
	menger := g.Translate(g.RotateY(g.Menger(core.Vec3{}, 0.7, 4, sponge), 0.5, 0), core.NewVec3(1.6, 0.7, -0.3), core.Vec3{})
	g.SetRoot(g.Union(plane, mandelbulb, menger))

	s.AddSphereLight(core.NewVec3(-6, 10, 6), 2, core.NewVec3(20, 19, 17))
	s.AddPointLight(core.NewVec3(3, 3, 3), core.NewVec3(4, 5, 7))
	return s
}
