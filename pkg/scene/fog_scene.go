package scene

import (
	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/medium"
)

// NewFogScene fills a box around a few objects with homogeneous fog lit by a
// point light and a visible emissive sphere
func NewFogScene(cameraOverrides ...camera.Config) *Scene {
	s := New("fog")
	s.CameraConfig = mergeCameraConfig(camera.Config{
		Center:      core.NewVec3(0, 1.2, 4),
		LookAt:      core.NewVec3(0, 0.6, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 16.0 / 9.0,
		VFov:        45.0,
	}, cameraOverrides...)
	s.TopColor = core.NewVec3(0.05, 0.05, 0.08)
	s.BottomColor = core.NewVec3(0.02, 0.02, 0.02)
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel:           128,
		MaxDepth:                  12,
		RussianRouletteMinBounces: 3,
	}

	bounds := core.NewAABB(core.NewVec3(-4, 0, -4), core.NewVec3(4, 3, 4))
	s.Medium = &medium.Homogeneous{
		SigmaT: 0.35,
		Albedo: core.NewVec3(0.9, 0.9, 0.9),
		Bounds: &bounds,
	}

	grey := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.6, 0.6, 0.6)))
	mirror := s.AddMaterial(material.NewSpecular(core.NewVec3(0.9, 0.9, 0.9), 0.05))

	g := s.SDF
	floor := g.Plane(core.NewVec3(0, 1, 0), 0, grey)
	pillar := g.Cylinder(core.NewVec3(-1, 0.8, -0.5), 0.25, 0.8, grey)
	ball := g.Sphere(core.NewVec3(0.9, 0.5, 0), 0.5, mirror)
	lamp := s.AddEmissiveSphere(core.NewVec3(0.2, 2.2, -1), core.Vec3{}, 0.15, core.NewVec3(30, 24, 16))
	g.SetRoot(g.Union(floor, pillar, ball, lamp))

	s.AddPointLight(core.NewVec3(-2, 2.5, 1), core.NewVec3(6, 7, 9))
	return s
}
