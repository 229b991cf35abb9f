package scene

import (
	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
)

// NewCornellScene creates a Cornell box built from thin SDF boxes and lit by a
// visible emissive sphere under the ceiling
func NewCornellScene(cameraOverrides ...camera.Config) *Scene {
	s := New("cornell")
	s.CameraConfig = mergeCameraConfig(camera.Config{
		Center:      core.NewVec3(0.5, 0.5, -1.44), // Position camera outside the box looking in
		LookAt:      core.NewVec3(0.5, 0.5, 0),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,
		VFov:        40.0,
	}, cameraOverrides...)
	s.TopColor = core.Vec3{}
	s.BottomColor = core.Vec3{}
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel:           150,
		MaxDepth:                  40,
		RussianRouletteMinBounces: 4,
	}

	white := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.73, 0.73, 0.73)))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.65, 0.05, 0.05)))
	green := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.12, 0.45, 0.15)))
	metal := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.8, 0.9), 0.0))
	glass := s.AddMaterial(material.NewDielectric(1.5))

	// Walls are slabs of half thickness w just outside the unit cube
	const w = 0.01
	g := s.SDF
	floor := g.Box(core.NewVec3(0.5, -w, 0.5), core.NewVec3(0.5+w, w, 0.5+w), white)
	ceiling := g.Box(core.NewVec3(0.5, 1+w, 0.5), core.NewVec3(0.5+w, w, 0.5+w), white)
	back := g.Box(core.NewVec3(0.5, 0.5, 1+w), core.NewVec3(0.5+w, 0.5+w, w), white)
	left := g.Box(core.NewVec3(-w, 0.5, 0.5), core.NewVec3(w, 0.5+w, 0.5+w), red)
	right := g.Box(core.NewVec3(1+w, 0.5, 0.5), core.NewVec3(w, 0.5+w, 0.5+w), green)

	leftSphere := g.Sphere(core.NewVec3(0.333, 0.149, 0.305), 0.149, metal)
	rightSphere := g.Sphere(core.NewVec3(0.667, 0.162, 0.632), 0.162, glass)

	lamp := s.AddEmissiveSphere(core.NewVec3(0.5, 0.92, 0.5), core.Vec3{}, 0.06, core.NewVec3(40, 40, 40))

	g.SetRoot(g.Union(floor, ceiling, back, left, right, leftSphere, rightSphere, lamp))
	return s
}
