package scene

import (
	"github.com/df07/go-sdf-pathtracer/pkg/animation"
	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
)

// NewMotionScene shows moving primitives, a spinning torus and a dollying
// camera over a shutter interval of [0, 1]
func NewMotionScene(cameraOverrides ...camera.Config) *Scene {
	s := New("motion")

	start := animation.LookAt(core.NewVec3(0, 1, 4), core.NewVec3(0, 0.5, 0), core.NewVec3(0, 1, 0))
	end := animation.LookAt(core.NewVec3(0.3, 1.1, 3.8), core.NewVec3(0, 0.5, 0), core.NewVec3(0, 1, 0))
	track, err := animation.NewTrack(
		animation.Keyframe{Time: 0, Transform: start},
		animation.Keyframe{Time: 1, Transform: end},
	)
	if err != nil {
		// Both keyframes are fixed above
		panic(err)
	}

	s.CameraConfig = mergeCameraConfig(camera.Config{
		Center:       core.NewVec3(0, 1, 4),
		LookAt:       core.NewVec3(0, 0.5, 0),
		Up:           core.NewVec3(0, 1, 0),
		Width:        400,
		AspectRatio:  16.0 / 9.0,
		VFov:         40.0,
		ShutterOpen:  0,
		ShutterClose: 1,
		Track:        track,
	}, cameraOverrides...)
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel:           128,
		MaxDepth:                  8,
		RussianRouletteMinBounces: 3,
	}

	ground := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.7, 0.2, 0.2)))
	blue := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.2, 0.3, 0.7)))
	gold := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.6, 0.2), 0.1))

	g := s.SDF
	floor := g.Plane(core.NewVec3(0, 1, 0), 0, ground)
	rolling := g.MovingSphere(core.NewVec3(-1.2, 0.35, 0), core.NewVec3(0.8, 0, 0), 0.35, red)
	sliding := g.Translate(g.Box(core.Vec3{}, core.NewVec3(0.25, 0.25, 0.25), blue), core.NewVec3(1, 0.25, -0.5), core.NewVec3(0, 0, 0.6))
	spinning := g.Translate(g.RotateY(g.Torus(core.Vec3{}, 0.3, 0.08, gold), 0, 3), core.NewVec3(0.1, 0.6, -1), core.Vec3{})
	comet := s.AddEmissiveSphere(core.NewVec3(-1, 1.6, -1.5), core.NewVec3(1.5, 0, 0), 0.1, core.NewVec3(25, 20, 12))
	g.SetRoot(g.Union(floor, rolling, sliding, spinning, comet))

	s.AddSphereLight(core.NewVec3(5, 8, 5), 1.5, core.NewVec3(18, 18, 18))
	return s
}
