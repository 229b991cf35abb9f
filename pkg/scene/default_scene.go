package scene

import (
	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
)

// NewDefaultScene creates spheres and CSG shapes on a ground plane under a
// sphere light
func NewDefaultScene(cameraOverrides ...camera.Config) *Scene {
	s := New("default")
	s.CameraConfig = mergeCameraConfig(camera.Config{
		Center:        core.NewVec3(0, 0.75, 2), // Position camera higher and farther back
		LookAt:        core.NewVec3(0, 0.5, -1), // Look at the sphere center
		Up:            core.NewVec3(0, 1, 0),
		Width:         400,
		AspectRatio:   16.0 / 9.0,
		VFov:          40.0,
		Aperture:      0.05,
		FocusDistance: 0.0, // Auto-calculate focus distance
		Filter:        camera.NewMitchellFilter(2, 1.0/3, 1.0/3),
	}, cameraOverrides...)

	green := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.8, 0.8, 0.0).Multiply(0.6)))
	blue := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.1, 0.2, 0.5)))
	red := s.AddMaterial(material.NewDiffuse(core.NewVec3(0.65, 0.25, 0.2)))
	silver := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.8, 0.8), 0.0))
	gold := s.AddMaterial(material.NewSpecular(core.NewVec3(0.8, 0.6, 0.2), 0.3))
	glass := s.AddMaterial(material.NewDielectric(1.5))

	g := s.SDF
	ground := g.Plane(core.NewVec3(0, 1, 0), 0, green)
	center := g.Sphere(core.NewVec3(0, 0.5, -1), 0.5, red)
	left := g.Sphere(core.NewVec3(-1, 0.5, -1), 0.5, silver)
	right := g.Sphere(core.NewVec3(1, 0.5, -1), 0.5, gold)
	solidGlass := g.Sphere(core.NewVec3(0.5, 0.25, -0.5), 0.25, glass)

	// Rounded box with a spherical bite taken out
	box := g.Box(core.NewVec3(-0.5, 0.2, -0.4), core.NewVec3(0.15, 0.2, 0.15), blue)
	bite := g.Sphere(core.NewVec3(-0.4, 0.35, -0.3), 0.15, blue)
	carved := g.Subtraction(box, bite)

	// Torus blended into a small cylinder
	torus := g.Torus(core.NewVec3(0, 0, 0), 0.18, 0.05, gold)
	post := g.Cylinder(core.NewVec3(0, 0, 0), 0.06, 0.15, gold)
	ring := g.Translate(g.RotateY(g.SmoothUnion(torus, post, 0.08), 0.6, 0), core.NewVec3(1.1, 0.15, -0.2), core.Vec3{})

	g.SetRoot(g.Union(ground, center, left, right, solidGlass, carved, ring))

	s.AddSphereLight(
		core.NewVec3(30, 30.5, 15),     // position
		10,                             // radius
		core.NewVec3(15.0, 14.0, 13.0), // emission
	)
	s.SamplingConfig = SamplingConfig{
		SamplesPerPixel:           200,
		MaxDepth:                  50,
		RussianRouletteMinBounces: 20, // Need a lot of bounces for complex glass
	}
	return s
}

// mergeCameraConfig applies the non-zero fields of an override on top of base
func mergeCameraConfig(base camera.Config, overrides ...camera.Config) camera.Config {
	if len(overrides) == 0 {
		return base
	}
	o := overrides[0]
	result := base
	if !o.Center.IsZero() {
		result.Center = o.Center
	}
	if !o.LookAt.IsZero() {
		result.LookAt = o.LookAt
	}
	if !o.Up.IsZero() {
		result.Up = o.Up
	}
	if o.Width != 0 {
		result.Width = o.Width
	}
	if o.AspectRatio != 0 {
		result.AspectRatio = o.AspectRatio
	}
	if o.VFov != 0 {
		result.VFov = o.VFov
	}
	if o.Aperture != 0 {
		result.Aperture = o.Aperture
	}
	if o.FocusDistance != 0 {
		result.FocusDistance = o.FocusDistance
	}
	if o.ShutterOpen != 0 || o.ShutterClose != 0 {
		result.ShutterOpen, result.ShutterClose = o.ShutterOpen, o.ShutterClose
	}
	if o.Track != nil {
		result.Track = o.Track
	}
	if o.Filter.Radius != 0 {
		result.Filter = o.Filter
	}
	return result
}
