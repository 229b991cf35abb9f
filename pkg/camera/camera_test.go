package camera

import (
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sdf-pathtracer/pkg/animation"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// constSampler returns the same value for every draw
type constSampler float64

func (s constSampler) Get1D() float64 { return float64(s) }
func (s constSampler) Get2D() core.Vec2 {
	return core.NewVec2(float64(s), float64(s))
}
func (s constSampler) Get3D() core.Vec3 {
	return core.NewVec3(float64(s), float64(s), float64(s))
}

func testConfig() Config {
	return Config{
		Center:      core.NewVec3(0, 0, 0),
		LookAt:      core.NewVec3(0, 0, -1),
		Up:          core.NewVec3(0, 1, 0),
		Width:       400,
		AspectRatio: 1.0,
		VFov:        45.0,
	}
}

func TestCameraForward(t *testing.T) {
	cam, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	forward := cam.Forward()
	expected := core.NewVec3(0, 0, -1)
	if forward.Subtract(expected).Length() > 1e-9 {
		t.Errorf("Expected forward direction %v, got %v", expected, forward)
	}

	// The ray through the exact image centre is the viewing direction
	ray := cam.GetRay(cam.Width()/2, cam.Height()/2, constSampler(0))
	if ray.Direction.Dot(expected) < 0.999 {
		t.Errorf("Expected centre ray near %v, got %v", expected, ray.Direction)
	}
}

func TestCameraFieldOfView(t *testing.T) {
	cfg := testConfig()
	cfg.VFov = 90
	cam, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Offsets of -0.5 put the sample on the top-left pixel corner, which is
	// the corner of the image plane
	ray := cam.GetRay(0, 0, constSampler(0))
	expected := core.NewVec3(-1, 1, -1).Normalize()
	if ray.Direction.Subtract(expected).Length() > 1e-2 {
		t.Errorf("Expected top-left corner ray %v, got %v", expected, ray.Direction)
	}
	if math.Abs(ray.Direction.Length()-1) > 1e-12 {
		t.Errorf("Expected unit direction, got length %f", ray.Direction.Length())
	}
}

func TestCameraDepthOfField(t *testing.T) {
	cfg := testConfig()
	cfg.Aperture = 0.5
	cfg.FocusDistance = 3
	cam, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sampler := core.NewStreamSampler(4, 0, 0)
	var focus core.Vec3
	for i := 0; i < 200; i++ {
		// Fix the filter offset so only the lens position varies
		ray := cam.GetRay(123, 77, &lensOnly{s: sampler})
		if ray.Origin.Length() > cfg.Aperture/2+1e-9 {
			t.Fatalf("Origin %v outside the lens", ray.Origin)
		}
		tFocus := 3 / -ray.Direction.Z
		p := ray.At(tFocus)
		if i == 0 {
			focus = p
		} else if p.Subtract(focus).Length() > 1e-9 {
			t.Fatalf("Rays do not converge on the focus plane: %v vs %v", p, focus)
		}
	}
}

// lensOnly pins the filter offset and shutter time and lets the lens vary.
// GetRay draws the filter sample first and the lens sample second.
type lensOnly struct {
	s     core.Sampler
	calls int
}

func (l *lensOnly) Get1D() float64 { return 0.5 }
func (l *lensOnly) Get2D() core.Vec2 {
	l.calls++
	if l.calls == 1 {
		return core.NewVec2(0.5, 0.5)
	}
	return l.s.Get2D()
}
func (l *lensOnly) Get3D() core.Vec3 { return l.s.Get3D() }

func TestCameraShutter(t *testing.T) {
	cfg := testConfig()
	cfg.ShutterOpen = 0.25
	cfg.ShutterClose = 0.75
	start := animation.LookAt(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1), core.NewVec3(0, 1, 0))
	end := animation.LookAt(core.NewVec3(2, 0, 0), core.NewVec3(2, 0, -1), core.NewVec3(0, 1, 0))
	track, err := animation.NewTrack(
		animation.Keyframe{Time: 0, Transform: start},
		animation.Keyframe{Time: 1, Transform: end},
	)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}
	cfg.Track = track
	cam, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sampler := core.NewStreamSampler(8, 0, 0)
	for i := 0; i < 100; i++ {
		ray := cam.GetRay(10, 10, sampler)
		if ray.Time < 0.25 || ray.Time > 0.75 {
			t.Fatalf("Ray time %f outside the shutter interval", ray.Time)
		}
		if math.Abs(ray.Origin.X-2*ray.Time) > 1e-9 {
			t.Fatalf("Expected camera at x=%f at time %f, got %v", 2*ray.Time, ray.Time, ray.Origin)
		}
	}
}

func TestFilterSampler(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
	}{
		{"Box", NewBoxFilter(0.5)},
		{"Mitchell", NewMitchellFilter(2, 1.0/3, 1.0/3)},
		{"Lanczos", NewLanczosFilter(2, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := NewFilterSampler(tt.filter)
			sampler := core.NewStreamSampler(6, 0, 0)
			var sumAbs, sum float64
			const n = 20000
			for i := 0; i < n; i++ {
				x := fs.Sample(sampler.Get1D())
				if math.Abs(x) > tt.filter.Radius+1e-12 {
					t.Fatalf("Offset %f outside radius %f", x, tt.filter.Radius)
				}
				sum += x
				sumAbs += math.Abs(x)
			}
			if mean := sum / n; math.Abs(mean) > 0.02 {
				t.Errorf("Expected symmetric offsets, got mean %f", mean)
			}
			// Peaked filters concentrate samples well inside the support
			if tt.filter.Kind != BoxFilter && sumAbs/n > tt.filter.Radius/2 {
				t.Errorf("Expected offsets concentrated near zero, got mean |x| %f", sumAbs/n)
			}
		})
	}

	if w := NewMitchellFilter(2, 1.0/3, 1.0/3).Evaluate(0); math.Abs(w-(6-2.0/3)/6) > 1e-12 {
		t.Errorf("Unexpected Mitchell weight at 0: %f", w)
	}
	if w := NewLanczosFilter(2, 2).Evaluate(0); w != 1 {
		t.Errorf("Expected Lanczos weight 1 at 0, got %f", w)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"Zero width", func(c *Config) { c.Width = 0 }},
		{"Bad fov", func(c *Config) { c.VFov = 180 }},
		{"Inverted shutter", func(c *Config) { c.ShutterOpen, c.ShutterClose = 1, 0 }},
		{"Up parallel to view", func(c *Config) { c.Up = core.NewVec3(0, 0, 1) }},
		{"Negative aperture", func(c *Config) { c.Aperture = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
