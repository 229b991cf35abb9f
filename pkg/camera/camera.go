// Package camera turns (pixel, sample) pairs into primary rays with lens and
// shutter jitter.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/animation"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

// Config describes a thin-lens camera
type Config struct {
	Center        core.Vec3 // Camera position
	LookAt        core.Vec3 // Point the camera looks at
	Up            core.Vec3 // Up direction
	Width         int       // Image width in pixels
	AspectRatio   float64   // Width / height
	VFov          float64   // Vertical field of view in degrees
	Aperture      float64   // Lens diameter; 0 gives a pinhole
	FocusDistance float64   // Distance to the plane in focus; 0 uses |LookAt - Center|

	ShutterOpen  float64 // Time the shutter opens
	ShutterClose float64 // Time the shutter closes

	// Track animates the camera placement over time. When nil the camera is
	// fixed at Center looking at LookAt.
	Track *animation.Track

	// Filter is the pixel reconstruction filter. The zero value is a box of
	// radius 0, which is widened to the half-pixel box.
	Filter Filter
}

// Height returns the image height implied by Width and AspectRatio
func (c Config) Height() int {
	h := int(float64(c.Width) / c.AspectRatio)
	if h < 1 {
		h = 1
	}
	return h
}

// ErrInvalidConfig is returned by Config.Validate
var ErrInvalidConfig = errors.New("invalid camera config")

// Validate checks the camera configuration
func (c Config) Validate() error {
	var errs []error
	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("width %d must be positive", c.Width))
	}
	if c.AspectRatio <= 0 {
		errs = append(errs, fmt.Errorf("aspect ratio %g must be positive", c.AspectRatio))
	}
	if c.VFov <= 0 || c.VFov >= 180 {
		errs = append(errs, fmt.Errorf("vertical fov %g must be in (0, 180)", c.VFov))
	}
	if c.Aperture < 0 || c.FocusDistance < 0 {
		errs = append(errs, fmt.Errorf("aperture %g and focus distance %g must not be negative", c.Aperture, c.FocusDistance))
	}
	if c.ShutterClose < c.ShutterOpen {
		errs = append(errs, fmt.Errorf("shutter closes at %g before it opens at %g", c.ShutterClose, c.ShutterOpen))
	}
	if c.Track == nil {
		if c.LookAt.Subtract(c.Center).IsZero() {
			errs = append(errs, errors.New("look-at point coincides with the camera centre"))
		}
		if c.LookAt.Subtract(c.Center).Cross(c.Up).IsZero() {
			errs = append(errs, errors.New("up vector is parallel to the viewing direction"))
		}
	}
	if c.Filter.Radius < 0 {
		errs = append(errs, fmt.Errorf("filter radius %g must not be negative", c.Filter.Radius))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Camera generates primary rays. It is immutable and safe for concurrent use.
type Camera struct {
	config        Config
	width, height int
	halfWidth     float64 // half extent of the image plane at unit distance
	halfHeight    float64
	lensRadius    float64
	focusDistance float64
	track         *animation.Track
	filter        *FilterSampler
}

// New creates a camera from config
func New(config Config) (*Camera, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	focus := config.FocusDistance
	if focus == 0 {
		focus = config.LookAt.Subtract(config.Center).Length()
		if focus == 0 {
			focus = 1
		}
	}

	track := config.Track
	if track == nil {
		track = animation.Static(animation.LookAt(config.Center, config.LookAt, config.Up))
	}

	filter := config.Filter
	if filter.Radius == 0 {
		filter = NewBoxFilter(0.5)
	}

	halfHeight := math.Tan(config.VFov * math.Pi / 180 / 2)
	return &Camera{
		config:        config,
		width:         config.Width,
		height:        config.Height(),
		halfHeight:    halfHeight,
		halfWidth:     halfHeight * float64(config.Width) / float64(config.Height()),
		lensRadius:    config.Aperture / 2,
		focusDistance: focus,
		track:         track,
		filter:        NewFilterSampler(filter),
	}, nil
}

// Width returns the image width in pixels
func (c *Camera) Width() int { return c.width }

// Height returns the image height in pixels
func (c *Camera) Height() int { return c.height }

// Config returns the configuration the camera was built from
func (c *Camera) Config() Config { return c.config }

// GetRay generates the primary ray for pixel (px, py), where py=0 is the top
// row. Draws from sampler in a fixed order: filter offset, lens, time.
func (c *Camera) GetRay(px, py int, sampler core.Sampler) core.Ray {
	filterSample := sampler.Get2D()
	x := float64(px) + 0.5 + c.filter.Sample(filterSample.X)
	y := float64(py) + 0.5 + c.filter.Sample(filterSample.Y)

	// Image plane coordinates in [-1, 1], +v up
	u := 2*x/float64(c.width) - 1
	v := 1 - 2*y/float64(c.height)

	focusPoint := core.NewVec3(u*c.halfWidth*c.focusDistance, v*c.halfHeight*c.focusDistance, -c.focusDistance)

	lensSample := sampler.Get2D()
	var origin core.Vec3
	if c.lensRadius > 0 {
		origin = core.SamplePointInUnitDisk(lensSample).Multiply(c.lensRadius)
	}

	time := c.config.ShutterOpen + sampler.Get1D()*(c.config.ShutterClose-c.config.ShutterOpen)
	placement := c.track.At(time)

	dir := placement.DirToWorld(focusPoint.Subtract(origin)).Normalize()
	return core.NewRayAt(placement.PointToWorld(origin), dir, time)
}

// Forward returns the viewing direction at the shutter-open time
func (c *Camera) Forward() core.Vec3 {
	return c.track.At(c.config.ShutterOpen).DirToWorld(core.NewVec3(0, 0, -1))
}
