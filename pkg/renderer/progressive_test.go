package renderer

import (
	"context"
	"errors"
	"image"
	"math"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/df07/go-sdf-pathtracer/pkg/animation"
	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/material"
	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

// testLogger implements core.Logger for testing by discarding all output
type testLogger struct{}

// Ensure testLogger implements core.Logger
var _ core.Logger = (*testLogger)(nil)

func (tl *testLogger) Printf(format string, args ...interface{}) {
	// Discard log output during tests
}

// smallScene is a diffuse sphere on a plane under one sphere light
func smallScene() *scene.Scene {
	sc := scene.New("small")
	sc.CameraConfig.Center = core.NewVec3(0, 1, 3)
	sc.CameraConfig.LookAt = core.NewVec3(0, 0.5, 0)
	sc.CameraConfig.Up = core.NewVec3(0, 1, 0)
	sc.CameraConfig.Width = 16
	sc.CameraConfig.AspectRatio = 1
	sc.CameraConfig.VFov = 40

	grey := sc.AddMaterial(material.NewDiffuse(core.NewVec3(0.5, 0.5, 0.5)))
	red := sc.AddMaterial(material.NewDiffuse(core.NewVec3(0.7, 0.2, 0.2)))
	g := sc.SDF
	g.SetRoot(g.Union(g.Plane(core.NewVec3(0, 1, 0), 0, grey), g.Sphere(core.NewVec3(0, 0.5, 0), 0.5, red)))
	sc.AddSphereLight(core.NewVec3(2, 4, 2), 0.5, core.NewVec3(20, 20, 20))
	return sc
}

func testSettings(spp int) Settings {
	settings := DefaultSettings()
	settings.SamplesPerPixel = spp
	settings.TileSize = 8
	settings.NumWorkers = 2
	settings.Integrator.LaneCount = 16
	return settings
}

func TestProgressiveSampleCalculation(t *testing.T) {
	// Test the sample calculation logic without creating a full renderer
	settings := DefaultSettings()
	settings.InitialSamples = 1
	settings.SamplesPerPixel = 50
	settings.MaxPasses = 7

	pr := &Progressive{settings: settings}

	// Pass 1: 1 sample
	// Pass 2-6: (50-1)/6 = 8.16 -> 8 samples per pass -> 1 + 8*1 = 9, 1 + 8*2 = 17, etc.
	// Pass 7: 50 (final pass gets all remaining)
	expectedTotalSamples := []int{1, 9, 17, 25, 33, 41, 50}

	for pass := 1; pass <= 7; pass++ {
		totalSamples := pr.getSamplesForPass(pass)

		if totalSamples != expectedTotalSamples[pass-1] {
			t.Errorf("Pass %d: expected %d total samples, got %d",
				pass, expectedTotalSamples[pass-1], totalSamples)
		}
	}

	pr.settings.MaxPasses = 1
	if got := pr.getSamplesForPass(1); got != 50 {
		t.Errorf("Single pass: expected 50 samples, got %d", got)
	}
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.TileSize != 64 {
		t.Errorf("Expected default tile size 64, got %d", settings.TileSize)
	}
	if settings.InitialSamples != 1 {
		t.Errorf("Expected default initial samples 1, got %d", settings.InitialSamples)
	}
	if settings.MaxPasses != 7 {
		t.Errorf("Expected default max passes 7, got %d", settings.MaxPasses)
	}
	if err := settings.Validate(); err != nil {
		t.Errorf("Expected default settings to be valid, got %v", err)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"Zero samples", func(s *Settings) { s.SamplesPerPixel = 0 }},
		{"Zero passes", func(s *Settings) { s.MaxPasses = 0 }},
		{"Initial above total", func(s *Settings) { s.InitialSamples = s.SamplesPerPixel + 1 }},
		{"Zero tile size", func(s *Settings) { s.TileSize = 0 }},
		{"Negative workers", func(s *Settings) { s.NumWorkers = -1 }},
		{"Bad integrator", func(s *Settings) { s.Integrator.MaxDepth = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidSettings) {
				t.Errorf("Expected ErrInvalidSettings, got %v", err)
			}
		})
	}
}

func TestNewTileGrid(t *testing.T) {
	// Test tile grid generation for a 400x225 image with 64x64 tiles
	width, height, tileSize := 400, 225, 64
	tiles := NewTileGrid(width, height, tileSize)

	expectedTilesX := (width + tileSize - 1) / tileSize   // 7 tiles
	expectedTilesY := (height + tileSize - 1) / tileSize  // 4 tiles
	expectedTotalTiles := expectedTilesX * expectedTilesY // 28 tiles

	if len(tiles) != expectedTotalTiles {
		t.Errorf("Expected %d tiles, got %d", expectedTotalTiles, len(tiles))
	}

	// Test that tiles cover the entire image without gaps or overlaps
	covered := make([][]bool, height)
	for y := range covered {
		covered[y] = make([]bool, width)
	}

	for i, tile := range tiles {
		if tile.ID != i {
			t.Errorf("Expected tile %d to have ID %d", i, tile.ID)
		}
		for y := tile.Bounds.Min.Y; y < tile.Bounds.Max.Y; y++ {
			for x := tile.Bounds.Min.X; x < tile.Bounds.Max.X; x++ {
				if x >= width || y >= height {
					t.Errorf("Tile %d extends beyond image bounds at (%d,%d)", tile.ID, x, y)
				}
				if covered[y][x] {
					t.Errorf("Pixel (%d,%d) is covered by multiple tiles", x, y)
				}
				covered[y][x] = true
			}
		}
	}

	// Verify all pixels are covered
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if !covered[y][x] {
				t.Errorf("Pixel (%d,%d) is not covered by any tile", x, y)
			}
		}
	}
}

func TestRenderDeterministic(t *testing.T) {
	ctx := context.Background()

	first := testSettings(4)
	first.NumWorkers = 1
	second := testSettings(4)
	second.NumWorkers = 4

	a, _, err := Render(ctx, smallScene(), first, &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	b, _, err := Render(ctx, smallScene(), second, &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if diff := cmp.Diff(a.Color, b.Color); diff != "" {
		t.Errorf("Renders with different worker counts differ (-1 worker +4 workers):\n%s", diff)
	}
}

func TestRenderStats(t *testing.T) {
	buf, stats, err := Render(context.Background(), smallScene(), testSettings(3), &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	pixels := buf.Width * buf.Height
	if stats.TotalPixels != pixels {
		t.Errorf("Expected %d pixels, got %d", pixels, stats.TotalPixels)
	}
	if stats.MinSamples != 3 || stats.MaxSamplesUsed != 3 {
		t.Errorf("Expected every pixel to hold 3 samples, got min %d max %d", stats.MinSamples, stats.MaxSamplesUsed)
	}
	if stats.Paths != int64(3*pixels) {
		t.Errorf("Expected %d paths, got %d", 3*pixels, stats.Paths)
	}
	if stats.Tiles != 4 {
		t.Errorf("Expected 4 tiles of 8x8, got %d", stats.Tiles)
	}

	var retired int64
	for _, n := range stats.Retired {
		retired += n
	}
	if retired != stats.Paths {
		t.Errorf("Expected retirement reasons to sum to %d paths, got %d", stats.Paths, retired)
	}
}

func TestProgressiveMatchesSinglePass(t *testing.T) {
	ctx := context.Background()

	single, _, err := Render(ctx, smallScene(), testSettings(6), &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	settings := testSettings(6)
	settings.InitialSamples = 1
	settings.MaxPasses = 3
	p, err := NewProgressive(smallScene(), settings, &testLogger{})
	if err != nil {
		t.Fatalf("NewProgressive: %v", err)
	}

	passes, errs := p.RenderProgressive(ctx)
	var results []PassResult
	for result := range passes {
		results = append(results, result)
	}
	if err := <-errs; err != nil {
		t.Fatalf("RenderProgressive: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(results))
	}
	for i, result := range results {
		if result.PassNumber != i+1 {
			t.Errorf("Expected pass %d, got %d", i+1, result.PassNumber)
		}
		if result.IsLast != (i == 2) {
			t.Errorf("Pass %d: unexpected IsLast %v", result.PassNumber, result.IsLast)
		}
	}
	if got := results[0].Stats.MaxSamplesUsed; got != 1 {
		t.Errorf("Expected 1 sample after the first pass, got %d", got)
	}

	final := results[2].Buffer
	if final.TotalSamples() != single.TotalSamples() {
		t.Fatalf("Expected %d samples in total, got %d", single.TotalSamples(), final.TotalSamples())
	}
	for i := range single.Color {
		want, got := single.Color[i], final.Color[i]
		if math.Abs(want.X-got.X) > 1e-9 || math.Abs(want.Y-got.Y) > 1e-9 || math.Abs(want.Z-got.Z) > 1e-9 {
			t.Errorf("Pixel %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestMotionBlurZeroShutter(t *testing.T) {
	const shutter = 0.5
	velocity := core.NewVec3(0.4, 0, -0.2)
	center := core.NewVec3(-0.8, 0.3, 0.5)

	up := core.NewVec3(0, 1, 0)
	dolly, err := animation.NewTrack(
		animation.Keyframe{Time: 0, Transform: animation.LookAt(core.NewVec3(0, 1, 3), core.NewVec3(0, 0.5, 0), up)},
		animation.Keyframe{Time: 1, Transform: animation.LookAt(core.NewVec3(0.6, 1.3, 2.6), core.NewVec3(0.1, 0.4, 0), up)},
	)
	if err != nil {
		t.Fatalf("NewTrack: %v", err)
	}

	build := func(center, velocity core.Vec3, track *animation.Track) *scene.Scene {
		sc := smallScene()
		sc.CameraConfig.ShutterOpen = shutter
		sc.CameraConfig.ShutterClose = shutter
		sc.CameraConfig.Track = track
		blue := sc.AddMaterial(material.NewDiffuse(core.NewVec3(0.2, 0.3, 0.7)))
		g := sc.SDF
		g.SetRoot(g.Union(g.Root(), g.MovingSphere(center, velocity, 0.3, blue)))
		return sc
	}

	moving, _, err := Render(context.Background(), build(center, velocity, dolly), testSettings(2), &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	frozen := build(center.Add(velocity.Multiply(shutter)), core.Vec3{}, animation.Static(dolly.At(shutter)))
	static, _, err := Render(context.Background(), frozen, testSettings(2), &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if diff := cmp.Diff(static.Color, moving.Color); diff != "" {
		t.Errorf("Zero-length shutter should freeze motion (-static +moving):\n%s", diff)
	}
}

// TestResumeAfterCancelledPass cancels a pass after its first tile and then
// renders the pass again; every pixel must hold each sample exactly once
func TestResumeAfterCancelledPass(t *testing.T) {
	settings := testSettings(3)
	settings.NumWorkers = 1
	settings.MaxPasses = 1

	want, _, err := Render(context.Background(), smallScene(), settings, &testLogger{})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	p, err := NewProgressive(smallScene(), settings, &testLogger{})
	if err != nil {
		t.Fatalf("NewProgressive: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var finished []int
	_, _, err = p.RenderPass(ctx, 1, func(result TileCompletionResult) {
		finished = append(finished, result.Tile.ID)
		cancel()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(finished) != 1 {
		t.Fatalf("Expected exactly one tile before cancellation, got %v", finished)
	}

	var resumed []int
	got, stats, err := p.RenderPass(context.Background(), 1, func(result TileCompletionResult) {
		resumed = append(resumed, result.Tile.ID)
	})
	if err != nil {
		t.Fatalf("RenderPass: %v", err)
	}
	if len(resumed) != len(p.tiles)-1 {
		t.Errorf("Expected %d tiles to resume, got %v", len(p.tiles)-1, resumed)
	}
	for _, id := range resumed {
		if id == finished[0] {
			t.Errorf("Tile %d was rendered twice", id)
		}
	}
	if stats.MinSamples != 3 || stats.MaxSamplesUsed != 3 {
		t.Errorf("Expected every pixel to hold 3 samples, got min %d max %d", stats.MinSamples, stats.MaxSamplesUsed)
	}
	if diff := cmp.Diff(want.Color, got.Color); diff != "" {
		t.Errorf("Resumed render differs from an uninterrupted one (-want +got):\n%s", diff)
	}
}

// TestTilePanicFailsRender makes the sphere's material index dangle so the
// tiles that shade it panic
func TestTilePanicFailsRender(t *testing.T) {
	sc := smallScene()
	p, err := NewProgressive(sc, testSettings(2), &testLogger{})
	if err != nil {
		t.Fatalf("NewProgressive: %v", err)
	}
	sc.Materials = sc.Materials[:1]

	buf, _, err := p.RenderPass(context.Background(), 1, nil)
	if !errors.Is(err, ErrTilePanic) {
		t.Fatalf("Expected ErrTilePanic, got %v", err)
	}
	if buf != nil {
		t.Errorf("Expected no buffer from a failed pass")
	}
	if !regexp.MustCompile(`tile \d+ `).MatchString(err.Error()) {
		t.Errorf("Expected the tile id in %q", err.Error())
	}

	// Every region was released, including the one that panicked
	region, err := p.film.Region(image.Rect(0, 0, p.film.Width(), p.film.Height()))
	if err != nil {
		t.Errorf("Expected all tile regions to be released, got %v", err)
	} else {
		region.Release()
	}

	sc.Materials = smallScene().Materials
	if _, _, err := p.RenderPass(context.Background(), 1, nil); !errors.Is(err, ErrRenderFailed) {
		t.Errorf("Expected ErrRenderFailed after a panic, got %v", err)
	}
}

func TestRenderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf, _, err := Render(ctx, smallScene(), testSettings(2), &testLogger{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if buf != nil {
		t.Errorf("Expected no buffer from a cancelled render")
	}
}

func TestRenderProgressiveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := NewProgressive(smallScene(), testSettings(2), &testLogger{})
	if err != nil {
		t.Fatalf("NewProgressive: %v", err)
	}
	passes, errs := p.RenderProgressive(ctx)
	for range passes {
		t.Errorf("Expected no passes after cancellation")
	}
	if err := <-errs; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestNewProgressiveRejectsInvalidScene(t *testing.T) {
	sc := smallScene()
	sc.CameraConfig.Width = 0
	if _, err := NewProgressive(sc, testSettings(1), &testLogger{}); !errors.Is(err, scene.ErrInvalidScene) {
		t.Errorf("Expected ErrInvalidScene, got %v", err)
	}
}
