// Package renderer splits the image into tiles, renders them on a bounded
// pool of goroutines and accumulates progressive passes into one film.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/integrator"
	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

// DefaultLogger implements core.Logger on top of glog
type DefaultLogger struct{}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	glog.InfoDepth(1, strings.TrimSuffix(fmt.Sprintf(format, args...), "\n"))
}

// NewDefaultLogger creates a new default logger
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{}
}

// Settings contains configuration for rendering
type Settings struct {
	SamplesPerPixel int // Total samples per pixel
	InitialSamples  int // Samples for the first progressive pass
	MaxPasses       int // Number of progressive passes
	TileSize        int // Size of each tile (64x64 recommended)
	NumWorkers      int // Number of parallel workers (0 = use CPU count)
	Integrator      integrator.Settings
}

// DefaultSettings returns sensible default values
func DefaultSettings() Settings {
	return Settings{
		SamplesPerPixel: 64,
		InitialSamples:  1,
		MaxPasses:       7,
		TileSize:        64,
		NumWorkers:      0, // Auto-detect CPU count
		Integrator:      integrator.DefaultSettings(),
	}
}

// ErrInvalidSettings wraps every error returned by Settings.Validate
var ErrInvalidSettings = errors.New("invalid render settings")

// Validate checks the settings
func (s Settings) Validate() error {
	var errs []error
	if s.SamplesPerPixel <= 0 {
		errs = append(errs, fmt.Errorf("samples per pixel %d must be positive", s.SamplesPerPixel))
	}
	if s.MaxPasses <= 0 {
		errs = append(errs, fmt.Errorf("max passes %d must be positive", s.MaxPasses))
	}
	if s.MaxPasses > 1 && (s.InitialSamples <= 0 || s.InitialSamples > s.SamplesPerPixel) {
		errs = append(errs, fmt.Errorf("initial samples %d must be in [1, %d]", s.InitialSamples, s.SamplesPerPixel))
	}
	if s.TileSize <= 0 {
		errs = append(errs, fmt.Errorf("tile size %d must be positive", s.TileSize))
	}
	if s.NumWorkers < 0 {
		errs = append(errs, fmt.Errorf("worker count %d must not be negative", s.NumWorkers))
	}
	if err := s.Integrator.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidSettings, errors.Join(errs...))
	}
	return nil
}

// ErrRenderFailed is returned by every pass after a tile panicked, since the
// film then holds partial samples
var ErrRenderFailed = errors.New("render failed in an earlier pass")

// Progressive renders a scene in passes of increasing sample count. Each pass
// continues the sample indices of the previous one, so the last pass holds
// exactly the samples a single-pass render would take. A cancelled pass can
// be rendered again and resumes the tiles it did not finish.
type Progressive struct {
	scene       *scene.Scene
	settings    Settings
	film        *film.Film
	tiles       []*Tile
	samplesDone int   // samples per pixel every tile holds
	failed      error // first tile panic; the film is unusable after it
	logger      core.Logger
}

// NewProgressive preprocesses sc and prepares an empty film
func NewProgressive(sc *scene.Scene, settings Settings, logger core.Logger) (*Progressive, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Preprocess(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewDefaultLogger()
	}

	width, height := sc.Camera.Width(), sc.Camera.Height()
	return &Progressive{
		scene:    sc,
		settings: settings,
		film:     film.New(width, height),
		tiles:    NewTileGrid(width, height, settings.TileSize),
		logger:   logger,
	}, nil
}

// getSamplesForPass calculates the target total samples for a given pass
func (p *Progressive) getSamplesForPass(passNumber int) int {
	// Special case: if only 1 pass, use all samples
	if p.settings.MaxPasses == 1 {
		return p.settings.SamplesPerPixel
	}

	// For multiple passes: first pass is quick preview
	if passNumber == 1 {
		return p.settings.InitialSamples
	}

	// Divide remaining samples evenly across remaining passes
	remainingSamples := p.settings.SamplesPerPixel - p.settings.InitialSamples
	remainingPasses := p.settings.MaxPasses - 1
	samplesPerPass := remainingSamples / remainingPasses

	targetSamples := p.settings.InitialSamples + (passNumber-1)*samplesPerPass

	// For the final pass, use all remaining samples
	if passNumber >= p.settings.MaxPasses {
		targetSamples = p.settings.SamplesPerPixel
	}

	return targetSamples
}

// RenderPass renders the samples pass passNumber adds and returns a snapshot
// of the whole film. tileCallback, when not nil, is called once per finished
// tile, never concurrently.
func (p *Progressive) RenderPass(ctx context.Context, passNumber int, tileCallback func(TileCompletionResult)) (*film.Buffer, RenderStats, error) {
	if p.failed != nil {
		return nil, RenderStats{}, fmt.Errorf("pass %d: %w: %w", passNumber, ErrRenderFailed, p.failed)
	}
	targetSamples := p.getSamplesForPass(passNumber)

	p.logger.Printf("Pass %d: samples %d..%d per pixel over %d tiles (using %d workers)...\n",
		passNumber, p.samplesDone, targetSamples, len(p.tiles), p.numWorkers())

	start := time.Now()
	work, err := p.renderTiles(ctx, passNumber, targetSamples, tileCallback)
	if err != nil {
		if errors.Is(err, ErrTilePanic) {
			p.failed = err
		}
		return nil, RenderStats{}, fmt.Errorf("pass %d: %w", passNumber, err)
	}
	p.samplesDone = max(p.samplesDone, targetSamples)

	buf := p.film.Snapshot()
	stats := newRenderStats(buf, targetSamples)
	stats.Stats = work
	stats.Tiles = len(p.tiles)
	stats.Duration = time.Since(start)
	return buf, stats, nil
}

// PassResult contains the result of a single pass
type PassResult struct {
	PassNumber int
	Buffer     *film.Buffer
	Stats      RenderStats
	IsLast     bool
}

// RenderProgressive renders every pass in a background goroutine.
// Returns channels for events. The caller should drain the pass channel; the
// error channel receives at most one error.
func (p *Progressive) RenderProgressive(ctx context.Context) (<-chan PassResult, <-chan error) {
	passChan := make(chan PassResult, 1)
	errChan := make(chan error, 1)

	go func() {
		defer close(passChan)
		defer close(errChan)

		p.logger.Printf("Starting progressive rendering with %d passes...\n", p.settings.MaxPasses)

		for pass := 1; pass <= p.settings.MaxPasses; pass++ {
			// Check for cancellation before starting this pass
			select {
			case <-ctx.Done():
				p.logger.Printf("Rendering cancelled before pass %d\n", pass)
				errChan <- ctx.Err()
				return
			default:
			}

			buf, stats, err := p.RenderPass(ctx, pass, nil)
			if err != nil {
				errChan <- err
				return
			}

			p.logger.Printf("Pass %d completed in %v (%.1f samples/pixel, %d non-convergent, %d clamped)\n",
				pass, stats.Duration, stats.AverageSamples, stats.NonConvergent, stats.Clamped)

			isLast := pass == p.settings.MaxPasses || p.samplesDone >= p.settings.SamplesPerPixel
			select {
			case passChan <- PassResult{PassNumber: pass, Buffer: buf, Stats: stats, IsLast: isLast}:
			case <-ctx.Done():
				return
			}

			if isLast {
				return
			}
		}
	}()

	return passChan, errChan
}

// TileCompletionResult contains information about a completed tile for callbacks
type TileCompletionResult struct {
	Tile       *Tile
	PassNumber int // Pass the tile was rendered in
	TileNumber int // Tiles completed so far in this pass (1-based)
	TotalTiles int // Total number of tiles in the image
}

// Tile represents a rectangular region of the image to be rendered
type Tile struct {
	ID              int             // Unique tile identifier
	Bounds          image.Rectangle // Pixel bounds (x0,y0,x1,y1)
	PassesCompleted int             // Number of passes completed for this tile
	SamplesDone     int             // Samples per pixel already in the film
}

// NewTileGrid creates a grid of tiles covering the entire image
func NewTileGrid(width, height, tileSize int) []*Tile {
	var tiles []*Tile
	tileID := 0

	tilesX := (width + tileSize - 1) / tileSize // Ceiling division
	tilesY := (height + tileSize - 1) / tileSize

	for tileY := 0; tileY < tilesY; tileY++ {
		for tileX := 0; tileX < tilesX; tileX++ {
			x0 := tileX * tileSize
			y0 := tileY * tileSize
			x1 := min(x0+tileSize, width) // Don't exceed image bounds
			y1 := min(y0+tileSize, height)

			tiles = append(tiles, &Tile{ID: tileID, Bounds: image.Rect(x0, y0, x1, y1)})
			tileID++
		}
	}

	return tiles
}
