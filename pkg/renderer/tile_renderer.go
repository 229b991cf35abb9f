package renderer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/df07/go-sdf-pathtracer/pkg/integrator"
)

// ErrTilePanic is returned when rendering a tile panicked
var ErrTilePanic = errors.New("tile render panicked")

// renderTile renders samples [first, end) of every pixel in tile into the
// film. The tile owns its film region for the duration of the call.
func (p *Progressive) renderTile(ctx context.Context, tile *Tile, first, end int) (stats integrator.Stats, err error) {
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	region, err := p.film.Region(tile.Bounds)
	if err != nil {
		return stats, err
	}
	defer region.Release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTilePanic, r)
		}
	}()

	start := time.Now()
	wavefront := integrator.NewWavefront(p.scene, p.settings.Integrator)
	stats = wavefront.Run(integrator.NewWorkQueue(tile.Bounds, p.film.Width(), first, end), region)
	elapsed := time.Since(start)

	if stats.NonConvergent > 0 || region.Clamped() > 0 {
		glog.V(2).Infof("tile %d %v: %d paths, %d non-convergent marches, %d clamped components",
			tile.ID, tile.Bounds, stats.Paths, stats.NonConvergent, region.Clamped())
	}
	recordTile(ctx, p.scene.Name, stats, region.Clamped(), float64(elapsed)/float64(time.Millisecond))
	return stats, nil
}
