package renderer

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/df07/go-sdf-pathtracer/pkg/integrator"
)

// numWorkers returns how many tiles may render at once
func (p *Progressive) numWorkers() int {
	if p.settings.NumWorkers <= 0 {
		return runtime.NumCPU()
	}
	return p.settings.NumWorkers
}

// renderTiles brings every tile up to end samples per pixel in parallel and
// merges the per-tile statistics in tile order. Each tile resumes from its
// own SamplesDone, so tiles that finished before a cancellation are not
// rendered twice. Tiles not yet started when ctx is cancelled are skipped;
// tiles in flight run to completion.
func (p *Progressive) renderTiles(ctx context.Context, passNumber, end int, tileCallback func(TileCompletionResult)) (integrator.Stats, error) {
	perTile := make([]integrator.Stats, len(p.tiles))
	var (
		mu        sync.Mutex
		completed int
	)

	// Use errgroup and semaphore to limit concurrency.
	eg, egctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(p.numWorkers()))

	for _, tile := range p.tiles {
		if tile.SamplesDone >= end {
			continue
		}
		if err := sem.Acquire(egctx, 1); err != nil {
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)
			stats, err := p.renderTile(egctx, tile, tile.SamplesDone, end)
			if err != nil {
				return fmt.Errorf("while rendering tile %d %v: %w", tile.ID, tile.Bounds, err)
			}
			perTile[tile.ID] = stats
			tile.SamplesDone = end
			tile.PassesCompleted++

			if tileCallback != nil {
				// Callbacks are dispatched one at a time
				mu.Lock()
				defer mu.Unlock()
				completed++
				tileCallback(TileCompletionResult{
					Tile:       tile,
					PassNumber: passNumber,
					TileNumber: completed,
					TotalTiles: len(p.tiles),
				})
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return integrator.Stats{}, err
	}
	if err := ctx.Err(); err != nil {
		return integrator.Stats{}, err
	}

	var total integrator.Stats
	for _, s := range perTile {
		total.Merge(s)
	}
	return total, nil
}
