package renderer

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"

	"github.com/df07/go-sdf-pathtracer/pkg/integrator"
)

var (
	sceneKey = tag.MustNewKey("scene")

	pathCount          = stats.Int64("pathtracer/paths", "Paths retired into the film", stats.UnitDimensionless)
	nonConvergentCount = stats.Int64("pathtracer/non_convergent", "Marches that ran out of steps", stats.UnitDimensionless)
	rouletteKillCount  = stats.Int64("pathtracer/rr_kills", "Paths ended by Russian Roulette", stats.UnitDimensionless)
	clampedCount       = stats.Int64("pathtracer/clamped", "Radiance components clamped by the film", stats.UnitDimensionless)
	tileLatency        = stats.Float64("pathtracer/tile_latency", "Wall time to render one tile", stats.UnitMilliseconds)
)

// Views aggregates the renderer measures by scene
var Views = []*view.View{
	{
		Name:        "pathtracer/paths",
		Description: "Sum of paths retired into the film",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     pathCount,
		Aggregation: view.Sum(),
	},
	{
		Name:        "pathtracer/non_convergent",
		Description: "Sum of marches that ran out of steps",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     nonConvergentCount,
		Aggregation: view.Sum(),
	},
	{
		Name:        "pathtracer/rr_kills",
		Description: "Sum of paths ended by Russian Roulette",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     rouletteKillCount,
		Aggregation: view.Sum(),
	},
	{
		Name:        "pathtracer/clamped",
		Description: "Sum of radiance components clamped by the film",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     clampedCount,
		Aggregation: view.Sum(),
	},
	{
		Name:        "pathtracer/tiles",
		Description: "Counter of rendered tiles",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     tileLatency,
		Aggregation: view.Count(),
	},
	{
		Name:        "pathtracer/tile_latency",
		Description: "Distribution of tile render times",
		TagKeys:     []tag.Key{sceneKey},
		Measure:     tileLatency,
		Aggregation: view.Distribution(1, 5, 10, 50, 100, 500, 1000, 5000),
	},
}

// RegisterViews registers the renderer views with OpenCensus
func RegisterViews() error {
	return view.Register(Views...)
}

// recordTile records the measurements of one finished tile
func recordTile(ctx context.Context, sceneName string, s integrator.Stats, clamped int64, millis float64) {
	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Upsert(sceneKey, sceneName)),
		stats.WithMeasurements(
			pathCount.M(s.Paths),
			nonConvergentCount.M(s.NonConvergent),
			rouletteKillCount.M(s.Retired[integrator.RRKill]),
			clampedCount.M(clamped),
			tileLatency.M(millis),
		),
	)
}
