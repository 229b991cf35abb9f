package renderer

import (
	"time"

	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/integrator"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	integrator.Stats // Work done during the pass

	TotalPixels    int           // Total number of pixels rendered
	TotalSamples   int           // Total number of samples taken
	AverageSamples float64       // Average samples per pixel
	MaxSamples     int           // Target samples per pixel after this pass
	MinSamples     int           // Minimum samples taken per pixel
	MaxSamplesUsed int           // Maximum samples actually used by any pixel
	Clamped        int64         // Radiance components clamped by the film so far
	Tiles          int           // Tiles rendered in the pass
	Duration       time.Duration // Wall time of the pass
}

// newRenderStats summarises the sample counts held in buf
func newRenderStats(buf *film.Buffer, targetSamples int) RenderStats {
	stats := RenderStats{
		TotalPixels: buf.Width * buf.Height,
		MaxSamples:  targetSamples,
		MinSamples:  targetSamples, // Start with the target, will be reduced
		Clamped:     buf.Clamped,
	}
	for _, count := range buf.Counts {
		stats.TotalSamples += count
		stats.MinSamples = min(stats.MinSamples, count)
		stats.MaxSamplesUsed = max(stats.MaxSamplesUsed, count)
	}
	if stats.TotalPixels > 0 {
		stats.AverageSamples = float64(stats.TotalSamples) / float64(stats.TotalPixels)
	}
	return stats
}
