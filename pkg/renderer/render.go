package renderer

import (
	"context"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

// Render renders every sample of sc in a single pass. A nil logger logs
// through glog. The returned buffer is independent of the renderer.
func Render(ctx context.Context, sc *scene.Scene, settings Settings, logger core.Logger) (*film.Buffer, RenderStats, error) {
	settings.MaxPasses = 1
	p, err := NewProgressive(sc, settings, logger)
	if err != nil {
		return nil, RenderStats{}, err
	}
	return p.RenderPass(ctx, 1, nil)
}
