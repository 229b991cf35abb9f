package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"go.opencensus.io/stats/view"
	"golang.org/x/image/tiff"
	"golang.org/x/term"

	"github.com/df07/go-sdf-pathtracer/pkg/camera"
	"github.com/df07/go-sdf-pathtracer/pkg/film"
	"github.com/df07/go-sdf-pathtracer/pkg/renderer"
	"github.com/df07/go-sdf-pathtracer/pkg/scene"
)

// Config holds the command line options
type Config struct {
	SceneID    string
	Width      int
	Samples    int
	MaxDepth   int
	Passes     int
	Workers    int
	Seed       uint64
	DisableNEE bool
	Format     string
	OutputDir  string
	Normals    bool
	Alpha      bool
	ListScenes bool
	Help       bool
}

func parseFlags() Config {
	var config Config
	flag.StringVar(&config.SceneID, "scene", "default", "Scene id (see -list)")
	flag.IntVar(&config.Width, "width", 0, "Image width in pixels (0 = scene default)")
	flag.IntVar(&config.Samples, "spp", 0, "Samples per pixel (0 = scene default)")
	flag.IntVar(&config.MaxDepth, "depth", 0, "Maximum path vertices (0 = scene default)")
	flag.IntVar(&config.Passes, "passes", 7, "Number of progressive passes")
	flag.IntVar(&config.Workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	flag.Uint64Var(&config.Seed, "seed", 0, "Seed of the per-path random streams")
	flag.BoolVar(&config.DisableNEE, "no-nee", false, "Disable next-event estimation")
	flag.StringVar(&config.Format, "format", "png", "Output format: 'png' or 'tiff'")
	flag.StringVar(&config.OutputDir, "out", "output", "Output directory")
	flag.BoolVar(&config.Normals, "normals", false, "Also write the normal AOV")
	flag.BoolVar(&config.Alpha, "alpha", false, "Write coverage as alpha (tiff only)")
	flag.BoolVar(&config.ListScenes, "list", false, "List available scenes and exit")
	flag.BoolVar(&config.Help, "help", false, "Show help information")
	flag.Parse()
	return config
}

func main() {
	config := parseFlags()
	defer glog.Flush()

	if config.Help {
		showHelp()
		return
	}
	if config.ListScenes {
		listScenes()
		return
	}

	if err := renderer.RegisterViews(); err != nil {
		glog.Exitf("Error registering metric views: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, config); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("SDF Path Tracer")
	fmt.Println("Usage: pathtracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	listScenes()
	fmt.Println()
	fmt.Println("Output will be saved to <out>/<scene>/render_<timestamp>.<format>")
}

func listScenes() {
	fmt.Println("Available scenes:")
	group := ""
	for _, info := range scene.ListScenes() {
		if info.Group != group {
			group = info.Group
			fmt.Printf("  %s:\n", group)
		}
		fmt.Printf("    %-14s %s\n", info.ID, info.Description)
	}
}

func run(ctx context.Context, config Config) error {
	if config.Format != "png" && config.Format != "tiff" {
		return fmt.Errorf("unknown output format %q", config.Format)
	}

	sc, err := createScene(config.SceneID, config.Width)
	if err != nil {
		return err
	}
	settings := buildSettings(sc, config)

	outputDir, err := createOutputDir(config.OutputDir, config.SceneID)
	if err != nil {
		return err
	}

	glog.Infof("Rendering scene %q at %d samples per pixel", sc.Name, settings.SamplesPerPixel)
	p, err := renderer.NewProgressive(sc, settings, renderer.NewDefaultLogger())
	if err != nil {
		return err
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	start := time.Now()
	passes, errs := p.RenderProgressive(ctx)

	var last *renderer.PassResult
	for result := range passes {
		if interactive {
			fmt.Printf("\rPass %d/%d: %.0f spp in %v   ", result.PassNumber, settings.MaxPasses,
				result.Stats.AverageSamples, time.Since(start).Round(time.Millisecond))
		}
		last = &result
	}
	if interactive {
		fmt.Println()
	}
	if err := <-errs; err != nil {
		return err
	}
	if last == nil {
		return errors.New("render produced no passes")
	}

	stats := last.Stats
	fmt.Printf("Render completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("Samples per pixel: %.1f (range %d - %d), %d clamped, %d non-convergent marches\n",
		stats.AverageSamples, stats.MinSamples, stats.MaxSamplesUsed, stats.Clamped, stats.NonConvergent)
	logViews()

	filename, err := saveRender(outputDir, config, last.Buffer)
	if err != nil {
		return err
	}
	fmt.Printf("Render saved as %s\n", filename)
	return nil
}

// createScene loads a built-in scene, optionally overriding its width
func createScene(sceneID string, width int) (*scene.Scene, error) {
	if width < 0 {
		return nil, fmt.Errorf("width %d must not be negative", width)
	}
	return scene.Load(sceneID, camera.Config{Width: width})
}

// buildSettings combines the scene's suggested sampling with the flags
func buildSettings(sc *scene.Scene, config Config) renderer.Settings {
	settings := renderer.DefaultSettings()
	settings.SamplesPerPixel = sc.SamplingConfig.SamplesPerPixel
	settings.Integrator.MaxDepth = sc.SamplingConfig.MaxDepth
	settings.Integrator.RussianRouletteMinBounces = sc.SamplingConfig.RussianRouletteMinBounces

	if config.Samples > 0 {
		settings.SamplesPerPixel = config.Samples
	}
	if config.MaxDepth > 0 {
		settings.Integrator.MaxDepth = config.MaxDepth
	}
	if config.Passes > 0 {
		settings.MaxPasses = config.Passes
	}
	settings.NumWorkers = config.Workers
	settings.Integrator.Seed = config.Seed
	settings.Integrator.DisableNEE = config.DisableNEE
	return settings
}

// createOutputDir creates <base>/<sceneID>
func createOutputDir(base, sceneID string) (string, error) {
	dir := filepath.Join(base, strings.ReplaceAll(sceneID, string(filepath.Separator), "_"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("while creating output directory: %w", err)
	}
	return dir, nil
}

// saveRender writes the colour image and, when requested, the normal AOV
func saveRender(outputDir string, config Config, buf *film.Buffer) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	filename := filepath.Join(outputDir, fmt.Sprintf("render_%s.%s", timestamp, config.Format))

	var img image.Image
	if config.Format == "tiff" {
		img = buf.RGBA64(2.0, config.Alpha)
	} else {
		img = buf.RGBA(2.0)
	}
	if err := saveImage(filename, config.Format, img); err != nil {
		return "", err
	}

	if config.Normals {
		normals := filepath.Join(outputDir, fmt.Sprintf("normals_%s.%s", timestamp, config.Format))
		if err := saveImage(normals, config.Format, buf.NormalImage()); err != nil {
			return "", err
		}
	}
	return filename, nil
}

func saveImage(filename, format string, img image.Image) (err error) {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("while creating %s: %w", filename, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("while closing %s: %w", filename, cerr)
		}
	}()

	switch format {
	case "tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		err = png.Encode(file, img)
	}
	if err != nil {
		return fmt.Errorf("while encoding %s: %w", filename, err)
	}
	return nil
}

// logViews logs the aggregated renderer metrics
func logViews() {
	if !glog.V(1) {
		return
	}
	for _, v := range renderer.Views {
		rows, err := view.RetrieveData(v.Name)
		if err != nil {
			glog.Warningf("while retrieving view %s: %v", v.Name, err)
			continue
		}
		for _, row := range rows {
			glog.Infof("%s %v: %v", v.Name, row.Tags, row.Data)
		}
	}
}
