// Command vmuxdemo drives a viewmux engine over the software backend.
//
// Each configured viewport starts out blank. A request pool "loads" its
// content under the configured concurrency caps; every completed load
// requests a render, and the frame loop coalesces those requests into
// passes. When all loads are done, each viewport's output is written as a
// PNG.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gogpu/viewmux"
	"github.com/gogpu/viewmux/frameloop"
	"github.com/gogpu/viewmux/requestpool"
	"github.com/gogpu/viewmux/surface"
	"github.com/gogpu/viewmux/viewport"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file")
		outputDir  = flag.String("output", "", "output directory (overrides output_dir)")
		timeout    = flag.Duration("timeout", 10*time.Second, "give up after this long")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	viewmux.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	if err := run(ctx, cfg); err != nil {
		log.Fatal(err)
	}
}

// tile is the content of one viewport. loaded is only touched on the loop
// goroutine.
type tile struct {
	id     viewport.ID
	fill   color.RGBA
	loaded bool
}

func (t *tile) Paint(dst draw.Image) error {
	if !t.loaded {
		return nil
	}
	b := dst.Bounds()
	draw.Draw(dst, b, image.NewUniform(t.fill), image.Point{}, draw.Src)
	// Diagonal marks the orientation on the output.
	for i := 0; i < min(b.Dx(), b.Dy()); i++ {
		dst.Set(b.Min.X+i, b.Max.Y-1-i, color.White)
	}
	return nil
}

func run(ctx context.Context, cfg Config) error {
	loop := frameloop.New(frameloop.WithErrorHandler(func(err error) {
		viewmux.Logger().Warn("vmuxdemo: frame failed", "err", err)
	}))
	eng, err := viewmux.NewEngine("vmuxdemo", viewmux.WithTicker(loop))
	if err != nil {
		return err
	}
	defer eng.Destroy()

	var rendered int
	eng.Events().Subscribe(func(ev viewmux.Event) {
		if ev.Type == viewmux.EventFrameRendered {
			rendered++
		}
	})

	pool := requestpool.New[viewport.ID](cfg.Pool.PoolOptions()...)
	defer pool.Destroy()

	outputs := make(map[viewport.ID]*surface.ImageOutput)
	var inputs []viewmux.ViewportInput
	var tiles []*tile
	for _, vc := range cfg.Viewports {
		kind, _ := viewport.ParseKind(vc.Kind)
		bg, _ := parseHexColor(vc.Background)
		t := &tile{id: viewport.ID(vc.ID), fill: colorFor(vc.ID)}
		out := surface.NewImageOutput(vc.Width, vc.Height)
		outputs[t.id] = out
		tiles = append(tiles, t)
		inputs = append(inputs, viewmux.ViewportInput{
			ID:         t.id,
			Kind:       kind,
			Output:     out,
			Painter:    t,
			Background: bg,
		})
	}
	if err := eng.SetViewports(inputs); err != nil {
		return err
	}

	var loads sync.WaitGroup
	delay := time.Duration(cfg.LoadDelayMS) * time.Millisecond
	for i, t := range tiles {
		vc := cfg.Viewports[i]
		category, _ := requestpool.ParseCategory(vc.Category)
		loads.Add(1)
		err := pool.Submit(requestpool.Request[viewport.ID]{
			Task: requestpool.Async(func() error {
				defer loads.Done()
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return ctx.Err()
				}
				loop.Post(func() {
					t.loaded = true
					if err := eng.RenderViewport(t.id); err != nil {
						viewmux.Logger().Warn("vmuxdemo: render request failed", "viewport", t.id, "err", err)
					}
				})
				return nil
			}),
			Category: category,
			Priority: vc.Priority,
			Metadata: t.id,
		})
		if err != nil {
			loads.Done()
			return err
		}
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() {
		loads.Wait()
		// Runs after the pass the last load requested.
		loop.Post(func() {
			loop.Schedule(func() error {
				stop()
				return nil
			})
		})
	}()
	// Run only ends through runCtx: either the final pass stopped it or
	// the overall timeout expired.
	_ = loop.Run(runCtx)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("loads did not finish: %w", err)
	}

	layout, err := eng.Layout()
	if err != nil {
		return err
	}
	viewmux.Logger().Info("vmuxdemo: done",
		"surface", fmt.Sprintf("%dx%d", layout.Size.X, layout.Size.Y),
		"frame_events", rendered)

	for _, t := range tiles {
		path := filepath.Join(cfg.OutputDir, string(t.id)+".png")
		if err := savePNG(path, outputs[t.id].Image()); err != nil {
			return err
		}
		log.Printf("Viewport %s saved to %s", t.id, path)
	}
	return nil
}

// colorFor derives a stable color from a viewport id.
func colorFor(id string) color.RGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	v := h.Sum32()
	return color.RGBA{R: uint8(v), G: uint8(v >> 8), B: uint8(v >> 16), A: 255}
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
