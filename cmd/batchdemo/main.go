// Command batchdemo draws rects, lines and circles with the batch renderers
// on a headless HAL device and prints how often each renderer flushed.
package main

import (
	"errors"
	"flag"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/backend/native"
	"github.com/gogpu/batch2d/gfx"
)

const (
	width  = 1280
	height = 720
)

func main() {
	var (
		rects   = flag.Int("rects", 100000, "rects per frame")
		lines   = flag.Int("lines", 20000, "lines per frame")
		circles = flag.Int("circles", 50000, "circles per frame")
		maxPrim = flag.Int("max", 0, "max primitives per batch (0 for the default)")
		frames  = flag.Int("frames", 3, "frames to draw")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		batch2d.SetLogger(logger)
		native.SetLogger(logger)
	}

	halDev, halQueue, cleanup, err := openNoop()
	if err != nil {
		log.Fatalf("open device: %v", err)
	}
	defer cleanup()

	dev, err := native.New(halDev, halQueue)
	if err != nil {
		log.Fatalf("wrap device: %v", err)
	}
	fr, err := newFrame(dev, width, height)
	if err != nil {
		log.Fatalf("create frame: %v", err)
	}
	defer fr.destroy()
	pass, target := fr.drawPass, fr.target

	var opts []batch2d.Option
	if *maxPrim > 0 {
		opts = append(opts, batch2d.WithMaxPrimitives(*maxPrim))
	}
	rr, err := batch2d.NewRectRenderer(dev, pass, opts...)
	if err != nil {
		log.Fatalf("rect renderer: %v", err)
	}
	defer rr.Destroy()
	lr, err := batch2d.NewLineRenderer(dev, pass, opts...)
	if err != nil {
		log.Fatalf("line renderer: %v", err)
	}
	defer lr.Destroy()
	cr, err := batch2d.NewCircleRenderer(dev, pass, opts...)
	if err != nil {
		log.Fatalf("circle renderer: %v", err)
	}
	defer cr.Destroy()

	sems := make([]gfx.Semaphore, 3)
	for i := range sems {
		if sems[i], err = dev.CreateSemaphore(); err != nil {
			log.Fatalf("create semaphore: %v", err)
		}
		defer sems[i].Destroy()
	}

	rng := rand.New(rand.NewPCG(1, 2))
	for f := 0; f < *frames; f++ {
		// The previous frame's final semaphore orders this frame after it.
		var wait gfx.Semaphore
		if f > 0 {
			wait = sems[2]
		}
		cleared, err := fr.clear(dev.Queue(), wait)
		if err != nil {
			log.Fatalf("frame %d: clear: %v", f, err)
		}
		if err := drawRects(rr, rng, *rects, cleared, target, sems[0]); err != nil {
			log.Fatalf("frame %d: rects: %v", f, err)
		}
		if err := drawLines(lr, rng, *lines, sems[0], target, sems[1]); err != nil {
			log.Fatalf("frame %d: lines: %v", f, err)
		}
		if err := drawCircles(cr, rng, *circles, sems[1], target, sems[2]); err != nil {
			log.Fatalf("frame %d: circles: %v", f, err)
		}
	}

	report("rects", rr.Stats())
	report("lines", lr.Stats())
	report("circles", cr.Stats())
}

func openNoop() (hal.Device, hal.Queue, func(), error) {
	instance, err := noop.API{}.CreateInstance(nil)
	if err != nil {
		return nil, nil, nil, err
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, nil, nil, errors.New("noop backend exposes no adapter")
	}
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, nil, nil, err
	}
	cleanup := func() {
		open.Device.Destroy()
		instance.Destroy()
	}
	return open.Device, open.Queue, cleanup, nil
}

func randomPoint(rng *rand.Rand) f32.Vec2 {
	return f32.Vec2{rng.Float32() * width, rng.Float32() * height}
}

func randomColor(rng *rand.Rand) batch2d.RGBA {
	return batch2d.RGBA{R: rng.Float64(), G: rng.Float64(), B: rng.Float64(), A: 0.5 + rng.Float64()/2}
}

func drawRects(rr *batch2d.RectRenderer, rng *rand.Rand, n int, wait gfx.Semaphore, target gfx.Framebuffer, signal gfx.Semaphore) error {
	if err := rr.BeginDrawing(wait, target); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		size := f32.Vec2{4 + rng.Float32()*28, 4 + rng.Float32()*28}
		rr.DrawRotatedRect(randomPoint(rng), size, rng.Float32()*360, randomColor(rng))
	}
	return rr.EndDrawing(signal)
}

// drawLines draws short polylines on a spiral with one of three widths.
func drawLines(lr *batch2d.LineRenderer, rng *rand.Rand, n int, wait gfx.Semaphore, target gfx.Framebuffer, signal gfx.Semaphore) error {
	if err := lr.BeginDrawing(wait, target); err != nil {
		return err
	}
	points := make([]f32.Vec2, 8)
	for i := 0; i < n; i++ {
		c := randomPoint(rng)
		for k := range points {
			s, co := math32.Sincos(float32(k) * 0.7)
			r := float32(3 * k)
			points[k] = f32.Vec2{c[0] + r*co, c[1] + r*s}
		}
		lr.DrawLines(points, randomColor(rng), float32(1+i*3/n))
	}
	return lr.EndDrawing(signal)
}

func drawCircles(cr *batch2d.CircleRenderer, rng *rand.Rand, n int, wait gfx.Semaphore, target gfx.Framebuffer, signal gfx.Semaphore) error {
	if err := cr.BeginDrawing(wait, target); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		cr.DrawCircle(randomPoint(rng), 2+rng.Float32()*20, randomColor(rng))
	}
	return cr.EndDrawing(signal)
}

func report(name string, s batch2d.Stats) {
	log.Printf("%-8s flushes=%d draws=%d primitives=%d", name, s.Flushes, s.Draws, s.Primitives)
}
