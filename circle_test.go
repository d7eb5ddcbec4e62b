package batch2d

import (
	"testing"

	"golang.org/x/image/math/f32"
)

func TestCircleRenderer_Vertices(t *testing.T) {
	dev, pass := newTestDevice(t)
	cr, err := NewCircleRenderer(dev, pass)
	if err != nil {
		t.Fatalf("NewCircleRenderer() = %v", err)
	}
	defer cr.Destroy()

	target := dev.NewTarget(pass, 100, 100)
	if err := cr.BeginDrawing(nil, target); err != nil {
		t.Fatalf("BeginDrawing() = %v", err)
	}
	cr.DrawCircle(f32.Vec2{50, 60}, 10, Yellow)
	if err := cr.EndDrawing(nil); err != nil {
		t.Fatalf("EndDrawing() = %v", err)
	}

	sub := dev.Submissions[0]
	if got := sub.IndexCount(); got != 6 {
		t.Fatalf("IndexCount() = %d, want 6", got)
	}
	pos := [4][2]float32{{-10, 0}, {10, 0}, {10, 20}, {-10, 20}}
	local := [4][2]float32{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}}
	for i := 0; i < 4; i++ {
		off := i * circleStride
		if x, y := position(sub, circleStride, i); !near(x, pos[i][0]) || !near(y, pos[i][1]) {
			t.Errorf("vertex %d position = (%v, %v), want %v", i, x, y, pos[i])
		}
		if lx, ly := getFloat(sub.Vertices, off+8), getFloat(sub.Vertices, off+12); lx != local[i][0] || ly != local[i][1] {
			t.Errorf("vertex %d local = (%v, %v), want %v", i, lx, ly, local[i])
		}
		if c := getUint(sub.Vertices, off+16); c != Yellow.RGBA8() {
			t.Errorf("vertex %d color = %#08x, want %#08x", i, c, Yellow.RGBA8())
		}
		if r := getFloat(sub.Vertices, off+20); r != 10 {
			t.Errorf("vertex %d radius = %v, want 10", i, r)
		}
	}
}

func TestCircleRenderer_FlushOnGeometryFull(t *testing.T) {
	dev, pass := newTestDevice(t)
	cr, err := NewCircleRenderer(dev, pass, WithMaxPrimitives(4))
	if err != nil {
		t.Fatalf("NewCircleRenderer() = %v", err)
	}
	defer cr.Destroy()

	target := dev.NewTarget(pass, 100, 100)
	if err := cr.BeginDrawing(nil, target); err != nil {
		t.Fatalf("BeginDrawing() = %v", err)
	}
	for i := 0; i < 9; i++ {
		cr.DrawCircle(f32.Vec2{50, 50}, 5, White)
	}
	if err := cr.EndDrawing(nil); err != nil {
		t.Fatalf("EndDrawing() = %v", err)
	}

	if len(dev.Submissions) != 3 {
		t.Fatalf("submissions = %d, want 3", len(dev.Submissions))
	}
	for i, want := range []uint32{24, 24, 6} {
		if got := dev.Submissions[i].IndexCount(); got != want {
			t.Errorf("submission %d IndexCount() = %d, want %d", i, got, want)
		}
	}
}

func TestCircleRenderer_IgnoresEmptyRadius(t *testing.T) {
	dev, pass := newTestDevice(t)
	cr, err := NewCircleRenderer(dev, pass)
	if err != nil {
		t.Fatalf("NewCircleRenderer() = %v", err)
	}
	defer cr.Destroy()

	target := dev.NewTarget(pass, 100, 100)
	if err := cr.BeginDrawing(nil, target); err != nil {
		t.Fatalf("BeginDrawing() = %v", err)
	}
	cr.DrawCircle(f32.Vec2{50, 50}, 0, White)
	cr.DrawCircle(f32.Vec2{50, 50}, -3, White)
	if err := cr.EndDrawing(nil); err != nil {
		t.Fatalf("EndDrawing() = %v", err)
	}
	if got := dev.Submissions[0].IndexCount(); got != 0 {
		t.Errorf("IndexCount() = %d, want 0", got)
	}
	mustPanic(t, "DrawCircle outside a session", func() {
		cr.DrawCircle(f32.Vec2{}, 0, White)
	})
}

// TestRenderersChainOnOneTarget draws with all three renderers in sequence,
// handing each renderer's signal semaphore to the next.
func TestRenderersChainOnOneTarget(t *testing.T) {
	dev, pass := newTestDevice(t)
	rr, err := NewRectRenderer(dev, pass)
	if err != nil {
		t.Fatalf("NewRectRenderer() = %v", err)
	}
	defer rr.Destroy()
	lr, err := NewLineRenderer(dev, pass)
	if err != nil {
		t.Fatalf("NewLineRenderer() = %v", err)
	}
	defer lr.Destroy()
	cr, err := NewCircleRenderer(dev, pass)
	if err != nil {
		t.Fatalf("NewCircleRenderer() = %v", err)
	}
	defer cr.Destroy()

	target := dev.NewTarget(pass, 320, 240)
	acquired := dev.NewSemaphore(true)
	rectsDone := dev.NewSemaphore(false)
	linesDone := dev.NewSemaphore(false)
	frameDone := dev.NewSemaphore(false)

	if err := rr.BeginDrawing(acquired, target); err != nil {
		t.Fatal(err)
	}
	rr.DrawRect(f32.Vec2{10, 10}, f32.Vec2{50, 50}, Red)
	if err := rr.EndDrawing(rectsDone); err != nil {
		t.Fatal(err)
	}

	if err := lr.BeginDrawing(rectsDone, target); err != nil {
		t.Fatal(err)
	}
	lr.DrawLine(f32.Vec2{0, 0}, f32.Vec2{320, 240}, Green, 1)
	if err := lr.EndDrawing(linesDone); err != nil {
		t.Fatal(err)
	}

	if err := cr.BeginDrawing(linesDone, target); err != nil {
		t.Fatal(err)
	}
	cr.DrawCircle(f32.Vec2{160, 120}, 30, Blue)
	if err := cr.EndDrawing(frameDone); err != nil {
		t.Fatal(err)
	}

	if len(dev.Submissions) != 3 {
		t.Fatalf("submissions = %d, want 3", len(dev.Submissions))
	}
	if !frameDone.Signaled() || acquired.Signaled() || rectsDone.Signaled() || linesDone.Signaled() {
		t.Error("semaphore chain not consumed in order")
	}
}
