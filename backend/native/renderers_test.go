package native

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/gfx"
)

// TestRenderersOnHAL drives all three renderers through one frame on the
// noop HAL backend.
func TestRenderersOnHAL(t *testing.T) {
	env := newTestEnv(t)
	pass := env.pass(t)
	target := env.target(t, pass, 320, 240)

	rects, err := batch2d.NewRectRenderer(env.dev, pass, batch2d.WithMaxPrimitives(16))
	require.NoError(t, err)
	defer rects.Destroy()
	lines, err := batch2d.NewLineRenderer(env.dev, pass, batch2d.WithMaxPrimitives(16))
	require.NoError(t, err)
	defer lines.Destroy()
	circles, err := batch2d.NewCircleRenderer(env.dev, pass, batch2d.WithMaxPrimitives(16))
	require.NoError(t, err)
	defer circles.Destroy()

	tex, err := env.dev.CreateTexture(&gfx.TextureDescriptor{
		Label: "checker", Width: 2, Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	require.NoError(t, err)
	defer tex.Destroy()
	require.NoError(t, env.dev.Queue().WriteTexture(tex, make([]byte, 16)))

	rectsDone, err := env.dev.CreateSemaphore()
	require.NoError(t, err)
	linesDone, err := env.dev.CreateSemaphore()
	require.NoError(t, err)
	frameDone, err := env.dev.CreateSemaphore()
	require.NoError(t, err)

	before := env.queue.submits

	require.NoError(t, rects.BeginDrawing(nil, target))
	for i := 0; i < 40; i++ {
		p := f32.Vec2{float32(i * 5), float32(i * 3)}
		if i%2 == 0 {
			rects.DrawTexturedRect(p, f32.Vec2{4, 4}, batch2d.White, tex)
		} else {
			rects.DrawRotatedRect(p, f32.Vec2{4, 4}, 30, batch2d.Red)
		}
	}
	require.NoError(t, rects.EndDrawing(rectsDone))

	require.NoError(t, lines.BeginDrawing(rectsDone, target))
	for i := 0; i < 10; i++ {
		lines.DrawLine(f32.Vec2{0, float32(i)}, f32.Vec2{320, float32(i)}, batch2d.Green, float32(1+i%2))
	}
	require.NoError(t, lines.EndDrawing(linesDone))

	require.NoError(t, circles.BeginDrawing(linesDone, target))
	for i := 0; i < 20; i++ {
		circles.DrawCircle(f32.Vec2{160, 120}, float32(i+1), batch2d.Blue)
	}
	require.NoError(t, circles.EndDrawing(frameDone))

	r, l, c := rects.Stats(), lines.Stats(), circles.Stats()
	assert.Equal(t, uint64(3), r.Flushes)
	assert.Equal(t, uint64(10), l.Flushes, "every width change flushes")
	assert.Equal(t, uint64(2), c.Flushes)
	assert.Equal(t, int(r.Flushes+l.Flushes+c.Flushes), env.queue.submits-before)
	assert.Greater(t, frameDone.(*Semaphore).SignaledBy(), rectsDone.(*Semaphore).SignaledBy())
}
