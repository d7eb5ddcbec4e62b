package batch2d

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/batch2d/gfx"
	"github.com/gogpu/batch2d/gfx/gfxtest"
)

// newTestDevice creates a recording device and a render pass on it.
func newTestDevice(t *testing.T) (*gfxtest.Device, gfx.RenderPass) {
	t.Helper()
	dev := gfxtest.NewDevice()
	pass, err := dev.CreateRenderPass(&gfx.RenderPassDescriptor{
		Label:  "test",
		Format: gputypes.TextureFormatBGRA8Unorm,
		LoadOp: gputypes.LoadOpLoad,
	})
	if err != nil {
		t.Fatalf("CreateRenderPass() = %v", err)
	}
	return dev, pass
}

// newTestTexture creates a 1x1 texture for binding tests.
func newTestTexture(t *testing.T, dev gfx.Device, label string) gfx.Texture {
	t.Helper()
	tex, err := dev.CreateTexture(&gfx.TextureDescriptor{
		Label:  label,
		Width:  1,
		Height: 1,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateTexture() = %v", err)
	}
	return tex
}

// mustPanic fails the test unless fn panics.
func mustPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

func getFloat(src []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[off : off+4]))
}

func getUint(src []byte, off int) uint32 {
	return binary.LittleEndian.Uint32(src[off : off+4])
}

// position returns the position of vertex i in a submission.
func position(sub *gfxtest.Submission, stride, i int) (x, y float32) {
	return getFloat(sub.Vertices, i*stride), getFloat(sub.Vertices, i*stride+4)
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}
