package native

import (
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/batch2d/gfx"
)

type fakeProvider struct {
	dev   gpucontext.Device
	queue gpucontext.Queue
}

func (p fakeProvider) Device() gpucontext.Device { return p.dev }
func (p fakeProvider) Queue() gpucontext.Queue   { return p.queue }
func (p fakeProvider) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}
func (p fakeProvider) Adapter() gpucontext.Adapter { return nil }
func (p fakeProvider) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "noop"}
}

func TestNewRejectsNilDevice(t *testing.T) {
	_, q := createNoopDevice(t)
	_, err := New(nil, q)
	assert.ErrorIs(t, err, ErrNilDevice)
}

func TestNewFromProvider(t *testing.T) {
	raw, q := createNoopDevice(t)

	dev, err := NewFromProvider(fakeProvider{dev: raw, queue: q})
	require.NoError(t, err)
	assert.Same(t, raw, dev.HAL())

	_, err = NewFromProvider(fakeProvider{dev: "not a device", queue: q})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewFromProvider(fakeProvider{dev: raw, queue: 42})
	assert.ErrorIs(t, err, ErrUnsupportedProvider)

	_, err = NewFromProvider(nil)
	assert.ErrorIs(t, err, ErrNilDevice)
}

func TestFramebufferValidation(t *testing.T) {
	env := newTestEnv(t)
	pass := env.pass(t)

	sampled, err := env.dev.CreateTexture(&gfx.TextureDescriptor{
		Width: 4, Height: 4,
		Format: gputypes.TextureFormatBGRA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding,
	})
	require.NoError(t, err)
	defer sampled.Destroy()
	_, err = env.dev.CreateFramebuffer(pass, sampled)
	assert.ErrorIs(t, err, ErrNotRenderAttachment)

	rgba, err := env.dev.CreateTexture(&gfx.TextureDescriptor{
		Width: 4, Height: 4,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	require.NoError(t, err)
	defer rgba.Destroy()
	_, err = env.dev.CreateFramebuffer(pass, rgba)
	assert.ErrorIs(t, err, ErrFormatMismatch)

	fb := env.target(t, pass, 32, 16)
	w, h := fb.Size()
	assert.Equal(t, uint32(32), w)
	assert.Equal(t, uint32(16), h)
}

func TestWriteTextureChecksSize(t *testing.T) {
	env := newTestEnv(t)
	tex, err := env.dev.CreateTexture(&gfx.TextureDescriptor{
		Width: 2, Height: 2,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	require.NoError(t, err)
	defer tex.Destroy()

	assert.NoError(t, env.dev.Queue().WriteTexture(tex, make([]byte, 16)))
	assert.ErrorIs(t, env.dev.Queue().WriteTexture(tex, make([]byte, 4)), gfx.ErrOutOfRange)
}
