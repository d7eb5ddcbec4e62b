package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/batch2d/gfx"
)

func TestHostVisibleBufferIsPersistentlyMapped(t *testing.T) {
	env := newTestEnv(t)
	buf := env.buffer(t, "staging", 64, gfx.MemoryHostVisible)

	m := buf.Map()
	require.Len(t, m, 64)
	assert.False(t, buf.(*Buffer).shadow)

	// The mapping aliases the HAL buffer memory.
	m[3] = 0xAB
	assert.Equal(t, byte(0xAB), env.contents(t, buf)[3])
	assert.Equal(t, &m[0], &buf.Map()[0], "mapping must stay stable")

	assert.ErrorIs(t, buf.Copy([]byte{1}), gfx.ErrNotHostVisible)
}

func TestUnmappableStagingFallsBackToHostMemory(t *testing.T) {
	env := newTestEnvWithQueue(t, spyQueue{copies: true})
	env.spy.unmappable = true

	staging := env.buffer(t, "staging", 16, gfx.MemoryHostVisible)
	vertices := env.buffer(t, "vertices", 16, gfx.MemoryDeviceLocal)
	require.True(t, staging.(*Buffer).shadow)
	require.Len(t, staging.Map(), 16)
	copy(staging.Map(), []byte{1, 2, 3, 4})

	// Copies from host memory always go through the queue, even when the
	// queue could encode them.
	cmd, err := env.dev.CreateCommandBuffer()
	require.NoError(t, err)
	defer cmd.Destroy()
	cmd.Begin()
	cmd.Copy(staging, vertices, 4)
	require.NoError(t, cmd.End())

	assert.Equal(t, 1, env.queue.writes)
	assert.Equal(t, []byte{1, 2, 3, 4}, env.contents(t, vertices)[:4])
}

func TestDeviceLocalCopy(t *testing.T) {
	env := newTestEnv(t)
	buf := env.buffer(t, "uniform", 8, gfx.MemoryDeviceLocal)

	assert.Nil(t, buf.Map())
	require.NoError(t, buf.Copy([]byte{9, 8, 7}))
	assert.Equal(t, []byte{9, 8, 7, 0}, env.contents(t, buf)[:4])
	assert.ErrorIs(t, buf.Copy(make([]byte, 9)), gfx.ErrOutOfRange)

	buf.Destroy()
	assert.ErrorIs(t, buf.Copy([]byte{1}), ErrDestroyed)
	buf.Destroy()
}
