package native

import (
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/batch2d/gfx"
)

func emptySubmission(t *testing.T, env *testEnv) gfx.CommandBuffer {
	t.Helper()
	cmd, err := env.dev.CreateCommandBuffer()
	require.NoError(t, err)
	t.Cleanup(cmd.Destroy)
	cmd.Begin()
	require.NoError(t, cmd.End())
	return cmd
}

func TestFenceLifecycle(t *testing.T) {
	env := newTestEnv(t)

	signaled, err := env.dev.CreateFence(true)
	require.NoError(t, err)
	assert.NoError(t, signaled.Wait())

	// A signaled fence must be reset before it is submitted.
	cmd := emptySubmission(t, env)
	assert.ErrorIs(t, env.dev.Queue().Execute(cmd, nil, nil, signaled), ErrFenceSignaled)

	signaled.Reset()
	assert.ErrorIs(t, signaled.Wait(), gfx.ErrFenceUnsignaled)

	require.NoError(t, env.dev.Queue().Execute(cmd, nil, nil, signaled))
	assert.NoError(t, signaled.Wait())
	assert.True(t, signaled.(*Fence).Signaled())
}

func TestFenceWaitPollsUntilComplete(t *testing.T) {
	env := newTestEnv(t)
	fence, err := env.dev.CreateFence(false)
	require.NoError(t, err)

	require.NoError(t, env.dev.Queue().Execute(emptySubmission(t, env), nil, nil, fence))
	env.queue.lag = 3
	assert.False(t, fence.(*Fence).Signaled())

	require.NoError(t, fence.Wait())
	assert.Zero(t, env.queue.lag, "Wait returned before the submission completed")
}

func TestSemaphoresRecordSubmissionOrder(t *testing.T) {
	env := newTestEnv(t)
	a, err := env.dev.CreateSemaphore()
	require.NoError(t, err)
	b, err := env.dev.CreateSemaphore()
	require.NoError(t, err)

	require.NoError(t, env.dev.Queue().Execute(emptySubmission(t, env), nil, a, nil))
	require.NoError(t, env.dev.Queue().Execute(emptySubmission(t, env), a, b, nil))

	assert.Less(t, a.(*Semaphore).SignaledBy(), b.(*Semaphore).SignaledBy())
}

func TestDescriptorSetRebuildsBindGroupWhenDirty(t *testing.T) {
	env := newTestEnv(t)
	layout, err := env.dev.CreateDescriptorSetLayout(&gfx.DescriptorSetLayoutDescriptor{
		Label: "set",
		Bindings: []gfx.DescriptorBinding{
			{Binding: 0, Kind: gfx.BindingUniform, Stages: gputypes.ShaderStageVertex},
			{Binding: 1, Kind: gfx.BindingSampler, Stages: gputypes.ShaderStageFragment},
		},
	})
	require.NoError(t, err)
	defer layout.Destroy()
	set, err := env.dev.CreateDescriptorSet(layout)
	require.NoError(t, err)
	defer set.Destroy()

	uniform := env.buffer(t, "uniform", 64, gfx.MemoryDeviceLocal)
	sampler, err := env.dev.CreateSampler(&gfx.SamplerDescriptor{Filter: gputypes.FilterModeLinear})
	require.NoError(t, err)
	defer sampler.Destroy()

	bind := func() error {
		cmd, err := env.dev.CreateCommandBuffer()
		require.NoError(t, err)
		defer cmd.Destroy()
		cmd.Begin()
		cmd.BindDescriptorSet(set)
		return cmd.End()
	}

	set.UpdateUniformBinding(0, uniform)
	assert.ErrorIs(t, bind(), ErrIncompleteSet)

	set.UpdateSamplerBinding(1, sampler)
	require.NoError(t, bind())
	require.NoError(t, bind())
	assert.Equal(t, 1, env.spy.bindGroups, "clean set must reuse its bind group")

	set.UpdateSamplerBinding(1, sampler)
	require.NoError(t, bind())
	assert.Equal(t, 2, env.spy.bindGroups)
}
