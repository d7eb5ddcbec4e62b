// Package gfx defines the GPU collaborator contracts consumed by the batch2d
// renderers.
//
// The renderers never talk to a concrete graphics API. They create buffers,
// pipelines, descriptor sets and synchronization objects through a [Device],
// record work into a [CommandBuffer] and hand it to a [Queue]. Backends
// translate these calls to a real API:
//
//	+---------------------------+
//	|  batch2d renderers        |
//	|  (Rect, Line, Circle)     |
//	+-------------+-------------+
//	              |  gfx.Device
//	     +--------+---------+
//	     |                  |
//	+----v-----------+ +----v-----------+
//	| backend/native | | gfx/gfxtest    |
//	| (gogpu/wgpu    | | (recording     |
//	|  hal)          | |  fake)         |
//	+----------------+ +----------------+
//
// # Memory kinds
//
// Buffers are either [MemoryHostVisible] or [MemoryDeviceLocal]. A
// host-visible buffer is mapped once at creation and stays mapped until it
// is destroyed: [Buffer.Map] returns the same slice for its whole lifetime
// and CPU writes into it are visible to later copy commands. Device-local
// buffers are never mapped; their contents change through copy commands or
// through [Buffer.Copy], which schedules an upload.
//
// # Synchronization
//
// [Queue.Execute] is asynchronous. A [Fence] passed to Execute signals when
// the command buffer has finished executing on the GPU. A [Semaphore]
// orders one submission after another on the GPU timeline without blocking
// the CPU. A nil semaphore means "nothing to wait for" or "nothing to
// signal".
//
// # Lifetime
//
// Every resource has a Destroy method. Destroying a resource that a pending
// submission still uses is undefined; callers wait on the guarding fence
// first.
package gfx
