package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/renderqueue"
	"github.com/gogpu/renderqueue/arena"
	"github.com/gogpu/renderqueue/pipeline"
	"github.com/gogpu/renderqueue/recording"
	"github.com/gogpu/renderqueue/recording/backends/stats"
)

// surface stands in for the host application's device: recording only
// needs its surface format.
type surface struct {
	recording.NullDeviceHandle
	format gputypes.TextureFormat
}

func (s surface) SurfaceFormat() gputypes.TextureFormat { return s.format }

var _ gpucontext.DeviceProvider = surface{}

// FrameStats summarizes one frame.
type FrameStats struct {
	stats.Stats

	// Entries is the number of queue entries across all queues.
	Entries int

	// Blobs is the number of distinct state blobs after merging producers.
	Blobs int

	// ArenaBytes is the arena memory used by all producers.
	ArenaBytes uintptr
}

// demo owns the queues, recorders and backend reused across frames.
type demo struct {
	cfg    Config
	log    *slog.Logger
	scene  *Scene
	cache  *pipeline.Cache
	pool   *arena.BlockPool
	merged *renderqueue.RenderQueue

	producers []*renderqueue.RenderQueue
	buffers   []*recording.CommandBuffer
}

// statsBackend is the registered backend each frame is played back into.
const statsBackend = "stats"

func newDemo(cfg Config, logger *slog.Logger) (*demo, error) {
	var poolOpts []arena.PoolOption
	if cfg.Memory.ByteLimit > 0 {
		poolOpts = append(poolOpts, arena.WithByteLimit(cfg.Memory.ByteLimit))
	}
	pool := arena.NewBlockPool(cfg.Memory.BlockSize, poolOpts...)

	d := &demo{
		cfg:   cfg,
		log:   logger,
		cache: pipeline.NewCache(),
		pool:  pool,
	}
	d.scene = NewScene(cfg, d.cache)

	perProducer := d.scene.Draws()/cfg.Producers + 1
	d.merged = renderqueue.New(
		renderqueue.WithBlockPool(pool),
		renderqueue.WithInitialCapacity(d.scene.Draws()),
		renderqueue.WithWorkers(cfg.Workers),
	)
	d.producers = make([]*renderqueue.RenderQueue, cfg.Producers)
	for i := range d.producers {
		d.producers[i] = renderqueue.New(
			renderqueue.WithBlockPool(pool),
			renderqueue.WithInitialCapacity(perProducer),
		)
	}

	device := surface{format: gputypes.TextureFormatBGRA8Unorm}
	d.buffers = make([]*recording.CommandBuffer, cfg.Workers)
	for i := range d.buffers {
		d.buffers[i] = recording.NewCommandBuffer(device)
	}

	logger.Debug("rqdemo: scene",
		"objects", len(d.scene.objects), "sprites", len(d.scene.sprites),
		"lights", len(d.scene.lights), "pipelines", d.cache.Len())
	return d, nil
}

// Frame produces, merges, sorts and replays one frame and returns what the
// recorded commands would submit.
func (d *demo) Frame(ctx context.Context) (FrameStats, error) {
	defer d.reset()

	g, ctx := errgroup.WithContext(ctx)
	for i, q := range d.producers {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return produce(func() { d.scene.Produce(q, i, len(d.producers)) })
		})
	}
	if err := g.Wait(); err != nil {
		return FrameStats{}, fmt.Errorf("produce: %w", err)
	}

	var fs FrameStats
	for _, q := range d.producers {
		fs.ArenaBytes += q.Arena().Used()
		d.merged.Combine(q)
	}
	fs.Blobs = d.merged.Blobs()
	d.merged.Sort()

	cmds := make([]any, len(d.buffers))
	for i, b := range d.buffers {
		cmds[i] = b
	}

	var recs []*recording.Recording
	for id := range renderqueue.QueueCount {
		fs.Entries += d.merged.Len(id)
		if err := d.merged.DispatchParallel(id, cmds); err != nil {
			return FrameStats{}, fmt.Errorf("dispatch %v: %w", id, err)
		}
		for _, b := range d.buffers {
			recs = append(recs, b.Finish())
		}
		d.log.Debug("rqdemo: dispatched", "queue", id,
			"entries", d.merged.Len(id), "batches", d.merged.Batches(id))
	}

	b, err := recording.Playback(statsBackend, recs...)
	if err != nil {
		return FrameStats{}, err
	}
	sb, ok := b.(*stats.Backend)
	if !ok {
		return FrameStats{}, fmt.Errorf("rqdemo: backend %q is %T", statsBackend, b)
	}
	fs.Stats = sb.Stats()
	return fs, nil
}

// reset clears the merged queue before the producers whose arenas its
// entries point into.
func (d *demo) reset() {
	d.merged.Reset()
	for _, q := range d.producers {
		q.Reset()
	}
}

// Close stops the dispatch workers.
func (d *demo) Close() {
	d.merged.Close()
}

// produce runs fn and turns an arena out-of-memory panic into an error.
func produce(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok && errors.Is(e, arena.ErrOutOfMemory) {
				err = e
				return
			}
			panic(r)
		}
	}()
	fn()
	return nil
}
