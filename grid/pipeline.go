package grid

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// LoadTask asks for the image of one row. Seed carries an image withdrawn
// from the cache; a seeded task needs no decoding.
type LoadTask struct {
	Row        int
	ID         string
	Seed       *DecodedImage
	Generation uint64
}

// LoadResult is the outcome of a LoadTask. Exactly one of Image and Err is
// set.
type LoadResult struct {
	Generation uint64
	Row        int
	ID         string
	Image      *DecodedImage
	Err        error
}

// PipelineStats counts what the pipeline did since it was created.
type PipelineStats struct {
	Runs       int
	Dispatched int
	Seeded     int
	Completed  int
	Failed     int
	Stale      int
	Skipped    int
}

// LoadPipeline decodes the cache misses of a visible range on worker
// goroutines and applies results on the UI goroutine. Only results of the
// current generation are applied: starting a run or cancelling immediately
// invalidates everything issued before.
//
// Except for the decode itself, every method must be called on the UI
// goroutine.
type LoadPipeline struct {
	list  List
	cache *ImageCache
	log   *zap.Logger

	generation atomic.Uint64
	pool       *decodePool
	failed     map[string]error
	onLoaded   func(row int)
	closed     bool
	stats      PipelineStats
}

func newLoadPipeline(list List, cache *ImageCache, decoder Decoder, workers int, post func(func()), log *zap.Logger) *LoadPipeline {
	p := &LoadPipeline{
		list:   list,
		cache:  cache,
		log:    log,
		failed: make(map[string]error),
	}
	p.pool = newDecodePool(workers, decoder, &p.generation, func(res LoadResult) {
		post(func() {
			p.Deliver(res)
		})
	})
	return p
}

// Generation returns the current generation token.
func (p *LoadPipeline) Generation() uint64 {
	return p.generation.Load()
}

// Cancel invalidates the current run. Queued tasks are never decoded and
// results of decodes already running are discarded on arrival.
func (p *LoadPipeline) Cancel() {
	g := p.generation.Add(1)
	if n := p.pool.drop(); n > 0 {
		p.log.Debug("load cancelled", zap.Uint64("generation", g), zap.Int("dropped", n))
	}
}

// Start begins a new run for r and returns its generation. Rows whose images
// are cached are satisfied from the cache on the spot; the rest are queued
// for decoding in row order. Rows that failed earlier are not retried.
func (p *LoadPipeline) Start(r Range) uint64 {
	g := p.generation.Add(1)
	p.pool.drop()
	if p.closed {
		return g
	}

	count := p.list.Count()
	if !invariant(p.log, r.Begin >= 0 && r.End <= count && r.Begin <= r.End, "load range within list",
		zap.Int("begin", r.Begin), zap.Int("end", r.End), zap.Int("count", count)) {
		r.Begin = clamp(r.Begin, 0, count)
		r.End = clamp(r.End, r.Begin, count)
	}

	tasks := p.plan(r, g)
	dispatch := tasks[:0]
	for _, task := range tasks {
		if task.Seed != nil {
			// Nothing to decode: hand the image straight back.
			p.cache.Insert(task.ID, task.Seed)
			p.stats.Seeded++
			continue
		}
		dispatch = append(dispatch, task)
	}

	p.stats.Runs++
	p.stats.Dispatched += len(dispatch)
	p.log.Debug("load started",
		zap.Uint64("generation", g),
		zap.Int("begin", r.Begin),
		zap.Int("end", r.End),
		zap.Int("dispatched", len(dispatch)))
	p.pool.submit(dispatch)
	return g
}

func (p *LoadPipeline) plan(r Range, g uint64) []LoadTask {
	tasks := make([]LoadTask, 0, r.Len())
	for row := r.Begin; row < r.End; row++ {
		id := p.list.IdentifierAt(row)
		if _, failed := p.failed[id]; failed {
			continue
		}
		task := LoadTask{Row: row, ID: id, Generation: g}
		if seed, ok := p.cache.Take(id); ok {
			task.Seed = seed
		}
		tasks = append(tasks, task)
	}
	return tasks
}

// Deliver applies a finished task. Results from a superseded generation are
// dropped and Deliver returns false. Failures are remembered so the row shows
// a placeholder and is not retried until ClearFailures.
func (p *LoadPipeline) Deliver(res LoadResult) bool {
	if p.closed || res.Generation != p.generation.Load() {
		p.stats.Stale++
		p.log.Debug("stale result dropped",
			zap.Uint64("generation", res.Generation),
			zap.Uint64("current", p.generation.Load()),
			zap.String("id", res.ID))
		return false
	}

	if res.Err == nil && res.Image == nil {
		res.Err = ErrEmptyImage
	}
	if res.Err != nil {
		p.failed[res.ID] = res.Err
		p.stats.Failed++
		p.log.Warn("image decode failed", zap.String("id", res.ID), zap.Int("row", res.Row), zap.Error(res.Err))
	} else {
		p.cache.Insert(res.ID, res.Image)
		p.stats.Completed++
	}

	if p.onLoaded != nil {
		p.onLoaded(res.Row)
	}
	return true
}

// Failed reports whether decoding id failed since the last ClearFailures.
func (p *LoadPipeline) Failed(id string) bool {
	_, ok := p.failed[id]
	return ok
}

// Failure returns the recorded decode error for id, or nil.
func (p *LoadPipeline) Failure(id string) error {
	return p.failed[id]
}

// ClearFailures forgets every recorded decode failure.
func (p *LoadPipeline) ClearFailures() {
	clear(p.failed)
}

// Stats returns the pipeline counters.
func (p *LoadPipeline) Stats() PipelineStats {
	s := p.stats
	s.Skipped = int(p.pool.skipped.Load())
	return s
}

// Close invalidates every outstanding task and stops the workers without
// waiting for decodes in progress.
func (p *LoadPipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.generation.Add(1)
	p.pool.close()
}
