package grid

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/alexballas/ximagegrid/runloop/runlooptest"
)

const waitTimeout = 5 * time.Second

func TestLoadPipeline_SeedsCachedRows(t *testing.T) {
	list := newFakeList(10)
	cache := NewImageCache(100)
	for row := range 3 {
		cache.Insert(list.IdentifierAt(row), testImage(2, 2))
	}
	dec := newFakeDecoder()
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, dec, 2, queue.Post, zap.NewNop())
	defer p.Close()

	p.Start(Range{Begin: 0, End: 10})

	stats := p.Stats()
	if stats.Dispatched != 7 || stats.Seeded != 3 {
		t.Fatalf("expected 7 dispatched and 3 seeded, got %+v", stats)
	}
	if !queue.WaitLen(7, waitTimeout) {
		t.Fatalf("timed out waiting for results, %d arrived", queue.Len())
	}
	queue.Drain()

	if cache.Len() != 10 {
		t.Fatalf("expected all 10 rows cached, got %d", cache.Len())
	}
	for row := range 3 {
		if n := dec.callsFor(list.IdentifierAt(row)); n != 0 {
			t.Errorf("cached row %d was decoded %d times", row, n)
		}
	}
}

func TestLoadPipeline_LatestWins(t *testing.T) {
	list := newFakeList(10)
	cache := NewImageCache(100)
	dec := newFakeDecoder()
	release := make(chan struct{})
	dec.block[list.IdentifierAt(0)] = release
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, dec, 1, queue.Post, zap.NewNop())
	defer p.Close()

	first := p.Start(Range{Begin: 0, End: 5})
	dec.waitStarted(t, list.IdentifierAt(0))

	second := p.Start(Range{Begin: 5, End: 10})
	if second <= first {
		t.Fatalf("generation did not advance: %d then %d", first, second)
	}
	close(release)

	// One stale result from the blocked decode plus five current ones.
	if !queue.WaitLen(6, waitTimeout) {
		t.Fatalf("timed out waiting for results, %d arrived", queue.Len())
	}
	queue.Drain()

	if cache.Contains(list.IdentifierAt(0)) {
		t.Error("result of the superseded run reached the cache")
	}
	for row := 5; row < 10; row++ {
		if !cache.Contains(list.IdentifierAt(row)) {
			t.Errorf("row %d missing from cache", row)
		}
	}
	for row := 1; row < 5; row++ {
		if n := dec.callsFor(list.IdentifierAt(row)); n != 0 {
			t.Errorf("row %d of the superseded run was decoded", row)
		}
	}
	if s := p.Stats(); s.Stale != 1 || s.Completed != 5 {
		t.Errorf("expected 1 stale and 5 completed, got %+v", s)
	}
}

func TestLoadPipeline_FailuresAreNotRetried(t *testing.T) {
	list := newFakeList(5)
	cache := NewImageCache(100)
	dec := newFakeDecoder()
	broken := list.IdentifierAt(2)
	dec.fail[broken] = true
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, dec, 2, queue.Post, zap.NewNop())
	defer p.Close()

	var loaded []int
	p.onLoaded = func(row int) { loaded = append(loaded, row) }

	p.Start(Range{Begin: 0, End: 5})
	if !queue.WaitLen(5, waitTimeout) {
		t.Fatalf("timed out waiting for results, %d arrived", queue.Len())
	}
	queue.Drain()

	if cache.Len() != 4 {
		t.Fatalf("expected 4 cached images, got %d", cache.Len())
	}
	if !p.Failed(broken) || !errors.Is(p.Failure(broken), errBroken) {
		t.Fatalf("expected %s marked failed, got %v", broken, p.Failure(broken))
	}
	if len(loaded) != 5 {
		t.Errorf("every finished row should be reported, got %v", loaded)
	}

	p.Start(Range{Begin: 0, End: 5})
	if s := p.Stats(); s.Dispatched != 5 || s.Seeded != 4 {
		t.Fatalf("second run should decode nothing, got %+v", s)
	}
	if n := dec.callsFor(broken); n != 1 {
		t.Errorf("broken file decoded %d times", n)
	}

	p.ClearFailures()
	if p.Failed(broken) {
		t.Error("ClearFailures left the failure behind")
	}
}

func TestLoadPipeline_CancelDiscardsResults(t *testing.T) {
	list := newFakeList(3)
	cache := NewImageCache(100)
	dec := newFakeDecoder()
	release := make(chan struct{})
	dec.block[list.IdentifierAt(0)] = release
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, dec, 1, queue.Post, zap.NewNop())
	defer p.Close()

	p.Start(Range{Begin: 0, End: 3})
	dec.waitStarted(t, list.IdentifierAt(0))
	p.Cancel()
	close(release)

	if !queue.WaitLen(1, waitTimeout) {
		t.Fatal("timed out waiting for the in-flight result")
	}
	queue.Drain()

	if cache.Len() != 0 {
		t.Fatalf("cancelled run reached the cache: %v", cache.Keys())
	}
	if dec.total() != 1 {
		t.Errorf("queued tasks should not be decoded after cancel, got %d decodes", dec.total())
	}
}

func TestLoadPipeline_DeliverAfterClose(t *testing.T) {
	list := newFakeList(1)
	cache := NewImageCache(10)
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, newFakeDecoder(), 1, queue.Post, zap.NewNop())

	g := p.Generation()
	p.Close()

	applied := p.Deliver(LoadResult{Generation: g, Row: 0, ID: list.IdentifierAt(0), Image: testImage(1, 1)})
	if applied || cache.Len() != 0 {
		t.Fatal("result applied after Close")
	}
}

func TestLoadPipeline_NilImageCountsAsFailure(t *testing.T) {
	list := newFakeList(1)
	cache := NewImageCache(10)
	queue := &runlooptest.Queue{}
	p := newLoadPipeline(list, cache, newFakeDecoder(), 1, queue.Post, zap.NewNop())
	defer p.Close()

	id := list.IdentifierAt(0)
	if !p.Deliver(LoadResult{Generation: p.Generation(), ID: id}) {
		t.Fatal("current result should be applied")
	}
	if !errors.Is(p.Failure(id), ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", p.Failure(id))
	}
}
