package grid

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/alexballas/ximagegrid/runloop/runlooptest"
)

type fakeList struct {
	ids     []string
	onReset func()
}

func newFakeList(n int) *fakeList {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("img-%03d.png", i)
	}
	return &fakeList{ids: ids}
}

func (l *fakeList) Count() int                  { return len(l.ids) }
func (l *fakeList) IdentifierAt(row int) string { return l.ids[row] }
func (l *fakeList) OnReset(fn func())           { l.onReset = fn }

func (l *fakeList) replace(ids []string) {
	l.ids = ids
	if l.onReset != nil {
		l.onReset()
	}
}

type fakeHost struct {
	queue    *runlooptest.Queue
	repaints []image.Rectangle
	scroll   ScrollRange
}

func (h *fakeHost) Post(fn func())                { h.queue.Post(fn) }
func (h *fakeHost) Repaint(r image.Rectangle)     { h.repaints = append(h.repaints, r) }
func (h *fakeHost) SetScrollRange(r ScrollRange) { h.scroll = r }

var errBroken = errors.New("broken file")

// fakeDecoder counts decodes per id. Ids listed in fail return errBroken;
// ids listed in block wait until their channel is closed and announce the
// start on started.
type fakeDecoder struct {
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string]bool
	block   map[string]chan struct{}
	started chan string
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		calls:   make(map[string]int),
		fail:    make(map[string]bool),
		block:   make(map[string]chan struct{}),
		started: make(chan string, 256),
	}
}

func (d *fakeDecoder) Decode(id string) (*DecodedImage, error) {
	d.mu.Lock()
	d.calls[id]++
	wait := d.block[id]
	fail := d.fail[id]
	d.mu.Unlock()

	d.started <- id
	if wait != nil {
		<-wait
	}
	if fail {
		return nil, errBroken
	}
	return testImage(4, 4), nil
}

func (d *fakeDecoder) callsFor(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[id]
}

// waitStarted blocks until the decode of id has begun.
func (d *fakeDecoder) waitStarted(t *testing.T, id string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case got := <-d.started:
			if got == id {
				return
			}
		case <-timeout:
			t.Fatalf("decode of %s never started", id)
		}
	}
}

func (d *fakeDecoder) total() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		n += c
	}
	return n
}

func testImage(w, h int) *DecodedImage {
	return &DecodedImage{Pixels: image.NewRGBA(image.Rect(0, 0, w, h))}
}
