package grid

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// decodePool runs decode tasks on a fixed set of worker goroutines. Tasks are
// taken in submission order. A task whose generation is no longer current
// when a worker picks it up is skipped without decoding.
type decodePool struct {
	decoder Decoder
	current *atomic.Uint64
	deliver func(LoadResult)

	requests []LoadTask
	reqLock  sync.Mutex
	reqCond  *sync.Cond
	closed   bool

	skipped atomic.Int64
}

func newDecodePool(workers int, decoder Decoder, current *atomic.Uint64, deliver func(LoadResult)) *decodePool {
	if workers < 1 {
		workers = 1
	}
	p := &decodePool{
		decoder:  decoder,
		current:  current,
		deliver:  deliver,
		requests: make([]LoadTask, 0, 64),
	}
	p.reqCond = sync.NewCond(&p.reqLock)

	for range workers {
		go p.worker()
	}
	return p
}

func (p *decodePool) submit(tasks []LoadTask) {
	if len(tasks) == 0 {
		return
	}
	p.reqLock.Lock()
	if !p.closed {
		p.requests = append(p.requests, tasks...)
		p.reqCond.Broadcast()
	}
	p.reqLock.Unlock()
}

// drop discards every task not yet picked up and returns how many there were.
func (p *decodePool) drop() int {
	p.reqLock.Lock()
	n := len(p.requests)
	clear(p.requests)
	p.requests = p.requests[:0]
	p.reqLock.Unlock()
	return n
}

// close stops the workers once they finish their current task. It does not
// wait for them.
func (p *decodePool) close() {
	p.reqLock.Lock()
	p.closed = true
	clear(p.requests)
	p.requests = nil
	p.reqCond.Broadcast()
	p.reqLock.Unlock()
}

func (p *decodePool) worker() {
	for {
		p.reqLock.Lock()
		for len(p.requests) == 0 && !p.closed {
			p.reqCond.Wait()
		}
		if p.closed {
			p.reqLock.Unlock()
			return
		}
		task := p.requests[0]
		p.requests = p.requests[1:]
		p.reqLock.Unlock()

		if task.Generation != p.current.Load() {
			p.skipped.Add(1)
			continue
		}

		img, err := p.decode(task)
		p.deliver(LoadResult{
			Generation: task.Generation,
			Row:        task.Row,
			ID:         task.ID,
			Image:      img,
			Err:        err,
		})
	}
}

func (p *decodePool) decode(task LoadTask) (img *DecodedImage, err error) {
	if task.Seed != nil {
		return task.Seed, nil
	}
	defer func() {
		if r := recover(); r != nil {
			img = nil
			err = fmt.Errorf("decode %s: panic: %v", task.ID, r)
		}
	}()
	return p.decoder.Decode(task.ID)
}
