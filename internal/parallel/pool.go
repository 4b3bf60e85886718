package parallel

import (
	"runtime"
	"sync"
)

// Pool is a fixed set of worker goroutines. Each worker drains its own
// queue and steals from the others when it runs dry.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup

	// mu is held shared while Run enqueues and exclusively while Close
	// stops the workers, so no job lands in a queue whose worker has exited.
	mu     sync.RWMutex
	closed bool
}

// NewPool starts a pool of n workers. Zero or less selects GOMAXPROCS.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)
	p := &Pool{
		workers: n,
		queues:  make([]chan func(), n),
		done:    make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.wg.Add(n)
	for i := range n {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case <-p.done:
			drain(own)
			return
		case job := <-own:
			job()
			continue
		default:
		}
		if job := p.steal(id); job != nil {
			job()
			continue
		}
		select {
		case <-p.done:
			drain(own)
			return
		case job := <-own:
			job()
		}
	}
}

func drain(q chan func()) {
	for {
		select {
		case job := <-q:
			job()
		default:
			return
		}
	}
}

func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Run calls fn(i) for every i in [0, n) and returns when all calls have
// finished. Jobs are dealt round-robin. A closed pool runs the jobs on the
// calling goroutine. fn must not call Run on the same pool.
func (p *Pool) Run(n int, fn func(i int)) {
	if n <= 0 {
		return
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		for i := range n {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		p.queues[i%p.workers] <- func() {
			defer wg.Done()
			fn(i)
		}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Close stops the workers after they finish queued jobs. It is safe to
// call more than once and concurrently with Run.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}
