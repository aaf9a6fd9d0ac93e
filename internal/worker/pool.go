// Package worker provides a fixed-size pool used to cap concurrent PDF
// renders. Requests stay synchronous: callers submit a job and wait.
package worker

import "sync"

type task func()

type Pool struct {
	wg   sync.WaitGroup
	jobs chan task
}

func NewPool(n int) *Pool {
	p := &Pool{jobs: make(chan task, 64)}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

func (p *Pool) Submit(f task) { p.jobs <- f }

// SubmitWait runs f on the pool and blocks until it finishes.
func (p *Pool) SubmitWait(f func()) {
	done := make(chan struct{})
	p.Submit(func() {
		defer close(done)
		f()
	})
	<-done
}

func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}
