package worker

import (
	"runtime"
	"sync"

	"github.com/getsentry/sentry-go"
)

var workerQueue = make(chan func(), runtime.NumCPU())

func init() {
	for range runtime.NumCPU() {
		go worker()
	}
}

func worker() {
	for f := range workerQueue {
		run(f)
	}
}

// run executes f, reporting a panic instead of letting it take the worker down.
func run(f func()) {
	defer sentry.Recover()
	f()
}

// Submit queues f to run on the pool. It blocks while every worker is busy and the queue is full.
func Submit(f func()) {
	workerQueue <- f
}

// Run runs every function on the pool and returns once all of them are done.
func Run(fs ...func()) {
	var wg sync.WaitGroup
	wg.Add(len(fs))
	for _, f := range fs {
		Submit(func() {
			defer wg.Done()
			f()
		})
	}
	wg.Wait()
}
