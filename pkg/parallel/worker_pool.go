// Package parallel runs index-parallel loops on a fixed pool of workers.
package parallel

import (
	"runtime"
	"sync"
)

// chunkTask is a half-open index range handed to one worker
type chunkTask struct {
	start, end int
}

// WorkerPool executes loop bodies over disjoint index ranges.
// Bodies must only write to state owned by their own index.
type WorkerPool struct {
	numWorkers int
	chunkSize  int
}

// NewWorkerPool creates a pool with the given number of workers; zero or less uses runtime.NumCPU()
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// WithChunkSize sets how many consecutive indices each task covers; zero picks one automatically
func (wp *WorkerPool) WithChunkSize(size int) *WorkerPool {
	wp.chunkSize = size
	return wp
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// For calls body(i) for every i in [0, n) and returns once all calls complete
func (wp *WorkerPool) For(n int, body func(i int)) {
	if n <= 0 {
		return
	}

	chunk := wp.chunkSize
	if chunk <= 0 {
		// Aim for several tasks per worker so uneven cells balance out
		chunk = max(1, n/(wp.numWorkers*8))
	}

	numWorkers := min(wp.numWorkers, (n+chunk-1)/chunk)
	if numWorkers == 1 {
		for i := 0; i < n; i++ {
			body(i)
		}
		return
	}

	taskQueue := make(chan chunkTask, (n+chunk-1)/chunk)
	for start := 0; start < n; start += chunk {
		taskQueue <- chunkTask{start: start, end: min(start+chunk, n)}
	}
	close(taskQueue)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go run(&wg, taskQueue, body)
	}
	wg.Wait()
}

// run is the main worker loop
func run(wg *sync.WaitGroup, taskQueue <-chan chunkTask, body func(i int)) {
	defer wg.Done()
	for task := range taskQueue {
		for i := task.start; i < task.end; i++ {
			body(i)
		}
	}
}

