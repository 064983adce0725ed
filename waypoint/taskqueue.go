// waypoint/taskqueue.go
package waypoint

import (
	"sync"
)

// defaultTaskQueueWorkers is the AsyncTaskQueue size New() falls back to
// when WAYPOINT_TASK_QUEUE_WORKERS is unset — enough to keep the "audit"
// middleware (AsyncAuditMiddleware) from backing up behind a single slow
// sink under the example app's request volume.
const defaultTaskQueueWorkers = 5

// AsyncTaskQueue manages asynchronous tasks with a worker pool. Routes use
// it via AsyncAuditMiddleware (middleware.go) to record a request after the
// handler has already responded, without making the caller wait on it.
type AsyncTaskQueue struct {
	tasks    chan func() // Channel to send tasks to workers
	wg       sync.WaitGroup // WaitGroup to track active tasks
	workers  int           // Number of worker goroutines
	shutdown chan struct{} // Signal channel for graceful shutdown
	mu       sync.Mutex    // Protects shutdown state
	isShuttingDown bool
	logger   *Logger
}

// NewAsyncTaskQueue creates and starts a new asynchronous task queue with a
// given number of workers, logging recovered task panics through logger
// instead of the standard logger so they carry the engine's own prefix.
func NewAsyncTaskQueue(workers int, logger *Logger) *AsyncTaskQueue {
	if workers <= 0 {
		workers = 1 // Ensure at least one worker
	}
	tq := &AsyncTaskQueue{
		tasks:    make(chan func()),
		workers:  workers,
		shutdown: make(chan struct{}),
		logger:   logger,
	}

	for i := 0; i < workers; i++ {
		go tq.worker()
	}
	return tq
}

// worker is a goroutine that processes tasks from the queue.
func (tq *AsyncTaskQueue) worker() {
	for {
		select {
		case task, ok := <-tq.tasks:
			if !ok { // Channel closed, time to exit
				return
			}
			func() {
				defer tq.wg.Done() // Decrement counter when task is done
				defer func() {
					if r := recover(); r != nil {
						tq.logger.Error("AsyncTaskQueue: recovered from task panic: %v", r)
					}
				}()
				task() // Execute the task
			}()
		case <-tq.shutdown:
			// Received shutdown signal: exit. tasks is unbuffered and Go sends
			// while holding mu, so no submitted task is left waiting in it.
			return
		}
	}
}

// Go submits a task to the asynchronous queue.
func (tq *AsyncTaskQueue) Go(task func()) {
	tq.mu.Lock()
	defer tq.mu.Unlock()

	if tq.isShuttingDown {
		tq.logger.Warning("AsyncTaskQueue: cannot add task, queue is shutting down")
		return
	}

	tq.wg.Add(1) // Increment counter before sending task
	tq.tasks <- task
}

// Shutdown gracefully stops the task queue.
// It stops accepting new tasks, waits for existing tasks to complete, and then stops workers.
func (tq *AsyncTaskQueue) Shutdown() {
	tq.mu.Lock()
	tq.isShuttingDown = true
	tq.mu.Unlock()

	close(tq.tasks) // Close the task channel to signal workers no new tasks
	close(tq.shutdown) // Signal workers to start draining and exit

	tq.wg.Wait() // Wait for all active tasks to complete
}
