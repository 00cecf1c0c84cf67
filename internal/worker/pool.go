package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// EmailTask represents one outbound mail waiting for delivery
type EmailTask struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single mail
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// WorkerPool manages a pool of workers for asynchronous mail delivery.
// The HTTP path only enqueues; SMTP latency and failures never block a
// request.
type WorkerPool struct {
	jobs        chan EmailTask
	workerCount int
	sender      Sender
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	metrics     *PoolMetrics
}

// PoolMetrics tracks worker pool performance
type PoolMetrics struct {
	mu              sync.RWMutex
	processed       int64
	failed          int64
	backpressure    int64
	totalProcessing time.Duration
}

// NewWorkerPool creates a new worker pool
func NewWorkerPool(workerCount, queueSize int, sender Sender) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		jobs:        make(chan EmailTask, queueSize),
		workerCount: workerCount,
		sender:      sender,
		ctx:         ctx,
		cancel:      cancel,
		metrics:     &PoolMetrics{},
	}
}

// Start initializes and starts all worker goroutines
func (wp *WorkerPool) Start() {
	log.Printf("🚀 Starting mail worker pool with %d workers and queue size %d", wp.workerCount, cap(wp.jobs))

	for i := 1; i <= wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// worker is the main worker loop that processes jobs
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			log.Printf("Mail worker #%d shutting down", id)
			return

		case task, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.processTask(id, task)
		}
	}
}

// processTask delivers a single mail with panic recovery
func (wp *WorkerPool) processTask(workerID int, task EmailTask) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️  Mail worker #%d PANIC recovered: %v (to: %s)", workerID, r, task.To)
			wp.metrics.incrementFailed()
		}
	}()

	startTime := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := wp.sender.Send(ctx, task.To, task.Subject, task.Body)

	processingTime := time.Since(startTime)

	if err != nil {
		log.Printf("❌ Mail worker #%d failed to deliver to %s: %v (took %v)",
			workerID, task.To, err, processingTime)
		wp.metrics.incrementFailed()
		return
	}

	wp.metrics.recordSuccess(processingTime)
}

// Enqueue attempts to add a task to the queue with backpressure handling
func (wp *WorkerPool) Enqueue(task EmailTask) error {
	select {
	case wp.jobs <- task:
		return nil

	default:
		log.Printf("⚠️  BACKPRESSURE WARNING: Mail queue full, dropping mail to %s", task.To)
		wp.metrics.incrementBackpressure()
		return fmt.Errorf("mail queue full (backpressure)")
	}
}

// Shutdown gracefully stops the worker pool, draining queued mail
func (wp *WorkerPool) Shutdown(timeout time.Duration) error {
	log.Printf("🛑 Shutting down mail worker pool...")

	close(wp.jobs)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		wp.printMetrics()
		return nil

	case <-time.After(timeout):
		wp.cancel()
		log.Printf("⚠️  Mail worker pool shutdown timed out after %v", timeout)
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

// GetMetrics returns a snapshot of the pool metrics
func (wp *WorkerPool) GetMetrics() map[string]interface{} {
	wp.metrics.mu.RLock()
	defer wp.metrics.mu.RUnlock()

	avgProcessing := time.Duration(0)
	if wp.metrics.processed > 0 {
		avgProcessing = wp.metrics.totalProcessing / time.Duration(wp.metrics.processed)
	}

	return map[string]interface{}{
		"processed":           wp.metrics.processed,
		"failed":              wp.metrics.failed,
		"backpressure_events": wp.metrics.backpressure,
		"avg_processing_time": avgProcessing.String(),
		"queue_utilization":   fmt.Sprintf("%d/%d", len(wp.jobs), cap(wp.jobs)),
	}
}

// printMetrics logs the final metrics
func (wp *WorkerPool) printMetrics() {
	metrics := wp.GetMetrics()
	log.Printf("📊 Mail Worker Pool Metrics:")
	log.Printf("   - Processed: %v", metrics["processed"])
	log.Printf("   - Failed: %v", metrics["failed"])
	log.Printf("   - Backpressure Events: %v", metrics["backpressure_events"])
}

func (pm *PoolMetrics) recordSuccess(duration time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.processed++
	pm.totalProcessing += duration
}

func (pm *PoolMetrics) incrementFailed() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.failed++
}

func (pm *PoolMetrics) incrementBackpressure() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.backpressure++
}
