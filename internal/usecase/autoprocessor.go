package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"SocialFactory/internal/domain"
	"SocialFactory/internal/ports"
)

// AutoProcessorDeps wires the discovery loop's collaborators.
type AutoProcessorDeps struct {
	Store         ports.ContentStore
	Workflow      *Workflow
	Notifier      ports.Notifier
	Scheduler     ports.Scheduler
	MaxConcurrent int
	Logger        *slog.Logger
}

// AutoProcessor polls the ledger for pending rows and fans each new one out
// to the workflow as an independent task on a bounded worker pool.
//
// Auto-discovered work always goes through human approval; the
// skipApproval/autoPublish flags are pinned to false here on purpose.
type AutoProcessor struct {
	store     ports.ContentStore
	workflow  *Workflow
	notifier  ports.Notifier
	scheduler ports.Scheduler
	logger    *slog.Logger

	workers  int
	tasks    chan func()
	done     chan struct{}
	wg       sync.WaitGroup
	inFlight atomic.Int64

	mu        sync.Mutex
	running   bool
	processed map[int]struct{}
}

// NewAutoProcessor constructs the poller. maxConcurrent caps simultaneous
// pipeline executions; values below one default to a single worker.
func NewAutoProcessor(deps AutoProcessorDeps) *AutoProcessor {
	workers := deps.MaxConcurrent
	if workers < 1 {
		workers = 1
	}
	return &AutoProcessor{
		store:     deps.Store,
		workflow:  deps.Workflow,
		notifier:  deps.Notifier,
		scheduler: deps.Scheduler,
		logger:    deps.Logger,
		workers:   workers,
		processed: map[int]struct{}{},
	}
}

// Start spins up the worker pool and registers the discovery pass with the
// scheduler. Calling Start on a running processor is a no-op.
func (p *AutoProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.tasks = make(chan func(), p.workers*2)
	p.done = make(chan struct{})
	tasks, done := p.tasks, p.done
	p.mu.Unlock()

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(tasks, done)
	}

	p.logger.Info("auto-processor started", "workers", p.workers)
	p.notify(ctx, "Auto-processor started, monitoring the content ledger for pending items", ports.LevelInfo)

	return p.scheduler.Start(ctx, func(time.Time) {
		p.DiscoverOnce(ctx)
	})
}

// Stop suppresses further polls and drains the worker pool. Tasks already
// scheduled run to completion; nothing is cancelled.
func (p *AutoProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	done := p.done
	p.tasks = nil
	p.done = nil
	p.mu.Unlock()

	err := p.scheduler.Stop(ctx)
	// The task channel is never closed; workers drain it and exit on done,
	// so a discovery pass racing this Stop cannot send on a closed channel.
	close(done)
	p.wg.Wait()

	p.logger.Info("auto-processor stopped")
	p.notify(ctx, "Auto-processor stopped", ports.LevelWarning)
	return err
}

// DiscoverOnce runs a single discovery pass: list pending rows, drop ids seen
// before, schedule the rest. A listing failure only skips this pass; the next
// tick is the retry.
func (p *AutoProcessor) DiscoverOnce(ctx context.Context) {
	items, err := p.store.ListPending(ctx)
	if err != nil {
		p.logger.Error("listing pending content failed", "error", err)
		return
	}

	fresh := make([]domain.ContentItem, 0, len(items))
	p.mu.Lock()
	for _, item := range items {
		if _, seen := p.processed[item.ID]; seen {
			continue
		}
		// Mark before scheduling so a re-poll cannot race a slow task into
		// a double dispatch.
		p.processed[item.ID] = struct{}{}
		fresh = append(fresh, item)
	}
	tasks, done := p.tasks, p.done
	p.mu.Unlock()

	if len(fresh) == 0 {
		p.logger.Debug("no new pending items")
		return
	}

	p.logger.Info("new pending items discovered", "count", len(fresh))
	p.notify(ctx, discoveryMessage(fresh), ports.LevelInfo)

	for i, item := range fresh {
		item := item
		if tasks == nil {
			// Not running as a background loop (one-shot CLI pass).
			p.processItem(ctx, item)
			continue
		}
		p.inFlight.Add(1)
		task := func() {
			defer p.inFlight.Add(-1)
			p.processItem(ctx, item)
		}
		select {
		case tasks <- task:
		case <-done:
			// Stopped mid-pass: unmark the unscheduled rows so the next
			// Start rediscovers them.
			p.inFlight.Add(-1)
			p.forget(fresh[i:])
			return
		}
	}
}

// InFlight reports how many scheduled items have not finished yet.
func (p *AutoProcessor) InFlight() int {
	return int(p.inFlight.Load())
}

// ResetProcessed clears the dedup memory so rows can be rediscovered.
func (p *AutoProcessor) ResetProcessed() {
	p.mu.Lock()
	p.processed = map[int]struct{}{}
	p.mu.Unlock()
}

// forget drops rows from the dedup memory.
func (p *AutoProcessor) forget(items []domain.ContentItem) {
	p.mu.Lock()
	for _, item := range items {
		delete(p.processed, item.ID)
	}
	p.mu.Unlock()
}

func (p *AutoProcessor) worker(tasks chan func(), done chan struct{}) {
	defer p.wg.Done()
	for {
		select {
		case fn := <-tasks:
			fn()
		case <-done:
			// Run whatever is already queued, then exit.
			for {
				select {
				case fn := <-tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

func (p *AutoProcessor) processItem(ctx context.Context, item domain.ContentItem) {
	log := p.logger.With("content_id", item.ID, "topic", item.Topic)
	log.Info("auto-processing row")

	if err := p.store.UpdateStatus(ctx, item.ID, domain.StatusGenerating, domain.StatusFields{}); err != nil {
		log.Warn("marking row generating failed", "error", err)
	}

	result := p.workflow.ProcessContentItem(ctx, item, false, false)

	if result.Status == domain.WorkflowFailed {
		log.Error("auto-processing failed", "workflow_id", result.WorkflowID, "step", result.CurrentStep)
		p.notify(ctx, fmt.Sprintf(
			"Processing failed\nRow %d: %s\nPlatform: %s\nStep: %s\nCheck the ledger for details.",
			item.ID, item.Topic, item.Platform, result.CurrentStep), ports.LevelError)
		return
	}

	log.Info("auto-processing done", "workflow_id", result.WorkflowID, "status", result.Status)
	p.notify(ctx, fmt.Sprintf(
		"Content generated successfully\nRow %d: %s\nPlatform: %s\nWorkflow ID: %s\nAwaiting approval to publish.",
		item.ID, item.Topic, item.Platform, result.WorkflowID), ports.LevelSuccess)
}

func (p *AutoProcessor) notify(ctx context.Context, message string, level ports.Level) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, message, level); err != nil {
		p.logger.Warn("notification failed", "error", err)
	}
}

func discoveryMessage(items []domain.ContentItem) string {
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, fmt.Sprintf("New content detected: %d pending item(s)", len(items)))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("  - Row %d: %s (%s)", item.ID, item.Topic, item.Platform))
	}
	return strings.Join(lines, "\n")
}
