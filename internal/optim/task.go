package optim

import (
	"context"

	"github.com/san-kum/glideopt/internal/glide"
	"github.com/san-kum/glideopt/internal/scoring"
)

// Task is an Optimize call running in the background.
type Task struct {
	progress chan Progress
	cancel   context.CancelFunc
	done     chan struct{}

	result *Result
	err    error
}

// Start runs Optimize on its own goroutine. The progress channel keeps only
// the latest report so a slow reader never stalls the search; it is closed
// when the search ends.
func (o *Optimizer) Start(ctx context.Context, params glide.Params, initial glide.State, scorer scoring.Scorer) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		progress: make(chan Progress, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go func() {
		defer close(t.done)
		defer close(t.progress)
		defer cancel()
		t.result, t.err = o.run(ctx, params, initial, scorer, t.publish)
	}()
	return t
}

func (t *Task) publish(p Progress) {
	select {
	case t.progress <- p:
		return
	default:
	}
	// Replace the unread report with the newer one.
	select {
	case <-t.progress:
	default:
	}
	select {
	case t.progress <- p:
	default:
	}
}

func (t *Task) Progress() <-chan Progress { return t.progress }

// Cancel asks the search to stop; Wait still returns the best so far.
func (t *Task) Cancel() { t.cancel() }

func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) Wait() (*Result, error) {
	<-t.done
	return t.result, t.err
}
