// Package scheduler re-runs listing jobs on cron schedules, e.g. to keep a
// process table fresh while a target is being watched.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// Job is one refresh. Errors are logged and the job stays scheduled.
type Job func(ctx context.Context) error

// Refresher fires registered jobs through a cron ticker. A job that is still
// running when its next tick arrives is skipped for that tick.
type Refresher struct {
	mu    sync.Mutex
	ctx   context.Context
	cron  *cron.Cron
	names map[string]cron.EntryID
}

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field, plus descriptors like
// "@every 5s".
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Refresher whose jobs receive ctx.
func New(ctx context.Context) *Refresher {
	return &Refresher{
		ctx:   ctx,
		cron:  newCron(),
		names: make(map[string]cron.EntryID),
	}
}

func newCron() *cron.Cron {
	return cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
}

// Validate reports whether schedule parses.
func Validate(schedule string) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return nil
}

// Add registers job under name, replacing any job with the same name.
func (r *Refresher) Add(name, schedule string, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.names[name]; ok {
		r.cron.Remove(id)
		delete(r.names, name)
	}

	id, err := r.cron.AddFunc(schedule, func() {
		if r.ctx.Err() != nil {
			return
		}
		slog.Debug("refresh firing", "name", name)
		if err := job(r.ctx); err != nil {
			slog.Error("refresh failed", "name", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	r.names[name] = id
	slog.Info("scheduled refresh", "name", name, "schedule", schedule)
	return nil
}

// Remove unregisters name. Unknown names are ignored.
func (r *Refresher) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.names[name]; ok {
		r.cron.Remove(id)
		delete(r.names, name)
	}
}

// Len returns the number of registered jobs.
func (r *Refresher) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.names)
}

func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop stops the ticker and waits for running jobs to return.
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
}
