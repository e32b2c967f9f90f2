// Package marker drives admin attendance marking. Each user row is guarded
// by its own in-flight flag; distinct rows proceed concurrently with no
// global lock and no ordering between their completions.
package marker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"attenddesk/internal/api"
)

// ErrInFlight means a mark for that user is already being issued; the
// duplicate is dropped rather than queued behind it.
var ErrInFlight = errors.New("marker: mark already in flight for user")

// Result is the outcome of the most recent mark attempt for a user.
type Result struct {
	Status string
	Err    string
	When   time.Time
}

// Dispatcher consumes mark jobs with a small worker pool and tracks
// per-user progress for the admin view.
type Dispatcher struct {
	q       Queue
	api     *api.Client
	workers int

	mu       sync.Mutex
	inflight map[api.ID]bool
	results  map[api.ID]Result
}

// NewDispatcher creates a dispatcher with the given worker count.
func NewDispatcher(q Queue, client *api.Client, workers int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	return &Dispatcher{
		q:        q,
		api:      client,
		workers:  workers,
		inflight: make(map[api.ID]bool),
		results:  make(map[api.ID]Result),
	}
}

// Run consumes the queue until ctx is cancelled. Call from a goroutine.
func (d *Dispatcher) Run(ctx context.Context) error {
	jobs, err := d.q.Consume(ctx)
	if err != nil {
		return err
	}
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if err := d.Mark(ctx, job); err != nil && !errors.Is(err, ErrInFlight) {
					log.Printf("mark %s as %s failed: %v", job.UserID, job.Status, err)
				}
			}
		}()
	}
	wg.Wait()
	return nil
}

// Enqueue validates and queues a job for the worker pool.
func (d *Dispatcher) Enqueue(ctx context.Context, job Job) error {
	if job.UserID == "" || job.Date == "" {
		return errors.New("marker: user and date required")
	}
	if !api.ValidStatus(job.Status) {
		return fmt.Errorf("marker: unknown status %q", job.Status)
	}
	return d.q.Publish(ctx, job)
}

// Mark issues one mark call synchronously. The user's flag is set when
// marking begins and cleared on completion or failure; a concurrent mark
// for the same user returns ErrInFlight.
func (d *Dispatcher) Mark(ctx context.Context, job Job) error {
	if !api.ValidStatus(job.Status) {
		return fmt.Errorf("marker: unknown status %q", job.Status)
	}
	if !d.begin(job.UserID) {
		return ErrInFlight
	}

	_, err := d.api.Mark(ctx, api.MarkRequest{UserID: job.UserID, Status: job.Status, Date: job.Date})
	d.finish(job, err)
	return err
}

func (d *Dispatcher) begin(id api.ID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inflight[id] {
		return false
	}
	d.inflight[id] = true
	return true
}

func (d *Dispatcher) finish(job Job, err error) {
	res := Result{Status: job.Status, When: time.Now().UTC()}
	if err != nil {
		res.Err = api.Reason(err)
	}
	d.mu.Lock()
	delete(d.inflight, job.UserID)
	d.results[job.UserID] = res
	d.mu.Unlock()
}

// InFlight returns a copy of the per-user flags.
func (d *Dispatcher) InFlight() map[api.ID]bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[api.ID]bool, len(d.inflight))
	for id, v := range d.inflight {
		out[id] = v
	}
	return out
}

// Results returns a copy of the latest per-user outcomes.
func (d *Dispatcher) Results() map[api.ID]Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[api.ID]Result, len(d.results))
	for id, v := range d.results {
		out[id] = v
	}
	return out
}
