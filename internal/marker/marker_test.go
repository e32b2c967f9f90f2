package marker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"attenddesk/internal/api"
)

// markBackend counts POST /attendance/mark calls, optionally failing or
// stalling each one.
type markBackend struct {
	calls atomic.Int64
	fail  bool
	delay time.Duration
}

func (b *markBackend) server(t *testing.T) *api.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/attendance/mark" {
			http.NotFound(w, r)
			return
		}
		if b.delay > 0 {
			time.Sleep(b.delay)
		}
		b.calls.Add(1)
		if b.fail {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"mark rejected"}`)
			return
		}
		fmt.Fprint(w, `{"id":"r1","userId":"u1","date":"2026-08-31","status":"PRESENT"}`)
	}))
	t.Cleanup(srv.Close)
	return api.New(srv.URL, 5*time.Second, false)
}

func TestMarkClearsFlagOnSuccess(t *testing.T) {
	backend := &markBackend{}
	d := NewDispatcher(NewInMemory(4), backend.server(t), 2)

	job := Job{UserID: "u1", Status: api.StatusPresent, Date: "2026-08-31"}
	if err := d.Mark(context.Background(), job); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if len(d.InFlight()) != 0 {
		t.Errorf("in-flight flags left behind: %v", d.InFlight())
	}
	res, ok := d.Results()["u1"]
	if !ok || res.Err != "" || res.Status != api.StatusPresent {
		t.Errorf("result = %+v, ok=%v", res, ok)
	}
}

func TestMarkClearsFlagOnFailure(t *testing.T) {
	backend := &markBackend{fail: true}
	d := NewDispatcher(NewInMemory(4), backend.server(t), 2)

	job := Job{UserID: "u1", Status: api.StatusAbsent, Date: "2026-08-31"}
	if err := d.Mark(context.Background(), job); err == nil {
		t.Fatal("expected error")
	}
	if len(d.InFlight()) != 0 {
		t.Errorf("in-flight flags left behind after failure: %v", d.InFlight())
	}
	if res := d.Results()["u1"]; res.Err != "mark rejected" {
		t.Errorf("result err = %q, want backend message", res.Err)
	}
}

func TestConcurrentMarkSameUserDropsDuplicate(t *testing.T) {
	backend := &markBackend{delay: 150 * time.Millisecond}
	d := NewDispatcher(NewInMemory(4), backend.server(t), 2)
	job := Job{UserID: "u1", Status: api.StatusPresent, Date: "2026-08-31"}

	errCh := make(chan error, 1)
	go func() { errCh <- d.Mark(context.Background(), job) }()
	time.Sleep(30 * time.Millisecond)

	if err := d.Mark(context.Background(), job); !errors.Is(err, ErrInFlight) {
		t.Errorf("second mark err = %v, want ErrInFlight", err)
	}
	if err := <-errCh; err != nil {
		t.Errorf("first mark err = %v", err)
	}
	if got := backend.calls.Load(); got != 1 {
		t.Errorf("backend calls = %d, want 1", got)
	}
}

func TestDistinctUsersProceedConcurrently(t *testing.T) {
	backend := &markBackend{delay: 100 * time.Millisecond}
	d := NewDispatcher(NewInMemory(4), backend.server(t), 4)

	start := time.Now()
	var wg sync.WaitGroup
	for _, id := range []api.ID{"u1", "u2", "u3"} {
		wg.Add(1)
		go func(id api.ID) {
			defer wg.Done()
			_ = d.Mark(context.Background(), Job{UserID: id, Status: api.StatusLate, Date: "2026-08-31"})
		}(id)
	}
	wg.Wait()

	if got := backend.calls.Load(); got != 3 {
		t.Fatalf("backend calls = %d, want 3", got)
	}
	// Serial execution would take ~300ms.
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Errorf("marks appear serialized: %s", elapsed)
	}
}

func TestDispatcherDrainsQueue(t *testing.T) {
	backend := &markBackend{}
	d := NewDispatcher(NewInMemory(8), backend.server(t), 3)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	for _, id := range []api.ID{"u1", "u2", "u3", "u4"} {
		if err := d.Enqueue(ctx, Job{UserID: id, Status: api.StatusPresent, Date: "2026-08-31"}); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	deadline := time.Now().Add(3 * time.Second)
	for backend.calls.Load() < 4 {
		if time.Now().After(deadline) {
			t.Fatalf("queue not drained: %d calls", backend.calls.Load())
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(d.InFlight()) != 0 {
		t.Errorf("flags left after drain: %v", d.InFlight())
	}
}

func TestEnqueueValidates(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(NewInMemory(1), api.New("http://127.0.0.1:1", time.Second, false), 1)
	ctx := context.Background()

	if err := d.Enqueue(ctx, Job{UserID: "u1", Status: "NAPPING", Date: "2026-08-31"}); err == nil {
		t.Error("unknown status accepted")
	}
	if err := d.Enqueue(ctx, Job{Status: api.StatusPresent, Date: "2026-08-31"}); err == nil {
		t.Error("missing user accepted")
	}
}
