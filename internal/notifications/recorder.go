package notifications

import (
	"context"
	"sync"
)

// Recorder captures requests instead of delivering them. Err, when set, is
// returned from every Dispatch after the request is recorded.
type Recorder struct {
	mu       sync.Mutex
	requests []Request
	Err      error
}

// Name identifies the recorder in logs and journal rows.
func (r *Recorder) Name() string { return "recorder" }

// Dispatch keeps req for later inspection and returns Err.
func (r *Recorder) Dispatch(_ context.Context, req Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return r.Err
}

// Requests returns a copy of everything dispatched so far.
func (r *Recorder) Requests() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, len(r.requests))
	copy(out, r.requests)
	return out
}
