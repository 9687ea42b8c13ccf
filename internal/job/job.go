// Package job provides single-flight semantics for long-running analysis
// runs: one run at a time, with an observable status snapshot.
package job

import (
	"errors"
	"log"
	"sync"
	"time"
)

// ErrRunInProgress is returned by TryStart while a run is active.
var ErrRunInProgress = errors.New("run already in progress")

// State is the lifecycle of the most recent run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Status is a point-in-time snapshot of the controller.
type Status struct {
	State      State     `json:"state"`
	Analyzed   int       `json:"analyzed"`
	Total      int       `json:"total"`
	StartedAt  time.Time `json:"started_at,omitempty"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Controller serializes runs. A second TryStart while running is rejected,
// never queued.
type Controller struct {
	mu     sync.Mutex
	status Status
}

// NewController starts idle.
func NewController() *Controller {
	return &Controller{status: Status{State: StateIdle}}
}

// TryStart launches fn on its own goroutine if no run is active. fn receives
// a progress callback to report analyzed/total counts.
func (c *Controller) TryStart(fn func(progress func(done, total int)) error) error {
	c.mu.Lock()
	if c.status.State == StateRunning {
		c.mu.Unlock()
		return ErrRunInProgress
	}
	c.status = Status{State: StateRunning, StartedAt: time.Now()}
	c.mu.Unlock()

	go func() {
		err := fn(c.progress)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.status.FinishedAt = time.Now()
		if err != nil {
			c.status.State = StateFailed
			c.status.Error = err.Error()
			log.Printf("[ERROR] job: run failed: %v", err)
			return
		}
		c.status.State = StateCompleted
	}()
	return nil
}

func (c *Controller) progress(done, total int) {
	c.mu.Lock()
	c.status.Analyzed = done
	c.status.Total = total
	c.mu.Unlock()
}

// Status returns a copy of the current status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
