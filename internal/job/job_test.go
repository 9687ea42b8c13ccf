package job

import (
	"errors"
	"testing"
	"time"
)

func waitFor(t *testing.T, c *Controller, want State) Status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := c.Status(); st.State == want {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("controller never reached %v, stuck at %v", want, c.Status().State)
	return Status{}
}

func TestSingleFlight(t *testing.T) {
	c := NewController()
	release := make(chan struct{})

	if err := c.TryStart(func(progress func(int, int)) error {
		<-release
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if err := c.TryStart(func(progress func(int, int)) error { return nil }); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second start: err = %v, want ErrRunInProgress", err)
	}

	close(release)
	waitFor(t, c, StateCompleted)

	// A finished controller accepts a new run.
	if err := c.TryStart(func(progress func(int, int)) error { return nil }); err != nil {
		t.Fatalf("restart after completion: %v", err)
	}
	waitFor(t, c, StateCompleted)
}

func TestFailedRunCapturesError(t *testing.T) {
	c := NewController()
	if err := c.TryStart(func(progress func(int, int)) error {
		progress(3, 10)
		return errors.New("fetch exploded")
	}); err != nil {
		t.Fatal(err)
	}
	st := waitFor(t, c, StateFailed)
	if st.Error != "fetch exploded" {
		t.Errorf("error = %q, want fetch exploded", st.Error)
	}
	if st.Analyzed != 3 || st.Total != 10 {
		t.Errorf("progress = %d/%d, want 3/10", st.Analyzed, st.Total)
	}
	if st.FinishedAt.Before(st.StartedAt) {
		t.Error("finished before started")
	}
}

func TestProgressSnapshots(t *testing.T) {
	c := NewController()
	step := make(chan struct{})
	done := make(chan struct{})

	if err := c.TryStart(func(progress func(int, int)) error {
		progress(1, 2)
		step <- struct{}{}
		<-done
		progress(2, 2)
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	<-step
	if st := c.Status(); st.State != StateRunning || st.Analyzed != 1 {
		t.Errorf("mid-run status = %+v, want running 1/2", st)
	}
	close(done)
	st := waitFor(t, c, StateCompleted)
	if st.Analyzed != 2 || st.Total != 2 {
		t.Errorf("final progress = %d/%d, want 2/2", st.Analyzed, st.Total)
	}
}
