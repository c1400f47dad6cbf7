package scheduler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testRegistry() *JobRegistry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewJobRegistry(time.UTC, log)
}

func noop(ctx context.Context) error { return nil }

func TestRegisterRejectsDuplicates(t *testing.T) {
	t.Parallel()
	r := testRegistry()
	if err := r.Register("daily", "0 9 * * *", noop); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register("daily", "0 10 * * *", noop); err == nil {
		t.Fatal("duplicate registration must error")
	}
}

func TestStartUnknownJob(t *testing.T) {
	t.Parallel()
	r := testRegistry()
	if err := r.Start("missing"); err == nil {
		t.Fatal("starting an unregistered job must error")
	}
	if err := r.Stop("missing"); err == nil {
		t.Fatal("stopping an unregistered job must error")
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	t.Parallel()
	r := testRegistry()
	if err := r.Register("bad", "not a cron spec", noop); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Start("bad"); err == nil {
		t.Fatal("invalid cron spec must fail at Start")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	t.Parallel()
	r := testRegistry()
	if err := r.Register("daily", "0 9 * * *", noop); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Start("daily"); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := r.Start("daily"); err != nil {
		t.Fatalf("second Start must be a no-op, got %v", err)
	}
	if err := r.Stop("daily"); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := r.Stop("daily"); err != nil {
		t.Fatalf("second Stop must be a no-op, got %v", err)
	}
	// A stopped job can be scheduled again.
	if err := r.Start("daily"); err != nil {
		t.Fatalf("restart error: %v", err)
	}
}
