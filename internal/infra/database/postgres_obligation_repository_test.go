package database

import (
	"errors"
	"testing"

	"fintrack/internal/domain/obligation"
)

func TestResolveSettleMiss(t *testing.T) {
	t.Parallel()

	settled := &obligation.Obligation{ID: 7, Status: obligation.StatusSettled}
	if got, err := resolveSettleMiss(7, settled, nil); err != ErrObligationAlreadySettled {
		t.Fatalf("settled row: err = %v, want ErrObligationAlreadySettled", err)
	} else if got != settled {
		t.Fatal("settled row: must return the existing row")
	}

	if _, err := resolveSettleMiss(7, nil, ErrObligationNotFound); err != ErrObligationNotFound {
		t.Fatalf("missing row: err = %v, want ErrObligationNotFound", err)
	}

	// A pending row that the UPDATE nevertheless missed reads as not found;
	// the caller retries on the next call.
	pending := &obligation.Obligation{ID: 7, Status: obligation.StatusPending}
	if _, err := resolveSettleMiss(7, pending, nil); err != ErrObligationNotFound {
		t.Fatalf("pending row: err = %v, want ErrObligationNotFound", err)
	}

	dbDown := errors.New("connection reset by peer")
	_, err := resolveSettleMiss(7, nil, dbDown)
	if !errors.Is(err, dbDown) {
		t.Fatalf("transient lookup failure: err = %v, want wrapped %v", err, dbDown)
	}
	if errors.Is(err, ErrObligationNotFound) {
		t.Fatal("transient lookup failure must not read as a missing row")
	}
}
