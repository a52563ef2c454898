package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterIsIdempotent(t *testing.T) {
	// MustRegister panics on duplicate registration; the once-guard must
	// absorb repeat calls.
	Register()
	Register()
}

func TestObserveLine(t *testing.T) {
	before := testutil.ToFloat64(linesPublished.WithLabelValues("primary/stdout"))
	ObserveLine("primary/stdout")
	ObserveLine("primary/stdout")
	after := testutil.ToFloat64(linesPublished.WithLabelValues("primary/stdout"))

	if after-before != 2 {
		t.Errorf("expected counter to advance by 2, got %v", after-before)
	}
}

func TestSetWorkerUp(t *testing.T) {
	SetWorkerUp("primary", true)
	if v := testutil.ToFloat64(workerUp.WithLabelValues("primary")); v != 1 {
		t.Errorf("expected 1, got %v", v)
	}
	SetWorkerUp("primary", false)
	if v := testutil.ToFloat64(workerUp.WithLabelValues("primary")); v != 0 {
		t.Errorf("expected 0, got %v", v)
	}
}

func TestWorkerExited(t *testing.T) {
	before := testutil.ToFloat64(unsolicitedExits.WithLabelValues("secondary", "crashed"))
	WorkerExited("secondary", "crashed")
	after := testutil.ToFloat64(unsolicitedExits.WithLabelValues("secondary", "crashed"))

	if after-before != 1 {
		t.Errorf("expected counter to advance by 1, got %v", after-before)
	}
}

func TestOrphansSwept(t *testing.T) {
	before := testutil.ToFloat64(orphansSwept)
	OrphansSwept(2)
	after := testutil.ToFloat64(orphansSwept)

	if after-before != 2 {
		t.Errorf("expected counter to advance by 2, got %v", after-before)
	}
}
