package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}

	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(2, time.Minute)

	_ = b.Do(func() error { return errBoom })
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("err = %v", err)
	}
	_ = b.Do(func() error { return errBoom })

	// One failure after a success must not open a threshold-2 circuit.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("err = %v, circuit opened too early", err)
	}
}

func TestBreakerHalfOpenRecovery(t *testing.T) {
	current := time.Unix(1000, 0)
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return current }

	_ = b.Do(func() error { return errBoom })
	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen", err)
	}

	current = current.Add(31 * time.Second)
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("probe after cooldown failed: %v", err)
	}

	// Circuit closed again.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	current := time.Unix(1000, 0)
	b := NewBreaker(1, 30*time.Second)
	b.now = func() time.Time { return current }

	_ = b.Do(func() error { return errBoom })

	current = current.Add(31 * time.Second)
	if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("err = %v, want boom", err)
	}

	if err := b.Do(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("err = %v, want ErrCircuitOpen after failed probe", err)
	}
}
