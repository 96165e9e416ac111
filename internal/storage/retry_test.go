package storage

import (
	"context"
	"testing"
	"time"
)

// flakyAdapter fails the first n calls with ErrUnavailable.
type flakyAdapter struct {
	failures int
	calls    int
}

func (f *flakyAdapter) attempt() error {
	f.calls++
	if f.calls <= f.failures {
		return ErrUnavailable
	}
	return nil
}

func (f *flakyAdapter) Get(context.Context, string, string) ([]byte, bool, error) {
	if err := f.attempt(); err != nil {
		return nil, false, err
	}
	return []byte(`{}`), true, nil
}

func (f *flakyAdapter) FindBy(context.Context, string, string, string) ([]byte, bool, error) {
	if err := f.attempt(); err != nil {
		return nil, false, err
	}
	return []byte(`{}`), true, nil
}

func (f *flakyAdapter) List(context.Context, string) ([][]byte, error) {
	if err := f.attempt(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *flakyAdapter) CreateIfAbsent(context.Context, string, string, Uniqueness, []byte, time.Duration) error {
	return f.attempt()
}

func (f *flakyAdapter) Put(context.Context, string, string, []byte, time.Duration) error {
	return f.attempt()
}

func (f *flakyAdapter) Delete(context.Context, string, string) error {
	return f.attempt()
}

// blockingAdapter never returns until the call context is done.
type blockingAdapter struct{ flakyAdapter }

func (b *blockingAdapter) Get(ctx context.Context, _, _ string) ([]byte, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func TestRetryRecoversFromSingleFailure(t *testing.T) {
	inner := &flakyAdapter{failures: 1}
	a := WithRetry(inner, time.Second)

	_, ok, err := a.Get(context.Background(), "users", "u1")
	if err != nil {
		t.Fatalf("expected recovery after one retry, got %v", err)
	}
	if !ok {
		t.Fatal("expected record")
	}
	if inner.calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", inner.calls)
	}
}

func TestRetrySurfacesAfterSecondFailure(t *testing.T) {
	inner := &flakyAdapter{failures: 2}
	a := WithRetry(inner, time.Second)

	err := a.Put(context.Background(), "users", "u1", []byte(`{}`), 0)
	if !IsUnavailable(err) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("retry must happen at most once, got %d attempts", inner.calls)
	}
}

func TestRetryAppliesImplicitTimeout(t *testing.T) {
	a := WithRetry(&blockingAdapter{}, 10*time.Millisecond)

	start := time.Now()
	_, _, err := a.Get(context.Background(), "users", "u1")
	if !IsUnavailable(err) {
		t.Fatalf("expected ErrUnavailable on timeout, got %v", err)
	}
	// One timeout plus one retried timeout, but nowhere near unbounded.
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("call blocked too long: %v", elapsed)
	}
}

func TestRetrySkipsWhenRequestAborted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &flakyAdapter{failures: 10}
	a := WithRetry(inner, time.Second)

	err := a.Delete(ctx, "users", "u1")
	if !IsUnavailable(err) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("aborted request must not retry, got %d attempts", inner.calls)
	}
}
