package storage

import (
	"context"
	"errors"
	"time"
)

// retryAdapter decorates an Adapter with the caller-side resilience policy:
// every call gets an implicit timeout, and a call that fails with
// ErrUnavailable (or a deadline) is retried exactly once before the error
// surfaces.
type retryAdapter struct {
	next    Adapter
	timeout time.Duration
}

// WithRetry wraps an adapter with per-call timeouts and a single retry on
// transient failure. A non-positive timeout defaults to two seconds.
func WithRetry(next Adapter, timeout time.Duration) Adapter {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &retryAdapter{next: next, timeout: timeout}
}

func (r *retryAdapter) do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()
		err := op(callCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrUnavailable
		}
		return err
	}

	err := attempt()
	if !IsUnavailable(err) {
		return err
	}
	// The request itself may have been aborted; do not retry in that case.
	if ctx.Err() != nil {
		return ErrUnavailable
	}
	return attempt()
}

func (r *retryAdapter) Get(ctx context.Context, collection, key string) ([]byte, bool, error) {
	var (
		data []byte
		ok   bool
	)
	err := r.do(ctx, func(ctx context.Context) error {
		var opErr error
		data, ok, opErr = r.next.Get(ctx, collection, key)
		return opErr
	})
	return data, ok, err
}

func (r *retryAdapter) FindBy(ctx context.Context, collection, field, value string) ([]byte, bool, error) {
	var (
		data []byte
		ok   bool
	)
	err := r.do(ctx, func(ctx context.Context) error {
		var opErr error
		data, ok, opErr = r.next.FindBy(ctx, collection, field, value)
		return opErr
	})
	return data, ok, err
}

func (r *retryAdapter) List(ctx context.Context, collection string) ([][]byte, error) {
	var records [][]byte
	err := r.do(ctx, func(ctx context.Context) error {
		var opErr error
		records, opErr = r.next.List(ctx, collection)
		return opErr
	})
	return records, err
}

// CreateIfAbsent is the one non-idempotent operation. Retrying after a
// partially observed failure is still safe: if the first attempt actually
// landed, the second collapses into ErrConflict and exactly one record
// exists.
func (r *retryAdapter) CreateIfAbsent(ctx context.Context, collection, key string, unique Uniqueness, data []byte, ttl time.Duration) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.CreateIfAbsent(ctx, collection, key, unique, data, ttl)
	})
}

func (r *retryAdapter) Put(ctx context.Context, collection, key string, data []byte, ttl time.Duration) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.Put(ctx, collection, key, data, ttl)
	})
}

func (r *retryAdapter) Delete(ctx context.Context, collection, key string) error {
	return r.do(ctx, func(ctx context.Context) error {
		return r.next.Delete(ctx, collection, key)
	})
}
