package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"

	"github.com/ufukayyildiz/tocwtr2b/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *goredis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client), client, mr
}

// failPipelineOnce rejects the first MULTI/EXEC it sees, simulating a
// transport failure between the uniqueness claim and the record write.
type failPipelineOnce struct {
	tripped bool
}

func (h *failPipelineOnce) BeforeProcess(ctx context.Context, cmd goredis.Cmder) (context.Context, error) {
	return ctx, nil
}

func (h *failPipelineOnce) AfterProcess(ctx context.Context, cmd goredis.Cmder) error {
	return nil
}

func (h *failPipelineOnce) BeforeProcessPipeline(ctx context.Context, cmds []goredis.Cmder) (context.Context, error) {
	if !h.tripped {
		h.tripped = true
		return ctx, errors.New("connection reset by peer")
	}
	return ctx, nil
}

func (h *failPipelineOnce) AfterProcessPipeline(ctx context.Context, cmds []goredis.Cmder) error {
	return nil
}

func TestRoundTrip(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, storage.CollectionItems, "i1", []byte(`{"n":1}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	data, ok, err := s.Get(ctx, storage.CollectionItems, "i1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"n":1}` {
		t.Fatalf("unexpected data %s", data)
	}
	if _, ok, _ := s.Get(ctx, storage.CollectionItems, "absent"); ok {
		t.Fatal("absent key reported present")
	}
}

func TestCreateIfAbsentConflict(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	unique := storage.Uniqueness{Field: "username", Value: "ada"}
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, []byte(`{"username":"ada"}`), 0); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u2", unique, []byte(`{"username":"ada"}`), 0)
	if !storage.IsConflict(err) {
		t.Fatalf("duplicate username: got %v, want conflict", err)
	}

	data, ok, err := s.FindBy(ctx, storage.CollectionUsers, "username", "ada")
	if err != nil || !ok {
		t.Fatalf("findBy: ok=%v err=%v", ok, err)
	}
	if string(data) != `{"username":"ada"}` {
		t.Fatalf("unexpected data %s", data)
	}
}

func TestCreateIfAbsentReleasesClaimOnWriteFailure(t *testing.T) {
	s, client, _ := newTestStore(t)
	client.AddHook(&failPipelineOnce{})
	ctx := context.Background()

	unique := storage.Uniqueness{Field: "username", Value: "ada"}
	data := []byte(`{"id":"u1","username":"ada"}`)

	err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, data, 0)
	if !storage.IsUnavailable(err) {
		t.Fatalf("failed write: got %v, want unavailable", err)
	}

	// The failed attempt must not leave the username claimed: the same
	// create retried must succeed, and the record must be findable.
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, data, 0); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	got, ok, err := s.FindBy(ctx, storage.CollectionUsers, "username", "ada")
	if err != nil || !ok {
		t.Fatalf("findBy after retry: ok=%v err=%v", ok, err)
	}
	if string(got) != string(data) {
		t.Fatalf("unexpected data %s", got)
	}
}

func TestCreateIfAbsentReclaimsOwnStaleClaim(t *testing.T) {
	s, client, _ := newTestStore(t)
	ctx := context.Background()

	// A claim left behind by a write that failed after SETNX and whose
	// cleanup also failed. The same key may retake it; any other key
	// still conflicts.
	unique := storage.Uniqueness{Field: "username", Value: "ada"}
	if err := client.SetNX(ctx, indexKey(storage.CollectionUsers, "username", "ada"), "u1", 0).Err(); err != nil {
		t.Fatalf("seed claim: %v", err)
	}

	err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u2", unique, []byte(`{}`), 0)
	if !storage.IsConflict(err) {
		t.Fatalf("other key: got %v, want conflict", err)
	}
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, []byte(`{"id":"u1"}`), 0); err != nil {
		t.Fatalf("same key: %v", err)
	}
	if _, ok, err := s.Get(ctx, storage.CollectionUsers, "u1"); err != nil || !ok {
		t.Fatalf("record after re-claim: ok=%v err=%v", ok, err)
	}
}

func TestDeleteReleasesUniquenessClaim(t *testing.T) {
	s, _, _ := newTestStore(t)
	ctx := context.Background()

	unique := storage.Uniqueness{Field: "username", Value: "ada"}
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, []byte(`{"username":"ada"}`), 0); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Delete(ctx, storage.CollectionUsers, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok, _ := s.FindBy(ctx, storage.CollectionUsers, "username", "ada"); ok {
		t.Fatal("index entry survived delete")
	}
	// The freed slot is usable by a different key.
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u2", unique, []byte(`{"username":"ada"}`), 0); err != nil {
		t.Fatalf("recreate after delete: %v", err)
	}
}

func TestTTLExpiresRecordAndClaim(t *testing.T) {
	s, _, mr := newTestStore(t)
	ctx := context.Background()

	unique := storage.Uniqueness{Field: "username", Value: "ada"}
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u1", unique, []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("create: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	if _, ok, _ := s.Get(ctx, storage.CollectionUsers, "u1"); ok {
		t.Fatal("record survived TTL")
	}
	if err := s.CreateIfAbsent(ctx, storage.CollectionUsers, "u2", unique, []byte(`{}`), time.Minute); err != nil {
		t.Fatalf("claim survived TTL: %v", err)
	}
}
