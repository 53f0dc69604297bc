package docstore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SidraStore/internal/core/domain"
)

func newStore() *MemoryStore {
	nop := zerolog.Nop()
	return NewMemoryStore(nil, &nop)
}

func TestMemoryStore_WriteMerge_Additive(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{
		"fullName": "Ahmed",
		"nested":   map[string]any{"a": "1"},
	}))
	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{
		"city":   "Riyadh",
		"nested": map[string]any{"b": "2"},
	}))

	rec, err := store.ReadOnce(ctx, "v1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Ahmed", rec.String("fullName"), "earlier fields survive later partial writes")
	assert.Equal(t, "Riyadh", rec.String("city"))

	nested, ok := rec["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "1", nested["a"])
	assert.Equal(t, "2", nested["b"])
}

func TestMemoryStore_ReadOnce_Absent(t *testing.T) {
	store := newStore()
	rec, err := store.ReadOnce(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryStore_Subscribe_DeliversWrites(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	var mu sync.Mutex
	var got []domain.Record
	unsub := store.Subscribe("v1", func(rec domain.Record) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, rec)
	}, func(err error) { t.Errorf("unexpected subscription error: %v", err) })
	defer unsub()

	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"step": "one"}))
	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"step": "two"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 2*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "one", got[0].String("step"))
	assert.Equal(t, "two", got[1].String("step"), "snapshots arrive in write order")
}

func TestMemoryStore_DeliveryOrderUnderBurst(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	var mu sync.Mutex
	var seqs []int
	unsub := store.Subscribe("v1", func(rec domain.Record) {
		mu.Lock()
		defer mu.Unlock()
		if n, ok := rec["seq"].(int); ok {
			seqs = append(seqs, n)
		}
	}, nil)
	defer unsub()

	const writes = 25
	for i := 1; i <= writes; i++ {
		require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"seq": i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seqs) == writes
	}, 2*time.Second, 2*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range seqs {
		// An older snapshot arriving after a newer one would let the
		// coalescing listener briefly hide an approval.
		require.Equal(t, i+1, n, "delivery must preserve write order")
	}
}

func TestMemoryStore_Subscribe_InitialSnapshot(t *testing.T) {
	store := newStore()
	ctx := context.Background()
	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"fullName": "Ahmed"}))

	got := make(chan domain.Record, 1)
	unsub := store.Subscribe("v1", func(rec domain.Record) {
		select {
		case got <- rec:
		default:
		}
	}, nil)
	defer unsub()

	select {
	case rec := <-got:
		assert.Equal(t, "Ahmed", rec.String("fullName"))
	case <-time.After(time.Second):
		t.Fatal("existing document was not delivered to a new subscriber")
	}
}

func TestMemoryStore_Unsubscribe_StopsDelivery(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	var mu sync.Mutex
	count := 0
	unsub := store.Subscribe("v1", func(domain.Record) {
		mu.Lock()
		defer mu.Unlock()
		count++
	}, nil)

	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"a": "1"}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 1
	}, time.Second, 2*time.Millisecond)

	unsub()
	unsub() // safe to call twice

	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"b": "2"}))
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, count, "no delivery after unsubscribe")
}

func TestMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	store := newStore()
	ctx := context.Background()

	got := make(chan domain.Record, 1)
	unsub := store.Subscribe("v1", func(rec domain.Record) {
		select {
		case got <- rec:
		default:
		}
	}, nil)
	defer unsub()

	require.NoError(t, store.WriteMerge(ctx, "v1", map[string]any{"fullName": "Ahmed"}))

	var rec domain.Record
	select {
	case rec = <-got:
	case <-time.After(time.Second):
		t.Fatal("write was not delivered")
	}

	// Mutating the delivered snapshot must not leak into the store.
	rec["fullName"] = "tampered"
	stored, err := store.ReadOnce(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "Ahmed", stored.String("fullName"))

	// And mutating a read copy must not either.
	stored["city"] = "tampered"
	again, err := store.ReadOnce(ctx, "v1")
	require.NoError(t, err)
	assert.Empty(t, again.String("city"))
}
