package eventstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB attempts to connect to a PostgreSQL database for testing.
// It skips the test if the connection cannot be established.
func setupTestDB(t testing.TB) *sql.DB {
	t.Helper()

	env := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		env("PGHOST", "localhost"), env("PGPORT", "5432"), env("PGUSER", "potrack"),
		env("PGPASSWORD", "potrack"), env("PGDATABASE", "potrack_test"))

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping postgres tests: could not connect to postgres: %v", err)
	}
	require.NoError(t, NewEventStore(db).Migrate(context.Background()))
	return db
}

type testPayload struct {
	Message string `json:"message"`
}

func newEvents(t testing.TB, n int) []Event {
	t.Helper()
	out := make([]Event, n)
	for i := range out {
		e, err := NewEvent("TestEvent", testPayload{Message: fmt.Sprintf("event %d", i)}, map[string]any{"i": i})
		require.NoError(t, err)
		out[i] = e
	}
	return out
}

type journal interface {
	Append(ctx context.Context, poNumber string, expectedVersion int, events []Event) error
	Load(ctx context.Context, poNumber string, fromVersion, toVersion int) ([]Event, error)
	CurrentVersion(ctx context.Context, poNumber string) (int, error)
	Stream(ctx context.Context, fromID int64, batchSize int) ([]Event, error)
}

func exerciseJournal(t *testing.T, store journal) {
	ctx := context.Background()
	po := "PO-" + uuid.NewString()

	require.NoError(t, store.Append(ctx, po, 0, newEvents(t, 2)))

	version, err := store.CurrentVersion(ctx, po)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	err = store.Append(ctx, po, 1, newEvents(t, 1))
	assert.ErrorIs(t, err, ErrConcurrencyConflict)

	assert.ErrorIs(t, store.Append(ctx, po, -1, newEvents(t, 1)), ErrInvalidVersion)

	require.NoError(t, store.Append(ctx, po, 2, newEvents(t, 1)))

	events, err := store.Load(ctx, po, 1, 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	want := []string{"event 0", "event 1", "event 0"}
	for i, e := range events {
		assert.Equal(t, i+1, e.Version)
		assert.Equal(t, po, e.PONumber)
		assert.Equal(t, AggregateID(po), e.AggregateID)
		assert.JSONEq(t, fmt.Sprintf(`{"message":%q}`, want[i]), string(e.EventData))
	}

	window, err := store.Load(ctx, po, 2, 2)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, 2, window[0].Version)

	streamed, err := store.Stream(ctx, events[0].ID, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(streamed), 2)
	assert.Equal(t, events[1].ID, streamed[0].ID)
}

func TestMemoryStore(t *testing.T) {
	exerciseJournal(t, NewMemoryStore())
}

func TestEventStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()
	exerciseJournal(t, NewEventStore(db))
}

func TestAggregateIDIsStable(t *testing.T) {
	assert.Equal(t, AggregateID("PO-1"), AggregateID("PO-1"))
	assert.NotEqual(t, AggregateID("PO-1"), AggregateID("PO-2"))
}

func BenchmarkAppend(b *testing.B) {
	db := setupTestDB(b)
	defer db.Close()
	store := NewEventStore(db)
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		po := "PO-" + uuid.NewString()
		events := newEvents(b, 1)
		b.StartTimer()

		if err := store.Append(ctx, po, 0, events); err != nil {
			b.Fatalf("Append failed: %v", err)
		}
	}
}
