package mentionstore

import (
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	logger := zerolog.Nop()
	return New(&logger)
}

func TestStore_Append(t *testing.T) {
	t.Parallel()

	t.Run("newest record comes first", func(t *testing.T) {
		store := newTestStore()
		store.Append(Record{ID: "first", GroupID: "G1"})
		store.Append(Record{ID: "second", GroupID: "G1"})

		got := store.Query("", 10)
		require.Len(t, got, 2)
		assert.Equal(t, "second", got[0].ID)
		assert.Equal(t, "first", got[1].ID)
	})

	t.Run("capacity bounds the store at 100", func(t *testing.T) {
		store := newTestStore()
		for i := 0; i < 101; i++ {
			store.Append(Record{ID: fmt.Sprintf("rec-%d", i), GroupID: "G1"})
		}

		require.Equal(t, 100, store.Len())

		got := store.Query("", 200)
		require.Len(t, got, 100)
		// The oldest record was evicted; the 100 most recent remain,
		// newest first.
		assert.Equal(t, "rec-100", got[0].ID)
		assert.Equal(t, "rec-1", got[99].ID)
	})

	t.Run("concurrent appends never exceed capacity", func(t *testing.T) {
		store := newTestStore()
		var wg sync.WaitGroup
		for w := 0; w < 8; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				for i := 0; i < 50; i++ {
					store.Append(Record{ID: fmt.Sprintf("w%d-%d", w, i)})
				}
			}(w)
		}
		wg.Wait()

		assert.Equal(t, 100, store.Len())
	})
}

func TestStore_Query(t *testing.T) {
	t.Parallel()

	t.Run("empty store yields empty slice", func(t *testing.T) {
		store := newTestStore()
		assert.Empty(t, store.Query("", 10))
		assert.Empty(t, store.Query("G1", 10))
	})

	t.Run("filters by group and honors limit", func(t *testing.T) {
		store := newTestStore()
		for i := 0; i < 5; i++ {
			store.Append(Record{ID: fmt.Sprintf("g1-%d", i), GroupID: "G1"})
		}
		for i := 0; i < 3; i++ {
			store.Append(Record{ID: fmt.Sprintf("g2-%d", i), GroupID: "G2"})
		}

		got := store.Query("G1", 2)
		require.Len(t, got, 2)
		for _, rec := range got {
			assert.Equal(t, "G1", rec.GroupID)
		}
		// Store order is preserved: most recent G1 records first.
		assert.Equal(t, "g1-4", got[0].ID)
		assert.Equal(t, "g1-3", got[1].ID)
	})

	t.Run("limit larger than store returns everything", func(t *testing.T) {
		store := newTestStore()
		store.Append(Record{ID: "only", GroupID: "G1"})

		assert.Len(t, store.Query("G1", 50), 1)
	})
}

func TestStore_GroupSummaries(t *testing.T) {
	t.Parallel()

	store := newTestStore()
	store.Append(Record{GroupID: "G1", GroupName: "Team A", UserName: "alice", Timestamp: 100})
	store.Append(Record{GroupID: "G2", GroupName: "Team B", UserName: "bob", Timestamp: 200})
	store.Append(Record{GroupID: "G1", GroupName: "Team A", UserName: "carol", Timestamp: 300})

	sums := store.GroupSummaries()
	require.Len(t, sums, 2)

	// Most recently mentioned group first.
	assert.Equal(t, "G1", sums[0].GroupID)
	assert.Equal(t, "Team A", sums[0].GroupName)
	assert.Equal(t, 2, sums[0].MentionCount)
	assert.Equal(t, int64(300), sums[0].LastMention)

	assert.Equal(t, "G2", sums[1].GroupID)
	assert.Equal(t, 1, sums[1].MentionCount)
	assert.Equal(t, int64(200), sums[1].LastMention)
}

func TestStore_GroupStats(t *testing.T) {
	t.Parallel()

	t.Run("aggregates one group", func(t *testing.T) {
		store := newTestStore()
		for i := 0; i < 6; i++ {
			store.Append(Record{
				ID:       fmt.Sprintf("g1-%d", i),
				GroupID:  "G1",
				UserName: fmt.Sprintf("user-%d", i%2),
			})
		}
		store.Append(Record{GroupID: "G2", UserName: "other"})

		stats := store.GroupStats("G1")
		assert.Equal(t, "G1", stats.GroupID)
		assert.Equal(t, 6, stats.TotalMentions)
		assert.Equal(t, 2, stats.UniqueUsers)
		assert.Equal(t, 3, stats.MentionsByUser["user-0"])
		assert.Equal(t, 3, stats.MentionsByUser["user-1"])

		// Recent mentions are capped at five, newest first.
		require.Len(t, stats.RecentMentions, 5)
		assert.Equal(t, "g1-5", stats.RecentMentions[0].ID)
	})

	t.Run("unknown group yields zero stats", func(t *testing.T) {
		store := newTestStore()
		stats := store.GroupStats("missing")
		assert.Zero(t, stats.TotalMentions)
		assert.Zero(t, stats.UniqueUsers)
		assert.Empty(t, stats.RecentMentions)
	})
}
