// Package mentionstore keeps the most recent mention records in memory.
// Contents are lost on restart; durable storage is out of scope for this
// service.
package mentionstore

import (
	"sync"

	"github.com/rs/zerolog"
)

// DefaultCapacity is how many records the store retains before evicting
// the oldest.
const DefaultCapacity = 100

// Record is one detected mention event, immutable once appended.
type Record struct {
	ID        string   `json:"id"`
	GroupID   string   `json:"groupId"`
	GroupName string   `json:"groupName"`
	UserID    string   `json:"userId"`
	UserName  string   `json:"userName"`
	Message   string   `json:"message"`
	Mentions  []string `json:"mentions"`
	Timestamp int64    `json:"timestamp"`
	MessageID string   `json:"messageId,omitempty"`
}

// GroupSummary aggregates the stored records of one group.
type GroupSummary struct {
	GroupID      string `json:"groupId"`
	GroupName    string `json:"groupName"`
	MentionCount int    `json:"mentionCount"`
	LastMention  int64  `json:"lastMention"`
}

// GroupStats is the detailed per-group aggregate.
type GroupStats struct {
	GroupID        string         `json:"groupId"`
	TotalMentions  int            `json:"totalMentions"`
	UniqueUsers    int            `json:"uniqueUsers"`
	MentionsByUser map[string]int `json:"mentionsByUser"`
	RecentMentions []Record       `json:"recentMentions"`
}

// Store is a bounded, newest-first record log shared across request
// handlers. All mutation goes through Append under the mutex.
type Store struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	logger   *zerolog.Logger
}

// New creates an empty store with DefaultCapacity.
func New(logger *zerolog.Logger) *Store {
	return NewWithCapacity(logger, DefaultCapacity)
}

// NewWithCapacity creates an empty store holding at most capacity records.
func NewWithCapacity(logger *zerolog.Logger, capacity int) *Store {
	return &Store{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
		logger:   logger,
	}
}

// Append inserts rec at the front and evicts the oldest records beyond
// the capacity.
func (s *Store) Append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append([]Record{rec}, s.records...)
	if len(s.records) > s.capacity {
		s.records = s.records[:s.capacity]
	}
	s.logger.Debug().
		Str("group_id", rec.GroupID).
		Strs("mentions", rec.Mentions).
		Int("stored", len(s.records)).
		Msg("Mention record stored")
}

// Query returns at most limit records in store order (newest first),
// filtered to groupID when it is non-empty.
func (s *Store) Query(groupID string, limit int) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, limit)
	for _, rec := range s.records {
		if groupID != "" && rec.GroupID != groupID {
			continue
		}
		out = append(out, rec)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// GroupSummaries recomputes per-group aggregates over the current
// snapshot, ordered by most recent mention first.
func (s *Store) GroupSummaries() []GroupSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byGroup := make(map[string]*GroupSummary)
	order := make([]string, 0)
	for _, rec := range s.records {
		sum, ok := byGroup[rec.GroupID]
		if !ok {
			sum = &GroupSummary{
				GroupID:   rec.GroupID,
				GroupName: rec.GroupName,
			}
			byGroup[rec.GroupID] = sum
			order = append(order, rec.GroupID)
		}
		sum.MentionCount++
		if rec.Timestamp > sum.LastMention {
			sum.LastMention = rec.Timestamp
		}
	}

	// Records are newest first, so first sight of a group is already
	// its most recent mention.
	out := make([]GroupSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *byGroup[id])
	}
	return out
}

// GroupStats recomputes the detailed aggregate for one group. An unknown
// group yields zero counts and no records.
func (s *Store) GroupStats(groupID string) GroupStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const recentLimit = 5

	stats := GroupStats{
		GroupID:        groupID,
		MentionsByUser: make(map[string]int),
		RecentMentions: make([]Record, 0, recentLimit),
	}
	for _, rec := range s.records {
		if rec.GroupID != groupID {
			continue
		}
		stats.TotalMentions++
		stats.MentionsByUser[rec.UserName]++
		if len(stats.RecentMentions) < recentLimit {
			stats.RecentMentions = append(stats.RecentMentions, rec)
		}
	}
	stats.UniqueUsers = len(stats.MentionsByUser)
	return stats
}
