package reconcile

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"worklane/internal/domain"
)

// HistoryLimit is the number of refinement snapshots retained per identifier.
const HistoryLimit = 5

// HistoryEntry is one timestamped snapshot of a task's refined state.
type HistoryEntry struct {
	RefinedData domain.Task `json:"refined_data"`
	Timestamp   time.Time   `json:"timestamp"`
	Version     int         `json:"version"`
}

// History maps a task identifier to its refinement snapshots, oldest first.
// Each bucket is capped at HistoryLimit entries.
type History map[string][]HistoryEntry

// IdentifierFor derives the stable history key for a task: an md5 content
// hash of the normalized name and the amount, truncated to 12 hex characters.
// Two distinct tasks sharing a normalized name and amount collide on purpose;
// they are treated as the same logical line of work.
func IdentifierFor(task domain.Task) string {
	key := normalizeLabel(task.Name) + "_" + task.Amount.String()
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:12]
}

// appendEntry appends to a copy of entries, dropping the oldest entries once
// the bucket exceeds limit. The input slice is never mutated.
func appendEntry(entries []HistoryEntry, entry HistoryEntry, limit int) []HistoryEntry {
	updated := make([]HistoryEntry, 0, len(entries)+1)
	updated = append(updated, entries...)
	updated = append(updated, entry)
	if limit > 0 && len(updated) > limit {
		updated = updated[len(updated)-limit:]
	}
	return updated
}

// Append records a refinement snapshot for identifier and returns a new
// History; the receiver is left untouched. Buckets not appended to are shared
// with the receiver.
func (h History) Append(identifier string, entry HistoryEntry, limit int) History {
	updated := make(History, len(h)+1)
	for id, entries := range h {
		updated[id] = entries
	}
	updated[identifier] = appendEntry(h[identifier], entry, limit)
	return updated
}
