// Package matchmaker folds the queue of waiting apps into fixed-size
// testing groups.
package matchmaker

import "github.com/twentytesters/backend/internal/models"

// selectBatch greedily picks a group-sized batch from the queue.
//
// entries must be ordered by join time, oldest first. windowLimit is
// the Unix timestamp closing the matching window, measured from the
// oldest entry. Each user contributes at most one app per batch.
//
// The walk stops at the first unselected entry that joined after the
// window closed: if at least min entries were selected by then the
// batch is finalized at its current size, otherwise the whole pass
// waits (returns nil). A batch never exceeds max entries.
func selectBatch(entries []models.QueueEntry, windowLimit int64, min, max int) []models.QueueEntry {
	var selected []models.QueueEntry
	used := make(map[string]struct{})

	for _, entry := range entries {
		if _, ok := used[entry.UserID]; ok {
			continue
		}

		if len(selected) > 0 && entry.JoinedAt > windowLimit {
			if len(selected) < min {
				return nil
			}
			break
		}

		selected = append(selected, entry)
		used[entry.UserID] = struct{}{}

		if len(selected) == max {
			break
		}
	}

	if len(selected) < min {
		return nil
	}
	return selected
}
