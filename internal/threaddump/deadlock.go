package threaddump

import "sort"

// FindDeadlockedCycles extracts every lock-wait cycle among the given
// threads. Only threads with a lock owner id participate; a chain whose
// owner id resolves to a thread outside that set is terminal and simply
// discarded, never an error.
//
// Each chase removes the threads it visits from the working pool, so every
// blocked thread is chased at most once and each true cycle is discovered
// exactly once regardless of input order. Members of a cycle are ordered by
// descending thread id, and cycles by descending id of their first member.
func FindDeadlockedCycles(threads []Thread) [][]Thread {
	blocked := make(map[int64]Thread)
	for _, t := range threads {
		if t.LockOwnerID != nil {
			blocked[t.ID] = t
		}
	}
	if len(blocked) == 0 {
		// optimized common case
		return nil
	}

	remaining := make(map[int64]Thread, len(blocked))
	for id, t := range blocked {
		remaining[id] = t
	}

	var cycleRoots []Thread
	for len(remaining) > 0 {
		var cur Thread
		for id, t := range remaining {
			cur = t
			delete(remaining, id)
			break
		}
		seen := make(map[int64]struct{})
		for {
			seen[cur.ID] = struct{}{}
			ownerID := *cur.LockOwnerID
			if _, ok := seen[ownerID]; ok {
				// the current thread's owner closes the loop
				cycleRoots = append(cycleRoots, cur)
				break
			}
			next, ok := remaining[ownerID]
			if !ok {
				break
			}
			delete(remaining, ownerID)
			cur = next
		}
	}
	if len(cycleRoots) == 0 {
		// optimized common case
		return nil
	}

	cycles := make([][]Thread, 0, len(cycleRoots))
	for _, root := range cycleRoots {
		cycle := []Thread{root}
		cur := mustBlocked(blocked, *root.LockOwnerID)
		for cur.ID != root.ID {
			cycle = append(cycle, cur)
			cur = mustBlocked(blocked, *cur.LockOwnerID)
		}
		sort.Slice(cycle, func(i, j int) bool { return cycle[i].ID > cycle[j].ID })
		cycles = append(cycles, cycle)
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0].ID > cycles[j][0].ID })
	return cycles
}

func mustBlocked(blocked map[int64]Thread, id int64) Thread {
	t, ok := blocked[id]
	if !ok {
		// a recorded cycle always stays within the blocked set
		panic("threaddump: cycle member missing from blocked thread set")
	}
	return t
}
