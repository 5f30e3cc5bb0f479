package reconcile

import "worklane/internal/domain"

// MatchResult pairs a new task with its best clarified candidate.
// Task is nil exactly when Score is 0.
type MatchResult struct {
	Task  *domain.Task
	Score int
}

// FindBestMatch scans previous for the clarified task whose name scores
// highest against task's name. Candidates with empty normalized names are
// skipped, as is the search entirely when task's own name is empty. Ties keep
// the first candidate seen in input order; a candidate scoring 0 is never
// returned as a match.
func FindBestMatch(task domain.Task, previous []domain.Task) MatchResult {
	if normalizeLabel(task.Name) == "" {
		return MatchResult{}
	}

	best := MatchResult{}
	for i := range previous {
		if normalizeLabel(previous[i].Name) == "" {
			continue
		}
		score := Score(task.Name, previous[i].Name)
		if score > best.Score {
			best = MatchResult{Task: &previous[i], Score: score}
		}
	}
	return best
}
