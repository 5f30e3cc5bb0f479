package reconcile

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"worklane/internal/domain"
)

// DefaultMatchThreshold is the minimum combined score for treating a new and
// a clarified task as the same logical line of work.
const DefaultMatchThreshold = 80

// ReasonPreservationDisabled is set on stats when the merge short-circuits
// because preservation is off or there is nothing to preserve against.
const ReasonPreservationDisabled = "preservation_disabled_or_no_history"

// Options tunes a merge run.
type Options struct {
	// MatchThreshold is the minimum combined similarity score (0..100) for a
	// clarified task to be preserved.
	MatchThreshold int

	// DriftTolerance is the relative pricing change beyond which the new
	// extraction's pricing replaces the clarified pricing.
	DriftTolerance decimal.Decimal

	// HistoryLimit caps refinement snapshots retained per identifier.
	HistoryLimit int

	// Now supplies merge timestamps; defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the production merge settings: threshold 80, 10%
// drift tolerance, history capped at 5.
func DefaultOptions() Options {
	return Options{
		MatchThreshold: DefaultMatchThreshold,
		DriftTolerance: decimal.NewFromFloat(0.10),
		HistoryLimit:   HistoryLimit,
		Now:            time.Now,
	}
}

// MergeDetail is the per-task diagnostic record of a merge run.
type MergeDetail struct {
	Index        int                  `json:"index"`
	Decision     domain.MergeDecision `json:"decision"`
	MatchScore   int                  `json:"match_score"`
	OriginalName string               `json:"original_name"`
	RefinedName  string               `json:"refined_name,omitempty"`
}

// MergeStats aggregates the outcome of a merge run.
type MergeStats struct {
	PreservedCount   int           `json:"preserved_count"`
	NewCount         int           `json:"new_count"`
	TotalCount       int           `json:"total_count"`
	PreservationRate float64       `json:"preservation_rate"`
	Reason           string        `json:"reason,omitempty"`
	Details          []MergeDetail `json:"details"`
}

// Merge reconciles extracted tasks against the clarified tasks using the
// default options. See MergeWithOptions.
func Merge(extracted, clarified []domain.Task, enabled bool, history History) ([]domain.Task, *MergeStats, History) {
	return MergeWithOptions(extracted, clarified, enabled, history, DefaultOptions())
}

// MergeWithOptions pairs each extracted task with its best clarified match,
// keeps the clarified task's qualitative fields for pairs at or above the
// match threshold (refreshing pricing only when it drifted beyond tolerance),
// and passes unmatched tasks through verbatim. Each preserved task appends a
// refinement snapshot to the returned History.
//
// The inputs are never mutated: merged tasks are deep copies and the returned
// History shares only untouched buckets with the one passed in. Callers
// thread the returned History into the next merge.
func MergeWithOptions(extracted, clarified []domain.Task, enabled bool, history History, opts Options) ([]domain.Task, *MergeStats, History) {
	if opts.MatchThreshold <= 0 {
		opts.MatchThreshold = DefaultMatchThreshold
	}
	if opts.DriftTolerance.IsZero() {
		opts.DriftTolerance = decimal.NewFromFloat(0.10)
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = HistoryLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	if !enabled || len(clarified) == 0 {
		return extracted, &MergeStats{
			NewCount:   len(extracted),
			TotalCount: len(extracted),
			Reason:     ReasonPreservationDisabled,
		}, history
	}

	merged := make([]domain.Task, 0, len(extracted))
	details := make([]MergeDetail, 0, len(extracted))
	updatedHistory := make(History, len(history)+len(extracted))
	for id, entries := range history {
		updatedHistory[id] = entries
	}

	preserved := 0
	for i, task := range extracted {
		match := FindBestMatch(task, clarified)
		if match.Task == nil || match.Score < opts.MatchThreshold {
			merged = append(merged, task)
			details = append(details, MergeDetail{
				Index:        i,
				Decision:     domain.MergeDecisionNewExtraction,
				MatchScore:   match.Score,
				OriginalName: task.Name,
			})
			continue
		}

		now := opts.Now()
		out := match.Task.Clone()
		info := &domain.TaskMergeInfo{
			Decision:   domain.MergeDecisionPreserved,
			MatchScore: match.Score,
			MergedAt:   now,
		}
		if PricingChanged(task, *match.Task, opts.DriftTolerance) {
			out.EstimatedHours = task.EstimatedHours
			out.HourlyRate = task.HourlyRate
			out.Amount = task.Amount
			out.ActualHours = task.ActualHours
			info.Pricing = domain.PricingUpdatedFromReparse
			updatedAt := now
			info.PricingUpdatedAt = &updatedAt
		} else {
			info.Pricing = domain.PricingPreservedFromClarification
		}
		out.Merge = info

		merged = append(merged, out)
		preserved++
		details = append(details, MergeDetail{
			Index:        i,
			Decision:     domain.MergeDecisionPreserved,
			MatchScore:   match.Score,
			OriginalName: task.Name,
			RefinedName:  match.Task.Name,
		})

		// History is keyed by the freshly extracted task so a drifting
		// amount starts a new logical line.
		id := IdentifierFor(task)
		updatedHistory[id] = appendEntry(updatedHistory[id], HistoryEntry{
			RefinedData: out,
			Timestamp:   now,
			Version:     len(updatedHistory[id]) + 1,
		}, opts.HistoryLimit)
	}

	stats := &MergeStats{
		PreservedCount:   preserved,
		NewCount:         len(extracted) - preserved,
		TotalCount:       len(extracted),
		PreservationRate: preservationRate(preserved, len(extracted)),
		Details:          details,
	}
	return merged, stats, updatedHistory
}

// preservationRate is preserved/total as a percentage, rounded to 2 decimal
// places; 0 for an empty input.
func preservationRate(preserved, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(preserved)/float64(total)*100*100) / 100
}

// Summarize renders stats as the one-line summary surfaced to users and logs.
func Summarize(stats *MergeStats) string {
	if stats.PreservedCount == 0 {
		return fmt.Sprintf("Imported %d new tasks (no previous clarifications to preserve)", stats.NewCount)
	}
	return fmt.Sprintf("Preserved %d clarified tasks, imported %d new tasks (%.2f%% preservation rate)",
		stats.PreservedCount, stats.NewCount, stats.PreservationRate)
}
