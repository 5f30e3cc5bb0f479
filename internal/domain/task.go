package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Task is a single line item on a proposal: a named unit of work with pricing.
// Extractors routinely emit fields beyond the ones modeled here (milestones,
// internal notes, source page numbers); those are carried through Extra
// byte-for-byte so a reparse never loses them.
type Task struct {
	Name           string          `db:"-"`
	Description    string          `db:"-"`
	Category       string          `db:"-"`
	Amount         decimal.Decimal `db:"-"`
	EstimatedHours decimal.Decimal `db:"-"`
	ActualHours    decimal.Decimal `db:"-"`
	HourlyRate     decimal.Decimal `db:"-"`

	// Merge is reconciliation metadata, present only on tasks that went
	// through a reparse merge.
	Merge *TaskMergeInfo `db:"-"`

	// Extra holds unrecognized JSON fields, keyed by their original name.
	Extra map[string]json.RawMessage `db:"-"`
}

// TaskMergeInfo records how a task came out of reconciliation.
type TaskMergeInfo struct {
	Decision         MergeDecision `json:"decision"`
	MatchScore       int           `json:"match_score"`
	Pricing          PricingSource `json:"pricing"`
	MergedAt         time.Time     `json:"merged_at"`
	PricingUpdatedAt *time.Time    `json:"pricing_updated_at,omitempty"`
}

// Clone returns a deep copy of the task; mutating the copy's Extra or Merge
// does not touch the original.
func (t Task) Clone() Task {
	c := t
	if t.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(t.Extra))
		for k, v := range t.Extra {
			c.Extra[k] = v
		}
	}
	if t.Merge != nil {
		m := *t.Merge
		c.Merge = &m
	}
	return c
}

// UnmarshalJSON decodes the known task fields and stashes everything else in
// Extra. Numeric fields accept both JSON numbers and strings; missing numerics
// stay at decimal zero.
func (t *Task) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	known := map[string]interface{}{
		"name":            &t.Name,
		"description":     &t.Description,
		"category":        &t.Category,
		"amount":          &t.Amount,
		"estimated_hours": &t.EstimatedHours,
		"actual_hours":    &t.ActualHours,
		"hourly_rate":     &t.HourlyRate,
		"merge":           &t.Merge,
	}
	for key, dst := range known {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return fmt.Errorf("decoding task field %q: %w", key, err)
		}
		delete(raw, key)
	}

	if len(raw) > 0 {
		t.Extra = raw
	} else {
		t.Extra = nil
	}
	return nil
}

// MarshalJSON re-assembles the task with Extra fields alongside the known
// ones. Known fields always win on key collision.
func (t Task) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(t.Extra)+8)
	for k, v := range t.Extra {
		out[k] = v
	}
	out["name"] = t.Name
	out["description"] = t.Description
	out["category"] = t.Category
	out["amount"] = t.Amount
	out["estimated_hours"] = t.EstimatedHours
	out["actual_hours"] = t.ActualHours
	out["hourly_rate"] = t.HourlyRate
	if t.Merge != nil {
		out["merge"] = t.Merge
	} else {
		delete(out, "merge")
	}
	return json.Marshal(out)
}
