package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// FileMeta represents an uploaded source document (proposal PDF or scan).
type FileMeta struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	FileName    string     `db:"file_name" json:"file_name"`
	FileType    FileType   `db:"file_type" json:"file_type"`
	ContentType string     `db:"content_type" json:"content_type"`
	SizeBytes   int64      `db:"size_bytes" json:"size_bytes"`
	StorageKey  string     `db:"storage_key" json:"storage_key"`
	Status      FileStatus `db:"status" json:"status"`
	UploadedBy  string     `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// Proposal represents a client proposal whose task list is extracted from an
// uploaded source document and refined over successive reparses.
type Proposal struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	Title            string           `db:"title" json:"title"`
	ClientName       string           `db:"client_name" json:"client_name"`
	FileID           uuid.UUID        `db:"file_id" json:"file_id"`
	Status           ExtractionStatus `db:"status" json:"status"`
	ExtractAttempts  int              `db:"extract_attempts" json:"extract_attempts"`
	ExtractionError  string           `db:"extraction_error" json:"extraction_error"`
	ExtractorModel   string           `db:"extractor_model" json:"extractor_model"`
	NotifyEmail      string           `db:"notify_email" json:"notify_email"`
	LastExtractedAt  *time.Time       `db:"last_extracted_at" json:"last_extracted_at"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// TaskSnapshot is one ordered version of a proposal's task list. Extraction
// snapshots are written by the reparse pipeline (after reconciliation);
// clarification snapshots are saved by users and seed the next merge.
type TaskSnapshot struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ProposalID uuid.UUID       `db:"proposal_id" json:"proposal_id"`
	Version    int             `db:"version" json:"version"`
	Source     SnapshotSource  `db:"source" json:"source"`
	Tasks      json.RawMessage `db:"tasks" json:"tasks"`
	MergeStats json.RawMessage `db:"merge_stats" json:"merge_stats"`
	CreatedBy  string          `db:"created_by" json:"created_by"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// TaskList decodes the snapshot's task payload.
func (s *TaskSnapshot) TaskList() ([]Task, error) {
	var tasks []Task
	if len(s.Tasks) == 0 {
		return tasks, nil
	}
	if err := json.Unmarshal(s.Tasks, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}
