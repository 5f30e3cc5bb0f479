package domain

import "errors"

var (
	ErrNotFound             = errors.New("resource not found")
	ErrProposalNotFound     = errors.New("proposal not found")
	ErrSnapshotNotFound     = errors.New("task snapshot not found")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrProposalNotExtracted = errors.New("proposal has not been extracted yet")
	ErrExtractionInFlight   = errors.New("extraction already in progress for this proposal")
	ErrNoTasksExtracted     = errors.New("extractor returned no tasks")
	ErrEmptyTaskList        = errors.New("task list must not be empty")
)
