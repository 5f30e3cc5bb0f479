package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// FileStatus represents the lifecycle of an uploaded file.
type FileStatus string

const (
	FileStatusPending  FileStatus = "pending"
	FileStatusUploaded FileStatus = "uploaded"
	FileStatusFailed   FileStatus = "failed"
	FileStatusDeleted  FileStatus = "deleted"
)

// ExtractionStatus represents the lifecycle of a proposal's task extraction.
type ExtractionStatus string

const (
	ExtractionStatusQueued     ExtractionStatus = "queued"
	ExtractionStatusProcessing ExtractionStatus = "processing"
	ExtractionStatusCompleted  ExtractionStatus = "completed"
	ExtractionStatusFailed     ExtractionStatus = "failed"
)

// SnapshotSource identifies how a task snapshot was produced.
type SnapshotSource string

const (
	// SnapshotSourceExtraction marks snapshots written by the extractor
	// (possibly merged against an earlier clarification).
	SnapshotSourceExtraction SnapshotSource = "extraction"
	// SnapshotSourceClarification marks snapshots saved by a user after
	// refining the task list.
	SnapshotSourceClarification SnapshotSource = "clarification"
)

// MergeDecision records how a task survived reconciliation.
type MergeDecision string

const (
	// MergeDecisionPreserved means the clarified task's qualitative fields
	// were kept (pricing may still have been refreshed on drift).
	MergeDecisionPreserved MergeDecision = "preserved"
	// MergeDecisionNewExtraction means no acceptable clarified match existed
	// and the freshly extracted task was used verbatim.
	MergeDecisionNewExtraction MergeDecision = "new_extraction"
)

// PricingSource records where a merged task's pricing fields came from.
type PricingSource string

const (
	PricingUpdatedFromReparse         PricingSource = "updated_from_reparse"
	PricingPreservedFromClarification PricingSource = "preserved_from_clarification"
)
