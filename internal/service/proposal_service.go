package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"worklane/internal/config"
	"worklane/internal/domain"
	"worklane/internal/extractor"
	"worklane/internal/port"
	"worklane/internal/reconcile"
)

const defaultMaxExtractAttempts = 5

// UploadFileInput is the DTO for uploading a proposal source document.
type UploadFileInput struct {
	FileName    string
	ContentType string
	SizeBytes   int64
	FileBytes   []byte
	UploadedBy  string
}

// CreateProposalInput is the DTO for creating a proposal and queueing extraction.
type CreateProposalInput struct {
	Title       string
	ClientName  string
	FileID      uuid.UUID
	NotifyEmail string
}

// ClarifyTasksInput is the DTO for saving a user-refined task list.
type ClarifyTasksInput struct {
	ProposalID uuid.UUID
	Tasks      []domain.Task
	SavedBy    string
}

// ProposalService defines the proposal management contract.
type ProposalService interface {
	UploadFile(ctx context.Context, input *UploadFileInput) (*domain.FileMeta, error)
	CreateAndQueue(ctx context.Context, input *CreateProposalInput) (*domain.Proposal, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error)
	List(ctx context.Context, offset, limit int) ([]domain.Proposal, int, error)
	LatestTasks(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error)
	ListSnapshots(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error)
	ClarifyTasks(ctx context.Context, input *ClarifyTasksInput) (*domain.TaskSnapshot, error)
	RefinementHistory(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error)
	Reparse(ctx context.Context, proposalID uuid.UUID) (*domain.Proposal, error)
	Delete(ctx context.Context, proposalID uuid.UUID) error
	FileDownloadURL(ctx context.Context, fileID uuid.UUID) (string, error)
	// ExtractProposal runs the extraction pipeline for a claimed proposal.
	// Invoked by the queue worker; errors are recorded on the proposal.
	ExtractProposal(ctx context.Context, proposal *domain.Proposal, maxAttempts int)
}

type proposalService struct {
	proposalRepo port.ProposalRepository
	fileRepo     port.FileMetaRepository
	snapshotRepo port.TaskSnapshotRepository
	historyRepo  port.RefinementHistoryRepository
	extractor    port.TaskExtractor
	storage      port.ObjectStorage
	email        port.EmailSender
	s3Cfg        config.S3Config
	mergeCfg     config.MergeConfig
}

// NewProposalService creates a new ProposalService implementation.
func NewProposalService(
	proposalRepo port.ProposalRepository,
	fileRepo port.FileMetaRepository,
	snapshotRepo port.TaskSnapshotRepository,
	historyRepo port.RefinementHistoryRepository,
	taskExtractor port.TaskExtractor,
	storage port.ObjectStorage,
	email port.EmailSender,
	s3Cfg config.S3Config,
	mergeCfg config.MergeConfig,
) ProposalService {
	return &proposalService{
		proposalRepo: proposalRepo,
		fileRepo:     fileRepo,
		snapshotRepo: snapshotRepo,
		historyRepo:  historyRepo,
		extractor:    taskExtractor,
		storage:      storage,
		email:        email,
		s3Cfg:        s3Cfg,
		mergeCfg:     mergeCfg,
	}
}

func (s *proposalService) UploadFile(ctx context.Context, input *UploadFileInput) (*domain.FileMeta, error) {
	fileType, ok := domain.AllowedContentTypes[input.ContentType]
	if !ok {
		return nil, domain.ErrUnsupportedFileType
	}
	// The extension must agree with the declared content type, so a renamed
	// binary cannot slip past the MIME check.
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(input.FileName), "."))
	extType, ok := domain.AllowedExtensions[ext]
	if !ok || domain.AllowedFileTypes[extType] != input.ContentType {
		return nil, domain.ErrUnsupportedFileType
	}
	maxBytes := s.s3Cfg.MaxFileSizeMB * 1024 * 1024
	if input.SizeBytes > maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	meta := &domain.FileMeta{
		ID:          uuid.New(),
		FileName:    input.FileName,
		FileType:    fileType,
		ContentType: input.ContentType,
		SizeBytes:   input.SizeBytes,
		Status:      domain.FileStatusPending,
		UploadedBy:  input.UploadedBy,
	}
	meta.StorageKey = fmt.Sprintf("proposals/%s/%s", meta.ID, input.FileName)

	if err := s.fileRepo.Create(ctx, meta); err != nil {
		return nil, err
	}

	_, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.s3Cfg.Bucket,
		Key:         meta.StorageKey,
		Body:        bytes.NewReader(input.FileBytes),
		ContentType: input.ContentType,
		Size:        input.SizeBytes,
	})
	if err != nil {
		log.Printf("proposalService.UploadFile: upload failed for %s: %v", meta.ID, err)
		if statusErr := s.fileRepo.UpdateStatus(ctx, meta.ID, domain.FileStatusFailed); statusErr != nil {
			log.Printf("proposalService.UploadFile: failed to mark file %s failed: %v", meta.ID, statusErr)
		}
		return nil, domain.ErrUploadFailed
	}

	if err := s.fileRepo.UpdateStatus(ctx, meta.ID, domain.FileStatusUploaded); err != nil {
		return nil, err
	}
	meta.Status = domain.FileStatusUploaded
	return meta, nil
}

func (s *proposalService) CreateAndQueue(ctx context.Context, input *CreateProposalInput) (*domain.Proposal, error) {
	file, err := s.fileRepo.GetByID(ctx, input.FileID)
	if err != nil {
		return nil, err
	}
	if file.Status != domain.FileStatusUploaded {
		return nil, domain.ErrUploadFailed
	}

	proposal := &domain.Proposal{
		ID:          uuid.New(),
		Title:       input.Title,
		ClientName:  input.ClientName,
		FileID:      input.FileID,
		Status:      domain.ExtractionStatusQueued,
		NotifyEmail: input.NotifyEmail,
	}
	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func (s *proposalService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Proposal, error) {
	return s.proposalRepo.GetByID(ctx, id)
}

func (s *proposalService) List(ctx context.Context, offset, limit int) ([]domain.Proposal, int, error) {
	return s.proposalRepo.List(ctx, offset, limit)
}

func (s *proposalService) LatestTasks(ctx context.Context, proposalID uuid.UUID) (*domain.TaskSnapshot, error) {
	if _, err := s.proposalRepo.GetByID(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.snapshotRepo.Latest(ctx, proposalID)
}

func (s *proposalService) ListSnapshots(ctx context.Context, proposalID uuid.UUID) ([]domain.TaskSnapshot, error) {
	if _, err := s.proposalRepo.GetByID(ctx, proposalID); err != nil {
		return nil, err
	}
	return s.snapshotRepo.ListByProposal(ctx, proposalID)
}

func (s *proposalService) ClarifyTasks(ctx context.Context, input *ClarifyTasksInput) (*domain.TaskSnapshot, error) {
	if len(input.Tasks) == 0 {
		return nil, domain.ErrEmptyTaskList
	}

	proposal, err := s.proposalRepo.GetByID(ctx, input.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != domain.ExtractionStatusCompleted {
		return nil, domain.ErrProposalNotExtracted
	}

	tasksJSON, err := json.Marshal(input.Tasks)
	if err != nil {
		return nil, fmt.Errorf("marshaling clarified tasks: %w", err)
	}

	snapshot := &domain.TaskSnapshot{
		ID:         uuid.New(),
		ProposalID: input.ProposalID,
		Source:     domain.SnapshotSourceClarification,
		Tasks:      tasksJSON,
		CreatedBy:  input.SavedBy,
	}
	if err := s.snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (s *proposalService) RefinementHistory(ctx context.Context, proposalID uuid.UUID) (json.RawMessage, error) {
	if _, err := s.proposalRepo.GetByID(ctx, proposalID); err != nil {
		return nil, err
	}
	raw, err := s.historyRepo.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	return raw, nil
}

func (s *proposalService) Reparse(ctx context.Context, proposalID uuid.UUID) (*domain.Proposal, error) {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status == domain.ExtractionStatusProcessing || proposal.Status == domain.ExtractionStatusQueued {
		return nil, domain.ErrExtractionInFlight
	}
	if err := s.proposalRepo.Requeue(ctx, proposalID); err != nil {
		return nil, err
	}
	proposal.Status = domain.ExtractionStatusQueued
	return proposal, nil
}

func (s *proposalService) Delete(ctx context.Context, proposalID uuid.UUID) error {
	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return err
	}
	if err := s.proposalRepo.Delete(ctx, proposalID); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, proposal.FileID); err != nil {
		log.Printf("proposalService.Delete: failed to mark file %s deleted: %v", proposal.FileID, err)
	}
	return nil
}

func (s *proposalService) FileDownloadURL(ctx context.Context, fileID uuid.UUID) (string, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	return s.storage.GetPresignedURL(ctx, s.s3Cfg.Bucket, file.StorageKey, s.s3Cfg.PresignExpiry)
}

func (s *proposalService) ExtractProposal(ctx context.Context, proposal *domain.Proposal, maxAttempts int) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxExtractAttempts
	}

	file, err := s.fileRepo.GetByID(ctx, proposal.FileID)
	if err != nil {
		s.failExtraction(ctx, proposal, fmt.Sprintf("looking up file: %v", err))
		return
	}

	fileBytes, err := s.storage.Download(ctx, s.s3Cfg.Bucket, file.StorageKey)
	if err != nil {
		s.failExtraction(ctx, proposal, fmt.Sprintf("downloading file: %v", err))
		return
	}

	output, err := s.extractor.Extract(ctx, port.ExtractInput{
		FileBytes:   fileBytes,
		ContentType: file.ContentType,
	})
	if err != nil {
		s.handleExtractError(ctx, proposal, err, maxAttempts)
		return
	}
	if len(output.Tasks) == 0 {
		s.failExtraction(ctx, proposal, domain.ErrNoTasksExtracted.Error())
		return
	}

	merged, stats, err := s.reconcileTasks(ctx, proposal, output.Tasks)
	if err != nil {
		s.failExtraction(ctx, proposal, fmt.Sprintf("reconciling tasks: %v", err))
		return
	}

	now := time.Now().UTC()
	proposal.Status = domain.ExtractionStatusCompleted
	proposal.ExtractionError = ""
	proposal.ExtractorModel = output.ModelUsed
	proposal.LastExtractedAt = &now
	if err := s.proposalRepo.Update(ctx, proposal); err != nil {
		log.Printf("proposalService.ExtractProposal: failed to save results for %s: %v", proposal.ID, err)
		return
	}

	log.Printf("proposalService.ExtractProposal: proposal %s extracted successfully (%d tasks, %d preserved)",
		proposal.ID, len(merged), stats.PreservedCount)

	s.notifyReparse(ctx, proposal, stats)
}

// reconcileTasks merges fresh extraction output against the latest
// clarification snapshot and persists the resulting snapshot and refinement
// history. Returns the merged tasks and stats.
func (s *proposalService) reconcileTasks(ctx context.Context, proposal *domain.Proposal, extracted []domain.Task) ([]domain.Task, *reconcile.MergeStats, error) {
	clarified, err := s.latestClarifiedTasks(ctx, proposal.ID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.loadHistory(ctx, proposal.ID)
	if err != nil {
		return nil, nil, err
	}

	enabled := s.mergeCfg.PreserveClarifications && len(clarified) > 0
	merged, stats, updatedHistory := reconcile.MergeWithOptions(extracted, clarified, enabled, history, s.mergeOptions())

	tasksJSON, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling merged tasks: %w", err)
	}
	statsJSON, err := json.Marshal(stats)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling merge stats: %w", err)
	}

	snapshot := &domain.TaskSnapshot{
		ID:         uuid.New(),
		ProposalID: proposal.ID,
		Source:     domain.SnapshotSourceExtraction,
		Tasks:      tasksJSON,
		MergeStats: statsJSON,
		CreatedBy:  "extractor",
	}
	if err := s.snapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, nil, err
	}

	historyJSON, err := json.Marshal(updatedHistory)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling refinement history: %w", err)
	}
	if err := s.historyRepo.Save(ctx, proposal.ID, historyJSON); err != nil {
		return nil, nil, err
	}

	return merged, stats, nil
}

func (s *proposalService) latestClarifiedTasks(ctx context.Context, proposalID uuid.UUID) ([]domain.Task, error) {
	snapshot, err := s.snapshotRepo.LatestBySource(ctx, proposalID, domain.SnapshotSourceClarification)
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return snapshot.TaskList()
}

func (s *proposalService) loadHistory(ctx context.Context, proposalID uuid.UUID) (reconcile.History, error) {
	raw, err := s.historyRepo.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return reconcile.History{}, nil
	}
	var history reconcile.History
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("unmarshaling refinement history: %w", err)
	}
	return history, nil
}

func (s *proposalService) mergeOptions() reconcile.Options {
	opts := reconcile.DefaultOptions()
	if s.mergeCfg.MatchThreshold > 0 {
		opts.MatchThreshold = s.mergeCfg.MatchThreshold
	}
	if s.mergeCfg.DriftTolerance > 0 {
		opts.DriftTolerance = decimal.NewFromFloat(s.mergeCfg.DriftTolerance)
	}
	if s.mergeCfg.HistoryLimit > 0 {
		opts.HistoryLimit = s.mergeCfg.HistoryLimit
	}
	return opts
}

// handleExtractError requeues the proposal when the provider rate limited us
// and attempts remain. Otherwise the extraction is marked permanently failed.
func (s *proposalService) handleExtractError(ctx context.Context, proposal *domain.Proposal, extractErr error, maxAttempts int) {
	var rlErr *extractor.RateLimitError
	if errors.As(extractErr, &rlErr) && proposal.ExtractAttempts < maxAttempts {
		proposal.Status = domain.ExtractionStatusQueued
		proposal.ExtractionError = fmt.Sprintf("rate limited by %s, queued for retry", rlErr.Provider)
		if err := s.proposalRepo.Update(ctx, proposal); err != nil {
			log.Printf("proposalService.handleExtractError: failed to requeue proposal %s: %v", proposal.ID, err)
		} else {
			log.Printf("proposalService.handleExtractError: proposal %s requeued after rate limit (attempt %d/%d)",
				proposal.ID, proposal.ExtractAttempts, maxAttempts)
		}
		return
	}
	s.failExtraction(ctx, proposal, extractErr.Error())
}

func (s *proposalService) failExtraction(ctx context.Context, proposal *domain.Proposal, reason string) {
	proposal.Status = domain.ExtractionStatusFailed
	proposal.ExtractionError = reason
	if err := s.proposalRepo.Update(ctx, proposal); err != nil {
		log.Printf("proposalService.failExtraction: failed to mark proposal %s failed: %v", proposal.ID, err)
	}
	log.Printf("proposalService.failExtraction: proposal %s failed: %s", proposal.ID, reason)
}

func (s *proposalService) notifyReparse(ctx context.Context, proposal *domain.Proposal, stats *reconcile.MergeStats) {
	if s.email == nil || proposal.NotifyEmail == "" {
		return
	}
	err := s.email.SendReparseSummary(ctx, port.ReparseNotification{
		ToEmail:       proposal.NotifyEmail,
		ToName:        proposal.ClientName,
		ProposalID:    proposal.ID.String(),
		ProposalTitle: proposal.Title,
		Summary:       reconcile.Summarize(stats),
	})
	if err != nil {
		log.Printf("proposalService.notifyReparse: failed to send summary for %s: %v", proposal.ID, err)
	}
}
