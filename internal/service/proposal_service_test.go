package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"worklane/internal/config"
	"worklane/internal/domain"
	"worklane/internal/extractor"
	"worklane/internal/port"
	"worklane/internal/reconcile"
	"worklane/internal/service"
	"worklane/mocks"
)

type serviceMocks struct {
	proposalRepo *mocks.MockProposalRepo
	fileRepo     *mocks.MockFileMetaRepo
	snapshotRepo *mocks.MockTaskSnapshotRepo
	historyRepo  *mocks.MockRefinementHistoryRepo
	extractor    *mocks.MockTaskExtractor
	storage      *mocks.MockObjectStorage
	email        *mocks.MockEmailSender
}

func newProposalService() (service.ProposalService, *serviceMocks) {
	m := &serviceMocks{
		proposalRepo: new(mocks.MockProposalRepo),
		fileRepo:     new(mocks.MockFileMetaRepo),
		snapshotRepo: new(mocks.MockTaskSnapshotRepo),
		historyRepo:  new(mocks.MockRefinementHistoryRepo),
		extractor:    new(mocks.MockTaskExtractor),
		storage:      new(mocks.MockObjectStorage),
		email:        new(mocks.MockEmailSender),
	}
	svc := service.NewProposalService(
		m.proposalRepo, m.fileRepo, m.snapshotRepo, m.historyRepo,
		m.extractor, m.storage, m.email,
		config.S3Config{Bucket: "test-bucket", MaxFileSizeMB: 1, PresignExpiry: 3600},
		config.MergeConfig{PreserveClarifications: true, MatchThreshold: 80, DriftTolerance: 0.10, HistoryLimit: 5},
	)
	return svc, m
}

func queuedProposal() *domain.Proposal {
	return &domain.Proposal{
		ID:          uuid.New(),
		Title:       "Website Redesign",
		ClientName:  "Acme Corp",
		FileID:      uuid.New(),
		Status:      domain.ExtractionStatusProcessing,
		NotifyEmail: "pm@acme.test",
	}
}

func uploadedFile(fileID uuid.UUID) *domain.FileMeta {
	return &domain.FileMeta{
		ID:          fileID,
		FileName:    "proposal.pdf",
		FileType:    domain.FileTypePDF,
		ContentType: "application/pdf",
		StorageKey:  "proposals/x/proposal.pdf",
		Status:      domain.FileStatusUploaded,
	}
}

func extractedTask(name string, amount int64) domain.Task {
	return domain.Task{Name: name, Amount: decimal.NewFromInt(amount)}
}

func TestUploadFile_UnsupportedType(t *testing.T) {
	svc, _ := newProposalService()

	_, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "notes.txt",
		ContentType: "text/plain",
		SizeBytes:   10,
	})

	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUploadFile_TooLarge(t *testing.T) {
	svc, _ := newProposalService()

	_, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "big.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2 * 1024 * 1024, // limit is 1MB in test config
	})

	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
}

func TestUploadFile_ExtensionMismatch(t *testing.T) {
	svc, _ := newProposalService()

	// A PDF content type with a non-PDF extension must be rejected before
	// anything is persisted.
	_, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "proposal.exe",
		ContentType: "application/pdf",
		SizeBytes:   10,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)

	_, err = svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "scan.jpg",
		ContentType: "image/png",
		SizeBytes:   10,
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
}

func TestUploadFile_JpegExtensionVariants(t *testing.T) {
	svc, m := newProposalService()

	m.fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)
	m.storage.On("Upload", mock.Anything, mock.Anything).Return(&port.UploadOutput{}, nil)
	m.fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusUploaded).Return(nil)

	for _, name := range []string{"scan.jpg", "scan.jpeg", "scan.JPG"} {
		meta, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
			FileName:    name,
			ContentType: "image/jpeg",
			SizeBytes:   10,
			FileBytes:   []byte{0xFF, 0xD8},
		})
		require.NoError(t, err, name)
		assert.Equal(t, domain.FileTypeJPG, meta.FileType)
	}
}

func TestUploadFile_Success(t *testing.T) {
	svc, m := newProposalService()

	m.fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)
	m.storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "test-bucket" && in.ContentType == "application/pdf"
	})).Return(&port.UploadOutput{Location: "https://test-bucket/key"}, nil)
	m.fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusUploaded).Return(nil)

	meta, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "proposal.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		FileBytes:   []byte("%PDF-1.4"),
		UploadedBy:  "alex",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.FileStatusUploaded, meta.Status)
	assert.Equal(t, domain.FileTypePDF, meta.FileType)
	assert.Contains(t, meta.StorageKey, "proposal.pdf")
	m.fileRepo.AssertExpectations(t)
	m.storage.AssertExpectations(t)
}

func TestUploadFile_StorageFailureMarksFileFailed(t *testing.T) {
	svc, m := newProposalService()

	m.fileRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.FileMeta")).Return(nil)
	m.storage.On("Upload", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	m.fileRepo.On("UpdateStatus", mock.Anything, mock.AnythingOfType("uuid.UUID"), domain.FileStatusFailed).Return(nil)

	_, err := svc.UploadFile(context.Background(), &service.UploadFileInput{
		FileName:    "proposal.pdf",
		ContentType: "application/pdf",
		SizeBytes:   1024,
		FileBytes:   []byte("%PDF-1.4"),
	})

	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	m.fileRepo.AssertExpectations(t)
}

func TestCreateAndQueue_Success(t *testing.T) {
	svc, m := newProposalService()
	fileID := uuid.New()

	m.fileRepo.On("GetByID", mock.Anything, fileID).Return(uploadedFile(fileID), nil)
	m.proposalRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Proposal")).Return(nil)

	proposal, err := svc.CreateAndQueue(context.Background(), &service.CreateProposalInput{
		Title:  "Website Redesign",
		FileID: fileID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusQueued, proposal.Status)
	assert.NotEqual(t, uuid.Nil, proposal.ID)
}

func TestClarifyTasks_EmptyList(t *testing.T) {
	svc, _ := newProposalService()

	_, err := svc.ClarifyTasks(context.Background(), &service.ClarifyTasksInput{
		ProposalID: uuid.New(),
	})

	assert.ErrorIs(t, err, domain.ErrEmptyTaskList)
}

func TestClarifyTasks_ProposalNotExtracted(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	proposal.Status = domain.ExtractionStatusQueued

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)

	_, err := svc.ClarifyTasks(context.Background(), &service.ClarifyTasksInput{
		ProposalID: proposal.ID,
		Tasks:      []domain.Task{extractedTask("Design", 300)},
	})

	assert.ErrorIs(t, err, domain.ErrProposalNotExtracted)
}

func TestClarifyTasks_CreatesClarificationSnapshot(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	proposal.Status = domain.ExtractionStatusCompleted

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)

	var created *domain.TaskSnapshot
	m.snapshotRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.TaskSnapshot")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.TaskSnapshot)
		}).Return(nil)

	snapshot, err := svc.ClarifyTasks(context.Background(), &service.ClarifyTasksInput{
		ProposalID: proposal.ID,
		Tasks:      []domain.Task{extractedTask("Design", 300)},
		SavedBy:    "alex",
	})

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, domain.SnapshotSourceClarification, created.Source)
	assert.Equal(t, "alex", created.CreatedBy)

	tasks, err := snapshot.TaskList()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Design", tasks[0].Name)
}

func TestRefinementHistory_EmptyWhenUnset(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)
	m.historyRepo.On("Get", mock.Anything, proposal.ID).Return(nil, nil)

	raw, err := svc.RefinementHistory(context.Background(), proposal.ID)

	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("{}"), raw)
}

func TestRefinementHistory_ReturnsStored(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	stored := json.RawMessage(`{"abc123def456":[{"version":1}]}`)

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)
	m.historyRepo.On("Get", mock.Anything, proposal.ID).Return(stored, nil)

	raw, err := svc.RefinementHistory(context.Background(), proposal.ID)

	require.NoError(t, err)
	assert.Equal(t, stored, raw)
}

func TestReparse_InFlight(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)

	_, err := svc.Reparse(context.Background(), proposal.ID)

	assert.ErrorIs(t, err, domain.ErrExtractionInFlight)
}

func TestReparse_RequeuesCompletedProposal(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	proposal.Status = domain.ExtractionStatusCompleted

	m.proposalRepo.On("GetByID", mock.Anything, proposal.ID).Return(proposal, nil)
	m.proposalRepo.On("Requeue", mock.Anything, proposal.ID).Return(nil)

	updated, err := svc.Reparse(context.Background(), proposal.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionStatusQueued, updated.Status)
	m.proposalRepo.AssertExpectations(t)
}

func TestExtractProposal_FirstExtraction(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()

	m.fileRepo.On("GetByID", mock.Anything, proposal.FileID).Return(uploadedFile(proposal.FileID), nil)
	m.storage.On("Download", mock.Anything, "test-bucket", "proposals/x/proposal.pdf").
		Return([]byte("%PDF-1.4"), nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Tasks:     []domain.Task{extractedTask("Backend API development", 1500)},
		ModelUsed: "claude-sonnet-4-20250514",
	}, nil)
	m.snapshotRepo.On("LatestBySource", mock.Anything, proposal.ID, domain.SnapshotSourceClarification).
		Return(nil, domain.ErrSnapshotNotFound)
	m.historyRepo.On("Get", mock.Anything, proposal.ID).Return(json.RawMessage(nil), nil)

	var created *domain.TaskSnapshot
	m.snapshotRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.TaskSnapshot")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.TaskSnapshot)
		}).Return(nil)
	m.historyRepo.On("Save", mock.Anything, proposal.ID, mock.Anything).Return(nil)
	m.proposalRepo.On("Update", mock.Anything, proposal).Return(nil)
	m.email.On("SendReparseSummary", mock.Anything, mock.MatchedBy(func(n port.ReparseNotification) bool {
		return n.ToEmail == "pm@acme.test" && n.ProposalTitle == "Website Redesign"
	})).Return(nil)

	svc.ExtractProposal(context.Background(), proposal, 5)

	assert.Equal(t, domain.ExtractionStatusCompleted, proposal.Status)
	assert.Equal(t, "claude-sonnet-4-20250514", proposal.ExtractorModel)
	assert.NotNil(t, proposal.LastExtractedAt)

	require.NotNil(t, created)
	assert.Equal(t, domain.SnapshotSourceExtraction, created.Source)

	var stats reconcile.MergeStats
	require.NoError(t, json.Unmarshal(created.MergeStats, &stats))
	assert.Equal(t, 1, stats.NewCount)
	assert.Equal(t, 0, stats.PreservedCount)
	assert.Equal(t, reconcile.ReasonPreservationDisabled, stats.Reason)
	m.email.AssertExpectations(t)
}

func TestExtractProposal_PreservesClarifications(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()

	clarified := extractedTask("Backend API development", 1500)
	clarified.Description = "REST endpoints for user management, admin panel"
	clarifiedJSON, err := json.Marshal([]domain.Task{clarified})
	require.NoError(t, err)

	m.fileRepo.On("GetByID", mock.Anything, proposal.FileID).Return(uploadedFile(proposal.FileID), nil)
	m.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{
		Tasks:     []domain.Task{extractedTask("Backend API development", 1500)},
		ModelUsed: "gpt-4o",
	}, nil)
	m.snapshotRepo.On("LatestBySource", mock.Anything, proposal.ID, domain.SnapshotSourceClarification).
		Return(&domain.TaskSnapshot{
			ProposalID: proposal.ID,
			Source:     domain.SnapshotSourceClarification,
			Tasks:      clarifiedJSON,
		}, nil)
	m.historyRepo.On("Get", mock.Anything, proposal.ID).Return(json.RawMessage(nil), nil)

	var created *domain.TaskSnapshot
	m.snapshotRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.TaskSnapshot")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.TaskSnapshot)
		}).Return(nil)

	var savedHistory json.RawMessage
	m.historyRepo.On("Save", mock.Anything, proposal.ID, mock.Anything).
		Run(func(args mock.Arguments) {
			savedHistory = args.Get(2).(json.RawMessage)
		}).Return(nil)
	m.proposalRepo.On("Update", mock.Anything, proposal).Return(nil)
	m.email.On("SendReparseSummary", mock.Anything, mock.Anything).Return(nil)

	svc.ExtractProposal(context.Background(), proposal, 5)

	assert.Equal(t, domain.ExtractionStatusCompleted, proposal.Status)

	require.NotNil(t, created)
	tasks, err := created.TaskList()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "REST endpoints for user management, admin panel", tasks[0].Description)
	require.NotNil(t, tasks[0].Merge)
	assert.Equal(t, domain.MergeDecisionPreserved, tasks[0].Merge.Decision)

	var history reconcile.History
	require.NoError(t, json.Unmarshal(savedHistory, &history))
	assert.Len(t, history, 1)
}

func TestExtractProposal_RateLimitedRequeues(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	proposal.ExtractAttempts = 1

	m.fileRepo.On("GetByID", mock.Anything, proposal.FileID).Return(uploadedFile(proposal.FileID), nil)
	m.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("claude", assert.AnError, 60))
	m.proposalRepo.On("Update", mock.Anything, proposal).Return(nil)

	svc.ExtractProposal(context.Background(), proposal, 5)

	assert.Equal(t, domain.ExtractionStatusQueued, proposal.Status)
	assert.Contains(t, proposal.ExtractionError, "rate limited by claude")
}

func TestExtractProposal_RateLimitedOutOfAttemptsFails(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()
	proposal.ExtractAttempts = 5

	m.fileRepo.On("GetByID", mock.Anything, proposal.FileID).Return(uploadedFile(proposal.FileID), nil)
	m.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).
		Return(nil, extractor.NewRateLimitError("claude", assert.AnError, 60))
	m.proposalRepo.On("Update", mock.Anything, proposal).Return(nil)

	svc.ExtractProposal(context.Background(), proposal, 5)

	assert.Equal(t, domain.ExtractionStatusFailed, proposal.Status)
}

func TestExtractProposal_NoTasksFails(t *testing.T) {
	svc, m := newProposalService()
	proposal := queuedProposal()

	m.fileRepo.On("GetByID", mock.Anything, proposal.FileID).Return(uploadedFile(proposal.FileID), nil)
	m.storage.On("Download", mock.Anything, mock.Anything, mock.Anything).Return([]byte("%PDF-1.4"), nil)
	m.extractor.On("Extract", mock.Anything, mock.Anything).Return(&port.ExtractOutput{}, nil)
	m.proposalRepo.On("Update", mock.Anything, proposal).Return(nil)

	svc.ExtractProposal(context.Background(), proposal, 5)

	assert.Equal(t, domain.ExtractionStatusFailed, proposal.Status)
	assert.Contains(t, proposal.ExtractionError, "no tasks")
}
