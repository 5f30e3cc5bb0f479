package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"worklane/internal/domain"
	"worklane/internal/export"
	"worklane/internal/service"
)

// ProposalHandler handles proposal and task snapshot endpoints.
type ProposalHandler struct {
	proposalService service.ProposalService
}

// NewProposalHandler creates a new ProposalHandler.
func NewProposalHandler(proposalService service.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposalService: proposalService}
}

// UploadFile handles POST /api/v1/files/upload
func (h *ProposalHandler) UploadFile(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	meta, err := h.proposalService.UploadFile(c.Request.Context(), &service.UploadFileInput{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		SizeBytes:   header.Size,
		FileBytes:   fileBytes,
		UploadedBy:  c.PostForm("uploaded_by"),
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, meta)
}

type createProposalRequest struct {
	Title       string `json:"title" binding:"required"`
	ClientName  string `json:"client_name"`
	FileID      string `json:"file_id" binding:"required"`
	NotifyEmail string `json:"notify_email"`
}

// Create handles POST /api/v1/proposals
func (h *ProposalHandler) Create(c *gin.Context) {
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	fileID, err := uuid.Parse(req.FileID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE_ID", "file_id must be a valid UUID")
		return
	}

	proposal, err := h.proposalService.CreateAndQueue(c.Request.Context(), &service.CreateProposalInput{
		Title:       req.Title,
		ClientName:  req.ClientName,
		FileID:      fileID,
		NotifyEmail: req.NotifyEmail,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, proposal)
}

// Get handles GET /api/v1/proposals/:id
func (h *ProposalHandler) Get(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.GetByID(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, proposal)
}

// List handles GET /api/v1/proposals
func (h *ProposalHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)
	proposals, total, err := h.proposalService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondPaginated(c, proposals, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// LatestTasks handles GET /api/v1/proposals/:id/tasks
func (h *ProposalHandler) LatestTasks(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	snapshot, err := h.proposalService.LatestTasks(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snapshot)
}

// ListSnapshots handles GET /api/v1/proposals/:id/snapshots
func (h *ProposalHandler) ListSnapshots(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	snapshots, err := h.proposalService.ListSnapshots(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, snapshots)
}

type clarifyTasksRequest struct {
	Tasks   []domain.Task `json:"tasks"`
	SavedBy string        `json:"saved_by"`
}

// Clarify handles PUT /api/v1/proposals/:id/tasks
func (h *ProposalHandler) Clarify(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	var req clarifyTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	snapshot, err := h.proposalService.ClarifyTasks(c.Request.Context(), &service.ClarifyTasksInput{
		ProposalID: proposalID,
		Tasks:      req.Tasks,
		SavedBy:    req.SavedBy,
	})
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, snapshot)
}

// History handles GET /api/v1/proposals/:id/history
func (h *ProposalHandler) History(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	history, err := h.proposalService.RefinementHistory(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, history)
}

// Reparse handles POST /api/v1/proposals/:id/reparse
func (h *ProposalHandler) Reparse(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.Reparse(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondAccepted(c, proposal)
}

// Delete handles DELETE /api/v1/proposals/:id
func (h *ProposalHandler) Delete(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	if err := h.proposalService.Delete(c.Request.Context(), proposalID); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

// DownloadURL handles GET /api/v1/proposals/:id/file
func (h *ProposalHandler) DownloadURL(c *gin.Context) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return
	}
	proposal, err := h.proposalService.GetByID(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return
	}
	url, err := h.proposalService.FileDownloadURL(c.Request.Context(), proposal.FileID)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"url": url})
}

// ExportCSV handles GET /api/v1/proposals/:id/export/csv
func (h *ProposalHandler) ExportCSV(c *gin.Context) {
	proposal, tasks, ok := h.exportTasks(c)
	if !ok {
		return
	}

	filename := export.BuildFilename(proposal.Title, "csv")
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	_, _ = c.Writer.Write(export.BOM)
	w := export.NewCSVWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteTasks(tasks); err != nil {
		return
	}
	w.Flush()
}

// ExportXLSX handles GET /api/v1/proposals/:id/export/xlsx
func (h *ProposalHandler) ExportXLSX(c *gin.Context) {
	proposal, tasks, ok := h.exportTasks(c)
	if !ok {
		return
	}

	filename := export.BuildFilename(proposal.Title, "xlsx")
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)

	if err := export.WriteXLSX(c.Writer, tasks); err != nil {
		RespondError(c, http.StatusInternalServerError, "EXPORT_FAILED", "failed to render workbook")
	}
}

// exportTasks loads the proposal and its latest task list for export handlers.
func (h *ProposalHandler) exportTasks(c *gin.Context) (*domain.Proposal, []domain.Task, bool) {
	proposalID, ok := parseProposalID(c)
	if !ok {
		return nil, nil, false
	}
	proposal, err := h.proposalService.GetByID(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	snapshot, err := h.proposalService.LatestTasks(c.Request.Context(), proposalID)
	if err != nil {
		HandleError(c, err)
		return nil, nil, false
	}
	tasks, err := snapshot.TaskList()
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "INVALID_SNAPSHOT", "snapshot task payload is not valid JSON")
		return nil, nil, false
	}
	return proposal, tasks, true
}

func parseProposalID(c *gin.Context) (uuid.UUID, bool) {
	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "proposal id must be a valid UUID")
		return uuid.Nil, false
	}
	return proposalID, true
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
