package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/services"
)

// DefaultMaxUploadBytes caps multipart CSV uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// ImportHandler handles the CSV import pipeline.
type ImportHandler struct {
	importService  services.ImportServicer
	auditService   services.AuditServicer
	maxUploadBytes int64
}

// NewImportHandler creates a new ImportHandler. A non-positive maxUploadBytes
// falls back to DefaultMaxUploadBytes.
func NewImportHandler(importService services.ImportServicer, auditService services.AuditServicer, maxUploadBytes int64) *ImportHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &ImportHandler{importService: importService, auditService: auditService, maxUploadBytes: maxUploadBytes}
}

// readUpload returns the bytes of the multipart "file" field.
func (h *ImportHandler) readUpload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+1<<20)

	header, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, apperrors.ErrFileTooLarge
		}
		return nil, apperrors.ErrMissingFile
	}
	if header.Size > h.maxUploadBytes {
		return nil, apperrors.ErrFileTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMissingFile, err)
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrMissingFile, err)
	}
	if int64(len(raw)) > h.maxUploadBytes {
		return nil, apperrors.ErrFileTooLarge
	}
	return raw, nil
}

// readRequest returns the uploaded file and the decoded "payload" field.
func (h *ImportHandler) readRequest(c *gin.Context) ([]byte, services.ImportRequest, error) {
	raw, err := h.readUpload(c)
	if err != nil {
		return nil, services.ImportRequest{}, err
	}
	req, err := services.ParseImportRequest([]byte(c.PostForm("payload")))
	if err != nil {
		return nil, services.ImportRequest{}, err
	}
	return raw, req, nil
}

// Analyze inspects an uploaded CSV
// @Summary     Analyze CSV
// @Description Detects encoding, delimiter and bank format, and suggests a column mapping
// @Tags        import
// @Accept      multipart/form-data
// @Produce     json
// @Param       file formData file true "CSV file"
// @Success     200 {object} csvimport.Analysis
// @Failure     400 {object} ErrorResponse "Missing or undecodable file"
// @Failure     413 {object} ErrorResponse "File too large"
// @Router      /import/analyze [post]
func (h *ImportHandler) Analyze(c *gin.Context) {
	raw, err := h.readUpload(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	analysis, err := h.importService.Analyze(raw)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// Preview parses an uploaded CSV without writing anything
// @Summary     Preview import
// @Tags        import
// @Accept      multipart/form-data
// @Produce     json
// @Param       file    formData file   true "CSV file"
// @Param       payload formData string true "JSON with mapping and options"
// @Success     200 {object} services.PreviewResult
// @Failure     400 {object} ErrorResponse "Invalid payload, mapping or file"
// @Failure     413 {object} ErrorResponse "File too large"
// @Router      /import/preview [post]
func (h *ImportHandler) Preview(c *gin.Context) {
	raw, req, err := h.readRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	preview, err := h.importService.Preview(raw, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// Apply imports an uploaded CSV in a single transaction
// @Summary     Apply import
// @Tags        import
// @Accept      multipart/form-data
// @Produce     json
// @Param       file    formData file   true "CSV file"
// @Param       payload formData string true "JSON with mapping and options"
// @Success     200 {object} services.ImportResult
// @Failure     400 {object} ErrorResponse "Invalid payload, mapping or file"
// @Failure     413 {object} ErrorResponse "File too large"
// @Failure     500 {object} ErrorResponse "Import rolled back"
// @Router      /import/apply [post]
func (h *ImportHandler) Apply(c *gin.Context) {
	raw, req, err := h.readRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.importService.Apply(raw, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditImportApply, "import_batch", 0, c.ClientIP(), map[string]any{
		"import_batch_id":    result.ImportBatchID,
		"imported":           result.Imported,
		"skipped_duplicates": result.SkippedDuplicates,
		"skipped_errors":     result.SkippedErrors,
	})

	c.JSON(http.StatusOK, result)
}

// RevertBatchResponse reports how many transactions a batch revert removed.
type RevertBatchResponse struct {
	ImportBatchID string `json:"import_batch_id"`
	Deleted       int64  `json:"deleted"`
}

// RevertBatch deletes every transaction created by one import
// @Summary     Revert import batch
// @Tags        import
// @Produce     json
// @Param       batch_id path string true "Import batch UUID"
// @Success     200 {object} RevertBatchResponse
// @Failure     400 {object} ErrorResponse "Invalid batch id"
// @Failure     404 {object} ErrorResponse "Batch not found"
// @Router      /import/batches/{batch_id} [delete]
func (h *ImportHandler) RevertBatch(c *gin.Context) {
	batchID := c.Param("batch_id")

	deleted, err := h.importService.RevertBatch(batchID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(services.AuditImportRevert, "import_batch", 0, c.ClientIP(), map[string]any{
		"import_batch_id": batchID,
		"deleted":         deleted,
	})

	c.JSON(http.StatusOK, RevertBatchResponse{ImportBatchID: batchID, Deleted: deleted})
}
