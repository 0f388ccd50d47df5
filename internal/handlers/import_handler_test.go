package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"gastos/internal/csvimport"
	apperrors "gastos/internal/errors"
	"gastos/internal/services"
)

// --- mock import service ---

type mockImportService struct {
	analyzeFn     func(raw []byte) (*csvimport.Analysis, error)
	previewFn     func(raw []byte, req services.ImportRequest) (*services.PreviewResult, error)
	applyFn       func(raw []byte, req services.ImportRequest) (*services.ImportResult, error)
	revertBatchFn func(batchID string) (int64, error)
}

func (m *mockImportService) Analyze(raw []byte) (*csvimport.Analysis, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(raw)
	}
	return &csvimport.Analysis{}, nil
}

func (m *mockImportService) Preview(raw []byte, req services.ImportRequest) (*services.PreviewResult, error) {
	if m.previewFn != nil {
		return m.previewFn(raw, req)
	}
	return &services.PreviewResult{}, nil
}

func (m *mockImportService) Apply(raw []byte, req services.ImportRequest) (*services.ImportResult, error) {
	if m.applyFn != nil {
		return m.applyFn(raw, req)
	}
	return &services.ImportResult{ExampleErrors: []services.PreviewRow{}}, nil
}

func (m *mockImportService) RevertBatch(batchID string) (int64, error) {
	if m.revertBatchFn != nil {
		return m.revertBatchFn(batchID)
	}
	return 0, nil
}

var _ services.ImportServicer = (*mockImportService)(nil)

func setupImportRouter(handler *ImportHandler) *gin.Engine {
	r := gin.New()
	r.POST("/import/analyze", handler.Analyze)
	r.POST("/import/preview", handler.Preview)
	r.POST("/import/apply", handler.Apply)
	r.DELETE("/import/batches/:batch_id", handler.RevertBatch)
	return r
}

const sampleCSV = "Fecha;Concepto;Importe\n15/03/2024;MERCADONA;-45,30\n"

const sampleMapping = `{"mapping":{"fecha_col":"Fecha","concepto_col":"Concepto","importe_col":"Importe"}}`

func TestImportHandler_Analyze(t *testing.T) {
	t.Run("returns the analysis", func(t *testing.T) {
		var got []byte
		importSvc := &mockImportService{
			analyzeFn: func(raw []byte) (*csvimport.Analysis, error) {
				got = raw
				return &csvimport.Analysis{Format: csvimport.FormatGeneric, Columns: []string{"Fecha", "Concepto", "Importe"}, Separator: ";"}, nil
			},
		}
		r := setupImportRouter(NewImportHandler(importSvc, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/analyze", []byte(sampleCSV), "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if string(got) != sampleCSV {
			t.Errorf("service received %q", got)
		}
		result := parseJSON(t, rec)
		if result["separator"] != ";" || len(result["columns"].([]interface{})) != 3 {
			t.Errorf("unexpected analysis: %v", result)
		}
	})

	t.Run("returns 400 when the file is missing", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/analyze", nil, sampleMapping)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MISSING_FILE")
	})

	t.Run("returns 413 when the file is too large", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}, &mockAuditService{}, 16))

		rec := doMultipart(t, r, "/import/analyze", []byte(sampleCSV), "")

		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "FILE_TOO_LARGE")
	})

	t.Run("returns 400 when the file cannot be decoded", func(t *testing.T) {
		importSvc := &mockImportService{
			analyzeFn: func([]byte) (*csvimport.Analysis, error) { return nil, apperrors.ErrDecode },
		}
		r := setupImportRouter(NewImportHandler(importSvc, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/analyze", []byte{0xff}, "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "DECODE_ERROR")
	})
}

func TestImportHandler_Preview(t *testing.T) {
	t.Run("decodes the payload on top of the defaults", func(t *testing.T) {
		var got services.ImportRequest
		importSvc := &mockImportService{
			previewFn: func(_ []byte, req services.ImportRequest) (*services.PreviewResult, error) {
				got = req
				return &services.PreviewResult{TotalRows: 1, ValidRows: 1, Rows: []services.PreviewRow{}, SummaryWarnings: []string{}}, nil
			},
		}
		r := setupImportRouter(NewImportHandler(importSvc, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/preview", []byte(sampleCSV),
			`{"mapping":{"fecha_col":"Fecha","concepto_col":"Concepto","importe_col":"Importe"},"options":{"aplicar_reglas":false}}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Mapping.ImporteCol != "Importe" {
			t.Errorf("unexpected mapping: %+v", got.Mapping)
		}
		if got.Options.ApplyRules || !got.Options.SkipDuplicates || !got.Options.DetectTypeBySign {
			t.Errorf("unexpected options: %+v", got.Options)
		}
		if parseJSON(t, rec)["valid_rows"] != float64(1) {
			t.Error("expected valid_rows 1")
		}
	})

	t.Run("returns 400 on missing payload", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/preview", []byte(sampleCSV), "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PAYLOAD")
	})

	t.Run("returns 400 on malformed payload", func(t *testing.T) {
		r := setupImportRouter(NewImportHandler(&mockImportService{}, &mockAuditService{}, 0))

		rec := doMultipart(t, r, "/import/preview", []byte(sampleCSV), `{"mapping":`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PAYLOAD")
	})
}

func TestImportHandler_Apply(t *testing.T) {
	t.Run("returns the result and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		importSvc := &mockImportService{
			applyFn: func([]byte, services.ImportRequest) (*services.ImportResult, error) {
				return &services.ImportResult{Imported: 3, TotalRows: 3, ImportBatchID: "0191e0a0-0000-7000-8000-000000000000",
					ExampleErrors: []services.PreviewRow{}}, nil
			},
		}
		r := setupImportRouter(NewImportHandler(importSvc, audit, 0))

		rec := doMultipart(t, r, "/import/apply", []byte(sampleCSV), sampleMapping)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["imported"] != float64(3) {
			t.Errorf("expected imported 3, got %v", result["imported"])
		}
		if errs, ok := result["examples_errors"].([]interface{}); !ok || len(errs) != 0 {
			t.Errorf("expected empty examples_errors array, got %v", result["examples_errors"])
		}
		if len(audit.calls) != 1 || audit.calls[0].action != services.AuditImportApply {
			t.Fatalf("unexpected audit calls: %+v", audit.calls)
		}
		if audit.calls[0].changes["imported"] != 3 {
			t.Errorf("unexpected audit changes: %v", audit.calls[0].changes)
		}
	})

	t.Run("returns 500 when the import rolls back", func(t *testing.T) {
		audit := &mockAuditService{}
		importSvc := &mockImportService{
			applyFn: func([]byte, services.ImportRequest) (*services.ImportResult, error) {
				return nil, apperrors.ErrImportNotCommit
			},
		}
		r := setupImportRouter(NewImportHandler(importSvc, audit, 0))

		rec := doMultipart(t, r, "/import/apply", []byte(sampleCSV), sampleMapping)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "IMPORT_FAILED")
		if len(audit.calls) != 0 {
			t.Error("expected no audit entry on failure")
		}
	})
}

func TestImportHandler_RevertBatch(t *testing.T) {
	t.Run("returns the deleted count", func(t *testing.T) {
		audit := &mockAuditService{}
		var got string
		importSvc := &mockImportService{
			revertBatchFn: func(batchID string) (int64, error) {
				got = batchID
				return 2, nil
			},
		}
		r := setupImportRouter(NewImportHandler(importSvc, audit, 0))

		rec := doRequest(r, "DELETE", "/import/batches/abc", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got != "abc" {
			t.Errorf("expected batch abc, got %q", got)
		}
		if parseJSON(t, rec)["deleted"] != float64(2) {
			t.Error("expected deleted 2")
		}
		if len(audit.calls) != 1 || audit.calls[0].action != services.AuditImportRevert {
			t.Errorf("unexpected audit calls: %+v", audit.calls)
		}
	})

	t.Run("returns 404 for an unknown batch", func(t *testing.T) {
		importSvc := &mockImportService{
			revertBatchFn: func(string) (int64, error) { return 0, apperrors.ErrNotFound },
		}
		r := setupImportRouter(NewImportHandler(importSvc, &mockAuditService{}, 0))

		rec := doRequest(r, "DELETE", "/import/batches/abc", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
