package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"gastos/internal/logger"
	"gastos/internal/testutil"
	"gastos/internal/validator"
)

// testApp holds the full application stack for end-to-end tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test", "")
	validator.Register()
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	router := NewRouter(db, Options{CORSAllowedOrigins: []string{"http://localhost:5173"}, MaxUploadBytes: 1 << 20})
	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// upload posts a CSV file and an optional payload to an import endpoint.
func (app *testApp) upload(t *testing.T, path string, file []byte, payload string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "extracto.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(file); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if payload != "" {
		if err := w.WriteField("payload", payload); err != nil {
			t.Fatalf("write payload: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustCreate posts body and returns the id of the wrapped object under key.
func (app *testApp) mustCreate(t *testing.T, path, key, body string) float64 {
	t.Helper()
	rec := app.request("POST", path, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST %s: expected 201, got %d: %s", path, rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)[key].(map[string]interface{})["id"].(float64)
}

const statement = "Fecha;Concepto;Importe;Saldo\n" +
	"05/01/2024;MERCADONA  VALENCIA;-45,30;954,70\n" +
	"06/01/2024;NOMINA ENERO;1.500,00;2.454,70\n" +
	"07/01/2024;BAR PEPE;-12,00;2.442,70\n"

const statementPayload = `{"mapping":{"fecha_col":"Fecha","concepto_col":"Concepto","importe_col":"Importe","saldo_col":"Saldo"}}`

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if parseJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/v1/nada", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	errObj := parseJSON(t, rec)["error"].(map[string]interface{})
	if errObj["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", errObj["code"])
	}
}

func TestImportFlow(t *testing.T) {
	app := setupApp(t)
	catID := app.mustCreate(t, "/api/v1/categorias", "categoria", `{"nombre":"Supermercado"}`)
	app.mustCreate(t, "/api/v1/reglas", "regla", fmt.Sprintf(`{"pattern":"mercadona","categoria_id":%.0f}`, catID))

	// Analyze suggests the mapping
	rec := app.upload(t, "/api/v1/import/analyze", []byte(statement), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	analysis := parseJSON(t, rec)
	if analysis["separator"] != ";" {
		t.Errorf("expected ; separator, got %v", analysis["separator"])
	}
	if m := analysis["suggested_mapping"].(map[string]interface{}); m["importe_col"] != "Importe" {
		t.Errorf("unexpected suggested mapping: %v", m)
	}

	// Preview writes nothing
	rec = app.upload(t, "/api/v1/import/preview", []byte(statement), statementPayload)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	preview := parseJSON(t, rec)
	if preview["valid_rows"] != float64(3) {
		t.Errorf("expected 3 valid rows, got %v", preview["valid_rows"])
	}
	rows := preview["rows"].([]interface{})
	first := rows[0].(map[string]interface{})
	if first["fecha"] != "2024-01-05" || first["concepto"] != "MERCADONA VALENCIA" || first["categoria_id"] != catID {
		t.Errorf("unexpected first row: %v", first)
	}

	// Apply imports three rows, the second apply none
	rec = app.upload(t, "/api/v1/import/apply", []byte(statement), statementPayload)
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	applied := parseJSON(t, rec)
	if applied["imported"] != float64(3) {
		t.Fatalf("expected 3 imported, got %v", applied["imported"])
	}
	batchID := applied["import_batch_id"].(string)

	rec = app.upload(t, "/api/v1/import/apply", []byte(statement), statementPayload)
	again := parseJSON(t, rec)
	if again["imported"] != float64(0) || again["skipped_duplicates"] != float64(3) {
		t.Errorf("expected 0 imported / 3 duplicates, got %v", again)
	}

	// Listing reflects the import
	rec = app.request("GET", "/api/v1/movimientos?sort_by=fecha&sort_dir=asc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	list := parseJSON(t, rec)
	if list["total_items"] != float64(3) {
		t.Fatalf("expected 3 movimientos, got %v", list["total_items"])
	}
	totals := list["totales"].(map[string]interface{})
	if math.Abs(totals["total_importe"].(float64)-1442.7) > 1e-9 {
		t.Errorf("expected total_importe 1442.7, got %v", totals["total_importe"])
	}
	firstMov := list["data"].([]interface{})[0].(map[string]interface{})
	if firstMov["mes_anio"] != "2024-01" || firstMov["tipo_id"] != float64(1) {
		t.Errorf("unexpected derived fields: %v", firstMov)
	}

	// Reverting the batch removes every imported row
	rec = app.request("DELETE", "/api/v1/import/batches/"+batchID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("revert: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["deleted"] != float64(3) {
		t.Errorf("expected 3 deleted, got %s", rec.Body.String())
	}
	rec = app.request("DELETE", "/api/v1/import/batches/"+batchID, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second revert, got %d", rec.Code)
	}
}

func TestExportReimportFlow(t *testing.T) {
	app := setupApp(t)
	if rec := app.upload(t, "/api/v1/import/apply", []byte(statement), statementPayload); rec.Code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec := app.request("GET", "/api/v1/movimientos/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", rec.Code)
	}
	exported := rec.Body.Bytes()
	if !bytes.HasPrefix(exported, []byte("fecha,concepto,importe,saldo,tipo,categoria,metodo_pago,notas")) {
		t.Fatalf("unexpected export header: %s", exported)
	}

	payload := `{"mapping":{"fecha_col":"fecha","concepto_col":"concepto","importe_col":"importe","saldo_col":"saldo","notas_col":"notas"}}`
	rec = app.upload(t, "/api/v1/import/preview", exported, payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("preview: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	preview := parseJSON(t, rec)
	if preview["valid_rows"] != float64(3) || preview["duplicate_rows"] != float64(3) {
		t.Errorf("expected every exported row to be a valid duplicate, got %v", preview)
	}
}

func TestTransactionFlow(t *testing.T) {
	app := setupApp(t)
	catID := app.mustCreate(t, "/api/v1/categorias", "categoria", `{"nombre":"Ocio","es_fijo":false}`)
	pmID := app.mustCreate(t, "/api/v1/metodos-pago", "metodo_pago", `{"nombre":"Tarjeta"}`)

	id := app.mustCreate(t, "/api/v1/movimientos", "movimiento",
		fmt.Sprintf(`{"fecha":"2024-02-10","concepto":"CINE","importe":-9.5,"tipo_id":1,"metodo_pago_id":%.0f}`, pmID))

	// Inline update with one bad reference keeps the other fields
	rec := app.request("PATCH", fmt.Sprintf("/api/v1/movimientos/%.0f", id),
		fmt.Sprintf(`{"categoria_id":%.0f,"metodo_pago_id":999,"notas":"con amigos"}`, catID))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	mov := parseJSON(t, rec)["movimiento"].(map[string]interface{})
	if mov["categoria_id"] != catID || mov["notas"] != "con amigos" || mov["metodo_pago_id"] != pmID {
		t.Errorf("unexpected partial update: %v", mov)
	}

	// null clears a reference
	rec = app.request("PATCH", fmt.Sprintf("/api/v1/movimientos/%.0f", id), `{"metodo_pago_id":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if mov := parseJSON(t, rec)["movimiento"].(map[string]interface{}); mov["metodo_pago_id"] != nil {
		t.Errorf("expected metodo_pago_id cleared, got %v", mov["metodo_pago_id"])
	}

	// Deleting a category in use is refused
	rec = app.request("DELETE", fmt.Sprintf("/api/v1/categorias/%.0f", catID), "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", rec.Code)
	}

	// Zero amount is rejected
	rec = app.request("POST", "/api/v1/movimientos", `{"fecha":"2024-02-10","concepto":"x","importe":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	rec = app.request("DELETE", fmt.Sprintf("/api/v1/movimientos/%.0f", id), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	rec = app.request("GET", fmt.Sprintf("/api/v1/movimientos/%.0f", id), "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestRulesReapplyFlow(t *testing.T) {
	app := setupApp(t)
	app.mustCreate(t, "/api/v1/movimientos", "movimiento", `{"fecha":"2024-03-01","concepto":"Recibo IBERDROLA","importe":-60}`)
	app.mustCreate(t, "/api/v1/movimientos", "movimiento", `{"fecha":"2024-03-02","concepto":"Cafe","importe":-2}`)
	catID := app.mustCreate(t, "/api/v1/categorias", "categoria", `{"nombre":"Suministros","es_fijo":true}`)
	app.mustCreate(t, "/api/v1/reglas", "regla", fmt.Sprintf(`{"pattern":"iberdrola","categoria_id":%.0f}`, catID))

	rec := app.request("POST", "/api/v1/reglas/reaplicar", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["actualizados"] != float64(1) {
		t.Errorf("expected 1 updated, got %s", rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/movimientos?solo_gastos_fijos=true", "")
	list := parseJSON(t, rec)
	if list["total_items"] != float64(1) {
		t.Errorf("expected 1 fixed expense, got %v", list["total_items"])
	}
}

func TestDashboardFlow(t *testing.T) {
	app := setupApp(t)
	food := app.mustCreate(t, "/api/v1/categorias", "categoria", `{"nombre":"Comida"}`)
	rent := app.mustCreate(t, "/api/v1/categorias", "categoria", `{"nombre":"Alquiler","es_fijo":true}`)
	for _, body := range []string{
		fmt.Sprintf(`{"fecha":"2024-01-10","concepto":"super","importe":-100,"categoria_id":%.0f}`, food),
		fmt.Sprintf(`{"fecha":"2024-01-01","concepto":"piso","importe":-700,"categoria_id":%.0f}`, rent),
		`{"fecha":"2024-01-15","concepto":"varios","importe":-33.33}`,
		`{"fecha":"2024-01-31","concepto":"nomina","importe":2000,"tipo_id":2}`,
	} {
		app.mustCreate(t, "/api/v1/movimientos", "movimiento", body)
	}

	rec := app.request("GET", "/api/v1/dashboard/summary", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	summary := parseJSON(t, rec)
	if math.Abs(summary["total_gastos"].(float64)-833.33) > 1e-9 {
		t.Errorf("expected total_gastos 833.33, got %v", summary["total_gastos"])
	}
	if summary["total_ingresos"] != float64(2000) {
		t.Errorf("expected total_ingresos 2000, got %v", summary["total_ingresos"])
	}

	rec = app.request("GET", "/api/v1/dashboard/by-category", "")
	var points []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("by-category: %v\nbody: %s", err, rec.Body.String())
	}
	sum := 0.0
	for _, p := range points {
		sum += p["porcentaje_sobre_total"].(float64)
	}
	if math.Abs(sum-100) > 1e-6 {
		t.Errorf("expected percentages to sum to 100, got %v (%v)", sum, points)
	}
	if points[0]["categoria"] != "Alquiler" {
		t.Errorf("expected the largest expense first, got %v", points[0])
	}

	rec = app.request("GET", "/api/v1/dashboard/monthly", "")
	var months []map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &months); err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if len(months) != 1 || months[0]["mes_anio"] != "2024-01" {
		t.Errorf("unexpected monthly series: %v", months)
	}
}

func TestCORSPreflight(t *testing.T) {
	app := setupApp(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/movimientos", http.NoBody)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
		t.Errorf("missing CORS header: %v", rec.Header())
	}
}
