package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/models"
	"gastos/internal/pagination"
	"gastos/internal/services"
)

// --- mock payment method service ---

type mockPaymentMethodService struct {
	createFn func(name string) (*models.PaymentMethod, error)
	updateFn func(id uint, name string) (*models.PaymentMethod, error)
	deleteFn func(id uint) error
}

func (m *mockPaymentMethodService) CreatePaymentMethod(name string) (*models.PaymentMethod, error) {
	if m.createFn != nil {
		return m.createFn(name)
	}
	return &models.PaymentMethod{Name: name}, nil
}

func (m *mockPaymentMethodService) ListPaymentMethods(page pagination.PageRequest) (*pagination.PageResponse[models.PaymentMethod], error) {
	resp := pagination.NewPageResponse([]models.PaymentMethod{{Name: "Tarjeta"}}, 1, 50, 1)
	return &resp, nil
}

func (m *mockPaymentMethodService) GetPaymentMethodByID(id uint) (*models.PaymentMethod, error) {
	return &models.PaymentMethod{Base: models.Base{ID: id}}, nil
}

func (m *mockPaymentMethodService) UpdatePaymentMethod(id uint, name string) (*models.PaymentMethod, error) {
	if m.updateFn != nil {
		return m.updateFn(id, name)
	}
	return &models.PaymentMethod{Base: models.Base{ID: id}, Name: name}, nil
}

func (m *mockPaymentMethodService) DeletePaymentMethod(id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

var _ services.PaymentMethodServicer = (*mockPaymentMethodService)(nil)

// --- mock movement type service ---

type mockMovementTypeService struct {
	getFn    func(id uint) (*models.MovementType, error)
	deleteFn func(id uint) error
}

func (m *mockMovementTypeService) CreateMovementType(name string) (*models.MovementType, error) {
	return &models.MovementType{Name: name}, nil
}

func (m *mockMovementTypeService) ListMovementTypes(page pagination.PageRequest) (*pagination.PageResponse[models.MovementType], error) {
	resp := pagination.NewPageResponse([]models.MovementType{{Name: "Gasto"}, {Name: "Ingreso"}}, 1, 50, 2)
	return &resp, nil
}

func (m *mockMovementTypeService) GetMovementTypeByID(id uint) (*models.MovementType, error) {
	if m.getFn != nil {
		return m.getFn(id)
	}
	return &models.MovementType{Base: models.Base{ID: id}}, nil
}

func (m *mockMovementTypeService) UpdateMovementType(id uint, name string) (*models.MovementType, error) {
	return &models.MovementType{Base: models.Base{ID: id}, Name: name}, nil
}

func (m *mockMovementTypeService) DeleteMovementType(id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(id)
	}
	return nil
}

var _ services.MovementTypeServicer = (*mockMovementTypeService)(nil)

func setupLookupRouter(pm *PaymentMethodHandler, mt *MovementTypeHandler) *gin.Engine {
	r := gin.New()
	r.POST("/metodos-pago", pm.CreatePaymentMethod)
	r.GET("/metodos-pago", pm.ListPaymentMethods)
	r.GET("/metodos-pago/:id", pm.GetPaymentMethodByID)
	r.PUT("/metodos-pago/:id", pm.UpdatePaymentMethod)
	r.DELETE("/metodos-pago/:id", pm.DeletePaymentMethod)
	r.POST("/tipos", mt.CreateMovementType)
	r.GET("/tipos", mt.ListMovementTypes)
	r.GET("/tipos/:id", mt.GetMovementTypeByID)
	r.PUT("/tipos/:id", mt.UpdateMovementType)
	r.DELETE("/tipos/:id", mt.DeleteMovementType)
	return r
}

func TestPaymentMethodHandler(t *testing.T) {
	t.Run("create returns 201", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "POST", "/metodos-pago", `{"nombre":"Bizum"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		pm := parseJSON(t, rec)["metodo_pago"].(map[string]interface{})
		if pm["nombre"] != "Bizum" {
			t.Errorf("expected Bizum, got %v", pm["nombre"])
		}
	})

	t.Run("create returns 400 on missing name", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "POST", "/metodos-pago", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("update returns 409 on duplicate", func(t *testing.T) {
		pmSvc := &mockPaymentMethodService{
			updateFn: func(uint, string) (*models.PaymentMethod, error) { return nil, apperrors.ErrDuplicateName },
		}
		r := setupLookupRouter(NewPaymentMethodHandler(pmSvc), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "PUT", "/metodos-pago/2", `{"nombre":"Efectivo"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("delete returns 409 when in use", func(t *testing.T) {
		pmSvc := &mockPaymentMethodService{
			deleteFn: func(uint) error { return apperrors.ErrPaymentMethodInUse },
		}
		r := setupLookupRouter(NewPaymentMethodHandler(pmSvc), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "DELETE", "/metodos-pago/2", "")

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAYMENT_METHOD_IN_USE")
	})

	t.Run("list returns the page", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "GET", "/metodos-pago", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 1 {
			t.Errorf("expected 1 item, got %d", len(data))
		}
	})
}

func TestMovementTypeHandler(t *testing.T) {
	t.Run("get returns 404 when not found", func(t *testing.T) {
		mtSvc := &mockMovementTypeService{
			getFn: func(uint) (*models.MovementType, error) { return nil, apperrors.ErrMovementTypeNotFound },
		}
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(mtSvc))

		rec := doRequest(r, "GET", "/tipos/9", "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "MOVEMENT_TYPE_NOT_FOUND")
	})

	t.Run("list returns seeded types", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "GET", "/tipos", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data := parseJSON(t, rec)["data"].([]interface{})
		if len(data) != 2 || data[0].(map[string]interface{})["nombre"] != "Gasto" {
			t.Errorf("unexpected types: %v", data)
		}
	})

	t.Run("update returns the renamed type", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "PUT", "/tipos/3", `{"nombre":"Traspaso"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		mt := parseJSON(t, rec)["tipo"].(map[string]interface{})
		if mt["nombre"] != "Traspaso" || mt["id"] != float64(3) {
			t.Errorf("unexpected type: %v", mt)
		}
	})

	t.Run("delete returns 204", func(t *testing.T) {
		r := setupLookupRouter(NewPaymentMethodHandler(&mockPaymentMethodService{}), NewMovementTypeHandler(&mockMovementTypeService{}))

		rec := doRequest(r, "DELETE", "/tipos/3", "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})
}
