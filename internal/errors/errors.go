// Package errors provides custom error types for the Gastos API.
// All service-layer errors should use AppError so that responses stay
// consistent and never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrNotFound) works for copies made by Wrap and WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrDuplicateName  = &AppError{Code: "DUPLICATE_NAME", Message: "A record with this name already exists", StatusCode: http.StatusConflict}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Reference errors. ErrReferenceNotFound is distinct from the not-found errors
// of the entity being edited: the target exists, one of its foreign keys does not.
var (
	ErrReferenceNotFound = &AppError{Code: "REFERENCE_NOT_FOUND", Message: "Referenced record does not exist", StatusCode: http.StatusUnprocessableEntity}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Movimiento no encontrado", StatusCode: http.StatusNotFound}
	ErrZeroAmount          = &AppError{Code: "ZERO_AMOUNT", Message: "El importe no puede ser cero", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Categoría no encontrada", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
)

// Payment method errors.
var (
	ErrPaymentMethodNotFound = &AppError{Code: "PAYMENT_METHOD_NOT_FOUND", Message: "Método de pago no encontrado", StatusCode: http.StatusNotFound}
	ErrPaymentMethodInUse    = &AppError{Code: "PAYMENT_METHOD_IN_USE", Message: "Payment method is used by existing transactions", StatusCode: http.StatusConflict}
)

// Movement type errors.
var (
	ErrMovementTypeNotFound = &AppError{Code: "MOVEMENT_TYPE_NOT_FOUND", Message: "Tipo de movimiento no encontrado", StatusCode: http.StatusNotFound}
	ErrMovementTypeInUse    = &AppError{Code: "MOVEMENT_TYPE_IN_USE", Message: "Movement type is used by existing transactions", StatusCode: http.StatusConflict}
)

// Rule errors.
var (
	ErrRuleNotFound = &AppError{Code: "RULE_NOT_FOUND", Message: "Regla no encontrada", StatusCode: http.StatusNotFound}
)

// Import errors.
var (
	ErrDecode          = &AppError{Code: "DECODE_ERROR", Message: "No se pudo leer el CSV con ninguna codificación soportada", StatusCode: http.StatusBadRequest}
	ErrMissingFile     = &AppError{Code: "MISSING_FILE", Message: "Se requiere un fichero CSV en el campo 'file'", StatusCode: http.StatusBadRequest}
	ErrInvalidPayload  = &AppError{Code: "INVALID_PAYLOAD", Message: "El campo 'payload' no es un JSON válido", StatusCode: http.StatusBadRequest}
	ErrFileTooLarge    = &AppError{Code: "FILE_TOO_LARGE", Message: "El fichero supera el tamaño máximo permitido", StatusCode: http.StatusRequestEntityTooLarge}
	ErrImportNotCommit = &AppError{Code: "IMPORT_FAILED", Message: "La importación no se pudo completar; no se guardó ningún movimiento", StatusCode: http.StatusInternalServerError}
)
