package handlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "gastos/internal/errors"
	"gastos/internal/logger"
	"gastos/internal/query"
)

// parsePathID parses a uint path parameter.
// Returns ErrInvalidInput if the parameter is not a valid positive integer.
//
//nolint:unparam // param is intentionally generic for reuse across handlers with different path params
func parsePathID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return uint(id), nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, errorBody(appErr))
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, errorBody(apperrors.ErrInternalServer))
}

func errorBody(appErr *apperrors.AppError) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	}
}

// parseFlexibleTime accepts YYYY-MM-DD or RFC3339 and returns midnight UTC
// of the calendar day.
func parseFlexibleTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD or RFC3339", s)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// parseIDList parses a comma-separated list of positive ids. Empty items are
// skipped.
func parseIDList(s string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

// parseFilter reads the movement filter from query parameters. List
// parameters are comma separated; the single-id parameters and "concepto"
// are accepted as aliases of the list and search parameters.
func parseFilter(c *gin.Context) (query.MovementFilter, error) {
	var filter query.MovementFilter

	for _, p := range []struct {
		name string
		dest **time.Time
	}{
		{"fecha_desde", &filter.DateFrom},
		{"fecha_hasta", &filter.DateTo},
	} {
		if v := c.Query(p.name); v != "" {
			t, err := parseFlexibleTime(v)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+p.name+" format, use YYYY-MM-DD or RFC3339")
			}
			*p.dest = &t
		}
	}

	for _, p := range []struct {
		list, single string
		dest         *[]uint
	}{
		{"categoria_ids", "categoria_id", &filter.CategoryIDs},
		{"tipo_ids", "tipo_id", &filter.TypeIDs},
		{"metodo_pago_ids", "metodo_pago_id", &filter.PaymentMethodIDs},
	} {
		raw := c.Query(p.list)
		if single := c.Query(p.single); single != "" {
			raw += "," + single
		}
		ids, err := parseIDList(raw)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+p.list+": "+err.Error())
		}
		*p.dest = ids
	}

	for _, p := range []struct {
		name string
		dest **float64
	}{
		{"importe_min", &filter.AmountMin},
		{"importe_max", &filter.AmountMax},
	} {
		if v := c.Query(p.name); v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+p.name)
			}
			*p.dest = &f
		}
	}

	filter.Search = c.Query("busqueda")
	if filter.Search == "" {
		filter.Search = c.Query("concepto")
	}

	var err error
	if filter.OnlyFixed, err = parseBoolQuery(c, "solo_gastos_fijos"); err != nil {
		return filter, err
	}
	if filter.OnlyVariable, err = parseBoolQuery(c, "solo_gastos_variables"); err != nil {
		return filter, err
	}

	filter.ImportBatchID = strings.TrimSpace(c.Query("import_batch_id"))
	return filter, nil
}

func parseBoolQuery(c *gin.Context, name string) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+name+", use true or false")
	}
	return b, nil
}

// parseSort reads sort_by and sort_dir. Unknown values fall back to the
// default order instead of failing.
func parseSort(c *gin.Context) query.Sort {
	return query.Sort{By: c.Query("sort_by"), Dir: c.Query("sort_dir")}.Normalize()
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}
