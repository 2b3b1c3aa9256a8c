package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
)

// errorResponse is the uniform error body. Extra fields are only set for
// budget rejections so clients can show the remaining allowance.
type errorResponse struct {
	Error     string `json:"error"`
	Category  string `json:"category,omitempty"`
	Period    string `json:"period,omitempty"`
	Remaining string `json:"remaining,omitempty"`
}

// writeError translates the service error taxonomy into HTTP status codes.
// The request-scoped logger installed by the trace middleware carries the
// request id into failure logs.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	var budgetErr *core.BudgetLimitExceededError
	var integrationErr *core.IntegrationError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &budgetErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:     budgetErr.Error(),
			Category:  string(budgetErr.Category),
			Period:    string(budgetErr.Period),
			Remaining: budgetErr.Remaining.StringFixed(core.AmountScale),
		})
	case errors.Is(err, core.ErrInsufficientFunds):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNoRights):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrBadData), errors.Is(err, core.ErrEmptyRequest), errors.As(err, &validationErrs):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrRateNotFound):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	case errors.As(err, &integrationErr):
		logger.ErrorContext(ctx, "Upstream dependency failure",
			applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	default:
		logger.ErrorContext(ctx, "Unhandled request error",
			applog.FieldError, err, applog.FieldPath, r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
