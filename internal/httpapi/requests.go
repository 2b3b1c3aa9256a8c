package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"kopilka/internal/core"
)

var validate = validator.New()

const userIDHeader = "X-User-ID"

// maxBodyBytes bounds JSON request bodies. Import uploads have their own
// multipart limit.
const maxBodyBytes = 1 << 20

type registerUserRequest struct {
	Username     string `json:"username" validate:"required,min=1,max=64"`
	BaseCurrency string `json:"base_currency" validate:"required,len=3"`
}

type createTransactionRequest struct {
	Type        string `json:"type" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	DateTime    string `json:"date_time"`
	Description string `json:"description" validate:"max=256"`
}

type updateTransactionRequest struct {
	Type        *string `json:"type"`
	Category    *string `json:"category"`
	Amount      *string `json:"amount"`
	Currency    *string `json:"currency" validate:"omitempty,len=3"`
	DateTime    *string `json:"date_time"`
	Description *string `json:"description" validate:"omitempty,max=256"`
}

type createBudgetRequest struct {
	Category    string `json:"category" validate:"required"`
	Period      string `json:"period" validate:"required"`
	LimitAmount string `json:"limit_amount" validate:"required"`
}

type updateBudgetRequest struct {
	Category    *string `json:"category"`
	Period      *string `json:"period"`
	LimitAmount *string `json:"limit_amount"`
}

// decodeJSON reads and validates a JSON request body.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", core.ErrBadData)
	}
	return validate.Struct(dst)
}

// actingUser resolves the caller from the X-User-ID header.
func actingUser(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.Header.Get(userIDHeader))
	if raw == "" {
		return uuid.Nil, fmt.Errorf("missing %s header", userIDHeader)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s header", userIDHeader)
	}
	return id, nil
}

// parseTime accepts RFC 3339 timestamps and plain dates.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, core.ErrBadData)
	}
	return t, nil
}

// queryRange extracts a [from, to] time range from query parameters.
func queryRange(r *http.Request, fromKey, toKey string) (time.Time, time.Time, error) {
	from, err := parseTime(r.URL.Query().Get(fromKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseTime(r.URL.Query().Get(toKey))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// queryPage extracts limit/offset with list defaults.
func queryPage(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

// pathID parses a UUID path parameter.
func pathID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", raw, core.ErrBadData)
	}
	return id, nil
}
