package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldUserID     = "user_id"
	FieldJobID      = "job_id"
	FieldCategory   = "category"
	FieldPeriod     = "period"
	FieldCurrency   = "currency"
	FieldAmount     = "amount"
	FieldRateSource = "rate_source"
)

// Components defines standard component names, attached where a dedicated
// logger is constructed (mains and the HTTP layer).
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentWorker = "worker"
)
