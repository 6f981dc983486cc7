package log

// Attribute keys shared across packages.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldRecordKind  = "record_kind"
	FieldRecordID    = "record_id"
	FieldMonthKey    = "month_year"
	FieldAmountCents = "amount_cents"
	FieldCategory    = "category"
	FieldPerson      = "person"
	FieldView        = "view"
	FieldSheetsRef   = "sheets_ref"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentGateway = "gateway"
	ComponentRefresh = "refresh"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
)

// Operation names.
const (
	OpCreate = "create"
	OpExport = "export"
)
