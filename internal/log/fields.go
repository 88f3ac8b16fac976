package log

import "time"

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
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldBackend    = "backend"

	FieldRecordKind  = "record_kind"
	FieldRecordID    = "record_id"
	FieldRecordCount = "record_count"
	FieldSportsbook  = "sportsbook"
	FieldBetResult   = "bet_result"
	FieldStake       = "stake"
	FieldOdds        = "odds"
	FieldSymbol      = "symbol"
	FieldTradeType   = "trade_type"
	FieldSheet       = "sheet"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentBets      = "bets"
	ComponentTrades    = "trades"
	ComponentAnalytics = "analytics"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentExport    = "export"
	ComponentSheets    = "sheets"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpList       = "list"
	OpUpdate     = "update"
	OpBulkUpdate = "bulk_update"
	OpDelete     = "delete"
	OpBulkDelete = "bulk_delete"
	OpAggregate  = "aggregate"
	OpExport     = "export"
	OpPublish    = "publish"
	OpRender     = "render"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRecord adds the kind and id of the record being acted on.
func (f LogFields) WithRecord(kind string, id int64) LogFields {
	f[FieldRecordKind] = kind
	if id != 0 {
		f[FieldRecordID] = id
	}
	return f
}

// WithBet adds the bet fields worth seeing in an audit of the log.
func (f LogFields) WithBet(sportsbook, result, stake, odds string) LogFields {
	f[FieldSportsbook] = sportsbook
	f[FieldBetResult] = result
	f[FieldStake] = stake
	f[FieldOdds] = odds
	return f
}

// WithTrade adds the trade fields worth seeing in an audit of the log.
func (f LogFields) WithTrade(symbol, tradeType string) LogFields {
	f[FieldSymbol] = symbol
	f[FieldTradeType] = tradeType
	return f
}

// WithHTTPRequest adds HTTP request fields
func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, elapsed time.Duration) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = elapsed.Milliseconds()
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
