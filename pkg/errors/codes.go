package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK      ErrorCode = "OK"
	CodeUnknown ErrorCode = "COMMON_000"

	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidInput ErrorCode = "COMMON_002"
	CodeNotFound     ErrorCode = "COMMON_003"
	CodeTimeout      ErrorCode = "COMMON_004"
	CodeUnavailable  ErrorCode = "COMMON_005"
)

// Lot processing error codes.  These cover only the fail-fast surface around
// the pipeline; the pipeline itself reports problems through processing flags,
// never through errors.
const (
	CodeEmptyDescription ErrorCode = "LOT_001"
	CodeLotNotFound      ErrorCode = "LOT_002"
)

// Tabular I/O error codes.
const (
	CodeMissingColumn ErrorCode = "TAB_001"
	CodeFileRead      ErrorCode = "TAB_002"
	CodeFileWrite     ErrorCode = "TAB_003"
	CodeRowMalformed  ErrorCode = "TAB_004"
)

// Configuration error codes.
const (
	CodeConfigInvalid ErrorCode = "CFG_001"
	CodeRulesInvalid  ErrorCode = "CFG_002"
)

// Infrastructure error codes.
const (
	CodeStorageError ErrorCode = "INFRA_001"
	CodeCacheError   ErrorCode = "INFRA_002"
	CodeQueueError   ErrorCode = "INFRA_003"
	CodeObjectStore  ErrorCode = "INFRA_004"
	CodeMigration    ErrorCode = "INFRA_005"
)

// errorCodeHTTPStatus maps each code to the HTTP status returned by the API
// layer.  Codes absent from the map default to 500.
var errorCodeHTTPStatus = map[ErrorCode]int{
	CodeOK:           http.StatusOK,
	CodeInternal:     http.StatusInternalServerError,
	CodeInvalidInput: http.StatusBadRequest,
	CodeNotFound:     http.StatusNotFound,
	CodeTimeout:      http.StatusGatewayTimeout,
	CodeUnavailable:  http.StatusServiceUnavailable,

	CodeEmptyDescription: http.StatusBadRequest,
	CodeLotNotFound:      http.StatusNotFound,

	CodeMissingColumn: http.StatusBadRequest,
	CodeFileRead:      http.StatusBadRequest,
	CodeFileWrite:     http.StatusInternalServerError,
	CodeRowMalformed:  http.StatusBadRequest,

	CodeConfigInvalid: http.StatusInternalServerError,
	CodeRulesInvalid:  http.StatusInternalServerError,

	CodeStorageError: http.StatusInternalServerError,
	CodeCacheError:   http.StatusInternalServerError,
	CodeQueueError:   http.StatusInternalServerError,
	CodeObjectStore:  http.StatusInternalServerError,
	CodeMigration:    http.StatusInternalServerError,
}

// HTTPStatusForCode returns the HTTP status associated with code, defaulting
// to 500 for unmapped codes.
func HTTPStatusForCode(code ErrorCode) int {
	if s, ok := errorCodeHTTPStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether code maps to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	s := HTTPStatusForCode(code)
	return s >= 400 && s < 500
}

// IsServerError reports whether code maps to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	return HTTPStatusForCode(code) >= 500
}
