package errors

import (
	"net/http"
	"testing"
)

func TestHTTPStatusForCode(t *testing.T) {
	cases := []struct {
		code ErrorCode
		want int
	}{
		{CodeOK, http.StatusOK},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeEmptyDescription, http.StatusBadRequest},
		{CodeMissingColumn, http.StatusBadRequest},
		{CodeLotNotFound, http.StatusNotFound},
		{CodeStorageError, http.StatusInternalServerError},
		{ErrorCode("NEVER_MAPPED"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatusForCode(tc.code); got != tc.want {
			t.Errorf("HTTPStatusForCode(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestClientServerSplit(t *testing.T) {
	if !IsClientError(CodeMissingColumn) {
		t.Error("CodeMissingColumn should be a client error")
	}
	if IsServerError(CodeMissingColumn) {
		t.Error("CodeMissingColumn should not be a server error")
	}
	if !IsServerError(CodeQueueError) {
		t.Error("CodeQueueError should be a server error")
	}
	if IsClientError(CodeOK) {
		t.Error("CodeOK is neither client nor server error")
	}
}
