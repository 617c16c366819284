package errors

import (
	"confpatch/internal/models"
	"strings"
	"testing"
)

func TestMapErrorToExitCode(t *testing.T) {
	tests := []struct {
		name   string
		detail *models.ErrorDetail
		want   int
	}{
		{"nil", nil, ExitOK},
		{"invalid params", NewInvalidParamsError("bad port", map[string]interface{}{"port": "x"}), ExitUsage},
		{"not found", NewFileNotFoundError("/etc/nginx/nginx.conf", "stat"), ExitNotFound},
		{"permission", NewPermissionDeniedError("/etc/nginx/nginx.conf", "write"), ExitPermission},
		{"lock", NewOperationLockFailedError("/etc/nginx/nginx.conf", "patch", "timeout"), ExitLockFailed},
		{"too large", NewFileTooLargeError("server.js", 10), ExitInvalidContent},
		{"not utf8", NewInvalidContentError("server.js", "read", "not valid UTF-8"), ExitInvalidContent},
		{"generic fs", NewFileSystemError("server.js", "write", "disk full"), ExitFailure},
		{"untyped data", NewErrorDetail(CodeFileSystemError, "x", "file_not_found"), ExitFailure},
		{"internal", NewInternalError("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MapErrorToExitCode(tt.detail); got != tt.want {
				t.Errorf("MapErrorToExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewInvalidParamsErrorData(t *testing.T) {
	detail := NewInvalidParamsError("", nil)
	if detail.Message != "Invalid params" || detail.Code != CodeInvalidParams {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	data, ok := detail.Data.(map[string]interface{})
	if !ok || data["details"] != "Invalid params" {
		t.Fatalf("unexpected data: %#v", detail.Data)
	}

	detail = NewInvalidParamsError("unknown parameter", map[string]interface{}{"colour": "red"})
	data = detail.Data.(map[string]interface{})
	if _, ok := data["param_issues"]; !ok {
		t.Fatalf("param_issues missing: %#v", data)
	}
}

func TestErrorDetailImplementsError(t *testing.T) {
	var err error = NewFileNotFoundError("/tmp/x", "read")
	if !strings.Contains(err.Error(), "/tmp/x") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
