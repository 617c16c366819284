package errors

import (
	"confpatch/internal/models"
	"fmt"
)

// Generic error codes, numbered after JSON-RPC 2.0 so that --json reports
// carry familiar values.
const (
	CodeInvalidParams = -32602 // Invalid flags, plan entries or job parameters.
	CodeInternalError = -32603 // Unexpected failure inside confpatch itself.
)

// Application Specific Error Codes
const (
	// CodeFileSystemError is a generic code for file system related issues.
	// File not found and permission denied use this code as well; Data["type"]
	// tells them apart.
	CodeFileSystemError = -32001

	// CodeOperationLockFailed indicates that the target could not be locked in time.
	CodeOperationLockFailed = -32002

	// CodeFileTooLarge indicates the file exceeds the configured size limit.
	CodeFileTooLarge = -32003

	// CodeInvalidContent is used for targets that are not text files: a
	// directory, or content that is not valid UTF-8.
	CodeInvalidContent = -32004
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitFailure        = 1
	ExitUsage          = 2
	ExitNotFound       = 3
	ExitPermission     = 4
	ExitLockFailed     = 5
	ExitInvalidContent = 6
)

// NewErrorDetail creates a new ErrorDetail.
func NewErrorDetail(code int, message string, data interface{}) *models.ErrorDetail {
	return &models.ErrorDetail{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// NewInvalidParamsError creates an ErrorDetail for invalid parameters.
// paramIssues can name the offending fields.
func NewInvalidParamsError(summaryMessage string, paramIssues map[string]interface{}) *models.ErrorDetail {
	finalMessage := "Invalid params"
	if summaryMessage != "" {
		finalMessage = summaryMessage
	}
	var dataPayload interface{}
	if paramIssues == nil {
		dataPayload = map[string]interface{}{"details": finalMessage}
	} else {
		dataPayload = map[string]interface{}{
			"details":      finalMessage,
			"param_issues": paramIssues,
		}
	}
	return NewErrorDetail(CodeInvalidParams, finalMessage, dataPayload)
}

// NewInternalError creates an ErrorDetail for unexpected failures.
func NewInternalError(details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInternalError, "Internal error", map[string]interface{}{"details": details})
}

// NewFileSystemError creates a generic file system ErrorDetail.
func NewFileSystemError(filename, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, "File system error", map[string]interface{}{
		"filename":  filename,
		"operation": operation,
		"details":   details,
	})
}

// NewFileNotFoundError creates an ErrorDetail for a missing target.
func NewFileNotFoundError(filename, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("File '%s' not found", filename), map[string]interface{}{
		"filename":  filename,
		"operation": operation,
		"type":      "file_not_found",
	})
}

// NewPermissionDeniedError creates an ErrorDetail for permission denied errors.
func NewPermissionDeniedError(filename, operation string) *models.ErrorDetail {
	return NewErrorDetail(CodeFileSystemError, fmt.Sprintf("Permission denied for file '%s'", filename), map[string]interface{}{
		"filename":  filename,
		"operation": operation,
		"type":      "permission_denied",
	})
}

// NewFileTooLargeError creates an ErrorDetail for files exceeding size limits.
func NewFileTooLargeError(filename string, maxSizeMB int) *models.ErrorDetail {
	return NewErrorDetail(CodeFileTooLarge,
		fmt.Sprintf("File '%s' exceeds maximum allowed size of %d MB", filename, maxSizeMB),
		map[string]interface{}{
			"filename":    filename,
			"max_size_mb": maxSizeMB,
			"type":        "file_too_large",
		})
}

// NewInvalidContentError creates an ErrorDetail for targets that cannot be
// patched as text.
func NewInvalidContentError(filename, operation, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeInvalidContent,
		fmt.Sprintf("File '%s' cannot be patched: %s", filename, details),
		map[string]interface{}{
			"filename":  filename,
			"operation": operation,
			"details":   details,
		})
}

// NewOperationLockFailedError creates an ErrorDetail for failures to acquire a lock.
func NewOperationLockFailedError(filename, operation string, details string) *models.ErrorDetail {
	return NewErrorDetail(CodeOperationLockFailed,
		fmt.Sprintf("Could not acquire lock for operation '%s' on file '%s'", operation, filename),
		map[string]interface{}{
			"filename":  filename,
			"operation": operation,
			"details":   details,
		})
}

// errorType returns Data["type"] when present.
func errorType(errDetail *models.ErrorDetail) string {
	if errDetail == nil || errDetail.Data == nil {
		return ""
	}
	data, ok := errDetail.Data.(map[string]interface{})
	if !ok {
		return ""
	}
	t, _ := data["type"].(string)
	return t
}

// MapErrorToExitCode maps an ErrorDetail to the process exit status.
// CodeFileSystemError needs the type carried in Data to be told apart.
func MapErrorToExitCode(errDetail *models.ErrorDetail) int {
	if errDetail == nil {
		return ExitOK
	}
	switch errDetail.Code {
	case CodeInvalidParams:
		return ExitUsage
	case CodeOperationLockFailed:
		return ExitLockFailed
	case CodeFileTooLarge, CodeInvalidContent:
		return ExitInvalidContent
	case CodeFileSystemError:
		switch errorType(errDetail) {
		case "file_not_found":
			return ExitNotFound
		case "permission_denied":
			return ExitPermission
		}
		return ExitFailure
	default:
		return ExitFailure
	}
}
