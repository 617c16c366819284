package models

// ErrorDetail provides a structured way to represent an error.
type ErrorDetail struct {
	// Code is an application-specific error code.
	Code int `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Data holds additional context about the error, like filename or operation.
	Data interface{} `json:"data,omitempty"`
}

// Error lets an ErrorDetail travel as a plain error.
func (e *ErrorDetail) Error() string {
	return e.Message
}
