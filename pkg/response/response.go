package response

import (
	"errors"
	"net/http"
	"time"
)

const APIVersion = "v1"

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Status == t.Status && e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(status int, code string, err string) error {
	return &Error{status, code, errors.New(err)}
}

// ErrInternal is the fallback for errors no handler mapped to a domain code.
var ErrInternal = &Error{http.StatusInternalServerError, "INTERNAL_ERROR", errors.New("internal server error")}

// Body is the envelope shared by every API response.
type Body struct {
	Success   bool        `json:"success"`
	Timestamp string      `json:"timestamp"`
	Version   string      `json:"version"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
}

func Success(data interface{}, message string) Body {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Body{
		Success:   true,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   APIVersion,
		Data:      data,
		Message:   message,
	}
}

func Failure(errMsg string, code string) Body {
	if errMsg == "" {
		errMsg = "Unknown error"
	}
	if code == "" {
		code = "INTERNAL_ERROR"
	}
	return Body{
		Success:   false,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   APIVersion,
		Error:     errMsg,
		Code:      code,
	}
}
