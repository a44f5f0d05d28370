package errors

import (
	"errors"
	"fmt"
)

const (
	ErrCodePreconditionFailed ErrCode = "PRECONDITION_FAILED"
	ErrCodeValidationFailed   ErrCode = "VALIDATION_FAILED"
	ErrCodeConfigInvalid      ErrCode = "CONFIG_INVALID"
	ErrCodeFileNotFound       ErrCode = "FILE_NOT_FOUND"
	ErrCodeServingFailed      ErrCode = "SERVING_FAILED"
	ErrCodeInternal           ErrCode = "INTERNAL"
)

type ErrCode string

type ErrorInfo struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
	Detail  string  `json:"detail,omitempty"`
}

func (e ErrorInfo) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsErrCode(err error, code ErrCode) bool {
	if err == nil {
		return false
	}
	info := ErrorInfo{}
	if errors.As(err, &info) {
		return info.Code == code
	}
	return false
}

func NewPreconditionFailedError(msg string) ErrorInfo {
	return ErrorInfo{Code: ErrCodePreconditionFailed, Message: msg}
}

func NewValidationFailedError(name string, detail string) ErrorInfo {
	return ErrorInfo{Code: ErrCodeValidationFailed, Message: fmt.Sprintf("error during %s validation", name), Detail: detail}
}

func NewConfigInvalidError(msg string) ErrorInfo {
	return ErrorInfo{Code: ErrCodeConfigInvalid, Message: msg}
}

func NewFileNotFoundError(path string) ErrorInfo {
	return ErrorInfo{Code: ErrCodeFileNotFound, Message: fmt.Sprintf("%s does not exist", path)}
}

func NewServingFailedError(msg string) ErrorInfo {
	return ErrorInfo{Code: ErrCodeServingFailed, Message: msg}
}

func NewInternalError(err error) ErrorInfo {
	return ErrorInfo{Code: ErrCodeInternal, Message: err.Error()}
}
