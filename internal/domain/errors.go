package domain

import (
	"errors"
	"fmt"

	"git.appkode.ru/pub/go/failure"

	"dealmint/pkg/errcodes"
)

// AppError доменная ошибка со стабильным кодом для транспортного слоя.
type AppError struct {
	Code    failure.ErrorCode
	Message string
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) ErrorCode() failure.ErrorCode {
	return e.Code
}

// Description текст для клиента. Исходная причина наружу не отдаётся.
func (e *AppError) Description() string {
	return e.Message
}

func NewError(code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func WrapError(err error, code failure.ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   err,
	}
}

func Internal(err error, message string) *AppError {
	return WrapError(err, errcodes.InternalServerError, message)
}

func GetCode(err error) (failure.ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// HasCode проверяет, что err является AppError с данным кодом.
func HasCode(err error, code failure.ErrorCode) bool {
	c, ok := GetCode(err)
	return ok && c == code
}

// ErrLockBusy возвращается, если блокировка занята дольше допустимого ожидания.
var ErrLockBusy = errors.New("lock busy")
