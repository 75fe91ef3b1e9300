package service

import (
	"errors"
	"fmt"
	"todoTracker/internal/models/todo"
)

const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeValidation    = "VALIDATION_ERROR"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeNotFound      = "NOT_FOUND"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(id string) *BusinessError {
	return NewBusinessError(CodeNotFound, "Todo not found", ToDetail("id", id))
}

func NewValidationError(field, reason string) *BusinessError {
	return NewBusinessError(CodeValidation, reason,
		ToDetail("field", field),
		ToDetail("reason", reason),
	)
}

func NewAlreadyExists(title string) *BusinessError {
	return NewBusinessError(CodeAlreadyExists, "Todo already exists", ToDetail("title", title))
}

func NewUnauthorized(message string, err error) *BusinessError {
	busErr := NewBusinessError(CodeUnauthorized, message)
	busErr.Err = err
	return busErr
}

// fromValidation переводит ошибку проверки модели в бизнес-ошибку
func fromValidation(err error) error {
	var vErr *todo.ValidationError
	if errors.As(err, &vErr) {
		return NewValidationError(vErr.Field, vErr.Reason)
	}
	return err
}
