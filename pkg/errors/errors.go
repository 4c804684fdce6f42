package errors

import (
	"errors"
	"fmt"
)

// Error codes used by AppError. Handlers branch on these to pick a status code
// and to decide whether the message is safe to echo to the client.
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeIntegration   = "INTEGRATION_ERROR"
	CodeCommunication = "COMMUNICATION_ERROR"
	CodeInternal      = "INTERNAL_ERROR"
)

var (
	ErrInvalidCredentials  = errors.New("Usuário ou senha inválidos")
	ErrUnauthorizedProfile = errors.New("Desculpe, mas o acesso ao SIGNA é restrito a perfis específicos.")

	ErrInvalidSessionToken = errors.New("Token de acesso inválido ou expirado")

	ErrPasswordMismatch = errors.New("As senhas não coincidem.")
	ErrUIDInvalid       = errors.New("UID inválido.")
	ErrTokenInvalid     = errors.New("Token inválido.")
	ErrTokenExpired     = errors.New("Token expirado.")
	ErrTokenAlreadyUsed = errors.New("Este token já foi utilizado.")
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewIntegrationError marks an upstream non-2xx or malformed response.
func NewIntegrationError(message string, err error) *AppError {
	return NewAppError(CodeIntegration, message, err)
}

// NewCommunicationError marks a transport-level failure reaching the upstream.
func NewCommunicationError(message string, err error) *AppError {
	return NewAppError(CodeCommunication, message, err)
}

func NewInternalError(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, err)
}

// HasCode reports whether err is an AppError carrying the given code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
