package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/kobecorporation/kbsaas/internal/observability/logger"
)

// AppError define la estructura estándar de errores de la API.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa original; solo va a los logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is compara por código: las copias con detalle o causa siguen siendo el mismo error.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// New crea un AppError.
func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// WithDetail retorna una COPIA con detalle; los errores base son globales.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause retorna una COPIA con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// FromError convierte cualquier error en AppError; lo desconocido es un 500.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

type errorResponse struct {
	Success   bool   `json:"success"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteError escribe el error como JSON. Los 5xx se loguean con la causa y se
// responden sin detalle interno.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)
	resp := errorResponse{
		Code:      appErr.Code,
		Message:   appErr.Message,
		Detail:    appErr.Detail,
		RequestID: w.Header().Get("X-Request-ID"),
	}

	log := logger.L()
	if r != nil {
		log = logger.From(r.Context())
	}
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("code", appErr.Code), logger.Err(appErr.Err))
		resp.Detail = ""
	} else if appErr.Err != nil {
		log.Debug("request rejected", logger.String("code", appErr.Code), logger.Err(appErr.Err))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
