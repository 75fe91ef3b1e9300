package handlers

import (
	"errors"
	"net/http"
	"todoTracker/internal/logger"
	"todoTracker/internal/middleware"
	"todoTracker/internal/service"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *service.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}

	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Бизнес-ошибка",
		zap.String("error_code", businessErr.Code),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

// handleError отвечает бизнес-ошибкой, а всё остальное превращает в 500
func handleError(w http.ResponseWriter, r *http.Request, err error, operation string) {
	if handleBusinessError(w, err) {
		return
	}

	logger.Error("HTTP: Ошибка Service", err,
		zap.String("operation", operation),
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("client_ip", r.RemoteAddr))

	responseWithJSON(w, http.StatusInternalServerError,
		toPayload("error", "SERVER_ERROR"),
		toPayload("message", "Server error"),
		toPayload("details", map[string]any{"error": err.Error()}),
	)
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeUnauthorized:
		return http.StatusUnauthorized
	case service.CodeValidation, service.CodeAlreadyExists:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
