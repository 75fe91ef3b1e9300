package handlers

import (
	"encoding/json"
	"net/http"
	"todoTracker/internal/logger"
)

type Payload struct {
	Key     string
	Payload any
}

func toPayload(key string, pl any) Payload {
	return Payload{Key: key, Payload: pl}
}

func toJSON(storage map[string]any, payload Payload) {
	storage[payload.Key] = payload.Payload
}

// responseWithJSON собирает объект ответа из пар ключ-значение
func responseWithJSON(w http.ResponseWriter, code int, payload ...Payload) {
	storage := make(map[string]any)
	for _, pl := range payload {
		toJSON(storage, pl)
	}
	respond(w, code, storage)
}

func responseWithError(w http.ResponseWriter, code int, errorCode, message string) {
	responseWithJSON(w, code,
		toPayload("error", errorCode),
		toPayload("message", message),
	)
}

// respond пишет произвольное тело: запись, список или статистику
func respond(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("HTTP: Не удалось записать ответ", err)
	}
}
