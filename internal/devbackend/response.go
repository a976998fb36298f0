package devbackend

import (
	"encoding/json"
	"errors"
	"net/http"

	"cubectl/pkg/logging"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal server error"

	switch {
	case errors.Is(err, errNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, errInvalidInput):
		status = http.StatusBadRequest
		msg = err.Error()
	default:
		logging.Error("DevBackend", err, "Internal error")
	}
	writeJSON(w, status, errorBody{Error: msg})
}
