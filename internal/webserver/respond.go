package webserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nantokaworks/safari-raffle/internal/localdb"
	"github.com/nantokaworks/safari-raffle/internal/raffle"
	"github.com/nantokaworks/safari-raffle/internal/shared/logger"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

func writeSuccess(w http.ResponseWriter, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["status"] = "success"
	writeJSON(w, http.StatusOK, payload)
}

// writeError maps storage and draw errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, localdb.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, localdb.ErrInvalidInput),
		errors.Is(err, localdb.ErrInvalidState),
		errors.Is(err, localdb.ErrCapacityExceeded),
		errors.Is(err, raffle.ErrNoParticipants),
		errors.Is(err, raffle.ErrNoPrizesAvailable),
		errors.Is(err, raffle.ErrNoEligibleParticipants):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", zap.Error(err))
	}

	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": err.Error(),
	})
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"status":  "error",
		"message": message,
	})
}
