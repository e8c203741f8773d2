package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/opengrade/olympiad/internal/quiz"
	"github.com/opengrade/olympiad/internal/registration"
	"github.com/opengrade/olympiad/internal/results"
)

// writeError maps domain error kinds onto distinct statuses: 404 for lookup
// misses, 409 for conflicting state, 400 for bad input, 500 only for genuine
// persistence failures.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrExamNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, quiz.ErrResultMissing),
		errors.Is(err, registration.ErrStudentNotFound),
		errors.Is(err, registration.ErrRegistrationNotFound),
		errors.Is(err, results.ErrResultNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quiz.ErrAlreadySubmitted),
		errors.Is(err, registration.ErrAlreadyDecided):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
