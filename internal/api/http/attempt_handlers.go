package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opengrade/olympiad/internal/quiz"
	"github.com/opengrade/olympiad/internal/rbac"
	"github.com/opengrade/olympiad/internal/registration"
)

// Student usernames are their roll numbers; ownership checks compare the
// token subject against the resolved student's roll_no.

// POST /attempts  { "quiz_id": "...", "roll_no": "..." }
// Repeat calls return the same attempt, never a second row.
func StartAttemptHandler(store quiz.Store, students *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
			RollNo string `json:"roll_no"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" || req.RollNo == "" {
			http.Error(w, "quiz_id and roll_no required", http.StatusBadRequest)
			return
		}
		if !ownsRoll(r, req.RollNo) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		st, err := students.GetStudentByRoll(r.Context(), req.RollNo)
		if err != nil {
			writeError(w, err)
			return
		}
		a, err := store.StartAttempt(r.Context(), req.QuizID, st.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, a)
	}
}

type submitReq struct {
	RollNo       string                 `json:"roll_no"`
	Answers      []quiz.SubmittedAnswer `json:"answers"`
	TimeSpentSec int64                  `json:"time_spent_sec"`
}

// POST /attempts/{attemptID}/submit
func SubmitAttemptHandler(store quiz.Store, students *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		var req submitReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if !ownsAttempt(r, store, students, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		sum, err := store.SubmitAttempt(r.Context(), quiz.Submission{
			AttemptID:    attemptID,
			Answers:      req.Answers,
			TimeSpentSec: req.TimeSpentSec,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sum)
	}
}

// PUT /attempts/{attemptID}/answers — examiner correction: replaces the
// answer set wholesale and regrades against current keys.
func RegradeAttemptHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		var req struct {
			Answers []quiz.SubmittedAnswer `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		sum, err := store.RegradeAttempt(r.Context(), quiz.Submission{
			AttemptID: attemptID,
			Answers:   req.Answers,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sum)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(store quiz.Store, students *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		attemptID := chi.URLParam(r, "attemptID")
		role := rbac.RoleFromContext(r.Context())
		if role == "student" && !ownsAttempt(r, store, students, attemptID) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		a, err := store.GetAttempt(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		answers, err := store.GetAttemptAnswers(r.Context(), attemptID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]any{"attempt": a, "answers": answers})
	}
}

// GET /attempts?quiz_id=...&student_id=...&status=...
// Students only ever see their own attempts; the filter is forced.
func ListAttemptsHandler(store quiz.Store, students *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		opts := quiz.AttemptListOpts{
			QuizID:    strings.TrimSpace(r.URL.Query().Get("quiz_id")),
			StudentID: strings.TrimSpace(r.URL.Query().Get("student_id")),
			Status:    strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if role == "student" {
			st, err := students.GetStudentByRoll(r.Context(), sub)
			if err != nil {
				writeError(w, err)
				return
			}
			opts.StudentID = st.ID
		}
		list, err := store.ListAttempts(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

func ownsRoll(r *http.Request, rollNo string) bool {
	role := rbac.RoleFromContext(r.Context())
	if role != "student" {
		return true
	}
	return rbac.SubjectFromContext(r.Context()) == rollNo
}

func ownsAttempt(r *http.Request, store quiz.Store, students *registration.Repo, attemptID string) bool {
	role := rbac.RoleFromContext(r.Context())
	if role != "student" {
		return true
	}
	a, err := store.GetAttempt(r.Context(), attemptID)
	if err != nil {
		return false
	}
	st, err := students.GetStudent(r.Context(), a.StudentID)
	if err != nil {
		return false
	}
	return rbac.SubjectFromContext(r.Context()) == st.RollNo
}
