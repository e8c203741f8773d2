package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/opengrade/olympiad/internal/quiz"
	"github.com/opengrade/olympiad/internal/rbac"
)

var validate = validator.New()

type examReq struct {
	Title    string `json:"title" validate:"required"`
	Subject  string `json:"subject" validate:"required"`
	Grade    string `json:"grade" validate:"required"`
	StartsAt int64  `json:"starts_at" validate:"required"`
	EndsAt   int64  `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func CreateExamHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req examReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
			return
		}
		e := quiz.Exam{Title: req.Title, Subject: req.Subject, Grade: req.Grade, StartsAt: req.StartsAt, EndsAt: req.EndsAt}
		if err := store.PutExam(r.Context(), e); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "success"})
	}
}

func ListExamsHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grade := strings.TrimSpace(r.URL.Query().Get("grade"))
		list, err := store.ListExams(r.Context(), grade)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

type quizQuestionReq struct {
	Type      string   `json:"type" validate:"required,oneof=mcq true_false short_text long_text numeric"`
	Prompt    string   `json:"prompt" validate:"required"`
	AnswerKey string   `json:"answer_key" validate:"required"`
	Points    float64  `json:"points" validate:"required,gt=0"`
	Options   []string `json:"options,omitempty"`
}

type quizReq struct {
	ExamID    string            `json:"exam_id" validate:"required"`
	Title     string            `json:"title" validate:"required"`
	Subject   string            `json:"subject" validate:"required"`
	Grade     string            `json:"grade" validate:"required"`
	StartsAt  int64             `json:"starts_at" validate:"required"`
	EndsAt    int64             `json:"ends_at" validate:"required,gtfield=StartsAt"`
	Questions []quizQuestionReq `json:"questions" validate:"required,min=1,dive"`
}

// POST /quizzes — examiner-side quiz builder. Total marks and question count
// are derived from the question set, never trusted from the client.
func CreateQuizHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req quizReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
			return
		}
		q := quiz.Quiz{
			ExamID:    req.ExamID,
			Title:     req.Title,
			Subject:   req.Subject,
			Grade:     req.Grade,
			StartsAt:  req.StartsAt,
			EndsAt:    req.EndsAt,
			CreatedBy: rbac.SubjectFromContext(r.Context()),
		}
		for _, qu := range req.Questions {
			question := quiz.Question{
				Type:      qu.Type,
				Prompt:    qu.Prompt,
				AnswerKey: qu.AnswerKey,
				Points:    qu.Points,
			}
			for _, label := range qu.Options {
				question.Options = append(question.Options, quiz.Option{
					Label:     label,
					IsCorrect: strings.EqualFold(label, qu.AnswerKey),
				})
			}
			q.Questions = append(q.Questions, question)
		}
		if err := store.PutQuiz(r.Context(), q); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, map[string]string{"status": "success"})
	}
}

// GET /quizzes/{quizID} — answer keys only for roles holding quiz:view-keys.
func GetQuizHandler(store quiz.Store, checker *rbac.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "quizID")
		role := rbac.RoleFromContext(r.Context())
		var (
			q   quiz.Quiz
			err error
		)
		if checker.Has(role, "quiz:view-keys") {
			q, err = store.GetQuizAdmin(r.Context(), id)
		} else {
			q, err = store.GetQuiz(r.Context(), id)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, q)
	}
}

func ListQuizzesHandler(store quiz.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := quiz.ListOpts{
			ExamID: strings.TrimSpace(r.URL.Query().Get("exam_id")),
			Grade:  strings.TrimSpace(r.URL.Query().Get("grade")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		list, err := store.ListQuizzes(r.Context(), opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}
