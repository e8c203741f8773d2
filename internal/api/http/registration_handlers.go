package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/opengrade/olympiad/internal/notify"
	"github.com/opengrade/olympiad/internal/rbac"
	"github.com/opengrade/olympiad/internal/registration"
)

type studentReq struct {
	RollNo string `json:"roll_no" validate:"required"`
	Name   string `json:"name" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Grade  string `json:"grade" validate:"required"`
	School string `json:"school"`
}

func CreateStudentHandler(repo *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req studentReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
			return
		}
		s, err := repo.CreateStudent(r.Context(), registration.Student{
			RollNo: req.RollNo,
			Name:   req.Name,
			Email:  req.Email,
			Grade:  req.Grade,
			School: req.School,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, s)
	}
}

func ListStudentsHandler(repo *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.ListStudents(r.Context(), strings.TrimSpace(r.URL.Query().Get("grade")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

type registrationReq struct {
	StudentID  string `json:"student_id" validate:"required"`
	Grade      string `json:"grade" validate:"required"`
	PaymentRef string `json:"payment_ref"`
}

func CreateRegistrationHandler(repo *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registrationReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, "validation: "+err.Error(), http.StatusBadRequest)
			return
		}
		reg, err := repo.CreateRegistration(r.Context(), req.StudentID, req.Grade, req.PaymentRef)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reg)
	}
}

func ListRegistrationsHandler(repo *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.ListRegistrations(r.Context(), strings.TrimSpace(r.URL.Query().Get("status")))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, list)
	}
}

// POST /registrations/{registrationID}/approve
// Approval commits first; the welcome email is queued after and can never
// roll the approval back.
func ApproveRegistrationHandler(repo *registration.Repo, dispatcher *notify.Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "registrationID")
		reg, err := repo.Approve(r.Context(), id, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if st, err := repo.GetStudent(r.Context(), reg.StudentID); err == nil {
			dispatcher.Dispatch(notify.Message{
				Recipient: st.Email,
				Subject:   "Olympiad registration approved",
				HTMLBody: fmt.Sprintf("<p>Dear %s,</p><p>Your registration for grade %s has been approved. Roll number: <b>%s</b>.</p>",
					st.Name, reg.Grade, st.RollNo),
			}, "approval")
		}
		writeJSON(w, reg)
	}
}

func RejectRegistrationHandler(repo *registration.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "registrationID")
		reg, err := repo.Reject(r.Context(), id, rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, reg)
	}
}
