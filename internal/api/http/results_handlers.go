package http

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opengrade/olympiad/internal/notify"
	"github.com/opengrade/olympiad/internal/rbac"
	"github.com/opengrade/olympiad/internal/results"
	"github.com/opengrade/olympiad/internal/storage"
)

// GET /results?exam_id=...&grade=...&subject=...&page=1
func ListResultsHandler(repo *results.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := results.Filter{
			ExamID:  strings.TrimSpace(r.URL.Query().Get("exam_id")),
			Grade:   strings.TrimSpace(r.URL.Query().Get("grade")),
			Subject: strings.TrimSpace(r.URL.Query().Get("subject")),
			Page:    parseIntDefault(r.URL.Query().Get("page"), 1),
		}
		if f.ExamID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		page, err := repo.GetPage(r.Context(), f)
		if err != nil {
			writeError(w, err)
			return
		}
		// Students see the shared ranking but not other students' contact data.
		if rbac.RoleFromContext(r.Context()) == "student" {
			for i := range page.Items {
				page.Items[i].Email = ""
			}
		}
		writeJSON(w, page)
	}
}

// GET /results/summary?exam_id=...
func ResultsSummaryHandler(repo *results.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		examID := strings.TrimSpace(r.URL.Query().Get("exam_id"))
		if examID == "" {
			http.Error(w, "exam_id required", http.StatusBadRequest)
			return
		}
		sum, err := repo.GetSummary(r.Context(), examID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, sum)
	}
}

// GET /results/{resultID}/certificate — renders the certificate document,
// archives a copy in the blob store and returns it for download.
func CertificateHandler(repo *results.Repo, renderer notify.Renderer, blobs *storage.FSStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "resultID")
		row, err := repo.Get(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		if row.GradedAt == nil {
			http.Error(w, "result not graded yet", http.StatusConflict)
			return
		}
		if rbac.RoleFromContext(r.Context()) == "student" &&
			rbac.SubjectFromContext(r.Context()) != row.RollNo {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		doc, err := renderer.Render("Certificate of Participation", []notify.Field{
			{Label: "Name", Value: row.StudentName},
			{Label: "Roll No", Value: row.RollNo},
			{Label: "Exam", Value: row.ExamTitle},
			{Label: "Subject", Value: row.Subject},
			{Label: "Score", Value: fmt.Sprintf("%.1f / %.1f", row.Score, row.TotalMarks)},
			{Label: "Grade", Value: row.LetterGrade},
			{Label: "Status", Value: strings.ToUpper(row.Status)},
			{Label: "Issued", Value: time.Unix(*row.GradedAt, 0).Format("2 January 2006")},
		})
		if err != nil {
			writeError(w, err)
			return
		}
		// best effort archive; download proceeds regardless
		if _, err := blobs.PutBytes("certificates/"+row.ID+".html", doc); err != nil {
			log.Printf("archive certificate %s: %v", row.ID, err)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "certificate-"+row.RollNo+".html"))
		_, _ = w.Write(doc)
	}
}
