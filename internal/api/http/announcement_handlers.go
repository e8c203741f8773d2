package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opengrade/olympiad/internal/rbac"
)

type announcement struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

func CreateAnnouncementHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		a := announcement{
			ID:        uuid.NewString(),
			Title:     req.Title,
			Body:      req.Body,
			CreatedBy: rbac.SubjectFromContext(r.Context()),
			CreatedAt: time.Now().Unix(),
		}
		_, err := db.ExecContext(r.Context(), `INSERT INTO announcements (id,title,body,created_by,created_at)
			VALUES ($1,$2,$3,$4,$5)`, a.ID, a.Title, a.Body, a.CreatedBy, a.CreatedAt)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, a)
	}
}

func ListAnnouncementsHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
		rows, err := db.QueryContext(r.Context(), `SELECT id,title,body,created_by,created_at
			FROM announcements ORDER BY created_at DESC LIMIT $1`, limit)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()
		out := []announcement{}
		for rows.Next() {
			var a announcement
			if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.CreatedBy, &a.CreatedAt); err != nil {
				http.Error(w, "db error", http.StatusInternalServerError)
				return
			}
			out = append(out, a)
		}
		writeJSON(w, out)
	}
}
