package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/opengrade/olympiad/internal/api/http"
	"github.com/opengrade/olympiad/internal/auth"
	"github.com/opengrade/olympiad/internal/config"
	"github.com/opengrade/olympiad/internal/db"
	"github.com/opengrade/olympiad/internal/grading"
	"github.com/opengrade/olympiad/internal/notify"
	"github.com/opengrade/olympiad/internal/quiz"
	"github.com/opengrade/olympiad/internal/rbac"
	"github.com/opengrade/olympiad/internal/registration"
	"github.com/opengrade/olympiad/internal/results"
	"github.com/opengrade/olympiad/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	evaluator := grading.NewEvaluator(grading.WithNumericEpsilon(cfg.NumericEpsilon))
	store := quiz.NewSQLStore(dbh, evaluator, cfg.PassThreshold)
	students := registration.NewRepo(dbh)
	resultRepo := results.NewRepo(dbh, cfg.ResultPageSize)
	checker := rbac.NewChecker(nil)

	blobs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	var mailer notify.Mailer
	if cfg.SMTPAddr != "" {
		mailer = &notify.SMTPMailer{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom}
	} else {
		log.Printf("SMTP_ADDR not set; notifications stay in-process")
		mailer = &notify.LogMailer{}
	}
	dispatcher := notify.NewDispatcher(mailer, dbh, cfg.NotifyParallel)
	defer dispatcher.Wait()

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", api.LoginHandler(dbh, authSvc))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Authoring (examiner/admin)
		pr.With(rbac.Require("exam:create")).
			Post("/exams", api.CreateExamHandler(store))
		pr.Get("/exams", api.ListExamsHandler(store))
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(store))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(store, checker))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes", api.ListQuizzesHandler(store))

		// Student flow
		pr.With(rbac.Require("attempt:create")).
			Post("/attempts", api.StartAttemptHandler(store, students))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitAttemptHandler(store, students))
		pr.With(rbac.Require("attempt:regrade")).
			Put("/attempts/{attemptID}/answers", api.RegradeAttemptHandler(store))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(store, students))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(store, students))

		// Results dashboards
		pr.With(rbac.RequireAny("results:view-own", "results:view-all")).
			Get("/results", api.ListResultsHandler(resultRepo))
		pr.With(rbac.Require("results:view-all")).
			Get("/results/summary", api.ResultsSummaryHandler(resultRepo))
		pr.With(rbac.RequireAny("results:view-own", "results:view-all")).
			Get("/results/{resultID}/certificate", api.CertificateHandler(resultRepo, notify.HTMLRenderer{}, blobs))

		// Registration (admin)
		pr.With(rbac.Require("students:manage")).
			Post("/students", api.CreateStudentHandler(students))
		pr.With(rbac.Require("students:manage")).
			Get("/students", api.ListStudentsHandler(students))
		pr.With(rbac.Require("registrations:manage")).
			Post("/registrations", api.CreateRegistrationHandler(students))
		pr.With(rbac.Require("registrations:manage")).
			Get("/registrations", api.ListRegistrationsHandler(students))
		pr.With(rbac.Require("registrations:manage")).
			Post("/registrations/{registrationID}/approve", api.ApproveRegistrationHandler(students, dispatcher))
		pr.With(rbac.Require("registrations:manage")).
			Post("/registrations/{registrationID}/reject", api.RejectRegistrationHandler(students))

		// Announcements
		pr.With(rbac.Require("announcements:create")).
			Post("/announcements", api.CreateAnnouncementHandler(dbh))
		pr.With(rbac.Require("announcements:view")).
			Get("/announcements", api.ListAnnouncementsHandler(dbh))

		// Accounts (admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
