package registration_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/opengrade/olympiad/internal/db"
	"github.com/opengrade/olympiad/internal/registration"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbh, err := db.Open(context.Background(), db.DriverSQLite, "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

func seedExam(t *testing.T, dbh *sql.DB, id, grade string, endsAt int64) {
	t.Helper()
	now := time.Now().Unix()
	if _, err := dbh.Exec(`INSERT INTO exams (id,title,subject,grade,starts_at,ends_at,created_at)
		VALUES ($1,$1,'Math',$2,$3,$4,$3)`, id, grade, now-3600, endsAt); err != nil {
		t.Fatal(err)
	}
}

func TestApproveProvisionsResults(t *testing.T) {
	dbh := openTestDB(t)
	repo := registration.NewRepo(dbh)
	ctx := context.Background()
	now := time.Now().Unix()

	// Two upcoming exams for grade 6, one already over, one for another grade.
	seedExam(t, dbh, "e-up1", "6", now+3600)
	seedExam(t, dbh, "e-up2", "6", now+7200)
	seedExam(t, dbh, "e-past", "6", now-60)
	seedExam(t, dbh, "e-other", "8", now+3600)

	st, err := repo.CreateStudent(ctx, registration.Student{
		RollNo: "R-2001", Name: "Bilal Khan", Email: "bilal@example.com", Grade: "6",
	})
	if err != nil {
		t.Fatal(err)
	}
	reg, err := repo.CreateRegistration(ctx, st.ID, "6", "PAY-123")
	if err != nil {
		t.Fatal(err)
	}
	if reg.Status != registration.StatusPending {
		t.Fatalf("new registration status=%q", reg.Status)
	}

	approved, err := repo.Approve(ctx, reg.ID, "admin-1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != registration.StatusApproved || approved.DecidedBy != "admin-1" || approved.DecidedAt == nil {
		t.Fatalf("approved registration: %+v", approved)
	}

	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM results WHERE student_id=$1`, st.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected result rows for the 2 upcoming grade-6 exams, got %d", n)
	}
	var status string
	if err := dbh.QueryRow(`SELECT status FROM results WHERE student_id=$1 AND exam_id='e-up1'`, st.ID).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "not_graded" {
		t.Fatalf("provisioned status=%q, want not_graded", status)
	}

	var events int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM event_log WHERE typ='RegistrationApproved' AND key=$1`, reg.ID).Scan(&events); err != nil {
		t.Fatal(err)
	}
	if events != 1 {
		t.Fatalf("expected 1 audit event, got %d", events)
	}
}

func TestApproveTwiceConflicts(t *testing.T) {
	dbh := openTestDB(t)
	repo := registration.NewRepo(dbh)
	ctx := context.Background()

	st, _ := repo.CreateStudent(ctx, registration.Student{
		RollNo: "R-2002", Name: "Chitra Devi", Email: "chitra@example.com", Grade: "6",
	})
	reg, _ := repo.CreateRegistration(ctx, st.ID, "6", "")
	if _, err := repo.Approve(ctx, reg.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Approve(ctx, reg.ID, "admin-2"); err != registration.ErrAlreadyDecided {
		t.Fatalf("expected ErrAlreadyDecided, got %v", err)
	}
	if _, err := repo.Reject(ctx, reg.ID, "admin-2"); err != registration.ErrAlreadyDecided {
		t.Fatalf("reject after approve: expected ErrAlreadyDecided, got %v", err)
	}
}

func TestApproveProvisioningIsIdempotent(t *testing.T) {
	dbh := openTestDB(t)
	repo := registration.NewRepo(dbh)
	ctx := context.Background()
	seedExam(t, dbh, "e-1", "7", time.Now().Unix()+3600)

	st, _ := repo.CreateStudent(ctx, registration.Student{
		RollNo: "R-2003", Name: "Dina Putri", Email: "dina@example.com", Grade: "7",
	})
	// Duplicate registrations for the same student both approve cleanly; the
	// second one hits the conflict path and leaves the single result row alone.
	r1, _ := repo.CreateRegistration(ctx, st.ID, "7", "")
	r2, _ := repo.CreateRegistration(ctx, st.ID, "7", "")
	if _, err := repo.Approve(ctx, r1.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Approve(ctx, r2.ID, "admin-1"); err != nil {
		t.Fatal(err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM results WHERE student_id=$1`, st.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 result row after double approval, got %d", n)
	}
}

func TestReject(t *testing.T) {
	dbh := openTestDB(t)
	repo := registration.NewRepo(dbh)
	ctx := context.Background()
	seedExam(t, dbh, "e-1", "7", time.Now().Unix()+3600)

	st, _ := repo.CreateStudent(ctx, registration.Student{
		RollNo: "R-2004", Name: "Eko Wijaya", Email: "eko@example.com", Grade: "7",
	})
	reg, _ := repo.CreateRegistration(ctx, st.ID, "7", "")
	out, err := repo.Reject(ctx, reg.ID, "admin-1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Status != registration.StatusRejected {
		t.Fatalf("status=%q, want rejected", out.Status)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM results WHERE student_id=$1`, st.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rejected registration must not provision results, got %d", n)
	}
}

func TestCreateRegistrationUnknownStudent(t *testing.T) {
	dbh := openTestDB(t)
	repo := registration.NewRepo(dbh)

	if _, err := repo.CreateRegistration(context.Background(), "ghost", "6", ""); err != registration.ErrStudentNotFound {
		t.Fatalf("expected ErrStudentNotFound, got %v", err)
	}
}
