package results_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/opengrade/olympiad/internal/db"
	"github.com/opengrade/olympiad/internal/results"
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

// seedResults inserts one exam and n students with scores n, n-1, ... 1.
// Students with an even index also get an attempt_id set.
func seedResults(t *testing.T, dbh *sql.DB, examID string, n int) {
	t.Helper()
	now := time.Now().Unix()
	if _, err := dbh.Exec(`INSERT INTO exams (id,title,subject,grade,starts_at,ends_at,created_at)
		VALUES ($1,'Regional Round','Math','6',$2,$3,$2)`, examID, now-3600, now+3600); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		sid := fmt.Sprintf("s-%03d", i)
		if _, err := dbh.Exec(`INSERT INTO students (id,roll_no,name,email,grade,created_at)
			VALUES ($1,$2,$3,$4,'6',$5)`,
			sid, fmt.Sprintf("R-%03d", i), fmt.Sprintf("Student %d", i), fmt.Sprintf("s%d@example.com", i), now); err != nil {
			t.Fatal(err)
		}
		var attemptID any
		if i%2 == 0 {
			attemptID = "attempt-" + sid
		}
		if _, err := dbh.Exec(`INSERT INTO results (id,exam_id,student_id,attempt_id,score,total_marks,status,graded_at)
			VALUES ($1,$2,$3,$4,$5,100,'passed',$6)`,
			"r-"+sid, examID, sid, attemptID, float64(n-i+1), now); err != nil {
			t.Fatal(err)
		}
	}
}

func TestGetPagePaginationAndRank(t *testing.T) {
	dbh := openTestDB(t)
	repo := results.NewRepo(dbh, 10)
	seedResults(t, dbh, "exam-p", 23)
	ctx := context.Background()

	p1, err := repo.GetPage(ctx, results.Filter{ExamID: "exam-p", Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	if p1.Total != 23 || len(p1.Items) != 10 {
		t.Fatalf("page1: total=%d items=%d, want 23/10", p1.Total, len(p1.Items))
	}
	if p1.Items[0].Rank != 1 || p1.Items[0].Score != 23 {
		t.Fatalf("top item rank=%d score=%v, want 1/23", p1.Items[0].Rank, p1.Items[0].Score)
	}
	for i := 1; i < len(p1.Items); i++ {
		if p1.Items[i].Score > p1.Items[i-1].Score {
			t.Fatalf("page not score-descending at %d", i)
		}
	}

	p3, err := repo.GetPage(ctx, results.Filter{ExamID: "exam-p", Page: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(p3.Items) != 3 {
		t.Fatalf("last page: %d items, want remainder 3", len(p3.Items))
	}
	if p3.Items[0].Rank != 21 {
		t.Fatalf("last page first rank=%d, want 21", p3.Items[0].Rank)
	}

	p4, err := repo.GetPage(ctx, results.Filter{ExamID: "exam-p", Page: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(p4.Items) != 0 || p4.Total != 23 {
		t.Fatalf("past-the-end page must be empty, got %d items", len(p4.Items))
	}
}

func TestGetPageClampsPage(t *testing.T) {
	dbh := openTestDB(t)
	repo := results.NewRepo(dbh, 10)
	seedResults(t, dbh, "exam-c", 5)

	p, err := repo.GetPage(context.Background(), results.Filter{ExamID: "exam-c", Page: 0})
	if err != nil {
		t.Fatal(err)
	}
	if p.Page != 1 || len(p.Items) != 5 {
		t.Fatalf("page=%d items=%d, want 1/5", p.Page, len(p.Items))
	}
}

func TestGetNotFound(t *testing.T) {
	dbh := openTestDB(t)
	repo := results.NewRepo(dbh, 10)

	if _, err := repo.Get(context.Background(), "missing"); err != results.ErrResultNotFound {
		t.Fatalf("expected ErrResultNotFound, got %v", err)
	}
}

func TestGetSummary(t *testing.T) {
	dbh := openTestDB(t)
	repo := results.NewRepo(dbh, 10)
	seedResults(t, dbh, "exam-s", 9) // 4 of 9 have an attempt_id

	sum, err := repo.GetSummary(context.Background(), "exam-s")
	if err != nil {
		t.Fatal(err)
	}
	if sum.Registered != 9 || sum.Attempted != 4 || sum.NotAttempted != 5 {
		t.Fatalf("summary %+v, want 9/4/5", sum)
	}

	empty, err := repo.GetSummary(context.Background(), "no-such-exam")
	if err != nil {
		t.Fatal(err)
	}
	if empty.Registered != 0 || empty.NotAttempted != 0 {
		t.Fatalf("empty summary %+v", empty)
	}
}
