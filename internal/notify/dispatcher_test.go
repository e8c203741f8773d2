package notify_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/opengrade/olympiad/internal/db"
	"github.com/opengrade/olympiad/internal/notify"
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

type failingMailer struct{}

func (failingMailer) Send(context.Context, notify.Message) error {
	return errors.New("relay refused")
}

func TestDispatchRecordsSent(t *testing.T) {
	dbh := openTestDB(t)
	mailer := &notify.LogMailer{}
	d := notify.NewDispatcher(mailer, dbh, 2)

	for i := 0; i < 5; i++ {
		d.Dispatch(notify.Message{Recipient: "a@example.com", Subject: "hello"}, "announcement")
	}
	d.Wait()

	if got := len(mailer.Sent()); got != 5 {
		t.Fatalf("delivered %d, want 5", got)
	}
	var sent int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM notifications WHERE status='sent' AND kind='announcement'`).Scan(&sent); err != nil {
		t.Fatal(err)
	}
	if sent != 5 {
		t.Fatalf("recorded %d sent rows, want 5", sent)
	}
}

func TestDispatchRecordsFailure(t *testing.T) {
	dbh := openTestDB(t)
	d := notify.NewDispatcher(failingMailer{}, dbh, 1)

	d.Dispatch(notify.Message{Recipient: "b@example.com", Subject: "result"}, "result")
	d.Wait()

	var status, detail string
	if err := dbh.QueryRow(`SELECT status, detail FROM notifications WHERE recipient='b@example.com'`).
		Scan(&status, &detail); err != nil {
		t.Fatal(err)
	}
	if status != "failed" || detail == "" {
		t.Fatalf("status=%q detail=%q, want failed with detail", status, detail)
	}
}

func TestDispatchWithoutDB(t *testing.T) {
	mailer := &notify.LogMailer{}
	d := notify.NewDispatcher(mailer, nil, 0) // parallel defaults

	d.Dispatch(notify.Message{Recipient: "c@example.com", Subject: "ping"}, "announcement")
	d.Wait()

	if got := len(mailer.Sent()); got != 1 {
		t.Fatalf("delivered %d, want 1", got)
	}
}
