package notify

import (
	"context"
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Dispatcher fans out notifications without overwhelming the relay. Sends are
// fire-and-forget from the caller's point of view: the triggering request
// never blocks on, or fails because of, delivery.
type Dispatcher struct {
	mailer Mailer
	db     *sql.DB
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
}

func NewDispatcher(mailer Mailer, db *sql.DB, parallel int) *Dispatcher {
	if parallel <= 0 {
		parallel = 4
	}
	return &Dispatcher{mailer: mailer, db: db, sem: semaphore.NewWeighted(int64(parallel))}
}

// Dispatch queues one message. kind tags the notifications record
// (approval|result|announcement).
func (d *Dispatcher) Dispatch(m Message, kind string) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := d.sem.Acquire(ctx, 1); err != nil {
			d.record(ctx, m, kind, "failed", err.Error())
			return
		}
		defer d.sem.Release(1)

		if err := d.mailer.Send(ctx, m); err != nil {
			log.Printf("notify: send to %s failed: %v", m.Recipient, err)
			d.record(ctx, m, kind, "failed", err.Error())
			return
		}
		d.record(ctx, m, kind, "sent", "")
	}()
}

// Wait drains in-flight sends; used on shutdown and in tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) record(ctx context.Context, m Message, kind, status, detail string) {
	if d.db == nil {
		return
	}
	_, err := d.db.ExecContext(ctx, `INSERT INTO notifications (id,recipient,subject,kind,status,detail,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), m.Recipient, m.Subject, kind, status, detail, time.Now().Unix())
	if err != nil {
		log.Printf("notify: record notification: %v", err)
	}
}
