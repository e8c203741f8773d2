package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so events can ride inside the
// transaction that produced them.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Event struct {
	Type string // e.g., AttemptSubmitted, RegistrationApproved
	Key  string // natural key: attemptID, registrationID
	Data any    // JSON-serializable payload
}

// Append writes one event row. Marshal failures degrade to an empty payload;
// the event itself is still recorded.
func Append(ctx context.Context, db DBTX, e Event) error {
	data := "{}"
	if e.Data != nil {
		if b, err := json.Marshal(e.Data); err == nil {
			data = string(b)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO event_log (typ, key, data, created_at) VALUES ($1,$2,$3,$4)`,
		e.Type, e.Key, data, time.Now().Unix())
	return err
}
