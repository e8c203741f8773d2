package registration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opengrade/olympiad/internal/audit"
)

type Repo struct{ db *sql.DB }

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) CreateStudent(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.CreatedAt = time.Now().Unix()
	_, err := r.db.ExecContext(ctx, `INSERT INTO students (id,roll_no,name,email,grade,school,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.RollNo, s.Name, s.Email, s.Grade, s.School, s.CreatedAt)
	if err != nil {
		return Student{}, err
	}
	return s, nil
}

func (r *Repo) GetStudentByRoll(ctx context.Context, rollNo string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,roll_no,name,email,grade,school,created_at
		FROM students WHERE roll_no=$1`, rollNo)
	var s Student
	if err := row.Scan(&s.ID, &s.RollNo, &s.Name, &s.Email, &s.Grade, &s.School, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrStudentNotFound
		}
		return Student{}, err
	}
	return s, nil
}

func (r *Repo) GetStudent(ctx context.Context, id string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,roll_no,name,email,grade,school,created_at
		FROM students WHERE id=$1`, id)
	var s Student
	if err := row.Scan(&s.ID, &s.RollNo, &s.Name, &s.Email, &s.Grade, &s.School, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrStudentNotFound
		}
		return Student{}, err
	}
	return s, nil
}

func (r *Repo) ListStudents(ctx context.Context, grade string) ([]Student, error) {
	q := `SELECT id,roll_no,name,email,grade,school,created_at FROM students`
	args := []any{}
	if grade != "" {
		q += ` WHERE grade=$1`
		args = append(args, grade)
	}
	q += ` ORDER BY roll_no`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Student{}
	for rows.Next() {
		var s Student
		if err := rows.Scan(&s.ID, &s.RollNo, &s.Name, &s.Email, &s.Grade, &s.School, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRegistration(ctx context.Context, studentID, grade, paymentRef string) (Registration, error) {
	if _, err := r.GetStudent(ctx, studentID); err != nil {
		return Registration{}, err
	}
	reg := Registration{
		ID:         uuid.NewString(),
		StudentID:  studentID,
		Grade:      grade,
		Status:     StatusPending,
		PaymentRef: paymentRef,
		CreatedAt:  time.Now().Unix(),
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO registrations (id,student_id,grade,status,payment_ref,created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		reg.ID, reg.StudentID, reg.Grade, reg.Status, reg.PaymentRef, reg.CreatedAt)
	if err != nil {
		return Registration{}, err
	}
	return reg, nil
}

func (r *Repo) GetRegistration(ctx context.Context, id string) (Registration, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id,student_id,grade,status,payment_ref,decided_by,decided_at,created_at
		FROM registrations WHERE id=$1`, id)
	var reg Registration
	var decidedAt sql.NullInt64
	if err := row.Scan(&reg.ID, &reg.StudentID, &reg.Grade, &reg.Status, &reg.PaymentRef,
		&reg.DecidedBy, &decidedAt, &reg.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Registration{}, ErrRegistrationNotFound
		}
		return Registration{}, err
	}
	if decidedAt.Valid {
		reg.DecidedAt = &decidedAt.Int64
	}
	return reg, nil
}

func (r *Repo) ListRegistrations(ctx context.Context, status string) ([]Registration, error) {
	q := `SELECT id,student_id,grade,status,payment_ref,decided_by,decided_at,created_at FROM registrations`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Registration{}
	for rows.Next() {
		var reg Registration
		var decidedAt sql.NullInt64
		if err := rows.Scan(&reg.ID, &reg.StudentID, &reg.Grade, &reg.Status, &reg.PaymentRef,
			&reg.DecidedBy, &decidedAt, &reg.CreatedAt); err != nil {
			return nil, err
		}
		if decidedAt.Valid {
			reg.DecidedAt = &decidedAt.Int64
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

// Approve flips a pending registration and pre-provisions one result row per
// upcoming exam matching the student's grade, all in one transaction. Result
// rows exist before any attempt does; grading later updates them in place.
func (r *Repo) Approve(ctx context.Context, id, decidedBy string) (reg Registration, err error) {
	reg, err = r.GetRegistration(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if reg.Status != StatusPending {
		return Registration{}, ErrAlreadyDecided
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Registration{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx, `UPDATE registrations SET status=$1, decided_by=$2, decided_at=$3 WHERE id=$4`,
		StatusApproved, decidedBy, now, id)
	if err != nil {
		return Registration{}, err
	}

	rows, err := tx.QueryContext(ctx, `SELECT id FROM exams WHERE grade=$1 AND ends_at > $2`, reg.Grade, now)
	if err != nil {
		return Registration{}, err
	}
	var examIDs []string
	for rows.Next() {
		var eid string
		if err = rows.Scan(&eid); err != nil {
			rows.Close()
			return Registration{}, err
		}
		examIDs = append(examIDs, eid)
	}
	if err = rows.Err(); err != nil {
		rows.Close()
		return Registration{}, err
	}
	rows.Close()

	for _, eid := range examIDs {
		_, err = tx.ExecContext(ctx, `INSERT INTO results (id,exam_id,student_id,status)
			VALUES ($1,$2,$3,'not_graded')
			ON CONFLICT (exam_id, student_id) DO NOTHING`,
			uuid.NewString(), eid, reg.StudentID)
		if err != nil {
			return Registration{}, err
		}
	}

	if err = audit.Append(ctx, tx, audit.Event{Type: "RegistrationApproved", Key: id, Data: map[string]any{
		"student_id": reg.StudentID, "grade": reg.Grade, "exams": len(examIDs),
	}}); err != nil {
		return Registration{}, err
	}

	reg.Status = StatusApproved
	reg.DecidedBy = decidedBy
	reg.DecidedAt = &now
	return reg, nil
}

func (r *Repo) Reject(ctx context.Context, id, decidedBy string) (Registration, error) {
	reg, err := r.GetRegistration(ctx, id)
	if err != nil {
		return Registration{}, err
	}
	if reg.Status != StatusPending {
		return Registration{}, ErrAlreadyDecided
	}
	now := time.Now().Unix()
	_, err = r.db.ExecContext(ctx, `UPDATE registrations SET status=$1, decided_by=$2, decided_at=$3 WHERE id=$4`,
		StatusRejected, decidedBy, now, id)
	if err != nil {
		return Registration{}, err
	}
	reg.Status = StatusRejected
	reg.DecidedBy = decidedBy
	reg.DecidedAt = &now
	return reg, nil
}
