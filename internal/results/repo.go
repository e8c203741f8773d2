package results

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
)

var ErrResultNotFound = errors.New("result not found")

// Row is one graded outcome joined with its exam, student and attempt.
type Row struct {
	ID            string  `json:"id"`
	ExamID        string  `json:"exam_id"`
	ExamTitle     string  `json:"exam_title"`
	Subject       string  `json:"subject"`
	Grade         string  `json:"grade"`
	StudentID     string  `json:"student_id"`
	StudentName   string  `json:"student_name"`
	RollNo        string  `json:"roll_no"`
	Email         string  `json:"email"`
	AttemptID     string  `json:"attempt_id,omitempty"`
	Score         float64 `json:"score"`
	TotalMarks    float64 `json:"total_marks"`
	LetterGrade   string  `json:"letter_grade"`
	AnsweredCount int     `json:"answered_count"`
	CorrectCount  int     `json:"correct_count"`
	Status        string  `json:"status"`
	GradedAt      *int64  `json:"graded_at,omitempty"`
	ElapsedSec    int64   `json:"elapsed_sec"`
	Rank          int     `json:"rank"`
}

type Filter struct {
	ExamID  string
	Grade   string
	Subject string
	Page    int // 1-based; clamped to 1
}

type Page struct {
	Items    []Row `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int   `json:"total"`
}

// Summary is the dashboard aggregate. NotAttempted can never go negative:
// attempted counts a subset of the registered (provisioned) rows.
type Summary struct {
	Registered   int `json:"registered"`
	Attempted    int `json:"attempted"`
	NotAttempted int `json:"not_attempted"`
}

type Repo struct {
	db       *sql.DB
	pageSize int
}

func NewRepo(db *sql.DB, pageSize int) *Repo {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Repo{db: db, pageSize: pageSize}
}

const selectRow = `SELECT r.id, r.exam_id, e.title, e.subject, e.grade,
	r.student_id, s.name, s.roll_no, s.email,
	COALESCE(r.attempt_id,''), r.score, r.total_marks, r.letter_grade,
	r.answered_count, r.correct_count, r.status, r.graded_at,
	COALESCE(a.elapsed_sec,0)
	FROM results r
	JOIN exams e ON e.id = r.exam_id
	JOIN students s ON s.id = r.student_id
	LEFT JOIN quiz_attempts a ON a.id = r.attempt_id`

// GetPage returns one fixed-size page of the filtered set, ranked by score
// descending with roll number as the tiebreak. Pages past the end come back
// empty, not as an error.
func (r *Repo) GetPage(ctx context.Context, f Filter) (Page, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if f.ExamID != "" {
		args = append(args, f.ExamID)
		where += ` AND r.exam_id=$` + strconv.Itoa(len(args))
	}
	if f.Grade != "" {
		args = append(args, f.Grade)
		where += ` AND e.grade=$` + strconv.Itoa(len(args))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		where += ` AND e.subject=$` + strconv.Itoa(len(args))
	}

	var total int
	countQ := `SELECT COUNT(*) FROM results r JOIN exams e ON e.id = r.exam_id JOIN students s ON s.id = r.student_id` + where
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return Page{}, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * r.pageSize
	args = append(args, r.pageSize, offset)
	q := selectRow + where +
		` ORDER BY r.score DESC, s.roll_no LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()

	items := []Row{}
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return Page{}, err
		}
		row.Rank = offset + len(items) + 1
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	return Page{Items: items, Page: page, PageSize: r.pageSize, Total: total}, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Row, error) {
	row := r.db.QueryRowContext(ctx, selectRow+` WHERE r.id=$1`, id)
	out, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, ErrResultNotFound
	}
	return out, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (Row, error) {
	var row Row
	var gradedAt sql.NullInt64
	err := sc.Scan(&row.ID, &row.ExamID, &row.ExamTitle, &row.Subject, &row.Grade,
		&row.StudentID, &row.StudentName, &row.RollNo, &row.Email,
		&row.AttemptID, &row.Score, &row.TotalMarks, &row.LetterGrade,
		&row.AnsweredCount, &row.CorrectCount, &row.Status, &gradedAt, &row.ElapsedSec)
	if err != nil {
		return Row{}, err
	}
	if gradedAt.Valid {
		row.GradedAt = &gradedAt.Int64
	}
	return row, nil
}

func (r *Repo) GetSummary(ctx context.Context, examID string) (Summary, error) {
	var sum Summary
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COUNT(attempt_id) FROM results WHERE exam_id=$1`, examID).
		Scan(&sum.Registered, &sum.Attempted)
	if err != nil {
		return Summary{}, err
	}
	sum.NotAttempted = sum.Registered - sum.Attempted
	if sum.NotAttempted < 0 {
		sum.NotAttempted = 0
	}
	return sum, nil
}
