package quiz

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opengrade/olympiad/internal/audit"
	"github.com/opengrade/olympiad/internal/grading"
)

type SQLStore struct {
	db            *sql.DB
	ev            *grading.Evaluator
	passThreshold float64
}

func NewSQLStore(db *sql.DB, ev *grading.Evaluator, passThreshold float64) *SQLStore {
	if passThreshold <= 0 {
		passThreshold = grading.DefaultPassThreshold
	}
	return &SQLStore{db: db, ev: ev, passThreshold: passThreshold}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams (id,title,subject,grade,starts_at,ends_at,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, subject=EXCLUDED.subject,
		  grade=EXCLUDED.grade, starts_at=EXCLUDED.starts_at, ends_at=EXCLUDED.ends_at`,
		e.ID, e.Title, e.Subject, e.Grade, e.StartsAt, e.EndsAt, time.Now().Unix())
	return err
}

func (s *SQLStore) ListExams(ctx context.Context, grade string) ([]Exam, error) {
	q := `SELECT id,title,subject,grade,starts_at,ends_at,created_at FROM exams`
	args := []any{}
	if grade != "" {
		q += ` WHERE grade=$1`
		args = append(args, grade)
	}
	q += ` ORDER BY starts_at`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exam{}
	for rows.Next() {
		var e Exam
		if err := rows.Scan(&e.ID, &e.Title, &e.Subject, &e.Grade, &e.StartsAt, &e.EndsAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PutQuiz upserts the quiz row and replaces its question set wholesale.
// Quizzes are immutable after publication in the UI; replacement here exists
// for authoring-time corrections only.
func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) (err error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	total := 0.0
	for _, qu := range q.Questions {
		total += qu.Points
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO quizzes (id,exam_id,title,subject,grade,total_marks,question_count,starts_at,ends_at,created_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, subject=EXCLUDED.subject, grade=EXCLUDED.grade,
		  total_marks=EXCLUDED.total_marks, question_count=EXCLUDED.question_count,
		  starts_at=EXCLUDED.starts_at, ends_at=EXCLUDED.ends_at`,
		q.ID, q.ExamID, q.Title, q.Subject, q.Grade, total, len(q.Questions), q.StartsAt, q.EndsAt, q.CreatedBy, time.Now().Unix())
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id=$1`, q.ID); err != nil {
		return err
	}
	for i, qu := range q.Questions {
		if qu.ID == "" {
			qu.ID = uuid.NewString()
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO questions (id,quiz_id,typ,prompt,answer_key,points,position)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			qu.ID, q.ID, qu.Type, qu.Prompt, qu.AnswerKey, qu.Points, i)
		if err != nil {
			return err
		}
		for j, op := range qu.Options {
			if op.ID == "" {
				op.ID = uuid.NewString()
			}
			_, err = tx.ExecContext(ctx, `INSERT INTO question_options (id,question_id,label,is_correct,position)
				VALUES ($1,$2,$3,$4,$5)`,
				op.ID, qu.ID, op.Label, op.IsCorrect, j)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	q, err := s.getQuiz(ctx, id)
	if err != nil {
		return Quiz{}, err
	}
	// Strip answer keys when serving to students.
	for i := range q.Questions {
		q.Questions[i].AnswerKey = ""
		for j := range q.Questions[i].Options {
			q.Questions[i].Options[j].IsCorrect = false
		}
	}
	return q, nil
}

func (s *SQLStore) GetQuizAdmin(ctx context.Context, id string) (Quiz, error) {
	return s.getQuiz(ctx, id)
}

func (s *SQLStore) getQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,exam_id,title,subject,grade,total_marks,question_count,starts_at,ends_at,created_by,created_at
		FROM quizzes WHERE id=$1`, id)
	var q Quiz
	if err := row.Scan(&q.ID, &q.ExamID, &q.Title, &q.Subject, &q.Grade, &q.TotalMarks, &q.QuestionCount,
		&q.StartsAt, &q.EndsAt, &q.CreatedBy, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	qs, err := s.loadQuestions(ctx, q.ID)
	if err != nil {
		return Quiz{}, err
	}
	q.Questions = qs
	return q, nil
}

func (s *SQLStore) loadQuestions(ctx context.Context, quizID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,typ,prompt,answer_key,points,position
		FROM questions WHERE quiz_id=$1 ORDER BY position`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Question{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Type, &q.Prompt, &q.AnswerKey, &q.Points, &q.Position); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ops, err := s.loadOptions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Options = ops
	}
	return out, nil
}

func (s *SQLStore) loadOptions(ctx context.Context, questionID string) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,label,is_correct,position
		FROM question_options WHERE question_id=$1 ORDER BY position`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Option
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.Label, &o.IsCorrect, &o.Position); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListQuizzes(ctx context.Context, opts ListOpts) ([]QuizSummary, error) {
	q := `SELECT id,exam_id,title,subject,grade,total_marks,question_count,starts_at,ends_at FROM quizzes WHERE 1=1`
	args := []any{}
	if opts.ExamID != "" {
		args = append(args, opts.ExamID)
		q += ` AND exam_id=$` + strconv.Itoa(len(args))
	}
	if opts.Grade != "" {
		args = append(args, opts.Grade)
		q += ` AND grade=$` + strconv.Itoa(len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q += ` ORDER BY starts_at LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []QuizSummary{}
	for rows.Next() {
		var sum QuizSummary
		if err := rows.Scan(&sum.ID, &sum.ExamID, &sum.Title, &sum.Subject, &sum.Grade,
			&sum.TotalMarks, &sum.QuestionCount, &sum.StartsAt, &sum.EndsAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// StartAttempt is insert-if-absent on the (quiz_id, student_id) unique key.
// The conflict path is the expected concurrent-start case: fetch whichever
// row won, so both callers observe the same attempt id.
func (s *SQLStore) StartAttempt(ctx context.Context, quizID, studentID string) (Attempt, error) {
	var total float64
	err := s.db.QueryRowContext(ctx, `SELECT total_marks FROM quizzes WHERE id=$1`, quizID).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, ErrQuizNotFound
	}
	if err != nil {
		return Attempt{}, err
	}

	id := uuid.NewString()
	now := time.Now().Unix()
	res, err := s.db.ExecContext(ctx, `INSERT INTO quiz_attempts (id,quiz_id,student_id,status,started_at,total_marks)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (quiz_id, student_id) DO NOTHING`,
		id, quizID, studentID, AttemptInProgress, now, total)
	if err != nil {
		return Attempt{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return s.getAttemptByKey(ctx, quizID, studentID)
	}
	return Attempt{ID: id, QuizID: quizID, StudentID: studentID, Status: AttemptInProgress, StartedAt: now, TotalMarks: total}, nil
}

func (s *SQLStore) getAttemptByKey(ctx context.Context, quizID, studentID string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,status,started_at,submitted_at,elapsed_sec,total_marks
		FROM quiz_attempts WHERE quiz_id=$1 AND student_id=$2`, quizID, studentID)
	return scanAttempt(row)
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,quiz_id,student_id,status,started_at,submitted_at,elapsed_sec,total_marks
		FROM quiz_attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func scanAttempt(row *sql.Row) (Attempt, error) {
	var a Attempt
	var submitted sql.NullInt64
	if err := row.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.StartedAt, &submitted, &a.ElapsedSec, &a.TotalMarks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	if submitted.Valid {
		a.SubmittedAt = &submitted.Int64
	}
	return a, nil
}

// SubmitAttempt grades the payload against the quiz's question set and commits
// three writes as one unit: attempt finalize, result update, answer insert.
// A partially-graded attempt must never be observable.
func (s *SQLStore) SubmitAttempt(ctx context.Context, in Submission) (GradeSummary, error) {
	a, err := s.GetAttempt(ctx, in.AttemptID)
	if err != nil {
		return GradeSummary{}, err
	}
	if a.Status == AttemptSubmitted {
		return GradeSummary{}, ErrAlreadySubmitted
	}
	return s.grade(ctx, a, in, false)
}

// RegradeAttempt deletes the attempt's answers wholesale, regrades the
// provided set against current answer keys and rewrites the result row.
func (s *SQLStore) RegradeAttempt(ctx context.Context, in Submission) (GradeSummary, error) {
	a, err := s.GetAttempt(ctx, in.AttemptID)
	if err != nil {
		return GradeSummary{}, err
	}
	return s.grade(ctx, a, in, true)
}

func (s *SQLStore) grade(ctx context.Context, a Attempt, in Submission, regrade bool) (sum GradeSummary, err error) {
	var examID string
	var totalMarks float64
	err = s.db.QueryRowContext(ctx, `SELECT exam_id,total_marks FROM quizzes WHERE id=$1`, a.QuizID).
		Scan(&examID, &totalMarks)
	if errors.Is(err, sql.ErrNoRows) {
		return GradeSummary{}, ErrQuizNotFound
	}
	if err != nil {
		return GradeSummary{}, err
	}

	// One fetch of the full question set, keys included.
	questions, err := s.loadQuestions(ctx, a.QuizID)
	if err != nil {
		return GradeSummary{}, err
	}
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	now := time.Now().Unix()
	var (
		score     float64
		answered  int
		correct   int
		anomalies []string
		graded    = make([]Answer, 0, len(in.Answers))
	)
	for _, sa := range in.Answers {
		if strings.TrimSpace(sa.Submitted) != "" {
			answered++
		}
		var v grading.Verdict
		q, ok := byID[sa.QuestionID]
		if !ok {
			v = grading.Verdict{Anomaly: "unknown question " + strconv.Quote(sa.QuestionID)}
		} else {
			v = s.ev.Evaluate(grading.Question{ID: q.ID, Type: q.Type, Points: q.Points, AnswerKey: q.AnswerKey}, sa.Submitted)
		}
		if v.Anomaly != "" {
			anomalies = append(anomalies, v.Anomaly)
			log.Printf("grading anomaly attempt=%s question=%s: %s", a.ID, sa.QuestionID, v.Anomaly)
		}
		if v.Correct {
			correct++
			score += v.Points
		}
		graded = append(graded, Answer{
			ID:           uuid.NewString(),
			AttemptID:    a.ID,
			QuestionID:   sa.QuestionID,
			Submitted:    sa.Submitted,
			Correct:      v.Correct,
			PointsEarned: v.Points,
			AnsweredAt:   now,
		})
	}

	// Client-reported time is advisory only: clamp it to the server-side
	// started_at..now window.
	elapsed := now - a.StartedAt
	if elapsed < 0 {
		elapsed = 0
	}
	if in.TimeSpentSec > 0 && in.TimeSpentSec < elapsed {
		elapsed = in.TimeSpentSec
	}

	status := grading.DeriveStatus(score, totalMarks, answered, s.passThreshold)
	letter := grading.LetterGrade(score, totalMarks)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GradeSummary{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	if regrade {
		if _, err = tx.ExecContext(ctx, `DELETE FROM answers WHERE attempt_id=$1`, a.ID); err != nil {
			return GradeSummary{}, err
		}
		_, err = tx.ExecContext(ctx, `UPDATE quiz_attempts SET status=$1, submitted_at=COALESCE(submitted_at,$2)
			WHERE id=$3`, AttemptSubmitted, now, a.ID)
		if err != nil {
			return GradeSummary{}, err
		}
	} else {
		var res sql.Result
		res, err = tx.ExecContext(ctx, `UPDATE quiz_attempts SET status=$1, submitted_at=$2, elapsed_sec=$3
			WHERE id=$4 AND status=$5`, AttemptSubmitted, now, elapsed, a.ID, AttemptInProgress)
		if err != nil {
			return GradeSummary{}, err
		}
		if n, e := res.RowsAffected(); e == nil && n == 0 {
			// a concurrent submit won
			err = ErrAlreadySubmitted
			return GradeSummary{}, err
		}
	}

	// Grading always updates the pre-provisioned result row; a missing row is
	// an explicit failure, never a dropped write.
	res, err := tx.ExecContext(ctx, `UPDATE results SET score=$1, total_marks=$2, letter_grade=$3,
		answered_count=$4, correct_count=$5, status=$6, attempt_id=$7, graded_at=$8
		WHERE exam_id=$9 AND student_id=$10`,
		score, totalMarks, letter, answered, correct, status, a.ID, now, examID, a.StudentID)
	if err != nil {
		return GradeSummary{}, err
	}
	if n, e := res.RowsAffected(); e == nil && n == 0 {
		err = ErrResultMissing
		return GradeSummary{}, err
	}

	for _, ans := range graded {
		_, err = tx.ExecContext(ctx, `INSERT INTO answers (id,attempt_id,question_id,submitted,correct,points_earned,answered_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			ans.ID, ans.AttemptID, ans.QuestionID, ans.Submitted, ans.Correct, ans.PointsEarned, ans.AnsweredAt)
		if err != nil {
			return GradeSummary{}, err
		}
	}

	typ := "AttemptSubmitted"
	if regrade {
		typ = "AttemptRegraded"
	}
	if err = audit.Append(ctx, tx, audit.Event{Type: typ, Key: a.ID, Data: map[string]any{
		"exam_id": examID, "student_id": a.StudentID, "score": score, "status": status,
	}}); err != nil {
		return GradeSummary{}, err
	}

	return GradeSummary{
		AttemptID:     a.ID,
		ExamID:        examID,
		StudentID:     a.StudentID,
		Score:         score,
		TotalMarks:    totalMarks,
		LetterGrade:   letter,
		Status:        status,
		AnsweredCount: answered,
		CorrectCount:  correct,
		ElapsedSec:    elapsed,
		Anomalies:     anomalies,
	}, nil
}

func (s *SQLStore) GetAttemptAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,attempt_id,question_id,submitted,correct,points_earned,answered_at
		FROM answers WHERE attempt_id=$1 ORDER BY answered_at, question_id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Answer{}
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.AttemptID, &a.QuestionID, &a.Submitted, &a.Correct, &a.PointsEarned, &a.AnsweredAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	q := `SELECT id,quiz_id,student_id,status,started_at,submitted_at,elapsed_sec,total_marks
		FROM quiz_attempts WHERE 1=1`
	args := []any{}
	if opts.QuizID != "" {
		args = append(args, opts.QuizID)
		q += ` AND quiz_id=$` + strconv.Itoa(len(args))
	}
	if opts.StudentID != "" {
		args = append(args, opts.StudentID)
		q += ` AND student_id=$` + strconv.Itoa(len(args))
	}
	if opts.Status != "" {
		args = append(args, opts.Status)
		q += ` AND status=$` + strconv.Itoa(len(args))
	}
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit, opts.Offset)
	q += ` ORDER BY started_at DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		var a Attempt
		var submitted sql.NullInt64
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Status, &a.StartedAt, &submitted, &a.ElapsedSec, &a.TotalMarks); err != nil {
			return nil, err
		}
		if submitted.Valid {
			a.SubmittedAt = &submitted.Int64
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
