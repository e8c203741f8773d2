package quiz

import "context"

type ListOpts struct {
	ExamID string
	Grade  string
	Limit  int
	Offset int
}

type AttemptListOpts struct {
	QuizID    string // filter by quiz
	StudentID string // filter by student
	Status    string // optional: in_progress|submitted
	Limit     int
	Offset    int
}

type Store interface {
	PutExam(ctx context.Context, e Exam) error
	ListExams(ctx context.Context, grade string) ([]Exam, error)

	PutQuiz(ctx context.Context, q Quiz) error
	GetQuiz(ctx context.Context, id string) (Quiz, error)      // student-safe (no answer keys)
	GetQuizAdmin(ctx context.Context, id string) (Quiz, error) // full quiz, for examiners
	ListQuizzes(ctx context.Context, opts ListOpts) ([]QuizSummary, error)

	// StartAttempt is an atomic get-or-create keyed on (quiz, student); a
	// repeat start returns the existing attempt, never a second row.
	StartAttempt(ctx context.Context, quizID, studentID string) (Attempt, error)

	// SubmitAttempt grades the payload and commits attempt finalize, result
	// update and answer rows as one transaction.
	SubmitAttempt(ctx context.Context, in Submission) (GradeSummary, error)

	// RegradeAttempt replaces a submitted attempt's answers wholesale and
	// recomputes the result under the same transaction rules.
	RegradeAttempt(ctx context.Context, in Submission) (GradeSummary, error)

	GetAttempt(ctx context.Context, id string) (Attempt, error)
	GetAttemptAnswers(ctx context.Context, attemptID string) ([]Answer, error)
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)
}
