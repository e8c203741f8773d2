package quiz

import "errors"

// Explicit error kinds so handlers can map each to a distinct HTTP status
// instead of collapsing everything into 500s.
var (
	ErrExamNotFound     = errors.New("exam not found")
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAlreadySubmitted = errors.New("attempt already submitted")

	// ErrResultMissing means the pre-provisioned result row for
	// (exam, student) does not exist; grading must fail loudly rather than
	// drop the write.
	ErrResultMissing = errors.New("result record missing for exam/student")
)
