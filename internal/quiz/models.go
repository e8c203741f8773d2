package quiz

// Exam is a scheduled competition round. Quizzes belong to exams; results are
// keyed by (exam, student).
type Exam struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Grade     string `json:"grade"`
	StartsAt  int64  `json:"starts_at"`
	EndsAt    int64  `json:"ends_at"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Option struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	IsCorrect bool   `json:"is_correct,omitempty"`
	Position  int    `json:"position"`
}

type Question struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"` // mcq, true_false, short_text, long_text, numeric
	Prompt    string   `json:"prompt"`
	AnswerKey string   `json:"answer_key,omitempty"`
	Points    float64  `json:"points"`
	Position  int      `json:"position"`
	Options   []Option `json:"options,omitempty"`
}

type Quiz struct {
	ID            string     `json:"id"`
	ExamID        string     `json:"exam_id"`
	Title         string     `json:"title"`
	Subject       string     `json:"subject"`
	Grade         string     `json:"grade"`
	TotalMarks    float64    `json:"total_marks"`
	QuestionCount int        `json:"question_count"`
	StartsAt      int64      `json:"starts_at"`
	EndsAt        int64      `json:"ends_at"`
	CreatedBy     string     `json:"created_by,omitempty"`
	CreatedAt     int64      `json:"created_at,omitempty"`
	Questions     []Question `json:"questions,omitempty"`
}

type QuizSummary struct {
	ID            string  `json:"id"`
	ExamID        string  `json:"exam_id"`
	Title         string  `json:"title"`
	Subject       string  `json:"subject"`
	Grade         string  `json:"grade"`
	TotalMarks    float64 `json:"total_marks"`
	QuestionCount int     `json:"question_count"`
	StartsAt      int64   `json:"starts_at"`
	EndsAt        int64   `json:"ends_at"`
}

const (
	AttemptInProgress = "in_progress"
	AttemptSubmitted  = "submitted"
)

type Attempt struct {
	ID          string  `json:"id"`
	QuizID      string  `json:"quiz_id"`
	StudentID   string  `json:"student_id"`
	Status      string  `json:"status"` // in_progress|submitted
	StartedAt   int64   `json:"started_at"`
	SubmittedAt *int64  `json:"submitted_at,omitempty"`
	ElapsedSec  int64   `json:"elapsed_sec"`
	TotalMarks  float64 `json:"total_marks"`
}

type Answer struct {
	ID           string  `json:"id"`
	AttemptID    string  `json:"attempt_id"`
	QuestionID   string  `json:"question_id"`
	Submitted    string  `json:"submitted"`
	Correct      bool    `json:"correct"`
	PointsEarned float64 `json:"points_earned"`
	AnsweredAt   int64   `json:"answered_at"`
}

// SubmittedAnswer is one per-question payload item from the client.
type SubmittedAnswer struct {
	QuestionID string `json:"question_id"`
	Submitted  string `json:"submitted"`
}

// Submission carries everything needed to finalize an attempt. Client-supplied
// TimeSpentSec is advisory; the store clamps it to the server-side window.
type Submission struct {
	AttemptID    string
	StudentID    string
	Answers      []SubmittedAnswer
	TimeSpentSec int64
}

// GradeSummary is the outcome of a submit or regrade.
type GradeSummary struct {
	AttemptID     string   `json:"attempt_id"`
	ExamID        string   `json:"exam_id"`
	StudentID     string   `json:"student_id"`
	Score         float64  `json:"score"`
	TotalMarks    float64  `json:"total_marks"`
	LetterGrade   string   `json:"letter_grade"`
	Status        string   `json:"status"`
	AnsweredCount int      `json:"answered_count"`
	CorrectCount  int      `json:"correct_count"`
	ElapsedSec    int64    `json:"elapsed_sec"`
	Anomalies     []string `json:"anomalies,omitempty"`
}
