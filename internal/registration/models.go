package registration

import "errors"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyDecided       = errors.New("registration already decided")
)

type Student struct {
	ID        string `json:"id"`
	RollNo    string `json:"roll_no"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Grade     string `json:"grade"`
	School    string `json:"school,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

type Registration struct {
	ID         string `json:"id"`
	StudentID  string `json:"student_id"`
	Grade      string `json:"grade"`
	Status     string `json:"status"` // pending|approved|rejected
	PaymentRef string `json:"payment_ref,omitempty"`
	DecidedBy  string `json:"decided_by,omitempty"`
	DecidedAt  *int64 `json:"decided_at,omitempty"`
	CreatedAt  int64  `json:"created_at,omitempty"`
}
