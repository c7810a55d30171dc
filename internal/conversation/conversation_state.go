package conversation

import "time"

type Step string

const (
	StepIdle                 Step = "idle"
	StepAwaitingName         Step = "awaiting_name"
	StepAwaitingFields       Step = "awaiting_fields"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
)

// PartialRequest holds validated fields waiting for the user's yes/no.
type PartialRequest struct {
	RequesterName string    `json:"requester_name"`
	LeaveType     string    `json:"leave_type"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Hours         int       `json:"hours"`
	Reason        string    `json:"reason"`
}

type State struct {
	UserID    string          `json:"user_id"`
	Step      Step            `json:"step"`
	Partial   *PartialRequest `json:"partial,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s State) clone() State {
	if s.Partial != nil {
		p := *s.Partial
		s.Partial = &p
	}
	return s
}
