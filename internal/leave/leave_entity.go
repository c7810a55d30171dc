package leave

import (
	"time"

	"github.com/google/uuid"
)

// Decision is the outcome recorded for one approval stage.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Final reports whether d is a decision an approver can record.
func (d Decision) Final() bool {
	return d == DecisionApproved || d == DecisionRejected
}

type Stage string

const (
	StageSupervisor Stage = "supervisor"
	StageHR         Stage = "hr"
)

func (s Stage) Valid() bool {
	return s == StageSupervisor || s == StageHR
}

// Overall request status derived from the two stage decisions.
const (
	StatusAwaitingSupervisor = "AWAITING_SUPERVISOR"
	StatusAwaitingHR         = "AWAITING_HR"
	StatusApproved           = "APPROVED"
	StatusRejected           = "REJECTED"
)

// LeaveRequest field order follows the leave_requests column order, which
// downstream readers of the table depend on.
type LeaveRequest struct {
	SubmittedAt        time.Time `gorm:"column:submitted_at;type:timestamptz;not null"`
	RequesterName      string    `gorm:"column:requester_name;type:varchar(255);not null"`
	UserID             string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_leave_requests_user"`
	LeaveType          string    `gorm:"column:leave_type;type:varchar(50);not null"`
	StartTime          time.Time `gorm:"column:start_time;type:timestamptz;not null"`
	EndTime            time.Time `gorm:"column:end_time;type:timestamptz;not null"`
	Hours              int       `gorm:"column:hours;type:int;not null"`
	Reason             string    `gorm:"column:reason;type:text"`
	SupervisorDecision Decision  `gorm:"column:supervisor_decision;type:varchar(20);not null;default:'PENDING'"`
	HRDecision         Decision  `gorm:"column:hr_decision;type:varchar(20);not null;default:'PENDING'"`

	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RequestNo   string    `gorm:"column:request_no;type:varchar(20);not null;uniqueIndex"`
	ApprovalLog string    `gorm:"column:approval_log;type:text;not null;default:''"`
	UpdatedAt   time.Time `gorm:"column:updated_at;type:timestamptz"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l LeaveRequest) Status() string {
	switch {
	case l.SupervisorDecision == DecisionRejected || l.HRDecision == DecisionRejected:
		return StatusRejected
	case l.SupervisorDecision == DecisionPending:
		return StatusAwaitingSupervisor
	case l.HRDecision == DecisionPending:
		return StatusAwaitingHR
	default:
		return StatusApproved
	}
}

// Decision returns the decision recorded for stage.
func (l LeaveRequest) Decision(stage Stage) Decision {
	if stage == StageHR {
		return l.HRDecision
	}
	return l.SupervisorDecision
}

// PendingStage returns the stage currently waiting for a decision, or ""
// when the request is terminal.
func (l LeaveRequest) PendingStage() Stage {
	switch l.Status() {
	case StatusAwaitingSupervisor:
		return StageSupervisor
	case StatusAwaitingHR:
		return StageHR
	}
	return ""
}
