package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveSubmitted          = "leave.submitted"
	LeaveSupervisorApproved = "leave.supervisor_approved"
	LeaveApproved           = "leave.approved"
	LeaveRejected           = "leave.rejected"
)

// LeaveLifecycleEvent is published once per store write of a leave request.
type LeaveLifecycleEvent struct {
	EventID            string    `json:"event_id"`
	EventType          string    `json:"event_type"`
	RequestID          string    `json:"request_id,omitempty"`
	LeaveID            string    `json:"leave_id"`
	RequestNo          string    `json:"request_no"`
	UserID             string    `json:"user_id"`
	RequesterName      string    `json:"requester_name"`
	Stage              string    `json:"stage,omitempty"`
	SupervisorDecision string    `json:"supervisor_decision"`
	HRDecision         string    `json:"hr_decision"`
	Hours              int       `json:"hours"`
	OccurredAt         time.Time `json:"occurred_at"`
}
