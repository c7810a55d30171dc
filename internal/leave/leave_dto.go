package leave

import "time"

type SubmitRequest struct {
	UserID        string
	RequesterName string
	LeaveType     string
	StartTime     time.Time
	EndTime       time.Time
	Reason        string
}
