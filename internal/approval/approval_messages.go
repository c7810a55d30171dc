package approval

import (
	"fmt"
	"strings"

	"line-leave/internal/leave"
	"line-leave/internal/notification"
)

const displayTimeLayout = "2006-01-02 15:04"

func requestDetails(l leave.LeaveRequest) []string {
	reason := l.Reason
	if reason == "" {
		reason = "-"
	}
	return []string{
		"From: " + l.RequesterName,
		"Type: " + l.LeaveType,
		fmt.Sprintf("Period: %s - %s (%dh)",
			l.StartTime.Format(displayTimeLayout),
			l.EndTime.Format(displayTimeLayout),
			l.Hours,
		),
		"Reason: " + reason,
	}
}

func approvalCard(l leave.LeaveRequest, stage leave.Stage) notification.Message {
	header := fmt.Sprintf("Leave request %s needs your approval.", l.RequestNo)
	if stage == leave.StageHR {
		header = fmt.Sprintf("Leave request %s was approved by the supervisor and needs HR approval.", l.RequestNo)
	}
	lines := append([]string{header}, requestDetails(l)...)
	id := l.ID.String()
	return notification.Text(strings.Join(lines, "\n")).
		WithPostback("Approve", EncodePostback(leave.DecisionApproved, id, stage)).
		WithPostback("Reject", EncodePostback(leave.DecisionRejected, id, stage))
}

func rejectedMessage(l leave.LeaveRequest, stage leave.Stage) notification.Message {
	by := "your supervisor"
	if stage == leave.StageHR {
		by = "HR"
	}
	return notification.Text(fmt.Sprintf("Your leave request %s was rejected by %s.", l.RequestNo, by))
}

func approvedMessage(l leave.LeaveRequest) notification.Message {
	return notification.Text(fmt.Sprintf("Your leave request %s is fully approved.", l.RequestNo))
}

// ActorReply is the acknowledgement sent back to the approver.
func ActorReply(o Outcome) notification.Message {
	l := o.Request
	switch l.Status() {
	case leave.StatusAwaitingHR:
		return notification.Text(fmt.Sprintf("%s approved. HR has been notified.", l.RequestNo))
	case leave.StatusApproved:
		return notification.Text(fmt.Sprintf("%s approved. The requester has been notified.", l.RequestNo))
	default:
		return notification.Text(fmt.Sprintf("%s rejected. The requester has been notified.", l.RequestNo))
	}
}

func AlreadyProcessedReply() notification.Message {
	return notification.Text("This request has already been processed.")
}

func NotFoundReply() notification.Message {
	return notification.Text("Cannot find this request.")
}

func UnauthorizedReply() notification.Message {
	return notification.Text("You are not allowed to decide this request.")
}
