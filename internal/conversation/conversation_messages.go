package conversation

import (
	"fmt"
	"strings"

	"line-leave/internal/leave"
	"line-leave/internal/notification"
)

const displayTimeLayout = "2006-01-02 15:04"

const (
	replyYes = "yes"
	replyNo  = "no"
)

func formatPrompt() notification.Message {
	return notification.Text(strings.Join([]string{
		"Send your leave request in one line:",
		"leave <date> <type> <reason>",
		"or",
		"leave <start date> <HH:MM> <end date> <HH:MM> <type> <reason>",
		"Dates are YYYY-MM-DD. Send cancel to stop.",
	}, "\n"))
}

func namePrompt() notification.Message {
	return notification.Text("Welcome! Please reply with your full name to register.")
}

func helpMessage(trigger string) notification.Message {
	return notification.Text(fmt.Sprintf("Send %q to request leave, or \"status\" to see your latest requests.", trigger))
}

func registeredMessage(name string) notification.Message {
	return notification.Text(fmt.Sprintf("Thanks %s, you are registered.", name))
}

func parseErrorMessage() notification.Message {
	return notification.Text("Sorry, I could not read that request.")
}

func rangeErrorMessage() notification.Message {
	return notification.Text("The start must be before the end. Please send the request again.")
}

func noHoursMessage() notification.Message {
	return notification.Text("That period has no working hours (Mon-Fri 08:00-12:00, 13:00-17:00). Please send the request again.")
}

func summaryMessage(p PartialRequest) notification.Message {
	reason := p.Reason
	if reason == "" {
		reason = "-"
	}
	return notification.Text(strings.Join([]string{
		"Please confirm your leave request:",
		"Name: " + p.RequesterName,
		"Type: " + p.LeaveType,
		"From: " + p.StartTime.Format(displayTimeLayout),
		"To: " + p.EndTime.Format(displayTimeLayout),
		fmt.Sprintf("Hours: %d", p.Hours),
		"Reason: " + reason,
		"Reply yes to submit or no to discard.",
	}, "\n")).WithReplies(replyYes, replyNo)
}

func confirmPrompt() notification.Message {
	return notification.Text("Please reply yes or no.").WithReplies(replyYes, replyNo)
}

func submittedMessage(l leave.LeaveRequest, report notification.Report) notification.Message {
	text := fmt.Sprintf("Request %s submitted (%d hours). Your supervisor has been notified.", l.RequestNo, l.Hours)
	switch {
	case report.Attempted == 0:
		text = fmt.Sprintf("Request %s submitted (%d hours). No supervisor is registered yet, so nobody was notified.", l.RequestNo, l.Hours)
	case !report.OK():
		text += " Some approvers could not be reached."
	}
	return notification.Text(text)
}

func submitFailedMessage() notification.Message {
	return notification.Text("Your request could not be saved. Reply yes to try again or no to discard.").
		WithReplies(replyYes, replyNo)
}

func discardedMessage() notification.Message {
	return notification.Text("Request discarded.")
}

func cancelledMessage() notification.Message {
	return notification.Text("Cancelled.")
}

func forbiddenMessage() notification.Message {
	return notification.Text("You are not allowed to do that.")
}

func statusMessage(requests []leave.LeaveRequest) notification.Message {
	if len(requests) == 0 {
		return notification.Text("You have no leave requests yet.")
	}
	lines := []string{"Your latest requests:"}
	for _, r := range requests {
		lines = append(lines, fmt.Sprintf("%s %s %s-%s %s: %s",
			r.RequestNo,
			r.LeaveType,
			r.StartTime.Format(displayTimeLayout),
			r.EndTime.Format(displayTimeLayout),
			fmt.Sprintf("%dh", r.Hours),
			statusLabel(r),
		))
	}
	return notification.Text(strings.Join(lines, "\n"))
}

func statusLabel(r leave.LeaveRequest) string {
	switch r.Status() {
	case leave.StatusAwaitingSupervisor:
		return "waiting for supervisor"
	case leave.StatusAwaitingHR:
		return "waiting for HR"
	case leave.StatusApproved:
		return "approved"
	default:
		return "rejected"
	}
}
