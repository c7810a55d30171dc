package webhook

import "line-leave/internal/notification"

func welcomeMessage() notification.Message {
	return notification.Text("Hi! Send \"leave\" to start a leave request, or \"status\" to see your recent requests.")
}

func unavailableMessage() notification.Message {
	return notification.Text("The service is temporarily unavailable. Please try again later.")
}

func unknownActionMessage() notification.Message {
	return notification.Text("This button is no longer valid.")
}
