package line

import "encoding/json"

const (
	EventTypeMessage  = "message"
	EventTypePostback = "postback"
	EventTypeFollow   = "follow"

	MessageTypeText = "text"
)

type WebhookPayload struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type            string          `json:"type" binding:"required"`
	Timestamp       int64           `json:"timestamp"`
	ReplyToken      string          `json:"replyToken"`
	WebhookEventID  string          `json:"webhookEventId"`
	Source          Source          `json:"source"`
	Message         *EventMessage   `json:"message,omitempty"`
	Postback        *Postback       `json:"postback,omitempty"`
	DeliveryContext DeliveryContext `json:"deliveryContext"`
}

type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId" binding:"required"`
}

type EventMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text"`
}

type Postback struct {
	Data string `json:"data" binding:"required"`
}

type DeliveryContext struct {
	IsRedelivery bool `json:"isRedelivery"`
}

// Text returns the message text of a text message event.
func (e Event) Text() (string, bool) {
	if e.Type != EventTypeMessage || e.Message == nil || e.Message.Type != MessageTypeText {
		return "", false
	}
	return e.Message.Text, true
}

func ParseWebhook(body []byte) (WebhookPayload, error) {
	var p WebhookPayload
	err := json.Unmarshal(body, &p)
	return p, err
}
