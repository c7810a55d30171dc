package notification

// Action is a button attached to a message. A non-empty Data makes it a
// postback; otherwise tapping it sends Text back as a chat message.
type Action struct {
	Label string `json:"label"`
	Text  string `json:"text,omitempty"`
	Data  string `json:"data,omitempty"`
}

func (a Action) IsPostback() bool {
	return a.Data != ""
}

type Message struct {
	Text    string   `json:"text"`
	Actions []Action `json:"actions,omitempty"`
}

func Text(text string) Message {
	return Message{Text: text}
}

// WithReplies attaches quick-reply buttons that echo their label.
func (m Message) WithReplies(labels ...string) Message {
	for _, l := range labels {
		m.Actions = append(m.Actions, Action{Label: l, Text: l})
	}
	return m
}

func (m Message) WithPostback(label, data string) Message {
	m.Actions = append(m.Actions, Action{Label: label, Data: data})
	return m
}
