package approval

import (
	"net/url"
	"strings"

	approvalerrors "line-leave/internal/approval/errors"
	"line-leave/internal/leave"
)

const (
	actionApprove = "approve"
	actionReject  = "reject"
)

// Postback is a decoded approve/reject button press.
type Postback struct {
	Decision  leave.Decision
	RequestID string
	Stage     leave.Stage
}

// EncodePostback renders the button data carried by approval cards.
func EncodePostback(decision leave.Decision, requestID string, stage leave.Stage) string {
	action := actionApprove
	if decision == leave.DecisionRejected {
		action = actionReject
	}
	data := "action=" + action + "&id=" + url.QueryEscape(requestID)
	if stage != "" {
		data += "&stage=" + string(stage)
	}
	return data
}

// ParsePostback accepts "action=approve&id=<id>[&stage=<stage>]" and the
// older single pair forms "approve:<id>" and "reject=<id>".
func ParsePostback(data string) (Postback, error) {
	data = strings.TrimSpace(data)

	if action, id, ok := splitLegacy(data); ok {
		return newPostback(action, id, "")
	}

	values, err := url.ParseQuery(data)
	if err != nil {
		return Postback{}, approvalerrors.ErrInvalidPostback
	}
	if action := values.Get("action"); action != "" {
		return newPostback(action, values.Get("id"), values.Get("stage"))
	}
	for _, action := range []string{actionApprove, actionReject} {
		if id := values.Get(action); id != "" && len(values) == 1 {
			return newPostback(action, id, "")
		}
	}
	return Postback{}, approvalerrors.ErrInvalidPostback
}

func splitLegacy(data string) (string, string, bool) {
	action, id, found := strings.Cut(data, ":")
	if !found || strings.ContainsAny(data, "&=") {
		return "", "", false
	}
	return action, id, true
}

func newPostback(action, id, stage string) (Postback, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Postback{}, approvalerrors.ErrInvalidPostback
	}

	var decision leave.Decision
	switch strings.ToLower(strings.TrimSpace(action)) {
	case actionApprove:
		decision = leave.DecisionApproved
	case actionReject:
		decision = leave.DecisionRejected
	default:
		return Postback{}, approvalerrors.ErrInvalidPostback
	}

	s := leave.Stage(strings.ToLower(strings.TrimSpace(stage)))
	if s != "" && !s.Valid() {
		return Postback{}, approvalerrors.ErrInvalidPostback
	}
	return Postback{Decision: decision, RequestID: id, Stage: s}, nil
}
