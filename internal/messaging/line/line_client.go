package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"line-leave/internal/notification"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.line.me"

	replyPath = "/v2/bot/message/reply"
	pushPath  = "/v2/bot/message/push"

	// The Messaging API accepts at most five messages per call.
	maxMessagesPerCall = 5
	maxActionLabel     = 20
)

// APIError is a non-2xx answer from the Messaging API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, accessToken string, httpClient *http.Client, logger ...*zap.Logger) *Client {
	l := zap.L().Named("line.client")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("line.client")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   accessToken,
		http:    httpClient,
		logger:  l,
	}
}

// Reply answers the event that carried replyToken. A reply token is
// single-use, so messages beyond the per-call limit are dropped.
func (c *Client) Reply(ctx context.Context, replyToken string, msgs ...notification.Message) error {
	if replyToken == "" || len(msgs) == 0 {
		return nil
	}
	if len(msgs) > maxMessagesPerCall {
		c.logger.Warn("reply truncated", zap.Int("messages", len(msgs)))
		msgs = msgs[:maxMessagesPerCall]
	}
	return c.post(ctx, replyPath, replyRequest{
		ReplyToken: replyToken,
		Messages:   toWire(msgs),
	})
}

// Push sends msgs to a user, batching them by the per-call limit.
func (c *Client) Push(ctx context.Context, to string, msgs ...notification.Message) error {
	for start := 0; start < len(msgs); start += maxMessagesPerCall {
		end := min(start+maxMessagesPerCall, len(msgs))
		if err := c.post(ctx, pushPath, pushRequest{
			To:       to,
			Messages: toWire(msgs[start:end]),
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line api %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	c.logger.Warn("line api call failed",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("body", apiErr.Body),
	)
	return apiErr
}

type replyRequest struct {
	ReplyToken string        `json:"replyToken"`
	Messages   []wireMessage `json:"messages"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []wireMessage `json:"messages"`
}

type wireMessage struct {
	Type       string          `json:"type"`
	Text       string          `json:"text"`
	QuickReply *wireQuickReply `json:"quickReply,omitempty"`
}

type wireQuickReply struct {
	Items []wireQuickReplyItem `json:"items"`
}

type wireQuickReplyItem struct {
	Type   string     `json:"type"`
	Action wireAction `json:"action"`
}

type wireAction struct {
	Type        string `json:"type"`
	Label       string `json:"label"`
	Text        string `json:"text,omitempty"`
	Data        string `json:"data,omitempty"`
	DisplayText string `json:"displayText,omitempty"`
}

// toWire renders every action as a quick-reply button.
func toWire(msgs []notification.Message) []wireMessage {
	out := make([]wireMessage, 0, len(msgs))
	for _, m := range msgs {
		wm := wireMessage{Type: "text", Text: m.Text}
		if len(m.Actions) > 0 {
			qr := &wireQuickReply{}
			for _, a := range m.Actions {
				label := truncate(a.Label, maxActionLabel)
				action := wireAction{Type: "message", Label: label, Text: a.Text}
				if a.IsPostback() {
					action = wireAction{Type: "postback", Label: label, Data: a.Data, DisplayText: a.Label}
				}
				qr.Items = append(qr.Items, wireQuickReplyItem{Type: "action", Action: action})
			}
			wm.QuickReply = qr
		}
		out = append(out, wm)
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
