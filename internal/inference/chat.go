package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"github.com/AhmedHarera/HeartFailure/internal/config"
	"go.uber.org/zap"
)

// maxChatHistory is how many earlier turns are forwarded with a message.
const maxChatHistory = 20

// ChatMessage is one turn of a conversation with the assistant.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Message string        `json:"message"`
	History []ChatMessage `json:"history"`
}

type chatResponse struct {
	Response *string `json:"response"`
	Success  *bool   `json:"success"`
	Error    *string `json:"error"`
}

// ChatClient calls the heart-health assistant.
type ChatClient struct {
	client
}

// NewChatClient creates a client for the assistant at cfg.ChatURL.
func NewChatClient(cfg config.InferenceConfig, log *zap.Logger) *ChatClient {
	return &ChatClient{client: newClient("chat", cfg.ChatURL, cfg, log)}
}

// Chat sends message with the most recent history and returns the reply.
// A blank message is rejected without a network call.
func (c *ChatClient) Chat(ctx context.Context, message string, history []ChatMessage) (reply string, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", apperr.New(apperr.ErrInvalidInput, "message is empty")
	}
	if len(history) > maxChatHistory {
		history = history[len(history)-maxChatHistory:]
	}
	if history == nil {
		history = []ChatMessage{}
	}

	start := time.Now()
	defer func() { c.observe(err, start) }()

	status, body, err := c.postJSON(ctx, "/chatbot/chat", chatRequest{Message: message, History: history})
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", rejection(status, body)
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apperr.DecodeFailed(c.service, err)
	}
	if resp.Error != nil {
		return "", apperr.Rejected(status, *resp.Error)
	}
	if resp.Success != nil && !*resp.Success {
		msg := "the assistant could not answer"
		if resp.Response != nil && *resp.Response != "" {
			msg = *resp.Response
		}
		return "", apperr.Rejected(status, msg)
	}
	if resp.Response == nil {
		return "", apperr.DecodeFailed(c.service, errors.New("missing response"))
	}
	return *resp.Response, nil
}

// Health checks GET /chatbot/health. Any 2xx answer means the assistant is up.
func (c *ChatClient) Health(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.observe(err, start) }()

	req, err := c.newRequest(ctx, http.MethodGet, "/chatbot/health", nil, "")
	if err != nil {
		return err
	}
	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return rejection(status, body)
	}
	return nil
}
