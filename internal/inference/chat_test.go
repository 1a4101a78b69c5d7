package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AhmedHarera/HeartFailure/internal/apperr"
	"go.uber.org/zap"
)

func TestChatSendsMessageAndHistory(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chatbot/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = io.WriteString(w, `{"response":"Aim for 150 minutes a week."}`)
	}))
	defer srv.Close()

	history := make([]ChatMessage, 0, maxChatHistory+5)
	for i := 0; i < maxChatHistory+5; i++ {
		history = append(history, ChatMessage{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	reply, err := NewChatClient(testConfig(srv.URL), zap.NewNop()).Chat(context.Background(), "  how much exercise?  ", history)
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	if reply != "Aim for 150 minutes a week." {
		t.Fatalf("reply = %q", reply)
	}
	if got.Message != "how much exercise?" {
		t.Fatalf("message = %q", got.Message)
	}
	if len(got.History) != maxChatHistory || got.History[0].Content != "turn 5" {
		t.Fatalf("history not trimmed to the latest turns: %d, first %+v", len(got.History), got.History[0])
	}
}

func TestChatBlankMessageSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { calls++ }))
	defer srv.Close()

	_, err := NewChatClient(testConfig(srv.URL), zap.NewNop()).Chat(context.Background(), "   ", nil)
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("Chat() error = %v, want invalid input", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request, got %d", calls)
	}
}

func TestChatClassifiesFailures(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		body    string
		kind    error
		message string
	}{
		{name: "empty message refusal", status: http.StatusBadRequest, body: `{"error":"Empty message"}`, kind: apperr.ErrServiceRejected, message: "Empty message"},
		{name: "success false", status: http.StatusOK, body: `{"success":false,"response":"model not loaded"}`, kind: apperr.ErrServiceRejected, message: "model not loaded"},
		{name: "success false without text", status: http.StatusOK, body: `{"success":false}`, kind: apperr.ErrServiceRejected, message: "the assistant could not answer"},
		{name: "missing response", status: http.StatusOK, body: `{"success":true}`, kind: apperr.ErrDecodeFailed},
		{name: "not json", status: http.StatusOK, body: `<html>`, kind: apperr.ErrDecodeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := NewChatClient(testConfig(srv.URL), zap.NewNop()).Chat(context.Background(), "heart", nil)
			if !errors.Is(err, tc.kind) {
				t.Fatalf("Chat() error = %v, want %v", err, tc.kind)
			}
			if tc.message != "" && apperr.Message(err) != tc.message {
				t.Fatalf("message = %q, want %q", apperr.Message(err), tc.message)
			}
		})
	}
}

func TestChatHealth(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chatbot/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"status":"Healthy"}`)
	}))
	defer up.Close()
	if err := NewChatClient(testConfig(up.URL), zap.NewNop()).Health(context.Background()); err != nil {
		t.Fatalf("Health() error = %v", err)
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	if err := NewChatClient(testConfig(url), zap.NewNop()).Health(context.Background()); !errors.Is(err, apperr.ErrNetworkUnreachable) {
		t.Fatalf("Health() error = %v, want unreachable", err)
	}
}
