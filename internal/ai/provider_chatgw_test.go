package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatGatewayProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}

		var req gatewayRequest
		json.NewDecoder(r.Body).Decode(&req)

		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.Messages[0].Role != "user" {
			t.Errorf("role = %q, want %q", req.Messages[0].Role, "user")
		}

		json.NewEncoder(w).Encode(gatewayResponse{Response: "true"})
	}))
	defer server.Close()

	provider := NewChatGatewayProvider(server.URL)

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "true" {
		t.Errorf("content = %q, want %q", resp.Content, "true")
	}
}

func TestChatGatewayProvider_Complete_GatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error": "upstream model unavailable"}`))
	}))
	defer server.Close()

	provider := NewChatGatewayProvider(server.URL)

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error on gateway error")
	}
}

func TestChatGatewayProvider_Complete_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(gatewayResponse{Response: ""})
	}))
	defer server.Close()

	provider := NewChatGatewayProvider(server.URL)

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error on empty response")
	}
}

func TestChatGatewayProvider_Complete_Unreachable(t *testing.T) {
	provider := NewChatGatewayProvider("http://localhost:59999/api/v1/chat")

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error when gateway is unreachable")
	}
}
