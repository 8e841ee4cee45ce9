package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ChatGatewayProvider implements Provider against a chat-gateway service.
// The gateway exposes a single endpoint taking {"messages": [...]} and
// returning {"response": "..."}. No streaming, no multi-turn state.
type ChatGatewayProvider struct {
	endpoint string
	client   *http.Client
}

// ChatGatewayOption configures a ChatGatewayProvider.
type ChatGatewayOption func(*ChatGatewayProvider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ChatGatewayOption {
	return func(p *ChatGatewayProvider) {
		p.client = client
	}
}

// NewChatGatewayProvider creates a provider that speaks the chat-gateway contract.
func NewChatGatewayProvider(endpoint string, opts ...ChatGatewayOption) *ChatGatewayProvider {
	p := &ChatGatewayProvider{
		endpoint: endpoint,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// gatewayRequest is the request body for the chat gateway.
type gatewayRequest struct {
	Messages []Message `json:"messages"`
}

// gatewayResponse is the response from the chat gateway.
type gatewayResponse struct {
	Response string `json:"response"`
}

func (p *ChatGatewayProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	body, err := json.Marshal(gatewayRequest{Messages: req.Messages})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return CompletionResponse{}, fmt.Errorf("chat gateway error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var gwResp gatewayResponse
	if err := json.Unmarshal(respBody, &gwResp); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if gwResp.Response == "" {
		return CompletionResponse{}, fmt.Errorf("empty response from chat gateway")
	}

	return CompletionResponse{
		Content: gwResp.Response,
		Model:   "chat-gateway",
	}, nil
}

func (p *ChatGatewayProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	// The gateway answers GET with 405; reaching it at all is enough.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
