// Package moderation screens extracted text through the completion capability.
//
// The gate fails closed: any transport or parse failure counts as a rejection,
// never as approval. An unreachable moderation backend must block publication.
package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/edumint/edumint/internal/ai"
)

const defaultTimeout = 30 * time.Second

// failClosedReason is returned whenever the verdict could not be obtained.
const failClosedReason = "moderation error"

const promptTemplate = `You are a strict content filter. Review the following text carefully for any explicit, sexual, violent, abusive, or inappropriate language.

If the content is completely clean and appropriate, respond with exactly: true

If the content is inappropriate, respond with a very short reason like: "offensive language" or "contains sexual content". No extra explanation.

Text:
"""%s"""`

// Verdict is the outcome of a moderation check.
type Verdict struct {
	Clean  bool
	Reason string // empty when Clean
}

// Completer is the completion capability the gate depends on.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Gate runs text through the completion capability with a fixed filter prompt.
type Gate struct {
	completer Completer
	timeout   time.Duration
}

// Option configures a Gate.
type Option func(*Gate)

// WithTimeout bounds each moderation call.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) {
		g.timeout = d
	}
}

// NewGate creates a moderation gate backed by the given completer.
func NewGate(completer Completer, opts ...Option) *Gate {
	g := &Gate{
		completer: completer,
		timeout:   defaultTimeout,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check moderates text. The reply is trimmed and lower-cased; only the exact
// string "true" approves. Everything else, including transport failure, rejects.
func (g *Gate) Check(ctx context.Context, text string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: fmt.Sprintf(promptTemplate, text)},
		},
		Task: ai.TaskModeration,
	})
	if err != nil {
		slog.Error("moderation check failed, rejecting", "error", err)
		return Verdict{Clean: false, Reason: failClosedReason}
	}

	reply := strings.ToLower(strings.TrimSpace(resp.Content))
	if reply == "true" {
		return Verdict{Clean: true}
	}
	return Verdict{Clean: false, Reason: reply}
}
