package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/edumint/edumint/internal/ai"
	"github.com/edumint/edumint/internal/content"
	"github.com/edumint/edumint/internal/principal"
)

// ErrMalformedQuiz marks generation output that failed to parse or validate.
// Nothing is persisted; the caller may retry.
var ErrMalformedQuiz = errors.New("malformed quiz")

// ErrNoSummary is returned when the content item has no approved summary
// to generate from.
var ErrNoSummary = errors.New("content has no summary")

const defaultGenerateTimeout = 60 * time.Second

const generationPromptTemplate = `You are an expert quiz creator. Based on the following text, generate a quiz with 5 multiple-choice questions.
the quiz must be structured as a JSON object with the following format:
- An "answers" array containing the correct answer letter (e.g., ["b", "d", "a", ...]).

- A "questions" array containing objects for each question.
Each question must have:
- A "question" string.
- An "options" array with exactly 4 choices labeled a), b), c), d).

Return the result as raw JSON only - no markdown, no explanation, no formatting, no code block.

Here is the input text:
"""%s"""`

// Completer is the completion capability the generator depends on.
type Completer interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// Generator derives quizzes from published content summaries.
type Generator struct {
	completer Completer
	contents  content.Store
	quizzes   Store
	cache     *Cache
	timeout   time.Duration

	// allowRegenerate permits generating a fresh quiz for content that
	// already has one. When false, the latest existing quiz is returned.
	allowRegenerate bool
}

// GeneratorConfig holds dependencies for the generator.
type GeneratorConfig struct {
	Completer       Completer
	Contents        content.Store
	Quizzes         Store
	Cache           *Cache // optional
	Timeout         time.Duration
	AllowRegenerate bool
}

// NewGenerator creates a quiz generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultGenerateTimeout
	}
	return &Generator{
		completer:       cfg.Completer,
		contents:        cfg.Contents,
		quizzes:         cfg.Quizzes,
		cache:           cfg.Cache,
		timeout:         timeout,
		allowRegenerate: cfg.AllowRegenerate,
	}
}

// Generate derives a five-question quiz from the content item's approved
// summary, persists it, and appends its id to the content's quiz list.
//
// The completion output is stripped of markdown fences and validated against
// a strict schema; any shape failure surfaces as ErrMalformedQuiz with
// nothing persisted.
func (g *Generator) Generate(ctx context.Context, caller principal.Principal, contentID string) (*Quiz, error) {
	item, err := g.contents.Get(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if item.Summary == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSummary, contentID)
	}

	if !g.allowRegenerate && len(item.Quizzes) > 0 {
		latest := item.Quizzes[len(item.Quizzes)-1]
		existing, err := g.quizzes.Get(ctx, latest)
		if err != nil {
			return nil, fmt.Errorf("load existing quiz: %w", err)
		}
		return existing, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.completer.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: fmt.Sprintf(generationPromptTemplate, item.Summary)},
		},
		Task: ai.TaskQuizGen,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: completion failed: %v", ErrMalformedQuiz, err)
	}

	payload, err := parseGeneration(resp.Content)
	if err != nil {
		slog.Warn("quiz generation output rejected",
			"content_id", contentID,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrMalformedQuiz, err)
	}

	q := Quiz{
		ContentID: item.ID,
		Title:     fmt.Sprintf("Quiz for %s - %s", item.TopicName, item.SubjectName),
		Questions: payload.Questions,
		Answers:   payload.Answers,
		CreatedBy: caller.UserID,
	}

	id, err := g.quizzes.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("persist quiz: %w", err)
	}
	q.ID = id

	if err := g.contents.AppendQuiz(ctx, item.ID, id); err != nil {
		return nil, fmt.Errorf("append quiz to content: %w", err)
	}

	if g.cache != nil {
		g.cache.InvalidateContent(ctx, item.ID)
	}

	slog.Info("quiz generated", "quiz_id", id, "content_id", item.ID)
	return &q, nil
}
