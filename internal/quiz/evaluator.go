package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/edumint/edumint/internal/learner"
)

// ErrInvalidSubmission is returned when the submitted answers do not line up
// with the quiz. No attempt is consumed.
var ErrInvalidSubmission = errors.New("submitted answers are invalid or incomplete")

// Result is the outcome of scoring one submission.
type Result struct {
	QuizID          string `json:"quizId"`
	TotalQuestions  int    `json:"totalQuestions"`
	CorrectAnswers  int    `json:"correctAnswers"`
	ScorePercentage int    `json:"scorePercentage"`
	CoinsEarned     int    `json:"coinsEarned"`
	AttemptNumber   int    `json:"attemptNumber"`
}

// Evaluator scores submissions against stored quizzes and drives the
// attempt/reward state machine in the learner store.
type Evaluator struct {
	quizzes  Store
	learners learner.Store
}

// NewEvaluator creates a quiz evaluator.
func NewEvaluator(quizzes Store, learners learner.Store) *Evaluator {
	return &Evaluator{quizzes: quizzes, learners: learners}
}

// Evaluate scores the learner's submitted answers (zero-based option indices)
// against the stored quiz, records the attempt, and credits the decaying coin
// reward on a perfect score.
//
// A content item solved with a perfect score refuses further submissions with
// learner.ErrAlreadySolved; an invalid submission consumes no attempt.
func (e *Evaluator) Evaluate(ctx context.Context, learnerID, quizID string, submitted []int) (Result, error) {
	q, err := e.quizzes.Get(ctx, quizID)
	if err != nil {
		return Result{}, err
	}

	// Early solved check so an already-solved pair is rejected before
	// submission validation. RecordAttempt re-checks under its lock, which
	// is what actually prevents a double reward.
	solved, err := e.learners.HasPerfectScore(ctx, learnerID, q.ContentID)
	if err != nil {
		return Result{}, fmt.Errorf("check solved state: %w", err)
	}
	if solved {
		return Result{}, fmt.Errorf("%w: content %s", learner.ErrAlreadySolved, q.ContentID)
	}

	if len(submitted) != len(q.Answers) {
		return Result{}, fmt.Errorf("%w: got %d answers, want %d",
			ErrInvalidSubmission, len(submitted), len(q.Answers))
	}

	score := 0
	for i, index := range submitted {
		if LetterForIndex(index) == strings.ToLower(q.Answers[i]) {
			score++
		}
	}

	outcome, err := e.learners.RecordAttempt(ctx, learnerID, q.ContentID, score, Reward)
	if err != nil {
		return Result{}, err
	}

	total := len(q.Answers)
	result := Result{
		QuizID:          q.ID,
		TotalQuestions:  total,
		CorrectAnswers:  score,
		ScorePercentage: int(math.Round(100 * float64(score) / float64(total))),
		CoinsEarned:     outcome.Coins,
		AttemptNumber:   outcome.Attempt.Attempts,
	}

	slog.Info("quiz evaluated",
		"quiz_id", q.ID,
		"learner_id", learnerID,
		"score", score,
		"attempt", result.AttemptNumber,
		"coins", result.CoinsEarned,
	)
	return result, nil
}
