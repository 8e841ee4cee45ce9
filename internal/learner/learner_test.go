package learner

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func fixedCoins(coins int) func(int) (int, error) {
	return func(int) (int, error) {
		return coins, nil
	}
}

func TestRecordAttempt_OrdinalPerContent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		outcome, err := store.RecordAttempt(ctx, "l1", "c1", 2, fixedCoins(0))
		if err != nil {
			t.Fatalf("RecordAttempt() error = %v", err)
		}
		if outcome.Attempt.Attempts != i {
			t.Errorf("ordinal = %d, want %d", outcome.Attempt.Attempts, i)
		}
	}

	// A different content id starts its own ordinal sequence.
	outcome, err := store.RecordAttempt(ctx, "l1", "c2", 3, fixedCoins(0))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if outcome.Attempt.Attempts != 1 {
		t.Errorf("ordinal for new content = %d, want 1", outcome.Attempt.Attempts)
	}
}

func TestRecordAttempt_CreditsOnPerfectScoreOnly(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	outcome, err := store.RecordAttempt(ctx, "l1", "c1", 4, fixedCoins(45))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if outcome.Coins != 0 {
		t.Errorf("coins = %d for imperfect score, want 0", outcome.Coins)
	}

	outcome, err = store.RecordAttempt(ctx, "l1", "c1", PerfectScore, fixedCoins(41))
	if err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}
	if outcome.Coins != 41 {
		t.Errorf("coins = %d, want 41", outcome.Coins)
	}
	if !outcome.Attempt.CoinsGiven {
		t.Error("CoinsGiven = false after credit")
	}

	profile, _ := store.Profile(ctx, "l1")
	if profile.Wallet != 41 {
		t.Errorf("wallet = %d, want 41", profile.Wallet)
	}
}

func TestRecordAttempt_RefusesAfterPerfectScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.RecordAttempt(ctx, "l1", "c1", PerfectScore, fixedCoins(45)); err != nil {
		t.Fatalf("RecordAttempt() error = %v", err)
	}

	_, err := store.RecordAttempt(ctx, "l1", "c1", PerfectScore, fixedCoins(45))
	if !errors.Is(err, ErrAlreadySolved) {
		t.Fatalf("error = %v, want ErrAlreadySolved", err)
	}

	profile, _ := store.Profile(ctx, "l1")
	if len(profile.Solved) != 1 {
		t.Errorf("attempts = %d, want 1", len(profile.Solved))
	}
	if profile.Wallet != 45 {
		t.Errorf("wallet = %d, want 45", profile.Wallet)
	}
}

func TestRecordAttempt_RewardErrorMutatesNothing(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.RecordAttempt(ctx, "l1", "c1", PerfectScore, func(int) (int, error) {
		return 0, errors.New("ledger unavailable")
	})
	if err == nil {
		t.Fatal("RecordAttempt() should surface reward errors")
	}

	profile, _ := store.Profile(ctx, "l1")
	if len(profile.Solved) != 0 {
		t.Errorf("attempts = %d, want 0", len(profile.Solved))
	}
	if profile.Wallet != 0 {
		t.Errorf("wallet = %d, want 0", profile.Wallet)
	}
}

func TestHasPerfectScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	solved, err := store.HasPerfectScore(ctx, "l1", "c1")
	if err != nil {
		t.Fatalf("HasPerfectScore() error = %v", err)
	}
	if solved {
		t.Error("HasPerfectScore() = true for fresh learner")
	}

	store.RecordAttempt(ctx, "l1", "c1", 3, fixedCoins(0))
	if solved, _ = store.HasPerfectScore(ctx, "l1", "c1"); solved {
		t.Error("HasPerfectScore() = true after imperfect attempt")
	}

	store.RecordAttempt(ctx, "l1", "c1", PerfectScore, fixedCoins(45))
	if solved, _ = store.HasPerfectScore(ctx, "l1", "c1"); !solved {
		t.Error("HasPerfectScore() = false after perfect attempt")
	}
}

func TestRecordAttempt_ConcurrentWalletCredits(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// Perfect scores across distinct content items must all be credited.
	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contentID := string(rune('a' + i))
			if _, err := store.RecordAttempt(ctx, "l1", contentID, PerfectScore, fixedCoins(45)); err != nil {
				t.Errorf("RecordAttempt(%s) error = %v", contentID, err)
			}
		}(i)
	}
	wg.Wait()

	profile, _ := store.Profile(ctx, "l1")
	if profile.Wallet != workers*45 {
		t.Errorf("wallet = %d, want %d", profile.Wallet, workers*45)
	}
}
