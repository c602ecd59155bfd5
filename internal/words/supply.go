package words

import (
	"context"
	"fmt"

	"github.com/scythe504/wordrace-backend/internal"
	"github.com/scythe504/wordrace-backend/internal/store"
)

const seedBatchSize = 1000

// Supply is the word pool kept in the shared store's words set.
type Supply struct {
	store store.Store
}

func NewSupply(s store.Store) *Supply {
	return &Supply{store: s}
}

// Pick returns a uniformly random word from the pool.
func (s *Supply) Pick(ctx context.Context) (string, error) {
	word, ok, err := s.store.SRandMember(ctx, internal.WordsKey)
	if err != nil {
		return "", internal.StoreError("pick word", err)
	}
	if !ok {
		return "", internal.ErrNoWordsAvailable
	}
	return word, nil
}

func (s *Supply) Size(ctx context.Context) (int64, error) {
	n, err := s.store.SCard(ctx, internal.WordsKey)
	if err != nil {
		return 0, internal.StoreError("count words", err)
	}
	return n, nil
}

// Seed loads src into the pool when the pool is empty and reports how many
// words were added. A populated pool is left untouched.
func (s *Supply) Seed(ctx context.Context, src Source) (int, error) {
	n, err := s.Size(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	words, err := src.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load words: %w", err)
	}

	for start := 0; start < len(words); start += seedBatchSize {
		end := min(start+seedBatchSize, len(words))
		if err := s.store.SAdd(ctx, internal.WordsKey, words[start:end]...); err != nil {
			return start, internal.StoreError("seed words", err)
		}
	}
	return len(words), nil
}
