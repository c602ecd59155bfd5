package words

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/scythe504/wordrace-backend/internal/utils"
)

// PostgresSource reads the pool from the words table.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Load(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT word FROM words`)
	if err != nil {
		return nil, fmt.Errorf("query words: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate words: %w", err)
	}
	return utils.NormalizeWords(words), nil
}

// Insert adds words to the table, skipping ones already present.
func (s *PostgresSource) Insert(ctx context.Context, words []string) (int64, error) {
	var inserted int64
	for _, w := range utils.NormalizeWords(words) {
		tag, err := s.pool.Exec(ctx, `INSERT INTO words (word) VALUES ($1) ON CONFLICT (word) DO NOTHING`, w)
		if err != nil {
			return inserted, fmt.Errorf("insert word %q: %w", w, err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
