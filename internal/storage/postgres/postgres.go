package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStorage — Postgres реализация MealPlansStorage
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// New создаёт PostgresStorage и проверяет соединение
func New(ctx context.Context, databaseURL string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStorage{pool: pool}, nil
}

// Close закрывает пул соединений
func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}
