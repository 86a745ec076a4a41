package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps balances in a wallets table keyed by client id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres builds the pool from the POSTGRES_*/PG_* env vars and
// verifies connectivity before returning.
func ConnectPostgres(ctx context.Context) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	log.Printf("Connected to wallet database at %s:%s", os.Getenv("PG_HOST"), os.Getenv("PG_PORT"))
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// ApplyDelta upserts the client's row and adjusts the balance atomically.
func (s *PostgresStore) ApplyDelta(ctx context.Context, clientID uuid.UUID, delta int64) error {
	q := `
	INSERT INTO wallets (client_id, balance, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (client_id)
	DO UPDATE SET balance = wallets.balance + $2, updated_at = now()
	`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q, clientID, delta)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("failed to apply wallet delta: %w", err)
	}
	return nil
}

// Balance returns the client's current balance; an absent row reads as zero.
func (s *PostgresStore) Balance(ctx context.Context, clientID uuid.UUID) (int64, error) {
	var balance int64
	q := `SELECT balance FROM wallets WHERE client_id=$1`
	err := s.pool.QueryRow(ctx, q, clientID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
