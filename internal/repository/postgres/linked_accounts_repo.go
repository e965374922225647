package postgres

import (
	"context"
	"errors"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type linkedAccountsRepo struct{ pool *pgxpool.Pool }

func (r *linkedAccountsRepo) Create(ctx context.Context, a models.LinkedAccount) (models.LinkedAccount, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO linked_accounts (id, user_id, kind, provider, account_number, account_name)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at`,
		a.ID, a.UserID, a.Kind, a.Provider, a.AccountNumber, a.AccountName,
	).Scan(&a.CreatedAt)
	return a, err
}

func (r *linkedAccountsRepo) GetByID(ctx context.Context, id string) (models.LinkedAccount, error) {
	var a models.LinkedAccount
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, kind, provider, account_number, account_name, created_at
		   FROM linked_accounts WHERE id=$1`, id,
	).Scan(&a.ID, &a.UserID, &a.Kind, &a.Provider, &a.AccountNumber, &a.AccountName, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.LinkedAccount{}, repo.ErrNotFound
	}
	return a, err
}

func (r *linkedAccountsRepo) ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, kind, provider, account_number, account_name, created_at
		   FROM linked_accounts WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.LinkedAccount
	for rows.Next() {
		var a models.LinkedAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Kind, &a.Provider, &a.AccountNumber, &a.AccountName, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
