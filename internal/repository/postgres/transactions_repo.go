package postgres

import (
	"context"
	"errors"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type transactionsRepo struct{ pool *pgxpool.Pool }

const txnColumns = `id, user_id, amount, settled_amount, provider, provider_reference,
client_request_id, status, type, phone_number, description, created_at, settled_at`

func scanTxn(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.Amount, &tx.SettledAmount, &tx.Provider, &tx.ProviderReference,
		&tx.ClientRequestID, &tx.Status, &tx.Type, &tx.PhoneNumber, &tx.Description, &tx.CreatedAt, &tx.SettledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, err
}

func (r *transactionsRepo) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	// On a reused provider reference the insert is a no-op and the existing row
	// comes back via RETURNING, so an accidental duplicate initiation can never
	// surface as a raw constraint violation.
	const q = `
INSERT INTO transactions (
  id, user_id, amount, provider, provider_reference, client_request_id, status, type, phone_number, description
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (provider, provider_reference) DO UPDATE
SET provider_reference = EXCLUDED.provider_reference
RETURNING ` + txnColumns + `;`
	return scanTxn(r.pool.QueryRow(ctx, q,
		tx.ID, tx.UserID, tx.Amount, tx.Provider, tx.ProviderReference,
		tx.ClientRequestID, tx.Status, tx.Type, tx.PhoneNumber, tx.Description,
	))
}

func (r *transactionsRepo) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	return scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE id=$1`, id))
}

func (r *transactionsRepo) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	return scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE provider_reference=$1`, reference))
}

func (r *transactionsRepo) GetByClientRequestID(ctx context.Context, userID, requestID string) (models.Transaction, error) {
	return scanTxn(r.pool.QueryRow(ctx,
		`SELECT `+txnColumns+` FROM transactions WHERE user_id=$1 AND client_request_id=$2`,
		userID, requestID))
}

func (r *transactionsRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+txnColumns+`
		   FROM transactions
		  WHERE user_id=$1
		  ORDER BY created_at DESC
		  LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Transaction
	for rows.Next() {
		tx, err := scanTxn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Settle is the check-and-set at the store level: the status guard lives in the
// WHERE clause, so two concurrent deliveries for the same reference can never
// both transition the row.
func (r *transactionsRepo) Settle(ctx context.Context, reference string, to models.TransactionStatus, settledAmount *decimal.Decimal) (models.Transaction, bool, error) {
	const q = `
UPDATE transactions
   SET status=$2,
       settled_amount=COALESCE($3, settled_amount),
       settled_at=now()
 WHERE provider_reference=$1 AND status='pending'
RETURNING ` + txnColumns + `;`
	tx, err := scanTxn(r.pool.QueryRow(ctx, q, reference, to, settledAmount))
	if err == nil {
		return tx, true, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, false, err
	}
	// Zero rows: either the row is already terminal (no-op) or it never existed.
	tx, err = r.GetByReference(ctx, reference)
	if err != nil {
		return models.Transaction{}, false, err
	}
	return tx, false, nil
}

func (r *transactionsRepo) Refund(ctx context.Context, id string) (models.Transaction, bool, error) {
	const q = `
UPDATE transactions
   SET status='refunded', settled_at=now()
 WHERE id=$1 AND status='completed'
RETURNING ` + txnColumns + `;`
	tx, err := scanTxn(r.pool.QueryRow(ctx, q, id))
	if err == nil {
		return tx, true, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return models.Transaction{}, false, err
	}
	tx, err = r.GetByID(ctx, id)
	if err != nil {
		return models.Transaction{}, false, err
	}
	return tx, false, nil
}

func (r *transactionsRepo) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var b decimal.Decimal
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(
		         CASE WHEN type='deposit'
		              THEN COALESCE(settled_amount, amount)
		              ELSE -COALESCE(settled_amount, amount)
		         END), 0)
		   FROM transactions
		  WHERE user_id=$1 AND status='completed'`,
		userID,
	).Scan(&b)
	return b, err
}
