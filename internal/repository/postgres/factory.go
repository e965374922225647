package postgres

import (
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Transactions   repo.Transactions
	LinkedAccounts repo.LinkedAccounts
	AuditLogs      repo.AuditLogs
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Transactions:   &transactionsRepo{pool},
		LinkedAccounts: &linkedAccountsRepo{pool},
		AuditLogs:      &auditLogsRepo{pool},
	}
}
