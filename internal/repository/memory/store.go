package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/farmlinkgh/wallet-backend/internal/models"
	repo "github.com/farmlinkgh/wallet-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is an in-memory repo.Transactions. The same mutex covers the status
// check and the write in Settle, so it honors the atomic check-and-set
// contract the Postgres store gets from its conditional UPDATE.
type Store struct {
	mu    sync.Mutex
	byID  map[string]models.Transaction
	byRef map[string]string // provider_reference -> id
}

func NewStore() *Store {
	return &Store{
		byID:  make(map[string]models.Transaction),
		byRef: make(map[string]string),
	}
}

var _ repo.Transactions = (*Store)(nil)

func (s *Store) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.byRef[tx.ProviderReference]; ok {
		return s.byID[id], nil
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	s.byID[tx.ID] = tx
	s.byRef[tx.ProviderReference] = tx.ID
	return tx, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return tx, nil
}

func (s *Store) GetByReference(ctx context.Context, reference string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byRef[reference]
	if !ok {
		return models.Transaction{}, repo.ErrNotFound
	}
	return s.byID[id], nil
}

func (s *Store) GetByClientRequestID(ctx context.Context, userID, requestID string) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.byID {
		if tx.UserID == userID && tx.ClientRequestID != nil && *tx.ClientRequestID == requestID {
			return tx, nil
		}
	}
	return models.Transaction{}, repo.ErrNotFound
}

func (s *Store) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Transaction
	for _, tx := range s.byID {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) Settle(ctx context.Context, reference string, to models.TransactionStatus, settledAmount *decimal.Decimal) (models.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byRef[reference]
	if !ok {
		return models.Transaction{}, false, repo.ErrNotFound
	}
	tx := s.byID[id]
	if tx.Status != models.TxnPending {
		return tx, false, nil
	}
	tx.Status = to
	if settledAmount != nil {
		v := *settledAmount
		tx.SettledAmount = &v
	}
	now := time.Now()
	tx.SettledAt = &now
	s.byID[id] = tx
	return tx, true, nil
}

func (s *Store) Refund(ctx context.Context, id string) (models.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.byID[id]
	if !ok {
		return models.Transaction{}, false, repo.ErrNotFound
	}
	if tx.Status != models.TxnCompleted {
		return tx, false, nil
	}
	tx.Status = models.TxnRefunded
	now := time.Now()
	tx.SettledAt = &now
	s.byID[id] = tx
	return tx, true, nil
}

func (s *Store) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	balance := decimal.Zero
	for _, tx := range s.byID {
		if tx.UserID != userID || tx.Status != models.TxnCompleted {
			continue
		}
		if tx.Type.Debits() {
			balance = balance.Sub(tx.EffectiveAmount())
		} else {
			balance = balance.Add(tx.EffectiveAmount())
		}
	}
	return balance, nil
}

// Accounts is an in-memory repo.LinkedAccounts.
type Accounts struct {
	mu   sync.Mutex
	byID map[string]models.LinkedAccount
}

func NewAccounts() *Accounts {
	return &Accounts{byID: make(map[string]models.LinkedAccount)}
}

var _ repo.LinkedAccounts = (*Accounts)(nil)

func (s *Accounts) Create(ctx context.Context, a models.LinkedAccount) (models.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	s.byID[a.ID] = a
	return a, nil
}

func (s *Accounts) GetByID(ctx context.Context, id string) (models.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return models.LinkedAccount{}, repo.ErrNotFound
	}
	return a, nil
}

func (s *Accounts) ListByUser(ctx context.Context, userID string) ([]models.LinkedAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LinkedAccount
	for _, a := range s.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Audits is an in-memory repo.AuditLogs keeping entries for test assertions.
type Audits struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func NewAudits() *Audits { return &Audits{} }

var _ repo.AuditLogs = (*Audits)(nil)

func (s *Audits) Create(ctx context.Context, l models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	s.entries = append(s.entries, l)
	return nil
}

func (s *Audits) Entries() []models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AuditLog, len(s.entries))
	copy(out, s.entries)
	return out
}
