package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/farmlinkgh/wallet-backend/internal/events"
	"github.com/farmlinkgh/wallet-backend/internal/gateway"
	"github.com/farmlinkgh/wallet-backend/internal/notify"
	"github.com/farmlinkgh/wallet-backend/internal/reconcile"
	"github.com/farmlinkgh/wallet-backend/internal/repository/memory"
	"github.com/farmlinkgh/wallet-backend/internal/worker"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []gateway.Request
	err      error
}

func (g *fakeGateway) Submit(ctx context.Context, req gateway.Request) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return g.err
	}
	g.requests = append(g.requests, req)
	return nil
}

func (g *fakeGateway) submitted() []gateway.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]gateway.Request, len(g.requests))
	copy(out, g.requests)
	return out
}

type countingPublisher struct {
	n atomic.Int64
}

func (p *countingPublisher) Publish(ctx context.Context, ev events.ChangeEvent) error {
	p.n.Add(1)
	return nil
}

type env struct {
	store       *memory.Store
	accounts    *memory.Accounts
	audits      *memory.Audits
	hub         *notify.Hub
	pub         *countingPublisher
	gw          *fakeGateway
	wp          *worker.Pool
	wallet      *WalletService
	settlements *SettlementService
	reconciler  *ReconcileService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := &env{
		store:    memory.NewStore(),
		accounts: memory.NewAccounts(),
		audits:   memory.NewAudits(),
		hub:      notify.NewHub(),
		pub:      &countingPublisher{},
		gw:       &fakeGateway{},
		wp:       worker.NewPool(2),
	}
	e.wallet = NewWalletService(e.store, e.accounts, e.audits, e.gw, e.wp, log)
	e.settlements = NewSettlementService(e.store, e.audits, e.hub, e.pub, e.wp, log)
	e.reconciler = NewReconcileService(e.store, e.audits, e.settlements, reconcile.RegexExtractor{}, log)
	return e
}

// drain stops the worker pool and waits for queued jobs (gateway hand-offs,
// event publishes) to finish. Call once per test, before asserting on them.
func (e *env) drain() { e.wp.Stop() }
