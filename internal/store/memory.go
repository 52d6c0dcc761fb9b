package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nerdwork/nwt_ledger/internal/access"
	"github.com/nerdwork/nwt_ledger/internal/ledger"
	"github.com/nerdwork/nwt_ledger/internal/transactions"
)

type memState struct {
	accounts  map[string]ledger.Account
	userTx    map[string]transactions.UserTransaction
	creatorTx map[string]transactions.CreatorTransaction
	grants    map[string]access.Grant
}

func newMemState() *memState {
	return &memState{
		accounts:  make(map[string]ledger.Account),
		userTx:    make(map[string]transactions.UserTransaction),
		creatorTx: make(map[string]transactions.CreatorTransaction),
		grants:    make(map[string]access.Grant),
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.userTx {
		c.userTx[k] = v
	}
	for k, v := range s.creatorTx {
		c.creatorTx[k] = v
	}
	for k, v := range s.grants {
		c.grants[k] = v
	}
	return c
}

// Memory is a concurrency-safe in-memory UnitOfWork used for tests and local
// development. Units of work are serialized; each one mutates a private copy
// of the state that replaces the shared state only on success.
type Memory struct {
	mu    sync.RWMutex
	state *memState
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{state: newMemState()}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := m.state.clone()
	if err := fn(ctx, work.repos(false)); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *Memory) View(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, m.state.repos(true))
}

// SeedBalance sets the balance of an account, creating it when missing.
// Test helper.
func (m *Memory) SeedBalance(ref ledger.Ref, userID string, amount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	acct, ok := m.state.accounts[ref.Code()]
	if !ok {
		acct = ledger.Account{Ref: ref, UserID: userID, CreatedAt: now}
	}
	acct.Balance = amount
	acct.UpdatedAt = now
	m.state.accounts[ref.Code()] = acct
}

func (s *memState) repos(readOnly bool) Repos {
	return Repos{
		Accounts:     &memAccounts{s: s, readOnly: readOnly},
		Transactions: &memTransactions{s: s, readOnly: readOnly},
		Grants:       &memGrants{s: s, readOnly: readOnly},
	}
}

type memAccounts struct {
	s        *memState
	readOnly bool
}

func (r *memAccounts) Create(_ context.Context, account ledger.Account) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if _, exists := r.s.accounts[account.Code()]; exists {
		return ledger.ErrAccountExists
	}
	for _, a := range r.s.accounts {
		if a.Kind == account.Kind && a.UserID == account.UserID {
			return ledger.ErrAccountExists
		}
	}
	r.s.accounts[account.Code()] = account
	return nil
}

func (r *memAccounts) Get(_ context.Context, ref ledger.Ref) (ledger.Account, error) {
	acct, ok := r.s.accounts[ref.Code()]
	if !ok {
		return ledger.Account{}, ledger.ErrAccountNotFound
	}
	return acct, nil
}

func (r *memAccounts) GetForUpdate(ctx context.Context, ref ledger.Ref) (ledger.Account, error) {
	return r.Get(ctx, ref)
}

func (r *memAccounts) FindByUser(_ context.Context, kind ledger.Kind, userID string) (ledger.Account, error) {
	for _, a := range r.s.accounts {
		if a.Kind == kind && a.UserID == userID {
			return a, nil
		}
	}
	return ledger.Account{}, ledger.ErrAccountNotFound
}

func (r *memAccounts) UpdateBalance(_ context.Context, ref ledger.Ref, balance decimal.Decimal, at time.Time) error {
	if r.readOnly {
		return ErrReadOnly
	}
	acct, ok := r.s.accounts[ref.Code()]
	if !ok {
		return ledger.ErrAccountNotFound
	}
	acct.Balance = balance
	acct.UpdatedAt = at
	r.s.accounts[ref.Code()] = acct
	return nil
}

type memTransactions struct {
	s        *memState
	readOnly bool
}

func (r *memTransactions) InsertUser(_ context.Context, tx transactions.UserTransaction) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if tx.ExternalPaymentID != "" {
		for _, existing := range r.s.userTx {
			if existing.ExternalPaymentID == tx.ExternalPaymentID {
				return transactions.ErrDuplicatePaymentID
			}
		}
	}
	r.s.userTx[tx.ID] = tx
	return nil
}

func (r *memTransactions) InsertCreator(_ context.Context, tx transactions.CreatorTransaction) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if _, ok := r.s.userTx[tx.SourceUserTransactionID]; !ok {
		return transactions.ErrMissingSource
	}
	r.s.creatorTx[tx.ID] = tx
	return nil
}

func (r *memTransactions) GetUser(_ context.Context, id string) (transactions.UserTransaction, error) {
	tx, ok := r.s.userTx[id]
	if !ok {
		return transactions.UserTransaction{}, transactions.ErrNotFound
	}
	return tx, nil
}

func (r *memTransactions) UserByExternalPaymentForUpdate(_ context.Context, externalPaymentID string) (transactions.UserTransaction, error) {
	for _, tx := range r.s.userTx {
		if tx.ExternalPaymentID == externalPaymentID {
			return tx, nil
		}
	}
	return transactions.UserTransaction{}, transactions.ErrNotFound
}

func (r *memTransactions) UpdateSettlement(_ context.Context, tx transactions.UserTransaction) error {
	if r.readOnly {
		return ErrReadOnly
	}
	existing, ok := r.s.userTx[tx.ID]
	if !ok {
		return transactions.ErrNotFound
	}
	existing.Status = tx.Status
	existing.SettlementReference = tx.SettlementReference
	existing.Metadata = tx.Metadata
	existing.FailureReason = tx.FailureReason
	existing.UpdatedAt = tx.UpdatedAt
	r.s.userTx[tx.ID] = existing
	return nil
}

func (r *memTransactions) ListUser(_ context.Context, f transactions.UserFilter) ([]transactions.UserTransaction, int, error) {
	var out []transactions.UserTransaction
	for _, tx := range r.s.userTx {
		if f.ReaderID != "" && tx.ReaderID != f.ReaderID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *memTransactions) ListCreator(_ context.Context, f transactions.CreatorFilter) ([]transactions.CreatorTransaction, int, error) {
	var out []transactions.CreatorTransaction
	for _, tx := range r.s.creatorTx {
		if f.CreatorID != "" && tx.CreatorID != f.CreatorID {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.SourceUserTransactionID != "" && tx.SourceUserTransactionID != f.SourceUserTransactionID {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, f.Limit, f.Offset), len(out), nil
}

func (r *memTransactions) UserTotals(_ context.Context, readerID string) ([]transactions.Totals, error) {
	type key struct {
		t transactions.UserType
		s transactions.Status
	}
	agg := make(map[key]*transactions.Totals)
	for _, tx := range r.s.userTx {
		if tx.ReaderID != readerID {
			continue
		}
		k := key{tx.Type, tx.Status}
		t, ok := agg[k]
		if !ok {
			t = &transactions.Totals{Type: tx.Type, Status: tx.Status, Amount: decimal.Zero}
			agg[k] = t
		}
		t.Amount = t.Amount.Add(tx.NWTAmount)
		t.Count++
	}
	out := make([]transactions.Totals, 0, len(agg))
	for _, t := range agg {
		out = append(out, *t)
	}
	return out, nil
}

type memGrants struct {
	s        *memState
	readOnly bool
}

func grantKey(readerID, contentID string) string {
	return readerID + "|" + contentID
}

func (r *memGrants) Insert(_ context.Context, grant access.Grant) error {
	if r.readOnly {
		return ErrReadOnly
	}
	key := grantKey(grant.ReaderID, grant.ContentID)
	if _, exists := r.s.grants[key]; exists {
		return access.ErrAlreadyGranted
	}
	r.s.grants[key] = grant
	return nil
}

func (r *memGrants) Exists(_ context.Context, readerID, contentID string) (bool, error) {
	_, ok := r.s.grants[grantKey(readerID, contentID)]
	return ok, nil
}

func (r *memGrants) ListByReader(_ context.Context, readerID string, limit, offset int) ([]access.Grant, int, error) {
	var out []access.Grant
	for _, g := range r.s.grants {
		if g.ReaderID == readerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GrantedAt.After(out[j].GrantedAt) })
	return page(out, limit, offset), len(out), nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
