package integration

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"remit-backoffice/internal/core/domain"
	"remit-backoffice/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type balKey struct {
	code     domain.AccountCode
	currency domain.Currency
}

type walKey struct {
	userID   uuid.UUID
	currency domain.Currency
}

// --- In-Memory Account Repo ---

type inMemoryAccountRepo struct {
	mu       sync.RWMutex
	accounts map[domain.AccountCode]*domain.Account
	balances map[balKey]decimal.Decimal
}

func newInMemoryAccountRepo() *inMemoryAccountRepo {
	return &inMemoryAccountRepo{
		accounts: make(map[domain.AccountCode]*domain.Account),
		balances: make(map[balKey]decimal.Decimal),
	}
}

func (r *inMemoryAccountRepo) Create(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Code]; ok {
		return fmt.Errorf("account already exists")
	}
	cp := *account
	r.accounts[account.Code] = &cp
	for _, c := range account.Currencies {
		r.balances[balKey{account.Code, c}] = decimal.Zero
	}
	return nil
}

func (r *inMemoryAccountRepo) GetByCode(ctx context.Context, code domain.AccountCode) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[code]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAccountRepo) GetBalances(ctx context.Context, code domain.AccountCode) (map[domain.Currency]decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[code]
	if !ok {
		return nil, nil
	}
	out := make(map[domain.Currency]decimal.Decimal, len(a.Currencies))
	for _, c := range a.Currencies {
		out[c] = r.balances[balKey{code, c}]
	}
	return out, nil
}

func (r *inMemoryAccountRepo) LockBalance(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.balances[balKey{code, currency}]
	if !ok {
		return decimal.Zero, fmt.Errorf("no balance row for %s/%s", code, currency)
	}
	return b, nil
}

func (r *inMemoryAccountRepo) ApplyDelta(ctx context.Context, tx pgx.Tx, code domain.AccountCode, currency domain.Currency, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balKey{code, currency}
	b, ok := r.balances[key]
	if !ok {
		return fmt.Errorf("no balance row for %s/%s", code, currency)
	}
	r.balances[key] = b.Add(delta)
	return nil
}

// --- In-Memory Journal Repo ---

type inMemoryJournalRepo struct {
	mu      sync.RWMutex
	entries map[string]*domain.JournalEntry
	order   []string
}

func newInMemoryJournalRepo() *inMemoryJournalRepo {
	return &inMemoryJournalRepo{entries: make(map[string]*domain.JournalEntry)}
}

func (r *inMemoryJournalRepo) Create(ctx context.Context, tx pgx.Tx, entry *domain.JournalEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[entry.EntryNumber]; ok {
		return fmt.Errorf("entry already exists")
	}
	cp := *entry
	cp.Lines = append([]domain.JournalLine(nil), entry.Lines...)
	r.entries[entry.EntryNumber] = &cp
	r.order = append(r.order, entry.EntryNumber)
	return nil
}

func (r *inMemoryJournalRepo) GetByEntryNumber(ctx context.Context, entryNumber string) (*domain.JournalEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[entryNumber]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Lines = append([]domain.JournalLine(nil), e.Lines...)
	return &cp, nil
}

func (r *inMemoryJournalRepo) ListPostings(ctx context.Context, code domain.AccountCode, from, to *time.Time) ([]domain.Posting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var postings []domain.Posting
	for _, num := range r.order {
		e := r.entries[num]
		if from != nil && e.Date.Before(*from) {
			continue
		}
		if to != nil && e.Date.After(*to) {
			continue
		}
		for _, l := range e.Lines {
			if l.AccountCode != code {
				continue
			}
			postings = append(postings, domain.Posting{
				EntryNumber:   e.EntryNumber,
				ReferenceType: e.ReferenceType,
				Date:          e.Date,
				AccountCode:   l.AccountCode,
				Currency:      l.Currency,
				Debit:         l.Debit,
				Credit:        l.Credit,
			})
		}
	}
	return postings, nil
}

// --- In-Memory Transfer Repo ---

type inMemoryTransferRepo struct {
	mu        sync.RWMutex
	transfers map[uuid.UUID]*domain.Transfer
	byCode    map[string]uuid.UUID
}

func newInMemoryTransferRepo() *inMemoryTransferRepo {
	return &inMemoryTransferRepo{
		transfers: make(map[uuid.UUID]*domain.Transfer),
		byCode:    make(map[string]uuid.UUID),
	}
}

func (r *inMemoryTransferRepo) Create(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	r.byCode[transfer.TransferCode] = transfer.ID
	return nil
}

func (r *inMemoryTransferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transfer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *inMemoryTransferRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Transfer, error) {
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransferRepo) GetByCode(ctx context.Context, code string) (*domain.Transfer, error) {
	r.mu.RLock()
	id, ok := r.byCode[code]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *inMemoryTransferRepo) CodeExists(ctx context.Context, code string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byCode[code]
	return ok, nil
}

func (r *inMemoryTransferRepo) UpdateReceived(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	return r.update(transfer)
}

func (r *inMemoryTransferRepo) UpdateCancelled(ctx context.Context, tx pgx.Tx, transfer *domain.Transfer) error {
	return r.update(transfer)
}

func (r *inMemoryTransferRepo) update(transfer *domain.Transfer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transfers[transfer.ID]; !ok {
		return fmt.Errorf("transfer not found")
	}
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *inMemoryTransferRepo) List(ctx context.Context, params ports.TransferListParams) ([]domain.Transfer, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Transfer
	for _, t := range r.transfers {
		if params.AgentID != nil {
			party := t.FromAgentID == *params.AgentID ||
				(t.ToAgentID != nil && *t.ToAgentID == *params.AgentID)
			if !party {
				continue
			}
		}
		if params.Status != nil && t.Status != *params.Status {
			continue
		}
		if params.From != nil && t.CreatedAt.Before(*params.From) {
			continue
		}
		if params.To != nil && t.CreatedAt.After(*params.To) {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	total := int64(len(result))

	start := (params.Page - 1) * params.PageSize
	if start >= len(result) {
		return []domain.Transfer{}, total, nil
	}
	end := start + params.PageSize
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

// --- In-Memory Agent Repo ---

type inMemoryAgentRepo struct {
	mu     sync.RWMutex
	agents map[uuid.UUID]*domain.Agent
}

func newInMemoryAgentRepo() *inMemoryAgentRepo {
	return &inMemoryAgentRepo{agents: make(map[uuid.UUID]*domain.Agent)}
}

func (r *inMemoryAgentRepo) Create(ctx context.Context, agent *domain.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *agent
	r.agents[agent.ID] = &cp
	return nil
}

func (r *inMemoryAgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *inMemoryAgentRepo) LinkAccount(ctx context.Context, agentID uuid.UUID, code domain.AccountCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[agentID]
	if !ok {
		return fmt.Errorf("agent not found")
	}
	a.AccountCode = &code
	return nil
}

// --- In-Memory Commission Schedule Repo ---

type inMemoryScheduleRepo struct {
	mu        sync.RWMutex
	schedules []*domain.CommissionSchedule
}

func newInMemoryScheduleRepo() *inMemoryScheduleRepo {
	return &inMemoryScheduleRepo{}
}

func (r *inMemoryScheduleRepo) Create(ctx context.Context, schedule *domain.CommissionSchedule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *schedule
	cp.Tiers = append([]domain.CommissionTier(nil), schedule.Tiers...)
	r.schedules = append(r.schedules, &cp)
	return nil
}

func (r *inMemoryScheduleRepo) FindApplicable(ctx context.Context, agentID uuid.UUID, currency domain.Currency, bulletinType string, asOf time.Time) (*domain.CommissionSchedule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *domain.CommissionSchedule
	for _, s := range r.schedules {
		if s.AgentID != agentID || s.Currency != currency || s.BulletinType != bulletinType {
			continue
		}
		if s.ValidFrom.After(asOf) {
			continue
		}
		if best == nil || s.ValidFrom.After(best.ValidFrom) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	cp.Tiers = append([]domain.CommissionTier(nil), best.Tiers...)
	return &cp, nil
}

// --- In-Memory Wallet Repo ---

type inMemoryWalletRepo struct {
	mu       sync.RWMutex
	balances map[walKey]decimal.Decimal
}

func newInMemoryWalletRepo() *inMemoryWalletRepo {
	return &inMemoryWalletRepo{balances: make(map[walKey]decimal.Decimal)}
}

func (r *inMemoryWalletRepo) GetBalances(ctx context.Context, userID uuid.UUID) (*domain.WalletBalances, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var w domain.WalletBalances
	found := false
	for key, b := range r.balances {
		if key.userID != userID {
			continue
		}
		w.Set(key.currency, b)
		found = true
	}
	if !found {
		return nil, nil
	}
	return &w, nil
}

func (r *inMemoryWalletRepo) LockBalance(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[walKey{userID, currency}], nil
}

func (r *inMemoryWalletRepo) Adjust(ctx context.Context, tx pgx.Tx, userID uuid.UUID, currency domain.Currency, delta decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := walKey{userID, currency}
	r.balances[key] = r.balances[key].Add(delta)
	return nil
}

func (r *inMemoryWalletRepo) SetBalance(ctx context.Context, userID uuid.UUID, currency domain.Currency, balance decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.balances[walKey{userID, currency}] = balance
	return nil
}

// --- In-Memory Transactor ---

// serialTransactor serializes transaction blocks behind one mutex, standing
// in for row-level locks. Wallet balance checks stay correct under
// concurrent requests because only one block runs at a time.
type serialTransactor struct {
	mu sync.Mutex
}

func newSerialTransactor() *serialTransactor {
	return &serialTransactor{}
}

func (t *serialTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	t.mu.Lock()
	return &memTx{release: t.mu.Unlock}, nil
}

// memTx is a no-op pgx.Tx that releases the transactor lock on the first
// Commit or Rollback.
type memTx struct {
	mu       sync.Mutex
	release  func()
	finished bool
}

func (t *memTx) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.finished {
		t.finished = true
		t.release()
	}
}

func (t *memTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *memTx) Commit(ctx context.Context) error          { t.finish(); return nil }
func (t *memTx) Rollback(ctx context.Context) error        { t.finish(); return nil }
func (t *memTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *memTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *memTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *memTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *memTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *memTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *memTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *memTx) Conn() *pgx.Conn { return nil }
