package ledger

import (
	"context"
	"sync"

	"cloud.google.com/go/civil"

	"github.com/cleared-dev/tally/internal/model"
)

// MemoryStore is an in-memory Repository and audit log sink. It enforces the
// same one-accrual-per-day rule as the SQL store.
type MemoryStore struct {
	mu      sync.Mutex
	txns    []model.Transaction
	logs    []model.LogEntry
	accrued map[accrualKey]bool

	// InsertHook, when set, runs before every transaction insert; a non-nil
	// error aborts the insert.
	InsertHook func(t model.Transaction) error
	// LogHook is the InsertLog equivalent of InsertHook.
	LogHook func(e model.LogEntry) error
}

type accrualKey struct {
	kind    model.TransactionKind
	account int64
	day     civil.Date
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accrued: make(map[accrualKey]bool)}
}

// InsertTransaction appends t and assigns the next ID.
func (m *MemoryStore) InsertTransaction(_ context.Context, t model.Transaction) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.InsertHook != nil {
		if err := m.InsertHook(t); err != nil {
			return 0, err
		}
	}

	if key, ok := accrualKeyOf(t); ok {
		if m.accrued[key] {
			return 0, ErrDuplicateAccrual
		}
		m.accrued[key] = true
	}

	t.ID = int64(len(m.txns) + 1)
	t.Amount = model.RoundAmount(t.Amount)
	m.txns = append(m.txns, t)
	return t.ID, nil
}

// SelectTransactions returns copies of all matching transactions.
func (m *MemoryStore) SelectTransactions(_ context.Context, f Filter) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Transaction
	for _, t := range m.txns {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// InsertLog appends an audit log entry.
func (m *MemoryStore) InsertLog(_ context.Context, e model.LogEntry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LogHook != nil {
		if err := m.LogHook(e); err != nil {
			return 0, err
		}
	}
	e.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, e)
	return e.ID, nil
}

// Logs returns a copy of the audit log.
func (m *MemoryStore) Logs(_ context.Context) ([]model.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.LogEntry, len(m.logs))
	copy(out, m.logs)
	return out, nil
}

// accrualKeyOf identifies the account and posting date an accrual is charged to.
func accrualKeyOf(t model.Transaction) (accrualKey, bool) {
	if !t.Kind.IsAccrual() {
		return accrualKey{}, false
	}
	account := t.ToAccount
	if t.Kind == model.KindCreditInterest {
		account = t.FromAccount
	}
	return accrualKey{t.Kind, account, PostingDay(t)}, true
}

// PostingDay is the calendar date of t in its own time zone.
func PostingDay(t model.Transaction) civil.Date {
	return civil.DateOf(t.Timestamp)
}

var _ Repository = (*MemoryStore)(nil)
