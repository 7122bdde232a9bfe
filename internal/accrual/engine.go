package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// Rates are the accrual parameters. Interest and Credit are multiplied by
// DailyFactor to get the per-day rate.
type Rates struct {
	Interest        decimal.Decimal
	Credit          decimal.Decimal
	DailyFactor     decimal.Decimal
	GracePeriodDays int
}

// DefaultRates returns the bank's standard rates.
func DefaultRates() Rates {
	return Rates{
		Interest:        decimal.RequireFromString("0.3"),
		Credit:          decimal.RequireFromString("0.4"),
		DailyFactor:     decimal.RequireFromString("0.0028"),
		GracePeriodDays: 30,
	}
}

// Config configures an Engine. Zero Location means time.Local; nil Logger
// means slog.Default().
type Config struct {
	Rates    Rates
	Location *time.Location
	Logger   *slog.Logger
}

// Result describes one run over one account.
type Result struct {
	AccountID int64
	Kind      model.AccountKind
	Posted    []model.Transaction
	Pending   int
	RunID     string
}

// Engine runs accrual policies against a ledger.
type Engine struct {
	repo   ledger.Repository
	audit  *auditlog.Logger
	rates  Rates
	loc    *time.Location
	logger *slog.Logger

	mu    sync.Mutex
	locks map[int64]*accountLock
}

// accountLock serialises runs on one account. refs counts holders and
// waiters; the entry is dropped when it reaches zero.
type accountLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine creates an Engine.
func NewEngine(repo ledger.Repository, audit *auditlog.Logger, cfg Config) *Engine {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		repo:   repo,
		audit:  audit,
		rates:  cfg.Rates,
		loc:    loc,
		logger: logger,
		locks:  make(map[int64]*accountLock),
	}
}

// lockAccount blocks until the caller holds id's lock and returns the
// matching unlock.
func (e *Engine) lockAccount(id int64) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &accountLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		e.mu.Lock()
		defer e.mu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
	}
}

// Run accrues interest for acct on every day before asOf's calendar day.
// Savings and Credit accounts are supported; other kinds are a no-op.
func (e *Engine) Run(ctx context.Context, acct model.Account, asOf time.Time) (Result, error) {
	res := Result{AccountID: acct.ID, Kind: acct.Kind, RunID: uuid.New().String()}

	var kind model.TransactionKind
	switch acct.Kind {
	case model.AccountSavings:
		kind = model.KindInterest
	case model.AccountCredit:
		kind = model.KindCreditInterest
	default:
		return res, nil
	}

	unlock := e.lockAccount(acct.ID)
	defer unlock()

	log := e.logger.With("run_id", res.RunID, "account_id", acct.ID, "kind", acct.Kind)

	history, err := ledger.History(ctx, e.repo, acct.ID)
	if err != nil {
		return res, err
	}
	tl, err := BuildTimeline(acct.ID, history, e.loc)
	if err != nil {
		return res, fmt.Errorf("account %d: %w", acct.ID, err)
	}
	if tl.Empty() {
		log.Debug("no history, nothing to accrue")
		return res, nil
	}

	w := walk{
		account:  acct.ID,
		timeline: tl,
		paid:     chargedDays(acct.ID, history, kind, e.loc),
		today:    civil.DateOf(asOf.In(e.loc)),
		rates:    e.rates,
	}

	post := func(t model.Transaction, day civil.Date) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.Timestamp = postingTime(day, e.loc)
		id, err := e.repo.InsertTransaction(ctx, t)
		if err != nil {
			return fmt.Errorf("posting %s for account %d on %s: %w", t.Kind, acct.ID, day, err)
		}
		t.ID = id
		res.Posted = append(res.Posted, t)
		e.audit.Info(ctx, auditTitle(t))
		log.Debug("posted accrual", "day", day.String(), "amount", t.Amount.String(), "transaction", id)
		return nil
	}

	if kind == model.KindInterest {
		err = accrueSavings(w, post)
	} else {
		res.Pending, err = accrueCredit(w, post)
	}
	if err != nil {
		log.Error("accrual run aborted", "posted", len(res.Posted), "error", err)
		return res, err
	}

	if len(res.Posted) > 0 {
		log.Info("accrual run complete", "posted", len(res.Posted), "pending", res.Pending)
	} else {
		log.Debug("accrual run complete", "posted", 0, "pending", res.Pending)
	}
	return res, nil
}

// RunAll runs every account in turn. A failing account does not stop the
// others; all failures are returned joined.
func (e *Engine) RunAll(ctx context.Context, accounts []model.Account, asOf time.Time) ([]Result, error) {
	results := make([]Result, 0, len(accounts))
	var errs []error
	for _, acct := range accounts {
		res, err := e.Run(ctx, acct, asOf)
		if err != nil {
			errs = append(errs, err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

// DayBalance is an account's closing balance on one day.
type DayBalance struct {
	Day     civil.Date
	Balance decimal.Decimal
}

// DailyBalances returns the closing balance of each of the last days days up
// to and including asOf's day, oldest first. Days before the account's first
// transaction are left out.
func (e *Engine) DailyBalances(ctx context.Context, account int64, asOf time.Time, days int) ([]DayBalance, error) {
	if days <= 0 {
		return nil, nil
	}
	history, err := ledger.History(ctx, e.repo, account)
	if err != nil {
		return nil, err
	}
	tl, err := BuildTimeline(account, history, e.loc)
	if err != nil {
		return nil, fmt.Errorf("account %d: %w", account, err)
	}
	if tl.Empty() {
		return nil, nil
	}

	last := dayOf(asOf, e.loc)
	start := last.AddDays(1 - days)
	if start.Before(tl.First) {
		start = tl.First
	}
	var out []DayBalance
	for d := start; !d.After(last); d = d.AddDays(1) {
		out = append(out, DayBalance{Day: d, Balance: tl.BalanceAt(d)})
	}
	return out, nil
}

func auditTitle(t model.Transaction) string {
	if t.Kind == model.KindCreditInterest {
		return fmt.Sprintf("Credit payment from %d", t.FromAccount)
	}
	return fmt.Sprintf("Interest payment to %d", t.ToAccount)
}
