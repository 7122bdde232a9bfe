// Package bank implements the user-facing operations of tally: users,
// accounts, transfers and statements. Balances are always derived from the
// ledger, and every login brings interest up to date.
package bank

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/accrual"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/auth"
	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// AdminUsername is the account seeded by EnsureAdmin.
const AdminUsername = "admin"

// Store is the persistence the service needs. sqlstore.Store implements it.
type Store interface {
	ledger.Repository
	auditlog.Sink
	Logs(ctx context.Context) ([]model.LogEntry, error)

	CreateUser(ctx context.Context, u model.User) (int64, error)
	UserByName(ctx context.Context, username string) (model.User, error)

	CreateAccount(ctx context.Context, a model.Account) (int64, error)
	Account(ctx context.Context, id int64) (model.Account, error)
	AccountsByOwner(ctx context.Context, uid int64) ([]model.Account, error)
	AllAccounts(ctx context.Context) ([]model.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// Service provides business logic for the bank.
type Service struct {
	store  Store
	engine *accrual.Engine
	audit  *auditlog.Logger

	// transfers serialises balance checks with the inserts that depend on them.
	transfers sync.Mutex

	// Now returns the current time. Tests replace it.
	Now func() time.Time
}

// NewService creates a bank Service.
func NewService(store Store, engine *accrual.Engine, audit *auditlog.Logger) *Service {
	return &Service{store: store, engine: engine, audit: audit, Now: time.Now}
}

// EnsureAdmin creates the admin user with password if it does not exist yet.
// It reports whether a user was created.
func (s *Service) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	_, err := s.store.UserByName(ctx, AdminUsername)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return false, err
	}
	if _, err := s.insertUser(ctx, AdminUsername, password, model.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// CreateUser registers a new user. Only admins may do this.
func (s *Service) CreateUser(ctx context.Context, caller model.User, username, password string, role model.Role) (model.User, error) {
	if caller.Role != model.RoleAdmin {
		s.audit.Error(ctx, "Failed to create user")
		return model.User{}, ErrForbidden
	}
	u, err := s.insertUser(ctx, username, password, role)
	if err != nil {
		s.audit.Error(ctx, "Failed to create user")
		return model.User{}, err
	}
	return u, nil
}

func (s *Service) insertUser(ctx context.Context, username, password string, role model.Role) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return model.User{}, errors.New("username must not be empty")
	}
	if _, err := model.ParseRole(string(role)); err != nil {
		return model.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	u := model.User{Username: username, PasswordHash: hash, Role: role}
	u.ID, err = s.store.CreateUser(ctx, u)
	if errors.Is(err, ledger.ErrConflict) {
		return model.User{}, fmt.Errorf("%q: %w", username, ErrUsernameTaken)
	}
	if err != nil {
		return model.User{}, err
	}
	s.audit.Info(ctx, fmt.Sprintf("Created user %d", u.ID))
	return u, nil
}

// Authenticate checks a username and password.
func (s *Service) Authenticate(ctx context.Context, username, password string) (model.User, error) {
	u, err := s.store.UserByName(ctx, username)
	if errors.Is(err, ledger.ErrNotFound) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, err
	}
	if !auth.VerifyPassword(password, u.PasswordHash) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Login authenticates the user and accrues interest on all of their accounts
// up to now.
func (s *Service) Login(ctx context.Context, username, password string) (model.User, []accrual.Result, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.audit.Error(ctx, "Failed login")
		}
		return model.User{}, nil, err
	}

	accounts, err := s.store.AccountsByOwner(ctx, u.ID)
	if err != nil {
		return model.User{}, nil, err
	}
	results, err := s.engine.RunAll(ctx, accounts, s.Now())
	if err != nil {
		return model.User{}, results, fmt.Errorf("accruing interest: %w", err)
	}

	s.audit.Info(ctx, fmt.Sprintf("Successful login by %d", u.ID))
	return u, results, nil
}

// Accounts lists the caller's accounts, or every account for a banker.
func (s *Service) Accounts(ctx context.Context, caller model.User) ([]model.Account, error) {
	var (
		accounts []model.Account
		err      error
	)
	if caller.Role == model.RoleBanker {
		accounts, err = s.store.AllAccounts(ctx)
	} else {
		accounts, err = s.store.AccountsByOwner(ctx, caller.ID)
	}
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Balance, err = s.balance(ctx, accounts[i].ID); err != nil {
			return nil, err
		}
	}
	return accounts, nil
}

// Account returns one account with its balance. Only the owner or a banker
// may see it.
func (s *Service) Account(ctx context.Context, caller model.User, id int64) (model.Account, error) {
	a, err := s.store.Account(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	if a.OwnerID != caller.ID && caller.Role != model.RoleBanker {
		return model.Account{}, fmt.Errorf("account %d: %w", id, ErrNotOwner)
	}
	if a.Balance, err = s.balance(ctx, id); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

func (s *Service) balance(ctx context.Context, id int64) (decimal.Decimal, error) {
	hist, err := ledger.History(ctx, s.store, id)
	if err != nil {
		return decimal.Zero, err
	}
	return ledger.Balance(id, hist), nil
}

// CreateAccount opens an account for the caller. A positive opening balance
// is deposited from outside the bank.
func (s *Service) CreateAccount(ctx context.Context, caller model.User, name string, kind model.AccountKind, opening decimal.Decimal) (model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Account{}, errors.New("account name must not be empty")
	}
	if _, err := model.ParseAccountKind(string(kind)); err != nil {
		return model.Account{}, err
	}
	if opening.IsNegative() {
		return model.Account{}, fmt.Errorf("opening balance %s: %w", opening, ErrBadAmount)
	}

	a := model.Account{OwnerID: caller.ID, Name: name, Kind: kind}
	id, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return model.Account{}, err
	}
	a.ID = id

	if opening.IsPositive() {
		deposit := model.Transaction{
			FromAccount: model.ExternalAccount,
			ToAccount:   id,
			Amount:      model.RoundAmount(opening),
			Kind:        model.KindTransfer,
			Timestamp:   s.Now(),
		}
		if _, err := s.store.InsertTransaction(ctx, deposit); err != nil {
			return model.Account{}, fmt.Errorf("depositing opening balance: %w", err)
		}
		a.Balance = deposit.Amount
	}

	s.audit.Info(ctx, fmt.Sprintf("Created bank account %d", id))
	return a, nil
}

// DeleteAccount closes an account. Only its owner may, and only at a zero
// balance. Bankers never may.
func (s *Service) DeleteAccount(ctx context.Context, caller model.User, id int64) error {
	failed := fmt.Sprintf("Failed to delete bank account %d", id)

	a, err := s.store.Account(ctx, id)
	if err != nil {
		return err
	}
	if a.OwnerID != caller.ID || caller.Role == model.RoleBanker {
		s.audit.Error(ctx, failed)
		return fmt.Errorf("account %d: %w", id, ErrNotOwner)
	}
	bal, err := s.balance(ctx, id)
	if err != nil {
		return err
	}
	if !bal.IsZero() {
		s.audit.Error(ctx, failed)
		return fmt.Errorf("account %d has balance %s: %w", id, bal, ErrNonZeroBalance)
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.audit.Info(ctx, fmt.Sprintf("Deleted bank account %d", id))
	return nil
}

// Transfer moves amount from one account to another. The caller must be able
// to see the source account. Only Credit accounts may go below zero.
func (s *Service) Transfer(ctx context.Context, caller model.User, from, to int64, amount decimal.Decimal) (model.Transaction, error) {
	s.transfers.Lock()
	defer s.transfers.Unlock()

	txn, err := s.transfer(ctx, caller, from, to, amount)
	if err != nil {
		s.audit.Error(ctx, fmt.Sprintf("Failed transaction from %d to %d", from, to))
		return model.Transaction{}, err
	}
	s.audit.Info(ctx, fmt.Sprintf("Successful transaction from %d to %d", from, to))
	return txn, nil
}

func (s *Service) transfer(ctx context.Context, caller model.User, from, to int64, amount decimal.Decimal) (model.Transaction, error) {
	if from == to {
		return model.Transaction{}, ErrSameAccount
	}
	amount = model.RoundAmount(amount)
	if !amount.IsPositive() {
		return model.Transaction{}, ErrBadAmount
	}

	src, err := s.Account(ctx, caller, from)
	if err != nil {
		return model.Transaction{}, err
	}
	if _, err := s.store.Account(ctx, to); err != nil {
		return model.Transaction{}, err
	}
	if !src.AllowsOverdraft() && src.Balance.Sub(amount).IsNegative() {
		return model.Transaction{}, fmt.Errorf("account %d has %s, needs %s: %w", from, src.Balance, amount, ErrInsufficient)
	}

	txn := model.Transaction{
		FromAccount: from,
		ToAccount:   to,
		Amount:      amount,
		Kind:        model.KindTransfer,
		Timestamp:   s.Now(),
	}
	if txn.ID, err = s.store.InsertTransaction(ctx, txn); err != nil {
		return model.Transaction{}, err
	}
	return txn, nil
}

// ImportTransfers makes each transfer in rows, in order, stopping at the
// first failure. Rows use the statement layout; ids and timestamps are
// ignored and an empty kind means transfer. The transfers made before a
// failure are returned with the error.
func (s *Service) ImportTransfers(ctx context.Context, caller model.User, rows []model.Transaction) ([]model.Transaction, error) {
	done := make([]model.Transaction, 0, len(rows))
	for i, r := range rows {
		if r.Kind != "" && r.Kind != model.KindTransfer {
			return done, fmt.Errorf("transfer %d: kind %q: %w", i+1, r.Kind, ErrNotTransfer)
		}
		txn, err := s.Transfer(ctx, caller, r.FromAccount, r.ToAccount, r.Amount)
		if err != nil {
			return done, fmt.Errorf("transfer %d: %w", i+1, err)
		}
		done = append(done, txn)
	}
	return done, nil
}

// Statement returns the account's transactions, oldest first.
func (s *Service) Statement(ctx context.Context, caller model.User, id int64) ([]model.Transaction, error) {
	if _, err := s.Account(ctx, caller, id); err != nil {
		return nil, err
	}
	txns, err := ledger.History(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	ledger.SortChronological(txns)
	return txns, nil
}

// Accrue runs the accrual engine for one account as of asOf. Days from the
// current one onward stay open, so asOf may not be later than Now.
func (s *Service) Accrue(ctx context.Context, caller model.User, id int64, asOf time.Time) (accrual.Result, error) {
	if now := s.Now(); asOf.After(now) {
		return accrual.Result{}, fmt.Errorf("as of %s is after %s: %w", asOf.Format(time.RFC3339), now.Format(time.RFC3339), ErrFutureAsOf)
	}
	a, err := s.Account(ctx, caller, id)
	if err != nil {
		return accrual.Result{}, err
	}
	return s.engine.Run(ctx, a, asOf)
}

// BalanceHistory returns the account's closing balance for each of the last
// days days, today included.
func (s *Service) BalanceHistory(ctx context.Context, caller model.User, id int64, days int) ([]accrual.DayBalance, error) {
	if _, err := s.Account(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.engine.DailyBalances(ctx, id, s.Now(), days)
}

// Logs returns the audit log. Only admins may read it.
func (s *Service) Logs(ctx context.Context, caller model.User) ([]model.LogEntry, error) {
	if caller.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.store.Logs(ctx)
}
