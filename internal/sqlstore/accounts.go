package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

// CreateUser inserts u and returns its ID. A taken username fails with
// ledger.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u model.User) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO users (username, password, role) VALUES (?, ?, ?) RETURNING uid`,
		u.Username, u.PasswordHash, string(u.Role),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("user %q: %w", u.Username, ledger.ErrConflict)
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// UserByName looks a user up by username.
func (s *Store) UserByName(ctx context.Context, username string) (model.User, error) {
	var (
		u    model.User
		role string
	)
	err := s.queryRow(ctx,
		`SELECT uid, username, password, role FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &role)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", username, ledger.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("selecting user: %w", err)
	}
	u.Role = model.Role(role)
	return u, nil
}

// CreateAccount inserts a and returns its ID.
func (s *Store) CreateAccount(ctx context.Context, a model.Account) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO accounts (uid, name, kind) VALUES (?, ?, ?) RETURNING account_id`,
		a.OwnerID, a.Name, string(a.Kind),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting account: %w", err)
	}
	return id, nil
}

// Account returns one account without its balance.
func (s *Store) Account(ctx context.Context, id int64) (model.Account, error) {
	var (
		a    model.Account
		kind string
	)
	err := s.queryRow(ctx,
		`SELECT account_id, uid, name, kind FROM accounts WHERE account_id = ?`, id,
	).Scan(&a.ID, &a.OwnerID, &a.Name, &kind)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Account{}, fmt.Errorf("account %d: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("selecting account: %w", err)
	}
	a.Kind = model.AccountKind(kind)
	return a, nil
}

// AccountsByOwner returns the accounts of one user.
func (s *Store) AccountsByOwner(ctx context.Context, uid int64) ([]model.Account, error) {
	return s.accounts(ctx, `SELECT account_id, uid, name, kind FROM accounts WHERE uid = ? ORDER BY account_id`, uid)
}

// AllAccounts returns every account in the bank.
func (s *Store) AllAccounts(ctx context.Context) ([]model.Account, error) {
	return s.accounts(ctx, `SELECT account_id, uid, name, kind FROM accounts ORDER BY account_id`)
}

func (s *Store) accounts(ctx context.Context, q string, args ...any) ([]model.Account, error) {
	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		var (
			a    model.Account
			kind string
		)
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &kind); err != nil {
			return nil, fmt.Errorf("scanning account: %w", err)
		}
		a.Kind = model.AccountKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

// DeleteAccount removes the account row. Its transactions stay in the ledger.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, `DELETE FROM accounts WHERE account_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("account %d: %w", id, ledger.ErrNotFound)
	}
	return nil
}
