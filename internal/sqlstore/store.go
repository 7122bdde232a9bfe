// Package sqlstore persists the ledger, users, accounts and audit log in
// SQLite or PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/model"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is a SQL-backed ledger.Repository and audit log sink. It is safe for
// concurrent use.
type Store struct {
	db     *sql.DB
	driver string
}

// Open connects to the database and creates the schema if needed. For
// SQLite, dsn is a file path; foreign keys and WAL mode are enabled.
func Open(driver, dsn string) (*Store, error) {
	var schema string
	switch driver {
	case DriverSQLite:
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
			dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dsn)
		}
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, driver: driver}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $N for PostgreSQL.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, rebind(s.driver, query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, rebind(s.driver, query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, rebind(s.driver, query), args...)
}

func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// InsertTransaction appends t and returns its ID. A second accrual for the
// same account, kind and posting date fails with ledger.ErrDuplicateAccrual.
func (s *Store) InsertTransaction(ctx context.Context, t model.Transaction) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO transactions (from_id, to_id, amount, kind, occurred_at, posted_on)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING transaction_id`,
		nullableAccount(t.FromAccount),
		nullableAccount(t.ToAccount),
		model.RoundAmount(t.Amount).StringFixed(model.AmountPlaces),
		string(t.Kind),
		t.Timestamp.Format(time.RFC3339Nano),
		ledger.PostingDay(t).String(),
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("inserting %s on %s: %w", t.Kind, ledger.PostingDay(t), ledger.ErrDuplicateAccrual)
		}
		return 0, fmt.Errorf("inserting transaction: %w", err)
	}
	return id, nil
}

// SelectTransactions returns every transaction matching f.
func (s *Store) SelectTransactions(ctx context.Context, f ledger.Filter) ([]model.Transaction, error) {
	var (
		where []string
		args  []any
	)
	if f.ID != 0 {
		where = append(where, "transaction_id = ?")
		args = append(args, f.ID)
	}
	if f.FromAccount != 0 {
		where = append(where, "from_id = ?")
		args = append(args, f.FromAccount)
	}
	if f.ToAccount != 0 {
		where = append(where, "to_id = ?")
		args = append(args, f.ToAccount)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(f.Kind))
	}

	q := `SELECT transaction_id, from_id, to_id, amount, kind, occurred_at FROM transactions`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("selecting transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transactions: %w", err)
	}
	return out, nil
}

func scanTransaction(rows *sql.Rows) (model.Transaction, error) {
	var (
		t                  model.Transaction
		from, to           sql.NullInt64
		amount, kind, when string
	)
	if err := rows.Scan(&t.ID, &from, &to, &amount, &kind, &when); err != nil {
		return model.Transaction{}, fmt.Errorf("scanning transaction: %w", err)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d: parsing amount %q: %w", t.ID, amount, err)
	}
	ts, err := time.Parse(time.RFC3339Nano, when)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %d: parsing timestamp %q: %w", t.ID, when, err)
	}

	t.FromAccount = from.Int64
	t.ToAccount = to.Int64
	t.Amount = d
	t.Kind = model.TransactionKind(kind)
	t.Timestamp = ts
	return t, nil
}

func nullableAccount(id int64) any {
	if id == model.ExternalAccount {
		return nil
	}
	return id
}

// InsertLog appends an audit log entry.
func (s *Store) InsertLog(ctx context.Context, e model.LogEntry) (int64, error) {
	var id int64
	err := s.queryRow(ctx,
		`INSERT INTO logs (title, severity, logged_at) VALUES (?, ?, ?) RETURNING log_id`,
		e.Title, string(e.Severity), e.Timestamp.Format(time.RFC3339Nano),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting log: %w", err)
	}
	return id, nil
}

// Logs returns the audit log, oldest first.
func (s *Store) Logs(ctx context.Context) ([]model.LogEntry, error) {
	rows, err := s.query(ctx, `SELECT log_id, title, severity, logged_at FROM logs ORDER BY log_id`)
	if err != nil {
		return nil, fmt.Errorf("selecting logs: %w", err)
	}
	defer rows.Close()

	var out []model.LogEntry
	for rows.Next() {
		var (
			e         model.LogEntry
			sev, when string
		)
		if err := rows.Scan(&e.ID, &e.Title, &sev, &when); err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, when)
		if err != nil {
			return nil, fmt.Errorf("log %d: parsing timestamp %q: %w", e.ID, when, err)
		}
		e.Severity = model.Severity(sev)
		e.Timestamp = ts
		out = append(out, e)
	}
	return out, rows.Err()
}

var _ ledger.Repository = (*Store)(nil)
