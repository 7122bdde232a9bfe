package sqlstore

// Amounts are decimal strings and timestamps RFC 3339 strings in both
// dialects. posted_on is the calendar date of occurred_at, kept as a column
// so the partial unique indexes can allow one accrual per account and day.

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	uid INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	account_id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid INTEGER NOT NULL REFERENCES users(uid),
	name TEXT NOT NULL,
	kind TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_uid ON accounts(uid);

CREATE TABLE IF NOT EXISTS transactions (
	transaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
	from_id INTEGER,
	to_id INTEGER,
	amount TEXT NOT NULL,
	kind TEXT NOT NULL,
	occurred_at TEXT NOT NULL,
	posted_on TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions(from_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions(to_id);

CREATE UNIQUE INDEX IF NOT EXISTS idx_interest_once_per_day
	ON transactions(to_id, posted_on) WHERE kind = 'interest';
CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_interest_once_per_day
	ON transactions(from_id, posted_on) WHERE kind = 'credit_interest';

CREATE TABLE IF NOT EXISTS logs (
	log_id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	severity TEXT NOT NULL,
	logged_at TEXT NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	uid BIGSERIAL PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	role TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
	account_id BIGSERIAL PRIMARY KEY,
	uid BIGINT NOT NULL REFERENCES users(uid),
	name TEXT NOT NULL,
	kind TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_accounts_uid ON accounts(uid);

CREATE TABLE IF NOT EXISTS transactions (
	transaction_id BIGSERIAL PRIMARY KEY,
	from_id BIGINT,
	to_id BIGINT,
	amount TEXT NOT NULL,
	kind TEXT NOT NULL,
	occurred_at TEXT NOT NULL,
	posted_on TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_from ON transactions(from_id);
CREATE INDEX IF NOT EXISTS idx_transactions_to ON transactions(to_id);

CREATE UNIQUE INDEX IF NOT EXISTS idx_interest_once_per_day
	ON transactions(to_id, posted_on) WHERE kind = 'interest';
CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_interest_once_per_day
	ON transactions(from_id, posted_on) WHERE kind = 'credit_interest';

CREATE TABLE IF NOT EXISTS logs (
	log_id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	severity TEXT NOT NULL,
	logged_at TEXT NOT NULL
);
`
