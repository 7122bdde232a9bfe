package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/cleared-dev/tally/internal/accrual"
	"github.com/cleared-dev/tally/internal/auditlog"
	"github.com/cleared-dev/tally/internal/bank"
	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/sqlstore"
)

// app is everything a command needs once the home directory is loaded.
type app struct {
	cfg   *config.Config
	creds config.Credentials
	loc   *time.Location
	store *sqlstore.Store
	svc   *bank.Service
}

func openApp(opts *globalOptions) (*app, error) {
	home, err := filepath.Abs(opts.home)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, creds, err := config.LoadHome(home)
	if err != nil {
		return nil, err
	}
	rates, err := cfg.Rates()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := sqlstore.Open(cfg.Storage.Driver, cfg.Storage.DSN)
	if err != nil {
		return nil, err
	}

	logger := slog.Default()
	audit := auditlog.New(store, logger)
	engine := accrual.NewEngine(store, audit, accrual.Config{Rates: rates, Location: loc, Logger: logger})

	return &app{
		cfg:   cfg,
		creds: creds,
		loc:   loc,
		store: store,
		svc:   bank.NewService(store, engine, audit),
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// login starts a session: it authenticates and brings the user's accounts up
// to date.
func (a *app) login(ctx context.Context, opts *globalOptions) (model.User, []accrual.Result, error) {
	username, password := opts.user, opts.password
	if username == "" {
		username = a.creds.User
	}
	if password == "" {
		password = a.creds.Password
	}
	if username == "" || password == "" {
		return model.User{}, nil, errors.New("credentials required: use --user and --password or set TALLY_USER and TALLY_PASSWORD")
	}

	u, results, err := a.svc.Login(ctx, username, password)
	if err != nil {
		return model.User{}, nil, err
	}
	slog.Debug("logged in", "user", u.Username, "role", u.Role, "accounts", len(results))
	return u, results, nil
}

// withSession opens the app, logs in and runs fn.
func withSession(ctx context.Context, opts *globalOptions, fn func(a *app, u model.User) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	u, _, err := a.login(ctx, opts)
	if err != nil {
		return err
	}
	return fn(a, u)
}

// parseAsOf reads YYYY-MM-DD as midnight in loc, or a full RFC 3339 time.
// Empty means now. Times after now are refused.
func parseAsOf(s string, loc *time.Location, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, fmt.Errorf("invalid --as-of %q (want YYYY-MM-DD or RFC 3339)", s)
		}
	}
	if t.After(now) {
		return time.Time{}, fmt.Errorf("--as-of %s: %w", s, bank.ErrFutureAsOf)
	}
	return t, nil
}
