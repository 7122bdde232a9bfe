package commands_test

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/commands"
)

func runTally(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := commands.NewRootCommand()
	var out, stderr bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// initHome creates a ledger and returns the flags that select it as admin.
func initHome(t *testing.T) (string, []string) {
	t.Helper()
	t.Setenv("TALLY_TIMEZONE", "UTC")
	t.Setenv("TALLY_USER", "")
	t.Setenv("TALLY_PASSWORD", "")

	dir := t.TempDir()
	out, err := runTally(t, "init", dir, "--name", "Test Bank", "--admin-password", "root-pw")
	require.NoError(t, err, out)
	return dir, []string{"--home", dir, "--user", "admin", "--password", "root-pw"}
}

func with(base []string, args ...string) []string {
	return append(append([]string{}, args...), base...)
}

func TestInit_WritesConfigAndDatabase(t *testing.T) {
	dir, _ := initHome(t)

	data, err := os.ReadFile(filepath.Join(dir, "tally.yaml"))
	require.NoError(t, err)
	contents := string(data)
	assert.Contains(t, contents, "name: Test Bank")
	assert.Contains(t, contents, "driver: sqlite3")

	_, err = os.Stat(filepath.Join(dir, "tally.db"))
	assert.NoError(t, err)
}

func TestInit_RefusesExisting(t *testing.T) {
	dir, _ := initHome(t)
	_, err := runTally(t, "init", dir, "--name", "Again", "--admin-password", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_RequiresName(t *testing.T) {
	_, err := runTally(t, "init", t.TempDir(), "--admin-password", "x")
	assert.Error(t, err)
}

func TestLogin(t *testing.T) {
	dir, admin := initHome(t)

	out, err := runTally(t, with(admin, "login")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as admin (admin)")

	_, err = runTally(t, "login", "--home", dir, "--user", "admin", "--password", "nope")
	require.Error(t, err)

	_, err = runTally(t, "login", "--home", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "credentials required")
}

func TestLogin_EnvCredentials(t *testing.T) {
	dir, _ := initHome(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TALLY_USER=admin\nTALLY_PASSWORD=root-pw\n"), 0o600))

	out, err := runTally(t, "login", "--home", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Logged in as admin")
}

func TestAccountsTransfersAndAccrual(t *testing.T) {
	dir, admin := initHome(t)

	_, err := runTally(t, with(admin, "user", "add", "alice", "--role", "user", "--new-password", "alice-pw")...)
	require.NoError(t, err)
	_, err = runTally(t, with(admin, "user", "add", "bob", "--new-password", "bob-pw")...)
	require.NoError(t, err)
	alice := []string{"--home", dir, "--user", "alice", "--password", "alice-pw"}
	bob := []string{"--home", dir, "--user", "bob", "--password", "bob-pw"}

	out, err := runTally(t, with(alice, "account", "create", "--name", "nest egg", "--kind", "Savings", "--opening", "10000")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created Savings account 1")
	_, err = runTally(t, with(bob, "account", "create", "--name", "daily")...)
	require.NoError(t, err)

	out, err = runTally(t, with(alice, "transfer", "--from", "1", "--to", "2", "--amount", "250.5")...)
	require.NoError(t, err)
	assert.Contains(t, out, "250.50000 from 1 to 2")

	_, err = runTally(t, with(bob, "transfer", "--from", "2", "--to", "1", "--amount", "1000")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient funds")

	out, err = runTally(t, with(alice, "account", "show", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "9749.50000")

	_, err = runTally(t, with(bob, "account", "show", "1")...)
	assert.Error(t, err)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	_, err = runTally(t, with(alice, "accrue", "1", "--as-of", tomorrow)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot accrue past the current time")

	out, err = runTally(t, with(alice, "accrue", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Account 1 (Savings): 0 posted")

	batch := filepath.Join(dir, "batch.csv")
	require.NoError(t, os.WriteFile(batch, []byte("transaction_id,from_id,to_id,amount,kind,timestamp\n,1,2,10,,\n,1,2,5,transfer,\n"), 0o600))
	out, err = runTally(t, with(alice, "transfer", "import", batch)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 transfers")

	out, err = runTally(t, with(alice, "account", "show", "1", "--days", "3")...)
	require.NoError(t, err)
	assert.Contains(t, out, "CLOSING BALANCE")
	assert.Contains(t, out, "9734.50000")

	out, err = runTally(t, with(alice, "transactions", "1", "--csv")...)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5, "header, opening, transfer, two imported transfers")
	assert.Equal(t, "transfer", rows[4][4])

	out, err = runTally(t, with(alice, "transactions", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "external")
}

func TestAccountDelete(t *testing.T) {
	_, admin := initHome(t)

	_, err := runTally(t, with(admin, "account", "create", "--name", "spare")...)
	require.NoError(t, err)
	out, err := runTally(t, with(admin, "account", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "spare")

	out, err = runTally(t, with(admin, "account", "delete", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted account 1")

	_, err = runTally(t, with(admin, "account", "show", "1")...)
	assert.Error(t, err)
}

func TestLogs(t *testing.T) {
	dir, admin := initHome(t)
	_, _ = runTally(t, "login", "--home", dir, "--user", "admin", "--password", "wrong")

	out, err := runTally(t, with(admin, "logs", "--csv")...)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "log_id,title,severity,timestamp"))
	assert.Contains(t, out, "Failed login,ERROR")

	out, err = runTally(t, with(admin, "logs")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Successful login by 1")
}

func TestVersion(t *testing.T) {
	out, err := runTally(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "tally version")
}
