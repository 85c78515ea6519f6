package cli

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andy/fuellog/internal/app"
	"github.com/andy/fuellog/internal/config"
	"github.com/andy/fuellog/internal/domain"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupApp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Database.Path = filepath.Join(dir, "fuellog.db")
	cfg.Backup.Dir = filepath.Join(dir, "backups")

	logger, _ := logtest.NewNullLogger()
	a, err := app.NewWithKey(context.Background(), cfg, logger, "cli-test-key")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		SetApp(nil)
	})
	SetApp(a)
	return dir
}

// resetFlags puts every flag back to its default; the command tree is
// package-level so values would otherwise leak between invocations
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)

	err := Execute(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, "", args...)
	require.NoError(t, err, out)
	return out
}

func TestEntriesLifecycle(t *testing.T) {
	setupApp(t)

	out := mustExecute(t, "entries", "add", "--date", "2026-01-10 08:00", "--odometer", "10000", "--liters", "40", "--price", "5")
	assert.Contains(t, out, "Fuel entry created (ID: 1)")
	assert.Contains(t, out, "Total: 200.00")

	out = mustExecute(t, "entries", "add", "--date", "2026-01-17 08:00", "--odometer", "10400", "--liters", "38", "--price", "5", "--type", "ethanol", "--notes", "road trip")
	assert.Contains(t, out, "Consumption since last fill-up: 10.00 km/l")

	out = mustExecute(t, "entries", "list")
	assert.Contains(t, out, "ETHANOL")
	assert.Contains(t, out, "road trip")
	assert.Contains(t, out, "Total: 2 entries")

	out = mustExecute(t, "entries", "list", "--limit", "1")
	assert.Contains(t, out, "10.00", "consumption still measured against the hidden older entry")
	assert.Contains(t, out, "Total: 1 entries")

	out = mustExecute(t, "entries", "edit", "1", "--liters", "45.5")
	assert.Contains(t, out, "liters: 40.00 -> 45.50")
	assert.Contains(t, out, "totalPrice: 200.00 -> 227.50")

	out = mustExecute(t, "entries", "edit", "1")
	assert.Contains(t, out, "Entry 1 unchanged")

	out = mustExecute(t, "entries", "history", "1")
	assert.Contains(t, out, "liters: 40.00 -> 45.50")
	assert.Contains(t, out, "Entry created")

	out = mustExecute(t, "stats")
	assert.Contains(t, out, "Entries:              2")
	assert.Contains(t, out, "Distance covered:     400.0 km")

	out = mustExecute(t, "entries", "delete", "1", "--with-history")
	assert.Contains(t, out, "Entry deleted (ID: 1)")

	out = mustExecute(t, "entries", "history", "1")
	assert.Contains(t, out, "No history for this entry")

	out = mustExecute(t, "entries", "history", "2")
	assert.Contains(t, out, "Entry created", "history of other entries is untouched")
}

func TestEntriesErrors(t *testing.T) {
	setupApp(t)

	_, err := execute(t, "", "entries", "edit", "999", "--liters", "1")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))

	_, err = execute(t, "", "entries", "delete", "999")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))

	_, err = execute(t, "", "entries", "add", "--odometer", "100", "--liters", "0", "--price", "5")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))

	_, err = execute(t, "", "entries", "add", "--odometer", "100", "--liters", "10", "--price", "5", "--type", "diesel")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))

	_, err = execute(t, "", "entries", "history", "abc")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))
}

func TestExportResetImport(t *testing.T) {
	dir := setupApp(t)
	backupFile := filepath.Join(dir, "out", "backup.json")

	mustExecute(t, "entries", "add", "--date", "2026-01-10", "--odometer", "10000", "--liters", "40", "--price", "5")
	mustExecute(t, "entries", "add", "--date", "2026-01-17", "--odometer", "10400", "--liters", "38", "--price", "5")

	out := mustExecute(t, "export", "-o", backupFile)
	assert.Contains(t, out, "Data exported successfully: 2 entries")
	assert.FileExists(t, backupFile)

	out = mustExecute(t, "export")
	assert.Contains(t, out, filepath.Join(dir, "backups", "fuellog_backup_"))

	out = mustExecute(t, "export", "-o", "-")
	assert.Contains(t, out, `"version": 1`)

	out, err := execute(t, "n\n", "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out = mustExecute(t, "reset", "--yes")
	assert.Contains(t, out, "All entries and history have been deleted.")
	out = mustExecute(t, "entries", "list")
	assert.Contains(t, out, "No entries found")

	out, err = execute(t, "y\n", "import", backupFile, "--replace")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 entries (replaced all data)")

	out = mustExecute(t, "entries", "history", "1")
	assert.Contains(t, out, "Entry created", "history restored with the entries")

	out = mustExecute(t, "import", backupFile)
	assert.Contains(t, out, "Imported 2 entries (added to existing data)")
	out = mustExecute(t, "entries", "list")
	assert.Contains(t, out, "Total: 4 entries")

	_, err = execute(t, "", "import", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.Equal(t, ExitIO, ExitCode(err))

	_, err = execute(t, `{"version": 2}`, "import", "-", "--replace", "--yes")
	require.Error(t, err)
	assert.Equal(t, ExitInput, ExitCode(err))
	out = mustExecute(t, "entries", "list")
	assert.Contains(t, out, "Total: 4 entries", "rejected import leaves data alone")
}

func TestParseDateTime(t *testing.T) {
	got, err := parseDateTime("2026-03-04 05:06")
	require.NoError(t, err)
	assert.Equal(t, 2026, got.Year())
	assert.Equal(t, 6, got.Minute())

	_, err = parseDateTime("today")
	assert.NoError(t, err)

	_, err = parseDateTime("tomorrow-ish")
	assert.Error(t, err)
}

func TestParseFuelType(t *testing.T) {
	ft, err := parseFuelType(" Ethanol ")
	require.NoError(t, err)
	assert.Equal(t, domain.FuelTypeEthanol, ft)

	_, err = parseFuelType("diesel")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "gasoline, ethanol")
}
