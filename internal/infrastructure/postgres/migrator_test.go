package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, name := range names {
		base := strings.TrimPrefix(name, "migrations/")
		switch {
		case strings.HasSuffix(base, ".up.sql"):
			ups[strings.TrimSuffix(base, ".up.sql")] = true
		case strings.HasSuffix(base, ".down.sql"):
			downs[strings.TrimSuffix(base, ".down.sql")] = true
		default:
			t.Fatalf("unexpected migration file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitialMigrationCreatesLedgerTables(t *testing.T) {
	up, err := fs.ReadFile(migrationsFS, "migrations/000001_init.up.sql")
	require.NoError(t, err)

	for _, table := range []string{"accounts", "debts", "goals", "transactions", "categories", "budgets", "outbox_events"} {
		assert.Contains(t, string(up), "CREATE TABLE "+table+" (")
	}
	assert.Contains(t, string(up), "UNIQUE (owner_id, year, month)")
}

func TestMigratorUpFailsWithoutDatabase(t *testing.T) {
	m := NewMigrator("postgres://invalid:1/db?connect_timeout=1", zerolog.Nop())
	assert.Error(t, m.Up())
}
