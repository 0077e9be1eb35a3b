package migration

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAutoMigrateCreatesTables(t *testing.T) {
	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, AutoMigrate(db))
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"clients", "assets", "asset_vehicles", "insurers", "quotations", "quotation_coverages", "policies", "policy_installments", "agents", "agent_clients", "audit_logs"} {
		require.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir(migrationsDir)
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	require.NotZero(t, ups)
	require.Equal(t, ups, downs)
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	require.Error(t, RunMigrations(nil))
}
