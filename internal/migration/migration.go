package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	agentdomain "github.com/smallbiznis/brokerage/internal/agent/domain"
	assetdomain "github.com/smallbiznis/brokerage/internal/asset/domain"
	auditdomain "github.com/smallbiznis/brokerage/internal/audit/domain"
	clientdomain "github.com/smallbiznis/brokerage/internal/client/domain"
	insurerdomain "github.com/smallbiznis/brokerage/internal/insurer/domain"
	policydomain "github.com/smallbiznis/brokerage/internal/policy/domain"
	quotationdomain "github.com/smallbiznis/brokerage/internal/quotation/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded postgres schema. It is a no-op when the
// database is already at the latest version.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// Models lists every persisted type in dependency order.
func Models() []any {
	return []any{
		&clientdomain.Client{},
		&assetdomain.Asset{},
		&assetdomain.Home{},
		&assetdomain.Vehicle{},
		&assetdomain.Condo{},
		&assetdomain.Other{},
		&assetdomain.AssetClient{},
		&agentdomain.Agent{},
		&agentdomain.AgentClient{},
		&insurerdomain.Insurer{},
		&insurerdomain.Deductible{},
		&insurerdomain.Coverage{},
		&insurerdomain.FinancingPlan{},
		&quotationdomain.Quotation{},
		&quotationdomain.HomeInsured{},
		&quotationdomain.VehicleInsured{},
		&quotationdomain.CondoInsured{},
		&quotationdomain.OtherInsured{},
		&quotationdomain.DeductibleLink{},
		&quotationdomain.CoverageLink{},
		&policydomain.Policy{},
		&policydomain.Installment{},
		&auditdomain.AuditLog{},
	}
}

// AutoMigrate builds the schema from the gorm models. Used for sqlite and
// mysql, where the embedded migrations do not apply.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
