package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	eventdomain "github.com/pyar/asocmembers/internal/event/domain"
	ledgerdomain "github.com/pyar/asocmembers/internal/ledger/domain"
	memberdomain "github.com/pyar/asocmembers/internal/member/domain"
	"gorm.io/gorm"
)

// Models lists every persisted model, in creation order.
func Models() []interface{} {
	return []interface{}{
		&memberdomain.Category{},
		&memberdomain.Patron{},
		&memberdomain.Member{},
		&memberdomain.PaymentStrategy{},
		&ledgerdomain.Payment{},
		&ledgerdomain.Quota{},
		&eventdomain.Event{},
		&eventdomain.SponsorCategory{},
		&eventdomain.Sponsor{},
		&eventdomain.Sponsoring{},
		&eventdomain.SponsorInvoice{},
		&eventdomain.Expense{},
	}
}

// Apply brings the schema up to date. Postgres runs the versioned SQL
// migrations; other dialects are migrated from the models.
func Apply(conn *gorm.DB) error {
	if conn.Dialector.Name() != "postgres" {
		return conn.AutoMigrate(Models()...)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

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
	// migrator.Close would close the shared *sql.DB.

	return nil
}
