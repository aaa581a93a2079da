// internal/db/migrations.go
package db

import (
	"fmt"

	"labeldesk/internal/models"

	"gorm.io/gorm"
)

// All is the full list of persisted models, in creation order.
func All() []any {
	return []any{
		&models.Site{},
		&models.SequenceCounter{},
		&models.Location{},
		&models.CableType{},
		&models.DeviceModel{},
		&models.CPUModel{},
		&models.SIDType{},
		&models.VLAN{},
		&models.Label{},
		&models.Device{},
		&models.NIC{},
		&models.Note{},
	}
}

// Migrate brings the schema up to date. Safe to run on every start.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	for _, col := range []string{"name", "code"} {
		if err := MigrateSiteUniqueIndex(db, col); err != nil {
			return fmt.Errorf("unique index sites.%s: %w", col, err)
		}
	}
	for _, t := range models.CatalogTables {
		if err := MigrateCatalogUniqueIndex(db, t); err != nil {
			return fmt.Errorf("unique index %s: %w", t, err)
		}
	}
	return nil
}

// MigrateCatalogUniqueIndex makes catalog names unique per site, ignoring case.
func MigrateCatalogUniqueIndex(db *gorm.DB, table string) error {
	if db == nil {
		return nil
	}
	idx := "ux_" + table + "_site_name"
	dialect := db.Dialector.Name()

	switch dialect {
	case "mysql":
		// utf8mb4_*_ci collation already compares case-insensitively
		if db.Migrator().HasIndex(table, idx) {
			return nil
		}
		return db.Exec(fmt.Sprintf("CREATE UNIQUE INDEX `%s` ON `%s` (`site_id`, `name`)", idx, table)).Error

	case "postgres":
		return db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON "%s" ("site_id", lower("name"))`, idx, table)).Error

	case "sqlite":
		return db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (site_id, name COLLATE NOCASE)`, idx, table)).Error

	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}

// MigrateSiteUniqueIndex keeps sites.<col> unique among rows that are not
// soft-deleted.
func MigrateSiteUniqueIndex(db *gorm.DB, col string) error {
	if db == nil {
		return nil
	}
	idx := "ux_sites_" + col + "_live"
	dialect := db.Dialector.Name()

	switch dialect {
	case "mysql":
		// нет partial index: функциональная часть NULL для удалённых строк (MySQL 8.0.13+)
		if db.Migrator().HasIndex("sites", "idx_sites_"+col) {
			_ = db.Exec(fmt.Sprintf("DROP INDEX `idx_sites_%s` ON `sites`", col)).Error
		}
		if db.Migrator().HasIndex("sites", idx) {
			return nil
		}
		return db.Exec(fmt.Sprintf("CREATE UNIQUE INDEX `%s` ON `sites` (`%s`, (IF(`deleted_at` IS NULL, 1, NULL)))", idx, col)).Error

	case "postgres":
		_ = db.Exec(fmt.Sprintf(`DROP INDEX IF EXISTS idx_sites_%s`, col)).Error
		return db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON "sites" ("%s") WHERE "deleted_at" IS NULL`, idx, col)).Error

	case "sqlite":
		// (col, deleted_at) не годится: NULL != NULL, живые дубли прошли бы
		_ = db.Exec(fmt.Sprintf(`DROP INDEX IF EXISTS idx_sites_%s`, col)).Error
		return db.Exec(fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON sites (%s) WHERE deleted_at IS NULL`, idx, col)).Error

	default:
		return fmt.Errorf("unsupported dialect: %s", dialect)
	}
}
